package lr2021

// Stats counts packet outcomes since the last reset. Counters only
// move in operation completion handlers: configuration, scans and
// transport faults leave them untouched.
type Stats struct {
	TxPackets uint64
	RxPackets uint64
	CrcErrors uint64
	Timeouts  uint64
}

// Stats returns a consistent snapshot of the counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// ResetStats zeroes all counters.
func (d *Device) ResetStats() {
	d.mu.Lock()
	d.stats = Stats{}
	d.mu.Unlock()
}

func (d *Device) countTx() {
	d.mu.Lock()
	d.stats.TxPackets++
	d.mu.Unlock()
}

func (d *Device) countRx() {
	d.mu.Lock()
	d.stats.RxPackets++
	d.mu.Unlock()
}

func (d *Device) countCrcError() {
	d.mu.Lock()
	d.stats.CrcErrors++
	d.mu.Unlock()
}

func (d *Device) countTimeout() {
	d.mu.Lock()
	d.stats.Timeouts++
	d.mu.Unlock()
}
