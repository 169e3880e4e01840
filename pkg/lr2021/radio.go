package lr2021

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TheClams/lr2021-go/pkg/protocol"
)

// Profile is a complete radio configuration for one modem. The
// implementations live in pkg/profiles. A profile must be a comparable
// value: Configure skips reapplying the profile currently in effect.
type Profile interface {
	// Validate checks the field combination before any bus traffic.
	Validate() error
	// PacketType selects the modem.
	PacketType() protocol.PacketType
	// FrequencyHz is the RF center frequency.
	FrequencyHz() uint32
	// TxPower is the transmit power level in chip units.
	TxPower() uint8
	// Ramp is the PA ramp time.
	Ramp() protocol.RampTime
	// Setup returns the modem specific command sequence, applied after
	// the packet type is set.
	Setup() [][]byte
}

const (
	// defaultTxTimeout bounds a transmission. Slow settings stay well
	// under it: a full LoRa SF12 frame is around eight seconds.
	defaultTxTimeout = 10 * time.Second
	// gateSlack is added on top of the chip timeout so the chip
	// timeout interrupt normally wins over the gate timer.
	gateSlack = 100 * time.Millisecond
	// scanDwell is the RSSI averaging window per sweep step.
	scanDwell = 100 * time.Microsecond
	// calibDwell is the ambient measurement window for the OOK
	// threshold calibration.
	calibDwell = 2 * time.Millisecond
	// rssiMargin is the headroom in dB added above the measured
	// ambient level by CalibrateThreshold.
	rssiMargin = 15
	// hfPathMinHz is the lowest frequency served by the high frequency
	// receive path and PA.
	hfPathMinHz = 1500000000
	// rssiCfgAddr holds the RSSI filter configuration register.
	rssiCfgAddr = 0xF3014C
)

// rtcSteps converts a duration to 24 bit RTC timer steps of
// 1/32.768 kHz, clamping just below the continuous marker.
func rtcSteps(t time.Duration) uint32 {
	steps := int64(t) * 32768 / int64(time.Second)
	if steps <= 0 {
		return protocol.TimeoutSingle
	}
	if steps >= int64(protocol.TimeoutContinuous) {
		return protocol.TimeoutContinuous - 1
	}
	return uint32(steps)
}

func rxPathFor(freqHz uint32) (protocol.RxPath, uint8) {
	if freqHz >= hfPathMinHz {
		return protocol.RxPathHf, 7
	}
	return protocol.RxPathLf, 0
}

func dioPull(dio uint8) protocol.PullDrive {
	if dio > 6 {
		return protocol.PullAuto
	}
	return protocol.PullUp
}

// Configure applies a profile: frequency, receive path, front end
// calibration, packet type, the profile's modem commands, transmit
// power and the interrupt routing. All or nothing: on any error the
// stored profile is unchanged and a later Configure starts over.
// Counters are never touched.
func (d *Device) Configure(p Profile) error {
	if p == nil {
		return fmt.Errorf("nil profile")
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	token, err := d.beginOp(stateConfiguring)
	if err != nil {
		return err
	}
	defer d.endOp(token)

	if cur := d.currentProfile(); cur != nil && cur == p {
		return nil
	}

	path, boost := rxPathFor(p.FrequencyHz())
	cmds := [][]byte{
		protocol.SetRfFrequencyCmd(p.FrequencyHz()),
		protocol.SetRxPathCmd(path, boost),
		protocol.CalibFeCmd(),
	}
	cmds = append(cmds, protocol.SetPacketTypeCmd(p.PacketType()))
	cmds = append(cmds, p.Setup()...)
	cmds = append(cmds,
		protocol.SetTxParamsCmd(p.TxPower(), p.Ramp()),
		protocol.SetDioFunctionCmd(d.irqDio, protocol.DioFuncIrq, dioPull(d.irqDio)),
	)
	for _, cmd := range cmds {
		if err := d.exchangeCmd(cmd); err != nil {
			return fmt.Errorf("configure: %w", err)
		}
	}

	d.mu.Lock()
	d.profile = p
	d.mu.Unlock()
	return nil
}

// armIrq routes the given interrupts to the DIO and drops anything
// still pending from a previous operation.
func (d *Device) armIrq(mask protocol.IrqMask) error {
	if err := d.exchangeCmd(protocol.SetDioIrqConfigCmd(d.irqDio, mask)); err != nil {
		return err
	}
	_, err := d.GetAndClearIrq()
	return err
}

// stopChip forces the chip back to standby and flushes both FIFOs.
func (d *Device) stopChip() error {
	if err := d.exchangeCmd(protocol.SetStandbyCmd(protocol.StandbyRc)); err != nil {
		return err
	}
	if err := d.exchangeCmd(protocol.ClearTxFifoCmd()); err != nil {
		return err
	}
	return d.exchangeCmd(protocol.ClearRxFifoCmd())
}

// Transmit sends one payload and blocks until the chip reports it out.
// The TX counter moves on success, the timeout counter on a transmit
// timeout; a transport fault aborts the operation without counting.
func (d *Device) Transmit(ctx context.Context, payload []byte) error {
	token, err := d.beginOp(stateTransmitting)
	if err != nil {
		return err
	}
	defer d.endOp(token)

	if d.currentProfile() == nil {
		return ErrNotConfigured
	}
	if err := d.buf.loadTx(payload); err != nil {
		return err
	}

	if err := d.gate.begin(); err != nil {
		return err
	}
	defer d.gate.end()

	armed := protocol.IrqTxDone | protocol.IrqTimeout
	if err := d.armIrq(armed); err != nil {
		return d.opFault("transmit", err)
	}
	if err := d.writeTxFifo(); err != nil {
		return d.opFault("transmit", err)
	}
	if err := d.exchangeCmd(protocol.SetTxCmd(rtcSteps(defaultTxTimeout))); err != nil {
		return d.opFault("transmit", err)
	}

	hit, err := d.waitIrq(ctx, armed, defaultTxTimeout+gateSlack)
	switch {
	case err == nil && hit.Has(protocol.IrqTxDone):
		d.countTx()
		return nil
	case err == nil:
		d.countTimeout()
		_ = d.stopChip()
		return ErrTxTimeout
	case errors.Is(err, ErrWaitTimeout):
		d.countTimeout()
		_ = d.stopChip()
		return fmt.Errorf("no interrupt within %v: %w", defaultTxTimeout, ErrTxTimeout)
	case errors.Is(err, ErrAborted):
		return ErrAborted
	default:
		return d.opFault("transmit", err)
	}
}

// Receive waits for one packet. A timeout of zero or less listens until
// the context ends. A detected preamble extends the deadline once so a
// packet already on the air may finish; after that the timeout is final.
// CRC failures clear the FIFO and return ErrCrcMismatch, the payload is
// never surfaced.
func (d *Device) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	token, err := d.beginOp(stateReceiving)
	if err != nil {
		return nil, err
	}
	defer d.endOp(token)

	if d.currentProfile() == nil {
		return nil, ErrNotConfigured
	}

	if err := d.gate.begin(); err != nil {
		return nil, err
	}
	defer d.gate.end()

	armed := protocol.IrqRxDone | protocol.IrqCrcError | protocol.IrqTimeout | protocol.IrqPreambleDetected
	if err := d.armIrq(armed); err != nil {
		return nil, d.opFault("receive", err)
	}
	if err := d.exchangeCmd(protocol.SetRxCmd(rtcSteps(timeout))); err != nil {
		return nil, d.opFault("receive", err)
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout + gateSlack)
	}
	extended := false
	for {
		var wait time.Duration
		if !deadline.IsZero() {
			wait = time.Until(deadline)
			if wait <= 0 {
				d.countTimeout()
				_ = d.stopChip()
				return nil, fmt.Errorf("no interrupt within %v: %w", timeout, ErrRxTimeout)
			}
		}
		hit, err := d.waitIrq(ctx, armed, wait)
		switch {
		case err == nil && hit.Has(protocol.IrqCrcError):
			d.countCrcError()
			_ = d.exchangeCmd(protocol.ClearRxFifoCmd())
			return nil, ErrCrcMismatch
		case err == nil && hit.Has(protocol.IrqRxDone):
			return d.fetchPacket()
		case err == nil && hit.Has(protocol.IrqTimeout):
			d.countTimeout()
			return nil, ErrRxTimeout
		case err == nil:
			// Preamble detected: give the packet a chance to land.
			if !extended && !deadline.IsZero() {
				extended = true
				deadline = time.Now().Add(timeout + gateSlack)
			}
		case errors.Is(err, ErrWaitTimeout):
			d.countTimeout()
			_ = d.stopChip()
			return nil, fmt.Errorf("no interrupt within %v: %w", timeout, ErrRxTimeout)
		case errors.Is(err, ErrAborted):
			return nil, ErrAborted
		default:
			return nil, d.opFault("receive", err)
		}
	}
}

// fetchPacket reads the received packet length and payload out of the
// RX FIFO. The returned slice is a copy owned by the caller.
func (d *Device) fetchPacket() ([]byte, error) {
	rsp, err := d.exchangeRead(protocol.GetRxPktLengthReq(), protocol.RxPktLengthRspLen)
	if err != nil {
		return nil, d.opFault("receive", err)
	}
	n, err := protocol.DecodeRxPktLength(rsp)
	if err != nil {
		return nil, d.opFault("receive", err)
	}
	raw, err := d.readRxFifo(int(n))
	if err != nil {
		return nil, d.opFault("receive", err)
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	d.countRx()
	return out, nil
}

// opFault handles a transport fault mid-operation: the chip is forced
// back to standby and the error surfaces wrapped. Counters stay put.
func (d *Device) opFault(op string, err error) error {
	_ = d.stopChip()
	return fmt.Errorf("%s: %w", op, err)
}

// Abort stops whatever the radio is doing and puts the chip in
// standby. At idle it is a no-op. Safe to call from any goroutine; a
// pending Receive or Transmit observes ErrAborted.
func (d *Device) Abort() error {
	d.mu.Lock()
	if d.state == stateIdle {
		d.mu.Unlock()
		return nil
	}
	d.opSeq++
	d.state = stateIdle
	d.mu.Unlock()

	d.gate.interrupt()
	if err := d.stopChip(); err != nil {
		return fmt.Errorf("abort: %w", err)
	}
	return nil
}

// SweepPoint is one sampled frequency of a scan.
type SweepPoint struct {
	FreqHz uint32
	Dbm    float64
}

// Sweep iterates over a frequency scan:
//
//	sweep, err := dev.Scan(start, stop, step)
//	...
//	defer sweep.Stop()
//	for sweep.Next() {
//		pt := sweep.Point()
//		...
//	}
//	if err := sweep.Err(); err != nil {
//		...
//	}
type Sweep struct {
	d     *Device
	token uint64
	next  uint64
	stop  uint64
	step  uint64
	point SweepPoint
	err   error
	done  bool
}

// Scan starts a sweep from startHz to stopHz inclusive. Each step tunes
// the receiver and samples the RSSI. The sweep owns the radio until it
// finishes or Stop is called; the chip is left in standby at the last
// tuned frequency.
func (d *Device) Scan(startHz, stopHz, stepHz uint32) (*Sweep, error) {
	if stepHz == 0 {
		return nil, fmt.Errorf("scan step must be positive")
	}
	if stopHz < startHz {
		return nil, fmt.Errorf("scan stop %d Hz below start %d Hz", stopHz, startHz)
	}
	token, err := d.beginOp(stateScanning)
	if err != nil {
		return nil, err
	}
	if d.currentProfile() == nil {
		d.endOp(token)
		return nil, ErrNotConfigured
	}
	if err := d.fineRssiMode(); err != nil {
		d.endOp(token)
		return nil, fmt.Errorf("scan: %w", err)
	}
	if err := d.exchangeCmd(protocol.SetRxCmd(protocol.TimeoutContinuous)); err != nil {
		d.endOp(token)
		return nil, fmt.Errorf("scan: %w", err)
	}
	return &Sweep{
		d:     d,
		token: token,
		next:  uint64(startHz),
		stop:  uint64(stopHz),
		step:  uint64(stepHz),
	}, nil
}

// fineRssiMode raises the RSSI filter averaging for measurement use.
func (d *Device) fineRssiMode() error {
	cfg, err := d.ReadRegister(rssiCfgAddr)
	if err != nil {
		return err
	}
	return d.WriteRegister(rssiCfgAddr, (cfg&0xFFFFF0FF)|7<<3)
}

// Next advances to the next frequency. It returns false when the sweep
// is exhausted, stopped, aborted or failed; Err tells which.
func (s *Sweep) Next() bool {
	if s.done {
		return false
	}
	if s.d.opDisplaced(s.token) {
		s.done = true
		s.err = ErrAborted
		return false
	}
	if s.next > s.stop {
		s.close(nil)
		return false
	}
	f := uint32(s.next)
	if err := s.d.exchangeCmd(protocol.SetRfFrequencyCmd(f)); err != nil {
		s.close(fmt.Errorf("scan tune: %w", err))
		return false
	}
	raw, err := s.d.averageRssi(scanDwell)
	if err != nil {
		s.close(fmt.Errorf("scan sample: %w", err))
		return false
	}
	s.point = SweepPoint{FreqHz: f, Dbm: protocol.RssiDbm(raw)}
	s.next += s.step
	return true
}

// Point returns the sample produced by the last successful Next.
func (s *Sweep) Point() SweepPoint {
	return s.point
}

// Err returns the error that ended the sweep, nil after a full pass.
func (s *Sweep) Err() error {
	return s.err
}

// Stop ends the sweep early and releases the radio.
func (s *Sweep) Stop() error {
	s.close(nil)
	return s.err
}

func (s *Sweep) close(cause error) {
	if s.done {
		return
	}
	s.done = true
	s.err = cause
	if err := s.d.exchangeCmd(protocol.SetStandbyCmd(protocol.StandbyRc)); err != nil && s.err == nil {
		s.err = fmt.Errorf("scan stop: %w", err)
	}
	s.d.endOp(s.token)
}

// averageRssi samples the instantaneous RSSI for at least the dwell
// window and returns the mean in raw half-dB units.
func (d *Device) averageRssi(dwell time.Duration) (uint16, error) {
	var sum, n uint64
	deadline := time.Now().Add(dwell)
	for {
		rsp, err := d.exchangeRead(protocol.GetRssiInstReq(), protocol.RssiInstRspLen)
		if err != nil {
			return 0, err
		}
		raw, err := protocol.DecodeRssiInst(rsp)
		if err != nil {
			return 0, err
		}
		sum += uint64(raw)
		n++
		if !time.Now().Before(deadline) {
			return uint16(sum / n), nil
		}
	}
}

// MeasureRssi tunes to freqHz and returns the ambient level in dBm,
// averaged over the dwell window. The receive path of the configured
// modem does the measuring, so a profile must be applied first.
func (d *Device) MeasureRssi(freqHz uint32, dwell time.Duration) (float64, error) {
	token, err := d.beginOp(stateScanning)
	if err != nil {
		return 0, err
	}
	defer d.endOp(token)

	if d.currentProfile() == nil {
		return 0, ErrNotConfigured
	}
	if err := d.exchangeCmd(protocol.SetRfFrequencyCmd(freqHz)); err != nil {
		return 0, fmt.Errorf("measure rssi: %w", err)
	}
	if err := d.exchangeCmd(protocol.SetRxCmd(protocol.TimeoutContinuous)); err != nil {
		return 0, fmt.Errorf("measure rssi: %w", err)
	}
	raw, err := d.averageRssi(dwell)
	if err != nil {
		_ = d.exchangeCmd(protocol.SetStandbyCmd(protocol.StandbyRc))
		return 0, fmt.Errorf("measure rssi: %w", err)
	}
	if err := d.exchangeCmd(protocol.SetStandbyCmd(protocol.StandbyRc)); err != nil {
		return 0, fmt.Errorf("measure rssi: %w", err)
	}
	return protocol.RssiDbm(raw), nil
}

// CalibrateThreshold measures the ambient level at the configured
// frequency and derives a detection threshold with a fixed margin
// above it, in the chip's signed threshold units. With an OOK profile
// the threshold is applied to the demodulator as well. Counters and
// the stored profile are untouched.
func (d *Device) CalibrateThreshold() (int16, error) {
	token, err := d.beginOp(stateCalibrating)
	if err != nil {
		return 0, err
	}
	defer d.endOp(token)

	p := d.currentProfile()
	if p == nil {
		return 0, ErrNotConfigured
	}

	if err := d.exchangeCmd(protocol.SetRxCmd(protocol.TimeoutContinuous)); err != nil {
		return 0, fmt.Errorf("calibrate threshold: %w", err)
	}
	raw, err := d.averageRssi(calibDwell)
	if err != nil {
		_ = d.exchangeCmd(protocol.SetStandbyCmd(protocol.StandbyRc))
		return 0, fmt.Errorf("calibrate threshold: %w", err)
	}
	if err := d.exchangeCmd(protocol.SetStandbyCmd(protocol.StandbyRc)); err != nil {
		return 0, fmt.Errorf("calibrate threshold: %w", err)
	}

	thr := 64 + rssiMargin - int16(raw>>1)
	if p.PacketType() == protocol.PacketOok {
		if err := d.SetOokThreshold(clampI8(thr)); err != nil {
			return 0, fmt.Errorf("calibrate threshold: %w", err)
		}
	}
	return thr, nil
}

func clampI8(v int16) int8 {
	if v > 127 {
		return 127
	}
	if v < -128 {
		return -128
	}
	return int8(v)
}
