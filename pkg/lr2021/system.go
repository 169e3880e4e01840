package lr2021

import (
	"fmt"

	"github.com/TheClams/lr2021-go/pkg/protocol"
)

// GetStatus reads the status word and the pending interrupt flags
// without clearing them. Reading the status also clears the reset
// source field.
func (d *Device) GetStatus() (protocol.Status, protocol.IrqMask, error) {
	rsp, err := d.exchangeRead(protocol.GetStatusReq(), protocol.StatusRspLen)
	if err != nil {
		return protocol.Status{}, 0, err
	}
	st, err := protocol.DecodeStatus(rsp)
	if err != nil {
		return protocol.Status{}, 0, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	irq, err := protocol.DecodeIrq(rsp)
	if err != nil {
		return protocol.Status{}, 0, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return st, irq, nil
}

// GetAndClearIrq reads the pending interrupt flags and clears them all.
func (d *Device) GetAndClearIrq() (protocol.IrqMask, error) {
	rsp, err := d.exchangeRead(protocol.GetAndClearIrqReq(), protocol.StatusRspLen)
	if err != nil {
		return 0, err
	}
	irq, err := protocol.DecodeIrq(rsp)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return irq, nil
}

// ClearIrq clears the given interrupt flags.
func (d *Device) ClearIrq(mask protocol.IrqMask) error {
	return d.exchangeCmd(protocol.ClearIrqCmd(mask))
}

// GetVersion reads the chip firmware version.
func (d *Device) GetVersion() (protocol.Version, error) {
	rsp, err := d.exchangeRead(protocol.GetVersionReq(), protocol.VersionRspLen)
	if err != nil {
		return protocol.Version{}, err
	}
	v, err := protocol.DecodeVersion(rsp)
	if err != nil {
		return protocol.Version{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return v, nil
}

// GetChipErrors reads the error flags latched since the last clear.
func (d *Device) GetChipErrors() (protocol.ChipErrors, error) {
	rsp, err := d.exchangeRead(protocol.GetErrorsReq(), protocol.ErrorsRspLen)
	if err != nil {
		return protocol.ChipErrors{}, err
	}
	e, err := protocol.DecodeChipErrors(rsp)
	if err != nil {
		return protocol.ChipErrors{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return e, nil
}

// ClearChipErrors clears the latched error flags.
func (d *Device) ClearChipErrors() error {
	return d.exchangeCmd(protocol.ClearErrorsCmd())
}

// SetStandby puts the chip in standby on the given oscillator.
func (d *Device) SetStandby(mode protocol.StandbyMode) error {
	return d.exchangeCmd(protocol.SetStandbyCmd(mode))
}

// SetFs parks the chip in frequency synthesis mode, ready for a fast
// switch to RX or TX.
func (d *Device) SetFs() error {
	return d.exchangeCmd(protocol.SetFsCmd())
}

// SetSleep puts the chip to sleep until the chip select wakes it.
// WakeUp brings it back.
func (d *Device) SetSleep(clk32k bool, retention uint8) error {
	return d.exchangeCmd(protocol.SetSleepCmd(clk32k, retention))
}

// SetSleepTimed puts the chip to sleep for sleepTime RTC steps of
// 1/32.768 kHz.
func (d *Device) SetSleepTimed(clk32k bool, retention uint8, sleepTime uint32) error {
	return d.exchangeCmd(protocol.SetSleepTimedCmd(clk32k, retention, sleepTime))
}

// Calibrate runs the selected calibration blocks and blocks until the
// chip is ready again.
func (d *Device) Calibrate(paOffset, measUnit, aaf, pll, hfRc, lfRc bool) error {
	if err := d.exchangeCmd(protocol.CalibrateCmd(paOffset, measUnit, aaf, pll, hfRc, lfRc)); err != nil {
		return err
	}
	d.busMu.Lock()
	defer d.busMu.Unlock()
	return d.waitReady(busyTimeout)
}

// CalibrateFrontEnd recalibrates the receive front end. Up to three
// frequencies in MHz may be given to calibrate away from the current
// RF frequency.
func (d *Device) CalibrateFrontEnd(freqsMhz ...uint16) error {
	return d.exchangeCmd(protocol.CalibFeCmd(freqsMhz...))
}

// GetTemp reads the die temperature in degrees Celsius.
func (d *Device) GetTemp() (float64, error) {
	rsp, err := d.exchangeRead(protocol.GetTempReq(protocol.TempSrcVbe, protocol.AdcRes13Bit), protocol.TempRspLen)
	if err != nil {
		return 0, err
	}
	t, err := protocol.DecodeTemp(rsp)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return t, nil
}

// GetVBat reads the supply voltage in millivolts.
func (d *Device) GetVBat() (uint16, error) {
	rsp, err := d.exchangeRead(protocol.GetVBatReq(protocol.VbatMillivolts, protocol.AdcRes11Bit), protocol.VBatRspLen)
	if err != nil {
		return 0, err
	}
	v, err := protocol.DecodeVBat(rsp)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return v, nil
}

// GetRandom reads a 32 bit hardware random number.
func (d *Device) GetRandom() (uint32, error) {
	rsp, err := d.exchangeRead(protocol.GetRandomNumberReq(), protocol.RandomRspLen)
	if err != nil {
		return 0, err
	}
	r, err := protocol.DecodeRandom(rsp)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return r, nil
}

// ReadRegister reads one register or memory word.
func (d *Device) ReadRegister(addr uint32) (uint32, error) {
	words, err := d.ReadRegisters(addr, 1)
	if err != nil {
		return 0, err
	}
	return words[0], nil
}

// ReadRegisters reads up to four consecutive 32 bit words.
func (d *Device) ReadRegisters(addr uint32, n uint8) ([]uint32, error) {
	rsp, err := d.exchangeRead(protocol.ReadRegMemReq(addr, n), protocol.ReadRegMemRspLen(n))
	if err != nil {
		return nil, err
	}
	words, err := protocol.DecodeRegMem(rsp, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return words, nil
}

// WriteRegister writes one register or memory word.
func (d *Device) WriteRegister(addr, value uint32) error {
	return d.exchangeCmd(protocol.WriteRegMemCmd(addr, value))
}

// WriteRegisterMask updates the masked bits of a register, leaving the
// rest untouched.
func (d *Device) WriteRegisterMask(addr, mask, value uint32) error {
	return d.exchangeCmd(protocol.WriteRegMemMaskCmd(addr, mask, value))
}

// LoadPram uploads a firmware patch to patch RAM. Blocks carry 32
// patch bytes each while the load address advances 128 per block. The
// chip must be reset before and after the upload.
func (d *Device) LoadPram(patch []byte) error {
	req := make([]byte, 2+3+protocol.PramBlockLen)
	req[0] = protocol.OpWrRegMem[0]
	req[1] = protocol.OpWrRegMem[1]
	echo := make([]byte, len(req))
	addr := uint32(protocol.PramBaseAddr)
	for off := 0; off < len(patch); off += 32 {
		end := off + 32
		if end > len(patch) {
			end = len(patch)
		}
		req[2] = byte(addr >> 16)
		req[3] = byte(addr >> 8)
		req[4] = byte(addr)
		copy(req[5:], patch[off:end])
		if _, err := d.exchangeData(req, echo); err != nil {
			return fmt.Errorf("pram block at %#x: %w", addr, err)
		}
		addr += protocol.PramBlockLen
	}
	return nil
}

// RxFifoLevel reads the RX FIFO fill level in bytes.
func (d *Device) RxFifoLevel() (uint16, error) {
	rsp, err := d.exchangeRead(protocol.GetRxFifoLevelReq(), protocol.FifoLevelRspLen)
	if err != nil {
		return 0, err
	}
	n, err := protocol.DecodeFifoLevel(rsp)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return n, nil
}

// TxFifoLevel reads the TX FIFO fill level in bytes.
func (d *Device) TxFifoLevel() (uint16, error) {
	rsp, err := d.exchangeRead(protocol.GetTxFifoLevelReq(), protocol.FifoLevelRspLen)
	if err != nil {
		return 0, err
	}
	n, err := protocol.DecodeFifoLevel(rsp)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return n, nil
}

// ClearRxFifo drops everything in the RX FIFO.
func (d *Device) ClearRxFifo() error {
	return d.exchangeCmd(protocol.ClearRxFifoCmd())
}

// ClearTxFifo drops everything in the TX FIFO.
func (d *Device) ClearTxFifo() error {
	return d.exchangeCmd(protocol.ClearTxFifoCmd())
}

// ResetRxStats zeroes the chip-side reception statistics. These are
// separate from the driver counters in Stats.
func (d *Device) ResetRxStats() error {
	return d.exchangeCmd(protocol.ResetRxStatsCmd())
}

// SetOokThreshold sets the OOK demodulator detection threshold.
func (d *Device) SetOokThreshold(thr int8) error {
	return d.exchangeCmd(protocol.SetOokThrCmd(thr))
}

// LoraRxStats reads the LoRa reception statistics.
func (d *Device) LoraRxStats() (protocol.LoraRxStats, error) {
	rsp, err := d.exchangeRead(protocol.GetLoraRxStatsReq(), protocol.LoraRxStatsRspLen)
	if err != nil {
		return protocol.LoraRxStats{}, err
	}
	s, err := protocol.DecodeLoraRxStats(rsp)
	if err != nil {
		return protocol.LoraRxStats{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return s, nil
}

// LoraPacketStatus reads the signal quality of the last LoRa packet.
func (d *Device) LoraPacketStatus() (protocol.LoraPacketStatus, error) {
	rsp, err := d.exchangeRead(protocol.GetLoraPacketStatusReq(), protocol.LoraPacketStatusRspLen)
	if err != nil {
		return protocol.LoraPacketStatus{}, err
	}
	s, err := protocol.DecodeLoraPacketStatus(rsp)
	if err != nil {
		return protocol.LoraPacketStatus{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return s, nil
}

// FskRxStats reads the FSK reception statistics. The same counters
// serve the OOK modem.
func (d *Device) FskRxStats() (protocol.FskRxStats, error) {
	rsp, err := d.exchangeRead(protocol.GetFskRxStatsReq(), protocol.FskRxStatsRspLen)
	if err != nil {
		return protocol.FskRxStats{}, err
	}
	s, err := protocol.DecodeFskRxStats(rsp)
	if err != nil {
		return protocol.FskRxStats{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return s, nil
}

// FskPacketStatus reads the signal quality of the last FSK packet.
func (d *Device) FskPacketStatus() (protocol.FskPacketStatus, error) {
	rsp, err := d.exchangeRead(protocol.GetFskPacketStatusReq(), protocol.FskPacketStatusRspLen)
	if err != nil {
		return protocol.FskPacketStatus{}, err
	}
	s, err := protocol.DecodeFskPacketStatus(rsp)
	if err != nil {
		return protocol.FskPacketStatus{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return s, nil
}

// OokPacketStatus reads the signal quality of the last OOK packet.
func (d *Device) OokPacketStatus() (protocol.OokPacketStatus, error) {
	rsp, err := d.exchangeRead(protocol.GetOokPacketStatusReq(), protocol.OokPacketStatusRspLen)
	if err != nil {
		return protocol.OokPacketStatus{}, err
	}
	s, err := protocol.DecodeOokPacketStatus(rsp)
	if err != nil {
		return protocol.OokPacketStatus{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return s, nil
}

// FlrcPacketStatus reads the signal quality of the last FLRC packet.
func (d *Device) FlrcPacketStatus() (protocol.FlrcPacketStatus, error) {
	rsp, err := d.exchangeRead(protocol.GetFlrcPacketStatusReq(), protocol.FlrcPacketStatusRspLen)
	if err != nil {
		return protocol.FlrcPacketStatus{}, err
	}
	s, err := protocol.DecodeFlrcPacketStatus(rsp)
	if err != nil {
		return protocol.FlrcPacketStatus{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return s, nil
}

// BleRxStats reads the BLE reception statistics.
func (d *Device) BleRxStats() (protocol.BleRxStats, error) {
	rsp, err := d.exchangeRead(protocol.GetBleRxStatsReq(), protocol.BleRxStatsRspLen)
	if err != nil {
		return protocol.BleRxStats{}, err
	}
	s, err := protocol.DecodeBleRxStats(rsp)
	if err != nil {
		return protocol.BleRxStats{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return s, nil
}

// BleRxStatsAdv reads the extended BLE reception statistics, including
// the per-channel CRC counters used when scanning advertisements.
func (d *Device) BleRxStatsAdv() (protocol.BleRxStats, error) {
	rsp, err := d.exchangeRead(protocol.GetBleRxStatsReq(), protocol.BleRxStatsAdvRspLen)
	if err != nil {
		return protocol.BleRxStats{}, err
	}
	s, err := protocol.DecodeBleRxStatsAdv(rsp)
	if err != nil {
		return protocol.BleRxStats{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return s, nil
}

// BlePacketStatus reads the signal quality of the last BLE packet.
func (d *Device) BlePacketStatus() (protocol.BlePacketStatus, error) {
	rsp, err := d.exchangeRead(protocol.GetBlePacketStatusReq(), protocol.BlePacketStatusRspLen)
	if err != nil {
		return protocol.BlePacketStatus{}, err
	}
	s, err := protocol.DecodeBlePacketStatus(rsp)
	if err != nil {
		return protocol.BlePacketStatus{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return s, nil
}
