package protocol

import (
	"encoding/binary"
	"fmt"
)

// System command opcodes (group 0x01)
const (
	SysGetStatus           = 0x00
	SysGetVersion          = 0x01
	SysWriteRegMem         = 0x04
	SysWriteRegMemMask     = 0x05
	SysReadRegMem          = 0x06
	SysGetErrors           = 0x10
	SysClearErrors         = 0x11
	SysSetDioFunction      = 0x12
	SysSetDioRfSwitch      = 0x13
	SysClearFifoIrqFlags   = 0x14
	SysSetDioIrqConfig     = 0x15
	SysClearIrq            = 0x16
	SysGetAndClearIrq      = 0x17
	SysConfigLfClock       = 0x18
	SysConfigFifoIrq       = 0x1A
	SysGetFifoIrqFlags     = 0x1B
	SysGetRxFifoLevel      = 0x1C
	SysGetTxFifoLevel      = 0x1D
	SysClearRxFifo         = 0x1E
	SysClearTxFifo         = 0x1F
	SysCalibrate           = 0x22
	SysCalibFe             = 0x23
	SysGetVBat             = 0x24
	SysGetTemp             = 0x25
	SysGetRandomNumber     = 0x26
	SysSetSleep            = 0x27
	SysSetStandby          = 0x28
	SysSetFs               = 0x29
	SysGetClearedFifoFlags = 0x2E
)

// Response lengths, status bytes included
const (
	StatusRspLen       = 6
	VersionRspLen      = 4
	ErrorsRspLen       = 4
	FifoLevelRspLen    = 4
	FifoIrqFlagsRspLen = 4
	VBatRspLen         = 4
	TempRspLen         = 4
	RandomRspLen       = 6
)

// DioFunc selects the function of a configurable DIO pin.
type DioFunc uint8

const (
	DioFuncNone       DioFunc = 0
	DioFuncIrq        DioFunc = 1
	DioFuncRfSwitch   DioFunc = 2
	DioFuncOutputLow  DioFunc = 5
	DioFuncOutputHigh DioFunc = 6
	DioFuncHfClkOut   DioFunc = 7
	DioFuncLfClkOut   DioFunc = 8
	DioFuncTxTrigger  DioFunc = 9
	DioFuncRxTrigger  DioFunc = 10
)

// PullDrive is the pull-up/down applied to a DIO in sleep mode.
// PullAuto keeps the level the pin had in standby.
type PullDrive uint8

const (
	PullNone PullDrive = 0
	PullDown PullDrive = 1
	PullUp   PullDrive = 2
	PullAuto PullDrive = 3
)

// LfClock selects the low frequency clock source.
type LfClock uint8

const (
	LfClockRc    LfClock = 0
	LfClockXtal  LfClock = 1
	LfClockDio11 LfClock = 2
)

// StandbyMode selects the oscillator kept running in standby.
type StandbyMode uint8

const (
	StandbyRc   StandbyMode = 0
	StandbyXosc StandbyMode = 1
)

// VbatFormat selects raw ADC counts or millivolts for GetVBat.
type VbatFormat uint8

const (
	VbatRaw        VbatFormat = 0
	VbatMillivolts VbatFormat = 1
)

// AdcRes is the ADC resolution used for measurements.
type AdcRes uint8

const (
	AdcRes8Bit  AdcRes = 0
	AdcRes9Bit  AdcRes = 1
	AdcRes10Bit AdcRes = 2
	AdcRes11Bit AdcRes = 3
	AdcRes12Bit AdcRes = 4
	AdcRes13Bit AdcRes = 5
)

// TempSrc selects the temperature sensor.
type TempSrc uint8

const (
	TempSrcVbe  TempSrc = 0
	TempSrcXosc TempSrc = 1
	TempSrcNtc  TempSrc = 2
)

// GetStatusReq reads the status word and pending interrupts. Reading the
// status also clears the reset source field.
func GetStatusReq() []byte {
	return []byte{GroupSystem, SysGetStatus}
}

// GetVersionReq reads the firmware version.
func GetVersionReq() []byte {
	return []byte{GroupSystem, SysGetVersion}
}

// GetErrorsReq reads the error flags accumulated since the last
// ClearErrors or startup.
func GetErrorsReq() []byte {
	return []byte{GroupSystem, SysGetErrors}
}

// ClearErrorsCmd clears all error flags. The error IRQ itself must be
// cleared separately with ClearIrq.
func ClearErrorsCmd() []byte {
	return []byte{GroupSystem, SysClearErrors}
}

// SetDioFunctionCmd configures the function and sleep pull of a DIO pin.
func SetDioFunctionCmd(dio uint8, fn DioFunc, pull PullDrive) []byte {
	return []byte{
		GroupSystem, SysSetDioFunction,
		dio & 0xF,
		(uint8(fn)&0xF)<<4 | uint8(pull)&0xF,
		0,
	}
}

// SetDioRfSwitchCmd sets the level of a DIO configured as RF switch for
// each radio state.
func SetDioRfSwitchCmd(dio uint8, txHf, rxHf, txLf, rxLf, standby bool) []byte {
	cmd := make([]byte, 8)
	cmd[0] = GroupSystem
	cmd[1] = SysSetDioRfSwitch
	cmd[2] = dio & 0xF
	if txHf {
		cmd[3] |= 16
	}
	if rxHf {
		cmd[3] |= 8
	}
	if txLf {
		cmd[3] |= 4
	}
	if rxLf {
		cmd[3] |= 2
	}
	if standby {
		cmd[3] |= 1
	}
	return cmd
}

// SetDioIrqConfigCmd routes the interrupts in mask to the given DIO pin.
func SetDioIrqConfigCmd(dio uint8, mask IrqMask) []byte {
	cmd := make([]byte, 7)
	cmd[0] = GroupSystem
	cmd[1] = SysSetDioIrqConfig
	cmd[2] = dio & 0xF
	binary.BigEndian.PutUint32(cmd[3:7], uint32(mask))
	return cmd
}

// ClearIrqCmd clears the pending interrupts in mask.
func ClearIrqCmd(mask IrqMask) []byte {
	cmd := make([]byte, 6)
	cmd[0] = GroupSystem
	cmd[1] = SysClearIrq
	binary.BigEndian.PutUint32(cmd[2:6], uint32(mask))
	return cmd
}

// GetAndClearIrqReq reads the pending interrupts and clears them all in
// one exchange.
func GetAndClearIrqReq() []byte {
	return []byte{GroupSystem, SysGetAndClearIrq}
}

// ConfigLfClockCmd selects the low frequency clock source.
func ConfigLfClockCmd(src LfClock) []byte {
	return []byte{GroupSystem, SysConfigLfClock, uint8(src) & 0x3}
}

// ConfigFifoIrqCmd selects which FIFO flags raise FIFO interrupts and
// sets the level thresholds.
func ConfigFifoIrqCmd(rxEnable, txEnable uint8, rxHigh, txLow, rxLow, txHigh uint16) []byte {
	cmd := make([]byte, 12)
	cmd[0] = GroupSystem
	cmd[1] = SysConfigFifoIrq
	cmd[2] = rxEnable
	cmd[3] = txEnable
	binary.BigEndian.PutUint16(cmd[4:6], rxHigh)
	binary.BigEndian.PutUint16(cmd[6:8], txLow)
	binary.BigEndian.PutUint16(cmd[8:10], rxLow)
	binary.BigEndian.PutUint16(cmd[10:12], txHigh)
	return cmd
}

// ClearFifoIrqFlagsCmd clears the given FIFO flag bits.
func ClearFifoIrqFlagsCmd(rxFlags, txFlags uint8) []byte {
	return []byte{GroupSystem, SysClearFifoIrqFlags, rxFlags, txFlags}
}

// GetFifoIrqFlagsReq reads the FIFO flags triggered since the last clear.
func GetFifoIrqFlagsReq() []byte {
	return []byte{GroupSystem, SysGetFifoIrqFlags}
}

// GetAndClearFifoIrqFlagsReq reads and clears the FIFO flags that raised
// FIFO interrupts.
func GetAndClearFifoIrqFlagsReq() []byte {
	return []byte{GroupSystem, SysGetClearedFifoFlags}
}

// GetRxFifoLevelReq reads the RX FIFO fill level in bytes.
func GetRxFifoLevelReq() []byte {
	return []byte{GroupSystem, SysGetRxFifoLevel}
}

// GetTxFifoLevelReq reads the TX FIFO fill level in bytes.
func GetTxFifoLevelReq() []byte {
	return []byte{GroupSystem, SysGetTxFifoLevel}
}

// ClearRxFifoCmd discards the RX FIFO contents.
func ClearRxFifoCmd() []byte {
	return []byte{GroupSystem, SysClearRxFifo}
}

// ClearTxFifoCmd discards the TX FIFO contents.
func ClearTxFifoCmd() []byte {
	return []byte{GroupSystem, SysClearTxFifo}
}

// CalibrateCmd runs the selected block calibrations. The chip exits in
// standby RC.
func CalibrateCmd(paOffset, measUnit, aaf, pll, hfRc, lfRc bool) []byte {
	cmd := make([]byte, 8)
	cmd[0] = GroupSystem
	cmd[1] = SysCalibrate
	if paOffset {
		cmd[2] |= 64
	}
	if measUnit {
		cmd[2] |= 16
	}
	if aaf {
		cmd[2] |= 8
	}
	if pll {
		cmd[2] |= 4
	}
	if hfRc {
		cmd[2] |= 2
	}
	if lfRc {
		cmd[2] |= 1
	}
	return cmd
}

// CalibFeCmd runs the front end calibrations (ADC offset, PPF, image) at
// up to three frequencies, given in 4 MHz steps with the RX path encoded
// in the MSB. With no frequency the current RF frequency is used. Not
// accepted while in RX or TX mode.
func CalibFeCmd(freqs ...uint16) []byte {
	if len(freqs) > 3 {
		freqs = freqs[:3]
	}
	cmd := make([]byte, 2+2*len(freqs))
	cmd[0] = GroupSystem
	cmd[1] = SysCalibFe
	for i, f := range freqs {
		binary.BigEndian.PutUint16(cmd[2+2*i:4+2*i], f)
	}
	return cmd
}

// GetVBatReq measures the supply voltage.
func GetVBatReq(format VbatFormat, res AdcRes) []byte {
	return []byte{
		GroupSystem, SysGetVBat,
		(uint8(format)&0x1)<<3 | uint8(res)&0x7,
		0,
	}
}

// GetTempReq measures the temperature from the given sensor. The result
// is always formatted in degrees Celsius.
func GetTempReq(src TempSrc, res AdcRes) []byte {
	return []byte{
		GroupSystem, SysGetTemp,
		(uint8(src)&0x3)<<4 | 8 | uint8(res)&0x7,
		0, 0,
	}
}

// GetRandomNumberReq reads a 32-bit hardware random number.
func GetRandomNumberReq() []byte {
	return []byte{GroupSystem, SysGetRandomNumber}
}

// SetSleepCmd puts the chip in sleep mode. retention selects which
// memory banks stay powered; clk32k keeps the 32 kHz clock running.
func SetSleepCmd(clk32k bool, retention uint8) []byte {
	cmd := make([]byte, 4)
	cmd[0] = GroupSystem
	cmd[1] = SysSetSleep
	if clk32k {
		cmd[2] |= 1
	}
	cmd[2] |= (retention & 0xF) << 1
	return cmd
}

// SetSleepTimedCmd puts the chip in sleep mode with an RTC wakeup after
// sleepTime steps of 1/32.768 kHz.
func SetSleepTimedCmd(clk32k bool, retention uint8, sleepTime uint32) []byte {
	cmd := make([]byte, 8)
	cmd[0] = GroupSystem
	cmd[1] = SysSetSleep
	if clk32k {
		cmd[2] |= 1
	}
	cmd[2] |= (retention & 0xF) << 1
	binary.BigEndian.PutUint32(cmd[3:7], sleepTime)
	return cmd
}

// SetStandbyCmd puts the chip in standby on the selected oscillator.
func SetStandbyCmd(mode StandbyMode) []byte {
	return []byte{GroupSystem, SysSetStandby, uint8(mode) & 0x1}
}

// SetFsCmd puts the chip in frequency synthesis mode.
func SetFsCmd() []byte {
	return []byte{GroupSystem, SysSetFs}
}

// Version is the firmware revision reported by GetVersion.
type Version struct {
	Major uint8
	Minor uint8
}

func (v Version) String() string {
	return fmt.Sprintf("%02x.%02x", v.Major, v.Minor)
}

// DecodeVersion decodes a GetVersion response.
func DecodeVersion(rsp []byte) (Version, error) {
	if len(rsp) != VersionRspLen {
		return Version{}, fmt.Errorf("version response is %d bytes, want %d: %w", len(rsp), VersionRspLen, ErrMalformed)
	}
	return Version{Major: rsp[2], Minor: rsp[3]}, nil
}

// ChipErrors is the set of error flags reported by GetErrors. Each flag
// latches until ClearErrors.
type ChipErrors struct {
	HfXoscStart      bool // HF crystal failed to start
	LfXoscStart      bool // LF crystal failed to start (or TCXO not enabled)
	PllLock          bool // PLL failed to lock
	LfRcCalib        bool // LF RC calibration failed
	HfRcCalib        bool // HF RC calibration failed
	PllCalib         bool // PLL calibration failed
	AafCalib         bool // anti-aliasing filter calibration failed
	ImgCalib         bool // image rejection calibration failed
	ChipBusy         bool // DIO trigger ignored while changing mode
	RxFreqNoFeCal    bool // no front end calibration for the RX frequency
	MeasUnitAdcCalib bool // measure unit ADC calibration failed
	PaOffsetCalib    bool // PA offset calibration failed
	PpfCalib         bool // poly-phase filter calibration failed
	SrcCalib         bool // self reception cancellation calibration failed
}

// Any reports whether at least one error flag is set.
func (e ChipErrors) Any() bool {
	return e != ChipErrors{}
}

// DecodeChipErrors decodes a GetErrors response.
func DecodeChipErrors(rsp []byte) (ChipErrors, error) {
	if len(rsp) != ErrorsRspLen {
		return ChipErrors{}, fmt.Errorf("errors response is %d bytes, want %d: %w", len(rsp), ErrorsRspLen, ErrMalformed)
	}
	return ChipErrors{
		HfXoscStart:      rsp[3]&0x01 != 0,
		LfXoscStart:      rsp[3]&0x02 != 0,
		PllLock:          rsp[3]&0x04 != 0,
		LfRcCalib:        rsp[3]&0x08 != 0,
		HfRcCalib:        rsp[3]&0x10 != 0,
		PllCalib:         rsp[3]&0x20 != 0,
		AafCalib:         rsp[3]&0x40 != 0,
		ImgCalib:         rsp[3]&0x80 != 0,
		ChipBusy:         rsp[2]&0x01 != 0,
		RxFreqNoFeCal:    rsp[2]&0x02 != 0,
		MeasUnitAdcCalib: rsp[2]&0x04 != 0,
		PaOffsetCalib:    rsp[2]&0x08 != 0,
		PpfCalib:         rsp[2]&0x10 != 0,
		SrcCalib:         rsp[2]&0x20 != 0,
	}, nil
}

// DecodeFifoLevel decodes a GetRxFifoLevel or GetTxFifoLevel response
// into a byte count.
func DecodeFifoLevel(rsp []byte) (uint16, error) {
	if len(rsp) != FifoLevelRspLen {
		return 0, fmt.Errorf("fifo level response is %d bytes, want %d: %w", len(rsp), FifoLevelRspLen, ErrMalformed)
	}
	return binary.BigEndian.Uint16(rsp[2:4]), nil
}

// DecodeFifoIrqFlags decodes a GetFifoIrqFlags or GetAndClearFifoIrqFlags
// response into the RX and TX flag bytes.
func DecodeFifoIrqFlags(rsp []byte) (rxFlags, txFlags uint8, err error) {
	if len(rsp) != FifoIrqFlagsRspLen {
		return 0, 0, fmt.Errorf("fifo flags response is %d bytes, want %d: %w", len(rsp), FifoIrqFlagsRspLen, ErrMalformed)
	}
	return rsp[2], rsp[3], nil
}

// DecodeVBat decodes a GetVBat response requested in millivolts.
func DecodeVBat(rsp []byte) (uint16, error) {
	if len(rsp) != VBatRspLen {
		return 0, fmt.Errorf("vbat response is %d bytes, want %d: %w", len(rsp), VBatRspLen, ErrMalformed)
	}
	return binary.BigEndian.Uint16(rsp[2:4]), nil
}

// DecodeTemp decodes a GetTemp response into degrees Celsius. The chip
// returns a signed fixed point value with 8 fractional bits.
func DecodeTemp(rsp []byte) (float64, error) {
	if len(rsp) != TempRspLen {
		return 0, fmt.Errorf("temp response is %d bytes, want %d: %w", len(rsp), TempRspLen, ErrMalformed)
	}
	return float64(int16(binary.BigEndian.Uint16(rsp[2:4]))) / 256, nil
}

// DecodeRandom decodes a GetRandomNumber response.
func DecodeRandom(rsp []byte) (uint32, error) {
	if len(rsp) != RandomRspLen {
		return 0, fmt.Errorf("random response is %d bytes, want %d: %w", len(rsp), RandomRspLen, ErrMalformed)
	}
	return binary.BigEndian.Uint32(rsp[2:6]), nil
}
