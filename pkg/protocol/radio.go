package protocol

import (
	"encoding/binary"
	"fmt"
)

// Common radio command opcodes (group 0x02)
const (
	RadioSetRfFrequency   = 0x00
	RadioSetRxPath        = 0x01
	RadioSetPaConfig      = 0x02
	RadioSetTxParams      = 0x03
	RadioSetFallbackMode  = 0x06
	RadioSetPacketType    = 0x07
	RadioGetPacketType    = 0x08
	RadioSetStopTimeout   = 0x09
	RadioResetRxStats     = 0x0A
	RadioGetRssiInst      = 0x0B
	RadioSetRx            = 0x0C
	RadioSetTx            = 0x0D
	RadioSetTxTestMode    = 0x0E
	RadioGetRxPktLength   = 0x12
	RadioSetCca           = 0x18
	RadioGetCcaResult     = 0x19
	RadioSetAgcGainManual = 0x1A
)

// Response lengths, status bytes included
const (
	PacketTypeRspLen  = 3
	RssiInstRspLen    = 4
	RxPktLengthRspLen = 4
	CcaResultRspLen   = 6
)

// RxPath selects the low or high frequency receive path.
type RxPath uint8

const (
	RxPathLf RxPath = 0
	RxPathHf RxPath = 1
)

// PaSel selects which power amplifier drives the antenna.
type PaSel uint8

const (
	PaLf PaSel = 0
	PaHf PaSel = 1
)

// PaLfMode configures the low frequency PA topology.
type PaLfMode uint8

const (
	PaLfFsm     PaLfMode = 0
	PaLfFdm     PaLfMode = 1
	PaLfHsmRfo1 PaLfMode = 2
	PaLfHsmRfo2 PaLfMode = 3
)

// RampTime is the PA ramp duration.
type RampTime uint8

const (
	Ramp2u   RampTime = 0
	Ramp4u   RampTime = 1
	Ramp8u   RampTime = 2
	Ramp16u  RampTime = 3
	Ramp32u  RampTime = 4
	Ramp48u  RampTime = 5
	Ramp64u  RampTime = 6
	Ramp80u  RampTime = 7
	Ramp96u  RampTime = 8
	Ramp112u RampTime = 9
	Ramp128u RampTime = 10
	Ramp144u RampTime = 11
	Ramp160u RampTime = 12
	Ramp176u RampTime = 13
	Ramp192u RampTime = 14
	Ramp208u RampTime = 15
)

// FallbackMode is the state the chip enters after a TX or RX operation
// completes or times out.
type FallbackMode uint8

const (
	FallbackStandbyRc   FallbackMode = 1
	FallbackStandbyXosc FallbackMode = 2
	FallbackFs          FallbackMode = 3
)

// StopTimeout selects the event that freezes the RX timeout timer.
type StopTimeout uint8

const (
	StopOnSyncwordHeader StopTimeout = 0
	StopOnPreamble       StopTimeout = 1
)

// TestMode is a TX test pattern.
type TestMode uint8

const (
	TestNormalTx         TestMode = 0
	TestInfinitePreamble TestMode = 1
	TestContinuousWave   TestMode = 2
	TestPrbs9            TestMode = 3
)

// SetRfFrequencyCmd sets the RF frequency in Hz for subsequent radio
// operations. Rejected while the chip is in TX mode.
func SetRfFrequencyCmd(freqHz uint32) []byte {
	cmd := make([]byte, 6)
	cmd[0] = GroupRadio
	cmd[1] = RadioSetRfFrequency
	binary.BigEndian.PutUint32(cmd[2:6], freqHz)
	return cmd
}

// SetRxPathCmd selects the receive path and its boost level (0 to 7).
// Changing the boost reruns the ADC offset calibration for G12/G13.
func SetRxPathCmd(path RxPath, boost uint8) []byte {
	return []byte{GroupRadio, RadioSetRxPath, uint8(path) & 0x1, boost & 0x7}
}

// SetPaConfigCmd selects and configures the power amplifier.
func SetPaConfigCmd(sel PaSel, lfMode PaLfMode, lfDutyCycle, lfSlices uint8) []byte {
	cmd := make([]byte, 6)
	cmd[0] = GroupRadio
	cmd[1] = RadioSetPaConfig
	cmd[2] = (uint8(sel)&0x1)<<7 | (lfDutyCycle&0xF)<<4 | uint8(lfMode)&0x3
	cmd[3] = lfSlices & 0xF
	return cmd
}

// SetPaConfigExtCmd additionally sets the HF PA duty cycle.
func SetPaConfigExtCmd(sel PaSel, lfMode PaLfMode, lfDutyCycle, lfSlices, hfDutyCycle uint8) []byte {
	cmd := make([]byte, 7)
	cmd[0] = GroupRadio
	cmd[1] = RadioSetPaConfig
	cmd[2] = (uint8(sel)&0x1)<<7 | (lfDutyCycle&0xF)<<4 | uint8(lfMode)&0x3
	cmd[3] = lfSlices & 0xF
	cmd[4] = hfDutyCycle & 0x1F
	return cmd
}

// SetTxParamsCmd sets the TX power (chip specific scale) and PA ramp
// time. The firmware configures OCP/OVP accordingly.
func SetTxParamsCmd(power uint8, ramp RampTime) []byte {
	return []byte{GroupRadio, RadioSetTxParams, power, uint8(ramp)}
}

// SetFallbackCmd configures the mode entered after TX/RX completion.
func SetFallbackCmd(mode FallbackMode) []byte {
	return []byte{GroupRadio, RadioSetFallbackMode, uint8(mode) & 0x3}
}

// SetPacketTypeCmd selects the active modem. This is the first command
// of a radio configuration sequence and only works from standby or FS.
func SetPacketTypeCmd(pt PacketType) []byte {
	return []byte{GroupRadio, RadioSetPacketType, uint8(pt)}
}

// GetPacketTypeReq reads back the active modem.
func GetPacketTypeReq() []byte {
	return []byte{GroupRadio, RadioGetPacketType}
}

// SetStopTimeoutCmd selects whether the RX timeout stops on preamble
// detection or on syncword/header detection.
func SetStopTimeoutCmd(stop StopTimeout) []byte {
	return []byte{GroupRadio, RadioSetStopTimeout, uint8(stop) & 0x1}
}

// ResetRxStatsCmd clears the modem packet counters.
func ResetRxStatsCmd() []byte {
	return []byte{GroupRadio, RadioResetRxStats}
}

// GetRssiInstReq samples the instantaneous RSSI. Use RssiDbm on the
// decoded value.
func GetRssiInstReq() []byte {
	return []byte{GroupRadio, RadioGetRssiInst}
}

// SetRxCmd enters RX mode with a timeout in RTC steps of 1/32.768 kHz.
// TimeoutSingle disarms the timer, TimeoutContinuous restarts reception
// after every packet.
func SetRxCmd(timeout uint32) []byte {
	return []byte{
		GroupRadio, RadioSetRx,
		byte(timeout >> 16), byte(timeout >> 8), byte(timeout),
	}
}

// SetRxDefaultCmd enters RX mode with the chip default timeout.
func SetRxDefaultCmd() []byte {
	return []byte{GroupRadio, RadioSetRx}
}

// SetTxCmd enters TX mode with a timeout in RTC steps of 1/32.768 kHz.
func SetTxCmd(timeout uint32) []byte {
	return []byte{
		GroupRadio, RadioSetTx,
		byte(timeout >> 16), byte(timeout >> 8), byte(timeout),
	}
}

// SetTxDefaultCmd enters TX mode with the chip default timeout.
func SetTxDefaultCmd() []byte {
	return []byte{GroupRadio, RadioSetTx}
}

// SetTxTestModeCmd enables a TX test pattern.
func SetTxTestModeCmd(mode TestMode) []byte {
	return []byte{GroupRadio, RadioSetTxTestMode, uint8(mode)}
}

// GetRxPktLengthReq reads the length of the last received packet.
func GetRxPktLengthReq() []byte {
	return []byte{GroupRadio, RadioGetRxPktLength}
}

// SetCcaCmd starts a clear channel assessment: the chip measures RSSI
// for the given duration in RTC steps.
func SetCcaCmd(duration uint32) []byte {
	return []byte{
		GroupRadio, RadioSetCca,
		byte(duration >> 16), byte(duration >> 8), byte(duration),
	}
}

// GetCcaResultReq reads the RSSI statistics of the last CCA window.
func GetCcaResultReq() []byte {
	return []byte{GroupRadio, RadioGetCcaResult}
}

// SetAgcGainManualCmd freezes the AGC at a manual gain step. Zero
// returns the AGC to automatic.
func SetAgcGainManualCmd(gainStep uint8) []byte {
	return []byte{GroupRadio, RadioSetAgcGainManual, gainStep & 0xF}
}

// DecodePacketType decodes a GetPacketType response.
func DecodePacketType(rsp []byte) (PacketType, error) {
	if len(rsp) != PacketTypeRspLen {
		return 0, fmt.Errorf("packet type response is %d bytes, want %d: %w", len(rsp), PacketTypeRspLen, ErrMalformed)
	}
	if rsp[2] > uint8(PacketZigbee) {
		return 0, fmt.Errorf("packet type %d out of range: %w", rsp[2], ErrMalformed)
	}
	return PacketType(rsp[2]), nil
}

// DecodeRssiInst decodes a GetRssiInst response into the raw 9-bit RSSI
// in half-dB steps.
func DecodeRssiInst(rsp []byte) (uint16, error) {
	if len(rsp) != RssiInstRspLen {
		return 0, fmt.Errorf("rssi response is %d bytes, want %d: %w", len(rsp), RssiInstRspLen, ErrMalformed)
	}
	return uint16(rsp[2])<<1 | uint16(rsp[3]&0x1), nil
}

// DecodeRxPktLength decodes a GetRxPktLength response.
func DecodeRxPktLength(rsp []byte) (uint16, error) {
	if len(rsp) != RxPktLengthRspLen {
		return 0, fmt.Errorf("packet length response is %d bytes, want %d: %w", len(rsp), RxPktLengthRspLen, ErrMalformed)
	}
	return binary.BigEndian.Uint16(rsp[2:4]), nil
}

// CcaResult holds the RSSI statistics of a clear channel assessment,
// in raw half-dB steps.
type CcaResult struct {
	RssiMin uint16
	RssiMax uint16
	RssiAvg uint16
}

// DecodeCcaResult decodes a GetCcaResult response.
func DecodeCcaResult(rsp []byte) (CcaResult, error) {
	if len(rsp) != CcaResultRspLen {
		return CcaResult{}, fmt.Errorf("cca response is %d bytes, want %d: %w", len(rsp), CcaResultRspLen, ErrMalformed)
	}
	return CcaResult{
		RssiMin: uint16(rsp[2])<<1 | uint16(rsp[5]>>2)&0x1,
		RssiMax: uint16(rsp[3])<<1 | uint16(rsp[5]>>1)&0x1,
		RssiAvg: uint16(rsp[4])<<1 | uint16(rsp[5])&0x1,
	}, nil
}
