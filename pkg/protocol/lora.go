package protocol

import (
	"encoding/binary"
	"fmt"
)

// LoRa command opcodes (group 0x02)
const (
	LoraSetTxSync           = 0x1D
	LoraSetModulationParams = 0x20
	LoraSetPacketParams     = 0x21
	LoraSetSynchTimeout     = 0x22
	LoraSetSyncword         = 0x23
	LoraSetCadParams        = 0x27
	LoraSetCad              = 0x28
	LoraGetRxStats          = 0x29
	LoraGetPacketStatus     = 0x2A
	LoraSetAddress          = 0x2B
	LoraSetSyncwordExt      = 0x2D
)

// Response lengths, status bytes included
const (
	LoraRxStatsRspLen      = 10
	LoraPacketStatusRspLen = 12
)

// Default LoRa syncwords
const (
	LoraSyncPrivate uint8 = 0x12
	LoraSyncPublic  uint8 = 0x34
)

// Sf is the LoRa spreading factor.
type Sf uint8

const (
	Sf5  Sf = 5
	Sf6  Sf = 6
	Sf7  Sf = 7
	Sf8  Sf = 8
	Sf9  Sf = 9
	Sf10 Sf = 10
	Sf11 Sf = 11
	Sf12 Sf = 12
)

// LoraBw is the LoRa channel bandwidth.
type LoraBw uint8

const (
	LoraBw7    LoraBw = 0  // 7.81 kHz
	LoraBw15   LoraBw = 1  // 15.63 kHz
	LoraBw31   LoraBw = 2  // 31.25 kHz
	LoraBw62   LoraBw = 3  // 62.5 kHz
	LoraBw125  LoraBw = 4  // 125 kHz
	LoraBw250  LoraBw = 5  // 250 kHz
	LoraBw500  LoraBw = 6  // 500 kHz
	LoraBw1000 LoraBw = 7  // 1000 kHz
	LoraBw10   LoraBw = 8  // 10.42 kHz
	LoraBw20   LoraBw = 9  // 20.83 kHz
	LoraBw41   LoraBw = 10 // 41.67 kHz
	LoraBw83   LoraBw = 11 // 83.33 kHz
	LoraBw100  LoraBw = 12 // 101.56 kHz
	LoraBw200  LoraBw = 13 // 203.13 kHz
	LoraBw400  LoraBw = 14 // 406.25 kHz
	LoraBw800  LoraBw = 15 // 812.5 kHz
)

// LoraCr is the LoRa coding rate. The Si/Li suffix selects the short or
// long interleaver, Cc the convolutional coder.
type LoraCr uint8

const (
	CrNoCoding LoraCr = 0
	CrParitySi LoraCr = 1 // 4/5 short interleaver
	CrHam2p3Si LoraCr = 2 // 4/6 short interleaver
	CrHam7p5Si LoraCr = 3 // 4/7 short interleaver
	CrHam1p2Si LoraCr = 4 // 4/8 short interleaver
	CrParityLi LoraCr = 5 // 4/5 long interleaver
	CrHam2p3Li LoraCr = 6 // 4/6 long interleaver
	CrHam1p2Li LoraCr = 7 // 4/8 long interleaver
	CrCc2p3    LoraCr = 8 // 2/3 convolutional
	CrCc1p2    LoraCr = 9 // 1/2 convolutional
)

// Ldro enables low data rate optimization.
type Ldro uint8

const (
	LdroOff Ldro = 0
	LdroOn  Ldro = 1
)

// HeaderType selects explicit (with header) or implicit LoRa packets.
type HeaderType uint8

const (
	HeaderExplicit HeaderType = 0
	HeaderImplicit HeaderType = 1
)

// SynchTimeoutFormat selects how the symbol count of SetLoraSynchTimeout
// is interpreted.
type SynchTimeoutFormat uint8

const (
	SynchTimeoutSymbols          SynchTimeoutFormat = 0
	SynchTimeoutMantissaExponent SynchTimeoutFormat = 1
)

// CadExitMode is the action taken when channel activity detection ends.
type CadExitMode uint8

const (
	CadOnly CadExitMode = 0
	CadRx   CadExitMode = 1
	CadLbt  CadExitMode = 16
)

// SetLoraModulationParamsCmd sets spreading factor, bandwidth, coding
// rate and low data rate optimization. Resets any side detector setup.
func SetLoraModulationParamsCmd(sf Sf, bw LoraBw, cr LoraCr, ldro Ldro) []byte {
	cmd := make([]byte, 6)
	cmd[0] = GroupRadio
	cmd[1] = LoraSetModulationParams
	cmd[2] = (uint8(sf)&0xF)<<4 | uint8(bw)&0xF
	cmd[3] = (uint8(cr)&0xF)<<4 | uint8(ldro)&0x3
	return cmd
}

// SetLoraPacketParamsCmd sets the preamble length in symbols, payload
// length in bytes, header type, CRC presence and IQ inversion.
func SetLoraPacketParamsCmd(pblLen uint16, payloadLen uint8, hdr HeaderType, crc, invertIQ bool) []byte {
	cmd := make([]byte, 8)
	cmd[0] = GroupRadio
	cmd[1] = LoraSetPacketParams
	binary.LittleEndian.PutUint16(cmd[2:4], pblLen)
	cmd[4] = payloadLen
	cmd[5] = (uint8(hdr) & 0x1) << 2
	if crc {
		cmd[5] |= 2
	}
	if invertIQ {
		cmd[5] |= 1
	}
	return cmd
}

// SetLoraSynchTimeoutCmd aborts reception when no detection happened
// after the given number of symbols. Zero disables the timeout.
func SetLoraSynchTimeoutCmd(symbols uint8, format SynchTimeoutFormat) []byte {
	return []byte{GroupRadio, LoraSetSynchTimeout, symbols, uint8(format) & 0x1}
}

// SetLoraSyncwordCmd sets the network syncword. See LoraSyncPrivate and
// LoraSyncPublic for the standard values.
func SetLoraSyncwordCmd(syncword uint8) []byte {
	return []byte{GroupRadio, LoraSetSyncword, syncword}
}

// SetLoraSyncwordExtCmd sets the two 5-bit halves of the extended
// syncword individually.
func SetLoraSyncwordExtCmd(sync1, sync2 uint8) []byte {
	return []byte{GroupRadio, LoraSetSyncwordExt, sync1 & 0x1F, sync2 & 0x1F}
}

// SetLoraCadParamsCmd configures channel activity detection. timeout is
// 24 bits in RTC steps, detPeak tunes the detection threshold.
func SetLoraCadParamsCmd(nbSymbols uint8, pblAny bool, pnrDelta uint8, exit CadExitMode, timeout uint32, detPeak uint8) []byte {
	cmd := make([]byte, 10)
	cmd[0] = GroupRadio
	cmd[1] = LoraSetCadParams
	cmd[2] = nbSymbols
	if pblAny {
		cmd[3] |= 16
	}
	cmd[3] |= pnrDelta & 0xF
	cmd[4] = uint8(exit)
	cmd[5] = byte(timeout)
	cmd[6] = byte(timeout >> 8)
	cmd[7] = byte(timeout >> 16)
	cmd[8] = detPeak
	return cmd
}

// SetLoraCadCmd starts channel activity detection with the parameters
// set by SetLoraCadParams.
func SetLoraCadCmd() []byte {
	return []byte{GroupRadio, LoraSetCad}
}

// GetLoraRxStatsReq reads the modem packet counters. They reset on POR,
// on sleep without retention and on ResetRxStats.
func GetLoraRxStatsReq() []byte {
	return []byte{GroupRadio, LoraGetRxStats}
}

// GetLoraPacketStatusReq reads the status of the last received packet.
func GetLoraPacketStatusReq() []byte {
	return []byte{GroupRadio, LoraGetPacketStatus}
}

// SetLoraAddressCmd configures RX address filtering over addr bytes at
// the given position in the payload.
func SetLoraAddressCmd(compLen, compPos uint8, addr uint64) []byte {
	cmd := make([]byte, 12)
	cmd[0] = GroupRadio
	cmd[1] = LoraSetAddress
	cmd[2] = (compLen&0xF)<<4 | compPos&0xF
	binary.LittleEndian.PutUint64(cmd[3:11], addr)
	return cmd
}

// LoraRxStats holds the LoRa modem packet counters.
type LoraRxStats struct {
	PktRx        uint16
	CrcErrors    uint16
	HeaderErrors uint16
	FalseSynch   uint16
}

// DecodeLoraRxStats decodes a GetLoraRxStats response.
func DecodeLoraRxStats(rsp []byte) (LoraRxStats, error) {
	if len(rsp) != LoraRxStatsRspLen {
		return LoraRxStats{}, fmt.Errorf("lora rx stats response is %d bytes, want %d: %w", len(rsp), LoraRxStatsRspLen, ErrMalformed)
	}
	return LoraRxStats{
		PktRx:        binary.BigEndian.Uint16(rsp[2:4]),
		CrcErrors:    binary.BigEndian.Uint16(rsp[4:6]),
		HeaderErrors: binary.BigEndian.Uint16(rsp[6:8]),
		FalseSynch:   binary.BigEndian.Uint16(rsp[8:10]),
	}, nil
}

// LoraPacketStatus describes the last received LoRa packet. RSSI fields
// are raw half-dB steps, SnrRaw is the SNR in quarter-dB two's
// complement.
type LoraPacketStatus struct {
	Crc         bool   // CRC presence from header (explicit) or config (implicit)
	CodingRate  uint8
	SnrRaw      uint8
	PktLength   uint8
	RssiPkt     uint16 // average RSSI over the packet
	RssiSignal  uint16 // RSSI of the despread LoRa signal
	Detector    uint8  // which detector path fired (bit 0 = main)
	FreqOffset  int32  // frequency error in Hz
	GainStepPre uint8  // AGC gain latched on preamble
}

// Snr returns the packet SNR in dB.
func (s LoraPacketStatus) Snr() float64 {
	return float64(int8(s.SnrRaw)) / 4
}

// DecodeLoraPacketStatus decodes a GetLoraPacketStatus response.
func DecodeLoraPacketStatus(rsp []byte) (LoraPacketStatus, error) {
	if len(rsp) != LoraPacketStatusRspLen {
		return LoraPacketStatus{}, fmt.Errorf("lora packet status response is %d bytes, want %d: %w", len(rsp), LoraPacketStatusRspLen, ErrMalformed)
	}
	off := uint32(rsp[8])<<16 | uint32(rsp[9])<<8 | uint32(rsp[10])
	return LoraPacketStatus{
		Crc:         rsp[2]>>4&0x1 != 0,
		CodingRate:  rsp[2] & 0xF,
		SnrRaw:      rsp[3],
		PktLength:   rsp[4],
		RssiPkt:     uint16(rsp[5])<<1 | uint16(rsp[7]>>1)&0x1,
		RssiSignal:  uint16(rsp[6])<<1 | uint16(rsp[7])&0x1,
		Detector:    rsp[7] >> 2 & 0xF,
		FreqOffset:  signExtend24(off),
		GainStepPre: rsp[11],
	}, nil
}

func signExtend24(v uint32) int32 {
	return int32(v<<8) >> 8
}
