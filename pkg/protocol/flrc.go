package protocol

import (
	"encoding/binary"
	"fmt"
)

// FLRC command opcodes (group 0x02)
const (
	FlrcSetModulationParams = 0x48
	FlrcSetPacketParams     = 0x49
	FlrcGetPacketStatus     = 0x4B
	FlrcSetSyncword         = 0x4C
)

// FlrcPacketStatusRspLen is the GetFlrcPacketStatus response length,
// status bytes included.
const FlrcPacketStatusRspLen = 7

// FlrcBitrate is a fixed bitrate and bandwidth combination, named by
// the bitrate in kb/s.
type FlrcBitrate uint8

const (
	FlrcBr2600 FlrcBitrate = 0
	FlrcBr2080 FlrcBitrate = 1
	FlrcBr1300 FlrcBitrate = 2
	FlrcBr1040 FlrcBitrate = 3
	FlrcBr650  FlrcBitrate = 4
	FlrcBr520  FlrcBitrate = 5
	FlrcBr325  FlrcBitrate = 6
	FlrcBr260  FlrcBitrate = 7
)

// FlrcCr is the FLRC convolutional coding rate.
type FlrcCr uint8

const (
	FlrcCr1p2 FlrcCr = 0 // 1/2
	FlrcCr3p4 FlrcCr = 1 // 3/4
	FlrcCr1p0 FlrcCr = 2 // uncoded
	FlrcCr2p3 FlrcCr = 3 // 2/3
)

// AgcPblLen is the preamble length reserved for AGC settling.
type AgcPblLen uint8

const (
	AgcPbl4  AgcPblLen = 0
	AgcPbl8  AgcPblLen = 1
	AgcPbl12 AgcPblLen = 2
	AgcPbl16 AgcPblLen = 3
	AgcPbl20 AgcPblLen = 4
	AgcPbl24 AgcPblLen = 5
	AgcPbl28 AgcPblLen = 6
	AgcPbl32 AgcPblLen = 7
)

// SyncLen is the syncword length in 16-bit units. Must be zero when
// syncword matching is off.
type SyncLen uint8

const (
	Sync0  SyncLen = 0
	Sync16 SyncLen = 1
	Sync32 SyncLen = 2
)

// SyncTx selects which of the three syncwords TX sends.
type SyncTx uint8

const (
	SyncTxNone SyncTx = 0
	SyncTx1    SyncTx = 1
	SyncTx2    SyncTx = 2
	SyncTx3    SyncTx = 3
)

// SyncMatch is the set of syncwords the receiver accepts.
type SyncMatch uint8

const (
	MatchNone   SyncMatch = 0
	Match1      SyncMatch = 1
	Match2      SyncMatch = 2
	Match1Or2   SyncMatch = 3
	Match3      SyncMatch = 4
	Match1Or3   SyncMatch = 5
	Match2Or3   SyncMatch = 6
	MatchAnyOf3 SyncMatch = 7
)

// FlrcPktFormat selects dynamic (length on the air) or fixed length
// packets.
type FlrcPktFormat uint8

const (
	FlrcPktDynamic FlrcPktFormat = 0
	FlrcPktFixed   FlrcPktFormat = 1
)

// FlrcCrc selects the CRC length appended by the FLRC modem.
type FlrcCrc uint8

const (
	FlrcCrcOff FlrcCrc = 0
	FlrcCrc16  FlrcCrc = 1
	FlrcCrc24  FlrcCrc = 2
	FlrcCrc32  FlrcCrc = 3
)

// SetFlrcModulationParamsCmd sets the bitrate/bandwidth pair, coding
// rate and pulse shaping. Fails if the packet type is not FLRC.
func SetFlrcModulationParamsCmd(br FlrcBitrate, cr FlrcCr, shape PulseShape) []byte {
	cmd := make([]byte, 5)
	cmd[0] = GroupRadio
	cmd[1] = FlrcSetModulationParams
	cmd[2] = uint8(br) & 0x7
	cmd[3] = (uint8(cr)&0xF)<<4 | uint8(shape)&0xF
	return cmd
}

// SetFlrcPacketParamsCmd sets the AGC preamble, syncword usage, framing
// and CRC mode, and the payload length in bytes.
func SetFlrcPacketParamsCmd(agcPbl AgcPblLen, syncLen SyncLen, syncTx SyncTx, match SyncMatch, format FlrcPktFormat, crc FlrcCrc, pldLen uint16) []byte {
	cmd := make([]byte, 10)
	cmd[0] = GroupRadio
	cmd[1] = FlrcSetPacketParams
	cmd[2] = (uint8(syncTx)&0x3)<<6 | (uint8(agcPbl)&0xF)<<2 | uint8(syncLen)&0x3
	cmd[3] = (uint8(match)&0x7)<<3 | (uint8(format)&0x1)<<2 | uint8(crc)&0x3
	binary.BigEndian.PutUint16(cmd[4:6], pldLen)
	return cmd
}

// SetFlrcSyncwordCmd programs one of the three 32-bit syncword slots
// (1 to 3).
func SetFlrcSyncwordCmd(num uint8, syncword uint32) []byte {
	cmd := make([]byte, 7)
	cmd[0] = GroupRadio
	cmd[1] = FlrcSetSyncword
	cmd[2] = num
	binary.BigEndian.PutUint32(cmd[3:7], syncword)
	return cmd
}

// GetFlrcPacketStatusReq reads the status of the last received packet.
// Updated on RxDone, except RssiSync which latches on syncword.
func GetFlrcPacketStatusReq() []byte {
	return []byte{GroupRadio, FlrcGetPacketStatus}
}

// FlrcPacketStatus describes the last received FLRC packet. RSSI fields
// are raw half-dB steps.
type FlrcPacketStatus struct {
	PktLen   uint16
	RssiAvg  uint16 // average RSSI over the packet
	RssiSync uint16 // RSSI latched on syncword detection
	SwNum    uint8  // which syncword slot matched
}

// DecodeFlrcPacketStatus decodes a GetFlrcPacketStatus response.
func DecodeFlrcPacketStatus(rsp []byte) (FlrcPacketStatus, error) {
	if len(rsp) != FlrcPacketStatusRspLen {
		return FlrcPacketStatus{}, fmt.Errorf("flrc packet status response is %d bytes, want %d: %w", len(rsp), FlrcPacketStatusRspLen, ErrMalformed)
	}
	return FlrcPacketStatus{
		PktLen:   binary.BigEndian.Uint16(rsp[2:4]),
		RssiAvg:  uint16(rsp[4])<<1 | uint16(rsp[6]>>2)&0x1,
		RssiSync: uint16(rsp[5])<<1 | uint16(rsp[6])&0x1,
		SwNum:    rsp[6] >> 4 & 0xF,
	}, nil
}
