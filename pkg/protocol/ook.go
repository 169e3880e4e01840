package protocol

import (
	"encoding/binary"
	"fmt"
)

// OOK command opcodes (group 0x02)
const (
	OokSetModulationParams = 0x81
	OokSetPacketParams     = 0x82
	OokSetCrcParams        = 0x83
	OokSetSyncword         = 0x84
	OokSetAddress          = 0x85
	OokSetThr              = 0x86
	OokGetPacketStatus     = 0x87
	OokSetDetector         = 0x88
	OokSetWhiteningParams  = 0x89
)

// OokPacketStatusRspLen is the GetOokPacketStatus response length,
// status bytes included.
const OokPacketStatusRspLen = 8

// OokDepth limits the modulation depth the detector assumes.
type OokDepth uint8

const (
	OokDepthFull OokDepth = 0
	OokDepth20db OokDepth = 1
)

// Manchester enables Manchester line coding, plain or inverted. Either
// Manchester or whitening should be on for OOK links.
type Manchester uint8

const (
	ManchesterOff   Manchester = 0
	ManchesterOn    Manchester = 1
	ManchesterOnInv Manchester = 3
)

// SfdKind is the edge that ends the preamble pattern. Falling edge for
// ADS-B, RTS and INOVA framing.
type SfdKind uint8

const (
	SfdFallingEdge SfdKind = 0
	SfdRisingEdge  SfdKind = 1
)

// SetOokModulationParamsCmd sets bitrate in bit/s, pulse shaping and RX
// bandwidth. Fails if the packet type is not OOK.
func SetOokModulationParamsCmd(bitrate uint32, shape PulseShape, bw RxBw) []byte {
	cmd := make([]byte, 8)
	cmd[0] = GroupRadio
	cmd[1] = OokSetModulationParams
	binary.BigEndian.PutUint32(cmd[2:6], bitrate)
	cmd[6] = uint8(shape) & 0xF
	cmd[7] = uint8(bw)
	return cmd
}

// SetOokModulationParamsExtCmd additionally limits the detector
// modulation depth.
func SetOokModulationParamsExtCmd(bitrate uint32, shape PulseShape, bw RxBw, depth OokDepth) []byte {
	cmd := make([]byte, 9)
	cmd[0] = GroupRadio
	cmd[1] = OokSetModulationParams
	binary.BigEndian.PutUint32(cmd[2:6], bitrate)
	cmd[6] = uint8(shape) & 0xF
	cmd[7] = uint8(bw)
	cmd[8] = uint8(depth) & 0x1
	return cmd
}

// SetOokPacketParamsCmd sets the TX preamble length in bits, framing,
// payload length, CRC and Manchester coding.
func SetOokPacketParamsCmd(pblLenTx uint16, comp AddrComp, format PktFormat, pldLen uint16, crc FskCrc, man Manchester) []byte {
	cmd := make([]byte, 10)
	cmd[0] = GroupRadio
	cmd[1] = OokSetPacketParams
	binary.BigEndian.PutUint16(cmd[2:4], pblLenTx)
	cmd[4] = (uint8(comp)&0x3)<<2 | uint8(format)&0x3
	binary.BigEndian.PutUint16(cmd[5:7], pldLen)
	cmd[7] = (uint8(crc)&0xF)<<4 | uint8(man)&0xF
	return cmd
}

// SetOokCrcParamsCmd sets the CRC polynomial and initial value.
func SetOokCrcParamsCmd(polynom, init uint32) []byte {
	cmd := make([]byte, 10)
	cmd[0] = GroupRadio
	cmd[1] = OokSetCrcParams
	binary.BigEndian.PutUint32(cmd[2:6], polynom)
	binary.BigEndian.PutUint32(cmd[6:10], init)
	return cmd
}

// SetOokSyncwordCmd sets the syncword value and its length in bits, up
// to 32.
func SetOokSyncwordCmd(syncword uint32, order BitOrder, nbBits uint8) []byte {
	cmd := make([]byte, 8)
	cmd[0] = GroupRadio
	cmd[1] = OokSetSyncword
	binary.BigEndian.PutUint32(cmd[2:6], syncword)
	cmd[6] = (uint8(order)&0x1)<<7 | nbBits&0x7F
	return cmd
}

// SetOokAddressCmd sets the node and broadcast addresses compared when
// address filtering is on.
func SetOokAddressCmd(node, bcast uint8) []byte {
	return []byte{GroupRadio, OokSetAddress, node, bcast}
}

// SetOokThrCmd sets the detection threshold in half-dB units relative
// to the receiver noise floor. See the driver threshold calibration for
// picking a value from ambient RSSI.
func SetOokThrCmd(thr int8) []byte {
	return []byte{GroupRadio, OokSetThr, uint8(thr)}
}

// SetOokDetectorCmd configures RX detection: the repeated preamble
// pattern and the start of frame delimiter. TX side detection patterns
// go directly into the TX FIFO. swIsRaw disables syncword decoding.
func SetOokDetectorCmd(pblPattern uint16, patternLen, patternRepeats uint8, swIsRaw bool, sfd SfdKind, sfdLen uint8) []byte {
	cmd := make([]byte, 9)
	cmd[0] = GroupRadio
	cmd[1] = OokSetDetector
	binary.BigEndian.PutUint16(cmd[2:4], pblPattern)
	cmd[4] = patternLen & 0xF
	cmd[5] = patternRepeats & 0x1F
	if swIsRaw {
		cmd[6] |= 32
	}
	cmd[6] |= (uint8(sfd)&0x1)<<4 | sfdLen&0xF
	return cmd
}

// SetOokWhiteningParamsCmd configures the whitening LFSR. A zero
// polynomial disables whitening. bitIdx shares the polynomial high byte.
func SetOokWhiteningParamsCmd(bitIdx uint8, polynom, init uint16) []byte {
	cmd := make([]byte, 7)
	cmd[0] = GroupRadio
	cmd[1] = OokSetWhiteningParams
	cmd[2] = (bitIdx&0xF)<<4 | byte(polynom>>8)
	cmd[3] = byte(polynom)
	cmd[4] = byte(init >> 8)
	cmd[5] = byte(init)
	return cmd
}

// GetOokPacketStatusReq reads the status of the last received packet.
// Updated on RxDone, except RssiHigh which tracks the high bit level.
func GetOokPacketStatusReq() []byte {
	return []byte{GroupRadio, OokGetPacketStatus}
}

// OokPacketStatus describes the last received OOK packet. RSSI fields
// are raw half-dB steps, Lqi counts quarter-dB steps.
type OokPacketStatus struct {
	PktLen         uint16 // length in the FIFO, optional appended data included
	RssiAvg        uint16 // average RSSI over the packet
	RssiHigh       uint16 // RSSI of the high bits
	AddrMatchBcast bool
	AddrMatchNode  bool
	Lqi            uint8
}

// DecodeOokPacketStatus decodes a GetOokPacketStatus response.
func DecodeOokPacketStatus(rsp []byte) (OokPacketStatus, error) {
	if len(rsp) != OokPacketStatusRspLen {
		return OokPacketStatus{}, fmt.Errorf("ook packet status response is %d bytes, want %d: %w", len(rsp), OokPacketStatusRspLen, ErrMalformed)
	}
	return OokPacketStatus{
		PktLen:         binary.BigEndian.Uint16(rsp[2:4]),
		RssiAvg:        uint16(rsp[4])<<1 | uint16(rsp[6]>>2)&0x1,
		RssiHigh:       uint16(rsp[5])<<1 | uint16(rsp[6])&0x1,
		AddrMatchBcast: rsp[6]>>5&0x1 != 0,
		AddrMatchNode:  rsp[6]>>4&0x1 != 0,
		Lqi:            rsp[7],
	}, nil
}
