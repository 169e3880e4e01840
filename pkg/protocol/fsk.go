package protocol

import (
	"encoding/binary"
	"fmt"
)

// FSK command opcodes (group 0x02)
const (
	FskSetModulationParams = 0x40
	FskSetPacketParams     = 0x41
	FskSetWhiteningParams  = 0x42
	FskSetCrcParams        = 0x43
	FskSetSyncword         = 0x44
	FskSetAddress          = 0x45
	FskGetRxStats          = 0x46
	FskGetPacketStatus     = 0x47
)

// Response lengths, status bytes included
const (
	FskRxStatsRspLen      = 16
	FskPacketStatusRspLen = 8
)

// PulseShape is the TX pulse shaping filter. Shared by the FSK, OOK and
// FLRC modems.
type PulseShape uint8

const (
	ShapeNone   PulseShape = 0
	ShapeCustom PulseShape = 1
	ShapeBt0p3  PulseShape = 4
	ShapeBt0p5  PulseShape = 5
	ShapeBt0p7  PulseShape = 6
	ShapeBt1p0  PulseShape = 7
	ShapeBt2p0  PulseShape = 2
	ShapeRc0p3  PulseShape = 8
	ShapeRc0p5  PulseShape = 9
	ShapeRc0p7  PulseShape = 10
	ShapeRc1p0  PulseShape = 11
	ShapeRrc0p3 PulseShape = 12
	ShapeRrc0p4 PulseShape = 3
	ShapeRrc0p5 PulseShape = 13
	ShapeRrc0p7 PulseShape = 14
	ShapeRrc1p0 PulseShape = 15
)

// RxBw is the receiver channel filter bandwidth, named by the bandwidth
// in kHz. The raw value encodes a decimation chain selection, not a
// linear scale. BwAuto lets the firmware pick from the modulation
// parameters.
type RxBw uint8

const (
	BwAuto RxBw = 255
	Bw3076 RxBw = 0
	Bw2857 RxBw = 64
	Bw2666 RxBw = 128
	Bw2222 RxBw = 192
	Bw1333 RxBw = 136
	Bw1111 RxBw = 200
	Bw888  RxBw = 144
	Bw769  RxBw = 24
	Bw740  RxBw = 208
	Bw714  RxBw = 88
	Bw666  RxBw = 152
	Bw615  RxBw = 32
	Bw571  RxBw = 96
	Bw555  RxBw = 216
	Bw533  RxBw = 160
	Bw512  RxBw = 17
	Bw476  RxBw = 81
	Bw444  RxBw = 224
	Bw384  RxBw = 25
	Bw370  RxBw = 209
	Bw357  RxBw = 89
	Bw333  RxBw = 153
	Bw307  RxBw = 33
	Bw285  RxBw = 97
	Bw277  RxBw = 217
	Bw266  RxBw = 161
	Bw256  RxBw = 18
	Bw238  RxBw = 82
	Bw222  RxBw = 225
	Bw192  RxBw = 26
	Bw185  RxBw = 210
	Bw178  RxBw = 90
	Bw166  RxBw = 154
	Bw153  RxBw = 34
	Bw142  RxBw = 98
	Bw138  RxBw = 218
	Bw133  RxBw = 162
	Bw128  RxBw = 19
	Bw119  RxBw = 83
	Bw111  RxBw = 226
	Bw96   RxBw = 27
	Bw92   RxBw = 211
	Bw89   RxBw = 91
	Bw83   RxBw = 155
	Bw76   RxBw = 35
	Bw71   RxBw = 99
	Bw69   RxBw = 219
	Bw66   RxBw = 163
	Bw64   RxBw = 20
	Bw59   RxBw = 84
	Bw55   RxBw = 227
	Bw48   RxBw = 28
	Bw46   RxBw = 212
	Bw44   RxBw = 92
	Bw41   RxBw = 156
	Bw38   RxBw = 36
	Bw35   RxBw = 100
	Bw34   RxBw = 220
	Bw33   RxBw = 164
	Bw32   RxBw = 21
	Bw29   RxBw = 85
	Bw27   RxBw = 228
	Bw24   RxBw = 29
	Bw23   RxBw = 213
	Bw22   RxBw = 93
	Bw20   RxBw = 157
	Bw19   RxBw = 37
	Bw17   RxBw = 101
	Bw16   RxBw = 165
	Bw14   RxBw = 86
	Bw13   RxBw = 229
	Bw12   RxBw = 30
	Bw11   RxBw = 94
	Bw10   RxBw = 158
	Bw9p6  RxBw = 38
	Bw8p9  RxBw = 102
	Bw8p7  RxBw = 222
	Bw8p3  RxBw = 166
	Bw8    RxBw = 23
	Bw7p4  RxBw = 87
	Bw6p9  RxBw = 230
	Bw6    RxBw = 31
	Bw5p8  RxBw = 215
	Bw5p6  RxBw = 95
	Bw5p2  RxBw = 159
	Bw4p8  RxBw = 39
	Bw4p5  RxBw = 103
	Bw4p3  RxBw = 223
	Bw4p2  RxBw = 167
	Bw3p5  RxBw = 231
)

// PblLenDetect is the preamble length the receiver requires before
// raising PreambleDetected. Zero detects on syncword only.
type PblLenDetect uint8

const (
	PblDetectOff PblLenDetect = 0
	PblDetect8   PblLenDetect = 8
	PblDetect16  PblLenDetect = 16
	PblDetect24  PblLenDetect = 24
	PblDetect32  PblLenDetect = 32
)

// PldLenUnit selects whether payload lengths count bytes or bits.
type PldLenUnit uint8

const (
	PldLenBytes PldLenUnit = 0
	PldLenBits  PldLenUnit = 1
)

// AddrComp is the RX address filtering mode. A failed comparison aborts
// the reception and raises AddrError. Shared by the FSK and OOK modems.
type AddrComp uint8

const (
	AddrCompOff       AddrComp = 0
	AddrCompNode      AddrComp = 1
	AddrCompNodeBcast AddrComp = 2
)

// PktFormat selects fixed or variable length packets for the FSK and
// OOK modems. Variable formats carry the length on the air in 8, 9 or
// 16 bits.
type PktFormat uint8

const (
	PktFixed      PktFormat = 0
	PktVariable8  PktFormat = 1
	PktVariable9  PktFormat = 2
	PktVariable16 PktFormat = 3
)

// FskCrc selects the CRC length, plain or inverted. Shared by the FSK
// and OOK modems.
type FskCrc uint8

const (
	FskCrcOff      FskCrc = 0
	FskCrc1Byte    FskCrc = 1
	FskCrc2Byte    FskCrc = 2
	FskCrc3Byte    FskCrc = 3
	FskCrc4Byte    FskCrc = 4
	FskCrc1ByteInv FskCrc = 9
	FskCrc2ByteInv FskCrc = 10
	FskCrc3ByteInv FskCrc = 11
	FskCrc4ByteInv FskCrc = 12
)

// WhitenType selects the whitening polynomial family.
type WhitenType uint8

const (
	WhitenSx126x WhitenType = 0 // SX126x/LR11xx compatible
	WhitenSx128x WhitenType = 1
)

// BitOrder is the over the air bit order of the syncword. MSB first
// matches SX126x, LR11xx and SX1280. Shared by the FSK and OOK modems.
type BitOrder uint8

const (
	LsbFirst BitOrder = 0
	MsbFirst BitOrder = 1
)

// SetFskModulationParamsCmd sets bitrate in bit/s, pulse shaping, RX
// bandwidth and frequency deviation in Hz. Fails if the packet type is
// not FSK.
func SetFskModulationParamsCmd(bitrate uint32, shape PulseShape, bw RxBw, fdev uint32) []byte {
	cmd := make([]byte, 11)
	cmd[0] = GroupRadio
	cmd[1] = FskSetModulationParams
	binary.LittleEndian.PutUint32(cmd[2:6], bitrate)
	cmd[6] = uint8(shape) & 0xF
	cmd[7] = uint8(bw)
	cmd[8] = byte(fdev)
	cmd[9] = byte(fdev >> 8)
	cmd[10] = byte(fdev >> 16)
	return cmd
}

// SetFskPacketParamsCmd sets the TX preamble length in bits, the
// detector preamble length, framing and CRC mode. dcFree enables
// whitening when nonzero.
func SetFskPacketParamsCmd(pblLenTx uint16, detect PblLenDetect, unit PldLenUnit, comp AddrComp, format PktFormat, pldLen uint16, crc FskCrc, dcFree uint8) []byte {
	cmd := make([]byte, 12)
	cmd[0] = GroupRadio
	cmd[1] = FskSetPacketParams
	binary.LittleEndian.PutUint16(cmd[2:4], pblLenTx)
	cmd[4] = uint8(detect)
	cmd[5] = (uint8(unit)&0x1)<<4 | (uint8(comp)&0x3)<<2 | uint8(format)&0x3
	binary.LittleEndian.PutUint16(cmd[6:8], pldLen)
	cmd[8] = (uint8(crc)&0xF)<<4 | dcFree&0xF
	return cmd
}

// SetFskWhiteningParamsCmd configures the whitening seed. The 9-bit init
// value is split over both parameter bytes with a 4-bit overlap.
func SetFskWhiteningParamsCmd(typ WhitenType, init uint16) []byte {
	cmd := make([]byte, 5)
	cmd[0] = GroupRadio
	cmd[1] = FskSetWhiteningParams
	cmd[2] = (uint8(typ)&0x1)<<4 | byte(init)
	cmd[3] = byte(init >> 4)
	return cmd
}

// SetFskCrcParamsCmd sets the CRC polynomial and initial value.
func SetFskCrcParamsCmd(polynom, init uint32) []byte {
	cmd := make([]byte, 10)
	cmd[0] = GroupRadio
	cmd[1] = FskSetCrcParams
	binary.LittleEndian.PutUint32(cmd[2:6], polynom)
	binary.LittleEndian.PutUint32(cmd[6:10], init)
	return cmd
}

// SetFskSyncwordCmd sets the syncword value and its length in bits, up
// to 64.
func SetFskSyncwordCmd(syncword uint64, order BitOrder, nbBits uint8) []byte {
	cmd := make([]byte, 12)
	cmd[0] = GroupRadio
	cmd[1] = FskSetSyncword
	binary.LittleEndian.PutUint64(cmd[2:10], syncword)
	cmd[10] = (uint8(order)&0x1)<<7 | nbBits&0x7F
	return cmd
}

// SetFskAddressCmd sets the node and broadcast addresses compared when
// address filtering is on.
func SetFskAddressCmd(node, bcast uint8) []byte {
	return []byte{GroupRadio, FskSetAddress, node, bcast}
}

// GetFskRxStatsReq reads the FSK modem packet counters. They reset on
// POR, on sleep without retention and on ResetRxStats.
func GetFskRxStatsReq() []byte {
	return []byte{GroupRadio, FskGetRxStats}
}

// GetFskPacketStatusReq reads the status of the last received packet.
// Updated on RxDone, except RssiSync which latches on syncword.
func GetFskPacketStatusReq() []byte {
	return []byte{GroupRadio, FskGetPacketStatus}
}

// FskRxStats holds the FSK modem packet counters.
type FskRxStats struct {
	PktRx     uint16
	CrcErrors uint16
	LenErrors uint16
	PblDet    uint16
	SyncOk    uint16
	SyncFail  uint16
	Timeouts  uint16
}

// DecodeFskRxStats decodes a GetFskRxStats response.
func DecodeFskRxStats(rsp []byte) (FskRxStats, error) {
	if len(rsp) != FskRxStatsRspLen {
		return FskRxStats{}, fmt.Errorf("fsk rx stats response is %d bytes, want %d: %w", len(rsp), FskRxStatsRspLen, ErrMalformed)
	}
	return FskRxStats{
		PktRx:     binary.BigEndian.Uint16(rsp[2:4]),
		CrcErrors: binary.BigEndian.Uint16(rsp[4:6]),
		LenErrors: binary.BigEndian.Uint16(rsp[6:8]),
		PblDet:    binary.BigEndian.Uint16(rsp[8:10]),
		SyncOk:    binary.BigEndian.Uint16(rsp[10:12]),
		SyncFail:  binary.BigEndian.Uint16(rsp[12:14]),
		Timeouts:  binary.BigEndian.Uint16(rsp[14:16]),
	}, nil
}

// FskPacketStatus describes the last received FSK packet. RSSI fields
// are raw half-dB steps, Lqi counts quarter-dB steps.
type FskPacketStatus struct {
	PktLen         uint16 // length in the FIFO, optional appended data included
	RssiAvg        uint16 // average RSSI over the packet
	RssiSync       uint16 // RSSI latched on syncword detection
	AddrMatchBcast bool
	AddrMatchNode  bool
	Lqi            uint8
}

// DecodeFskPacketStatus decodes a GetFskPacketStatus response.
func DecodeFskPacketStatus(rsp []byte) (FskPacketStatus, error) {
	if len(rsp) != FskPacketStatusRspLen {
		return FskPacketStatus{}, fmt.Errorf("fsk packet status response is %d bytes, want %d: %w", len(rsp), FskPacketStatusRspLen, ErrMalformed)
	}
	return FskPacketStatus{
		PktLen:         binary.BigEndian.Uint16(rsp[2:4]),
		RssiAvg:        uint16(rsp[4])<<1 | uint16(rsp[6]>>2)&0x1,
		RssiSync:       uint16(rsp[5])<<1 | uint16(rsp[6])&0x1,
		AddrMatchBcast: rsp[6]>>5&0x1 != 0,
		AddrMatchNode:  rsp[6]>>4&0x1 != 0,
		Lqi:            rsp[7],
	}, nil
}
