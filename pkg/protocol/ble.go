package protocol

import (
	"encoding/binary"
	"fmt"
)

// BLE command opcodes (group 0x02)
const (
	BleSetModulationParams = 0x60
	BleSetChannelParams    = 0x61
	BleSetTx               = 0x62
	BleGetRxStats          = 0x64
	BleGetPacketStatus     = 0x65
	BleSetTxPduLen         = 0x66
)

// Response lengths, status bytes included
const (
	BlePacketStatusRspLen = 8
	BleRxStatsRspLen      = 8
	BleRxStatsAdvRspLen   = 18
)

// Bluetooth LE physical layer constants
const (
	// BleAccessAddressAdv is the fixed access address of the
	// advertising channels.
	BleAccessAddressAdv uint32 = 0x8E89BED6

	// BleCrcInitAdv is the CRC seed on the advertising channels.
	BleCrcInitAdv uint32 = 0x555555
)

// BleMode is the BLE PHY rate.
type BleMode uint8

const (
	BleLe1m      BleMode = 0
	BleLe2m      BleMode = 1
	BleCoded500k BleMode = 2
	BleCoded125k BleMode = 3
)

// BleChannelType selects the PDU header format: 16-bit for advertising
// and legacy data channels, 24-bit when the length extension is used.
type BleChannelType uint8

const (
	BleAdvertiser BleChannelType = 0
	BleData16     BleChannelType = 1
	BleData24     BleChannelType = 2
)

// SetBleModulationParamsCmd sets the PHY rate. Fails if the packet type
// is not BLE.
func SetBleModulationParamsCmd(mode BleMode) []byte {
	return []byte{GroupRadio, BleSetModulationParams, uint8(mode) & 0x3}
}

// SetBleModulationParamsExtCmd additionally overrides the RX bandwidth.
func SetBleModulationParamsExtCmd(mode BleMode, bw RxBw) []byte {
	return []byte{GroupRadio, BleSetModulationParams, uint8(mode) & 0x3, uint8(bw)}
}

// SetBleChannelParamsCmd sets the per-channel parameters: whitening
// seed, CRC seed and access address. crcInFifo appends the received CRC
// bytes to the RX FIFO.
func SetBleChannelParamsCmd(crcInFifo bool, typ BleChannelType, whitInit uint8, crcInit, accessAddr uint32) []byte {
	cmd := make([]byte, 11)
	cmd[0] = GroupRadio
	cmd[1] = BleSetChannelParams
	if crcInFifo {
		cmd[2] |= 16
	}
	cmd[2] |= uint8(typ) & 0xF
	cmd[3] = whitInit
	cmd[4] = byte(crcInit >> 16)
	cmd[5] = byte(crcInit >> 8)
	cmd[6] = byte(crcInit)
	binary.BigEndian.PutUint32(cmd[7:11], accessAddr)
	return cmd
}

// SetBleTxCmd sets the PDU length and starts transmission in one
// command, equivalent to SetBleTxPduLen followed by SetTx with no
// timeout.
func SetBleTxCmd(pduLen uint8) []byte {
	return []byte{GroupRadio, BleSetTx, pduLen}
}

// SetBleTxPduLenCmd sets the PDU length for the next transmission.
func SetBleTxPduLenCmd(pduLen uint8) []byte {
	return []byte{GroupRadio, BleSetTxPduLen, pduLen}
}

// GetBleRxStatsReq reads the BLE modem packet counters. They reset on
// POR, on sleep without retention and on ResetRxStats. Decode with
// DecodeBleRxStats or DecodeBleRxStatsAdv depending on the response
// length requested.
func GetBleRxStatsReq() []byte {
	return []byte{GroupRadio, BleGetRxStats}
}

// GetBlePacketStatusReq reads the status of the last received packet.
// Updated on RxDone, except RssiSync which latches on syncword.
func GetBlePacketStatusReq() []byte {
	return []byte{GroupRadio, BleGetPacketStatus}
}

// BlePacketStatus describes the last received BLE packet. RSSI fields
// are raw half-dB steps, Lqi counts quarter-dB steps.
type BlePacketStatus struct {
	PktLen   uint16 // length in the FIFO, optional appended CRC included
	RssiAvg  uint16 // average RSSI over the packet
	RssiSync uint16 // RSSI latched on access address detection
	Lqi      uint8
}

// DecodeBlePacketStatus decodes a GetBlePacketStatus response.
func DecodeBlePacketStatus(rsp []byte) (BlePacketStatus, error) {
	if len(rsp) != BlePacketStatusRspLen {
		return BlePacketStatus{}, fmt.Errorf("ble packet status response is %d bytes, want %d: %w", len(rsp), BlePacketStatusRspLen, ErrMalformed)
	}
	return BlePacketStatus{
		PktLen:   binary.BigEndian.Uint16(rsp[2:4]),
		RssiAvg:  uint16(rsp[4])<<1 | uint16(rsp[6]>>2)&0x1,
		RssiSync: uint16(rsp[5])<<1 | uint16(rsp[6])&0x1,
		Lqi:      rsp[7],
	}, nil
}

// BleRxStats holds the BLE modem packet counters. The detection and
// CRC-pass counters are only present in the extended response.
type BleRxStats struct {
	PktRx     uint16
	CrcErrors uint16
	LenErrors uint16
	PblDet    uint16
	SyncOk    uint16
	SyncFail  uint16
	Timeouts  uint16
	CrcOk     uint16
}

// DecodeBleRxStats decodes the basic 8-byte GetBleRxStats response.
func DecodeBleRxStats(rsp []byte) (BleRxStats, error) {
	if len(rsp) != BleRxStatsRspLen {
		return BleRxStats{}, fmt.Errorf("ble rx stats response is %d bytes, want %d: %w", len(rsp), BleRxStatsRspLen, ErrMalformed)
	}
	return BleRxStats{
		PktRx:     binary.BigEndian.Uint16(rsp[2:4]),
		CrcErrors: binary.BigEndian.Uint16(rsp[4:6]),
		LenErrors: binary.BigEndian.Uint16(rsp[6:8]),
	}, nil
}

// DecodeBleRxStatsAdv decodes the extended 18-byte GetBleRxStats
// response.
func DecodeBleRxStatsAdv(rsp []byte) (BleRxStats, error) {
	if len(rsp) != BleRxStatsAdvRspLen {
		return BleRxStats{}, fmt.Errorf("ble rx stats response is %d bytes, want %d: %w", len(rsp), BleRxStatsAdvRspLen, ErrMalformed)
	}
	return BleRxStats{
		PktRx:     binary.BigEndian.Uint16(rsp[2:4]),
		CrcErrors: binary.BigEndian.Uint16(rsp[4:6]),
		LenErrors: binary.BigEndian.Uint16(rsp[6:8]),
		PblDet:    binary.BigEndian.Uint16(rsp[8:10]),
		SyncOk:    binary.BigEndian.Uint16(rsp[10:12]),
		SyncFail:  binary.BigEndian.Uint16(rsp[12:14]),
		Timeouts:  binary.BigEndian.Uint16(rsp[14:16]),
		CrcOk:     binary.BigEndian.Uint16(rsp[16:18]),
	}, nil
}
