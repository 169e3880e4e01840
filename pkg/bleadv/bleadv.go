// Package bleadv frames and parses BLE advertising channel PDUs as the
// LR2021 BLE modem delivers them: header byte, length byte, advertiser
// address and advertising data structures. Parsing only; connection
// establishment and link layer state are out of scope.
package bleadv

import (
	"errors"
	"fmt"
	"strings"
)

// Parsing errors
var (
	// ErrTruncated indicates a PDU shorter than its length byte claims.
	ErrTruncated = errors.New("truncated advertising pdu")

	// ErrBadLength indicates a PDU length outside the legal range for
	// its type.
	ErrBadLength = errors.New("bad advertising pdu length")
)

// AdvType is the advertising PDU type carried in the header.
type AdvType uint8

const (
	AdvInd        AdvType = 0 // connectable and scannable
	AdvDirectInd  AdvType = 1 // directed connectable
	AdvNonConnInd AdvType = 2 // non-connectable, non-scannable
	ScanReq       AdvType = 3
	ScanRsp       AdvType = 4
	ConnectInd    AdvType = 5
	AdvScanInd    AdvType = 6 // non-connectable, scannable
	AdvExtInd     AdvType = 7
	AdvInvalid    AdvType = 15
)

// IsScan reports whether the type belongs to the scan exchange.
func (t AdvType) IsScan() bool {
	return t == ScanReq || t == ScanRsp
}

// IsAdv reports whether the type is an advertisement (as opposed to a
// scan or connection exchange).
func (t AdvType) IsAdv() bool {
	switch t {
	case AdvInd, AdvDirectInd, AdvNonConnInd, AdvScanInd, AdvExtInd:
		return true
	default:
		return false
	}
}

func (t AdvType) String() string {
	switch t {
	case AdvInd:
		return "ADV_IND"
	case AdvDirectInd:
		return "ADV_DIRECT_IND"
	case AdvNonConnInd:
		return "ADV_NONCONN_IND"
	case ScanReq:
		return "SCAN_REQ"
	case ScanRsp:
		return "SCAN_RSP"
	case ConnectInd:
		return "CONNECT_IND"
	case AdvScanInd:
		return "ADV_SCAN_IND"
	case AdvExtInd:
		return "ADV_EXT_IND"
	default:
		return "INVALID"
	}
}

// Header is the first byte of an advertising PDU.
type Header uint8

// Type returns the PDU type from the low nibble.
func (h Header) Type() AdvType {
	if v := uint8(h) & 0xF; v <= 7 {
		return AdvType(v)
	}
	return AdvInvalid
}

// TxAddrRandom reports whether the advertiser address is random rather
// than public.
func (h Header) TxAddrRandom() bool { return h&0x40 != 0 }

// RxAddrRandom reports whether the target address is random rather
// than public.
func (h Header) RxAddrRandom() bool { return h&0x80 != 0 }

// Addr is a 48-bit BLE device address.
type Addr uint64

func (a Addr) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		byte(a>>40), byte(a>>32), byte(a>>24), byte(a>>16), byte(a>>8), byte(a))
}

func addrAt(b []byte) Addr {
	return Addr(b[0])<<40 | Addr(b[1])<<32 | Addr(b[2])<<24 |
		Addr(b[3])<<16 | Addr(b[4])<<8 | Addr(b[5])
}

// Pdu is a parsed advertising channel PDU. Data aliases the input
// buffer and is only valid as long as it.
type Pdu struct {
	Header Header
	// Addr is the advertiser (TX) address.
	Addr Addr
	// Data is the part following the address: advertising data
	// structures for advertisements, the LL payload for CONNECT_IND,
	// empty for SCAN_REQ.
	Data []byte
}

// Type returns the PDU type.
func (p Pdu) Type() AdvType { return p.Header.Type() }

// Target returns the second address of a SCAN_REQ or CONNECT_IND.
func (p Pdu) Target() (Addr, bool) {
	switch p.Type() {
	case ScanReq, ConnectInd:
		if len(p.Data) >= 6 {
			return addrAt(p.Data), true
		}
	}
	return 0, false
}

// minPduLen is header, length and advertiser address, plus at least
// one payload byte on the air.
const minPduLen = 9

// Parse decodes an advertising PDU from the raw bytes read out of the
// RX FIFO: header, length, 6-byte address, payload.
func Parse(b []byte) (Pdu, error) {
	if len(b) < 2 {
		return Pdu{}, fmt.Errorf("pdu of %d bytes: %w", len(b), ErrTruncated)
	}
	hdr := Header(b[0])
	n := int(b[1])
	if n+2 != len(b) {
		return Pdu{}, fmt.Errorf("length byte %d in a %d byte pdu: %w", n, len(b), ErrTruncated)
	}
	if n < minPduLen || hdr.Type() == AdvInvalid {
		return Pdu{}, fmt.Errorf("%s of %d bytes: %w", hdr.Type(), n, ErrBadLength)
	}
	if hdr.Type() == ScanReq && n != 12 {
		return Pdu{}, fmt.Errorf("SCAN_REQ of %d bytes: %w", n, ErrBadLength)
	}
	return Pdu{
		Header: hdr,
		Addr:   addrAt(b[2:8]),
		Data:   b[8:],
	}, nil
}

// DataType identifies an advertising data structure.
type DataType uint8

const (
	TypeFlags          DataType = 0x01
	TypeUuid16More     DataType = 0x02
	TypeUuid16Full     DataType = 0x03
	TypeUuid32More     DataType = 0x04
	TypeUuid32Full     DataType = 0x05
	TypeUuid128More    DataType = 0x06
	TypeUuid128Full    DataType = 0x07
	TypeNameShort      DataType = 0x08
	TypeNameFull       DataType = 0x09
	TypeTxPower        DataType = 0x0A
	TypeDeviceId       DataType = 0x10
	TypeSolicitation   DataType = 0x14
	TypeServiceData16  DataType = 0x16
	TypeAppearance     DataType = 0x19
	TypeServiceData32  DataType = 0x20
	TypeServiceData128 DataType = 0x21
	TypeUri            DataType = 0x24
	TypeEncrypted      DataType = 0x31
	TypeManufacturer   DataType = 0xFF
)

func (t DataType) String() string {
	switch t {
	case TypeFlags:
		return "Flags"
	case TypeUuid16More, TypeUuid16Full:
		return "UUID16"
	case TypeUuid32More, TypeUuid32Full:
		return "UUID32"
	case TypeUuid128More, TypeUuid128Full:
		return "UUID128"
	case TypeNameShort:
		return "Short Name"
	case TypeNameFull:
		return "Name"
	case TypeTxPower:
		return "TX Power"
	case TypeDeviceId:
		return "Device ID"
	case TypeSolicitation:
		return "Service Solicitation"
	case TypeServiceData16:
		return "Service Data"
	case TypeAppearance:
		return "Appearance"
	case TypeUri:
		return "URI"
	case TypeEncrypted:
		return "Encrypted Data"
	case TypeManufacturer:
		return "Manufacturer"
	default:
		return fmt.Sprintf("Type %#02x", uint8(t))
	}
}

// Structure is one advertising data structure: a type and its payload.
type Structure struct {
	Type DataType
	Data []byte
}

// Structures walks the advertising data of an advertisement or scan
// response. Other PDU types carry no advertising data and yield nil.
// An incomplete trailing structure ends the walk with ErrTruncated;
// the structures before it are still returned.
func (p Pdu) Structures() ([]Structure, error) {
	if t := p.Type(); !t.IsAdv() && t != ScanRsp {
		return nil, nil
	}
	var out []Structure
	data := p.Data
	for len(data) > 0 {
		n := int(data[0])
		if n == 0 {
			data = data[1:]
			continue
		}
		if len(data) < n+1 {
			return out, fmt.Errorf("structure of %d bytes with %d left: %w", n, len(data)-1, ErrTruncated)
		}
		out = append(out, Structure{
			Type: DataType(data[1]),
			Data: data[2 : n+1],
		})
		data = data[n+1:]
	}
	return out, nil
}

// Name returns the device name from the structure list, preferring the
// full name over the shortened one.
func Name(structs []Structure) (string, bool) {
	short := ""
	for _, s := range structs {
		switch s.Type {
		case TypeNameFull:
			return string(s.Data), true
		case TypeNameShort:
			short = string(s.Data)
		}
	}
	return short, short != ""
}

// Flags is the advertising flags structure payload.
type Flags uint8

func (f Flags) LimitedDiscoverable() bool { return f&0x01 != 0 }
func (f Flags) GeneralDiscoverable() bool { return f&0x02 != 0 }
func (f Flags) BrEdrNotSupported() bool   { return f&0x04 != 0 }

func (f Flags) String() string {
	var parts []string
	if f.LimitedDiscoverable() {
		parts = append(parts, "limited")
	}
	if f.GeneralDiscoverable() {
		parts = append(parts, "general")
	}
	if f.BrEdrNotSupported() {
		parts = append(parts, "LE only")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// CompanyName names a few common manufacturer IDs seen in the wild.
func CompanyName(id uint16) string {
	switch id {
	case 0x0000:
		return "Ericsson"
	case 0x0003:
		return "IBM"
	case 0x0006:
		return "Microsoft"
	case 0x0030:
		return "STMicroelectronics"
	case 0x004C:
		return "Apple"
	case 0x0057:
		return "Harman"
	case 0x0059:
		return "Nordic"
	case 0x0075:
		return "Samsung"
	case 0x0076:
		return "Creative Labs"
	case 0x0087:
		return "Garmin"
	case 0x0089:
		return "GN Hearing"
	case 0x012D:
		return "Sony"
	case 0x038F:
		return "Xiaomi"
	case 0x07C9:
		return "SkullCandy"
	default:
		return fmt.Sprintf("%#04x", id)
	}
}

// Manufacturer returns the company ID and payload of a manufacturer
// data structure. The ID rides little endian in the first two bytes.
func (s Structure) Manufacturer() (uint16, []byte, bool) {
	if s.Type != TypeManufacturer || len(s.Data) < 2 {
		return 0, nil, false
	}
	return uint16(s.Data[0]) | uint16(s.Data[1])<<8, s.Data[2:], true
}

// Uuid16 returns the 16-bit UUID of a service class or service data
// structure.
func (s Structure) Uuid16() (uint16, bool) {
	switch s.Type {
	case TypeUuid16More, TypeUuid16Full, TypeServiceData16:
		if len(s.Data) >= 2 {
			return uint16(s.Data[0]) | uint16(s.Data[1])<<8, true
		}
	}
	return 0, false
}
