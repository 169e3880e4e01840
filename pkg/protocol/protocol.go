// Package protocol implements the LR2021 host command set: pure
// encoders for command frames and decoders for the response frames the
// chip clocks back over SPI. The package holds no state and performs no
// I/O, which keeps every encode/decode pair testable against fixed byte
// fixtures.
//
// Commands are grouped by the first opcode byte: 0x00 for FIFO data
// transfers, 0x01 for system commands, 0x02 for radio commands. Every
// response begins with two status bytes (see Status); decoders expect
// the full response buffer including those two bytes.
package protocol

// Command groups (first opcode byte)
const (
	GroupFifo   = 0x00
	GroupSystem = 0x01
	GroupRadio  = 0x02
)

// MaxCmdLen is the longest command frame accepted by the chip command
// interface. FIFO data transfers are not bound by this limit.
const MaxCmdLen = 18

// FIFO access opcodes, used on the data transfer path where the payload
// follows the two opcode bytes in a single chip-select window.
var (
	OpRdRxFifo = [2]byte{GroupFifo, 0x01}
	OpWrTxFifo = [2]byte{GroupFifo, 0x02}
	OpWrRegMem = [2]byte{GroupSystem, 0x04}
)

// PacketType selects the active modem.
type PacketType uint8

const (
	PacketLora       PacketType = 0
	PacketFskGeneric PacketType = 1
	PacketFskLegacy  PacketType = 2
	PacketBle        PacketType = 3
	PacketRanging    PacketType = 4
	PacketFlrc       PacketType = 5
	PacketBpsk       PacketType = 6
	PacketLrFhss     PacketType = 7
	PacketWmbus      PacketType = 8
	PacketWisun      PacketType = 9
	PacketOok        PacketType = 10
	PacketRaw        PacketType = 11
	PacketZwave      PacketType = 12
	PacketZigbee     PacketType = 13
)

func (p PacketType) String() string {
	switch p {
	case PacketLora:
		return "LoRa"
	case PacketFskGeneric:
		return "FSK"
	case PacketFskLegacy:
		return "FSK-legacy"
	case PacketBle:
		return "BLE"
	case PacketRanging:
		return "ranging"
	case PacketFlrc:
		return "FLRC"
	case PacketBpsk:
		return "BPSK"
	case PacketLrFhss:
		return "LR-FHSS"
	case PacketWmbus:
		return "WM-Bus"
	case PacketWisun:
		return "Wi-SUN"
	case PacketOok:
		return "OOK"
	case PacketRaw:
		return "raw"
	case PacketZwave:
		return "Z-Wave"
	case PacketZigbee:
		return "Zigbee"
	default:
		return "unknown"
	}
}

// RX/TX timeout values for SetRxCmd and SetTxCmd, in RTC steps of
// 1/32.768kHz. The 24-bit field allows up to 512 seconds.
const (
	TimeoutSingle     uint32 = 0        // stay until first packet event, no RTC timeout
	TimeoutContinuous uint32 = 0xFFFFFF // never time out, restart reception after each packet
)

// RssiDbm converts a raw RSSI reading in half-dB steps to dBm.
// All RSSI fields returned by the chip use this encoding.
func RssiDbm(raw uint16) float64 {
	return -float64(raw) / 2
}
