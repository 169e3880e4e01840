package profiles

import "github.com/TheClams/lr2021-go/pkg/protocol"

// Fsk configures the generic FSK modem.
type Fsk struct {
	Rf

	// Bitrate is the raw data rate in bit/s.
	Bitrate uint32              `json:"bitrate"`
	Shape   protocol.PulseShape `json:"pulse_shape,omitempty"`
	// RxBw is the receiver channel filter. BwAuto derives it from
	// bitrate and deviation.
	RxBw protocol.RxBw `json:"rx_bw,omitempty"`
	// FdevHz is the frequency deviation in Hz.
	FdevHz uint32 `json:"fdev_hz"`

	// PreambleLen is the TX preamble length in bits.
	PreambleLen uint16                `json:"preamble_len"`
	Detect      protocol.PblLenDetect `json:"preamble_detect,omitempty"`
	Format      protocol.PktFormat    `json:"packet_format"`
	// PayloadLen is the payload length in bytes, the maximum one for
	// variable formats.
	PayloadLen uint16       `json:"payload_len"`
	Crc        protocol.FskCrc `json:"crc,omitempty"`
	Whitening  bool            `json:"whitening,omitempty"`

	// Syncword is sent after the preamble, SyncwordBits long (up to 64).
	Syncword     uint64            `json:"syncword"`
	SyncwordBits uint8             `json:"syncword_bits"`
	SyncOrder    protocol.BitOrder `json:"syncword_order,omitempty"`
}

// PacketType selects the generic FSK modem.
func (p Fsk) PacketType() protocol.PacketType { return protocol.PacketFskGeneric }

// Validate checks the field combination before any bus traffic.
func (p Fsk) Validate() error {
	if err := p.Rf.validate(); err != nil {
		return err
	}
	if p.Bitrate == 0 {
		return errField("bitrate", 0)
	}
	if p.FdevHz == 0 || p.FdevHz >= 1<<24 {
		return errField("fdev_hz", uint64(p.FdevHz))
	}
	if p.Format > protocol.PktVariable16 {
		return errField("packet_format", uint64(p.Format))
	}
	if p.PayloadLen == 0 {
		return errField("payload_len", 0)
	}
	if p.SyncwordBits == 0 || p.SyncwordBits > 64 {
		return errField("syncword_bits", uint64(p.SyncwordBits))
	}
	return nil
}

// Setup returns the modem command sequence.
func (p Fsk) Setup() [][]byte {
	var dcFree uint8
	if p.Whitening {
		dcFree = 1
	}
	return [][]byte{
		protocol.SetFskModulationParamsCmd(p.Bitrate, p.Shape, p.RxBw, p.FdevHz),
		protocol.SetFskSyncwordCmd(p.Syncword, p.SyncOrder, p.SyncwordBits),
		protocol.SetFskPacketParamsCmd(p.PreambleLen, p.Detect, protocol.PldLenBytes,
			protocol.AddrCompOff, p.Format, p.PayloadLen, p.Crc, dcFree),
	}
}

// NewFsk901 returns the demo FSK link: 901 MHz at 250 kb/s with 62.5 kHz
// deviation, variable length packets with a 16-bit CRC and whitening.
func NewFsk901() Fsk {
	return Fsk{
		Rf:           Rf{FreqHz: 901000000, Power: 0, PaRamp: protocol.Ramp8u},
		Bitrate:      250000,
		Shape:        protocol.ShapeBt0p5,
		RxBw:         protocol.Bw444,
		FdevHz:       62500,
		PreambleLen:  8,
		Format:       protocol.PktVariable8,
		PayloadLen:   10,
		Crc:          protocol.FskCrc2Byte,
		Whitening:    true,
		Syncword:     0xCD05DEAD,
		SyncwordBits: 32,
		SyncOrder:    protocol.LsbFirst,
	}
}

// NewFsk433Narrow returns a narrowband 433 MHz profile for low rate
// telemetry: 4.8 kb/s with 10 kHz deviation.
func NewFsk433Narrow() Fsk {
	return Fsk{
		Rf:           Rf{FreqHz: 433920000, Power: 10, PaRamp: protocol.Ramp16u},
		Bitrate:      4800,
		Shape:        protocol.ShapeBt0p5,
		RxBw:         protocol.Bw48,
		FdevHz:       10000,
		PreambleLen:  32,
		Detect:       protocol.PblDetect16,
		Format:       protocol.PktVariable8,
		PayloadLen:   64,
		Crc:          protocol.FskCrc2Byte,
		Whitening:    true,
		Syncword:     0xD391D391,
		SyncwordBits: 32,
		SyncOrder:    protocol.MsbFirst,
	}
}
