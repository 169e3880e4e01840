package profiles

import "github.com/TheClams/lr2021-go/pkg/protocol"

// Lora configures the LoRa modem.
type Lora struct {
	Rf

	Sf   protocol.Sf     `json:"spreading_factor"`
	Bw   protocol.LoraBw `json:"bandwidth"`
	Cr   protocol.LoraCr `json:"coding_rate"`
	Ldro bool            `json:"ldro,omitempty"`

	// PreambleLen is the TX preamble length in symbols.
	PreambleLen uint16 `json:"preamble_len"`
	// PayloadLen is the payload length in bytes: the fixed length for
	// implicit headers, the longest accepted one for explicit headers.
	PayloadLen uint8               `json:"payload_len"`
	Header     protocol.HeaderType `json:"header,omitempty"`
	Crc        bool                `json:"crc_enabled"`
	InvertIq   bool                `json:"invert_iq,omitempty"`

	// Syncword is the network syncword, LoraSyncPrivate when zero.
	Syncword uint8 `json:"syncword,omitempty"`
}

// PacketType selects the LoRa modem.
func (p Lora) PacketType() protocol.PacketType { return protocol.PacketLora }

// Validate checks the field combination before any bus traffic.
func (p Lora) Validate() error {
	if err := p.Rf.validate(); err != nil {
		return err
	}
	if p.Sf < protocol.Sf5 || p.Sf > protocol.Sf12 {
		return errField("spreading_factor", uint64(p.Sf))
	}
	if p.Bw > protocol.LoraBw800 {
		return errField("bandwidth", uint64(p.Bw))
	}
	if p.Cr > protocol.CrCc1p2 {
		return errField("coding_rate", uint64(p.Cr))
	}
	if p.PreambleLen == 0 {
		return errField("preamble_len", 0)
	}
	if p.PayloadLen == 0 {
		return errField("payload_len", 0)
	}
	return nil
}

// Setup returns the modem command sequence.
func (p Lora) Setup() [][]byte {
	ldro := protocol.LdroOff
	if p.Ldro {
		ldro = protocol.LdroOn
	}
	sync := p.Syncword
	if sync == 0 {
		sync = protocol.LoraSyncPrivate
	}
	return [][]byte{
		protocol.SetLoraModulationParamsCmd(p.Sf, p.Bw, p.Cr, ldro),
		protocol.SetLoraPacketParamsCmd(p.PreambleLen, p.PayloadLen, p.Header, p.Crc, p.InvertIq),
		protocol.SetLoraSyncwordCmd(sync),
	}
}

// NewLora901Fast returns the fast demo link: 901 MHz, SF5 over a 1 MHz
// channel, coding rate 4/5, explicit header with CRC.
func NewLora901Fast() Lora {
	return Lora{
		Rf:          Rf{FreqHz: 901000000, Power: 0, PaRamp: protocol.Ramp8u},
		Sf:          protocol.Sf5,
		Bw:          protocol.LoraBw1000,
		Cr:          protocol.CrParitySi,
		PreambleLen: 8,
		PayloadLen:  10,
		Header:      protocol.HeaderExplicit,
		Crc:         true,
	}
}

// NewLora868LongRange returns a long range profile: 868.35 MHz, SF12
// over 125 kHz with low data rate optimization.
func NewLora868LongRange() Lora {
	return Lora{
		Rf:          Rf{FreqHz: 868350000, Power: 14, PaRamp: protocol.Ramp48u},
		Sf:          protocol.Sf12,
		Bw:          protocol.LoraBw125,
		Cr:          protocol.CrHam1p2Li,
		Ldro:        true,
		PreambleLen: 12,
		PayloadLen:  64,
		Header:      protocol.HeaderExplicit,
		Crc:         true,
	}
}
