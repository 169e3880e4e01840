package profiles

import "github.com/TheClams/lr2021-go/pkg/protocol"

// Ook configures the OOK modem.
type Ook struct {
	Rf

	// Bitrate is the raw data rate in bit/s.
	Bitrate uint32              `json:"bitrate"`
	Shape   protocol.PulseShape `json:"pulse_shape,omitempty"`
	RxBw    protocol.RxBw       `json:"rx_bw,omitempty"`

	// PreambleLen is the TX preamble length in bits.
	PreambleLen uint16              `json:"preamble_len"`
	Format      protocol.PktFormat  `json:"packet_format"`
	PayloadLen  uint16              `json:"payload_len"`
	Crc         protocol.FskCrc     `json:"crc,omitempty"`
	Manchester  protocol.Manchester `json:"manchester,omitempty"`

	// Syncword is matched after the preamble, SyncwordBits long (up to
	// 32). Zero bits disables syncword matching.
	Syncword     uint32            `json:"syncword,omitempty"`
	SyncwordBits uint8             `json:"syncword_bits,omitempty"`
	SyncOrder    protocol.BitOrder `json:"syncword_order,omitempty"`

	// Detector describes the RX preamble pattern and frame delimiter.
	// A zero PatternLen leaves the chip defaults in place.
	PblPattern     uint16           `json:"pbl_pattern,omitempty"`
	PatternLen     uint8            `json:"pattern_len,omitempty"`
	PatternRepeats uint8            `json:"pattern_repeats,omitempty"`
	Sfd            protocol.SfdKind `json:"sfd,omitempty"`
	SfdLen         uint8            `json:"sfd_len,omitempty"`
}

// PacketType selects the OOK modem.
func (p Ook) PacketType() protocol.PacketType { return protocol.PacketOok }

// Validate checks the field combination before any bus traffic.
func (p Ook) Validate() error {
	if err := p.Rf.validate(); err != nil {
		return err
	}
	if p.Bitrate == 0 {
		return errField("bitrate", 0)
	}
	if p.Format > protocol.PktVariable16 {
		return errField("packet_format", uint64(p.Format))
	}
	if p.PayloadLen == 0 {
		return errField("payload_len", 0)
	}
	if p.SyncwordBits > 32 {
		return errField("syncword_bits", uint64(p.SyncwordBits))
	}
	return nil
}

// Setup returns the modem command sequence.
func (p Ook) Setup() [][]byte {
	cmds := [][]byte{
		protocol.SetOokModulationParamsCmd(p.Bitrate, p.Shape, p.RxBw),
		protocol.SetOokPacketParamsCmd(p.PreambleLen, protocol.AddrCompOff, p.Format,
			p.PayloadLen, p.Crc, p.Manchester),
	}
	if p.SyncwordBits > 0 {
		cmds = append(cmds, protocol.SetOokSyncwordCmd(p.Syncword, p.SyncOrder, p.SyncwordBits))
	}
	if p.PatternLen > 0 {
		cmds = append(cmds, protocol.SetOokDetectorCmd(p.PblPattern, p.PatternLen,
			p.PatternRepeats, false, p.Sfd, p.SfdLen))
	}
	return cmds
}

// NewOokRts returns the remote trigger switch profile at 433.42 MHz:
// Manchester coded OOK with the falling edge frame delimiter the RTS
// framing uses.
func NewOokRts() Ook {
	return Ook{
		Rf:             Rf{FreqHz: 433420000, Power: 21, PaRamp: protocol.Ramp64u},
		Bitrate:        1656,
		Shape:          protocol.ShapeNone,
		RxBw:           protocol.Bw12,
		PreambleLen:    96,
		Format:         protocol.PktFixed,
		PayloadLen:     7,
		Manchester:     protocol.ManchesterOn,
		PblPattern:     0xF0,
		PatternLen:     8,
		PatternRepeats: 12,
		Sfd:            protocol.SfdFallingEdge,
		SfdLen:         4,
	}
}

// NewOok433Generic returns a generic 433.92 MHz OOK profile for simple
// remotes and sensors: 2.4 kb/s, 16-bit syncword, variable length.
func NewOok433Generic() Ook {
	return Ook{
		Rf:           Rf{FreqHz: 433920000, Power: 15, PaRamp: protocol.Ramp32u},
		Bitrate:      2400,
		Shape:        protocol.ShapeNone,
		RxBw:         protocol.Bw24,
		PreambleLen:  32,
		Format:       protocol.PktVariable8,
		PayloadLen:   64,
		Crc:          protocol.FskCrc1Byte,
		Syncword:     0xD391,
		SyncwordBits: 16,
		SyncOrder:    protocol.MsbFirst,
	}
}
