package profiles

import "github.com/TheClams/lr2021-go/pkg/protocol"

// Flrc configures the FLRC modem.
type Flrc struct {
	Rf

	Bitrate protocol.FlrcBitrate `json:"bitrate"`
	Cr      protocol.FlrcCr      `json:"coding_rate"`
	Shape   protocol.PulseShape  `json:"pulse_shape,omitempty"`

	AgcPreamble protocol.AgcPblLen     `json:"agc_preamble,omitempty"`
	SyncLen     protocol.SyncLen       `json:"sync_len"`
	SyncTx      protocol.SyncTx        `json:"sync_tx"`
	SyncMatch   protocol.SyncMatch     `json:"sync_match"`
	Format      protocol.FlrcPktFormat `json:"packet_format"`
	Crc         protocol.FlrcCrc       `json:"crc,omitempty"`
	// PayloadLen is the payload length in bytes, the maximum one for
	// the dynamic format.
	PayloadLen uint16 `json:"payload_len"`

	// Syncwords fills the three 32-bit syncword slots. A zero slot is
	// left at its reset value.
	Syncword1 uint32 `json:"syncword1,omitempty"`
	Syncword2 uint32 `json:"syncword2,omitempty"`
	Syncword3 uint32 `json:"syncword3,omitempty"`
}

// PacketType selects the FLRC modem.
func (p Flrc) PacketType() protocol.PacketType { return protocol.PacketFlrc }

// Validate checks the field combination before any bus traffic.
func (p Flrc) Validate() error {
	if err := p.Rf.validate(); err != nil {
		return err
	}
	if p.Bitrate > protocol.FlrcBr260 {
		return errField("bitrate", uint64(p.Bitrate))
	}
	if p.SyncLen > protocol.Sync32 {
		return errField("sync_len", uint64(p.SyncLen))
	}
	if p.SyncLen == protocol.Sync0 && p.SyncMatch != protocol.MatchNone {
		return errField("sync_match", uint64(p.SyncMatch))
	}
	if p.PayloadLen == 0 {
		return errField("payload_len", 0)
	}
	return nil
}

// Setup returns the modem command sequence.
func (p Flrc) Setup() [][]byte {
	cmds := [][]byte{
		protocol.SetFlrcModulationParamsCmd(p.Bitrate, p.Cr, p.Shape),
	}
	for i, sw := range []uint32{p.Syncword1, p.Syncword2, p.Syncword3} {
		if sw != 0 {
			cmds = append(cmds, protocol.SetFlrcSyncwordCmd(uint8(i+1), sw))
		}
	}
	return append(cmds, protocol.SetFlrcPacketParamsCmd(
		p.AgcPreamble, p.SyncLen, p.SyncTx, p.SyncMatch, p.Format, p.Crc, p.PayloadLen))
}

// NewFlrc24G returns the demo FLRC link on the 2.4 GHz path: 2.6 Mb/s
// uncoded, 32-bit syncword, dynamic length packets with a 24-bit CRC.
func NewFlrc24G() Flrc {
	return Flrc{
		Rf:          Rf{FreqHz: 2400000000, Power: 0, PaRamp: protocol.Ramp16u},
		Bitrate:     protocol.FlrcBr2600,
		Cr:          protocol.FlrcCr1p0,
		Shape:       protocol.ShapeBt1p0,
		AgcPreamble: protocol.AgcPbl16,
		SyncLen:     protocol.Sync32,
		SyncTx:      protocol.SyncTx1,
		SyncMatch:   protocol.MatchAnyOf3,
		Format:      protocol.FlrcPktDynamic,
		Crc:         protocol.FlrcCrc24,
		PayloadLen:  10,
		Syncword1:   0xCD05CAFE,
		Syncword2:   0x12345678,
		Syncword3:   0x9ABCDEF0,
	}
}

// NewFlrc24GRobust returns a coded 650 kb/s variant of the 2.4 GHz link
// for longer range.
func NewFlrc24GRobust() Flrc {
	p := NewFlrc24G()
	p.Bitrate = protocol.FlrcBr650
	p.Cr = protocol.FlrcCr1p2
	return p
}
