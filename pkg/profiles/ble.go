package profiles

import "github.com/TheClams/lr2021-go/pkg/protocol"

// Ble configures the BLE modem for one RF channel. The whitening seed,
// CRC seed and access address must match the channel in use; the
// advertising presets fill them in.
type Ble struct {
	Rf

	Mode protocol.BleMode        `json:"mode"`
	Type protocol.BleChannelType `json:"channel_type,omitempty"`

	WhitInit   uint8  `json:"whit_init"`
	CrcInit    uint32 `json:"crc_init"`
	AccessAddr uint32 `json:"access_addr"`

	// CrcInFifo appends the received CRC bytes to the RX FIFO.
	CrcInFifo bool `json:"crc_in_fifo,omitempty"`
}

// PacketType selects the BLE modem.
func (p Ble) PacketType() protocol.PacketType { return protocol.PacketBle }

// Validate checks the field combination before any bus traffic.
func (p Ble) Validate() error {
	if err := p.Rf.validate(); err != nil {
		return err
	}
	if p.FreqHz < HfMinHz {
		return errValue(ErrFrequencyOutOfRange, uint64(p.FreqHz))
	}
	if p.Mode > protocol.BleCoded125k {
		return errField("mode", uint64(p.Mode))
	}
	if p.Type > protocol.BleData24 {
		return errField("channel_type", uint64(p.Type))
	}
	if p.AccessAddr == 0 {
		return errField("access_addr", 0)
	}
	return nil
}

// Setup returns the modem command sequence.
func (p Ble) Setup() [][]byte {
	return [][]byte{
		protocol.SetBleModulationParamsCmd(p.Mode),
		protocol.SetBleChannelParamsCmd(p.CrcInFifo, p.Type, p.WhitInit, p.CrcInit, p.AccessAddr),
	}
}

// NewBleAdv returns a 1M PHY profile for a BLE advertising channel
// (37, 38 or 39) with the standard access address, CRC seed and the
// channel's whitening seed.
func NewBleAdv(channel uint8) Ble {
	var freq uint32
	var whit uint8
	switch channel {
	case 37:
		freq, whit = 2402000000, 0x53
	case 38:
		freq, whit = 2426000000, 0x33
	default:
		freq, whit = 2480000000, 0x73
	}
	return Ble{
		Rf:         Rf{FreqHz: freq, Power: 0, PaRamp: protocol.Ramp4u},
		Mode:       protocol.BleLe1m,
		Type:       protocol.BleAdvertiser,
		WhitInit:   whit,
		CrcInit:    protocol.BleCrcInitAdv,
		AccessAddr: protocol.BleAccessAddressAdv,
	}
}

// NewBleOob returns the out-of-band variant of the advertising profile
// at 2.3 GHz, used for board-to-board tests away from live BLE traffic.
func NewBleOob() Ble {
	p := NewBleAdv(37)
	p.FreqHz = 2300000000
	p.WhitInit = 0xCD
	return p
}
