package bleadv

// AccessAddress is the fixed access address of the advertising channels.
const AccessAddress uint32 = 0x8E89BED6

// CrcInit is the CRC initial value on the advertising channels.
const CrcInit uint32 = 0x555555

// Channel is a BLE advertising channel index.
type Channel uint8

const (
	Ch37 Channel = 37
	Ch38 Channel = 38
	Ch39 Channel = 39
)

// FreqHz returns the channel center frequency.
func (c Channel) FreqHz() uint32 {
	switch c {
	case Ch37:
		return 2_402_000_000
	case Ch38:
		return 2_426_000_000
	default:
		return 2_480_000_000
	}
}

// WhitInit returns the whitening seed for the channel, bit-reversed
// the way the modem loads it.
func (c Channel) WhitInit() uint8 {
	switch c {
	case Ch37:
		return 0x53
	case Ch38:
		return 0x33
	default:
		return 0x73
	}
}

// Next cycles through the three advertising channels in order.
func (c Channel) Next() Channel {
	switch c {
	case Ch37:
		return Ch38
	case Ch38:
		return Ch39
	default:
		return Ch37
	}
}

// Channels lists the advertising channels in hop order.
func Channels() []Channel {
	return []Channel{Ch37, Ch38, Ch39}
}
