package lr2021

// Level is the logical level of a pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Pull is the internal pull resistor applied to an input pin.
type Pull uint8

const (
	PullNoChange Pull = iota
	PullFloat
	PullDown
	PullUp
)

// Edge is the signal transition that triggers a pin watch.
type Edge uint8

const (
	NoEdge Edge = iota
	RisingEdge
	FallingEdge
	BothEdges
)

// SPI is a full duplex SPI connection with the chip select handled by
// the driver below it. One Tx call is one chip-select window.
type SPI interface {
	// Tx sends w and reads into r. len(r) must be >= len(w).
	Tx(w, r []byte) error
}

// Pin is a generic GPIO pin.
type Pin interface {
	// Out sets the pin as output with the given level.
	Out(l Level) error
	// In sets the pin as input with the given pull mode.
	In(pull Pull) error
	// Read returns the current level of the pin.
	Read() Level
	// Watch calls handler whenever the given edge is detected.
	Watch(edge Edge, handler func()) error
	// Unwatch removes the edge handler.
	Unwatch() error
}
