// Package config holds the shared tool configuration: hardware wiring
// for the radio plus the radio profile the tools start from.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/TheClams/lr2021-go/pkg/lr2021"
	"github.com/TheClams/lr2021-go/pkg/profiles"
)

// Configuration errors
var (
	// ErrBadPins indicates overlapping or negative GPIO assignments.
	ErrBadPins = errors.New("invalid pin assignment")

	// ErrBadClock indicates an SPI clock outside the chip's range.
	ErrBadClock = errors.New("SPI clock out of range")

	// ErrUnknownPreset indicates a preset name the profile catalog
	// does not know.
	ErrUnknownPreset = errors.New("unknown profile preset")
)

// maxSpiClockHz is the highest SPI clock the chip accepts.
const maxSpiClockHz = 16000000

// ToolConfig holds everything a command line tool needs to open and
// configure a radio.
type ToolConfig struct {
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`

	Hardware HardwareJSON `json:"hardware"`

	// Preset names the profile applied at startup; tools override it
	// with their flags. Empty means the tool's own default.
	Preset string `json:"preset,omitempty"`

	// ProfileFile points at a saved profile, taking precedence over
	// Preset when set.
	ProfileFile string `json:"profile_file,omitempty"`
}

// HardwareJSON mirrors the driver wiring in serializable form. Zero
// values mean the driver defaults.
type HardwareJSON struct {
	SpiBusPath string `json:"spi_bus_path,omitempty"`
	SpiClockHz int    `json:"spi_clock_hz,omitempty"`
	BusyPin    int    `json:"busy_pin,omitempty"`
	IrqPin     int    `json:"irq_pin,omitempty"`
	ResetPin   int    `json:"reset_pin,omitempty"`
	IrqDio     uint8  `json:"irq_dio,omitempty"`
}

// Default returns a ToolConfig using the driver's wiring defaults.
func Default() *ToolConfig {
	return &ToolConfig{}
}

// Validate checks the configuration for errors.
func (c *ToolConfig) Validate() error {
	h := c.Hardware
	if h.SpiClockHz < 0 || h.SpiClockHz > maxSpiClockHz {
		return fmt.Errorf("%w: %d Hz", ErrBadClock, h.SpiClockHz)
	}
	if h.BusyPin < 0 || h.IrqPin < 0 || h.ResetPin < 0 {
		return fmt.Errorf("%w: negative pin", ErrBadPins)
	}
	pins := map[int]bool{}
	for _, p := range [3]int{h.BusyPin, h.IrqPin, h.ResetPin} {
		if p == 0 {
			continue
		}
		if pins[p] {
			return fmt.Errorf("%w: pin %d used twice", ErrBadPins, p)
		}
		pins[p] = true
	}
	if c.Preset != "" && profiles.Preset(c.Preset) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPreset, c.Preset)
	}
	return nil
}

// ToHardwareConfig converts the wiring section to the driver's form.
func (c *ToolConfig) ToHardwareConfig() lr2021.Config {
	return lr2021.Config{
		SpiBusPath: c.Hardware.SpiBusPath,
		SpiClockHz: c.Hardware.SpiClockHz,
		BusyPin:    c.Hardware.BusyPin,
		IrqPin:     c.Hardware.IrqPin,
		ResetPin:   c.Hardware.ResetPin,
		IrqDio:     c.Hardware.IrqDio,
	}
}

// Profile resolves the configured startup profile: the profile file if
// set, the named preset otherwise, or nil when neither is configured.
func (c *ToolConfig) Profile() (lr2021.Profile, error) {
	if c.ProfileFile != "" {
		return profiles.LoadFromFile(c.ProfileFile)
	}
	if c.Preset != "" {
		p := profiles.Preset(c.Preset)
		if p == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, c.Preset)
		}
		return p, nil
	}
	return nil, nil
}

// OpenDevice opens the radio described by the configuration.
func (c *ToolConfig) OpenDevice() (*lr2021.Device, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return lr2021.New(c.ToHardwareConfig())
}
