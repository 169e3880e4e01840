// Package profiles provides typed radio configuration profiles for the
// LR2021, one struct per modem, plus factory presets for common links.
// Each profile validates its field combination before any bus traffic
// and materializes into the chip command sequence the driver applies.
//
// Profiles are plain comparable values: applying the same profile value
// twice is recognized by the driver and skipped.
package profiles

import "github.com/TheClams/lr2021-go/pkg/protocol"

// Frequency limits of the two RF paths. The low frequency path covers
// the sub-GHz ISM bands, the high frequency path the 2.4 GHz band.
const (
	LfMinHz uint32 = 150000000
	LfMaxHz uint32 = 960000000
	HfMinHz uint32 = 1900000000
	HfMaxHz uint32 = 2500000000
)

// MaxTxPower is the upper bound of the TX power setting in chip units.
const MaxTxPower = 22

// validFrequency reports whether one of the two RF paths covers freqHz.
func validFrequency(freqHz uint32) bool {
	if freqHz >= LfMinHz && freqHz <= LfMaxHz {
		return true
	}
	return freqHz >= HfMinHz && freqHz <= HfMaxHz
}

// Band returns a short name for the band serving the given frequency.
func Band(freqHz uint32) string {
	switch {
	case freqHz >= LfMinHz && freqHz <= LfMaxHz:
		return "sub-GHz"
	case freqHz >= HfMinHz && freqHz <= HfMaxHz:
		return "2.4GHz"
	default:
		return "unsupported"
	}
}

// Rf holds the fields every profile shares: center frequency, TX power
// and PA ramp time. Embedded by the per-modem profile structs.
type Rf struct {
	FreqHz  uint32            `json:"frequency_hz"`
	Power   uint8             `json:"tx_power"`
	PaRamp  protocol.RampTime `json:"pa_ramp,omitempty"`
}

// FrequencyHz is the RF center frequency.
func (r Rf) FrequencyHz() uint32 { return r.FreqHz }

// TxPower is the transmit power level in chip units.
func (r Rf) TxPower() uint8 { return r.Power }

// Ramp is the PA ramp time.
func (r Rf) Ramp() protocol.RampTime { return r.PaRamp }

// validate checks the shared fields against their chip limits.
func (r Rf) validate() error {
	if !validFrequency(r.FreqHz) {
		return errValue(ErrFrequencyOutOfRange, uint64(r.FreqHz))
	}
	if r.Power > MaxTxPower {
		return errValue(ErrPowerOutOfRange, uint64(r.Power))
	}
	return nil
}
