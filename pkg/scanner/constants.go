// Package scanner sweeps frequency bands with the LR2021 and tracks
// the signals it finds across sweeps.
package scanner

import "time"

// Default scanning parameters
const (
	// DefaultThresholdDbm is the minimum level for signal detection.
	DefaultThresholdDbm float64 = -90.0

	// DefaultScanInterval is the delay between sweep cycles.
	DefaultScanInterval = 200 * time.Millisecond
)

// Signal tracking defaults
const (
	// DefaultHoldMax is the maximum hold counter value.
	DefaultHoldMax = 20

	// DefaultLostThreshold is the hold count at which a signal is
	// considered lost.
	DefaultLostThreshold = 15

	// DefaultFrequencyResolution groups nearby detections into one
	// signal (Hz).
	DefaultFrequencyResolution uint32 = 10000
)

// Frequency smoothing defaults
const (
	// DefaultSmoothThreshold separates a retune from drift (Hz).
	DefaultSmoothThreshold float64 = 500000

	// DefaultKFast is the adaptation coefficient for large changes.
	DefaultKFast float64 = 0.9

	// DefaultKSlow is the adaptation coefficient for small changes.
	DefaultKSlow float64 = 0.03
)

// DefaultBands covers the common sub-GHz ISM allocations.
var DefaultBands = []Band{
	{Name: "LPD433", StartHz: 433050000, StopHz: 434790000, StepHz: 25000},
	{Name: "EU868", StartHz: 868000000, StopHz: 868600000, StepHz: 25000},
	{Name: "US915", StartHz: 902000000, StopHz: 928000000, StepHz: 200000},
}
