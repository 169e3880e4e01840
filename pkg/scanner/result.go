package scanner

import (
	"time"

	"github.com/TheClams/lr2021-go/pkg/lr2021"
)

// noSignal is the level reported for empty sweeps.
const noSignal float64 = -200.0

// SweepResult holds the samples of one pass over one band.
type SweepResult struct {
	Band      string
	Points    []lr2021.SweepPoint
	Timestamp time.Time
}

// Strongest returns the sample with the highest level. ok is false for
// an empty sweep.
func (r *SweepResult) Strongest() (pt lr2021.SweepPoint, ok bool) {
	if len(r.Points) == 0 {
		return lr2021.SweepPoint{Dbm: noSignal}, false
	}
	pt = r.Points[0]
	for _, p := range r.Points[1:] {
		if p.Dbm > pt.Dbm {
			pt = p
		}
	}
	return pt, true
}

// NoiseFloor returns the lowest level seen in the sweep.
func (r *SweepResult) NoiseFloor() float64 {
	if len(r.Points) == 0 {
		return noSignal
	}
	min := r.Points[0].Dbm
	for _, p := range r.Points[1:] {
		if p.Dbm < min {
			min = p.Dbm
		}
	}
	return min
}

// Average returns the mean level across the sweep.
func (r *SweepResult) Average() float64 {
	if len(r.Points) == 0 {
		return noSignal
	}
	var sum float64
	for _, p := range r.Points {
		sum += p.Dbm
	}
	return sum / float64(len(r.Points))
}

// SignalToNoise returns the spread between the strongest sample and
// the noise floor.
func (r *SweepResult) SignalToNoise() float64 {
	pt, ok := r.Strongest()
	if !ok {
		return 0
	}
	return pt.Dbm - r.NoiseFloor()
}

// Peaks returns the samples at or above the threshold.
func (r *SweepResult) Peaks(thresholdDbm float64) []lr2021.SweepPoint {
	var peaks []lr2021.SweepPoint
	for _, p := range r.Points {
		if p.Dbm >= thresholdDbm {
			peaks = append(peaks, p)
		}
	}
	return peaks
}

// ScanResult holds the outcome of one scan cycle over all bands.
type ScanResult struct {
	// Frequency and Dbm locate the strongest sample of the cycle.
	// With smoothing enabled Frequency is the smoothed value.
	Frequency uint32
	Dbm       float64

	// Sweeps carries the per-band samples feeding the result.
	Sweeps []SweepResult

	Timestamp      time.Time
	SignalDetected bool
}

// SignalInfo represents a detected signal with history.
type SignalInfo struct {
	Frequency      uint32    // Hz, smoothed
	RawFrequency   uint32    // Hz, last measured
	Dbm            float64   // current level
	MaxDbm         float64   // maximum observed level
	FirstSeen      time.Time // when the signal was first detected
	LastSeen       time.Time // when the signal was last detected
	DetectionCount uint32
}
