package scanner

import "math"

// FrequencySmoother applies adaptive smoothing to measured frequencies
// so the reported value holds steady on a weak signal but snaps to a
// genuinely new one.
type FrequencySmoother struct {
	value     float64 // current smoothed value
	threshold float64 // Hz - above this difference, use fast adaptation
	kFast     float64 // adaptation coefficient for large changes (0-1)
	kSlow     float64 // adaptation coefficient for small changes (0-1)
}

// NewFrequencySmoother creates a smoother with default parameters.
func NewFrequencySmoother() *FrequencySmoother {
	return NewFrequencySmootherWithParams(DefaultSmoothThreshold, DefaultKFast, DefaultKSlow)
}

// NewFrequencySmootherWithParams creates a smoother with custom parameters.
func NewFrequencySmootherWithParams(threshold, kFast, kSlow float64) *FrequencySmoother {
	return &FrequencySmoother{
		threshold: threshold,
		kFast:     kFast,
		kSlow:     kSlow,
	}
}

// Update folds a new frequency measurement into the smoothed value and
// returns it. A change beyond the threshold adapts with the fast
// coefficient, anything smaller with the slow one.
func (s *FrequencySmoother) Update(newValue float64) float64 {
	// First value is taken as-is
	if s.value == 0 {
		s.value = newValue
		return newValue
	}

	k := s.kSlow
	if math.Abs(newValue-s.value) > s.threshold {
		k = s.kFast
	}
	s.value += (newValue - s.value) * k

	return s.value
}

// Value returns the current smoothed value.
func (s *FrequencySmoother) Value() float64 {
	return s.value
}

// ValueHz returns the current smoothed value as uint32 Hz.
func (s *FrequencySmoother) ValueHz() uint32 {
	return uint32(math.Round(s.value))
}

// Reset clears the smoother state.
func (s *FrequencySmoother) Reset() {
	s.value = 0
}
