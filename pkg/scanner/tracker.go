package scanner

import (
	"sync"
	"time"
)

// SignalTracker manages detected signals with hysteresis: a signal has
// to stay quiet for several cycles before it counts as lost.
type SignalTracker struct {
	signals     map[uint32]*SignalInfo // key: rounded frequency
	mu          sync.RWMutex
	holdCounter int    // counts down while nothing is detected
	holdMax     int    // reload value on detection
	lostAt      int    // counter value at which the lost callback fires
	resolution  uint32 // frequency resolution for grouping (Hz)

	activeFrequency uint32
	activeSignal    *SignalInfo

	onDetected func(*SignalInfo)
	onLost     func(*SignalInfo)
}

// NewSignalTracker creates a signal tracker with the given parameters.
func NewSignalTracker(holdMax, lostAt int, resolution uint32) *SignalTracker {
	return &SignalTracker{
		signals:    make(map[uint32]*SignalInfo),
		holdMax:    holdMax,
		lostAt:     lostAt,
		resolution: resolution,
	}
}

// SetCallbacks sets the signal detection callbacks.
func (t *SignalTracker) SetCallbacks(onDetected, onLost func(*SignalInfo)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDetected = onDetected
	t.onLost = onLost
}

// Update processes a scan result and updates signal tracking state.
func (t *SignalTracker) Update(result *ScanResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !result.SignalDetected {
		// Nothing this cycle, run down the hold counter
		if t.holdCounter > 0 {
			t.holdCounter--

			if t.holdCounter == t.lostAt && t.activeSignal != nil {
				if t.onLost != nil {
					infoCopy := *t.activeSignal
					go t.onLost(&infoCopy)
				}
			}

			if t.holdCounter == 0 {
				t.activeSignal = nil
				t.activeFrequency = 0
			}
		}
		return
	}

	t.holdCounter = t.holdMax

	key := t.roundFrequency(result.Frequency)
	info, exists := t.signals[key]
	if !exists {
		info = &SignalInfo{
			Frequency:      result.Frequency,
			RawFrequency:   result.Frequency,
			Dbm:            result.Dbm,
			MaxDbm:         result.Dbm,
			FirstSeen:      result.Timestamp,
			LastSeen:       result.Timestamp,
			DetectionCount: 1,
		}
		t.signals[key] = info

		if t.activeSignal == nil || key != t.activeFrequency {
			if t.onDetected != nil {
				// Copy to keep the callback off the live record
				infoCopy := *info
				go t.onDetected(&infoCopy)
			}
		}
	} else {
		info.RawFrequency = result.Frequency
		info.Dbm = result.Dbm
		info.LastSeen = result.Timestamp
		info.DetectionCount++
		if result.Dbm > info.MaxDbm {
			info.MaxDbm = result.Dbm
		}
	}

	t.activeSignal = info
	t.activeFrequency = key
}

// roundFrequency rounds a frequency to the configured resolution.
func (t *SignalTracker) roundFrequency(freq uint32) uint32 {
	if t.resolution == 0 {
		return freq
	}
	return (freq / t.resolution) * t.resolution
}

// ActiveSignal returns a copy of the currently active signal, if any.
func (t *SignalTracker) ActiveSignal() *SignalInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.activeSignal == nil {
		return nil
	}
	info := *t.activeSignal
	return &info
}

// AllSignals returns copies of all tracked signals.
func (t *SignalTracker) AllSignals() []*SignalInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	signals := make([]*SignalInfo, 0, len(t.signals))
	for _, info := range t.signals {
		infoCopy := *info
		signals = append(signals, &infoCopy)
	}
	return signals
}

// SignalCount returns the number of tracked signals.
func (t *SignalTracker) SignalCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.signals)
}

// Clear removes all tracked signals.
func (t *SignalTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.signals = make(map[uint32]*SignalInfo)
	t.activeSignal = nil
	t.activeFrequency = 0
	t.holdCounter = 0
}

// PruneOld removes signals not seen since the given time and returns
// how many were dropped.
func (t *SignalTracker) PruneOld(since time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for key, info := range t.signals {
		if info.LastSeen.Before(since) {
			delete(t.signals, key)
			count++
		}
	}
	return count
}

// IsActive reports whether a signal is currently being tracked.
func (t *SignalTracker) IsActive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activeSignal != nil && t.holdCounter > 0
}

// HoldCounter returns the current hold counter value.
func (t *SignalTracker) HoldCounter() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.holdCounter
}
