package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/TheClams/lr2021-go/pkg/lr2021"
)

// Scanner provides band scanning over an LR2021.
type Scanner interface {
	// Lifecycle
	Start() error
	Stop() error
	IsRunning() bool

	// Configuration
	SetConfig(config *Config) error
	GetConfig() *Config

	// Scanning
	ScanOnce() (*ScanResult, error)
	ScanContinuous(ctx context.Context, results chan<- *ScanResult) error

	// Signal tracking
	ActiveSignals() []*SignalInfo
	ClearSignalHistory()
}

// scanner implements the Scanner interface
type scanner struct {
	device *lr2021.Device
	config *Config

	// State
	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}

	tracker  *SignalTracker
	smoother *FrequencySmoother
}

// New creates a Scanner over the given device. The device must have a
// receive profile configured before scanning starts; the sweep reuses
// its receive path. A nil config means defaults.
func New(device *lr2021.Device, config *Config) Scanner {
	if config == nil {
		config = DefaultConfig()
	}

	s := &scanner{
		device:   device,
		config:   config,
		stopChan: make(chan struct{}),
	}
	s.apply(config)
	return s
}

// NewFromConfigFile creates a Scanner from a JSON configuration file.
func NewFromConfigFile(device *lr2021.Device, configPath string) (Scanner, error) {
	configFile, err := LoadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return New(device, configFile.ToConfig()), nil
}

// apply rebuilds the tracker and smoother from a config. Caller holds
// the lock or owns the scanner exclusively.
func (s *scanner) apply(config *Config) {
	s.config = config
	s.tracker = NewSignalTracker(
		config.HoldMax,
		config.LostThreshold,
		config.FrequencyResolution,
	)
	s.tracker.SetCallbacks(config.OnSignalDetected, config.OnSignalLost)

	if config.SmoothingEnabled {
		s.smoother = NewFrequencySmootherWithParams(
			config.SmoothThreshold,
			config.SmoothKFast,
			config.SmoothKSlow,
		)
	} else {
		s.smoother = nil
	}
}

// debug logs a debug message if the debug callback is set
func (s *scanner) debug(format string, args ...interface{}) {
	if s.config.DebugLog != nil {
		s.config.DebugLog(format, args...)
	}
}

// Start marks the scanner running.
func (s *scanner) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrScannerRunning
	}

	s.running = true
	s.stopChan = make(chan struct{})
	return nil
}

// Stop stops the scanner.
func (s *scanner) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrScannerNotRunning
	}

	close(s.stopChan)
	s.running = false
	return nil
}

// IsRunning returns true if the scanner is running.
func (s *scanner) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// SetConfig updates the scanner configuration. Tracked signals are
// discarded.
func (s *scanner) SetConfig(config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(config)
	return nil
}

// GetConfig returns the current configuration.
func (s *scanner) GetConfig() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// ScanOnce sweeps every configured band once, tracks the strongest
// sample against the threshold and returns the cycle result.
func (s *scanner) ScanOnce() (*ScanResult, error) {
	s.mu.RLock()
	config := s.config
	s.mu.RUnlock()

	result := &ScanResult{
		Timestamp: time.Now(),
		Dbm:       noSignal,
	}

	for _, band := range config.Bands {
		sweep, err := s.sweepBand(band)
		if err != nil {
			s.debug("ScanOnce: band %s failed: %v", band.Name, err)
			return nil, fmt.Errorf("sweep %s: %w", band.Name, err)
		}
		result.Sweeps = append(result.Sweeps, *sweep)

		if pt, ok := sweep.Strongest(); ok && pt.Dbm > result.Dbm {
			result.Frequency = pt.FreqHz
			result.Dbm = pt.Dbm
		}
	}

	result.SignalDetected = result.Dbm >= config.ThresholdDbm

	if result.SignalDetected && s.smoother != nil {
		smoothed := s.smoother.Update(float64(result.Frequency))
		s.debug("ScanOnce: smoothed frequency %.3f -> %.3f MHz",
			float64(result.Frequency)/1e6, smoothed/1e6)
		result.Frequency = uint32(smoothed)
	}

	s.tracker.Update(result)

	s.debug("ScanOnce: complete - detected=%v, freq=%.3f MHz, level=%.1f dBm",
		result.SignalDetected, float64(result.Frequency)/1e6, result.Dbm)

	return result, nil
}

// sweepBand runs one radio sweep over a band and collects the samples.
func (s *scanner) sweepBand(band Band) (*SweepResult, error) {
	sweep, err := s.device.Scan(band.StartHz, band.StopHz, band.StepHz)
	if err != nil {
		return nil, err
	}
	defer sweep.Stop()

	result := &SweepResult{
		Band:      band.Name,
		Points:    make([]lr2021.SweepPoint, 0, band.Points()),
		Timestamp: time.Now(),
	}
	for sweep.Next() {
		result.Points = append(result.Points, sweep.Point())
	}
	if err := sweep.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ScanContinuous scans until the context is cancelled or Stop is
// called, sending each cycle result on the channel. A slow consumer
// loses results rather than stalling the radio.
func (s *scanner) ScanContinuous(ctx context.Context, results chan<- *ScanResult) error {
	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop()

	ticker := time.NewTicker(s.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(results)
			return ctx.Err()
		case <-s.stopChan:
			close(results)
			return nil
		case <-ticker.C:
			result, err := s.ScanOnce()
			if err != nil {
				s.debug("ScanContinuous: %v", err)
				continue
			}

			select {
			case results <- result:
			default:
			}
		}
	}
}

// ActiveSignals returns all tracked signals.
func (s *scanner) ActiveSignals() []*SignalInfo {
	return s.tracker.AllSignals()
}

// ClearSignalHistory clears all tracked signals.
func (s *scanner) ClearSignalHistory() {
	s.tracker.Clear()
	if s.smoother != nil {
		s.smoother.Reset()
	}
}

// Tracker returns the signal tracker (for advanced usage).
func (s *scanner) Tracker() *SignalTracker {
	return s.tracker
}
