package scanner

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/TheClams/lr2021-go/pkg/profiles"
)

// Band is a frequency range swept in fixed steps.
type Band struct {
	Name    string `json:"name"`
	StartHz uint32 `json:"start_hz"`
	StopHz  uint32 `json:"stop_hz"`
	StepHz  uint32 `json:"step_hz"`
}

// Validate checks the band bounds against the radio's coverage.
func (b Band) Validate() error {
	if b.StepHz == 0 {
		return fmt.Errorf("%w %s: zero step", ErrInvalidBand, b.Name)
	}
	if b.StopHz < b.StartHz {
		return fmt.Errorf("%w %s: stop below start", ErrInvalidBand, b.Name)
	}
	for _, f := range [2]uint32{b.StartHz, b.StopHz} {
		lf := f >= profiles.LfMinHz && f <= profiles.LfMaxHz
		hf := f >= profiles.HfMinHz && f <= profiles.HfMaxHz
		if !lf && !hf {
			return fmt.Errorf("%w: %d Hz", ErrFrequencyOutOfRange, f)
		}
	}
	return nil
}

// Points returns the number of samples a sweep of the band produces.
func (b Band) Points() int {
	return int((b.StopHz-b.StartHz)/b.StepHz) + 1
}

// Config defines runtime scanning parameters.
type Config struct {
	// Bands to sweep each cycle, in order.
	Bands []Band

	// Detection
	ThresholdDbm float64       // minimum level counted as a signal
	ScanInterval time.Duration // delay between sweep cycles

	// Signal tracking
	HoldMax             int    // cycles a signal is held after it fades
	LostThreshold       int    // hold count at which the lost callback fires
	FrequencyResolution uint32 // Hz, grouping resolution for signals

	// Smoothing
	SmoothingEnabled bool
	SmoothThreshold  float64
	SmoothKFast      float64
	SmoothKSlow      float64

	// Callbacks (optional, not serialized)
	OnSignalDetected func(info *SignalInfo) `json:"-"`
	OnSignalLost     func(info *SignalInfo) `json:"-"`

	// Debug callback (optional)
	DebugLog func(format string, args ...interface{}) `json:"-"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Bands:               DefaultBands,
		ThresholdDbm:        DefaultThresholdDbm,
		ScanInterval:        DefaultScanInterval,
		HoldMax:             DefaultHoldMax,
		LostThreshold:       DefaultLostThreshold,
		FrequencyResolution: DefaultFrequencyResolution,
		SmoothingEnabled:    true,
		SmoothThreshold:     DefaultSmoothThreshold,
		SmoothKFast:         DefaultKFast,
		SmoothKSlow:         DefaultKSlow,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Bands) == 0 {
		return ErrNoBands
	}
	for _, b := range c.Bands {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	if c.ThresholdDbm >= 0 {
		return ErrInvalidThreshold
	}
	if c.ScanInterval < 10*time.Millisecond || c.ScanInterval > 10*time.Second {
		return ErrInvalidInterval
	}
	return nil
}

// --- JSON Configuration File Types ---

// ConfigFile represents the JSON configuration file structure.
type ConfigFile struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Version     string    `json:"version"`
	Created     time.Time `json:"created"`

	Bands          []Band             `json:"bands"`
	ScanParameters ScanParametersJSON `json:"scan_parameters"`
	SignalTracking SignalTrackingJSON `json:"signal_tracking"`
	Smoothing      SmoothingJSON      `json:"smoothing"`
	Output         OutputConfigJSON   `json:"output"`
}

// ScanParametersJSON holds scan timing and threshold settings.
type ScanParametersJSON struct {
	ThresholdDbm   float64 `json:"threshold_dbm"`
	ScanIntervalMs uint32  `json:"scan_interval_ms"`
}

// SignalTrackingJSON holds signal detection hysteresis settings.
type SignalTrackingJSON struct {
	HoldMax               int    `json:"hold_max"`
	LostThreshold         int    `json:"lost_threshold"`
	FrequencyResolutionHz uint32 `json:"frequency_resolution_hz"`
}

// SmoothingJSON holds frequency smoothing algorithm settings.
type SmoothingJSON struct {
	Enabled     bool    `json:"enabled"`
	ThresholdHz float64 `json:"threshold_hz"`
	KFast       float64 `json:"k_fast"`
	KSlow       float64 `json:"k_slow"`
}

// OutputConfigJSON defines signal logging options.
type OutputConfigJSON struct {
	LogSignals bool   `json:"log_signals"`
	LogPath    string `json:"log_path,omitempty"`
	LogFormat  string `json:"log_format,omitempty"` // csv, json, text
}

// LoadConfigFile loads scanner configuration from a JSON file.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ConfigFile
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks the configuration file for errors.
func (c *ConfigFile) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("%w: %s", ErrConfigVersion, c.Version)
	}
	if len(c.Bands) == 0 {
		return ErrNoBands
	}
	for _, b := range c.Bands {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	if c.ScanParameters.ThresholdDbm >= 0 {
		return ErrInvalidThreshold
	}
	return nil
}

// ToConfig converts the file form to a runtime Config, filling in
// defaults for anything left at zero.
func (c *ConfigFile) ToConfig() *Config {
	scanInterval := time.Duration(c.ScanParameters.ScanIntervalMs) * time.Millisecond
	if scanInterval == 0 {
		scanInterval = DefaultScanInterval
	}

	holdMax := c.SignalTracking.HoldMax
	if holdMax == 0 {
		holdMax = DefaultHoldMax
	}

	lostThreshold := c.SignalTracking.LostThreshold
	if lostThreshold == 0 {
		lostThreshold = DefaultLostThreshold
	}

	freqResolution := c.SignalTracking.FrequencyResolutionHz
	if freqResolution == 0 {
		freqResolution = DefaultFrequencyResolution
	}

	smoothThreshold := c.Smoothing.ThresholdHz
	if smoothThreshold == 0 {
		smoothThreshold = DefaultSmoothThreshold
	}

	kFast := c.Smoothing.KFast
	if kFast == 0 {
		kFast = DefaultKFast
	}

	kSlow := c.Smoothing.KSlow
	if kSlow == 0 {
		kSlow = DefaultKSlow
	}

	return &Config{
		Bands:               c.Bands,
		ThresholdDbm:        c.ScanParameters.ThresholdDbm,
		ScanInterval:        scanInterval,
		HoldMax:             holdMax,
		LostThreshold:       lostThreshold,
		FrequencyResolution: freqResolution,
		SmoothingEnabled:    c.Smoothing.Enabled,
		SmoothThreshold:     smoothThreshold,
		SmoothKFast:         kFast,
		SmoothKSlow:         kSlow,
	}
}

// SaveConfigFile saves scanner configuration to a JSON file.
func SaveConfigFile(config *ConfigFile, path string) error {
	config.Created = time.Now()

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
