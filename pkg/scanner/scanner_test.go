package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TheClams/lr2021-go/pkg/lr2021"
)

func TestBandValidate(t *testing.T) {
	tests := []struct {
		name string
		band Band
		want error
	}{
		{"valid sub-GHz", Band{Name: "ok", StartHz: 433050000, StopHz: 434790000, StepHz: 25000}, nil},
		{"valid 2.4GHz", Band{Name: "ok24", StartHz: 2400000000, StopHz: 2480000000, StepHz: 1000000}, nil},
		{"zero step", Band{Name: "bad", StartHz: 433050000, StopHz: 434790000}, ErrInvalidBand},
		{"inverted", Band{Name: "bad", StartHz: 434790000, StopHz: 433050000, StepHz: 25000}, ErrInvalidBand},
		{"below coverage", Band{Name: "bad", StartHz: 100000000, StopHz: 101000000, StepHz: 25000}, ErrFrequencyOutOfRange},
		{"between paths", Band{Name: "bad", StartHz: 1200000000, StopHz: 1300000000, StepHz: 25000}, ErrFrequencyOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.band.Validate()
			if tt.want == nil && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBandPoints(t *testing.T) {
	b := Band{StartHz: 433000000, StopHz: 433100000, StepHz: 25000}
	if got := b.Points(); got != 5 {
		t.Errorf("Points() = %d, want 5", got)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg.ThresholdDbm = 10
	if !errors.Is(cfg.Validate(), ErrInvalidThreshold) {
		t.Error("positive threshold passed validation")
	}
	cfg.ThresholdDbm = DefaultThresholdDbm

	cfg.ScanInterval = time.Millisecond
	if !errors.Is(cfg.Validate(), ErrInvalidInterval) {
		t.Error("1ms interval passed validation")
	}
	cfg.ScanInterval = DefaultScanInterval

	cfg.Bands = nil
	if !errors.Is(cfg.Validate(), ErrNoBands) {
		t.Error("empty band list passed validation")
	}
}

func TestConfigFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.json")
	file := &ConfigFile{
		Name:    "test",
		Version: "1.0",
		Bands:   []Band{{Name: "LPD433", StartHz: 433050000, StopHz: 434790000, StepHz: 25000}},
		ScanParameters: ScanParametersJSON{
			ThresholdDbm:   -85,
			ScanIntervalMs: 500,
		},
		Smoothing: SmoothingJSON{Enabled: true},
	}

	if err := SaveConfigFile(file, path); err != nil {
		t.Fatalf("SaveConfigFile failed: %v", err)
	}
	loaded, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	cfg := loaded.ToConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("converted config invalid: %v", err)
	}
	if cfg.ThresholdDbm != -85 || cfg.ScanInterval != 500*time.Millisecond {
		t.Errorf("scan parameters not carried over: %+v", cfg)
	}
	// Unset tracking and smoothing values fall back to defaults
	if cfg.HoldMax != DefaultHoldMax || cfg.SmoothKFast != DefaultKFast {
		t.Errorf("defaults not filled in: %+v", cfg)
	}
}

func TestConfigFileRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.json")
	data := `{"version":"2.0","bands":[{"name":"x","start_hz":433050000,"stop_hz":434790000,"step_hz":25000}],"scan_parameters":{"threshold_dbm":-85}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFile(path); !errors.Is(err, ErrConfigVersion) {
		t.Errorf("err = %v, want ErrConfigVersion", err)
	}
}

func points(vals ...float64) []lr2021.SweepPoint {
	pts := make([]lr2021.SweepPoint, len(vals))
	for i, v := range vals {
		pts[i] = lr2021.SweepPoint{FreqHz: uint32(433000000 + i*25000), Dbm: v}
	}
	return pts
}

func TestSweepAnalysis(t *testing.T) {
	r := &SweepResult{Points: points(-110, -95, -60, -105)}

	pt, ok := r.Strongest()
	if !ok || pt.Dbm != -60 || pt.FreqHz != 433050000 {
		t.Errorf("Strongest() = %+v ok=%v", pt, ok)
	}
	if nf := r.NoiseFloor(); nf != -110 {
		t.Errorf("NoiseFloor() = %v, want -110", nf)
	}
	if snr := r.SignalToNoise(); snr != 50 {
		t.Errorf("SignalToNoise() = %v, want 50", snr)
	}
	if avg := r.Average(); avg != -92.5 {
		t.Errorf("Average() = %v, want -92.5", avg)
	}
	if peaks := r.Peaks(-100); len(peaks) != 2 {
		t.Errorf("Peaks(-100) = %d points, want 2", len(peaks))
	}

	empty := &SweepResult{}
	if _, ok := empty.Strongest(); ok {
		t.Error("empty sweep reported a strongest point")
	}
}

func TestSmootherAdaptation(t *testing.T) {
	s := NewFrequencySmootherWithParams(500000, 0.9, 0.03)

	// First value passes through
	if got := s.Update(433920000); got != 433920000 {
		t.Fatalf("first Update = %v", got)
	}

	// A small wobble barely moves the value
	got := s.Update(433930000)
	if got < 433920000 || got > 433921000 {
		t.Errorf("small change moved value to %v", got)
	}

	// A band change snaps most of the way
	got = s.Update(868350000)
	if got < 820000000 {
		t.Errorf("large change only reached %v", got)
	}

	s.Reset()
	if s.Value() != 0 {
		t.Error("Reset left state behind")
	}
}

func TestTrackerDetectAndHold(t *testing.T) {
	tr := NewSignalTracker(3, 2, 10000)

	now := time.Now()
	detect := &ScanResult{
		Frequency:      433925000,
		Dbm:            -70,
		Timestamp:      now,
		SignalDetected: true,
	}
	tr.Update(detect)

	if !tr.IsActive() {
		t.Fatal("signal not active after detection")
	}
	if tr.HoldCounter() != 3 {
		t.Errorf("hold counter = %d, want 3", tr.HoldCounter())
	}

	// Detections at nearby frequencies group into the same signal
	tr.Update(&ScanResult{Frequency: 433927000, Dbm: -65, Timestamp: now, SignalDetected: true})
	if tr.SignalCount() != 1 {
		t.Fatalf("signal count = %d, want 1", tr.SignalCount())
	}
	info := tr.ActiveSignal()
	if info.DetectionCount != 2 || info.MaxDbm != -65 {
		t.Errorf("info = %+v", info)
	}

	// Quiet cycles run the hold counter down to inactive
	quiet := &ScanResult{Timestamp: now}
	tr.Update(quiet)
	tr.Update(quiet)
	tr.Update(quiet)
	if tr.IsActive() {
		t.Error("signal still active after hold expired")
	}

	// History survives the hold expiring
	if tr.SignalCount() != 1 {
		t.Errorf("history lost: count = %d", tr.SignalCount())
	}
	tr.Clear()
	if tr.SignalCount() != 0 {
		t.Error("Clear left signals behind")
	}
}

func TestTrackerCallbacks(t *testing.T) {
	tr := NewSignalTracker(2, 1, 10000)

	detected := make(chan *SignalInfo, 1)
	lost := make(chan *SignalInfo, 1)
	tr.SetCallbacks(
		func(info *SignalInfo) { detected <- info },
		func(info *SignalInfo) { lost <- info },
	)

	tr.Update(&ScanResult{Frequency: 433925000, Dbm: -70, Timestamp: time.Now(), SignalDetected: true})
	select {
	case info := <-detected:
		if info.Frequency != 433925000 {
			t.Errorf("detected frequency = %d", info.Frequency)
		}
	case <-time.After(time.Second):
		t.Fatal("detection callback never fired")
	}

	tr.Update(&ScanResult{Timestamp: time.Now()})
	select {
	case <-lost:
	case <-time.After(time.Second):
		t.Fatal("lost callback never fired")
	}
}

func TestTrackerPruneOld(t *testing.T) {
	tr := NewSignalTracker(3, 2, 10000)
	old := time.Now().Add(-time.Hour)
	tr.Update(&ScanResult{Frequency: 433925000, Dbm: -70, Timestamp: old, SignalDetected: true})
	tr.Update(&ScanResult{Frequency: 868350000, Dbm: -75, Timestamp: time.Now(), SignalDetected: true})

	if n := tr.PruneOld(time.Now().Add(-time.Minute)); n != 1 {
		t.Errorf("PruneOld removed %d, want 1", n)
	}
	if tr.SignalCount() != 1 {
		t.Errorf("count = %d after prune, want 1", tr.SignalCount())
	}
}
