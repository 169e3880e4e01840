package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/TheClams/lr2021-go/pkg/profiles"
)

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg.Hardware.SpiClockHz = 20000000
	if !errors.Is(cfg.Validate(), ErrBadClock) {
		t.Error("20 MHz clock passed validation")
	}
	cfg.Hardware.SpiClockHz = 0

	cfg.Hardware.BusyPin = 16
	cfg.Hardware.IrqPin = 16
	if !errors.Is(cfg.Validate(), ErrBadPins) {
		t.Error("shared busy/irq pin passed validation")
	}
	cfg.Hardware.BusyPin = 0
	cfg.Hardware.IrqPin = 0

	cfg.Preset = "no-such-preset"
	if !errors.Is(cfg.Validate(), ErrUnknownPreset) {
		t.Error("unknown preset passed validation")
	}
}

func TestProfileResolution(t *testing.T) {
	cfg := Default()
	p, err := cfg.Profile()
	if err != nil || p != nil {
		t.Errorf("empty config: profile = %v, err = %v", p, err)
	}

	cfg.Preset = "lora-901-fast"
	p, err = cfg.Profile()
	if err != nil || p == nil {
		t.Fatalf("preset: profile = %v, err = %v", p, err)
	}

	// A profile file takes precedence over the preset name
	path := filepath.Join(t.TempDir(), "profile.json")
	saved := profiles.Preset("fsk-901")
	if saved == nil {
		t.Fatal("fsk-901 preset missing")
	}
	if err := profiles.SaveToFile(saved, path); err != nil {
		t.Fatal(err)
	}
	cfg.ProfileFile = path
	p, err = cfg.Profile()
	if err != nil {
		t.Fatalf("profile file: %v", err)
	}
	if p != saved {
		t.Errorf("profile = %#v, want the saved fsk profile", p)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := &ToolConfig{
		Name:   "bench",
		Preset: "ook-rts",
		Hardware: HardwareJSON{
			SpiBusPath: "/dev/spidev1.0",
			BusyPin:    5,
			IrqPin:     6,
			ResetPin:   13,
			IrqDio:     7,
		},
	}

	if err := SaveToFile(cfg, path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Name != "bench" || loaded.Preset != "ook-rts" {
		t.Errorf("loaded = %+v", loaded)
	}

	hw := loaded.ToHardwareConfig()
	if hw.SpiBusPath != "/dev/spidev1.0" || hw.BusyPin != 5 || hw.IrqDio != 7 {
		t.Errorf("hardware config = %+v", hw)
	}
}
