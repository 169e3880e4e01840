package profiles

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TheClams/lr2021-go/pkg/lr2021"
)

// fileFormat wraps a profile with its modem kind so a file can be
// decoded back into the right struct.
type fileFormat struct {
	Kind    string          `json:"kind"`
	Profile json.RawMessage `json:"profile"`
}

func kindOf(p lr2021.Profile) (string, error) {
	switch p.(type) {
	case Lora:
		return "lora", nil
	case Fsk:
		return "fsk", nil
	case Flrc:
		return "flrc", nil
	case Ble:
		return "ble", nil
	case Ook:
		return "ook", nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownKind, p)
	}
}

// SaveToFile writes a profile as JSON, creating the directory if needed.
func SaveToFile(p lr2021.Profile, path string) error {
	kind, err := kindOf(p)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	data, err := json.MarshalIndent(fileFormat{Kind: kind, Profile: raw}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadFromFile reads a profile back from JSON and validates it.
func LoadFromFile(path string) (lr2021.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}

	var p lr2021.Profile
	switch f.Kind {
	case "lora":
		var v Lora
		err = json.Unmarshal(f.Profile, &v)
		p = v
	case "fsk":
		var v Fsk
		err = json.Unmarshal(f.Profile, &v)
		p = v
	case "flrc":
		var v Flrc
		err = json.Unmarshal(f.Profile, &v)
		p = v
	case "ble":
		var v Ble
		err = json.Unmarshal(f.Profile, &v)
		p = v
	case "ook":
		var v Ook
		err = json.Unmarshal(f.Profile, &v)
		p = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, f.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s profile: %w", f.Kind, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile in %s: %w", path, err)
	}
	return p, nil
}

// Preset returns a named factory profile, or nil when the name is
// unknown. Names returns the accepted values.
func Preset(name string) lr2021.Profile {
	switch name {
	case "lora-901-fast":
		return NewLora901Fast()
	case "lora-868-longrange":
		return NewLora868LongRange()
	case "fsk-901":
		return NewFsk901()
	case "fsk-433-narrow":
		return NewFsk433Narrow()
	case "flrc-2g4":
		return NewFlrc24G()
	case "flrc-2g4-robust":
		return NewFlrc24GRobust()
	case "ble-adv-37":
		return NewBleAdv(37)
	case "ble-adv-38":
		return NewBleAdv(38)
	case "ble-adv-39":
		return NewBleAdv(39)
	case "ble-oob":
		return NewBleOob()
	case "ook-rts":
		return NewOokRts()
	case "ook-433":
		return NewOok433Generic()
	default:
		return nil
	}
}

// Names lists the preset names accepted by Preset.
func Names() []string {
	return []string{
		"lora-901-fast", "lora-868-longrange",
		"fsk-901", "fsk-433-narrow",
		"flrc-2g4", "flrc-2g4-robust",
		"ble-adv-37", "ble-adv-38", "ble-adv-39", "ble-oob",
		"ook-rts", "ook-433",
	}
}
