package profiles

import (
	"errors"
	"fmt"
)

// Profile validation errors
var (
	// ErrFrequencyOutOfRange indicates a frequency neither RF path covers.
	ErrFrequencyOutOfRange = errors.New("frequency outside supported bands")

	// ErrPowerOutOfRange indicates a TX power above the chip limit.
	ErrPowerOutOfRange = errors.New("tx power out of range")

	// ErrInvalidField indicates a modem parameter outside its valid range.
	ErrInvalidField = errors.New("invalid profile field")

	// ErrUnknownKind indicates a profile file with an unrecognized type tag.
	ErrUnknownKind = errors.New("unknown profile kind")
)

func errValue(sentinel error, v uint64) error {
	return fmt.Errorf("%w: %d", sentinel, v)
}

func errField(name string, v uint64) error {
	return fmt.Errorf("%w: %s=%d", ErrInvalidField, name, v)
}
