package scanner

import "errors"

// Scanner errors
var (
	// ErrScannerRunning indicates the scanner is already running.
	ErrScannerRunning = errors.New("scanner is already running")

	// ErrScannerNotRunning indicates the scanner is not running.
	ErrScannerNotRunning = errors.New("scanner is not running")

	// ErrNoBands indicates no bands were given to scan.
	ErrNoBands = errors.New("no bands specified for scanning")

	// ErrInvalidBand indicates a malformed band definition.
	ErrInvalidBand = errors.New("invalid band")

	// ErrFrequencyOutOfRange indicates a band outside the radio's
	// coverage.
	ErrFrequencyOutOfRange = errors.New("frequency out of valid range")

	// ErrInvalidThreshold indicates a detection threshold that is not
	// a negative dBm value.
	ErrInvalidThreshold = errors.New("detection threshold must be negative (dBm)")

	// ErrInvalidInterval indicates a scan interval outside 10ms-10s.
	ErrInvalidInterval = errors.New("scan interval must be between 10ms and 10s")

	// ErrConfigVersion indicates an unsupported config file version.
	ErrConfigVersion = errors.New("unsupported configuration version")
)
