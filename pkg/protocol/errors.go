package protocol

import "errors"

// Codec errors
var (
	// ErrMalformed indicates a response buffer that does not match the
	// expected shape for the command: wrong length or a field outside
	// its documented range.
	ErrMalformed = errors.New("malformed response frame")
)
