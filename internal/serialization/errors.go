package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrPayloadTooLarge    = errors.New("payload exceeds maximum size")
	ErrUnexpectedTag      = errors.New("unexpected value tag")
	ErrLengthOutOfRange   = errors.New("length out of range")
)

// FormatError reports a malformed field in a codec stream.
type FormatError struct {
	Field   string // Field being decoded (e.g., "vector", "float64s")
	Details string // Additional details
	Err     error  // Underlying sentinel, if any
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Field, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Details)
}

// Unwrap returns the underlying sentinel.
func (e *FormatError) Unwrap() error {
	return e.Err
}
