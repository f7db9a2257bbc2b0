package planwire

import (
	"errors"
	"fmt"
)

// ErrMalformedPlan is returned when an encoded plan cannot be decoded.
var ErrMalformedPlan = errors.New("malformed plan")

// UnsupportedVersionError is returned when decoding a plan written with a
// wire format version this package does not understand.
type UnsupportedVersionError struct {
	Version uint32
}

// NewUnsupportedVersionError constructs a new UnsupportedVersionError.
func NewUnsupportedVersionError(version uint32) UnsupportedVersionError {
	return UnsupportedVersionError{Version: version}
}

func (e UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported plan version %d (expected %d)", e.Version, Version)
}

// Is returns true if the target is an UnsupportedVersionError.
func (e UnsupportedVersionError) Is(target error) bool {
	_, ok := target.(UnsupportedVersionError)
	return ok
}
