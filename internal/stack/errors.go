package stack

import (
	"errors"
	"fmt"
)

var (
	// ErrFormatMismatch is returned when the input does not carry the
	// signature of the attempted format.
	ErrFormatMismatch = errors.New("format mismatch")

	// ErrUnrecognizedFormat is returned by Detect when no grammar accepts the input.
	ErrUnrecognizedFormat = errors.New("unrecognized stack format")

	// ErrUnknownFormat is returned by Lookup for a name no grammar is registered under.
	ErrUnknownFormat = errors.New("unknown stack format")
)

// MismatchError names the format whose signature was missing.
type MismatchError struct {
	Format string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("not generated by %s", e.Format)
}

func (e *MismatchError) Unwrap() error { return ErrFormatMismatch }
