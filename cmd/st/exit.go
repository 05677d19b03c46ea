package main

import (
	"errors"

	"st/internal/collect"
	"st/internal/stack"
)

const (
	exitOK      = 0
	exitUsage   = 1
	exitFailure = 2
)

// exitError carries an explicit exit status. An empty message means the
// problem was already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// exitCode maps an error to the process exit status: 2 for failed targets
// and unrecognized input, 1 for everything else.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var batch *collect.BatchError
	if errors.As(err, &batch) || errors.Is(err, stack.ErrUnrecognizedFormat) {
		return exitFailure
	}
	return exitUsage
}
