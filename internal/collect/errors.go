package collect

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptySelection is returned when a plan has no targets.
var ErrEmptySelection = errors.New("no target selected")

// ToolError is a failed invocation attributed to a target.
type ToolError struct {
	Target   TargetID
	ExitCode int32
	Stderr   string
	Err      error // spawn failure, nil when the tool ran and exited badly
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("target %s: %v", e.Target, e.Err)
	}
	msg := fmt.Sprintf("target %s: tool exited with code %d", e.Target, e.ExitCode)
	if stderr := firstLine(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Failure pairs a target with the reason it produced nothing.
type Failure struct {
	Target TargetID
	Err    error
}

// BatchError is returned when every target of a plan failed.
type BatchError struct {
	Failures []Failure
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Err.Error())
	}
	return fmt.Sprintf("all %d targets failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes each failure to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Targets lists the failed targets in failure order.
func (e *BatchError) Targets() []TargetID {
	ids := make([]TargetID, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.Target)
	}
	return ids
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
