package stack

import (
	"errors"
	"fmt"
	"strings"
)

// Detect parses text with each grammar in turn and returns the first success.
// With no grammars it tries Formats().
func Detect(text string, grammars ...*Grammar) (*Result, error) {
	if len(grammars) == 0 {
		grammars = Formats()
	}
	errs := make([]error, 0, len(grammars))
	for _, g := range grammars {
		res, err := g.Parse(text)
		if err == nil {
			return res, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w: %w", ErrUnrecognizedFormat, errors.Join(errs...))
}

// FormatAuto selects detection over every built-in grammar.
const FormatAuto = "auto"

// Parse parses text in the named format, or detects it for "auto" and "".
func Parse(text, format string) (*Result, error) {
	if format == "" || strings.EqualFold(format, FormatAuto) {
		return Detect(text)
	}
	g, err := Lookup(format)
	if err != nil {
		return nil, err
	}
	return g.Parse(text)
}
