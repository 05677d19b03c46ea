package stack

import (
	"regexp"
	"strings"
)

// Grammar configures the thread-block state machine for one tool's output.
//
// Lines are classified in this order: blank, Header, Entry, Skip. A Header
// line commits the open block and opens a new one; Entry lines are appended
// to the open block (and dropped while no block is open). Anything else is
// ignored, or reported as a Warning when WarnUnknown is set and a block has
// been opened.
type Grammar struct {
	Name string

	// Signature must match somewhere in the input, otherwise Parse fails
	// with a MismatchError and no partial result.
	Signature *regexp.Regexp

	// Header opens a thread block. IDGroup names the capture group holding
	// the committed thread id.
	Header  *regexp.Regexp
	IDGroup string

	Entry *regexp.Regexp

	// Skip matches lines that are never content.
	Skip *regexp.Regexp

	WarnUnknown bool
}

// Parse runs the state machine over text.
func (g *Grammar) Parse(text string) (*Result, error) {
	if !g.Signature.MatchString(text) {
		return nil, &MismatchError{Format: g.Name}
	}

	idIdx := g.Header.SubexpIndex(g.IDGroup)
	res := &Result{Format: g.Name}

	var (
		open    bool
		current Thread
	)
	commit := func() {
		if open {
			res.Threads = append(res.Threads, current)
		}
	}

	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := g.Header.FindStringSubmatch(line); m != nil {
			commit()
			id := m[0]
			if idIdx >= 0 {
				id = m[idIdx]
			}
			current = Thread{ID: id}
			open = true
			continue
		}
		if g.Entry.MatchString(line) {
			if open {
				current.Frames = append(current.Frames, line)
			}
			continue
		}
		if g.Skip != nil && g.Skip.MatchString(line) {
			continue
		}
		if open && g.WarnUnknown {
			res.Warnings = append(res.Warnings, Warning{Line: i + 1, Text: line})
		}
	}
	// the last block has no following header to flush it
	commit()

	return res, nil
}
