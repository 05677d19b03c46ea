// Package report renders ranked, annotated stack groups as text.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"st/internal/suspect"
)

// Sampling describes repeated collection, shown as a header line when
// more than one sample was taken.
type Sampling struct {
	Interval time.Duration
	Count    int
}

// Header returns the sampling prefix line, or "" for a single sample.
func (s *Sampling) Header() string {
	if s == nil || s.Count <= 1 {
		return ""
	}
	secs := strconv.FormatFloat(s.Interval.Seconds(), 'f', -1, 64)
	return fmt.Sprintf("Sampling: %d samples every %ss", s.Count, secs)
}

// Options controls rendering.
type Options struct {
	Sampling *Sampling
	// Alert colors the suspicious thread list; nil leaves it plain.
	Alert func(string) string
}

// Render joins the groups with "\n" in the order given.
func Render(res suspect.Result, opts Options) string {
	parts := make([]string, 0, len(res.Groups)+2)
	if h := opts.Sampling.Header(); h != "" {
		parts = append(parts, h)
	}
	for _, g := range res.Groups {
		parts = append(parts, fmt.Sprintf("Number of thread: %d -- %s:\n%s", g.Count(), g.JoinedIDs(), g.Rendered))
	}
	if len(res.Suspicious) > 0 {
		ids := strings.Join(res.Suspicious, ", ")
		if opts.Alert != nil {
			ids = opts.Alert(ids)
		}
		parts = append(parts, "Suspicious threads: "+ids)
	}
	return strings.Join(parts, "\n")
}

// Verbatim returns text with the sampling header prepended, for output that
// was not grouped.
func Verbatim(text string, sampling *Sampling) string {
	if h := sampling.Header(); h != "" {
		return h + "\n" + text
	}
	return text
}
