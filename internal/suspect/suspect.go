// Package suspect flags stack groups whose frames look like a crash: failed
// assertions, fatal signals, segmentation faults and signal handler frames.
//
// Detection is advisory. It decorates the rendered text of a group and
// collects the ids of matching threads, but never changes grouping or order.
package suspect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fatih/color"

	"st/internal/group"
)

// Marker is appended after every highlighted line.
const Marker = "<---- HERE"

const markerPad = "                           "

// DefaultKeywords are matched case-insensitively as regular expressions.
var DefaultKeywords = []string{
	"__assert_fail",
	"fatal.*signals?",
	"raise",
	"segfault",
	"segment fault",
	"segmentation fault",
	"segmentfault",
	"signal handler called",
}

// Options configures a Detector.
type Options struct {
	// Keywords are added to DefaultKeywords.
	Keywords []string
	Color    bool
}

// Detector matches frame text against the keyword set.
type Detector struct {
	re     *regexp.Regexp
	line   *color.Color
	marker *color.Color
	alert  *color.Color
}

// New compiles the keyword set.
func New(opts Options) (*Detector, error) {
	keywords := make([]string, 0, len(DefaultKeywords)+len(opts.Keywords))
	keywords = append(keywords, DefaultKeywords...)
	for _, kw := range opts.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if _, err := regexp.Compile(kw); err != nil {
			return nil, fmt.Errorf("invalid suspicious keyword %q: %w", kw, err)
		}
		keywords = append(keywords, kw)
	}
	// the match spans the whole line holding the keyword
	re, err := regexp.Compile(`(?i)(.*(` + strings.Join(keywords, "|") + `).*)`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile suspicious keywords: %w", err)
	}
	d := &Detector{
		re:     re,
		line:   color.New(color.FgBlue),
		marker: color.New(color.FgRed, color.Bold),
		alert:  color.New(color.FgRed),
	}
	for _, c := range []*color.Color{d.line, d.marker, d.alert} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return d, nil
}

// Match reports whether text contains any keyword.
func (d *Detector) Match(text string) bool {
	return d.re.MatchString(text)
}

// Annotate highlights every matching line of text and appends Marker to it.
func (d *Detector) Annotate(text string) (string, bool) {
	if !d.re.MatchString(text) {
		return text, false
	}
	out := d.re.ReplaceAllStringFunc(text, func(line string) string {
		return d.line.Sprint(line) + d.marker.Sprint(markerPad+Marker+" ")
	})
	return out, true
}

// Alert renders s in the color used for the suspicious thread summary.
func (d *Detector) Alert(s string) string {
	return d.alert.Sprint(s)
}

// Annotated is a group with its rendered frame text.
type Annotated struct {
	group.Group
	Rendered   string
	Suspicious bool
}

// Result holds the annotated groups and the ids of every thread whose
// stack matched, in group order.
type Result struct {
	Groups     []Annotated
	Suspicious []string
}

// Scan annotates groups in the given order.
func (d *Detector) Scan(groups []group.Group) Result {
	res := Result{Groups: make([]Annotated, 0, len(groups))}
	for _, g := range groups {
		rendered, hit := d.Annotate(g.Text)
		if hit {
			res.Suspicious = append(res.Suspicious, g.IDs...)
		}
		res.Groups = append(res.Groups, Annotated{Group: g, Rendered: rendered, Suspicious: hit})
	}
	return res
}
