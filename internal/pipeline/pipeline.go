// Package pipeline wires collection, parsing, grouping, detection and
// rendering into one call.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"st/internal/collect"
	"st/internal/group"
	"st/internal/observ"
	"st/internal/report"
	"st/internal/stack"
	"st/internal/suspect"
	"st/internal/trace"
)

// Options controls how captured text becomes a report.
type Options struct {
	Format   string // eu-stack, gdb or auto
	Raw      bool   // skip frame simplification
	Unique   bool   // group identical stacks; otherwise print the text as is
	Color    bool
	Keywords []string
	Sampling *collect.Sampling
	Timer    *observ.Timer // optional
}

// Report is the rendered outcome.
type Report struct {
	Text       string
	Format     string
	Groups     []group.Group
	Suspicious []string
	Warnings   []stack.Warning
}

// Process turns captured tool output into a report.
func Process(ctx context.Context, text string, opts Options) (*Report, error) {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = stack.FormatAuto
	}
	if format != stack.FormatAuto {
		if _, err := stack.Lookup(format); err != nil {
			return nil, err
		}
	}

	if !opts.Raw && (format == stack.FormatGDB || format == stack.FormatAuto) {
		text = phase(ctx, opts.Timer, "simplify", func() (string, string) {
			return stack.Simplify(text), ""
		})
	}

	sampling := reportSampling(opts.Sampling)
	if !opts.Unique {
		return &Report{Text: report.Verbatim(text, sampling), Format: format}, nil
	}

	detector, err := suspect.New(suspect.Options{Keywords: opts.Keywords, Color: opts.Color})
	if err != nil {
		return nil, err
	}

	var parsed *stack.Result
	var parseErr error
	phase(ctx, opts.Timer, "parse", func() (string, string) {
		parsed, parseErr = stack.Parse(text, format)
		if parseErr != nil {
			return "", "failed"
		}
		return "", fmt.Sprintf("%s, %d threads", parsed.Format, len(parsed.Threads))
	})
	if parseErr != nil {
		return nil, fmt.Errorf("failed to parse stacks: %w", parseErr)
	}
	tracer := trace.FromContext(ctx)
	for _, w := range parsed.Warnings {
		trace.Point(tracer, trace.ScopeSample, "unparsable-line", w.String(), trace.CurrentSpan(ctx))
	}

	var ranked []group.Group
	phase(ctx, opts.Timer, "group", func() (string, string) {
		ranked = group.Rank(group.Build(parsed.Threads))
		return "", strconv.Itoa(len(ranked)) + " groups"
	})

	var scanned suspect.Result
	out := phase(ctx, opts.Timer, "render", func() (string, string) {
		scanned = detector.Scan(ranked)
		return report.Render(scanned, report.Options{Sampling: sampling, Alert: detector.Alert}), ""
	})

	return &Report{
		Text:       out,
		Format:     parsed.Format,
		Groups:     ranked,
		Suspicious: scanned.Suspicious,
		Warnings:   parsed.Warnings,
	}, nil
}

// Collect runs the orchestrator and processes the joined captures. When some
// targets failed the report is still returned along with the collect result
// listing the failures. When all failed the *collect.BatchError is returned.
func Collect(ctx context.Context, o *collect.Orchestrator, plan collect.Plan, opts Options) (*Report, *collect.Result, error) {
	done := opts.Timer.Track("collect")
	res, err := o.Collect(ctx, plan)
	if err != nil {
		done("failed")
		return nil, res, err
	}
	done(fmt.Sprintf("%d targets, %d failed", len(plan.Targets), len(res.Failures)))

	if opts.Format == "" || strings.EqualFold(opts.Format, stack.FormatAuto) {
		opts.Format = o.Tool.Format()
	}
	opts.Sampling = res.Sampling
	rep, err := Process(ctx, res.Text(), opts)
	return rep, res, err
}

// phase runs fn as a timed, traced pipeline phase. fn returns its value and a
// note for the timer.
func phase(ctx context.Context, timer *observ.Timer, name string, fn func() (string, string)) string {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePhase, name, trace.CurrentSpan(ctx))
	done := timer.Track(name)
	value, note := fn()
	done(note)
	span.End(note)
	return value
}

func reportSampling(s *collect.Sampling) *report.Sampling {
	if s == nil {
		return nil
	}
	return &report.Sampling{Interval: s.Interval, Count: s.Count}
}
