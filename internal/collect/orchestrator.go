package collect

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"st/internal/trace"
)

// Orchestrator runs a Tool against every target of a Plan.
type Orchestrator struct {
	Tool   Tool
	Runner Runner       // ExecRunner when nil
	Sink   ProgressSink // optional
	// Sleep waits between samples; it must return early when ctx is done.
	// Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Result is the outcome of a collection. Captures are in completion order.
// Sampling is set only when at least one capture holds several samples.
type Result struct {
	Captures []Capture
	Failures []Failure
	Sampling *Sampling
}

// Text joins the text of every capture with "\n".
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	texts := make([]string, 0, len(r.Captures))
	for _, c := range r.Captures {
		texts = append(texts, c.Text)
	}
	return strings.Join(texts, "\n")
}

type outcome struct {
	target  TargetID
	capture Capture
	sampled bool
	err     error
}

// Collect runs the tool against each target concurrently and waits for all
// of them. Failed targets are listed in Result.Failures; the error is a
// *BatchError only when no target succeeded.
func (o *Orchestrator) Collect(ctx context.Context, plan Plan) (*Result, error) {
	if len(plan.Targets) == 0 {
		return nil, ErrEmptySelection
	}
	if o.Tool == nil {
		return nil, errors.New("collect: no tool configured")
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePhase, "collect", trace.CurrentSpan(ctx))
	span.WithExtra("tool", o.Tool.Binary()).WithExtra("targets", strconv.Itoa(len(plan.Targets)))
	ctx = trace.WithSpan(ctx, span)

	for _, t := range plan.Targets {
		o.emit(Event{Target: t.ID, Stage: StageCollect, Status: StatusQueued})
	}

	outcomes := make(chan outcome, len(plan.Targets))
	var g errgroup.Group
	for _, t := range plan.Targets {
		g.Go(func() error {
			capture, err := o.collectTarget(ctx, t, plan.Sampling)
			sampled := t.Kind == KindProcess && plan.Sampling.Samples() > 1
			outcomes <- outcome{target: t.ID, capture: capture, sampled: sampled, err: err}
			return nil
		})
	}
	go func() {
		_ = g.Wait() //nolint:errcheck // branches never return errors
		close(outcomes)
	}()

	// Sampling stays nil unless a captured target was actually sampled.
	res := &Result{}
	for out := range outcomes {
		if out.err != nil {
			res.Failures = append(res.Failures, Failure{Target: out.target, Err: out.err})
			continue
		}
		res.Captures = append(res.Captures, out.capture)
		if out.sampled {
			res.Sampling = plan.Sampling
		}
	}

	span.WithExtra("failed", strconv.Itoa(len(res.Failures))).End("")
	if len(res.Captures) == 0 {
		return res, &BatchError{Failures: res.Failures}
	}
	return res, nil
}

// collectTarget runs all samples of one target in sequence.
func (o *Orchestrator) collectTarget(ctx context.Context, t Target, sampling *Sampling) (Capture, error) {
	started := time.Now()
	samples := 1
	if t.Kind == KindProcess {
		samples = sampling.Samples()
	}
	stage := StageCollect
	if samples > 1 {
		stage = StageSample
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeTarget, "target:"+string(t.ID), trace.CurrentSpan(ctx))

	capture := Capture{Source: t.ID}
	texts := make([]string, 0, samples)
	var stderr []string
	for i := 1; i <= samples; i++ {
		if i > 1 {
			if err := o.sleep(ctx, sampling.Interval); err != nil {
				return o.fail(t, stage, started, span, fmt.Errorf("target %s: sampling interrupted: %w", t.ID, err))
			}
		}
		o.emit(Event{Target: t.ID, Stage: stage, Status: StatusWorking, Sample: i, Samples: samples})

		out, err := o.invoke(ctx, t, span.ID(), i)
		if err != nil {
			return o.fail(t, stage, started, span, err)
		}
		texts = append(texts, out.Stdout)
		if strings.TrimSpace(out.Stderr) != "" {
			stderr = append(stderr, out.Stderr)
		}
		capture.ExitCode = max(capture.ExitCode, out.ExitCode)
	}
	capture.Text = strings.Join(texts, "\n")
	capture.Stderr = strings.Join(stderr, "\n")

	elapsed := time.Since(started)
	span.WithExtra("exit", strconv.Itoa(int(capture.ExitCode))).End("ok")
	o.emit(Event{Target: t.ID, Stage: stage, Status: StatusDone, Samples: samples, Elapsed: elapsed})
	return capture, nil
}

// invoke runs the tool once and classifies the result. Exit codes 0 and 1
// are success.
func (o *Orchestrator) invoke(ctx context.Context, t Target, parent uint64, sample int) (Output, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeSample, "sample:"+strconv.Itoa(sample), parent)

	out, err := o.runner().Run(ctx, o.Tool.Binary(), o.Tool.Args(t))
	if err != nil {
		span.End("spawn failed")
		return out, &ToolError{Target: t.ID, ExitCode: -1, Stderr: out.Stderr, Err: err}
	}
	span.WithExtra("exit", strconv.Itoa(int(out.ExitCode))).End("")
	if out.ExitCode != 0 && out.ExitCode != 1 {
		return out, &ToolError{Target: t.ID, ExitCode: out.ExitCode, Stderr: out.Stderr}
	}
	return out, nil
}

func (o *Orchestrator) fail(t Target, stage Stage, started time.Time, span *trace.Span, err error) (Capture, error) {
	span.End(err.Error())
	o.emit(Event{Target: t.ID, Stage: stage, Status: StatusError, Err: err, Elapsed: time.Since(started)})
	return Capture{}, err
}

func (o *Orchestrator) runner() Runner {
	if o.Runner == nil {
		return ExecRunner{}
	}
	return o.Runner
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	if o.Sleep != nil {
		return o.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func (o *Orchestrator) emit(ev Event) {
	if o.Sink != nil {
		o.Sink.OnEvent(ev)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
