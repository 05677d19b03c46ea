package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"st/internal/collect"
	"st/internal/pipeline"
	"st/internal/ui"
)

type collectOutcome struct {
	report *pipeline.Report
	result *collect.Result
	err    error
}

// runCollectWithUI runs the collection in the background while the progress
// model renders on stderr. Closing the display before the collection is done
// (Ctrl-C) cancels the collection.
func runCollectWithUI(ctx context.Context, o *collect.Orchestrator, plan collect.Plan, opts pipeline.Options) (*pipeline.Report, *collect.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan collect.Event, 256)
	outcomes := startCollect(ctx, o, plan, opts, events)

	ids := make([]collect.TargetID, len(plan.Targets))
	for i, t := range plan.Targets {
		ids[i] = t.ID
	}
	title := fmt.Sprintf("collecting %d targets with %s", len(ids), o.Tool.Binary())
	model := ui.NewProgressModel(title, ids, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithInput(nil), tea.WithContext(ctx))
	_, uiErr := program.Run()

	outcome := awaitCollect(events, outcomes, cancel)
	if uiErr != nil && ctx.Err() == nil && outcome.err == nil {
		fmt.Fprintf(os.Stderr, "warning: progress display failed: %v\n", uiErr)
	}
	return outcome.report, outcome.result, outcome.err
}

// startCollect runs pipeline.Collect with progress events sent to events,
// which is closed once the outcome is available.
func startCollect(ctx context.Context, o *collect.Orchestrator, plan collect.Plan, opts pipeline.Options, events chan collect.Event) <-chan collectOutcome {
	outcomes := make(chan collectOutcome, 1)
	go func() {
		oc := *o
		oc.Sink = collect.ChannelSink{Ch: events}
		rep, res, err := pipeline.Collect(ctx, &oc, plan, opts)
		outcomes <- collectOutcome{report: rep, result: res, err: err}
		close(events)
	}()
	return outcomes
}

// awaitCollect waits for the collection once the display has stopped
// reading events. Remaining events are drained so the orchestrator never
// blocks on a full channel. A collection still running at this point lost
// its display and is cancelled.
func awaitCollect(events <-chan collect.Event, outcomes <-chan collectOutcome, cancel context.CancelFunc) collectOutcome {
	go func() {
		for range events {
		}
	}()
	select {
	case outcome := <-outcomes:
		return outcome
	default:
	}
	cancel()
	return <-outcomes
}
