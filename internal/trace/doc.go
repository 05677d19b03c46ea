// Package trace records what st does while it collects and groups stacks.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	st -p 1234 -U --trace=- --trace-level=detail
//
// # Tracers
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to a file or stderr (text or NDJSON)
//   - RingTracer: last N events in memory, dumped when a batch fails
//
// # Levels and scopes
//
// Events are categorized by scope, coarsest first:
//
//   - ScopeRun: one st invocation
//   - ScopePhase: pipeline phases (collect, simplify, parse, group, render)
//   - ScopeTarget: one process or core file
//   - ScopeSample: one tool invocation against a target
//
// LevelPhase emits run and phase events, LevelDetail adds targets and
// LevelDebug adds every sample and parser warning.
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePhase, "parse", 0)
//	defer span.End("")
package trace
