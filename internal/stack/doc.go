// Package stack turns the text printed by external stack unwinders into
// per-thread frame blocks.
//
// Two output grammars are supported:
//
//   - eu-stack: "PID <n> - process" banner, "TID <n>:" thread headers and
//     "#<n> 0x..." frame lines
//   - gdb: "Thread <n> (... (LWP <n>) ...):" thread headers and "#<n> ..."
//     frame lines as printed by "thread apply all backtrace"
//
// Both are configurations of one state machine, see [Grammar]. [Detect] tries
// several grammars in order and keeps the first one that recognizes the input.
//
// [Simplify] strips argument lists and source locations from gdb frames so
// that stacks differing only in argument values collapse together.
package stack
