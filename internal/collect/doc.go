// Package collect runs the external stack tools (eu-stack, gdb) against a
// set of targets and gathers their raw output.
//
// Targets run concurrently, one goroutine each. Every goroutine reports its
// outcome over a channel to a single collector loop, so no result list is
// shared between goroutines. A failing target never cancels its siblings.
package collect
