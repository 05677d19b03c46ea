package collect

import (
	"strconv"
	"time"
)

// TargetID names where a capture came from: a pid, a core path, a file
// path or "<stdin>".
type TargetID string

// StdinID is the TargetID of text read from standard input.
const StdinID TargetID = "<stdin>"

// Kind distinguishes live processes from core files.
type Kind uint8

const (
	KindProcess Kind = iota + 1
	KindCore
)

// Target is a single thing to run a tool against.
type Target struct {
	ID         TargetID
	Kind       Kind
	PID        int
	Core       string
	Executable string
}

// Process returns the target for a live process.
func Process(pid int) Target {
	return Target{ID: TargetID(strconv.Itoa(pid)), Kind: KindProcess, PID: pid}
}

// Core returns the target for a core file, optionally with the executable
// that produced it.
func Core(path, executable string) Target {
	return Target{ID: TargetID(path), Kind: KindCore, Core: path, Executable: executable}
}

// MinInterval is the smallest accepted sampling interval.
const MinInterval = 100 * time.Millisecond

// Sampling repeats the tool invocation Count times, Interval apart.
type Sampling struct {
	Interval time.Duration
	Count    int
}

// NewSampling builds a Sampling from the user-facing seconds value, clamping
// the interval to MinInterval.
func NewSampling(seconds float64, count int) *Sampling {
	interval := time.Duration(seconds * float64(time.Second))
	if interval < MinInterval {
		interval = MinInterval
	}
	if count < 1 {
		count = 1
	}
	return &Sampling{Interval: interval, Count: count}
}

// Samples returns how many invocations a process target gets.
func (s *Sampling) Samples() int {
	if s == nil || s.Count < 1 {
		return 1
	}
	return s.Count
}

// Plan is the set of targets of one collection.
type Plan struct {
	Targets  []Target
	Sampling *Sampling
}
