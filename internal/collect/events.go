package collect

import "time"

// Stage describes where a target is in its collection.
type Stage string

const (
	// StageCollect is a single invocation.
	StageCollect Stage = "collect"
	// StageSample is one of several sampled invocations.
	StageSample Stage = "sample"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the target is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the tool is running.
	StatusWorking Status = "working"
	// StatusDone indicates the target finished.
	StatusDone Status = "done"
	// StatusError indicates the target failed.
	StatusError Status = "error"
)

// Event reports progress for a target.
type Event struct {
	Target  TargetID
	Stage   Stage
	Status  Status
	Sample  int // 1-based, set for StageSample
	Samples int
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}
