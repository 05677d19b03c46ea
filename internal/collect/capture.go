package collect

// Capture is the output of one tool invocation, or of several samples of the
// same target joined in time order.
type Capture struct {
	Source   TargetID `msgpack:"source"`
	Text     string   `msgpack:"text"`
	ExitCode int32    `msgpack:"exit_code"`
	Stderr   string   `msgpack:"stderr,omitempty"`
}

// Warned reports whether the tool exited with the warning status 1.
func (c Capture) Warned() bool { return c.ExitCode == 1 }
