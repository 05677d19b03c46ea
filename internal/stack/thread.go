package stack

import (
	"fmt"
	"strings"
)

// Thread is one thread's call stack as printed by the tool.
// Frames keep the tool's order and text verbatim.
type Thread struct {
	ID     string
	Frames []string
}

// Text returns the frame block used as the grouping key: every frame
// followed by a newline.
func (t Thread) Text() string {
	if len(t.Frames) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, f := range t.Frames {
		sb.WriteString(f)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Warning reports a line inside a recognized block that matched neither a
// thread header nor a frame.
type Warning struct {
	Line int // 1-based
	Text string
}

func (w Warning) String() string {
	return fmt.Sprintf("failed to parse line %d: %s", w.Line, w.Text)
}

// Result is the outcome of one successful parse.
type Result struct {
	Format   string
	Threads  []Thread
	Warnings []Warning
}
