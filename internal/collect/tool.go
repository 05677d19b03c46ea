package collect

import (
	"fmt"
	"strconv"
	"strings"

	"st/internal/stack"
)

// Tool knows how to invoke one external stack tool.
type Tool interface {
	// Binary is the executable name or path.
	Binary() string
	// Format is the stack format the tool prints.
	Format() string
	// Args builds the argument vector for a target.
	Args(t Target) []string
}

// EUStack runs elfutils' eu-stack.
type EUStack struct {
	Path string
}

func (e EUStack) Binary() string { return orDefault(e.Path, "eu-stack") }

func (EUStack) Format() string { return stack.FormatEUStack }

func (EUStack) Args(t Target) []string {
	if t.Kind == KindCore {
		args := []string{"--core", t.Core}
		if t.Executable != "" {
			args = append(args, "-e", t.Executable)
		}
		return args
	}
	return []string{"-p", strconv.Itoa(t.PID)}
}

// GDB runs gdb in batch mode with "thread apply all backtrace".
type GDB struct {
	Path string
}

const gdbBacktrace = "thread apply all backtrace"

func (g GDB) Binary() string { return orDefault(g.Path, "gdb") }

func (GDB) Format() string { return stack.FormatGDB }

func (GDB) Args(t Target) []string {
	if t.Kind == KindCore {
		if t.Executable == "" {
			return []string{"--batch", "-ex", gdbBacktrace, "--core", t.Core}
		}
		return []string{"--batch", "-ex", gdbBacktrace, t.Executable, t.Core}
	}
	return []string{"--batch", "-p", strconv.Itoa(t.PID), "-ex", gdbBacktrace}
}

// ToolByName returns the tool for "eu-stack" or "gdb". path overrides the
// binary when non-empty.
func ToolByName(name, path string) (Tool, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", stack.FormatEUStack:
		return EUStack{Path: path}, nil
	case stack.FormatGDB:
		return GDB{Path: path}, nil
	default:
		return nil, fmt.Errorf("unknown tool %q (expected eu-stack or gdb)", name)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
