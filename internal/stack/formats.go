package stack

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// FormatEUStack names the eu-stack grammar.
	FormatEUStack = "eu-stack"
	// FormatGDB names the gdb grammar.
	FormatGDB = "gdb"
)

var reEUStackPID = regexp.MustCompile(`PID\s+(?P<pid>\d+)\s+-\s+process`)

// EUStack parses `eu-stack -p PID` and `eu-stack --core CORE` output.
var EUStack = &Grammar{
	Name:      FormatEUStack,
	Signature: reEUStackPID,
	Header:    regexp.MustCompile(`TID\s+(?P<tid>\d+):`),
	IDGroup:   "tid",
	Entry:     regexp.MustCompile(`^#\d+\s+0x.*?$`),
	Skip:      reEUStackPID,
}

var reGDBThread = regexp.MustCompile(`Thread\s+(?P<tid>\d+)\s+.*\(LWP\s+(?P<lwp>\d+).*\):`)

// GDB parses `thread apply all backtrace` output. Threads are identified by
// their LWP, not gdb's display number.
var GDB = &Grammar{
	Name:        FormatGDB,
	Signature:   reGDBThread,
	Header:      reGDBThread,
	IDGroup:     "lwp",
	Entry:       regexp.MustCompile(`\s*#\s*\d+\s+`),
	Skip:        regexp.MustCompile(`Inferior.*detached`),
	WarnUnknown: true,
}

// Formats returns the built-in grammars in detection order.
func Formats() []*Grammar {
	return []*Grammar{EUStack, GDB}
}

// Lookup returns the built-in grammar registered under name.
func Lookup(name string) (*Grammar, error) {
	for _, g := range Formats() {
		if strings.EqualFold(g.Name, name) {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (expected eu-stack|gdb)", ErrUnknownFormat, name)
}
