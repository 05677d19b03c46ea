// Package proclist lists processes with ps and selects them by pattern.
package proclist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"st/internal/collect"
)

// ErrNoMatch is returned when a pattern selects no process.
var ErrNoMatch = errors.New("no process matches the pattern")

// Process is one row of `ps -o pid,user,stime,cmd`.
type Process struct {
	PID  int
	User string
	Line string // the row as printed by ps
}

// Args builds the ps argument vector. users restricts the listing to the
// given comma separated users (real or effective).
func Args(users string) []string {
	args := []string{"-o", "pid,user,stime,cmd"}
	if users = strings.TrimSpace(users); users != "" {
		return append(args, "-u", users, "-U", users)
	}
	return append(args, "-A")
}

// List runs ps through r and parses its output.
func List(ctx context.Context, r collect.Runner, users string) ([]Process, error) {
	out, err := r.Run(ctx, "ps", Args(users))
	if err != nil {
		return nil, err
	}
	if out.ExitCode != 0 {
		return nil, fmt.Errorf("ps exited with code %d: %s", out.ExitCode, strings.TrimSpace(out.Stderr))
	}
	return Parse(out.Stdout), nil
}

var rePID = regexp.MustCompile(`^\s*(?P<pid>\d+)\s+`)

// ParsePID extracts the leading pid of a ps row.
func ParsePID(line string) (int, bool) {
	m := rePID.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pid, err := strconv.Atoi(m[rePID.SubexpIndex("pid")])
	if err != nil {
		return 0, false
	}
	return pid, true
}

// Parse turns ps output into processes, skipping the header and any row
// without a pid.
func Parse(output string) []Process {
	lines := strings.Split(output, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	procs := make([]Process, 0, len(lines))
	for _, line := range lines {
		pid, ok := ParsePID(line)
		if !ok {
			continue
		}
		var user string
		if fields := strings.Fields(line); len(fields) > 1 {
			user = fields[1]
		}
		procs = append(procs, Process{PID: pid, User: user, Line: strings.TrimRight(line, " \r")})
	}
	return procs
}

// Filter keeps the processes whose row matches pattern, excluding self.
func Filter(procs []Process, pattern *regexp.Regexp, self int) []Process {
	var out []Process
	for _, p := range procs {
		if p.PID == self {
			continue
		}
		if pattern == nil || pattern.MatchString(p.Line) {
			out = append(out, p)
		}
	}
	return out
}

// Select compiles pattern and returns the pids it selects, excluding this
// process.
func Select(procs []Process, pattern string) ([]int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	matched := Filter(procs, re, os.Getpid())
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, pattern)
	}
	pids := make([]int, len(matched))
	for i, p := range matched {
		pids[i] = p.PID
	}
	return pids, nil
}

// Truncate cuts line to width terminal cells. width <= 0 keeps it whole.
func Truncate(line string, width int) string {
	if width <= 0 || runewidth.StringWidth(line) <= width {
		return line
	}
	return runewidth.Truncate(line, width, "")
}
