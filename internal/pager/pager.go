// Package pager pipes output through $ST_PAGER, $PAGER or less.
package pager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// DefaultCommand exits at once for output shorter than a screen and keeps
// color escapes.
const DefaultCommand = "less -FRX"

// Command picks the pager: the configured one (which already reflects
// $ST_PAGER), then $PAGER, then DefaultCommand.
func Command(configured string, getenv func(string) string) string {
	if c := strings.TrimSpace(configured); c != "" {
		return c
	}
	if c := strings.TrimSpace(getenv("PAGER")); c != "" {
		return c
	}
	return DefaultCommand
}

// Wanted reports whether output to out should be paged.
func Wanted(noPager bool, out *os.File, getenv func(string) string) bool {
	if noPager || getenv("TERM") == "dumb" || out == nil {
		return false
	}
	return term.IsTerminal(int(out.Fd()))
}

// Pager is a running pager process fed through Write.
type Pager struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// Start runs command with its stdout and stderr attached to out and errOut.
func Start(command string, out, errOut io.Writer) (*Pager, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, errors.New("empty pager command")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = out
	cmd.Stderr = errOut
	if os.Getenv("LESS") == "" {
		cmd.Env = append(os.Environ(), "LESS=FRX")
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start pager %q: %w", argv[0], err)
	}
	return &Pager{cmd: cmd, stdin: stdin}, nil
}

func (p *Pager) Write(b []byte) (int, error) { return p.stdin.Write(b) }

// Close ends the input and waits for the user to quit the pager.
func (p *Pager) Close() error {
	if err := p.stdin.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return p.cmd.Wait()
}

type passthrough struct{ io.Writer }

func (passthrough) Close() error { return nil }

// Open returns a pager writer when wanted, or out itself. A pager that fails
// to start falls back to out.
func Open(wanted bool, command string, out *os.File, errOut io.Writer) io.WriteCloser {
	if !wanted {
		return passthrough{out}
	}
	p, err := Start(command, out, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "warning: %v\n", err)
		return passthrough{out}
	}
	return p
}
