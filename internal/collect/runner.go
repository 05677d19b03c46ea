package collect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/text/encoding/unicode"
)

// Output is what one tool invocation produced.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int32
}

// Runner spawns a command and waits for it. A non-zero exit is reported in
// Output.ExitCode, not as an error; the error is reserved for spawn failures.
type Runner interface {
	Run(ctx context.Context, name string, args []string) (Output, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string) (Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{
		Stdout: decodeLossy(stdout.Bytes()),
		Stderr: decodeLossy(stderr.Bytes()),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return out, fmt.Errorf("failed to run %s: %w", name, err)
		}
		code, convErr := safecast.Conv[int32](exitErr.ExitCode())
		if convErr != nil {
			return out, fmt.Errorf("%s: exit code out of range: %w", name, convErr)
		}
		out.ExitCode = code
	}
	return out, nil
}

// decodeLossy turns tool output into valid UTF-8, replacing bad sequences.
func decodeLossy(b []byte) string {
	decoded, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(decoded)
}
