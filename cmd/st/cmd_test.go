package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"st/internal/archive"
	"st/internal/collect"
	"st/internal/config"
	"st/internal/pipeline"
	"st/internal/stack"
	"st/internal/testkit"
	"st/internal/version"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{errors.New("bad flag"), exitUsage},
		{&collect.BatchError{}, exitFailure},
		{fmt.Errorf("parse: %w", stack.ErrUnrecognizedFormat), exitFailure},
		{&exitError{code: exitFailure}, exitFailure},
		{fmt.Errorf("wrapped: %w", collect.ErrEmptySelection), exitUsage},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Errorf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
	if (&exitError{code: exitFailure}).Error() != "" {
		t.Errorf("exitError without cause should have an empty message")
	}
}

func TestReadInputsKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.stcap")
	if err := os.WriteFile(first, []byte(testkit.GDBCapture), 0o600); err != nil {
		t.Fatal(err)
	}
	bundle := archive.FromResult(collect.EUStack{}, &collect.Result{
		Captures: []collect.Capture{{Source: "14794", Text: testkit.EUStackCapture}},
		Sampling: &collect.Sampling{Interval: 2e9, Count: 3},
	})
	if err := archive.Write(second, bundle); err != nil {
		t.Fatal(err)
	}

	missing := filepath.Join(dir, "missing.txt")
	inputs, failures, err := readInputs(context.Background(), []string{first, missing, second, "-"}, strings.NewReader("from stdin"))
	if err != nil {
		t.Fatalf("readInputs: %v", err)
	}
	if len(failures) != 1 || failures[0].Target != collect.TargetID(missing) {
		t.Fatalf("failures = %+v", failures)
	}
	text, sampling := joinInputs(inputs)
	want := testkit.GDBCapture + "\n" + testkit.EUStackCapture + "\n" + "from stdin"
	if text != want {
		t.Fatalf("joined text out of order")
	}
	if sampling == nil || sampling.Count != 3 {
		t.Fatalf("sampling from archive = %+v", sampling)
	}
	if inputs[2].source != collect.StdinID {
		t.Fatalf("stdin source = %q", inputs[2].source)
	}
}

func TestReadInputsAllMissing(t *testing.T) {
	_, failures, err := readInputs(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, nil)
	var batch *collect.BatchError
	if !errors.As(err, &batch) || len(failures) != 1 {
		t.Fatalf("readInputs = %v, %v, want BatchError", failures, err)
	}
}

func TestReadModes(t *testing.T) {
	if m, err := readUIMode("ON"); err != nil || m != uiModeOn {
		t.Fatalf("readUIMode(ON) = %q, %v", m, err)
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatalf("readUIMode accepted sometimes")
	}
	if !shouldUseTUI(uiModeOn, 1) || shouldUseTUI(uiModeOff, 5) {
		t.Fatalf("explicit ui modes ignored")
	}
	if m, err := readColorMode(""); err != nil || m != "auto" {
		t.Fatalf("readColorMode('') = %q, %v", m, err)
	}
	if !colorMode("on").enabled(nil) || colorMode("off").enabled(nil) {
		t.Fatalf("explicit color modes ignored")
	}
}

func TestVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := renderVersionJSON(&buf, version.Get()); err != nil {
		t.Fatalf("renderVersionJSON: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload["tool"] != "st" {
		t.Fatalf("tool = %v", payload["tool"])
	}
}

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatalf("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func TestMCPUniquify(t *testing.T) {
	cfg := config.Default()
	res, err := uniquifyStacks(context.Background(), &cfg, toolRequest("uniquify_stacks", map[string]any{
		"text": testkit.GDBCapture,
	}))
	if err != nil {
		t.Fatalf("uniquifyStacks: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if !strings.HasPrefix(resultText(t, res), "Number of thread: 2 -- 37748, 37747:") {
		t.Fatalf("unexpected result:\n%s", resultText(t, res))
	}

	res, _ = uniquifyStacks(context.Background(), &cfg, toolRequest("uniquify_stacks", map[string]any{
		"text": "not a stack",
	}))
	if !res.IsError {
		t.Fatalf("garbage input should be a tool error")
	}
}

type mcpRunner map[string]collect.Output

func (r mcpRunner) Run(_ context.Context, _ string, args []string) (collect.Output, error) {
	return r[args[len(args)-1]], nil
}

func TestMCPCollect(t *testing.T) {
	cfg := config.Default()
	runner := mcpRunner{
		"11": {Stdout: "PID 11 - process\nTID 11:\n#0  0x1 raise\n"},
		"12": {ExitCode: 2, Stderr: "no such process"},
	}
	res, err := collectStacks(context.Background(), &cfg, runner, toolRequest("collect_stacks", map[string]any{
		"pids": "11, 12",
	}))
	if err != nil {
		t.Fatalf("collectStacks: %v", err)
	}
	text := resultText(t, res)
	if res.IsError || !strings.Contains(text, "Suspicious threads: 11") {
		t.Fatalf("unexpected result:\n%s", text)
	}
	if !strings.Contains(text, "error: target 12: tool exited with code 2") {
		t.Fatalf("failure not reported:\n%s", text)
	}

	res, _ = collectStacks(context.Background(), &cfg, runner, toolRequest("collect_stacks", map[string]any{
		"pids": "abc",
	}))
	if !res.IsError {
		t.Fatalf("invalid pid accepted")
	}
}

func TestRootFromFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("ST_CONFIG", "")
	t.Setenv("ST_TOOL", "")

	path := filepath.Join(t.TempDir(), "segv.txt")
	if err := os.WriteFile(path, []byte(testkit.GDBSegfault), 0o600); err != nil {
		t.Fatal(err)
	}
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"-f", path, "-U", "--no-pager", "--color", "off", "--quiet"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v\nstderr: %s", err, stderr.String())
	}
	out := stdout.String()
	if !strings.HasPrefix(out, "Number of thread: 1 -- 4242:\n") || !strings.HasSuffix(out, "Suspicious threads: 4242\n") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

// newTestRoot builds a root command with fresh flag state.
func newTestRoot() *cobra.Command {
	cmd := &cobra.Command{Use: "st", RunE: runRoot, SilenceUsage: true, SilenceErrors: true}
	addPersistentFlags(cmd)
	addRootFlags(cmd)
	return cmd
}

func parseRootOptions(t *testing.T, cfg *config.Config, args ...string) *rootOptions {
	t.Helper()
	cmd := newTestRoot()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v): %v", args, err)
	}
	opts, err := readRootOptions(cmd, cfg)
	if err != nil {
		t.Fatalf("readRootOptions(%v): %v", args, err)
	}
	return opts
}

func TestGDBFlagUsesGDBPath(t *testing.T) {
	cfg := config.Default()
	cfg.Collect.EUStack = "/opt/elfutils/bin/eu-stack"
	cfg.Collect.GDB = "/opt/gdb/bin/gdb"

	cases := []struct {
		args   []string
		binary string
	}{
		{[]string{"-G", "-p", "1"}, "/opt/gdb/bin/gdb"},
		{[]string{"-p", "1"}, "/opt/elfutils/bin/eu-stack"},
	}
	for _, tc := range cases {
		opts := parseRootOptions(t, &cfg, tc.args...)
		tool, err := collect.ToolByName(opts.tool, opts.toolPath)
		if err != nil {
			t.Fatalf("ToolByName(%q): %v", opts.tool, err)
		}
		if tool.Binary() != tc.binary {
			t.Errorf("%v runs %q, want %q", tc.args, tool.Binary(), tc.binary)
		}
	}
}

func TestCountNeedsInterval(t *testing.T) {
	cfg := config.Default()
	if opts := parseRootOptions(t, &cfg, "-p", "1", "-n", "3"); opts.sampled {
		t.Errorf("-n 3 alone enabled sampling")
	}
	if opts := parseRootOptions(t, &cfg, "-p", "1", "-n", "3", "-i", "0.5"); !opts.sampled || opts.interval != 0.5 {
		t.Errorf("-n 3 -i 0.5: sampled=%v interval=%v", opts.sampled, opts.interval)
	}
	cfg.Collect.Interval = 2
	if opts := parseRootOptions(t, &cfg, "-p", "1", "-n", "3"); !opts.sampled || opts.interval != 2 {
		t.Errorf("config interval: sampled=%v interval=%v", opts.sampled, opts.interval)
	}
}

type recordRunner struct {
	mu       sync.Mutex
	binaries []string
}

func (r *recordRunner) Run(_ context.Context, name string, _ []string) (collect.Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.binaries = append(r.binaries, name)
	return collect.Output{Stdout: "Thread 1 (Thread 0x1 (LWP 11) \"a\"):\n#0  0x1 in raise () from /usr/lib64/libc.so.6\n"}, nil
}

func TestMCPCollectUsesGDBPath(t *testing.T) {
	cfg := config.Default()
	cfg.Collect.EUStack = "/opt/elfutils/bin/eu-stack"
	cfg.Collect.GDB = "/opt/gdb/bin/gdb"
	runner := &recordRunner{}

	res, err := collectStacks(context.Background(), &cfg, runner, toolRequest("collect_stacks", map[string]any{
		"pids": "11",
		"gdb":  true,
	}))
	if err != nil {
		t.Fatalf("collectStacks: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if len(runner.binaries) != 1 || runner.binaries[0] != "/opt/gdb/bin/gdb" {
		t.Fatalf("binaries = %v, want [/opt/gdb/bin/gdb]", runner.binaries)
	}
}

func TestAwaitCollectCancelsAbandonedCollection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := mcpRunner{
		"1": {Stdout: "PID 1 - process\nTID 1:\n#0  0x1 a\n"},
		"2": {Stdout: "PID 2 - process\nTID 2:\n#0  0x1 a\n"},
	}
	o := &collect.Orchestrator{
		Tool:   collect.EUStack{},
		Runner: runner,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	plan := collect.Plan{
		Targets:  []collect.Target{collect.Process(1), collect.Process(2)},
		Sampling: collect.NewSampling(1, 50),
	}

	// nothing reads events, as after the display quit
	events := make(chan collect.Event, 1)
	outcomes := startCollect(ctx, o, plan, pipeline.Options{Unique: true}, events)

	done := make(chan collectOutcome, 1)
	go func() { done <- awaitCollect(events, outcomes, cancel) }()
	select {
	case out := <-done:
		var batch *collect.BatchError
		if !errors.As(out.err, &batch) || !errors.Is(out.err, context.Canceled) {
			t.Fatalf("err = %v, want cancelled batch", out.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("collection still running after the display quit")
	}
}

func TestRootHonorsCancelledContext(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("ST_CONFIG", "")
	t.Setenv("ST_TOOL", "")

	path := filepath.Join(t.TempDir(), "stacks.txt")
	if err := os.WriteFile(path, []byte(testkit.GDBCapture), 0o600); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newTestRoot()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"-f", path, "--no-pager", "--quiet"})
	if err := cmd.ExecuteContext(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("ExecuteContext = %v, want context.Canceled", err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("report written after cancellation:\n%s", stdout.String())
	}
}
