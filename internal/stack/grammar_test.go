package stack

import (
	"errors"
	"strings"
	"testing"

	"st/internal/testkit"
)

func threadIDs(res *Result) []string {
	ids := make([]string, len(res.Threads))
	for i, th := range res.Threads {
		ids[i] = th.ID
	}
	return ids
}

func TestEUStackParse(t *testing.T) {
	res, err := EUStack.Parse(testkit.EUStackCapture)
	if err != nil {
		t.Fatalf("EUStack.Parse: %v", err)
	}
	got := strings.Join(threadIDs(res), ",")
	if got != "14794,14818,14820,14822" {
		t.Fatalf("thread ids = %q, want 14794,14818,14820,14822", got)
	}
	if n := len(res.Threads[0].Frames); n != 5 {
		t.Fatalf("len(frames[0]) = %d, want 5", n)
	}
	if res.Threads[2].Text() != res.Threads[3].Text() {
		t.Fatalf("threads 14820 and 14822 should share a stack")
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func TestGDBParseUsesLWP(t *testing.T) {
	res, err := GDB.Parse(testkit.GDBCapture)
	if err != nil {
		t.Fatalf("GDB.Parse: %v", err)
	}
	got := strings.Join(threadIDs(res), ",")
	if got != "37746,37748,37747" {
		t.Fatalf("thread ids = %q, want 37746,37748,37747", got)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("detach line must not warn, got %v", res.Warnings)
	}
	if n := len(res.Threads[1].Frames); n != 10 {
		t.Fatalf("len(frames[1]) = %d, want 10", n)
	}
}

func TestGDBHeader(t *testing.T) {
	cases := []struct {
		line string
		tid  string
		lwp  string
	}{
		{`Thread 15 (Thread 0x7fa1aea006c0 (LWP 1175) "waybar"):`, "15", "1175"},
		{`Thread 13 (LWP 258729 "tokio-runtime-w"):`, "13", "258729"},
	}
	for _, tc := range cases {
		m := reGDBThread.FindStringSubmatch(tc.line)
		if m == nil {
			t.Fatalf("header %q did not match", tc.line)
		}
		if got := m[reGDBThread.SubexpIndex("tid")]; got != tc.tid {
			t.Fatalf("tid(%q) = %q, want %q", tc.line, got, tc.tid)
		}
		if got := m[reGDBThread.SubexpIndex("lwp")]; got != tc.lwp {
			t.Fatalf("lwp(%q) = %q, want %q", tc.line, got, tc.lwp)
		}
	}
}

func TestFormatMismatch(t *testing.T) {
	cases := []struct {
		grammar *Grammar
		input   string
	}{
		{EUStack, testkit.GDBCapture},
		{GDB, testkit.EUStackCapture},
		{EUStack, ""},
		{GDB, "no threads here\n"},
	}
	for _, tc := range cases {
		res, err := tc.grammar.Parse(tc.input)
		if err == nil {
			t.Fatalf("%s.Parse succeeded with %d threads, want mismatch", tc.grammar.Name, len(res.Threads))
		}
		if !errors.Is(err, ErrFormatMismatch) {
			t.Fatalf("%s.Parse error = %v, want ErrFormatMismatch", tc.grammar.Name, err)
		}
		var me *MismatchError
		if !errors.As(err, &me) || me.Format != tc.grammar.Name {
			t.Fatalf("%s.Parse error = %#v, want MismatchError naming the format", tc.grammar.Name, err)
		}
	}
}

func TestGDBWarnsAfterFirstHeader(t *testing.T) {
	input := "warning: banner before any thread\n" +
		`Thread 1 (Thread 0x1 (LWP 10) "a"):` + "\n" +
		"#0  0x1 in f () at a.c:1\n" +
		"garbage in the middle\n" +
		"#1  0x2 in main () at a.c:2\n"
	res, err := GDB.Parse(input)
	if err != nil {
		t.Fatalf("GDB.Parse: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", res.Warnings)
	}
	w := res.Warnings[0]
	if w.Line != 4 || w.Text != "garbage in the middle" {
		t.Fatalf("warning = %+v, want line 4 garbage", w)
	}
	if n := len(res.Threads[0].Frames); n != 2 {
		t.Fatalf("frames = %d, want 2 (parsing continues past the bad line)", n)
	}
}

func TestEUStackIgnoresUnknownLinesSilently(t *testing.T) {
	input := "PID 1 - process\nTID 1:\nnoise\n#0  0x1 main\n"
	res, err := EUStack.Parse(input)
	if err != nil {
		t.Fatalf("EUStack.Parse: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("warnings = %v, want none", res.Warnings)
	}
	if got := res.Threads[0].Text(); got != "#0  0x1 main\n" {
		t.Fatalf("text = %q", got)
	}
}

func TestEntriesBeforeFirstHeaderAreDropped(t *testing.T) {
	input := "PID 1 - process\n#0  0xdead orphan\nTID 2:\n#0  0x1 main\n"
	res, err := EUStack.Parse(input)
	if err != nil {
		t.Fatalf("EUStack.Parse: %v", err)
	}
	if len(res.Threads) != 1 || strings.Contains(res.Threads[0].Text(), "orphan") {
		t.Fatalf("threads = %+v, want a single thread without the orphan frame", res.Threads)
	}
}

func TestLastBlockIsCommitted(t *testing.T) {
	res, err := EUStack.Parse("PID 7 - process\nTID 7:\n#0  0x1 main")
	if err != nil {
		t.Fatalf("EUStack.Parse: %v", err)
	}
	if len(res.Threads) != 1 || res.Threads[0].ID != "7" {
		t.Fatalf("threads = %+v, want thread 7", res.Threads)
	}
}

func TestDetect(t *testing.T) {
	res, err := Detect(testkit.GDBCapture)
	if err != nil {
		t.Fatalf("Detect(gdb): %v", err)
	}
	if res.Format != FormatGDB {
		t.Fatalf("format = %q, want gdb", res.Format)
	}
	res, err = Detect(testkit.EUStackCapture)
	if err != nil {
		t.Fatalf("Detect(eu-stack): %v", err)
	}
	if res.Format != FormatEUStack {
		t.Fatalf("format = %q, want eu-stack", res.Format)
	}
	_, err = Detect("hello\nworld\n")
	if !errors.Is(err, ErrUnrecognizedFormat) || !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("Detect(garbage) error = %v, want unrecognized wrapping mismatches", err)
	}
}

func TestLookup(t *testing.T) {
	g, err := Lookup("GDB")
	if err != nil || g != GDB {
		t.Fatalf("Lookup(GDB) = %v, %v", g, err)
	}
	if _, err := Lookup("lldb"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("Lookup(lldb) error = %v, want ErrUnknownFormat", err)
	}
}

func TestParseByName(t *testing.T) {
	res, err := Parse(testkit.EUStackCapture, "auto")
	if err != nil || res.Format != FormatEUStack {
		t.Fatalf("Parse(auto) = %v, %v", res, err)
	}
	if _, err := Parse(testkit.EUStackCapture, "gdb"); !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("Parse(eu-stack text, gdb) error = %v, want mismatch", err)
	}
	if _, err := Parse("", "dtrace"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("Parse(dtrace) error = %v, want ErrUnknownFormat", err)
	}
}
