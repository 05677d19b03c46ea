package pager

import (
	"bytes"
	"os"
	"os/exec"
	"testing"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestCommand(t *testing.T) {
	cases := []struct {
		configured string
		vars       map[string]string
		want       string
	}{
		{"most", map[string]string{"PAGER": "more"}, "most"},
		{"", map[string]string{"PAGER": "more"}, "more"},
		{"  ", nil, DefaultCommand},
	}
	for _, tc := range cases {
		if got := Command(tc.configured, env(tc.vars)); got != tc.want {
			t.Errorf("Command(%q) = %q, want %q", tc.configured, got, tc.want)
		}
	}
}

func TestWanted(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if Wanted(false, f, env(nil)) {
		t.Errorf("a regular file is not a terminal")
	}
	if Wanted(true, os.Stdout, env(nil)) {
		t.Errorf("--no-pager ignored")
	}
	if Wanted(false, os.Stdout, env(map[string]string{"TERM": "dumb"})) {
		t.Errorf("TERM=dumb ignored")
	}
}

func TestStartPipesThrough(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	var out bytes.Buffer
	p, err := Start("cat", &out, &out)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := p.Write([]byte("Number of thread: 1 -- 7:\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if out.String() != "Number of thread: 1 -- 7:\n" {
		t.Fatalf("pager output = %q", out.String())
	}
}

func TestStartEmpty(t *testing.T) {
	if _, err := Start("  ", nil, nil); err == nil {
		t.Fatalf("Start(empty) succeeded")
	}
}
