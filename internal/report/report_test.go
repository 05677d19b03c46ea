package report

import (
	"strings"
	"testing"
	"time"

	"st/internal/group"
	"st/internal/suspect"
)

func TestRenderGroups(t *testing.T) {
	res := suspect.Result{Groups: []suspect.Annotated{
		{Group: group.Group{Text: "#0 a\n", IDs: []string{"1", "2"}}, Rendered: "#0 a\n"},
		{Group: group.Group{Text: "#0 b\n", IDs: []string{"3"}}, Rendered: "#0 b\n"},
	}}
	got := Render(res, Options{})
	want := "Number of thread: 2 -- 1, 2:\n#0 a\n\nNumber of thread: 1 -- 3:\n#0 b\n"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestRenderSuspiciousTrailer(t *testing.T) {
	res := suspect.Result{
		Groups: []suspect.Annotated{
			{Group: group.Group{Text: "#0 raise\n", IDs: []string{"5", "6"}}, Rendered: "#0 raise <---- HERE\n", Suspicious: true},
		},
		Suspicious: []string{"5", "6"},
	}
	got := Render(res, Options{Alert: func(s string) string { return "[" + s + "]" }})
	if !strings.HasSuffix(got, "\nSuspicious threads: [5, 6]") {
		t.Fatalf("Render = %q, want suspicious trailer", got)
	}
}

func TestSamplingHeader(t *testing.T) {
	cases := []struct {
		s    *Sampling
		want string
	}{
		{nil, ""},
		{&Sampling{Interval: time.Second, Count: 1}, ""},
		{&Sampling{Interval: 100 * time.Millisecond, Count: 3}, "Sampling: 3 samples every 0.1s"},
		{&Sampling{Interval: 2 * time.Second, Count: 5}, "Sampling: 5 samples every 2s"},
	}
	for _, tc := range cases {
		if got := tc.s.Header(); got != tc.want {
			t.Fatalf("Header(%+v) = %q, want %q", tc.s, got, tc.want)
		}
	}
	res := suspect.Result{Groups: []suspect.Annotated{
		{Group: group.Group{Text: "#0 a\n", IDs: []string{"1"}}, Rendered: "#0 a\n"},
	}}
	got := Render(res, Options{Sampling: &Sampling{Interval: time.Second, Count: 2}})
	if !strings.HasPrefix(got, "Sampling: 2 samples every 1s\nNumber of thread: 1 -- 1:") {
		t.Fatalf("Render = %q, want sampling prefix", got)
	}
	if got := Verbatim("raw", &Sampling{Interval: time.Second, Count: 2}); got != "Sampling: 2 samples every 1s\nraw" {
		t.Fatalf("Verbatim = %q", got)
	}
}
