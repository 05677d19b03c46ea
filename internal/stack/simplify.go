package stack

import "regexp"

// reFrameLocation matches the "in FUNC (ARGS) at|from LOCATION" tail of a gdb frame.
var reFrameLocation = regexp.MustCompile(`\s+in\s+(?P<func>.*?)\s+\(.*?\)\s+(at|from)\s+.*`)

// Simplify rewrites every gdb frame of the form
//
//	#3  0x000055723be89162 in func2 () at test.c:5
//
// to
//
//	#3  0x000055723be89162 func2
//
// Lines without a location suffix are left untouched, so Simplify is idempotent.
func Simplify(text string) string {
	return reFrameLocation.ReplaceAllString(text, " ${func}")
}
