// Package termsize caches the terminal size for the whole process.
//
// The size must be read before the pager takes over stdout, after which the
// descriptor is a pipe.
package termsize

import (
	"os"
	"sync"

	"golang.org/x/term"
)

// Fallback is used when stdout is not a terminal.
var Fallback = Size{Width: 80, Height: 24}

// Size is a terminal size in cells.
type Size struct {
	Width  int
	Height int
}

var (
	once   sync.Once
	cached Size
)

// Get returns the size of the terminal on stdout, queried once.
func Get() Size {
	once.Do(func() {
		cached = query(int(os.Stdout.Fd()))
	})
	return cached
}

func query(fd int) Size {
	if !term.IsTerminal(fd) {
		return Fallback
	}
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return Fallback
	}
	return Size{Width: w, Height: h}
}
