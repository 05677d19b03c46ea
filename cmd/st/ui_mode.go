package main

import (
	"fmt"
	"os"
	"strings"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// shouldUseTUI decides on the progress display. In auto mode it is shown on
// a terminal stderr when more than one target is collected.
func shouldUseTUI(mode uiMode, targets int) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return targets > 1 && isTerminal(os.Stderr)
	}
}

type colorMode string

func readColorMode(value string) (colorMode, error) {
	switch m := colorMode(strings.TrimSpace(strings.ToLower(value))); m {
	case "", "auto":
		return "auto", nil
	case "on", "off":
		return m, nil
	default:
		return "", fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

// enabled reports whether output to out is colored.
func (m colorMode) enabled(out *os.File) bool {
	switch m {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(out)
	}
}
