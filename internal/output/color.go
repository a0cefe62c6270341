package output

import (
	"io"
	"os"
	"strings"

	"github.com/bimmerbailey/clog/internal/learner"
	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // Auto-detect based on TTY
	ColorAlways                  // Always use colors
	ColorNever                   // Never use colors
)

// ParseColorMode converts "auto", "always" or "never" to a ColorMode,
// defaulting to auto.
func ParseColorMode(s string) ColorMode {
	switch strings.ToLower(s) {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// shouldColorize determines if output should be colorized based on mode and TTY detection.
func shouldColorize(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorAuto:
		if f, ok := w.(*os.File); ok {
			return isTerminal(f)
		}
	}
	return false
}

// ColorizePattern renders slots like Template.Pattern, highlighting slots
// that hold more than one alternative.
func ColorizePattern(slots []learner.Slot) string {
	parts := make([]string, len(slots))
	for i, slot := range slots {
		if len(slot) == 1 {
			parts[i] = slot[0]
			continue
		}
		parts[i] = colorYellow + "(" + strings.Join(slot, "|") + ")" + colorReset
	}
	return strings.Join(parts, " ")
}
