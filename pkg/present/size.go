// Package present shows the encoded result of a run, either as a
// scannable code or as a colored status box, sized to the
// viewport and redrawn on resize without recomputation.
package present

import (
	"os"

	"golang.org/x/term"

	"digital.vasic.harness/pkg/config"
)

// Viewport is the visible area in pixels.
type Viewport = config.Viewport

// Sizing bounds the result side length.
type Sizing = config.Sizing

// DefaultSizing returns margin 120, min 320 and max 1600.
func DefaultSizing() Sizing {
	return Sizing{
		Margin:  config.DefaultMargin,
		MinSide: config.DefaultMinSide,
		MaxSide: config.DefaultMaxSide,
	}
}

// Side returns clamp(min(width, height) - margin, min, max).
// The result never leaves [MinSide, MaxSide], whatever the
// viewport.
func Side(v Viewport, s Sizing) int {
	side := v.Width
	if v.Height < side {
		side = v.Height
	}
	side -= s.Margin
	if side > s.MaxSide {
		side = s.MaxSide
	}
	if side < s.MinSide {
		side = s.MinSide
	}
	return side
}

// Terminal cell size in pixels used to approximate a viewport
// from a character grid.
const (
	cellWidth  = 8
	cellHeight = 16
)

// TerminalViewport approximates the viewport of the terminal on
// stdout. It reports false when stdout is not a terminal.
func TerminalViewport() (Viewport, bool) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return Viewport{}, false
	}
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return Viewport{}, false
	}
	return Viewport{Width: cols * cellWidth, Height: rows * cellHeight}, true
}
