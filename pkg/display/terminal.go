package display

import (
	"fmt"
	"html"
	"io"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/width"
)

const (
	ansiReset = "\033[0m"
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
	bgGreen   = "\033[42;97m"
	bgRed     = "\033[41;97m"
)

// TerminalOption configures a Terminal surface.
type TerminalOption func(*Terminal)

// WithColor toggles ANSI colors.
func WithColor(enabled bool) TerminalOption {
	return func(t *Terminal) { t.color = enabled }
}

// WithLogEcho toggles printing run log lines as they arrive.
func WithLogEcho(enabled bool) TerminalOption {
	return func(t *Terminal) { t.echoLog = enabled }
}

// WithMetaEcho toggles printing meta updates.
func WithMetaEcho(enabled bool) TerminalOption {
	return func(t *Terminal) { t.echoMeta = enabled }
}

// Terminal renders every view as text on a writer.
type Terminal struct {
	mu       sync.Mutex
	out      io.Writer
	color    bool
	echoLog  bool
	echoMeta bool
	shown    bool
}

// NewTerminal creates a terminal surface on w. Colors are on and
// log/meta echo off by default.
func NewTerminal(w io.Writer, opts ...TerminalOption) *Terminal {
	t := &Terminal{out: w, color: true}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Surface returns a Surface with every view bound to t.
func (t *Terminal) Surface() *Surface { return Bind(t) }

func (t *Terminal) paint(code, s string) string {
	if !t.color {
		return s
	}
	return code + s + ansiReset
}

// SetMeta prints "key: value" when meta echo is on.
func (t *Terminal) SetMeta(key, value string) {
	if !t.echoMeta {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "%s %s\n", t.paint(ansiGray, key+":"), value)
}

// RenderCases prints one line per case, names padded to a common
// column.
func (t *Terminal) RenderCases(rows []Row) {
	t.mu.Lock()
	defer t.mu.Unlock()
	col := 0
	for _, r := range rows {
		col = max(col, Cells(r.Name))
	}
	for _, r := range rows {
		badge := t.paint(ansiRed, "FAIL")
		if r.Pass {
			badge = t.paint(ansiGreen, "PASS")
		}
		fmt.Fprintf(
			t.out, "%s  %s  %s\n",
			badge, r.Name+strings.Repeat(" ", col-Cells(r.Name)),
			t.paint(ansiGray, "exp: "+html.UnescapeString(r.Expected)),
		)
	}
}

// Cells returns the number of terminal columns s occupies: wide and
// fullwidth runes take two, combining marks none.
func Cells(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r):
		case width.LookupRune(r).Kind() == width.EastAsianWide,
			width.LookupRune(r).Kind() == width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// SetBigResult prints the aggregate verdict.
func (t *Terminal) SetBigResult(pass bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	color := ansiRed
	if pass {
		color = ansiGreen
	}
	fmt.Fprintf(t.out, "\n%s\n\n", t.paint(ansiBold+color, "== "+Label(pass)+" =="))
}

// AppendLog prints the line when log echo is on.
func (t *Terminal) AppendLog(line string) {
	if !t.echoLog {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, t.paint(ansiGray, line))
}

// ShowCode prints the code as half-block characters.
func (t *Terminal) ShowCode(code Code) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shown = true
	fmt.Fprint(t.out, HalfBlocks(code.Bitmap))
	fmt.Fprintf(
		t.out, "%s\n",
		t.paint(ansiGray, fmt.Sprintf("(%d bytes, level %s)", len(code.Text), code.Level)),
	)
}

// ShowBox prints a colored banner holding the label. The banner
// width follows the box side at one column per 16 pixels.
func (t *Terminal) ShowBox(box Box) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shown = true

	width := box.Side / 16
	if width < len(box.Label)+4 {
		width = len(box.Label) + 4
	}
	pad := (width - len(box.Label)) / 2
	line := strings.Repeat(" ", pad) + box.Label +
		strings.Repeat(" ", width-pad-len(box.Label))
	blank := strings.Repeat(" ", width)

	bg := bgRed
	if box.Pass {
		bg = bgGreen
	}
	for _, l := range []string{blank, line, blank} {
		fmt.Fprintln(t.out, t.paint(bg, l))
	}
}

// Hide prints a dismissal notice if a result was shown.
func (t *Terminal) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.shown {
		return
	}
	t.shown = false
	fmt.Fprintln(t.out, t.paint(ansiGray, "(result dismissed)"))
}

// HalfBlocks renders a bitmap two rows per text line using the
// upper/lower half block characters. True cells are dark.
func HalfBlocks(bitmap [][]bool) string {
	var b strings.Builder
	for y := 0; y < len(bitmap); y += 2 {
		for x := range bitmap[y] {
			top := bitmap[y][x]
			bottom := y+1 < len(bitmap) && x < len(bitmap[y+1]) && bitmap[y+1][x]
			switch {
			case top && bottom:
				b.WriteRune(' ')
			case top:
				b.WriteRune('▄')
			case bottom:
				b.WriteRune('▀')
			default:
				b.WriteRune('█')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
