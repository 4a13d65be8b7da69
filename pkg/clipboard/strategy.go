// Package clipboard copies payload text to the system clipboard,
// falling back to a terminal escape sequence where no clipboard
// service exists.
package clipboard

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/term"
)

// ErrUnavailable is returned by strategies asked to write when
// they are not available.
var ErrUnavailable = errors.New("clipboard strategy unavailable")

// Strategy is one way of placing text on a clipboard.
type Strategy interface {
	Name() string
	Available() bool
	Write(text string) error
}

// SystemStrategy uses the platform clipboard service.
type SystemStrategy struct{}

// Name returns "system".
func (SystemStrategy) Name() string { return "system" }

// Available reports whether a clipboard utility was found.
func (SystemStrategy) Available() bool { return !clipboard.Unsupported }

// Write replaces the clipboard contents with text.
func (s SystemStrategy) Write(text string) error {
	if !s.Available() {
		return ErrUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("system clipboard: %w", err)
	}
	return nil
}

// OSC52Strategy is the legacy path: the text is staged in a
// transient buffer and emitted as an OSC 52 escape sequence that
// the terminal copies to its clipboard.
type OSC52Strategy struct {
	out io.Writer
	fd  int
}

// NewOSC52Strategy writes sequences to stdout.
func NewOSC52Strategy() *OSC52Strategy {
	return &OSC52Strategy{out: os.Stdout, fd: int(os.Stdout.Fd())}
}

// NewOSC52StrategyTo writes sequences to w. fd is probed for
// terminal support; a negative fd skips the probe.
func NewOSC52StrategyTo(w io.Writer, fd int) *OSC52Strategy {
	return &OSC52Strategy{out: w, fd: fd}
}

// Name returns "osc52".
func (*OSC52Strategy) Name() string { return "osc52" }

// Available reports whether the output is a terminal.
func (s *OSC52Strategy) Available() bool {
	if s.out == nil {
		return false
	}
	return s.fd < 0 || term.IsTerminal(s.fd)
}

// Write emits the escape sequence in a single write.
func (s *OSC52Strategy) Write(text string) error {
	if !s.Available() {
		return ErrUnavailable
	}
	var buf bytes.Buffer
	buf.WriteString("\x1b]52;c;")
	buf.WriteString(base64.StdEncoding.EncodeToString([]byte(text)))
	buf.WriteString("\a")

	if _, err := s.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("osc52 write: %w", err)
	}
	buf.Reset()
	return nil
}
