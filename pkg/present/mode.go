package present

import (
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"

	"digital.vasic.harness/pkg/display"
)

// Box colors.
const (
	PassColor = "#1f9d55"
	FailColor = "#d64545"
)

// ErrCodeCapacity is returned when the text does not fit a code
// at any recovery level.
var ErrCodeCapacity = errors.New("text exceeds code capacity")

// Mode draws a result into a surface. Implementations are
// CodeMode and BoxMode.
type Mode interface {
	Name() string
	Draw(surface *display.Surface, text string, allPass bool, side int) error
}

// ModeFor returns CodeMode when useCode is true, else BoxMode. png
// asks CodeMode to attach a PNG rendering.
func ModeFor(useCode, png bool) Mode {
	if useCode {
		return CodeMode{PNG: png}
	}
	return BoxMode{}
}

// levels are tried from the highest recovery level down.
var levels = []struct {
	level qrcode.RecoveryLevel
	name  string
}{
	{qrcode.Highest, "H"},
	{qrcode.High, "Q"},
	{qrcode.Medium, "M"},
	{qrcode.Low, "L"},
}

// EncodeCode builds a code for text at side pixels, starting at
// the highest recovery level and stepping down while the text
// does not fit. PNG data is rendered only when withPNG is set.
func EncodeCode(text string, side int, withPNG bool) (display.Code, error) {
	var lastErr error
	for _, l := range levels {
		q, err := qrcode.New(text, l.level)
		if err != nil {
			lastErr = err
			continue
		}

		code := display.Code{
			Text:   text,
			Side:   side,
			Level:  l.name,
			Bitmap: q.Bitmap(),
		}
		if withPNG {
			png, err := q.PNG(side)
			if err != nil {
				return display.Code{}, fmt.Errorf("render code png: %w", err)
			}
			code.PNG = png
		}
		return code, nil
	}
	return display.Code{}, fmt.Errorf("%w: %v", ErrCodeCapacity, lastErr)
}

// CodeMode draws the text as a QR code.
type CodeMode struct {
	// PNG also renders image bytes for surfaces that show pixels.
	PNG bool
}

// Name returns "code".
func (CodeMode) Name() string { return "code" }

// Draw encodes text and shows it. The pass state is carried by
// the text itself.
func (m CodeMode) Draw(surface *display.Surface, text string, _ bool, side int) error {
	code, err := EncodeCode(text, side, m.PNG)
	if err != nil {
		return err
	}
	surface.ShowCode(code)
	return nil
}

// BoxMode draws a square colored by the aggregate result.
type BoxMode struct{}

// Name returns "box".
func (BoxMode) Name() string { return "box" }

// Draw shows the status box. It never fails.
func (BoxMode) Draw(surface *display.Surface, _ string, allPass bool, side int) error {
	surface.ShowBox(NewBox(allPass, side))
	return nil
}

// NewBox returns the status box for a result at side pixels.
func NewBox(allPass bool, side int) display.Box {
	color := FailColor
	if allPass {
		color = PassColor
	}
	return display.Box{
		Side:     side,
		Color:    color,
		Label:    display.Label(allPass),
		FontSize: side / 4,
		Pass:     allPass,
	}
}
