package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"digital.vasic.harness/pkg/assertion"
	"digital.vasic.harness/pkg/display"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/payload"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes the five markup-significant characters.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// ExpectedText returns the HTML-escaped JSON text of v. Values
// that cannot be serialized are described with fmt.
func ExpectedText(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return EscapeHTML(fmt.Sprint(v))
	}
	return EscapeHTML(strings.TrimRight(buf.String(), "\n"))
}

func newRow(name string, expected any, pass bool) display.Row {
	return display.Row{
		Name:     name,
		Expected: ExpectedText(expected),
		Pass:     pass,
		Badge:    display.Label(pass),
	}
}

// Rows converts case snapshots into display rows, in order.
func Rows(snapshots []assertion.Snapshot) []display.Row {
	rows := make([]display.Row, len(snapshots))
	for i, s := range snapshots {
		rows[i] = newRow(s.Name, s.Expected, s.Pass)
	}
	return rows
}

// SummaryRows converts payload summaries into display rows.
func SummaryRows(summary []payload.CaseSummary) []display.Row {
	rows := make([]display.Row, len(summary))
	for i, s := range summary {
		rows[i] = newRow(s.Name, s.Expected, s.Pass)
	}
	return rows
}

// Renderer writes case rows and the aggregate indicator to a
// surface. Rendering is idempotent; missing views are skipped.
type Renderer struct {
	logger logging.Logger
}

// NewRenderer creates a renderer. A nil logger is allowed.
func NewRenderer(logger logging.Logger) *Renderer {
	if logger == nil {
		logger = logging.NullLogger{}
	}
	return &Renderer{logger: logger}
}

// Render replaces the surface's case list and sets the big
// indicator.
func (r *Renderer) Render(
	surface *display.Surface,
	snapshots []assertion.Snapshot,
	allPass bool,
) {
	surface.RenderCases(Rows(snapshots))
	surface.SetBigResult(allPass)
	r.logger.Debug(
		"rendered cases",
		logging.IntField("cases", len(snapshots)),
		logging.StringField("result", display.Label(allPass)),
	)
}
