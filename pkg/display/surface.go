// Package display models the hosting page as an explicit context
// object. Every element is optional: a Surface with a missing view
// silently ignores calls aimed at it, so the harness keeps working
// on degraded pages.
package display

// Row is one rendered case.
type Row struct {
	Name string `json:"name"`
	// Expected is the HTML-escaped JSON text of the expected value.
	Expected string `json:"expected"`
	Pass     bool   `json:"pass"`
	Badge    string `json:"badge"`
}

// Code is a drawn optical matrix code.
type Code struct {
	Text string `json:"-"`
	Side int    `json:"side"`
	// Level is the recovery level the code was produced with.
	Level  string   `json:"level"`
	PNG    []byte   `json:"-"`
	Bitmap [][]bool `json:"-"`
}

// Box is a drawn status rectangle.
type Box struct {
	Side     int    `json:"side"`
	Color    string `json:"color"`
	Label    string `json:"label"`
	FontSize int    `json:"font_size"`
	Pass     bool   `json:"pass"`
}

// MetaView shows key/value status pairs.
type MetaView interface {
	SetMeta(key, value string)
}

// CaseView shows the per-case list.
type CaseView interface {
	RenderCases(rows []Row)
}

// BigView shows the aggregate PASS/FAIL indicator.
type BigView interface {
	SetBigResult(pass bool)
}

// LogView shows the scrolling run log.
type LogView interface {
	AppendLog(line string)
}

// ResultView hosts the result presentation.
type ResultView interface {
	ShowCode(code Code)
	ShowBox(box Box)
	Hide()
}

// Surface bundles the views of one hosting page. A nil Surface
// and nil views are valid.
type Surface struct {
	Meta   MetaView
	Cases  CaseView
	Big    BigView
	Log    LogView
	Result ResultView
}

// Bind builds a Surface from any value, attaching each view the
// value implements.
func Bind(v any) *Surface {
	s := &Surface{}
	if m, ok := v.(MetaView); ok {
		s.Meta = m
	}
	if c, ok := v.(CaseView); ok {
		s.Cases = c
	}
	if b, ok := v.(BigView); ok {
		s.Big = b
	}
	if l, ok := v.(LogView); ok {
		s.Log = l
	}
	if r, ok := v.(ResultView); ok {
		s.Result = r
	}
	return s
}

// SetMeta forwards to the meta view if present.
func (s *Surface) SetMeta(key, value string) {
	if s != nil && s.Meta != nil {
		s.Meta.SetMeta(key, value)
	}
}

// RenderCases forwards to the case view if present.
func (s *Surface) RenderCases(rows []Row) {
	if s != nil && s.Cases != nil {
		s.Cases.RenderCases(rows)
	}
}

// SetBigResult forwards to the big indicator if present.
func (s *Surface) SetBigResult(pass bool) {
	if s != nil && s.Big != nil {
		s.Big.SetBigResult(pass)
	}
}

// AppendLog forwards to the log view if present.
func (s *Surface) AppendLog(line string) {
	if s != nil && s.Log != nil {
		s.Log.AppendLog(line)
	}
}

// HasResult reports whether a result view is attached.
func (s *Surface) HasResult() bool {
	return s != nil && s.Result != nil
}

// ShowCode forwards to the result view if present.
func (s *Surface) ShowCode(code Code) {
	if s.HasResult() {
		s.Result.ShowCode(code)
	}
}

// ShowBox forwards to the result view if present.
func (s *Surface) ShowBox(box Box) {
	if s.HasResult() {
		s.Result.ShowBox(box)
	}
}

// Hide forwards to the result view if present.
func (s *Surface) Hide() {
	if s.HasResult() {
		s.Result.Hide()
	}
}

// Label returns "PASS" or "FAIL".
func Label(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
