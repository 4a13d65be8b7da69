// Package payload builds and encodes the result of a run into the
// compact JSON text that scanners and clipboards receive. The
// field names are the external contract; field order is not.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"digital.vasic.harness/pkg/assertion"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/session"
)

const (
	// Type identifies harness payloads.
	Type = "remote-browser-test"
	// Version is the current payload format version.
	Version = 1
	// LogWindow is the number of trailing log lines exported.
	LogWindow = 80
)

// ErrEmptyPayload is returned when decoding blank text.
var ErrEmptyPayload = errors.New("empty payload")

// CaseSummary is the exported view of one case.
type CaseSummary struct {
	Name     string `json:"name"`
	Pass     bool   `json:"pass"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Error    any    `json:"error"`
}

// ResultPayload is the immutable outcome of one run.
type ResultPayload struct {
	Type      string        `json:"type"`
	Version   int           `json:"version"`
	Test      string        `json:"test"`
	RunID     string        `json:"runId"`
	StartedAt string        `json:"startedAt"`
	EndedAt   string        `json:"endedAt"`
	Pass      bool          `json:"pass"`
	Summary   []CaseSummary `json:"summary"`
	Log       []string      `json:"log"`
}

// Build assembles a payload from the session, the cases and the
// run log tail. logTail is truncated to its last LogWindow lines;
// callers normally pass RunLog.Tail(LogWindow).
func Build(
	sess *session.Session,
	snapshots []assertion.Snapshot,
	logTail []string,
	endedAt time.Time,
) *ResultPayload {
	if len(logTail) > LogWindow {
		logTail = logTail[len(logTail)-LogWindow:]
	}

	p := &ResultPayload{
		Type:      Type,
		Version:   Version,
		Test:      sess.TestName(),
		RunID:     sess.RunID(),
		StartedAt: sess.StartedAtString(),
		EndedAt:   endedAt.UTC().Format(logging.TimeLayout),
		Pass:      true,
		Summary:   make([]CaseSummary, len(snapshots)),
		Log:       append([]string{}, logTail...),
	}

	for i, s := range snapshots {
		summary := CaseSummary{
			Name:     s.Name,
			Pass:     s.Pass,
			Expected: s.Expected,
		}
		if s.HasActual {
			summary.Actual = s.Actual
		}
		if s.Error != "" {
			summary.Error = s.Error
		}
		if !s.Pass {
			p.Pass = false
		}
		p.Summary[i] = summary
	}
	return p
}

// Encode serializes p as compact JSON without HTML escaping.
// Actual values that cannot be serialized are replaced by their
// Go-syntax description so the payload itself always encodes.
func Encode(p *ResultPayload) (string, error) {
	text, err := encode(p)
	if err == nil {
		return text, nil
	}

	safe := *p
	safe.Summary = make([]CaseSummary, len(p.Summary))
	for i, s := range p.Summary {
		if _, err := json.Marshal(s.Actual); err != nil {
			s.Actual = fmt.Sprintf("%#v", s.Actual)
		}
		if _, err := json.Marshal(s.Expected); err != nil {
			s.Expected = fmt.Sprintf("%#v", s.Expected)
		}
		safe.Summary[i] = s
	}
	return encode(&safe)
}

func encode(p *ResultPayload) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Decode parses payload text by field name.
func Decode(text string) (*ResultPayload, error) {
	if len(bytes.TrimSpace([]byte(text))) == 0 {
		return nil, ErrEmptyPayload
	}
	var p ResultPayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if p.Type != Type {
		return nil, fmt.Errorf("decode payload: unexpected type %q", p.Type)
	}
	return &p, nil
}
