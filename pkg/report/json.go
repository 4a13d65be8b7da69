package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"digital.vasic.harness/pkg/payload"
)

// ErrNoPayload is returned when a report is requested for a run
// without a payload.
var ErrNoPayload = errors.New("run has no payload")

// jsonMarshal and jsonMarshalIndent are replaced in tests.
var (
	jsonMarshal       = json.Marshal
	jsonMarshalIndent = json.MarshalIndent
)

// JSONReporter writes the run payload as JSON.
type JSONReporter struct {
	pretty bool
}

// NewJSONReporter creates a new JSON reporter. When pretty is
// true, output is indented for readability; otherwise it is the
// exact text a scanner would read.
func NewJSONReporter(pretty bool) *JSONReporter {
	return &JSONReporter{pretty: pretty}
}

// GenerateReport creates a JSON report for a single run.
func (r *JSONReporter) GenerateReport(run *Run) ([]byte, error) {
	if run == nil || run.Payload == nil {
		return nil, fmt.Errorf("generate json report: %w", ErrNoPayload)
	}
	if !r.pretty {
		text, err := payload.Encode(run.Payload)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	}

	data, err := jsonMarshalIndent(run.Payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return data, nil
}

// WriteReport writes a JSON report to the specified writer.
func (r *JSONReporter) WriteReport(w io.Writer, run *Run) error {
	data, err := r.GenerateReport(run)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
