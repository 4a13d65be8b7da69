// Package report renders finished harness runs: the per-case rows
// shown on a surface, and standalone HTML, JSON and Markdown
// documents of a run.
package report

import (
	"io"

	"digital.vasic.harness/pkg/display"
	"digital.vasic.harness/pkg/payload"
	"digital.vasic.harness/pkg/session"
)

// Reporter defines the interface for generating run reports.
type Reporter interface {
	// GenerateReport creates a report for a single run.
	GenerateReport(run *Run) ([]byte, error)

	// WriteReport writes a report to the specified writer.
	WriteReport(w io.Writer, run *Run) error
}

// Run is everything a report shows about one finished run.
type Run struct {
	Payload *payload.ResultPayload
	Meta    []session.Pair
	Rows    []display.Row
	// Code is the drawn result code, if one was produced.
	Code *display.Code
	// Box is the drawn status box, if the box mode was used.
	Box *display.Box
}

// NewRun builds a Run from a payload, deriving rows from its
// summary.
func NewRun(p *payload.ResultPayload, meta []session.Pair) *Run {
	return &Run{
		Payload: p,
		Meta:    meta,
		Rows:    SummaryRows(p.Summary),
	}
}

// Counts returns the number of passing and failing rows.
func (r *Run) Counts() (pass, fail int) {
	for _, row := range r.Rows {
		if row.Pass {
			pass++
		} else {
			fail++
		}
	}
	return pass, fail
}
