// Package metrics records run and case counters for the harness.
package metrics

import "time"

// RunMetrics defines the interface for recording harness metrics.
type RunMetrics interface {
	// RecordRun records a finished run with its aggregate status.
	RecordRun(status string, duration time.Duration)
	// RecordCase records one evaluated case.
	RecordCase(name string, passed bool, duration time.Duration)
	// IncrementRunTotal increments the total run counter.
	IncrementRunTotal()
	// SetActiveRuns sets the gauge of in-flight runs.
	SetActiveRuns(count int)
}

// NoopMetrics is a no-op implementation of RunMetrics useful for
// testing or when metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordRun(_ string, _ time.Duration)          {}
func (NoopMetrics) RecordCase(_ string, _ bool, _ time.Duration) {}
func (NoopMetrics) IncrementRunTotal()                           {}
func (NoopMetrics) SetActiveRuns(_ int)                          {}
