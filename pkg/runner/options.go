package runner

import (
	"time"

	"digital.vasic.harness/pkg/config"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/metrics"
	"digital.vasic.harness/pkg/session"
)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the run log the runner writes to.
func WithLogger(logger logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithSession sets the session whose meta receives the counts.
func WithSession(s *session.Session) Option {
	return func(r *Runner) {
		r.session = s
	}
}

// WithStages appends completion stages. Stages run in the order
// given, after every case has settled.
func WithStages(stages ...Stage) Option {
	return func(r *Runner) {
		r.stages = append(r.stages, stages...)
	}
}

// WithPreHook adds a hook invoked before each case.
func WithPreHook(h Hook) Option {
	return func(r *Runner) {
		r.preHooks = append(r.preHooks, h)
	}
}

// WithPostHook adds a hook invoked after each case.
func WithPostHook(h Hook) Option {
	return func(r *Runner) {
		r.postHooks = append(r.postHooks, h)
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.RunMetrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithViewport sets the source of the viewport reported at the
// start of each run.
func WithViewport(fn func() config.Viewport) Option {
	return func(r *Runner) {
		r.viewport = fn
	}
}
