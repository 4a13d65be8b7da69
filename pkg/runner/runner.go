// Package runner evaluates registered cases one at a time, in
// registration order, and hands the settled outcome to a chain of
// completion stages.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"digital.vasic.harness/pkg/assertion"
	"digital.vasic.harness/pkg/config"
	"digital.vasic.harness/pkg/display"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/metrics"
	"digital.vasic.harness/pkg/payload"
	"digital.vasic.harness/pkg/session"
)

// ErrRunInProgress is returned when Run is called while another
// run has not finished.
var ErrRunInProgress = errors.New("run already in progress")

// RecommendedViewport is the viewport the result display is laid
// out for.
var RecommendedViewport = config.Viewport{Width: 1280, Height: 960}

// Hook is invoked before or after a case is evaluated. A failing
// pre-hook fails the case; a failing post-hook is logged.
type Hook func(ctx context.Context, c *assertion.Case) error

// StageFunc completes a run.
type StageFunc func(ctx context.Context, o *Outcome) error

// Stage is a named completion step.
type Stage struct {
	Name string
	Fn   StageFunc
}

// NewStage creates a Stage.
func NewStage(name string, fn StageFunc) Stage {
	return Stage{Name: name, Fn: fn}
}

// Outcome is the aggregate of one run. Stages may fill Payload
// and Text for the stages after them.
type Outcome struct {
	Cases     []assertion.Snapshot
	Total     int
	Pass      int
	Fail      int
	AllPass   bool
	StartedAt time.Time
	EndedAt   time.Time

	Payload *payload.ResultPayload
	Text    string
}

// Label returns "PASS" or "FAIL".
func (o *Outcome) Label() string { return display.Label(o.AllPass) }

// Duration returns the time spent evaluating cases.
func (o *Outcome) Duration() time.Duration {
	return o.EndedAt.Sub(o.StartedAt)
}

// Runner evaluates the cases of a registry.
type Runner struct {
	registry  *assertion.Registry
	logger    logging.Logger
	session   *session.Session
	stages    []Stage
	preHooks  []Hook
	postHooks []Hook
	metrics   metrics.RunMetrics
	now       func() time.Time
	viewport  func() config.Viewport

	running atomic.Bool
}

// New creates a Runner over reg.
func New(reg *assertion.Registry, opts ...Option) *Runner {
	r := &Runner{
		registry: reg,
		logger:   logging.NullLogger{},
		metrics:  metrics.NoopMetrics{},
		now:      time.Now,
		viewport: func() config.Viewport { return RecommendedViewport },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Running reports whether a run is in flight.
func (r *Runner) Running() bool { return r.running.Load() }

// Run evaluates every registered case sequentially, updates the
// session counts and invokes the completion stages in order. A
// second call while a run is in flight returns ErrRunInProgress
// without touching any case. Cancellation is observed between
// cases; cases not reached are failed with the context error.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer r.running.Store(false)

	r.metrics.IncrementRunTotal()
	r.metrics.SetActiveRuns(1)
	defer r.metrics.SetActiveRuns(0)

	v := r.viewport()
	r.logger.Info(fmt.Sprintf(
		"Window size=%dx%d (recommended %dx%d)",
		v.Width, v.Height,
		RecommendedViewport.Width, RecommendedViewport.Height,
	))

	outcome := &Outcome{StartedAt: r.now()}
	cases := r.registry.Cases()

	for i, c := range cases {
		if err := ctx.Err(); err != nil {
			r.logger.Warn(
				"run canceled",
				logging.IntField("remaining", len(cases)-i),
				logging.ErrorField(err),
			)
			for _, rest := range cases[i:] {
				rest.Reject(err)
				outcome.Fail++
				r.metrics.RecordCase(rest.Name(), false, 0)
			}
			break
		}

		start := r.now()
		pass := r.evaluate(ctx, c)
		r.metrics.RecordCase(c.Name(), pass, r.now().Sub(start))
		if pass {
			outcome.Pass++
		} else {
			outcome.Fail++
		}
	}

	outcome.Total = len(cases)
	outcome.AllPass = outcome.Fail == 0
	outcome.EndedAt = r.now()
	outcome.Cases = r.registry.Snapshots()

	if r.session != nil {
		r.session.SetMeta(session.MetaActions, outcome.Total)
		r.session.SetMeta(session.MetaPass, outcome.Pass)
		r.session.SetMeta(session.MetaFail, outcome.Fail)
	}

	for _, st := range r.stages {
		r.complete(ctx, st, outcome)
	}

	r.metrics.RecordRun(outcome.Label(), outcome.Duration())
	return outcome, nil
}

func (r *Runner) evaluate(ctx context.Context, c *assertion.Case) bool {
	for _, hook := range r.preHooks {
		if err := hook(ctx, c); err != nil {
			c.Reject(fmt.Errorf("pre-hook failed: %w", err))
			r.logger.Debug(
				"case failed",
				logging.StringField("case", c.Name()),
				logging.ErrorField(err),
			)
			return false
		}
	}

	pass := false
	value, err := c.Evaluate(ctx)
	if err != nil {
		c.Reject(err)
	} else {
		pass = c.Resolve(value)
	}
	r.logger.Debug(
		"case evaluated",
		logging.StringField("case", c.Name()),
		logging.StringField("result", display.Label(pass)),
	)

	for _, hook := range r.postHooks {
		if err := hook(ctx, c); err != nil {
			r.logger.Warn(
				"post-hook failed",
				logging.StringField("case", c.Name()),
				logging.ErrorField(err),
			)
		}
	}
	return pass
}

// complete runs one stage. Errors and panics are logged; the
// outcome's verdict is never changed.
func (r *Runner) complete(ctx context.Context, st Stage, o *Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error(
				"stage panicked",
				logging.StringField("stage", st.Name),
				logging.LogField("panic", rec),
			)
		}
	}()

	if st.Fn == nil {
		return
	}
	if err := st.Fn(ctx, o); err != nil {
		r.logger.Warn(
			"stage failed",
			logging.StringField("stage", st.Name),
			logging.ErrorField(err),
		)
	}
}
