// Package harness wires the session, registry, runner, renderer,
// encoder, presenter and clipboard publisher into one value that
// can be driven from a terminal or a browser page.
package harness

import (
	"context"
	"fmt"
	"sync"

	"digital.vasic.harness/pkg/assertion"
	"digital.vasic.harness/pkg/clipboard"
	"digital.vasic.harness/pkg/config"
	"digital.vasic.harness/pkg/display"
	"digital.vasic.harness/pkg/env"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/metrics"
	"digital.vasic.harness/pkg/payload"
	"digital.vasic.harness/pkg/present"
	"digital.vasic.harness/pkg/report"
	"digital.vasic.harness/pkg/runner"
	"digital.vasic.harness/pkg/session"
)

// Stage names, in execution order.
const (
	StageRender  = "render"
	StageEncode  = "encode"
	StagePresent = "present"
	StagePublish = "publish"
)

// Harness runs registered cases and presents their result.
type Harness struct {
	session   *session.Session
	registry  *assertion.Registry
	runLog    *logging.RunLog
	logger    logging.Logger
	surface   *display.Surface
	runner    *runner.Runner
	renderer  *report.Renderer
	presenter *present.Presenter
	publisher *clipboard.Publisher
	metrics   metrics.RunMetrics
	useCode   config.Resolution
	sizing    config.Sizing
	logWindow int
	copy      bool

	mu   sync.Mutex
	last *runner.Outcome
}

// New creates a harness. Meta is written to the surface
// immediately; nothing runs until Run.
func New(opts ...Option) *Harness {
	s := defaultSettings()
	for _, opt := range opts {
		opt(s)
	}

	surface := s.surface
	if surface == nil {
		surface = &display.Surface{}
	}

	runLog := logging.NewRunLog(s.verbose)
	if s.clock != nil {
		runLog.SetClock(s.clock)
	}
	runLog.OnLine(surface.AppendLog)

	var logger logging.Logger = runLog
	if len(s.loggers) > 0 {
		logger = logging.NewMultiLogger(append([]logging.Logger{runLog}, s.loggers...)...)
	}
	if len(s.secrets) > 0 {
		logger = logging.NewRedactingLogger(logger, s.secrets...)
	}

	sess := session.New(s.session)
	sess.Attach(surface)

	useCode := config.Resolve(s.useCode, false, s.signals...)
	mode := present.ModeFor(useCode.Value, s.png)

	h := &Harness{
		session:   sess,
		registry:  assertion.NewRegistry(),
		runLog:    runLog,
		logger:    logger,
		surface:   surface,
		renderer:  report.NewRenderer(logger),
		publisher: clipboard.NewPublisher(logger, s.strategies...),
		metrics:   s.metrics,
		useCode:   useCode,
		sizing:    s.sizing,
		logWindow: s.logWindow,
		copy:      s.copy,
	}
	h.presenter = present.NewPresenter(
		surface, mode,
		present.WithSizing(s.sizing),
		present.WithViewport(s.viewport),
		present.WithLogger(logger),
	)

	runnerOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithSession(sess),
		runner.WithMetrics(s.metrics),
		runner.WithViewport(h.presenter.Viewport),
		runner.WithStages(
			runner.NewStage(StageRender, h.render),
			runner.NewStage(StageEncode, h.encode),
			runner.NewStage(StagePresent, h.present),
			runner.NewStage(StagePublish, h.publish),
		),
	}
	if s.clock != nil {
		runnerOpts = append(runnerOpts, runner.WithClock(s.clock))
	}
	h.runner = runner.New(h.registry, runnerOpts...)

	fields := []logging.Field{
		logging.StringField("mode", mode.Name()),
		logging.StringField("source", string(useCode.Source)),
	}
	if s.pageURL != "" {
		fields = append(fields, logging.StringField("page", env.RedactURL(s.pageURL)))
	}
	logger.Debug("presentation mode resolved", fields...)
	return h
}

// Register appends a case. Cases may be registered between runs.
func (h *Harness) Register(name string, expected any, fn assertion.Compute) *assertion.Case {
	return h.registry.Register(name, expected, fn)
}

// Registry returns the case registry.
func (h *Harness) Registry() *assertion.Registry { return h.registry }

// Session returns the run identity.
func (h *Harness) Session() *session.Session { return h.session }

// Log returns the run log.
func (h *Harness) Log() *logging.RunLog { return h.runLog }

// Logger returns the logger every component writes to.
func (h *Harness) Logger() logging.Logger { return h.logger }

// Surface returns the hosting surface.
func (h *Harness) Surface() *display.Surface { return h.surface }

// Presenter returns the result presenter.
func (h *Harness) Presenter() *present.Presenter { return h.presenter }

// UsingCode reports the resolved presentation mode and where the
// decision came from.
func (h *Harness) UsingCode() config.Resolution { return h.useCode }

// Run evaluates every case and presents the result. It returns
// runner.ErrRunInProgress when a run is already in flight.
func (h *Harness) Run(ctx context.Context) (*runner.Outcome, error) {
	o, err := h.runner.Run(ctx)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.last = o
	h.mu.Unlock()
	return o, nil
}

// Trigger runs and reports the aggregate result.
func (h *Harness) Trigger(ctx context.Context) (bool, error) {
	o, err := h.Run(ctx)
	if err != nil {
		return false, err
	}
	return o.AllPass, nil
}

// Last returns the outcome of the most recent run, or nil.
func (h *Harness) Last() *runner.Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// OnResize redraws a visible result at the size for v, reading
// the cached payload.
func (h *Harness) OnResize(v config.Viewport) {
	h.presenter.OnResize(v)
}

// Resize is OnResize.
func (h *Harness) Resize(v config.Viewport) { h.OnResize(v) }

// Dismiss hides the result.
func (h *Harness) Dismiss() { h.presenter.Dismiss() }

// Payload returns the latest encoded payload text.
func (h *Harness) Payload() (text string, pass bool, ok bool) {
	return h.presenter.Cache().Load()
}

// Side returns the result side length for the current viewport.
func (h *Harness) Side() int {
	return present.Side(h.presenter.Viewport(), h.sizing)
}

// Report returns the last run as a report, with the result drawn
// the way the presenter draws it. It returns nil before the first
// run.
func (h *Harness) Report() *report.Run {
	o := h.Last()
	if o == nil || o.Payload == nil {
		return nil
	}
	run := report.NewRun(o.Payload, h.session.MetaSnapshot())

	side := h.Side()
	if h.useCode.Value {
		if code, err := present.EncodeCode(o.Text, side, true); err == nil {
			run.Code = &code
			return run
		}
	}
	box := present.NewBox(o.AllPass, side)
	run.Box = &box
	return run
}

// Close releases the configured loggers.
func (h *Harness) Close() error {
	return h.logger.Close()
}

func (h *Harness) render(_ context.Context, o *runner.Outcome) error {
	h.renderer.Render(h.surface, o.Cases, o.AllPass)
	return nil
}

func (h *Harness) encode(_ context.Context, o *runner.Outcome) error {
	p := payload.Build(h.session, o.Cases, h.runLog.Tail(h.logWindow), o.EndedAt)
	text, err := payload.Encode(p)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	o.Payload = p
	o.Text = text
	return nil
}

func (h *Harness) present(_ context.Context, o *runner.Outcome) error {
	h.presenter.Present(o.Text, o.AllPass)
	h.logger.Info(fmt.Sprintf("QR encoded length=%d", len(o.Text)))
	return nil
}

func (h *Harness) publish(ctx context.Context, o *runner.Outcome) error {
	if !h.copy || o.Text == "" {
		return nil
	}
	h.publisher.Publish(ctx, o.Text)
	return nil
}
