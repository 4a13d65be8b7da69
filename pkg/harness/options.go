package harness

import (
	"time"

	"digital.vasic.harness/pkg/clipboard"
	"digital.vasic.harness/pkg/config"
	"digital.vasic.harness/pkg/display"
	"digital.vasic.harness/pkg/env"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/metrics"
	"digital.vasic.harness/pkg/session"
)

// Option configures a Harness.
type Option func(*settings)

type settings struct {
	session    session.Options
	useCode    *bool
	signals    []config.Signal
	pageURL    string
	surface    *display.Surface
	loggers    []logging.Logger
	verbose    bool
	secrets    []string
	sizing     config.Sizing
	viewport   config.Viewport
	logWindow  int
	strategies []clipboard.Strategy
	copy       bool
	png        bool
	metrics    metrics.RunMetrics
	clock      func() time.Time
}

func defaultSettings() *settings {
	return &settings{
		sizing: config.Sizing{
			Margin:  config.DefaultMargin,
			MinSide: config.DefaultMinSide,
			MaxSide: config.DefaultMaxSide,
		},
		viewport:  config.Viewport{Width: 1280, Height: 960},
		logWindow: config.DefaultLogWindow,
		copy:      true,
		metrics:   metrics.NoopMetrics{},
	}
}

// WithTestName sets the test name shown in meta and the payload.
func WithTestName(name string) Option {
	return func(s *settings) { s.session.TestName = name }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(s *settings) { s.session.RunID = id }
}

// WithStartedAt overrides the session start time.
func WithStartedAt(t time.Time) Option {
	return func(s *settings) { s.session.StartedAt = t }
}

// WithUsingQRCode sets the presentation mode explicitly,
// overriding every signal.
func WithUsingQRCode(v bool) Option {
	return func(s *settings) { s.useCode = config.Bool(v) }
}

// WithSignals adds external toggle signals, consulted in order
// when no explicit mode is set.
func WithSignals(signals ...config.Signal) Option {
	return func(s *settings) { s.signals = append(s.signals, signals...) }
}

// WithPageURL reads the "qr" toggle from the query of a page
// address.
func WithPageURL(rawURL string) Option {
	return func(s *settings) {
		s.pageURL = rawURL
		s.signals = append(s.signals, config.QuerySignal(rawURL, config.DefaultQueryKey))
	}
}

// WithSurface sets the hosting surface. The default surface has
// no views.
func WithSurface(surface *display.Surface) Option {
	return func(s *settings) { s.surface = surface }
}

// WithLogger adds a logger that receives every run log entry.
// It may be given more than once.
func WithLogger(l logging.Logger) Option {
	return func(s *settings) { s.loggers = append(s.loggers, l) }
}

// WithVerbose keeps debug lines in the run log.
func WithVerbose(v bool) Option {
	return func(s *settings) { s.verbose = v }
}

// WithRedaction masks secrets in every log line.
func WithRedaction(secrets ...string) Option {
	return func(s *settings) { s.secrets = append(s.secrets, secrets...) }
}

// WithSizing overrides the result side bounds.
func WithSizing(sz config.Sizing) Option {
	return func(s *settings) { s.sizing = sz }
}

// WithViewport sets the initial viewport.
func WithViewport(v config.Viewport) Option {
	return func(s *settings) { s.viewport = v }
}

// WithLogWindow limits the exported log tail. Values above the
// payload window are capped by the encoder.
func WithLogWindow(n int) Option {
	return func(s *settings) { s.logWindow = n }
}

// WithClipboard replaces the clipboard strategies, tried in
// order. The default is the system clipboard, then OSC 52.
func WithClipboard(strategies ...clipboard.Strategy) Option {
	return func(s *settings) { s.strategies = strategies }
}

// WithCopy enables or disables clipboard publishing.
func WithCopy(v bool) Option {
	return func(s *settings) { s.copy = v }
}

// WithPNG renders code images for surfaces that show pixels.
func WithPNG(v bool) Option {
	return func(s *settings) { s.png = v }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.RunMetrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithClock replaces the time source for log lines and run
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.clock = now }
}

// FromConfig applies a config file. Environment variables read
// through l override the file; l may be nil. Options given after
// FromConfig override both. Zero sizing and log window fields keep
// the current values.
func FromConfig(f *config.File, l env.Loader) Option {
	return func(s *settings) {
		if f == nil {
			return
		}
		f.ApplyEnv(l)

		s.session.TestName = f.TestName
		s.session.RunID = f.RunID
		if t, err := f.StartTime(); err == nil {
			s.session.StartedAt = t
		}
		if f.UsingQRCode != nil {
			s.useCode = config.Bool(*f.UsingQRCode)
		}
		s.signals = append(s.signals, f.Signals(l)...)
		if f.PageURL != "" {
			s.pageURL = f.PageURL
		}
		if f.Viewport.Width > 0 && f.Viewport.Height > 0 {
			s.viewport = f.Viewport
		}
		if f.Sizing.Margin > 0 {
			s.sizing.Margin = f.Sizing.Margin
		}
		if f.Sizing.MinSide > 0 {
			s.sizing.MinSide = f.Sizing.MinSide
		}
		if f.Sizing.MaxSide > 0 {
			s.sizing.MaxSide = f.Sizing.MaxSide
		}
		if f.LogWindow > 0 {
			s.logWindow = f.LogWindow
		}
		if f.Copy != nil {
			s.copy = *f.Copy
		}
		s.secrets = append(s.secrets, f.Redact...)
		s.verbose = s.verbose || f.Verbose
	}
}
