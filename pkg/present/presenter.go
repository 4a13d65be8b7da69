package present

import (
	"sync"

	"digital.vasic.harness/pkg/display"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/payload"
)

// Option configures a Presenter.
type Option func(*Presenter)

// WithSizing overrides the side length bounds.
func WithSizing(s Sizing) Option {
	return func(p *Presenter) { p.sizing = s }
}

// WithViewport sets the initial viewport.
func WithViewport(v Viewport) Option {
	return func(p *Presenter) { p.viewport = v }
}

// WithLogger sets the logger for fallbacks and redraws.
func WithLogger(l logging.Logger) Option {
	return func(p *Presenter) { p.logger = l }
}

// Presenter owns the result overlay. It is hidden until the first
// Present and hidden again by Dismiss. Redraws read the cache and
// never recompute the payload.
type Presenter struct {
	surface *display.Surface
	mode    Mode
	sizing  Sizing
	logger  logging.Logger
	cache   *payload.Cache

	mu       sync.Mutex
	viewport Viewport
	visible  bool
	drawn    string
}

// NewPresenter creates a presenter drawing into surface with
// mode. A nil mode means BoxMode.
func NewPresenter(surface *display.Surface, mode Mode, opts ...Option) *Presenter {
	if mode == nil {
		mode = BoxMode{}
	}
	p := &Presenter{
		surface:  surface,
		mode:     mode,
		sizing:   DefaultSizing(),
		logger:   logging.NullLogger{},
		cache:    &payload.Cache{},
		viewport: Viewport{Width: 1280, Height: 960},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode returns the configured mode.
func (p *Presenter) Mode() Mode { return p.mode }

// Cache returns the payload cache the presenter draws from.
func (p *Presenter) Cache() *payload.Cache { return p.cache }

// Present caches text, draws it and makes the overlay visible.
func (p *Presenter) Present(text string, allPass bool) {
	p.cache.Store(text, allPass)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.drawLocked(text, allPass)
	p.visible = true
}

// OnResize records the new viewport and, when the overlay is
// visible, redraws the cached text at the new side length.
func (p *Presenter) OnResize(v Viewport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewport = v
	if !p.visible {
		return
	}
	text, pass, ok := p.cache.Load()
	if !ok {
		return
	}
	p.drawLocked(text, pass)
}

// Dismiss hides the overlay. The cache is kept.
func (p *Presenter) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.visible {
		return
	}
	p.visible = false
	p.surface.Hide()
	p.logger.Debug("result dismissed")
}

// Visible reports whether the overlay is shown.
func (p *Presenter) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Viewport returns the last known viewport.
func (p *Presenter) Viewport() Viewport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewport
}

// Drawn returns the name of the mode that drew the current
// result: the configured mode, or "box" after a fallback.
func (p *Presenter) Drawn() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drawn
}

func (p *Presenter) drawLocked(text string, allPass bool) {
	side := Side(p.viewport, p.sizing)
	err := p.mode.Draw(p.surface, text, allPass, side)
	if err == nil {
		p.drawn = p.mode.Name()
		return
	}

	p.logger.Warn(
		"result code unavailable, showing box",
		logging.ErrorField(err),
		logging.IntField("length", len(text)),
	)
	_ = BoxMode{}.Draw(p.surface, text, allPass, side)
	p.drawn = BoxMode{}.Name()
}
