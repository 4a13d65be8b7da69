package clipboard

import (
	"context"

	"digital.vasic.harness/pkg/logging"
)

// Outcome describes one publish attempt. Failures are data; the
// caller's run is never affected.
type Outcome struct {
	Copied   bool
	Strategy string
	Err      error
}

// Publisher tries its strategies in order until one succeeds.
type Publisher struct {
	strategies []Strategy
	logger     logging.Logger
}

// NewPublisher creates a publisher. With no strategies the
// system clipboard is tried, then OSC 52 on stdout.
func NewPublisher(logger logging.Logger, strategies ...Strategy) *Publisher {
	if logger == nil {
		logger = logging.NullLogger{}
	}
	if len(strategies) == 0 {
		strategies = []Strategy{SystemStrategy{}, NewOSC52Strategy()}
	}
	return &Publisher{strategies: strategies, logger: logger}
}

// Publish copies text using the first available strategy that
// succeeds. Every outcome is logged.
func (p *Publisher) Publish(ctx context.Context, text string) Outcome {
	var last Outcome
	for _, s := range p.strategies {
		if err := ctx.Err(); err != nil {
			last = Outcome{Strategy: s.Name(), Err: err}
			break
		}
		if !s.Available() {
			p.logger.Debug(
				"clipboard strategy unavailable",
				logging.StringField("strategy", s.Name()),
			)
			last = Outcome{Strategy: s.Name(), Err: ErrUnavailable}
			continue
		}
		if err := s.Write(text); err != nil {
			p.logger.Warn(
				"clipboard write failed",
				logging.StringField("strategy", s.Name()),
				logging.ErrorField(err),
			)
			last = Outcome{Strategy: s.Name(), Err: err}
			continue
		}

		p.logger.Info(
			"Copied QR text to clipboard",
			logging.StringField("strategy", s.Name()),
			logging.IntField("length", len(text)),
		)
		return Outcome{Copied: true, Strategy: s.Name()}
	}

	p.logger.Warn("Clipboard copy failed", logging.ErrorField(last.Err))
	return last
}
