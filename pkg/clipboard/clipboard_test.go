package clipboard

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.harness/pkg/logging"
)

type fakeStrategy struct {
	name      string
	available bool
	err       error
	written   []string
}

func (f *fakeStrategy) Name() string    { return f.name }
func (f *fakeStrategy) Available() bool { return f.available }
func (f *fakeStrategy) Write(text string) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, text)
	return nil
}

func TestPublisher_FirstStrategySucceeds(t *testing.T) {
	log := logging.NewRunLog(false)
	primary := &fakeStrategy{name: "primary", available: true}
	legacy := &fakeStrategy{name: "legacy", available: true}

	out := NewPublisher(log, primary, legacy).Publish(context.Background(), "payload")

	assert.True(t, out.Copied)
	assert.Equal(t, "primary", out.Strategy)
	assert.NoError(t, out.Err)
	assert.Equal(t, []string{"payload"}, primary.written)
	assert.Empty(t, legacy.written)
	require.Equal(t, 1, log.Len())
	assert.Contains(t, log.Lines()[0], "Copied QR text to clipboard")
}

func TestPublisher_FallsBackOnFailure(t *testing.T) {
	log := logging.NewRunLog(false)
	primary := &fakeStrategy{
		name: "primary", available: true, err: errors.New("denied"),
	}
	legacy := &fakeStrategy{name: "legacy", available: true}

	out := NewPublisher(log, primary, legacy).Publish(context.Background(), "p")

	assert.True(t, out.Copied)
	assert.Equal(t, "legacy", out.Strategy)
	assert.Equal(t, []string{"p"}, legacy.written)

	lines := log.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "warn: clipboard write failed")
	assert.Contains(t, lines[0], "error=denied")
}

func TestPublisher_SkipsUnavailable(t *testing.T) {
	primary := &fakeStrategy{name: "primary"}
	legacy := &fakeStrategy{name: "legacy", available: true}

	out := NewPublisher(nil, primary, legacy).Publish(context.Background(), "p")

	assert.True(t, out.Copied)
	assert.Equal(t, "legacy", out.Strategy)
}

func TestPublisher_AllFail(t *testing.T) {
	log := logging.NewRunLog(false)
	primary := &fakeStrategy{name: "primary"}
	legacy := &fakeStrategy{
		name: "legacy", available: true, err: errors.New("broken"),
	}

	out := NewPublisher(log, primary, legacy).Publish(context.Background(), "p")

	assert.False(t, out.Copied)
	assert.Equal(t, "legacy", out.Strategy)
	assert.EqualError(t, out.Err, "broken")

	lines := log.Lines()
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[len(lines)-1], "warn: Clipboard copy failed")
}

func TestPublisher_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	primary := &fakeStrategy{name: "primary", available: true}

	out := NewPublisher(nil, primary).Publish(ctx, "p")

	assert.False(t, out.Copied)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Empty(t, primary.written)
}

func TestOSC52Strategy_Write(t *testing.T) {
	var buf bytes.Buffer
	s := NewOSC52StrategyTo(&buf, -1)

	require.True(t, s.Available())
	require.NoError(t, s.Write("hi"))

	assert.Equal(t, "\x1b]52;c;aGk=\a", buf.String())
	assert.Equal(t, "osc52", s.Name())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestOSC52Strategy_WriteError(t *testing.T) {
	s := NewOSC52StrategyTo(failingWriter{}, -1)
	err := s.Write("hi")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "osc52 write"))
}

func TestOSC52Strategy_Unavailable(t *testing.T) {
	s := NewOSC52StrategyTo(nil, -1)
	assert.False(t, s.Available())
	assert.ErrorIs(t, s.Write("x"), ErrUnavailable)
}
