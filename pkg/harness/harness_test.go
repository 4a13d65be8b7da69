package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.harness/pkg/assertion"
	"digital.vasic.harness/pkg/config"
	"digital.vasic.harness/pkg/display"
	"digital.vasic.harness/pkg/metrics"
	"digital.vasic.harness/pkg/payload"
	"digital.vasic.harness/pkg/present"
	"digital.vasic.harness/pkg/runner"
)

// page records everything drawn on it.
type page struct {
	mu     sync.Mutex
	meta   map[string]string
	rows   []display.Row
	big    []bool
	log    []string
	codes  []display.Code
	boxes  []display.Box
	hidden int
}

func newPage() *page { return &page{meta: map[string]string{}} }

func (p *page) SetMeta(k, v string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.meta[k] = v
}

func (p *page) RenderCases(rows []display.Row) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows = rows
}

func (p *page) SetBigResult(pass bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.big = append(p.big, pass)
}

func (p *page) AppendLog(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = append(p.log, line)
}

func (p *page) ShowCode(c display.Code) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.codes = append(p.codes, c)
}

func (p *page) ShowBox(b display.Box) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.boxes = append(p.boxes, b)
}

func (p *page) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hidden++
}

type fakeStrategy struct {
	err     error
	written []string
}

func (*fakeStrategy) Name() string    { return "fake" }
func (*fakeStrategy) Available() bool { return true }
func (f *fakeStrategy) Write(text string) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, text)
	return nil
}

func value(v any) assertion.Compute {
	return func(context.Context) (any, error) { return v, nil }
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func newHarness(p *page, opts ...Option) *Harness {
	base := []Option{WithSurface(display.Bind(p)), WithCopy(false)}
	return New(append(base, opts...)...)
}

func TestNew_SeedsMeta(t *testing.T) {
	p := newPage()
	h := newHarness(p, WithRunID("RUN-1"))

	assert.Equal(t, "Unnamed Test", p.meta["name"])
	assert.Equal(t, "RUN-1", p.meta["runId"])
	assert.Equal(t, h.Session().StartedAtString(), p.meta["startedAt"])
	assert.False(t, h.Presenter().Visible())
	assert.Nil(t, h.Last())
	assert.Nil(t, h.Report())
}

func TestRun_BoxPass(t *testing.T) {
	p := newPage()
	h := newHarness(p)
	h.Register("a", 1, value(1))
	h.Register("b", "x", value("x"))
	h.Register("c", []any{1, 2}, value([]int{1, 2}))

	out, err := h.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, out.AllPass)
	require.Len(t, p.boxes, 1)
	assert.Equal(t, "PASS", p.boxes[0].Label)
	assert.Equal(t, present.PassColor, p.boxes[0].Color)
	assert.Equal(t, 840, p.boxes[0].Side)
	assert.Equal(t, 210, p.boxes[0].FontSize)
	assert.Empty(t, p.codes)

	assert.Equal(t, []bool{true}, p.big)
	assert.Len(t, p.rows, 3)
	assert.Equal(t, "3", p.meta["actions"])
	assert.Equal(t, "3", p.meta["pass"])
	assert.Equal(t, "0", p.meta["fail"])
}

func TestRun_BoxFail(t *testing.T) {
	p := newPage()
	h := newHarness(p)
	h.Register("ok", 1, value(1))
	h.Register("bad", 1, value(2))

	out, err := h.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, out.AllPass)
	require.Len(t, p.boxes, 1)
	assert.Equal(t, "FAIL", p.boxes[0].Label)
	assert.Equal(t, present.FailColor, p.boxes[0].Color)
	assert.NotEqual(t, present.PassColor, p.boxes[0].Color)
	assert.Equal(t, "1", p.meta["fail"])
}

func TestRun_CodeResizeUsesCache(t *testing.T) {
	p := newPage()
	h := newHarness(p, WithUsingQRCode(true))

	var calls atomic.Int32
	h.Register("counted", 1, func(context.Context) (any, error) {
		calls.Add(1)
		return 1, nil
	})

	_, err := h.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, p.codes, 1)
	assert.Equal(t, 840, p.codes[0].Side)
	assert.Equal(t, 840, h.Side())

	h.OnResize(config.Viewport{Width: 800, Height: 600})

	require.Len(t, p.codes, 2)
	assert.Equal(t, 480, p.codes[1].Side)
	assert.Equal(t, p.codes[0].Text, p.codes[1].Text)
	assert.Equal(t, int32(1), calls.Load())

	text, pass, ok := h.Payload()
	require.True(t, ok)
	assert.True(t, pass)
	assert.Equal(t, p.codes[0].Text, text)
}

func TestResize_BeforeRunAndAfterDismiss(t *testing.T) {
	p := newPage()
	h := newHarness(p, WithUsingQRCode(true))
	h.Register("a", 1, value(1))

	h.OnResize(config.Viewport{Width: 800, Height: 600})
	assert.Empty(t, p.codes)

	_, err := h.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, p.codes, 1)
	assert.Equal(t, 480, p.codes[0].Side)

	h.Dismiss()
	assert.Equal(t, 1, p.hidden)
	assert.False(t, h.Presenter().Visible())

	h.Resize(config.Viewport{Width: 1920, Height: 1080})
	assert.Len(t, p.codes, 1)
	assert.Equal(t, 960, h.Side())
}

func TestRun_PayloadContents(t *testing.T) {
	p := newPage()
	h := newHarness(p,
		WithTestName("Payload Test"),
		WithRunID("RID"),
		WithClock(fixedClock()),
	)
	h.Register("sum", 3, value(3))
	h.Register("throws", nil, func(context.Context) (any, error) {
		return nil, errors.New("boom")
	})

	out, err := h.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Payload)

	decoded, err := payload.Decode(out.Text)
	require.NoError(t, err)
	assert.Equal(t, payload.Type, decoded.Type)
	assert.Equal(t, payload.Version, decoded.Version)
	assert.Equal(t, "Payload Test", decoded.Test)
	assert.Equal(t, "RID", decoded.RunID)
	assert.Equal(t, "2026-03-01T10:00:00.000Z", decoded.EndedAt)
	assert.False(t, decoded.Pass)
	require.Len(t, decoded.Summary, 2)
	assert.Equal(t, "boom", decoded.Summary[1].Error)
	assert.Nil(t, decoded.Summary[1].Actual)

	require.NotEmpty(t, decoded.Log)
	assert.Equal(t,
		"[2026-03-01T10:00:00.000Z] Window size=1280x960 (recommended 1280x960)",
		decoded.Log[0],
	)
	for _, line := range decoded.Log {
		assert.NotContains(t, line, "QR encoded length")
	}

	lines := h.Log().Lines()
	assert.Contains(t, lines[len(lines)-1], fmt.Sprintf("QR encoded length=%d", len(out.Text)))
	assert.Equal(t, lines, p.log)
}

func TestRun_LogWindow(t *testing.T) {
	p := newPage()
	h := newHarness(p)
	for i := 0; i < 100; i++ {
		h.Logger().Info(fmt.Sprintf("line %d", i))
	}
	h.Register("a", 1, value(1))

	out, err := h.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Payload.Log, payload.LogWindow)
	assert.Contains(t, out.Payload.Log[payload.LogWindow-1], "Window size=")

	h2 := newHarness(newPage(), WithLogWindow(5))
	h2.Register("a", 1, value(1))
	out, err = h2.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, out.Payload.Log, 1)
}

func TestUsingCode_Resolution(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		want   bool
		source config.Source
	}{
		{"default", nil, false, config.SourceDefault},
		{"query on", []Option{WithPageURL("https://host/t.html?qr=1")}, true, config.SourceSignal},
		{"query off", []Option{WithPageURL("https://host/t.html?qr=0")}, false, config.SourceSignal},
		{"query invalid", []Option{WithPageURL("https://host/t.html?qr=yes")}, false, config.SourceDefault},
		{
			"explicit wins",
			[]Option{WithPageURL("https://host/t.html?qr=1"), WithUsingQRCode(false)},
			false, config.SourceExplicit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(newPage(), tt.opts...)
			got := h.UsingCode()
			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.source, got.Source)
			if tt.want {
				assert.Equal(t, "code", h.Presenter().Mode().Name())
			} else {
				assert.Equal(t, "box", h.Presenter().Mode().Name())
			}
		})
	}
}

func TestRun_PublishesToClipboard(t *testing.T) {
	fake := &fakeStrategy{}
	h := New(WithSurface(display.Bind(newPage())), WithClipboard(fake))
	h.Register("a", 1, value(1))

	out, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{out.Text}, fake.written)
	assert.Contains(t, strings.Join(h.Log().Lines(), "\n"), "Copied QR text to clipboard")
}

func TestRun_ClipboardFailureKeepsOutcome(t *testing.T) {
	fake := &fakeStrategy{err: errors.New("denied")}
	h := New(WithClipboard(fake))
	h.Register("a", 1, value(1))

	out, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, out.AllPass)
	assert.True(t, h.Presenter().Visible())

	joined := strings.Join(h.Log().Lines(), "\n")
	assert.Contains(t, joined, "warn: clipboard write failed")
	assert.Contains(t, joined, "warn: Clipboard copy failed")
}

func TestRun_CopyDisabled(t *testing.T) {
	fake := &fakeStrategy{}
	h := New(WithCopy(false), WithClipboard(fake))
	h.Register("a", 1, value(1))

	_, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fake.written)
}

func TestTrigger_RunInProgress(t *testing.T) {
	h := newHarness(newPage())
	started := make(chan struct{})
	release := make(chan struct{})
	h.Register("slow", 1, func(context.Context) (any, error) {
		close(started)
		<-release
		return 1, nil
	})

	done := make(chan bool)
	go func() {
		pass, _ := h.Trigger(context.Background())
		done <- pass
	}()
	<-started

	_, err := h.Trigger(context.Background())
	assert.ErrorIs(t, err, runner.ErrRunInProgress)

	close(release)
	assert.True(t, <-done)
}

func TestRun_Rerun(t *testing.T) {
	p := newPage()
	h := newHarness(p)
	h.Register("a", 1, value(1))

	first, err := h.Run(context.Background())
	require.NoError(t, err)
	second, err := h.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.AllPass, second.AllPass)
	assert.Same(t, second, h.Last())
	assert.Len(t, p.boxes, 2)
}

func TestReport(t *testing.T) {
	h := newHarness(newPage())
	h.Register("a", 1, value(1))
	_, err := h.Run(context.Background())
	require.NoError(t, err)

	run := h.Report()
	require.NotNil(t, run)
	require.NotNil(t, run.Box)
	assert.Nil(t, run.Code)
	assert.Equal(t, "PASS", run.Box.Label)
	pass, fail := run.Counts()
	assert.Equal(t, 1, pass)
	assert.Equal(t, 0, fail)

	hc := newHarness(newPage(), WithUsingQRCode(true))
	hc.Register("a", 1, value(1))
	_, err = hc.Run(context.Background())
	require.NoError(t, err)

	run = hc.Report()
	require.NotNil(t, run)
	require.NotNil(t, run.Code)
	assert.NotEmpty(t, run.Code.PNG)
}

func TestFromConfig(t *testing.T) {
	f, err := config.Parse([]byte(strings.Join([]string{
		"test_name: From File",
		"run_id: CFG-1",
		"using_qr_code: true",
		"copy: false",
		"viewport: {width: 800, height: 600}",
	}, "\n")))
	require.NoError(t, err)

	h := New(FromConfig(f, nil))
	assert.Equal(t, "From File", h.Session().TestName())
	assert.Equal(t, "CFG-1", h.Session().RunID())
	assert.True(t, h.UsingCode().Value)
	assert.Equal(t, config.SourceExplicit, h.UsingCode().Source)
	assert.Equal(t, 480, h.Side())

	h = New(FromConfig(f, nil), WithTestName("Override"))
	assert.Equal(t, "Override", h.Session().TestName())
}

func TestFromConfig_ZeroFieldsKeepDefaults(t *testing.T) {
	h := New(FromConfig(&config.File{}, nil))
	assert.Equal(t, 840, h.Side())

	f, err := config.Parse([]byte("log_window: 0\nsizing: {max_side: 500}"))
	require.NoError(t, err)
	h = newHarness(newPage(), FromConfig(f, nil))
	assert.Equal(t, 500, h.Side())
	h.Register("a", 1, value(1))
	_, err = h.Run(context.Background())
	require.NoError(t, err)

	text, _, ok := h.Payload()
	require.True(t, ok)
	decoded, err := payload.Decode(text)
	require.NoError(t, err)
	assert.NotEmpty(t, decoded.Log)
}

func TestMetricsAndRedaction(t *testing.T) {
	m := metrics.NewMemoryMetrics()
	h := newHarness(newPage(), WithMetrics(m), WithRedaction("supersecret"))
	h.Register("a", 1, value(1))

	h.Logger().Info("token supersecret")
	_, err := h.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, m.RunTotal())
	assert.Equal(t, 1, m.RunCount("PASS"))
	assert.Contains(t, h.Log().Lines()[0], "supe*******")
	assert.NotContains(t, h.Log().Lines()[0], "supersecret")
}

func TestNew_LogsRedactedPage(t *testing.T) {
	h := newHarness(newPage(),
		WithVerbose(true),
		WithPageURL("https://host/t.html?qr=1&token=abcdefghijkl"),
	)

	lines := h.Log().Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "debug: presentation mode resolved (mode=code, source=signal, page=")
	assert.Contains(t, lines[0], "token=abcd%2A%2A%2A%2Aijkl")
	assert.NotContains(t, lines[0], "abcdefghijkl")
}
