package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.harness/pkg/assertion"
	"digital.vasic.harness/pkg/config"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/metrics"
	"digital.vasic.harness/pkg/session"
)

func value(v any) assertion.Compute {
	return func(context.Context) (any, error) { return v, nil }
}

func failing(msg string) assertion.Compute {
	return func(context.Context) (any, error) { return nil, errors.New(msg) }
}

func TestRun_Addition(t *testing.T) {
	reg := assertion.NewRegistry()
	c := reg.Register("addition", 4, value(2+2))

	out, err := New(reg).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, c.Passed())
	assert.True(t, out.AllPass)
	assert.Equal(t, "PASS", out.Label())
}

func TestRun_Mismatch(t *testing.T) {
	reg := assertion.NewRegistry()
	c := reg.Register("mismatch", "x", value("y"))

	out, err := New(reg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, assertion.StatusFailed, c.Status())
	assert.Empty(t, c.Error())
	actual, ok := c.Actual()
	assert.True(t, ok)
	assert.Equal(t, "y", actual)
	assert.False(t, out.AllPass)
	assert.Equal(t, "FAIL", out.Label())
}

func TestRun_Throws(t *testing.T) {
	reg := assertion.NewRegistry()
	c := reg.Register("throws", nil, failing("kaput"))

	out, err := New(reg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, assertion.StatusFailed, c.Status())
	assert.Equal(t, "kaput", c.Error())
	_, ok := c.Actual()
	assert.False(t, ok)
	assert.Equal(t, 1, out.Fail)
}

func TestRun_Panic(t *testing.T) {
	reg := assertion.NewRegistry()
	c := reg.Register("panics", 1, func(context.Context) (any, error) {
		panic("bad state")
	})
	after := reg.Register("after", 1, value(1))

	out, err := New(reg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "panic: bad state", c.Error())
	assert.True(t, after.Passed())
	assert.Equal(t, 1, out.Pass)
	assert.Equal(t, 1, out.Fail)
}

func TestRun_SequentialInOrder(t *testing.T) {
	reg := assertion.NewRegistry()
	var (
		mu     sync.Mutex
		order  []string
		active int
		peak   int
	)
	step := func(name string) assertion.Compute {
		return func(context.Context) (any, error) {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			order = append(order, name)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			return name, nil
		}
	}
	for _, n := range []string{"a", "b", "c", "d"} {
		reg.Register(n, n, step(n))
	}

	out, err := New(reg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
	assert.Equal(t, 1, peak)
	assert.Equal(t, 4, out.Total)
	for i, s := range out.Cases {
		assert.Equal(t, order[i], s.Name)
	}
}

func TestRun_EmptyRegistry(t *testing.T) {
	out, err := New(assertion.NewRegistry()).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, out.AllPass)
	assert.Zero(t, out.Total)
	assert.Empty(t, out.Cases)
}

func TestRun_EveryCaseSettles(t *testing.T) {
	reg := assertion.NewRegistry()
	reg.Register("ok", 1, value(1))
	reg.Register("bad", 1, value(2))
	reg.Register("err", 1, failing("x"))
	reg.Register("nil compute", 1, nil)
	reg.Register("unserializable", 1, value(make(chan int)))

	out, err := New(reg).Run(context.Background())
	require.NoError(t, err)

	for _, c := range reg.Cases() {
		assert.NotEqual(t, assertion.StatusUnknown, c.Status(), c.Name())
	}
	assert.Equal(t, 1, out.Pass)
	assert.Equal(t, 4, out.Fail)
	assert.Equal(t, out.Total, out.Pass+out.Fail)
}

func TestRun_SessionMeta(t *testing.T) {
	reg := assertion.NewRegistry()
	reg.Register("a", 1, value(1))
	reg.Register("b", 1, value(2))
	sess := session.New(session.Options{TestName: "meta"})

	_, err := New(reg, WithSession(sess)).Run(context.Background())
	require.NoError(t, err)

	for key, want := range map[string]int{
		session.MetaActions: 2,
		session.MetaPass:    1,
		session.MetaFail:    1,
	} {
		got, ok := sess.Meta(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestRun_ViewportLine(t *testing.T) {
	log := logging.NewRunLog(false)
	r := New(
		assertion.NewRegistry(),
		WithLogger(log),
		WithViewport(func() config.Viewport {
			return config.Viewport{Width: 800, Height: 600}
		}),
	)

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	lines := log.Lines()
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "] Window size=800x600 (recommended 1280x960)")
}

func TestRun_StagesInOrder(t *testing.T) {
	reg := assertion.NewRegistry()
	reg.Register("a", 1, value(1))

	var calls []string
	stage := func(name string) Stage {
		return NewStage(name, func(_ context.Context, o *Outcome) error {
			calls = append(calls, name)
			assert.True(t, o.AllPass)
			return nil
		})
	}

	_, err := New(reg, WithStages(
		stage("render"), stage("encode"), stage("present"), stage("publish"),
	)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"render", "encode", "present", "publish"}, calls)
}

func TestRun_StagesShareOutcome(t *testing.T) {
	var seen string
	_, err := New(assertion.NewRegistry(), WithStages(
		NewStage("encode", func(_ context.Context, o *Outcome) error {
			o.Text = "encoded"
			return nil
		}),
		NewStage("present", func(_ context.Context, o *Outcome) error {
			seen = o.Text
			return nil
		}),
	)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "encoded", seen)
}

func TestRun_StageFailuresAreLogged(t *testing.T) {
	log := logging.NewRunLog(false)
	reached := false

	out, err := New(assertion.NewRegistry(),
		WithLogger(log),
		WithStages(
			NewStage("publish", func(context.Context, *Outcome) error {
				return errors.New("clipboard denied")
			}),
			NewStage("boom", func(context.Context, *Outcome) error {
				panic("stage bug")
			}),
			NewStage("nil", nil),
			NewStage("last", func(context.Context, *Outcome) error {
				reached = true
				return nil
			}),
		),
	).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, out.AllPass)
	assert.True(t, reached)

	lines := log.Lines()
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "warn: stage failed (stage=publish, error=clipboard denied)")
	assert.Contains(t, lines[2], "error: stage panicked (stage=boom, panic=stage bug)")
}

func TestRun_RejectsReentrantRun(t *testing.T) {
	reg := assertion.NewRegistry()
	started := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	reg.Register("slow", 1, func(context.Context) (any, error) {
		calls++
		close(started)
		<-release
		return 1, nil
	})

	r := New(reg)
	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background())
		done <- err
	}()

	<-started
	assert.True(t, r.Running())
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, calls)
	assert.False(t, r.Running())
}

func TestRun_CanceledBetweenCases(t *testing.T) {
	reg := assertion.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	first := reg.Register("first", 1, func(context.Context) (any, error) {
		cancel()
		return 1, nil
	})
	second := reg.Register("second", 1, value(1))

	out, err := New(reg).Run(ctx)
	require.NoError(t, err)

	assert.True(t, first.Passed())
	assert.Equal(t, assertion.StatusFailed, second.Status())
	assert.Equal(t, context.Canceled.Error(), second.Error())
	assert.False(t, out.AllPass)
}

func TestRun_Hooks(t *testing.T) {
	reg := assertion.NewRegistry()
	blocked := reg.Register("blocked", 1, value(1))
	open := reg.Register("open", 1, value(1))
	log := logging.NewRunLog(false)

	var post []string
	r := New(reg,
		WithLogger(log),
		WithPreHook(func(_ context.Context, c *assertion.Case) error {
			if c.Name() == "blocked" {
				return errors.New("denied")
			}
			return nil
		}),
		WithPostHook(func(_ context.Context, c *assertion.Case) error {
			post = append(post, c.Name())
			return errors.New("post")
		}),
	)

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "pre-hook failed: denied", blocked.Error())
	assert.True(t, open.Passed())
	assert.Equal(t, []string{"open"}, post)
	assert.Contains(t, log.Lines()[1], "warn: post-hook failed (case=open, error=post)")
}

func TestRun_Metrics(t *testing.T) {
	reg := assertion.NewRegistry()
	reg.Register("a", 1, value(1))
	reg.Register("b", 1, value(2))
	m := metrics.NewMemoryMetrics()

	r := New(reg, WithMetrics(m))
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, m.RunTotal())
	assert.Equal(t, 2, m.RunCount("FAIL"))
	assert.Equal(t, 2, m.CaseCount("a", true))
	assert.Equal(t, 2, m.CaseCount("b", false))
	assert.Zero(t, m.ActiveRuns())
}

func TestRun_Clock(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	out, err := New(assertion.NewRegistry(), WithClock(clock)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Second, out.Duration())
}

func TestRun_RerunReplacesResults(t *testing.T) {
	reg := assertion.NewRegistry()
	n := 0
	c := reg.Register("flip", 1, func(context.Context) (any, error) {
		n++
		if n == 1 {
			return nil, errors.New("first")
		}
		return 1, nil
	})

	r := New(reg)
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", c.Error())

	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, out.AllPass)
	assert.Empty(t, c.Error())
}
