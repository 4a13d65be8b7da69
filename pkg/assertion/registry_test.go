package assertion

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(v any) Compute {
	return func(context.Context) (any, error) { return v, nil }
}

func TestRegistry_RegisterKeepsOrderAndDuplicates(t *testing.T) {
	reg := NewRegistry()
	reg.Register("first", 1, constant(1))
	reg.Register("dup", 2, constant(2))
	reg.Register("dup", 3, constant(3))

	cases := reg.Cases()
	require.Len(t, cases, 3)
	assert.Equal(t, "first", cases[0].Name())
	assert.Equal(t, 2, cases[1].Expected())
	assert.Equal(t, 3, cases[2].Expected())
	assert.Equal(t, 3, reg.Len())
	for _, c := range cases {
		assert.Equal(t, StatusUnknown, c.Status())
	}
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Register("c", nil, nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, reg.Len())
}

func TestCase_ResolveMatch(t *testing.T) {
	c := NewRegistry().Register("addition", 4, constant(4))

	v, err := c.Evaluate(context.Background())
	require.NoError(t, err)
	assert.True(t, c.Resolve(v))

	actual, ok := c.Actual()
	assert.True(t, ok)
	assert.Equal(t, 4, actual)
	assert.Equal(t, StatusPassed, c.Status())
	assert.Empty(t, c.Error())
}

func TestCase_ResolveMismatchHasNoError(t *testing.T) {
	c := NewRegistry().Register("mismatch", "x", constant("y"))

	assert.False(t, c.Resolve("y"))
	assert.Equal(t, StatusFailed, c.Status())
	assert.Empty(t, c.Error())
}

func TestCase_RejectClearsActual(t *testing.T) {
	c := NewRegistry().Register("throws", nil, constant(1))
	c.Resolve(1)

	c.Reject(errors.New("kaboom"))

	_, ok := c.Actual()
	assert.False(t, ok)
	assert.Equal(t, "kaboom", c.Error())
	assert.False(t, c.Passed())
}

func TestCase_EvaluateRecoversPanic(t *testing.T) {
	c := NewRegistry().Register("panics", nil,
		func(context.Context) (any, error) { panic("bad") },
	)

	v, err := c.Evaluate(context.Background())
	assert.Nil(t, v)
	assert.EqualError(t, err, "panic: bad")
}

func TestCase_EvaluateWithoutCompute(t *testing.T) {
	c := NewRegistry().Register("empty", nil, nil)

	_, err := c.Evaluate(context.Background())
	assert.ErrorIs(t, err, ErrNoCompute)
}

type blankErr struct{}

func (blankErr) Error() string { return "" }

func TestFormatError(t *testing.T) {
	assert.Equal(t, "", FormatError(nil))
	assert.Equal(t, "x", FormatError(errors.New("x")))
	assert.Equal(t,
		"error of type assertion.blankErr",
		FormatError(blankErr{}),
	)
}

func TestRegistry_Snapshots(t *testing.T) {
	reg := NewRegistry()
	c := reg.Register("a", true, constant(true))
	c.Resolve(true)

	snaps := reg.Snapshots()
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].Pass)
	assert.True(t, snaps[0].HasActual)
	assert.Equal(t, "passed", snaps[0].Status.String())
}
