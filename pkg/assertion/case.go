package assertion

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Compute produces a case's actual value. It may block; the
// runner awaits it before moving to the next case.
type Compute func(ctx context.Context) (any, error)

// Status is the tri-state outcome of a case.
type Status int

const (
	// StatusUnknown means the case has not been evaluated yet.
	StatusUnknown Status = iota
	// StatusPassed means the actual value matched the expected one.
	StatusPassed
	// StatusFailed means a mismatch or a failed computation.
	StatusFailed
)

// String returns the status label.
func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrNoCompute is recorded for cases registered without a
// computation.
var ErrNoCompute = errors.New("no compute function registered")

// Case is one named assertion. Names are display labels and need
// not be unique.
type Case struct {
	name     string
	expected any
	compute  Compute

	mu        sync.RWMutex
	status    Status
	actual    any
	hasActual bool
	err       string
}

// Snapshot is a point-in-time copy of a case's state.
type Snapshot struct {
	Name      string `json:"name"`
	Expected  any    `json:"expected"`
	Status    Status `json:"-"`
	Pass      bool   `json:"pass"`
	Actual    any    `json:"actual"`
	HasActual bool   `json:"-"`
	Error     string `json:"error,omitempty"`
}

// Name returns the display label.
func (c *Case) Name() string { return c.name }

// Expected returns the expected value as registered.
func (c *Case) Expected() any { return c.expected }

// Status returns the current outcome.
func (c *Case) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Passed reports whether the last evaluation passed.
func (c *Case) Passed() bool { return c.Status() == StatusPassed }

// Actual returns the last computed value and whether one exists.
func (c *Case) Actual() (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.actual, c.hasActual
}

// Error returns the last failure description, or "".
func (c *Case) Error() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Evaluate invokes the computation. Panics are converted into
// errors so a single broken case cannot take down a run.
func (c *Case) Evaluate(ctx context.Context) (value any, err error) {
	if c.compute == nil {
		return nil, ErrNoCompute
	}
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.compute(ctx)
}

// Resolve records a successful computation and compares it with
// the expected value.
func (c *Case) Resolve(actual any) bool {
	pass := Equal(actual, c.expected)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.actual = actual
	c.hasActual = true
	c.err = ""
	if pass {
		c.status = StatusPassed
	} else {
		c.status = StatusFailed
	}
	return pass
}

// Reject records a failed computation. The actual value is
// cleared.
func (c *Case) Reject(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusFailed
	c.actual = nil
	c.hasActual = false
	c.err = FormatError(err)
}

// Snapshot copies the case state.
func (c *Case) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Name:      c.name,
		Expected:  c.expected,
		Status:    c.status,
		Pass:      c.status == StatusPassed,
		Actual:    c.actual,
		HasActual: c.hasActual,
		Error:     c.err,
	}
}

// FormatError returns a non-empty description of err, or "" for
// nil. Errors with an empty message are described by their type.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "error of type " + reflect.TypeOf(err).String()
}
