// Package script builds case computations from JavaScript
// sources and external commands.
package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"digital.vasic.harness/pkg/assertion"
)

// ErrPending is returned when a script's promise has not settled
// once the script and its queued jobs have finished.
var ErrPending = errors.New("promise still pending")

// JSOption configures a JavaScript computation.
type JSOption func(*jsConfig)

type jsConfig struct {
	globals map[string]any
}

// WithGlobal exposes value to the script as name.
func WithGlobal(name string, value any) JSOption {
	return func(c *jsConfig) {
		if c.globals == nil {
			c.globals = make(map[string]any)
		}
		c.globals[name] = value
	}
}

// JavaScript returns a computation evaluating src in a fresh
// runtime. The value of the last expression is the actual value;
// a returned promise is unwrapped once settled. Thrown values and
// rejections become errors. Cancelling ctx interrupts the script.
func JavaScript(src string, opts ...JSOption) assertion.Compute {
	cfg := &jsConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(ctx context.Context) (any, error) {
		vm := goja.New()
		vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
		for name, v := range cfg.globals {
			if err := vm.Set(name, v); err != nil {
				return nil, fmt.Errorf("set global %s: %w", name, err)
			}
		}

		stop := context.AfterFunc(ctx, func() {
			vm.Interrupt(ctx.Err())
		})
		defer stop()

		v, err := vm.RunString(src)
		if err != nil {
			return nil, describe(err)
		}
		return settle(v)
	}
}

func settle(v goja.Value) (any, error) {
	if v == nil {
		return nil, nil
	}
	p, ok := v.Export().(*goja.Promise)
	if !ok {
		return export(v), nil
	}

	switch p.State() {
	case goja.PromiseStateFulfilled:
		return export(p.Result()), nil
	case goja.PromiseStateRejected:
		return nil, fmt.Errorf("rejected: %s", p.Result().String())
	default:
		return nil, ErrPending
	}
}

func export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

func describe(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return fmt.Errorf("interrupted: %w", cause)
		}
		return errors.New("interrupted")
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return errors.New(exc.Value().String())
	}
	return err
}
