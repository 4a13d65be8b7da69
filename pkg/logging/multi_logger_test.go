package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type closeErrLogger struct {
	NullLogger
	err error
}

func (c closeErrLogger) Close() error { return c.err }

func TestMultiLogger_FansOut(t *testing.T) {
	a := NewRunLog(true)
	b := NewRunLog(true)
	m := NewMultiLogger(a, nil, b)

	m.Info("i")
	m.Warn("w")
	m.Error("e")
	m.Debug("d")
	m.WithFields(StringField("k", "v")).Info("child")

	assert.Equal(t, 5, a.Len())
	assert.Equal(t, 5, b.Len())
	assert.Contains(t, b.Lines()[4], "child (k=v)")
}

func TestMultiLogger_CloseReturnsLastError(t *testing.T) {
	first := errors.New("first")
	last := errors.New("last")
	m := NewMultiLogger(
		closeErrLogger{err: first},
		NullLogger{},
		closeErrLogger{err: last},
	)

	assert.Equal(t, last, m.Close())
	assert.NoError(t, NewMultiLogger().Close())
}
