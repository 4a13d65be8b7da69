package logging

import (
	"sync"
	"time"
)

// TimeLayout is the millisecond UTC layout used for run log
// lines and payload timestamps.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// runLogStore is shared between a RunLog and its WithFields
// children so every line lands in one ordered list.
type runLogStore struct {
	mu        sync.Mutex
	lines     []string
	now       func() time.Time
	observers []func(line string)
}

// RunLog is the harness's in-page log. Every line is kept in
// memory in append order; exporters read a bounded tail.
type RunLog struct {
	store   *runLogStore
	fields  []Field
	verbose bool
}

// NewRunLog creates an empty run log. Debug lines are kept only
// when verbose is true.
func NewRunLog(verbose bool) *RunLog {
	return &RunLog{
		store:   &runLogStore{now: time.Now},
		verbose: verbose,
	}
}

// SetClock replaces the timestamp source. Intended for tests.
func (l *RunLog) SetClock(now func() time.Time) {
	l.store.mu.Lock()
	l.store.now = now
	l.store.mu.Unlock()
}

// OnLine registers an observer invoked with every appended line.
// Observers run outside the log's lock.
func (l *RunLog) OnLine(fn func(line string)) {
	l.store.mu.Lock()
	l.store.observers = append(l.store.observers, fn)
	l.store.mu.Unlock()
}

// Append stamps msg and appends it, returning the stored line.
func (l *RunLog) Append(msg string) string {
	s := l.store
	s.mu.Lock()
	line := "[" + s.now().UTC().Format(TimeLayout) + "] " + msg
	s.lines = append(s.lines, line)
	observers := append([]func(string){}, s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(line)
	}
	return line
}

// Lines returns a copy of every line in order.
func (l *RunLog) Lines() []string {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return append([]string(nil), l.store.lines...)
}

// Tail returns a copy of the last n lines in chronological
// order. n <= 0 yields an empty slice.
func (l *RunLog) Tail(n int) []string {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if n <= 0 {
		return []string{}
	}
	start := len(l.store.lines) - n
	if start < 0 {
		start = 0
	}
	return append([]string{}, l.store.lines[start:]...)
}

// Len returns the number of lines appended so far.
func (l *RunLog) Len() int {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return len(l.store.lines)
}

func (l *RunLog) write(prefix, msg string, fields []Field) {
	if all := mergeFields(l.fields, fields); len(all) > 0 {
		msg += " (" + formatFields(all) + ")"
	}
	l.Append(prefix + msg)
}

// Info appends msg as-is.
func (l *RunLog) Info(msg string, fields ...Field) {
	l.write("", msg, fields)
}

// Warn appends msg with a "warn: " prefix.
func (l *RunLog) Warn(msg string, fields ...Field) {
	l.write("warn: ", msg, fields)
}

// Error appends msg with an "error: " prefix.
func (l *RunLog) Error(msg string, fields ...Field) {
	l.write("error: ", msg, fields)
}

// Debug appends msg with a "debug: " prefix when verbose.
func (l *RunLog) Debug(msg string, fields ...Field) {
	if l.verbose {
		l.write("debug: ", msg, fields)
	}
}

// WithFields returns a child appending to the same log.
func (l *RunLog) WithFields(fields ...Field) Logger {
	return &RunLog{
		store:   l.store,
		fields:  mergeFields(l.fields, fields),
		verbose: l.verbose,
	}
}

// Close is a no-op; the log lives as long as its harness.
func (l *RunLog) Close() error { return nil }
