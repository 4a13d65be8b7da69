// Package session establishes the identity of a harness run and
// keeps the key/value status shown alongside it.
package session

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"digital.vasic.harness/pkg/display"
	"digital.vasic.harness/pkg/logging"
)

// DefaultTestName is used when Options.TestName is blank.
const DefaultTestName = "Unnamed Test"

// Meta keys written by the harness.
const (
	MetaName      = "name"
	MetaRunID     = "runId"
	MetaStartedAt = "startedAt"
	MetaActions   = "actions"
	MetaPass      = "pass"
	MetaFail      = "fail"
)

// Options carries construction-time identity. Zero values are
// replaced by defaults.
type Options struct {
	TestName  string
	RunID     string
	StartedAt time.Time
}

// Session is the identity of one harness instance. Meta is
// mutated throughout the harness lifetime; identity is fixed.
type Session struct {
	testName  string
	runID     string
	startedAt time.Time

	mu      sync.RWMutex
	keys    []string
	meta    map[string]any
	surface *display.Surface
}

// New applies defaults and seeds meta with name, runId and
// startedAt.
func New(opts Options) *Session {
	now := time.Now()
	s := &Session{
		testName:  opts.TestName,
		runID:     opts.RunID,
		startedAt: opts.StartedAt,
		meta:      make(map[string]any),
	}
	if strings.TrimSpace(s.testName) == "" {
		s.testName = DefaultTestName
	}
	if s.runID == "" {
		s.runID = NewRunID(now)
	}
	if s.startedAt.IsZero() {
		s.startedAt = now
	}

	s.SetMeta(MetaName, s.testName)
	s.SetMeta(MetaRunID, s.runID)
	s.SetMeta(MetaStartedAt, s.StartedAtString())
	return s
}

// TestName returns the test name.
func (s *Session) TestName() string { return s.testName }

// RunID returns the run identifier.
func (s *Session) RunID() string { return s.runID }

// StartedAt returns the start time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// StartedAtString returns the start time in payload format.
func (s *Session) StartedAtString() string {
	return s.startedAt.UTC().Format(logging.TimeLayout)
}

// Attach mirrors meta into surface: every existing pair is
// written immediately, later updates as they happen.
func (s *Session) Attach(surface *display.Surface) {
	s.mu.Lock()
	s.surface = surface
	pairs := s.snapshotLocked()
	s.mu.Unlock()

	for _, p := range pairs {
		surface.SetMeta(p.Key, fmt.Sprint(p.Value))
	}
}

// SetMeta stores a value and mirrors it to the attached surface.
func (s *Session) SetMeta(key string, value any) {
	s.mu.Lock()
	if _, ok := s.meta[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.meta[key] = value
	surface := s.surface
	s.mu.Unlock()

	surface.SetMeta(key, fmt.Sprint(value))
}

// Meta returns the value for key.
func (s *Session) Meta(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.meta[key]
	return v, ok
}

// Pair is one meta entry.
type Pair struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// MetaSnapshot returns the meta pairs in first-set order.
func (s *Session) MetaSnapshot() []Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() []Pair {
	pairs := make([]Pair, len(s.keys))
	for i, k := range s.keys {
		pairs[i] = Pair{Key: k, Value: s.meta[k]}
	}
	return pairs
}

// NewRunID returns base36(now in ms) + "-" + six random base36
// characters, uppercased. The random part is drawn from a v4
// UUID.
func NewRunID(now time.Time) string {
	id := uuid.New()
	n := new(big.Int).SetBytes(id[:])
	suffix := n.Text(36)
	for len(suffix) < 6 {
		suffix = "0" + suffix
	}
	prefix := strconv.FormatInt(now.UnixMilli(), 36)
	return strings.ToUpper(prefix + "-" + suffix[len(suffix)-6:])
}
