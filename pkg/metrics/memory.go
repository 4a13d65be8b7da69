package metrics

import (
	"sync"
	"time"
)

// MemoryMetrics implements RunMetrics with in-memory counters.
// The live dashboard reads it through Snapshot.
type MemoryMetrics struct {
	mu        sync.Mutex
	runs      map[string]int
	cases     map[string]int
	durations []time.Duration
	runTotal  int
	active    int
}

// NewMemoryMetrics creates a new MemoryMetrics instance.
func NewMemoryMetrics() *MemoryMetrics {
	return &MemoryMetrics{
		runs:  make(map[string]int),
		cases: make(map[string]int),
	}
}

func (m *MemoryMetrics) RecordRun(status string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[status]++
	m.durations = append(m.durations, duration)
}

func (m *MemoryMetrics) RecordCase(name string, passed bool, _ time.Duration) {
	status := "failed"
	if passed {
		status = "passed"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases[name+":"+status]++
}

func (m *MemoryMetrics) IncrementRunTotal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runTotal++
}

func (m *MemoryMetrics) SetActiveRuns(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = count
}

// RunCount returns the number of runs finished with status.
func (m *MemoryMetrics) RunCount(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[status]
}

// CaseCount returns how often the named case ended with the
// given result.
func (m *MemoryMetrics) CaseCount(name string, passed bool) int {
	status := "failed"
	if passed {
		status = "passed"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cases[name+":"+status]
}

// RunTotal returns the total number of runs started.
func (m *MemoryMetrics) RunTotal() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runTotal
}

// ActiveRuns returns the in-flight runs gauge.
func (m *MemoryMetrics) ActiveRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Snapshot is a copy of the counters.
type Snapshot struct {
	RunTotal     int            `json:"run_total"`
	ActiveRuns   int            `json:"active_runs"`
	Runs         map[string]int `json:"runs"`
	LastDuration time.Duration  `json:"last_duration_ns"`
}

// Snapshot copies the current counters.
func (m *MemoryMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := make(map[string]int, len(m.runs))
	for k, v := range m.runs {
		runs[k] = v
	}
	s := Snapshot{
		RunTotal:   m.runTotal,
		ActiveRuns: m.active,
		Runs:       runs,
	}
	if n := len(m.durations); n > 0 {
		s.LastDuration = m.durations[n-1]
	}
	return s
}
