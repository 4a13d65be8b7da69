package assertion

import "sync"

// Registry holds cases in registration order. Cases are never
// removed.
type Registry struct {
	mu    sync.RWMutex
	cases []*Case
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a case. Neither the name nor the expected
// value is validated.
func (r *Registry) Register(
	name string,
	expected any,
	fn Compute,
) *Case {
	c := &Case{
		name:     name,
		expected: expected,
		compute:  fn,
	}

	r.mu.Lock()
	r.cases = append(r.cases, c)
	r.mu.Unlock()
	return c
}

// Cases returns the registered cases in registration order. The
// slice is a copy; the cases are shared.
func (r *Registry) Cases() []*Case {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Case(nil), r.cases...)
}

// Len returns the number of registered cases.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cases)
}

// Snapshots copies the state of every case in order.
func (r *Registry) Snapshots() []Snapshot {
	cases := r.Cases()
	out := make([]Snapshot, len(cases))
	for i, c := range cases {
		out[i] = c.Snapshot()
	}
	return out
}
