package monitor

import (
	"sync"
	"time"
)

// EventCollector captures display events and fans them out to
// handlers.
type EventCollector struct {
	mu       sync.RWMutex
	events   []Event
	handlers []func(Event)
	limit    int
	stats    CollectorStats
}

// CollectorStats holds aggregate statistics.
type CollectorStats struct {
	Total     int       `json:"total"`
	Runs      int       `json:"runs"`
	LogLines  int       `json:"log_lines"`
	StartTime time.Time `json:"start_time"`
}

// NewEventCollector creates a collector keeping at most limit
// events. A limit of zero keeps 1024.
func NewEventCollector(limit int) *EventCollector {
	if limit <= 0 {
		limit = 1024
	}
	return &EventCollector{
		events: make([]Event, 0, 64),
		limit:  limit,
		stats:  CollectorStats{StartTime: time.Now()},
	}
}

// OnEvent registers a handler to be called for each event.
func (c *EventCollector) OnEvent(handler func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Emit records an event and notifies all handlers.
func (c *EventCollector) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.events = append(c.events, event)
	if over := len(c.events) - c.limit; over > 0 {
		c.events = append(c.events[:0], c.events[over:]...)
	}
	c.stats.Total++
	switch event.Type {
	case EventBig:
		c.stats.Runs++
	case EventLog:
		c.stats.LogLines++
	}
	handlers := make([]func(Event), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// Events returns a copy of the retained events.
func (c *EventCollector) Events() []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Event, len(c.events))
	copy(result, c.events)
	return result
}

// Stats returns the current aggregate statistics.
func (c *EventCollector) Stats() CollectorStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
