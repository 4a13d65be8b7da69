package payload

import "sync"

// Cache holds the encoded text of the latest run so views can be
// redrawn without recomputing anything. Each run replaces it.
type Cache struct {
	mu    sync.RWMutex
	text  string
	pass  bool
	valid bool
}

// Store replaces the cached entry.
func (c *Cache) Store(text string, pass bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	c.pass = pass
	c.valid = true
}

// Load returns the cached entry and whether one exists.
func (c *Cache) Load() (text string, pass bool, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.text, c.pass, c.valid
}
