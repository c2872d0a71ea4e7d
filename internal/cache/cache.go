// Package cache holds the process-local mapping from failed locators to
// previously validated replacements. It is rebuilt from the cumulative
// summary at startup and never persisted on its own; durable state flows
// through healing events only.
package cache

import (
	"sync"

	"graft/internal/report"
)

// Cache maps originalLocator → healedLocator. Safe for concurrent use by
// tests sharing one process.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Seed indexes the summary's successful events, last write wins. A nil
// summary (absent or unreadable file) seeds nothing.
func (c *Cache) Seed(s *report.Summary) int {
	if s == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range s.LiveMappings() {
		c.entries[m.OriginalLocator] = m.HealedLocator
		n++
	}
	return n
}

// Lookup returns the healed locator recorded for original, if any.
func (c *Cache) Lookup(original string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	healed, ok := c.entries[original]
	return healed, ok
}

// Record stores a fresh successful mapping, replacing any older one.
func (c *Cache) Record(original, healed string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[original] = healed
}

// Evict drops a mapping that failed re-validation. The entry stays gone for
// the rest of the run; durable state is only corrected by the new event the
// run records.
func (c *Cache) Evict(original string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, original)
}

// Len reports how many mappings are live.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
