// Package cache holds the most recent Push Gateway observation.
package cache

import "sync"

// Snapshot is one consistent view of the cache.
// Reachable is true exactly when LastError is empty.
type Snapshot struct {
	MetricsText string
	Reachable   bool
	LastError   string
}

// Cache guards a Snapshot with a single mutex. Readers and writers
// exclude each other; all three fields always change together.
type Cache struct {
	mu   sync.Mutex
	snap Snapshot
}

func New() *Cache { return &Cache{} }

func (c *Cache) Read() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func (c *Cache) Write(s Snapshot) {
	c.mu.Lock()
	c.snap = s
	c.mu.Unlock()
}

// Update replaces the snapshot with fn(current) under one lock acquisition.
// fn must not block.
func (c *Cache) Update(fn func(Snapshot) Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = fn(c.snap)
}
