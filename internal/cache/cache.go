// Package cache provides an in-memory TTL cache with hit/miss accounting.
// Entries expire after a fixed duration independent of access; this is not
// an LRU and reads never extend lifetimes.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache is a concurrency-safe key-value store with per-entry expiry.
type Cache[V any] struct {
	defaultTTL time.Duration
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]entry[V]
	hits    uint64
	misses  uint64
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Stats is a snapshot of cache counters. Hits and misses are cumulative for
// the cache's lifetime; Keys reflects currently stored entries.
type Stats struct {
	Keys   int    `json:"keys"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock sets the time source. Tests inject a fake clock.
func WithClock[V any](clock clockwork.Clock) Option[V] {
	return func(c *Cache[V]) { c.clock = clock }
}

// New creates a Cache whose entries expire defaultTTL after Set unless a
// per-entry override is given.
func New[V any](defaultTTL time.Duration, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		defaultTTL: defaultTTL,
		clock:      clockwork.NewRealClock(),
		entries:    make(map[string]entry[V]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key. Expired entries are removed on read and
// count as misses.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.clock.Now().Before(e.expiresAt) {
		c.hits++
		return e.value, true
	}
	if ok {
		delete(c.entries, key)
	}
	c.misses++
	var zero V
	return zero, false
}

// Set stores value under key. An optional single ttl argument overrides the
// cache default for this entry.
func (c *Cache[V]) Set(key string, value V, ttl ...time.Duration) {
	d := c.defaultTTL
	if len(ttl) > 0 {
		d = ttl[0]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.clock.Now().Add(d)}
}

// Delete removes one entry.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries. Hit/miss counters are cumulative and survive a
// Clear; only the key count drops to zero.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// Stats returns a snapshot of the cache counters. Expired-but-unread entries
// still count toward Keys until touched.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Keys: len(c.entries), Hits: c.hits, Misses: c.misses}
}
