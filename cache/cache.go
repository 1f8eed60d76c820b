package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiration
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Cache is a small thread-safe memo with optional per-entry TTL.
// Expired entries are dropped lazily on access.
type Cache[K comparable, V any] struct {
	mu         sync.Mutex
	items      map[K]entry[V]
	defaultTTL time.Duration
	clock      clockwork.Clock
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithDefaultTTL sets the TTL applied by Set. Zero keeps entries forever.
func WithDefaultTTL[K comparable, V any](ttl time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.defaultTTL = ttl
	}
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock[K comparable, V any](clock clockwork.Clock) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.clock = clock
	}
}

// NewCache creates an empty Cache.
func NewCache[K comparable, V any](opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		items: make(map[K]entry[V]),
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores v under k with the default TTL.
func (c *Cache[K, V]) Set(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry[V]{value: v}
	if c.defaultTTL > 0 {
		e.expiresAt = c.clock.Now().Add(c.defaultTTL)
	}
	c.items[k] = e
}

// Get returns the value for k and whether it was present and unexpired.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[k]
	if !ok {
		return zero, false
	}
	if e.expired(c.clock.Now()) {
		delete(c.items, k)
		return zero, false
	}
	return e.value, true
}

// Delete removes k.
func (c *Cache[K, V]) Delete(k K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, k)
}
