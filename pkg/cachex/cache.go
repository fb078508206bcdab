// Package cachex provides a bounded, time-expiring key/value cache for
// read-mostly configuration and search-result data. Entries are checked
// for expiry on read, and writes past the size bound trigger an eviction
// sweep. Values must be idempotently recomputable: concurrent refreshes
// are last-writer-wins.
package cachex

import (
	"time"

	"github.com/alphadose/haxmap"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// Cache is a concurrency-safe TTL cache keyed by string.
type Cache[V any] struct {
	entries *haxmap.Map[string, entry[V]]
	ttl     time.Duration
	bound   int
	now     func() time.Time
}

// New creates a cache whose entries expire ttl after being set and which
// sweeps itself whenever a write pushes it past bound entries.
func New[V any](ttl time.Duration, bound int) *Cache[V] {
	return &Cache[V]{
		entries: haxmap.New[string, entry[V]](),
		ttl:     ttl,
		bound:   bound,
		now:     time.Now,
	}
}

// Get returns the live value for key. Expired entries are removed on
// read and reported as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expires) {
		c.entries.Del(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (c *Cache[V]) Set(key string, value V) {
	c.entries.Set(key, entry[V]{value: value, expires: c.now().Add(c.ttl)})
	if int(c.entries.Len()) > c.bound {
		c.sweep()
	}
}

// Len reports the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	return int(c.entries.Len())
}

// sweep removes expired entries first. If the cache is still over its
// bound it drops surplus entries in iteration order; everything cached
// here can be recomputed, so which entries go is not significant.
func (c *Cache[V]) sweep() {
	now := c.now()
	c.entries.ForEach(func(key string, e entry[V]) bool {
		if now.After(e.expires) {
			c.entries.Del(key)
		}
		return true
	})

	surplus := int(c.entries.Len()) - c.bound
	if surplus <= 0 {
		return
	}
	c.entries.ForEach(func(key string, _ entry[V]) bool {
		if surplus <= 0 {
			return false
		}
		c.entries.Del(key)
		surplus--
		return true
	})
}
