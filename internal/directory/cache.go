package directory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a pull-through value cache with a fixed TTL. Concurrent misses
// share one load; Invalidate forces the next Get to reload.
type Cache[T any] struct {
	ttl  time.Duration
	load func(ctx context.Context) (T, error)
	now  func() time.Time

	mu       sync.RWMutex
	value    T
	loadedAt time.Time
	valid    bool
	gen      uint64

	group singleflight.Group
}

// NewCache creates a Cache that calls load on a miss or after ttl.
func NewCache[T any](ttl time.Duration, load func(ctx context.Context) (T, error)) *Cache[T] {
	return &Cache[T]{ttl: ttl, load: load, now: time.Now}
}

// Get returns the cached value, loading it if absent or expired.
func (c *Cache[T]) Get(ctx context.Context) (T, error) {
	c.mu.RLock()
	if c.valid && c.now().Sub(c.loadedAt) < c.ttl {
		v := c.value
		c.mu.RUnlock()
		return v, nil
	}
	gen := c.gen
	c.mu.RUnlock()

	// Keyed by generation so callers arriving after Invalidate never join a
	// load that started before it.
	v, err, _ := c.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		value, err := c.load(ctx)
		if err != nil {
			return value, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.value = value
			c.loadedAt = c.now()
			c.valid = true
		}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops the cached value.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	var zero T
	c.value = zero
	c.valid = false
	c.gen++
	c.mu.Unlock()
}

// LoadedAt reports when the current value was loaded; zero when empty.
func (c *Cache[T]) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid {
		return time.Time{}
	}
	return c.loadedAt
}
