package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a small TTL map for read-mostly aggregates that may be slightly
// stale, such as the admin overview counts.
type Cache[V any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry[V]
	now func() time.Time
}

type entry[V any] struct {
	val V
	exp time.Time
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache[V]{
		ttl: ttl,
		m:   make(map[string]entry[V]),
		now: time.Now,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		var zero V
		return zero, false
	}

	return e.val, true
}

func (c *Cache[V]) Set(key string, val V) {
	c.mu.Lock()
	c.m[key] = entry[V]{val: val, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

// GetOrLoad returns the cached value or calls load and caches a successful
// result. Errors are never cached.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, false, err
	}

	c.Set(key, v)
	return v, false, nil
}
