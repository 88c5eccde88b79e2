package enrich

import (
	"sync"
	"time"
)

type cacheEntry[T any] struct {
	val T
	at  time.Time
}

// TTLCache caches one value per key. The TTL is supplied per call so a
// single cache can serve sources with different freshness needs.
type TTLCache[T any] struct {
	mu      sync.Mutex
	entries map[string]cacheEntry[T]
}

func NewTTLCache[T any]() *TTLCache[T] {
	return &TTLCache[T]{entries: make(map[string]cacheEntry[T])}
}

// GetOrFetch returns the cached value when it is younger than ttl,
// otherwise calls fetch. Fetch errors are returned with the zero value
// and are never cached, so the next call retries.
func (c *TTLCache[T]) GetOrFetch(key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && time.Since(e.at) < ttl {
		c.mu.Unlock()
		return e.val, nil
	}
	c.mu.Unlock()

	val, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry[T]{val: val, at: time.Now()}
	c.mu.Unlock()
	return val, nil
}
