package news

import (
	"sync"
	"time"

	"gpt-signal-relay/internal/types"
)

// cache stores aggregated signals per symbol for a short window so a
// burst of alerts does not hammer the feeds.
type cache struct {
	mu   sync.RWMutex
	data map[string]cachedSignal
	ttl  time.Duration
}

type cachedSignal struct {
	sig types.NewsSignal
	at  time.Time
}

func newCache(ttl time.Duration) *cache {
	return &cache{data: make(map[string]cachedSignal), ttl: ttl}
}

func (c *cache) get(key string) (types.NewsSignal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.data[key]
	if !ok || time.Since(e.at) > c.ttl {
		return types.NewsSignal{}, false
	}
	return e.sig, true
}

func (c *cache) set(key string, sig types.NewsSignal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = cachedSignal{sig: sig, at: time.Now()}
}
