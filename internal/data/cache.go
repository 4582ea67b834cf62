package data

import (
	"os"
	"sync"
	"time"
)

// DefaultResultTTL is how long results stay retrievable when RESULT_CACHE_TTL
// is unset or invalid.
const DefaultResultTTL = time.Hour

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// ResultCache keeps recent backtest results in memory so they can be fetched
// again by ID. Entries expire after the TTL; a background sweep drops them.
type ResultCache[V any] struct {
	mu    sync.RWMutex
	store map[string]cacheEntry[V]
	ttl   time.Duration
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewResultCache starts a cache with the given TTL (DefaultResultTTL when <= 0)
// and its cleanup loop. Call Close to stop the loop.
func NewResultCache[V any](ttl time.Duration) *ResultCache[V] {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	c := &ResultCache[V]{
		store: make(map[string]cacheEntry[V]),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go c.cleanup(cleanupInterval(ttl))
	return c
}

// ResultTTLFromEnv reads RESULT_CACHE_TTL as a Go duration.
func ResultTTLFromEnv() time.Duration {
	if s := os.Getenv("RESULT_CACHE_TTL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return DefaultResultTTL
}

// Get retrieves a value if present and not expired.
func (c *ResultCache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[key]
	if !ok || c.now().After(entry.expiresAt) {
		return zero, false
	}
	return entry.value, true
}

// Set stores a value under key.
func (c *ResultCache[V]) Set(key string, value V) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = cacheEntry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

func (c *ResultCache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Clear removes all entries.
func (c *ResultCache[V]) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]cacheEntry[V])
}

func (c *ResultCache[V]) Close() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *ResultCache[V]) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.expiresAt) {
			delete(c.store, key)
		}
	}
}

// cleanup periodically removes expired entries.
func (c *ResultCache[V]) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stop:
			return
		}
	}
}

func cleanupInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/4, time.Second), 5*time.Minute)
}
