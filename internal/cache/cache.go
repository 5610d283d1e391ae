package cache

import (
	"context"
	"sync"
	"time"

	"github.com/lingolens/translate-gateway/internal/observability"
)

// entry associates a translation with the time it was stored
type entry struct {
	translated string
	createdAt  time.Time
}

// Cache stores recent source-text to translation pairs with a fixed TTL.
// Lookups are exact string matches; stale entries are treated as misses and
// removed by a periodic janitor rather than on the lookup path.
//
// All methods are safe for concurrent use: request completions land on
// arbitrary goroutines and interleave with lookups from the dispatch path.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
}

// New creates an empty cache with the given entry TTL
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Lookup returns the cached translation for sourceText if one exists and has
// not exceeded its TTL
func (c *Cache) Lookup(sourceText string, now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[sourceText]
	if !ok || now.Sub(e.createdAt) > c.ttl {
		observability.RecordCacheLookup(false)
		return "", false
	}
	observability.RecordCacheLookup(true)
	return e.translated, true
}

// Store inserts or overwrites the entry for sourceText. A later translation
// of identical text replaces the earlier one.
func (c *Cache) Store(sourceText, translated string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[sourceText] = entry{translated: translated, createdAt: now}
	observability.SetCacheEntries(len(c.entries))
}

// EvictExpired removes all entries older than the TTL and returns how many
// were removed
func (c *Cache) EvictExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for source, e := range c.entries {
		if now.Sub(e.createdAt) > c.ttl {
			delete(c.entries, source)
			removed++
		}
	}
	observability.SetCacheEntries(len(c.entries))
	return removed
}

// Len returns the number of entries currently held, expired or not
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RunJanitor sweeps expired entries every interval until ctx is cancelled.
// Keeping eviction off the lookup path bounds memory even when the cache
// goes idle for a long stretch.
func (c *Cache) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.EvictExpired(now)
		}
	}
}
