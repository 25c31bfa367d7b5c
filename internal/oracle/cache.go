package oracle

import (
	"strings"
	"sync"
	"time"

	"github.com/aristath/riskcore/internal/domain"
)

// Cache is the shared quote cache crossing requests. Entries are keyed by
// uppercased symbol; writes are last-write-wins per key.
type Cache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]cachedQuote
}

type cachedQuote struct {
	quote    domain.PriceQuote
	storedAt time.Time
}

// NewCache creates a quote cache with the given freshness TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cachedQuote),
	}
}

// Fresh returns the cached quote for a symbol if it is within the TTL.
func (c *Cache) Fresh(symbol string) (domain.PriceQuote, bool) {
	key := strings.ToUpper(symbol)

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Since(entry.storedAt) >= c.ttl {
		return domain.PriceQuote{}, false
	}
	return entry.quote, true
}

// Any returns the cached quote regardless of age. Stale data is better
// than no data when every live source has failed.
func (c *Cache) Any(symbol string) (domain.PriceQuote, bool) {
	key := strings.ToUpper(symbol)

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return domain.PriceQuote{}, false
	}
	return entry.quote, true
}

// Put stores a quote under the uppercased symbol key.
func (c *Cache) Put(symbol string, quote domain.PriceQuote) {
	key := strings.ToUpper(symbol)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cachedQuote{quote: quote, storedAt: time.Now()}
}

// Clear drops all entries. Debug hook; nothing in the pipeline calls this.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedQuote)
}

// Stats returns the cache size and the cached symbols.
func (c *Cache) Stats() (int, []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	symbols := make([]string, 0, len(c.entries))
	for key := range c.entries {
		symbols = append(symbols, key)
	}
	return len(c.entries), symbols
}
