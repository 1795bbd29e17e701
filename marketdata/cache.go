package marketdata

import (
	"context"
	"sync"

	"github.com/rustyeddy/tradejournal/market"
)

// Cache stores provider results keyed by ticker and date. A miss is reported
// through ok, not an error.
type Cache interface {
	Get(ctx context.Context, ticker, date string) (q market.Quote, ok bool, err error)
	Set(ctx context.Context, ticker, date string, q market.Quote) error
}

func cacheKey(ticker, date string) string {
	return market.NormalizeTicker(ticker) + "|" + date
}

// MemoryCache is a process-local Cache. When MaxEntries is reached the cache
// is cleared before the next insert.
type MemoryCache struct {
	MaxEntries int

	mu      sync.RWMutex
	entries map[string]market.Quote
}

func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		MaxEntries: maxEntries,
		entries:    make(map[string]market.Quote),
	}
}

func (c *MemoryCache) Get(_ context.Context, ticker, date string) (market.Quote, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.entries[cacheKey(ticker, date)]
	return q, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, ticker, date string, q market.Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries == nil {
		c.entries = make(map[string]market.Quote)
	}
	if c.MaxEntries > 0 && len(c.entries) >= c.MaxEntries {
		clear(c.entries)
	}
	c.entries[cacheKey(ticker, date)] = q
	return nil
}

// Len reports the number of cached quotes.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
