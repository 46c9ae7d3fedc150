package marketdata

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/jkoestner/folioflex/internal/model"
)

// PriceSource is any provider of daily price history.
type PriceSource interface {
	PriceHistory(ctx context.Context, tickers []string, minYear int) ([]model.PricePoint, error)
}

// Cache memoizes a price source so portfolios sharing tickers and a rebuild
// cycle do not refetch the same series. Entries live until Reset.
type Cache struct {
	source PriceSource

	mu      sync.Mutex
	entries map[string][]model.PricePoint
}

// NewCache wraps a price source with memoization.
func NewCache(source PriceSource) *Cache {
	return &Cache{source: source, entries: make(map[string][]model.PricePoint)}
}

// PriceHistory returns the cached series for this request shape, fetching on
// first use. Concurrent callers with the same key may both fetch; the last
// write wins, which is harmless since the series are identical.
func (c *Cache) PriceHistory(ctx context.Context, tickers []string, minYear int) ([]model.PricePoint, error) {
	key := cacheKey(tickers, minYear)
	c.mu.Lock()
	cached, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	points, err := c.source.PriceHistory(ctx, tickers, minYear)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries[key] = points
	c.mu.Unlock()
	return points, nil
}

// Reset drops all cached series, forcing the next calls to refetch.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string][]model.PricePoint)
	c.mu.Unlock()
}

func cacheKey(tickers []string, minYear int) string {
	sorted := append([]string(nil), tickers...)
	sort.Strings(sorted)
	return strconv.Itoa(minYear) + "|" + strings.Join(sorted, ",")
}
