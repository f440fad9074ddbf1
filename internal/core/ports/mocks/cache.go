package mocks

import (
	"context"
	"sync"

	"github.com/lueurxax/media-search-bot/internal/core/ports"
)

type cachedPage struct {
	ids   []string
	total int
}

// PageCache is an in-memory implementation of ports.PageCache.
type PageCache struct {
	mu    sync.RWMutex
	pages map[string]cachedPage
	hits  int
}

var _ ports.PageCache = (*PageCache)(nil)

// NewPageCache creates an empty page cache.
func NewPageCache() *PageCache {
	return &PageCache{pages: make(map[string]cachedPage)}
}

// GetPage returns a cached page.
func (c *PageCache) GetPage(_ context.Context, key string) ([]string, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pages[key]
	if ok {
		c.hits++
	}

	return p.ids, p.total, ok
}

// SetPage stores a page.
func (c *PageCache) SetPage(_ context.Context, key string, ids []string, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pages[key] = cachedPage{ids: append([]string(nil), ids...), total: total}
}

// Hits returns the number of cache hits.
func (c *PageCache) Hits() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.hits
}

// Clear removes every cached page.
func (c *PageCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pages = make(map[string]cachedPage)
}
