package blog

import (
	"context"
	"sync"
	"time"
)

// LoadFunc produces a fresh Site.
type LoadFunc func(ctx context.Context) (*Site, error)

// SiteCache keeps the loaded Site in memory with a TTL.
type SiteCache struct {
	mu      sync.RWMutex
	site    *Site
	fetched time.Time
	ttl     time.Duration
	load    LoadFunc
	now     func() time.Time
}

// NewSiteCache creates a SiteCache that reloads through load.
func NewSiteCache(load LoadFunc, ttl time.Duration) *SiteCache {
	return &SiteCache{load: load, ttl: ttl, now: time.Now}
}

func (c *SiteCache) valid() bool {
	return c.site != nil && c.now().Sub(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *SiteCache) Invalidate() {
	c.mu.Lock()
	c.site = nil
	c.mu.Unlock()
}

// Site returns the cached Site, loading it if stale. It tries a read lock
// first and only takes the write lock to reload.
func (c *SiteCache) Site(ctx context.Context) (*Site, error) {
	c.mu.RLock()
	if c.valid() {
		site := c.site
		c.mu.RUnlock()
		return site, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.site, nil
	}
	site, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.site = site
	c.fetched = c.now()
	return site, nil
}
