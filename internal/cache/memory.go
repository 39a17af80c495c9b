package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pharmaguard-engine/internal/domain"
)

const (
	defaultMaxItems = 1000
	defaultTTL      = time.Hour
)

// MemoryCache is a bounded in-process profile cache with per-entry expiry
type MemoryCache struct {
	lru   *expirable.LRU[string, domain.PharmaProfile]
	stats counters
}

// NewMemoryCache creates a memory cache holding up to maxItems profiles
func NewMemoryCache(maxItems int, ttl time.Duration) *MemoryCache {
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, domain.PharmaProfile](maxItems, nil, ttl),
	}
}

// Get returns a copy of the cached profile
func (c *MemoryCache) Get(_ context.Context, key string) (*domain.PharmaProfile, bool) {
	profile, ok := c.lru.Get(key)
	c.stats.record(ok)
	if !ok {
		return nil, false
	}
	return cloneProfile(&profile), true
}

// Set stores a copy of profile
func (c *MemoryCache) Set(_ context.Context, key string, profile *domain.PharmaProfile) {
	if profile == nil {
		return
	}
	c.lru.Add(key, *cloneProfile(profile))
}

// Len returns the number of live entries
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

func (c *MemoryCache) Purge() {
	c.lru.Purge()
}

func (c *MemoryCache) Stats() Stats {
	return c.stats.snapshot()
}

// cloneProfile copies the variant slice so callers cannot mutate cached data
func cloneProfile(p *domain.PharmaProfile) *domain.PharmaProfile {
	out := *p
	out.DetectedVariants = append([]domain.DetectedVariant(nil), p.DetectedVariants...)
	if out.DetectedVariants == nil {
		out.DetectedVariants = []domain.DetectedVariant{}
	}
	return &out
}
