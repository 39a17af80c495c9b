package cache

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-engine/internal/domain"
)

// Tiered checks the memory tier first and falls back to Redis. Redis hits
// are copied into memory.
type Tiered struct {
	memory *MemoryCache
	redis  *RedisCache
}

// NewTiered combines the two tiers; redis may be nil
func NewTiered(memory *MemoryCache, redis *RedisCache) *Tiered {
	return &Tiered{memory: memory, redis: redis}
}

func (t *Tiered) Get(ctx context.Context, key string) (*domain.PharmaProfile, bool) {
	if profile, ok := t.memory.Get(ctx, key); ok {
		return profile, true
	}
	if t.redis == nil {
		return nil, false
	}

	profile, ok := t.redis.Get(ctx, key)
	if !ok {
		return nil, false
	}
	t.memory.Set(ctx, key, profile)
	return profile, true
}

func (t *Tiered) Set(ctx context.Context, key string, profile *domain.PharmaProfile) {
	t.memory.Set(ctx, key, profile)
	if t.redis != nil {
		t.redis.Set(ctx, key, profile)
	}
}

// TieredStats reports each tier separately
type TieredStats struct {
	Memory Stats  `json:"memory"`
	Redis  *Stats `json:"redis,omitempty"`
}

func (t *Tiered) Stats() TieredStats {
	stats := TieredStats{Memory: t.memory.Stats()}
	if t.redis != nil {
		redisStats := t.redis.Stats()
		stats.Redis = &redisStats
	}
	return stats
}

// Ping checks the Redis tier; a memory-only cache is always healthy
func (t *Tiered) Ping(ctx context.Context) error {
	if t.redis == nil {
		return nil
	}
	return t.redis.Ping(ctx)
}

// Close releases the Redis connection, if any
func (t *Tiered) Close() error {
	if t.redis != nil {
		return t.redis.Close()
	}
	return nil
}

// FromConfig builds the profile cache described by cfg. It returns nil when
// caching is disabled. An unreachable Redis server disables only the Redis
// tier.
func FromConfig(ctx context.Context, cfg domain.CacheConfig, logger *logrus.Logger) *Tiered {
	if !cfg.Enabled {
		return nil
	}

	memory := NewMemoryCache(cfg.MaxItems, cfg.TTL)
	if cfg.RedisURL == "" {
		return NewTiered(memory, nil)
	}

	redis, err := NewRedisCache(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis cache unavailable, using memory cache only")
		return NewTiered(memory, nil)
	}

	logger.WithField("key_prefix", redis.prefix).Info("Redis profile cache enabled")
	return NewTiered(memory, redis)
}
