package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/pharmaguard-engine/internal/domain"
)

const defaultKeyPrefix = "pharmaguard:profile:"

// cachedProfile is the JSON value stored in Redis
type cachedProfile struct {
	Profile  *domain.PharmaProfile `json:"profile"`
	CachedAt time.Time             `json:"cached_at"`
}

// RedisCache shares profiles across processes. Every call goes through a
// circuit breaker; Redis failures are logged and reported as misses.
type RedisCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	prefix  string
	ttl     time.Duration
	logger  *logrus.Logger
	stats   counters
}

// NewRedisCache connects to the Redis server named by cfg.RedisURL
func NewRedisCache(ctx context.Context, cfg domain.CacheConfig, logger *logrus.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheWithClient(client, cfg, logger), nil
}

// NewRedisCacheWithClient wraps an existing client
func NewRedisCacheWithClient(client *redis.Client, cfg domain.CacheConfig, logger *logrus.Logger) *RedisCache {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &RedisCache{
		client:  client,
		breaker: newBreaker("redis-profile-cache", cfg.CircuitBreaker, logger),
		prefix:  prefix,
		ttl:     ttl,
		logger:  logger,
	}
}

func newBreaker(name string, cfg domain.CircuitBreakerConfig, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}

// Get looks up key. Corrupt entries are deleted and reported as misses.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.PharmaProfile, bool) {
	fullKey := c.prefix + key

	result, err := c.breaker.Execute(func() (interface{}, error) {
		val, err := c.client.Get(ctx, fullKey).Bytes()
		if errors.Is(err, redis.Nil) {
			// A miss is not a failure of the backend
			return nil, nil
		}
		return val, err
	})
	if err != nil {
		c.stats.errors.Add(1)
		c.stats.record(false)
		c.logger.WithError(err).WithField("key", key).Warn("Redis cache lookup failed")
		return nil, false
	}

	data, _ := result.([]byte)
	if data == nil {
		c.stats.record(false)
		return nil, false
	}

	var cached cachedProfile
	if err := json.Unmarshal(data, &cached); err != nil || cached.Profile == nil {
		c.client.Del(ctx, fullKey)
		c.stats.record(false)
		return nil, false
	}

	c.stats.record(true)
	return cached.Profile, true
}

// Set stores profile with the configured TTL
func (c *RedisCache) Set(ctx context.Context, key string, profile *domain.PharmaProfile) {
	if profile == nil {
		return
	}

	data, err := json.Marshal(cachedProfile{Profile: profile, CachedAt: time.Now().UTC()})
	if err != nil {
		c.logger.WithError(err).Error("Failed to marshal profile for cache")
		return
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, c.prefix+key, data, c.ttl).Err()
	})
	if err != nil {
		c.stats.errors.Add(1)
		c.logger.WithError(err).WithField("key", key).Warn("Redis cache write failed")
	}
}

// Ping checks Redis availability through the breaker
func (c *RedisCache) Ping(ctx context.Context) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Ping(ctx).Err()
	})
	return err
}

func (c *RedisCache) Stats() Stats {
	return c.stats.snapshot()
}

// BreakerState returns the current circuit breaker state name
func (c *RedisCache) BreakerState() string {
	return c.breaker.State().String()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
