package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long a learned policy stays cached before it is
// re-derived. Employer verification policies change rarely.
const DefaultCacheTTL = 30 * 24 * time.Hour

const redisKeyPrefix = "verifier:policy:"

// RedisCache is a Redis-backed policy cache shared across server processes.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a policy cache on the given Redis URL.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: redis.NewClient(opts), ttl: ttl}, nil
}

// Ping verifies the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get returns the cached policy for a domain, or nil on a miss.
func (c *RedisCache) Get(ctx context.Context, domain string) (*Policy, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+domain).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read policy cache: %w", err)
	}

	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		// A corrupt entry is treated as a miss; it will be rewritten.
		return nil, nil
	}
	return &p, nil
}

// Put caches a policy for a domain. SetNX keeps the write idempotent under
// concurrent classification of the same employer.
func (c *RedisCache) Put(ctx context.Context, domain string, p *Policy) error {
	if domain == "" || p == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}
	if err := c.client.SetNX(ctx, redisKeyPrefix+domain, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write policy cache: %w", err)
	}
	return nil
}
