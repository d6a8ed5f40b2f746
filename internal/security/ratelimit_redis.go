package security

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiterStore counts requests in fixed windows backed by Redis, so
// limits hold across replicas. INCR and EXPIRE run in one pipeline; Redis
// serializes the increment, which keeps the boundary check atomic.
type RedisLimiterStore struct {
	client    *redis.Client
	prefix    string
	threshold int
	window    time.Duration
}

// NewRedisLimiterStore builds a store allowing threshold requests per window.
func NewRedisLimiterStore(client *redis.Client, threshold int, window time.Duration) *RedisLimiterStore {
	if threshold <= 0 {
		threshold = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiterStore{
		client:    client,
		prefix:    "ratelimit:",
		threshold: threshold,
		window:    window,
	}
}

// Allow implements LimiterStore.
func (s *RedisLimiterStore) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := s.prefix + key

	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := incr.Val()
	if count > int64(s.threshold) {
		ttl, err := s.client.TTL(ctx, redisKey).Result()
		if err != nil || ttl <= 0 {
			ttl = s.window
		}
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}

	remaining := s.threshold - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining}, nil
}
