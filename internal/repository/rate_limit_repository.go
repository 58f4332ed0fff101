package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitRepository keeps fixed-window request counters in Redis so every
// instance shares the same buckets.
type RateLimitRepository struct {
	client *redis.Client
	prefix string
}

// NewRateLimitRepository constructs a RateLimitRepository.
func NewRateLimitRepository(client *redis.Client) *RateLimitRepository {
	return &RateLimitRepository{client: client, prefix: "ratelimit:"}
}

// Increment bumps the counter for key and returns the new count and the
// remaining lifetime of the window. The expiry is set on the first hit.
func (r *RateLimitRepository) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	full := r.prefix + key
	count, err := r.client.Incr(ctx, full).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis incr %s: %w", full, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, full, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("redis expire %s: %w", full, err)
		}
		return count, window, nil
	}
	ttl, err := r.client.PTTL(ctx, full).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis pttl %s: %w", full, err)
	}
	if ttl < 0 {
		// counter lost its expiry (crash between INCR and EXPIRE)
		if err := r.client.Expire(ctx, full, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("redis expire %s: %w", full, err)
		}
		ttl = window
	}
	return count, ttl, nil
}
