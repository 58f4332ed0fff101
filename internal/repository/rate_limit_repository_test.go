package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitIncrementWrapsRedisErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	repo := NewRateLimitRepository(client)

	count, ttl, err := repo.Increment(context.Background(), "login:1.2.3.4", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis incr ratelimit:login:1.2.3.4")
	assert.Zero(t, count)
	assert.Zero(t, ttl)
}
