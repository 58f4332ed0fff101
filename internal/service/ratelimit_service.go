package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CounterStore increments a fixed-window counter shared across instances.
type CounterStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimiter enforces fixed-window limits. With no shared store it counts in
// process, which only bounds a single instance.
type RateLimiter struct {
	store  CounterStore
	logger *zap.Logger

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	sweepAt time.Time
}

type bucket struct {
	count   int64
	resetAt time.Time
}

// NewRateLimiter builds a limiter backed by store, or by memory when store is nil.
func NewRateLimiter(store CounterStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		store:   store,
		logger:  logger,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow counts one hit for key. When the limit is exceeded it returns false
// and the time until the window resets. Store failures fail open.
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration) {
	if limit <= 0 || window <= 0 {
		return true, 0
	}

	var (
		count int64
		ttl   time.Duration
	)
	if l.store != nil {
		var err error
		count, ttl, err = l.store.Increment(ctx, key, window)
		if err != nil {
			l.logger.Warn("rate limit store unavailable, allowing request", zap.String("key", key), zap.Error(err))
			return true, 0
		}
	} else {
		count, ttl = l.incrementLocal(key, window)
	}

	if count > int64(limit) {
		return false, ttl
	}
	return true, 0
}

func (l *RateLimiter) incrementLocal(key string, window time.Duration) (int64, time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.sweepAt) {
		for k, b := range l.buckets {
			if !now.Before(b.resetAt) {
				delete(l.buckets, k)
			}
		}
		l.sweepAt = now.Add(window)
	}

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		l.buckets[key] = b
	}
	b.count++
	return b.count, b.resetAt.Sub(now)
}
