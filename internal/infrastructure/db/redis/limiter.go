package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mentorlink/mentorship-api/internal/core/ports"
)

const (
	defaultLimit  = 5
	defaultWindow = 15 * time.Minute
)

// WindowLimiter is a fixed-window request counter backed by Redis.
// Key format: <prefix>:<key>
type WindowLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

var _ ports.RequestLimiter = (*WindowLimiter)(nil)

// NewWindowLimiter allows up to limit calls per key within each window.
// Non-positive values fall back to 5 per 15 minutes.
func NewWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *WindowLimiter {
	if limit <= 0 {
		limit = defaultLimit
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &WindowLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

// Allow counts one hit against key and reports whether it is within budget.
// The window starts on the first hit and is not extended by later ones.
func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.key(key)

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("limiter incr: %w", err)
	}

	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("limiter expire: %w", err)
		}
	} else if ttl, err := l.client.TTL(ctx, k).Result(); err == nil && ttl < 0 {
		// counter survived without an expiry (crash between INCR and EXPIRE)
		_ = l.client.Expire(ctx, k, l.window).Err()
	}

	return n <= l.limit, nil
}

func (l *WindowLimiter) key(key string) string {
	return fmt.Sprintf("%s:%s", l.prefix, key)
}
