// Package ratelimit provides Redis-backed expiring counters. Keeping the counters in Redis
// rather than process memory bounds their size and keeps them correct across restarts and
// replicas.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/k1llbot/k1ll/pkg/dataaccess/monitoring"
	"github.com/redis/go-redis/v9"
)

type Limiter struct {
	rdb *redis.Client
}

// NewLimiter creates a new limiter on top of the given Redis client.
func NewLimiter(rdb *redis.Client) *Limiter {
	return &Limiter{
		rdb: rdb,
	}
}

// Hit increments the windowed counter for key and returns the count within the current window.
// The window starts on the first hit and expires on its own; keys never accumulate.
func (l *Limiter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	monitoring.RedisTotalRequests.WithLabelValues("hit").Inc()

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// NX so the window is anchored to the first hit, not refreshed by later ones.
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("error incrementing counter %q: %w", key, err)
	}
	return incr.Val(), nil
}

// Once reports whether key was free and claims it for ttl. Used for cooldowns and debounces:
// the first caller within the ttl gets true, everyone else false.
func (l *Limiter) Once(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	monitoring.RedisTotalRequests.WithLabelValues("once").Inc()

	ok, err := l.rdb.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("error claiming cooldown %q: %w", key, err)
	}
	return ok, nil
}
