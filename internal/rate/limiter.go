package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "am"

// Config holds limiter tuning parameters.
type Config struct {
	MaxPerWindow int
	Window       time.Duration
	Prefix       string
}

// Limiter counts hits per (scope, identifier) in fixed windows.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	return &Limiter{redis: redisClient, config: cfg}
}

// Hit records one hit and returns ErrRateLimited when the window's budget
// was already spent.
func (l *Limiter) Hit(ctx context.Context, scope, identifier string) error {
	count, err := l.incrementWithTTL(ctx, l.key(scope, identifier), l.config.Window)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxPerWindow) {
		return ErrRateLimited
	}
	return nil
}

// Count returns the hits recorded in the current window.
func (l *Limiter) Count(ctx context.Context, scope, identifier string) (int, error) {
	count, err := l.redis.Get(ctx, l.key(scope, identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// Reset clears the counter for (scope, identifier).
func (l *Limiter) Reset(ctx context.Context, scope, identifier string) error {
	if err := l.redis.Del(ctx, l.key(scope, identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) key(scope, identifier string) string {
	return l.config.Prefix + ":" + scope + ":" + identifier
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed window: TTL is set only on the first hit.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}
