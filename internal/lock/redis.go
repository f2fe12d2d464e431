package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// RedisConfig tunes the distributed lock.
type RedisConfig struct {
	// TTL bounds how long a crashed holder can block a product.
	TTL time.Duration
	// Wait is the total time Acquire retries a busy key.
	Wait time.Duration
	// RetryInterval is the pause between attempts.
	RetryInterval time.Duration
}

// DefaultRedisConfig returns the default lock tuning.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		TTL:           30 * time.Second,
		Wait:          5 * time.Second,
		RetryInterval: 100 * time.Millisecond,
	}
}

// RedisLocker is a Locker shared by every replica through Redis.
type RedisLocker struct {
	client *redislock.Client
	cfg    RedisConfig
	logger *slog.Logger
}

// NewRedisLocker creates a RedisLocker on top of an existing client.
func NewRedisLocker(rdb redis.UniversalClient, cfg RedisConfig, logger *slog.Logger) *RedisLocker {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRedisConfig().RetryInterval
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		cfg:    cfg,
		logger: logger,
	}
}

// Acquire obtains the lock, retrying at a fixed interval until the wait
// budget runs out.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	obtainCtx := ctx
	if l.cfg.Wait > 0 {
		var cancel context.CancelFunc
		obtainCtx, cancel = context.WithTimeout(ctx, l.cfg.Wait)
		defer cancel()
	}

	lk, err := l.client.Obtain(obtainCtx, key, l.cfg.TTL, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.cfg.RetryInterval),
	})
	switch {
	case errors.Is(err, redislock.ErrNotObtained):
		return nil, ErrNotObtained
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return nil, ErrNotObtained
	case err != nil:
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		if err := lk.Release(ctx); err != nil {
			if errors.Is(err, redislock.ErrLockNotHeld) {
				l.logger.WarnContext(ctx, "lock expired before release",
					slog.String("key", key),
					slog.Duration("ttl", l.cfg.TTL),
				)
				return nil
			}
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		return nil
	}, nil
}
