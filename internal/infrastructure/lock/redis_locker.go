// Package lock implements shared.Locker with Redis (bsm/redislock) for
// multi-instance deployments and with in-process mutexes otherwise.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"go.uber.org/zap"
)

const keyPrefix = "backoffice:lock:"

// RedisLocker obtains expiring Redis locks. The TTL bounds how long a crashed
// holder can block others.
type RedisLocker struct {
	client      *redislock.Client
	ttl         time.Duration
	waitTimeout time.Duration
	retryEvery  time.Duration
	logger      *zap.Logger
}

// NewRedisLocker creates a locker on a go-redis client
func NewRedisLocker(client redislock.RedisClient, cfg config.LockConfig, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		client:      redislock.New(client),
		ttl:         cfg.TTL,
		waitTimeout: cfg.WaitTimeout,
		retryEvery:  50 * time.Millisecond,
		logger:      logger,
	}
}

// Obtain waits up to the configured timeout for key. A timeout surfaces as
// shared.ErrResourceBusy.
func (l *RedisLocker) Obtain(ctx context.Context, key string) (func(context.Context) error, error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.waitTimeout)
	defer cancel()

	lk, err := l.client.Obtain(waitCtx, keyPrefix+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.retryEvery),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		l.logger.Warn("Lock not obtained", zap.String("key", key), zap.Duration("waited", l.waitTimeout))
		return nil, shared.ErrResourceBusy
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		err := lk.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("Lock expired before release", zap.String("key", key), zap.Duration("ttl", l.ttl))
			return nil
		}
		return err
	}, nil
}

var _ shared.Locker = (*RedisLocker)(nil)
