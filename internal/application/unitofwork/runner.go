// Package unitofwork runs ledger mutations under a per-aggregate lock and a
// single database transaction.
package unitofwork

import (
	"context"

	"github.com/erp/backoffice/internal/domain/report"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runner serialises mutations of one aggregate and drops the cached summary
// after every successful commit.
type Runner struct {
	txManager   shared.TransactionManager
	locker      shared.Locker
	invalidator report.Invalidator
}

// New creates a Runner. A nil locker grants every lock and a nil invalidator
// does nothing.
func New(txManager shared.TransactionManager, locker shared.Locker, invalidator report.Invalidator) *Runner {
	if locker == nil {
		locker = shared.NoopLocker{}
	}
	if invalidator == nil {
		invalidator = report.NopInvalidator{}
	}
	return &Runner{txManager: txManager, locker: locker, invalidator: invalidator}
}

// Key builds the lock key of an aggregate
func Key(aggregate string, id uuid.UUID) string {
	return aggregate + ":" + id.String()
}

// Run obtains the lock for each key in order, runs fn in one transaction and
// invalidates the summary cache when fn commits.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error, keys ...string) error {
	for _, key := range keys {
		release, err := r.locker.Obtain(ctx, key)
		if err != nil {
			return err
		}
		defer func(key string) {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.L(ctx).Warn("failed to release lock", zap.String("key", key), zap.Error(err))
			}
		}(key)
	}

	if err := r.txManager.WithinTransaction(ctx, fn); err != nil {
		return err
	}
	r.invalidator.Invalidate(ctx)
	return nil
}

// Invalidate drops the cached summary after a write made outside Run
func (r *Runner) Invalidate(ctx context.Context) {
	r.invalidator.Invalidate(ctx)
}
