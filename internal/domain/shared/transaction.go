package shared

import "context"

// TransactionManager runs fn atomically. Repositories called with the ctx
// passed to fn take part in the same transaction.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker serialises work on one key across goroutines and instances. The
// returned release function must be called exactly once.
type Locker interface {
	Obtain(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// NoopLocker grants every lock immediately
type NoopLocker struct{}

// Obtain implements Locker
func (NoopLocker) Obtain(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
