package lock

import (
	"context"
	"sync"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
)

// MemoryLocker serialises work per key inside one process
type MemoryLocker struct {
	mu          sync.Mutex
	held        map[string]chan struct{}
	waitTimeout time.Duration
}

// NewMemoryLocker creates a MemoryLocker
func NewMemoryLocker(waitTimeout time.Duration) *MemoryLocker {
	return &MemoryLocker{held: make(map[string]chan struct{}), waitTimeout: waitTimeout}
}

// Obtain waits until key is free, ctx ends or the wait timeout passes
func (l *MemoryLocker) Obtain(ctx context.Context, key string) (func(context.Context) error, error) {
	timer := time.NewTimer(l.waitTimeout)
	defer timer.Stop()

	for {
		l.mu.Lock()
		wait, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()

			var once sync.Once
			return func(context.Context) error {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(done)
				})
				return nil
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, shared.ErrResourceBusy
		}
	}
}

var _ shared.Locker = (*MemoryLocker)(nil)
