package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// InMemoryStore implements Store with a map. It is suitable for a single
// instance and for tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryStore creates a store and starts the expiry sweeper
func NewInMemoryStore(sweepInterval time.Duration) *InMemoryStore {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	s := &InMemoryStore{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweepLoop(sweepInterval)
	return s
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

// Get returns a copy of the stored value or ErrCacheMiss
func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || e.expired(time.Now()) {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a copy of value
func (s *InMemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: append([]byte(nil), value...), expiresAt: expiry(ttl)}
	return nil
}

// SetNX stores value unless a live entry exists
func (s *InMemoryStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && !e.expired(time.Now()) {
		return false, nil
	}
	s.entries[key] = entry{value: append([]byte(nil), value...), expiresAt: expiry(ttl)}
	return true, nil
}

// Delete removes keys
func (s *InMemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// Incr increments a decimal counter, starting from zero
func (s *InMemoryStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	if e, ok := s.entries[key]; ok && !e.expired(time.Now()) {
		parsed, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	}
	n++
	s.entries[key] = entry{value: []byte(strconv.FormatInt(n, 10))}
	return n, nil
}

// Ping always succeeds
func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
		}
	}
}

// Size returns the number of entries, expired ones included until swept
func (s *InMemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ Store = (*InMemoryStore)(nil)
