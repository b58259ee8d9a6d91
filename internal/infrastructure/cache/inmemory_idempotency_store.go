package cache

import (
	"context"
	"sync"
	"time"

	"github.com/procurement/backoffice/internal/domain/shared"
)

// entry is a stored submission key with its value and expiration
type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// InMemoryIdempotencyStore implements IdempotencyStore using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryIdempotencyStore struct {
	mu              sync.RWMutex
	entries         map[string]entry
	cleanupInterval time.Duration
	now             func() time.Time
	stopChan        chan struct{}
	wg              sync.WaitGroup
	closeOnce       sync.Once
}

// InMemoryOption configures an InMemoryIdempotencyStore
type InMemoryOption func(*InMemoryIdempotencyStore)

// WithCleanupInterval sets how often expired keys are swept
func WithCleanupInterval(d time.Duration) InMemoryOption {
	return func(s *InMemoryIdempotencyStore) {
		if d > 0 {
			s.cleanupInterval = d
		}
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *InMemoryIdempotencyStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store
// It starts a background goroutine to clean up expired entries
func NewInMemoryIdempotencyStore(opts ...InMemoryOption) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		entries:         make(map[string]entry),
		cleanupInterval: 5 * time.Minute,
		now:             time.Now,
		stopChan:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(store)
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Reserve claims a key for ttl
func (s *InMemoryIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, exists := s.entries[key]; exists && !e.expired(now) {
		return false, nil
	}

	s.entries[key] = entry{value: shared.IdempotencyPending, expiresAt: now.Add(ttl)}
	return true, nil
}

// Complete stores the submission result under key
func (s *InMemoryIdempotencyStore) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{value: result, expiresAt: s.now().Add(ttl)}
	return nil
}

// Lookup returns the value held by key
func (s *InMemoryIdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists || e.expired(s.now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

// Release forgets key
func (s *InMemoryIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of entries in the store, expired ones included until swept
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
