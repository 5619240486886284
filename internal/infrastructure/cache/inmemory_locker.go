package cache

import (
	"context"
	"sync"
	"time"

	"github.com/semdin/sellerx-backend/internal/domain/shared"
)

// InMemoryLocker implements EntityLocker with per-key mutexes.
// This is suitable for single-instance deployments and testing.
type InMemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch      chan struct{}
	holders int
}

// NewInMemoryLocker creates a new in-memory entity locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{
		locks: make(map[string]*keyLock),
	}
}

// WithLock runs fn while holding the per-key lock. The ttl parameter is
// ignored: an in-process holder cannot outlive the process that would
// need the lease to expire.
func (l *InMemoryLocker) WithLock(ctx context.Context, key string, _ time.Duration, fn func() error) error {
	kl := l.acquireRef(key)
	defer l.releaseRef(key)

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-kl.ch }()

	return fn()
}

// acquireRef returns the lock for key, creating it on first use. Holder
// counting lets releaseRef drop map entries nobody is waiting on.
func (l *InMemoryLocker) acquireRef(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl, exists := l.locks[key]
	if !exists {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.holders++
	return kl
}

func (l *InMemoryLocker) releaseRef(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl, exists := l.locks[key]
	if !exists {
		return
	}
	kl.holders--
	if kl.holders == 0 {
		delete(l.locks, key)
	}
}

// Size returns the number of tracked keys (for testing/monitoring)
func (l *InMemoryLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// Ensure InMemoryLocker implements EntityLocker
var _ shared.EntityLocker = (*InMemoryLocker)(nil)
