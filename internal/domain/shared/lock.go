package shared

import (
	"context"
	"time"
)

// EntityLocker serializes mutations of a single keyed entity across
// concurrent callers. Implementations must guarantee that at most one
// holder runs fn for a given key at a time.
type EntityLocker interface {
	// WithLock runs fn while holding the lock for key. The ttl bounds how
	// long the lease may be held if the holder dies without releasing.
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}
