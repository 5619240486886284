package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/semdin/sellerx-backend/internal/domain/shared"
)

// releaseScript deletes the lock key only when it still holds our token,
// so a holder whose lease expired cannot release someone else's lock.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker implements EntityLocker on top of Redis SETNX leases.
// This is suitable for distributed deployments where multiple instances
// may try to mutate the same entity concurrently.
type RedisLocker struct {
	client     *redis.Client
	keyPrefix  string
	retryDelay time.Duration
}

// NewRedisLocker creates a locker with an existing Redis client
func NewRedisLocker(client *redis.Client, keyPrefix string) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = "lock:"
	}
	return &RedisLocker{
		client:     client,
		keyPrefix:  keyPrefix,
		retryDelay: 100 * time.Millisecond,
	}
}

// WithLock acquires the lease for key, runs fn, then releases the lease.
// Acquisition retries until the context is cancelled. The ttl bounds how
// long the lease survives a holder that dies without releasing.
func (l *RedisLocker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	fullKey := l.keyPrefix + key
	token := uuid.NewString()

	for {
		acquired, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if acquired {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}

	defer func() {
		// Release on a fresh context so a cancelled caller still
		// gives the lease back instead of waiting out the TTL.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		l.client.Eval(releaseCtx, releaseScript, []string{fullKey}, token)
	}()

	return fn()
}

// Ensure RedisLocker implements EntityLocker
var _ shared.EntityLocker = (*RedisLocker)(nil)
