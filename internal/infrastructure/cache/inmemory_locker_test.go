package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLocker_SerializesSameKey(t *testing.T) {
	locker := NewInMemoryLocker()

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), "resync:store:BC-1", time.Minute, func() error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive, "at most one holder should run at a time")
	assert.Equal(t, 0, locker.Size(), "released keys should be dropped")
}

func TestInMemoryLocker_IndependentKeysDoNotBlock(t *testing.T) {
	locker := NewInMemoryLocker()

	release := make(chan struct{})
	held := make(chan struct{})

	go func() {
		_ = locker.WithLock(context.Background(), "key-a", time.Minute, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	done := make(chan error, 1)
	go func() {
		done <- locker.WithLock(context.Background(), "key-b", time.Minute, func() error {
			return nil
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("lock on an independent key should not block")
	}

	close(release)
}

func TestInMemoryLocker_RespectsContextCancellation(t *testing.T) {
	locker := NewInMemoryLocker()

	release := make(chan struct{})
	held := make(chan struct{})

	go func() {
		_ = locker.WithLock(context.Background(), "key-a", time.Minute, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := locker.WithLock(ctx, "key-a", time.Minute, func() error {
		t.Fatal("fn must not run when acquisition is cancelled")
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestInMemoryLocker_PropagatesFnError(t *testing.T) {
	locker := NewInMemoryLocker()

	err := locker.WithLock(context.Background(), "key-a", time.Minute, func() error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, locker.Size())
}
