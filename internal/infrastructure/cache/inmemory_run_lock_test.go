package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRunLock_TryAcquire(t *testing.T) {
	lock := NewInMemoryRunLock()
	ctx := context.Background()

	t.Run("free key is acquired", func(t *testing.T) {
		ok, err := lock.TryAcquire(ctx, "daily:2024-03-15", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("held key is rejected", func(t *testing.T) {
		ok, err := lock.TryAcquire(ctx, "daily:2024-03-15", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("other keys are independent", func(t *testing.T) {
		ok, err := lock.TryAcquire(ctx, "daily:2024-03-16", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("released key can be acquired again", func(t *testing.T) {
		require.NoError(t, lock.Release(ctx, "daily:2024-03-15"))
		ok, err := lock.TryAcquire(ctx, "daily:2024-03-15", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("releasing a free key is a no-op", func(t *testing.T) {
		assert.NoError(t, lock.Release(ctx, "never-held"))
	})
}

func TestInMemoryRunLock_Expiry(t *testing.T) {
	lock := NewInMemoryRunLock()
	now := time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC)
	lock.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := lock.TryAcquire(ctx, "a", time.Minute)
	require.True(t, ok)
	ok, _ = lock.TryAcquire(ctx, "b", time.Hour)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err := lock.TryAcquire(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired holder should not block")
	assert.Equal(t, 2, lock.Size())

	now = now.Add(2 * time.Hour)
	ok, _ = lock.TryAcquire(ctx, "c", time.Minute)
	require.True(t, ok)
	assert.Equal(t, 1, lock.Size(), "expired keys are purged")
}

func TestInMemoryRunLock_Concurrent(t *testing.T) {
	lock := NewInMemoryRunLock()
	defer lock.Close()

	var acquired atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := lock.TryAcquire(context.Background(), "same", time.Hour); ok {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), acquired.Load())
}
