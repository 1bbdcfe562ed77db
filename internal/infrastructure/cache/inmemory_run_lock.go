package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shopops/revsync/internal/application/revenue"
)

// InMemoryRunLock implements revenue.RunLock with a process-local map.
// It only serializes runs inside one process.
type InMemoryRunLock struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewInMemoryRunLock creates a new in-memory run lock
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// TryAcquire takes key for ttl unless an unexpired holder exists
func (l *InMemoryRunLock) TryAcquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiresAt, held := l.entries[key]; held && now.Before(expiresAt) {
		return false, nil
	}
	l.entries[key] = now.Add(ttl)
	l.purgeExpired(now)
	return true, nil
}

// Release frees key. Releasing a free key is not an error.
func (l *InMemoryRunLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
	return nil
}

// Close implements io.Closer
func (l *InMemoryRunLock) Close() error {
	return nil
}

// Size returns the number of held keys, expired or not
func (l *InMemoryRunLock) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *InMemoryRunLock) purgeExpired(now time.Time) {
	for key, expiresAt := range l.entries {
		if !now.Before(expiresAt) {
			delete(l.entries, key)
		}
	}
}

var _ revenue.RunLock = (*InMemoryRunLock)(nil)
