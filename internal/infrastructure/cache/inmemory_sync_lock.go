package cache

import (
	"context"
	"sync"
	"time"

	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// Ensure InMemorySyncLock implements SyncLock
var _ shared.SyncLock = (*InMemorySyncLock)(nil)

// lockEntry records when a held lock lapses on its own.
type lockEntry struct {
	expiresAt time.Time
}

// InMemorySyncLock implements SyncLock with an in-process map. Suitable for
// single-instance deployments and testing.
type InMemorySyncLock struct {
	mu    sync.Mutex
	locks map[string]lockEntry

	// now allows tests to control the clock.
	now func() time.Time
}

// NewInMemorySyncLock creates an empty in-memory sync lock
func NewInMemorySyncLock() *InMemorySyncLock {
	return &InMemorySyncLock{
		locks: make(map[string]lockEntry),
		now:   time.Now,
	}
}

// Acquire takes the named lock. A previous holder whose TTL has lapsed is
// treated as gone. Returns ErrSyncInProgress when the lock is still held.
func (l *InMemorySyncLock) Acquire(_ context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, held := l.locks[name]; held && l.now().Before(e.expiresAt) {
		return shared.ErrSyncInProgress
	}
	l.locks[name] = lockEntry{expiresAt: l.now().Add(ttl)}
	return nil
}

// Release frees the named lock.
func (l *InMemorySyncLock) Release(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, name)
	return nil
}
