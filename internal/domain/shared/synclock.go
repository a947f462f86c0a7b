package shared

import (
	"context"
	"time"
)

// SyncLock guards operations that must run one at a time, such as a catalog
// sync run. Implementations decide the scope of exclusivity: in-process for a
// single instance, Redis-backed when several instances share the work.
type SyncLock interface {
	// Acquire takes the named lock for at most ttl.
	// Returns ErrSyncInProgress when another holder already has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) error

	// Release frees the named lock. Releasing a lock that is not held is
	// not an error.
	Release(ctx context.Context, name string) error
}
