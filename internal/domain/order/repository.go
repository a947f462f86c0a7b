package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for order persistence. Lookups that find
// nothing return shared.ErrNotFound.
type Repository interface {
	// FindByID finds an order with its items by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByNumber finds an order with its items by storefront order number
	FindByNumber(ctx context.Context, number int64) (*Order, error)

	// Save creates or updates an order together with its items
	Save(ctx context.Context, order *Order) error

	// UpdateSyncState persists only the sync state and reference columns
	UpdateSyncState(ctx context.Context, id uuid.UUID, state SyncState, reference string) error

	// SetMetadata creates or replaces an order metadata entry
	SetMetadata(ctx context.Context, orderID uuid.UUID, key, value string) error

	// GetMetadata returns the metadata value, or "" when absent
	GetMetadata(ctx context.Context, orderID uuid.UUID, key string) (string, error)
}
