package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/citypaints/erp-sync/internal/domain/order"
	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// Ensure GormOrderRepository implements Repository
var _ order.Repository = (*GormOrderRepository)(nil)

// GormOrderRepository implements the order Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with its items by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByNumber finds an order with its items by storefront order number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&o, "number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Save creates or updates an order together with its items
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(o).Error
}

// UpdateSyncState persists only the sync state and reference columns
func (r *GormOrderRepository) UpdateSyncState(ctx context.Context, id uuid.UUID, state order.SyncState, reference string) error {
	result := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sync_state":     state,
			"sync_reference": reference,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetMetadata creates or replaces an order metadata entry
func (r *GormOrderRepository) SetMetadata(ctx context.Context, orderID uuid.UUID, key, value string) error {
	meta := order.Metadata{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
		Key:        key,
		Value:      value,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&meta).Error
}

// GetMetadata returns the metadata value, or "" when absent
func (r *GormOrderRepository) GetMetadata(ctx context.Context, orderID uuid.UUID, key string) (string, error) {
	var meta order.Metadata
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND key = ?", orderID, key).
		Take(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return meta.Value, nil
}
