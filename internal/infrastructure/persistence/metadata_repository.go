package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/citypaints/erp-sync/internal/domain/catalog"
)

// Ensure GormMetadataRepository implements MetadataRepository
var _ catalog.MetadataRepository = (*GormMetadataRepository)(nil)

// GormMetadataRepository implements MetadataRepository using GORM
type GormMetadataRepository struct {
	db *gorm.DB
}

// NewGormMetadataRepository creates a new GormMetadataRepository
func NewGormMetadataRepository(db *gorm.DB) *GormMetadataRepository {
	return &GormMetadataRepository{db: db}
}

// Get returns the value stored under the key, or "" when absent
func (r *GormMetadataRepository) Get(ctx context.Context, ownerID uuid.UUID, key string) (string, error) {
	var meta catalog.Metadata
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND key = ?", ownerID, key).
		Take(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return meta.Value, nil
}

// Set creates or replaces the value stored under the key
func (r *GormMetadataRepository) Set(ctx context.Context, ownerID uuid.UUID, key, value string) error {
	meta, err := catalog.NewMetadata(ownerID, key, value)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(meta).Error
}

// Delete removes the entry, ignoring absent keys
func (r *GormMetadataRepository) Delete(ctx context.Context, ownerID uuid.UUID, key string) error {
	return r.db.WithContext(ctx).
		Delete(&catalog.Metadata{}, "owner_id = ? AND key = ?", ownerID, key).Error
}
