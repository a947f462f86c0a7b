package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/citypaints/erp-sync/internal/domain/catalog"
	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// Ensure GormAttachmentRepository implements AttachmentRepository
var _ catalog.AttachmentRepository = (*GormAttachmentRepository)(nil)

// GormAttachmentRepository implements AttachmentRepository using GORM
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewGormAttachmentRepository creates a new GormAttachmentRepository
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// FindByProduct returns the attachments of a product ordered by position
func (r *GormAttachmentRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.Attachment, error) {
	var attachments []catalog.Attachment
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position ASC").
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}

// FindBySourceURL finds an attachment by the ERP image reference it mirrors
func (r *GormAttachmentRepository) FindBySourceURL(ctx context.Context, sourceURL string) (*catalog.Attachment, error) {
	var attachment catalog.Attachment
	if err := r.db.WithContext(ctx).First(&attachment, "source_url = ?", sourceURL).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &attachment, nil
}

// Save creates or updates an attachment
func (r *GormAttachmentRepository) Save(ctx context.Context, attachment *catalog.Attachment) error {
	return r.db.WithContext(ctx).Save(attachment).Error
}

// DeleteByProduct deletes all attachments of a product
func (r *GormAttachmentRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&catalog.Attachment{}, "product_id = ?", productID).Error
}
