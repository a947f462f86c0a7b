package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/citypaints/erp-sync/internal/domain/catalog"
	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// Ensure GormAttributeRepository implements AttributeRepository
var _ catalog.AttributeRepository = (*GormAttributeRepository)(nil)

// GormAttributeRepository implements AttributeRepository using GORM
type GormAttributeRepository struct {
	db *gorm.DB
}

// NewGormAttributeRepository creates a new GormAttributeRepository
func NewGormAttributeRepository(db *gorm.DB) *GormAttributeRepository {
	return &GormAttributeRepository{db: db}
}

// EnsureAttribute returns the attribute with the slug, creating it if needed
func (r *GormAttributeRepository) EnsureAttribute(ctx context.Context, slug, name string) (*catalog.Attribute, error) {
	var attr catalog.Attribute
	err := r.db.WithContext(ctx).Where("slug = ?", slug).Take(&attr).Error
	if err == nil {
		return &attr, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created, err := catalog.NewAttribute(slug, name)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).
		Create(created).Error; err != nil {
		return nil, err
	}

	// A concurrent creator may have won the conflict; read back the row.
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).Take(&attr).Error; err != nil {
		return nil, err
	}
	return &attr, nil
}

// EnsureTerms returns the terms with the given names under the attribute,
// creating missing ones. The result preserves the input order.
func (r *GormAttributeRepository) EnsureTerms(ctx context.Context, attributeID uuid.UUID, names []string) ([]catalog.AttributeTerm, error) {
	terms := make([]catalog.AttributeTerm, 0, len(names))
	for _, name := range names {
		slug := catalog.TermSlug(name)

		var term catalog.AttributeTerm
		err := r.db.WithContext(ctx).
			Where("attribute_id = ? AND slug = ?", attributeID, slug).
			Take(&term).Error
		if err == nil {
			terms = append(terms, term)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		created, err := catalog.NewAttributeTerm(attributeID, name)
		if err != nil {
			return nil, err
		}
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "attribute_id"}, {Name: "slug"}},
				DoNothing: true,
			}).
			Create(created).Error; err != nil {
			return nil, err
		}
		if err := r.db.WithContext(ctx).
			Where("attribute_id = ? AND slug = ?", attributeID, slug).
			Take(&term).Error; err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, nil
}

// SetProductAttribute assigns the attribute with the given term slugs to the
// product, replacing any previous assignment
func (r *GormAttributeRepository) SetProductAttribute(ctx context.Context, productID, attributeID uuid.UUID, termSlugs []string, isVariation bool) error {
	value := catalog.ProductAttributeValue{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		AttributeID: attributeID,
		TermSlugs:   strings.Join(termSlugs, ","),
		IsVariation: isVariation,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "attribute_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"term_slugs", "is_variation", "updated_at"}),
		}).
		Create(&value).Error
}

// ClearProductAttribute removes the product's assignment of the attribute
func (r *GormAttributeRepository) ClearProductAttribute(ctx context.Context, productID, attributeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&catalog.ProductAttributeValue{}, "product_id = ? AND attribute_id = ?", productID, attributeID).Error
}
