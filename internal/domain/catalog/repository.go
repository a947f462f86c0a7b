package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product and variant persistence.
// The sync handlers depend on it; lookups that find nothing return
// shared.ErrNotFound.
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySKU finds a product by its SKU
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// FindIDBySKU resolves a product SKU to its ID without loading the row
	FindIDBySKU(ctx context.Context, sku string) (uuid.UUID, error)

	// FindByERPProductID finds a product by the ERP product id it mirrors
	FindByERPProductID(ctx context.Context, erpProductID int64) (*Product, error)

	// ExistsBySKU checks if any product or variant carries the given SKU
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Delete deletes a product together with its variants and metadata
	Delete(ctx context.Context, id uuid.UUID) error

	// FindVariantBySKU finds a variant by its SKU
	FindVariantBySKU(ctx context.Context, sku string) (*Variant, error)

	// FindVariantsByProduct returns the variants of a product ordered by position
	FindVariantsByProduct(ctx context.Context, productID uuid.UUID) ([]Variant, error)

	// SaveVariant creates or updates a variant
	SaveVariant(ctx context.Context, variant *Variant) error

	// DeleteVariant deletes a single variant
	DeleteVariant(ctx context.Context, id uuid.UUID) error

	// DeleteVariantsByProduct deletes all variants of a product
	DeleteVariantsByProduct(ctx context.Context, productID uuid.UUID) error
}

// MetadataRepository persists key/value metadata for products and variants
type MetadataRepository interface {
	// Get returns the value stored under the key, or "" when absent
	Get(ctx context.Context, ownerID uuid.UUID, key string) (string, error)

	// Set creates or replaces the value stored under the key
	Set(ctx context.Context, ownerID uuid.UUID, key, value string) error

	// Delete removes the entry, ignoring absent keys
	Delete(ctx context.Context, ownerID uuid.UUID, key string) error
}

// AttributeRepository persists attribute taxonomies, their terms, and
// per-product attribute assignments
type AttributeRepository interface {
	// EnsureAttribute returns the attribute with the slug, creating it if needed
	EnsureAttribute(ctx context.Context, slug, name string) (*Attribute, error)

	// EnsureTerms returns the terms with the given names under the attribute,
	// creating missing ones
	EnsureTerms(ctx context.Context, attributeID uuid.UUID, names []string) ([]AttributeTerm, error)

	// SetProductAttribute assigns the attribute with the given term slugs to
	// the product, replacing any previous assignment
	SetProductAttribute(ctx context.Context, productID, attributeID uuid.UUID, termSlugs []string, isVariation bool) error

	// ClearProductAttribute removes the product's assignment of the attribute
	ClearProductAttribute(ctx context.Context, productID, attributeID uuid.UUID) error
}

// AttachmentRepository persists product image attachments
type AttachmentRepository interface {
	// FindByProduct returns the attachments of a product ordered by position
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Attachment, error)

	// FindBySourceURL finds an attachment by the ERP image reference it
	// mirrors, regardless of owning product
	FindBySourceURL(ctx context.Context, sourceURL string) (*Attachment, error)

	// Save creates or updates an attachment
	Save(ctx context.Context, attachment *Attachment) error

	// DeleteByProduct deletes all attachments of a product
	DeleteByProduct(ctx context.Context, productID uuid.UUID) error
}
