package catalog

import (
	"strings"

	"github.com/google/uuid"

	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// UnitSizeAttributeSlug is the global attribute taxonomy that holds the ERP
// unit names of variable products.
const (
	UnitSizeAttributeSlug = "pa_unit_size"
	UnitSizeAttributeName = "Unit Size"
)

// Attribute is a global product attribute taxonomy, such as unit size.
type Attribute struct {
	shared.BaseEntity
	Slug string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (Attribute) TableName() string {
	return "product_attributes"
}

// NewAttribute creates a new attribute taxonomy
func NewAttribute(slug, name string) (*Attribute, error) {
	if slug == "" {
		return nil, shared.NewDomainError("INVALID_SLUG", "Attribute slug cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Attribute name cannot be empty")
	}

	return &Attribute{
		BaseEntity: shared.NewBaseEntity(),
		Slug:       slug,
		Name:       name,
	}, nil
}

// AttributeTerm is one selectable value within an attribute taxonomy.
type AttributeTerm struct {
	shared.BaseEntity
	AttributeID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_term_attr_slug,priority:1"`
	Slug        string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_term_attr_slug,priority:2"`
	Name        string    `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (AttributeTerm) TableName() string {
	return "product_attribute_terms"
}

// NewAttributeTerm creates a new term under the given attribute
func NewAttributeTerm(attributeID uuid.UUID, name string) (*AttributeTerm, error) {
	if attributeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ATTRIBUTE_ID", "Attribute ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Term name cannot be empty")
	}

	return &AttributeTerm{
		BaseEntity:  shared.NewBaseEntity(),
		AttributeID: attributeID,
		Slug:        TermSlug(name),
		Name:        name,
	}, nil
}

// ProductAttributeValue assigns an attribute and its selected terms to a
// product. For variable products the attribute drives variant selection.
type ProductAttributeValue struct {
	shared.BaseEntity
	ProductID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_attribute,priority:1"`
	AttributeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_attribute,priority:2"`
	TermSlugs   string    `gorm:"type:text;not null"`
	IsVariation bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ProductAttributeValue) TableName() string {
	return "product_attribute_values"
}

// TermSlug derives the canonical slug of a term name: lowercased, with
// whitespace runs collapsed to single hyphens.
func TermSlug(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	return strings.Join(fields, "-")
}
