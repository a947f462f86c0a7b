package catalog

import (
	"github.com/google/uuid"

	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// Metadata keys written by the sync pipeline.
const (
	// MetaKeyRawData stores the enriched ERP product JSON captured at sync
	// time. The order payload builder reads unit and VAT data from it.
	MetaKeyRawData = "_citypaints_raw_data"

	// MetaKeyBarcodes stores the JSON list of barcodes of the matching unit.
	MetaKeyBarcodes = "_erp_barcodes"

	// MetaKeyGlobalUniqueID stores the primary barcode.
	MetaKeyGlobalUniqueID = "_global_unique_id"
)

// Metadata is one key/value entry attached to a product or variant. Values
// are stored as text; structured values are JSON-encoded by the writer.
type Metadata struct {
	shared.BaseEntity
	OwnerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_metadata_owner_key,priority:1"`
	Key     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_metadata_owner_key,priority:2"`
	Value   string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Metadata) TableName() string {
	return "product_metadata"
}

// NewMetadata creates a metadata entry for the given owner
func NewMetadata(ownerID uuid.UUID, key, value string) (*Metadata, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER_ID", "Owner ID cannot be empty")
	}
	if key == "" {
		return nil, shared.NewDomainError("INVALID_KEY", "Metadata key cannot be empty")
	}

	return &Metadata{
		BaseEntity: shared.NewBaseEntity(),
		OwnerID:    ownerID,
		Key:        key,
		Value:      value,
	}, nil
}
