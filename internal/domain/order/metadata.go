package order

import (
	"github.com/google/uuid"

	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// Metadata is one key/value entry attached to an order. The submission flow
// uses it to keep the exact payload and response of every attempt.
type Metadata struct {
	shared.BaseEntity
	OrderID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_order_metadata_key,priority:1"`
	Key     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_order_metadata_key,priority:2"`
	Value   string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Metadata) TableName() string {
	return "order_metadata"
}
