package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// Variant is one purchasable variation of a variable product. Each variant
// mirrors one ERP unit and carries its own SKU, price and stock.
type Variant struct {
	shared.BaseEntity
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU           string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	ERPUnitID     int64           `gorm:"index"`
	OptionValue   string          `gorm:"type:varchar(100);not null"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockQuantity float64         `gorm:"not null;default:0"`
	StockStatus   StockStatus     `gorm:"type:varchar(20);not null;default:'outofstock'"`
	Position      int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Variant) TableName() string {
	return "product_variants"
}

// NewVariant creates a new variant under the given product
func NewVariant(productID uuid.UUID, sku, optionValue string, erpUnitID int64, position int) (*Variant, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT_ID", "Product ID cannot be empty")
	}
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if optionValue == "" {
		return nil, shared.NewDomainError("INVALID_OPTION", "Variant option value cannot be empty")
	}

	return &Variant{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		SKU:         sku,
		ERPUnitID:   erpUnitID,
		OptionValue: optionValue,
		Price:       decimal.Zero,
		StockStatus: StockStatusOutOfStock,
		Position:    position,
	}, nil
}

// SetPricing sets the variant price
func (v *Variant) SetPricing(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	v.Price = price
	v.UpdatedAt = time.Now()

	return nil
}

// SetStock sets the stock quantity and derives the stock status from it
func (v *Variant) SetStock(quantity float64) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock quantity cannot be negative")
	}

	v.StockQuantity = quantity
	if quantity > 0 {
		v.StockStatus = StockStatusInStock
	} else {
		v.StockStatus = StockStatusOutOfStock
	}
	v.UpdatedAt = time.Now()

	return nil
}

// SetOption updates the variant's attribute option value
func (v *Variant) SetOption(optionValue string) error {
	if optionValue == "" {
		return shared.NewDomainError("INVALID_OPTION", "Variant option value cannot be empty")
	}

	v.OptionValue = optionValue
	v.UpdatedAt = time.Now()

	return nil
}
