package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// ProductType distinguishes single-SKU products from multi-variant ones.
type ProductType string

const (
	ProductTypeSimple   ProductType = "simple"
	ProductTypeVariable ProductType = "variable"
)

// IsValid checks if the product type is valid
func (t ProductType) IsValid() bool {
	switch t {
	case ProductTypeSimple, ProductTypeVariable:
		return true
	default:
		return false
	}
}

// StockStatus represents the sellable state derived from stock quantity
type StockStatus string

const (
	StockStatusInStock    StockStatus = "instock"
	StockStatusOutOfStock StockStatus = "outofstock"
)

// Product is a storefront catalog product. It is the aggregate root the sync
// pipeline creates and updates from ERP data. Variable products carry their
// price and stock on variants; the product-level fields then stay zero.
type Product struct {
	shared.BaseEntity
	SKU           string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:text"`
	Type          ProductType     `gorm:"type:varchar(20);not null;default:'simple'"`
	RegularPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockQuantity float64         `gorm:"not null;default:0"`
	StockStatus   StockStatus     `gorm:"type:varchar(20);not null;default:'outofstock'"`
	ERPProductID  int64           `gorm:"index"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product of the given type
func NewProduct(sku, name string, productType ProductType) (*Product, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if !productType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRODUCT_TYPE", "Product type must be simple or variable")
	}

	return &Product{
		BaseEntity:   shared.NewBaseEntity(),
		SKU:          strings.TrimSpace(sku),
		Name:         name,
		Type:         productType,
		RegularPrice: decimal.Zero,
		StockStatus:  StockStatusOutOfStock,
	}, nil
}

// Update updates the product's name and description
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.UpdatedAt = time.Now()

	return nil
}

// SetPricing sets the regular price
func (p *Product) SetPricing(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	p.RegularPrice = price
	p.UpdatedAt = time.Now()

	return nil
}

// SetStock sets the stock quantity and derives the stock status from it
func (p *Product) SetStock(quantity float64) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock quantity cannot be negative")
	}

	p.StockQuantity = quantity
	if quantity > 0 {
		p.StockStatus = StockStatusInStock
	} else {
		p.StockStatus = StockStatusOutOfStock
	}
	p.UpdatedAt = time.Now()

	return nil
}

// ConvertToVariable switches the product to the variable type. Product-level
// price and stock are cleared; variants carry them from here on.
func (p *Product) ConvertToVariable() {
	if p.Type == ProductTypeVariable {
		return
	}
	p.Type = ProductTypeVariable
	p.RegularPrice = decimal.Zero
	p.StockQuantity = 0
	p.StockStatus = StockStatusOutOfStock
	p.UpdatedAt = time.Now()
}

// ConvertToSimple switches the product to the simple type. The caller removes
// the now-orphaned variants and sets product-level price and stock afterwards.
func (p *Product) ConvertToSimple() {
	if p.Type == ProductTypeSimple {
		return
	}
	p.Type = ProductTypeSimple
	p.UpdatedAt = time.Now()
}

// LinkERPProduct records the ERP product id this catalog product mirrors
func (p *Product) LinkERPProduct(erpProductID int64) {
	p.ERPProductID = erpProductID
	p.UpdatedAt = time.Now()
}

// IsVariable returns true if the product is a variable product
func (p *Product) IsVariable() bool {
	return p.Type == ProductTypeVariable
}

// validateSKU validates the product SKU
func validateSKU(sku string) error {
	trimmed := strings.TrimSpace(sku)
	if trimmed == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(trimmed) > 100 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 100 characters")
	}
	return nil
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
