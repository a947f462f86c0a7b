package erp

// NormalizedProduct is the canonical in-memory representation of an ERP
// product after the per-unit price, stock, barcode and image records have
// been merged.
type NormalizedProduct struct {
	// ID is the ERP product id.
	ID int64
	// SKU is the trimmed ERP SKU. May be empty; handlers generate a
	// fallback in that case.
	SKU string
	// Name is the product name.
	Name string
	// Description is the ERP full description.
	Description string
	// Units holds one entry per ERP unit, keyed by unit id. Map iteration
	// order is unspecified; use UnitIDs where ordering matters.
	Units map[int64]Unit
	// UnitIDs preserves the Product_Units insertion order. Variant creation
	// follows this order.
	UnitIDs []int64
}

// UnitCount returns the number of units. One unit maps to a single-SKU
// catalog product, two or more to a multi-variant product.
func (p *NormalizedProduct) UnitCount() int {
	return len(p.Units)
}

// OrderedUnits returns the units in Product_Units insertion order.
func (p *NormalizedProduct) OrderedUnits() []Unit {
	units := make([]Unit, 0, len(p.UnitIDs))
	for _, id := range p.UnitIDs {
		if u, ok := p.Units[id]; ok {
			units = append(units, u)
		}
	}
	return units
}

// FirstUnit returns the first unit in insertion order. It is only meaningful
// for single-unit products.
func (p *NormalizedProduct) FirstUnit() (Unit, bool) {
	for _, id := range p.UnitIDs {
		if u, ok := p.Units[id]; ok {
			return u, true
		}
	}
	return Unit{}, false
}

// Unit is one normalized packaging/variant of a product.
type Unit struct {
	ID          int64
	ShortName   string
	Description string
	// SKU is the unit-level SKU when the ERP provides one.
	SKU string
	// Price is the selected price record for this unit: the first entry
	// flagged IsCustomerPrice in the matching price group, else the group's
	// first entry. Nil when no price data is available.
	Price *RawPrice
	// Stock is the first quantity record matching the unit. Nil when no
	// stock data is available.
	Stock *RawQuantity
	// BarCodes holds all trimmed barcode values recorded against the unit.
	BarCodes []string
	// Images holds the image references of the matching image group.
	Images []RawImage
}

// SellingPrice returns the unit's selling price, or 0 when none is known.
func (u Unit) SellingPrice() float64 {
	if u.Price == nil {
		return 0
	}
	return u.Price.SellingPrice
}

// StockQuantity returns the unit's on-hand quantity, or 0 when none is known.
func (u Unit) StockQuantity() float64 {
	if u.Stock == nil {
		return 0
	}
	return u.Stock.QuantityOnHand
}

// PrimaryBarcode selects the barcode stored as the catalog's global unique
// id: the first all-digit code of at least eight characters, else the first
// non-empty code.
func (u Unit) PrimaryBarcode() string {
	var fallback string
	for _, code := range u.BarCodes {
		if code == "" {
			continue
		}
		if isNumericBarcode(code) {
			return code
		}
		if fallback == "" {
			fallback = code
		}
	}
	return fallback
}

func isNumericBarcode(code string) bool {
	if len(code) < 8 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
