package erp

// Wire types for the ERP product endpoints. Field tags follow the ERP's
// PascalCase-with-underscores JSON convention exactly. The enriched
// RawProduct is re-marshaled and stored as a catalog metadata snapshot, so
// downstream consumers (the order payload builder) read the same shape.

// RawProduct is one entry of the `products` listing, enriched in place with
// the per-product prices, quantities and images responses before
// normalization. Its lifetime is one sync pass.
type RawProduct struct {
	ID              int64        `json:"Id"`
	SKU             string       `json:"SKU"`
	Name            string       `json:"Name"`
	FullDescription string       `json:"Full_Description,omitempty"`
	ProductUnits    []RawUnit    `json:"Product_Units,omitempty"`
	ProductBarCodes []RawBarcode `json:"Product_BarCodes,omitempty"`

	// VatInfo is the product-level VAT fallback used when no per-unit price
	// group carries its own.
	VatInfo *VatInfo `json:"Vat_Info,omitempty"`

	// Enriched by the mapper from the per-product endpoints. Empty when the
	// corresponding fetch failed; the failure is recorded in SyncErrors.
	ProductPrices []RawPriceGroup `json:"Product_Prices,omitempty"`
	ProductQtys   []RawQuantity   `json:"Product_Qtys,omitempty"`
	ProductImages []RawImageGroup `json:"Product_Images,omitempty"`

	// SyncErrors captures partial-fetch failures for this product. A
	// non-empty list degrades the affected field to empty but never aborts
	// the product.
	SyncErrors []SyncError `json:"_sync_errors,omitempty"`
}

// SyncError records one failed per-product fetch.
type SyncError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RawUnit is one packaging/variant of a product as exposed by the ERP.
type RawUnit struct {
	ID          int64  `json:"Id"`
	ShortName   string `json:"Short_Name,omitempty"`
	Description string `json:"Description,omitempty"`
	SKU         string `json:"SKU,omitempty"`
}

// RawBarcode associates a barcode with a unit. The ERP keys barcode records
// by the unit id in the Id field.
type RawBarcode struct {
	ID      int64  `json:"Id"`
	BarCode string `json:"BarCode"`
}

// RawPriceGroup is the per-unit price block of the prices endpoint.
type RawPriceGroup struct {
	UnitID  int64      `json:"Unit_Id"`
	Prices  []RawPrice `json:"Prices,omitempty"`
	VatInfo *VatInfo   `json:"Vat_Info,omitempty"`

	// Group-level fallbacks used when the first price carries no Vat_Info.
	VatRate   float64 `json:"VatRate,omitempty"`
	VatSwitch string  `json:"VAT_Switch,omitempty"`
}

// RawPrice is one price entry within a unit's price group.
type RawPrice struct {
	IsCustomerPrice bool     `json:"IsCustomerPrice,omitempty"`
	SellingPrice    float64  `json:"Selling_Price"`
	VatCode         string   `json:"VatCode,omitempty"`
	VatInfo         *VatInfo `json:"Vat_Info,omitempty"`
}

// VatInfo describes the VAT treatment of a price. VatSwitch is "I" for
// VAT-inclusive prices and "E" for VAT-exclusive ones.
type VatInfo struct {
	VatCode   string  `json:"VATCode,omitempty"`
	VatRate   float64 `json:"VatRate,omitempty"`
	VatSwitch string  `json:"VAT_Switch,omitempty"`
}

// RawQuantity is one stock record of the quantities endpoint.
type RawQuantity struct {
	UnitID         int64   `json:"Unit_Id"`
	QuantityOnHand float64 `json:"Quantity_On_Hand"`
}

// RawImageGroup is the per-unit image block of the images endpoint.
type RawImageGroup struct {
	UnitID int64      `json:"Unit_Id"`
	Images []RawImage `json:"Images,omitempty"`
}

// RawImage is one product image reference.
type RawImage struct {
	Path string `json:"Path"`
}
