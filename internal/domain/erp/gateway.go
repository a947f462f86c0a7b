package erp

import "context"

// ProductGateway exposes the ERP product catalog endpoints. Implementations
// handle authentication and the single retry after a rejected token; callers
// see either decoded data or an *APIError.
type ProductGateway interface {
	// ListProducts fetches the full product listing with units and barcodes.
	ListProducts(ctx context.Context) ([]RawProduct, error)

	// ListPrices fetches the per-unit price groups of one product.
	ListPrices(ctx context.Context, productID int64) ([]RawPriceGroup, error)

	// ListQuantities fetches the per-unit stock records of one product.
	ListQuantities(ctx context.Context, productID int64) ([]RawQuantity, error)

	// ListImages fetches the per-unit image groups of one product.
	ListImages(ctx context.Context, productID int64) ([]RawImageGroup, error)

	// GetBySKU fetches a single product by its ERP SKU. Returns
	// ErrProductNotFound when the ERP has no match.
	GetBySKU(ctx context.Context, sku string) (*RawProduct, error)
}

// OrderGateway submits orders to the ERP.
type OrderGateway interface {
	// CreateOrder posts the payload and returns the ERP's per-order results.
	CreateOrder(ctx context.Context, payload *OrderPayload) (*OrderResponse, error)
}
