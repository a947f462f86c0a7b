package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/citypaints/erp-sync/internal/domain/erp"
)

// Ensure ProductAPI implements the product gateway
var _ erp.ProductGateway = (*ProductAPI)(nil)

// ProductAPI exposes the ERP product catalog endpoints on top of Client. The
// per-product endpoints answer either a bare JSON array or a wrapper object
// keyed by the list name; unwrapList accepts both.
type ProductAPI struct {
	client *Client
}

// NewProductAPI creates a product gateway backed by the given client
func NewProductAPI(client *Client) *ProductAPI {
	return &ProductAPI{client: client}
}

// ListProducts fetches the full product listing with units and barcodes.
func (a *ProductAPI) ListProducts(ctx context.Context) ([]erp.RawProduct, error) {
	var products []erp.RawProduct
	if err := a.client.Get(ctx, "products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListPrices fetches the per-unit price groups of one product.
func (a *ProductAPI) ListPrices(ctx context.Context, productID int64) ([]erp.RawPriceGroup, error) {
	var raw json.RawMessage
	if err := a.client.Get(ctx, fmt.Sprintf("products/prices/%d", productID), nil, &raw); err != nil {
		return nil, err
	}
	return unwrapList[erp.RawPriceGroup](raw, "Product_Prices")
}

// ListQuantities fetches the per-unit stock records of one product.
func (a *ProductAPI) ListQuantities(ctx context.Context, productID int64) ([]erp.RawQuantity, error) {
	var raw json.RawMessage
	if err := a.client.Get(ctx, fmt.Sprintf("products/quantities/%d", productID), nil, &raw); err != nil {
		return nil, err
	}
	return unwrapList[erp.RawQuantity](raw, "Product_Qtys")
}

// ListImages fetches the per-unit image groups of one product.
func (a *ProductAPI) ListImages(ctx context.Context, productID int64) ([]erp.RawImageGroup, error) {
	var raw json.RawMessage
	if err := a.client.Get(ctx, fmt.Sprintf("products/images/%d", productID), nil, &raw); err != nil {
		return nil, err
	}
	return unwrapList[erp.RawImageGroup](raw, "Product_Images")
}

// GetBySKU fetches a single product by its ERP SKU. The endpoint answers
// either a product object or a one-element array.
func (a *ProductAPI) GetBySKU(ctx context.Context, sku string) (*erp.RawProduct, error) {
	var raw json.RawMessage
	endpoint := "products/sku/" + url.PathEscape(sku)
	if err := a.client.Get(ctx, endpoint, nil, &raw); err != nil {
		if apiErr := asAPIError(err); apiErr != nil && apiErr.StatusCode == http.StatusNotFound {
			return nil, erp.ErrProductNotFound
		}
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, erp.ErrProductNotFound
	}

	if trimmed[0] == '[' {
		var products []erp.RawProduct
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return nil, erp.NewAPIError(erp.ErrCodeInvalidJSON, "unexpected product list shape")
		}
		if len(products) == 0 {
			return nil, erp.ErrProductNotFound
		}
		return &products[0], nil
	}

	var product erp.RawProduct
	if err := json.Unmarshal(trimmed, &product); err != nil {
		return nil, erp.NewAPIError(erp.ErrCodeInvalidJSON, "unexpected product shape")
	}
	if product.ID == 0 {
		return nil, erp.ErrProductNotFound
	}
	return &product, nil
}

// unwrapList decodes raw as either a bare array or a wrapper object carrying
// the array under key. A wrapper without the key yields an empty list.
func unwrapList[T any](raw json.RawMessage, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var list []T
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, erp.NewAPIError(erp.ErrCodeInvalidJSON, "unexpected list shape")
		}
		return list, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, erp.NewAPIError(erp.ErrCodeInvalidJSON, "unexpected wrapper shape")
	}

	inner, ok := wrapper[key]
	if !ok {
		return nil, nil
	}

	var list []T
	if err := json.Unmarshal(inner, &list); err != nil {
		return nil, erp.NewAPIError(erp.ErrCodeInvalidJSON, "unexpected wrapped list shape")
	}
	return list, nil
}

// asAPIError unwraps err to an *erp.APIError, or nil.
func asAPIError(err error) *erp.APIError {
	var apiErr *erp.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
