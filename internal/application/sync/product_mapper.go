package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/citypaints/erp-sync/internal/domain/erp"
)

// MappedProduct pairs the enriched raw ERP product with its normalized form.
// RawJSON is the verbatim snapshot the handlers store as product metadata.
type MappedProduct struct {
	Raw        *erp.RawProduct
	RawJSON    string
	Normalized *erp.NormalizedProduct
}

// ProductMapper fetches the ERP catalog and merges the per-product price,
// stock and image endpoints into normalized products. The product listing is
// a hard dependency; the three per-product fetches degrade to empty data on
// failure, recorded in the product's sync errors.
type ProductMapper struct {
	gateway erp.ProductGateway
	workers int
	logger  *zap.Logger
}

// NewProductMapper creates a mapper that enriches up to workers products
// concurrently
func NewProductMapper(gateway erp.ProductGateway, workers int, logger *zap.Logger) *ProductMapper {
	if workers < 1 {
		workers = 1
	}
	return &ProductMapper{
		gateway: gateway,
		workers: workers,
		logger:  logger.Named("product-mapper"),
	}
}

// FetchAll lists the full catalog and enriches every product. The result
// preserves the listing order regardless of fetch concurrency. Products
// without an id are skipped and logged. Only the listing call can fail the
// whole operation.
func (m *ProductMapper) FetchAll(ctx context.Context) ([]MappedProduct, error) {
	products, err := m.gateway.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	m.logger.Info("Fetched product listing", zap.Int("count", len(products)))

	selected := make([]*erp.RawProduct, 0, len(products))
	for i := range products {
		if products[i].ID == 0 {
			m.logger.Warn("Skipping product without id", zap.String("sku", products[i].SKU))
			continue
		}
		selected = append(selected, &products[i])
	}

	// Enrich concurrently; the results slice is indexed by source position so
	// output order stays stable.
	results := make([]MappedProduct, len(selected))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < m.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				raw := selected[i]
				m.enrich(ctx, raw)
				results[i] = MappedProduct{
					Raw:        raw,
					RawJSON:    marshalRaw(raw),
					Normalized: Normalize(raw),
				}
			}
		}()
	}

	for i := range selected {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results, nil
}

// enrich fetches prices, quantities and images for one product. The three
// calls run concurrently; each failure clears its field and records a sync
// error without failing the product.
func (m *ProductMapper) enrich(ctx context.Context, raw *erp.RawProduct) {
	var (
		wg                         sync.WaitGroup
		priceErr, qtyErr, imageErr error
		prices                     []erp.RawPriceGroup
		quantities                 []erp.RawQuantity
		images                     []erp.RawImageGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		prices, priceErr = m.gateway.ListPrices(ctx, raw.ID)
	}()
	go func() {
		defer wg.Done()
		quantities, qtyErr = m.gateway.ListQuantities(ctx, raw.ID)
	}()
	go func() {
		defer wg.Done()
		images, imageErr = m.gateway.ListImages(ctx, raw.ID)
	}()
	wg.Wait()

	raw.ProductPrices = prices
	raw.ProductQtys = quantities
	raw.ProductImages = images

	m.recordFetchError(raw, "Product_Prices", priceErr)
	m.recordFetchError(raw, "Product_Qtys", qtyErr)
	m.recordFetchError(raw, "Product_Images", imageErr)
}

func (m *ProductMapper) recordFetchError(raw *erp.RawProduct, field string, err error) {
	if err == nil {
		return
	}
	m.logger.Warn("Per-product fetch failed",
		zap.Int64("product_id", raw.ID),
		zap.String("field", field),
		zap.Error(err))
	raw.SyncErrors = append(raw.SyncErrors, erp.SyncError{
		Field:   field,
		Code:    apiErrorCode(err),
		Message: err.Error(),
	})
}

func apiErrorCode(err error) string {
	var apiErr *erp.APIError
	if errors.As(err, &apiErr) {
		return string(apiErr.Code)
	}
	return string(erp.ErrCodeFallback)
}

func marshalRaw(raw *erp.RawProduct) string {
	data, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(data)
}

// Normalize merges the enriched raw product into the unit-keyed canonical
// form. Units come from Product_Units; each gets the matching price record
// (first customer price in its group, else the group's first entry), the
// first matching quantity record, the trimmed barcodes recorded against its
// id, and the images of its image group.
func Normalize(raw *erp.RawProduct) *erp.NormalizedProduct {
	normalized := &erp.NormalizedProduct{
		ID:          raw.ID,
		SKU:         strings.TrimSpace(raw.SKU),
		Name:        raw.Name,
		Description: raw.FullDescription,
		Units:       make(map[int64]erp.Unit, len(raw.ProductUnits)),
		UnitIDs:     make([]int64, 0, len(raw.ProductUnits)),
	}

	for _, rawUnit := range raw.ProductUnits {
		unit := erp.Unit{
			ID:          rawUnit.ID,
			ShortName:   rawUnit.ShortName,
			Description: rawUnit.Description,
			SKU:         strings.TrimSpace(rawUnit.SKU),
			Price:       selectPrice(raw.ProductPrices, rawUnit.ID),
			Stock:       selectStock(raw.ProductQtys, rawUnit.ID),
			BarCodes:    selectBarcodes(raw.ProductBarCodes, rawUnit.ID),
			Images:      selectImages(raw.ProductImages, rawUnit.ID),
		}
		if _, seen := normalized.Units[rawUnit.ID]; !seen {
			normalized.UnitIDs = append(normalized.UnitIDs, rawUnit.ID)
		}
		normalized.Units[rawUnit.ID] = unit
	}

	return normalized
}

func selectPrice(groups []erp.RawPriceGroup, unitID int64) *erp.RawPrice {
	for _, group := range groups {
		if group.UnitID != unitID {
			continue
		}
		if len(group.Prices) == 0 {
			return nil
		}
		for i := range group.Prices {
			if group.Prices[i].IsCustomerPrice {
				return &group.Prices[i]
			}
		}
		return &group.Prices[0]
	}
	return nil
}

func selectStock(quantities []erp.RawQuantity, unitID int64) *erp.RawQuantity {
	for i := range quantities {
		if quantities[i].UnitID == unitID {
			return &quantities[i]
		}
	}
	return nil
}

func selectBarcodes(barcodes []erp.RawBarcode, unitID int64) []string {
	var codes []string
	for _, barcode := range barcodes {
		if barcode.ID != unitID {
			continue
		}
		if code := strings.TrimSpace(barcode.BarCode); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func selectImages(groups []erp.RawImageGroup, unitID int64) []erp.RawImage {
	for _, group := range groups {
		if group.UnitID == unitID {
			return group.Images
		}
	}
	return nil
}
