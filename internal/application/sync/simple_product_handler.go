package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/citypaints/erp-sync/internal/domain/catalog"
	"github.com/citypaints/erp-sync/internal/domain/erp"
	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// SimpleProductHandler materializes single-unit ERP products as simple
// catalog products: one SKU carrying the unit's price, stock, barcodes and
// image directly on the product.
type SimpleProductHandler struct {
	products catalog.ProductRepository
	metadata catalog.MetadataRepository
	images   *ImageAttacher
	logger   *zap.Logger
}

// NewSimpleProductHandler creates a new SimpleProductHandler
func NewSimpleProductHandler(
	products catalog.ProductRepository,
	metadata catalog.MetadataRepository,
	images *ImageAttacher,
	logger *zap.Logger,
) *SimpleProductHandler {
	return &SimpleProductHandler{
		products: products,
		metadata: metadata,
		images:   images,
		logger:   logger.Named("simple-handler"),
	}
}

// Create builds a new simple product from the normalized data and its single
// unit.
func (h *SimpleProductHandler) Create(ctx context.Context, mapped MappedProduct, unit erp.Unit) (*catalog.Product, error) {
	sku, err := resolveSKU(ctx, h.products, mapped.Normalized, unit.SKU, uuid.Nil)
	if err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(sku, productName(mapped.Normalized), catalog.ProductTypeSimple)
	if err != nil {
		return nil, fmt.Errorf("failed to create simple product: %w", err)
	}

	if err := h.apply(ctx, product, mapped, unit); err != nil {
		return nil, err
	}

	h.logger.Info("Simple product created",
		zap.String("sku", product.SKU),
		zap.Int64("erp_product_id", mapped.Normalized.ID))
	return product, nil
}

// Update overwrites an existing product with the normalized data. A variable
// product is converted first: its variant rows are deleted and the type tag
// rewritten.
func (h *SimpleProductHandler) Update(ctx context.Context, product *catalog.Product, mapped MappedProduct, unit erp.Unit) error {
	if product.IsVariable() {
		h.logger.Info("Converting variable product to simple", zap.String("sku", product.SKU))
		if err := h.products.DeleteVariantsByProduct(ctx, product.ID); err != nil {
			return fmt.Errorf("failed to delete variants during conversion: %w", err)
		}
		product.ConvertToSimple()
	}

	sku, err := resolveSKU(ctx, h.products, mapped.Normalized, unit.SKU, product.ID)
	if err != nil {
		return err
	}
	product.SKU = sku

	if err := h.apply(ctx, product, mapped, unit); err != nil {
		return err
	}

	h.logger.Info("Simple product updated",
		zap.String("sku", product.SKU),
		zap.Int64("erp_product_id", mapped.Normalized.ID))
	return nil
}

// apply writes the shared simple-product fields, saves the product, then
// attaches metadata and the best-effort primary image.
func (h *SimpleProductHandler) apply(ctx context.Context, product *catalog.Product, mapped MappedProduct, unit erp.Unit) error {
	if err := product.Update(productName(mapped.Normalized), mapped.Normalized.Description); err != nil {
		return err
	}
	if err := product.SetPricing(priceDecimal(unit.SellingPrice())); err != nil {
		return err
	}
	if err := product.SetStock(unit.StockQuantity()); err != nil {
		return err
	}
	product.LinkERPProduct(mapped.Normalized.ID)

	if err := h.products.Save(ctx, product); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	if err := writeUnitMetadata(ctx, h.metadata, product.ID, mapped.RawJSON, unit); err != nil {
		return err
	}

	if len(unit.Images) > 0 {
		h.images.Attach(ctx, product, nil, unit.Images[0].Path, true)
	}
	return nil
}

// resolveSKU picks the catalog SKU: normalized SKU, else the unit SKU, else a
// generated `erp-` fallback. A SKU already taken by a different entity gets a
// unique suffix instead of failing the product.
func resolveSKU(ctx context.Context, products catalog.ProductRepository, normalized *erp.NormalizedProduct, unitSKU string, currentID uuid.UUID) (string, error) {
	sku := normalized.SKU
	if sku == "" {
		sku = unitSKU
	}
	if sku == "" {
		if normalized.ID > 0 {
			sku = fmt.Sprintf("erp-%d", normalized.ID)
		} else {
			sku = "erp-" + uuid.NewString()
		}
	}

	taken, err := skuTakenByOther(ctx, products, sku, currentID)
	if err != nil {
		return "", err
	}
	if taken {
		sku = sku + "-" + uuid.NewString()[:8]
	}
	return sku, nil
}

// skuTakenByOther reports whether the SKU belongs to an entity other than
// currentID.
func skuTakenByOther(ctx context.Context, products catalog.ProductRepository, sku string, currentID uuid.UUID) (bool, error) {
	id, err := products.FindIDBySKU(ctx, sku)
	if err == nil {
		return id != currentID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}

	variant, err := products.FindVariantBySKU(ctx, sku)
	if err == nil {
		return variant.ID != currentID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}
	return false, nil
}

// writeUnitMetadata stores the raw ERP snapshot, the unit's barcodes and the
// global unique id against the owning entity. An empty rawJSON or barcode
// list clears nothing; absent values are simply not written.
func writeUnitMetadata(ctx context.Context, metadata catalog.MetadataRepository, ownerID uuid.UUID, rawJSON string, unit erp.Unit) error {
	if rawJSON != "" {
		if err := metadata.Set(ctx, ownerID, catalog.MetaKeyRawData, rawJSON); err != nil {
			return fmt.Errorf("failed to store raw snapshot: %w", err)
		}
	}

	if len(unit.BarCodes) > 0 {
		encoded, err := json.Marshal(unit.BarCodes)
		if err != nil {
			return fmt.Errorf("failed to encode barcodes: %w", err)
		}
		if err := metadata.Set(ctx, ownerID, catalog.MetaKeyBarcodes, string(encoded)); err != nil {
			return fmt.Errorf("failed to store barcodes: %w", err)
		}
	}

	if code := unit.PrimaryBarcode(); code != "" {
		if err := metadata.Set(ctx, ownerID, catalog.MetaKeyGlobalUniqueID, code); err != nil {
			return fmt.Errorf("failed to store global unique id: %w", err)
		}
	}
	return nil
}

func productName(normalized *erp.NormalizedProduct) string {
	if normalized.Name == "" {
		return "Untitled"
	}
	return normalized.Name
}

// priceDecimal converts the ERP's float selling price to a decimal rounded to
// two places, so catalog rows never carry float artifacts.
func priceDecimal(price float64) decimal.Decimal {
	return decimal.NewFromFloat(price).Round(2)
}
