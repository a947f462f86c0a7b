package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citypaints/erp-sync/internal/domain/catalog"
	"github.com/citypaints/erp-sync/internal/domain/erp"
	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// VariableProductHandler materializes multi-unit ERP products as variable
// catalog products: a parent entity carrying the unit-size attribute and one
// variant per ERP unit.
type VariableProductHandler struct {
	products   catalog.ProductRepository
	metadata   catalog.MetadataRepository
	attributes catalog.AttributeRepository
	images     *ImageAttacher
	logger     *zap.Logger
}

// NewVariableProductHandler creates a new VariableProductHandler
func NewVariableProductHandler(
	products catalog.ProductRepository,
	metadata catalog.MetadataRepository,
	attributes catalog.AttributeRepository,
	images *ImageAttacher,
	logger *zap.Logger,
) *VariableProductHandler {
	return &VariableProductHandler{
		products:   products,
		metadata:   metadata,
		attributes: attributes,
		images:     images,
		logger:     logger.Named("variable-handler"),
	}
}

// Create builds a new variable product with one variant per unit.
func (h *VariableProductHandler) Create(ctx context.Context, mapped MappedProduct) (*catalog.Product, error) {
	sku, err := resolveSKU(ctx, h.products, mapped.Normalized, "", uuid.Nil)
	if err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(sku, productName(mapped.Normalized), catalog.ProductTypeVariable)
	if err != nil {
		return nil, fmt.Errorf("failed to create variable product: %w", err)
	}

	if err := h.apply(ctx, product, mapped); err != nil {
		return nil, err
	}

	h.logger.Info("Variable product created",
		zap.String("sku", product.SKU),
		zap.Int("units", mapped.Normalized.UnitCount()))
	return product, nil
}

// Update overwrites an existing product with the normalized data. A simple
// product is converted by re-tagging its type; variant rows are then created
// per unit.
func (h *VariableProductHandler) Update(ctx context.Context, product *catalog.Product, mapped MappedProduct) error {
	if !product.IsVariable() {
		h.logger.Info("Converting simple product to variable", zap.String("sku", product.SKU))
		product.ConvertToVariable()
	}

	if err := h.apply(ctx, product, mapped); err != nil {
		return err
	}

	h.logger.Info("Variable product updated",
		zap.String("sku", product.SKU),
		zap.Int("units", mapped.Normalized.UnitCount()))
	return nil
}

// apply writes the parent fields, saves it, stores the raw snapshot, then
// sets up the unit-size attribute and the per-unit variants.
func (h *VariableProductHandler) apply(ctx context.Context, product *catalog.Product, mapped MappedProduct) error {
	if err := product.Update(productName(mapped.Normalized), mapped.Normalized.Description); err != nil {
		return err
	}
	product.LinkERPProduct(mapped.Normalized.ID)

	if err := h.products.Save(ctx, product); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	if mapped.RawJSON != "" {
		if err := h.metadata.Set(ctx, product.ID, catalog.MetaKeyRawData, mapped.RawJSON); err != nil {
			return fmt.Errorf("failed to store raw snapshot: %w", err)
		}
	}

	return h.setupAttributeAndVariants(ctx, product, mapped.Normalized)
}

// setupAttributeAndVariants ensures the unit-size taxonomy and its terms,
// attaches the attribute to the parent, and creates or updates one variant
// per unit in Product_Units order.
func (h *VariableProductHandler) setupAttributeAndVariants(ctx context.Context, product *catalog.Product, normalized *erp.NormalizedProduct) error {
	units := normalized.OrderedUnits()

	attribute, err := h.attributes.EnsureAttribute(ctx, catalog.UnitSizeAttributeSlug, catalog.UnitSizeAttributeName)
	if err != nil {
		return fmt.Errorf("failed to ensure unit-size attribute: %w", err)
	}

	labels := unitLabels(units)
	terms, err := h.attributes.EnsureTerms(ctx, attribute.ID, labels)
	if err != nil {
		return fmt.Errorf("failed to ensure attribute terms: %w", err)
	}

	termSlugs := make([]string, len(terms))
	for i, term := range terms {
		termSlugs[i] = term.Slug
	}
	if err := h.attributes.SetProductAttribute(ctx, product.ID, attribute.ID, termSlugs, true); err != nil {
		return fmt.Errorf("failed to attach attribute: %w", err)
	}

	for position, unit := range units {
		if err := h.createOrUpdateVariant(ctx, product, unit, position); err != nil {
			return err
		}
	}
	return nil
}

// createOrUpdateVariant resolves a variant by its derived SKU and overwrites
// its price, stock, option and metadata from the unit.
func (h *VariableProductHandler) createOrUpdateVariant(ctx context.Context, product *catalog.Product, unit erp.Unit, position int) error {
	variantSKU := unit.SKU
	if variantSKU == "" {
		variantSKU = fmt.Sprintf("%s-%d", product.SKU, unit.ID)
	}

	variant, err := h.products.FindVariantBySKU(ctx, variantSKU)
	switch {
	case err == nil:
		variant.ProductID = product.ID
		variant.ERPUnitID = unit.ID
		variant.Position = position
		if err := variant.SetOption(unitLabel(unit)); err != nil {
			return err
		}
	case errors.Is(err, shared.ErrNotFound):
		variant, err = catalog.NewVariant(product.ID, variantSKU, unitLabel(unit), unit.ID, position)
		if err != nil {
			return fmt.Errorf("failed to create variant %q: %w", variantSKU, err)
		}
	default:
		return err
	}

	if err := variant.SetPricing(priceDecimal(unit.SellingPrice())); err != nil {
		return err
	}
	if err := variant.SetStock(unit.StockQuantity()); err != nil {
		return err
	}

	if err := h.products.SaveVariant(ctx, variant); err != nil {
		return fmt.Errorf("failed to save variant %q: %w", variantSKU, err)
	}

	if err := writeUnitMetadata(ctx, h.metadata, variant.ID, "", unit); err != nil {
		return err
	}

	if len(unit.Images) > 0 {
		h.images.Attach(ctx, product, &variant.ID, unit.Images[0].Path, position == 0)
	}

	h.logger.Debug("Variant saved",
		zap.String("sku", variantSKU),
		zap.Int64("unit_id", unit.ID))
	return nil
}

// unitLabels returns the distinct unit labels in unit order.
func unitLabels(units []erp.Unit) []string {
	seen := make(map[string]struct{}, len(units))
	labels := make([]string, 0, len(units))
	for _, unit := range units {
		label := unitLabel(unit)
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}

// unitLabel returns the unit's display label, falling back to its id when the
// ERP provides no short name.
func unitLabel(unit erp.Unit) string {
	if unit.ShortName != "" {
		return unit.ShortName
	}
	return fmt.Sprintf("Unit %d", unit.ID)
}
