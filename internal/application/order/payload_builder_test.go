package order

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/citypaints/erp-sync/internal/domain/catalog"
	"github.com/citypaints/erp-sync/internal/domain/erp"
	"github.com/citypaints/erp-sync/internal/domain/order"
	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// fakeProductRepo is an in-memory catalog.ProductRepository for builder tests.
type fakeProductRepo struct {
	products map[uuid.UUID]*catalog.Product
	variants map[uuid.UUID][]catalog.Variant
}

var _ catalog.ProductRepository = (*fakeProductRepo)(nil)

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: make(map[uuid.UUID]*catalog.Product),
		variants: make(map[uuid.UUID][]catalog.Variant),
	}
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindIDBySKU(ctx context.Context, sku string) (uuid.UUID, error) {
	p, err := r.FindBySKU(ctx, sku)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

func (r *fakeProductRepo) FindByERPProductID(_ context.Context, erpProductID int64) (*catalog.Product, error) {
	for _, p := range r.products {
		if p.ERPProductID == erpProductID {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	_, err := r.FindBySKU(ctx, sku)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (r *fakeProductRepo) Save(_ context.Context, product *catalog.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.products, id)
	delete(r.variants, id)
	return nil
}

func (r *fakeProductRepo) FindVariantBySKU(_ context.Context, sku string) (*catalog.Variant, error) {
	for _, list := range r.variants {
		for i := range list {
			if list[i].SKU == sku {
				return &list[i], nil
			}
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindVariantsByProduct(_ context.Context, productID uuid.UUID) ([]catalog.Variant, error) {
	return r.variants[productID], nil
}

func (r *fakeProductRepo) SaveVariant(_ context.Context, variant *catalog.Variant) error {
	r.variants[variant.ProductID] = append(r.variants[variant.ProductID], *variant)
	return nil
}

func (r *fakeProductRepo) DeleteVariant(_ context.Context, _ uuid.UUID) error { return nil }

func (r *fakeProductRepo) DeleteVariantsByProduct(_ context.Context, productID uuid.UUID) error {
	delete(r.variants, productID)
	return nil
}

// fakeMetadataRepo is an in-memory catalog.MetadataRepository.
type fakeMetadataRepo struct {
	entries map[string]string
}

var _ catalog.MetadataRepository = (*fakeMetadataRepo)(nil)

func newFakeMetadataRepo() *fakeMetadataRepo {
	return &fakeMetadataRepo{entries: make(map[string]string)}
}

func (r *fakeMetadataRepo) Get(_ context.Context, ownerID uuid.UUID, key string) (string, error) {
	return r.entries[ownerID.String()+"/"+key], nil
}

func (r *fakeMetadataRepo) Set(_ context.Context, ownerID uuid.UUID, key, value string) error {
	r.entries[ownerID.String()+"/"+key] = value
	return nil
}

func (r *fakeMetadataRepo) Delete(_ context.Context, ownerID uuid.UUID, key string) error {
	delete(r.entries, ownerID.String()+"/"+key)
	return nil
}

type builderFixture struct {
	products *fakeProductRepo
	metadata *fakeMetadataRepo
	builder  *PayloadBuilder
}

func newBuilderFixture(t *testing.T, pricesIncludeTax bool) *builderFixture {
	t.Helper()
	products := newFakeProductRepo()
	metadata := newFakeMetadataRepo()
	return &builderFixture{
		products: products,
		metadata: metadata,
		builder:  NewPayloadBuilder(products, metadata, "WEB-001", pricesIncludeTax, zap.NewNop()),
	}
}

// seedProduct stores a catalog product carrying the given raw ERP snapshot.
func (f *builderFixture) seedProduct(t *testing.T, sku string, erpID int64, raw *erp.RawProduct) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(sku, "Seeded "+sku, catalog.ProductTypeSimple)
	require.NoError(t, err)
	product.LinkERPProduct(erpID)
	require.NoError(t, f.products.Save(context.Background(), product))

	if raw != nil {
		encoded, err := json.Marshal(raw)
		require.NoError(t, err)
		require.NoError(t, f.metadata.Set(context.Background(), product.ID, catalog.MetaKeyRawData, string(encoded)))
	}
	return product
}

func rawWithVat(erpID, unitID int64, rate float64, vatSwitch string) *erp.RawProduct {
	return &erp.RawProduct{
		ID: erpID,
		ProductUnits: []erp.RawUnit{
			{ID: unitID, ShortName: "5 Litre"},
		},
		ProductPrices: []erp.RawPriceGroup{
			{
				UnitID: unitID,
				Prices: []erp.RawPrice{
					{SellingPrice: 49.99, VatInfo: &erp.VatInfo{VatCode: "02", VatRate: rate, VatSwitch: vatSwitch}},
				},
			},
		},
	}
}

func testOrder(productID uuid.UUID) *order.Order {
	o := &order.Order{
		BaseEntity:    shared.NewBaseEntity(),
		Number:        1001,
		Status:        "processing",
		Currency:      "EUR",
		Total:         123.00,
		PaymentMethod: "cod",
		PlacedAt:      time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
		Billing: order.Address{
			FirstName: "Anna",
			LastName:  "Schmidt",
			Address1:  "Hauptstrasse 1",
			City:      "Berlin",
			Postcode:  "10115",
			Country:   "DE",
			Email:     "anna@example.com",
		},
	}
	o.Items = []order.Item{
		{
			BaseEntity: shared.NewBaseEntity(),
			OrderID:    o.ID,
			ProductID:  &productID,
			SKU:        "PNT-001",
			Name:       "Wall Paint 5L",
			Quantity:   2,
			Subtotal:   100.00,
			Total:      100.00,
			TotalTax:   23.00,
		},
	}
	return o
}

func TestPayloadBuilder_ExclusiveVat(t *testing.T) {
	f := newBuilderFixture(t, false)
	product := f.seedProduct(t, "PNT-001", 501, rawWithVat(501, 10, 23, "E"))
	o := testOrder(product.ID)

	payload, err := f.builder.Build(context.Background(), o)
	require.NoError(t, err)
	require.Len(t, payload.Order, 1)

	header := payload.Order[0]
	assert.Equal(t, int64(1001), header.ID)
	assert.Equal(t, "WEB-001", header.ProfileAccountCode)
	assert.Equal(t, "2026-03-15", header.OrderDate)
	assert.Equal(t, 10, header.OrderStatus)
	assert.Equal(t, "EU", header.CurrencyCode)

	require.Len(t, header.OrderItems, 1)
	line := header.OrderItems[0]
	assert.Equal(t, int64(501), line.ProductID)
	assert.Equal(t, int64(10), line.UnitID)
	assert.Equal(t, 2, line.LineQuantity)
	assert.Equal(t, "100", line.LineTotalExcl.String())
	assert.Equal(t, "23", line.VatAmount.String())
	assert.Equal(t, "E", line.VatSwitch)
	assert.Equal(t, "02", line.VatCode)
	assert.Equal(t, "61.5", line.LinePrice.String())

	assert.Equal(t, "100", header.OrderTotals.TotalVatExcl.String())
	assert.Equal(t, "23", header.OrderTotals.TotalVat.String())
	assert.Equal(t, "123", header.OrderTotals.TotalVatIncl.String())
	assert.Equal(t, "123", header.OrderTotals.TotalPayment.String())
}

func TestPayloadBuilder_InclusiveVat(t *testing.T) {
	f := newBuilderFixture(t, false)
	product := f.seedProduct(t, "PNT-001", 501, rawWithVat(501, 10, 23, "I"))
	o := testOrder(product.ID)

	payload, err := f.builder.Build(context.Background(), o)
	require.NoError(t, err)

	line := payload.Order[0].OrderItems[0]
	assert.Equal(t, "I", line.VatSwitch)
	assert.Equal(t, "100", line.LineTotalExcl.String())
	assert.Equal(t, "23", line.VatAmount.String())
}

func TestPayloadBuilder_VatSwitchFallback(t *testing.T) {
	t.Run("prices exclude tax", func(t *testing.T) {
		f := newBuilderFixture(t, false)
		product := f.seedProduct(t, "PNT-001", 501, &erp.RawProduct{ID: 501})
		o := testOrder(product.ID)

		payload, err := f.builder.Build(context.Background(), o)
		require.NoError(t, err)

		line := payload.Order[0].OrderItems[0]
		assert.Equal(t, "E", line.VatSwitch)
		assert.Equal(t, "01", line.VatCode)
		assert.Zero(t, line.VatRate)
	})

	t.Run("prices include tax", func(t *testing.T) {
		f := newBuilderFixture(t, true)
		product := f.seedProduct(t, "PNT-001", 501, &erp.RawProduct{ID: 501})
		o := testOrder(product.ID)

		payload, err := f.builder.Build(context.Background(), o)
		require.NoError(t, err)
		assert.Equal(t, "I", payload.Order[0].OrderItems[0].VatSwitch)
	})
}

func TestPayloadBuilder_DiffAbsorbedIntoFirstLine(t *testing.T) {
	f := newBuilderFixture(t, false)
	product := f.seedProduct(t, "PNT-001", 501, rawWithVat(501, 10, 23, "E"))
	o := testOrder(product.ID)
	// One cent above the line sum: the first line absorbs the residual.
	o.Total = 123.01

	payload, err := f.builder.Build(context.Background(), o)
	require.NoError(t, err)

	line := payload.Order[0].OrderItems[0]
	incl := line.LineTotalExcl.Add(line.VatAmount)
	assert.Equal(t, "123.01", incl.String())
	assert.Equal(t, "123.01", payload.Order[0].OrderTotals.TotalVatIncl.String())
	assert.Equal(t, "123.01", payload.Order[0].OrderTotals.TotalPayment.String())
}

func TestPayloadBuilder_ShippingIncludedInTotals(t *testing.T) {
	f := newBuilderFixture(t, false)
	product := f.seedProduct(t, "PNT-001", 501, rawWithVat(501, 10, 23, "E"))
	o := testOrder(product.ID)
	o.ShippingTotal = 5.00
	o.ShippingTaxTotal = 1.15
	o.Total = 129.15

	payload, err := f.builder.Build(context.Background(), o)
	require.NoError(t, err)

	totals := payload.Order[0].OrderTotals
	assert.Equal(t, "105", totals.TotalVatExcl.String())
	assert.Equal(t, "24.15", totals.TotalVat.String())
	assert.Equal(t, "129.15", totals.TotalVatIncl.String())
}

func TestPayloadBuilder_AddressMapping(t *testing.T) {
	f := newBuilderFixture(t, false)
	product := f.seedProduct(t, "PNT-001", 501, rawWithVat(501, 10, 23, "E"))
	o := testOrder(product.ID)

	payload, err := f.builder.Build(context.Background(), o)
	require.NoError(t, err)

	billing := payload.Order[0].BillingAddress
	assert.Equal(t, "GER", billing.CountryCode)
	assert.Equal(t, "Berlin", billing.Address3)
	assert.Equal(t, "anna@example.com", billing.Email)

	// No shipping address captured: billing is reused, including the email.
	shipping := payload.Order[0].ShippingAddress
	assert.Equal(t, "GER", shipping.CountryCode)
	assert.Equal(t, "Hauptstrasse 1", shipping.Address1)
}

func TestPayloadBuilder_PaymentCodes(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"cod", "CASH"},
		{"cash_on_delivery", "CASH"},
		{"stripe", "CARD"},
		{"stripe_cc", "CARD"},
		{"gateway_payments_card", "CARD"},
		{"paypal", "CASH"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			f := newBuilderFixture(t, false)
			product := f.seedProduct(t, "PNT-001", 501, rawWithVat(501, 10, 23, "E"))
			o := testOrder(product.ID)
			o.PaymentMethod = tt.method

			payload, err := f.builder.Build(context.Background(), o)
			require.NoError(t, err)

			require.Len(t, payload.Order[0].OrderPayments, 1)
			assert.Equal(t, tt.want, payload.Order[0].OrderPayments[0].PaymentCode)
		})
	}
}

func TestPayloadBuilder_VariantUnitResolution(t *testing.T) {
	f := newBuilderFixture(t, false)

	raw := &erp.RawProduct{
		ID: 700,
		ProductUnits: []erp.RawUnit{
			{ID: 20, ShortName: "1 Litre"},
			{ID: 21, ShortName: "5 Litre"},
		},
		ProductPrices: []erp.RawPriceGroup{
			{UnitID: 21, Prices: []erp.RawPrice{{SellingPrice: 39.99, VatInfo: &erp.VatInfo{VatCode: "02", VatRate: 23, VatSwitch: "E"}}}},
		},
	}
	product := f.seedProduct(t, "PNT-VAR", 700, raw)

	variant, err := catalog.NewVariant(product.ID, "PNT-VAR-21", "5 Litre", 21, 1)
	require.NoError(t, err)
	require.NoError(t, f.products.SaveVariant(context.Background(), variant))

	o := testOrder(product.ID)
	o.Items[0].VariantID = &variant.ID

	payload, err := f.builder.Build(context.Background(), o)
	require.NoError(t, err)

	line := payload.Order[0].OrderItems[0]
	assert.Equal(t, int64(21), line.UnitID)
	require.Len(t, line.ProductAttributes, 1)
	assert.Equal(t, "pa_unit_size", line.ProductAttributes[0].Name)
	assert.Equal(t, "5-litre", line.ProductAttributes[0].Value)
}

func TestPayloadBuilder_UnlinkedItemSkipped(t *testing.T) {
	f := newBuilderFixture(t, false)
	product := f.seedProduct(t, "PNT-001", 501, rawWithVat(501, 10, 23, "E"))
	o := testOrder(product.ID)
	o.Items = append(o.Items, order.Item{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    o.ID,
		Name:       "Legacy fee line",
		Quantity:   1,
		Total:      5.00,
	})

	payload, err := f.builder.Build(context.Background(), o)
	require.NoError(t, err)
	assert.Len(t, payload.Order[0].OrderItems, 1)
}

func TestPayloadBuilder_DiscountedLine(t *testing.T) {
	f := newBuilderFixture(t, false)
	product := f.seedProduct(t, "PNT-001", 501, rawWithVat(501, 10, 23, "E"))
	o := testOrder(product.ID)
	o.Items[0].Subtotal = 110.00
	o.Items[0].Total = 100.00
	o.DiscountTotal = 10.00

	payload, err := f.builder.Build(context.Background(), o)
	require.NoError(t, err)

	line := payload.Order[0].OrderItems[0]
	assert.Equal(t, "10", line.DiscountAmount.String())
	assert.Equal(t, "10", line.DiscountRate.String())
	assert.Equal(t, "10", payload.Order[0].OrderTotals.TotalDiscount.String())
}
