package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/citypaints/erp-sync/internal/domain/catalog"
	"github.com/citypaints/erp-sync/internal/domain/erp"
	"github.com/citypaints/erp-sync/internal/domain/order"
	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// ERP document constants. The ERP expects "EU" as the currency code and a
// fixed status of 10 across order, payment and shipping.
const (
	payloadCurrencyCode = "EU"
	payloadStatus       = 10
	payloadDateFormat   = "2006-01-02"
	stockModule         = "ERP"
	defaultVatCode      = "01"
)

// lineEntry accumulates one order line in integer cents before the payload
// is rendered. Keeping cents until the very end avoids float rounding drift.
type lineEntry struct {
	line          int
	productID     int64
	unitID        int64
	qty           int
	inclCents     int64
	exclCents     int64
	vatCents      int64
	vatRate       float64
	vatSwitch     string
	vatCode       string
	discountCents int64
	lineText      string
	attributes    []erp.LineAttribute
}

// PayloadBuilder converts a storefront order into the ERP order document.
// All monetary math runs in integer cents; the sum of line and shipping
// inclusive amounts is reconciled against the storefront's authoritative
// order total, with any residual absorbed into the first line.
type PayloadBuilder struct {
	products         catalog.ProductRepository
	metadata         catalog.MetadataRepository
	accountCode      string
	pricesIncludeTax bool
	logger           *zap.Logger
}

// NewPayloadBuilder creates a new PayloadBuilder. pricesIncludeTax is the
// VAT-switch fallback applied when the stored ERP price data carries none.
func NewPayloadBuilder(
	products catalog.ProductRepository,
	metadata catalog.MetadataRepository,
	accountCode string,
	pricesIncludeTax bool,
	logger *zap.Logger,
) *PayloadBuilder {
	return &PayloadBuilder{
		products:         products,
		metadata:         metadata,
		accountCode:      accountCode,
		pricesIncludeTax: pricesIncludeTax,
		logger:           logger.Named("payload-builder"),
	}
}

// Build renders the ERP payload for the order.
func (b *PayloadBuilder) Build(ctx context.Context, o *order.Order) (*erp.OrderPayload, error) {
	entries, err := b.collectEntries(ctx, o)
	if err != nil {
		return nil, err
	}

	shippingExclCents := toCents(o.ShippingTotal)
	shippingTaxCents := toCents(o.ShippingTaxTotal)
	shippingInclCents := shippingExclCents + shippingTaxCents

	reconcile(entries, shippingInclCents, toCents(o.Total))

	items, totals := render(entries, shippingExclCents, shippingTaxCents, o.Total)

	header := erp.OrderHeader{
		ID:                 o.Number,
		ProfileAccountCode: b.accountCode,
		BillingAddress:     mapAddress(o.Billing, o.Billing.Email),
		ShippingAddress:    mapAddress(o.ShippingAddressOrBilling(), o.Billing.Email),
		OrderDate:          o.PlacedAt.Format(payloadDateFormat),
		OrderStatus:        payloadStatus,
		PaymentStatus:      payloadStatus,
		ShippingStatus:     payloadStatus,
		CurrencyCode:       payloadCurrencyCode,
		CurrencyRate:       1,
		VatNumber:          o.VatNumber,
		OrderPayments:      mapPayments(o),
		OrderItems:         items,
		OrderTotals:        totals,
	}

	return &erp.OrderPayload{Order: []erp.OrderHeader{header}}, nil
}

// collectEntries builds one cent-exact entry per order item. Items without a
// linked catalog product are skipped and logged.
func (b *PayloadBuilder) collectEntries(ctx context.Context, o *order.Order) ([]*lineEntry, error) {
	entries := make([]*lineEntry, 0, len(o.Items))
	line := 1

	for i := range o.Items {
		item := &o.Items[i]
		if item.ProductID == nil {
			b.logger.Warn("Order item without catalog product skipped",
				zap.Int64("order", o.Number),
				zap.String("name", item.Name))
			continue
		}

		raw, product, variant, err := b.loadProductContext(ctx, item)
		if err != nil {
			return nil, err
		}

		unitID := b.resolveUnitID(raw, variant)

		erpProductID := raw.ID
		if erpProductID == 0 && product != nil {
			erpProductID = product.ERPProductID
		}

		vatCode, vatRate, vatSwitch := extractVatInfo(raw, unitID)
		if vatSwitch != "I" && vatSwitch != "E" {
			if b.pricesIncludeTax {
				vatSwitch = "I"
			} else {
				vatSwitch = "E"
			}
		}

		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}

		exclF := item.Total
		inclF := item.Total + item.TotalTax

		entry := &lineEntry{
			line:          line,
			productID:     erpProductID,
			unitID:        unitID,
			qty:           qty,
			vatRate:       vatRate,
			vatSwitch:     vatSwitch,
			vatCode:       vatCode,
			discountCents: toCents(item.Subtotal - item.Total),
			lineText:      item.Name,
			attributes:    lineAttributes(variant),
		}

		if vatSwitch == "I" {
			// Inclusive price given: derive the exclusive amount by division.
			entry.inclCents = toCents(inclF)
			entry.exclCents = toCents(inclF / (1 + vatRate/100))
			entry.vatCents = entry.inclCents - entry.exclCents
		} else {
			entry.exclCents = toCents(exclF)
			entry.vatCents = int64(math.Round(float64(entry.exclCents) * vatRate / 100))
			entry.inclCents = entry.exclCents + entry.vatCents
		}

		entries = append(entries, entry)
		line++
	}

	return entries, nil
}

// loadProductContext reads the stored raw ERP snapshot and resolves the
// catalog product and purchased variant for an item. A missing snapshot or
// product degrades to zero values rather than failing the order.
func (b *PayloadBuilder) loadProductContext(ctx context.Context, item *order.Item) (*erp.RawProduct, *catalog.Product, *catalog.Variant, error) {
	raw := &erp.RawProduct{}

	rawJSON, err := b.metadata.Get(ctx, *item.ProductID, catalog.MetaKeyRawData)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read raw snapshot: %w", err)
	}
	if rawJSON != "" {
		if err := json.Unmarshal([]byte(rawJSON), raw); err != nil {
			b.logger.Warn("Stored raw snapshot is not valid JSON",
				zap.String("product_id", item.ProductID.String()),
				zap.Error(err))
			raw = &erp.RawProduct{}
		}
	}

	product, err := b.products.FindByID(ctx, *item.ProductID)
	if errors.Is(err, shared.ErrNotFound) {
		product = nil
	} else if err != nil {
		return nil, nil, nil, err
	}

	var variant *catalog.Variant
	if item.VariantID != nil && product != nil {
		variants, err := b.products.FindVariantsByProduct(ctx, product.ID)
		if err != nil {
			return nil, nil, nil, err
		}
		for i := range variants {
			if variants[i].ID == *item.VariantID {
				variant = &variants[i]
				break
			}
		}
	}

	return raw, product, variant, nil
}

// resolveUnitID finds the ERP unit for an item, in order: variant option
// matched against the unit short names, variant position mapped onto
// Product_Units, the unit id recorded on the variant, the first unit, then 1.
func (b *PayloadBuilder) resolveUnitID(raw *erp.RawProduct, variant *catalog.Variant) int64 {
	units := raw.ProductUnits

	if variant != nil && len(units) > 0 {
		option := strings.ToUpper(strings.TrimSpace(variant.OptionValue))
		if option != "" {
			for _, unit := range units {
				if strings.ToUpper(strings.TrimSpace(unit.ShortName)) == option {
					return unit.ID
				}
			}
		}
		if variant.Position >= 0 && variant.Position < len(units) && units[variant.Position].ID != 0 {
			return units[variant.Position].ID
		}
	}

	if variant != nil && variant.ERPUnitID > 0 {
		return variant.ERPUnitID
	}

	if len(units) > 0 && units[0].ID != 0 {
		return units[0].ID
	}

	return 1
}

// extractVatInfo reads the VAT treatment for the unit from the raw snapshot:
// the matching price group's first price (falling back to the group), else
// the product-level block, else the defaults {01, 0, ""}.
func extractVatInfo(raw *erp.RawProduct, unitID int64) (code string, rate float64, vatSwitch string) {
	for _, group := range raw.ProductPrices {
		if group.UnitID != unitID {
			continue
		}

		var first *erp.RawPrice
		if len(group.Prices) > 0 {
			first = &group.Prices[0]
		}

		var info *erp.VatInfo
		if first != nil && first.VatInfo != nil {
			info = first.VatInfo
		} else if group.VatInfo != nil {
			info = group.VatInfo
		}

		if info != nil {
			return vatCodeOr(info.VatCode, first), info.VatRate, normalizeVatSwitch(info.VatSwitch)
		}
		return vatCodeOr("", first), group.VatRate, normalizeVatSwitch(group.VatSwitch)
	}

	if raw.VatInfo != nil {
		code := raw.VatInfo.VatCode
		if code == "" {
			code = defaultVatCode
		}
		return code, raw.VatInfo.VatRate, normalizeVatSwitch(raw.VatInfo.VatSwitch)
	}

	return defaultVatCode, 0, ""
}

func vatCodeOr(code string, first *erp.RawPrice) string {
	if code != "" {
		return code
	}
	if first != nil && first.VatCode != "" {
		return first.VatCode
	}
	return defaultVatCode
}

func normalizeVatSwitch(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	return s[:1]
}

// reconcile compares the summed inclusive cents against the authoritative
// order total and absorbs any difference into the first line, recomputing
// its exclusive and VAT amounts from the adjusted inclusive value.
func reconcile(entries []*lineEntry, shippingInclCents, orderTotalCents int64) {
	var sum int64
	for _, e := range entries {
		sum += e.inclCents
	}
	sum += shippingInclCents

	diff := orderTotalCents - sum
	if diff == 0 || len(entries) == 0 {
		return
	}

	first := entries[0]
	first.inclCents += diff

	inclF := float64(first.inclCents) / 100.0
	first.exclCents = toCents(inclF / (1 + first.vatRate/100))
	first.vatCents = first.inclCents - first.exclCents
}

// render converts the cent entries into the wire format and builds the
// totals block, syncing the inclusive total to the order total as a final
// safety net.
func render(entries []*lineEntry, shippingExclCents, shippingTaxCents int64, orderTotal float64) ([]erp.OrderLine, erp.OrderTotals) {
	items := make([]erp.OrderLine, 0, len(entries))

	var totalExclCents, totalVatCents, totalDiscountCents int64
	for _, e := range entries {
		unitPrice := decimal.NewFromInt(e.inclCents).
			Div(decimal.NewFromInt(int64(e.qty) * 100)).
			Round(2)

		discountRate := decimal.Zero
		if e.discountCents != 0 {
			base := e.exclCents
			if base < 1 {
				base = 1
			}
			discountRate = decimal.NewFromInt(e.discountCents * 100).
				Div(decimal.NewFromInt(base)).
				Round(2)
		}

		items = append(items, erp.OrderLine{
			LineID:            e.line,
			StockModule:       stockModule,
			ProductID:         e.productID,
			UnitID:            e.unitID,
			LineQuantity:      e.qty,
			LinePrice:         unitPrice,
			DiscountRate:      discountRate,
			DiscountAmount:    centsDecimal(e.discountCents),
			LineTotalExcl:     centsDecimal(e.exclCents),
			VatCode:           e.vatCode,
			VatSwitch:         e.vatSwitch,
			VatRate:           e.vatRate,
			VatAmount:         centsDecimal(e.vatCents),
			LineText:          e.lineText,
			ProductAttributes: e.attributes,
		})

		totalExclCents += e.exclCents
		totalVatCents += e.vatCents
		totalDiscountCents += e.discountCents
	}

	totalExclCents += shippingExclCents
	totalVatCents += shippingTaxCents

	totalExcl := centsDecimal(totalExclCents)
	totalVat := centsDecimal(totalVatCents)
	totalIncl := centsDecimal(totalExclCents + totalVatCents)
	authoritative := decimal.NewFromFloat(orderTotal).Round(2)

	if !totalIncl.Equal(authoritative) {
		totalIncl = authoritative
		totalVat = authoritative.Sub(totalExcl).Round(2)
	}

	totals := erp.OrderTotals{
		TotalVatExcl:  totalExcl,
		TotalDiscount: centsDecimal(totalDiscountCents),
		TotalVat:      totalVat,
		TotalVatIncl:  totalIncl,
		TotalPayment:  authoritative,
	}
	return items, totals
}

// mapAddress converts a storefront address to the ERP block. DE is remapped
// to GER, the country code the ERP expects.
func mapAddress(a order.Address, fallbackEmail string) erp.PayloadAddress {
	email := a.Email
	if email == "" {
		email = fallbackEmail
	}
	return erp.PayloadAddress{
		FirstName:      a.FirstName,
		LastName:       a.LastName,
		CompanyName:    a.Company,
		PhoneNumber:    a.Phone,
		Email:          email,
		CountryCode:    mapCountryCode(a.Country),
		Address1:       a.Address1,
		Address2:       a.Address2,
		Address3:       a.City,
		Address4:       a.State,
		ZipPostEirCode: a.Postcode,
	}
}

func mapCountryCode(iso string) string {
	iso = strings.ToUpper(strings.TrimSpace(iso))
	if iso == "DE" || iso == "DEU" {
		return "GER"
	}
	return iso
}

// mapPayments builds the single payment line from the order's payment
// method and total.
func mapPayments(o *order.Order) []erp.OrderPayment {
	amount := decimal.NewFromFloat(o.Total).Round(2)
	return []erp.OrderPayment{
		{
			LineID:              1,
			PaymentCode:         mapPaymentCode(o.PaymentMethod),
			PaymentCurrencyCode: payloadCurrencyCode,
			CurrencyRate:        1,
			PaidDate:            o.PlacedAt.Format(payloadDateFormat),
			PaymentAmount:       amount,
			PaymentOrderAmount:  amount,
		},
	}
}

func mapPaymentCode(method string) string {
	method = strings.ToLower(method)
	switch method {
	case "cod", "cash_on_delivery", "cash":
		return "CASH"
	}
	if strings.Contains(method, "stripe") || strings.Contains(method, "card") || strings.Contains(method, "cc") {
		return "CARD"
	}
	return "CASH"
}

func lineAttributes(variant *catalog.Variant) []erp.LineAttribute {
	if variant == nil {
		return []erp.LineAttribute{}
	}
	return []erp.LineAttribute{
		{
			ID:    0,
			Name:  catalog.UnitSizeAttributeSlug,
			Value: catalog.TermSlug(variant.OptionValue),
		},
	}
}

// toCents converts a float amount to integer cents with half-up rounding.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// centsDecimal renders integer cents as a two-decimal amount.
func centsDecimal(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2)
}
