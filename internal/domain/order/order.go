package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// SyncState tracks an order's progress through ERP submission. The empty
// state means the order has never been submitted.
type SyncState string

const (
	SyncStateNone    SyncState = ""
	SyncStatePending SyncState = "pending"
	SyncStateSynced  SyncState = "synced"
	SyncStateFailed  SyncState = "failed"
)

// AllowsSync reports whether a new submission may start. A pending order may
// be resubmitted after an interrupted attempt; synced and failed are terminal
// until the state is reset by hand.
func (s SyncState) AllowsSync() bool {
	return s == SyncStateNone || s == SyncStatePending
}

// Metadata keys written during order submission.
const (
	// MetaKeyPayload stores the JSON payload submitted to the ERP.
	MetaKeyPayload = "_erp_order_payload"

	// MetaKeyResponse stores the ERP's raw response JSON.
	MetaKeyResponse = "_erp_order_response"

	// MetaKeyReference stores the ERP document reference of a synced order.
	MetaKeyReference = "_erp_order_ref"
)

// Address is a billing or shipping address block.
type Address struct {
	FirstName string `gorm:"type:varchar(100)"`
	LastName  string `gorm:"type:varchar(100)"`
	Company   string `gorm:"type:varchar(200)"`
	Address1  string `gorm:"type:varchar(200)"`
	Address2  string `gorm:"type:varchar(200)"`
	City      string `gorm:"type:varchar(100)"`
	State     string `gorm:"type:varchar(100)"`
	Postcode  string `gorm:"type:varchar(20)"`
	Country   string `gorm:"type:varchar(2)"`
	Email     string `gorm:"type:varchar(200)"`
	Phone     string `gorm:"type:varchar(50)"`
}

// Order is a storefront order queued for ERP submission. Monetary fields are
// the storefront's float amounts; the payload builder converts them to cents
// before any arithmetic.
type Order struct {
	shared.BaseEntity
	Number             int64     `gorm:"not null;uniqueIndex"`
	Status             string    `gorm:"type:varchar(30);not null"`
	Currency           string    `gorm:"type:varchar(3);not null"`
	Total              float64   `gorm:"not null;default:0"`
	DiscountTotal      float64   `gorm:"not null;default:0"`
	ShippingTotal      float64   `gorm:"not null;default:0"`
	ShippingTaxTotal   float64   `gorm:"not null;default:0"`
	PaymentMethod      string    `gorm:"type:varchar(50)"`
	PaymentMethodTitle string    `gorm:"type:varchar(100)"`
	CustomerNote       string    `gorm:"type:text"`
	VatNumber          string    `gorm:"type:varchar(50)"`
	PlacedAt           time.Time `gorm:"not null"`

	Billing  Address `gorm:"embedded;embeddedPrefix:billing_"`
	Shipping Address `gorm:"embedded;embeddedPrefix:shipping_"`

	Items []Item `gorm:"foreignKey:OrderID"`

	SyncState     SyncState `gorm:"type:varchar(20);not null;default:''"`
	SyncReference string    `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// MarkSyncPending records that a submission attempt has started
func (o *Order) MarkSyncPending() error {
	if !o.SyncState.AllowsSync() {
		return shared.NewDomainError("SYNC_NOT_ALLOWED", "Order is already pending or synced")
	}
	o.SyncState = SyncStatePending
	o.UpdatedAt = time.Now()
	return nil
}

// MarkSynced records a successful submission with the ERP document reference
func (o *Order) MarkSynced(reference string) {
	o.SyncState = SyncStateSynced
	o.SyncReference = reference
	o.UpdatedAt = time.Now()
}

// MarkSyncFailed records a failed submission; a later retry is allowed
func (o *Order) MarkSyncFailed() {
	o.SyncState = SyncStateFailed
	o.UpdatedAt = time.Now()
}

// ShippingAddressOrBilling returns the shipping address, falling back to the
// billing address when no shipping address was captured.
func (o *Order) ShippingAddressOrBilling() Address {
	if o.Shipping.Address1 == "" && o.Shipping.City == "" && o.Shipping.Postcode == "" {
		return o.Billing
	}
	return o.Shipping
}

// Item is one purchased line of an order. Total and Subtotal are VAT-exclusive
// storefront amounts; the matching tax fields hold the VAT charged on them.
type Item struct {
	shared.BaseEntity
	OrderID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID `gorm:"type:uuid"`
	VariantID   *uuid.UUID `gorm:"type:uuid"`
	SKU         string     `gorm:"type:varchar(100)"`
	Name        string     `gorm:"type:varchar(200);not null"`
	Quantity    int        `gorm:"not null"`
	Subtotal    float64    `gorm:"not null;default:0"`
	SubtotalTax float64    `gorm:"not null;default:0"`
	Total       float64    `gorm:"not null;default:0"`
	TotalTax    float64    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "order_items"
}

// CatalogProductID returns the id of the purchased catalog entry: the variant
// when one was bought, else the parent product.
func (i *Item) CatalogProductID() (uuid.UUID, bool) {
	if i.VariantID != nil && *i.VariantID != uuid.Nil {
		return *i.VariantID, true
	}
	if i.ProductID != nil && *i.ProductID != uuid.Nil {
		return *i.ProductID, true
	}
	return uuid.Nil, false
}
