package erp

import "github.com/shopspring/decimal"

// Order payload wire format for POST orders. Monetary amounts are
// two-decimal values derived from integer cents; the builder guarantees
// that the line and shipping inclusive amounts reconcile to the storefront
// order total.

// OrderPayload is the envelope the ERP expects: a one-element Order array.
type OrderPayload struct {
	Order []OrderHeader `json:"Order"`
}

// OrderHeader is the order document submitted to the ERP.
type OrderHeader struct {
	ID                 int64          `json:"Id"`
	ProfileAccountCode string         `json:"Profile_Account_Code"`
	BillingAddress     PayloadAddress `json:"Billing_Address"`
	ShippingAddress    PayloadAddress `json:"Shipping_Address"`
	OrderDate          string         `json:"Order_Date"`
	OrderStatus        int            `json:"Order_Status"`
	PaymentStatus      int            `json:"Payment_Status"`
	ShippingStatus     int            `json:"Shipping_Status"`
	CurrencyCode       string         `json:"Currency_Code"`
	CurrencyRate       int            `json:"Currency_Rate"`
	VatNumber          string         `json:"Vat_Number"`
	AccountReference   string         `json:"Account_Reference"`
	OrderPayments      []OrderPayment `json:"Order_Payments"`
	OrderItems         []OrderLine    `json:"Order_Items"`
	OrderTotals        OrderTotals    `json:"Order_Totals"`
}

// PayloadAddress is the ERP address block.
type PayloadAddress struct {
	FirstName      string `json:"First_Name"`
	LastName       string `json:"Last_Name"`
	CompanyName    string `json:"Company_Name"`
	PhoneNumber    string `json:"Phone_Number"`
	Email          string `json:"Email"`
	CountryCode    string `json:"Country_Code"`
	Address1       string `json:"Address1"`
	Address2       string `json:"Address2"`
	Address3       string `json:"Address3"`
	Address4       string `json:"Address4"`
	Address5       string `json:"Address5"`
	ZipPostEirCode string `json:"Zip_Post_Eir_Code"`
}

// OrderPayment is one payment line.
type OrderPayment struct {
	LineID              int             `json:"Line_Id"`
	PaymentCode         string          `json:"Payment_Code"`
	PaymentSubCode      string          `json:"Payment_Sub_Code"`
	PaymentCurrencyCode string          `json:"Payment_Currency_Code"`
	CurrencyRate        int             `json:"Currency_Rate"`
	PaidDate            string          `json:"Paid_Date"`
	PaymentAmount       decimal.Decimal `json:"Payment_Amount"`
	PaymentOrderAmount  decimal.Decimal `json:"Payment_Order_Amount"`
}

// OrderLine is one item line. LinePrice is the VAT-inclusive unit price;
// LineTotalExcl and VatAmount are derived from the reconciled cent values.
type OrderLine struct {
	LineID            int             `json:"Line_Id"`
	StockModule       string          `json:"Stock_Module"`
	ProductID         int64           `json:"Product_Id"`
	UnitID            int64           `json:"Unit_Id"`
	LineQuantity      int             `json:"Line_Quantity"`
	LinePrice         decimal.Decimal `json:"Line_Price"`
	DiscountRate      decimal.Decimal `json:"Discount_Rate"`
	DiscountAmount    decimal.Decimal `json:"Discount_Amount"`
	LineTotalExcl     decimal.Decimal `json:"Line_Total_Excl"`
	VatCode           string          `json:"Vat_Code"`
	VatSwitch         string          `json:"Vat_Switch"`
	VatRate           float64         `json:"Vat_Rate"`
	VatAmount         decimal.Decimal `json:"Vat_Amount"`
	LineText          string          `json:"Line_Text"`
	ProductAttributes []LineAttribute `json:"Product_Attributes"`
}

// LineAttribute is one variant attribute echoed on an order line.
type LineAttribute struct {
	ID    int64  `json:"Id"`
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// OrderTotals is the totals block. TotalVatIncl always equals TotalPayment,
// the storefront's authoritative order total.
type OrderTotals struct {
	TotalVatExcl  decimal.Decimal `json:"Total_Vat_Excl"`
	TotalDiscount decimal.Decimal `json:"Total_Discount"`
	TotalVat      decimal.Decimal `json:"Total_Vat"`
	TotalVatIncl  decimal.Decimal `json:"Total_Vat_Incl"`
	TotalPayment  decimal.Decimal `json:"Total_Payment"`
}

// OrderResponse is the ERP's reply to an order submission.
type OrderResponse struct {
	Order []OrderResult `json:"Order"`
}

// OrderResult is the per-order outcome. A non-empty ErrorMsg marks a
// rejected order.
type OrderResult struct {
	ID                       int64  `json:"Id"`
	ErrorMsg                 string `json:"ErrorMsg,omitempty"`
	ProfileDocumentReference string `json:"ProfileDocumentReference,omitempty"`
}

// First returns the first order result, if any. The ERP replies with a
// one-element array mirroring the request envelope.
func (r *OrderResponse) First() (OrderResult, bool) {
	if r == nil || len(r.Order) == 0 {
		return OrderResult{}, false
	}
	return r.Order[0], true
}
