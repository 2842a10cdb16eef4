package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a sale was paid.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
	PaymentDue    PaymentMethod = "due"
)

// PaymentMethods lists every method in report order.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentMobile, PaymentDue}

// IsValidPaymentMethod checks if the provided string is a known PaymentMethod.
func IsValidPaymentMethod(method string) bool {
	switch PaymentMethod(method) {
	case PaymentCash, PaymentCard, PaymentMobile, PaymentDue:
		return true
	default:
		return false
	}
}

// Sale is a settled POS transaction. TotalAmount, GrandTotal and ChangeGiven are derived.
type Sale struct {
	ID              int64           `json:"id" db:"id"`
	CustomerID      *int64          `json:"customer_id,omitempty" db:"customer_id"`
	SalePersonID    int64           `json:"sale_person_id" db:"sale_person_id"`
	SaleDate        time.Time       `json:"sale_date" db:"sale_date"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	GrandTotal      decimal.Decimal `json:"grand_total" db:"grand_total"`
	PaymentMethod   PaymentMethod   `json:"payment_method" db:"payment_method"`
	PaymentReceived decimal.Decimal `json:"payment_received" db:"payment_received"`
	ChangeGiven     decimal.Decimal `json:"change_given" db:"change_given"`
	Notes           string          `json:"notes" db:"notes"`
	ReceiptPrinted  bool            `json:"receipt_printed" db:"receipt_printed"`
	Items           []SaleItem      `json:"items,omitempty"`
	Customer        *Customer       `json:"customer,omitempty"`
}

// Recalculate derives GrandTotal from the stored amounts and, unless the sale
// is on due, the change handed back to the customer.
// Every amount is held at cents so it matches the stored row.
func (s *Sale) Recalculate() {
	s.TotalAmount = RoundMoney(s.TotalAmount)
	s.GrandTotal = RoundMoney(s.TotalAmount.Sub(s.DiscountAmount).Add(s.TaxAmount))
	if s.PaymentMethod != PaymentDue {
		s.ChangeGiven = RoundMoney(decimal.Max(decimal.Zero, s.PaymentReceived.Sub(s.GrandTotal)))
	}
}

// RecalculateFromItems sums the item totals into TotalAmount and then recalculates.
func (s *Sale) RecalculateFromItems() {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.TotalPrice)
	}
	s.TotalAmount = total
	s.Recalculate()
}

// SaleItem is one product line of a sale. UnitCost snapshots the product cost at sale time.
type SaleItem struct {
	ID         int64           `json:"id" db:"id"`
	SaleID     int64           `json:"sale_id" db:"sale_id"`
	ProductID  int64           `json:"product_id" db:"product_id"`
	Quantity   decimal.Decimal `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	UnitCost   decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	Product    *Product        `json:"product,omitempty"`
}

// Recalculate derives the line total, rounded to cents.
func (i *SaleItem) Recalculate() {
	i.TotalPrice = RoundMoney(i.Quantity.Mul(i.UnitPrice))
}

// Payment is money collected against a sale after it was created.
type Payment struct {
	ID            int64           `json:"id" db:"id"`
	SaleID        int64           `json:"sale_id" db:"sale_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method" db:"payment_method"`
	PaymentDate   time.Time       `json:"payment_date" db:"payment_date"`
	Reference     string          `json:"reference" db:"reference"`
	Notes         string          `json:"notes" db:"notes"`
	RecordedBy    int64           `json:"recorded_by" db:"recorded_by"`
}

// SaleFilters defines the available filters for querying sales.
type SaleFilters struct {
	CustomerID *int64  `form:"customer_id"`
	Date       *string `form:"date"` // YYYY-MM-DD
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}

// DailySummary holds the recomputable aggregates of every sale on one calendar date.
type DailySummary struct {
	ID            int64           `json:"id" db:"id"`
	Date          time.Time       `json:"date" db:"date"`
	TotalSales    decimal.Decimal `json:"total_sales" db:"total_sales"`
	TotalCash     decimal.Decimal `json:"total_cash" db:"total_cash"`
	TotalCard     decimal.Decimal `json:"total_card" db:"total_card"`
	TotalMobile   decimal.Decimal `json:"total_mobile" db:"total_mobile"`
	TotalDue      decimal.Decimal `json:"total_due" db:"total_due"`
	TotalDiscount decimal.Decimal `json:"total_discount" db:"total_discount"`
	TotalProfit   decimal.Decimal `json:"total_profit" db:"total_profit"`
	SaleCount     int             `json:"sale_count" db:"sale_count"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// PaymentMethodTotals is a grand-total sum for one payment method.
type PaymentMethodTotals struct {
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Count         int             `json:"count"`
	Total         decimal.Decimal `json:"total"`
}

// DailySales is the daily sales screen: the sales of a date and their summary.
type DailySales struct {
	Date    string        `json:"date"`
	Sales   []Sale        `json:"sales"`
	Summary *DailySummary `json:"summary,omitempty"`
}
