package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus is the lifecycle state of a purchase order.
type PurchaseOrderStatus string

const (
	PurchaseOrderPending   PurchaseOrderStatus = "pending"
	PurchaseOrderReceived  PurchaseOrderStatus = "received"
	PurchaseOrderCancelled PurchaseOrderStatus = "cancelled"
)

// IsValidPurchaseOrderStatus checks if the provided status string is a valid PurchaseOrderStatus.
func IsValidPurchaseOrderStatus(status string) bool {
	switch PurchaseOrderStatus(status) {
	case PurchaseOrderPending, PurchaseOrderReceived, PurchaseOrderCancelled:
		return true
	default:
		return false
	}
}

// PurchaseOrder is an order placed with one supplier. TotalAmount is derived from its items.
type PurchaseOrder struct {
	ID           int64               `json:"id" db:"id"`
	SupplierID   int64               `json:"supplier_id" db:"supplier_id"`
	OrderDate    time.Time           `json:"order_date" db:"order_date"`
	ExpectedDate *time.Time          `json:"expected_date,omitempty" db:"expected_date"`
	Status       PurchaseOrderStatus `json:"status" db:"status"`
	TotalAmount  decimal.Decimal     `json:"total_amount" db:"total_amount"`
	Notes        *string             `json:"notes,omitempty" db:"notes"`
	ReceivedAt   *time.Time          `json:"received_at,omitempty" db:"received_at"`
	ReceivedBy   *int64              `json:"received_by,omitempty" db:"received_by"`
	Items        []PurchaseItem      `json:"items,omitempty"`
	Supplier     *Supplier           `json:"supplier,omitempty"`
}

// RecalculateTotal sets TotalAmount to the sum of the item totals.
func (o *PurchaseOrder) RecalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice)
	}
	o.TotalAmount = RoundMoney(total)
}

// IsPending reports whether items may still be added or removed.
func (o *PurchaseOrder) IsPending() bool {
	return o.Status == PurchaseOrderPending
}

// PurchaseItem is one product line of a purchase order.
type PurchaseItem struct {
	ID              int64           `json:"id" db:"id"`
	PurchaseOrderID int64           `json:"purchase_order_id" db:"purchase_order_id"`
	ProductID       int64           `json:"product_id" db:"product_id"`
	Quantity        decimal.Decimal `json:"quantity" db:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	TotalPrice      decimal.Decimal `json:"total_price" db:"total_price"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	Product         *Product        `json:"product,omitempty"`
}

// Recalculate derives the line total, rounded to cents.
func (i *PurchaseItem) Recalculate() {
	i.TotalPrice = RoundMoney(i.Quantity.Mul(i.UnitCost))
}

// PurchaseOrderFilters defines the available filters for listing purchase orders.
type PurchaseOrderFilters struct {
	Status     *string `form:"status"`
	SupplierID *int64  `form:"supplier_id"`
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}

// PurchaseOrderStats summarises a purchase order listing.
type PurchaseOrderStats struct {
	TotalPurchases int             `json:"total_purchases"`
	PendingCount   int             `json:"pending_count"`
	ReceivedCount  int             `json:"received_count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}
