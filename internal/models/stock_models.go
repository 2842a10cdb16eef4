package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentType is the kind of manual stock adjustment.
type AdjustmentType string

const (
	AdjustmentIn     AdjustmentType = "in"
	AdjustmentOut    AdjustmentType = "out"
	AdjustmentAdjust AdjustmentType = "adjust"
)

// IsValidAdjustmentType checks if the provided string is a known AdjustmentType.
func IsValidAdjustmentType(t string) bool {
	switch AdjustmentType(t) {
	case AdjustmentIn, AdjustmentOut, AdjustmentAdjust:
		return true
	default:
		return false
	}
}

// StockAdjustment is a manual stock correction made by a user.
// StockApplied is false when the adjustment changed no stock (untracked product, or an "adjust" record).
type StockAdjustment struct {
	ID             int64           `json:"id" db:"id"`
	ProductID      int64           `json:"product_id" db:"product_id"`
	AdjustmentType AdjustmentType  `json:"adjustment_type" db:"adjustment_type"`
	Quantity       decimal.Decimal `json:"quantity" db:"quantity"`
	Reason         string          `json:"reason" db:"reason"`
	Notes          string          `json:"notes" db:"notes"`
	StockApplied   bool            `json:"stock_applied" db:"stock_applied"`
	CreatedBy      int64           `json:"created_by" db:"created_by"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	Product        *Product        `json:"product,omitempty"`
}

// StockAdjustmentStats summarises all adjustments.
type StockAdjustmentStats struct {
	TotalAdjustments int             `json:"total_adjustments"`
	StockInCount     int             `json:"stock_in_count"`
	StockOutCount    int             `json:"stock_out_count"`
	AdjustmentCount  int             `json:"adjustment_count"`
	TotalStockIn     decimal.Decimal `json:"total_stock_in"`
	TotalStockOut    decimal.Decimal `json:"total_stock_out"`
	NetChange        decimal.Decimal `json:"net_change"`
}

// StockSource names the ledger path that moved stock.
type StockSource string

const (
	StockSourcePurchaseReceipt StockSource = "purchase_receipt"
	StockSourceSale            StockSource = "sale"
	StockSourceAdjustmentIn    StockSource = "adjustment_in"
	StockSourceAdjustmentOut   StockSource = "adjustment_out"
)

// StockMovement is the ledger row written for every applied stock delta.
type StockMovement struct {
	ID              int64           `json:"id" db:"id"`
	ProductID       int64           `json:"product_id" db:"product_id"`
	Source          StockSource     `json:"source" db:"source"`
	QuantityChanged decimal.Decimal `json:"quantity_changed" db:"quantity_changed"`
	QuantityBefore  decimal.Decimal `json:"quantity_before" db:"quantity_before"`
	QuantityAfter   decimal.Decimal `json:"quantity_after" db:"quantity_after"`
	ReferenceType   *string         `json:"reference_type,omitempty" db:"reference_type"`
	ReferenceID     *int64          `json:"reference_id,omitempty" db:"reference_id"`
	ActorID         *int64          `json:"actor_id,omitempty" db:"actor_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	Product         *Product        `json:"product,omitempty"`
}

// StockMovementFilters defines the available filters for listing movements.
type StockMovementFilters struct {
	ProductID *int64  `form:"product_id"`
	Source    *string `form:"source"`
	StartDate *string `form:"start_date"`
	EndDate   *string `form:"end_date"`
	Page      int     `form:"page"`
	PageSize  int     `form:"page_size"`
}

// CostLayer is a received quantity still on hand at its purchase cost, consumed oldest-first.
type CostLayer struct {
	ID                int64           `json:"id" db:"id"`
	ProductID         int64           `json:"product_id" db:"product_id"`
	PurchaseItemID    *int64          `json:"purchase_item_id,omitempty" db:"purchase_item_id"`
	UnitCost          decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	QuantityReceived  decimal.Decimal `json:"quantity_received" db:"quantity_received"`
	QuantityRemaining decimal.Decimal `json:"quantity_remaining" db:"quantity_remaining"`
	ReceivedAt        time.Time       `json:"received_at" db:"received_at"`
}
