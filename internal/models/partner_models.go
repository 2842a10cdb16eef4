package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier delivers products through purchase orders.
type Supplier struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	ContactPerson *string   `json:"contact_person,omitempty" db:"contact_person"`
	Phone         string    `json:"phone" db:"phone"`
	Email         *string   `json:"email,omitempty" db:"email"`
	Address       *string   `json:"address,omitempty" db:"address"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Customer buys from the shop. Phone is unique when present.
type Customer struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Email     *string   `json:"email,omitempty" db:"email"`
	Address   *string   `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CustomerSalesStats aggregates a customer's purchase history.
type CustomerSalesStats struct {
	SalesCount    int                   `json:"sales_count"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	TotalDiscount decimal.Decimal       `json:"total_discount"`
	LastPurchase  *time.Time            `json:"last_purchase,omitempty"`
	ByMethod      []PaymentMethodTotals `json:"payment_methods"`
}

// CustomerSalesHistory is a customer with the sales they made.
type CustomerSalesHistory struct {
	Customer *Customer          `json:"customer"`
	Sales    []Sale             `json:"sales"`
	Stats    CustomerSalesStats `json:"stats"`
}
