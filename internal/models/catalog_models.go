package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType classifies what a product is (a door, a frame, a service...).
type ProductType string

const (
	ProductTypeReadyMade ProductType = "ready_made"
	ProductTypeCustom    ProductType = "custom"
	ProductTypeFrame     ProductType = "frame"
	ProductTypeAccessory ProductType = "accessory"
	ProductTypeMaterial  ProductType = "material"
	ProductTypeService   ProductType = "service"
)

// IsValidProductType checks if the provided string is a known ProductType.
func IsValidProductType(t string) bool {
	switch ProductType(t) {
	case ProductTypeReadyMade,
		ProductTypeCustom,
		ProductTypeFrame,
		ProductTypeAccessory,
		ProductTypeMaterial,
		ProductTypeService:
		return true
	default:
		return false
	}
}

// IsDoor reports whether the product type carries door dimensions.
func (t ProductType) IsDoor() bool {
	return t == ProductTypeReadyMade || t == ProductTypeCustom || t == ProductTypeFrame
}

// Category groups products.
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" binding:"required"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Product is a sellable item. Stock fields are ignored by the ledger when TrackStock is false.
type Product struct {
	ID               int64               `json:"id" db:"id"`
	CategoryID       int64               `json:"category_id" db:"category_id"`
	SupplierID       *int64              `json:"supplier_id,omitempty" db:"supplier_id"`
	Name             string              `json:"name" db:"name"`
	ProductType      ProductType         `json:"product_type" db:"product_type"`
	Description      *string             `json:"description,omitempty" db:"description"`
	SupplierItemCode *string             `json:"supplier_item_code,omitempty" db:"supplier_item_code"`
	Width            decimal.NullDecimal `json:"width" db:"width"`
	Height           decimal.NullDecimal `json:"height" db:"height"`
	Thickness        decimal.NullDecimal `json:"thickness" db:"thickness"`
	Material         *string             `json:"material,omitempty" db:"material"`
	OpeningSide      *string             `json:"opening_side,omitempty" db:"opening_side"`
	Accessories      *string             `json:"accessories,omitempty" db:"accessories"`
	CostPrice        decimal.Decimal     `json:"cost_price" db:"cost_price"`
	SellingPrice     decimal.Decimal     `json:"selling_price" db:"selling_price"`
	CurrentStock     decimal.Decimal     `json:"current_stock" db:"current_stock"`
	MinStockLevel    decimal.Decimal     `json:"min_stock_level" db:"min_stock_level"`
	TrackStock       bool                `json:"track_stock" db:"track_stock"`
	Remarks          *string             `json:"remarks,omitempty" db:"remarks"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
	Category         *Category           `json:"category,omitempty"`
	Supplier         *Supplier           `json:"supplier,omitempty"`
}

// StockValue is current stock valued at cost.
func (p *Product) StockValue() decimal.Decimal {
	return p.CurrentStock.Mul(p.CostPrice)
}

// ProfitMargin returns the markup over cost as a percentage, or zero when cost is zero.
func (p *Product) ProfitMargin() decimal.Decimal {
	if !p.CostPrice.IsPositive() {
		return decimal.Zero
	}
	return p.SellingPrice.Sub(p.CostPrice).Div(p.CostPrice).Mul(decimal.NewFromInt(100))
}

// IsLowStock reports whether a tracked product is at or below its minimum level.
func (p *Product) IsLowStock() bool {
	return p.TrackStock && p.CurrentStock.LessThanOrEqual(p.MinStockLevel)
}

// RestockNeeded is the quantity required to bring stock back to the minimum level.
func (p *Product) RestockNeeded() decimal.Decimal {
	need := p.MinStockLevel.Sub(p.CurrentStock)
	if need.IsNegative() {
		return decimal.Zero
	}
	return need
}

// HasStockFor reports whether a sale of qty can be served. Untracked products always can.
func (p *Product) HasStockFor(qty decimal.Decimal) bool {
	return !p.TrackStock || qty.LessThanOrEqual(p.CurrentStock)
}

// DisplayName appends door dimensions for door-like products.
func (p *Product) DisplayName() string {
	if p.ProductType.IsDoor() && p.Width.Valid && p.Height.Valid && p.Thickness.Valid {
		return p.Name + " (" + p.Width.Decimal.String() + "x" + p.Height.Decimal.String() + "x" + p.Thickness.Decimal.String() + ")"
	}
	return p.Name
}

// ProductFilters defines the available filters for querying products.
type ProductFilters struct {
	Search      *string `form:"q"`
	CategoryID  *int64  `form:"category"`
	ProductType *string `form:"product_type"`
	Page        int     `form:"page"`
	PageSize    int     `form:"page_size"`
}

// ProductStockInfo is the compact stock view used by the POS screen.
type ProductStockInfo struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	TrackStock    bool            `json:"track_stock"`
	Category      string          `json:"category"`
}
