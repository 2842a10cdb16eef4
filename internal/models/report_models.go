package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockValuationItem is one tracked product in the stock valuation report.
type StockValuationItem struct {
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	CategoryName  string          `json:"category_name"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	StockValue    decimal.Decimal `json:"stock_value"`
	IsLowStock    bool            `json:"is_low_stock"`
}

// StockValuationReport values every tracked product at cost.
type StockValuationReport struct {
	Items          []StockValuationItem `json:"items"`
	TotalValuation decimal.Decimal      `json:"total_valuation"`
	ProductCount   int                  `json:"product_count"`
	LowStockCount  int                  `json:"low_stock_count"`
	CategoryID     *int64               `json:"category_id,omitempty"`
}

// ProfitLossReport summarises sales, cost and profit over a date range.
type ProfitLossReport struct {
	StartDate     string                `json:"start_date"`
	EndDate       string                `json:"end_date"`
	TotalSales    decimal.Decimal       `json:"total_sales"`
	TotalDiscount decimal.Decimal       `json:"total_discount"`
	TotalCost     decimal.Decimal       `json:"total_cost"`
	TotalProfit   decimal.Decimal       `json:"total_profit"`
	ProfitMargin  decimal.Decimal       `json:"profit_margin"`
	SaleCount     int                   `json:"sale_count"`
	ByMethod      []PaymentMethodTotals `json:"payment_methods"`
}

// LowStockItem is a tracked product at or below its minimum level.
type LowStockItem struct {
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	CategoryName  string          `json:"category_name"`
	SupplierName  *string         `json:"supplier_name,omitempty"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	RestockNeeded decimal.Decimal `json:"restock_needed"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	RestockValue  decimal.Decimal `json:"restock_value"`
}

// LowStockReport lists the products that need restocking.
type LowStockReport struct {
	Items             []LowStockItem  `json:"items"`
	TotalRestockValue decimal.Decimal `json:"total_restock_value"`
	Count             int             `json:"count"`
}

// DailySalesPoint is one date of the sales report breakdown.
type DailySalesPoint struct {
	Date      string          `json:"date"` // YYYY-MM-DD
	Total     decimal.Decimal `json:"total"`
	SaleCount int             `json:"sale_count"`
}

// TopProduct ranks a product by quantity sold.
type TopProduct struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	CategoryName string          `json:"category_name"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// SalesReport covers a date range with a per-day breakdown.
type SalesReport struct {
	StartDate   string            `json:"start_date"`
	EndDate     string            `json:"end_date"`
	Daily       []DailySalesPoint `json:"daily"`
	TopProducts []TopProduct      `json:"top_products"`
	TotalSales  decimal.Decimal   `json:"total_sales"`
	SaleCount   int               `json:"sale_count"`
	AverageSale decimal.Decimal   `json:"average_sale"`
}

// CustomerReportItem is one customer's purchase totals.
type CustomerReportItem struct {
	CustomerID   int64           `json:"customer_id"`
	Name         string          `json:"name"`
	Phone        *string         `json:"phone,omitempty"`
	SaleCount    int             `json:"sale_count"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	LastPurchase *time.Time      `json:"last_purchase,omitempty"`
}

// CustomerReport ranks customers by spend.
type CustomerReport struct {
	TotalCustomers  int                  `json:"total_customers"`
	ActiveCustomers int                  `json:"active_customers"`
	TotalRevenue    decimal.Decimal      `json:"total_revenue"`
	AverageSpent    decimal.Decimal      `json:"average_spent"`
	TopCustomers    []CustomerReportItem `json:"top_customers"`
}

// SupplierReportItem is one supplier's purchasing and catalog totals.
type SupplierReportItem struct {
	SupplierID     int64           `json:"supplier_id"`
	Name           string          `json:"name"`
	ProductCount   int             `json:"product_count"`
	OrderCount     int             `json:"order_count"`
	TotalPurchased decimal.Decimal `json:"total_purchased"`
	LastOrder      *time.Time      `json:"last_order,omitempty"`
}

// SupplierReport lists every supplier with totals.
type SupplierReport struct {
	TotalSuppliers     int                  `json:"total_suppliers"`
	ActiveSuppliers    int                  `json:"active_suppliers"`
	TotalPurchaseValue decimal.Decimal      `json:"total_purchase_value"`
	Suppliers          []SupplierReportItem `json:"suppliers"`
}

// DashboardSummary holds key metrics for the dashboard.
type DashboardSummary struct {
	ProductCount    int             `json:"product_count"`
	SupplierCount   int             `json:"supplier_count"`
	CustomerCount   int             `json:"customer_count"`
	TodaySalesTotal decimal.Decimal `json:"today_sales_total"`
	TodaySaleCount  int             `json:"today_sale_count"`
	PendingOrders   int             `json:"pending_purchase_orders"`
	LowStockAlerts  []LowStockItem  `json:"low_stock_alerts"`
	RecentSales     []Sale          `json:"recent_sales"`
}

// ReportRequestParams holds common parameters for requesting reports.
type ReportRequestParams struct {
	StartDate  string `form:"start_date"` // YYYY-MM-DD
	EndDate    string `form:"end_date"`   // YYYY-MM-DD
	CategoryID *int64 `form:"category_id"`
}
