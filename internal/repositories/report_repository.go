package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"door_shop_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ReportRepository runs the read-only aggregate queries behind reports and the dashboard.
type ReportRepository interface {
	GetStockValuation(ctx context.Context, categoryID *int64) ([]models.StockValuationItem, error)
	GetLowStockProducts(ctx context.Context, limit int) ([]models.LowStockItem, error)
	GetSalesTotals(ctx context.Context, from, to time.Time) (total, discount decimal.Decimal, count int, err error)
	GetCostOfGoodsSold(ctx context.Context, from, to time.Time, snapshotCost bool) (decimal.Decimal, error)
	GetPaymentMethodTotals(ctx context.Context, from, to time.Time) ([]models.PaymentMethodTotals, error)
	// GetDailySalesTotals groups sales by calendar date in the named time zone. Dates without sales are absent.
	GetDailySalesTotals(ctx context.Context, from, to time.Time, timezone string) ([]models.DailySalesPoint, error)
	// GetTopProducts ranks products by quantity sold. limit <= 0 returns every product sold in the range.
	GetTopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.TopProduct, error)
	GetCustomerSummaries(ctx context.Context) ([]models.CustomerReportItem, error)
	GetSupplierSummaries(ctx context.Context) ([]models.SupplierReportItem, error)
	GetEntityCounts(ctx context.Context) (*models.DashboardSummary, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) GetStockValuation(ctx context.Context, categoryID *int64) ([]models.StockValuationItem, error) {
	items := []models.StockValuationItem{}
	query := `SELECT p.id, p.name, c.name, p.current_stock, p.min_stock_level, p.cost_price
	          FROM products p
	          JOIN categories c ON c.id = p.category_id
	          WHERE p.track_stock`
	var args []interface{}
	if categoryID != nil {
		query += ` AND p.category_id = $1`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY p.name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying stock valuation: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.StockValuationItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.CategoryName,
			&item.CurrentStock, &item.MinStockLevel, &item.CostPrice); err != nil {
			return nil, fmt.Errorf("%w: scanning stock valuation row: %v", ErrDatabaseError, err)
		}
		item.StockValue = item.CurrentStock.Mul(item.CostPrice)
		item.IsLowStock = item.CurrentStock.LessThanOrEqual(item.MinStockLevel)
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating stock valuation rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

// GetLowStockProducts returns tracked products at or below their minimum level. limit <= 0 returns all.
func (r *reportRepository) GetLowStockProducts(ctx context.Context, limit int) ([]models.LowStockItem, error) {
	items := []models.LowStockItem{}
	query := `SELECT p.id, p.name, c.name, s.name, p.current_stock, p.min_stock_level, p.cost_price
	          FROM products p
	          JOIN categories c ON c.id = p.category_id
	          LEFT JOIN suppliers s ON s.id = p.supplier_id
	          WHERE p.track_stock AND p.current_stock <= p.min_stock_level
	          ORDER BY (p.min_stock_level - p.current_stock) DESC, p.name ASC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying low stock products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.LowStockItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.CategoryName, &item.SupplierName,
			&item.CurrentStock, &item.MinStockLevel, &item.CostPrice); err != nil {
			return nil, fmt.Errorf("%w: scanning low stock row: %v", ErrDatabaseError, err)
		}
		item.RestockNeeded = decimal.Max(decimal.Zero, item.MinStockLevel.Sub(item.CurrentStock))
		item.RestockValue = item.RestockNeeded.Mul(item.CostPrice)
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating low stock rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *reportRepository) GetSalesTotals(ctx context.Context, from, to time.Time) (decimal.Decimal, decimal.Decimal, int, error) {
	var total, discount decimal.Decimal
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(grand_total), 0), COALESCE(SUM(discount_amount), 0), COUNT(*)
	      FROM sales WHERE sale_date >= $1 AND sale_date < $2`, from, to).Scan(&total, &discount, &count)
	if err != nil {
		return decimal.Zero, decimal.Zero, 0, fmt.Errorf("%w: aggregating sales totals: %v", ErrDatabaseError, err)
	}
	return total, discount, count, nil
}

func (r *reportRepository) GetCostOfGoodsSold(ctx context.Context, from, to time.Time, snapshotCost bool) (decimal.Decimal, error) {
	costExpr := `COALESCE(SUM(p.cost_price * si.quantity), 0)`
	if snapshotCost {
		costExpr = `COALESCE(SUM(si.unit_cost * si.quantity), 0)`
	}
	var cost decimal.Decimal
	err := r.db.QueryRowContext(ctx, `SELECT `+costExpr+`
	      FROM sale_items si
	      JOIN sales s ON s.id = si.sale_id
	      JOIN products p ON p.id = si.product_id
	      WHERE s.sale_date >= $1 AND s.sale_date < $2`, from, to).Scan(&cost)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: aggregating cost of goods sold: %v", ErrDatabaseError, err)
	}
	return cost, nil
}

func (r *reportRepository) GetPaymentMethodTotals(ctx context.Context, from, to time.Time) ([]models.PaymentMethodTotals, error) {
	totals := []models.PaymentMethodTotals{}
	rows, err := r.db.QueryContext(ctx, `SELECT payment_method, COUNT(*), COALESCE(SUM(grand_total), 0)
	      FROM sales WHERE sale_date >= $1 AND sale_date < $2
	      GROUP BY payment_method`, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: grouping sales by payment method: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.PaymentMethodTotals
		if err := rows.Scan(&t.PaymentMethod, &t.Count, &t.Total); err != nil {
			return nil, fmt.Errorf("%w: scanning payment method totals: %v", ErrDatabaseError, err)
		}
		totals = append(totals, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payment method rows: %v", ErrDatabaseError, err)
	}
	return totals, nil
}

func (r *reportRepository) GetDailySalesTotals(ctx context.Context, from, to time.Time, timezone string) ([]models.DailySalesPoint, error) {
	points := []models.DailySalesPoint{}
	rows, err := r.db.QueryContext(ctx, `SELECT to_char((sale_date AT TIME ZONE $3)::date, 'YYYY-MM-DD') AS day,
	        COALESCE(SUM(grand_total), 0), COUNT(*)
	      FROM sales WHERE sale_date >= $1 AND sale_date < $2
	      GROUP BY day
	      ORDER BY day`, from, to, timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: grouping sales by day: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.DailySalesPoint
		if err := rows.Scan(&p.Date, &p.Total, &p.SaleCount); err != nil {
			return nil, fmt.Errorf("%w: scanning daily sales row: %v", ErrDatabaseError, err)
		}
		points = append(points, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating daily sales rows: %v", ErrDatabaseError, err)
	}
	return points, nil
}

func (r *reportRepository) GetTopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.TopProduct, error) {
	products := []models.TopProduct{}
	query := `SELECT p.id, p.name, c.name, SUM(si.quantity) AS qty, SUM(si.total_price)
	      FROM sale_items si
	      JOIN sales s ON s.id = si.sale_id
	      JOIN products p ON p.id = si.product_id
	      JOIN categories c ON c.id = p.category_id
	      WHERE s.sale_date >= $1 AND s.sale_date < $2
	      GROUP BY p.id, p.name, c.name
	      ORDER BY qty DESC, p.name ASC`
	args := []interface{}{from, to}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying top products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.TopProduct
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.CategoryName, &p.QuantitySold, &p.Revenue); err != nil {
			return nil, fmt.Errorf("%w: scanning top product: %v", ErrDatabaseError, err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating top product rows: %v", ErrDatabaseError, err)
	}
	return products, nil
}

// GetCustomerSummaries returns every customer with sales totals, biggest spenders first.
func (r *reportRepository) GetCustomerSummaries(ctx context.Context) ([]models.CustomerReportItem, error) {
	items := []models.CustomerReportItem{}
	rows, err := r.db.QueryContext(ctx, `SELECT c.id, c.name, c.phone, COUNT(s.id), COALESCE(SUM(s.grand_total), 0), MAX(s.sale_date)
	      FROM customers c
	      LEFT JOIN sales s ON s.customer_id = c.id
	      GROUP BY c.id, c.name, c.phone
	      ORDER BY COALESCE(SUM(s.grand_total), 0) DESC, c.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying customer summaries: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.CustomerReportItem
		if err := rows.Scan(&item.CustomerID, &item.Name, &item.Phone, &item.SaleCount, &item.TotalSpent, &item.LastPurchase); err != nil {
			return nil, fmt.Errorf("%w: scanning customer summary: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating customer summary rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *reportRepository) GetSupplierSummaries(ctx context.Context) ([]models.SupplierReportItem, error) {
	items := []models.SupplierReportItem{}
	rows, err := r.db.QueryContext(ctx, `SELECT s.id, s.name,
	        (SELECT COUNT(*) FROM products p WHERE p.supplier_id = s.id),
	        COUNT(po.id), COALESCE(SUM(po.total_amount), 0), MAX(po.order_date)
	      FROM suppliers s
	      LEFT JOIN purchase_orders po ON po.supplier_id = s.id
	      GROUP BY s.id, s.name
	      ORDER BY s.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying supplier summaries: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SupplierReportItem
		if err := rows.Scan(&item.SupplierID, &item.Name, &item.ProductCount, &item.OrderCount, &item.TotalPurchased, &item.LastOrder); err != nil {
			return nil, fmt.Errorf("%w: scanning supplier summary: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating supplier summary rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

// GetEntityCounts fills the count fields of the dashboard.
func (r *reportRepository) GetEntityCounts(ctx context.Context) (*models.DashboardSummary, error) {
	d := &models.DashboardSummary{}
	err := r.db.QueryRowContext(ctx, `SELECT
	        (SELECT COUNT(*) FROM products),
	        (SELECT COUNT(*) FROM suppliers),
	        (SELECT COUNT(*) FROM customers),
	        (SELECT COUNT(*) FROM purchase_orders WHERE status = 'pending')`).Scan(
		&d.ProductCount, &d.SupplierCount, &d.CustomerCount, &d.PendingOrders,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: counting dashboard entities: %v", ErrDatabaseError, err)
	}
	return d, nil
}
