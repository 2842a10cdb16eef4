package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"door_shop_backend/internal/models"
)

// SaleRepository defines the interface for sale and sale item database operations.
type SaleRepository interface {
	CreateSale(ctx context.Context, executor SQLExecutor, sale *models.Sale) (int64, error)
	UpdateSaleTotals(ctx context.Context, executor SQLExecutor, sale *models.Sale) error
	CreateSaleItem(ctx context.Context, executor SQLExecutor, item *models.SaleItem) (int64, error)
	GetSaleByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Sale, error)
	GetSaleItems(ctx context.Context, saleID int64) ([]models.SaleItem, error)
	// GetSales lists sales newest first. from/to bound sale_date as [from, to).
	GetSales(ctx context.Context, customerID *int64, from, to *time.Time, page, pageSize int) ([]models.Sale, int, error)
	MarkReceiptPrinted(ctx context.Context, executor SQLExecutor, id int64) error
	GetCustomerSaleStats(ctx context.Context, customerID int64) (*models.CustomerSalesStats, error)
}

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sql.DB) SaleRepository {
	return &saleRepository{db: db}
}

const saleColumns = `s.id, s.customer_id, s.sale_person_id, s.sale_date, s.total_amount, s.discount_amount, s.tax_amount,
	s.grand_total, s.payment_method, s.payment_received, s.change_given, s.notes, s.receipt_printed,
	c.name, c.phone`

func scanSale(s scanner, extra ...interface{}) (*models.Sale, error) {
	sale := &models.Sale{}
	var customerName, customerPhone sql.NullString
	dest := []interface{}{
		&sale.ID, &sale.CustomerID, &sale.SalePersonID, &sale.SaleDate, &sale.TotalAmount, &sale.DiscountAmount, &sale.TaxAmount,
		&sale.GrandTotal, &sale.PaymentMethod, &sale.PaymentReceived, &sale.ChangeGiven, &sale.Notes, &sale.ReceiptPrinted,
		&customerName, &customerPhone,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if sale.CustomerID != nil {
		customer := &models.Customer{ID: *sale.CustomerID, Name: customerName.String}
		if customerPhone.Valid {
			phone := customerPhone.String
			customer.Phone = &phone
		}
		sale.Customer = customer
	}
	return sale, nil
}

// CreateSale inserts the sale header with whatever totals the model currently carries.
func (r *saleRepository) CreateSale(ctx context.Context, executor SQLExecutor, sale *models.Sale) (int64, error) {
	query := `INSERT INTO sales
	          (customer_id, sale_person_id, sale_date, total_amount, discount_amount, tax_amount, grand_total,
	           payment_method, payment_received, change_given, notes, receipt_printed)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`
	if sale.SaleDate.IsZero() {
		sale.SaleDate = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		sale.CustomerID, sale.SalePersonID, sale.SaleDate, sale.TotalAmount, sale.DiscountAmount, sale.TaxAmount, sale.GrandTotal,
		sale.PaymentMethod, sale.PaymentReceived, sale.ChangeGiven, sale.Notes, sale.ReceiptPrinted,
	).Scan(&sale.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating sale")
	}
	return sale.ID, nil
}

func (r *saleRepository) UpdateSaleTotals(ctx context.Context, executor SQLExecutor, sale *models.Sale) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE sales SET total_amount = $1, grand_total = $2, change_given = $3 WHERE id = $4`,
		sale.TotalAmount, sale.GrandTotal, sale.ChangeGiven, sale.ID,
	)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("updating totals of sale ID %d", sale.ID))
	}
	return checkRowsAffected(result, fmt.Sprintf("updating totals of sale ID %d", sale.ID))
}

func (r *saleRepository) CreateSaleItem(ctx context.Context, executor SQLExecutor, item *models.SaleItem) (int64, error) {
	query := `INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, total_price, unit_cost)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	item.Recalculate()
	err := executor.QueryRowContext(ctx, query,
		item.SaleID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice, item.UnitCost,
	).Scan(&item.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating sale item")
	}
	return item.ID, nil
}

func (r *saleRepository) GetSaleByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Sale, error) {
	if executor == nil {
		executor = r.db
	}
	sale, err := scanSale(executor.QueryRowContext(ctx, `SELECT `+saleColumns+`
	      FROM sales s
	      LEFT JOIN customers c ON c.id = s.customer_id
	      WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale by ID %d: %v", ErrDatabaseError, id, err)
	}
	return sale, nil
}

func (r *saleRepository) GetSaleItems(ctx context.Context, saleID int64) ([]models.SaleItem, error) {
	items := []models.SaleItem{}
	rows, err := r.db.QueryContext(ctx, `SELECT si.id, si.sale_id, si.product_id, si.quantity, si.unit_price,
	        si.total_price, si.unit_cost, p.name, p.product_type
	      FROM sale_items si
	      JOIN products p ON p.id = si.product_id
	      WHERE si.sale_id = $1
	      ORDER BY si.id ASC`, saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying items of sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SaleItem
		product := &models.Product{}
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Quantity, &item.UnitPrice,
			&item.TotalPrice, &item.UnitCost, &product.Name, &product.ProductType); err != nil {
			return nil, fmt.Errorf("%w: scanning sale item: %v", ErrDatabaseError, err)
		}
		product.ID = item.ProductID
		item.Product = product
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sale item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *saleRepository) GetSales(ctx context.Context, customerID *int64, from, to *time.Time, page, pageSize int) ([]models.Sale, int, error) {
	sales := []models.Sale{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + saleColumns + `, COUNT(*) OVER() AS total_count
	  FROM sales s
	  LEFT JOIN customers c ON c.id = s.customer_id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if customerID != nil {
		conditions = append(conditions, fmt.Sprintf("s.customer_id = $%d", argCount))
		args = append(args, *customerID)
		argCount++
	}
	if from != nil {
		conditions = append(conditions, fmt.Sprintf("s.sale_date >= $%d", argCount))
		args = append(args, *from)
		argCount++
	}
	if to != nil {
		conditions = append(conditions, fmt.Sprintf("s.sale_date < $%d", argCount))
		args = append(args, *to)
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY s.sale_date DESC, s.id DESC")

	query, args := paginate(queryBuilder.String(), args, page, pageSize)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		sale, err := scanSale(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
		}
		sales = append(sales, *sale)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sale rows: %v", ErrDatabaseError, err)
	}
	return sales, totalCount, nil
}

func (r *saleRepository) MarkReceiptPrinted(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `UPDATE sales SET receipt_printed = TRUE WHERE id = $1`, id)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("marking receipt printed for sale ID %d", id))
	}
	return checkRowsAffected(result, fmt.Sprintf("marking receipt printed for sale ID %d", id))
}

// GetCustomerSaleStats aggregates a customer's sales with a per payment method breakdown.
func (r *saleRepository) GetCustomerSaleStats(ctx context.Context, customerID int64) (*models.CustomerSalesStats, error) {
	stats := &models.CustomerSalesStats{ByMethod: []models.PaymentMethodTotals{}}
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(grand_total), 0), COALESCE(SUM(discount_amount), 0), MAX(sale_date)
	      FROM sales WHERE customer_id = $1`, customerID,
	).Scan(&stats.SalesCount, &stats.TotalAmount, &stats.TotalDiscount, &stats.LastPurchase)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating sales of customer ID %d: %v", ErrDatabaseError, customerID, err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT payment_method, COUNT(*), COALESCE(SUM(grand_total), 0)
	      FROM sales WHERE customer_id = $1
	      GROUP BY payment_method
	      ORDER BY payment_method`, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: grouping sales of customer ID %d: %v", ErrDatabaseError, customerID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var totals models.PaymentMethodTotals
		if err := rows.Scan(&totals.PaymentMethod, &totals.Count, &totals.Total); err != nil {
			return nil, fmt.Errorf("%w: scanning payment method totals: %v", ErrDatabaseError, err)
		}
		stats.ByMethod = append(stats.ByMethod, totals)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payment method rows: %v", ErrDatabaseError, err)
	}
	return stats, nil
}
