package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"door_shop_backend/internal/models"

	"github.com/shopspring/decimal"
)

// PurchaseOrderRepository defines the interface for purchase order and purchase item database operations.
type PurchaseOrderRepository interface {
	CreatePurchaseOrder(ctx context.Context, executor SQLExecutor, order *models.PurchaseOrder) (int64, error)
	GetPurchaseOrderByID(ctx context.Context, executor SQLExecutor, id int64) (*models.PurchaseOrder, error)
	// GetPurchaseOrderForUpdate locks the order row; executor must be a transaction.
	GetPurchaseOrderForUpdate(ctx context.Context, executor SQLExecutor, id int64) (*models.PurchaseOrder, error)
	GetPurchaseOrders(ctx context.Context, filters models.PurchaseOrderFilters) ([]models.PurchaseOrder, int, error)
	GetPurchaseOrderStats(ctx context.Context) (*models.PurchaseOrderStats, error)
	UpdatePurchaseOrderStatus(ctx context.Context, executor SQLExecutor, order *models.PurchaseOrder) error
	UpdatePurchaseOrderTotal(ctx context.Context, executor SQLExecutor, id int64, total decimal.Decimal) error
	CreatePurchaseItem(ctx context.Context, executor SQLExecutor, item *models.PurchaseItem) (int64, error)
	GetPurchaseItems(ctx context.Context, executor SQLExecutor, orderID int64) ([]models.PurchaseItem, error)
	DeletePurchaseItem(ctx context.Context, executor SQLExecutor, orderID, itemID int64) error
}

type purchaseOrderRepository struct {
	db *sql.DB
}

// NewPurchaseOrderRepository creates a new instance of PurchaseOrderRepository.
func NewPurchaseOrderRepository(db *sql.DB) PurchaseOrderRepository {
	return &purchaseOrderRepository{db: db}
}

const purchaseOrderColumns = `po.id, po.supplier_id, po.order_date, po.expected_date, po.status, po.total_amount,
	po.notes, po.received_at, po.received_by, s.name`

func scanPurchaseOrder(s scanner, extra ...interface{}) (*models.PurchaseOrder, error) {
	order := &models.PurchaseOrder{}
	var supplierName string
	dest := []interface{}{
		&order.ID, &order.SupplierID, &order.OrderDate, &order.ExpectedDate, &order.Status, &order.TotalAmount,
		&order.Notes, &order.ReceivedAt, &order.ReceivedBy, &supplierName,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	order.Supplier = &models.Supplier{ID: order.SupplierID, Name: supplierName}
	return order, nil
}

func (r *purchaseOrderRepository) CreatePurchaseOrder(ctx context.Context, executor SQLExecutor, order *models.PurchaseOrder) (int64, error) {
	query := `INSERT INTO purchase_orders (supplier_id, order_date, expected_date, status, total_amount, notes)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if order.OrderDate.IsZero() {
		order.OrderDate = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		order.SupplierID, order.OrderDate, order.ExpectedDate, order.Status, order.TotalAmount, order.Notes,
	).Scan(&order.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating purchase order")
	}
	return order.ID, nil
}

func (r *purchaseOrderRepository) getPurchaseOrder(ctx context.Context, executor SQLExecutor, id int64, lock bool) (*models.PurchaseOrder, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT ` + purchaseOrderColumns + `
	          FROM purchase_orders po
	          JOIN suppliers s ON s.id = po.supplier_id
	          WHERE po.id = $1`
	if lock {
		query += ` FOR UPDATE OF po`
	}
	order, err := scanPurchaseOrder(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting purchase order by ID %d: %v", ErrDatabaseError, id, err)
	}
	return order, nil
}

func (r *purchaseOrderRepository) GetPurchaseOrderByID(ctx context.Context, executor SQLExecutor, id int64) (*models.PurchaseOrder, error) {
	return r.getPurchaseOrder(ctx, executor, id, false)
}

func (r *purchaseOrderRepository) GetPurchaseOrderForUpdate(ctx context.Context, executor SQLExecutor, id int64) (*models.PurchaseOrder, error) {
	return r.getPurchaseOrder(ctx, executor, id, true)
}

func (r *purchaseOrderRepository) GetPurchaseOrders(ctx context.Context, filters models.PurchaseOrderFilters) ([]models.PurchaseOrder, int, error) {
	orders := []models.PurchaseOrder{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + purchaseOrderColumns + `, COUNT(*) OVER() AS total_count
	  FROM purchase_orders po
	  JOIN suppliers s ON s.id = po.supplier_id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("po.status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.SupplierID != nil {
		conditions = append(conditions, fmt.Sprintf("po.supplier_id = $%d", argCount))
		args = append(args, *filters.SupplierID)
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY po.order_date DESC, po.id DESC")

	query, args := paginate(queryBuilder.String(), args, filters.Page, filters.PageSize)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying purchase orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		order, err := scanPurchaseOrder(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning purchase order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, *order)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating purchase order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *purchaseOrderRepository) GetPurchaseOrderStats(ctx context.Context) (*models.PurchaseOrderStats, error) {
	stats := &models.PurchaseOrderStats{}
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*),
	        COUNT(*) FILTER (WHERE status = 'pending'),
	        COUNT(*) FILTER (WHERE status = 'received'),
	        COALESCE(SUM(total_amount), 0)
	      FROM purchase_orders`).Scan(&stats.TotalPurchases, &stats.PendingCount, &stats.ReceivedCount, &stats.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: getting purchase order stats: %v", ErrDatabaseError, err)
	}
	return stats, nil
}

// UpdatePurchaseOrderStatus writes status together with the receipt stamp.
func (r *purchaseOrderRepository) UpdatePurchaseOrderStatus(ctx context.Context, executor SQLExecutor, order *models.PurchaseOrder) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE purchase_orders SET status = $1, received_at = $2, received_by = $3 WHERE id = $4`,
		order.Status, order.ReceivedAt, order.ReceivedBy, order.ID,
	)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("updating status of purchase order ID %d", order.ID))
	}
	return checkRowsAffected(result, fmt.Sprintf("updating status of purchase order ID %d", order.ID))
}

func (r *purchaseOrderRepository) UpdatePurchaseOrderTotal(ctx context.Context, executor SQLExecutor, id int64, total decimal.Decimal) error {
	result, err := executor.ExecContext(ctx, `UPDATE purchase_orders SET total_amount = $1 WHERE id = $2`, total, id)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("updating total of purchase order ID %d", id))
	}
	return checkRowsAffected(result, fmt.Sprintf("updating total of purchase order ID %d", id))
}

func (r *purchaseOrderRepository) CreatePurchaseItem(ctx context.Context, executor SQLExecutor, item *models.PurchaseItem) (int64, error) {
	query := `INSERT INTO purchase_items (purchase_order_id, product_id, quantity, unit_cost, total_price, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	item.Recalculate()
	item.CreatedAt = time.Now()
	err := executor.QueryRowContext(ctx, query,
		item.PurchaseOrderID, item.ProductID, item.Quantity, item.UnitCost, item.TotalPrice, item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating purchase item")
	}
	return item.ID, nil
}

// GetPurchaseItems returns the items of an order in insertion order.
func (r *purchaseOrderRepository) GetPurchaseItems(ctx context.Context, executor SQLExecutor, orderID int64) ([]models.PurchaseItem, error) {
	if executor == nil {
		executor = r.db
	}
	items := []models.PurchaseItem{}
	rows, err := executor.QueryContext(ctx, `SELECT pi.id, pi.purchase_order_id, pi.product_id, pi.quantity, pi.unit_cost,
	        pi.total_price, pi.created_at, p.name, p.track_stock
	      FROM purchase_items pi
	      JOIN products p ON p.id = pi.product_id
	      WHERE pi.purchase_order_id = $1
	      ORDER BY pi.id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying items of purchase order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.PurchaseItem
		product := &models.Product{}
		if err := rows.Scan(&item.ID, &item.PurchaseOrderID, &item.ProductID, &item.Quantity, &item.UnitCost,
			&item.TotalPrice, &item.CreatedAt, &product.Name, &product.TrackStock); err != nil {
			return nil, fmt.Errorf("%w: scanning purchase item: %v", ErrDatabaseError, err)
		}
		product.ID = item.ProductID
		item.Product = product
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating purchase item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *purchaseOrderRepository) DeletePurchaseItem(ctx context.Context, executor SQLExecutor, orderID, itemID int64) error {
	result, err := executor.ExecContext(ctx,
		`DELETE FROM purchase_items WHERE id = $1 AND purchase_order_id = $2`, itemID, orderID)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("deleting purchase item ID %d", itemID))
	}
	return checkRowsAffected(result, fmt.Sprintf("deleting purchase item ID %d", itemID))
}
