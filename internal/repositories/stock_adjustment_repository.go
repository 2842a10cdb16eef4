package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"door_shop_backend/internal/models"
)

// StockAdjustmentRepository defines the interface for manual stock adjustment records.
type StockAdjustmentRepository interface {
	CreateStockAdjustment(ctx context.Context, executor SQLExecutor, adjustment *models.StockAdjustment) (int64, error)
	GetStockAdjustments(ctx context.Context, productID *int64, page, pageSize int) ([]models.StockAdjustment, int, error)
	GetStockAdjustmentStats(ctx context.Context) (*models.StockAdjustmentStats, error)
}

type stockAdjustmentRepository struct {
	db *sql.DB
}

// NewStockAdjustmentRepository creates a new instance of StockAdjustmentRepository.
func NewStockAdjustmentRepository(db *sql.DB) StockAdjustmentRepository {
	return &stockAdjustmentRepository{db: db}
}

func (r *stockAdjustmentRepository) CreateStockAdjustment(ctx context.Context, executor SQLExecutor, a *models.StockAdjustment) (int64, error) {
	query := `INSERT INTO stock_adjustments
	          (product_id, adjustment_type, quantity, reason, notes, stock_applied, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	a.CreatedAt = time.Now()
	err := executor.QueryRowContext(ctx, query,
		a.ProductID, a.AdjustmentType, a.Quantity, a.Reason, a.Notes, a.StockApplied, a.CreatedBy, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating stock adjustment")
	}
	return a.ID, nil
}

func (r *stockAdjustmentRepository) GetStockAdjustments(ctx context.Context, productID *int64, page, pageSize int) ([]models.StockAdjustment, int, error) {
	adjustments := []models.StockAdjustment{}
	totalCount := 0

	query := `SELECT sa.id, sa.product_id, sa.adjustment_type, sa.quantity, sa.reason, sa.notes, sa.stock_applied,
	        sa.created_by, sa.created_at, p.name, COUNT(*) OVER() AS total_count
	      FROM stock_adjustments sa
	      JOIN products p ON p.id = sa.product_id`
	var args []interface{}
	if productID != nil {
		query += ` WHERE sa.product_id = $1`
		args = append(args, *productID)
	}
	query += ` ORDER BY sa.created_at DESC, sa.id DESC`
	query, args = paginate(query, args, page, pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying stock adjustments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.StockAdjustment
		var productName string
		if err := rows.Scan(&a.ID, &a.ProductID, &a.AdjustmentType, &a.Quantity, &a.Reason, &a.Notes, &a.StockApplied,
			&a.CreatedBy, &a.CreatedAt, &productName, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning stock adjustment: %v", ErrDatabaseError, err)
		}
		a.Product = &models.Product{ID: a.ProductID, Name: productName}
		adjustments = append(adjustments, a)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock adjustment rows: %v", ErrDatabaseError, err)
	}
	return adjustments, totalCount, nil
}

// GetStockAdjustmentStats counts adjustments per type. Totals include only adjustments that moved stock.
func (r *stockAdjustmentRepository) GetStockAdjustmentStats(ctx context.Context) (*models.StockAdjustmentStats, error) {
	stats := &models.StockAdjustmentStats{}
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*),
	        COUNT(*) FILTER (WHERE adjustment_type = 'in'),
	        COUNT(*) FILTER (WHERE adjustment_type = 'out'),
	        COUNT(*) FILTER (WHERE adjustment_type = 'adjust'),
	        COALESCE(SUM(quantity) FILTER (WHERE adjustment_type = 'in' AND stock_applied), 0),
	        COALESCE(SUM(quantity) FILTER (WHERE adjustment_type = 'out' AND stock_applied), 0)
	      FROM stock_adjustments`).Scan(
		&stats.TotalAdjustments, &stats.StockInCount, &stats.StockOutCount, &stats.AdjustmentCount,
		&stats.TotalStockIn, &stats.TotalStockOut,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: getting stock adjustment stats: %v", ErrDatabaseError, err)
	}
	stats.NetChange = stats.TotalStockIn.Sub(stats.TotalStockOut)
	return stats, nil
}
