package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"door_shop_backend/internal/models"
)

// StockMovementRepository defines the interface for stock movement ledger rows.
type StockMovementRepository interface {
	CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.StockMovement) (int64, error)
	GetMovements(ctx context.Context, filters models.StockMovementFilters, from, to *time.Time) ([]models.StockMovement, int, error)
}

type stockMovementRepository struct {
	db *sql.DB
}

// NewStockMovementRepository creates a new instance of StockMovementRepository.
func NewStockMovementRepository(db *sql.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.StockMovement) (int64, error) {
	query := `INSERT INTO stock_movements
	          (product_id, source, quantity_changed, quantity_before, quantity_after, reference_type, reference_id, actor_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}

	err := executor.QueryRowContext(ctx, query,
		movement.ProductID, movement.Source, movement.QuantityChanged, movement.QuantityBefore, movement.QuantityAfter,
		movement.ReferenceType, movement.ReferenceID, movement.ActorID, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating stock movement")
	}
	return movement.ID, nil
}

// GetMovements lists movements newest first. from/to bound created_at as [from, to).
func (r *stockMovementRepository) GetMovements(ctx context.Context, filters models.StockMovementFilters, from, to *time.Time) ([]models.StockMovement, int, error) {
	movements := []models.StockMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    sm.id, sm.product_id, sm.source, sm.quantity_changed, sm.quantity_before, sm.quantity_after,
	    sm.reference_type, sm.reference_id, sm.actor_id, sm.created_at,
	    p.name, p.track_stock,
	    COUNT(*) OVER() AS total_count
	  FROM stock_movements sm
	  JOIN products p ON sm.product_id = p.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("sm.product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.Source != nil && *filters.Source != "" {
		conditions = append(conditions, fmt.Sprintf("sm.source = $%d", argCount))
		args = append(args, *filters.Source)
		argCount++
	}
	if from != nil {
		conditions = append(conditions, fmt.Sprintf("sm.created_at >= $%d", argCount))
		args = append(args, *from)
		argCount++
	}
	if to != nil {
		conditions = append(conditions, fmt.Sprintf("sm.created_at < $%d", argCount))
		args = append(args, *to)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY sm.created_at DESC, sm.id DESC")

	query, args := paginate(queryBuilder.String(), args, filters.Page, filters.PageSize)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting stock movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var movement models.StockMovement
		product := &models.Product{}
		if err := rows.Scan(
			&movement.ID, &movement.ProductID, &movement.Source, &movement.QuantityChanged, &movement.QuantityBefore, &movement.QuantityAfter,
			&movement.ReferenceType, &movement.ReferenceID, &movement.ActorID, &movement.CreatedAt,
			&product.Name, &product.TrackStock,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning stock movement: %v", ErrDatabaseError, err)
		}
		product.ID = movement.ProductID
		movement.Product = product
		movements = append(movements, movement)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock movement rows: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}
