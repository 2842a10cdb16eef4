package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"door_shop_backend/internal/models"

	"github.com/shopspring/decimal"
)

// CostLayerRepository stores the open purchase cost layers used by FIFO costing.
type CostLayerRepository interface {
	CreateCostLayer(ctx context.Context, executor SQLExecutor, layer *models.CostLayer) (int64, error)
	// GetOpenCostLayers returns layers with remaining quantity, oldest first, locked for update.
	GetOpenCostLayers(ctx context.Context, executor SQLExecutor, productID int64) ([]models.CostLayer, error)
	UpdateCostLayerRemaining(ctx context.Context, executor SQLExecutor, id int64, remaining decimal.Decimal) error
}

type costLayerRepository struct {
	db *sql.DB
}

// NewCostLayerRepository creates a new instance of CostLayerRepository.
func NewCostLayerRepository(db *sql.DB) CostLayerRepository {
	return &costLayerRepository{db: db}
}

func (r *costLayerRepository) CreateCostLayer(ctx context.Context, executor SQLExecutor, layer *models.CostLayer) (int64, error) {
	if layer.ReceivedAt.IsZero() {
		layer.ReceivedAt = time.Now()
	}
	err := executor.QueryRowContext(ctx, `INSERT INTO cost_layers
	        (product_id, purchase_item_id, unit_cost, quantity_received, quantity_remaining, received_at)
	      VALUES ($1, $2, $3, $4, $5, $6)
	      RETURNING id`,
		layer.ProductID, layer.PurchaseItemID, layer.UnitCost, layer.QuantityReceived, layer.QuantityRemaining, layer.ReceivedAt,
	).Scan(&layer.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating cost layer")
	}
	return layer.ID, nil
}

func (r *costLayerRepository) GetOpenCostLayers(ctx context.Context, executor SQLExecutor, productID int64) ([]models.CostLayer, error) {
	layers := []models.CostLayer{}
	rows, err := executor.QueryContext(ctx, `SELECT id, product_id, purchase_item_id, unit_cost, quantity_received, quantity_remaining, received_at
	      FROM cost_layers
	      WHERE product_id = $1 AND quantity_remaining > 0
	      ORDER BY received_at ASC, id ASC
	      FOR UPDATE`, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying cost layers of product ID %d: %v", ErrDatabaseError, productID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.CostLayer
		if err := rows.Scan(&l.ID, &l.ProductID, &l.PurchaseItemID, &l.UnitCost, &l.QuantityReceived, &l.QuantityRemaining, &l.ReceivedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning cost layer: %v", ErrDatabaseError, err)
		}
		layers = append(layers, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating cost layer rows: %v", ErrDatabaseError, err)
	}
	return layers, nil
}

func (r *costLayerRepository) UpdateCostLayerRemaining(ctx context.Context, executor SQLExecutor, id int64, remaining decimal.Decimal) error {
	result, err := executor.ExecContext(ctx, `UPDATE cost_layers SET quantity_remaining = $1 WHERE id = $2`, remaining, id)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("updating cost layer ID %d", id))
	}
	return checkRowsAffected(result, fmt.Sprintf("updating cost layer ID %d", id))
}
