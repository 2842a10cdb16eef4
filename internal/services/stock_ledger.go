package services

import (
	"context"
	"errors"
	"fmt"

	"door_shop_backend/internal/metrics"
	"door_shop_backend/internal/models"
	"door_shop_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// StockRef identifies what moved stock and who did it.
type StockRef struct {
	Source        models.StockSource
	ReferenceType string
	ReferenceID   int64
	ActorID       int64
}

// StockLedger is the single path through which current_stock changes.
type StockLedger interface {
	// ApplyDelta adds a signed quantity to a product's stock and records the movement.
	// It is a no-op returning (nil, nil) for untracked products and zero deltas.
	// A negative delta that would take stock below zero fails with *StockError.
	// product.CurrentStock is updated in place on success.
	ApplyDelta(ctx context.Context, executor repositories.SQLExecutor, product *models.Product, delta decimal.Decimal, ref StockRef) (*models.StockMovement, error)
}

type stockLedger struct {
	productRepo  repositories.ProductRepository
	movementRepo repositories.StockMovementRepository
	metrics      *metrics.Metrics
}

// NewStockLedger creates a new StockLedger.
func NewStockLedger(productRepo repositories.ProductRepository, movementRepo repositories.StockMovementRepository, m *metrics.Metrics) StockLedger {
	return &stockLedger{productRepo: productRepo, movementRepo: movementRepo, metrics: m}
}

func (l *stockLedger) ApplyDelta(ctx context.Context, executor repositories.SQLExecutor, product *models.Product, delta decimal.Decimal, ref StockRef) (*models.StockMovement, error) {
	if !product.TrackStock || delta.IsZero() {
		return nil, nil
	}

	var after decimal.Decimal
	var err error
	if delta.IsPositive() {
		after, err = l.productRepo.IncrementStock(ctx, executor, product.ID, delta)
	} else {
		after, err = l.productRepo.DecrementStock(ctx, executor, product.ID, delta.Neg())
	}
	if err != nil {
		if errors.Is(err, repositories.ErrStockConflict) {
			l.metrics.RecordStockRejection(string(ref.Source))
			return nil, &StockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.CurrentStock,
				Requested:   delta.Neg(),
			}
		}
		return nil, translateRepoError(err, "product", product.ID)
	}

	movement := &models.StockMovement{
		ProductID:       product.ID,
		Source:          ref.Source,
		QuantityChanged: delta,
		QuantityBefore:  after.Sub(delta),
		QuantityAfter:   after,
	}
	if ref.ReferenceType != "" {
		refType, refID := ref.ReferenceType, ref.ReferenceID
		movement.ReferenceType = &refType
		movement.ReferenceID = &refID
	}
	if ref.ActorID != 0 {
		actor := ref.ActorID
		movement.ActorID = &actor
	}
	if _, err := l.movementRepo.CreateMovement(ctx, executor, movement); err != nil {
		return nil, fmt.Errorf("recording stock movement for product %d: %w", product.ID, err)
	}

	product.CurrentStock = after
	l.metrics.RecordStockMovement(string(ref.Source))
	return movement, nil
}
