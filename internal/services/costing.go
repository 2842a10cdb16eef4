package services

import (
	"context"
	"fmt"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// CostingMethod selects how a product's cost_price follows received purchases.
type CostingMethod string

const (
	CostingLatest          CostingMethod = "latest"
	CostingWeightedAverage CostingMethod = "weighted_average"
	CostingFIFO            CostingMethod = "fifo"
)

// costScale matches the NUMERIC(12,2) cost columns.
const costScale = models.MoneyScale

// CostingStrategy keeps product cost in step with receipts and sales.
// Both hooks run inside the caller's transaction with the product row locked.
type CostingStrategy interface {
	Method() CostingMethod
	// OnReceipt runs before the received quantity is added to stock.
	OnReceipt(ctx context.Context, executor repositories.SQLExecutor, product *models.Product, item *models.PurchaseItem) error
	// OnSale runs before the sold quantity leaves stock and returns the unit cost to snapshot on the sale line.
	OnSale(ctx context.Context, executor repositories.SQLExecutor, product *models.Product, quantity decimal.Decimal) (decimal.Decimal, error)
}

// NewCostingStrategy builds the strategy for a configured method name.
func NewCostingStrategy(method string, productRepo repositories.ProductRepository, layerRepo repositories.CostLayerRepository) (CostingStrategy, error) {
	switch CostingMethod(method) {
	case CostingLatest, "":
		return &latestCost{productRepo: productRepo}, nil
	case CostingWeightedAverage:
		return &weightedAverageCost{productRepo: productRepo}, nil
	case CostingFIFO:
		return &fifoCost{productRepo: productRepo, layerRepo: layerRepo}, nil
	default:
		return nil, fmt.Errorf("unknown costing method %q", method)
	}
}

func setCost(ctx context.Context, executor repositories.SQLExecutor, repo repositories.ProductRepository, product *models.Product, cost decimal.Decimal) error {
	cost = cost.Round(costScale)
	if cost.Equal(product.CostPrice) {
		return nil
	}
	if err := repo.UpdateCostPrice(ctx, executor, product.ID, cost); err != nil {
		return translateRepoError(err, "product", product.ID)
	}
	product.CostPrice = cost
	return nil
}

// latestCost overwrites cost_price with the most recently received unit cost.
type latestCost struct {
	productRepo repositories.ProductRepository
}

func (c *latestCost) Method() CostingMethod { return CostingLatest }

func (c *latestCost) OnReceipt(ctx context.Context, executor repositories.SQLExecutor, product *models.Product, item *models.PurchaseItem) error {
	return setCost(ctx, executor, c.productRepo, product, item.UnitCost)
}

func (c *latestCost) OnSale(_ context.Context, _ repositories.SQLExecutor, product *models.Product, _ decimal.Decimal) (decimal.Decimal, error) {
	return product.CostPrice, nil
}

// weightedAverageCost blends the stock on hand with each receipt.
type weightedAverageCost struct {
	productRepo repositories.ProductRepository
}

func (c *weightedAverageCost) Method() CostingMethod { return CostingWeightedAverage }

func (c *weightedAverageCost) OnReceipt(ctx context.Context, executor repositories.SQLExecutor, product *models.Product, item *models.PurchaseItem) error {
	onHand := product.CurrentStock
	if !product.TrackStock || !onHand.IsPositive() {
		return setCost(ctx, executor, c.productRepo, product, item.UnitCost)
	}
	value := onHand.Mul(product.CostPrice).Add(item.Quantity.Mul(item.UnitCost))
	return setCost(ctx, executor, c.productRepo, product, value.Div(onHand.Add(item.Quantity)))
}

func (c *weightedAverageCost) OnSale(_ context.Context, _ repositories.SQLExecutor, product *models.Product, _ decimal.Decimal) (decimal.Decimal, error) {
	return product.CostPrice, nil
}

// fifoCost keeps one layer per receipt and consumes the oldest layers first.
// cost_price always shows the oldest open layer.
type fifoCost struct {
	productRepo repositories.ProductRepository
	layerRepo   repositories.CostLayerRepository
}

func (c *fifoCost) Method() CostingMethod { return CostingFIFO }

// openLayers returns the product's open layers, oldest first. Stock on hand that no
// layer covers (opening stock, adjustments, receipts from before FIFO) is first
// given its own layer at the current cost_price, queued behind the existing ones.
func (c *fifoCost) openLayers(ctx context.Context, executor repositories.SQLExecutor, product *models.Product) ([]models.CostLayer, error) {
	layers, err := c.layerRepo.GetOpenCostLayers(ctx, executor, product.ID)
	if err != nil {
		return nil, err
	}
	layered := decimal.Zero
	for _, l := range layers {
		layered = layered.Add(l.QuantityRemaining)
	}
	unlayered := product.CurrentStock.Sub(layered)
	if !unlayered.IsPositive() {
		return layers, nil
	}
	layer := models.CostLayer{
		ProductID:         product.ID,
		UnitCost:          product.CostPrice,
		QuantityReceived:  unlayered,
		QuantityRemaining: unlayered,
	}
	if _, err := c.layerRepo.CreateCostLayer(ctx, executor, &layer); err != nil {
		return nil, fmt.Errorf("layering on-hand stock of product %d: %w", product.ID, err)
	}
	return append(layers, layer), nil
}

func (c *fifoCost) OnReceipt(ctx context.Context, executor repositories.SQLExecutor, product *models.Product, item *models.PurchaseItem) error {
	if !product.TrackStock {
		return setCost(ctx, executor, c.productRepo, product, item.UnitCost)
	}
	layers, err := c.openLayers(ctx, executor, product)
	if err != nil {
		return err
	}
	layer := &models.CostLayer{
		ProductID:         product.ID,
		UnitCost:          item.UnitCost,
		QuantityReceived:  item.Quantity,
		QuantityRemaining: item.Quantity,
	}
	if item.ID != 0 {
		itemID := item.ID
		layer.PurchaseItemID = &itemID
	}
	if _, err := c.layerRepo.CreateCostLayer(ctx, executor, layer); err != nil {
		return fmt.Errorf("creating cost layer for product %d: %w", product.ID, err)
	}
	oldest := layer.UnitCost
	if len(layers) > 0 {
		oldest = layers[0].UnitCost
	}
	return setCost(ctx, executor, c.productRepo, product, oldest)
}

// OnSale consumes layers and returns the quantity-weighted cost of what was consumed.
// Quantity beyond every layer and the stock on hand is costed at the current cost_price.
func (c *fifoCost) OnSale(ctx context.Context, executor repositories.SQLExecutor, product *models.Product, quantity decimal.Decimal) (decimal.Decimal, error) {
	if !product.TrackStock || !quantity.IsPositive() {
		return product.CostPrice, nil
	}
	layers, err := c.openLayers(ctx, executor, product)
	if err != nil {
		return decimal.Zero, err
	}

	remaining := quantity
	consumedCost := decimal.Zero
	next := -1
	for i := range layers {
		if !remaining.IsPositive() {
			next = i
			break
		}
		take := decimal.Min(remaining, layers[i].QuantityRemaining)
		left := layers[i].QuantityRemaining.Sub(take)
		if err := c.layerRepo.UpdateCostLayerRemaining(ctx, executor, layers[i].ID, left); err != nil {
			return decimal.Zero, fmt.Errorf("consuming cost layer %d: %w", layers[i].ID, err)
		}
		consumedCost = consumedCost.Add(take.Mul(layers[i].UnitCost))
		remaining = remaining.Sub(take)
		if left.IsPositive() {
			next = i
			break
		}
	}
	if remaining.IsPositive() {
		consumedCost = consumedCost.Add(remaining.Mul(product.CostPrice))
	}
	unitCost := consumedCost.Div(quantity).Round(costScale)

	if next >= 0 {
		if err := setCost(ctx, executor, c.productRepo, product, layers[next].UnitCost); err != nil {
			return decimal.Zero, err
		}
	}
	return unitCost, nil
}
