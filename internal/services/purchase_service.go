package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/repositories"
	"door_shop_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// PurchaseItemRequest is one product line of a purchase order.
type PurchaseItemRequest struct {
	ProductID int64           `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"dpos"`
	UnitCost  decimal.Decimal `json:"unit_cost" binding:"dnonneg"`
}

// CreatePurchaseOrderRequest opens a pending order, optionally with its first items.
type CreatePurchaseOrderRequest struct {
	SupplierID   int64                 `json:"supplier_id" binding:"required"`
	ExpectedDate *string               `json:"expected_date"` // YYYY-MM-DD
	Notes        *string               `json:"notes"`
	Items        []PurchaseItemRequest `json:"items" binding:"omitempty,dive"`
}

// PurchaseOrderList is a page of orders with listing statistics.
type PurchaseOrderList struct {
	Orders     []models.PurchaseOrder     `json:"orders"`
	TotalCount int                        `json:"total_count"`
	Stats      *models.PurchaseOrderStats `json:"stats"`
}

// PurchaseService manages purchase orders and their receipt into stock.
type PurchaseService interface {
	CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest, actorID int64) (*models.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, filters models.PurchaseOrderFilters) (*PurchaseOrderList, error)
	// AddItem and RemoveItem are allowed only while the order is pending.
	AddItem(ctx context.Context, orderID int64, req PurchaseItemRequest, actorID int64) (*models.PurchaseOrder, error)
	RemoveItem(ctx context.Context, orderID, itemID int64, actorID int64) (*models.PurchaseOrder, error)
	// ReceiveOrder moves a pending order to received, costing every item and adding it to stock.
	ReceiveOrder(ctx context.Context, orderID int64, actorID int64) (*models.PurchaseOrder, error)
	CancelOrder(ctx context.Context, orderID int64, actorID int64) (*models.PurchaseOrder, error)
}

type purchaseService struct {
	db           *sql.DB
	orderRepo    repositories.PurchaseOrderRepository
	productRepo  repositories.ProductRepository
	supplierRepo repositories.SupplierRepository
	ledger       StockLedger
	costing      CostingStrategy
	now          func() time.Time
}

// NewPurchaseService creates a new instance of PurchaseService.
func NewPurchaseService(
	db *sql.DB,
	orderRepo repositories.PurchaseOrderRepository,
	productRepo repositories.ProductRepository,
	supplierRepo repositories.SupplierRepository,
	ledger StockLedger,
	costing CostingStrategy,
) PurchaseService {
	return &purchaseService{
		db:           db,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		ledger:       ledger,
		costing:      costing,
		now:          time.Now,
	}
}

func validatePurchaseItem(field string, req PurchaseItemRequest) error {
	if req.ProductID <= 0 {
		return newValidationError(field+".product_id", "is required")
	}
	if !req.Quantity.IsPositive() {
		return newValidationError(field+".quantity", "must be greater than zero")
	}
	if req.UnitCost.IsNegative() {
		return newValidationError(field+".unit_cost", "must not be negative")
	}
	return checkScales(field+".", map[string]decimal.Decimal{"quantity": req.Quantity, "unit_cost": req.UnitCost})
}

func (s *purchaseService) CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest, actorID int64) (*models.PurchaseOrder, error) {
	for i, item := range req.Items {
		if err := validatePurchaseItem(fmt.Sprintf("items[%d]", i), item); err != nil {
			return nil, err
		}
	}
	order := &models.PurchaseOrder{
		SupplierID: req.SupplierID,
		Status:     models.PurchaseOrderPending,
		Notes:      req.Notes,
		OrderDate:  s.now(),
	}
	if req.ExpectedDate != nil && *req.ExpectedDate != "" {
		expected, err := utils.ParseDate(*req.ExpectedDate, time.UTC)
		if err != nil {
			return nil, newValidationError("expected_date", "expected YYYY-MM-DD")
		}
		order.ExpectedDate = &expected
	}

	if _, err := s.supplierRepo.GetSupplierByID(ctx, req.SupplierID); err != nil {
		return nil, translateRepoError(err, "supplier", req.SupplierID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.orderRepo.CreatePurchaseOrder(ctx, tx, order); err != nil {
		return nil, translateRepoError(err, "purchase order", 0)
	}
	for _, itemReq := range req.Items {
		if err := s.insertItem(ctx, tx, order.ID, itemReq); err != nil {
			return nil, err
		}
	}
	if err := s.refreshTotal(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase order: %w", err)
	}

	utils.LogInfo("purchase order created", map[string]interface{}{
		"purchase_order_id": order.ID, "supplier_id": order.SupplierID, "items": len(order.Items), "actor_id": actorID,
	})
	return s.GetPurchaseOrder(ctx, order.ID)
}

func (s *purchaseService) insertItem(ctx context.Context, tx *sql.Tx, orderID int64, req PurchaseItemRequest) error {
	if _, err := s.productRepo.GetProductByID(ctx, tx, req.ProductID); err != nil {
		return translateRepoError(err, "product", req.ProductID)
	}
	item := &models.PurchaseItem{
		PurchaseOrderID: orderID,
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		UnitCost:        req.UnitCost,
	}
	if _, err := s.orderRepo.CreatePurchaseItem(ctx, tx, item); err != nil {
		return translateRepoError(err, "purchase item", 0)
	}
	return nil
}

// refreshTotal reloads the items of order and stores their summed total.
func (s *purchaseService) refreshTotal(ctx context.Context, tx *sql.Tx, order *models.PurchaseOrder) error {
	items, err := s.orderRepo.GetPurchaseItems(ctx, tx, order.ID)
	if err != nil {
		return err
	}
	order.Items = items
	order.RecalculateTotal()
	if err := s.orderRepo.UpdatePurchaseOrderTotal(ctx, tx, order.ID, order.TotalAmount); err != nil {
		return translateRepoError(err, "purchase order", order.ID)
	}
	return nil
}

func (s *purchaseService) GetPurchaseOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	order, err := s.orderRepo.GetPurchaseOrderByID(ctx, nil, id)
	if err != nil {
		return nil, translateRepoError(err, "purchase order", id)
	}
	items, err := s.orderRepo.GetPurchaseItems(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (s *purchaseService) ListPurchaseOrders(ctx context.Context, filters models.PurchaseOrderFilters) (*PurchaseOrderList, error) {
	if filters.Status != nil && *filters.Status != "" && !models.IsValidPurchaseOrderStatus(*filters.Status) {
		return nil, newValidationError("status", "unknown purchase order status %q", *filters.Status)
	}
	orders, total, err := s.orderRepo.GetPurchaseOrders(ctx, filters)
	if err != nil {
		return nil, err
	}
	stats, err := s.orderRepo.GetPurchaseOrderStats(ctx)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderList{Orders: orders, TotalCount: total, Stats: stats}, nil
}

// lockPending locks the order row and fails with StateError unless it is pending.
func (s *purchaseService) lockPending(ctx context.Context, tx *sql.Tx, orderID int64, operation string) (*models.PurchaseOrder, error) {
	order, err := s.orderRepo.GetPurchaseOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, translateRepoError(err, "purchase order", orderID)
	}
	if !order.IsPending() {
		return nil, &StateError{Entity: "purchase order", ID: orderID, State: string(order.Status), Operation: operation}
	}
	return order, nil
}

func (s *purchaseService) AddItem(ctx context.Context, orderID int64, req PurchaseItemRequest, actorID int64) (*models.PurchaseOrder, error) {
	if err := validatePurchaseItem("item", req); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.lockPending(ctx, tx, orderID, "add items to")
	if err != nil {
		return nil, err
	}
	if err := s.insertItem(ctx, tx, orderID, req); err != nil {
		return nil, err
	}
	if err := s.refreshTotal(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase item: %w", err)
	}
	utils.LogDebug("purchase item added", map[string]interface{}{"purchase_order_id": orderID, "product_id": req.ProductID, "actor_id": actorID})
	return order, nil
}

func (s *purchaseService) RemoveItem(ctx context.Context, orderID, itemID int64, actorID int64) (*models.PurchaseOrder, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.lockPending(ctx, tx, orderID, "remove items from")
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.DeletePurchaseItem(ctx, tx, orderID, itemID); err != nil {
		return nil, translateRepoError(err, "purchase item", itemID)
	}
	if err := s.refreshTotal(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase item removal: %w", err)
	}
	utils.LogDebug("purchase item removed", map[string]interface{}{"purchase_order_id": orderID, "item_id": itemID, "actor_id": actorID})
	return order, nil
}

func (s *purchaseService) ReceiveOrder(ctx context.Context, orderID int64, actorID int64) (*models.PurchaseOrder, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.lockPending(ctx, tx, orderID, "receive")
	if err != nil {
		return nil, err
	}
	items, err := s.orderRepo.GetPurchaseItems(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	productIDs := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			productIDs = append(productIDs, item.ProductID)
		}
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })
	products := make(map[int64]*models.Product, len(productIDs))
	for _, id := range productIDs {
		product, err := s.productRepo.GetProductForUpdate(ctx, tx, id)
		if err != nil {
			return nil, translateRepoError(err, "product", id)
		}
		products[id] = product
	}

	for i := range items {
		item := &items[i]
		product := products[item.ProductID]
		if err := s.costing.OnReceipt(ctx, tx, product, item); err != nil {
			return nil, fmt.Errorf("costing purchase item %d: %w", item.ID, err)
		}
		if _, err := s.ledger.ApplyDelta(ctx, tx, product, item.Quantity, StockRef{
			Source:        models.StockSourcePurchaseReceipt,
			ReferenceType: "purchase_order",
			ReferenceID:   orderID,
			ActorID:       actorID,
		}); err != nil {
			return nil, err
		}
	}

	receivedAt := s.now()
	order.Status = models.PurchaseOrderReceived
	order.ReceivedAt = &receivedAt
	order.ReceivedBy = &actorID
	if err := s.orderRepo.UpdatePurchaseOrderStatus(ctx, tx, order); err != nil {
		return nil, translateRepoError(err, "purchase order", orderID)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase receipt: %w", err)
	}

	order.Items = items
	utils.LogInfo("purchase order received", map[string]interface{}{
		"purchase_order_id": orderID, "items": len(items), "costing": s.costing.Method(), "actor_id": actorID,
	})
	return order, nil
}

func (s *purchaseService) CancelOrder(ctx context.Context, orderID int64, actorID int64) (*models.PurchaseOrder, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order, err := s.lockPending(ctx, tx, orderID, "cancel")
	if err != nil {
		return nil, err
	}
	order.Status = models.PurchaseOrderCancelled
	if err := s.orderRepo.UpdatePurchaseOrderStatus(ctx, tx, order); err != nil {
		return nil, translateRepoError(err, "purchase order", orderID)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase order cancellation: %w", err)
	}
	utils.LogInfo("purchase order cancelled", map[string]interface{}{"purchase_order_id": orderID, "actor_id": actorID})
	return order, nil
}
