package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/repositories"
	"door_shop_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// AdjustPolicy decides what an "adjust" adjustment does to stock.
type AdjustPolicy string

// AdjustPolicyRecordOnly persists the adjustment without touching stock.
const AdjustPolicyRecordOnly AdjustPolicy = "record_only"

// CreateAdjustmentRequest is a manual stock correction.
type CreateAdjustmentRequest struct {
	ProductID      int64           `json:"product_id" binding:"required"`
	AdjustmentType string          `json:"adjustment_type" binding:"required,adjustment_type"`
	Quantity       decimal.Decimal `json:"quantity" binding:"dpos"`
	Reason         string          `json:"reason" binding:"required,max=200"`
	Notes          string          `json:"notes"`
}

// StockAdjustmentList is a page of adjustments with statistics over all of them.
type StockAdjustmentList struct {
	Adjustments []models.StockAdjustment     `json:"adjustments"`
	TotalCount  int                          `json:"total_count"`
	Stats       *models.StockAdjustmentStats `json:"stats"`
}

// AdjustmentService applies manual stock adjustments.
type AdjustmentService interface {
	// CreateAdjustment persists the adjustment and applies its stock effect atomically.
	// An "out" larger than the tracked stock fails with *StockError and persists nothing.
	CreateAdjustment(ctx context.Context, req CreateAdjustmentRequest, actorID int64) (*models.StockAdjustment, error)
	ListAdjustments(ctx context.Context, productID *int64, page, pageSize int) (*StockAdjustmentList, error)
	ListMovements(ctx context.Context, filters models.StockMovementFilters) ([]models.StockMovement, int, error)
}

type adjustmentService struct {
	db             *sql.DB
	adjustmentRepo repositories.StockAdjustmentRepository
	movementRepo   repositories.StockMovementRepository
	productRepo    repositories.ProductRepository
	ledger         StockLedger
	summaries      DailySummaryService
	policy         AdjustPolicy
}

// NewAdjustmentService creates a new instance of AdjustmentService.
func NewAdjustmentService(
	db *sql.DB,
	adjustmentRepo repositories.StockAdjustmentRepository,
	movementRepo repositories.StockMovementRepository,
	productRepo repositories.ProductRepository,
	ledger StockLedger,
	summaries DailySummaryService,
	policy AdjustPolicy,
) AdjustmentService {
	if policy == "" {
		policy = AdjustPolicyRecordOnly
	}
	return &adjustmentService{
		db:             db,
		adjustmentRepo: adjustmentRepo,
		movementRepo:   movementRepo,
		productRepo:    productRepo,
		ledger:         ledger,
		summaries:      summaries,
		policy:         policy,
	}
}

func (s *adjustmentService) CreateAdjustment(ctx context.Context, req CreateAdjustmentRequest, actorID int64) (*models.StockAdjustment, error) {
	if !models.IsValidAdjustmentType(req.AdjustmentType) {
		return nil, newValidationError("adjustment_type", "must be one of in, out, adjust")
	}
	if !req.Quantity.IsPositive() {
		return nil, newValidationError("quantity", "must be greater than zero")
	}
	if err := checkScales("", map[string]decimal.Decimal{"quantity": req.Quantity}); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, newValidationError("reason", "is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	product, err := s.productRepo.GetProductForUpdate(ctx, tx, req.ProductID)
	if err != nil {
		return nil, translateRepoError(err, "product", req.ProductID)
	}

	adjType := models.AdjustmentType(req.AdjustmentType)
	var delta decimal.Decimal
	switch adjType {
	case models.AdjustmentIn:
		delta = req.Quantity
	case models.AdjustmentOut:
		if !product.HasStockFor(req.Quantity) {
			return nil, &StockError{ProductID: product.ID, ProductName: product.Name, Available: product.CurrentStock, Requested: req.Quantity}
		}
		delta = req.Quantity.Neg()
	case models.AdjustmentAdjust:
		utils.LogWarn("adjust adjustment recorded without stock effect", map[string]interface{}{
			"product_id": product.ID, "quantity": req.Quantity.String(), "policy": s.policy,
		})
	}

	adjustment := &models.StockAdjustment{
		ProductID:      product.ID,
		AdjustmentType: adjType,
		Quantity:       req.Quantity,
		Reason:         strings.TrimSpace(req.Reason),
		Notes:          req.Notes,
		StockApplied:   product.TrackStock && !delta.IsZero(),
		CreatedBy:      actorID,
	}
	if _, err := s.adjustmentRepo.CreateStockAdjustment(ctx, tx, adjustment); err != nil {
		return nil, translateRepoError(err, "stock adjustment", 0)
	}

	source := models.StockSourceAdjustmentIn
	if delta.IsNegative() {
		source = models.StockSourceAdjustmentOut
	}
	if _, err := s.ledger.ApplyDelta(ctx, tx, product, delta, StockRef{
		Source:        source,
		ReferenceType: "stock_adjustment",
		ReferenceID:   adjustment.ID,
		ActorID:       actorID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}
	adjustment.Product = product
	utils.LogInfo("stock adjusted", map[string]interface{}{
		"adjustment_id": adjustment.ID, "product_id": product.ID, "type": adjType,
		"stock_applied": adjustment.StockApplied, "current_stock": product.CurrentStock.String(), "actor_id": actorID,
	})
	return adjustment, nil
}

func (s *adjustmentService) ListAdjustments(ctx context.Context, productID *int64, page, pageSize int) (*StockAdjustmentList, error) {
	adjustments, total, err := s.adjustmentRepo.GetStockAdjustments(ctx, productID, page, pageSize)
	if err != nil {
		return nil, err
	}
	stats, err := s.adjustmentRepo.GetStockAdjustmentStats(ctx)
	if err != nil {
		return nil, err
	}
	return &StockAdjustmentList{Adjustments: adjustments, TotalCount: total, Stats: stats}, nil
}

func (s *adjustmentService) ListMovements(ctx context.Context, filters models.StockMovementFilters) ([]models.StockMovement, int, error) {
	if filters.Source != nil && *filters.Source != "" && !isValidStockSource(*filters.Source) {
		return nil, 0, newValidationError("source", "unknown stock movement source %q", *filters.Source)
	}
	var from, to *time.Time
	if filters.StartDate != nil && *filters.StartDate != "" {
		day, err := utils.ParseDate(*filters.StartDate, s.summaries.Location())
		if err != nil {
			return nil, 0, newValidationError("start_date", "expected YYYY-MM-DD")
		}
		start, _ := s.summaries.DayBounds(day)
		from = &start
	}
	if filters.EndDate != nil && *filters.EndDate != "" {
		day, err := utils.ParseDate(*filters.EndDate, s.summaries.Location())
		if err != nil {
			return nil, 0, newValidationError("end_date", "expected YYYY-MM-DD")
		}
		_, end := s.summaries.DayBounds(day)
		to = &end
	}
	return s.movementRepo.GetMovements(ctx, filters, from, to)
}

func isValidStockSource(source string) bool {
	switch models.StockSource(source) {
	case models.StockSourcePurchaseReceipt, models.StockSourceSale, models.StockSourceAdjustmentIn, models.StockSourceAdjustmentOut:
		return true
	default:
		return false
	}
}
