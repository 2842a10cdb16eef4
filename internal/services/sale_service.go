package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"door_shop_backend/internal/metrics"
	"door_shop_backend/internal/models"
	"door_shop_backend/internal/repositories"
	"door_shop_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Data Transfer Objects (DTOs) ---

// CreateSaleItemRequest is one POS line.
type CreateSaleItemRequest struct {
	ProductID int64           `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"dpos"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"dnonneg"`
}

// CreateSaleRequest is the sale settlement payload. An empty payment method means cash.
type CreateSaleRequest struct {
	CustomerID      *int64                  `json:"customer_id"`
	Items           []CreateSaleItemRequest `json:"items" binding:"required,min=1,dive"`
	DiscountAmount  decimal.Decimal         `json:"discount_amount" binding:"dnonneg"`
	TaxAmount       decimal.Decimal         `json:"tax_amount" binding:"dnonneg"`
	PaymentMethod   string                  `json:"payment_method" binding:"omitempty,payment_method"`
	PaymentReceived decimal.Decimal         `json:"payment_received" binding:"dnonneg"`
	Notes           string                  `json:"notes"`
}

// SaleService settles and reads sales.
type SaleService interface {
	// CreateSale settles a sale in one transaction: stock check, header, lines, stock decrement, daily summary.
	CreateSale(ctx context.Context, req CreateSaleRequest, actorID int64) (*models.Sale, error)
	GetSale(ctx context.Context, id int64) (*models.Sale, error)
	ListSales(ctx context.Context, filters models.SaleFilters) ([]models.Sale, int, error)
	// GetDailySales returns the sales of one date with its summary.
	GetDailySales(ctx context.Context, date time.Time) (*models.DailySales, error)
	MarkReceiptPrinted(ctx context.Context, id int64) (*models.Sale, error)
}

type saleService struct {
	db           *sql.DB
	saleRepo     repositories.SaleRepository
	productRepo  repositories.ProductRepository
	customerRepo repositories.CustomerRepository
	ledger       StockLedger
	costing      CostingStrategy
	summaries    DailySummaryService
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewSaleService creates a new instance of SaleService.
func NewSaleService(
	db *sql.DB,
	saleRepo repositories.SaleRepository,
	productRepo repositories.ProductRepository,
	customerRepo repositories.CustomerRepository,
	ledger StockLedger,
	costing CostingStrategy,
	summaries DailySummaryService,
	m *metrics.Metrics,
) SaleService {
	return &saleService{
		db:           db,
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		ledger:       ledger,
		costing:      costing,
		summaries:    summaries,
		metrics:      m,
		now:          time.Now,
	}
}

func validateSaleRequest(req *CreateSaleRequest) error {
	if len(req.Items) == 0 {
		return newValidationError("items", "a sale needs at least one item")
	}
	for i, item := range req.Items {
		if item.ProductID <= 0 {
			return newValidationError(fmt.Sprintf("items[%d].product_id", i), "is required")
		}
		if !item.Quantity.IsPositive() {
			return newValidationError(fmt.Sprintf("items[%d].quantity", i), "must be greater than zero")
		}
		if item.UnitPrice.IsNegative() {
			return newValidationError(fmt.Sprintf("items[%d].unit_price", i), "must not be negative")
		}
		if err := checkScales(fmt.Sprintf("items[%d].", i), map[string]decimal.Decimal{
			"quantity": item.Quantity, "unit_price": item.UnitPrice,
		}); err != nil {
			return err
		}
	}
	if err := checkScales("", map[string]decimal.Decimal{
		"discount_amount": req.DiscountAmount, "tax_amount": req.TaxAmount, "payment_received": req.PaymentReceived,
	}); err != nil {
		return err
	}
	if req.DiscountAmount.IsNegative() {
		return newValidationError("discount_amount", "must not be negative")
	}
	if req.TaxAmount.IsNegative() {
		return newValidationError("tax_amount", "must not be negative")
	}
	if req.PaymentReceived.IsNegative() {
		return newValidationError("payment_received", "must not be negative")
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = string(models.PaymentCash)
	}
	if !models.IsValidPaymentMethod(req.PaymentMethod) {
		return newValidationError("payment_method", "unknown payment method %q", req.PaymentMethod)
	}
	return nil
}

// lockSaleProducts locks every referenced product in id order and checks the summed
// quantity of each tracked product against its stock before anything is written.
func (s *saleService) lockSaleProducts(ctx context.Context, tx *sql.Tx, items []CreateSaleItemRequest) (map[int64]*models.Product, error) {
	required := make(map[int64]decimal.Decimal, len(items))
	for _, item := range items {
		required[item.ProductID] = required[item.ProductID].Add(item.Quantity)
	}
	ids := make([]int64, 0, len(required))
	for id := range required {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products := make(map[int64]*models.Product, len(ids))
	for _, id := range ids {
		product, err := s.productRepo.GetProductForUpdate(ctx, tx, id)
		if err != nil {
			return nil, translateRepoError(err, "product", id)
		}
		if !product.HasStockFor(required[id]) {
			s.metrics.RecordStockRejection(string(models.StockSourceSale))
			return nil, &StockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.CurrentStock,
				Requested:   required[id],
			}
		}
		products[id] = product
	}
	return products, nil
}

func (s *saleService) CreateSale(ctx context.Context, req CreateSaleRequest, actorID int64) (*models.Sale, error) {
	if err := validateSaleRequest(&req); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if req.CustomerID != nil {
		if _, err := s.customerRepo.GetCustomerByID(ctx, tx, *req.CustomerID); err != nil {
			return nil, translateRepoError(err, "customer", *req.CustomerID)
		}
	}

	products, err := s.lockSaleProducts(ctx, tx, req.Items)
	if err != nil {
		return nil, err
	}

	sale := &models.Sale{
		CustomerID:      req.CustomerID,
		SalePersonID:    actorID,
		SaleDate:        s.now(),
		DiscountAmount:  req.DiscountAmount,
		TaxAmount:       req.TaxAmount,
		PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
		PaymentReceived: req.PaymentReceived,
		Notes:           req.Notes,
	}
	if _, err := s.saleRepo.CreateSale(ctx, tx, sale); err != nil {
		return nil, translateRepoError(err, "sale", 0)
	}

	for _, line := range req.Items {
		product := products[line.ProductID]

		unitCost, err := s.costing.OnSale(ctx, tx, product, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("costing sale line for product %d: %w", product.ID, err)
		}
		item := models.SaleItem{
			SaleID:    sale.ID,
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			UnitCost:  unitCost,
		}
		if _, err := s.saleRepo.CreateSaleItem(ctx, tx, &item); err != nil {
			return nil, translateRepoError(err, "sale item", 0)
		}
		item.Product = product
		sale.Items = append(sale.Items, item)

		sale.RecalculateFromItems()
		if err := s.saleRepo.UpdateSaleTotals(ctx, tx, sale); err != nil {
			return nil, translateRepoError(err, "sale", sale.ID)
		}

		if _, err := s.ledger.ApplyDelta(ctx, tx, product, line.Quantity.Neg(), StockRef{
			Source:        models.StockSourceSale,
			ReferenceType: "sale",
			ReferenceID:   sale.ID,
			ActorID:       actorID,
		}); err != nil {
			return nil, err
		}
	}

	if _, err := s.summaries.RecomputeTx(ctx, tx, sale.SaleDate); err != nil {
		return nil, fmt.Errorf("recomputing daily summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}

	s.metrics.RecordSale(string(sale.PaymentMethod), sale.GrandTotal.InexactFloat64())
	utils.LogInfo("sale settled", map[string]interface{}{
		"sale_id": sale.ID, "items": len(sale.Items), "grand_total": sale.GrandTotal.String(),
		"payment_method": sale.PaymentMethod, "actor_id": actorID,
	})
	return sale, nil
}

func (s *saleService) GetSale(ctx context.Context, id int64) (*models.Sale, error) {
	sale, err := s.saleRepo.GetSaleByID(ctx, nil, id)
	if err != nil {
		return nil, translateRepoError(err, "sale", id)
	}
	items, err := s.saleRepo.GetSaleItems(ctx, id)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, filters models.SaleFilters) ([]models.Sale, int, error) {
	var from, to *time.Time
	if filters.Date != nil && *filters.Date != "" {
		day, err := utils.ParseDate(*filters.Date, s.summaries.Location())
		if err != nil {
			return nil, 0, newValidationError("date", "expected YYYY-MM-DD")
		}
		start, end := s.summaries.DayBounds(day)
		from, to = &start, &end
	}
	return s.saleRepo.GetSales(ctx, filters.CustomerID, from, to, filters.Page, filters.PageSize)
}

func (s *saleService) GetDailySales(ctx context.Context, date time.Time) (*models.DailySales, error) {
	start, end := s.summaries.DayBounds(date)
	sales, _, err := s.saleRepo.GetSales(ctx, nil, &start, &end, 0, 0)
	if err != nil {
		return nil, err
	}
	summary, err := s.summaries.GetOrRecompute(ctx, start)
	if err != nil {
		return nil, err
	}
	return &models.DailySales{Date: start.Format(utils.DateLayout), Sales: sales, Summary: summary}, nil
}

func (s *saleService) MarkReceiptPrinted(ctx context.Context, id int64) (*models.Sale, error) {
	if err := s.saleRepo.MarkReceiptPrinted(ctx, s.db, id); err != nil {
		return nil, translateRepoError(err, "sale", id)
	}
	return s.GetSale(ctx, id)
}
