package services

import (
	"context"
	"database/sql"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/repositories"
	"door_shop_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// RecordPaymentRequest collects money against an existing sale.
type RecordPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"dpos"`
	PaymentMethod string          `json:"payment_method" binding:"required,payment_method"`
	Reference     string          `json:"reference"`
	Notes         string          `json:"notes"`
}

// PaymentService records and lists payments on sales.
type PaymentService interface {
	RecordPayment(ctx context.Context, saleID int64, req RecordPaymentRequest, actorID int64) (*models.Payment, error)
	ListPayments(ctx context.Context, saleID int64) ([]models.Payment, error)
}

type paymentService struct {
	db          *sql.DB
	paymentRepo repositories.PaymentRepository
	saleRepo    repositories.SaleRepository
}

// NewPaymentService creates a new instance of PaymentService.
func NewPaymentService(db *sql.DB, paymentRepo repositories.PaymentRepository, saleRepo repositories.SaleRepository) PaymentService {
	return &paymentService{db: db, paymentRepo: paymentRepo, saleRepo: saleRepo}
}

func (s *paymentService) RecordPayment(ctx context.Context, saleID int64, req RecordPaymentRequest, actorID int64) (*models.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, newValidationError("amount", "must be greater than zero")
	}
	if err := checkScales("", map[string]decimal.Decimal{"amount": req.Amount}); err != nil {
		return nil, err
	}
	if !models.IsValidPaymentMethod(req.PaymentMethod) {
		return nil, newValidationError("payment_method", "unknown payment method %q", req.PaymentMethod)
	}
	if _, err := s.saleRepo.GetSaleByID(ctx, nil, saleID); err != nil {
		return nil, translateRepoError(err, "sale", saleID)
	}

	payment := &models.Payment{
		SaleID:        saleID,
		Amount:        req.Amount,
		PaymentMethod: models.PaymentMethod(req.PaymentMethod),
		Reference:     req.Reference,
		Notes:         req.Notes,
		RecordedBy:    actorID,
	}
	if _, err := s.paymentRepo.CreatePayment(ctx, s.db, payment); err != nil {
		return nil, translateRepoError(err, "payment", 0)
	}
	utils.LogInfo("payment recorded", map[string]interface{}{
		"sale_id": saleID, "payment_id": payment.ID, "amount": payment.Amount.String(), "actor_id": actorID,
	})
	return payment, nil
}

func (s *paymentService) ListPayments(ctx context.Context, saleID int64) ([]models.Payment, error) {
	if _, err := s.saleRepo.GetSaleByID(ctx, nil, saleID); err != nil {
		return nil, translateRepoError(err, "sale", saleID)
	}
	return s.paymentRepo.GetPaymentsBySale(ctx, saleID)
}
