package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"door_shop_backend/internal/models"
)

// PaymentRepository defines the interface for payment database operations.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, executor SQLExecutor, payment *models.Payment) (int64, error)
	GetPaymentsBySale(ctx context.Context, saleID int64) ([]models.Payment, error)
}

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository.
func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreatePayment(ctx context.Context, executor SQLExecutor, payment *models.Payment) (int64, error) {
	query := `INSERT INTO payments (sale_id, amount, payment_method, payment_date, reference, notes, recorded_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	if payment.PaymentDate.IsZero() {
		payment.PaymentDate = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		payment.SaleID, payment.Amount, payment.PaymentMethod, payment.PaymentDate,
		payment.Reference, payment.Notes, payment.RecordedBy,
	).Scan(&payment.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating payment")
	}
	return payment.ID, nil
}

func (r *paymentRepository) GetPaymentsBySale(ctx context.Context, saleID int64) ([]models.Payment, error) {
	payments := []models.Payment{}
	rows, err := r.db.QueryContext(ctx, `SELECT id, sale_id, amount, payment_method, payment_date, reference, notes, recorded_by
	      FROM payments WHERE sale_id = $1 ORDER BY payment_date ASC, id ASC`, saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying payments of sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.SaleID, &p.Amount, &p.PaymentMethod, &p.PaymentDate, &p.Reference, &p.Notes, &p.RecordedBy); err != nil {
			return nil, fmt.Errorf("%w: scanning payment: %v", ErrDatabaseError, err)
		}
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payment rows: %v", ErrDatabaseError, err)
	}
	return payments, nil
}
