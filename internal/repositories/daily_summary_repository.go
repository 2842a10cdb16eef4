package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"door_shop_backend/internal/models"
)

// DailySummaryRepository defines the interface for per-date sale aggregates.
type DailySummaryRepository interface {
	// LockDate takes a transaction-scoped advisory lock for one date so recomputes of that date run one at a time.
	LockDate(ctx context.Context, executor SQLExecutor, date time.Time) error
	// AggregateSales scans every sale with from <= sale_date < to. The returned summary has no ID or Date.
	AggregateSales(ctx context.Context, executor SQLExecutor, from, to time.Time, snapshotCost bool) (*models.DailySummary, error)
	UpsertDailySummary(ctx context.Context, executor SQLExecutor, summary *models.DailySummary) error
	GetDailySummaryByDate(ctx context.Context, date time.Time) (*models.DailySummary, error)
}

type dailySummaryRepository struct {
	db *sql.DB
}

// NewDailySummaryRepository creates a new instance of DailySummaryRepository.
func NewDailySummaryRepository(db *sql.DB) DailySummaryRepository {
	return &dailySummaryRepository{db: db}
}

const (
	profitCurrentCost  = `COALESCE(SUM(si.total_price - p.cost_price * si.quantity), 0)`
	profitSnapshotCost = `COALESCE(SUM(si.total_price - si.unit_cost * si.quantity), 0)`
)

func (r *dailySummaryRepository) LockDate(ctx context.Context, executor SQLExecutor, date time.Time) error {
	day := date.Format("2006-01-02")
	if _, err := executor.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('daily_summary:' || $1))`, day); err != nil {
		return fmt.Errorf("%w: locking daily summary for %s: %v", ErrDatabaseError, day, err)
	}
	return nil
}

func (r *dailySummaryRepository) AggregateSales(ctx context.Context, executor SQLExecutor, from, to time.Time, snapshotCost bool) (*models.DailySummary, error) {
	summary := &models.DailySummary{}
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*),
	        COALESCE(SUM(grand_total), 0),
	        COALESCE(SUM(grand_total) FILTER (WHERE payment_method = 'cash'), 0),
	        COALESCE(SUM(grand_total) FILTER (WHERE payment_method = 'card'), 0),
	        COALESCE(SUM(grand_total) FILTER (WHERE payment_method = 'mobile'), 0),
	        COALESCE(SUM(grand_total) FILTER (WHERE payment_method = 'due'), 0),
	        COALESCE(SUM(discount_amount), 0)
	      FROM sales
	      WHERE sale_date >= $1 AND sale_date < $2`, from, to).Scan(
		&summary.SaleCount, &summary.TotalSales,
		&summary.TotalCash, &summary.TotalCard, &summary.TotalMobile, &summary.TotalDue,
		&summary.TotalDiscount,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating sales: %v", ErrDatabaseError, err)
	}

	profitExpr := profitCurrentCost
	if snapshotCost {
		profitExpr = profitSnapshotCost
	}
	err = executor.QueryRowContext(ctx, `SELECT `+profitExpr+`
	      FROM sale_items si
	      JOIN sales s ON s.id = si.sale_id
	      JOIN products p ON p.id = si.product_id
	      WHERE s.sale_date >= $1 AND s.sale_date < $2`, from, to).Scan(&summary.TotalProfit)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregating profit: %v", ErrDatabaseError, err)
	}
	return summary, nil
}

// UpsertDailySummary writes the row for summary.Date, replacing every aggregate.
func (r *dailySummaryRepository) UpsertDailySummary(ctx context.Context, executor SQLExecutor, s *models.DailySummary) error {
	now := time.Now()
	err := executor.QueryRowContext(ctx, `INSERT INTO daily_summaries
	        (date, total_sales, total_cash, total_card, total_mobile, total_due, total_discount, total_profit, sale_count, created_at, updated_at)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	      ON CONFLICT (date) DO UPDATE SET
	        total_sales = EXCLUDED.total_sales,
	        total_cash = EXCLUDED.total_cash,
	        total_card = EXCLUDED.total_card,
	        total_mobile = EXCLUDED.total_mobile,
	        total_due = EXCLUDED.total_due,
	        total_discount = EXCLUDED.total_discount,
	        total_profit = EXCLUDED.total_profit,
	        sale_count = EXCLUDED.sale_count,
	        updated_at = EXCLUDED.updated_at
	      RETURNING id, created_at, updated_at`,
		s.Date.Format("2006-01-02"), s.TotalSales, s.TotalCash, s.TotalCard, s.TotalMobile, s.TotalDue,
		s.TotalDiscount, s.TotalProfit, s.SaleCount, now,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("upserting daily summary for %s", s.Date.Format("2006-01-02")))
	}
	return nil
}

func (r *dailySummaryRepository) GetDailySummaryByDate(ctx context.Context, date time.Time) (*models.DailySummary, error) {
	s := &models.DailySummary{}
	day := date.Format("2006-01-02")
	err := r.db.QueryRowContext(ctx, `SELECT id, date, total_sales, total_cash, total_card, total_mobile, total_due,
	        total_discount, total_profit, sale_count, created_at, updated_at
	      FROM daily_summaries WHERE date = $1`, day).Scan(
		&s.ID, &s.Date, &s.TotalSales, &s.TotalCash, &s.TotalCard, &s.TotalMobile, &s.TotalDue,
		&s.TotalDiscount, &s.TotalProfit, &s.SaleCount, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting daily summary for %s: %v", ErrDatabaseError, day, err)
	}
	return s, nil
}
