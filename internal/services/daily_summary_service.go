package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"door_shop_backend/internal/metrics"
	"door_shop_backend/internal/models"
	"door_shop_backend/internal/repositories"
	"door_shop_backend/pkg/utils"
)

// ProfitCostBasis selects which cost the profit aggregate subtracts.
type ProfitCostBasis string

const (
	// ProfitCostCurrent uses each product's cost_price at recompute time.
	ProfitCostCurrent ProfitCostBasis = "current"
	// ProfitCostSnapshot uses the unit cost stored on the sale line.
	ProfitCostSnapshot ProfitCostBasis = "snapshot"
)

// IsValidProfitCostBasis checks a configured basis name.
func IsValidProfitCostBasis(b string) bool {
	return b == string(ProfitCostCurrent) || b == string(ProfitCostSnapshot)
}

// DailySummaryService recomputes and reads per-date sale aggregates.
type DailySummaryService interface {
	// Recompute rebuilds the summary of date from every sale of that date in its own transaction.
	Recompute(ctx context.Context, date time.Time) (*models.DailySummary, error)
	// RecomputeTx does the same inside the caller's transaction.
	RecomputeTx(ctx context.Context, executor repositories.SQLExecutor, date time.Time) (*models.DailySummary, error)
	GetByDate(ctx context.Context, date time.Time) (*models.DailySummary, error)
	// GetOrRecompute returns the stored summary, creating it when the date has none yet.
	GetOrRecompute(ctx context.Context, date time.Time) (*models.DailySummary, error)
	// DayBounds returns [start, end) of the calendar date containing t in the shop time zone.
	DayBounds(t time.Time) (time.Time, time.Time)
	// Location is the shop time zone calendar dates are taken in.
	Location() *time.Location
}

type dailySummaryService struct {
	db          *sql.DB
	summaryRepo repositories.DailySummaryRepository
	location    *time.Location
	costBasis   ProfitCostBasis
	metrics     *metrics.Metrics
}

// NewDailySummaryService creates a new DailySummaryService. A nil location means UTC.
func NewDailySummaryService(db *sql.DB, summaryRepo repositories.DailySummaryRepository, loc *time.Location, basis ProfitCostBasis, m *metrics.Metrics) DailySummaryService {
	if loc == nil {
		loc = time.UTC
	}
	if basis == "" {
		basis = ProfitCostCurrent
	}
	return &dailySummaryService{db: db, summaryRepo: summaryRepo, location: loc, costBasis: basis, metrics: m}
}

func (s *dailySummaryService) DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(s.location)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.location)
	return start, start.AddDate(0, 0, 1)
}

func (s *dailySummaryService) Location() *time.Location { return s.location }

func (s *dailySummaryService) Recompute(ctx context.Context, date time.Time) (*models.DailySummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	summary, err := s.RecomputeTx(ctx, tx, date)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit daily summary: %w", err)
	}
	return summary, nil
}

func (s *dailySummaryService) RecomputeTx(ctx context.Context, executor repositories.SQLExecutor, date time.Time) (*models.DailySummary, error) {
	from, to := s.DayBounds(date)

	// Serialize with concurrent settlements of the same date so the rescan sees their committed sales.
	if err := s.summaryRepo.LockDate(ctx, executor, from); err != nil {
		return nil, err
	}
	summary, err := s.summaryRepo.AggregateSales(ctx, executor, from, to, s.costBasis == ProfitCostSnapshot)
	if err != nil {
		return nil, err
	}
	summary.Date = from
	if err := s.summaryRepo.UpsertDailySummary(ctx, executor, summary); err != nil {
		return nil, translateRepoError(err, "daily summary", 0)
	}

	s.metrics.RecordSummaryRecompute()
	utils.LogDebug("daily summary recomputed", map[string]interface{}{
		"date": from.Format(utils.DateLayout), "sale_count": summary.SaleCount, "total_sales": summary.TotalSales.String(),
	})
	return summary, nil
}

func (s *dailySummaryService) GetByDate(ctx context.Context, date time.Time) (*models.DailySummary, error) {
	from, _ := s.DayBounds(date)
	summary, err := s.summaryRepo.GetDailySummaryByDate(ctx, from)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Entity: "daily summary", Key: from.Format(utils.DateLayout)}
		}
		return nil, err
	}
	// The DATE column scans as UTC midnight; report it as the shop-zone day start, like Recompute.
	summary.Date = from
	return summary, nil
}

func (s *dailySummaryService) GetOrRecompute(ctx context.Context, date time.Time) (*models.DailySummary, error) {
	summary, err := s.GetByDate(ctx, date)
	if err == nil {
		return summary, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.Recompute(ctx, date)
}
