package services

import (
	"context"
	"testing"
	"time"

	"door_shop_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) GetStockValuation(ctx context.Context, categoryID *int64) ([]models.StockValuationItem, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).([]models.StockValuationItem), args.Error(1)
}

func (m *MockReportRepository) GetLowStockProducts(ctx context.Context, limit int) ([]models.LowStockItem, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.LowStockItem), args.Error(1)
}

func (m *MockReportRepository) GetSalesTotals(ctx context.Context, from, to time.Time) (decimal.Decimal, decimal.Decimal, int, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Int(2), args.Error(3)
}

func (m *MockReportRepository) GetCostOfGoodsSold(ctx context.Context, from, to time.Time, snapshotCost bool) (decimal.Decimal, error) {
	args := m.Called(ctx, from, to, snapshotCost)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockReportRepository) GetPaymentMethodTotals(ctx context.Context, from, to time.Time) ([]models.PaymentMethodTotals, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]models.PaymentMethodTotals), args.Error(1)
}

func (m *MockReportRepository) GetDailySalesTotals(ctx context.Context, from, to time.Time, timezone string) ([]models.DailySalesPoint, error) {
	args := m.Called(ctx, from, to, timezone)
	return args.Get(0).([]models.DailySalesPoint), args.Error(1)
}

func (m *MockReportRepository) GetTopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.TopProduct, error) {
	args := m.Called(ctx, from, to, limit)
	return args.Get(0).([]models.TopProduct), args.Error(1)
}

func (m *MockReportRepository) GetCustomerSummaries(ctx context.Context) ([]models.CustomerReportItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.CustomerReportItem), args.Error(1)
}

func (m *MockReportRepository) GetSupplierSummaries(ctx context.Context) ([]models.SupplierReportItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.SupplierReportItem), args.Error(1)
}

func (m *MockReportRepository) GetEntityCounts(ctx context.Context) (*models.DashboardSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(*models.DashboardSummary), args.Error(1)
}

func newReportService(repo *MockReportRepository, basis ProfitCostBasis) *reportService {
	summaries := NewDailySummaryService(nil, newMemStore(), time.UTC, basis, nil)
	svc := NewReportService(repo, newMemStore(), summaries, basis).(*reportService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestReportService_ProfitLoss(t *testing.T) {
	repo := new(MockReportRepository)
	svc := newReportService(repo, ProfitCostSnapshot)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	repo.On("GetSalesTotals", mock.Anything, from, to).Return(dec("950"), dec("50"), 4, nil)
	repo.On("GetCostOfGoodsSold", mock.Anything, from, to, true).Return(dec("600"), nil)
	repo.On("GetPaymentMethodTotals", mock.Anything, from, to).Return([]models.PaymentMethodTotals{
		{PaymentMethod: models.PaymentCard, Count: 4, Total: dec("950")},
	}, nil)
	repo.On("GetTopProducts", mock.Anything, from, to, 0).Return([]models.TopProduct{
		{ProductID: 1, Revenue: dec("700")},
		{ProductID: 2, Revenue: dec("300")},
	}, nil)

	report, err := svc.ProfitLoss(context.Background(), models.ReportRequestParams{StartDate: "2024-03-01", EndDate: "2024-03-10"})
	require.NoError(t, err)
	repo.AssertExpectations(t)

	assert.Equal(t, "2024-03-01", report.StartDate)
	assert.True(t, dec("400").Equal(report.TotalProfit), report.TotalProfit.String())
	assert.True(t, dec("42.11").Equal(report.ProfitMargin), report.ProfitMargin.String())
	assert.Equal(t, 4, report.SaleCount)
	require.Len(t, report.ByMethod, 4)
	assert.Equal(t, models.PaymentCash, report.ByMethod[0].PaymentMethod)
	assert.True(t, report.ByMethod[0].Total.IsZero())
	assert.True(t, dec("950").Equal(report.ByMethod[1].Total))
}

func TestReportService_ProfitLossRejectsInvertedRange(t *testing.T) {
	svc := newReportService(new(MockReportRepository), ProfitCostCurrent)
	_, err := svc.ProfitLoss(context.Background(), models.ReportRequestParams{StartDate: "2024-03-10", EndDate: "2024-03-01"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ProfitLoss(context.Background(), models.ReportRequestParams{StartDate: "March"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReportService_SalesReportFillsEveryDay(t *testing.T) {
	repo := new(MockReportRepository)
	svc := newReportService(repo, ProfitCostCurrent)

	// Default range: the last 7 days up to today, inclusive.
	from := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	repo.On("GetDailySalesTotals", mock.Anything, from, to, "UTC").Return([]models.DailySalesPoint{
		{Date: "2024-03-09", Total: dec("100"), SaleCount: 1},
		{Date: "2024-03-15", Total: dec("250"), SaleCount: 2},
	}, nil)
	repo.On("GetTopProducts", mock.Anything, from, to, topProductsLimit).Return([]models.TopProduct{}, nil)

	report, err := svc.SalesReport(context.Background(), models.ReportRequestParams{})
	require.NoError(t, err)
	repo.AssertExpectations(t)

	assert.Len(t, report.Daily, 8)
	assert.Equal(t, "2024-03-08", report.Daily[0].Date)
	assert.True(t, report.Daily[0].Total.IsZero())
	assert.Equal(t, "2024-03-15", report.Daily[7].Date)
	assert.Equal(t, 3, report.SaleCount)
	assert.True(t, dec("350").Equal(report.TotalSales))
	assert.True(t, dec("116.67").Equal(report.AverageSale))
}

func TestReportService_StockAndLowStock(t *testing.T) {
	repo := new(MockReportRepository)
	svc := newReportService(repo, ProfitCostCurrent)

	repo.On("GetStockValuation", mock.Anything, (*int64)(nil)).Return([]models.StockValuationItem{
		{ProductID: 1, StockValue: dec("500"), IsLowStock: false},
		{ProductID: 2, StockValue: dec("20"), IsLowStock: true},
	}, nil)
	repo.On("GetLowStockProducts", mock.Anything, 0).Return([]models.LowStockItem{
		{ProductID: 2, RestockNeeded: dec("3"), RestockValue: dec("30")},
	}, nil)

	valuation, err := svc.StockValuation(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, dec("520").Equal(valuation.TotalValuation))
	assert.Equal(t, 2, valuation.ProductCount)
	assert.Equal(t, 1, valuation.LowStockCount)

	low, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, low.Count)
	assert.True(t, dec("30").Equal(low.TotalRestockValue))
}

func TestReportService_CustomerAndSupplierReports(t *testing.T) {
	repo := new(MockReportRepository)
	svc := newReportService(repo, ProfitCostCurrent)

	repo.On("GetCustomerSummaries", mock.Anything).Return([]models.CustomerReportItem{
		{CustomerID: 1, SaleCount: 2, TotalSpent: dec("300")},
		{CustomerID: 2, SaleCount: 1, TotalSpent: dec("100")},
		{CustomerID: 3},
	}, nil)
	repo.On("GetSupplierSummaries", mock.Anything).Return([]models.SupplierReportItem{
		{SupplierID: 1, OrderCount: 2, TotalPurchased: dec("900")},
		{SupplierID: 2},
	}, nil)

	customers, err := svc.CustomerReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, customers.TotalCustomers)
	assert.Equal(t, 2, customers.ActiveCustomers)
	assert.Len(t, customers.TopCustomers, 2)
	assert.True(t, dec("200").Equal(customers.AverageSpent))

	suppliers, err := svc.SupplierReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, suppliers.ActiveSuppliers)
	assert.True(t, dec("900").Equal(suppliers.TotalPurchaseValue))
}

func TestReportService_Dashboard(t *testing.T) {
	repo := new(MockReportRepository)
	svc := newReportService(repo, ProfitCostCurrent)

	from := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	repo.On("GetEntityCounts", mock.Anything).Return(&models.DashboardSummary{ProductCount: 12, PendingOrders: 1}, nil)
	repo.On("GetSalesTotals", mock.Anything, from, from.AddDate(0, 0, 1)).Return(dec("480"), decimal.Zero, 3, nil)
	repo.On("GetLowStockProducts", mock.Anything, dashboardLowStockLimit).Return([]models.LowStockItem{}, nil)

	dash, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	repo.AssertExpectations(t)
	assert.Equal(t, 12, dash.ProductCount)
	assert.Equal(t, 3, dash.TodaySaleCount)
	assert.True(t, dec("480").Equal(dash.TodaySalesTotal))
	assert.Empty(t, dash.RecentSales)
}
