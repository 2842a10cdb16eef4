package services

import (
	"context"
	"time"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/repositories"
	"door_shop_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

const (
	profitLossDefaultDays  = 30
	salesReportDefaultDays = 7
	topProductsLimit       = 10
	topCustomersLimit      = 10
	dashboardLowStockLimit = 5
	dashboardRecentSales   = 5
)

var hundred = decimal.NewFromInt(100)

// ReportService builds the read-only reports and the dashboard.
type ReportService interface {
	StockValuation(ctx context.Context, categoryID *int64) (*models.StockValuationReport, error)
	// ProfitLoss covers [start_date, end_date], defaulting to the last 30 days.
	ProfitLoss(ctx context.Context, params models.ReportRequestParams) (*models.ProfitLossReport, error)
	LowStock(ctx context.Context) (*models.LowStockReport, error)
	// SalesReport covers [start_date, end_date], defaulting to the last 7 days.
	SalesReport(ctx context.Context, params models.ReportRequestParams) (*models.SalesReport, error)
	CustomerReport(ctx context.Context) (*models.CustomerReport, error)
	SupplierReport(ctx context.Context) (*models.SupplierReport, error)
	Dashboard(ctx context.Context) (*models.DashboardSummary, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
	saleRepo   repositories.SaleRepository
	summaries  DailySummaryService
	costBasis  ProfitCostBasis
	now        func() time.Time
}

// NewReportService creates a new instance of ReportService.
func NewReportService(reportRepo repositories.ReportRepository, saleRepo repositories.SaleRepository, summaries DailySummaryService, basis ProfitCostBasis) ReportService {
	if basis == "" {
		basis = ProfitCostCurrent
	}
	return &reportService{reportRepo: reportRepo, saleRepo: saleRepo, summaries: summaries, costBasis: basis, now: time.Now}
}

// dateRange resolves the inclusive calendar range of params into [from, to) instants.
// Missing ends default to today and today minus defaultDays.
func (s *reportService) dateRange(params models.ReportRequestParams, defaultDays int) (startDay, endDay, from, to time.Time, err error) {
	loc := s.summaries.Location()
	today, _ := s.summaries.DayBounds(s.now())
	endDay = today
	if params.EndDate != "" {
		if endDay, err = utils.ParseDate(params.EndDate, loc); err != nil {
			return startDay, endDay, from, to, newValidationError("end_date", "expected YYYY-MM-DD")
		}
	}
	startDay = endDay.AddDate(0, 0, -defaultDays)
	if params.StartDate != "" {
		if startDay, err = utils.ParseDate(params.StartDate, loc); err != nil {
			return startDay, endDay, from, to, newValidationError("start_date", "expected YYYY-MM-DD")
		}
	}
	if startDay.After(endDay) {
		return startDay, endDay, from, to, newValidationError("start_date", "must not be after end_date")
	}
	from, _ = s.summaries.DayBounds(startDay)
	_, to = s.summaries.DayBounds(endDay)
	return startDay, endDay, from, to, nil
}

func (s *reportService) StockValuation(ctx context.Context, categoryID *int64) (*models.StockValuationReport, error) {
	items, err := s.reportRepo.GetStockValuation(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	report := &models.StockValuationReport{Items: items, TotalValuation: decimal.Zero, ProductCount: len(items), CategoryID: categoryID}
	for _, item := range items {
		report.TotalValuation = report.TotalValuation.Add(item.StockValue)
		if item.IsLowStock {
			report.LowStockCount++
		}
	}
	return report, nil
}

func (s *reportService) ProfitLoss(ctx context.Context, params models.ReportRequestParams) (*models.ProfitLossReport, error) {
	startDay, endDay, from, to, err := s.dateRange(params, profitLossDefaultDays)
	if err != nil {
		return nil, err
	}
	total, discount, count, err := s.reportRepo.GetSalesTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	cost, err := s.reportRepo.GetCostOfGoodsSold(ctx, from, to, s.costBasis == ProfitCostSnapshot)
	if err != nil {
		return nil, err
	}
	byMethod, err := s.reportRepo.GetPaymentMethodTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}

	// Profit is measured on line totals, so the sale-level discount shows up separately.
	lineTotal, err := s.lineRevenue(ctx, from, to)
	if err != nil {
		return nil, err
	}
	profit := lineTotal.Sub(cost)
	margin := decimal.Zero
	if total.IsPositive() {
		margin = profit.Div(total).Mul(hundred).Round(2)
	}
	return &models.ProfitLossReport{
		StartDate:     startDay.Format(utils.DateLayout),
		EndDate:       endDay.Format(utils.DateLayout),
		TotalSales:    total,
		TotalDiscount: discount,
		TotalCost:     cost,
		TotalProfit:   profit,
		ProfitMargin:  margin,
		SaleCount:     count,
		ByMethod:      completeMethodTotals(byMethod),
	}, nil
}

// lineRevenue sums sale line totals through the top-products aggregate with no limit.
func (s *reportService) lineRevenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	products, err := s.reportRepo.GetTopProducts(ctx, from, to, 0)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, p := range products {
		sum = sum.Add(p.Revenue)
	}
	return sum, nil
}

// completeMethodTotals returns one entry per payment method, in report order, with zeros for absent methods.
func completeMethodTotals(found []models.PaymentMethodTotals) []models.PaymentMethodTotals {
	byMethod := make(map[models.PaymentMethod]models.PaymentMethodTotals, len(found))
	for _, t := range found {
		byMethod[t.PaymentMethod] = t
	}
	out := make([]models.PaymentMethodTotals, 0, len(models.PaymentMethods))
	for _, m := range models.PaymentMethods {
		t, ok := byMethod[m]
		if !ok {
			t = models.PaymentMethodTotals{PaymentMethod: m, Total: decimal.Zero}
		}
		out = append(out, t)
	}
	return out
}

func (s *reportService) LowStock(ctx context.Context) (*models.LowStockReport, error) {
	items, err := s.reportRepo.GetLowStockProducts(ctx, 0)
	if err != nil {
		return nil, err
	}
	report := &models.LowStockReport{Items: items, TotalRestockValue: decimal.Zero, Count: len(items)}
	for _, item := range items {
		report.TotalRestockValue = report.TotalRestockValue.Add(item.RestockValue)
	}
	return report, nil
}

func (s *reportService) SalesReport(ctx context.Context, params models.ReportRequestParams) (*models.SalesReport, error) {
	startDay, endDay, from, to, err := s.dateRange(params, salesReportDefaultDays)
	if err != nil {
		return nil, err
	}
	points, err := s.reportRepo.GetDailySalesTotals(ctx, from, to, s.summaries.Location().String())
	if err != nil {
		return nil, err
	}
	top, err := s.reportRepo.GetTopProducts(ctx, from, to, topProductsLimit)
	if err != nil {
		return nil, err
	}

	found := make(map[string]models.DailySalesPoint, len(points))
	for _, p := range points {
		found[p.Date] = p
	}
	report := &models.SalesReport{
		StartDate:   startDay.Format(utils.DateLayout),
		EndDate:     endDay.Format(utils.DateLayout),
		TopProducts: top,
		TotalSales:  decimal.Zero,
		AverageSale: decimal.Zero,
	}
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		key := day.Format(utils.DateLayout)
		p, ok := found[key]
		if !ok {
			p = models.DailySalesPoint{Date: key, Total: decimal.Zero}
		}
		report.Daily = append(report.Daily, p)
		report.TotalSales = report.TotalSales.Add(p.Total)
		report.SaleCount += p.SaleCount
	}
	if report.SaleCount > 0 {
		report.AverageSale = report.TotalSales.Div(decimal.NewFromInt(int64(report.SaleCount))).Round(2)
	}
	return report, nil
}

func (s *reportService) CustomerReport(ctx context.Context) (*models.CustomerReport, error) {
	customers, err := s.reportRepo.GetCustomerSummaries(ctx)
	if err != nil {
		return nil, err
	}
	report := &models.CustomerReport{
		TotalCustomers: len(customers),
		TotalRevenue:   decimal.Zero,
		AverageSpent:   decimal.Zero,
		TopCustomers:   []models.CustomerReportItem{},
	}
	for _, c := range customers {
		report.TotalRevenue = report.TotalRevenue.Add(c.TotalSpent)
		if c.SaleCount > 0 {
			report.ActiveCustomers++
		}
		// Summaries arrive biggest spender first.
		if c.TotalSpent.IsPositive() && len(report.TopCustomers) < topCustomersLimit {
			report.TopCustomers = append(report.TopCustomers, c)
		}
	}
	if report.ActiveCustomers > 0 {
		report.AverageSpent = report.TotalRevenue.Div(decimal.NewFromInt(int64(report.ActiveCustomers))).Round(2)
	}
	return report, nil
}

func (s *reportService) SupplierReport(ctx context.Context) (*models.SupplierReport, error) {
	suppliers, err := s.reportRepo.GetSupplierSummaries(ctx)
	if err != nil {
		return nil, err
	}
	report := &models.SupplierReport{TotalSuppliers: len(suppliers), TotalPurchaseValue: decimal.Zero, Suppliers: suppliers}
	for _, sp := range suppliers {
		report.TotalPurchaseValue = report.TotalPurchaseValue.Add(sp.TotalPurchased)
		if sp.OrderCount > 0 {
			report.ActiveSuppliers++
		}
	}
	return report, nil
}

func (s *reportService) Dashboard(ctx context.Context) (*models.DashboardSummary, error) {
	summary, err := s.reportRepo.GetEntityCounts(ctx)
	if err != nil {
		return nil, err
	}
	from, to := s.summaries.DayBounds(s.now())
	summary.TodaySalesTotal, _, summary.TodaySaleCount, err = s.reportRepo.GetSalesTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if summary.LowStockAlerts, err = s.reportRepo.GetLowStockProducts(ctx, dashboardLowStockLimit); err != nil {
		return nil, err
	}
	if summary.RecentSales, _, err = s.saleRepo.GetSales(ctx, nil, nil, nil, 1, dashboardRecentSales); err != nil {
		return nil, err
	}
	return summary, nil
}
