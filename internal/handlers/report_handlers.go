package handlers

import (
	"net/http"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ReportHandler holds the report service.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

func (h *ReportHandler) params(c *gin.Context, where string) (models.ReportRequestParams, bool) {
	var params models.ReportRequestParams
	ok := bindQuery(c, &params, where)
	return params, ok
}

// GetStockValuation handles ?category_id=.
func (h *ReportHandler) GetStockValuation(c *gin.Context) {
	params, ok := h.params(c, "GetStockValuation")
	if !ok {
		return
	}
	report, err := h.reportService.StockValuation(c.Request.Context(), params.CategoryID)
	if err != nil {
		respondServiceError(c, err, "GetStockValuation", "Failed to generate stock valuation report.")
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetProfitLoss handles ?start_date=&end_date=.
func (h *ReportHandler) GetProfitLoss(c *gin.Context) {
	params, ok := h.params(c, "GetProfitLoss")
	if !ok {
		return
	}
	report, err := h.reportService.ProfitLoss(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err, "GetProfitLoss", "Failed to generate profit and loss report.")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetLowStock(c *gin.Context) {
	report, err := h.reportService.LowStock(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetLowStock", "Failed to generate low stock report.")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetSalesReport(c *gin.Context) {
	params, ok := h.params(c, "GetSalesReport")
	if !ok {
		return
	}
	report, err := h.reportService.SalesReport(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err, "GetSalesReport", "Failed to generate sales report.")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetCustomerReport(c *gin.Context) {
	report, err := h.reportService.CustomerReport(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetCustomerReport", "Failed to generate customer report.")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetSupplierReport(c *gin.Context) {
	report, err := h.reportService.SupplierReport(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetSupplierReport", "Failed to generate supplier report.")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetDashboard(c *gin.Context) {
	summary, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetDashboard", "Failed to generate dashboard summary.")
		return
	}
	c.JSON(http.StatusOK, summary)
}
