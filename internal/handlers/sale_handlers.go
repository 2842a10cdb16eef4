package handlers

import (
	"net/http"
	"strings"
	"time"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/services"
	"door_shop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SaleHandler serves sale settlement, sale reads and payments.
type SaleHandler struct {
	saleService    services.SaleService
	paymentService services.PaymentService
	summaries      services.DailySummaryService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(ss services.SaleService, ps services.PaymentService, ds services.DailySummaryService) *SaleHandler {
	return &SaleHandler{saleService: ss, paymentService: ps, summaries: ds}
}

// CreateSale settles a sale. Both outcomes use the {success, ...} body the POS client reads.
func (h *SaleHandler) CreateSale(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	var req services.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogDebug("CreateSale: invalid payload", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Input validation failed: " + bindingDetails(err)})
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), req, userID)
	if err != nil {
		apiErr := apiErrorFor(err, "Failed to create sale.")
		if apiErr.StatusCode >= http.StatusInternalServerError {
			utils.LogError(err, "CreateSale")
		}
		c.JSON(apiErr.StatusCode, gin.H{"success": false, "error": apiErr.Message, "code": apiErr.Code})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"sale_id":      sale.ID,
		"grand_total":  sale.GrandTotal,
		"change_given": sale.ChangeGiven,
	})
}

// GetSales lists sales filtered by date and customer_id.
func (h *SaleHandler) GetSales(c *gin.Context) {
	var filters models.SaleFilters
	if !bindQuery(c, &filters, "GetSales") {
		return
	}
	filters.Page, filters.PageSize = pageParams(c)

	sales, total, err := h.saleService.ListSales(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetSales", "Failed to retrieve sales.")
		return
	}
	c.JSON(http.StatusOK, paged(sales, total, filters.Page, filters.PageSize))
}

func (h *SaleHandler) GetSaleByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sale, err := h.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetSaleByID", "Failed to retrieve sale.")
		return
	}
	c.JSON(http.StatusOK, sale)
}

// MarkReceiptPrinted flags the receipt as printed and returns the sale for printing.
func (h *SaleHandler) MarkReceiptPrinted(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sale, err := h.saleService.MarkReceiptPrinted(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "MarkReceiptPrinted", "Failed to mark receipt printed.")
		return
	}
	c.JSON(http.StatusOK, sale)
}

// GetDailySales returns the sales of ?date= (default today in the shop zone) with the summary.
func (h *SaleHandler) GetDailySales(c *gin.Context) {
	date, ok := h.dateValue(c, strings.TrimSpace(c.Query("date")))
	if !ok {
		return
	}
	daily, err := h.saleService.GetDailySales(c.Request.Context(), date)
	if err != nil {
		respondServiceError(c, err, "GetDailySales", "Failed to retrieve daily sales.")
		return
	}
	c.JSON(http.StatusOK, daily)
}

func (h *SaleHandler) RecordPayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := actorID(c)
	if !ok {
		return
	}
	var req services.RecordPaymentRequest
	if !bindJSON(c, &req, "RecordPayment") {
		return
	}
	payment, err := h.paymentService.RecordPayment(c.Request.Context(), id, req, userID)
	if err != nil {
		respondServiceError(c, err, "RecordPayment", "Failed to record payment.")
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *SaleHandler) GetPayments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	payments, err := h.paymentService.ListPayments(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetPayments", "Failed to retrieve payments.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payments})
}

// dateValue parses raw as a shop-zone date, or today when raw is empty.
func (h *SaleHandler) dateValue(c *gin.Context, raw string) (time.Time, bool) {
	loc := h.summaries.Location()
	if raw == "" {
		return time.Now().In(loc), true
	}
	date, err := utils.ParseDate(raw, loc)
	if err != nil {
		utils.RespondValidationFailed(c, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// DailySummaryHandler reads and rebuilds daily summaries.
type DailySummaryHandler struct {
	summaries services.DailySummaryService
}

// NewDailySummaryHandler creates a new DailySummaryHandler.
func NewDailySummaryHandler(ds services.DailySummaryService) *DailySummaryHandler {
	return &DailySummaryHandler{summaries: ds}
}

func (h *DailySummaryHandler) parseDate(c *gin.Context) (time.Time, bool) {
	date, err := utils.ParseDate(c.Param("date"), h.summaries.Location())
	if err != nil {
		utils.RespondValidationFailed(c, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// GetSummary returns the summary of :date, building it first when the date has none.
func (h *DailySummaryHandler) GetSummary(c *gin.Context) {
	date, ok := h.parseDate(c)
	if !ok {
		return
	}
	summary, err := h.summaries.GetOrRecompute(c.Request.Context(), date)
	if err != nil {
		respondServiceError(c, err, "GetSummary", "Failed to retrieve daily summary.")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *DailySummaryHandler) Recompute(c *gin.Context) {
	date, ok := h.parseDate(c)
	if !ok {
		return
	}
	summary, err := h.summaries.Recompute(c.Request.Context(), date)
	if err != nil {
		respondServiceError(c, err, "RecomputeSummary", "Failed to recompute daily summary.")
		return
	}
	utils.LogInfo("daily summary recomputed", map[string]interface{}{"date": c.Param("date"), "sale_count": summary.SaleCount})
	c.JSON(http.StatusOK, summary)
}
