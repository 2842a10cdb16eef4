package handlers

import (
	"net/http"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/services"
	"door_shop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StockHandler serves manual adjustments and the stock movement ledger.
type StockHandler struct {
	adjustmentService services.AdjustmentService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(as services.AdjustmentService) *StockHandler {
	return &StockHandler{adjustmentService: as}
}

func (h *StockHandler) CreateAdjustment(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	var req services.CreateAdjustmentRequest
	if !bindJSON(c, &req, "CreateAdjustment") {
		return
	}
	adjustment, err := h.adjustmentService.CreateAdjustment(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, err, "CreateAdjustment", "Failed to create stock adjustment.")
		return
	}
	c.JSON(http.StatusCreated, adjustment)
}

func (h *StockHandler) GetAdjustments(c *gin.Context) {
	var productID *int64
	if raw := c.Query("product_id"); raw != "" {
		id, err := utils.StrToInt64(raw)
		if err != nil || id <= 0 {
			utils.RespondValidationFailed(c, "product_id must be a positive integer")
			return
		}
		productID = &id
	}
	page, pageSize := pageParams(c)

	list, err := h.adjustmentService.ListAdjustments(c.Request.Context(), productID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetAdjustments", "Failed to retrieve stock adjustments.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      list.Adjustments,
		"total":     list.TotalCount,
		"stats":     list.Stats,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetMovements lists ledger rows filtered by product_id, source and date range.
func (h *StockHandler) GetMovements(c *gin.Context) {
	var filters models.StockMovementFilters
	if !bindQuery(c, &filters, "GetMovements") {
		return
	}
	filters.Page, filters.PageSize = pageParams(c)

	movements, total, err := h.adjustmentService.ListMovements(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetMovements", "Failed to retrieve stock movements.")
		return
	}
	c.JSON(http.StatusOK, paged(movements, total, filters.Page, filters.PageSize))
}
