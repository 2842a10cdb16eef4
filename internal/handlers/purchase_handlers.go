package handlers

import (
	"net/http"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/services"
	"door_shop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PurchaseHandler serves purchase orders and their receipt.
type PurchaseHandler struct {
	purchaseService services.PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(ps services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: ps}
}

func (h *PurchaseHandler) CreatePurchaseOrder(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	var req services.CreatePurchaseOrderRequest
	if !bindJSON(c, &req, "CreatePurchaseOrder") {
		return
	}
	order, err := h.purchaseService.CreatePurchaseOrder(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, err, "CreatePurchaseOrder", "Failed to create purchase order.")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetPurchaseOrders lists orders filtered by status and supplier_id, with stats.
func (h *PurchaseHandler) GetPurchaseOrders(c *gin.Context) {
	var filters models.PurchaseOrderFilters
	if !bindQuery(c, &filters, "GetPurchaseOrders") {
		return
	}
	if filters.Status != nil && !models.IsValidPurchaseOrderStatus(*filters.Status) {
		utils.RespondValidationFailed(c, "status must be one of pending, received, cancelled")
		return
	}
	filters.Page, filters.PageSize = pageParams(c)

	list, err := h.purchaseService.ListPurchaseOrders(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetPurchaseOrders", "Failed to retrieve purchase orders.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      list.Orders,
		"total":     list.TotalCount,
		"stats":     list.Stats,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

func (h *PurchaseHandler) GetPurchaseOrderByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := h.purchaseService.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetPurchaseOrderByID", "Failed to retrieve purchase order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *PurchaseHandler) AddItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := actorID(c)
	if !ok {
		return
	}
	var req services.PurchaseItemRequest
	if !bindJSON(c, &req, "AddItem") {
		return
	}
	order, err := h.purchaseService.AddItem(c.Request.Context(), id, req, userID)
	if err != nil {
		respondServiceError(c, err, "AddItem", "Failed to add purchase item.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *PurchaseHandler) RemoveItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}
	userID, ok := actorID(c)
	if !ok {
		return
	}
	order, err := h.purchaseService.RemoveItem(c.Request.Context(), id, itemID, userID)
	if err != nil {
		respondServiceError(c, err, "RemoveItem", "Failed to remove purchase item.")
		return
	}
	c.JSON(http.StatusOK, order)
}

// ReceiveOrder books a pending order into stock.
func (h *PurchaseHandler) ReceiveOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := actorID(c)
	if !ok {
		return
	}
	order, err := h.purchaseService.ReceiveOrder(c.Request.Context(), id, userID)
	if err != nil {
		respondServiceError(c, err, "ReceiveOrder", "Failed to receive purchase order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *PurchaseHandler) CancelOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := actorID(c)
	if !ok {
		return
	}
	order, err := h.purchaseService.CancelOrder(c.Request.Context(), id, userID)
	if err != nil {
		respondServiceError(c, err, "CancelOrder", "Failed to cancel purchase order.")
		return
	}
	c.JSON(http.StatusOK, order)
}
