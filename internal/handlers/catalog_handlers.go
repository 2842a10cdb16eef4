package handlers

import (
	"net/http"
	"strings"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/services"
	"door_shop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves categories and products.
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

// --- Categories ---

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req services.CategoryRequest
	if !bindJSON(c, &req, "CreateCategory") {
		return
	}
	category, err := h.catalogService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateCategory", "Failed to create category.")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CatalogHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetCategories", "Failed to retrieve categories.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories, "total": len(categories)})
}

func (h *CatalogHandler) GetCategoryByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	category, err := h.catalogService.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetCategoryByID", "Failed to retrieve category.")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.CategoryRequest
	if !bindJSON(c, &req, "UpdateCategory") {
		return
	}
	category, err := h.catalogService.UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateCategory", "Failed to update category.")
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategory refuses categories that still have products.
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DeleteCategory", "Failed to delete category.")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Products ---

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	var req services.ProductRequest
	if !bindJSON(c, &req, "CreateProduct") {
		return
	}
	product, err := h.catalogService.CreateProduct(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, err, "CreateProduct", "Failed to create product.")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts lists products filtered by q, category and product_type.
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	var filters models.ProductFilters
	if !bindQuery(c, &filters, "GetProducts") {
		return
	}
	filters.Page, filters.PageSize = pageParams(c)

	products, total, err := h.catalogService.ListProducts(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetProducts", "Failed to retrieve products.")
		return
	}
	c.JSON(http.StatusOK, paged(products, total, filters.Page, filters.PageSize))
}

// SearchProducts is the POS picker lookup over name, code and material.
func (h *CatalogHandler) SearchProducts(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		utils.RespondValidationFailed(c, "q is required")
		return
	}
	products, err := h.catalogService.QuickSearchProducts(c.Request.Context(), term)
	if err != nil {
		respondServiceError(c, err, "SearchProducts", "Failed to search products.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

func (h *CatalogHandler) GetProductByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetProductByID", "Failed to retrieve product.")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) GetProductStockInfo(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	info, err := h.catalogService.GetStockInfo(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetProductStockInfo", "Failed to retrieve stock info.")
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.ProductRequest
	if !bindJSON(c, &req, "UpdateProduct") {
		return
	}
	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateProduct", "Failed to update product.")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DeleteProduct", "Failed to delete product.")
		return
	}
	c.Status(http.StatusNoContent)
}
