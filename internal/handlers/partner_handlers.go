package handlers

import (
	"net/http"

	"door_shop_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// SupplierHandler holds the supplier service.
type SupplierHandler struct {
	supplierService services.SupplierService
}

// NewSupplierHandler creates a new SupplierHandler.
func NewSupplierHandler(ss services.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: ss}
}

func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req services.SupplierRequest
	if !bindJSON(c, &req, "CreateSupplier") {
		return
	}
	supplier, err := h.supplierService.CreateSupplier(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateSupplier", "Failed to create supplier.")
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

// GetSuppliers handles fetching suppliers with pagination and search.
func (h *SupplierHandler) GetSuppliers(c *gin.Context) {
	page, pageSize := pageParams(c)
	suppliers, total, err := h.supplierService.ListSuppliers(c.Request.Context(), optionalQuery(c, "search"), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetSuppliers", "Failed to retrieve suppliers.")
		return
	}
	c.JSON(http.StatusOK, paged(suppliers, total, page, pageSize))
}

func (h *SupplierHandler) GetSupplierByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	supplier, err := h.supplierService.GetSupplier(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetSupplierByID", "Failed to retrieve supplier.")
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.SupplierRequest
	if !bindJSON(c, &req, "UpdateSupplier") {
		return
	}
	supplier, err := h.supplierService.UpdateSupplier(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateSupplier", "Failed to update supplier.")
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *SupplierHandler) DeleteSupplier(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.supplierService.DeleteSupplier(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DeleteSupplier", "Failed to delete supplier.")
		return
	}
	c.Status(http.StatusNoContent)
}

// CustomerHandler holds the customer service.
type CustomerHandler struct {
	customerService services.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(cs services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: cs}
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req services.CustomerRequest
	if !bindJSON(c, &req, "CreateCustomer") {
		return
	}
	customer, err := h.customerService.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateCustomer", "Failed to create customer.")
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	page, pageSize := pageParams(c)
	customers, total, err := h.customerService.ListCustomers(c.Request.Context(), optionalQuery(c, "search"), page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetCustomers", "Failed to retrieve customers.")
		return
	}
	c.JSON(http.StatusOK, paged(customers, total, page, pageSize))
}

func (h *CustomerHandler) GetCustomerByID(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetCustomerByID", "Failed to retrieve customer.")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// GetCustomerByPhone looks a customer up by phone in any formatting.
func (h *CustomerHandler) GetCustomerByPhone(c *gin.Context) {
	customer, err := h.customerService.GetByPhone(c.Request.Context(), c.Param("phone"))
	if err != nil {
		respondServiceError(c, err, "GetCustomerByPhone", "Failed to retrieve customer.")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// LookupOrCreate returns the customer for the phone, creating it on first sight.
func (h *CustomerHandler) LookupOrCreate(c *gin.Context) {
	var req services.LookupCustomerRequest
	if !bindJSON(c, &req, "LookupOrCreate") {
		return
	}
	customer, exists, err := h.customerService.LookupOrCreateByPhone(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "LookupOrCreate", "Failed to look up customer.")
		return
	}
	status := http.StatusCreated
	if exists {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"exists": exists, "customer": customer})
}

func (h *CustomerHandler) GetCustomerSales(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	history, err := h.customerService.GetSalesHistory(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetCustomerSales", "Failed to retrieve sales history.")
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.CustomerRequest
	if !bindJSON(c, &req, "UpdateCustomer") {
		return
	}
	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateCustomer", "Failed to update customer.")
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.customerService.DeleteCustomer(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DeleteCustomer", "Failed to delete customer.")
		return
	}
	c.Status(http.StatusNoContent)
}
