package router

import (
	"door_shop_backend/internal/handlers"
	"door_shop_backend/internal/middleware"
	"door_shop_backend/internal/models"

	"github.com/gin-gonic/gin"
)

var (
	adminOnly    = middleware.RoleAuthMiddleware(models.RoleAdmin)
	managersOnly = middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager)
	anyShopRole  = middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager, models.RoleCashier)
)

// SetupPublicAuthRoutes registers login. Nothing else is reachable without a token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.LoginUser)
}

// SetupAuthenticatedAuthRoutes registers the token-holder routes. Only admins create users.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
	group.POST("/logout", authHandler.LogoutUser)
	group.POST("/register", adminOnly, authHandler.RegisterUser)
}

// SetupCategoryRoutes sets up the category routes.
func SetupCategoryRoutes(authenticatedGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	categoryRoutes := authenticatedGroup.Group("/categories")
	categoryRoutes.Use(anyShopRole)
	{
		categoryRoutes.GET("", catalogHandler.GetCategories)
		categoryRoutes.GET("/:id", catalogHandler.GetCategoryByID)
		categoryRoutes.POST("", managersOnly, catalogHandler.CreateCategory)
		categoryRoutes.PUT("/:id", managersOnly, catalogHandler.UpdateCategory)
		categoryRoutes.DELETE("/:id", managersOnly, catalogHandler.DeleteCategory)
	}
}

// SetupProductRoutes sets up the product routes. Cashiers read, managers write.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	productRoutes := authenticatedGroup.Group("/products")
	productRoutes.Use(anyShopRole)
	{
		productRoutes.GET("", catalogHandler.GetProducts)
		productRoutes.GET("/search", catalogHandler.SearchProducts)
		productRoutes.GET("/:id", catalogHandler.GetProductByID)
		productRoutes.GET("/:id/stock-info", catalogHandler.GetProductStockInfo)
		productRoutes.POST("", managersOnly, catalogHandler.CreateProduct)
		productRoutes.PUT("/:id", managersOnly, catalogHandler.UpdateProduct)
		productRoutes.DELETE("/:id", managersOnly, catalogHandler.DeleteProduct)
	}
}

// SetupSupplierRoutes sets up the supplier routes.
func SetupSupplierRoutes(authenticatedGroup *gin.RouterGroup, supplierHandler *handlers.SupplierHandler) {
	supplierRoutes := authenticatedGroup.Group("/suppliers")
	supplierRoutes.Use(managersOnly)
	{
		supplierRoutes.POST("", supplierHandler.CreateSupplier)
		supplierRoutes.GET("", supplierHandler.GetSuppliers)
		supplierRoutes.GET("/:id", supplierHandler.GetSupplierByID)
		supplierRoutes.PUT("/:id", supplierHandler.UpdateSupplier)
		supplierRoutes.DELETE("/:id", supplierHandler.DeleteSupplier)
	}
}

// SetupCustomerRoutes sets up the customer routes.
func SetupCustomerRoutes(authenticatedGroup *gin.RouterGroup, customerHandler *handlers.CustomerHandler) {
	customerRoutes := authenticatedGroup.Group("/customers")
	customerRoutes.Use(anyShopRole)
	{
		customerRoutes.POST("", customerHandler.CreateCustomer)
		customerRoutes.GET("", customerHandler.GetCustomers)
		customerRoutes.POST("/lookup-or-create", customerHandler.LookupOrCreate)
		customerRoutes.GET("/by-phone/:phone", customerHandler.GetCustomerByPhone)
		customerRoutes.GET("/:id", customerHandler.GetCustomerByID)
		customerRoutes.GET("/:id/sales", customerHandler.GetCustomerSales)
		customerRoutes.PUT("/:id", customerHandler.UpdateCustomer)
		customerRoutes.DELETE("/:id", managersOnly, customerHandler.DeleteCustomer)
	}
}

// SetupPurchaseOrderRoutes sets up the purchase order routes.
func SetupPurchaseOrderRoutes(authenticatedGroup *gin.RouterGroup, purchaseHandler *handlers.PurchaseHandler) {
	orderRoutes := authenticatedGroup.Group("/purchase-orders")
	orderRoutes.Use(managersOnly)
	{
		orderRoutes.POST("", purchaseHandler.CreatePurchaseOrder)
		orderRoutes.GET("", purchaseHandler.GetPurchaseOrders)
		orderRoutes.GET("/:id", purchaseHandler.GetPurchaseOrderByID)
		orderRoutes.POST("/:id/items", purchaseHandler.AddItem)
		orderRoutes.DELETE("/:id/items/:itemId", purchaseHandler.RemoveItem)
		orderRoutes.POST("/:id/receive", purchaseHandler.ReceiveOrder)
		orderRoutes.POST("/:id/cancel", purchaseHandler.CancelOrder)
	}
}

// SetupStockRoutes sets up stock adjustments and the movement ledger.
func SetupStockRoutes(authenticatedGroup *gin.RouterGroup, stockHandler *handlers.StockHandler) {
	adjustmentRoutes := authenticatedGroup.Group("/stock-adjustments")
	adjustmentRoutes.Use(managersOnly)
	{
		adjustmentRoutes.POST("", stockHandler.CreateAdjustment)
		adjustmentRoutes.GET("", stockHandler.GetAdjustments)
	}
	authenticatedGroup.GET("/stock-movements", managersOnly, stockHandler.GetMovements)
}

// SetupSaleRoutes sets up the POS sale routes.
func SetupSaleRoutes(authenticatedGroup *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	saleRoutes := authenticatedGroup.Group("/sales")
	saleRoutes.Use(anyShopRole)
	{
		saleRoutes.POST("", saleHandler.CreateSale)
		saleRoutes.GET("", saleHandler.GetSales)
		saleRoutes.GET("/daily", saleHandler.GetDailySales)
		saleRoutes.GET("/:id", saleHandler.GetSaleByID)
		saleRoutes.POST("/:id/receipt", saleHandler.MarkReceiptPrinted)
		saleRoutes.POST("/:id/payments", saleHandler.RecordPayment)
		saleRoutes.GET("/:id/payments", saleHandler.GetPayments)
	}
}

// SetupDailySummaryRoutes sets up the daily summary routes.
func SetupDailySummaryRoutes(authenticatedGroup *gin.RouterGroup, summaryHandler *handlers.DailySummaryHandler) {
	summaryRoutes := authenticatedGroup.Group("/daily-summaries")
	summaryRoutes.Use(anyShopRole)
	{
		summaryRoutes.GET("/:date", summaryHandler.GetSummary)
		summaryRoutes.POST("/:date/recompute", managersOnly, summaryHandler.Recompute)
	}
}

// SetupReportRoutes sets up the report routes and the dashboard.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(managersOnly)
	{
		reportRoutes.GET("/stock-valuation", reportHandler.GetStockValuation)
		reportRoutes.GET("/profit-loss", reportHandler.GetProfitLoss)
		reportRoutes.GET("/low-stock", reportHandler.GetLowStock)
		reportRoutes.GET("/sales", reportHandler.GetSalesReport)
		reportRoutes.GET("/customers", reportHandler.GetCustomerReport)
		reportRoutes.GET("/suppliers", reportHandler.GetSupplierReport)
	}
	authenticatedGroup.GET("/dashboard", anyShopRole, reportHandler.GetDashboard)
}
