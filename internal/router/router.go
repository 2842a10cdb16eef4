package router

import (
	"database/sql"
	"fmt"
	"net/http"

	"door_shop_backend/internal/config"
	"door_shop_backend/internal/handlers"
	"door_shop_backend/internal/metrics"
	"door_shop_backend/internal/middleware"
	"door_shop_backend/internal/repositories"
	"door_shop_backend/internal/services"
	"door_shop_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewEngine creates the gin engine with the global middleware chain, /ping and /metrics.
func NewEngine(cfg *config.Config, m *metrics.Metrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(utils.GinLogger())
	engine.Use(middleware.Metrics(m))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	engine.GET("/metrics", gin.WrapH(m.Handler()))
	return engine
}

// Setup builds repositories, services and handlers over db and registers the /api/v1 routes.
func Setup(engine *gin.Engine, db *sql.DB, cfg *config.Config, m *metrics.Metrics) error {
	if err := handlers.RegisterValidators(); err != nil {
		return fmt.Errorf("registering validators: %w", err)
	}

	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	productRepo := repositories.NewProductRepository(db)
	supplierRepo := repositories.NewSupplierRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	orderRepo := repositories.NewPurchaseOrderRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	adjustmentRepo := repositories.NewStockAdjustmentRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)
	layerRepo := repositories.NewCostLayerRepository(db)
	summaryRepo := repositories.NewDailySummaryRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	// Initialize Services
	basis := services.ProfitCostBasis(cfg.Inventory.ProfitCostBasis)
	costing, err := services.NewCostingStrategy(cfg.Inventory.CostingMethod, productRepo, layerRepo)
	if err != nil {
		return err
	}
	ledger := services.NewStockLedger(productRepo, movementRepo, m)
	summaries := services.NewDailySummaryService(db, summaryRepo, cfg.Location(), basis, m)

	authService := services.NewAuthService(authRepo, db)
	catalogService := services.NewCatalogService(db, categoryRepo, productRepo, ledger)
	supplierService := services.NewSupplierService(db, supplierRepo)
	customerService := services.NewCustomerService(db, customerRepo, saleRepo)
	purchaseService := services.NewPurchaseService(db, orderRepo, productRepo, supplierRepo, ledger, costing)
	adjustmentService := services.NewAdjustmentService(db, adjustmentRepo, movementRepo, productRepo, ledger, summaries,
		services.AdjustPolicy(cfg.Inventory.AdjustPolicy))
	saleService := services.NewSaleService(db, saleRepo, productRepo, customerRepo, ledger, costing, summaries, m)
	paymentService := services.NewPaymentService(db, paymentRepo, saleRepo)
	reportService := services.NewReportService(reportRepo, saleRepo, summaries, basis)

	utils.LogInfo("inventory policies", map[string]interface{}{
		"costing_method":    costing.Method(),
		"profit_cost_basis": basis,
		"adjust_policy":     cfg.Inventory.AdjustPolicy,
		"timezone":          cfg.App.Timezone,
	})

	// Initialize Handlers
	h := routeHandlers{
		auth:      handlers.NewAuthHandler(authService),
		catalog:   handlers.NewCatalogHandler(catalogService),
		suppliers: handlers.NewSupplierHandler(supplierService),
		customers: handlers.NewCustomerHandler(customerService),
		purchases: handlers.NewPurchaseHandler(purchaseService),
		stock:     handlers.NewStockHandler(adjustmentService),
		sales:     handlers.NewSaleHandler(saleService, paymentService, summaries),
		summaries: handlers.NewDailySummaryHandler(summaries),
		reports:   handlers.NewReportHandler(reportService),
	}

	registerRoutes(engine.Group("/api/v1"), h)
	return nil
}

type routeHandlers struct {
	auth      *handlers.AuthHandler
	catalog   *handlers.CatalogHandler
	suppliers *handlers.SupplierHandler
	customers *handlers.CustomerHandler
	purchases *handlers.PurchaseHandler
	stock     *handlers.StockHandler
	sales     *handlers.SaleHandler
	summaries *handlers.DailySummaryHandler
	reports   *handlers.ReportHandler
}

func registerRoutes(apiV1 *gin.RouterGroup, h routeHandlers) {
	SetupPublicAuthRoutes(apiV1.Group("/auth"), h.auth)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), h.auth)
		SetupCategoryRoutes(authenticated, h.catalog)
		SetupProductRoutes(authenticated, h.catalog)
		SetupSupplierRoutes(authenticated, h.suppliers)
		SetupCustomerRoutes(authenticated, h.customers)
		SetupPurchaseOrderRoutes(authenticated, h.purchases)
		SetupStockRoutes(authenticated, h.stock)
		SetupSaleRoutes(authenticated, h.sales)
		SetupDailySummaryRoutes(authenticated, h.summaries)
		SetupReportRoutes(authenticated, h.reports)
	}
}
