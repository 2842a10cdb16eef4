package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/repositories"
	"door_shop_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// quickSearchLimit caps the POS product picker.
const quickSearchLimit = 10

// CategoryRequest creates or updates a category.
type CategoryRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Description *string `json:"description"`
}

// ProductRequest creates or updates a product. OpeningStock is honoured on create only.
type ProductRequest struct {
	CategoryID       int64               `json:"category_id" binding:"required"`
	SupplierID       *int64              `json:"supplier_id"`
	Name             string              `json:"name" binding:"required,max=200"`
	ProductType      string              `json:"product_type" binding:"required"`
	Description      *string             `json:"description"`
	SupplierItemCode *string             `json:"supplier_item_code"`
	Width            decimal.NullDecimal `json:"width"`
	Height           decimal.NullDecimal `json:"height"`
	Thickness        decimal.NullDecimal `json:"thickness"`
	Material         *string             `json:"material"`
	OpeningSide      *string             `json:"opening_side"`
	Accessories      *string             `json:"accessories"`
	CostPrice        decimal.Decimal     `json:"cost_price" binding:"dnonneg"`
	SellingPrice     decimal.Decimal     `json:"selling_price" binding:"dnonneg"`
	OpeningStock     decimal.Decimal     `json:"opening_stock" binding:"dnonneg"`
	MinStockLevel    decimal.Decimal     `json:"min_stock_level" binding:"dnonneg"`
	TrackStock       *bool               `json:"track_stock"`
	Remarks          *string             `json:"remarks"`
}

// CatalogService manages categories and products.
type CatalogService interface {
	CreateCategory(ctx context.Context, req CategoryRequest) (*models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id int64, req CategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, req ProductRequest, actorID int64) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error)
	QuickSearchProducts(ctx context.Context, term string) ([]models.Product, error)
	// UpdateProduct never changes current_stock.
	UpdateProduct(ctx context.Context, id int64, req ProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetStockInfo(ctx context.Context, id int64) (*models.ProductStockInfo, error)
}

type catalogService struct {
	db           *sql.DB
	categoryRepo repositories.CategoryRepository
	productRepo  repositories.ProductRepository
	ledger       StockLedger
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(db *sql.DB, categoryRepo repositories.CategoryRepository, productRepo repositories.ProductRepository, ledger StockLedger) CatalogService {
	return &catalogService{db: db, categoryRepo: categoryRepo, productRepo: productRepo, ledger: ledger}
}

func (s *catalogService) CreateCategory(ctx context.Context, req CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}
	category := &models.Category{Name: name, Description: req.Description}
	if _, err := s.categoryRepo.CreateCategory(ctx, s.db, category); err != nil {
		return nil, translateRepoError(err, "category", 0)
	}
	return category, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "category", id)
	}
	return category, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.GetCategories(ctx)
}

func (s *catalogService) UpdateCategory(ctx context.Context, id int64, req CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Name = name
	category.Description = req.Description
	if err := s.categoryRepo.UpdateCategory(ctx, s.db, category); err != nil {
		return nil, translateRepoError(err, "category", id)
	}
	return category, nil
}

// DeleteCategory fails with a ValidationError while products still reference the category.
func (s *catalogService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.categoryRepo.DeleteCategory(ctx, s.db, id); err != nil {
		return translateRepoError(err, "category", id)
	}
	return nil
}

func (r *ProductRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return newValidationError("name", "is required")
	}
	if !models.IsValidProductType(r.ProductType) {
		return newValidationError("product_type", "unknown product type %q", r.ProductType)
	}
	if r.CostPrice.IsNegative() {
		return newValidationError("cost_price", "must not be negative")
	}
	if r.SellingPrice.IsNegative() {
		return newValidationError("selling_price", "must not be negative")
	}
	if r.MinStockLevel.IsNegative() {
		return newValidationError("min_stock_level", "must not be negative")
	}
	if r.OpeningStock.IsNegative() {
		return newValidationError("opening_stock", "must not be negative")
	}
	if err := checkScales("", map[string]decimal.Decimal{
		"cost_price": r.CostPrice, "selling_price": r.SellingPrice,
		"opening_stock": r.OpeningStock, "min_stock_level": r.MinStockLevel,
	}); err != nil {
		return err
	}
	for field, v := range map[string]decimal.NullDecimal{"width": r.Width, "height": r.Height, "thickness": r.Thickness} {
		if v.Valid && !v.Decimal.IsPositive() {
			return newValidationError(field, "must be greater than zero")
		}
	}
	return nil
}

func (r *ProductRequest) apply(p *models.Product) {
	p.CategoryID = r.CategoryID
	p.SupplierID = r.SupplierID
	p.Name = strings.TrimSpace(r.Name)
	p.ProductType = models.ProductType(r.ProductType)
	p.Description = r.Description
	p.SupplierItemCode = r.SupplierItemCode
	p.Width, p.Height, p.Thickness = r.Width, r.Height, r.Thickness
	p.Material = r.Material
	p.OpeningSide = r.OpeningSide
	p.Accessories = r.Accessories
	p.CostPrice = r.CostPrice
	p.SellingPrice = r.SellingPrice
	p.MinStockLevel = r.MinStockLevel
	p.TrackStock = r.TrackStock == nil || *r.TrackStock
	p.Remarks = r.Remarks
}

// CreateProduct inserts the product with zero stock; an opening stock goes through the ledger.
func (s *catalogService) CreateProduct(ctx context.Context, req ProductRequest, actorID int64) (*models.Product, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	product := &models.Product{}
	req.apply(product)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.productRepo.CreateProduct(ctx, tx, product); err != nil {
		return nil, translateRepoError(err, "product", 0)
	}
	if req.OpeningStock.IsPositive() {
		if _, err := s.ledger.ApplyDelta(ctx, tx, product, req.OpeningStock, StockRef{
			Source:        models.StockSourceAdjustmentIn,
			ReferenceType: "product",
			ReferenceID:   product.ID,
			ActorID:       actorID,
		}); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product: %w", err)
	}
	utils.LogInfo("product created", map[string]interface{}{"product_id": product.ID, "name": product.Name, "actor_id": actorID})
	return s.GetProduct(ctx, product.ID)
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, nil, id)
	if err != nil {
		return nil, translateRepoError(err, "product", id)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error) {
	if filters.ProductType != nil && *filters.ProductType != "" && !models.IsValidProductType(*filters.ProductType) {
		return nil, 0, newValidationError("product_type", "unknown product type %q", *filters.ProductType)
	}
	return s.productRepo.GetProducts(ctx, filters)
}

func (s *catalogService) QuickSearchProducts(ctx context.Context, term string) ([]models.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Product{}, nil
	}
	return s.productRepo.QuickSearchProducts(ctx, term, quickSearchLimit)
}

func (s *catalogService) UpdateProduct(ctx context.Context, id int64, req ProductRequest) (*models.Product, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(product)
	if err := s.productRepo.UpdateProduct(ctx, s.db, product); err != nil {
		return nil, translateRepoError(err, "product", id)
	}
	return s.GetProduct(ctx, id)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.productRepo.DeleteProduct(ctx, s.db, id); err != nil {
		return translateRepoError(err, "product", id)
	}
	return nil
}

func (s *catalogService) GetStockInfo(ctx context.Context, id int64) (*models.ProductStockInfo, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	info := &models.ProductStockInfo{
		ID:            product.ID,
		Name:          product.Name,
		SellingPrice:  product.SellingPrice,
		CurrentStock:  product.CurrentStock,
		MinStockLevel: product.MinStockLevel,
		TrackStock:    product.TrackStock,
	}
	if product.Category != nil {
		info.Category = product.Category.Name
	}
	return info, nil
}
