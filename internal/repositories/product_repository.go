package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"door_shop_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product and stock-level database operations.
type ProductRepository interface {
	CreateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) (int64, error)
	GetProductByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Product, error)
	// GetProductForUpdate reads the row with a FOR UPDATE lock; executor must be a transaction.
	GetProductForUpdate(ctx context.Context, executor SQLExecutor, id int64) (*models.Product, error)
	GetProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error)
	QuickSearchProducts(ctx context.Context, term string, limit int) ([]models.Product, error)
	UpdateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) error
	DeleteProduct(ctx context.Context, executor SQLExecutor, id int64) error
	IncrementStock(ctx context.Context, executor SQLExecutor, id int64, quantity decimal.Decimal) (decimal.Decimal, error)
	DecrementStock(ctx context.Context, executor SQLExecutor, id int64, quantity decimal.Decimal) (decimal.Decimal, error)
	UpdateCostPrice(ctx context.Context, executor SQLExecutor, id int64, cost decimal.Decimal) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `p.id, p.category_id, p.supplier_id, p.name, p.product_type, p.description, p.supplier_item_code,
	p.width, p.height, p.thickness, p.material, p.opening_side, p.accessories,
	p.cost_price, p.selling_price, p.current_stock, p.min_stock_level, p.track_stock, p.remarks,
	p.created_at, p.updated_at, c.name`

func scanProduct(s scanner, extra ...interface{}) (*models.Product, error) {
	p := &models.Product{}
	var categoryName string
	dest := []interface{}{
		&p.ID, &p.CategoryID, &p.SupplierID, &p.Name, &p.ProductType, &p.Description, &p.SupplierItemCode,
		&p.Width, &p.Height, &p.Thickness, &p.Material, &p.OpeningSide, &p.Accessories,
		&p.CostPrice, &p.SellingPrice, &p.CurrentStock, &p.MinStockLevel, &p.TrackStock, &p.Remarks,
		&p.CreatedAt, &p.UpdatedAt, &categoryName,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	p.Category = &models.Category{ID: p.CategoryID, Name: categoryName}
	return p, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, executor SQLExecutor, p *models.Product) (int64, error) {
	query := `INSERT INTO products
	          (category_id, supplier_id, name, product_type, description, supplier_item_code,
	           width, height, thickness, material, opening_side, accessories,
	           cost_price, selling_price, current_stock, min_stock_level, track_stock, remarks, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	          RETURNING id`
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now

	err := executor.QueryRowContext(ctx, query,
		p.CategoryID, p.SupplierID, p.Name, p.ProductType, p.Description, p.SupplierItemCode,
		p.Width, p.Height, p.Thickness, p.Material, p.OpeningSide, p.Accessories,
		p.CostPrice, p.SellingPrice, p.CurrentStock, p.MinStockLevel, p.TrackStock, p.Remarks, now, now,
	).Scan(&p.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating product")
	}
	return p.ID, nil
}

func (r *productRepository) getProduct(ctx context.Context, executor SQLExecutor, id int64, lock bool) (*models.Product, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT ` + productColumns + `
	          FROM products p
	          JOIN categories c ON c.id = p.category_id
	          WHERE p.id = $1`
	if lock {
		query += ` FOR UPDATE OF p`
	}
	p, err := scanProduct(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}
	return p, nil
}

// GetProductByID retrieves a product with its category name. A nil executor reads through the pool.
func (r *productRepository) GetProductByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Product, error) {
	return r.getProduct(ctx, executor, id, false)
}

func (r *productRepository) GetProductForUpdate(ctx context.Context, executor SQLExecutor, id int64) (*models.Product, error) {
	return r.getProduct(ctx, executor, id, true)
}

// GetProducts retrieves products with search, category and type filters.
func (r *productRepository) GetProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + productColumns + `, COUNT(*) OVER() AS total_count
	  FROM products p
	  JOIN categories c ON c.id = p.category_id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d OR p.material ILIKE $%d)", argCount, argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}
	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argCount))
		args = append(args, *filters.CategoryID)
		argCount++
	}
	if filters.ProductType != nil && *filters.ProductType != "" {
		conditions = append(conditions, fmt.Sprintf("p.product_type = $%d", argCount))
		args = append(args, *filters.ProductType)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY p.name ASC")

	query, args := paginate(queryBuilder.String(), args, filters.Page, filters.PageSize)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, totalCount, nil
}

// QuickSearchProducts matches names only and returns at most limit rows.
func (r *productRepository) QuickSearchProducts(ctx context.Context, term string, limit int) ([]models.Product, error) {
	products := []models.Product{}
	query := `SELECT ` + productColumns + `
	          FROM products p
	          JOIN categories c ON c.id = p.category_id
	          WHERE p.name ILIKE $1
	          ORDER BY p.name ASC
	          LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("%w: quick searching products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, nil
}

// UpdateProduct writes catalog fields. current_stock is not written here; it moves through the stock ledger only.
func (r *productRepository) UpdateProduct(ctx context.Context, executor SQLExecutor, p *models.Product) error {
	query := `UPDATE products SET
	            category_id = $1, supplier_id = $2, name = $3, product_type = $4, description = $5,
	            supplier_item_code = $6, width = $7, height = $8, thickness = $9, material = $10,
	            opening_side = $11, accessories = $12, cost_price = $13, selling_price = $14,
	            min_stock_level = $15, track_stock = $16, remarks = $17, updated_at = $18
	          WHERE id = $19`
	p.UpdatedAt = time.Now()
	result, err := executor.ExecContext(ctx, query,
		p.CategoryID, p.SupplierID, p.Name, p.ProductType, p.Description,
		p.SupplierItemCode, p.Width, p.Height, p.Thickness, p.Material,
		p.OpeningSide, p.Accessories, p.CostPrice, p.SellingPrice,
		p.MinStockLevel, p.TrackStock, p.Remarks, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("updating product ID %d", p.ID))
	}
	return checkRowsAffected(result, fmt.Sprintf("updating product ID %d", p.ID))
}

func (r *productRepository) DeleteProduct(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("deleting product ID %d", id))
	}
	return checkRowsAffected(result, fmt.Sprintf("deleting product ID %d", id))
}

// IncrementStock adds quantity and returns the new stock level.
func (r *productRepository) IncrementStock(ctx context.Context, executor SQLExecutor, id int64, quantity decimal.Decimal) (decimal.Decimal, error) {
	var after decimal.Decimal
	err := executor.QueryRowContext(ctx,
		`UPDATE products SET current_stock = current_stock + $1, updated_at = $2 WHERE id = $3 RETURNING current_stock`,
		quantity, time.Now(), id,
	).Scan(&after)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("%w: incrementing stock for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return after, nil
}

// DecrementStock subtracts quantity only while enough stock remains.
// A row that exists but lacks stock yields ErrStockConflict.
func (r *productRepository) DecrementStock(ctx context.Context, executor SQLExecutor, id int64, quantity decimal.Decimal) (decimal.Decimal, error) {
	var after decimal.Decimal
	err := executor.QueryRowContext(ctx,
		`UPDATE products SET current_stock = current_stock - $1, updated_at = $2
		 WHERE id = $3 AND current_stock >= $1
		 RETURNING current_stock`,
		quantity, time.Now(), id,
	).Scan(&after)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: product ID %d", ErrStockConflict, id)
		}
		return decimal.Zero, fmt.Errorf("%w: decrementing stock for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return after, nil
}

func (r *productRepository) UpdateCostPrice(ctx context.Context, executor SQLExecutor, id int64, cost decimal.Decimal) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE products SET cost_price = $1, updated_at = $2 WHERE id = $3`, cost, time.Now(), id)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("updating cost price for product ID %d", id))
	}
	return checkRowsAffected(result, fmt.Sprintf("updating cost price for product ID %d", id))
}
