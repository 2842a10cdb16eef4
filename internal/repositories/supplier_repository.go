package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"door_shop_backend/internal/models"
)

// SupplierRepository defines the interface for supplier-related database operations.
type SupplierRepository interface {
	CreateSupplier(ctx context.Context, executor SQLExecutor, supplier *models.Supplier) (int64, error)
	GetSupplierByID(ctx context.Context, id int64) (*models.Supplier, error)
	GetSupplierByName(ctx context.Context, name string) (*models.Supplier, error)
	GetSuppliers(ctx context.Context, searchTerm *string, page, pageSize int) ([]models.Supplier, int, error)
	UpdateSupplier(ctx context.Context, executor SQLExecutor, supplier *models.Supplier) error
	DeleteSupplier(ctx context.Context, executor SQLExecutor, id int64) error
}

type supplierRepository struct {
	db *sql.DB
}

// NewSupplierRepository creates a new instance of SupplierRepository.
func NewSupplierRepository(db *sql.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

const supplierColumns = `id, name, contact_person, phone, email, address, created_at`

func scanSupplier(s scanner, extra ...interface{}) (*models.Supplier, error) {
	supplier := &models.Supplier{}
	dest := []interface{}{
		&supplier.ID, &supplier.Name, &supplier.ContactPerson, &supplier.Phone,
		&supplier.Email, &supplier.Address, &supplier.CreatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (r *supplierRepository) CreateSupplier(ctx context.Context, executor SQLExecutor, supplier *models.Supplier) (int64, error) {
	query := `INSERT INTO suppliers (name, contact_person, phone, email, address, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	supplier.CreatedAt = time.Now()
	err := executor.QueryRowContext(ctx, query,
		supplier.Name, supplier.ContactPerson, supplier.Phone, supplier.Email, supplier.Address, supplier.CreatedAt,
	).Scan(&supplier.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating supplier")
	}
	return supplier.ID, nil
}

func (r *supplierRepository) GetSupplierByID(ctx context.Context, id int64) (*models.Supplier, error) {
	supplier, err := scanSupplier(r.db.QueryRowContext(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting supplier by ID %d: %v", ErrDatabaseError, id, err)
	}
	return supplier, nil
}

func (r *supplierRepository) GetSupplierByName(ctx context.Context, name string) (*models.Supplier, error) {
	supplier, err := scanSupplier(r.db.QueryRowContext(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE LOWER(name) = LOWER($1) ORDER BY id LIMIT 1`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting supplier by name %s: %v", ErrDatabaseError, name, err)
	}
	return supplier, nil
}

// GetSuppliers retrieves suppliers, searching name, contact person and phone.
func (r *supplierRepository) GetSuppliers(ctx context.Context, searchTerm *string, page, pageSize int) ([]models.Supplier, int, error) {
	suppliers := []models.Supplier{}
	totalCount := 0

	query := `SELECT ` + supplierColumns + `, COUNT(*) OVER() AS total_count FROM suppliers`
	var args []interface{}
	if searchTerm != nil && *searchTerm != "" {
		query += ` WHERE (name ILIKE $1 OR contact_person ILIKE $1 OR phone ILIKE $1)`
		args = append(args, "%"+strings.TrimSpace(*searchTerm)+"%")
	}
	query += ` ORDER BY name ASC`
	query, args = paginate(query, args, page, pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying suppliers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		supplier, err := scanSupplier(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning supplier: %v", ErrDatabaseError, err)
		}
		suppliers = append(suppliers, *supplier)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating supplier rows: %v", ErrDatabaseError, err)
	}
	return suppliers, totalCount, nil
}

func (r *supplierRepository) UpdateSupplier(ctx context.Context, executor SQLExecutor, supplier *models.Supplier) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE suppliers SET name = $1, contact_person = $2, phone = $3, email = $4, address = $5 WHERE id = $6`,
		supplier.Name, supplier.ContactPerson, supplier.Phone, supplier.Email, supplier.Address, supplier.ID,
	)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("updating supplier ID %d", supplier.ID))
	}
	return checkRowsAffected(result, fmt.Sprintf("updating supplier ID %d", supplier.ID))
}

func (r *supplierRepository) DeleteSupplier(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("deleting supplier ID %d", id))
	}
	return checkRowsAffected(result, fmt.Sprintf("deleting supplier ID %d", id))
}
