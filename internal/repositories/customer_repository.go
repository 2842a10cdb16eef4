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

// CustomerRepository defines the interface for customer-related database operations.
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, executor SQLExecutor, customer *models.Customer) (int64, error)
	GetCustomerByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Customer, error)
	GetCustomerByPhone(ctx context.Context, executor SQLExecutor, phone string) (*models.Customer, error)
	GetCustomers(ctx context.Context, searchTerm *string, page, pageSize int) ([]models.Customer, int, error)
	UpdateCustomer(ctx context.Context, executor SQLExecutor, customer *models.Customer) error
	DeleteCustomer(ctx context.Context, executor SQLExecutor, id int64) error
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, name, phone, email, address, created_at`

func scanCustomer(s scanner, extra ...interface{}) (*models.Customer, error) {
	customer := &models.Customer{}
	dest := []interface{}{&customer.ID, &customer.Name, &customer.Phone, &customer.Email, &customer.Address, &customer.CreatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return customer, nil
}

// CreateCustomer inserts a new customer. A taken phone yields ErrDuplicateKey.
func (r *customerRepository) CreateCustomer(ctx context.Context, executor SQLExecutor, customer *models.Customer) (int64, error) {
	query := `INSERT INTO customers (name, phone, email, address, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		customer.Name, customer.Phone, customer.Email, customer.Address, customer.CreatedAt,
	).Scan(&customer.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating customer")
	}
	return customer.ID, nil
}

func (r *customerRepository) GetCustomerByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Customer, error) {
	if executor == nil {
		executor = r.db
	}
	customer, err := scanCustomer(executor.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting customer by ID %d: %v", ErrDatabaseError, id, err)
	}
	return customer, nil
}

// GetCustomerByPhone expects an already normalized phone.
func (r *customerRepository) GetCustomerByPhone(ctx context.Context, executor SQLExecutor, phone string) (*models.Customer, error) {
	if executor == nil {
		executor = r.db
	}
	customer, err := scanCustomer(executor.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE phone = $1`, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting customer by phone %s: %v", ErrDatabaseError, phone, err)
	}
	return customer, nil
}

func (r *customerRepository) GetCustomers(ctx context.Context, searchTerm *string, page, pageSize int) ([]models.Customer, int, error) {
	customers := []models.Customer{}
	totalCount := 0

	query := `SELECT ` + customerColumns + `, COUNT(*) OVER() AS total_count FROM customers`
	var args []interface{}
	if searchTerm != nil && *searchTerm != "" {
		query += ` WHERE (name ILIKE $1 OR phone ILIKE $1 OR email ILIKE $1)`
		args = append(args, "%"+strings.TrimSpace(*searchTerm)+"%")
	}
	query += ` ORDER BY name ASC`
	query, args = paginate(query, args, page, pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying customers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		customer, err := scanCustomer(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning customer: %v", ErrDatabaseError, err)
		}
		customers = append(customers, *customer)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating customer rows: %v", ErrDatabaseError, err)
	}
	return customers, totalCount, nil
}

func (r *customerRepository) UpdateCustomer(ctx context.Context, executor SQLExecutor, customer *models.Customer) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE customers SET name = $1, phone = $2, email = $3, address = $4 WHERE id = $5`,
		customer.Name, customer.Phone, customer.Email, customer.Address, customer.ID,
	)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("updating customer ID %d", customer.ID))
	}
	return checkRowsAffected(result, fmt.Sprintf("updating customer ID %d", customer.ID))
}

func (r *customerRepository) DeleteCustomer(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("deleting customer ID %d", id))
	}
	return checkRowsAffected(result, fmt.Sprintf("deleting customer ID %d", id))
}
