package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/repositories"
	"door_shop_backend/pkg/utils"
)

// CustomerRequest creates or updates a customer. Phone is normalized before storage.
type CustomerRequest struct {
	Name    string  `json:"name" binding:"required,max=200"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Address *string `json:"address"`
}

// LookupCustomerRequest is the POS lookup-or-create payload.
type LookupCustomerRequest struct {
	Phone   string  `json:"phone"`
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
}

// CustomerService manages customers.
type CustomerService interface {
	CreateCustomer(ctx context.Context, req CustomerRequest) (*models.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	ListCustomers(ctx context.Context, search *string, page, pageSize int) ([]models.Customer, int, error)
	UpdateCustomer(ctx context.Context, id int64, req CustomerRequest) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	// LookupOrCreateByPhone returns the customer with the normalized phone, creating it when absent.
	// exists reports whether the customer was already there.
	LookupOrCreateByPhone(ctx context.Context, req LookupCustomerRequest) (customer *models.Customer, exists bool, err error)
	GetByPhone(ctx context.Context, phone string) (*models.Customer, error)
	GetSalesHistory(ctx context.Context, id int64) (*models.CustomerSalesHistory, error)
}

type customerService struct {
	db           *sql.DB
	customerRepo repositories.CustomerRepository
	saleRepo     repositories.SaleRepository
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(db *sql.DB, customerRepo repositories.CustomerRepository, saleRepo repositories.SaleRepository) CustomerService {
	return &customerService{db: db, customerRepo: customerRepo, saleRepo: saleRepo}
}

// normalizeOptionalPhone returns nil for an absent or blank phone.
func normalizeOptionalPhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	return utils.NewNullString(utils.NormalizePhone(*phone))
}

func duplicatePhone(err error) error {
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return &ValidationError{Field: "phone", Message: "a customer with this phone already exists", Constraint: constraintName(err)}
	}
	return nil
}

func (s *customerService) CreateCustomer(ctx context.Context, req CustomerRequest) (*models.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}
	customer := &models.Customer{
		Name:    name,
		Phone:   normalizeOptionalPhone(req.Phone),
		Email:   req.Email,
		Address: req.Address,
	}
	if _, err := s.customerRepo.CreateCustomer(ctx, s.db, customer); err != nil {
		if dup := duplicatePhone(err); dup != nil {
			return nil, dup
		}
		return nil, translateRepoError(err, "customer", 0)
	}
	return customer, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(ctx, nil, id)
	if err != nil {
		return nil, translateRepoError(err, "customer", id)
	}
	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context, search *string, page, pageSize int) ([]models.Customer, int, error) {
	return s.customerRepo.GetCustomers(ctx, search, page, pageSize)
}

func (s *customerService) UpdateCustomer(ctx context.Context, id int64, req CustomerRequest) (*models.Customer, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}
	customer.Name = name
	customer.Phone = normalizeOptionalPhone(req.Phone)
	customer.Email = req.Email
	customer.Address = req.Address
	if err := s.customerRepo.UpdateCustomer(ctx, s.db, customer); err != nil {
		if dup := duplicatePhone(err); dup != nil {
			return nil, dup
		}
		return nil, translateRepoError(err, "customer", id)
	}
	return customer, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id int64) error {
	if err := s.customerRepo.DeleteCustomer(ctx, s.db, id); err != nil {
		return translateRepoError(err, "customer", id)
	}
	return nil
}

func (s *customerService) LookupOrCreateByPhone(ctx context.Context, req LookupCustomerRequest) (*models.Customer, bool, error) {
	phone := utils.NormalizePhone(req.Phone)
	if phone == "" {
		return nil, false, newValidationError("phone", "phone number is required")
	}

	existing, err := s.customerRepo.GetCustomerByPhone(ctx, s.db, phone)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Customer " + phone
	}
	customer := &models.Customer{
		Name:    name,
		Phone:   &phone,
		Email:   utils.NewNullString(derefString(req.Email)),
		Address: utils.NewNullString(derefString(req.Address)),
	}
	if _, err := s.customerRepo.CreateCustomer(ctx, s.db, customer); err != nil {
		if !errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, false, translateRepoError(err, "customer", 0)
		}
		// Lost the race against a concurrent create of the same phone.
		existing, getErr := s.customerRepo.GetCustomerByPhone(ctx, s.db, phone)
		if getErr != nil {
			return nil, false, fmt.Errorf("re-reading customer after duplicate phone: %w", getErr)
		}
		return existing, true, nil
	}
	utils.LogInfo("customer created from phone lookup", map[string]interface{}{"customer_id": customer.ID})
	return customer, false, nil
}

func (s *customerService) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	normalized := utils.NormalizePhone(phone)
	if normalized == "" {
		return nil, newValidationError("phone", "phone number is required")
	}
	customer, err := s.customerRepo.GetCustomerByPhone(ctx, s.db, normalized)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Entity: "customer", Key: normalized}
		}
		return nil, err
	}
	return customer, nil
}

func (s *customerService) GetSalesHistory(ctx context.Context, id int64) (*models.CustomerSalesHistory, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	sales, _, err := s.saleRepo.GetSales(ctx, &id, nil, nil, 0, 0)
	if err != nil {
		return nil, err
	}
	stats, err := s.saleRepo.GetCustomerSaleStats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.CustomerSalesHistory{Customer: customer, Sales: sales, Stats: *stats}, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
