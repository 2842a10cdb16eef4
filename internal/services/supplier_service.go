package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/repositories"
)

// SupplierRequest creates or updates a supplier.
type SupplierRequest struct {
	Name          string  `json:"name" binding:"required,max=200"`
	ContactPerson *string `json:"contact_person"`
	Phone         string  `json:"phone" binding:"required,max=20"`
	Email         *string `json:"email" binding:"omitempty,email"`
	Address       *string `json:"address"`
}

// SupplierService manages suppliers.
type SupplierService interface {
	CreateSupplier(ctx context.Context, req SupplierRequest) (*models.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*models.Supplier, error)
	ListSuppliers(ctx context.Context, search *string, page, pageSize int) ([]models.Supplier, int, error)
	UpdateSupplier(ctx context.Context, id int64, req SupplierRequest) (*models.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) error
}

type supplierService struct {
	db           *sql.DB
	supplierRepo repositories.SupplierRepository
}

// NewSupplierService creates a new instance of SupplierService.
func NewSupplierService(db *sql.DB, supplierRepo repositories.SupplierRepository) SupplierService {
	return &supplierService{db: db, supplierRepo: supplierRepo}
}

func (r SupplierRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return newValidationError("name", "is required")
	}
	if strings.TrimSpace(r.Phone) == "" {
		return newValidationError("phone", "is required")
	}
	return nil
}

func supplierWriteError(err error, id int64) error {
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return &ValidationError{Field: "phone", Message: "a supplier with this phone already exists", Constraint: constraintName(err)}
	}
	return translateRepoError(err, "supplier", id)
}

func (s *supplierService) CreateSupplier(ctx context.Context, req SupplierRequest) (*models.Supplier, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	supplier := &models.Supplier{
		Name:          strings.TrimSpace(req.Name),
		ContactPerson: req.ContactPerson,
		Phone:         strings.TrimSpace(req.Phone),
		Email:         req.Email,
		Address:       req.Address,
	}
	if _, err := s.supplierRepo.CreateSupplier(ctx, s.db, supplier); err != nil {
		return nil, supplierWriteError(err, 0)
	}
	return supplier, nil
}

func (s *supplierService) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	supplier, err := s.supplierRepo.GetSupplierByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "supplier", id)
	}
	return supplier, nil
}

func (s *supplierService) ListSuppliers(ctx context.Context, search *string, page, pageSize int) ([]models.Supplier, int, error) {
	return s.supplierRepo.GetSuppliers(ctx, search, page, pageSize)
}

func (s *supplierService) UpdateSupplier(ctx context.Context, id int64, req SupplierRequest) (*models.Supplier, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	supplier, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	supplier.Name = strings.TrimSpace(req.Name)
	supplier.ContactPerson = req.ContactPerson
	supplier.Phone = strings.TrimSpace(req.Phone)
	supplier.Email = req.Email
	supplier.Address = req.Address
	if err := s.supplierRepo.UpdateSupplier(ctx, s.db, supplier); err != nil {
		return nil, supplierWriteError(err, id)
	}
	return supplier, nil
}

func (s *supplierService) DeleteSupplier(ctx context.Context, id int64) error {
	if err := s.supplierRepo.DeleteSupplier(ctx, s.db, id); err != nil {
		return translateRepoError(err, "supplier", id)
	}
	return nil
}
