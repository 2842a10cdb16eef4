package seed

import (
	"context"
	"strings"
	"testing"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) RegisterUser(ctx context.Context, req models.RegistrationPayload) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) LoginUser(ctx context.Context, req models.Credentials) (*models.LoginResponse, error) {
	args := m.Called(ctx, req)
	return nil, args.Error(1)
}

func (m *MockAuthService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	return nil, args.Error(1)
}

type MockCatalogService struct {
	services.CatalogService // unused methods panic
	mock.Mock
}

func (m *MockCatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCatalogService) CreateCategory(ctx context.Context, req services.CategoryRequest) (*models.Category, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCatalogService) CreateProduct(ctx context.Context, req services.ProductRequest, actorID int64) (*models.Product, error) {
	args := m.Called(ctx, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

type MockSupplierService struct {
	services.SupplierService
	mock.Mock
}

func (m *MockSupplierService) CreateSupplier(ctx context.Context, req services.SupplierRequest) (*models.Supplier, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Supplier), args.Error(1)
}

func (m *MockSupplierService) ListSuppliers(ctx context.Context, search *string, page, pageSize int) ([]models.Supplier, int, error) {
	args := m.Called(ctx, search, page, pageSize)
	return args.Get(0).([]models.Supplier), args.Int(1), args.Error(2)
}

const catalogYAML = `
users:
  - username: admin
    password: s3cret-pass
    role: admin
  - username: till
    password: s3cret-pass
    role: cashier
categories:
  - name: Doors
  - name: Frames
    description: Door frames
suppliers:
  - name: Acme Doors
    phone: "+7 700 111-22-33"
products:
  - name: Oak door
    category: doors
    supplier: Acme Doors
    width: "80"
    height: "200"
    cost_price: "100.50"
    selling_price: "160"
    opening_stock: "5"
  - name: Pine frame
    category: Frames
    product_type: frame
    track_stock: false
`

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(catalogYAML))
	require.NoError(t, err)
	assert.Len(t, f.Users, 2)
	assert.Len(t, f.Categories, 2)
	assert.Len(t, f.Products, 2)
	require.NotNil(t, f.Products[1].TrackStock)
	assert.False(t, *f.Products[1].TrackStock)

	_, err = Parse(strings.NewReader("products:\n  - name: x\n    colour: red\n"))
	assert.Error(t, err)

	empty, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Products)
}

func TestSeeder_Apply(t *testing.T) {
	ctx := context.Background()
	f, err := Parse(strings.NewReader(catalogYAML))
	require.NoError(t, err)

	auth := new(MockAuthService)
	catalog := new(MockCatalogService)
	suppliers := new(MockSupplierService)

	auth.On("RegisterUser", ctx, mock.MatchedBy(func(p models.RegistrationPayload) bool { return p.Username == "admin" })).
		Return(&models.User{ID: 1, Username: "admin", Role: models.RoleAdmin}, nil)
	auth.On("RegisterUser", ctx, mock.MatchedBy(func(p models.RegistrationPayload) bool { return p.Username == "till" })).
		Return(nil, services.ErrUsernameExists)

	catalog.On("ListCategories", ctx).Return([]models.Category{{ID: 4, Name: "Doors"}}, nil)
	catalog.On("CreateCategory", ctx, mock.MatchedBy(func(r services.CategoryRequest) bool {
		return r.Name == "Frames" && r.Description != nil && *r.Description == "Door frames"
	})).Return(&models.Category{ID: 5, Name: "Frames"}, nil)

	suppliers.On("CreateSupplier", ctx, mock.MatchedBy(func(r services.SupplierRequest) bool { return r.Name == "Acme Doors" })).
		Return(&models.Supplier{ID: 9, Name: "Acme Doors"}, nil)

	catalog.On("CreateProduct", ctx, mock.MatchedBy(func(r services.ProductRequest) bool {
		return r.Name == "Oak door" &&
			r.CategoryID == 4 &&
			r.SupplierID != nil && *r.SupplierID == 9 &&
			r.ProductType == "ready_made" &&
			r.CostPrice.Equal(decimal.RequireFromString("100.50")) &&
			r.OpeningStock.Equal(decimal.NewFromInt(5)) &&
			r.Width.Valid && r.Width.Decimal.Equal(decimal.NewFromInt(80)) &&
			!r.Thickness.Valid
	}), int64(1)).Return(&models.Product{ID: 20}, nil)
	catalog.On("CreateProduct", ctx, mock.MatchedBy(func(r services.ProductRequest) bool {
		return r.Name == "Pine frame" && r.CategoryID == 5 && r.SupplierID == nil && r.TrackStock != nil && !*r.TrackStock
	}), int64(1)).Return(&models.Product{ID: 21}, nil)

	res, err := NewSeeder(auth, catalog, suppliers).Apply(ctx, f)

	require.NoError(t, err)
	assert.Equal(t, &Result{Users: 1, Categories: 1, Suppliers: 1, Products: 2, Skipped: 2}, res)
	auth.AssertExpectations(t)
	catalog.AssertExpectations(t)
	suppliers.AssertExpectations(t)
}

func TestSeeder_ExistingSupplierIsReused(t *testing.T) {
	ctx := context.Background()
	f := &File{
		Suppliers: []Supplier{{Name: "Acme Doors", Phone: "7001112233"}},
		Products:  []Product{{Name: "Oak door", Category: "Doors", Supplier: "acme doors"}},
	}
	catalog := new(MockCatalogService)
	suppliers := new(MockSupplierService)

	catalog.On("ListCategories", ctx).Return([]models.Category{{ID: 4, Name: "Doors"}}, nil)
	suppliers.On("CreateSupplier", ctx, mock.Anything).
		Return(nil, &services.ValidationError{Field: "phone", Message: "already exists", Constraint: "suppliers_phone_key"})
	phone := "7001112233"
	suppliers.On("ListSuppliers", ctx, &phone, 1, 1).Return([]models.Supplier{{ID: 12}}, 1, nil)
	catalog.On("CreateProduct", ctx, mock.MatchedBy(func(r services.ProductRequest) bool {
		return r.SupplierID != nil && *r.SupplierID == 12
	}), int64(0)).Return(&models.Product{ID: 1}, nil)

	res, err := NewSeeder(new(MockAuthService), catalog, suppliers).Apply(ctx, f)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Products)
}

func TestSeeder_UnknownCategory(t *testing.T) {
	ctx := context.Background()
	catalog := new(MockCatalogService)
	catalog.On("ListCategories", ctx).Return([]models.Category{}, nil)

	_, err := NewSeeder(new(MockAuthService), catalog, new(MockSupplierService)).
		Apply(ctx, &File{Products: []Product{{Name: "Ghost", Category: "Nowhere"}}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown category "Nowhere"`)
	catalog.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductRequest_BadAmount(t *testing.T) {
	p := Product{Name: "Oak", Category: "Doors", CostPrice: "ten"}
	_, err := p.request(map[string]int64{"doors": 1}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cost_price")
}
