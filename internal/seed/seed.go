// Package seed loads a YAML catalog (users, categories, suppliers, products) through the services.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/services"
	"door_shop_backend/pkg/utils"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// File is the seed document. Products refer to categories and suppliers by name.
type File struct {
	Users      []User     `yaml:"users"`
	Categories []Category `yaml:"categories"`
	Suppliers  []Supplier `yaml:"suppliers"`
	Products   []Product  `yaml:"products"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
	Role     string `yaml:"role"`
}

type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Supplier struct {
	Name          string `yaml:"name"`
	ContactPerson string `yaml:"contact_person"`
	Phone         string `yaml:"phone"`
	Email         string `yaml:"email"`
	Address       string `yaml:"address"`
}

// Product amounts are strings so they parse exactly as decimals.
type Product struct {
	Name             string `yaml:"name"`
	Category         string `yaml:"category"`
	Supplier         string `yaml:"supplier"`
	ProductType      string `yaml:"product_type"`
	Description      string `yaml:"description"`
	SupplierItemCode string `yaml:"supplier_item_code"`
	Width            string `yaml:"width"`
	Height           string `yaml:"height"`
	Thickness        string `yaml:"thickness"`
	Material         string `yaml:"material"`
	OpeningSide      string `yaml:"opening_side"`
	CostPrice        string `yaml:"cost_price"`
	SellingPrice     string `yaml:"selling_price"`
	OpeningStock     string `yaml:"opening_stock"`
	MinStockLevel    string `yaml:"min_stock_level"`
	TrackStock       *bool  `yaml:"track_stock"`
}

// Result counts what Apply created and skipped.
type Result struct {
	Users      int
	Categories int
	Suppliers  int
	Products   int
	Skipped    int
}

// Parse decodes a seed document, rejecting unknown keys.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	return &f, nil
}

// Seeder applies a File. Existing usernames, category names and supplier phones are skipped.
type Seeder struct {
	auth      services.AuthService
	catalog   services.CatalogService
	suppliers services.SupplierService
}

func NewSeeder(auth services.AuthService, catalog services.CatalogService, suppliers services.SupplierService) *Seeder {
	return &Seeder{auth: auth, catalog: catalog, suppliers: suppliers}
}

// Apply creates the file's records in order. Opening stock is booked under the first admin created, if any.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Result, error) {
	res := &Result{}

	var actorID int64
	for _, u := range f.Users {
		user, err := s.auth.RegisterUser(ctx, models.RegistrationPayload{
			Username: u.Username,
			Password: u.Password,
			Email:    utils.NewNullString(u.Email),
			FullName: utils.NewNullString(u.FullName),
			Role:     u.Role,
		})
		if errors.Is(err, services.ErrUsernameExists) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("user %q: %w", u.Username, err)
		}
		if actorID == 0 && user.Role == models.RoleAdmin {
			actorID = user.ID
		}
		res.Users++
	}

	categoryIDs, err := s.existingCategories(ctx)
	if err != nil {
		return res, err
	}
	for _, c := range f.Categories {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if _, ok := categoryIDs[key]; ok {
			res.Skipped++
			continue
		}
		category, err := s.catalog.CreateCategory(ctx, services.CategoryRequest{Name: c.Name, Description: utils.NewNullString(c.Description)})
		if err != nil {
			return res, fmt.Errorf("category %q: %w", c.Name, err)
		}
		categoryIDs[key] = category.ID
		res.Categories++
	}

	supplierIDs := map[string]int64{}
	for _, sp := range f.Suppliers {
		key := strings.ToLower(strings.TrimSpace(sp.Name))
		supplier, err := s.suppliers.CreateSupplier(ctx, services.SupplierRequest{
			Name:          sp.Name,
			ContactPerson: utils.NewNullString(sp.ContactPerson),
			Phone:         sp.Phone,
			Email:         utils.NewNullString(sp.Email),
			Address:       utils.NewNullString(sp.Address),
		})
		if errors.Is(err, services.ErrValidation) && s.lookupSupplier(ctx, sp, supplierIDs) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("supplier %q: %w", sp.Name, err)
		}
		supplierIDs[key] = supplier.ID
		res.Suppliers++
	}

	for _, p := range f.Products {
		req, err := p.request(categoryIDs, supplierIDs)
		if err != nil {
			return res, fmt.Errorf("product %q: %w", p.Name, err)
		}
		if _, err := s.catalog.CreateProduct(ctx, req, actorID); err != nil {
			return res, fmt.Errorf("product %q: %w", p.Name, err)
		}
		res.Products++
	}

	utils.LogInfo("seed applied", map[string]interface{}{
		"users": res.Users, "categories": res.Categories, "suppliers": res.Suppliers,
		"products": res.Products, "skipped": res.Skipped,
	})
	return res, nil
}

func (s *Seeder) existingCategories(ctx context.Context) (map[string]int64, error) {
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	ids := make(map[string]int64, len(categories))
	for _, c := range categories {
		ids[strings.ToLower(strings.TrimSpace(c.Name))] = c.ID
	}
	return ids, nil
}

// lookupSupplier resolves a supplier rejected as a duplicate phone to the stored one.
func (s *Seeder) lookupSupplier(ctx context.Context, sp Supplier, ids map[string]int64) bool {
	phone := sp.Phone
	found, _, err := s.suppliers.ListSuppliers(ctx, &phone, 1, 1)
	if err != nil || len(found) == 0 {
		return false
	}
	ids[strings.ToLower(strings.TrimSpace(sp.Name))] = found[0].ID
	return true
}

func (p Product) request(categories, suppliers map[string]int64) (services.ProductRequest, error) {
	req := services.ProductRequest{
		Name:             p.Name,
		ProductType:      p.ProductType,
		Description:      utils.NewNullString(p.Description),
		SupplierItemCode: utils.NewNullString(p.SupplierItemCode),
		Material:         utils.NewNullString(p.Material),
		OpeningSide:      utils.NewNullString(p.OpeningSide),
		TrackStock:       p.TrackStock,
	}
	if req.ProductType == "" {
		req.ProductType = string(models.ProductTypeReadyMade)
	}

	categoryID, ok := categories[strings.ToLower(strings.TrimSpace(p.Category))]
	if !ok {
		return req, fmt.Errorf("unknown category %q", p.Category)
	}
	req.CategoryID = categoryID
	if p.Supplier != "" {
		supplierID, ok := suppliers[strings.ToLower(strings.TrimSpace(p.Supplier))]
		if !ok {
			return req, fmt.Errorf("unknown supplier %q", p.Supplier)
		}
		req.SupplierID = &supplierID
	}

	amounts := []struct {
		field string
		raw   string
		dst   *decimal.Decimal
	}{
		{"cost_price", p.CostPrice, &req.CostPrice},
		{"selling_price", p.SellingPrice, &req.SellingPrice},
		{"opening_stock", p.OpeningStock, &req.OpeningStock},
		{"min_stock_level", p.MinStockLevel, &req.MinStockLevel},
	}
	for _, a := range amounts {
		if a.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(a.raw)
		if err != nil {
			return req, fmt.Errorf("%s: %w", a.field, err)
		}
		*a.dst = d
	}

	dimensions := []struct {
		field string
		raw   string
		dst   *decimal.NullDecimal
	}{
		{"width", p.Width, &req.Width},
		{"height", p.Height, &req.Height},
		{"thickness", p.Thickness, &req.Thickness},
	}
	for _, dim := range dimensions {
		if dim.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(dim.raw)
		if err != nil {
			return req, fmt.Errorf("%s: %w", dim.field, err)
		}
		*dim.dst = decimal.NewNullDecimal(d)
	}
	return req, nil
}
