package services

import (
	"context"
	"testing"

	"door_shop_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_CreateProductWithOpeningStock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, CostingLatest)
	cat, err := env.catalog.CreateCategory(ctx, CategoryRequest{Name: "Interior"})
	require.NoError(t, err)

	env.expectTx(true)
	p, err := env.catalog.CreateProduct(ctx, ProductRequest{
		CategoryID:   cat.ID,
		Name:         "Oak door",
		ProductType:  "ready_made",
		Width:        decimal.NewNullDecimal(dec("80")),
		Height:       decimal.NewNullDecimal(dec("200")),
		Thickness:    decimal.NewNullDecimal(dec("4")),
		CostPrice:    dec("60"),
		SellingPrice: dec("100"),
		OpeningStock: dec("12"),
	}, 5)
	require.NoError(t, err)
	require.NoError(t, env.mock.ExpectationsWereMet())

	assert.True(t, p.TrackStock, "stock is tracked unless disabled")
	assert.True(t, dec("12").Equal(p.CurrentStock))
	assert.Equal(t, "Oak door (80x200x4)", p.DisplayName())
	require.Len(t, env.store.movements, 1)
	assert.Equal(t, "product", *env.store.movements[0].ReferenceType)

	info, err := env.catalog.GetStockInfo(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, dec("12").Equal(info.CurrentStock))
	assert.Equal(t, "Doors", info.Category)
}

func TestCatalogService_UpdateProductKeepsStock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, CostingLatest)
	door := env.store.addProduct("Oak door", "7", "60", "100", true)

	updated, err := env.catalog.UpdateProduct(ctx, door.ID, ProductRequest{
		CategoryID:   1,
		Name:         "Oak door, varnished",
		ProductType:  "ready_made",
		CostPrice:    dec("65"),
		SellingPrice: dec("120"),
		OpeningStock: dec("99"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Oak door, varnished", updated.Name)
	assert.True(t, dec("7").Equal(updated.CurrentStock))
	assert.Empty(t, env.store.movements)
}

func TestCatalogService_ProductValidation(t *testing.T) {
	env := newTestEnv(t, CostingLatest)
	base := ProductRequest{CategoryID: 1, Name: "Door", ProductType: "ready_made"}

	badType := base
	badType.ProductType = "window"
	zeroWidth := base
	zeroWidth.Width = decimal.NewNullDecimal(decimal.Zero)
	negPrice := base
	negPrice.SellingPrice = dec("-1")

	for name, req := range map[string]ProductRequest{"type": badType, "width": zeroWidth, "price": negPrice} {
		_, err := env.catalog.CreateProduct(context.Background(), req, 1)
		assert.ErrorIs(t, err, ErrValidation, name)
	}
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCatalogService_DeleteReferencedCategory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, CostingLatest)
	cat, err := env.catalog.CreateCategory(ctx, CategoryRequest{Name: "Frames"})
	require.NoError(t, err)
	p := env.store.addProduct("Frame", "1", "1", "2", true)
	env.store.products[p.ID].CategoryID = cat.ID

	err = env.catalog.DeleteCategory(ctx, cat.ID)
	require.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "products_category_id_fkey", verr.Constraint)

	assert.ErrorIs(t, env.catalog.DeleteCategory(ctx, 9999), ErrNotFound)
}

func TestCatalogService_QuickSearch(t *testing.T) {
	env := newTestEnv(t, CostingLatest)
	env.store.addProduct("Oak door", "1", "1", "2", true)
	env.store.addProduct("Pine door", "1", "1", "2", true)
	env.store.addProduct("Handle", "1", "1", "2", true)

	found, err := env.catalog.QuickSearchProducts(context.Background(), " door ")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	none, err := env.catalog.QuickSearchProducts(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, none)

	bad := "window"
	_, _, err = env.catalog.ListProducts(context.Background(), models.ProductFilters{ProductType: &bad})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPaymentService_RecordPayment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, CostingLatest)
	door := env.store.addProduct("Oak door", "3", "60", "100", true)

	env.expectTx(true)
	sale, err := env.sales.CreateSale(ctx, CreateSaleRequest{
		Items:         []CreateSaleItemRequest{{ProductID: door.ID, Quantity: dec("1"), UnitPrice: dec("100")}},
		PaymentMethod: "due",
	}, 1)
	require.NoError(t, err)

	payment, err := env.payments.RecordPayment(ctx, sale.ID, RecordPaymentRequest{Amount: dec("40"), PaymentMethod: "cash"}, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), payment.RecordedBy)

	payments, err := env.payments.ListPayments(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, dec("40").Equal(payments[0].Amount))

	_, err = env.payments.RecordPayment(ctx, sale.ID, RecordPaymentRequest{Amount: dec("0"), PaymentMethod: "cash"}, 4)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.payments.RecordPayment(ctx, 9999, RecordPaymentRequest{Amount: dec("1"), PaymentMethod: "cash"}, 4)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.payments.ListPayments(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
