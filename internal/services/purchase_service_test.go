package services

import (
	"context"
	"testing"

	"door_shop_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSupplier(t *testing.T, env *testEnv) *models.Supplier {
	t.Helper()
	s := &models.Supplier{Name: "Timber Co", Phone: "5550100"}
	_, err := env.store.CreateSupplier(context.Background(), nil, s)
	require.NoError(t, err)
	return s
}

func TestPurchaseService_ReceiveOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, CostingLatest)
	supplier := seedSupplier(t, env)
	door := env.store.addProduct("Oak door", "0", "0", "150", true)

	env.expectTx(true)
	order, err := env.purchases.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{
		SupplierID: supplier.ID,
		Items:      []PurchaseItemRequest{{ProductID: door.ID, Quantity: dec("5"), UnitCost: dec("100")}},
	}, 3)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseOrderPending, order.Status)
	assert.True(t, dec("500").Equal(order.TotalAmount))
	assert.True(t, dec("0").Equal(env.store.product(door.ID).CurrentStock), "creating an order moves no stock")

	env.expectTx(true)
	received, err := env.purchases.ReceiveOrder(ctx, order.ID, 3)
	require.NoError(t, err)
	require.NoError(t, env.mock.ExpectationsWereMet())

	assert.Equal(t, models.PurchaseOrderReceived, received.Status)
	require.NotNil(t, received.ReceivedAt)
	assert.Equal(t, fixedNow, *received.ReceivedAt)
	assert.Equal(t, int64(3), *received.ReceivedBy)

	p := env.store.product(door.ID)
	assert.True(t, dec("5").Equal(p.CurrentStock))
	assert.True(t, dec("100").Equal(p.CostPrice))

	stored, err := env.purchases.GetPurchaseOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, dec("500").Equal(stored.TotalAmount))

	require.Len(t, env.store.movements, 1)
	assert.Equal(t, models.StockSourcePurchaseReceipt, env.store.movements[0].Source)
	assert.True(t, dec("5").Equal(env.store.movements[0].QuantityChanged))
}

func TestPurchaseService_OnlyPendingOrdersChange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, CostingLatest)
	supplier := seedSupplier(t, env)
	door := env.store.addProduct("Oak door", "0", "0", "150", true)

	env.expectTx(true)
	order, err := env.purchases.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{SupplierID: supplier.ID}, 1)
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.IsZero())

	env.expectTx(true)
	order, err = env.purchases.AddItem(ctx, order.ID, PurchaseItemRequest{ProductID: door.ID, Quantity: dec("2"), UnitCost: dec("80")}, 1)
	require.NoError(t, err)
	assert.True(t, dec("160").Equal(order.TotalAmount))

	env.expectTx(true)
	order, err = env.purchases.AddItem(ctx, order.ID, PurchaseItemRequest{ProductID: door.ID, Quantity: dec("1"), UnitCost: dec("90")}, 1)
	require.NoError(t, err)
	assert.True(t, dec("250").Equal(order.TotalAmount))

	env.expectTx(true)
	order, err = env.purchases.RemoveItem(ctx, order.ID, order.Items[0].ID, 1)
	require.NoError(t, err)
	assert.True(t, dec("90").Equal(order.TotalAmount))

	env.expectTx(true)
	cancelled, err := env.purchases.CancelOrder(ctx, order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseOrderCancelled, cancelled.Status)

	for name, op := range map[string]func() error{
		"receive": func() error { _, err := env.purchases.ReceiveOrder(ctx, order.ID, 1); return err },
		"cancel":  func() error { _, err := env.purchases.CancelOrder(ctx, order.ID, 1); return err },
		"add": func() error {
			_, err := env.purchases.AddItem(ctx, order.ID, PurchaseItemRequest{ProductID: door.ID, Quantity: dec("1"), UnitCost: dec("1")}, 1)
			return err
		},
	} {
		env.expectTx(false)
		err := op()
		assert.ErrorIs(t, err, ErrInvalidState, name)
	}
	require.NoError(t, env.mock.ExpectationsWereMet())
	assert.True(t, env.store.product(door.ID).CurrentStock.IsZero())
}

func TestPurchaseService_CreateRejectsUnknownSupplier(t *testing.T) {
	env := newTestEnv(t, CostingLatest)
	_, err := env.purchases.CreatePurchaseOrder(context.Background(), CreatePurchaseOrderRequest{SupplierID: 42}, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, env.store.orders)
}

func TestPurchaseService_FIFOReceiptThenSale(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, CostingFIFO)
	supplier := seedSupplier(t, env)
	door := env.store.addProduct("Oak door", "0", "0", "150", true)

	for _, cost := range []string{"100", "130"} {
		env.expectTx(true)
		order, err := env.purchases.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{
			SupplierID: supplier.ID,
			Items:      []PurchaseItemRequest{{ProductID: door.ID, Quantity: dec("2"), UnitCost: dec(cost)}},
		}, 1)
		require.NoError(t, err)
		env.expectTx(true)
		_, err = env.purchases.ReceiveOrder(ctx, order.ID, 1)
		require.NoError(t, err)
	}
	assert.True(t, dec("100").Equal(env.store.product(door.ID).CostPrice))

	env.expectTx(true)
	sale, err := env.sales.CreateSale(ctx, CreateSaleRequest{
		Items: []CreateSaleItemRequest{{ProductID: door.ID, Quantity: dec("3"), UnitPrice: dec("150")}},
	}, 1)
	require.NoError(t, err)
	assert.True(t, dec("110").Equal(sale.Items[0].UnitCost), sale.Items[0].UnitCost.String())
	assert.True(t, dec("130").Equal(env.store.product(door.ID).CostPrice))
	assert.True(t, dec("1").Equal(env.store.product(door.ID).CurrentStock))
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestPurchaseService_CreateRejectsExcessScale(t *testing.T) {
	env := newTestEnv(t, CostingLatest)
	door := env.store.addProduct("Oak door", "0", "0", "100", true)

	for name, item := range map[string]PurchaseItemRequest{
		"quantity": {ProductID: door.ID, Quantity: dec("1.0004"), UnitCost: dec("10")},
		"cost":     {ProductID: door.ID, Quantity: dec("1"), UnitCost: dec("3.335")},
	} {
		_, err := env.purchases.CreatePurchaseOrder(context.Background(), CreatePurchaseOrderRequest{
			SupplierID: 1,
			Items:      []PurchaseItemRequest{item},
		}, 1)
		assert.ErrorIs(t, err, ErrValidation, name)
	}
	assert.Empty(t, env.store.orders)
}
