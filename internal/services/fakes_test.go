package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory stand-in for every repository the services use.
// It ignores the executor; transaction boundaries are asserted through sqlmock.
type memStore struct {
	mu     sync.Mutex
	nextID int64

	categories    map[int64]*models.Category
	products      map[int64]*models.Product
	suppliers     map[int64]*models.Supplier
	customers     map[int64]*models.Customer
	orders        map[int64]*models.PurchaseOrder
	purchaseItems []models.PurchaseItem
	sales         map[int64]*models.Sale
	saleItems     []models.SaleItem
	payments      []models.Payment
	adjustments   []models.StockAdjustment
	movements     []models.StockMovement
	layers        []models.CostLayer
	summaries     map[string]*models.DailySummary
	lockedDates   []string

	// createCustomerHook runs before a customer insert; a non-nil error aborts it.
	createCustomerHook func(c *models.Customer) error
	// decrementStockHook runs before a stock decrement; a non-nil error aborts it.
	decrementStockHook func(productID int64) error

	// txSnapshot is the state before the first write of the open transaction.
	txSnapshot      *memSnapshot
	writesOutsideTx int
}

type memSnapshot struct {
	products  map[int64]models.Product
	sales     map[int64]models.Sale
	saleItems []models.SaleItem
	movements []models.StockMovement
	layers    []models.CostLayer
	summaries map[string]models.DailySummary
}

// write notes a mutation. Writes through a *sql.Tx can be undone with rollback;
// any other executor counts as a write outside a transaction. Callers hold mu.
func (m *memStore) write(executor repositories.SQLExecutor) {
	if tx, ok := executor.(*sql.Tx); ok && tx != nil {
		if m.txSnapshot == nil {
			snap := m.snapshotLocked()
			m.txSnapshot = &snap
		}
		return
	}
	m.writesOutsideTx++
}

func (m *memStore) snapshotLocked() memSnapshot {
	snap := memSnapshot{
		products:  make(map[int64]models.Product, len(m.products)),
		sales:     make(map[int64]models.Sale, len(m.sales)),
		saleItems: append([]models.SaleItem(nil), m.saleItems...),
		movements: append([]models.StockMovement(nil), m.movements...),
		layers:    append([]models.CostLayer(nil), m.layers...),
		summaries: make(map[string]models.DailySummary, len(m.summaries)),
	}
	for id, p := range m.products {
		snap.products[id] = *p
	}
	for id, sale := range m.sales {
		snap.sales[id] = *sale
	}
	for k, sum := range m.summaries {
		snap.summaries[k] = *sum
	}
	return snap
}

// rollback restores the state captured before the open transaction's first write.
func (m *memStore) rollback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.txSnapshot
	m.txSnapshot = nil
	if snap == nil {
		return
	}
	m.products = make(map[int64]*models.Product, len(snap.products))
	for id, p := range snap.products {
		p := p
		m.products[id] = &p
	}
	m.sales = make(map[int64]*models.Sale, len(snap.sales))
	for id, sale := range snap.sales {
		sale := sale
		m.sales[id] = &sale
	}
	m.summaries = make(map[string]*models.DailySummary, len(snap.summaries))
	for k, sum := range snap.summaries {
		sum := sum
		m.summaries[k] = &sum
	}
	m.saleItems, m.movements, m.layers = snap.saleItems, snap.movements, snap.layers
}

func newMemStore() *memStore {
	return &memStore{
		categories: map[int64]*models.Category{},
		products:   map[int64]*models.Product{},
		suppliers:  map[int64]*models.Supplier{},
		customers:  map[int64]*models.Customer{},
		orders:     map[int64]*models.PurchaseOrder{},
		sales:      map[int64]*models.Sale{},
		summaries:  map[string]*models.DailySummary{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func dup(entity string) error {
	return fmt.Errorf("%w: duplicate (constraint: %s)", repositories.ErrDuplicateKey, entity)
}

// --- products ---

func (m *memStore) addProduct(name string, stock, cost, price string, tracked bool) *models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Product{
		ID:           m.id(),
		CategoryID:   1,
		Name:         name,
		ProductType:  models.ProductTypeReadyMade,
		CurrentStock: decimal.RequireFromString(stock),
		CostPrice:    decimal.RequireFromString(cost),
		SellingPrice: decimal.RequireFromString(price),
		TrackStock:   tracked,
	}
	m.products[p.ID] = p
	cp := *p
	return &cp
}

func (m *memStore) product(id int64) models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.products[id]
}

func (m *memStore) CreateProduct(_ context.Context, _ repositories.SQLExecutor, p *models.Product) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	cp := *p
	m.products[p.ID] = &cp
	return p.ID, nil
}

func (m *memStore) GetProductByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	cp.Category = &models.Category{ID: p.CategoryID, Name: "Doors"}
	return &cp, nil
}

func (m *memStore) GetProductForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.Product, error) {
	return m.GetProductByID(ctx, exec, id)
}

func (m *memStore) GetProducts(_ context.Context, _ models.ProductFilters) ([]models.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *memStore) QuickSearchProducts(_ context.Context, term string, limit int) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(term)) && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) UpdateProduct(_ context.Context, _ repositories.SQLExecutor, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.products[p.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stock := stored.CurrentStock
	cp := *p
	cp.CurrentStock = stock
	m.products[p.ID] = &cp
	return nil
}

func (m *memStore) DeleteProduct(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memStore) IncrementStock(_ context.Context, executor repositories.SQLExecutor, id int64, qty decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(executor)
	p, ok := m.products[id]
	if !ok {
		return decimal.Zero, repositories.ErrNotFound
	}
	p.CurrentStock = p.CurrentStock.Add(qty)
	return p.CurrentStock, nil
}

func (m *memStore) DecrementStock(_ context.Context, executor repositories.SQLExecutor, id int64, qty decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(executor)
	p, ok := m.products[id]
	if !ok {
		return decimal.Zero, repositories.ErrNotFound
	}
	if m.decrementStockHook != nil {
		if err := m.decrementStockHook(id); err != nil {
			return decimal.Zero, err
		}
	}
	if p.CurrentStock.LessThan(qty) {
		return decimal.Zero, repositories.ErrStockConflict
	}
	p.CurrentStock = p.CurrentStock.Sub(qty)
	return p.CurrentStock, nil
}

func (m *memStore) UpdateCostPrice(_ context.Context, executor repositories.SQLExecutor, id int64, cost decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(executor)
	p, ok := m.products[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.CostPrice = cost
	return nil
}

// --- categories ---

func (m *memStore) CreateCategory(_ context.Context, _ repositories.SQLExecutor, c *models.Category) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	cp := *c
	m.categories[c.ID] = &cp
	return c.ID, nil
}

func (m *memStore) GetCategoryByID(_ context.Context, id int64) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) GetCategories(_ context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Category{}
	for _, c := range m.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memStore) UpdateCategory(_ context.Context, _ repositories.SQLExecutor, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[c.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *memStore) DeleteCategory(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.CategoryID == id {
			return fmt.Errorf("%w: still referenced (constraint: products_category_id_fkey)", repositories.ErrForeignKey)
		}
	}
	if _, ok := m.categories[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

// --- suppliers ---

func (m *memStore) CreateSupplier(_ context.Context, _ repositories.SQLExecutor, s *models.Supplier) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.suppliers {
		if existing.Phone == s.Phone {
			return 0, dup("suppliers_phone_key")
		}
	}
	s.ID = m.id()
	cp := *s
	m.suppliers[s.ID] = &cp
	return s.ID, nil
}

func (m *memStore) GetSupplierByID(_ context.Context, id int64) (*models.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.suppliers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) GetSupplierByName(_ context.Context, name string) (*models.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.suppliers {
		if s.Name == name {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memStore) GetSuppliers(_ context.Context, _ *string, _, _ int) ([]models.Supplier, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Supplier{}
	for _, s := range m.suppliers {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *memStore) UpdateSupplier(_ context.Context, _ repositories.SQLExecutor, s *models.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.suppliers[s.ID]; !ok {
		return repositories.ErrNotFound
	}
	for id, existing := range m.suppliers {
		if id != s.ID && existing.Phone == s.Phone {
			return dup("suppliers_phone_key")
		}
	}
	cp := *s
	m.suppliers[s.ID] = &cp
	return nil
}

func (m *memStore) DeleteSupplier(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.suppliers[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.suppliers, id)
	return nil
}

// --- customers ---

func (m *memStore) CreateCustomer(_ context.Context, _ repositories.SQLExecutor, c *models.Customer) (int64, error) {
	if m.createCustomerHook != nil {
		if err := m.createCustomerHook(c); err != nil {
			return 0, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Phone != nil {
		for _, existing := range m.customers {
			if existing.Phone != nil && *existing.Phone == *c.Phone {
				return 0, dup("customers_phone_key")
			}
		}
	}
	c.ID = m.id()
	cp := *c
	m.customers[c.ID] = &cp
	return c.ID, nil
}

func (m *memStore) GetCustomerByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) GetCustomerByPhone(_ context.Context, _ repositories.SQLExecutor, phone string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.Phone != nil && *c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memStore) GetCustomers(_ context.Context, _ *string, _, _ int) ([]models.Customer, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Customer{}
	for _, c := range m.customers {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *memStore) UpdateCustomer(_ context.Context, _ repositories.SQLExecutor, c *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.customers[c.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *c
	m.customers[c.ID] = &cp
	return nil
}

func (m *memStore) DeleteCustomer(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.customers[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.customers, id)
	return nil
}

// --- purchase orders ---

func (m *memStore) CreatePurchaseOrder(_ context.Context, _ repositories.SQLExecutor, o *models.PurchaseOrder) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.id()
	cp := *o
	cp.Items = nil
	m.orders[o.ID] = &cp
	return o.ID, nil
}

func (m *memStore) GetPurchaseOrderByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) GetPurchaseOrderForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.PurchaseOrder, error) {
	return m.GetPurchaseOrderByID(ctx, exec, id)
}

func (m *memStore) GetPurchaseOrders(_ context.Context, filters models.PurchaseOrderFilters) ([]models.PurchaseOrder, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.PurchaseOrder{}
	for _, o := range m.orders {
		if filters.Status != nil && string(o.Status) != *filters.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *memStore) GetPurchaseOrderStats(_ context.Context) (*models.PurchaseOrderStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.PurchaseOrderStats{TotalAmount: decimal.Zero}
	for _, o := range m.orders {
		stats.TotalPurchases++
		stats.TotalAmount = stats.TotalAmount.Add(o.TotalAmount)
		switch o.Status {
		case models.PurchaseOrderPending:
			stats.PendingCount++
		case models.PurchaseOrderReceived:
			stats.ReceivedCount++
		}
	}
	return stats, nil
}

func (m *memStore) UpdatePurchaseOrderStatus(_ context.Context, _ repositories.SQLExecutor, o *models.PurchaseOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.Status, stored.ReceivedAt, stored.ReceivedBy = o.Status, o.ReceivedAt, o.ReceivedBy
	return nil
}

func (m *memStore) UpdatePurchaseOrderTotal(_ context.Context, _ repositories.SQLExecutor, id int64, total decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[id]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.TotalAmount = total
	return nil
}

func (m *memStore) CreatePurchaseItem(_ context.Context, _ repositories.SQLExecutor, item *models.PurchaseItem) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.Recalculate()
	item.ID = m.id()
	m.purchaseItems = append(m.purchaseItems, *item)
	return item.ID, nil
}

func (m *memStore) GetPurchaseItems(_ context.Context, _ repositories.SQLExecutor, orderID int64) ([]models.PurchaseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.PurchaseItem{}
	for _, item := range m.purchaseItems {
		if item.PurchaseOrderID == orderID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memStore) DeletePurchaseItem(_ context.Context, _ repositories.SQLExecutor, orderID, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.purchaseItems {
		if item.ID == itemID && item.PurchaseOrderID == orderID {
			m.purchaseItems = append(m.purchaseItems[:i], m.purchaseItems[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

// --- sales ---

func (m *memStore) CreateSale(_ context.Context, executor repositories.SQLExecutor, s *models.Sale) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(executor)
	s.ID = m.id()
	cp := *s
	cp.Items = nil
	m.sales[s.ID] = &cp
	return s.ID, nil
}

func (m *memStore) UpdateSaleTotals(_ context.Context, executor repositories.SQLExecutor, s *models.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(executor)
	stored, ok := m.sales[s.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.TotalAmount, stored.GrandTotal, stored.ChangeGiven = s.TotalAmount, s.GrandTotal, s.ChangeGiven
	return nil
}

func (m *memStore) CreateSaleItem(_ context.Context, executor repositories.SQLExecutor, item *models.SaleItem) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(executor)
	item.Recalculate()
	item.ID = m.id()
	m.saleItems = append(m.saleItems, *item)
	return item.ID, nil
}

func (m *memStore) GetSaleByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) GetSaleItems(_ context.Context, saleID int64) ([]models.SaleItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.SaleItem{}
	for _, item := range m.saleItems {
		if item.SaleID == saleID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memStore) GetSales(_ context.Context, customerID *int64, from, to *time.Time, _, _ int) ([]models.Sale, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Sale{}
	for _, s := range m.sales {
		if customerID != nil && (s.CustomerID == nil || *s.CustomerID != *customerID) {
			continue
		}
		if from != nil && s.SaleDate.Before(*from) {
			continue
		}
		if to != nil && !s.SaleDate.Before(*to) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memStore) MarkReceiptPrinted(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sales[id]
	if !ok {
		return repositories.ErrNotFound
	}
	s.ReceiptPrinted = true
	return nil
}

func (m *memStore) GetCustomerSaleStats(_ context.Context, customerID int64) (*models.CustomerSalesStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.CustomerSalesStats{TotalAmount: decimal.Zero, TotalDiscount: decimal.Zero, ByMethod: []models.PaymentMethodTotals{}}
	for _, s := range m.sales {
		if s.CustomerID != nil && *s.CustomerID == customerID {
			stats.SalesCount++
			stats.TotalAmount = stats.TotalAmount.Add(s.GrandTotal)
			stats.TotalDiscount = stats.TotalDiscount.Add(s.DiscountAmount)
		}
	}
	return stats, nil
}

// --- payments ---

func (m *memStore) CreatePayment(_ context.Context, _ repositories.SQLExecutor, p *models.Payment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	m.payments = append(m.payments, *p)
	return p.ID, nil
}

func (m *memStore) GetPaymentsBySale(_ context.Context, saleID int64) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Payment{}
	for _, p := range m.payments {
		if p.SaleID == saleID {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- stock adjustments and movements ---

func (m *memStore) CreateStockAdjustment(_ context.Context, _ repositories.SQLExecutor, a *models.StockAdjustment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.id()
	m.adjustments = append(m.adjustments, *a)
	return a.ID, nil
}

func (m *memStore) GetStockAdjustments(_ context.Context, _ *int64, _, _ int) ([]models.StockAdjustment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.StockAdjustment{}, m.adjustments...)
	return out, len(out), nil
}

func (m *memStore) GetStockAdjustmentStats(_ context.Context) (*models.StockAdjustmentStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.StockAdjustmentStats{TotalStockIn: decimal.Zero, TotalStockOut: decimal.Zero}
	for _, a := range m.adjustments {
		stats.TotalAdjustments++
		switch a.AdjustmentType {
		case models.AdjustmentIn:
			stats.StockInCount++
			if a.StockApplied {
				stats.TotalStockIn = stats.TotalStockIn.Add(a.Quantity)
			}
		case models.AdjustmentOut:
			stats.StockOutCount++
			if a.StockApplied {
				stats.TotalStockOut = stats.TotalStockOut.Add(a.Quantity)
			}
		case models.AdjustmentAdjust:
			stats.AdjustmentCount++
		}
	}
	stats.NetChange = stats.TotalStockIn.Sub(stats.TotalStockOut)
	return stats, nil
}

func (m *memStore) CreateMovement(_ context.Context, executor repositories.SQLExecutor, mv *models.StockMovement) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(executor)
	mv.ID = m.id()
	m.movements = append(m.movements, *mv)
	return mv.ID, nil
}

func (m *memStore) GetMovements(_ context.Context, filters models.StockMovementFilters, _, _ *time.Time) ([]models.StockMovement, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.StockMovement{}
	for _, mv := range m.movements {
		if filters.ProductID != nil && mv.ProductID != *filters.ProductID {
			continue
		}
		out = append(out, mv)
	}
	return out, len(out), nil
}

// --- cost layers ---

func (m *memStore) CreateCostLayer(_ context.Context, executor repositories.SQLExecutor, l *models.CostLayer) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(executor)
	l.ID = m.id()
	if l.ReceivedAt.IsZero() {
		l.ReceivedAt = time.Now()
	}
	m.layers = append(m.layers, *l)
	return l.ID, nil
}

func (m *memStore) GetOpenCostLayers(_ context.Context, _ repositories.SQLExecutor, productID int64) ([]models.CostLayer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CostLayer{}
	for _, l := range m.layers {
		if l.ProductID == productID && l.QuantityRemaining.IsPositive() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) UpdateCostLayerRemaining(_ context.Context, executor repositories.SQLExecutor, id int64, remaining decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(executor)
	for i := range m.layers {
		if m.layers[i].ID == id {
			m.layers[i].QuantityRemaining = remaining
			return nil
		}
	}
	return repositories.ErrNotFound
}

// --- daily summaries ---

func (m *memStore) LockDate(_ context.Context, _ repositories.SQLExecutor, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockedDates = append(m.lockedDates, date.Format("2006-01-02"))
	return nil
}

func (m *memStore) AggregateSales(_ context.Context, _ repositories.SQLExecutor, from, to time.Time, snapshotCost bool) (*models.DailySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.DailySummary{
		TotalSales: decimal.Zero, TotalCash: decimal.Zero, TotalCard: decimal.Zero, TotalMobile: decimal.Zero,
		TotalDue: decimal.Zero, TotalDiscount: decimal.Zero, TotalProfit: decimal.Zero,
	}
	inRange := map[int64]bool{}
	for _, sale := range m.sales {
		if sale.SaleDate.Before(from) || !sale.SaleDate.Before(to) {
			continue
		}
		inRange[sale.ID] = true
		s.SaleCount++
		s.TotalSales = s.TotalSales.Add(sale.GrandTotal)
		s.TotalDiscount = s.TotalDiscount.Add(sale.DiscountAmount)
		switch sale.PaymentMethod {
		case models.PaymentCash:
			s.TotalCash = s.TotalCash.Add(sale.GrandTotal)
		case models.PaymentCard:
			s.TotalCard = s.TotalCard.Add(sale.GrandTotal)
		case models.PaymentMobile:
			s.TotalMobile = s.TotalMobile.Add(sale.GrandTotal)
		case models.PaymentDue:
			s.TotalDue = s.TotalDue.Add(sale.GrandTotal)
		}
	}
	for _, item := range m.saleItems {
		if !inRange[item.SaleID] {
			continue
		}
		cost := m.products[item.ProductID].CostPrice
		if snapshotCost {
			cost = item.UnitCost
		}
		s.TotalProfit = s.TotalProfit.Add(item.TotalPrice.Sub(cost.Mul(item.Quantity)))
	}
	return s, nil
}

func (m *memStore) UpsertDailySummary(_ context.Context, executor repositories.SQLExecutor, s *models.DailySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(executor)
	key := s.Date.Format("2006-01-02")
	if existing, ok := m.summaries[key]; ok {
		s.ID, s.CreatedAt = existing.ID, existing.CreatedAt
	} else {
		s.ID, s.CreatedAt = m.id(), time.Now()
	}
	s.UpdatedAt = time.Now()
	cp := *s
	m.summaries[key] = &cp
	return nil
}

func (m *memStore) GetDailySummaryByDate(_ context.Context, date time.Time) (*models.DailySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.summaries[date.Format("2006-01-02")]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// --- test environment ---

// testEnv wires every service over one memStore and a sqlmock database.
type testEnv struct {
	store       *memStore
	db          *sql.DB
	mock        sqlmock.Sqlmock
	ledger      StockLedger
	summaries   DailySummaryService
	sales       *saleService
	purchases   *purchaseService
	adjustments AdjustmentService
	customers   CustomerService
	catalog     CatalogService
	payments    PaymentService
}

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func newTestEnv(t *testing.T, costing CostingMethod) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := newMemStore()
	ledger := NewStockLedger(store, store, nil)
	strategy, err := NewCostingStrategy(string(costing), store, store)
	require.NoError(t, err)
	summaries := NewDailySummaryService(db, store, time.UTC, ProfitCostCurrent, nil)

	sales := NewSaleService(db, store, store, store, ledger, strategy, summaries, nil).(*saleService)
	sales.now = func() time.Time { return fixedNow }
	purchases := NewPurchaseService(db, store, store, store, ledger, strategy).(*purchaseService)
	purchases.now = func() time.Time { return fixedNow }

	return &testEnv{
		store:       store,
		db:          db,
		mock:        mock,
		ledger:      ledger,
		summaries:   summaries,
		sales:       sales,
		purchases:   purchases,
		adjustments: NewAdjustmentService(db, store, store, store, ledger, summaries, AdjustPolicyRecordOnly),
		customers:   NewCustomerService(db, store, store),
		catalog:     NewCatalogService(db, store, store, ledger),
		payments:    NewPaymentService(db, store, store),
	}
}

// expectTx registers one transaction that either commits or rolls back.
func (e *testEnv) expectTx(commit bool) {
	e.mock.ExpectBegin()
	if commit {
		e.mock.ExpectCommit()
	} else {
		e.mock.ExpectRollback()
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
