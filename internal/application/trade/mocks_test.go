package trade

import (
	"context"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/application/unitofwork"
	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]trade.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, order *trade.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*trade.Sale, error) {
	args := m.Called(ctx, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Sale), args.Error(1)
}

func (m *MockSaleRepository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Sale, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]trade.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindBySaleDate(ctx context.Context, from, to time.Time) ([]trade.Sale, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]trade.Sale), args.Error(1)
}

func (m *MockSaleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSaleRepository) Save(ctx context.Context, sale *trade.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *MockSaleRepository) SaveWithLock(ctx context.Context, sale *trade.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *MockSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Customer, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, sku string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, sku, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

type MockInvoiceAllocator struct {
	mock.Mock
}

func (m *MockInvoiceAllocator) Next(ctx context.Context, year int) (string, error) {
	args := m.Called(ctx, year)
	return args.String(0), args.Error(1)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *MockObjectStore) PresignDownload(ctx context.Context, key string) (string, time.Time, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// =============================================================================
// Helpers
// =============================================================================

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type countingInvalidator struct {
	count int
}

func (c *countingInvalidator) Invalidate(context.Context) { c.count++ }

func newRunner(inv *countingInvalidator) *unitofwork.Runner {
	return unitofwork.New(passthroughTx{}, nil, inv)
}

func newCustomer(t *testing.T) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer("Bilal Ahmed", "0300-5551234", "bilal@example.com")
	require.NoError(t, err)
	return c
}

func newProduct(t *testing.T, name string, price int64, qty int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, "", decimal.NewFromInt(price), qty)
	require.NoError(t, err)
	return p
}

func newOrder(t *testing.T, customer *partner.Customer) *trade.Order {
	t.Helper()
	o, err := trade.NewOrder(customer.ID, customerSnapshot(customer), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), nil, "Birthday cake")
	require.NoError(t, err)
	return o
}

// advanceTo walks an order through the state machine up to status
func advanceTo(t *testing.T, o *trade.Order, status trade.OrderStatus) {
	t.Helper()
	path := []trade.OrderStatus{trade.OrderStatusConfirmed, trade.OrderStatusInProduction, trade.OrderStatusReady, trade.OrderStatusDelivered}
	for _, next := range path {
		if o.Status == status {
			return
		}
		require.NoError(t, o.UpdateStatus(next, ""))
	}
	require.Equal(t, status, o.Status)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
