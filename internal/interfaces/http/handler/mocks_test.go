package handler

import (
	"context"
	"io"

	financeapp "github.com/erp/backoffice/internal/application/finance"
	partnerapp "github.com/erp/backoffice/internal/application/partner"
	reportapp "github.com/erp/backoffice/internal/application/report"
	tradeapp "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/domain/report"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCustomerService implements CustomerService for testing
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Create(ctx context.Context, req partnerapp.CreateCustomerRequest) (*partnerapp.CustomerResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) GetByID(ctx context.Context, customerID uuid.UUID) (*partnerapp.CustomerResponse, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) List(ctx context.Context, filter partnerapp.CustomerListFilter) ([]partnerapp.CustomerResponse, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partnerapp.CustomerResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerService) Update(ctx context.Context, customerID uuid.UUID, req partnerapp.UpdateCustomerRequest) (*partnerapp.CustomerResponse, error) {
	args := m.Called(ctx, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.CustomerResponse), args.Error(1)
}

func (m *MockCustomerService) Delete(ctx context.Context, customerID uuid.UUID) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *MockCustomerService) Restore(ctx context.Context, customerID uuid.UUID) (*partnerapp.CustomerResponse, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partnerapp.CustomerResponse), args.Error(1)
}

// MockOrderService implements OrderService for testing
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*tradeapp.OrderResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.OrderResponse), args.Error(1)
}

func (m *MockOrderService) Create(ctx context.Context, req tradeapp.CreateOrderRequest) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, req))
}

func (m *MockOrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, orderID))
}

func (m *MockOrderService) List(ctx context.Context, filter tradeapp.OrderListFilter) ([]tradeapp.OrderResponse, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]tradeapp.OrderResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) Update(ctx context.Context, orderID uuid.UUID, req tradeapp.UpdateOrderRequest) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, orderID, req))
}

func (m *MockOrderService) AddItem(ctx context.Context, orderID uuid.UUID, req tradeapp.OrderItemInput) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, orderID, req))
}

func (m *MockOrderService) UpdateItem(ctx context.Context, orderID, itemID uuid.UUID, req tradeapp.UpdateOrderItemRequest) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, orderID, itemID, req))
}

func (m *MockOrderService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, orderID, itemID))
}

func (m *MockOrderService) AddPayment(ctx context.Context, orderID uuid.UUID, req tradeapp.OrderPaymentRequest) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, orderID, req))
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req tradeapp.OrderStatusRequest) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, orderID, req))
}

func (m *MockOrderService) BulkUpdateStatus(ctx context.Context, req tradeapp.BulkOrderStatusRequest) (*tradeapp.BulkStatusResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.BulkStatusResponse), args.Error(1)
}

func (m *MockOrderService) Recalculate(ctx context.Context, orderID uuid.UUID) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, orderID))
}

func (m *MockOrderService) ResyncCustomer(ctx context.Context, orderID uuid.UUID) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, orderID))
}

func (m *MockOrderService) Delete(ctx context.Context, orderID uuid.UUID, hard bool) error {
	return m.Called(ctx, orderID, hard).Error(0)
}

func (m *MockOrderService) Restore(ctx context.Context, orderID uuid.UUID) (*tradeapp.OrderResponse, error) {
	return m.order(m.Called(ctx, orderID))
}

// MockSaleService implements SaleService and ExportService for testing
type MockSaleService struct {
	mock.Mock
}

func (m *MockSaleService) sale(args mock.Arguments) (*tradeapp.SaleResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.SaleResponse), args.Error(1)
}

func (m *MockSaleService) Create(ctx context.Context, req tradeapp.CreateSaleRequest) (*tradeapp.SaleResponse, error) {
	return m.sale(m.Called(ctx, req))
}

func (m *MockSaleService) CreateFromOrder(ctx context.Context, req tradeapp.CreateSaleFromOrderRequest) (*tradeapp.SaleResponse, error) {
	return m.sale(m.Called(ctx, req))
}

func (m *MockSaleService) GetByID(ctx context.Context, saleID uuid.UUID) (*tradeapp.SaleResponse, error) {
	return m.sale(m.Called(ctx, saleID))
}

func (m *MockSaleService) GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*tradeapp.SaleResponse, error) {
	return m.sale(m.Called(ctx, invoiceNumber))
}

func (m *MockSaleService) List(ctx context.Context, filter tradeapp.SaleListFilter) ([]tradeapp.SaleResponse, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]tradeapp.SaleResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockSaleService) AddPayment(ctx context.Context, saleID uuid.UUID, req tradeapp.SalePaymentRequest) (*tradeapp.SaleResponse, error) {
	return m.sale(m.Called(ctx, saleID, req))
}

func (m *MockSaleService) UpdateStatus(ctx context.Context, saleID uuid.UUID, req tradeapp.SaleStatusRequest) (*tradeapp.SaleResponse, error) {
	return m.sale(m.Called(ctx, saleID, req))
}

func (m *MockSaleService) AddItem(ctx context.Context, saleID uuid.UUID, req tradeapp.SaleItemInput) (*tradeapp.SaleResponse, error) {
	return m.sale(m.Called(ctx, saleID, req))
}

func (m *MockSaleService) UpdateItem(ctx context.Context, saleID, itemID uuid.UUID, req tradeapp.UpdateSaleItemRequest) (*tradeapp.SaleResponse, error) {
	return m.sale(m.Called(ctx, saleID, itemID, req))
}

func (m *MockSaleService) RemoveItem(ctx context.Context, saleID, itemID uuid.UUID) (*tradeapp.SaleResponse, error) {
	return m.sale(m.Called(ctx, saleID, itemID))
}

func (m *MockSaleService) Recalculate(ctx context.Context, saleID uuid.UUID) (*tradeapp.SaleResponse, error) {
	return m.sale(m.Called(ctx, saleID))
}

func (m *MockSaleService) ResyncCustomer(ctx context.Context, saleID uuid.UUID) (*tradeapp.SaleResponse, error) {
	return m.sale(m.Called(ctx, saleID))
}

func (m *MockSaleService) Delete(ctx context.Context, saleID uuid.UUID, hard bool) error {
	return m.Called(ctx, saleID, hard).Error(0)
}

func (m *MockSaleService) Restore(ctx context.Context, saleID uuid.UUID) (*tradeapp.SaleResponse, error) {
	return m.sale(m.Called(ctx, saleID))
}

func (m *MockSaleService) Render(ctx context.Context, req tradeapp.ExportRequest, w io.Writer) (int, error) {
	args := m.Called(ctx, req, w)
	if content, ok := args.Get(0).(string); ok && args.Error(2) == nil {
		_, _ = io.WriteString(w, content)
	}
	return args.Int(1), args.Error(2)
}

func (m *MockSaleService) Archive(ctx context.Context, req tradeapp.ExportRequest) (*tradeapp.ExportArchiveResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.ExportArchiveResponse), args.Error(1)
}

// MockPayableService implements PayableService for testing
type MockPayableService struct {
	mock.Mock
}

func (m *MockPayableService) payable(args mock.Arguments) (*financeapp.PayableResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.PayableResponse), args.Error(1)
}

func (m *MockPayableService) Create(ctx context.Context, req financeapp.CreatePayableRequest) (*financeapp.PayableResponse, error) {
	return m.payable(m.Called(ctx, req))
}

func (m *MockPayableService) GetByID(ctx context.Context, payableID uuid.UUID) (*financeapp.PayableResponse, error) {
	return m.payable(m.Called(ctx, payableID))
}

func (m *MockPayableService) List(ctx context.Context, filter financeapp.PayableListFilter) ([]financeapp.PayableResponse, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]financeapp.PayableResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockPayableService) Update(ctx context.Context, payableID uuid.UUID, req financeapp.UpdatePayableRequest) (*financeapp.PayableResponse, error) {
	return m.payable(m.Called(ctx, payableID, req))
}

func (m *MockPayableService) AddPayment(ctx context.Context, payableID uuid.UUID, req financeapp.PayablePaymentRequest) (*financeapp.PayableResponse, error) {
	return m.payable(m.Called(ctx, payableID, req))
}

func (m *MockPayableService) ListPayments(ctx context.Context, payableID uuid.UUID) ([]financeapp.PayablePaymentResponse, error) {
	args := m.Called(ctx, payableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]financeapp.PayablePaymentResponse), args.Error(1)
}

func (m *MockPayableService) DeletePayment(ctx context.Context, payableID, paymentID uuid.UUID) (*financeapp.PayableResponse, error) {
	return m.payable(m.Called(ctx, payableID, paymentID))
}

func (m *MockPayableService) Cancel(ctx context.Context, payableID uuid.UUID, req financeapp.CancelPayableRequest) (*financeapp.PayableResponse, error) {
	return m.payable(m.Called(ctx, payableID, req))
}

func (m *MockPayableService) Delete(ctx context.Context, payableID uuid.UUID, hard bool) error {
	return m.Called(ctx, payableID, hard).Error(0)
}

func (m *MockPayableService) Restore(ctx context.Context, payableID uuid.UUID) (*financeapp.PayableResponse, error) {
	return m.payable(m.Called(ctx, payableID))
}

// MockSummaryService implements SummaryService for testing
type MockSummaryService struct {
	mock.Mock
}

func (m *MockSummaryService) Summary(ctx context.Context, req reportapp.SummaryRequest) (*report.LedgerSummary, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.LedgerSummary), args.Error(1)
}
