package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type saleFixture struct {
	sales     *MockSaleRepository
	orders    *MockOrderRepository
	customers *MockCustomerRepository
	products  *MockProductRepository
	invoices  *MockInvoiceAllocator
	inv       *countingInvalidator
	svc       *SaleService
}

func newSaleFixture() *saleFixture {
	f := &saleFixture{
		sales:     new(MockSaleRepository),
		orders:    new(MockOrderRepository),
		customers: new(MockCustomerRepository),
		products:  new(MockProductRepository),
		invoices:  new(MockInvoiceAllocator),
		inv:       &countingInvalidator{},
	}
	f.svc = NewSaleService(f.sales, f.orders, f.customers, f.products, f.invoices, newRunner(f.inv))
	f.svc.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	return f
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %v", err)
	return domainErr.Code
}

func TestSaleService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("direct sale with initial payment", func(t *testing.T) {
		f := newSaleFixture()
		customer := newCustomer(t)
		cake := newProduct(t, "Cake", 1000, 5)
		f.customers.On("FindActiveByID", ctx, customer.ID).Return(customer, nil)
		f.products.On("FindActiveByID", ctx, cake.ID).Return(cake, nil)
		f.invoices.On("Next", ctx, 2026).Return("INV-2026-0007", nil)
		f.sales.On("Save", ctx, mock.AnythingOfType("*trade.Sale")).Return(nil)

		resp, err := f.svc.Create(ctx, CreateSaleRequest{
			CustomerID:    customer.ID,
			Items:         []SaleItemInput{{ProductID: cake.ID, Quantity: 1}},
			PaymentMethod: "CASH",
			AmountPaid:    dec("500"),
		})

		require.NoError(t, err)
		assert.Equal(t, "INV-2026-0007", resp.InvoiceNumber)
		assert.Equal(t, "DRAFT", resp.Status)
		assert.True(t, resp.Subtotal.Equal(dec("1000")))
		assert.True(t, resp.TaxAmount.Equal(dec("170")))
		assert.True(t, resp.GrandTotal.Equal(dec("1170")))
		assert.True(t, resp.RemainingAmount.Equal(dec("670")))
		assert.Nil(t, resp.OrderID)
		assert.Equal(t, 5, cake.Quantity, "stock is checked, not decremented")
		assert.Equal(t, 1, f.inv.count)
	})

	t.Run("stock is checked per product across lines", func(t *testing.T) {
		f := newSaleFixture()
		customer := newCustomer(t)
		cake := newProduct(t, "Cake", 1000, 3)
		f.customers.On("FindActiveByID", ctx, customer.ID).Return(customer, nil)
		f.products.On("FindActiveByID", ctx, cake.ID).Return(cake, nil)

		_, err := f.svc.Create(ctx, CreateSaleRequest{
			CustomerID: customer.ID,
			Items: []SaleItemInput{
				{ProductID: cake.ID, Quantity: 2},
				{ProductID: cake.ID, Quantity: 2},
			},
		})

		assert.Equal(t, "INSUFFICIENT_STOCK", codeOf(t, err))
		f.invoices.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
	})

	t.Run("split legs must add up", func(t *testing.T) {
		f := newSaleFixture()
		customer := newCustomer(t)
		cake := newProduct(t, "Cake", 1000, 3)
		f.customers.On("FindActiveByID", ctx, customer.ID).Return(customer, nil)
		f.products.On("FindActiveByID", ctx, cake.ID).Return(cake, nil)
		f.invoices.On("Next", ctx, 2026).Return("INV-2026-0008", nil)

		_, err := f.svc.Create(ctx, CreateSaleRequest{
			CustomerID:    customer.ID,
			Items:         []SaleItemInput{{ProductID: cake.ID, Quantity: 1}},
			PaymentMethod: "SPLIT",
			AmountPaid:    dec("600"),
			SplitPaymentDetails: []SplitPaymentInput{
				{Method: "CASH", Amount: dec("300")},
				{Method: "CARD", Amount: dec("200")},
			},
		})

		require.Error(t, err)
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
		f.sales.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Zero(t, f.inv.count)
	})
}

func readyOrder(t *testing.T) (*trade.Order, []uuid.UUID) {
	t.Helper()
	order := newOrder(t, newCustomer(t))
	cake, err := order.AddItem(uuid.New(), "Cake", 2, dec("1000"), "gold leaf")
	require.NoError(t, err)
	cakeID := cake.ID
	candles, err := order.AddItem(uuid.New(), "Candles", 1, dec("100"), "")
	require.NoError(t, err)
	candlesID := candles.ID
	require.NoError(t, order.AddPayment(dec("500")))
	advanceTo(t, order, trade.OrderStatusReady)
	return order, []uuid.UUID{cakeID, candlesID}
}

func TestSaleService_CreateFromOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("converts a ready order", func(t *testing.T) {
		f := newSaleFixture()
		order, _ := readyOrder(t)
		f.orders.On("FindByIDForUpdate", ctx, order.ID).Return(order, nil)
		f.sales.On("ExistsForOrder", ctx, order.ID).Return(false, nil)
		f.invoices.On("Next", ctx, 2026).Return("INV-2026-0001", nil)
		f.sales.On("Save", ctx, mock.AnythingOfType("*trade.Sale")).Return(nil)
		f.orders.On("SaveWithLock", ctx, order).Return(nil)

		resp, err := f.svc.CreateFromOrder(ctx, CreateSaleFromOrderRequest{
			OrderID:       order.ID,
			PaymentMethod: "CARD",
			AmountPaid:    dec("1000"),
		})

		require.NoError(t, err)
		assert.Equal(t, "CONFIRMED", resp.Status)
		assert.Equal(t, "INV-2026-0001", resp.InvoiceNumber)
		require.NotNil(t, resp.OrderID)
		assert.Equal(t, order.ID, *resp.OrderID)
		assert.Len(t, resp.Items, 2)
		assert.True(t, resp.Subtotal.Equal(dec("2100")))
		assert.True(t, resp.GrandTotal.Equal(dec("2457")))
		assert.Equal(t, "CARD", resp.PaymentMethod)
		require.NotNil(t, order.ConvertedSaleID)
		assert.Equal(t, resp.ID, *order.ConvertedSaleID)
		assert.Equal(t, "Bilal Ahmed", resp.CustomerName)
		assert.Equal(t, 1, f.inv.count)
	})

	t.Run("partial conversion", func(t *testing.T) {
		f := newSaleFixture()
		order, itemIDs := readyOrder(t)
		f.orders.On("FindByIDForUpdate", ctx, order.ID).Return(order, nil)
		f.sales.On("ExistsForOrder", ctx, order.ID).Return(false, nil)
		f.invoices.On("Next", ctx, 2026).Return("INV-2026-0002", nil)
		f.sales.On("Save", ctx, mock.Anything).Return(nil)
		f.orders.On("SaveWithLock", ctx, order).Return(nil)

		zero := dec("0")
		resp, err := f.svc.CreateFromOrder(ctx, CreateSaleFromOrderRequest{
			OrderID:       order.ID,
			GSTPercentage: &zero,
			PartialItems:  []PartialItemInput{{OrderItemID: itemIDs[0], Quantity: 1}},
		})

		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, 1, resp.Items[0].Quantity)
		assert.Equal(t, &itemIDs[0], resp.Items[0].OrderItemID)
		assert.True(t, resp.GrandTotal.Equal(dec("1000")))
	})

	t.Run("an order converts only once", func(t *testing.T) {
		f := newSaleFixture()
		order, _ := readyOrder(t)
		require.NoError(t, order.MarkConverted(uuid.New()))
		f.orders.On("FindByIDForUpdate", ctx, order.ID).Return(order, nil)

		_, err := f.svc.CreateFromOrder(ctx, CreateSaleFromOrderRequest{OrderID: order.ID})

		assert.Equal(t, "ALREADY_CONVERTED", codeOf(t, err))
		f.invoices.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
	})

	t.Run("existing sale row blocks conversion", func(t *testing.T) {
		f := newSaleFixture()
		order, _ := readyOrder(t)
		f.orders.On("FindByIDForUpdate", ctx, order.ID).Return(order, nil)
		f.sales.On("ExistsForOrder", ctx, order.ID).Return(true, nil)

		_, err := f.svc.CreateFromOrder(ctx, CreateSaleFromOrderRequest{OrderID: order.ID})
		assert.ErrorIs(t, err, ErrAlreadyConverted)
	})

	t.Run("order must be ready or delivered", func(t *testing.T) {
		f := newSaleFixture()
		order := newOrder(t, newCustomer(t))
		f.orders.On("FindByIDForUpdate", ctx, order.ID).Return(order, nil)

		_, err := f.svc.CreateFromOrder(ctx, CreateSaleFromOrderRequest{OrderID: order.ID})

		assert.Equal(t, "INVALID_STATE", codeOf(t, err))
		assert.Nil(t, order.ConvertedSaleID)
	})

	t.Run("failed sale save leaves order unconverted in storage", func(t *testing.T) {
		f := newSaleFixture()
		order, _ := readyOrder(t)
		f.orders.On("FindByIDForUpdate", ctx, order.ID).Return(order, nil)
		f.sales.On("ExistsForOrder", ctx, order.ID).Return(false, nil)
		f.invoices.On("Next", ctx, 2026).Return("INV-2026-0003", nil)
		f.sales.On("Save", ctx, mock.Anything).Return(errors.New("duplicate key"))

		_, err := f.svc.CreateFromOrder(ctx, CreateSaleFromOrderRequest{OrderID: order.ID})

		assert.EqualError(t, err, "duplicate key")
		f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		assert.Zero(t, f.inv.count)
	})
}

func newDraftSale(t *testing.T, orderID *uuid.UUID) *trade.Sale {
	t.Helper()
	customer := newCustomer(t)
	sale, err := trade.NewSale("INV-2026-0100", customer.ID, customerSnapshot(customer), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	sale.OrderID = orderID
	_, err = sale.AddItem(uuid.New(), "Cake", 1, dec("1000"), dec("0"), "", nil)
	require.NoError(t, err)
	return sale
}

func TestSaleService_Payments(t *testing.T) {
	ctx := context.Background()

	t.Run("split payment is appended", func(t *testing.T) {
		f := newSaleFixture()
		sale := newDraftSale(t, nil)
		f.sales.On("FindByIDForUpdate", ctx, sale.ID).Return(sale, nil)
		f.sales.On("SaveWithLock", ctx, sale).Return(nil)

		resp, err := f.svc.AddPayment(ctx, sale.ID, SalePaymentRequest{
			Amount:        dec("1170"),
			PaymentMethod: "SPLIT",
			SplitPaymentDetails: []SplitPaymentInput{
				{Method: "CASH", Amount: dec("500")},
				{Method: "CARD", Amount: dec("670"), Reference: "AUTH-9"},
			},
		})

		require.NoError(t, err)
		assert.True(t, resp.IsFullyPaid)
		require.Len(t, resp.SplitPaymentDetails, 2)
		assert.Equal(t, "AUTH-9", resp.SplitPaymentDetails[1].Reference)
	})

	t.Run("overpayment is rejected", func(t *testing.T) {
		f := newSaleFixture()
		sale := newDraftSale(t, nil)
		f.sales.On("FindByIDForUpdate", ctx, sale.ID).Return(sale, nil)

		_, err := f.svc.AddPayment(ctx, sale.ID, SalePaymentRequest{Amount: dec("1170.01"), PaymentMethod: "CASH"})

		assert.Equal(t, "EXCEEDS_REMAINING", codeOf(t, err))
		assert.True(t, sale.AmountPaid.IsZero())
	})

	t.Run("paid status requires full payment", func(t *testing.T) {
		f := newSaleFixture()
		sale := newDraftSale(t, nil)
		require.NoError(t, sale.UpdateStatus(trade.SaleStatusConfirmed))
		require.NoError(t, sale.UpdateStatus(trade.SaleStatusInvoiced))
		f.sales.On("FindByIDForUpdate", ctx, sale.ID).Return(sale, nil)

		_, err := f.svc.UpdateStatus(ctx, sale.ID, SaleStatusRequest{Status: "PAID"})

		assert.Equal(t, "NOT_FULLY_PAID", codeOf(t, err))
		assert.Equal(t, trade.SaleStatusInvoiced, sale.Status)
	})
}

func TestSaleService_AddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("direct sale checks stock", func(t *testing.T) {
		f := newSaleFixture()
		sale := newDraftSale(t, nil)
		product := newProduct(t, "Candles", 50, 0)
		f.sales.On("FindByIDForUpdate", ctx, sale.ID).Return(sale, nil)
		f.products.On("FindActiveByID", ctx, product.ID).Return(product, nil)

		_, err := f.svc.AddItem(ctx, sale.ID, SaleItemInput{ProductID: product.ID, Quantity: 1})
		assert.Equal(t, "INSUFFICIENT_STOCK", codeOf(t, err))
	})

	t.Run("sale from an order skips stock check", func(t *testing.T) {
		f := newSaleFixture()
		orderID := uuid.New()
		sale := newDraftSale(t, &orderID)
		product := newProduct(t, "Candles", 50, 0)
		f.sales.On("FindByIDForUpdate", ctx, sale.ID).Return(sale, nil)
		f.products.On("FindActiveByID", ctx, product.ID).Return(product, nil)
		f.sales.On("SaveWithLock", ctx, sale).Return(nil)

		resp, err := f.svc.AddItem(ctx, sale.ID, SaleItemInput{ProductID: product.ID, Quantity: 2})

		require.NoError(t, err)
		assert.Equal(t, 2, resp.ItemCount)
		assert.True(t, resp.Subtotal.Equal(dec("1100")))
	})
}

func TestSaleService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("sale from an order cannot be hard deleted", func(t *testing.T) {
		f := newSaleFixture()
		orderID := uuid.New()
		sale := newDraftSale(t, &orderID)
		f.sales.On("FindByIDForUpdate", ctx, sale.ID).Return(sale, nil)

		assert.ErrorIs(t, f.svc.Delete(ctx, sale.ID, true), ErrSaleFromOrder)
	})

	t.Run("paid sale cannot be hard deleted", func(t *testing.T) {
		f := newSaleFixture()
		sale := newDraftSale(t, nil)
		require.NoError(t, sale.RecordPayment(dec("100"), trade.PaymentMethodCash, nil))
		f.sales.On("FindByIDForUpdate", ctx, sale.ID).Return(sale, nil)

		assert.ErrorIs(t, f.svc.Delete(ctx, sale.ID, true), shared.ErrHasPayments)
	})

	t.Run("soft delete and restore", func(t *testing.T) {
		f := newSaleFixture()
		sale := newDraftSale(t, nil)
		f.sales.On("FindByIDForUpdate", ctx, sale.ID).Return(sale, nil)
		f.sales.On("SaveWithLock", ctx, sale).Return(nil)

		require.NoError(t, f.svc.Delete(ctx, sale.ID, false))
		assert.False(t, sale.IsActive)

		_, err := f.svc.AddPayment(ctx, sale.ID, SalePaymentRequest{Amount: dec("50"), PaymentMethod: "CASH"})
		assert.Equal(t, "DELETED", codeOf(t, err))
		_, err = f.svc.UpdateStatus(ctx, sale.ID, SaleStatusRequest{Status: "CONFIRMED"})
		assert.Equal(t, "DELETED", codeOf(t, err))
		_, err = f.svc.AddItem(ctx, sale.ID, SaleItemInput{ProductID: uuid.New(), Quantity: 1})
		assert.Equal(t, "DELETED", codeOf(t, err))
		assert.True(t, sale.AmountPaid.IsZero())
		assert.Equal(t, trade.SaleStatusDraft, sale.Status)
		assert.Equal(t, 1, f.inv.count)

		resp, err := f.svc.Restore(ctx, sale.ID)
		require.NoError(t, err)
		assert.True(t, resp.IsActive)
		assert.Equal(t, 2, f.inv.count)
	})
}
