package trade

import (
	"testing"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyOrder(t *testing.T) *Order {
	t.Helper()
	order := createTestOrder(t)
	addTestItem(t, order, 2, "500.00")
	addTestItem(t, order, 1, "1000.00")
	addTestItem(t, order, 3, "25.50")
	moveOrderTo(t, order, OrderStatusConfirmed, OrderStatusInProduction, OrderStatusReady)
	return order
}

func TestConvertOrder_Full(t *testing.T) {
	order := readyOrder(t)
	total := order.TotalAmount

	sale, err := ConvertOrder(order, ConversionRequest{InvoiceNumber: "INV-2026-0007", SaleDate: time.Now()})
	require.NoError(t, err)

	assert.Len(t, sale.Items, 3)
	assert.True(t, sale.Subtotal.Equal(total))
	assert.Equal(t, SaleStatusConfirmed, sale.Status)
	assert.Equal(t, order.CustomerName, sale.CustomerName)
	require.NotNil(t, sale.OrderID)
	assert.Equal(t, order.ID, *sale.OrderID)
	require.NotNil(t, order.ConvertedSaleID)
	assert.Equal(t, sale.ID, *order.ConvertedSaleID)
	assert.True(t, sale.GSTPercentage.Equal(DefaultGSTPercentage))
	for idx, item := range sale.Items {
		require.NotNil(t, item.OrderItemID)
		assert.Equal(t, order.Items[idx].ID, *item.OrderItemID)
		assert.Equal(t, order.Items[idx].Quantity, item.Quantity)
	}
}

func TestConvertOrder_WithPaymentAndPricing(t *testing.T) {
	order := readyOrder(t)
	zero := decimal.Zero

	sale, err := ConvertOrder(order, ConversionRequest{
		InvoiceNumber:   "INV-2026-0008",
		OverallDiscount: dec("76.50"),
		GSTPercentage:   &zero,
		PaymentMethod:   PaymentMethodSplit,
		AmountPaid:      dec("2000"),
		SplitDetails: []SplitPayment{
			{Method: PaymentMethodCash, Amount: dec("1500")},
			{Method: PaymentMethodCard, Amount: dec("500")},
		},
	})
	require.NoError(t, err)

	assert.True(t, sale.GrandTotal.Equal(dec("2000")))
	assert.True(t, sale.IsFullyPaid)
	assert.Len(t, sale.SplitPaymentDetails, 2)
}

func TestConvertOrder_Partial(t *testing.T) {
	order := readyOrder(t)
	first, third := order.Items[0], order.Items[2]

	sale, err := ConvertOrder(order, ConversionRequest{
		InvoiceNumber: "INV-2026-0009",
		Lines: []ConversionLine{
			{OrderItemID: first.ID, Quantity: 1},
			{OrderItemID: third.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	require.Len(t, sale.Items, 2)
	assert.Equal(t, 1, sale.Items[0].Quantity)
	assert.True(t, sale.Subtotal.Equal(dec("576.50")))

	errorCases := []struct {
		name  string
		lines []ConversionLine
		code  string
	}{
		{"duplicate", []ConversionLine{{OrderItemID: first.ID, Quantity: 1}, {OrderItemID: first.ID, Quantity: 1}}, "DUPLICATE_ITEM"},
		{"foreign item", []ConversionLine{{OrderItemID: uuid.New(), Quantity: 1}}, "ITEM_NOT_FOUND"},
		{"too many", []ConversionLine{{OrderItemID: first.ID, Quantity: 3}}, "INVALID_QUANTITY"},
		{"zero", []ConversionLine{{OrderItemID: first.ID, Quantity: 0}}, "INVALID_QUANTITY"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			fresh := readyOrder(t)
			for idx := range tc.lines {
				if tc.lines[idx].OrderItemID == first.ID {
					tc.lines[idx].OrderItemID = fresh.Items[0].ID
				}
			}
			_, err := ConvertOrder(fresh, ConversionRequest{InvoiceNumber: "INV-2026-0010", Lines: tc.lines})
			require.Error(t, err)
			assert.Equal(t, tc.code, err.(*shared.DomainError).Code)
			assert.False(t, fresh.IsConverted())
		})
	}
}

func TestConvertOrder_Preconditions(t *testing.T) {
	t.Run("double conversion rejected", func(t *testing.T) {
		order := readyOrder(t)
		_, err := ConvertOrder(order, ConversionRequest{InvoiceNumber: "INV-2026-0011"})
		require.NoError(t, err)

		_, err = ConvertOrder(order, ConversionRequest{InvoiceNumber: "INV-2026-0012"})
		require.Error(t, err)
		assert.Equal(t, "ALREADY_CONVERTED", err.(*shared.DomainError).Code)
	})

	t.Run("order must be ready or delivered", func(t *testing.T) {
		order := createTestOrder(t)
		addTestItem(t, order, 1, "10")
		moveOrderTo(t, order, OrderStatusConfirmed)

		_, err := ConvertOrder(order, ConversionRequest{InvoiceNumber: "INV-2026-0013"})
		require.Error(t, err)
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	})

	t.Run("delivered order converts", func(t *testing.T) {
		order := readyOrder(t)
		moveOrderTo(t, order, OrderStatusDelivered)
		_, err := ConvertOrder(order, ConversionRequest{InvoiceNumber: "INV-2026-0014"})
		assert.NoError(t, err)
	})

	t.Run("failed payment leaves order untouched", func(t *testing.T) {
		order := readyOrder(t)
		_, err := ConvertOrder(order, ConversionRequest{
			InvoiceNumber: "INV-2026-0015",
			AmountPaid:    dec("999999"),
		})
		require.Error(t, err)
		assert.False(t, order.IsConverted())
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		order := readyOrder(t)
		_, err := ConvertOrder(order, ConversionRequest{InvoiceNumber: "INV-2026-0016", AmountPaid: dec("-1")})
		assert.Error(t, err)
	})
}
