package telemetry

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupLedgerMetrics(t *testing.T) (*LedgerMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewLedgerMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func int64Total(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func float64Total(t *testing.T, m metricdata.Metrics) float64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[float64])
	require.True(t, ok, "metric %s is not a float64 sum", m.Name)
	var total float64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	_, err := NewLedgerMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestLedgerMetrics_NilReceiver(t *testing.T) {
	var m *LedgerMetrics
	assert.NotPanics(t, func() {
		ctx := context.Background()
		m.OrderCreated(ctx)
		m.OrderPaymentRecorded(ctx, decimal.NewFromInt(1))
		m.SaleCreated(ctx, SaleSourceDirect)
		m.SalePaymentRecorded(ctx, "CASH", decimal.NewFromInt(1))
		m.InvoiceIssued(ctx)
		m.PayablePaymentRecorded(ctx, "CASH", decimal.NewFromInt(1))
		m.StatusChanged(ctx, "order", "PENDING", "CONFIRMED")
	})
}

func TestLedgerMetrics_Orders(t *testing.T) {
	m, reader := setupLedgerMetrics(t)
	ctx := context.Background()

	m.OrderCreated(ctx)
	m.OrderCreated(ctx)
	m.OrderPaymentRecorded(ctx, decimal.RequireFromString("250.50"))

	got := collect(t, reader)
	assert.Equal(t, int64(2), int64Total(t, got["ledger.orders.created"]))
	assert.Equal(t, int64(1), int64Total(t, got["ledger.order.payments"]))
	assert.InDelta(t, 250.50, float64Total(t, got["ledger.order.payment.amount"]), 0.001)
}

func TestLedgerMetrics_SalesBySource(t *testing.T) {
	m, reader := setupLedgerMetrics(t)
	ctx := context.Background()

	m.SaleCreated(ctx, SaleSourceDirect)
	m.SaleCreated(ctx, SaleSourceConversion)
	m.SaleCreated(ctx, SaleSourceConversion)

	got := collect(t, reader)
	assert.Equal(t, int64(3), int64Total(t, got["ledger.sales.created"]))
	assert.Equal(t, int64(2), int64Total(t, got["ledger.orders.converted"]))

	sum := got["ledger.sales.created"].Data.(metricdata.Sum[int64])
	bySource := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		source, _ := dp.Attributes.Value(AttrSource)
		bySource[source.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"direct": 1, "conversion": 2}, bySource)
}

func TestLedgerMetrics_PaymentsAndTransitions(t *testing.T) {
	m, reader := setupLedgerMetrics(t)
	ctx := context.Background()

	m.SalePaymentRecorded(ctx, "CARD", decimal.NewFromInt(100))
	m.SalePaymentRecorded(ctx, "CASH", decimal.NewFromInt(50))
	m.PayablePaymentRecorded(ctx, "BANK_TRANSFER", decimal.NewFromInt(75))
	m.InvoiceIssued(ctx)
	m.StatusChanged(ctx, "sale", "CONFIRMED", "INVOICED")

	got := collect(t, reader)
	assert.Equal(t, int64(2), int64Total(t, got["ledger.sale.payments"]))
	assert.InDelta(t, 150.0, float64Total(t, got["ledger.sale.payment.amount"]), 0.001)
	assert.Equal(t, int64(1), int64Total(t, got["ledger.payable.payments"]))
	assert.InDelta(t, 75.0, float64Total(t, got["ledger.payable.payment.amount"]), 0.001)
	assert.Equal(t, int64(1), int64Total(t, got["ledger.invoices.issued"]))

	transitions := got["ledger.status.transitions"].Data.(metricdata.Sum[int64])
	require.Len(t, transitions.DataPoints, 1)
	set := transitions.DataPoints[0].Attributes
	assert.True(t, set.HasValue(AttrAggregate))
	v, _ := set.Value(AttrToState)
	assert.Equal(t, attribute.StringValue("INVOICED"), v)
}
