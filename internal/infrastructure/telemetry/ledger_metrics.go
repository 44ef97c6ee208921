package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor receives no meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Attribute keys used by ledger metrics.
const (
	AttrSource    = attribute.Key("source")
	AttrMethod    = attribute.Key("payment_method")
	AttrAggregate = attribute.Key("aggregate")
	AttrFromState = attribute.Key("from_status")
	AttrToState   = attribute.Key("to_status")
)

// Sale sources.
const (
	SaleSourceDirect     = "direct"
	SaleSourceConversion = "conversion"
)

// LedgerMetrics records business events of the order-to-cash ledger.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	ordersCreated      metric.Int64Counter
	orderPayments      metric.Int64Counter
	orderPaymentAmount metric.Float64Counter
	salesCreated       metric.Int64Counter
	salePayments       metric.Int64Counter
	salePaymentAmount  metric.Float64Counter
	invoicesIssued     metric.Int64Counter
	conversions        metric.Int64Counter
	payablePayments    metric.Int64Counter
	payableAmount      metric.Float64Counter
	statusTransitions  metric.Int64Counter
}

// NewLedgerMetrics creates the ledger instruments on meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &LedgerMetrics{}
	var errs []error
	int64Counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("1"))
		errs = append(errs, err)
		return c
	}
	amountCounter := func(name, desc string) metric.Float64Counter {
		c, err := meter.Float64Counter(name, metric.WithDescription(desc), metric.WithUnit("{currency}"))
		errs = append(errs, err)
		return c
	}

	m.ordersCreated = int64Counter("ledger.orders.created", "Orders created")
	m.orderPayments = int64Counter("ledger.order.payments", "Advance payments recorded on orders")
	m.orderPaymentAmount = amountCounter("ledger.order.payment.amount", "Advance payment amount recorded on orders")
	m.salesCreated = int64Counter("ledger.sales.created", "Sales created")
	m.salePayments = int64Counter("ledger.sale.payments", "Payments recorded on sales")
	m.salePaymentAmount = amountCounter("ledger.sale.payment.amount", "Payment amount recorded on sales")
	m.invoicesIssued = int64Counter("ledger.invoices.issued", "Invoice numbers allocated")
	m.conversions = int64Counter("ledger.orders.converted", "Orders converted into sales")
	m.payablePayments = int64Counter("ledger.payable.payments", "Repayments recorded on payables")
	m.payableAmount = amountCounter("ledger.payable.payment.amount", "Repayment amount recorded on payables")
	m.statusTransitions = int64Counter("ledger.status.transitions", "Status transitions by aggregate")

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("failed to create ledger metrics: %w", err)
	}
	return m, nil
}

// OrderCreated counts a new order.
func (m *LedgerMetrics) OrderCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.ordersCreated.Add(ctx, 1)
}

// OrderPaymentRecorded counts an advance payment on an order.
func (m *LedgerMetrics) OrderPaymentRecorded(ctx context.Context, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.orderPayments.Add(ctx, 1)
	m.orderPaymentAmount.Add(ctx, amount.InexactFloat64())
}

// SaleCreated counts a new sale by source (direct or conversion).
func (m *LedgerMetrics) SaleCreated(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.salesCreated.Add(ctx, 1, metric.WithAttributes(AttrSource.String(source)))
	if source == SaleSourceConversion {
		m.conversions.Add(ctx, 1)
	}
}

// SalePaymentRecorded counts a payment on a sale.
func (m *LedgerMetrics) SalePaymentRecorded(ctx context.Context, method string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrMethod.String(method))
	m.salePayments.Add(ctx, 1, attrs)
	m.salePaymentAmount.Add(ctx, amount.InexactFloat64(), attrs)
}

// InvoiceIssued counts an allocated invoice number.
func (m *LedgerMetrics) InvoiceIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.invoicesIssued.Add(ctx, 1)
}

// PayablePaymentRecorded counts a repayment on a payable.
func (m *LedgerMetrics) PayablePaymentRecorded(ctx context.Context, method string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrMethod.String(method))
	m.payablePayments.Add(ctx, 1, attrs)
	m.payableAmount.Add(ctx, amount.InexactFloat64(), attrs)
}

// StatusChanged counts a status transition of an aggregate.
func (m *LedgerMetrics) StatusChanged(ctx context.Context, aggregate, from, to string) {
	if m == nil {
		return
	}
	m.statusTransitions.Add(ctx, 1, metric.WithAttributes(
		AttrAggregate.String(aggregate),
		AttrFromState.String(from),
		AttrToState.String(to),
	))
}
