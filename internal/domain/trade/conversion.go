package trade

import (
	"fmt"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConversionLine selects an order item, possibly with a reduced quantity
type ConversionLine struct {
	OrderItemID uuid.UUID
	Quantity    int
}

// ConversionRequest describes how an order becomes a sale
type ConversionRequest struct {
	InvoiceNumber   string
	SaleDate        time.Time
	PaymentMethod   PaymentMethod
	AmountPaid      decimal.Decimal
	SplitDetails    []SplitPayment
	OverallDiscount decimal.Decimal
	GSTPercentage   *decimal.Decimal // nil means DefaultGSTPercentage
	Lines           []ConversionLine // empty means every active item in full
	Notes           string
}

// ConvertOrder builds a CONFIRMED sale from an order and marks the order as
// converted. Nothing is modified when an error is returned.
func ConvertOrder(order *Order, req ConversionRequest) (*Sale, error) {
	if err := order.EnsureConvertible(); err != nil {
		return nil, err
	}
	lines, err := selectConversionLines(order, req.Lines)
	if err != nil {
		return nil, err
	}

	sale, err := NewSale(req.InvoiceNumber, order.CustomerID, CustomerSnapshot{
		Name:  order.CustomerName,
		Phone: order.CustomerPhone,
		Email: order.CustomerEmail,
	}, req.SaleDate)
	if err != nil {
		return nil, err
	}
	orderID := order.ID
	sale.OrderID = &orderID
	sale.Notes = req.Notes

	for _, line := range lines {
		itemID := line.item.ID
		if _, err := sale.AddItem(line.item.ProductID, line.item.ProductName, line.quantity,
			line.item.UnitPrice, decimal.Zero, line.item.CustomizationNotes, &itemID); err != nil {
			return nil, err
		}
	}

	gst := DefaultGSTPercentage
	if req.GSTPercentage != nil {
		gst = *req.GSTPercentage
	}
	if err := sale.SetPricing(req.OverallDiscount, gst); err != nil {
		return nil, err
	}
	if err := sale.UpdateStatus(SaleStatusConfirmed); err != nil {
		return nil, err
	}

	method := req.PaymentMethod
	if method == "" {
		method = PaymentMethodCash
	}
	if req.AmountPaid.IsPositive() {
		if err := sale.RecordPayment(req.AmountPaid, method, req.SplitDetails); err != nil {
			return nil, err
		}
	} else {
		if req.AmountPaid.IsNegative() {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount paid cannot be negative").WithField("amount_paid", "must be 0 or more")
		}
		if err := ValidatePaymentMethod(method, nil, decimal.Zero); err != nil {
			return nil, err
		}
		sale.PaymentMethod = method
	}

	if err := order.MarkConverted(sale.ID); err != nil {
		return nil, err
	}
	return sale, nil
}

type selectedLine struct {
	item     OrderItem
	quantity int
}

func selectConversionLines(order *Order, requested []ConversionLine) ([]selectedLine, error) {
	if len(requested) == 0 {
		active := order.ActiveItems()
		out := make([]selectedLine, 0, len(active))
		for _, item := range active {
			out = append(out, selectedLine{item: item, quantity: item.Quantity})
		}
		return out, nil
	}

	seen := make(map[uuid.UUID]bool, len(requested))
	out := make([]selectedLine, 0, len(requested))
	for _, line := range requested {
		if seen[line.OrderItemID] {
			return nil, shared.NewDomainError("DUPLICATE_ITEM",
				fmt.Sprintf("Order item %s is listed more than once", line.OrderItemID)).WithField("partial_items", "duplicate order item")
		}
		seen[line.OrderItemID] = true

		item, err := order.FindItem(line.OrderItemID)
		if err != nil || !item.IsActive {
			return nil, shared.NewDomainError("ITEM_NOT_FOUND",
				fmt.Sprintf("Order item %s does not belong to this order", line.OrderItemID)).WithField("partial_items", "unknown order item")
		}
		if line.Quantity <= 0 || line.Quantity > item.Quantity {
			return nil, shared.NewDomainError("INVALID_QUANTITY",
				fmt.Sprintf("Quantity for %s must be between 1 and %d", item.ProductName, item.Quantity)).WithField("partial_items", "quantity out of range")
		}
		out = append(out, selectedLine{item: *item, quantity: line.Quantity})
	}
	return out, nil
}
