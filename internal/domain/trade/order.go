package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the production/delivery status of an order
type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "PENDING"
	OrderStatusConfirmed    OrderStatus = "CONFIRMED"
	OrderStatusInProduction OrderStatus = "IN_PRODUCTION"
	OrderStatusReady        OrderStatus = "READY"
	OrderStatusDelivered    OrderStatus = "DELIVERED"
	OrderStatusCancelled    OrderStatus = "CANCELLED"
)

// OrderStateMachine is the only place order transitions are defined
var OrderStateMachine = shared.NewStateMachine("order", map[OrderStatus][]OrderStatus{
	OrderStatusPending:      {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:    {OrderStatusInProduction, OrderStatusCancelled},
	OrderStatusInProduction: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:        {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:    {},
	OrderStatusCancelled:    {},
})

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	return OrderStateMachine.Knows(s)
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return OrderStateMachine.CanTransition(s, target)
}

// PaymentStatus summarises how much of a balance has been settled
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// OrderItem is a line item within an order
type OrderItem struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	ProductID          uuid.UUID
	ProductName        string
	UnitPrice          decimal.Decimal // snapshot of the product price
	Quantity           int
	CustomizationNotes string
	LineTotal          decimal.Decimal // Quantity * UnitPrice
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewOrderItem creates a new order item
func NewOrderItem(orderID, productID uuid.UUID, productName string, quantity int, unitPrice decimal.Decimal, notes string) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty").WithField("product_id", "required")
	}
	if strings.TrimSpace(productName) == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if err := validateLine(quantity, unitPrice); err != nil {
		return nil, err
	}

	now := time.Now()
	item := &OrderItem{
		ID:                 uuid.New(),
		OrderID:            orderID,
		ProductID:          productID,
		ProductName:        productName,
		UnitPrice:          unitPrice.Round(2),
		Quantity:           quantity,
		CustomizationNotes: notes,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	item.LineTotal = item.CalculateLineTotal()
	return item, nil
}

// CalculateLineTotal derives the line total from quantity and price
func (i *OrderItem) CalculateLineTotal() decimal.Decimal {
	return decimal.NewFromInt(int64(i.Quantity)).Mul(i.UnitPrice).Round(2)
}

func (i *OrderItem) update(quantity int, unitPrice decimal.Decimal, notes string) error {
	if err := validateLine(quantity, unitPrice); err != nil {
		return err
	}
	i.Quantity = quantity
	i.UnitPrice = unitPrice.Round(2)
	i.CustomizationNotes = notes
	i.LineTotal = i.CalculateLineTotal()
	i.UpdatedAt = time.Now()
	return nil
}

func validateLine(quantity int, unitPrice decimal.Decimal) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive").WithField("quantity", "must be greater than 0")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative").WithField("unit_price", "must be 0 or more")
	}
	return nil
}

// CustomerSnapshot is the customer contact data cached on orders and sales
type CustomerSnapshot struct {
	Name  string
	Phone string
	Email string
}

// Order is a customer order that is produced, delivered and later invoiced
type Order struct {
	shared.BaseAggregateRoot
	CustomerID           uuid.UUID
	CustomerName         string
	CustomerPhone        string
	CustomerEmail        string
	Description          string
	Items                []OrderItem
	AdvancePayment       decimal.Decimal
	TotalAmount          decimal.Decimal // sum of active items
	RemainingAmount      decimal.Decimal // max(0, TotalAmount - AdvancePayment)
	IsFullyPaid          bool
	PaymentStatus        PaymentStatus
	DateOrdered          time.Time
	ExpectedDeliveryDate *time.Time
	Status               OrderStatus
	ConvertedSaleID      *uuid.UUID
}

// NewOrder creates a new PENDING order with an empty item list
func NewOrder(customerID uuid.UUID, customer CustomerSnapshot, dateOrdered time.Time, expectedDelivery *time.Time, description string) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty").WithField("customer_id", "required")
	}
	if customer.Name == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if dateOrdered.IsZero() {
		dateOrdered = time.Now()
	}
	dateOrdered = truncateToDay(dateOrdered)
	if err := validateSchedule(dateOrdered, expectedDelivery); err != nil {
		return nil, err
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Description:       description,
		Items:             make([]OrderItem, 0),
		AdvancePayment:    decimal.Zero,
		TotalAmount:       decimal.Zero,
		RemainingAmount:   decimal.Zero,
		PaymentStatus:     PaymentStatusUnpaid,
		DateOrdered:       dateOrdered,
		Status:            OrderStatusPending,
	}
	order.applySnapshot(customer)
	order.ExpectedDeliveryDate = truncatePtr(expectedDelivery)
	return order, nil
}

// CanBeCancelled returns true while the order is not in a final status
func (o *Order) CanBeCancelled() bool {
	return o.Status != OrderStatusDelivered && o.Status != OrderStatusCancelled
}

// CanBeModified returns true while items may still change
func (o *Order) CanBeModified() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// IsTerminal returns true if the order is delivered or cancelled
func (o *Order) IsTerminal() bool {
	return OrderStateMachine.IsTerminal(o.Status)
}

// IsConverted returns true once a sale has been created from the order
func (o *Order) IsConverted() bool {
	return o.ConvertedSaleID != nil
}

// ActiveItems returns the items that count towards the total
func (o *Order) ActiveItems() []OrderItem {
	active := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		if item.IsActive {
			active = append(active, item)
		}
	}
	return active
}

// FindItem returns the item with the given ID
func (o *Order) FindItem(itemID uuid.UUID) (*OrderItem, error) {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx], nil
		}
	}
	return nil, shared.NewNotFoundError("Order item")
}

// AddItem adds a product line. A product that was removed earlier is
// reactivated in place so there is only ever one row per product.
func (o *Order) AddItem(productID uuid.UUID, productName string, quantity int, unitPrice decimal.Decimal, notes string) (*OrderItem, error) {
	if err := o.ensureModifiable(); err != nil {
		return nil, err
	}

	for idx := range o.Items {
		if o.Items[idx].ProductID != productID {
			continue
		}
		if o.Items[idx].IsActive {
			return nil, shared.NewConflictError("DUPLICATE_PRODUCT", "Product already exists in order, update quantity instead")
		}
		err := o.mutateItems(func() error {
			if err := o.Items[idx].update(quantity, unitPrice, notes); err != nil {
				return err
			}
			o.Items[idx].ProductName = productName
			o.Items[idx].IsActive = true
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &o.Items[idx], nil
	}

	item, err := NewOrderItem(o.ID, productID, productName, quantity, unitPrice, notes)
	if err != nil {
		return nil, err
	}
	if err := o.mutateItems(func() error {
		o.Items = append(o.Items, *item)
		return nil
	}); err != nil {
		return nil, err
	}
	return &o.Items[len(o.Items)-1], nil
}

// UpdateItem changes quantity, price and notes of an active item
func (o *Order) UpdateItem(itemID uuid.UUID, quantity int, unitPrice decimal.Decimal, notes string) (*OrderItem, error) {
	if err := o.ensureModifiable(); err != nil {
		return nil, err
	}
	item, err := o.FindItem(itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, shared.NewNotFoundError("Order item")
	}
	if err := o.mutateItems(func() error {
		return item.update(quantity, unitPrice, notes)
	}); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem soft-deletes an item
func (o *Order) RemoveItem(itemID uuid.UUID) error {
	if err := o.ensureModifiable(); err != nil {
		return err
	}
	item, err := o.FindItem(itemID)
	if err != nil {
		return err
	}
	if !item.IsActive {
		return shared.NewNotFoundError("Order item")
	}
	return o.mutateItems(func() error {
		item.IsActive = false
		item.UpdatedAt = time.Now()
		return nil
	})
}

// AddPayment records an advance payment against the order
func (o *Order) AddPayment(amount decimal.Decimal) error {
	if err := o.EnsureActive(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be greater than zero").WithField("amount", "must be greater than 0")
	}
	if o.Status == OrderStatusCancelled {
		return shared.NewConflictError("INVALID_STATE", "Cannot add a payment to a cancelled order")
	}
	amount = amount.Round(2)
	if o.AdvancePayment.Add(amount).GreaterThan(o.TotalAmount) {
		return shared.NewConflictError("EXCEEDS_REMAINING",
			fmt.Sprintf("Payment of %s exceeds remaining balance of %s", amount.StringFixed(2), o.RemainingAmount.StringFixed(2)))
	}

	o.AdvancePayment = o.AdvancePayment.Add(amount)
	o.recalculateTotals()
	o.Touch()
	return nil
}

// UpdateStatus moves the order through its state machine and appends a
// timestamped note to the description.
func (o *Order) UpdateStatus(newStatus OrderStatus, notes string) error {
	if err := o.EnsureActive(); err != nil {
		return err
	}
	previous := o.Status
	next, err := OrderStateMachine.Transition(previous, newStatus)
	if err != nil {
		return err
	}

	now := time.Now()
	o.Status = next
	if next == OrderStatusDelivered && o.ExpectedDeliveryDate == nil {
		today := truncateToDay(now)
		o.ExpectedDeliveryDate = &today
	}
	o.appendNote(now, fmt.Sprintf("Status changed from %s to %s", previous, next), notes)
	o.Touch()
	return nil
}

// UpdateDetails changes description and schedule of an order still in progress
func (o *Order) UpdateDetails(description string, dateOrdered time.Time, expectedDelivery *time.Time) error {
	if err := o.EnsureActive(); err != nil {
		return err
	}
	if o.IsTerminal() {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot update order in %s status", o.Status))
	}
	if dateOrdered.IsZero() {
		dateOrdered = o.DateOrdered
	}
	dateOrdered = truncateToDay(dateOrdered)
	if err := validateSchedule(dateOrdered, expectedDelivery); err != nil {
		return err
	}
	o.Description = description
	o.DateOrdered = dateOrdered
	o.ExpectedDeliveryDate = truncatePtr(expectedDelivery)
	o.Touch()
	return nil
}

// RecalculateTotals recomputes every line total and the order totals
func (o *Order) RecalculateTotals() {
	for idx := range o.Items {
		o.Items[idx].LineTotal = o.Items[idx].CalculateLineTotal()
	}
	o.recalculateTotals()
	o.Touch()
}

// ResyncCustomer replaces the cached customer contact fields
func (o *Order) ResyncCustomer(customer CustomerSnapshot) {
	o.applySnapshot(customer)
	o.Touch()
}

// EnsureConvertible checks the preconditions for creating a sale
func (o *Order) EnsureConvertible() error {
	if !o.IsActive {
		return shared.NewConflictError("INVALID_STATE", "Cannot convert a deleted order")
	}
	if o.Status != OrderStatusReady && o.Status != OrderStatusDelivered {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Only READY or DELIVERED orders can be converted, order is %s", o.Status))
	}
	if o.IsConverted() {
		return shared.NewConflictError("ALREADY_CONVERTED", "Order has already been converted to a sale")
	}
	if len(o.ActiveItems()) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Order has no items to convert")
	}
	return nil
}

// MarkConverted links the order to the sale created from it
func (o *Order) MarkConverted(saleID uuid.UUID) error {
	if err := o.EnsureActive(); err != nil {
		return err
	}
	if o.IsConverted() {
		return shared.NewConflictError("ALREADY_CONVERTED", "Order has already been converted to a sale")
	}
	o.ConvertedSaleID = &saleID
	o.Touch()
	return nil
}

// EnsureHardDeletable fails when payments have been taken
func (o *Order) EnsureHardDeletable() error {
	if o.AdvancePayment.IsPositive() {
		return shared.ErrHasPayments
	}
	return nil
}

// ItemCount returns the number of active items
func (o *Order) ItemCount() int {
	return len(o.ActiveItems())
}

func (o *Order) ensureModifiable() error {
	if err := o.EnsureActive(); err != nil {
		return err
	}
	if !o.CanBeModified() {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot change items of an order in %s status", o.Status))
	}
	return nil
}

// mutateItems applies fn and recalculates. The item list and totals are
// rolled back if fn fails or the new total drops below the advance payment.
func (o *Order) mutateItems(fn func() error) error {
	backup := make([]OrderItem, len(o.Items))
	copy(backup, o.Items)
	restore := func() {
		o.Items = backup
		o.recalculateTotals()
	}

	if err := fn(); err != nil {
		restore()
		return err
	}
	o.recalculateTotals()
	if o.TotalAmount.LessThan(o.AdvancePayment) {
		total := o.TotalAmount
		restore()
		return shared.NewConflictError("TOTAL_BELOW_ADVANCE",
			fmt.Sprintf("Order total %s would fall below the advance payment of %s", total.StringFixed(2), o.AdvancePayment.StringFixed(2)))
	}
	o.Touch()
	return nil
}

// recalculateTotals recalculates the order totals
func (o *Order) recalculateTotals() {
	total := decimal.Zero
	for _, item := range o.Items {
		if item.IsActive {
			total = total.Add(item.LineTotal)
		}
	}
	o.TotalAmount = total
	o.RemainingAmount = decimal.Max(decimal.Zero, total.Sub(o.AdvancePayment))
	o.IsFullyPaid = o.RemainingAmount.IsZero() && o.TotalAmount.IsPositive()
	o.PaymentStatus = derivePaymentStatus(o.AdvancePayment, o.IsFullyPaid)
}

func (o *Order) applySnapshot(customer CustomerSnapshot) {
	o.CustomerName = customer.Name
	o.CustomerPhone = customer.Phone
	o.CustomerEmail = customer.Email
}

func (o *Order) appendNote(at time.Time, event, notes string) {
	line := fmt.Sprintf("[%s] %s", at.Format("2006-01-02 15:04"), event)
	if notes = strings.TrimSpace(notes); notes != "" {
		line += ": " + notes
	}
	if o.Description == "" {
		o.Description = line
		return
	}
	o.Description += "\n" + line
}

func derivePaymentStatus(paid decimal.Decimal, fullyPaid bool) PaymentStatus {
	switch {
	case fullyPaid:
		return PaymentStatusPaid
	case paid.IsPositive():
		return PaymentStatusPartial
	default:
		return PaymentStatusUnpaid
	}
}

func validateSchedule(dateOrdered time.Time, expectedDelivery *time.Time) error {
	if expectedDelivery == nil {
		return nil
	}
	if truncateToDay(*expectedDelivery).Before(truncateToDay(dateOrdered)) {
		return shared.NewDomainError("INVALID_DELIVERY_DATE", "Expected delivery date cannot be before the order date").
			WithField("expected_delivery_date", "must be on or after date_ordered")
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func truncatePtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	day := truncateToDay(*t)
	return &day
}
