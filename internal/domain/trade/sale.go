package trade

import (
	"fmt"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the lifecycle status of a sale
type SaleStatus string

const (
	SaleStatusDraft     SaleStatus = "DRAFT"
	SaleStatusConfirmed SaleStatus = "CONFIRMED"
	SaleStatusInvoiced  SaleStatus = "INVOICED"
	SaleStatusPaid      SaleStatus = "PAID"
	SaleStatusDelivered SaleStatus = "DELIVERED"
	SaleStatusReturned  SaleStatus = "RETURNED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

// SaleStateMachine is the only place sale transitions are defined
var SaleStateMachine = shared.NewStateMachine("sale", map[SaleStatus][]SaleStatus{
	SaleStatusDraft:     {SaleStatusConfirmed, SaleStatusCancelled},
	SaleStatusConfirmed: {SaleStatusInvoiced, SaleStatusCancelled},
	SaleStatusInvoiced:  {SaleStatusPaid, SaleStatusCancelled},
	SaleStatusPaid:      {SaleStatusDelivered, SaleStatusCancelled},
	SaleStatusDelivered: {SaleStatusReturned},
	SaleStatusReturned:  {},
	SaleStatusCancelled: {},
})

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	return SaleStateMachine.Knows(s)
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	return SaleStateMachine.CanTransition(s, target)
}

// DefaultGSTPercentage is applied when a sale does not specify a rate
var DefaultGSTPercentage = decimal.RequireFromString("17.00")

var hundred = decimal.NewFromInt(100)

// SaleItem is a line item within a sale
type SaleItem struct {
	ID           uuid.UUID
	SaleID       uuid.UUID
	ProductID    uuid.UUID
	OrderItemID  *uuid.UUID // weak reference to the originating order item, not enforced
	ProductName  string
	UnitPrice    decimal.Decimal
	Quantity     int
	ItemDiscount decimal.Decimal
	LineTotal    decimal.Decimal // Quantity * UnitPrice - ItemDiscount
	Notes        string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewSaleItem creates a new sale item
func NewSaleItem(saleID, productID uuid.UUID, productName string, quantity int, unitPrice, discount decimal.Decimal, notes string) (*SaleItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty").WithField("product_id", "required")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	now := time.Now()
	item := &SaleItem{
		ID:          uuid.New(),
		SaleID:      saleID,
		ProductID:   productID,
		ProductName: productName,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := item.update(quantity, unitPrice, discount, notes); err != nil {
		return nil, err
	}
	return item, nil
}

// GrossAmount returns quantity times unit price before the item discount
func (i *SaleItem) GrossAmount() decimal.Decimal {
	return decimal.NewFromInt(int64(i.Quantity)).Mul(i.UnitPrice).Round(2)
}

// CalculateLineTotal derives the line total from quantity, price and discount
func (i *SaleItem) CalculateLineTotal() decimal.Decimal {
	return i.GrossAmount().Sub(i.ItemDiscount)
}

func (i *SaleItem) update(quantity int, unitPrice, discount decimal.Decimal, notes string) error {
	if err := validateLine(quantity, unitPrice); err != nil {
		return err
	}
	if discount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Item discount cannot be negative").WithField("item_discount", "must be 0 or more")
	}
	gross := decimal.NewFromInt(int64(quantity)).Mul(unitPrice.Round(2)).Round(2)
	if discount.Round(2).GreaterThan(gross) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Item discount cannot exceed quantity times unit price").
			WithField("item_discount", "must not exceed quantity × unit_price")
	}
	i.Quantity = quantity
	i.UnitPrice = unitPrice.Round(2)
	i.ItemDiscount = discount.Round(2)
	i.Notes = notes
	i.LineTotal = i.CalculateLineTotal()
	i.UpdatedAt = time.Now()
	return nil
}

// Sale is a finalized commercial transaction identified by its invoice number
type Sale struct {
	shared.BaseAggregateRoot
	InvoiceNumber       string
	OrderID             *uuid.UUID
	CustomerID          uuid.UUID
	CustomerName        string
	CustomerPhone       string
	CustomerEmail       string
	Items               []SaleItem
	Subtotal            decimal.Decimal
	OverallDiscount     decimal.Decimal
	GSTPercentage       decimal.Decimal
	TaxAmount           decimal.Decimal // (Subtotal - OverallDiscount) * GSTPercentage / 100
	GrandTotal          decimal.Decimal // Subtotal - OverallDiscount + TaxAmount
	AmountPaid          decimal.Decimal
	RemainingAmount     decimal.Decimal
	IsFullyPaid         bool
	PaymentMethod       PaymentMethod
	SplitPaymentDetails []SplitPayment
	Status              SaleStatus
	Notes               string
	SaleDate            time.Time
}

// NewSale creates a new DRAFT sale
func NewSale(invoiceNumber string, customerID uuid.UUID, customer CustomerSnapshot, saleDate time.Time) (*Sale, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty").WithField("customer_id", "required")
	}
	if customer.Name == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if saleDate.IsZero() {
		saleDate = time.Now()
	}

	return &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		CustomerID:        customerID,
		CustomerName:      customer.Name,
		CustomerPhone:     customer.Phone,
		CustomerEmail:     customer.Email,
		Items:             make([]SaleItem, 0),
		Subtotal:          decimal.Zero,
		OverallDiscount:   decimal.Zero,
		GSTPercentage:     DefaultGSTPercentage,
		TaxAmount:         decimal.Zero,
		GrandTotal:        decimal.Zero,
		AmountPaid:        decimal.Zero,
		RemainingAmount:   decimal.Zero,
		PaymentMethod:     PaymentMethodCash,
		Status:            SaleStatusDraft,
		SaleDate:          saleDate,
	}, nil
}

// CanBeModified returns true while items and pricing may still change
func (s *Sale) CanBeModified() bool {
	return s.Status == SaleStatusDraft || s.Status == SaleStatusConfirmed
}

// IsTerminal returns true if the sale is cancelled or returned
func (s *Sale) IsTerminal() bool {
	return SaleStateMachine.IsTerminal(s.Status)
}

// ActiveItems returns the items that count towards the subtotal
func (s *Sale) ActiveItems() []SaleItem {
	active := make([]SaleItem, 0, len(s.Items))
	for _, item := range s.Items {
		if item.IsActive {
			active = append(active, item)
		}
	}
	return active
}

// FindItem returns the item with the given ID
func (s *Sale) FindItem(itemID uuid.UUID) (*SaleItem, error) {
	for idx := range s.Items {
		if s.Items[idx].ID == itemID {
			return &s.Items[idx], nil
		}
	}
	return nil, shared.NewNotFoundError("Sale item")
}

// AddItem adds a line to the sale
func (s *Sale) AddItem(productID uuid.UUID, productName string, quantity int, unitPrice, discount decimal.Decimal, notes string, orderItemID *uuid.UUID) (*SaleItem, error) {
	if err := s.ensureModifiable(); err != nil {
		return nil, err
	}
	item, err := NewSaleItem(s.ID, productID, productName, quantity, unitPrice, discount, notes)
	if err != nil {
		return nil, err
	}
	if orderItemID != nil {
		ref := *orderItemID
		item.OrderItemID = &ref
	}
	if err := s.mutate(func() error {
		s.Items = append(s.Items, *item)
		return nil
	}); err != nil {
		return nil, err
	}
	return &s.Items[len(s.Items)-1], nil
}

// UpdateItem changes an active line
func (s *Sale) UpdateItem(itemID uuid.UUID, quantity int, unitPrice, discount decimal.Decimal, notes string) (*SaleItem, error) {
	if err := s.ensureModifiable(); err != nil {
		return nil, err
	}
	item, err := s.FindItem(itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, shared.NewNotFoundError("Sale item")
	}
	if err := s.mutate(func() error {
		return item.update(quantity, unitPrice, discount, notes)
	}); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem soft-deletes a line
func (s *Sale) RemoveItem(itemID uuid.UUID) error {
	if err := s.ensureModifiable(); err != nil {
		return err
	}
	item, err := s.FindItem(itemID)
	if err != nil {
		return err
	}
	if !item.IsActive {
		return shared.NewNotFoundError("Sale item")
	}
	return s.mutate(func() error {
		item.IsActive = false
		item.UpdatedAt = time.Now()
		return nil
	})
}

// SetPricing sets the overall discount and GST rate
func (s *Sale) SetPricing(overallDiscount, gstPercentage decimal.Decimal) error {
	if err := s.ensureModifiable(); err != nil {
		return err
	}
	if overallDiscount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Overall discount cannot be negative").WithField("overall_discount", "must be 0 or more")
	}
	if gstPercentage.IsNegative() || gstPercentage.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_GST", "GST percentage must be between 0 and 100").WithField("gst_percentage", "must be between 0 and 100")
	}
	return s.mutate(func() error {
		s.OverallDiscount = overallDiscount.Round(2)
		s.GSTPercentage = gstPercentage.Round(2)
		return nil
	})
}

// RecalculateTotals derives subtotal, tax, grand total and payment state
// from the active items.
func (s *Sale) RecalculateTotals() {
	subtotal := decimal.Zero
	for idx := range s.Items {
		s.Items[idx].LineTotal = s.Items[idx].CalculateLineTotal()
		if s.Items[idx].IsActive {
			subtotal = subtotal.Add(s.Items[idx].LineTotal)
		}
	}
	s.Subtotal = subtotal
	taxable := s.Subtotal.Sub(s.OverallDiscount)
	s.TaxAmount = taxable.Mul(s.GSTPercentage).Div(hundred).Round(2)
	s.GrandTotal = taxable.Add(s.TaxAmount)
	s.refreshPaymentState()
}

// RecordPayment adds a payment to the sale
func (s *Sale) RecordPayment(amount decimal.Decimal, method PaymentMethod, split []SplitPayment) error {
	if err := s.EnsureActive(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be greater than zero").WithField("amount", "must be greater than 0")
	}
	if s.Status == SaleStatusCancelled || s.Status == SaleStatusReturned {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot record a payment on a %s sale", s.Status))
	}
	amount = amount.Round(2)
	if err := ValidatePaymentMethod(method, split, amount); err != nil {
		return err
	}
	if s.AmountPaid.Add(amount).GreaterThan(s.GrandTotal) {
		return shared.NewConflictError("EXCEEDS_REMAINING",
			fmt.Sprintf("Payment of %s exceeds remaining balance of %s", amount.StringFixed(2), s.RemainingAmount.StringFixed(2)))
	}

	s.AmountPaid = s.AmountPaid.Add(amount)
	s.PaymentMethod = method
	if method == PaymentMethodSplit {
		s.SplitPaymentDetails = append(s.SplitPaymentDetails, normalizeSplit(split)...)
	}
	s.refreshPaymentState()
	s.Touch()
	return nil
}

// UpdateStatus moves the sale through its state machine
func (s *Sale) UpdateStatus(newStatus SaleStatus) error {
	if err := s.EnsureActive(); err != nil {
		return err
	}
	next, err := SaleStateMachine.Transition(s.Status, newStatus)
	if err != nil {
		return err
	}
	if next == SaleStatusPaid && !s.IsFullyPaid {
		return shared.NewDomainError("NOT_FULLY_PAID",
			fmt.Sprintf("Sale still has %s outstanding", s.RemainingAmount.StringFixed(2))).WithField("status", "sale is not fully paid")
	}
	s.Status = next
	s.Touch()
	return nil
}

// ResyncCustomer replaces the cached customer contact fields
func (s *Sale) ResyncCustomer(customer CustomerSnapshot) {
	s.CustomerName = customer.Name
	s.CustomerPhone = customer.Phone
	s.CustomerEmail = customer.Email
	s.Touch()
}

// SetNotes sets free-form notes
func (s *Sale) SetNotes(notes string) {
	s.Notes = notes
	s.Touch()
}

// EnsureHardDeletable fails when payments have been taken
func (s *Sale) EnsureHardDeletable() error {
	if s.AmountPaid.IsPositive() {
		return shared.ErrHasPayments
	}
	return nil
}

// ItemCount returns the number of active items
func (s *Sale) ItemCount() int {
	return len(s.ActiveItems())
}

func (s *Sale) ensureModifiable() error {
	if err := s.EnsureActive(); err != nil {
		return err
	}
	if !s.CanBeModified() {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot change a sale in %s status", s.Status))
	}
	return nil
}

// mutate applies fn, recalculates and rolls back if an invariant breaks
func (s *Sale) mutate(fn func() error) error {
	backupItems := make([]SaleItem, len(s.Items))
	copy(backupItems, s.Items)
	backupDiscount, backupGST := s.OverallDiscount, s.GSTPercentage
	restore := func() {
		s.Items = backupItems
		s.OverallDiscount, s.GSTPercentage = backupDiscount, backupGST
		s.RecalculateTotals()
	}

	if err := fn(); err != nil {
		restore()
		return err
	}
	s.RecalculateTotals()
	if s.OverallDiscount.GreaterThan(s.Subtotal) {
		discount, subtotal := s.OverallDiscount, s.Subtotal
		restore()
		return shared.NewDomainError("INVALID_DISCOUNT",
			fmt.Sprintf("Overall discount %s cannot exceed subtotal %s", discount.StringFixed(2), subtotal.StringFixed(2))).
			WithField("overall_discount", "must not exceed subtotal")
	}
	if s.AmountPaid.GreaterThan(s.GrandTotal) {
		grandTotal := s.GrandTotal
		restore()
		return shared.NewConflictError("TOTAL_BELOW_PAID",
			fmt.Sprintf("Grand total %s would fall below the amount already paid (%s)", grandTotal.StringFixed(2), s.AmountPaid.StringFixed(2)))
	}
	s.Touch()
	return nil
}

func (s *Sale) refreshPaymentState() {
	s.RemainingAmount = decimal.Max(decimal.Zero, s.GrandTotal.Sub(s.AmountPaid))
	s.IsFullyPaid = s.RemainingAmount.IsZero() && s.GrandTotal.IsPositive()
}
