package finance

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayableStatus represents the payment state of a payable
type PayableStatus string

const (
	PayableStatusActive        PayableStatus = "ACTIVE"         // Nothing paid yet
	PayableStatusPartiallyPaid PayableStatus = "PARTIALLY_PAID" // 0 < paid < borrowed
	PayableStatusOverdue       PayableStatus = "OVERDUE"        // Due date passed with a balance left
	PayableStatusPaid          PayableStatus = "PAID"           // paid >= borrowed
	PayableStatusCancelled     PayableStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PayableStatus
func (s PayableStatus) IsValid() bool {
	switch s {
	case PayableStatusActive, PayableStatusPartiallyPaid, PayableStatusOverdue,
		PayableStatusPaid, PayableStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PayableStatus
func (s PayableStatus) String() string {
	return string(s)
}

// IsOpen returns true while a balance may still be settled
func (s PayableStatus) IsOpen() bool {
	return s != PayableStatusPaid && s != PayableStatusCancelled
}

// PayablePayment records one payment made against a payable
type PayablePayment struct {
	ID            uuid.UUID
	PayableID     uuid.UUID
	Amount        decimal.Decimal
	PaymentDate   time.Time
	PaymentMethod string
	Reference     string
	Notes         string
	CreatedBy     *uuid.UUID
	CreatedAt     time.Time
}

// Creditor identifies who the money is owed to
type Creditor struct {
	Name  string
	Phone string
	Email string
}

// Payable tracks money the business owes to a creditor
type Payable struct {
	shared.BaseAggregateRoot
	CreditorName      string
	CreditorPhone     string
	CreditorEmail     string
	Description       string
	AmountBorrowed    decimal.Decimal
	AmountPaid        decimal.Decimal
	BalanceRemaining  decimal.Decimal // AmountBorrowed - AmountPaid, never negative
	PaymentPercentage decimal.Decimal // 0-100
	DateBorrowed      time.Time
	DueDate           *time.Time
	Status            PayableStatus
	Notes             string
	CancelledAt       *time.Time
	Payments          []PayablePayment
}

var hundred = decimal.NewFromInt(100)

// NewPayable creates a new ACTIVE payable
func NewPayable(creditor Creditor, description string, amountBorrowed decimal.Decimal, dateBorrowed time.Time, dueDate *time.Time) (*Payable, error) {
	if err := validateCreditor(creditor); err != nil {
		return nil, err
	}
	if !amountBorrowed.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount borrowed must be greater than zero").WithField("amount_borrowed", "must be greater than 0")
	}
	if dateBorrowed.IsZero() {
		dateBorrowed = time.Now()
	}
	dateBorrowed = truncateToDay(dateBorrowed)
	if err := validateDueDate(dateBorrowed, dueDate); err != nil {
		return nil, err
	}

	p := &Payable{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Description:       description,
		AmountBorrowed:    amountBorrowed.Round(2),
		AmountPaid:        decimal.Zero,
		DateBorrowed:      dateBorrowed,
		DueDate:           truncatePtr(dueDate),
		Payments:          make([]PayablePayment, 0),
	}
	p.applyCreditor(creditor)
	p.refresh(time.Now())
	return p, nil
}

// Update changes the creditor details, amount and schedule
func (p *Payable) Update(creditor Creditor, description string, amountBorrowed decimal.Decimal, dateBorrowed time.Time, dueDate *time.Time, notes string) error {
	if err := p.EnsureActive(); err != nil {
		return err
	}
	if p.Status == PayableStatusCancelled {
		return shared.NewConflictError("INVALID_STATE", "Cannot update a cancelled payable")
	}
	if err := validateCreditor(creditor); err != nil {
		return err
	}
	if !amountBorrowed.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount borrowed must be greater than zero").WithField("amount_borrowed", "must be greater than 0")
	}
	amountBorrowed = amountBorrowed.Round(2)
	if amountBorrowed.LessThan(p.AmountPaid) {
		return shared.NewConflictError("BELOW_AMOUNT_PAID",
			fmt.Sprintf("Amount borrowed %s cannot be less than the amount already paid (%s)", amountBorrowed.StringFixed(2), p.AmountPaid.StringFixed(2)))
	}
	if dateBorrowed.IsZero() {
		dateBorrowed = p.DateBorrowed
	}
	dateBorrowed = truncateToDay(dateBorrowed)
	if err := validateDueDate(dateBorrowed, dueDate); err != nil {
		return err
	}

	p.applyCreditor(creditor)
	p.Description = description
	p.AmountBorrowed = amountBorrowed
	p.DateBorrowed = dateBorrowed
	p.DueDate = truncatePtr(dueDate)
	p.Notes = notes
	p.refresh(time.Now())
	p.Touch()
	return nil
}

// AddPayment records a payment. The amount may not exceed the balance.
func (p *Payable) AddPayment(amount decimal.Decimal, paymentDate time.Time, method, reference, notes string) (*PayablePayment, error) {
	if err := p.EnsureActive(); err != nil {
		return nil, err
	}
	if p.Status == PayableStatusCancelled {
		return nil, shared.NewConflictError("INVALID_STATE", "Cannot add a payment to a cancelled payable")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be greater than zero").WithField("amount", "must be greater than 0")
	}
	amount = amount.Round(2)
	if p.AmountPaid.Add(amount).GreaterThan(p.AmountBorrowed) {
		return nil, shared.NewConflictError("EXCEEDS_REMAINING",
			fmt.Sprintf("Payment of %s exceeds remaining balance of %s", amount.StringFixed(2), p.BalanceRemaining.StringFixed(2)))
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	payment := PayablePayment{
		ID:            uuid.New(),
		PayableID:     p.ID,
		Amount:        amount,
		PaymentDate:   truncateToDay(paymentDate),
		PaymentMethod: strings.TrimSpace(method),
		Reference:     reference,
		Notes:         notes,
		CreatedAt:     time.Now(),
	}
	p.Payments = append(p.Payments, payment)
	p.AmountPaid = p.AmountPaid.Add(amount)
	p.refresh(time.Now())
	p.Touch()
	return &p.Payments[len(p.Payments)-1], nil
}

// DeletePayment removes a payment and reverses its amount
func (p *Payable) DeletePayment(paymentID uuid.UUID) (*PayablePayment, error) {
	if err := p.EnsureActive(); err != nil {
		return nil, err
	}
	if p.Status == PayableStatusCancelled {
		return nil, shared.NewConflictError("INVALID_STATE", "Cannot change payments of a cancelled payable")
	}
	for idx := range p.Payments {
		if p.Payments[idx].ID != paymentID {
			continue
		}
		removed := p.Payments[idx]
		p.Payments = append(p.Payments[:idx], p.Payments[idx+1:]...)
		p.AmountPaid = decimal.Max(decimal.Zero, p.AmountPaid.Sub(removed.Amount))
		p.refresh(time.Now())
		p.Touch()
		return &removed, nil
	}
	return nil, shared.NewNotFoundError("Payment")
}

// Cancel marks the payable cancelled. A fully paid payable cannot be cancelled.
func (p *Payable) Cancel(reason string) error {
	if err := p.EnsureActive(); err != nil {
		return err
	}
	if p.Status == PayableStatusCancelled {
		return shared.NewConflictError("ALREADY_CANCELLED", "Payable is already cancelled")
	}
	if p.AmountPaid.GreaterThanOrEqual(p.AmountBorrowed) {
		return shared.NewConflictError("ALREADY_PAID", "Cannot cancel a payable that has been paid in full")
	}
	now := time.Now()
	p.CancelledAt = &now
	if reason = strings.TrimSpace(reason); reason != "" {
		line := fmt.Sprintf("[%s] Cancelled: %s", now.Format("2006-01-02 15:04"), reason)
		if p.Notes == "" {
			p.Notes = line
		} else {
			p.Notes += "\n" + line
		}
	}
	p.refresh(now)
	p.Touch()
	return nil
}

// RefreshStatus re-derives the status as of now. Overdue depends on the
// calendar, so reads call this before presenting a payable.
func (p *Payable) RefreshStatus(now time.Time) {
	p.refresh(now)
}

// IsOverdue returns true if the due date has passed with a balance left
func (p *Payable) IsOverdue(now time.Time) bool {
	if p.CancelledAt != nil || p.DueDate == nil {
		return false
	}
	if p.AmountPaid.GreaterThanOrEqual(p.AmountBorrowed) {
		return false
	}
	return truncateToDay(now).After(*p.DueDate)
}

// DaysOverdue returns the number of whole days past due (0 if not overdue)
func (p *Payable) DaysOverdue(now time.Time) int {
	if !p.IsOverdue(now) {
		return 0
	}
	return int(truncateToDay(now).Sub(*p.DueDate).Hours() / 24)
}

// PaymentCount returns the number of recorded payments
func (p *Payable) PaymentCount() int {
	return len(p.Payments)
}

// EnsureHardDeletable fails when any payment history exists
func (p *Payable) EnsureHardDeletable() error {
	if len(p.Payments) > 0 || p.AmountPaid.IsPositive() {
		return shared.ErrHasPayments
	}
	return nil
}

// refresh recomputes the derived amounts and the status
func (p *Payable) refresh(now time.Time) {
	p.BalanceRemaining = decimal.Max(decimal.Zero, p.AmountBorrowed.Sub(p.AmountPaid))
	if p.AmountBorrowed.IsPositive() {
		p.PaymentPercentage = decimal.Min(hundred, p.AmountPaid.Div(p.AmountBorrowed).Mul(hundred).Round(2))
	} else {
		p.PaymentPercentage = decimal.Zero
	}

	switch {
	case p.CancelledAt != nil:
		p.Status = PayableStatusCancelled
	case p.AmountPaid.GreaterThanOrEqual(p.AmountBorrowed):
		p.Status = PayableStatusPaid
	case p.IsOverdue(now):
		p.Status = PayableStatusOverdue
	case p.AmountPaid.IsPositive():
		p.Status = PayableStatusPartiallyPaid
	default:
		p.Status = PayableStatusActive
	}
}

func (p *Payable) applyCreditor(c Creditor) {
	p.CreditorName = strings.TrimSpace(c.Name)
	p.CreditorPhone = strings.TrimSpace(c.Phone)
	p.CreditorEmail = strings.ToLower(strings.TrimSpace(c.Email))
}

func validateCreditor(c Creditor) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_CREDITOR", "Creditor name cannot be empty").WithField("creditor_name", "required")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_CREDITOR", "Creditor name cannot exceed 200 characters").WithField("creditor_name", "max 200 characters")
	}
	if email := strings.TrimSpace(c.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return shared.NewDomainError("INVALID_EMAIL", "Creditor email is not valid").WithField("creditor_email", "invalid email")
		}
	}
	return nil
}

func validateDueDate(dateBorrowed time.Time, dueDate *time.Time) error {
	if dueDate == nil || dueDate.IsZero() {
		return nil
	}
	if truncateToDay(*dueDate).Before(truncateToDay(dateBorrowed)) {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before the borrow date").
			WithField("due_date", "must be on or after date_borrowed")
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
