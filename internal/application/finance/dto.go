package finance

import (
	"time"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePayableRequest represents a request to record money owed
type CreatePayableRequest struct {
	CreditorName   string          `json:"creditor_name" binding:"required,min=1,max=200"`
	CreditorPhone  string          `json:"creditor_phone" binding:"max=50"`
	CreditorEmail  string          `json:"creditor_email" binding:"omitempty,email"`
	Description    string          `json:"description"`
	AmountBorrowed decimal.Decimal `json:"amount_borrowed"`
	DateBorrowed   *time.Time      `json:"date_borrowed"`
	DueDate        *time.Time      `json:"due_date"`
	Notes          string          `json:"notes"`
	CreatedBy      *uuid.UUID      `json:"-"` // Set from JWT context, not from request body
}

// UpdatePayableRequest replaces the editable fields of a payable; nil fields are kept
type UpdatePayableRequest struct {
	CreditorName   *string          `json:"creditor_name" binding:"omitempty,min=1,max=200"`
	CreditorPhone  *string          `json:"creditor_phone" binding:"omitempty,max=50"`
	CreditorEmail  *string          `json:"creditor_email" binding:"omitempty,email"`
	Description    *string          `json:"description"`
	AmountBorrowed *decimal.Decimal `json:"amount_borrowed"`
	DateBorrowed   *time.Time       `json:"date_borrowed"`
	DueDate        *time.Time       `json:"due_date"`
	ClearDueDate   bool             `json:"clear_due_date"`
	Notes          *string          `json:"notes"`
}

// PayablePaymentRequest records a payment against a payable
type PayablePaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   *time.Time      `json:"payment_date"`
	PaymentMethod string          `json:"payment_method" binding:"max=50"`
	Reference     string          `json:"reference" binding:"max=100"`
	Notes         string          `json:"notes"`
	CreatedBy     *uuid.UUID      `json:"-"`
}

// CancelPayableRequest carries an optional cancellation reason
type CancelPayableRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// PayableListFilter represents filter options for payable list
type PayableListFilter struct {
	Search          string `form:"search"`
	Status          string `form:"status" binding:"omitempty,oneof=ACTIVE PARTIALLY_PAID OVERDUE PAID CANCELLED"`
	Overdue         bool   `form:"overdue"`
	IncludeInactive bool   `form:"include_inactive"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string `form:"order_by"`
	OrderDir        string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PayablePaymentResponse represents a payable payment in API responses
type PayablePaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	PayableID     uuid.UUID       `json:"payable_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"payment_date"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PayableResponse represents a payable in API responses
type PayableResponse struct {
	ID                uuid.UUID                `json:"id"`
	CreditorName      string                   `json:"creditor_name"`
	CreditorPhone     string                   `json:"creditor_phone,omitempty"`
	CreditorEmail     string                   `json:"creditor_email,omitempty"`
	Description       string                   `json:"description,omitempty"`
	AmountBorrowed    decimal.Decimal          `json:"amount_borrowed"`
	AmountPaid        decimal.Decimal          `json:"amount_paid"`
	BalanceRemaining  decimal.Decimal          `json:"balance_remaining"`
	PaymentPercentage decimal.Decimal          `json:"payment_percentage"`
	DateBorrowed      time.Time                `json:"date_borrowed"`
	DueDate           *time.Time               `json:"due_date,omitempty"`
	DaysOverdue       int                      `json:"days_overdue"`
	Status            string                   `json:"status"`
	Notes             string                   `json:"notes,omitempty"`
	CancelledAt       *time.Time               `json:"cancelled_at,omitempty"`
	PaymentCount      int                      `json:"payment_count"`
	Payments          []PayablePaymentResponse `json:"payments,omitempty"`
	IsActive          bool                     `json:"is_active"`
	Version           int                      `json:"version"`
	CreatedBy         *uuid.UUID               `json:"created_by,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

// ToPayableResponse converts a domain Payable, payments included
func ToPayableResponse(p *finance.Payable, now time.Time) PayableResponse {
	resp := ToPayableListResponse(p, now)
	resp.Payments = ToPayablePaymentResponses(p.Payments)
	return resp
}

// ToPayableListResponse converts a domain Payable without its payments
func ToPayableListResponse(p *finance.Payable, now time.Time) PayableResponse {
	return PayableResponse{
		ID:                p.ID,
		CreditorName:      p.CreditorName,
		CreditorPhone:     p.CreditorPhone,
		CreditorEmail:     p.CreditorEmail,
		Description:       p.Description,
		AmountBorrowed:    p.AmountBorrowed,
		AmountPaid:        p.AmountPaid,
		BalanceRemaining:  p.BalanceRemaining,
		PaymentPercentage: p.PaymentPercentage,
		DateBorrowed:      p.DateBorrowed,
		DueDate:           p.DueDate,
		DaysOverdue:       p.DaysOverdue(now),
		Status:            string(p.Status),
		Notes:             p.Notes,
		CancelledAt:       p.CancelledAt,
		PaymentCount:      p.PaymentCount(),
		IsActive:          p.IsActive,
		Version:           p.Version,
		CreatedBy:         p.CreatedBy,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ToPayablePaymentResponses converts payable payments
func ToPayablePaymentResponses(payments []finance.PayablePayment) []PayablePaymentResponse {
	responses := make([]PayablePaymentResponse, len(payments))
	for i, pay := range payments {
		responses[i] = PayablePaymentResponse{
			ID:            pay.ID,
			PayableID:     pay.PayableID,
			Amount:        pay.Amount,
			PaymentDate:   pay.PaymentDate,
			PaymentMethod: pay.PaymentMethod,
			Reference:     pay.Reference,
			Notes:         pay.Notes,
			CreatedBy:     pay.CreatedBy,
			CreatedAt:     pay.CreatedAt,
		}
	}
	return responses
}
