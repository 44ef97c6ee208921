package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayableModel is the persistence model for the Payable aggregate root.
type PayableModel struct {
	AggregateModel
	CreditorName      string                 `gorm:"type:varchar(200);not null;index"`
	CreditorPhone     string                 `gorm:"type:varchar(30)"`
	CreditorEmail     string                 `gorm:"type:varchar(200)"`
	Description       string                 `gorm:"type:text"`
	AmountBorrowed    decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	AmountPaid        decimal.Decimal        `gorm:"type:decimal(12,2);not null;default:0"`
	BalanceRemaining  decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	PaymentPercentage decimal.Decimal        `gorm:"type:decimal(5,2);not null;default:0"`
	DateBorrowed      time.Time              `gorm:"type:date;not null"`
	DueDate           *time.Time             `gorm:"type:date;index"`
	Status            string                 `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	Notes             string                 `gorm:"type:text"`
	CancelledAt       *time.Time
	Payments          []*PayablePaymentModel `gorm:"foreignKey:PayableID;references:ID"`
}

// TableName returns the table name for GORM
func (PayableModel) TableName() string {
	return "payables"
}

// ToDomain converts the persistence model to a domain Payable aggregate.
func (m *PayableModel) ToDomain() *finance.Payable {
	p := &finance.Payable{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CreditorName:      m.CreditorName,
		CreditorPhone:     m.CreditorPhone,
		CreditorEmail:     m.CreditorEmail,
		Description:       m.Description,
		AmountBorrowed:    m.AmountBorrowed,
		AmountPaid:        m.AmountPaid,
		BalanceRemaining:  m.BalanceRemaining,
		PaymentPercentage: m.PaymentPercentage,
		DateBorrowed:      m.DateBorrowed,
		DueDate:           m.DueDate,
		Status:            finance.PayableStatus(m.Status),
		Notes:             m.Notes,
		CancelledAt:       m.CancelledAt,
		Payments:          make([]finance.PayablePayment, len(m.Payments)),
	}
	for i, payment := range m.Payments {
		p.Payments[i] = *payment.ToDomain()
	}
	return p
}

// FromDomain populates the persistence model from a domain Payable aggregate.
// Payments are converted separately by the repository.
func (m *PayableModel) FromDomain(p *finance.Payable) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.CreditorName = p.CreditorName
	m.CreditorPhone = p.CreditorPhone
	m.CreditorEmail = p.CreditorEmail
	m.Description = p.Description
	m.AmountBorrowed = p.AmountBorrowed
	m.AmountPaid = p.AmountPaid
	m.BalanceRemaining = p.BalanceRemaining
	m.PaymentPercentage = p.PaymentPercentage
	m.DateBorrowed = p.DateBorrowed
	m.DueDate = p.DueDate
	m.Status = string(p.Status)
	m.Notes = p.Notes
	m.CancelledAt = p.CancelledAt
}

// PayableModelFromDomain creates a new persistence model from domain entity.
func PayableModelFromDomain(p *finance.Payable) *PayableModel {
	m := &PayableModel{}
	m.FromDomain(p)
	return m
}

// PayablePaymentModel is the persistence model for a repayment.
type PayablePaymentModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PayableID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentDate   time.Time       `gorm:"type:date;not null"`
	PaymentMethod string          `gorm:"type:varchar(20);not null"`
	Reference     string          `gorm:"type:varchar(100)"`
	Notes         string          `gorm:"type:text"`
	CreatedBy     *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PayablePaymentModel) TableName() string {
	return "payable_payments"
}

// ToDomain converts the persistence model to a domain PayablePayment.
func (m *PayablePaymentModel) ToDomain() *finance.PayablePayment {
	return &finance.PayablePayment{
		ID:            m.ID,
		PayableID:     m.PayableID,
		Amount:        m.Amount,
		PaymentDate:   m.PaymentDate,
		PaymentMethod: m.PaymentMethod,
		Reference:     m.Reference,
		Notes:         m.Notes,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

// PayablePaymentModelFromDomain creates a new persistence model from a domain PayablePayment.
func PayablePaymentModelFromDomain(p *finance.PayablePayment) *PayablePaymentModel {
	return &PayablePaymentModel{
		ID:            p.ID,
		PayableID:     p.PayableID,
		Amount:        p.Amount,
		PaymentDate:   p.PaymentDate,
		PaymentMethod: p.PaymentMethod,
		Reference:     p.Reference,
		Notes:         p.Notes,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
	}
}
