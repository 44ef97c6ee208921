package persistence

import (
	"context"
	"fmt"

	"github.com/erp/backoffice/internal/domain/trade"
	"gorm.io/gorm"
)

// GormInvoiceNumberAllocator implements trade.InvoiceNumberAllocator on the
// invoice_sequences table. The upsert takes a row lock on the year, so
// concurrent transactions are serialised and never share a number.
type GormInvoiceNumberAllocator struct {
	db *gorm.DB
}

// NewGormInvoiceNumberAllocator creates a new GormInvoiceNumberAllocator
func NewGormInvoiceNumberAllocator(db *gorm.DB) *GormInvoiceNumberAllocator {
	return &GormInvoiceNumberAllocator{db: db}
}

const nextInvoiceSQL = `INSERT INTO invoice_sequences (year, last_value) VALUES (?, 1)
ON CONFLICT (year) DO UPDATE SET last_value = invoice_sequences.last_value + 1
RETURNING last_value`

// Next allocates the next invoice number for year
func (a *GormInvoiceNumberAllocator) Next(ctx context.Context, year int) (string, error) {
	var last int64
	if err := conn(ctx, a.db).Raw(nextInvoiceSQL, year).Scan(&last).Error; err != nil {
		return "", fmt.Errorf("allocate invoice number for %d: %w", year, err)
	}
	if last == 0 {
		return "", fmt.Errorf("allocate invoice number for %d: no sequence value returned", year)
	}
	return trade.FormatInvoiceNumber(year, last), nil
}
