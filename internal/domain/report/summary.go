// Package report holds read models for ledger reporting.
package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Period is a half-open date range [From, To)
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// OrderSection summarises open customer orders
type OrderSection struct {
	CountByStatus      map[string]int64 `json:"count_by_status"`
	OutstandingBalance decimal.Decimal  `json:"outstanding_balance"` // remaining amount of non-cancelled orders
	AdvanceCollected   decimal.Decimal  `json:"advance_collected"`
	AwaitingConversion int64            `json:"awaiting_conversion"` // READY/DELIVERED orders without a sale
}

// SalesSection summarises sales within the period
type SalesSection struct {
	Count         int64            `json:"count"`
	CountByStatus map[string]int64 `json:"count_by_status"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	Discounts     decimal.Decimal  `json:"discounts"`
	Tax           decimal.Decimal  `json:"tax"`
	GrandTotal    decimal.Decimal  `json:"grand_total"`
	Collected     decimal.Decimal  `json:"collected"`
	Receivable    decimal.Decimal  `json:"receivable"`
}

// PayableSection summarises money owed to creditors
type PayableSection struct {
	OpenCount    int64           `json:"open_count"`
	OverdueCount int64           `json:"overdue_count"`
	Borrowed     decimal.Decimal `json:"borrowed"`
	Repaid       decimal.Decimal `json:"repaid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	OverdueTotal decimal.Decimal `json:"overdue_total"`
}

// LedgerSummary is the combined dashboard read model
type LedgerSummary struct {
	Period      Period         `json:"period"`
	Orders      OrderSection   `json:"orders"`
	Sales       SalesSection   `json:"sales"`
	Payables    PayableSection `json:"payables"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// SummaryRepository computes the summary sections. Sections are independent
// and may be queried concurrently.
type SummaryRepository interface {
	OrderSection(ctx context.Context) (*OrderSection, error)
	SalesSection(ctx context.Context, period Period) (*SalesSection, error)
	PayableSection(ctx context.Context, today time.Time) (*PayableSection, error)
}

// MonthToDate returns the period from the first of now's month to tomorrow
func MonthToDate(now time.Time) Period {
	y, m, d := now.Date()
	return Period{
		From: time.Date(y, m, 1, 0, 0, 0, 0, now.Location()),
		To:   time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()),
	}
}

// Validate checks the period bounds
func (p Period) Validate() bool {
	return !p.From.IsZero() && !p.To.IsZero() && p.From.Before(p.To)
}

// Invalidator drops cached summaries after ledger data changes
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// NopInvalidator never caches, so there is nothing to drop
type NopInvalidator struct{}

// Invalidate implements Invalidator
func (NopInvalidator) Invalidate(context.Context) {}
