package persistence

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/domain/finance"
	"github.com/erp/backoffice/internal/domain/report"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormSummaryRepository implements report.SummaryRepository with aggregate queries
type GormSummaryRepository struct {
	db *gorm.DB
}

// NewGormSummaryRepository creates a new GormSummaryRepository
func NewGormSummaryRepository(db *gorm.DB) *GormSummaryRepository {
	return &GormSummaryRepository{db: db}
}

type statusCount struct {
	Status string
	Count  int64
}

// OrderSection aggregates active orders
func (r *GormSummaryRepository) OrderSection(ctx context.Context) (*report.OrderSection, error) {
	section := &report.OrderSection{CountByStatus: make(map[string]int64)}

	var counts []statusCount
	if err := conn(ctx, r.db).Model(&models.OrderModel{}).
		Select("status, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, c := range counts {
		section.CountByStatus[c.Status] = c.Count
	}

	var totals struct {
		Outstanding decimal.Decimal
		Advance     decimal.Decimal
	}
	if err := conn(ctx, r.db).Model(&models.OrderModel{}).
		Select("COALESCE(SUM(remaining_amount), 0) AS outstanding, COALESCE(SUM(advance_payment), 0) AS advance").
		Where("is_active = ? AND status <> ?", true, trade.OrderStatusCancelled).
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	section.OutstandingBalance = totals.Outstanding.Round(2)
	section.AdvanceCollected = totals.Advance.Round(2)

	if err := conn(ctx, r.db).Model(&models.OrderModel{}).
		Where("is_active = ? AND converted_sale_id IS NULL AND status IN ?", true,
			[]string{string(trade.OrderStatusReady), string(trade.OrderStatusDelivered)}).
		Count(&section.AwaitingConversion).Error; err != nil {
		return nil, err
	}
	return section, nil
}

// SalesSection aggregates active, non-cancelled sales dated within period
func (r *GormSummaryRepository) SalesSection(ctx context.Context, period report.Period) (*report.SalesSection, error) {
	section := &report.SalesSection{CountByStatus: make(map[string]int64)}
	inPeriod := func() *gorm.DB {
		return conn(ctx, r.db).Model(&models.SaleModel{}).
			Where("is_active = ? AND sale_date >= ? AND sale_date < ?", true, period.From, period.To)
	}

	var counts []statusCount
	if err := inPeriod().
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, c := range counts {
		section.CountByStatus[c.Status] = c.Count
		section.Count += c.Count
	}

	var totals struct {
		Subtotal   decimal.Decimal
		Discounts  decimal.Decimal
		Tax        decimal.Decimal
		GrandTotal decimal.Decimal
		Collected  decimal.Decimal
		Receivable decimal.Decimal
	}
	if err := inPeriod().
		Select(`COALESCE(SUM(subtotal), 0) AS subtotal,
			COALESCE(SUM(overall_discount), 0) AS discounts,
			COALESCE(SUM(tax_amount), 0) AS tax,
			COALESCE(SUM(grand_total), 0) AS grand_total,
			COALESCE(SUM(amount_paid), 0) AS collected,
			COALESCE(SUM(remaining_amount), 0) AS receivable`).
		Where("status <> ?", trade.SaleStatusCancelled).
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	section.Subtotal = totals.Subtotal.Round(2)
	section.Discounts = totals.Discounts.Round(2)
	section.Tax = totals.Tax.Round(2)
	section.GrandTotal = totals.GrandTotal.Round(2)
	section.Collected = totals.Collected.Round(2)
	section.Receivable = totals.Receivable.Round(2)
	return section, nil
}

// PayableSection aggregates active payables. Overdue is computed against
// today rather than the stored status.
func (r *GormSummaryRepository) PayableSection(ctx context.Context, today time.Time) (*report.PayableSection, error) {
	section := &report.PayableSection{}
	today = truncateToDay(today)
	open := func() *gorm.DB {
		return conn(ctx, r.db).Model(&models.PayableModel{}).
			Where("is_active = ? AND status NOT IN ?", true,
				[]string{string(finance.PayableStatusPaid), string(finance.PayableStatusCancelled)})
	}

	var totals struct {
		OpenCount   int64
		Borrowed    decimal.Decimal
		Repaid      decimal.Decimal
		Outstanding decimal.Decimal
	}
	if err := open().
		Select(`COUNT(*) AS open_count,
			COALESCE(SUM(amount_borrowed), 0) AS borrowed,
			COALESCE(SUM(amount_paid), 0) AS repaid,
			COALESCE(SUM(balance_remaining), 0) AS outstanding`).
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	section.OpenCount = totals.OpenCount
	section.Borrowed = totals.Borrowed.Round(2)
	section.Repaid = totals.Repaid.Round(2)
	section.Outstanding = totals.Outstanding.Round(2)

	var overdue struct {
		OverdueCount int64
		OverdueTotal decimal.Decimal
	}
	if err := open().
		Select("COUNT(*) AS overdue_count, COALESCE(SUM(balance_remaining), 0) AS overdue_total").
		Where("due_date IS NOT NULL AND due_date < ?", today).
		Scan(&overdue).Error; err != nil {
		return nil, err
	}
	section.OverdueCount = overdue.OverdueCount
	section.OverdueTotal = overdue.OverdueTotal.Round(2)
	return section, nil
}
