package finance

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// PayableFilter narrows payable listings
type PayableFilter struct {
	shared.Filter
	Status      PayableStatus
	OverdueOnly bool
}

// PayableRepository defines persistence operations for payables and their payments
type PayableRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payable, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Payable, error)
	FindAll(ctx context.Context, filter PayableFilter) ([]Payable, error)
	Count(ctx context.Context, filter PayableFilter) (int64, error)
	// Save persists the payable and synchronises its payment rows
	Save(ctx context.Context, payable *Payable) error
	SaveWithLock(ctx context.Context, payable *Payable) error
	Delete(ctx context.Context, id uuid.UUID) error
	// MarkOverdue stores OVERDUE on open payables whose due date is before
	// today and returns the number of rows changed
	MarkOverdue(ctx context.Context, today time.Time) (int64, error)
}
