package partner

import (
	"context"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by ID, including soft-deleted ones
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindActiveByID finds a customer that has not been soft-deleted
	FindActiveByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindAll finds customers matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Customer, error)

	// Count counts customers matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error
}
