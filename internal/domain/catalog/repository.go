package catalog

import (
	"context"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by ID, including soft-deleted ones
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindActiveByID finds a product that has not been soft-deleted
	FindActiveByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindAll finds products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsBySKU checks if another product already uses the SKU
	ExistsBySKU(ctx context.Context, sku string, excludeID uuid.UUID) (bool, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error
}
