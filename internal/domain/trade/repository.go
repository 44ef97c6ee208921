package trade

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order with all of its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForUpdate finds an order and locks its row until the surrounding
	// transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindAll finds orders matching the filter (items not loaded)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates an order and its items
	Save(ctx context.Context, order *Order) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, order *Order) error

	// Delete removes an order and its items permanently
	Delete(ctx context.Context, id uuid.UUID) error
}

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID finds a sale with all of its items
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByIDForUpdate finds a sale and locks its row
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByInvoiceNumber finds a sale by its invoice number
	FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*Sale, error)

	// ExistsForOrder reports whether any sale references the order
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)

	// FindAll finds sales matching the filter (items not loaded)
	FindAll(ctx context.Context, filter shared.Filter) ([]Sale, error)

	// FindBySaleDate finds active sales in [from, to) ordered by sale date
	FindBySaleDate(ctx context.Context, from, to time.Time) ([]Sale, error)

	// Count counts sales matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a sale and its items
	Save(ctx context.Context, sale *Sale) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, sale *Sale) error

	// Delete removes a sale and its items permanently
	Delete(ctx context.Context, id uuid.UUID) error
}

// InvoiceNumberAllocator hands out invoice numbers. Allocation must be atomic:
// two callers never receive the same number.
type InvoiceNumberAllocator interface {
	Next(ctx context.Context, year int) (string, error)
}
