package trade

import (
	"context"
	"errors"
	"time"

	"github.com/erp/backoffice/internal/application/unitofwork"
	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrOrderConverted rejects a hard delete of an order that has a sale
var ErrOrderConverted = shared.NewConflictError("ORDER_CONVERTED", "Order has been converted to a sale and cannot be deleted permanently")

// OrderService handles order business operations
type OrderService struct {
	orderRepo    trade.OrderRepository
	customerRepo partner.CustomerRepository
	productRepo  catalog.ProductRepository
	uow          *unitofwork.Runner
	metrics      *telemetry.LedgerMetrics
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo trade.OrderRepository,
	customerRepo partner.CustomerRepository,
	productRepo catalog.ProductRepository,
	uow *unitofwork.Runner,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		uow:          uow,
	}
}

// SetMetrics sets the business metrics recorder
func (s *OrderService) SetMetrics(metrics *telemetry.LedgerMetrics) {
	s.metrics = metrics
}

// Create creates a new PENDING order with its initial items and advance
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	customer, err := s.customerRepo.FindActiveByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	var dateOrdered time.Time
	if req.DateOrdered != nil {
		dateOrdered = *req.DateOrdered
	}
	order, err := trade.NewOrder(customer.ID, customerSnapshot(customer), dateOrdered, req.ExpectedDeliveryDate, req.Description)
	if err != nil {
		return nil, err
	}
	order.SetCreatedBy(req.CreatedBy)

	for _, input := range req.Items {
		if err := s.addItem(ctx, order, input); err != nil {
			return nil, err
		}
	}
	if req.AdvancePayment.IsNegative() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Advance payment cannot be negative").WithField("advance_payment", "must be 0 or more")
	}
	if req.AdvancePayment.IsPositive() {
		if err := order.AddPayment(req.AdvancePayment); err != nil {
			return nil, err
		}
	}

	if err := s.uow.Run(ctx, func(ctx context.Context) error {
		return s.orderRepo.Save(ctx, order)
	}); err != nil {
		return nil, err
	}

	s.metrics.OrderCreated(ctx)
	if order.AdvancePayment.IsPositive() {
		s.metrics.OrderPaymentRecorded(ctx, order.AdvancePayment)
	}
	logger.L(ctx).Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", order.CustomerID.String()),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
		zap.String("advance_payment", order.AdvancePayment.StringFixed(2)))

	response := ToOrderResponse(order)
	return &response, nil
}

// GetByID retrieves an order with its items
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List retrieves orders with filtering and pagination
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:            filter.Page,
		PageSize:        filter.PageSize,
		OrderBy:         filter.OrderBy,
		OrderDir:        filter.OrderDir,
		Search:          filter.Search,
		IncludeInactive: filter.IncludeInactive,
	}.Normalize()

	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.PaymentStatus != "" {
		domainFilter.Filters["payment_status"] = filter.PaymentStatus
	}
	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.Converted != nil {
		domainFilter.Filters["converted"] = *filter.Converted
	}
	if filter.DateFrom != nil {
		domainFilter.Filters["date_from"] = *filter.DateFrom
	}
	if filter.DateTo != nil {
		domainFilter.Filters["date_to"] = *filter.DateTo
	}

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToOrderListResponses(orders), total, nil
}

// Update changes the description and schedule of an order
func (s *OrderService) Update(ctx context.Context, orderID uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ context.Context, order *trade.Order) error {
		description := order.Description
		if req.Description != nil {
			description = *req.Description
		}
		dateOrdered := order.DateOrdered
		if req.DateOrdered != nil {
			dateOrdered = *req.DateOrdered
		}
		expected := order.ExpectedDeliveryDate
		if req.ExpectedDeliveryDate != nil {
			expected = req.ExpectedDeliveryDate
		}
		if req.ClearExpectedDelivery {
			expected = nil
		}
		return order.UpdateDetails(description, dateOrdered, expected)
	})
}

// AddItem adds a product line to an order
func (s *OrderService) AddItem(ctx context.Context, orderID uuid.UUID, req OrderItemInput) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, func(ctx context.Context, order *trade.Order) error {
		return s.addItem(ctx, order, req)
	})
}

// UpdateItem changes quantity, price or notes of an order line
func (s *OrderService) UpdateItem(ctx context.Context, orderID, itemID uuid.UUID, req UpdateOrderItemRequest) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ context.Context, order *trade.Order) error {
		item, err := order.FindItem(itemID)
		if err != nil {
			return err
		}
		quantity, price, notes := item.Quantity, item.UnitPrice, item.CustomizationNotes
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			price = *req.UnitPrice
		}
		if req.CustomizationNotes != nil {
			notes = *req.CustomizationNotes
		}
		_, err = order.UpdateItem(itemID, quantity, price, notes)
		return err
	})
}

// RemoveItem deactivates an order line
func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ context.Context, order *trade.Order) error {
		return order.RemoveItem(itemID)
	})
}

// AddPayment records an advance payment
func (s *OrderService) AddPayment(ctx context.Context, orderID uuid.UUID, req OrderPaymentRequest) (*OrderResponse, error) {
	resp, err := s.mutate(ctx, orderID, func(_ context.Context, order *trade.Order) error {
		return order.AddPayment(req.Amount)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.OrderPaymentRecorded(ctx, req.Amount.Round(2))
	logger.L(ctx).Info("order payment recorded",
		zap.String("order_id", orderID.String()),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("payment_status", resp.PaymentStatus))
	return resp, nil
}

// UpdateStatus moves an order through its state machine
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, req OrderStatusRequest) (*OrderResponse, error) {
	var from trade.OrderStatus
	resp, err := s.mutate(ctx, orderID, func(_ context.Context, order *trade.Order) error {
		from = order.Status
		return order.UpdateStatus(trade.OrderStatus(req.Status), req.Notes)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.StatusChanged(ctx, "order", string(from), resp.Status)
	logger.L(ctx).Info("order status changed",
		zap.String("order_id", orderID.String()),
		zap.String("from", string(from)),
		zap.String("to", resp.Status))
	return resp, nil
}

// BulkUpdateStatus applies the same transition to several orders. Each order
// commits on its own, so one failure does not undo the others.
func (s *OrderService) BulkUpdateStatus(ctx context.Context, req BulkOrderStatusRequest) (*BulkStatusResponse, error) {
	result := &BulkStatusResponse{Results: make([]BulkStatusResult, 0, len(req.OrderIDs))}
	seen := make(map[uuid.UUID]bool, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		resp, err := s.UpdateStatus(ctx, id, OrderStatusRequest{Status: req.Status, Notes: req.Notes})
		if err != nil {
			if shared.KindOf(err) == shared.KindInternal {
				return nil, err
			}
			entry := BulkStatusResult{OrderID: id, Error: err.Error()}
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) {
				entry.Code = domainErr.Code
			}
			result.Results = append(result.Results, entry)
			result.Failed++
			continue
		}
		result.Results = append(result.Results, BulkStatusResult{OrderID: id, Success: true, Status: resp.Status})
		result.Updated++
	}
	return result, nil
}

// Recalculate recomputes line totals and order totals from the items
func (s *OrderService) Recalculate(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ context.Context, order *trade.Order) error {
		order.RecalculateTotals()
		return nil
	})
}

// ResyncCustomer copies the customer's current contact details onto the order
func (s *OrderService) ResyncCustomer(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.mutate(ctx, orderID, func(ctx context.Context, order *trade.Order) error {
		customer, err := s.customerRepo.FindByID(ctx, order.CustomerID)
		if err != nil {
			return err
		}
		order.ResyncCustomer(customerSnapshot(customer))
		return nil
	})
}

// Delete soft-deletes an order, or removes it permanently when hard is set
// and no payment has been taken.
func (s *OrderService) Delete(ctx context.Context, orderID uuid.UUID, hard bool) error {
	err := s.uow.Run(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !hard {
			if err := order.Deactivate(); err != nil {
				return err
			}
			return s.orderRepo.SaveWithLock(ctx, order)
		}
		if err := order.EnsureHardDeletable(); err != nil {
			return err
		}
		if order.IsConverted() {
			return ErrOrderConverted
		}
		return s.orderRepo.Delete(ctx, orderID)
	}, unitofwork.Key("order", orderID))
	if err != nil {
		return err
	}
	logger.L(ctx).Info("order deleted", zap.String("order_id", orderID.String()), zap.Bool("hard", hard))
	return nil
}

// Restore reverses a soft delete
func (s *OrderService) Restore(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.apply(ctx, orderID, func(_ context.Context, order *trade.Order) error {
		return order.Restore()
	})
}

// mutate applies fn to an active order. Deleted orders must be restored first.
func (s *OrderService) mutate(ctx context.Context, orderID uuid.UUID, fn func(ctx context.Context, order *trade.Order) error) (*OrderResponse, error) {
	return s.apply(ctx, orderID, func(ctx context.Context, order *trade.Order) error {
		if err := order.EnsureActive(); err != nil {
			return err
		}
		return fn(ctx, order)
	})
}

// apply loads the order for update, applies fn and saves it with a version
// check, all under the order's lock.
func (s *OrderService) apply(ctx context.Context, orderID uuid.UUID, fn func(ctx context.Context, order *trade.Order) error) (*OrderResponse, error) {
	var saved *trade.Order
	err := s.uow.Run(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := fn(ctx, order); err != nil {
			return err
		}
		if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
			return err
		}
		saved = order
		return nil
	}, unitofwork.Key("order", orderID))
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(saved)
	return &response, nil
}

func (s *OrderService) addItem(ctx context.Context, order *trade.Order, input OrderItemInput) error {
	product, err := s.productRepo.FindActiveByID(ctx, input.ProductID)
	if err != nil {
		return err
	}
	price := product.Price
	if input.UnitPrice != nil {
		price = *input.UnitPrice
	}
	_, err = order.AddItem(product.ID, product.Name, input.Quantity, price, input.CustomizationNotes)
	return err
}

func customerSnapshot(c *partner.Customer) trade.CustomerSnapshot {
	snap := c.Snapshot()
	return trade.CustomerSnapshot{Name: snap.Name, Phone: snap.Phone, Email: snap.Email}
}
