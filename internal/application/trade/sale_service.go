package trade

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/application/unitofwork"
	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Conflicts specific to sale workflows
var (
	ErrAlreadyConverted = shared.NewConflictError("ALREADY_CONVERTED", "Order has already been converted to a sale")
	ErrSaleFromOrder    = shared.NewConflictError("SALE_FROM_ORDER", "A sale created from an order cannot be deleted permanently")
)

// SaleService handles sales, including conversion of orders into sales
type SaleService struct {
	saleRepo     trade.SaleRepository
	orderRepo    trade.OrderRepository
	customerRepo partner.CustomerRepository
	productRepo  catalog.ProductRepository
	invoices     trade.InvoiceNumberAllocator
	uow          *unitofwork.Runner
	metrics      *telemetry.LedgerMetrics
	now          func() time.Time
}

// NewSaleService creates a new SaleService
func NewSaleService(
	saleRepo trade.SaleRepository,
	orderRepo trade.OrderRepository,
	customerRepo partner.CustomerRepository,
	productRepo catalog.ProductRepository,
	invoices trade.InvoiceNumberAllocator,
	uow *unitofwork.Runner,
) *SaleService {
	return &SaleService{
		saleRepo:     saleRepo,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		invoices:     invoices,
		uow:          uow,
		now:          time.Now,
	}
}

// SetMetrics sets the business metrics recorder
func (s *SaleService) SetMetrics(metrics *telemetry.LedgerMetrics) {
	s.metrics = metrics
}

// Create records a direct sale. Every item is checked against stock on hand;
// stock is not decremented.
func (s *SaleService) Create(ctx context.Context, req CreateSaleRequest) (*SaleResponse, error) {
	customer, err := s.customerRepo.FindActiveByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	products := make(map[uuid.UUID]*catalog.Product, len(req.Items))
	requested := make(map[uuid.UUID]int, len(req.Items))
	for _, input := range req.Items {
		if _, ok := products[input.ProductID]; !ok {
			product, err := s.productRepo.FindActiveByID(ctx, input.ProductID)
			if err != nil {
				return nil, err
			}
			products[input.ProductID] = product
		}
		requested[input.ProductID] += input.Quantity
	}
	for id, qty := range requested {
		if err := products[id].EnsureStock(qty); err != nil {
			return nil, err
		}
	}

	saleDate := s.now()
	if req.SaleDate != nil && !req.SaleDate.IsZero() {
		saleDate = *req.SaleDate
	}

	var sale *trade.Sale
	err = s.uow.Run(ctx, func(ctx context.Context) error {
		invoice, err := s.invoices.Next(ctx, saleDate.Year())
		if err != nil {
			return err
		}
		sale, err = trade.NewSale(invoice, customer.ID, customerSnapshot(customer), saleDate)
		if err != nil {
			return err
		}
		sale.SetCreatedBy(req.CreatedBy)
		sale.SetNotes(req.Notes)

		for _, input := range req.Items {
			product := products[input.ProductID]
			price := product.Price
			if input.UnitPrice != nil {
				price = *input.UnitPrice
			}
			if _, err := sale.AddItem(product.ID, product.Name, input.Quantity, price, input.ItemDiscount, input.Notes, nil); err != nil {
				return err
			}
		}
		gst := trade.DefaultGSTPercentage
		if req.GSTPercentage != nil {
			gst = *req.GSTPercentage
		}
		if err := sale.SetPricing(req.OverallDiscount, gst); err != nil {
			return err
		}
		if err := applyInitialPayment(sale, req.AmountPaid, req.PaymentMethod, req.SplitPaymentDetails); err != nil {
			return err
		}
		return s.saleRepo.Save(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.recordCreated(ctx, sale, telemetry.SaleSourceDirect)
	response := ToSaleResponse(sale)
	return &response, nil
}

// CreateFromOrder converts a READY or DELIVERED order into a CONFIRMED sale.
// The order is locked and marked converted in the same transaction, so an
// order can never yield two sales.
func (s *SaleService) CreateFromOrder(ctx context.Context, req CreateSaleFromOrderRequest) (*SaleResponse, error) {
	saleDate := s.now()
	if req.SaleDate != nil && !req.SaleDate.IsZero() {
		saleDate = *req.SaleDate
	}

	var sale *trade.Sale
	err := s.uow.Run(ctx, func(ctx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if err := order.EnsureConvertible(); err != nil {
			return err
		}
		exists, err := s.saleRepo.ExistsForOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyConverted
		}

		invoice, err := s.invoices.Next(ctx, saleDate.Year())
		if err != nil {
			return err
		}
		lines := make([]trade.ConversionLine, len(req.PartialItems))
		for i, item := range req.PartialItems {
			lines[i] = trade.ConversionLine{OrderItemID: item.OrderItemID, Quantity: item.Quantity}
		}
		sale, err = trade.ConvertOrder(order, trade.ConversionRequest{
			InvoiceNumber:   invoice,
			SaleDate:        saleDate,
			PaymentMethod:   trade.PaymentMethod(req.PaymentMethod),
			AmountPaid:      req.AmountPaid,
			SplitDetails:    toSplitPayments(req.SplitPaymentDetails),
			OverallDiscount: req.OverallDiscount,
			GSTPercentage:   req.GSTPercentage,
			Lines:           lines,
			Notes:           req.Notes,
		})
		if err != nil {
			return err
		}
		sale.SetCreatedBy(req.CreatedBy)

		if err := s.saleRepo.Save(ctx, sale); err != nil {
			return err
		}
		return s.orderRepo.SaveWithLock(ctx, order)
	}, unitofwork.Key("order", req.OrderID))
	if err != nil {
		return nil, err
	}

	s.recordCreated(ctx, sale, telemetry.SaleSourceConversion)
	logger.L(ctx).Info("order converted to sale",
		zap.String("order_id", req.OrderID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.Int("partial_items", len(req.PartialItems)))

	response := ToSaleResponse(sale)
	return &response, nil
}

// GetByID retrieves a sale with its items
func (s *SaleService) GetByID(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// GetByInvoiceNumber retrieves a sale by its invoice number
func (s *SaleService) GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByInvoiceNumber(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// List retrieves sales with filtering and pagination
func (s *SaleService) List(ctx context.Context, filter SaleListFilter) ([]SaleResponse, int64, error) {
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
	if filter.PaymentMethod != "" {
		domainFilter.Filters["payment_method"] = filter.PaymentMethod
	}
	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.OrderID != nil {
		domainFilter.Filters["order_id"] = *filter.OrderID
	}
	if filter.FullyPaid != nil {
		domainFilter.Filters["fully_paid"] = *filter.FullyPaid
	}
	if filter.DateFrom != nil {
		domainFilter.Filters["date_from"] = *filter.DateFrom
	}
	if filter.DateTo != nil {
		domainFilter.Filters["date_to"] = *filter.DateTo
	}

	sales, err := s.saleRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.saleRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToSaleListResponses(sales), total, nil
}

// AddPayment records a payment on a sale
func (s *SaleService) AddPayment(ctx context.Context, saleID uuid.UUID, req SalePaymentRequest) (*SaleResponse, error) {
	resp, err := s.mutate(ctx, saleID, func(_ context.Context, sale *trade.Sale) error {
		return sale.RecordPayment(req.Amount, trade.PaymentMethod(req.PaymentMethod), toSplitPayments(req.SplitPaymentDetails))
	})
	if err != nil {
		return nil, err
	}
	s.metrics.SalePaymentRecorded(ctx, req.PaymentMethod, req.Amount.Round(2))
	logger.L(ctx).Info("sale payment recorded",
		zap.String("sale_id", saleID.String()),
		zap.String("invoice_number", resp.InvoiceNumber),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("payment_method", req.PaymentMethod))
	return resp, nil
}

// UpdateStatus moves a sale through its state machine
func (s *SaleService) UpdateStatus(ctx context.Context, saleID uuid.UUID, req SaleStatusRequest) (*SaleResponse, error) {
	var from trade.SaleStatus
	resp, err := s.mutate(ctx, saleID, func(_ context.Context, sale *trade.Sale) error {
		from = sale.Status
		return sale.UpdateStatus(trade.SaleStatus(req.Status))
	})
	if err != nil {
		return nil, err
	}
	s.metrics.StatusChanged(ctx, "sale", string(from), resp.Status)
	logger.L(ctx).Info("sale status changed",
		zap.String("sale_id", saleID.String()),
		zap.String("from", string(from)),
		zap.String("to", resp.Status))
	return resp, nil
}

// AddItem adds a product line to a DRAFT or CONFIRMED sale. Sales without an
// order are checked against stock on hand.
func (s *SaleService) AddItem(ctx context.Context, saleID uuid.UUID, req SaleItemInput) (*SaleResponse, error) {
	return s.mutate(ctx, saleID, func(ctx context.Context, sale *trade.Sale) error {
		product, err := s.productRepo.FindActiveByID(ctx, req.ProductID)
		if err != nil {
			return err
		}
		if sale.OrderID == nil {
			if err := product.EnsureStock(req.Quantity); err != nil {
				return err
			}
		}
		price := product.Price
		if req.UnitPrice != nil {
			price = *req.UnitPrice
		}
		_, err = sale.AddItem(product.ID, product.Name, req.Quantity, price, req.ItemDiscount, req.Notes, nil)
		return err
	})
}

// UpdateItem changes a sale line
func (s *SaleService) UpdateItem(ctx context.Context, saleID, itemID uuid.UUID, req UpdateSaleItemRequest) (*SaleResponse, error) {
	return s.mutate(ctx, saleID, func(_ context.Context, sale *trade.Sale) error {
		item, err := sale.FindItem(itemID)
		if err != nil {
			return err
		}
		quantity, price, discount, notes := item.Quantity, item.UnitPrice, item.ItemDiscount, item.Notes
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			price = *req.UnitPrice
		}
		if req.ItemDiscount != nil {
			discount = *req.ItemDiscount
		}
		if req.Notes != nil {
			notes = *req.Notes
		}
		_, err = sale.UpdateItem(itemID, quantity, price, discount, notes)
		return err
	})
}

// RemoveItem deactivates a sale line
func (s *SaleService) RemoveItem(ctx context.Context, saleID, itemID uuid.UUID) (*SaleResponse, error) {
	return s.mutate(ctx, saleID, func(_ context.Context, sale *trade.Sale) error {
		return sale.RemoveItem(itemID)
	})
}

// Recalculate recomputes the sale totals from its items
func (s *SaleService) Recalculate(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	return s.mutate(ctx, saleID, func(_ context.Context, sale *trade.Sale) error {
		sale.RecalculateTotals()
		if sale.AmountPaid.GreaterThan(sale.GrandTotal) {
			return shared.NewConflictError("TOTAL_BELOW_PAID", "Recalculated grand total would fall below the amount already paid")
		}
		sale.Touch()
		return nil
	})
}

// ResyncCustomer copies the customer's current contact details onto the sale
func (s *SaleService) ResyncCustomer(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	return s.mutate(ctx, saleID, func(ctx context.Context, sale *trade.Sale) error {
		customer, err := s.customerRepo.FindByID(ctx, sale.CustomerID)
		if err != nil {
			return err
		}
		sale.ResyncCustomer(customerSnapshot(customer))
		return nil
	})
}

// Delete soft-deletes a sale, or removes it permanently when hard is set, no
// payment has been taken and it was not created from an order.
func (s *SaleService) Delete(ctx context.Context, saleID uuid.UUID, hard bool) error {
	err := s.uow.Run(ctx, func(ctx context.Context) error {
		sale, err := s.saleRepo.FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if !hard {
			if err := sale.Deactivate(); err != nil {
				return err
			}
			return s.saleRepo.SaveWithLock(ctx, sale)
		}
		if err := sale.EnsureHardDeletable(); err != nil {
			return err
		}
		if sale.OrderID != nil {
			return ErrSaleFromOrder
		}
		return s.saleRepo.Delete(ctx, saleID)
	}, unitofwork.Key("sale", saleID))
	if err != nil {
		return err
	}
	logger.L(ctx).Info("sale deleted", zap.String("sale_id", saleID.String()), zap.Bool("hard", hard))
	return nil
}

// Restore reverses a soft delete
func (s *SaleService) Restore(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	return s.apply(ctx, saleID, func(_ context.Context, sale *trade.Sale) error {
		return sale.Restore()
	})
}

func (s *SaleService) mutate(ctx context.Context, saleID uuid.UUID, fn func(ctx context.Context, sale *trade.Sale) error) (*SaleResponse, error) {
	return s.apply(ctx, saleID, func(ctx context.Context, sale *trade.Sale) error {
		if err := sale.EnsureActive(); err != nil {
			return err
		}
		return fn(ctx, sale)
	})
}

func (s *SaleService) apply(ctx context.Context, saleID uuid.UUID, fn func(ctx context.Context, sale *trade.Sale) error) (*SaleResponse, error) {
	var saved *trade.Sale
	err := s.uow.Run(ctx, func(ctx context.Context) error {
		sale, err := s.saleRepo.FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if err := fn(ctx, sale); err != nil {
			return err
		}
		if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
			return err
		}
		saved = sale
		return nil
	}, unitofwork.Key("sale", saleID))
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(saved)
	return &response, nil
}

func (s *SaleService) recordCreated(ctx context.Context, sale *trade.Sale, source string) {
	s.metrics.InvoiceIssued(ctx)
	s.metrics.SaleCreated(ctx, source)
	if sale.AmountPaid.IsPositive() {
		s.metrics.SalePaymentRecorded(ctx, string(sale.PaymentMethod), sale.AmountPaid)
	}
	logger.L(ctx).Info("sale created",
		zap.String("sale_id", sale.ID.String()),
		zap.String("invoice_number", sale.InvoiceNumber),
		zap.String("source", source),
		zap.String("grand_total", sale.GrandTotal.StringFixed(2)),
		zap.String("amount_paid", sale.AmountPaid.StringFixed(2)))
}

// applyInitialPayment records the payment taken when a direct sale is created
func applyInitialPayment(sale *trade.Sale, amount decimal.Decimal, method string, split []SplitPaymentInput) error {
	m := trade.PaymentMethod(method)
	if m == "" {
		m = trade.PaymentMethodCash
	}
	if amount.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Amount paid cannot be negative").WithField("amount_paid", "must be 0 or more")
	}
	if amount.IsZero() {
		if err := trade.ValidatePaymentMethod(m, nil, decimal.Zero); err != nil {
			return err
		}
		sale.PaymentMethod = m
		return nil
	}
	return sale.RecordPayment(amount, m, toSplitPayments(split))
}
