package partner

import (
	"context"

	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo partner.CustomerRepository
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
	}
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := partner.NewCustomer(req.Name, req.Phone, req.Email)
	if err != nil {
		return nil, err
	}
	if req.Address != "" {
		customer.SetAddress(req.Address)
	}
	customer.Notes = req.Notes
	customer.SetCreatedBy(req.CreatedBy)

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("customer created",
		zap.String("customer_id", customer.ID.String()),
		zap.String("name", customer.Name))

	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetByID retrieves a customer by ID, including soft-deleted ones
func (s *CustomerService) GetByID(ctx context.Context, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// List retrieves customers with search and pagination
func (s *CustomerService) List(ctx context.Context, filter CustomerListFilter) ([]CustomerResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:            filter.Page,
		PageSize:        filter.PageSize,
		OrderBy:         filter.OrderBy,
		OrderDir:        filter.OrderDir,
		Search:          filter.Search,
		IncludeInactive: filter.IncludeInactive,
	}.Normalize()
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "name"
		if filter.OrderDir == "" {
			domainFilter.OrderDir = "asc"
		}
	}

	customers, err := s.customerRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.customerRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToCustomerResponses(customers), total, nil
}

// Update updates a customer's contact details. Orders and sales keep their
// own snapshot until they are explicitly resynced.
func (s *CustomerService) Update(ctx context.Context, customerID uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindActiveByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	name, phone, email := customer.Name, customer.Phone, customer.Email
	address, notes := customer.Address, customer.Notes
	if req.Name != nil {
		name = *req.Name
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	if req.Email != nil {
		email = *req.Email
	}
	if req.Address != nil {
		address = *req.Address
	}
	if req.Notes != nil {
		notes = *req.Notes
	}
	if err := customer.Update(name, phone, email, address, notes); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// Delete soft-deletes a customer. Orders and sales referencing the customer
// are left untouched.
func (s *CustomerService) Delete(ctx context.Context, customerID uuid.UUID) error {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return err
	}
	if err := customer.Deactivate(); err != nil {
		return err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return err
	}
	logger.L(ctx).Info("customer deactivated", zap.String("customer_id", customerID.String()))
	return nil
}

// Restore reverses a soft delete
func (s *CustomerService) Restore(ctx context.Context, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := customer.Restore(); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}
