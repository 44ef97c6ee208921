package handler

import (
	"context"

	partnerapp "github.com/erp/backoffice/internal/application/partner"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CustomerService is the part of partnerapp.CustomerService the handler uses
type CustomerService interface {
	Create(ctx context.Context, req partnerapp.CreateCustomerRequest) (*partnerapp.CustomerResponse, error)
	GetByID(ctx context.Context, customerID uuid.UUID) (*partnerapp.CustomerResponse, error)
	List(ctx context.Context, filter partnerapp.CustomerListFilter) ([]partnerapp.CustomerResponse, int64, error)
	Update(ctx context.Context, customerID uuid.UUID, req partnerapp.UpdateCustomerRequest) (*partnerapp.CustomerResponse, error)
	Delete(ctx context.Context, customerID uuid.UUID) error
	Restore(ctx context.Context, customerID uuid.UUID) (*partnerapp.CustomerResponse, error)
}

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	BaseHandler
	customerService CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// Create handles POST /customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req partnerapp.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = middleware.CurrentUser(c)

	customer, err := h.customerService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// GetByID handles GET /customers/:id
func (h *CustomerHandler) GetByID(c *gin.Context) {
	customerID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.GetByID(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// List handles GET /customers
func (h *CustomerHandler) List(c *gin.Context) {
	var filter partnerapp.CustomerListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	customers, total, err := h.customerService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Paginated(c, customers, total, filter.Page, filter.PageSize)
}

// Update handles PUT /customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	customerID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	customer, err := h.customerService.Update(c.Request.Context(), customerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Delete handles DELETE /customers/:id. Customers are only ever deactivated
// since orders and sales keep their snapshot.
func (h *CustomerHandler) Delete(c *gin.Context) {
	customerID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.customerService.Delete(c.Request.Context(), customerID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMessage(c, "Customer deleted")
}

// Restore handles POST /customers/:id/restore
func (h *CustomerHandler) Restore(c *gin.Context) {
	customerID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.Restore(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}
