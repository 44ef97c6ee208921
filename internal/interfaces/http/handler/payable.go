package handler

import (
	"context"

	financeapp "github.com/erp/backoffice/internal/application/finance"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PayableService is the part of financeapp.PayableService the handler uses
type PayableService interface {
	Create(ctx context.Context, req financeapp.CreatePayableRequest) (*financeapp.PayableResponse, error)
	GetByID(ctx context.Context, payableID uuid.UUID) (*financeapp.PayableResponse, error)
	List(ctx context.Context, filter financeapp.PayableListFilter) ([]financeapp.PayableResponse, int64, error)
	Update(ctx context.Context, payableID uuid.UUID, req financeapp.UpdatePayableRequest) (*financeapp.PayableResponse, error)
	AddPayment(ctx context.Context, payableID uuid.UUID, req financeapp.PayablePaymentRequest) (*financeapp.PayableResponse, error)
	ListPayments(ctx context.Context, payableID uuid.UUID) ([]financeapp.PayablePaymentResponse, error)
	DeletePayment(ctx context.Context, payableID, paymentID uuid.UUID) (*financeapp.PayableResponse, error)
	Cancel(ctx context.Context, payableID uuid.UUID, req financeapp.CancelPayableRequest) (*financeapp.PayableResponse, error)
	Delete(ctx context.Context, payableID uuid.UUID, hard bool) error
	Restore(ctx context.Context, payableID uuid.UUID) (*financeapp.PayableResponse, error)
}

// PayableHandler handles payable endpoints
type PayableHandler struct {
	BaseHandler
	payableService PayableService
}

// NewPayableHandler creates a new PayableHandler
func NewPayableHandler(payableService PayableService) *PayableHandler {
	return &PayableHandler{payableService: payableService}
}

// Create handles POST /payables
func (h *PayableHandler) Create(c *gin.Context) {
	var req financeapp.CreatePayableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = middleware.CurrentUser(c)

	payable, err := h.payableService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payable)
}

// GetByID handles GET /payables/:id
func (h *PayableHandler) GetByID(c *gin.Context) {
	payableID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*financeapp.PayableResponse, error) {
		return h.payableService.GetByID(ctx, payableID)
	})
}

// List handles GET /payables
func (h *PayableHandler) List(c *gin.Context) {
	var filter financeapp.PayableListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	payables, total, err := h.payableService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Paginated(c, payables, total, filter.Page, filter.PageSize)
}

// Update handles PUT /payables/:id
func (h *PayableHandler) Update(c *gin.Context) {
	payableID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req financeapp.UpdatePayableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c, func(ctx context.Context) (*financeapp.PayableResponse, error) {
		return h.payableService.Update(ctx, payableID, req)
	})
}

// AddPayment handles POST /payables/:id/payments
func (h *PayableHandler) AddPayment(c *gin.Context) {
	payableID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req financeapp.PayablePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = middleware.CurrentUser(c)

	payable, err := h.payableService.AddPayment(c.Request.Context(), payableID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payable)
}

// ListPayments handles GET /payables/:id/payments
func (h *PayableHandler) ListPayments(c *gin.Context) {
	payableID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	payments, err := h.payableService.ListPayments(c.Request.Context(), payableID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// DeletePayment handles DELETE /payables/:id/payments/:payment_id
func (h *PayableHandler) DeletePayment(c *gin.Context) {
	payableID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	paymentID, ok := h.pathID(c, "payment_id")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*financeapp.PayableResponse, error) {
		return h.payableService.DeletePayment(ctx, payableID, paymentID)
	})
}

// Cancel handles POST /payables/:id/cancel. The body is optional.
func (h *PayableHandler) Cancel(c *gin.Context) {
	payableID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req financeapp.CancelPayableRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	h.respond(c, func(ctx context.Context) (*financeapp.PayableResponse, error) {
		return h.payableService.Cancel(ctx, payableID, req)
	})
}

// Delete handles DELETE /payables/:id; ?hard=true removes the row
func (h *PayableHandler) Delete(c *gin.Context) {
	payableID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	hard := hardDelete(c)
	if err := h.payableService.Delete(c.Request.Context(), payableID, hard); err != nil {
		h.HandleError(c, err)
		return
	}
	if hard {
		h.SuccessWithMessage(c, "Payable permanently deleted")
		return
	}
	h.SuccessWithMessage(c, "Payable deleted")
}

// Restore handles POST /payables/:id/restore
func (h *PayableHandler) Restore(c *gin.Context) {
	payableID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*financeapp.PayableResponse, error) {
		return h.payableService.Restore(ctx, payableID)
	})
}

func (h *PayableHandler) respond(c *gin.Context, call func(ctx context.Context) (*financeapp.PayableResponse, error)) {
	payable, err := call(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payable)
}
