package handler

import (
	"context"

	tradeapp "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderService is the part of tradeapp.OrderService the handler uses
type OrderService interface {
	Create(ctx context.Context, req tradeapp.CreateOrderRequest) (*tradeapp.OrderResponse, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*tradeapp.OrderResponse, error)
	List(ctx context.Context, filter tradeapp.OrderListFilter) ([]tradeapp.OrderResponse, int64, error)
	Update(ctx context.Context, orderID uuid.UUID, req tradeapp.UpdateOrderRequest) (*tradeapp.OrderResponse, error)
	AddItem(ctx context.Context, orderID uuid.UUID, req tradeapp.OrderItemInput) (*tradeapp.OrderResponse, error)
	UpdateItem(ctx context.Context, orderID, itemID uuid.UUID, req tradeapp.UpdateOrderItemRequest) (*tradeapp.OrderResponse, error)
	RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*tradeapp.OrderResponse, error)
	AddPayment(ctx context.Context, orderID uuid.UUID, req tradeapp.OrderPaymentRequest) (*tradeapp.OrderResponse, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, req tradeapp.OrderStatusRequest) (*tradeapp.OrderResponse, error)
	BulkUpdateStatus(ctx context.Context, req tradeapp.BulkOrderStatusRequest) (*tradeapp.BulkStatusResponse, error)
	Recalculate(ctx context.Context, orderID uuid.UUID) (*tradeapp.OrderResponse, error)
	ResyncCustomer(ctx context.Context, orderID uuid.UUID) (*tradeapp.OrderResponse, error)
	Delete(ctx context.Context, orderID uuid.UUID, hard bool) error
	Restore(ctx context.Context, orderID uuid.UUID) (*tradeapp.OrderResponse, error)
}

// OrderHandler handles order endpoints
type OrderHandler struct {
	BaseHandler
	orderService OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req tradeapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = middleware.CurrentUser(c)

	order, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// GetByID handles GET /orders/:id
func (h *OrderHandler) GetByID(c *gin.Context) {
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	var filter tradeapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	orders, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Paginated(c, orders, total, filter.Page, filter.PageSize)
}

// Update handles PUT /orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.OrderResponse, error) {
		return h.orderService.Update(ctx, orderID, req)
	})
}

// AddItem handles POST /orders/:id/items
func (h *OrderHandler) AddItem(c *gin.Context) {
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.OrderItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.OrderResponse, error) {
		return h.orderService.AddItem(ctx, orderID, req)
	})
}

// UpdateItem handles PUT /orders/:id/items/:item_id
func (h *OrderHandler) UpdateItem(c *gin.Context) {
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "item_id")
	if !ok {
		return
	}
	var req tradeapp.UpdateOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.OrderResponse, error) {
		return h.orderService.UpdateItem(ctx, orderID, itemID, req)
	})
}

// RemoveItem handles DELETE /orders/:id/items/:item_id
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "item_id")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.OrderResponse, error) {
		return h.orderService.RemoveItem(ctx, orderID, itemID)
	})
}

// AddPayment handles POST /orders/:id/payment
func (h *OrderHandler) AddPayment(c *gin.Context) {
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.OrderPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.OrderResponse, error) {
		return h.orderService.AddPayment(ctx, orderID, req)
	})
}

// UpdateStatus handles POST /orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.OrderResponse, error) {
		return h.orderService.UpdateStatus(ctx, orderID, req)
	})
}

// BulkUpdateStatus handles POST /orders/bulk-status. Each order succeeds or
// fails on its own; the response lists the outcome per order.
func (h *OrderHandler) BulkUpdateStatus(c *gin.Context) {
	var req tradeapp.BulkOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.orderService.BulkUpdateStatus(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Recalculate handles POST /orders/:id/recalculate
func (h *OrderHandler) Recalculate(c *gin.Context) {
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.OrderResponse, error) {
		return h.orderService.Recalculate(ctx, orderID)
	})
}

// ResyncCustomer handles POST /orders/:id/resync-customer
func (h *OrderHandler) ResyncCustomer(c *gin.Context) {
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.OrderResponse, error) {
		return h.orderService.ResyncCustomer(ctx, orderID)
	})
}

// Delete handles DELETE /orders/:id; ?hard=true removes the row
func (h *OrderHandler) Delete(c *gin.Context) {
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	hard := hardDelete(c)
	if err := h.orderService.Delete(c.Request.Context(), orderID, hard); err != nil {
		h.HandleError(c, err)
		return
	}
	if hard {
		h.SuccessWithMessage(c, "Order permanently deleted")
		return
	}
	h.SuccessWithMessage(c, "Order deleted")
}

// Restore handles POST /orders/:id/restore
func (h *OrderHandler) Restore(c *gin.Context) {
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.OrderResponse, error) {
		return h.orderService.Restore(ctx, orderID)
	})
}

func (h *OrderHandler) respond(c *gin.Context, call func(ctx context.Context) (*tradeapp.OrderResponse, error)) {
	order, err := call(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
