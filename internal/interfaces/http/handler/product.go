package handler

import (
	"context"

	catalogapp "github.com/erp/backoffice/internal/application/catalog"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductService is the part of catalogapp.ProductService the handler uses
type ProductService interface {
	Create(ctx context.Context, req catalogapp.CreateProductRequest) (*catalogapp.ProductResponse, error)
	GetByID(ctx context.Context, productID uuid.UUID) (*catalogapp.ProductResponse, error)
	List(ctx context.Context, filter catalogapp.ProductListFilter) ([]catalogapp.ProductResponse, int64, error)
	Update(ctx context.Context, productID uuid.UUID, req catalogapp.UpdateProductRequest) (*catalogapp.ProductResponse, error)
	AdjustStock(ctx context.Context, productID uuid.UUID, req catalogapp.AdjustStockRequest) (*catalogapp.ProductResponse, error)
	Delete(ctx context.Context, productID uuid.UUID) error
	Restore(ctx context.Context, productID uuid.UUID) (*catalogapp.ProductResponse, error)
}

// ProductHandler handles product endpoints
type ProductHandler struct {
	BaseHandler
	productService ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = middleware.CurrentUser(c)

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// GetByID handles GET /products/:id
func (h *ProductHandler) GetByID(c *gin.Context) {
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	products, total, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Paginated(c, products, total, filter.Page, filter.PageSize)
}

// Update handles PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	product, err := h.productService.Update(c.Request.Context(), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// AdjustStock handles POST /products/:id/stock
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	product, err := h.productService.AdjustStock(c.Request.Context(), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete handles DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), productID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMessage(c, "Product deleted")
}

// Restore handles POST /products/:id/restore
func (h *ProductHandler) Restore(c *gin.Context) {
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.Restore(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
