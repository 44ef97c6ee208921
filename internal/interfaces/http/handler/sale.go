package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	tradeapp "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/infrastructure/export"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SaleService is the part of tradeapp.SaleService the handler uses
type SaleService interface {
	Create(ctx context.Context, req tradeapp.CreateSaleRequest) (*tradeapp.SaleResponse, error)
	CreateFromOrder(ctx context.Context, req tradeapp.CreateSaleFromOrderRequest) (*tradeapp.SaleResponse, error)
	GetByID(ctx context.Context, saleID uuid.UUID) (*tradeapp.SaleResponse, error)
	GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*tradeapp.SaleResponse, error)
	List(ctx context.Context, filter tradeapp.SaleListFilter) ([]tradeapp.SaleResponse, int64, error)
	AddPayment(ctx context.Context, saleID uuid.UUID, req tradeapp.SalePaymentRequest) (*tradeapp.SaleResponse, error)
	UpdateStatus(ctx context.Context, saleID uuid.UUID, req tradeapp.SaleStatusRequest) (*tradeapp.SaleResponse, error)
	AddItem(ctx context.Context, saleID uuid.UUID, req tradeapp.SaleItemInput) (*tradeapp.SaleResponse, error)
	UpdateItem(ctx context.Context, saleID, itemID uuid.UUID, req tradeapp.UpdateSaleItemRequest) (*tradeapp.SaleResponse, error)
	RemoveItem(ctx context.Context, saleID, itemID uuid.UUID) (*tradeapp.SaleResponse, error)
	Recalculate(ctx context.Context, saleID uuid.UUID) (*tradeapp.SaleResponse, error)
	ResyncCustomer(ctx context.Context, saleID uuid.UUID) (*tradeapp.SaleResponse, error)
	Delete(ctx context.Context, saleID uuid.UUID, hard bool) error
	Restore(ctx context.Context, saleID uuid.UUID) (*tradeapp.SaleResponse, error)
}

// ExportService renders and archives the sales register
type ExportService interface {
	Render(ctx context.Context, req tradeapp.ExportRequest, w io.Writer) (int, error)
	Archive(ctx context.Context, req tradeapp.ExportRequest) (*tradeapp.ExportArchiveResponse, error)
}

// SaleHandler handles sale endpoints
type SaleHandler struct {
	BaseHandler
	saleService   SaleService
	exportService ExportService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService SaleService, exportService ExportService) *SaleHandler {
	return &SaleHandler{saleService: saleService, exportService: exportService}
}

// Create handles POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req tradeapp.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = middleware.CurrentUser(c)

	sale, err := h.saleService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// CreateFromOrder handles POST /sales/create-from-order
func (h *SaleHandler) CreateFromOrder(c *gin.Context) {
	var req tradeapp.CreateSaleFromOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = middleware.CurrentUser(c)

	sale, err := h.saleService.CreateFromOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// GetByID handles GET /sales/:id
func (h *SaleHandler) GetByID(c *gin.Context) {
	saleID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.SaleResponse, error) {
		return h.saleService.GetByID(ctx, saleID)
	})
}

// GetByInvoiceNumber handles GET /sales/invoice/:invoice_number
func (h *SaleHandler) GetByInvoiceNumber(c *gin.Context) {
	invoiceNumber := c.Param("invoice_number")
	h.respond(c, func(ctx context.Context) (*tradeapp.SaleResponse, error) {
		return h.saleService.GetByInvoiceNumber(ctx, invoiceNumber)
	})
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	var filter tradeapp.SaleListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	sales, total, err := h.saleService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Paginated(c, sales, total, filter.Page, filter.PageSize)
}

// AddPayment handles POST /sales/:id/add-payment
func (h *SaleHandler) AddPayment(c *gin.Context) {
	saleID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.SalePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.SaleResponse, error) {
		return h.saleService.AddPayment(ctx, saleID, req)
	})
}

// UpdateStatus handles POST /sales/:id/update-status
func (h *SaleHandler) UpdateStatus(c *gin.Context) {
	saleID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.SaleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.SaleResponse, error) {
		return h.saleService.UpdateStatus(ctx, saleID, req)
	})
}

// AddItem handles POST /sales/:id/items
func (h *SaleHandler) AddItem(c *gin.Context) {
	saleID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.SaleItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.SaleResponse, error) {
		return h.saleService.AddItem(ctx, saleID, req)
	})
}

// UpdateItem handles PUT /sales/:id/items/:item_id
func (h *SaleHandler) UpdateItem(c *gin.Context) {
	saleID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "item_id")
	if !ok {
		return
	}
	var req tradeapp.UpdateSaleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.SaleResponse, error) {
		return h.saleService.UpdateItem(ctx, saleID, itemID, req)
	})
}

// RemoveItem handles DELETE /sales/:id/items/:item_id
func (h *SaleHandler) RemoveItem(c *gin.Context) {
	saleID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "item_id")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.SaleResponse, error) {
		return h.saleService.RemoveItem(ctx, saleID, itemID)
	})
}

// Recalculate handles POST /sales/:id/recalculate
func (h *SaleHandler) Recalculate(c *gin.Context) {
	saleID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.SaleResponse, error) {
		return h.saleService.Recalculate(ctx, saleID)
	})
}

// ResyncCustomer handles POST /sales/:id/resync-customer
func (h *SaleHandler) ResyncCustomer(c *gin.Context) {
	saleID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.SaleResponse, error) {
		return h.saleService.ResyncCustomer(ctx, saleID)
	})
}

// Delete handles DELETE /sales/:id; ?hard=true removes the row
func (h *SaleHandler) Delete(c *gin.Context) {
	saleID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	hard := hardDelete(c)
	if err := h.saleService.Delete(c.Request.Context(), saleID, hard); err != nil {
		h.HandleError(c, err)
		return
	}
	if hard {
		h.SuccessWithMessage(c, "Sale permanently deleted")
		return
	}
	h.SuccessWithMessage(c, "Sale deleted")
}

// Restore handles POST /sales/:id/restore
func (h *SaleHandler) Restore(c *gin.Context) {
	saleID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*tradeapp.SaleResponse, error) {
		return h.saleService.Restore(ctx, saleID)
	})
}

// archiveRequest is the body of POST /sales/export
type archiveRequest struct {
	From string `json:"from" binding:"required,datetime=2006-01-02"`
	To   string `json:"to" binding:"required,datetime=2006-01-02"`
}

// Export handles GET /sales/export?from=YYYY-MM-DD&to=YYYY-MM-DD and
// downloads the register as a spreadsheet
func (h *SaleHandler) Export(c *gin.Context) {
	var req tradeapp.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	var buf bytes.Buffer
	count, err := h.exportService.Render(c.Request.Context(), req, &buf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+tradeapp.RegisterFilename(req)+`"`)
	c.Header("X-Sale-Count", strconv.Itoa(count))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}

// Archive handles POST /sales/export: the register is stored in object
// storage and a time-limited download link is returned
func (h *SaleHandler) Archive(c *gin.Context) {
	var body archiveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindError(c, err)
		return
	}
	from, _ := time.Parse(time.DateOnly, body.From)
	to, _ := time.Parse(time.DateOnly, body.To)

	result, err := h.exportService.Archive(c.Request.Context(), tradeapp.ExportRequest{From: from, To: to})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

func (h *SaleHandler) respond(c *gin.Context, call func(ctx context.Context) (*tradeapp.SaleResponse, error)) {
	sale, err := call(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}
