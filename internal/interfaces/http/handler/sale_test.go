package handler

import (
	"net/http"
	"testing"
	"time"

	tradeapp "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/export"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupSaleRouter(svc *MockSaleService) http.Handler {
	h := NewSaleHandler(svc, svc)
	r := newTestRouter()
	r.POST("/sales", h.Create)
	r.POST("/sales/create-from-order", h.CreateFromOrder)
	r.GET("/sales/export", h.Export)
	r.POST("/sales/export", h.Archive)
	r.GET("/sales/invoice/:invoice_number", h.GetByInvoiceNumber)
	return r
}

func TestSaleHandler_CreateFromOrder(t *testing.T) {
	t.Run("converts and returns 201", func(t *testing.T) {
		svc := new(MockSaleService)
		orderID := uuid.New()
		svc.On("CreateFromOrder", mock.Anything, mock.MatchedBy(func(req tradeapp.CreateSaleFromOrderRequest) bool {
			return req.OrderID == orderID && req.CreatedBy != nil
		})).Return(&tradeapp.SaleResponse{ID: uuid.New(), InvoiceNumber: "INV-000001", OrderID: &orderID}, nil)

		w := performRequest(setupSaleRouter(svc), http.MethodPost, "/sales/create-from-order", map[string]any{
			"order_id":       orderID.String(),
			"payment_method": "CASH",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "INV-000001")
		svc.AssertExpectations(t)
	})

	t.Run("second conversion is a conflict", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("CreateFromOrder", mock.Anything, mock.Anything).Return(nil, tradeapp.ErrAlreadyConverted)

		w := performRequest(setupSaleRouter(svc), http.MethodPost, "/sales/create-from-order", map[string]any{
			"order_id": uuid.NewString(),
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{"ALREADY_CONVERTED"}, errorCodes(decodeResponse(t, w)))
	})
}

func TestSaleHandler_Create_RequiresItems(t *testing.T) {
	svc := new(MockSaleService)

	w := performRequest(setupSaleRouter(svc), http.MethodPost, "/sales", map[string]any{
		"customer_id": uuid.NewString(),
		"items":       []any{},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "items", resp.Errors[0].Field)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSaleHandler_GetByInvoiceNumber(t *testing.T) {
	svc := new(MockSaleService)
	svc.On("GetByInvoiceNumber", mock.Anything, "INV-000042").Return(nil, shared.NewNotFoundError("Sale"))

	w := performRequest(setupSaleRouter(svc), http.MethodGet, "/sales/invoice/INV-000042", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	svc.AssertExpectations(t)
}

func TestSaleHandler_Export(t *testing.T) {
	t.Run("downloads the workbook", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("Render", mock.Anything, mock.MatchedBy(func(req tradeapp.ExportRequest) bool {
			return req.From.Format(time.DateOnly) == "2026-09-01" && req.To.Format(time.DateOnly) == "2026-09-30"
		}), mock.Anything).Return("PK-workbook", 7, nil)

		w := performRequest(setupSaleRouter(svc), http.MethodGet, "/sales/export?from=2026-09-01&to=2026-09-30", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="sales-register-2026-09-01-2026-09-30.xlsx"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "7", w.Header().Get("X-Sale-Count"))
		assert.Equal(t, "PK-workbook", w.Body.String())
	})

	t.Run("range errors are returned as json", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("Render", mock.Anything, mock.Anything, mock.Anything).
			Return("", 0, shared.NewValidationError("INVALID_RANGE", "Export range is too long"))

		w := performRequest(setupSaleRouter(svc), http.MethodGet, "/sales/export?from=2024-01-01&to=2026-01-01", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, w.Header().Get("Content-Disposition"))
		assert.Equal(t, []string{"INVALID_RANGE"}, errorCodes(decodeResponse(t, w)))
	})

	t.Run("dates are required", func(t *testing.T) {
		w := performRequest(setupSaleRouter(new(MockSaleService)), http.MethodGet, "/sales/export?from=2026-09-01", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSaleHandler_Archive(t *testing.T) {
	t.Run("stores the register", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("Archive", mock.Anything, mock.MatchedBy(func(req tradeapp.ExportRequest) bool {
			return req.From.Format(time.DateOnly) == "2026-09-01"
		})).Return(&tradeapp.ExportArchiveResponse{Key: "exports/sales-register.xlsx", SaleCount: 3}, nil)

		w := performRequest(setupSaleRouter(svc), http.MethodPost, "/sales/export", map[string]any{
			"from": "2026-09-01",
			"to":   "2026-09-30",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "exports/sales-register.xlsx")
	})

	t.Run("storage disabled is a 503", func(t *testing.T) {
		svc := new(MockSaleService)
		svc.On("Archive", mock.Anything, mock.Anything).Return(nil, tradeapp.ErrStorageDisabled)

		w := performRequest(setupSaleRouter(svc), http.MethodPost, "/sales/export", map[string]any{
			"from": "2026-09-01",
			"to":   "2026-09-30",
		})

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, []string{"STORAGE_DISABLED"}, errorCodes(decodeResponse(t, w)))
	})

	t.Run("malformed date", func(t *testing.T) {
		svc := new(MockSaleService)

		w := performRequest(setupSaleRouter(svc), http.MethodPost, "/sales/export", map[string]any{
			"from": "01/09/2026",
			"to":   "2026-09-30",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything)
	})
}
