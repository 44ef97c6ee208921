package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/backoffice/internal/infrastructure/auth"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestDomainGroup(t *testing.T) {
	engine := gin.New()
	var seen []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) { seen = append(seen, name) }
	}

	group := NewDomainGroup("/things").
		Use(mark("group")).
		GET("", mark("list")).
		POST("/:id/touch", mark("touch"))

	NewRouter(engine, WithAPIVersion("v2"), WithMiddleware(mark("api"))).Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v2/things/7/touch", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"api", "group", "touch"}, seen)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/things", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func testHandlers() Handlers {
	return Handlers{
		Customers: handler.NewCustomerHandler(nil),
		Products:  handler.NewProductHandler(nil),
		Orders:    handler.NewOrderHandler(nil),
		Sales:     handler.NewSaleHandler(nil, nil),
		Payables:  handler.NewPayableHandler(nil),
		Reports:   handler.NewReportHandler(nil),
	}
}

func TestLedgerGroups_Routes(t *testing.T) {
	engine := gin.New()
	NewRouter(engine).Register(LedgerGroups(testHandlers(), func(c *gin.Context) {})...).Setup()

	registered := map[string]bool{}
	for _, r := range engine.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	expected := []string{
		"GET /api/v1/customers",
		"POST /api/v1/customers/:id/restore",
		"POST /api/v1/products/:id/stock",
		"DELETE /api/v1/orders/:id",
		"POST /api/v1/orders/bulk-status",
		"POST /api/v1/orders/:id/payment",
		"POST /api/v1/orders/:id/status",
		"POST /api/v1/orders/:id/recalculate",
		"POST /api/v1/orders/:id/resync-customer",
		"PUT /api/v1/orders/:id/items/:item_id",
		"DELETE /api/v1/orders/:id/items/:item_id",
		"POST /api/v1/sales/create-from-order",
		"POST /api/v1/sales/:id/add-payment",
		"POST /api/v1/sales/:id/update-status",
		"GET /api/v1/sales/export",
		"POST /api/v1/sales/export",
		"GET /api/v1/sales/invoice/:invoice_number",
		"POST /api/v1/payables/:id/cancel",
		"GET /api/v1/payables/:id/payments",
		"POST /api/v1/payables/:id/payments",
		"DELETE /api/v1/payables/:id/payments/:payment_id",
		"GET /api/v1/reports/summary",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
}

func TestNewEngine(t *testing.T) {
	verifier := auth.NewVerifier(config.JWTConfig{Secret: "engine-test-secret-at-least-32-chars"})
	health := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"database": func(context.Context) error { return nil },
		"cache":    func(context.Context) error { return errors.New("connection refused") },
	})

	engine, err := NewEngine(EngineConfig{
		App:      config.AppConfig{Env: "test"},
		HTTP:     config.HTTPConfig{MaxBodySize: 1 << 20},
		Logger:   zap.NewNop(),
		Verifier: verifier,
	}, testHandlers(), health)
	require.NoError(t, err)

	t.Run("health is public and reports failing checks", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"ok"`)
		assert.Contains(t, w.Body.String(), "connection refused")
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("api requires a token", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})
}
