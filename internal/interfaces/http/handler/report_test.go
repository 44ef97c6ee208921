package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	reportapp "github.com/erp/backoffice/internal/application/report"
	"github.com/erp/backoffice/internal/domain/report"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReportHandler_Summary(t *testing.T) {
	setup := func(svc *MockSummaryService) http.Handler {
		r := newTestRouter()
		r.GET("/reports/summary", NewReportHandler(svc).Summary)
		return r
	}

	t.Run("parses the period", func(t *testing.T) {
		svc := new(MockSummaryService)
		from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		svc.On("Summary", mock.Anything, mock.MatchedBy(func(req reportapp.SummaryRequest) bool {
			return req.From != nil && req.From.Equal(from) && req.To != nil
		})).Return(&report.LedgerSummary{Period: report.Period{From: from, To: from.AddDate(0, 1, 0)}}, nil)

		w := performRequest(setup(svc), http.MethodGet, "/reports/summary?from=2026-09-01&to=2026-09-30", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("half-open period is rejected", func(t *testing.T) {
		svc := new(MockSummaryService)
		svc.On("Summary", mock.Anything, mock.Anything).
			Return(nil, shared.NewValidationError("INVALID_RANGE", "Both from and to are required").WithField("from", "required with to"))

		w := performRequest(setup(svc), http.MethodGet, "/reports/summary?to=2026-09-30", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorCodes(decodeResponse(t, w)), "INVALID_RANGE")
	})

	t.Run("unparseable date", func(t *testing.T) {
		w := performRequest(setup(new(MockSummaryService)), http.MethodGet, "/reports/summary?from=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	t.Run("all checks pass", func(t *testing.T) {
		h := NewHealthHandler(map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
		})
		r := newTestRouter()
		r.GET("/health", h.Health)

		w := performRequest(r, http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
	})

	t.Run("a failing dependency degrades the service", func(t *testing.T) {
		h := NewHealthHandler(map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
			"cache":    func(context.Context) error { return errors.New("dial tcp: refused") },
		})
		r := newTestRouter()
		r.GET("/health", h.Health)

		w := performRequest(r, http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"degraded"`)
		assert.Contains(t, w.Body.String(), `"database":"ok"`)
	})

	t.Run("checks are bounded by the timeout", func(t *testing.T) {
		h := NewHealthHandler(map[string]HealthCheck{
			"slow": func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		})
		h.timeout = 20 * time.Millisecond
		r := newTestRouter()
		r.GET("/health", h.Health)

		w := performRequest(r, http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "deadline exceeded")
	})
}
