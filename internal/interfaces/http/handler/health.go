package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// HealthHandler reports service and dependency health
type HealthHandler struct {
	BaseHandler
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler running every check on each call
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 3 * time.Second}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /health. Checks run concurrently; any failure turns the
// response into a 503.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	var g errgroup.Group
	for i, name := range names {
		check := h.checks[name]
		g.Go(func() error {
			if err := check(ctx); err != nil {
				results[i] = "unavailable: " + err.Error()
				return nil
			}
			results[i] = "ok"
			return nil
		})
	}
	_ = g.Wait()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	for i, name := range names {
		resp.Checks[name] = results[i]
		if results[i] != "ok" {
			resp.Status = "degraded"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}
