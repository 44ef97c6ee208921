package handler

import (
	"context"

	reportapp "github.com/erp/backoffice/internal/application/report"
	"github.com/erp/backoffice/internal/domain/report"
	"github.com/gin-gonic/gin"
)

// SummaryService computes the ledger summary
type SummaryService interface {
	Summary(ctx context.Context, req reportapp.SummaryRequest) (*report.LedgerSummary, error)
}

// ReportHandler serves the dashboard summary
type ReportHandler struct {
	BaseHandler
	summaryService SummaryService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(summaryService SummaryService) *ReportHandler {
	return &ReportHandler{summaryService: summaryService}
}

// Summary handles GET /reports/summary?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ReportHandler) Summary(c *gin.Context) {
	var req reportapp.SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	summary, err := h.summaryService.Summary(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
