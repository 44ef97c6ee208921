package trade

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/export"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxExportRange bounds the sale date range of one register
const MaxExportRange = 366 * 24 * time.Hour

// ErrStorageDisabled is returned when archiving without object storage
var ErrStorageDisabled = shared.NewUnavailableError("STORAGE_DISABLED", "Object storage is not configured")

// ObjectStore keeps rendered registers and hands out download links
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PresignDownload(ctx context.Context, key string) (string, time.Time, error)
}

// ExportService renders the sales register spreadsheet
type ExportService struct {
	saleRepo trade.SaleRepository
	store    ObjectStore
}

// NewExportService creates a new ExportService. store may be nil when object
// storage is disabled; Archive then fails with ErrStorageDisabled.
func NewExportService(saleRepo trade.SaleRepository, store ObjectStore) *ExportService {
	return &ExportService{saleRepo: saleRepo, store: store}
}

// RegisterFilename names the register file for a date range
func RegisterFilename(req ExportRequest) string {
	return fmt.Sprintf("sales-register-%s-%s.xlsx", req.From.Format("2006-01-02"), req.To.Format("2006-01-02"))
}

// Render writes the register of sales dated From..To inclusive to w and
// returns the number of sales listed.
func (s *ExportService) Render(ctx context.Context, req ExportRequest, w io.Writer) (int, error) {
	from, to, err := exportRange(req)
	if err != nil {
		return 0, err
	}
	sales, err := s.saleRepo.FindBySaleDate(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if err := export.WriteSalesRegister(w, sales, from, to); err != nil {
		return 0, fmt.Errorf("render sales register: %w", err)
	}
	return len(sales), nil
}

// Archive renders the register, stores it and returns a presigned link
func (s *ExportService) Archive(ctx context.Context, req ExportRequest) (*ExportArchiveResponse, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	var buf bytes.Buffer
	count, err := s.Render(ctx, req, &buf)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/sales-register/%s/%s", uuid.NewString(), RegisterFilename(req))
	if err := s.store.Put(ctx, key, buf.Bytes(), export.ContentTypeXLSX); err != nil {
		return nil, err
	}
	url, expiresAt, err := s.store.PresignDownload(ctx, key)
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("sales register archived",
		zap.String("key", key),
		zap.Int("sales", count),
		zap.Int("bytes", buf.Len()))

	return &ExportArchiveResponse{Key: key, DownloadURL: url, ExpiresAt: expiresAt, SaleCount: count}, nil
}

// exportRange turns the inclusive request dates into a half-open range
func exportRange(req ExportRequest) (time.Time, time.Time, error) {
	from := truncateDay(req.From)
	to := truncateDay(req.To).AddDate(0, 0, 1)
	if req.From.IsZero() || req.To.IsZero() || !from.Before(to) {
		return time.Time{}, time.Time{}, shared.NewValidationError("INVALID_RANGE", "from must not be after to").WithField("to", "must not be before from")
	}
	if to.Sub(from) > MaxExportRange {
		return time.Time{}, time.Time{}, shared.NewValidationError("INVALID_RANGE", "Export range cannot exceed one year").WithField("from", "range too long")
	}
	return from, to, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
