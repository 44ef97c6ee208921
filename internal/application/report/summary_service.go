// Package report serves the ledger summary dashboard.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/erp/backoffice/internal/domain/report"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/cache"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const generationKey = "report:summary:generation"

// SummaryRequest selects the sales period; both dates are inclusive.
// Without dates the summary covers the current month to date.
type SummaryRequest struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

// SummaryService computes the ledger summary and caches it until the next
// ledger mutation. It implements report.Invalidator.
type SummaryService struct {
	repo  report.SummaryRepository
	store cache.Store
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time
}

// NewSummaryService creates a new SummaryService. A nil store disables caching.
func NewSummaryService(repo report.SummaryRepository, store cache.Store, ttl time.Duration) *SummaryService {
	return &SummaryService{repo: repo, store: store, ttl: ttl, now: time.Now}
}

// Summary returns the cached summary for the period or computes it. Concurrent
// misses for the same key share one computation.
func (s *SummaryService) Summary(ctx context.Context, req SummaryRequest) (*report.LedgerSummary, error) {
	period, err := s.period(req)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return s.compute(ctx, period)
	}

	key := s.cacheKey(ctx, period)
	if raw, err := s.store.Get(ctx, key); err == nil {
		var summary report.LedgerSummary
		if err := json.Unmarshal(raw, &summary); err == nil {
			return &summary, nil
		}
		logger.L(ctx).Warn("discarding unreadable summary cache entry", zap.String("key", key))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		logger.L(ctx).Warn("summary cache read failed", zap.String("key", key), zap.Error(err))
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		fillCtx := context.WithoutCancel(ctx)
		summary, err := s.compute(fillCtx, period)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(summary); err == nil {
			if err := s.store.Set(fillCtx, key, raw, s.ttl); err != nil {
				logger.L(ctx).Warn("summary cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return summary, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*report.LedgerSummary), nil
	}
}

// Invalidate bumps the cache generation so every cached summary goes stale
func (s *SummaryService) Invalidate(ctx context.Context) {
	if s.store == nil {
		return
	}
	if _, err := s.store.Incr(ctx, generationKey); err != nil {
		logger.L(ctx).Warn("summary cache invalidation failed", zap.Error(err))
	}
}

func (s *SummaryService) compute(ctx context.Context, period report.Period) (*report.LedgerSummary, error) {
	summary := &report.LedgerSummary{Period: period, GeneratedAt: s.now()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		section, err := s.repo.OrderSection(ctx)
		if err != nil {
			return fmt.Errorf("order section: %w", err)
		}
		summary.Orders = *section
		return nil
	})
	g.Go(func() error {
		section, err := s.repo.SalesSection(ctx, period)
		if err != nil {
			return fmt.Errorf("sales section: %w", err)
		}
		summary.Sales = *section
		return nil
	})
	g.Go(func() error {
		section, err := s.repo.PayableSection(ctx, summary.GeneratedAt)
		if err != nil {
			return fmt.Errorf("payable section: %w", err)
		}
		summary.Payables = *section
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *SummaryService) period(req SummaryRequest) (report.Period, error) {
	if req.From == nil && req.To == nil {
		return report.MonthToDate(s.now()), nil
	}
	if req.From == nil || req.To == nil {
		return report.Period{}, shared.NewValidationError("INVALID_RANGE", "Both from and to are required").WithField("from", "required with to")
	}
	y, m, d := req.From.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, req.From.Location())
	y, m, d = req.To.Date()
	to := time.Date(y, m, d+1, 0, 0, 0, 0, req.To.Location())
	period := report.Period{From: from, To: to}
	if !period.Validate() {
		return report.Period{}, shared.NewValidationError("INVALID_RANGE", "from must not be after to").WithField("to", "must not be before from")
	}
	return period, nil
}

func (s *SummaryService) cacheKey(ctx context.Context, period report.Period) string {
	generation := int64(0)
	if raw, err := s.store.Get(ctx, generationKey); err == nil {
		if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			generation = n
		}
	}
	return fmt.Sprintf("report:summary:g%d:%s:%s", generation, period.From.Format("2006-01-02"), period.To.Format("2006-01-02"))
}
