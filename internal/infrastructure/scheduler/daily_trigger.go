package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Submitter queues a named job
type Submitter interface {
	Submit(name string) (*Job, error)
}

// DailyTriggerConfig holds configuration for the daily trigger
type DailyTriggerConfig struct {
	Hour   int
	Minute int
	// CheckInterval is how often the clock is compared with Hour:Minute
	CheckInterval time.Duration
	// RunOnStart submits the jobs once when the trigger starts
	RunOnStart bool
}

// DefaultDailyTriggerConfig returns default daily trigger configuration
func DefaultDailyTriggerConfig() DailyTriggerConfig {
	return DailyTriggerConfig{
		Hour:          0,
		Minute:        5,
		CheckInterval: time.Minute,
		RunOnStart:    true,
	}
}

// ParseDailySchedule reads a "M H * * *" expression. The day-of-month,
// month and day-of-week fields must be "*"; "M H" alone is also accepted.
// An empty expression keeps the defaults.
func ParseDailySchedule(expr string) (hour, minute int, err error) {
	defaults := DefaultDailyTriggerConfig()
	hour, minute = defaults.Hour, defaults.Minute

	parts := strings.Fields(expr)
	switch len(parts) {
	case 0:
		return hour, minute, nil
	case 2:
	case 5:
		for _, field := range parts[2:] {
			if field != "*" {
				return 0, 0, fmt.Errorf("%w: %q is not a daily schedule", ErrInvalidSchedule, expr)
			}
		}
	default:
		return 0, 0, fmt.Errorf("%w: %q needs 2 or 5 fields", ErrInvalidSchedule, expr)
	}

	if minute, err = strconv.Atoi(parts[0]); err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute must be 0-59, got %q", ErrInvalidSchedule, parts[0])
	}
	if hour, err = strconv.Atoi(parts[1]); err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour must be 0-23, got %q", ErrInvalidSchedule, parts[1])
	}
	return hour, minute, nil
}

// DailyTrigger submits a fixed set of jobs once per day
type DailyTrigger struct {
	config    DailyTriggerConfig
	submitter Submitter
	jobNames  []string
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewDailyTrigger creates a trigger for the named jobs
func NewDailyTrigger(config DailyTriggerConfig, submitter Submitter, logger *zap.Logger, jobNames ...string) *DailyTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &DailyTrigger{
		config:    config,
		submitter: submitter,
		jobNames:  jobNames,
		logger:    logger,
		now:       time.Now,
	}
}

// Start starts the trigger loop
func (d *DailyTrigger) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = true
	d.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if d.config.RunOnStart {
		d.trigger()
	}

	d.wg.Add(1)
	go d.runLoop(ctx)

	d.logger.Info("Daily trigger started",
		zap.Strings("jobs", d.jobNames),
		zap.Int("hour", d.config.Hour),
		zap.Int("minute", d.config.Minute),
		zap.Time("next_run", d.NextRun()),
	)
	return nil
}

// Stop stops the trigger loop
func (d *DailyTrigger) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = false
	d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Daily trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun returns the next time the jobs will be submitted
func (d *DailyTrigger) NextRun() time.Time {
	now := d.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), d.config.Hour, d.config.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (d *DailyTrigger) runLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.checkAndTrigger()
		}
	}
}

// checkAndTrigger submits the jobs when the clock reaches Hour:Minute, at
// most once per calendar day
func (d *DailyTrigger) checkAndTrigger() bool {
	now := d.now()
	if !d.shouldRun(now) {
		return false
	}

	today := now.Format(time.DateOnly)
	d.mu.Lock()
	if d.lastRunDate == today {
		d.mu.Unlock()
		return false
	}
	d.lastRunDate = today
	d.mu.Unlock()

	d.trigger()
	return true
}

func (d *DailyTrigger) shouldRun(now time.Time) bool {
	return now.Hour() == d.config.Hour && now.Minute() == d.config.Minute
}

func (d *DailyTrigger) trigger() {
	for _, name := range d.jobNames {
		if _, err := d.submitter.Submit(name); err != nil {
			d.logger.Error("Failed to submit daily job", zap.String("job", name), zap.Error(err))
		}
	}
}
