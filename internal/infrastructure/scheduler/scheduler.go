// Package scheduler runs named background jobs on a small worker pool.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Task is the work behind a job name
type Task func(ctx context.Context) error

// Job is one execution of a registered task
type Job struct {
	ID          uuid.UUID
	Name        string
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a pending job for the named task
func NewJob(name string, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Name:       name,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Workers       int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Workers:       1,
		JobTimeout:    5 * time.Minute,
		RetryAttempts: 3,
		RetryDelay:    time.Minute,
	}
}

// Scheduler runs submitted jobs on a pool of workers
type Scheduler struct {
	config SchedulerConfig
	logger *zap.Logger

	tasks     map[string]Task
	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, logger *zap.Logger) *Scheduler {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultSchedulerConfig().JobTimeout
	}
	return &Scheduler{
		config: config,
		logger: logger,
		tasks:  make(map[string]Task),
		jobs:   make(chan *Job, 100),
	}
}

// Register binds a task to a job name. Registering after Start is allowed.
func (s *Scheduler) Register(name string, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[name] = task
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers to exit
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues a run of the named task
func (s *Scheduler) Submit(name string) (*Job, error) {
	s.mu.Lock()
	running := s.isRunning
	_, known := s.tasks[name]
	s.mu.Unlock()

	if !running {
		return nil, ErrSchedulerNotRunning
	}
	if !known {
		return nil, ErrUnknownJob
	}

	job := NewJob(name, s.config.RetryAttempts)
	select {
	case s.jobs <- job:
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("job", name),
		)
		return job, nil
	default:
		return nil, ErrJobQueueFull
	}
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	if job.NextRetryAt != nil {
		wait := time.Until(*job.NextRetryAt)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}

	s.mu.Lock()
	task := s.tasks[job.Name]
	s.mu.Unlock()

	job.Start()
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job", job.Name),
	)
	log.Info("Processing job")

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	if err := task(jobCtx); err != nil {
		job.Fail(err.Error())
		log.Error("Job failed", zap.Error(err))

		if job.ShouldRetry() && ctx.Err() == nil {
			job.ScheduleRetry(s.config.RetryDelay)
			log.Info("Job scheduled for retry",
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
			)
			select {
			case s.jobs <- job:
			default:
				log.Warn("Failed to re-queue job for retry")
			}
		}
		return
	}

	job.Complete()
	log.Info("Job completed successfully")
}
