package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrUnknownJob is returned when no task is registered under the job name
	ErrUnknownJob = errors.New("unknown job")

	// ErrInvalidSchedule is returned for a malformed daily schedule
	ErrInvalidSchedule = errors.New("invalid schedule")
)
