package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when submitting to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrJobAlreadyQueued is returned when a job of the same name is still
	// pending or running
	ErrJobAlreadyQueued = errors.New("job already queued")

	// ErrUnknownJob is returned by the executor for an unregistered job name
	ErrUnknownJob = errors.New("unknown job")
)
