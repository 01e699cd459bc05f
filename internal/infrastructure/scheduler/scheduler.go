package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/handmade/backend/internal/infrastructure/config"
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

// JobName identifies what a job does
type JobName string

const (
	JobCatalogSync     JobName = "catalog_sync"
	JobInventoryGauges JobName = "inventory_gauges"
	JobLowStockScan    JobName = "low_stock_scan"
)

// Job is one run of a background inventory task
type Job struct {
	ID          uuid.UUID
	Name        JobName
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a pending job
func NewJob(name JobName, maxRetries int) *Job {
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
	next := time.Now().Add(delay)
	j.NextRetryAt = &next
	j.Error = ""
}

// JobExecutor runs jobs
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// Scheduler runs submitted jobs on a fixed pool of workers, with a timeout
// per run and delayed retries. At most one job per name is queued at a time.
type Scheduler struct {
	config   config.SchedulerConfig
	executor JobExecutor
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	queued    map[JobName]bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg config.SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}
	return &Scheduler{
		config:   cfg,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *Job, 32),
		queued:   make(map[JobName]bool),
	}
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

	for i := range s.config.MaxConcurrentJobs {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Inventory scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers, or for ctx
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
		s.logger.Info("Inventory scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Inventory scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues a run of name. It fails with ErrJobAlreadyQueued while an
// earlier run of the same name is pending or running.
func (s *Scheduler) Submit(name JobName) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return nil, ErrSchedulerNotRunning
	}
	if s.queued[name] {
		return nil, ErrJobAlreadyQueued
	}

	job := NewJob(name, s.config.RetryAttempts)
	select {
	case s.jobs <- job:
		s.queued[name] = true
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("job", string(name)),
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
			select {
			case <-ctx.Done():
				s.release(job)
				return
			case <-time.After(wait):
			}
		}
	}

	job.Start()
	logger := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job", string(job.Name)),
	)
	logger.Debug("Processing job")

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	err := s.executor.Execute(jobCtx, job)
	cancel()

	if err == nil {
		job.Complete()
		s.release(job)
		logger.Info("Job completed", zap.Duration("elapsed", job.CompletedAt.Sub(*job.StartedAt)))
		return
	}

	job.Fail(err.Error())
	logger.Error("Job failed", zap.Int("retry_count", job.RetryCount), zap.Error(err))
	if !job.ShouldRetry() || ctx.Err() != nil {
		s.release(job)
		return
	}

	job.ScheduleRetry(s.config.RetryDelay)
	select {
	case s.jobs <- job:
		logger.Info("Job scheduled for retry", zap.Int("retry_count", job.RetryCount))
	default:
		logger.Warn("Failed to re-queue job for retry")
		s.release(job)
	}
}

func (s *Scheduler) release(job *Job) {
	s.mu.Lock()
	delete(s.queued, job.Name)
	s.mu.Unlock()
}
