package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Schedule pairs a job with the interval it is submitted at. A zero
// interval disables the job.
type Schedule struct {
	Job       JobName
	Interval  time.Duration
	OnStartup bool
}

// IntervalTrigger submits each scheduled job to the scheduler on its
// interval. A tick that finds the previous run still queued is skipped.
type IntervalTrigger struct {
	scheduler *Scheduler
	schedules []Schedule
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewIntervalTrigger creates a trigger for schedules
func NewIntervalTrigger(scheduler *Scheduler, logger *zap.Logger, schedules ...Schedule) *IntervalTrigger {
	return &IntervalTrigger{
		scheduler: scheduler,
		schedules: schedules,
		logger:    logger,
	}
}

// Start starts one loop per enabled schedule
func (t *IntervalTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	for _, sched := range t.schedules {
		if sched.Interval <= 0 {
			t.logger.Info("Scheduled job disabled", zap.String("job", string(sched.Job)))
			continue
		}
		t.wg.Add(1)
		go t.run(ctx, sched)
		t.logger.Info("Scheduled job registered",
			zap.String("job", string(sched.Job)),
			zap.Duration("interval", sched.Interval),
			zap.Bool("on_startup", sched.OnStartup),
		)
	}
	return nil
}

// Stop stops the loops and waits for them, or for ctx
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	t.cancel()
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger submits job immediately, outside its schedule
func (t *IntervalTrigger) Trigger(job JobName) error {
	_, err := t.scheduler.Submit(job)
	return err
}

func (t *IntervalTrigger) run(ctx context.Context, sched Schedule) {
	defer t.wg.Done()

	if sched.OnStartup {
		t.submit(sched.Job)
	}

	ticker := time.NewTicker(sched.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.submit(sched.Job)
		}
	}
}

func (t *IntervalTrigger) submit(job JobName) {
	_, err := t.scheduler.Submit(job)
	switch {
	case err == nil:
	case errors.Is(err, ErrJobAlreadyQueued):
		t.logger.Debug("Previous run still queued, skipping tick", zap.String("job", string(job)))
	default:
		t.logger.Warn("Failed to submit scheduled job", zap.String("job", string(job)), zap.Error(err))
	}
}
