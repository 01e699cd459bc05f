package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	appinv "github.com/handmade/backend/internal/application/inventory"
	"github.com/handmade/backend/internal/infrastructure/config"
	"github.com/handmade/backend/internal/infrastructure/telemetry"
	"github.com/handmade/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		MaxConcurrentJobs: 2,
		JobTimeout:        time.Second,
		RetryAttempts:     2,
		RetryDelay:        time.Millisecond,
	}
}

// funcExecutor adapts a function to JobExecutor
type funcExecutor func(ctx context.Context, job *Job) error

func (f funcExecutor) Execute(ctx context.Context, job *Job) error { return f(ctx, job) }

func TestJob_Lifecycle(t *testing.T) {
	job := NewJob(JobCatalogSync, 1)
	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.Fail("boom")
	assert.Equal(t, "boom", job.Error)
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Minute)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	require.NotNil(t, job.NextRetryAt)

	job.Start()
	job.Fail("boom again")
	assert.False(t, job.ShouldRetry())

	job.Start()
	job.Complete()
	assert.Equal(t, JobStatusSuccess, job.Status)
}

func TestScheduler_SubmitRequiresRunning(t *testing.T) {
	s := NewScheduler(testSchedulerConfig(), funcExecutor(func(context.Context, *Job) error { return nil }), zap.NewNop())
	_, err := s.Submit(JobCatalogSync)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_RunsAndRetries(t *testing.T) {
	var calls atomic.Int32
	exec := funcExecutor(func(ctx context.Context, job *Job) error {
		if calls.Add(1) == 1 {
			return errors.New("transient")
		}
		return nil
	})
	s := NewScheduler(testSchedulerConfig(), exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	job, err := s.Submit(JobCatalogSync)
	require.NoError(t, err)

	testutil.AssertEventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	testutil.AssertEventually(t, func() bool {
		_, err := s.Submit(JobCatalogSync)
		return err == nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, job.RetryCount)
}

func TestScheduler_OneRunPerJobName(t *testing.T) {
	release := make(chan struct{})
	var running sync.WaitGroup
	running.Add(1)
	exec := funcExecutor(func(ctx context.Context, job *Job) error {
		if job.Name == JobCatalogSync {
			running.Done()
			<-release
		}
		return nil
	})
	s := NewScheduler(testSchedulerConfig(), exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	_, err := s.Submit(JobCatalogSync)
	require.NoError(t, err)
	running.Wait()

	_, err = s.Submit(JobCatalogSync)
	assert.ErrorIs(t, err, ErrJobAlreadyQueued)

	_, err = s.Submit(JobLowStockScan)
	assert.NoError(t, err)

	close(release)
}

func TestScheduler_StopCancelsJobs(t *testing.T) {
	started := make(chan struct{})
	exec := funcExecutor(func(ctx context.Context, job *Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	s := NewScheduler(testSchedulerConfig(), exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))

	_, err := s.Submit(JobInventoryGauges)
	require.NoError(t, err)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
	assert.NoError(t, s.Stop(ctx))
}

func TestIntervalTrigger(t *testing.T) {
	var syncs, scans atomic.Int32
	exec := funcExecutor(func(ctx context.Context, job *Job) error {
		switch job.Name {
		case JobCatalogSync:
			syncs.Add(1)
		case JobLowStockScan:
			scans.Add(1)
		}
		return nil
	})
	s := NewScheduler(testSchedulerConfig(), exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	trigger := NewIntervalTrigger(s, zap.NewNop(),
		Schedule{Job: JobCatalogSync, Interval: time.Hour, OnStartup: true},
		Schedule{Job: JobLowStockScan, Interval: 10 * time.Millisecond},
		Schedule{Job: JobInventoryGauges},
	)
	require.NoError(t, trigger.Start(context.Background()))

	testutil.AssertEventually(t, func() bool { return syncs.Load() == 1 && scans.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, trigger.Stop(context.Background()))
	assert.Equal(t, int32(1), syncs.Load())
}

type mockSyncer struct{ mock.Mock }

func (m *mockSyncer) SyncWithCatalog(ctx context.Context, actor string) (*appinv.SyncResult, error) {
	args := m.Called(ctx, actor)
	if r := args.Get(0); r != nil {
		return r.(*appinv.SyncResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockLowStock struct{ mock.Mock }

func (m *mockLowStock) LowStockItems(ctx context.Context) (*appinv.LowStockResponse, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.(*appinv.LowStockResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGauges struct{ mock.Mock }

func (m *mockGauges) CollectGauges(ctx context.Context, provider telemetry.StatsProvider) error {
	return m.Called(ctx, provider).Error(0)
}

type nopStats struct{}

func (nopStats) Stats(context.Context) (*appinv.StatsResponse, error) {
	return &appinv.StatsResponse{}, nil
}

func TestInventoryJobExecutor(t *testing.T) {
	ctx := context.Background()

	t.Run("catalog sync runs as the scheduler actor", func(t *testing.T) {
		syncer := new(mockSyncer)
		syncer.On("SyncWithCatalog", mock.Anything, SchedulerActor).
			Return(&appinv.SyncResult{SyncedCount: 2, Drifted: []appinv.SyncDrift{{SKU: "MUG-1"}}}, nil)
		core, logs := observer.New(zap.WarnLevel)
		exec := NewInventoryJobExecutor(syncer, new(mockLowStock), nopStats{}, nil, zap.New(core))

		require.NoError(t, exec.Execute(ctx, NewJob(JobCatalogSync, 0)))
		syncer.AssertExpectations(t)
		assert.Equal(t, 1, logs.FilterMessage("Ledger drifted from declared catalog stock").Len())
	})

	t.Run("sync failure is returned", func(t *testing.T) {
		syncer := new(mockSyncer)
		syncer.On("SyncWithCatalog", mock.Anything, SchedulerActor).Return(nil, errors.New("db down"))
		exec := NewInventoryJobExecutor(syncer, new(mockLowStock), nopStats{}, nil, zap.NewNop())

		err := exec.Execute(ctx, NewJob(JobCatalogSync, 0))
		assert.ErrorContains(t, err, "catalog sync: db down")
	})

	t.Run("gauges collected from the stats provider", func(t *testing.T) {
		gauges := new(mockGauges)
		gauges.On("CollectGauges", mock.Anything, nopStats{}).Return(nil)
		exec := NewInventoryJobExecutor(new(mockSyncer), new(mockLowStock), nopStats{}, gauges, zap.NewNop())

		require.NoError(t, exec.Execute(ctx, NewJob(JobInventoryGauges, 0)))
		gauges.AssertExpectations(t)
	})

	t.Run("gauge job without metrics is a no-op", func(t *testing.T) {
		exec := NewInventoryJobExecutor(new(mockSyncer), new(mockLowStock), nopStats{}, nil, zap.NewNop())
		assert.NoError(t, exec.Execute(ctx, NewJob(JobInventoryGauges, 0)))
	})

	t.Run("low stock scan logs the products", func(t *testing.T) {
		lister := new(mockLowStock)
		item := appinv.LowStockItem{StockRecordResponse: appinv.StockRecordResponse{ProductID: uuid.New()}}
		lister.On("LowStockItems", mock.Anything).Return(&appinv.LowStockResponse{
			Items:      []appinv.LowStockItem{item},
			Count:      1,
			TotalValue: decimal.NewFromInt(40),
		}, nil)
		core, logs := observer.New(zap.WarnLevel)
		exec := NewInventoryJobExecutor(new(mockSyncer), lister, nopStats{}, nil, zap.New(core))

		require.NoError(t, exec.Execute(ctx, NewJob(JobLowStockScan, 0)))
		entries := logs.FilterMessage("Products at or below reorder point").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "40.00", entries[0].ContextMap()["total_value"])
	})

	t.Run("unknown job", func(t *testing.T) {
		exec := NewInventoryJobExecutor(new(mockSyncer), new(mockLowStock), nopStats{}, nil, zap.NewNop())
		assert.ErrorIs(t, exec.Execute(ctx, NewJob("reindex", 0)), ErrUnknownJob)
	})
}
