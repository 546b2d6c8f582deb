package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeExecutor records executed jobs and can fail a configurable number
// of times per job type
type fakeExecutor struct {
	mu        sync.Mutex
	executed  []*Job
	failTimes map[JobType]int
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{failTimes: make(map[JobType]int)}
}

func (e *fakeExecutor) Execute(_ context.Context, job *Job) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executed = append(e.executed, job)
	if e.failTimes[job.Type] > 0 {
		e.failTimes[job.Type]--
		return errors.New("execution failed")
	}
	return nil
}

func (e *fakeExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.executed)
}

func (e *fakeExecutor) jobs() []*Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	jobs := make([]*Job, len(e.executed))
	copy(jobs, e.executed)
	return jobs
}

func (e *fakeExecutor) executedTypes() []JobType {
	e.mu.Lock()
	defer e.mu.Unlock()
	types := make([]JobType, 0, len(e.executed))
	for _, job := range e.executed {
		types = append(types, job.Type)
	}
	return types
}

func testSchedulerConfig() SchedulerConfig {
	cfg := DefaultSchedulerConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.JobTimeout = time.Second
	return cfg
}

func startScheduler(t *testing.T, executor JobExecutor) *Scheduler {
	t.Helper()
	s := NewScheduler(testSchedulerConfig(), executor, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(stopCtx)
	})
	return s
}

func TestJobLifecycle(t *testing.T) {
	runAt := time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC)
	job := NewJob(JobTypeDecay, runAt, 3)

	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, runAt, job.RunAt)
	assert.Equal(t, 3, job.MaxRetries)
	assert.False(t, job.ShouldRetry())

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.Fail("boom")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "boom", job.Error)
	require.NotNil(t, job.CompletedAt)
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Minute)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Empty(t, job.Error)
	require.NotNil(t, job.NextRetryAt)

	job.Start()
	job.Complete()
	assert.Equal(t, JobStatusSuccess, job.Status)
	assert.False(t, job.ShouldRetry())
}

func TestScheduler_SubmitJob(t *testing.T) {
	t.Run("rejects jobs when not running", func(t *testing.T) {
		s := NewScheduler(testSchedulerConfig(), newFakeExecutor(), zap.NewNop())
		err := s.SubmitJob(NewJob(JobTypeDecay, time.Now(), 0))
		assert.ErrorIs(t, err, ErrSchedulerNotRunning)
	})

	t.Run("executes submitted jobs", func(t *testing.T) {
		executor := newFakeExecutor()
		s := startScheduler(t, executor)

		job := NewJob(JobTypeDecay, time.Now(), 0)
		require.NoError(t, s.SubmitJob(job))

		require.Eventually(t, func() bool {
			return executor.count() == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, JobStatusSuccess, job.Status)
	})

	t.Run("start is idempotent", func(t *testing.T) {
		s := startScheduler(t, newFakeExecutor())
		assert.NoError(t, s.Start(context.Background()))
	})

	t.Run("stop when not running is a no-op", func(t *testing.T) {
		s := NewScheduler(testSchedulerConfig(), newFakeExecutor(), zap.NewNop())
		assert.NoError(t, s.Stop(context.Background()))
	})
}

func TestScheduler_Retry(t *testing.T) {
	t.Run("retries a failed job until it succeeds", func(t *testing.T) {
		executor := newFakeExecutor()
		executor.failTimes[JobTypeArchive] = 1
		s := startScheduler(t, executor)

		job := NewJob(JobTypeArchive, time.Now(), 3)
		require.NoError(t, s.SubmitJob(job))

		require.Eventually(t, func() bool {
			return job.Status == JobStatusSuccess
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, 1, job.RetryCount)
		assert.GreaterOrEqual(t, executor.count(), 2)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		executor := newFakeExecutor()
		executor.failTimes[JobTypeDecay] = 100
		s := startScheduler(t, executor)

		job := NewJob(JobTypeDecay, time.Now(), 2)
		require.NoError(t, s.SubmitJob(job))

		require.Eventually(t, func() bool {
			return job.Status == JobStatusFailed && !job.ShouldRetry()
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, 2, job.RetryCount)
	})
}

func TestScheduler_ScheduleDailyMaintenance(t *testing.T) {
	executor := newFakeExecutor()
	s := startScheduler(t, executor)

	runAt := time.Now()
	require.NoError(t, s.ScheduleDailyMaintenance(runAt))

	require.Eventually(t, func() bool {
		return executor.count() == 2
	}, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []JobType{JobTypeDecay, JobTypeArchive}, executor.executedTypes())
	for _, job := range executor.jobs() {
		assert.Equal(t, runAt, job.RunAt)
	}
}

func TestAllJobTypes(t *testing.T) {
	assert.ElementsMatch(t, []JobType{
		JobTypeDecay,
		JobTypeSuggestionExpiry,
		JobTypeLearning,
		JobTypeArchive,
	}, AllJobTypes())
}
