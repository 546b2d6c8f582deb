package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/application/pls"
)

type fakeDecayRunner struct {
	report *pls.DecayReport
	err    error
	gotNow time.Time
	calls  int
}

func (r *fakeDecayRunner) Run(_ context.Context, now time.Time) (*pls.DecayReport, error) {
	r.calls++
	r.gotNow = now
	return r.report, r.err
}

type fakeSuggestionExpirer struct {
	expired  int
	err      error
	gotLimit int
	calls    int
}

func (r *fakeSuggestionExpirer) ExpireDue(_ context.Context, _ time.Time, limit int) (int, error) {
	r.calls++
	r.gotLimit = limit
	return r.expired, r.err
}

type fakeLearningRunner struct {
	report *pls.LearnReport
	err    error
	calls  int
}

func (r *fakeLearningRunner) Run(_ context.Context, _ time.Time) (*pls.LearnReport, error) {
	r.calls++
	return r.report, r.err
}

type fakeArchiveRunner struct {
	report *pls.ArchiveReport
	err    error
	calls  int
}

func (r *fakeArchiveRunner) Run(_ context.Context, _ time.Time) (*pls.ArchiveReport, error) {
	r.calls++
	return r.report, r.err
}

type executorFixture struct {
	executor *MaintenanceExecutor
	decay    *fakeDecayRunner
	expirer  *fakeSuggestionExpirer
	learner  *fakeLearningRunner
	archiver *fakeArchiveRunner
}

func newExecutorFixture() *executorFixture {
	f := &executorFixture{
		decay:    &fakeDecayRunner{report: &pls.DecayReport{Scanned: 10, Decayed: 3, Suspended: 1}},
		expirer:  &fakeSuggestionExpirer{expired: 4},
		learner:  &fakeLearningRunner{report: &pls.LearnReport{ClustersSeen: 2, PatternsCreated: 1, Cost: decimal.NewFromFloat(0.002)}},
		archiver: &fakeArchiveRunner{report: &pls.ArchiveReport{ShadowExported: 7, ShadowDeleted: 7, MessagesDeleted: 20}},
	}
	f.executor = NewMaintenanceExecutor(
		f.decay, f.expirer, f.learner, f.archiver,
		DefaultMaintenanceExecutorConfig(), zap.NewNop(),
	)
	return f
}

func TestMaintenanceExecutor_Execute(t *testing.T) {
	ctx := context.Background()
	runAt := time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC)

	t.Run("dispatches decay jobs", func(t *testing.T) {
		f := newExecutorFixture()
		job := NewJob(JobTypeDecay, runAt, 0)

		require.NoError(t, f.executor.Execute(ctx, job))
		assert.Equal(t, 1, f.decay.calls)
		assert.Equal(t, runAt, f.decay.gotNow)
		assert.Zero(t, f.expirer.calls)
		assert.Zero(t, f.archiver.calls)
	})

	t.Run("dispatches expiry jobs with the batch size", func(t *testing.T) {
		f := newExecutorFixture()
		job := NewJob(JobTypeSuggestionExpiry, runAt, 0)

		require.NoError(t, f.executor.Execute(ctx, job))
		assert.Equal(t, 1, f.expirer.calls)
		assert.Equal(t, DefaultMaintenanceExecutorConfig().ExpiryBatchSize, f.expirer.gotLimit)
	})

	t.Run("dispatches learning jobs", func(t *testing.T) {
		f := newExecutorFixture()
		job := NewJob(JobTypeLearning, runAt, 0)

		require.NoError(t, f.executor.Execute(ctx, job))
		assert.Equal(t, 1, f.learner.calls)
	})

	t.Run("dispatches archive jobs", func(t *testing.T) {
		f := newExecutorFixture()
		job := NewJob(JobTypeArchive, runAt, 0)

		require.NoError(t, f.executor.Execute(ctx, job))
		assert.Equal(t, 1, f.archiver.calls)
	})

	t.Run("propagates runner errors", func(t *testing.T) {
		f := newExecutorFixture()
		f.decay.err = errors.New("decay blew up")
		job := NewJob(JobTypeDecay, runAt, 0)

		err := f.executor.Execute(ctx, job)
		assert.EqualError(t, err, "decay blew up")
	})

	t.Run("rejects unknown job types", func(t *testing.T) {
		f := newExecutorFixture()
		job := NewJob(JobType("REINDEX"), runAt, 0)

		err := f.executor.Execute(ctx, job)
		assert.ErrorIs(t, err, ErrInvalidJobType)
	})

	t.Run("unwired runner is an error not a silent skip", func(t *testing.T) {
		executor := NewMaintenanceExecutor(
			nil, nil, nil, nil,
			DefaultMaintenanceExecutorConfig(), zap.NewNop(),
		)
		for _, jobType := range AllJobTypes() {
			err := executor.Execute(ctx, NewJob(jobType, runAt, 0))
			assert.ErrorIs(t, err, ErrJobRunnerMissing, string(jobType))
		}
	})
}
