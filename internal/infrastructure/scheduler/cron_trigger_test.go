package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTriggerFixture(t *testing.T, cfg CronTriggerConfig) (*CronTrigger, *fakeExecutor) {
	t.Helper()
	executor := newFakeExecutor()
	s := startScheduler(t, executor)
	trigger := NewCronTrigger(cfg, s, zap.NewNop())
	return trigger, executor
}

func TestCronTrigger_TriggerManualRun(t *testing.T) {
	t.Run("runs a single job type on demand", func(t *testing.T) {
		trigger, executor := newTriggerFixture(t, DefaultCronTriggerConfig())

		jobType := JobTypeDecay
		require.NoError(t, trigger.TriggerManualRun(&jobType))

		require.Eventually(t, func() bool {
			return executor.count() == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, []JobType{JobTypeDecay}, executor.executedTypes())
	})

	t.Run("nil job type runs the full daily pass", func(t *testing.T) {
		trigger, executor := newTriggerFixture(t, DefaultCronTriggerConfig())

		require.NoError(t, trigger.TriggerManualRun(nil))

		require.Eventually(t, func() bool {
			return executor.count() == 2
		}, time.Second, 5*time.Millisecond)
		assert.ElementsMatch(t, []JobType{JobTypeDecay, JobTypeArchive}, executor.executedTypes())
	})
}

func TestCronTrigger_IntervalJobs(t *testing.T) {
	cfg := CronTriggerConfig{
		DailyMaintenanceHour:   25, // never fires
		DailyMaintenanceMinute: 0,
		ExpiryInterval:         10 * time.Millisecond,
		LearningInterval:       0, // disabled
		CheckInterval:          time.Hour,
	}
	trigger, executor := newTriggerFixture(t, cfg)

	require.NoError(t, trigger.Start(context.Background()))
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = trigger.Stop(stopCtx)
	}()

	require.Eventually(t, func() bool {
		return executor.count() >= 2
	}, time.Second, 5*time.Millisecond)

	for _, jobType := range executor.executedTypes() {
		assert.Equal(t, JobTypeSuggestionExpiry, jobType)
	}
}

func TestCronTrigger_StartStop(t *testing.T) {
	trigger, _ := newTriggerFixture(t, DefaultCronTriggerConfig())

	require.NoError(t, trigger.Start(context.Background()))
	assert.NoError(t, trigger.Start(context.Background())) // idempotent

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, trigger.Stop(stopCtx))
	assert.NoError(t, trigger.Stop(stopCtx)) // idempotent
}
