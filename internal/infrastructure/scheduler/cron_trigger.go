package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// DailyMaintenanceHour/Minute is when the daily pass (decay + archive)
	// runs, in local 24h time
	DailyMaintenanceHour   int
	DailyMaintenanceMinute int

	// ExpiryInterval is how often expired suggestions are closed
	ExpiryInterval time.Duration

	// LearningInterval is how often the learner scans for clusters.
	// Zero disables the learning job.
	LearningInterval time.Duration

	// CheckInterval is how often to check whether the daily pass is due
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		DailyMaintenanceHour:   3, // 3am, outside simulator hours
		DailyMaintenanceMinute: 0,
		ExpiryInterval:         time.Minute,
		LearningInterval:       time.Hour,
		CheckInterval:          time.Minute,
	}
}

// CronTrigger feeds maintenance jobs into the scheduler on a timetable
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string // Track which date the daily pass last ran for
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.Int("daily_hour", c.config.DailyMaintenanceHour),
		zap.Int("daily_minute", c.config.DailyMaintenanceMinute),
		zap.Duration("expiry_interval", c.config.ExpiryInterval),
		zap.Duration("learning_interval", c.config.LearningInterval),
	)

	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop drives the daily check plus the interval-based jobs
func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	checkTicker := time.NewTicker(c.config.CheckInterval)
	defer checkTicker.Stop()

	expiryTicker := time.NewTicker(c.config.ExpiryInterval)
	defer expiryTicker.Stop()

	var learningC <-chan time.Time
	if c.config.LearningInterval > 0 {
		learningTicker := time.NewTicker(c.config.LearningInterval)
		defer learningTicker.Stop()
		learningC = learningTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-checkTicker.C:
			c.checkAndTriggerDaily()
		case now := <-expiryTicker.C:
			c.submit(JobTypeSuggestionExpiry, now)
		case now := <-learningC:
			c.submit(JobTypeLearning, now)
		}
	}
}

// checkAndTriggerDaily fires the daily maintenance pass once per date
func (c *CronTrigger) checkAndTriggerDaily() {
	now := time.Now()
	currentDate := now.Format("2006-01-02")

	// Skip if we already ran today
	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// Check if it's the right time
	if now.Hour() != c.config.DailyMaintenanceHour || now.Minute() != c.config.DailyMaintenanceMinute {
		return
	}

	c.mu.Lock()
	c.lastRunDate = currentDate
	c.mu.Unlock()

	c.logger.Info("Triggering daily maintenance pass")
	if err := c.scheduler.ScheduleDailyMaintenance(now); err != nil {
		c.logger.Error("Failed to schedule daily maintenance", zap.Error(err))
	}
}

// submit schedules a single interval job
func (c *CronTrigger) submit(jobType JobType, now time.Time) {
	if err := c.scheduler.ScheduleJob(jobType, now); err != nil {
		c.logger.Error("Failed to schedule job",
			zap.String("job_type", string(jobType)),
			zap.Error(err),
		)
	}
}

// TriggerManualRun schedules a maintenance job on demand. A nil jobType
// runs the full daily pass.
func (c *CronTrigger) TriggerManualRun(jobType *JobType) error {
	now := time.Now()
	if jobType != nil {
		return c.scheduler.ScheduleJob(*jobType, now)
	}
	return c.scheduler.ScheduleDailyMaintenance(now)
}
