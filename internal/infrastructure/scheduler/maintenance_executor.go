package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/application/pls"
)

// DecayRunner applies idle-time confidence decay
type DecayRunner interface {
	Run(ctx context.Context, now time.Time) (*pls.DecayReport, error)
}

// SuggestionExpirer closes suggestions whose review deadline passed
type SuggestionExpirer interface {
	ExpireDue(ctx context.Context, now time.Time, limit int) (int, error)
}

// LearningRunner mines unmatched clusters into draft patterns
type LearningRunner interface {
	Run(ctx context.Context, now time.Time) (*pls.LearnReport, error)
}

// ArchiveRunner exports and prunes aged engine data
type ArchiveRunner interface {
	Run(ctx context.Context, now time.Time) (*pls.ArchiveReport, error)
}

// MaintenanceExecutorConfig holds executor tunables
type MaintenanceExecutorConfig struct {
	// ExpiryBatchSize caps how many suggestions one expiry pass closes
	ExpiryBatchSize int
}

// DefaultMaintenanceExecutorConfig returns default executor configuration
func DefaultMaintenanceExecutorConfig() MaintenanceExecutorConfig {
	return MaintenanceExecutorConfig{
		ExpiryBatchSize: 200,
	}
}

// MaintenanceExecutor dispatches maintenance jobs to the engine's services.
// Runners left nil are reported as unwired rather than silently skipped.
type MaintenanceExecutor struct {
	decay       DecayRunner
	suggestions SuggestionExpirer
	learner     LearningRunner
	archiver    ArchiveRunner
	config      MaintenanceExecutorConfig
	logger      *zap.Logger
}

// NewMaintenanceExecutor creates a new maintenance executor
func NewMaintenanceExecutor(
	decay DecayRunner,
	suggestions SuggestionExpirer,
	learner LearningRunner,
	archiver ArchiveRunner,
	config MaintenanceExecutorConfig,
	logger *zap.Logger,
) *MaintenanceExecutor {
	return &MaintenanceExecutor{
		decay:       decay,
		suggestions: suggestions,
		learner:     learner,
		archiver:    archiver,
		config:      config,
		logger:      logger,
	}
}

// Execute runs the job's maintenance pass
func (e *MaintenanceExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Type {
	case JobTypeDecay:
		return e.runDecay(ctx, job)
	case JobTypeSuggestionExpiry:
		return e.runSuggestionExpiry(ctx, job)
	case JobTypeLearning:
		return e.runLearning(ctx, job)
	case JobTypeArchive:
		return e.runArchive(ctx, job)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidJobType, job.Type)
	}
}

func (e *MaintenanceExecutor) runDecay(ctx context.Context, job *Job) error {
	if e.decay == nil {
		return fmt.Errorf("%w: %s", ErrJobRunnerMissing, job.Type)
	}

	report, err := e.decay.Run(ctx, job.RunAt)
	if err != nil {
		return err
	}

	e.logger.Info("Confidence decay pass completed",
		zap.String("job_id", job.ID.String()),
		zap.Int("scanned", report.Scanned),
		zap.Int("decayed", report.Decayed),
		zap.Int("suspended", report.Suspended),
	)
	return nil
}

func (e *MaintenanceExecutor) runSuggestionExpiry(ctx context.Context, job *Job) error {
	if e.suggestions == nil {
		return fmt.Errorf("%w: %s", ErrJobRunnerMissing, job.Type)
	}

	expired, err := e.suggestions.ExpireDue(ctx, job.RunAt, e.config.ExpiryBatchSize)
	if err != nil {
		return err
	}

	if expired > 0 {
		e.logger.Info("Suggestion expiry pass completed",
			zap.String("job_id", job.ID.String()),
			zap.Int("expired", expired),
		)
	}
	return nil
}

func (e *MaintenanceExecutor) runLearning(ctx context.Context, job *Job) error {
	if e.learner == nil {
		return fmt.Errorf("%w: %s", ErrJobRunnerMissing, job.Type)
	}

	report, err := e.learner.Run(ctx, job.RunAt)
	if err != nil {
		return err
	}

	e.logger.Info("Learning pass completed",
		zap.String("job_id", job.ID.String()),
		zap.Int("clusters_seen", report.ClustersSeen),
		zap.Int("patterns_created", report.PatternsCreated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.String("cost", report.Cost.String()),
	)
	return nil
}

func (e *MaintenanceExecutor) runArchive(ctx context.Context, job *Job) error {
	if e.archiver == nil {
		return fmt.Errorf("%w: %s", ErrJobRunnerMissing, job.Type)
	}

	report, err := e.archiver.Run(ctx, job.RunAt)
	if err != nil {
		return err
	}

	e.logger.Info("Archive pass completed",
		zap.String("job_id", job.ID.String()),
		zap.Int("shadow_exported", report.ShadowExported),
		zap.Int64("shadow_deleted", report.ShadowDeleted),
		zap.Int("suggestions_exported", report.SuggestionsExported),
		zap.Int64("suggestions_deleted", report.SuggestionsDeleted),
		zap.Int64("messages_deleted", report.MessagesDeleted),
	)
	return nil
}

// Ensure MaintenanceExecutor implements JobExecutor
var _ JobExecutor = (*MaintenanceExecutor)(nil)
