package pls

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// DecayService runs the periodic confidence decay pass over idle
// patterns. Invoked by the scheduler, never by a request path.
type DecayService struct {
	patternRepo pattern.Repository
	configRepo  pattern.ConfigRepository
	publisher   shared.EventPublisher
	batchSize   int
	logger      *zap.Logger
}

// NewDecayService creates a new decay service
func NewDecayService(
	patternRepo pattern.Repository,
	configRepo pattern.ConfigRepository,
	publisher shared.EventPublisher,
	batchSize int,
	logger *zap.Logger,
) *DecayService {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &DecayService{
		patternRepo: patternRepo,
		configRepo:  configRepo,
		publisher:   publisher,
		batchSize:   batchSize,
		logger:      logger,
	}
}

// DecayReport summarizes one decay pass
type DecayReport struct {
	Scanned   int `json:"scanned"`
	Decayed   int `json:"decayed"`
	Demoted   int `json:"demoted"`
	Suspended int `json:"suspended"`
}

// Run applies decay to every active pattern idle past the grace period
func (s *DecayService) Run(ctx context.Context, now time.Time) (*DecayReport, error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration for decay", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load engine configuration")
	}
	policy := cfg.DecayPolicy()
	autoThreshold := cfg.Thresholds().AutoExecute

	idleSince := now.Add(-policy.GracePeriod)
	candidates, err := s.patternRepo.FindDecayable(ctx, idleSince, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to load decayable patterns", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load decayable patterns")
	}

	report := &DecayReport{Scanned: len(candidates)}
	for _, p := range candidates {
		wasAuto := p.AutoExecutable()
		if !p.ApplyDecay(policy, autoThreshold, now) {
			continue
		}
		if err := s.patternRepo.Update(ctx, p); err != nil {
			s.logger.Error("Failed to save decayed pattern",
				zap.String("pattern_id", p.GetID().String()), zap.Error(err))
			continue
		}

		report.Decayed++
		if wasAuto && !p.AutoExecutable() {
			report.Demoted++
			s.logger.Warn("Pattern demoted by decay",
				zap.String("pattern_id", p.GetID().String()),
				zap.Float64("confidence", p.Confidence()))
		}
		if p.Status() == pattern.StatusSuspended {
			report.Suspended++
			s.logger.Warn("Pattern suspended by decay",
				zap.String("pattern_id", p.GetID().String()),
				zap.Float64("confidence", p.Confidence()))
		}

		if s.publisher != nil {
			if events := p.GetDomainEvents(); len(events) > 0 {
				if err := s.publisher.Publish(ctx, events...); err != nil {
					s.logger.Error("Failed to publish decay events", zap.Error(err))
				}
			}
		}
		p.ClearDomainEvents()
	}

	if report.Decayed > 0 {
		s.logger.Info("Decay pass complete",
			zap.Int("scanned", report.Scanned),
			zap.Int("decayed", report.Decayed),
			zap.Int("demoted", report.Demoted),
			zap.Int("suspended", report.Suspended))
	}
	return report, nil
}
