package pls

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/conversation"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// LearnedConfidenceCap is the highest confidence a freshly learned
// pattern can start with, whatever the model claims.
const LearnedConfidenceCap = 0.50

// LearnCandidate is a cluster of unanswered messages handed to the learner
type LearnCandidate struct {
	SignatureHash  string
	SampleMessages []string
	Count          int64
	FirstSeen      time.Time
	LastSeen       time.Time
}

// LearnedDraft is the learner's proposed pattern for a cluster
type LearnedDraft struct {
	TriggerText  string
	PatternType  pattern.PatternType
	TemplateBody string
	Confidence   float64
	Rationale    string
	Model        string
	TokensUsed   int64
	Cost         decimal.Decimal
}

// Learner synthesizes response patterns from message clusters
type Learner interface {
	Synthesize(ctx context.Context, candidate LearnCandidate) (*LearnedDraft, error)
}

// LearningServiceConfig contains tunables for the learning run
type LearningServiceConfig struct {
	ClusterWindow  time.Duration // How far back to look for unmatched clusters
	MinClusterSize int           // Minimum repeats before a cluster is worth learning
	MaxPerRun      int           // Cap on patterns created per run
}

// DefaultLearningServiceConfig returns default learning configuration
func DefaultLearningServiceConfig() LearningServiceConfig {
	return LearningServiceConfig{
		ClusterWindow:  7 * 24 * time.Hour,
		MinClusterSize: 5,
		MaxPerRun:      10,
	}
}

// LearnReport summarizes one learning run
type LearnReport struct {
	ClustersSeen    int             `json:"clusters_seen"`
	PatternsCreated int             `json:"patterns_created"`
	Skipped         int             `json:"skipped"`
	Failed          int             `json:"failed"`
	Cost            decimal.Decimal `json:"cost"`
}

// LearningService mines queued messages for repeated signatures and asks
// the learner to draft patterns for them. Drafts land inactive; an
// operator reviews and activates them.
type LearningService struct {
	messageRepo conversation.MessageRepository
	patternRepo pattern.Repository
	configRepo  pattern.ConfigRepository
	learner     Learner
	publisher   shared.EventPublisher
	config      LearningServiceConfig
	logger      *zap.Logger
}

// NewLearningService creates a new learning service
func NewLearningService(
	messageRepo conversation.MessageRepository,
	patternRepo pattern.Repository,
	configRepo pattern.ConfigRepository,
	learner Learner,
	publisher shared.EventPublisher,
	config LearningServiceConfig,
	logger *zap.Logger,
) *LearningService {
	return &LearningService{
		messageRepo: messageRepo,
		patternRepo: patternRepo,
		configRepo:  configRepo,
		learner:     learner,
		publisher:   publisher,
		config:      config,
		logger:      logger,
	}
}

// Run performs one learning pass over recent unmatched message clusters.
// A no-op when the learner toggle in the engine configuration is off.
func (s *LearningService) Run(ctx context.Context, now time.Time) (*LearnReport, error) {
	if s.learner == nil {
		return nil, shared.NewDomainError("LEARNER_DISABLED", "No learner is configured")
	}

	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to load engine configuration for learning", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load engine configuration")
	}
	if !cfg.LearnerEnabled() {
		s.logger.Info("Learner disabled in engine configuration, skipping run")
		return &LearnReport{Cost: decimal.Zero}, nil
	}

	since := now.Add(-s.config.ClusterWindow)
	clusters, err := s.messageRepo.FindUnmatchedClusters(ctx, since, s.config.MinClusterSize, s.config.MaxPerRun*2)
	if err != nil {
		s.logger.Error("Failed to load unmatched clusters", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load unmatched clusters")
	}

	report := &LearnReport{ClustersSeen: len(clusters), Cost: decimal.Zero}
	for _, cluster := range clusters {
		if report.PatternsCreated >= s.config.MaxPerRun {
			break
		}

		// Already covered by an existing pattern; the cluster predates it
		// or the pattern is not yet active.
		if existing, err := s.patternRepo.FindBySignature(ctx, cluster.SignatureHash); err == nil && existing != nil {
			report.Skipped++
			continue
		}

		draft, err := s.learner.Synthesize(ctx, LearnCandidate{
			SignatureHash:  cluster.SignatureHash,
			SampleMessages: cluster.SampleBodies,
			Count:          cluster.Count,
			FirstSeen:      cluster.FirstSeen,
			LastSeen:       cluster.LastSeen,
		})
		if err != nil {
			s.logger.Error("Learner failed on cluster",
				zap.String("signature", cluster.SignatureHash), zap.Error(err))
			report.Failed++
			continue
		}
		report.Cost = report.Cost.Add(draft.Cost)

		p, derr := s.buildPattern(draft, cluster)
		if derr != nil {
			s.logger.Warn("Learner draft rejected",
				zap.String("signature", cluster.SignatureHash), zap.Error(derr))
			report.Failed++
			continue
		}

		if err := s.patternRepo.Save(ctx, p); err != nil {
			s.logger.Error("Failed to save learned pattern", zap.Error(err))
			report.Failed++
			continue
		}
		report.PatternsCreated++

		if s.publisher != nil {
			if events := p.GetDomainEvents(); len(events) > 0 {
				if err := s.publisher.Publish(ctx, events...); err != nil {
					s.logger.Error("Failed to publish learning events", zap.Error(err))
				}
			}
		}
		p.ClearDomainEvents()

		s.logger.Info("Pattern learned",
			zap.String("pattern_id", p.GetID().String()),
			zap.String("pattern_type", string(p.Type())),
			zap.Int64("cluster_size", cluster.Count),
			zap.String("model", draft.Model))
	}

	s.logger.Info("Learning run complete",
		zap.Int("clusters", report.ClustersSeen),
		zap.Int("created", report.PatternsCreated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.String("cost", report.Cost.String()))
	return report, nil
}

func (s *LearningService) buildPattern(draft *LearnedDraft, cluster conversation.SignatureCluster) (*pattern.Pattern, *shared.DomainError) {
	patternType := draft.PatternType
	if !patternType.IsValid() {
		patternType = pattern.TypeGeneral
	}

	template, derr := pattern.NewResponseTemplate(draft.TemplateBody)
	if derr != nil {
		return nil, derr
	}

	confidence := draft.Confidence
	if confidence <= 0 || confidence > LearnedConfidenceCap {
		confidence = LearnedConfidenceCap
	}

	notes := fmt.Sprintf("Learned from %d similar messages between %s and %s. %s",
		cluster.Count,
		cluster.FirstSeen.Format("2006-01-02"),
		cluster.LastSeen.Format("2006-01-02"),
		draft.Rationale)

	// The draft carries the cluster's signature, re-derived from a sample
	// body with the same extractor that grouped the cluster. Keying the
	// pattern to the LLM's trigger text would orphan it: it would never
	// exact-match the messages it was learned from, and the next run
	// would mine the same cluster again.
	var sig pattern.Signature
	if len(cluster.SampleBodies) > 0 {
		sig = pattern.ExtractSignature(cluster.SampleBodies[0])
	}
	return pattern.NewLearnedPatternFromCluster(sig, draft.TriggerText, patternType, template, confidence, notes)
}
