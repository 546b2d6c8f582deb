// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineMetrics tracks the pattern engine's operational health: message
// throughput by gate outcome, match latency, suggestion flow, and the
// automation rate the dashboard watches.
type EngineMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	messagesProcessedTotal   *Counter
	autoExecutionsTotal      *Counter
	suggestionsCreatedTotal  *Counter
	suggestionsResolvedTotal *Counter
	patternsLearnedTotal     *Counter

	// Distribution metrics
	matchDuration *Histogram
	gateScore     *Histogram

	// Gauge metrics (point-in-time values)
	patternCount       *Gauge
	pendingSuggestions *Gauge
	automationRate     *FloatGauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	gaugeProvider EngineGaugeProvider
}

// EngineGaugeProvider supplies point-in-time engine state for periodic
// gauge collection. This interface keeps the telemetry layer off the
// domain repositories.
type EngineGaugeProvider interface {
	// CountPatternsByStatus returns the pattern count per lifecycle status
	CountPatternsByStatus(ctx context.Context) (map[string]int64, error)

	// CountPendingSuggestions returns the open review queue depth
	CountPendingSuggestions(ctx context.Context) (int64, error)

	// AutomationRate returns the fraction of messages auto-executed over
	// the window, 0..1
	AutomationRate(ctx context.Context, window time.Duration) (float64, error)
}

// EngineMetricsConfig holds configuration for engine metrics.
type EngineMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 1 minute
	GaugeProvider   EngineGaugeProvider
}

// NewEngineMetrics creates a new EngineMetrics instance.
func NewEngineMetrics(cfg EngineMetricsConfig) (*EngineMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	em := &EngineMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		gaugeProvider: cfg.GaugeProvider,
	}

	var err error

	em.messagesProcessedTotal, err = NewCounter(
		cfg.Meter,
		"pls_messages_processed_total",
		"Total inbound messages routed by the gate",
		"{messages}",
	)
	if err != nil {
		return nil, err
	}

	em.autoExecutionsTotal, err = NewCounter(
		cfg.Meter,
		"pls_auto_executions_total",
		"Total responses sent without operator involvement",
		"{responses}",
	)
	if err != nil {
		return nil, err
	}

	em.suggestionsCreatedTotal, err = NewCounter(
		cfg.Meter,
		"pls_suggestions_created_total",
		"Total suggestions queued for operator review",
		"{suggestions}",
	)
	if err != nil {
		return nil, err
	}

	em.suggestionsResolvedTotal, err = NewCounter(
		cfg.Meter,
		"pls_suggestions_resolved_total",
		"Total suggestions resolved, labeled by outcome",
		"{suggestions}",
	)
	if err != nil {
		return nil, err
	}

	em.patternsLearnedTotal, err = NewCounter(
		cfg.Meter,
		"pls_patterns_learned_total",
		"Total patterns synthesized by the learner",
		"{patterns}",
	)
	if err != nil {
		return nil, err
	}

	em.matchDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "pls_match_duration_seconds",
		Description: "Time spent matching a message against the candidate set",
		Unit:        "s",
		Boundaries:  SmallDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	em.gateScore, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "pls_gate_score",
		Description: "Effective score distribution of gated messages",
		Unit:        "1",
		Boundaries:  ScoreBuckets,
	})
	if err != nil {
		return nil, err
	}

	em.patternCount, err = NewGauge(
		cfg.Meter,
		"pls_patterns",
		"Current pattern count per lifecycle status",
		"{patterns}",
	)
	if err != nil {
		return nil, err
	}

	em.pendingSuggestions, err = NewGauge(
		cfg.Meter,
		"pls_suggestions_pending",
		"Open suggestions awaiting operator review",
		"{suggestions}",
	)
	if err != nil {
		return nil, err
	}

	em.automationRate, err = NewFloatGauge(
		cfg.Meter,
		"pls_automation_rate",
		"Fraction of recent messages answered without an operator",
		"1",
	)
	if err != nil {
		return nil, err
	}

	return em, nil
}

// RecordMessageProcessed records one gate decision.
func (em *EngineMetrics) RecordMessageProcessed(ctx context.Context, channel, gateAction, gateReason string, score float64, matchDuration time.Duration) {
	em.messagesProcessedTotal.Inc(ctx,
		AttrChannel.String(channel),
		AttrGateAction.String(gateAction),
		AttrGateReason.String(gateReason),
	)
	em.matchDuration.RecordDuration(ctx, matchDuration,
		AttrChannel.String(channel),
	)
	em.gateScore.Record(ctx, score,
		AttrGateAction.String(gateAction),
	)
}

// RecordAutoExecution records a response sent without an operator.
func (em *EngineMetrics) RecordAutoExecution(ctx context.Context, patternType string) {
	em.autoExecutionsTotal.Inc(ctx,
		AttrPatternType.String(patternType),
	)
}

// RecordSuggestionCreated records a suggestion entering the review queue.
func (em *EngineMetrics) RecordSuggestionCreated(ctx context.Context, patternType string) {
	em.suggestionsCreatedTotal.Inc(ctx,
		AttrPatternType.String(patternType),
	)
}

// RecordSuggestionResolved records a suggestion leaving the review queue.
// Status is the terminal suggestion status (accepted/modified/rejected/expired).
func (em *EngineMetrics) RecordSuggestionResolved(ctx context.Context, status string) {
	em.suggestionsResolvedTotal.Inc(ctx,
		AttrSuggestionStatus.String(status),
	)
}

// RecordPatternLearned records a learner-synthesized draft pattern.
func (em *EngineMetrics) RecordPatternLearned(ctx context.Context, patternType string) {
	em.patternsLearnedTotal.Inc(ctx,
		AttrPatternType.String(patternType),
	)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// Non-blocking; use Stop() to stop collection.
func (em *EngineMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	em.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}
		go em.runPeriodicCollection(ctx, interval)
	})
}

func (em *EngineMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	em.collectGauges(ctx)

	for {
		select {
		case <-em.stopChan:
			em.logger.Info("Stopping periodic engine metrics collection")
			return
		case <-ctx.Done():
			em.logger.Info("Context cancelled, stopping periodic engine metrics collection")
			return
		case <-ticker.C:
			em.collectGauges(ctx)
		}
	}
}

// automationRateWindow is the trailing window the automation rate gauge
// is computed over
const automationRateWindow = 24 * time.Hour

func (em *EngineMetrics) collectGauges(ctx context.Context) {
	if em.gaugeProvider == nil {
		em.logger.Debug("No gauge provider configured, skipping engine gauge collection")
		return
	}

	byStatus, err := em.gaugeProvider.CountPatternsByStatus(ctx)
	if err != nil {
		em.logger.Warn("Failed to count patterns for metrics", zap.Error(err))
	} else {
		for status, count := range byStatus {
			em.patternCount.Record(ctx, count,
				AttrPatternStatus.String(status),
			)
		}
	}

	pending, err := em.gaugeProvider.CountPendingSuggestions(ctx)
	if err != nil {
		em.logger.Warn("Failed to count pending suggestions for metrics", zap.Error(err))
	} else {
		em.pendingSuggestions.Record(ctx, pending)
	}

	rate, err := em.gaugeProvider.AutomationRate(ctx, automationRateWindow)
	if err != nil {
		em.logger.Warn("Failed to compute automation rate for metrics", zap.Error(err))
	} else {
		em.automationRate.Record(ctx, rate)
	}
}

// Stop stops the periodic collection.
func (em *EngineMetrics) Stop() {
	em.stopOnce.Do(func() {
		close(em.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewEngineMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// ScoreBuckets are bucket boundaries for 0..1 match scores.
var ScoreBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1}
