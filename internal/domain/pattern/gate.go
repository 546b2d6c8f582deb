package pattern

import "github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"

// Thresholds define the confidence bands the gate routes on.
// The ordering AutoExecute > Suggest > Queue is a hard invariant;
// NewThresholds rejects any configuration that violates it.
type Thresholds struct {
	AutoExecute float64 `json:"auto_execute"`
	Suggest     float64 `json:"suggest"`
	Queue       float64 `json:"queue"`
}

// DefaultThresholds returns the standard gate bands
func DefaultThresholds() Thresholds {
	return Thresholds{
		AutoExecute: 0.85,
		Suggest:     0.60,
		Queue:       0.40,
	}
}

// NewThresholds validates and creates gate thresholds
func NewThresholds(autoExecute, suggest, queue float64) (Thresholds, *shared.DomainError) {
	t := Thresholds{AutoExecute: autoExecute, Suggest: suggest, Queue: queue}
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

// Validate checks the band ordering and bounds
func (t Thresholds) Validate() *shared.DomainError {
	for _, v := range []float64{t.AutoExecute, t.Suggest, t.Queue} {
		if v < ConfidenceMin || v > ConfidenceMax {
			return shared.NewDomainError("INVALID_THRESHOLD", "thresholds must be within [0,1]")
		}
	}
	if !(t.AutoExecute > t.Suggest && t.Suggest > t.Queue) {
		return shared.NewDomainError("INVALID_THRESHOLD", "thresholds must satisfy auto_execute > suggest > queue")
	}
	return nil
}

// Decision is the gate's routing verdict for a single matched message
type Decision struct {
	Action   GateAction
	Reason   GateReason
	Pattern  *Pattern
	Score    float64
	Shadowed bool
	WouldBe  GateAction
}

// Gate routes matched messages by effective score. In shadow mode the
// gate records what it would have done and always returns ActionShadow.
type Gate struct {
	thresholds Thresholds
	shadowMode bool
}

// NewGate creates a gate with the given thresholds
func NewGate(thresholds Thresholds, shadowMode bool) (*Gate, *shared.DomainError) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Gate{thresholds: thresholds, shadowMode: shadowMode}, nil
}

// Thresholds returns the gate's configured bands
func (g *Gate) Thresholds() Thresholds { return g.thresholds }

// ShadowMode reports whether the gate is observing only
func (g *Gate) ShadowMode() bool { return g.shadowMode }

// Decide routes a match. A nil match, or a score below the queue band,
// means no action is taken: the gate emits a shadow decision so the
// outcome still lands in the shadow log, and the message falls through
// to a human untouched. Auto-execution additionally requires the pattern
// itself to be promoted; a confident but unpromoted pattern is capped at
// a suggestion.
func (g *Gate) Decide(match *Match) Decision {
	if match == nil || match.Pattern == nil {
		return observe(Decision{Reason: ReasonNoMatch})
	}

	p := match.Pattern
	score := match.EffectiveScore()

	if !p.IsMatchable() {
		return observe(Decision{Reason: ReasonPatternInactive, Pattern: p, Score: score})
	}

	var d Decision
	switch {
	case score >= g.thresholds.AutoExecute:
		if p.AutoExecutable() {
			d = Decision{Action: ActionAutoExecute, Reason: ReasonAutoExecute}
		} else {
			d = Decision{Action: ActionSuggest, Reason: ReasonNotPromoted}
		}
	case score >= g.thresholds.Suggest:
		d = Decision{Action: ActionSuggest, Reason: ReasonSuggested}
	case score >= g.thresholds.Queue:
		d = Decision{Action: ActionQueue, Reason: ReasonQueued}
	default:
		d.Pattern = p
		d.Score = score
		d.Reason = ReasonLowScore
		return observe(d)
	}

	d.Pattern = p
	d.Score = score
	return g.shadow(d)
}

// shadow rewrites an actionable decision into an observation when the
// gate runs in shadow mode, preserving what it would have done.
func (g *Gate) shadow(d Decision) Decision {
	if !g.shadowMode {
		return d
	}
	d.WouldBe = d.Action
	d.Action = ActionShadow
	d.Reason = ReasonShadowMode
	d.Shadowed = true
	return d
}

// observe marks a decision that never acts regardless of mode: the score
// fell below the queue band or there was nothing to act on. The original
// reason survives so shadow stats can tell these apart from shadow mode.
func observe(d Decision) Decision {
	d.Action = ActionShadow
	d.WouldBe = ActionShadow
	d.Shadowed = true
	return d
}
