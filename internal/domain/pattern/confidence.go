package pattern

import "time"

// FeedbackPolicy maps feedback kinds to confidence deltas.
// Rejections cost more than acceptances earn: a pattern has to be
// consistently right to climb, and one bad auto-execution sets it
// back three accepts.
type FeedbackPolicy struct {
	AcceptDelta      float64
	ModifyDelta      float64
	RejectDelta      float64
	AutoSuccessDelta float64
	AutoFailureDelta float64
}

// DefaultFeedbackPolicy returns the standard feedback deltas
func DefaultFeedbackPolicy() FeedbackPolicy {
	return FeedbackPolicy{
		AcceptDelta:      0.05,
		ModifyDelta:      0.02,
		RejectDelta:      -0.10,
		AutoSuccessDelta: 0.01,
		AutoFailureDelta: -0.15,
	}
}

// Delta returns the confidence adjustment for a feedback kind
func (p FeedbackPolicy) Delta(kind FeedbackKind) float64 {
	switch kind {
	case FeedbackAccept:
		return p.AcceptDelta
	case FeedbackModify:
		return p.ModifyDelta
	case FeedbackReject:
		return p.RejectDelta
	case FeedbackAutoSuccess:
		return p.AutoSuccessDelta
	case FeedbackAutoFailure:
		return p.AutoFailureDelta
	default:
		return 0
	}
}

// DecayPolicy lowers confidence on patterns that stop matching.
// Nothing decays inside the grace window; after it, confidence drops
// linearly per idle day down to the floor. A pattern parked at the floor
// for SuspendAfter without any activity is suspended.
type DecayPolicy struct {
	GracePeriod  time.Duration
	RatePerDay   float64
	Floor        float64
	SuspendAfter time.Duration
}

// DefaultDecayPolicy returns the standard decay schedule
func DefaultDecayPolicy() DecayPolicy {
	return DecayPolicy{
		GracePeriod:  7 * 24 * time.Hour,
		RatePerDay:   0.01,
		Floor:        0.30,
		SuspendAfter: 14 * 24 * time.Hour,
	}
}

// DecayAmount returns how much confidence to subtract for a pattern whose
// last activity was at lastActivity, evaluated at now. Zero inside the
// grace period.
func (p DecayPolicy) DecayAmount(lastActivity, now time.Time) float64 {
	idle := now.Sub(lastActivity)
	if idle <= p.GracePeriod {
		return 0
	}
	idleDays := (idle - p.GracePeriod).Hours() / 24
	if idleDays <= 0 {
		return 0
	}
	return idleDays * p.RatePerDay
}
