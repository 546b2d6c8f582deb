package pattern

// AggregateTypePattern is the aggregate type identifier for patterns
const AggregateTypePattern = "Pattern"

// AggregateTypeEngineConfig is the aggregate type identifier for the engine configuration
const AggregateTypeEngineConfig = "EngineConfig"

// PatternType categorizes what kind of customer request a pattern answers.
// Matching prefers candidates of the same type but always considers TypeGeneral.
type PatternType string

const (
	TypeGiftCards  PatternType = "gift_cards"
	TypeHours      PatternType = "hours"
	TypeBooking    PatternType = "booking"
	TypeAccess     PatternType = "access"
	TypeFAQ        PatternType = "faq"
	TypeTechIssue  PatternType = "tech_issue"
	TypeMembership PatternType = "membership"
	TypeGeneral    PatternType = "general"
)

// IsValid returns true if the pattern type is a known value
func (t PatternType) IsValid() bool {
	switch t {
	case TypeGiftCards, TypeHours, TypeBooking, TypeAccess,
		TypeFAQ, TypeTechIssue, TypeMembership, TypeGeneral:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (t PatternType) String() string {
	return string(t)
}

// AllPatternTypes returns all valid pattern types
func AllPatternTypes() []PatternType {
	return []PatternType{
		TypeGiftCards, TypeHours, TypeBooking, TypeAccess,
		TypeFAQ, TypeTechIssue, TypeMembership, TypeGeneral,
	}
}

// PatternStatus represents the lifecycle status of a pattern
type PatternStatus string

const (
	// StatusInactive patterns are stored but never act; learned patterns
	// start here pending manual activation. They still match in shadow.
	StatusInactive PatternStatus = "inactive"
	// StatusActive patterns participate fully in matching and gating.
	StatusActive PatternStatus = "active"
	// StatusSuspended patterns decayed to the confidence floor and were
	// parked by the decay job. Reactivation is a manual operation.
	StatusSuspended PatternStatus = "suspended"
	// StatusDeleted patterns are soft-deleted and excluded from matching.
	StatusDeleted PatternStatus = "deleted"
)

// IsValid returns true if the status is a known value
func (s PatternStatus) IsValid() bool {
	switch s {
	case StatusInactive, StatusActive, StatusSuspended, StatusDeleted:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (s PatternStatus) String() string {
	return string(s)
}

// GateAction is the action the gate routes a matched message to
type GateAction string

const (
	// ActionAutoExecute sends the rendered response without operator involvement
	ActionAutoExecute GateAction = "auto_execute"
	// ActionSuggest creates a suggestion for an operator to accept, modify or reject
	ActionSuggest GateAction = "suggest"
	// ActionQueue queues the match for review without a proposed response
	ActionQueue GateAction = "queue"
	// ActionShadow records what would have happened and takes no action
	ActionShadow GateAction = "shadow"
)

// IsValid returns true if the action is a known value
func (a GateAction) IsValid() bool {
	switch a {
	case ActionAutoExecute, ActionSuggest, ActionQueue, ActionShadow:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (a GateAction) String() string {
	return string(a)
}

// FeedbackKind classifies operator or system feedback on a pattern's output
type FeedbackKind string

const (
	// FeedbackAccept means the operator sent the proposed response as-is
	FeedbackAccept FeedbackKind = "accept"
	// FeedbackModify means the operator edited the proposed response before sending
	FeedbackModify FeedbackKind = "modify"
	// FeedbackReject means the operator discarded the proposed response
	FeedbackReject FeedbackKind = "reject"
	// FeedbackAutoSuccess means an auto-executed response completed without complaint
	FeedbackAutoSuccess FeedbackKind = "auto_success"
	// FeedbackAutoFailure means an auto-executed response was reported wrong
	FeedbackAutoFailure FeedbackKind = "auto_failure"
)

// IsValid returns true if the feedback kind is a known value
func (k FeedbackKind) IsValid() bool {
	switch k {
	case FeedbackAccept, FeedbackModify, FeedbackReject, FeedbackAutoSuccess, FeedbackAutoFailure:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (k FeedbackKind) String() string {
	return string(k)
}

// GateReason explains why the gate chose an action
type GateReason string

const (
	ReasonAutoExecute     GateReason = "auto_execute"
	ReasonSuggested       GateReason = "suggested"
	ReasonQueued          GateReason = "queued"
	ReasonLowScore        GateReason = "low_score"
	ReasonNoMatch         GateReason = "no_match"
	ReasonShadowMode      GateReason = "shadow_mode"
	ReasonEngineDisabled  GateReason = "engine_disabled"
	ReasonPatternInactive GateReason = "pattern_inactive"
	ReasonNotPromoted     GateReason = "not_promoted"
)
