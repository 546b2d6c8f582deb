package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
)

// ShadowLogEntry records what the engine would have done with a message
// while shadow mode was on. Entries are append-only and reviewed before
// turning shadow off.
type ShadowLogEntry struct {
	shared.BaseEntity
	MessageID     uuid.UUID          `json:"message_id"`
	PatternID     *uuid.UUID         `json:"pattern_id,omitempty"`
	WouldBeAction pattern.GateAction `json:"would_be_action"`
	Score         float64            `json:"score"`
	Reason        pattern.GateReason `json:"reason"`
	ProposedBody  string             `json:"proposed_body,omitempty"`
}

// NewShadowLogEntry creates a shadow log entry from a gate decision
func NewShadowLogEntry(messageID uuid.UUID, d pattern.Decision, proposedBody string) (*ShadowLogEntry, error) {
	if messageID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "shadow log entry requires a message")
	}
	if !d.Shadowed {
		return nil, shared.NewDomainError("NOT_SHADOWED", "decision was not made in shadow mode")
	}

	entry := &ShadowLogEntry{
		BaseEntity:    shared.NewBaseEntity(),
		MessageID:     messageID,
		WouldBeAction: d.WouldBe,
		Score:         d.Score,
		Reason:        d.Reason,
		ProposedBody:  proposedBody,
	}
	if d.Pattern != nil {
		id := d.Pattern.GetID()
		entry.PatternID = &id
	}
	return entry, nil
}

// ShadowStats summarizes shadow log entries over a window, used to judge
// whether the engine is safe to take live
type ShadowStats struct {
	Total            int64                        `json:"total"`
	ByWouldBeAction  map[pattern.GateAction]int64 `json:"by_would_be_action"`
	AvgScore         float64                      `json:"avg_score"`
	WouldAutoExecute int64                        `json:"would_auto_execute"`
	From             time.Time                    `json:"from"`
	To               time.Time                    `json:"to"`
}
