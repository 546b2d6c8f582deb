package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// PatternSortFields contains allowed sort fields for patterns
var PatternSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"type":            true,
	"status":          true,
	"origin":          true,
	"confidence":      true,
	"times_matched":   true,
	"last_matched_at": true,
}

// MessageSortFields contains allowed sort fields for inbound messages
var MessageSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"channel":     true,
	"sender":      true,
	"status":      true,
	"match_score": true,
	"received_at": true,
}

// SuggestionSortFields contains allowed sort fields for suggestions
var SuggestionSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"status":      true,
	"score":       true,
	"expires_at":  true,
	"resolved_at": true,
}

// ShadowLogSortFields contains allowed sort fields for shadow log entries
var ShadowLogSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"would_be_action": true,
	"score":           true,
}

// ConfigAuditSortFields contains allowed sort fields for config audit logs
var ConfigAuditSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"action":     true,
}

// OperatorSortFields contains allowed sort fields for operators
var OperatorSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"username":      true,
	"email":         true,
	"display_name":  true,
	"role":          true,
	"status":        true,
	"last_login_at": true,
}
