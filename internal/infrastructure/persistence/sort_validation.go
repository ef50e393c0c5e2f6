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

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"username":      true,
	"email":         true,
	"display_name":  true,
	"role":          true,
	"last_login_at": true,
}

// ProgramSortFields contains allowed sort fields for loyalty programs
var ProgramSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"active":     true,
}

// MembershipSortFields contains allowed sort fields for memberships
var MembershipSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"customer_id":      true,
	"balance":          true,
	"tier":             true,
	"joined_at":        true,
	"last_activity_at": true,
}

// TransactionSortFields contains allowed sort fields for point transactions
var TransactionSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"type":             true,
	"points":           true,
	"balance_after":    true,
	"transaction_date": true,
}
