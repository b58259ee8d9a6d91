package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC. Anything else is DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, defaultField otherwise
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// RecordSortFields contains the columns panel listings can be ordered by.
// Submission fields live in a JSON document and are not sortable.
var RecordSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"deleted_at": true,
}
