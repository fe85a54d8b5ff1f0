package application

import (
	"fmt"
	"strings"

	"backlog/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "taskID" -> "task ID")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"taskID":        "task ID",
		"sequence":      "sequence",
		"afterSequence": "after sequence",
		"position":      "position",
		"projectRoot":   "project root",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	return fieldName
}

// ValidateTaskID checks that an ID looks like task-<n>[.<m>...].
// Returns a ValidationError wrapping ErrInvalidID otherwise.
func ValidateTaskID(fieldName, id string) error {
	if err := ValidateRequired(fieldName, id); err != nil {
		return err
	}
	if err := domain.ValidateTaskID(id); err != nil {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("expected %s like task-12, got: %s", formatFieldName(fieldName), id),
		}
	}
	return nil
}

// ValidatePositive checks that a 1-based index is at least 1
func ValidatePositive(fieldName string, v int) error {
	if v < 1 {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must be at least 1, got: %d", formatFieldName(fieldName), v),
		}
	}
	return nil
}

// ValidateNonNegative checks that an index is at least 0
func ValidateNonNegative(fieldName string, v int) error {
	if v < 0 {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must not be negative, got: %d", formatFieldName(fieldName), v),
		}
	}
	return nil
}
