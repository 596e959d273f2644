package services

import (
	"errors"
	"strings"
)

// Sentinel errors shared by the domain services. Controllers translate these
// into the API error envelope; nothing below this layer touches HTTP.
var (
	// ErrValidation indicates missing or malformed required input,
	// rejected before any write
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrRecordLocked indicates an edit or delete was attempted on a record
	// whose owning cycle is closed
	ErrRecordLocked = errors.New("record belongs to a closed cycle")

	// ErrUniqueness indicates a duplicate username, email, company name
	// or cycle name
	ErrUniqueness = errors.New("duplicate value")

	// ErrDelivery indicates the notification adapter could not send
	ErrDelivery = errors.New("delivery failed")

	// ErrNothingToExport indicates the export scope matched no records
	ErrNothingToExport = errors.New("no records to export")
)

// isUniqueViolation checks a database error for a unique constraint failure.
// Works with both PostgreSQL and SQLite error texts, same as the duplicate
// checks done at user creation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique")
}
