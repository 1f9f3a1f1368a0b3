/*
errors.go - Centralized error types for the analytics engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers wrap these with additional context; the API layer maps them
  to HTTP status codes and user-visible diagnostics.

ERROR CATEGORIES:
  1. Input errors  - schema violations on ingestion, bad entity names
  2. Data errors   - no rows where a computation needs at least one
  3. Store errors  - query failures, caught at each operation boundary

SEE ALSO:
  - engine.go: wraps store errors per report
  - stats: uses ErrNoData for empty-column statistics
  - api/handlers.go: converts errors to JSON diagnostics
*/
package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData is returned when a statistical operation has zero
	// non-null rows to work with. Reports never return this; they
	// yield zero values instead.
	ErrNoData = errors.New("no data")

	// ErrUnknownEntity is returned for an entity-report name outside
	// agents/brokers/direct/reinsurance.
	ErrUnknownEntity = errors.New("unknown entity type")

	// ErrInvalidIdentifier is returned when a table or column name
	// fails identifier validation before being quoted into SQL.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrSchemaMismatch is returned when a bulk ingest batch does not
	// carry every required column. The batch is rejected whole; no
	// rows are applied.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// MissingColumnsError reports which required columns an ingest batch
// lacked.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns: %v", e.Missing)
}

func (e *MissingColumnsError) Unwrap() error {
	return ErrSchemaMismatch
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrUnknownEntity) ||
		errors.Is(err, ErrInvalidIdentifier)
}
