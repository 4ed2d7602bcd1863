/*
errors.go - Centralized error types for the generic engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Table errors - Programming errors against a table's declared columns
  2. Input errors - Malformed dates or paging parameters from callers
  3. Lookup errors - Records that do not exist

Business-data variation (missing references, empty windows, zero
denominators) is NEVER an error. Those cases resolve to documented defaults
inside the metrics engine.

USAGE:
  if errors.Is(err, generic.ErrUnknownColumn) {
      // caller asked for a column the table never declared
  }

SEE ALSO:
  - table.go: Returns ColumnError
  - time.go: Returns DateError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownColumn is returned when a filter or sort names a column the
	// table did not declare.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrColumnNotSortable is returned when sorting on a column declared
	// without Sortable.
	ErrColumnNotSortable = errors.New("column is not sortable")

	// ErrColumnNotFilterable is returned when filtering on a column declared
	// without Filterable.
	ErrColumnNotFilterable = errors.New("column is not filterable")

	// ErrInvalidDate is returned when a date string cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ColumnError names the offending column and the operation that used it.
type ColumnError struct {
	Table  string
	Column string
	Op     string // "filter" or "sort"
	Err    error
}

func (e *ColumnError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s on %q: %v", e.Op, e.Column, e.Err)
	}
	return fmt.Sprintf("%s on %s.%q: %v", e.Op, e.Table, e.Column, e.Err)
}

func (e *ColumnError) Unwrap() error { return e.Err }

// DateError carries the input that failed to parse.
type DateError struct {
	Input string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid date %q: expected RFC3339 or YYYY-MM-DD", e.Input)
}

func (e *DateError) Unwrap() error { return ErrInvalidDate }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownColumn) ||
		errors.Is(err, ErrColumnNotSortable) ||
		errors.Is(err, ErrColumnNotFilterable) ||
		errors.Is(err, ErrInvalidDate)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
