/*
errors.go - Centralized error types for the attendance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The HTTP layer maps these onto status codes without knowing anything
  about the operations that produced them.

ERROR CATEGORIES:
  1. Validation errors   - malformed input, rejected before touching the store
  2. Conflict errors     - lifecycle state mismatches (finalized records)
  3. Authorization       - actor lacks finalize/reopen capability
  4. Domain invariants   - roster membership, substitute coherence
  5. Not found           - unknown record

USAGE:
  if errors.Is(err, attendance.ErrRecordFinalized) {
      // expected, routine: a teacher editing a locked day
  }

SEE ALSO:
  - reconcile.go, lifecycle.go: Produce these errors
  - api/handlers.go: Maps them to HTTP statuses
*/
package attendance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRecordFinalized is returned when reconciling onto a finalized record.
	// Routine occurrence: UIs show locked days and users still try to edit them.
	ErrRecordFinalized = errors.New("record is finalized")

	// ErrAlreadyFinalized is returned by Finalize on a finalized record.
	ErrAlreadyFinalized = errors.New("record is already finalized")

	// ErrNotFinalized is returned by Reopen on a draft record.
	ErrNotFinalized = errors.New("record is not finalized")

	// ErrForbidden is returned when the actor lacks the required capability.
	// Never downgraded to a no-op.
	ErrForbidden = errors.New("actor lacks required capability")

	// ErrRecordNotFound is returned for unknown record IDs.
	ErrRecordNotFound = errors.New("attendance record not found")

	// ErrUnknownPerson is returned for entries referencing a person outside
	// the roster. Rejects the whole batch (atomic merge policy).
	ErrUnknownPerson = errors.New("person not in roster")

	// ErrInvalidSubstitute is returned for incoherent substitute assignments.
	ErrInvalidSubstitute = errors.New("invalid substitute assignment")

	// ErrInvalidStatus is returned for status values not allowed for the kind.
	ErrInvalidStatus = errors.New("status not valid for record kind")

	// ErrDuplicateRecord is returned by stores when a concurrent first write
	// already created the record for (scope, date). Callers reload and retry.
	ErrDuplicateRecord = errors.New("record already exists for scope and date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports malformed input with field-level detail.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UnknownPersonError identifies which incoming entry failed roster validation.
type UnknownPersonError struct {
	PersonID PersonID
	Scope    ScopeKey
}

func (e *UnknownPersonError) Error() string {
	return fmt.Sprintf("person %s is not in the roster for %s", e.PersonID, e.Scope)
}

func (e *UnknownPersonError) Unwrap() error { return ErrUnknownPerson }

// InvalidSubstituteError explains why a substitute assignment was rejected.
type InvalidSubstituteError struct {
	PersonID  PersonID
	TeacherID PersonID
	Reason    string
}

func (e *InvalidSubstituteError) Error() string {
	return fmt.Sprintf("substitute for %s rejected: %s", e.PersonID, e.Reason)
}

func (e *InvalidSubstituteError) Unwrap() error { return ErrInvalidSubstitute }

// InvalidStatusError identifies a status value not allowed for the kind.
type InvalidStatusError struct {
	PersonID PersonID
	Status   Status
	Kind     Kind
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("status %s is not valid for %s entries (person %s)", e.Status, e.Kind, e.PersonID)
}

func (e *InvalidStatusError) Unwrap() error { return ErrInvalidStatus }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports malformed input rejected before touching the store.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports lifecycle state mismatches. Not retried automatically.
func IsConflict(err error) bool {
	return errors.Is(err, ErrRecordFinalized) ||
		errors.Is(err, ErrAlreadyFinalized) ||
		errors.Is(err, ErrNotFinalized)
}

// IsDomainInvariant reports roster/substitute invariant violations.
func IsDomainInvariant(err error) bool {
	return errors.Is(err, ErrUnknownPerson) ||
		errors.Is(err, ErrInvalidSubstitute) ||
		errors.Is(err, ErrInvalidStatus)
}

// IsNotFound reports a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
