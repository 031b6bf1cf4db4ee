/*
store.go - Persistence and collaborator interfaces

PURPOSE:
  Defines the boundary between the engine and the outside world: the record
  store, the roster provider, and the capability checker. Different
  implementations can use SQLite, PostgreSQL, or in-memory storage.

KEY INTERFACES:
  RecordStore:       Record persistence keyed on (ScopeKey, Day)
  RosterProvider:    External authority for who can be marked
  CapabilityChecker: External authority for finalize/reopen rights

UNIQUENESS CONTRACT:
  At most one record may exist per (ScopeKey, Day), even under concurrent
  first writes. Stores enforce this with a unique constraint (SQLite) or
  map keying (memory); Save returns ErrDuplicateRecord when a concurrent
  creation won the race, and the caller reloads and merges again.

NO PARTIAL WRITES:
  Save replaces the whole record atomically. A failed save leaves the prior
  stored state untouched.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store (records, rosters, capabilities)
  - attendance/store: In-memory implementations for testing

SEE ALSO:
  - service.go: Orchestrates these interfaces per operation
*/
package attendance

import "context"

// =============================================================================
// RECORD STORE
// =============================================================================

// RecordStore persists attendance records. Writes for the same (scope, date)
// are serialized by the implementation; reads are unrestricted.
type RecordStore interface {
	// Get returns the record for (scope, date), or nil when none exists.
	Get(ctx context.Context, scope ScopeKey, date Day) (*Record, error)

	// GetByID returns a record by ID. Returns ErrRecordNotFound when unknown.
	GetByID(ctx context.Context, id RecordID) (*Record, error)

	// Save persists the record, creating it when no record exists for its
	// (scope, date) and replacing it otherwise. Returns ErrDuplicateRecord
	// when a different record already occupies (scope, date) - the
	// at-most-one invariant under concurrent first writes.
	Save(ctx context.Context, rec *Record) error

	// SetFinalized flips the lifecycle flag without touching entries.
	SetFinalized(ctx context.Context, id RecordID, finalized bool) error

	// FindPersonEntries returns every stored entry for a person of the given
	// kind within [from, to], across all scopes. This is how reports recover
	// historical class affiliation: the scope comes from the record that
	// contains the entry, not from the person's current profile.
	FindPersonEntries(ctx context.Context, kind Kind, person PersonID, from, to Day) ([]PersonDay, error)
}

// PersonDay is one person's entry on one day, with the scope of the record
// that contained it.
type PersonDay struct {
	Date  Day
	Scope ScopeKey
	Entry Entry
}

// =============================================================================
// EXTERNAL COLLABORATORS
// =============================================================================

// RosterProvider supplies the authoritative person list for a scope+day.
// Roster lookups may block on I/O; treat them as synchronous network calls.
type RosterProvider interface {
	ListRoster(ctx context.Context, scope ScopeKey, date Day) (Roster, error)
}

// Capability names a privileged lifecycle action.
type Capability string

const (
	CapabilityFinalize Capability = "finalize"
	CapabilityReopen   Capability = "reopen"
)

// CapabilityChecker answers whether an actor may perform a privileged action.
type CapabilityChecker interface {
	HasCapability(ctx context.Context, actor string, capability Capability) (bool, error)
}
