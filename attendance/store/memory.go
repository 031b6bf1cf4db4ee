// Package store provides in-memory implementations of the attendance
// interfaces, used by tests and local development.
package store

import (
	"context"
	"sync"

	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// MEMORY RECORD STORE
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	byKey map[recordKey]*attendance.Record
	byID  map[attendance.RecordID]*attendance.Record
}

type recordKey struct {
	Scope string
	Date  string
}

func NewMemory() *Memory {
	return &Memory{
		byKey: make(map[recordKey]*attendance.Record),
		byID:  make(map[attendance.RecordID]*attendance.Record),
	}
}

func keyOf(scope attendance.ScopeKey, date attendance.Day) recordKey {
	return recordKey{Scope: scope.String(), Date: date.String()}
}

// Get returns a deep copy so callers can never mutate stored state.
func (m *Memory) Get(_ context.Context, scope attendance.ScopeKey, date attendance.Day) (*attendance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byKey[keyOf(scope, date)].Clone(), nil
}

func (m *Memory) GetByID(_ context.Context, id attendance.RecordID) (*attendance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byID[id]
	if !ok {
		return nil, attendance.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

// Save upserts the record, enforcing at-most-one per (scope, date).
func (m *Memory) Save(_ context.Context, rec *attendance.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyOf(rec.Scope, rec.Date)
	if existing, ok := m.byKey[k]; ok && existing.ID != rec.ID {
		return attendance.ErrDuplicateRecord
	}

	cp := rec.Clone()
	m.byKey[k] = cp
	m.byID[cp.ID] = cp
	return nil
}

func (m *Memory) SetFinalized(_ context.Context, id attendance.RecordID, finalized bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return attendance.ErrRecordNotFound
	}
	rec.Finalized = finalized
	return nil
}

func (m *Memory) FindPersonEntries(_ context.Context, kind attendance.Kind, person attendance.PersonID, from, to attendance.Day) ([]attendance.PersonDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []attendance.PersonDay
	for _, rec := range m.byID {
		if rec.Scope.Kind != kind {
			continue
		}
		if rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		entry, ok := rec.Entries[person]
		if !ok {
			continue
		}
		result = append(result, attendance.PersonDay{Date: rec.Date, Scope: rec.Scope, Entry: entry})
	}
	return result, nil
}

var _ attendance.RecordStore = (*Memory)(nil)

// =============================================================================
// MEMORY ROSTER PROVIDER
// =============================================================================

// Rosters serves fixed rosters keyed by scope. Date-independent; tests that
// need per-day rosters can swap rosters between calls.
type Rosters struct {
	mu      sync.RWMutex
	byScope map[string][]attendance.PersonID
}

func NewRosters() *Rosters {
	return &Rosters{byScope: make(map[string][]attendance.PersonID)}
}

// SetRoster registers the person list for a scope.
func (r *Rosters) SetRoster(scope attendance.ScopeKey, persons ...attendance.PersonID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byScope[scope.String()] = persons
}

func (r *Rosters) ListRoster(_ context.Context, scope attendance.ScopeKey, date attendance.Day) (attendance.Roster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return attendance.NewRoster(scope, date, r.byScope[scope.String()]), nil
}

var _ attendance.RosterProvider = (*Rosters)(nil)

// =============================================================================
// STATIC CAPABILITY CHECKER
// =============================================================================

// Capabilities grants capabilities per actor.
type Capabilities struct {
	mu     sync.RWMutex
	grants map[string]map[attendance.Capability]bool
}

func NewCapabilities() *Capabilities {
	return &Capabilities{grants: make(map[string]map[attendance.Capability]bool)}
}

// Grant gives an actor the listed capabilities.
func (c *Capabilities) Grant(actor string, capabilities ...attendance.Capability) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.grants[actor] == nil {
		c.grants[actor] = make(map[attendance.Capability]bool)
	}
	for _, capability := range capabilities {
		c.grants[actor][capability] = true
	}
}

func (c *Capabilities) HasCapability(_ context.Context, actor string, capability attendance.Capability) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.grants[actor][capability], nil
}

var _ attendance.CapabilityChecker = (*Capabilities)(nil)
