/*
Package attendance provides the core attendance management engine.

PURPOSE:
  This package contains the domain types and algorithms for per-scope,
  per-day attendance records. Whether marking a class of students, the
  teaching staff of a campus, or non-teaching staff, the same engine
  handles roster reconciliation, the draft/finalized lifecycle, and
  statistics over partially-marked rosters.

KEY CONCEPTS IN THIS FILE (types.go):
  - ScopeKey: The identity a record is keyed on beyond date
    (tenant + campus + kind, plus class for student records)
  - Record: One attendance record per (ScopeKey, Day)
  - Entry: The marked status of a single person within a record
  - EntryUpdate: A caller-supplied status change merged by the Reconciler
  - Roster: The authoritative ordered person set for a scope+day

DESIGN PRINCIPLES:
  1. One engine, three kinds: student/teacher/staff share one Record type;
     per-kind differences live in KindConfig (kinds.go)
  2. Roster members without an entry are "not marked" - they are never
     materialized as entries, only counted by the statistics calculator
  3. Records are mutated by whole-record replacement; a rejected
     reconciliation leaves the stored record untouched

USAGE:
  scope := attendance.ScopeKey{Tenant: "t1", Campus: "main",
      Kind: attendance.KindStudentClass, ClassID: "class-5a"}
  rec, stats, err := svc.Mark(ctx, attendance.MarkInput{
      Scope: scope, Date: attendance.NewDay(2024, time.January, 10),
      Actor: "teacher-9",
      Updates: []attendance.EntryUpdate{{PersonID: "stu-1", Status: attendance.StatusPresent}},
  })

SEE ALSO:
  - kinds.go: Per-kind validation configuration
  - reconcile.go: Merge semantics
  - lifecycle.go: Draft/finalized state machine
  - stats.go, report.go: Derived read models
*/
package attendance

import "sort"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PersonID string
type RecordID string

// Kind discriminates the three attendance domains.
type Kind string

const (
	KindStudentClass Kind = "student_class"
	KindTeacher      Kind = "teacher"
	KindStaff        Kind = "staff"
)

// =============================================================================
// SCOPE KEY - Record identity beyond the calendar day
// =============================================================================

// ScopeKey identifies the population a record covers. ClassID is set only
// for KindStudentClass; teacher and staff records span the whole campus.
type ScopeKey struct {
	Tenant  string
	Campus  string
	Kind    Kind
	ClassID string
}

// Validate checks structural coherence of the key.
func (s ScopeKey) Validate() error {
	if s.Tenant == "" || s.Campus == "" {
		return &ValidationError{Field: "scope", Message: "tenant and campus are required"}
	}
	switch s.Kind {
	case KindStudentClass:
		if s.ClassID == "" {
			return &ValidationError{Field: "class_id", Message: "class_id is required for student_class records"}
		}
	case KindTeacher, KindStaff:
		if s.ClassID != "" {
			return &ValidationError{Field: "class_id", Message: "class_id is only valid for student_class records"}
		}
	default:
		return &ValidationError{Field: "kind", Message: "unknown kind: " + string(s.Kind)}
	}
	return nil
}

// String renders a stable composite key, usable as a map key or log field.
func (s ScopeKey) String() string {
	key := s.Tenant + "/" + s.Campus + "/" + string(s.Kind)
	if s.ClassID != "" {
		key += "/" + s.ClassID
	}
	return key
}

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusLate    Status = "LATE"
	StatusLeave   Status = "LEAVE"
	StatusHalfDay Status = "HALF_DAY" // staff only
)

// AllStatuses lists every status value, in reporting order.
func AllStatuses() []Status {
	return []Status{StatusPresent, StatusAbsent, StatusLate, StatusLeave, StatusHalfDay}
}

// =============================================================================
// SUBSTITUTE - Teacher-kind cover assignment
// =============================================================================

// Substitute records cover for an absent teacher. Assigned may be true only
// when the entry status is ABSENT; the Reconciler enforces this.
type Substitute struct {
	Assigned  bool
	TeacherID PersonID
}

// =============================================================================
// ENTRY - Marked status of one person within a record
// =============================================================================

type Entry struct {
	PersonID   PersonID
	Status     Status
	InTime     string // "15:04", teacher/staff kinds only
	OutTime    string
	Remarks    string
	Substitute *Substitute // teacher kind only
}

// EntryUpdate is the caller-side shape merged by the Reconciler. Nil optional
// fields mean "not provided", letting partial updates leave prior values alone.
type EntryUpdate struct {
	PersonID   PersonID
	Status     Status
	InTime     *string
	OutTime    *string
	Remarks    *string
	Substitute *Substitute
}

// =============================================================================
// RECORD - One per (ScopeKey, Day)
// =============================================================================

type Record struct {
	ID        RecordID
	Scope     ScopeKey
	Date      Day
	Finalized bool
	MarkedBy  string
	Entries   map[PersonID]Entry
}

// Clone returns a deep copy. The Reconciler mutates only clones so a failed
// merge can never leak into the stored record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Entries = make(map[PersonID]Entry, len(r.Entries))
	for id, e := range r.Entries {
		if e.Substitute != nil {
			sub := *e.Substitute
			e.Substitute = &sub
		}
		cp.Entries[id] = e
	}
	return &cp
}

// SortedEntries returns entries ordered by person ID for deterministic output.
func (r *Record) SortedEntries() []Entry {
	if r == nil {
		return nil
	}
	entries := make([]Entry, 0, len(r.Entries))
	for _, e := range r.Entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].PersonID < entries[j].PersonID })
	return entries
}

// =============================================================================
// ROSTER - Authoritative person set for a scope+day (read-only here)
// =============================================================================

// Roster is an ordered set of persons eligible to be marked. Membership is
// the basis for accepting entries; size is the basis for "not marked".
type Roster struct {
	Scope   ScopeKey
	Date    Day
	Persons []PersonID

	members map[PersonID]struct{}
}

// NewRoster builds a roster preserving the provider's order.
func NewRoster(scope ScopeKey, date Day, persons []PersonID) Roster {
	members := make(map[PersonID]struct{}, len(persons))
	for _, p := range persons {
		members[p] = struct{}{}
	}
	return Roster{Scope: scope, Date: date, Persons: persons, members: members}
}

// Contains reports roster membership.
func (r Roster) Contains(p PersonID) bool {
	if r.members != nil {
		_, ok := r.members[p]
		return ok
	}
	for _, m := range r.Persons {
		if m == p {
			return true
		}
	}
	return false
}

// Size returns the roster population.
func (r Roster) Size() int { return len(r.Persons) }
