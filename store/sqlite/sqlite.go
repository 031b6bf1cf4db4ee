/*
Package sqlite provides a SQLite-backed implementation of the attendance
storage interfaces.

PURPOSE:
  Implements attendance.RecordStore, attendance.RosterProvider, and
  attendance.CapabilityChecker using SQLite. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  attendance_records: One row per (scope, date); lifecycle flag lives here
  attendance_entries: Per-person marks, replaced wholesale on save
  persons:            Roster membership per tenant/campus/kind(/class)
  users:              Actors and their role (capability source)

UNIQUENESS:
  idx_records_scope_date is a UNIQUE index over the full scope key plus
  date. Concurrent first writes race on it; the loser gets
  attendance.ErrDuplicateRecord and the service merges onto the winner.

NO PARTIAL WRITES:
  Save runs in a single SQL transaction: record row upsert plus wholesale
  entry replacement. A failed save rolls back to the prior record state.

CONCURRENCY:
  Uses sync.RWMutex to serialize writes within the process; the unique
  index is the cross-process backstop. SQLite is opened in WAL mode so
  readers do not block.

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - attendance/store.go: Interface definitions
  - attendance/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/attendance-engine/attendance"
)

// Store implements the attendance storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Attendance records: one per (scope, date)
	CREATE TABLE IF NOT EXISTS attendance_records (
		id TEXT PRIMARY KEY,
		tenant TEXT NOT NULL,
		campus TEXT NOT NULL,
		kind TEXT NOT NULL,
		class_id TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		finalized INTEGER NOT NULL DEFAULT 0,
		marked_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- CRITICAL: at most one record per scope per day, even under
	-- concurrent first writes
	CREATE UNIQUE INDEX IF NOT EXISTS idx_records_scope_date
		ON attendance_records(tenant, campus, kind, class_id, date);

	CREATE INDEX IF NOT EXISTS idx_records_kind_date
		ON attendance_records(kind, date);

	-- Entries: person marks within a record
	CREATE TABLE IF NOT EXISTS attendance_entries (
		record_id TEXT NOT NULL REFERENCES attendance_records(id),
		person_id TEXT NOT NULL,
		status TEXT NOT NULL,
		in_time TEXT NOT NULL DEFAULT '',
		out_time TEXT NOT NULL DEFAULT '',
		remarks TEXT NOT NULL DEFAULT '',
		substitute_assigned INTEGER NOT NULL DEFAULT 0,
		substitute_teacher_id TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (record_id, person_id)
	);

	CREATE INDEX IF NOT EXISTS idx_entries_person
		ON attendance_entries(person_id);

	-- Persons: roster membership
	CREATE TABLE IF NOT EXISTS persons (
		id TEXT PRIMARY KEY,
		tenant TEXT NOT NULL,
		campus TEXT NOT NULL,
		kind TEXT NOT NULL,
		class_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_persons_scope
		ON persons(tenant, campus, kind, class_id);

	-- Users: actors and their role
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD STORE (attendance.RecordStore interface)
// =============================================================================

// Get returns the record for (scope, date), or nil when none exists.
func (s *Store) Get(ctx context.Context, scope attendance.ScopeKey, date attendance.Day) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant, campus, kind, class_id, date, finalized, marked_by
		FROM attendance_records
		WHERE tenant = ? AND campus = ? AND kind = ? AND class_id = ? AND date = ?`,
		scope.Tenant, scope.Campus, scope.Kind, scope.ClassID, date.String())

	rec, err := s.scanRecord(ctx, row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// GetByID returns a record by ID.
func (s *Store) GetByID(ctx context.Context, id attendance.RecordID) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant, campus, kind, class_id, date, finalized, marked_by
		FROM attendance_records
		WHERE id = ?`, id)

	rec, err := s.scanRecord(ctx, row)
	if err == sql.ErrNoRows {
		return nil, attendance.ErrRecordNotFound
	}
	return rec, err
}

func (s *Store) scanRecord(ctx context.Context, row *sql.Row) (*attendance.Record, error) {
	var (
		rec       attendance.Record
		dateStr   string
		finalized int
	)
	err := row.Scan(&rec.ID, &rec.Scope.Tenant, &rec.Scope.Campus, &rec.Scope.Kind,
		&rec.Scope.ClassID, &dateStr, &finalized, &rec.MarkedBy)
	if err != nil {
		return nil, err
	}

	rec.Date, err = attendance.ParseDay(dateStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt record date %q: %w", dateStr, err)
	}
	rec.Finalized = finalized != 0

	rec.Entries, err = s.loadEntries(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) loadEntries(ctx context.Context, id attendance.RecordID) (map[attendance.PersonID]attendance.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, status, in_time, out_time, remarks,
		       substitute_assigned, substitute_teacher_id
		FROM attendance_entries
		WHERE record_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[attendance.PersonID]attendance.Entry)
	for rows.Next() {
		var (
			e            attendance.Entry
			subAssigned  int
			subTeacherID string
		)
		if err := rows.Scan(&e.PersonID, &e.Status, &e.InTime, &e.OutTime, &e.Remarks,
			&subAssigned, &subTeacherID); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if subAssigned != 0 {
			e.Substitute = &attendance.Substitute{Assigned: true, TeacherID: attendance.PersonID(subTeacherID)}
		}
		entries[e.PersonID] = e
	}
	return entries, rows.Err()
}

// Save upserts the record and replaces its entries wholesale, atomically.
func (s *Store) Save(ctx context.Context, rec *attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM attendance_records
		WHERE tenant = ? AND campus = ? AND kind = ? AND class_id = ? AND date = ?`,
		rec.Scope.Tenant, rec.Scope.Campus, rec.Scope.Kind, rec.Scope.ClassID, rec.Date.String(),
	).Scan(&existingID)

	now := time.Now().UTC().Format(time.RFC3339)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO attendance_records
			(id, tenant, campus, kind, class_id, date, finalized, marked_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Scope.Tenant, rec.Scope.Campus, rec.Scope.Kind, rec.Scope.ClassID,
			rec.Date.String(), boolToInt(rec.Finalized), rec.MarkedBy, now, now)
		if err != nil {
			if isUniqueConstraintError(err) {
				return attendance.ErrDuplicateRecord
			}
			return fmt.Errorf("failed to insert record: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to check record existence: %w", err)
	case existingID != string(rec.ID):
		return attendance.ErrDuplicateRecord
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE attendance_records
			SET finalized = ?, marked_by = ?, updated_at = ?
			WHERE id = ?`,
			boolToInt(rec.Finalized), rec.MarkedBy, now, rec.ID)
		if err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_entries WHERE record_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	for _, e := range rec.SortedEntries() {
		subAssigned, subTeacherID := 0, ""
		if e.Substitute != nil && e.Substitute.Assigned {
			subAssigned = 1
			subTeacherID = string(e.Substitute.TeacherID)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_entries
			(record_id, person_id, status, in_time, out_time, remarks,
			 substitute_assigned, substitute_teacher_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, e.PersonID, e.Status, e.InTime, e.OutTime, e.Remarks,
			subAssigned, subTeacherID)
		if err != nil {
			return fmt.Errorf("failed to insert entry for %s: %w", e.PersonID, err)
		}
	}

	return tx.Commit()
}

// SetFinalized flips the lifecycle flag.
func (s *Store) SetFinalized(ctx context.Context, id attendance.RecordID, finalized bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE attendance_records SET finalized = ?, updated_at = ? WHERE id = ?`,
		boolToInt(finalized), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to set finalized: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return attendance.ErrRecordNotFound
	}
	return nil
}

// FindPersonEntries returns every entry for a person of the given kind in
// [from, to], with the scope of the containing record.
func (s *Store) FindPersonEntries(ctx context.Context, kind attendance.Kind, person attendance.PersonID, from, to attendance.Day) ([]attendance.PersonDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.tenant, r.campus, r.kind, r.class_id, r.date,
		       e.person_id, e.status, e.in_time, e.out_time, e.remarks,
		       e.substitute_assigned, e.substitute_teacher_id
		FROM attendance_entries e
		JOIN attendance_records r ON r.id = e.record_id
		WHERE r.kind = ? AND e.person_id = ? AND r.date >= ? AND r.date <= ?
		ORDER BY r.date ASC`,
		kind, person, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query person entries: %w", err)
	}
	defer rows.Close()

	var result []attendance.PersonDay
	for rows.Next() {
		var (
			pd           attendance.PersonDay
			dateStr      string
			subAssigned  int
			subTeacherID string
		)
		err := rows.Scan(&pd.Scope.Tenant, &pd.Scope.Campus, &pd.Scope.Kind, &pd.Scope.ClassID,
			&dateStr, &pd.Entry.PersonID, &pd.Entry.Status, &pd.Entry.InTime, &pd.Entry.OutTime,
			&pd.Entry.Remarks, &subAssigned, &subTeacherID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person entry: %w", err)
		}
		pd.Date, err = attendance.ParseDay(dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt record date %q: %w", dateStr, err)
		}
		if subAssigned != 0 {
			pd.Entry.Substitute = &attendance.Substitute{Assigned: true, TeacherID: attendance.PersonID(subTeacherID)}
		}
		result = append(result, pd)
	}
	return result, rows.Err()
}

// =============================================================================
// ROSTER PROVIDER (attendance.RosterProvider interface)
// =============================================================================

// Person is a roster member record.
type Person struct {
	ID      string
	Tenant  string
	Campus  string
	Kind    attendance.Kind
	ClassID string
	Name    string
	Active  bool
}

// SavePerson upserts a roster member.
func (s *Store) SavePerson(ctx context.Context, p Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persons (id, tenant, campus, kind, class_id, name, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant = excluded.tenant, campus = excluded.campus, kind = excluded.kind,
			class_id = excluded.class_id, name = excluded.name, active = excluded.active`,
		p.ID, p.Tenant, p.Campus, p.Kind, p.ClassID, p.Name, boolToInt(p.Active))
	if err != nil {
		return fmt.Errorf("failed to save person: %w", err)
	}
	return nil
}

// ListRoster returns active persons for the scope, ordered by name then ID.
func (s *Store) ListRoster(ctx context.Context, scope attendance.ScopeKey, date attendance.Day) (attendance.Roster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM persons
		WHERE tenant = ? AND campus = ? AND kind = ? AND class_id = ? AND active = 1
		ORDER BY name ASC, id ASC`,
		scope.Tenant, scope.Campus, scope.Kind, scope.ClassID)
	if err != nil {
		return attendance.Roster{}, fmt.Errorf("failed to query roster: %w", err)
	}
	defer rows.Close()

	var persons []attendance.PersonID
	for rows.Next() {
		var id attendance.PersonID
		if err := rows.Scan(&id); err != nil {
			return attendance.Roster{}, fmt.Errorf("failed to scan roster member: %w", err)
		}
		persons = append(persons, id)
	}
	if err := rows.Err(); err != nil {
		return attendance.Roster{}, err
	}

	return attendance.NewRoster(scope, date, persons), nil
}

// =============================================================================
// CAPABILITY CHECKER (attendance.CapabilityChecker interface)
// =============================================================================

// User is an actor with a role.
type User struct {
	ID   string
	Name string
	Role string
}

// Roles. Only admin and owner hold finalize/reopen capabilities.
const (
	RoleAdmin   = "admin"
	RoleOwner   = "owner"
	RoleTeacher = "teacher"
	RoleStaff   = "staff"
)

// SaveUser upserts an actor.
func (s *Store) SaveUser(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, role) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, role = excluded.role`,
		u.ID, u.Name, u.Role)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// HasCapability grants finalize/reopen to admin and owner roles only.
// Unknown actors hold no capabilities.
func (s *Store) HasCapability(ctx context.Context, actor string, capability attendance.Capability) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var role string
	err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id = ?`, actor).Scan(&role)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up actor role: %w", err)
	}

	switch capability {
	case attendance.CapabilityFinalize, attendance.CapabilityReopen:
		return role == RoleAdmin || role == RoleOwner, nil
	default:
		return false, nil
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var (
	_ attendance.RecordStore       = (*Store)(nil)
	_ attendance.RosterProvider    = (*Store)(nil)
	_ attendance.CapabilityChecker = (*Store)(nil)
)
