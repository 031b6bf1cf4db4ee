/*
service.go - Attendance operations over the store and collaborators

PURPOSE:
  Orchestrates one attendance operation per call: roster lookup, record
  load, reconciliation, persistence, statistics. Stateless between calls -
  the record store is the only shared mutable resource.

WRITE PATH:
  Mark/Update load the current record, reconcile the batch onto a clone,
  and save the whole result. A lost first-write race (another caller
  created the record for the same scope+day first) surfaces as
  ErrDuplicateRecord from the store; the service reloads the winner and
  merges onto it once. Either the whole batch becomes visible or the
  prior record state is unchanged.

SEE ALSO:
  - lifecycle.go: Finalize/Reopen transitions
  - report.go: The separate historical read path
*/
package attendance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service exposes the attendance operations. All fields are required except
// Log, which defaults to a no-op logger.
type Service struct {
	Store   RecordStore
	Rosters RosterProvider
	Auth    CapabilityChecker
	Log     zerolog.Logger
}

// NewService wires a service from its collaborators.
func NewService(store RecordStore, rosters RosterProvider, auth CapabilityChecker, log zerolog.Logger) *Service {
	return &Service{Store: store, Rosters: rosters, Auth: auth, Log: log}
}

// MarkInput is a create-or-merge request addressed by scope and date.
type MarkInput struct {
	Scope   ScopeKey
	Date    Day
	Actor   string
	Updates []EntryUpdate
}

// Get returns the record (nil when nothing is marked yet) and its statistics.
func (s *Service) Get(ctx context.Context, scope ScopeKey, date Day) (*Record, Statistics, error) {
	if err := scope.Validate(); err != nil {
		return nil, Statistics{}, err
	}

	roster, err := s.Rosters.ListRoster(ctx, scope, date)
	if err != nil {
		return nil, Statistics{}, fmt.Errorf("roster lookup failed: %w", err)
	}

	rec, err := s.Store.Get(ctx, scope, date)
	if err != nil {
		return nil, Statistics{}, err
	}

	return rec, ComputeStatistics(rec, roster), nil
}

// Roster returns the authoritative person list for a scope+day.
func (s *Service) Roster(ctx context.Context, scope ScopeKey, date Day) (Roster, error) {
	if err := scope.Validate(); err != nil {
		return Roster{}, err
	}
	roster, err := s.Rosters.ListRoster(ctx, scope, date)
	if err != nil {
		return Roster{}, fmt.Errorf("roster lookup failed: %w", err)
	}
	return roster, nil
}

// Mark merges a batch of updates into the record for (scope, date), creating
// the record in DRAFT state when none exists.
func (s *Service) Mark(ctx context.Context, in MarkInput) (*Record, Statistics, error) {
	if err := in.Scope.Validate(); err != nil {
		return nil, Statistics{}, err
	}
	cfg, err := ConfigFor(in.Scope.Kind)
	if err != nil {
		return nil, Statistics{}, err
	}

	roster, err := s.Rosters.ListRoster(ctx, in.Scope, in.Date)
	if err != nil {
		return nil, Statistics{}, fmt.Errorf("roster lookup failed: %w", err)
	}

	reconciler := NewReconciler(cfg)

	// Two attempts: the retry covers losing a concurrent first-write race,
	// in which case we merge onto the record that won.
	for attempt := 0; ; attempt++ {
		existing, err := s.Store.Get(ctx, in.Scope, in.Date)
		if err != nil {
			return nil, Statistics{}, err
		}

		rec, err := reconciler.Reconcile(existing, roster, in.Updates)
		if err != nil {
			return nil, Statistics{}, err
		}
		if existing == nil {
			rec.ID = RecordID(uuid.NewString())
		}
		rec.MarkedBy = in.Actor

		err = s.Store.Save(ctx, rec)
		if errors.Is(err, ErrDuplicateRecord) && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, Statistics{}, err
		}

		s.Log.Info().
			Str("scope", in.Scope.String()).
			Str("date", in.Date.String()).
			Str("actor", in.Actor).
			Int("updates", len(in.Updates)).
			Bool("created", existing == nil).
			Msg("attendance marked")

		return rec, ComputeStatistics(rec, roster), nil
	}
}

// Update merges a batch of updates into an explicitly addressed record.
func (s *Service) Update(ctx context.Context, id RecordID, actor string, updates []EntryUpdate) (*Record, Statistics, error) {
	rec, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, Statistics{}, err
	}

	cfg, err := ConfigFor(rec.Scope.Kind)
	if err != nil {
		return nil, Statistics{}, err
	}

	roster, err := s.Rosters.ListRoster(ctx, rec.Scope, rec.Date)
	if err != nil {
		return nil, Statistics{}, fmt.Errorf("roster lookup failed: %w", err)
	}

	merged, err := NewReconciler(cfg).Reconcile(rec, roster, updates)
	if err != nil {
		return nil, Statistics{}, err
	}
	merged.MarkedBy = actor

	if err := s.Store.Save(ctx, merged); err != nil {
		return nil, Statistics{}, err
	}

	s.Log.Info().
		Str("record_id", string(id)).
		Str("actor", actor).
		Int("updates", len(updates)).
		Msg("attendance updated")

	return merged, ComputeStatistics(merged, roster), nil
}

// Report builds the historical per-person view.
func (s *Service) Report(ctx context.Context, kind Kind, person PersonID, from, to Day) (*Report, error) {
	agg := &Aggregator{Store: s.Store}
	return agg.BuildReport(ctx, kind, person, from, to)
}
