/*
reconcile.go - Roster reconciliation for attendance records

PURPOSE:
  Merges a batch of per-person status updates into a record without
  discarding unmentioned existing entries. This is the single write path
  for entries across all three kinds.

MERGE SEMANTICS:
  - Partial update: persons present in the record but omitted from the
    batch keep their prior entry unchanged.
  - Leave unmarked: roster members omitted from both the batch and the
    record get NO entry; the statistics calculator counts them as
    "not marked". Nothing defaults to PRESENT.
  - Atomic batch: ANY invalid update (unknown person, bad status,
    incoherent substitute) rejects the whole batch. Nothing is persisted
    from a rejected batch; the stored record is untouched.
  - Duplicate person IDs within one batch: the last update wins.

FINALIZATION GUARD:
  Reconciling onto a finalized record fails wholesale with
  ErrRecordFinalized before any update is examined.

PURITY:
  Reconcile never mutates its inputs. It works on a clone and returns the
  merged record; persisting it is the caller's concern (service.go).

SEE ALSO:
  - substitute.go: Teacher-kind substitute coherence rules
  - kinds.go: Per-kind status and field validation
*/
package attendance

// Reconciler merges entry updates for one record kind.
type Reconciler struct {
	Config KindConfig
}

// NewReconciler returns a reconciler for the given kind configuration.
func NewReconciler(cfg KindConfig) *Reconciler {
	return &Reconciler{Config: cfg}
}

// Reconcile merges incoming updates against the roster and the existing
// record (nil when no record exists yet for the scope+day) and returns the
// resulting record. The returned record is a new value; existing is never
// mutated.
func (r *Reconciler) Reconcile(existing *Record, roster Roster, incoming []EntryUpdate) (*Record, error) {
	if existing != nil && existing.Finalized {
		return nil, ErrRecordFinalized
	}

	var rec *Record
	if existing == nil {
		rec = &Record{
			Scope:   roster.Scope,
			Date:    roster.Date,
			Entries: make(map[PersonID]Entry, len(incoming)),
		}
	} else {
		rec = existing.Clone()
	}

	for _, u := range incoming {
		entry, err := r.applyUpdate(rec, roster, u)
		if err != nil {
			return nil, err
		}
		rec.Entries[u.PersonID] = entry
	}

	return rec, nil
}

// applyUpdate validates one update and produces the resulting entry,
// carrying over prior optional fields the update does not mention.
func (r *Reconciler) applyUpdate(rec *Record, roster Roster, u EntryUpdate) (Entry, error) {
	if u.PersonID == "" {
		return Entry{}, &ValidationError{Field: "person_id", Message: "person_id is required"}
	}
	if !roster.Contains(u.PersonID) {
		return Entry{}, &UnknownPersonError{PersonID: u.PersonID, Scope: roster.Scope}
	}
	if !r.Config.ValidStatus(u.Status) {
		return Entry{}, &InvalidStatusError{PersonID: u.PersonID, Status: u.Status, Kind: r.Config.Kind}
	}

	prior, had := rec.Entries[u.PersonID]
	entry := Entry{PersonID: u.PersonID, Status: u.Status}
	if had {
		entry.InTime = prior.InTime
		entry.OutTime = prior.OutTime
		entry.Remarks = prior.Remarks
	}

	if r.Config.TracksTime {
		if u.InTime != nil {
			entry.InTime = *u.InTime
		}
		if u.OutTime != nil {
			entry.OutTime = *u.OutTime
		}
	} else {
		// In/out times are not meaningful for this kind; drop silently.
		entry.InTime = ""
		entry.OutTime = ""
	}

	if u.Remarks != nil {
		entry.Remarks = *u.Remarks
	}

	if r.Config.AllowsSubstitute {
		sub, err := resolveSubstitute(prior, had, u, roster)
		if err != nil {
			return Entry{}, err
		}
		entry.Substitute = sub
	} else if u.Substitute != nil && u.Substitute.Assigned {
		return Entry{}, &InvalidSubstituteError{
			PersonID: u.PersonID,
			Reason:   "substitutes are only supported for teacher records",
		}
	}

	return entry, nil
}
