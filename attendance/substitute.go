/*
substitute.go - Substitute-teacher coherence rules

PURPOSE:
  Validates substitute cover assignments during reconciliation of teacher
  records. A substitute exists only to cover an absence, so every rule here
  ties the assignment back to an ABSENT status and the day's roster.

RULES:
  1. An explicit assignment on a non-ABSENT update is rejected.
  2. The substitute must belong to the same roster.
  3. A teacher cannot substitute for themselves.
  4. A status change away from ABSENT silently clears prior cover - the
     UI resets the substitute picker on status change, and the engine
     mirrors that rather than erroring.

SEE ALSO:
  - reconcile.go: Invokes this before committing an entry
*/
package attendance

// resolveSubstitute returns the substitute state the merged entry should
// carry, or an InvalidSubstituteError.
func resolveSubstitute(prior Entry, had bool, u EntryUpdate, roster Roster) (*Substitute, error) {
	if u.Substitute != nil {
		if !u.Substitute.Assigned {
			// Explicit unassignment, teacherID ignored.
			return nil, nil
		}
		if u.Status != StatusAbsent {
			return nil, &InvalidSubstituteError{
				PersonID:  u.PersonID,
				TeacherID: u.Substitute.TeacherID,
				Reason:    "substitute may only be assigned when status is ABSENT",
			}
		}
		if u.Substitute.TeacherID == "" {
			return nil, &InvalidSubstituteError{
				PersonID: u.PersonID,
				Reason:   "assigned substitute requires a teacher id",
			}
		}
		if u.Substitute.TeacherID == u.PersonID {
			return nil, &InvalidSubstituteError{
				PersonID:  u.PersonID,
				TeacherID: u.Substitute.TeacherID,
				Reason:    "a teacher cannot substitute for themselves",
			}
		}
		if !roster.Contains(u.Substitute.TeacherID) {
			return nil, &InvalidSubstituteError{
				PersonID:  u.PersonID,
				TeacherID: u.Substitute.TeacherID,
				Reason:    "substitute teacher is not in the roster",
			}
		}
		return &Substitute{Assigned: true, TeacherID: u.Substitute.TeacherID}, nil
	}

	// No substitute in the payload: prior cover survives only while the
	// entry stays ABSENT. Moving away from ABSENT clears it silently.
	if had && prior.Substitute != nil && prior.Substitute.Assigned && u.Status == StatusAbsent {
		keep := *prior.Substitute
		return &keep, nil
	}
	return nil, nil
}
