/*
stats.go - Per-day statistics over a roster

PURPOSE:
  Derives per-status counts and the "not marked" count for one record and
  its roster. Returned with every read so the UI never recomputes totals.

INVARIANT:
  Total == NotMarked + sum of Counts over all statuses, always. Counts are
  taken over roster members only; a stale entry for someone who left the
  roster contributes to nothing.
*/
package attendance

// Statistics summarizes one record against its roster.
type Statistics struct {
	Total     int
	Counts    map[Status]int
	NotMarked int
}

// Count returns the count for a status (0 when absent from the map).
func (s Statistics) Count(status Status) int { return s.Counts[status] }

// Marked returns how many roster members have an entry.
func (s Statistics) Marked() int { return s.Total - s.NotMarked }

// ComputeStatistics derives statistics for a record and roster. A nil record
// (nothing marked yet for the scope+day) yields all-zero counts with
// NotMarked == Total.
func ComputeStatistics(rec *Record, roster Roster) Statistics {
	stats := Statistics{
		Total:  roster.Size(),
		Counts: make(map[Status]int),
	}

	marked := 0
	if rec != nil {
		for _, p := range roster.Persons {
			entry, ok := rec.Entries[p]
			if !ok {
				continue
			}
			stats.Counts[entry.Status]++
			marked++
		}
	}

	stats.NotMarked = stats.Total - marked
	return stats
}
