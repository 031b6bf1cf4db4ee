/*
report.go - Per-person date-range reports

PURPOSE:
  Walks every calendar day in [from, to] for one person, resolves that
  day's entry (if any) from whichever record contains it, and produces a
  per-day timeline plus range-level statistics.

HISTORICAL SCOPE RESOLUTION:
  For student reports the class on each day comes from the record that
  holds the entry, never from the student's current class. Moving a
  student between classes must not rewrite their history.

UNMARKED DAYS:
  Days with no entry are omitted from the timeline and counted in
  NotMarked. The range statistics always cover every calendar day.

PERCENTAGE POLICY:
  AttendancePercentage = present days / TOTAL days (not marked days),
  rendered with two decimals ("33.33"). Unmarked days therefore weigh as
  effectively absent. Compatibility requires this denominator; do not
  "fix" it to marked days.

DETERMINISM:
  Pure function of stored records: identical inputs with no intervening
  writes yield identical output, byte for byte.
*/
package attendance

import (
	"context"

	"github.com/shopspring/decimal"
)

// DayEntry is one marked day in a person's timeline.
type DayEntry struct {
	Date  Day
	Scope ScopeKey
	Entry Entry
}

// RangeStatistics summarizes a report range.
type RangeStatistics struct {
	TotalDays            int
	MarkedDays           int
	NotMarked            int
	Counts               map[Status]int
	AttendancePercentage string
}

// Report is the aggregator output for one person and range.
type Report struct {
	PersonID   PersonID
	Kind       Kind
	From       Day
	To         Day
	Entries    []DayEntry
	Statistics RangeStatistics
}

// Aggregator builds per-person reports from stored records.
type Aggregator struct {
	Store RecordStore
}

// BuildReport walks [from, to] inclusive in ascending date order.
func (a *Aggregator) BuildReport(ctx context.Context, kind Kind, person PersonID, from, to Day) (*Report, error) {
	if _, err := ConfigFor(kind); err != nil {
		return nil, err
	}
	if person == "" {
		return nil, &ValidationError{Field: "person_id", Message: "person_id is required"}
	}
	if to.Before(from) {
		return nil, &ValidationError{Field: "to", Message: "range end precedes range start"}
	}

	days, err := a.Store.FindPersonEntries(ctx, kind, person, from, to)
	if err != nil {
		return nil, err
	}

	// One entry per day. A person should only ever appear in one record per
	// day; if bad data produces more, the lowest scope key wins so output
	// stays deterministic.
	byDay := make(map[string]PersonDay, len(days))
	for _, pd := range days {
		key := pd.Date.String()
		if existing, ok := byDay[key]; ok && existing.Scope.String() <= pd.Scope.String() {
			continue
		}
		byDay[key] = pd
	}

	report := &Report{
		PersonID: person,
		Kind:     kind,
		From:     from,
		To:       to,
		Statistics: RangeStatistics{
			TotalDays: DaysBetween(from, to),
			Counts:    make(map[Status]int),
		},
	}

	for day := from; day.BeforeOrEqual(to); day = day.AddDays(1) {
		pd, ok := byDay[day.String()]
		if !ok {
			continue
		}
		report.Entries = append(report.Entries, DayEntry{Date: pd.Date, Scope: pd.Scope, Entry: pd.Entry})
		report.Statistics.Counts[pd.Entry.Status]++
		report.Statistics.MarkedDays++
	}

	report.Statistics.NotMarked = report.Statistics.TotalDays - report.Statistics.MarkedDays
	report.Statistics.AttendancePercentage = attendancePercentage(
		report.Statistics.Counts[StatusPresent], report.Statistics.TotalDays)

	return report, nil
}

// attendancePercentage renders present/total as a two-decimal percentage
// string. decimal keeps 1/3-style ranges exact at two places.
func attendancePercentage(present, totalDays int) string {
	if totalDays == 0 {
		return "0.00"
	}
	return decimal.NewFromInt(int64(present) * 100).
		Div(decimal.NewFromInt(int64(totalDays))).
		StringFixed(2)
}
