package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/attendance/store"
)

// seedDay stores a single-entry student record for the given class and day.
func seedDay(t *testing.T, recs *store.Memory, classID string, day attendance.Day, person attendance.PersonID, status attendance.Status) {
	t.Helper()

	scope := attendance.ScopeKey{
		Tenant:  "greenfield",
		Campus:  "main",
		Kind:    attendance.KindStudentClass,
		ClassID: classID,
	}
	rec := &attendance.Record{
		ID:    attendance.RecordID("rec-" + classID + "-" + day.String()),
		Scope: scope,
		Date:  day,
		Entries: map[attendance.PersonID]attendance.Entry{
			person: {PersonID: person, Status: status},
		},
	}
	require.NoError(t, recs.Save(context.Background(), rec))
}

func TestBuildReport_PercentageOverTotalDays(t *testing.T) {
	// GIVEN: A three-day range with one PRESENT day and two unmarked days
	// WHEN: Building the report
	// THEN: The percentage divides by all three days, yielding "33.33"

	recs := store.NewMemory()
	from := attendance.NewDay(2024, time.March, 4)
	seedDay(t, recs, "class-5a", from, "stu-1", attendance.StatusPresent)

	agg := &attendance.Aggregator{Store: recs}
	report, err := agg.BuildReport(context.Background(), attendance.KindStudentClass, "stu-1", from, from.AddDays(2))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Statistics.TotalDays)
	assert.Equal(t, 1, report.Statistics.MarkedDays)
	assert.Equal(t, 2, report.Statistics.NotMarked)
	assert.Equal(t, "33.33", report.Statistics.AttendancePercentage)
}

func TestBuildReport_UnmarkedDaysOmittedFromTimeline(t *testing.T) {
	// GIVEN: A five-day range with entries on day 1 and day 4
	// WHEN: Building the report
	// THEN: The timeline holds exactly those two days, in ascending order

	recs := store.NewMemory()
	from := attendance.NewDay(2024, time.March, 4)
	seedDay(t, recs, "class-5a", from.AddDays(3), "stu-1", attendance.StatusLate)
	seedDay(t, recs, "class-5a", from, "stu-1", attendance.StatusPresent)

	agg := &attendance.Aggregator{Store: recs}
	report, err := agg.BuildReport(context.Background(), attendance.KindStudentClass, "stu-1", from, from.AddDays(4))
	require.NoError(t, err)

	require.Len(t, report.Entries, 2)
	assert.Equal(t, from, report.Entries[0].Date)
	assert.Equal(t, attendance.StatusPresent, report.Entries[0].Entry.Status)
	assert.Equal(t, from.AddDays(3), report.Entries[1].Date)
	assert.Equal(t, attendance.StatusLate, report.Entries[1].Entry.Status)

	assert.Equal(t, 5, report.Statistics.TotalDays)
	assert.Equal(t, 3, report.Statistics.NotMarked)
	assert.Equal(t, 1, report.Statistics.Counts[attendance.StatusPresent])
	assert.Equal(t, 1, report.Statistics.Counts[attendance.StatusLate])
}

func TestBuildReport_EmptyRange(t *testing.T) {
	// GIVEN: No records at all
	// WHEN: Building a report over a week
	// THEN: Empty timeline, zero percentage, every day not marked

	agg := &attendance.Aggregator{Store: store.NewMemory()}
	from := attendance.NewDay(2024, time.March, 4)

	report, err := agg.BuildReport(context.Background(), attendance.KindStudentClass, "stu-1", from, from.AddDays(6))
	require.NoError(t, err)

	assert.Empty(t, report.Entries)
	assert.Equal(t, 7, report.Statistics.TotalDays)
	assert.Equal(t, 7, report.Statistics.NotMarked)
	assert.Equal(t, "0.00", report.Statistics.AttendancePercentage)
}

func TestBuildReport_HistoricalClassPreserved(t *testing.T) {
	// GIVEN: A student marked in class-5a, then moved and marked in class-6b
	// WHEN: Building a report spanning the move
	// THEN: Each day reports the class whose record holds the entry

	recs := store.NewMemory()
	from := attendance.NewDay(2024, time.September, 2)
	seedDay(t, recs, "class-5a", from, "stu-1", attendance.StatusPresent)
	seedDay(t, recs, "class-6b", from.AddDays(1), "stu-1", attendance.StatusPresent)

	agg := &attendance.Aggregator{Store: recs}
	report, err := agg.BuildReport(context.Background(), attendance.KindStudentClass, "stu-1", from, from.AddDays(1))
	require.NoError(t, err)

	require.Len(t, report.Entries, 2)
	assert.Equal(t, "class-5a", report.Entries[0].Scope.ClassID)
	assert.Equal(t, "class-6b", report.Entries[1].Scope.ClassID)
	assert.Equal(t, "100.00", report.Statistics.AttendancePercentage)
}

func TestBuildReport_SingleDayRange(t *testing.T) {
	recs := store.NewMemory()
	day := attendance.NewDay(2024, time.March, 4)
	seedDay(t, recs, "class-5a", day, "stu-1", attendance.StatusPresent)

	agg := &attendance.Aggregator{Store: recs}
	report, err := agg.BuildReport(context.Background(), attendance.KindStudentClass, "stu-1", day, day)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Statistics.TotalDays)
	assert.Equal(t, "100.00", report.Statistics.AttendancePercentage)
}

func TestBuildReport_InvalidInputs(t *testing.T) {
	agg := &attendance.Aggregator{Store: store.NewMemory()}
	ctx := context.Background()
	day := attendance.NewDay(2024, time.March, 4)

	_, err := agg.BuildReport(ctx, "visitor", "stu-1", day, day)
	assert.True(t, attendance.IsValidation(err), "unknown kind")

	_, err = agg.BuildReport(ctx, attendance.KindStudentClass, "", day, day)
	assert.True(t, attendance.IsValidation(err), "missing person")

	_, err = agg.BuildReport(ctx, attendance.KindStudentClass, "stu-1", day, day.AddDays(-1))
	assert.True(t, attendance.IsValidation(err), "inverted range")
}

func TestBuildReport_Deterministic(t *testing.T) {
	// Identical inputs with no intervening writes yield identical reports.
	recs := store.NewMemory()
	from := attendance.NewDay(2024, time.March, 4)
	seedDay(t, recs, "class-5a", from, "stu-1", attendance.StatusPresent)
	seedDay(t, recs, "class-5a", from.AddDays(2), "stu-1", attendance.StatusAbsent)

	agg := &attendance.Aggregator{Store: recs}
	first, err := agg.BuildReport(context.Background(), attendance.KindStudentClass, "stu-1", from, from.AddDays(4))
	require.NoError(t, err)
	second, err := agg.BuildReport(context.Background(), attendance.KindStudentClass, "stu-1", from, from.AddDays(4))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
