package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testScope() attendance.ScopeKey {
	return attendance.ScopeKey{
		Tenant:  "greenfield",
		Campus:  "main",
		Kind:    attendance.KindTeacher,
	}
}

func testRecord(id attendance.RecordID, date attendance.Day) *attendance.Record {
	return &attendance.Record{
		ID:       id,
		Scope:    testScope(),
		Date:     date,
		MarkedBy: "usr-admin",
		Entries: map[attendance.PersonID]attendance.Entry{
			"tch-1": {
				PersonID: "tch-1",
				Status:   attendance.StatusAbsent,
				Remarks:  "sick leave",
				Substitute: &attendance.Substitute{
					Assigned:  true,
					TeacherID: "tch-2",
				},
			},
			"tch-2": {
				PersonID: "tch-2",
				Status:   attendance.StatusPresent,
				InTime:   "07:45",
				OutTime:  "16:05",
			},
		},
	}
}

// =============================================================================
// RECORD STORE
// =============================================================================

func TestStore_SaveAndGet_Roundtrip(t *testing.T) {
	// GIVEN: A teacher record with times, remarks, and substitute cover
	// WHEN: Saving and reading it back by scope+date and by ID
	// THEN: Every field survives

	store := newTestStore(t)
	ctx := context.Background()
	day := attendance.NewDay(2024, time.January, 10)

	rec := testRecord("rec-1", day)
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, testScope(), day)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Scope, got.Scope)
	assert.Equal(t, day, got.Date)
	assert.Equal(t, "usr-admin", got.MarkedBy)
	assert.False(t, got.Finalized)
	require.Len(t, got.Entries, 2)

	absent := got.Entries["tch-1"]
	assert.Equal(t, attendance.StatusAbsent, absent.Status)
	assert.Equal(t, "sick leave", absent.Remarks)
	require.NotNil(t, absent.Substitute)
	assert.Equal(t, attendance.PersonID("tch-2"), absent.Substitute.TeacherID)

	present := got.Entries["tch-2"]
	assert.Equal(t, "07:45", present.InTime)
	assert.Equal(t, "16:05", present.OutTime)
	assert.Nil(t, present.Substitute)

	byID, err := store.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, got, byID)
}

func TestStore_Get_MissingRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, err := store.Get(ctx, testScope(), attendance.NewDay(2024, time.January, 10))
	require.NoError(t, err)
	assert.Nil(t, rec, "missing (scope, date) is nil, not an error")

	_, err = store.GetByID(ctx, "rec-missing")
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestStore_Save_ReplacesEntriesWholesale(t *testing.T) {
	// GIVEN: A saved record with two entries
	// WHEN: Saving the same record with a single different entry set
	// THEN: Only the new entries remain

	store := newTestStore(t)
	ctx := context.Background()
	day := attendance.NewDay(2024, time.January, 10)

	rec := testRecord("rec-1", day)
	require.NoError(t, store.Save(ctx, rec))

	rec.Entries = map[attendance.PersonID]attendance.Entry{
		"tch-1": {PersonID: "tch-1", Status: attendance.StatusPresent, InTime: "08:10"},
	}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, testScope(), day)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, attendance.StatusPresent, got.Entries["tch-1"].Status)
	assert.Nil(t, got.Entries["tch-1"].Substitute, "old substitute row does not linger")
}

func TestStore_Save_SecondRecordSameScopeDate(t *testing.T) {
	// GIVEN: A record occupying (scope, date)
	// WHEN: Saving a different record ID for the same slot
	// THEN: ErrDuplicateRecord; the original survives untouched

	store := newTestStore(t)
	ctx := context.Background()
	day := attendance.NewDay(2024, time.January, 10)

	require.NoError(t, store.Save(ctx, testRecord("rec-1", day)))

	err := store.Save(ctx, testRecord("rec-2", day))
	assert.ErrorIs(t, err, attendance.ErrDuplicateRecord)

	got, err := store.Get(ctx, testScope(), day)
	require.NoError(t, err)
	assert.Equal(t, attendance.RecordID("rec-1"), got.ID)
}

func TestStore_SetFinalized(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := attendance.NewDay(2024, time.January, 10)

	require.NoError(t, store.Save(ctx, testRecord("rec-1", day)))

	require.NoError(t, store.SetFinalized(ctx, "rec-1", true))
	got, err := store.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.True(t, got.Finalized)

	require.NoError(t, store.SetFinalized(ctx, "rec-1", false))
	got, err = store.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.False(t, got.Finalized)

	err = store.SetFinalized(ctx, "rec-missing", true)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestStore_FindPersonEntries_FiltersKindAndRange(t *testing.T) {
	// GIVEN: Teacher records across four days plus a staff record for the
	//        same person ID
	// WHEN: Querying the teacher kind over the middle two days
	// THEN: Only the matching rows come back, ascending by date

	store := newTestStore(t)
	ctx := context.Background()
	base := attendance.NewDay(2024, time.February, 5)

	for i := 0; i < 4; i++ {
		rec := &attendance.Record{
			ID:    attendance.RecordID("rec-teach-" + base.AddDays(i).String()),
			Scope: testScope(),
			Date:  base.AddDays(i),
			Entries: map[attendance.PersonID]attendance.Entry{
				"tch-1": {PersonID: "tch-1", Status: attendance.StatusPresent},
			},
		}
		require.NoError(t, store.Save(ctx, rec))
	}

	staffRec := &attendance.Record{
		ID: "rec-staff-1",
		Scope: attendance.ScopeKey{
			Tenant: "greenfield", Campus: "main", Kind: attendance.KindStaff,
		},
		Date: base.AddDays(1),
		Entries: map[attendance.PersonID]attendance.Entry{
			"tch-1": {PersonID: "tch-1", Status: attendance.StatusAbsent},
		},
	}
	require.NoError(t, store.Save(ctx, staffRec))

	days, err := store.FindPersonEntries(ctx, attendance.KindTeacher, "tch-1", base.AddDays(1), base.AddDays(2))
	require.NoError(t, err)

	require.Len(t, days, 2)
	assert.Equal(t, base.AddDays(1), days[0].Date)
	assert.Equal(t, base.AddDays(2), days[1].Date)
	for _, pd := range days {
		assert.Equal(t, attendance.KindTeacher, pd.Scope.Kind)
		assert.Equal(t, attendance.StatusPresent, pd.Entry.Status)
	}
}

// =============================================================================
// ROSTER PROVIDER
// =============================================================================

func TestStore_ListRoster_OrderAndActiveFilter(t *testing.T) {
	// GIVEN: Persons in two classes, one inactive
	// WHEN: Listing one class roster
	// THEN: Only active members of that class, ordered by name

	store := newTestStore(t)
	ctx := context.Background()

	persons := []Person{
		{ID: "stu-3", Tenant: "greenfield", Campus: "main", Kind: attendance.KindStudentClass, ClassID: "class-5a", Name: "Zoe", Active: true},
		{ID: "stu-1", Tenant: "greenfield", Campus: "main", Kind: attendance.KindStudentClass, ClassID: "class-5a", Name: "Amir", Active: true},
		{ID: "stu-2", Tenant: "greenfield", Campus: "main", Kind: attendance.KindStudentClass, ClassID: "class-5a", Name: "Mia", Active: false},
		{ID: "stu-9", Tenant: "greenfield", Campus: "main", Kind: attendance.KindStudentClass, ClassID: "class-6b", Name: "Ben", Active: true},
	}
	for _, p := range persons {
		require.NoError(t, store.SavePerson(ctx, p))
	}

	scope := attendance.ScopeKey{
		Tenant: "greenfield", Campus: "main",
		Kind: attendance.KindStudentClass, ClassID: "class-5a",
	}
	roster, err := store.ListRoster(ctx, scope, attendance.NewDay(2024, time.January, 10))
	require.NoError(t, err)

	assert.Equal(t, []attendance.PersonID{"stu-1", "stu-3"}, roster.Persons)
	assert.True(t, roster.Contains("stu-1"))
	assert.False(t, roster.Contains("stu-2"), "inactive members are not markable")
}

func TestStore_SavePerson_Upsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := Person{ID: "stu-1", Tenant: "greenfield", Campus: "main", Kind: attendance.KindStudentClass, ClassID: "class-5a", Name: "Amir", Active: true}
	require.NoError(t, store.SavePerson(ctx, p))

	// Student moves classes.
	p.ClassID = "class-6b"
	require.NoError(t, store.SavePerson(ctx, p))

	oldScope := attendance.ScopeKey{Tenant: "greenfield", Campus: "main", Kind: attendance.KindStudentClass, ClassID: "class-5a"}
	newScope := attendance.ScopeKey{Tenant: "greenfield", Campus: "main", Kind: attendance.KindStudentClass, ClassID: "class-6b"}
	day := attendance.NewDay(2024, time.January, 10)

	oldRoster, err := store.ListRoster(ctx, oldScope, day)
	require.NoError(t, err)
	assert.Equal(t, 0, oldRoster.Size())

	newRoster, err := store.ListRoster(ctx, newScope, day)
	require.NoError(t, err)
	assert.Equal(t, 1, newRoster.Size())
}

// =============================================================================
// CAPABILITY CHECKER
// =============================================================================

func TestStore_HasCapability_Roles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	users := []User{
		{ID: "usr-admin", Name: "Admin", Role: RoleAdmin},
		{ID: "usr-owner", Name: "Owner", Role: RoleOwner},
		{ID: "tch-1", Name: "Teacher", Role: RoleTeacher},
	}
	for _, u := range users {
		require.NoError(t, store.SaveUser(ctx, u))
	}

	cases := []struct {
		actor string
		want  bool
	}{
		{"usr-admin", true},
		{"usr-owner", true},
		{"tch-1", false},
		{"usr-stranger", false},
	}
	for _, tc := range cases {
		for _, capability := range []attendance.Capability{attendance.CapabilityFinalize, attendance.CapabilityReopen} {
			got, err := store.HasCapability(ctx, tc.actor, capability)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got, "actor %s capability %s", tc.actor, capability)
		}
	}
}

// =============================================================================
// SEED
// =============================================================================

func TestStore_Seed_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx))
	require.NoError(t, store.Seed(ctx))

	classScope := attendance.ScopeKey{
		Tenant: "greenfield", Campus: "main",
		Kind: attendance.KindStudentClass, ClassID: "class-5a",
	}
	roster, err := store.ListRoster(ctx, classScope, attendance.NewDay(2024, time.January, 10))
	require.NoError(t, err)
	assert.Equal(t, 4, roster.Size())

	ok, err := store.HasCapability(ctx, "usr-admin", attendance.CapabilityFinalize)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.HasCapability(ctx, "tch-farah", attendance.CapabilityFinalize)
	require.NoError(t, err)
	assert.False(t, ok)
}
