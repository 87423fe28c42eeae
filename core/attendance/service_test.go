package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core/attendance"
	"github.com/trezcool/ecole/core/student"
	"github.com/trezcool/ecole/testutil"
)

func newRollCall(sessionID, date string, entries ...attendance.NewEntry) attendance.NewRollCall {
	return attendance.NewRollCall{SessionID: sessionID, ClassID: "6A", Date: date, Entries: entries}
}

func present(studentID string) attendance.NewEntry {
	return attendance.NewEntry{StudentID: studentID, Status: attendance.StatusPresent}
}

func TestService_RecordRollCall(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(t)
	svc := attendance.NewService(repos.Attendance, repos.Students, repos.Payments, attendance.DefaultPolicy())

	now := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	testutil.MockNow(t, &attendance.NowFunc, now)

	st := testutil.CreateStudent(t, repos.Students, "Amani", "Kabila", now)
	testutil.CreateRecord(t, repos.Payments, st.ID, "2024-01", 50000, 0)

	wantStates := []attendance.StandingState{
		attendance.StandingTrial,
		attendance.StandingTrial,
		attendance.StandingSendHome,
	}
	for i, want := range wantStates {
		rc, err := svc.RecordRollCall(ctx, newRollCall(
			"sess-"+string(rune('1'+i)), "2024-01-1"+string(rune('5'+i)), present(st.ID),
		))
		require.NoError(t, err)
		require.Len(t, rc.Entries, 1)
		assert.Equal(t, want, rc.Entries[0].Standing.State, "session %d", i+1)
		assert.False(t, rc.Entries[0].Billable, "session %d", i+1)
		assert.Equal(t, now, rc.RecordedAt)
	}

	t.Run("resubmitting a roll-call is idempotent", func(t *testing.T) {
		first, err := svc.RecordRollCall(ctx, newRollCall("sess-3", "2024-01-17", present(st.ID)))
		require.NoError(t, err)
		second, err := svc.RecordRollCall(ctx, newRollCall("sess-3", "2024-01-17", present(st.ID)))
		require.NoError(t, err)
		assert.Equal(t, first.Entries, second.Entries)
		assert.Equal(t, attendance.StandingSendHome, second.Entries[0].Standing.State)

		entries, err := svc.ListEntries(ctx, st.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("resubmission replaces the entries", func(t *testing.T) {
		other := testutil.CreateStudent(t, repos.Students, "Bisimwa", "Lumbu", now)
		_, err := svc.RecordRollCall(ctx, newRollCall("sess-9", "2024-01-20", present(st.ID), present(other.ID)))
		require.NoError(t, err)
		rc, err := svc.RecordRollCall(ctx, newRollCall("sess-9", "2024-01-20", present(other.ID)))
		require.NoError(t, err)

		stored, err := svc.GetRollCall(ctx, "sess-9")
		require.NoError(t, err)
		assert.Equal(t, rc.Entries, stored.Entries)
		require.Len(t, stored.Entries, 1)
		assert.Equal(t, other.ID, stored.Entries[0].StudentID)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := svc.RecordRollCall(ctx, newRollCall("sess-x", "2024-01-20", present("nobody")))
		assert.Equal(t, student.ErrNotFound, errors.Cause(err))
		_, err = svc.GetRollCall(ctx, "sess-x")
		assert.Equal(t, attendance.ErrNotFound, errors.Cause(err))
	})
}

func TestService_RecordRollCall_outOfOrder(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(t)
	svc := attendance.NewService(repos.Attendance, repos.Students, repos.Payments, attendance.DefaultPolicy())

	st := testutil.CreateStudent(t, repos.Students, "Amani", "Kabila", time.Time{})
	testutil.CreateRecord(t, repos.Payments, st.ID, "2024-01", 50000, 50000)

	for _, rc := range []attendance.NewRollCall{
		newRollCall("s2", "2024-01-11", present(st.ID)),
		newRollCall("s3", "2024-01-12", present(st.ID)),
	} {
		_, err := svc.RecordRollCall(ctx, rc)
		require.NoError(t, err)
	}

	// entered late: the earliest session is still a trial one
	rc, err := svc.RecordRollCall(ctx, newRollCall("s1", "2024-01-10", present(st.ID)))
	require.NoError(t, err)
	assert.Equal(t, attendance.StandingTrial, rc.Entries[0].Standing.State)
	assert.False(t, rc.Entries[0].Billable)

	// a later session sees the three before it
	rc, err = svc.RecordRollCall(ctx, newRollCall("s4", "2024-01-13", present(st.ID)))
	require.NoError(t, err)
	assert.Equal(t, attendance.StandingAuthorized, rc.Entries[0].Standing.State)
	assert.True(t, rc.Entries[0].Billable)

	// resubmitting s2 keeps its standing although later sessions exist
	rc, err = svc.RecordRollCall(ctx, newRollCall("s2", "2024-01-11", present(st.ID)))
	require.NoError(t, err)
	assert.Equal(t, attendance.StandingTrial, rc.Entries[0].Standing.State)
}

func TestService_RecordRollCall_billable(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(t)
	svc := attendance.NewService(repos.Attendance, repos.Students, repos.Payments, attendance.DefaultPolicy())

	st := testutil.CreateStudent(t, repos.Students, "Amani", "Kabila", time.Time{})
	banned := testutil.CreateStudent(t, repos.Students, "Chance", "Mbuyi", time.Time{}, testutil.Banned("non-paiement", time.Now()))
	for _, id := range []string{st.ID, banned.ID} {
		testutil.CreateRecord(t, repos.Payments, id, "2024-01", 50000, 50000)
	}
	testutil.PutRollCall(t, repos.Attendance, "old-1", "2023-12-01",
		attendance.Entry{StudentID: st.ID, Status: attendance.StatusPresent},
		attendance.Entry{StudentID: banned.ID, Status: attendance.StatusPresent},
	)
	testutil.PutRollCall(t, repos.Attendance, "old-2", "2023-12-02",
		attendance.Entry{StudentID: st.ID, Status: attendance.StatusPresent},
		attendance.Entry{StudentID: banned.ID, Status: attendance.StatusPresent},
	)

	tests := []struct {
		name      string
		entry     attendance.NewEntry
		wantState attendance.StandingState
		billable  bool
	}{
		{name: "present", entry: present(st.ID), wantState: attendance.StandingAuthorized, billable: true},
		{name: "slightly late", entry: attendance.NewEntry{StudentID: st.ID, Status: attendance.StatusLate, MinutesLate: 10}, wantState: attendance.StandingAuthorized, billable: true},
		{name: "very late", entry: attendance.NewEntry{StudentID: st.ID, Status: attendance.StatusLate, MinutesLate: 20}, wantState: attendance.StandingAuthorized},
		{name: "absent", entry: attendance.NewEntry{StudentID: st.ID, Status: attendance.StatusAbsent}, wantState: attendance.StandingAuthorized},
		{name: "banned", entry: present(banned.ID), wantState: attendance.StandingBanned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := svc.RecordRollCall(ctx, newRollCall("today", "2024-01-10", tt.entry))
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, rc.Entries[0].Standing.State)
			assert.Equal(t, tt.billable, rc.Entries[0].Billable)
		})
	}

	standing, err := svc.Standing(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.StandingAuthorized, standing.State)
}
