package attendance

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/student"
)

func TestIsBillable(t *testing.T) {
	tests := []struct {
		status      Status
		minutesLate int
		want        bool
	}{
		{StatusPresent, 0, true},
		{StatusAbsent, 0, false},
		{StatusLate, 1, true},
		{StatusLate, 10, true},
		{StatusLate, 14, true},
		{StatusLate, 15, false},
		{StatusLate, 20, false},
		{"inconnu", 0, false},
	}
	for _, tt := range tests {
		if got := IsBillable(tt.status, tt.minutesLate); got != tt.want {
			t.Errorf("IsBillable(%q, %d) = %v; want %v", tt.status, tt.minutesLate, got, tt.want)
		}
	}

	p := Policy{BillableLateCutoff: 30}.withDefaults()
	assert.True(t, p.IsBillable(StatusLate, 20))
	assert.Equal(t, DefaultTrialSessions, p.TrialSessions)
}

func TestComputeStanding(t *testing.T) {
	active := student.Student{ID: "s1"}
	banned := student.Student{ID: "s2", Ban: &student.Ban{Reason: "non-paiement", Date: time.Now()}}

	tests := []struct {
		name        string
		st          student.Student
		present     int
		outstanding bool
		want        StandingState
		billable    bool
	}{
		{name: "ban wins over trial", st: banned, present: 0, outstanding: true, want: StandingBanned},
		{name: "ban wins over authorized", st: banned, present: 5, outstanding: false, want: StandingBanned},
		{name: "first session", st: active, present: 0, outstanding: true, want: StandingTrial},
		{name: "second session", st: active, present: 1, outstanding: true, want: StandingTrial},
		{name: "owes money", st: active, present: 2, outstanding: true, want: StandingSendHome},
		{name: "authorized", st: active, present: 2, outstanding: false, want: StandingAuthorized, billable: true},
		{name: "regular", st: active, present: 40, outstanding: false, want: StandingAuthorized, billable: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStanding(tt.st, tt.present, tt.outstanding)
			assert.Equal(t, tt.want, got.State)
			assert.Equal(t, tt.billable, got.Billable)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestCountPresent(t *testing.T) {
	entries := []SessionEntry{
		{SessionID: "a", Date: "2024-01-10", Entry: Entry{Status: StatusPresent}},
		{SessionID: "b", Date: "2024-01-10", Entry: Entry{Status: StatusLate, MinutesLate: 5}},
		{SessionID: "c", Date: "2024-01-11", Entry: Entry{Status: StatusAbsent}},
		{SessionID: "d", Date: "2024-01-12", Entry: Entry{Status: StatusPresent}},
		{SessionID: "e", Date: "2024-01-12", Entry: Entry{Status: StatusPresent}},
	}

	tests := []struct {
		name      string
		date      string
		sessionID string
		want      int
	}{
		{name: "every session", want: 3},
		{name: "first session", date: "2024-01-10", sessionID: "a", want: 0},
		{name: "same day, later id", date: "2024-01-10", sessionID: "b", want: 1},
		{name: "own entry excluded", date: "2024-01-12", sessionID: "d", want: 1},
		{name: "same day, earlier id", date: "2024-01-12", sessionID: "e", want: 2},
		{name: "sessions after are ignored", date: "2024-01-09", sessionID: "z", want: 0},
		{name: "later day", date: "2024-02-01", sessionID: "a", want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountPresent(entries, tt.date, tt.sessionID))
		})
	}
	assert.Equal(t, 0, CountPresent(nil, "", ""))
}

func TestNewRollCall_Validate(t *testing.T) {
	valid := func() NewRollCall {
		return NewRollCall{
			SessionID: " sess-1 ",
			ClassID:   "6A",
			Date:      "2024-01-15",
			Entries: []NewEntry{
				{StudentID: "s1", Status: "PRESENT", MinutesLate: 7},
				{StudentID: "s2", Status: StatusLate, MinutesLate: 20},
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		nr := valid()
		require.NoError(t, nr.Validate(DefaultPolicy()))
		assert.Equal(t, "sess-1", nr.SessionID)
		assert.Equal(t, StatusPresent, nr.Entries[0].Status)
		assert.Equal(t, 0, nr.Entries[0].MinutesLate, "minutes_late only applies to late arrivals")
	})

	tests := []struct {
		name   string
		modify func(nr *NewRollCall)
		field  string
	}{
		{name: "duplicate student", modify: func(nr *NewRollCall) { nr.Entries[1].StudentID = "s1" }, field: "entries[1].student_id"},
		{name: "late without minutes", modify: func(nr *NewRollCall) { nr.Entries[1].MinutesLate = 0 }, field: "entries[1].minutes_late"},
		{name: "late too long", modify: func(nr *NewRollCall) { nr.Entries[1].MinutesLate = 121 }, field: "entries[1].minutes_late"},
		{name: "bad date", modify: func(nr *NewRollCall) { nr.Date = "15/01/2024" }},
		{name: "bad status", modify: func(nr *NewRollCall) { nr.Entries[0].Status = "malade" }},
		{name: "no entries", modify: func(nr *NewRollCall) { nr.Entries = nil }},
		{name: "blank session", modify: func(nr *NewRollCall) { nr.SessionID = "   " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nr := valid()
			tt.modify(&nr)
			err := nr.Validate(DefaultPolicy())
			require.Error(t, err)
			if tt.field == "" {
				return
			}
			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr))
			require.NotEmpty(t, vErr.Fields)
			assert.Equal(t, tt.field, vErr.Fields[0].Field)
		})
	}
}
