package sqlxrepos

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecole/core/attendance"
	"github.com/trezcool/ecole/core/discipline"
	"github.com/trezcool/ecole/core/payment"
	"github.com/trezcool/ecole/core/student"
)

var (
	created = time.Date(2023, 9, 1, 8, 0, 0, 0, time.UTC)
	updated = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
)

func TestStudentRow(t *testing.T) {
	ban, err := student.NewBan("non-paiement avant le 10", updated)
	require.NoError(t, err)

	tests := []struct {
		name string
		st   student.Student
	}{
		{
			name: "full",
			st: student.Student{
				ID:         "s1",
				FirstName:  "Amani",
				LastName:   "Kabila",
				Sex:        student.SexFemale,
				ClassID:    "6A",
				Guardians:  []student.Guardian{{Name: "Jeanne Kabila", Phone: "+243810000000", Relationship: "mere"}},
				Status:     student.StatusActive,
				EnrolledAt: created,
				Ban:        ban,
				CreatedAt:  created,
				UpdatedAt:  updated,
			},
		},
		{
			name: "not enrolled nor banned",
			st: student.Student{
				ID:        "s2",
				FirstName: "Bisimwa",
				Sex:       student.SexMale,
				Guardians: []student.Guardian{},
				Status:    student.StatusInactive,
				FeeExempt: true,
				CreatedAt: created,
				UpdatedAt: created,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := newStudentRow(tt.st)
			require.NoError(t, err)
			assert.Equal(t, tt.st.IsBanned(), row.BanReason.Valid)
			assert.Equal(t, tt.st.IsBanned(), row.BanDate.Valid)
			assert.Equal(t, !tt.st.EnrolledAt.IsZero(), row.EnrolledAt.Valid)

			got, err := row.toStudent()
			require.NoError(t, err)
			assert.Equal(t, tt.st, got)
		})
	}

	t.Run("nil guardians are stored as a list", func(t *testing.T) {
		row, err := newStudentRow(student.Student{ID: "s3"})
		require.NoError(t, err)
		assert.Equal(t, types.JSONText(`[]`), row.Guardians)
	})

	t.Run("half-set ban columns are rejected", func(t *testing.T) {
		for _, row := range []studentRow{
			{ID: "s4", BanReason: null.StringFrom("non-paiement")},
			{ID: "s5", BanDate: null.TimeFrom(updated)},
		} {
			_, err := row.toStudent()
			assert.Error(t, err, row.ID)
		}
	})
}

func TestPaymentRow(t *testing.T) {
	rec := payment.Record{
		ID:              "r1",
		StudentID:       "s1",
		Month:           "2024-01",
		AmountDue:       50000,
		AmountPaid:      30000,
		AmountRemaining: 20000,
		Status:          payment.StatusPartial,
		Versements: []payment.Versement{
			{Amount: 10000, Method: payment.MethodCash, PaidAt: created},
			{Amount: 20000, Method: payment.MethodMobileMoney, PaidAt: updated},
		},
		CreatedAt: created,
		UpdatedAt: updated,
	}
	row, err := newPaymentRow(rec)
	require.NoError(t, err)
	assert.Equal(t, "2024-01", row.Month)
	assert.Equal(t, "partiel", row.Status)

	got, err := row.toRecord()
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	t.Run("no versements", func(t *testing.T) {
		row, err := newPaymentRow(payment.Record{ID: "r2"})
		require.NoError(t, err)
		assert.Equal(t, types.JSONText(`[]`), row.Versements)
		got, err := row.toRecord()
		require.NoError(t, err)
		assert.NotNil(t, got.Versements)
		assert.Empty(t, got.Versements)
	})

	t.Run("corrupt versements", func(t *testing.T) {
		_, err := paymentRow{ID: "r3", Versements: types.JSONText(`{`)}.toRecord()
		assert.Error(t, err)
	})
}

func TestEntryRow(t *testing.T) {
	row := entryRow{
		SessionID:   "sess-1",
		ClassID:     "6A",
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		StudentID:   "s1",
		Status:      string(attendance.StatusLate),
		MinutesLate: 10,
		Billable:    true,
		Standing:    types.JSONText(`{"state":"autorise","billable":true,"message":"Autorisé"}`),
	}
	se, err := row.toSessionEntry()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", se.Date)
	assert.Equal(t, attendance.StatusLate, se.Status)
	assert.Equal(t, 10, se.MinutesLate)
	assert.Equal(t, attendance.StandingAuthorized, se.Standing.State)
	assert.True(t, se.Standing.Billable)
}

func TestDisciplineRow(t *testing.T) {
	row := disciplineRow{
		ID:          "d1",
		StudentID:   "s1",
		Type:        string(discipline.TypeBan),
		Description: "non-paiement avant le 10",
		Motif:       optString("non-paiement"),
		Sanction:    optString(""),
		IsSystem:    true,
		CreatedAt:   updated,
	}
	assert.False(t, row.Sanction.Valid)

	rec := row.toRecord()
	assert.Equal(t, discipline.TypeBan, rec.Type)
	assert.Equal(t, "non-paiement", rec.Motif)
	assert.Empty(t, rec.Sanction)
	assert.True(t, rec.IsSystem)
	assert.Equal(t, updated, rec.CreatedAt)
}
