package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core/payment"
	"github.com/trezcool/ecole/core/student"
)

func TestStudentRepository_PutStudentBan(t *testing.T) {
	ctx := context.Background()
	db, err := Open()
	require.NoError(t, err)
	repo := NewStudentRepository(db)

	st, err := repo.CreateStudent(ctx, student.Student{ID: "s1", FirstName: "Amani", LastName: "Kabila"})
	require.NoError(t, err)

	ban := &student.Ban{Reason: "non-paiement avant le 10", Date: time.Now().UTC()}
	require.NoError(t, repo.PutStudentBan(ctx, st.ID, ban))
	ban.Reason = "changed"

	got, err := repo.GetStudent(ctx, st.ID)
	require.NoError(t, err)
	require.True(t, got.IsBanned())
	assert.Equal(t, "non-paiement avant le 10", got.Ban.Reason, "the stored ban is a copy")

	got.Ban.Reason = "changed again"
	again, err := repo.GetStudent(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "non-paiement avant le 10", again.Ban.Reason)

	require.NoError(t, repo.PutStudentBan(ctx, st.ID, nil))
	got, err = repo.GetStudent(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBanned())

	assert.Equal(t, student.ErrNotFound, repo.PutStudentBan(ctx, "nobody", nil))
}

func TestPaymentRepository(t *testing.T) {
	ctx := context.Background()
	db, err := Open()
	require.NoError(t, err)
	repo := NewPaymentRepository(db)

	_, err = repo.CreateRecord(ctx, payment.Record{ID: "r2", StudentID: "s1", Month: "2024-02"})
	require.NoError(t, err)
	_, err = repo.CreateRecord(ctx, payment.Record{ID: "r1", StudentID: "s1", Month: "2024-01"})
	require.NoError(t, err)
	_, err = repo.CreateRecord(ctx, payment.Record{ID: "r3", StudentID: "s2", Month: "2024-01"})
	require.NoError(t, err)

	_, err = repo.CreateRecord(ctx, payment.Record{ID: "r4", StudentID: "s1", Month: "2024-01"})
	assert.Equal(t, payment.ErrDuplicateRecord, err)

	rec, err := repo.GetRecordByMonth(ctx, "s1", "2024-02")
	require.NoError(t, err)
	assert.Equal(t, "r2", rec.ID)
	_, err = repo.GetRecordByMonth(ctx, "s1", "2024-03")
	assert.Equal(t, payment.ErrNotFound, err)

	recs, err := repo.ListRecords(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, payment.Month("2024-01"), recs[0].Month)

	all, err := repo.ListRecords(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	t.Run("update", func(t *testing.T) {
		rec, err := repo.UpdateRecord(ctx, "r1", func(rec *payment.Record) error {
			rec.AmountPaid = 100
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, int64(100), rec.AmountPaid)

		_, err = repo.UpdateRecord(ctx, "r1", func(rec *payment.Record) error {
			rec.AmountPaid = 999
			return errors.New("rejected")
		})
		assert.EqualError(t, err, "rejected")
		stored, err := repo.GetRecord(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, int64(100), stored.AmountPaid, "nothing saved on error")

		_, err = repo.UpdateRecord(ctx, "nope", func(*payment.Record) error { return nil })
		assert.Equal(t, payment.ErrNotFound, err)
	})
}
