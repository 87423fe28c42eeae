package discipline_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/discipline"
	"github.com/trezcool/ecole/core/student"
	"github.com/trezcool/ecole/testutil"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(t)
	svc := discipline.NewService(repos.Discipline, repos.Students)
	st := testutil.CreateStudent(t, repos.Students, "Amani", "Kabila", time.Time{})

	day := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	testutil.MockNow(t, &discipline.NowFunc, day)
	warning, err := svc.Create(ctx, discipline.NewRecord{
		StudentID:   st.ID,
		Type:        "Avertissement",
		Description: "  Bavardage en classe ",
		Motif:       "comportement",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, warning.ID)
	assert.Equal(t, discipline.TypeWarning, warning.Type)
	assert.Equal(t, "Bavardage en classe", warning.Description)
	assert.False(t, warning.IsSystem)
	assert.Equal(t, day, warning.CreatedAt)

	testutil.MockNow(t, &discipline.NowFunc, day.Add(time.Hour))
	ban, err := svc.System(ctx, st.ID, discipline.TypeBan, "non-paiement avant le 10", "non-paiement", "suspendu")
	require.NoError(t, err)
	assert.True(t, ban.IsSystem)

	recs, err := svc.List(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, ban.ID, recs[0].ID, "newest first")
	assert.Equal(t, warning.ID, recs[1].ID)

	t.Run("system records cannot be deleted", func(t *testing.T) {
		err := svc.Delete(ctx, ban.ID)
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, discipline.ErrSystemRecord, vErr.Err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, warning.ID))
		recs, err := svc.List(ctx, st.ID)
		require.NoError(t, err)
		assert.Len(t, recs, 1)

		err = svc.Delete(ctx, warning.ID)
		assert.Equal(t, discipline.ErrNotFound, errors.Cause(err))
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []discipline.NewRecord{
			{StudentID: st.ID, Type: "punition", Description: "x"},
			{StudentID: st.ID, Type: discipline.TypeLate, Description: "   "},
			{StudentID: "", Type: discipline.TypeLate, Description: "x"},
		}
		for _, nr := range tests {
			_, err := svc.Create(ctx, nr)
			assert.Error(t, err, "%+v", nr)
		}

		_, err := svc.Create(ctx, discipline.NewRecord{StudentID: "nobody", Type: discipline.TypeLate, Description: "x"})
		assert.Equal(t, student.ErrNotFound, errors.Cause(err))
	})
}
