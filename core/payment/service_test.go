package payment_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/payment"
	"github.com/trezcool/ecole/core/student"
	"github.com/trezcool/ecole/testutil"
)

type hookMock struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (h *hookMock) UnbanIfSettled(_ context.Context, studentID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, studentID)
	return h.err
}

func setup(t *testing.T, hook payment.SettlementHook) (payment.Ledger, testutil.Repos, *testutil.Logger) {
	repos := testutil.NewRepos(t)
	logger := new(testutil.Logger)
	return payment.NewLedger(repos.Payments, repos.Students, hook, logger), repos, logger
}

func TestLedger_CreateMonthlyRecord(t *testing.T) {
	ctx := context.Background()
	ledger, repos, _ := setup(t, nil)
	st := testutil.CreateStudent(t, repos.Students, "Amani", "Kabila", time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC))

	rec, err := ledger.CreateMonthlyRecord(ctx, payment.NewRecord{StudentID: st.ID, Month: "2024-01", AmountDue: 50000})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, payment.StatusUnpaid, rec.Status)
	assert.Equal(t, int64(50000), rec.AmountRemaining)
	assert.Empty(t, rec.Versements)

	t.Run("duplicate leaves the ledger unchanged", func(t *testing.T) {
		_, err := ledger.CreateMonthlyRecord(ctx, payment.NewRecord{StudentID: st.ID, Month: "2024-01", AmountDue: 70000, PaidSoFar: 70000})
		assert.Equal(t, payment.ErrDuplicateRecord, err)
		assert.True(t, core.IsDuplicateRecord(err))

		recs, err := ledger.ListRecords(ctx, st.ID)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, rec, recs[0])
	})

	t.Run("paid so far is derived", func(t *testing.T) {
		rec, err := ledger.CreateMonthlyRecord(ctx, payment.NewRecord{StudentID: st.ID, Month: "2024-02", AmountDue: 50000, PaidSoFar: 10000})
		require.NoError(t, err)
		assert.Equal(t, payment.StatusPartial, rec.Status)
		assert.Equal(t, int64(40000), rec.AmountRemaining)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := ledger.CreateMonthlyRecord(ctx, payment.NewRecord{StudentID: "nobody", Month: "2024-01", AmountDue: 50000})
		assert.Equal(t, student.ErrNotFound, errors.Cause(err))
	})

	t.Run("invalid input", func(t *testing.T) {
		for _, nr := range []payment.NewRecord{
			{StudentID: st.ID, Month: "2024-1", AmountDue: 50000},
			{StudentID: st.ID, Month: "", AmountDue: 50000},
			{StudentID: "  ", Month: "2024-03", AmountDue: 50000},
			{StudentID: st.ID, Month: "2024-03", AmountDue: -1},
		} {
			_, err := ledger.CreateMonthlyRecord(ctx, nr)
			assert.Error(t, err, "%+v", nr)
		}
	})
}

func TestLedger_RecordPayment(t *testing.T) {
	ctx := context.Background()
	hook := new(hookMock)
	ledger, repos, _ := setup(t, hook)
	st := testutil.CreateStudent(t, repos.Students, "Amani", "Kabila", time.Time{})

	rec, err := ledger.CreateMonthlyRecord(ctx, payment.NewRecord{StudentID: st.ID, Month: "2024-01", AmountDue: 50000})
	require.NoError(t, err)

	rec, err = ledger.RecordPayment(ctx, rec.ID, payment.NewVersement{Amount: 30000, Method: payment.MethodCash})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPartial, rec.Status)
	assert.Equal(t, int64(30000), rec.AmountPaid)
	assert.Equal(t, int64(20000), rec.AmountRemaining)
	assert.Len(t, rec.Versements, 1)
	assert.Empty(t, hook.calls, "no settlement yet")

	rec, err = ledger.RecordPayment(ctx, rec.ID, payment.NewVersement{Amount: 20000, Method: payment.MethodMobileMoney})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPaid, rec.Status)
	assert.Equal(t, int64(0), rec.AmountRemaining)
	require.Len(t, rec.Versements, 2)
	assert.Equal(t, int64(30000), rec.Versements[0].Amount)
	assert.Equal(t, []string{st.ID}, hook.calls)

	t.Run("overpaying a settled record does not settle it again", func(t *testing.T) {
		rec, err := ledger.RecordPayment(ctx, rec.ID, payment.NewVersement{Amount: 500, Method: payment.MethodCash})
		require.NoError(t, err)
		assert.Equal(t, payment.StatusPaid, rec.Status)
		assert.Equal(t, int64(50500), rec.AmountPaid)
		assert.Equal(t, []string{st.ID}, hook.calls)
	})

	t.Run("invalid amount", func(t *testing.T) {
		_, err := ledger.RecordPayment(ctx, rec.ID, payment.NewVersement{Amount: 0, Method: payment.MethodCash})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, payment.ErrInvalidAmount, vErr.Err)
	})

	t.Run("unknown record", func(t *testing.T) {
		_, err := ledger.RecordPayment(ctx, "nope", payment.NewVersement{Amount: 10, Method: payment.MethodCash})
		assert.Equal(t, payment.ErrNotFound, errors.Cause(err))
	})
}

func TestLedger_RecordPayment_concurrent(t *testing.T) {
	ctx := context.Background()
	hook := new(hookMock)
	ledger, repos, _ := setup(t, hook)
	st := testutil.CreateStudent(t, repos.Students, "Amani", "Kabila", time.Time{})

	const n = 200
	rec, err := ledger.CreateMonthlyRecord(ctx, payment.NewRecord{StudentID: st.ID, Month: "2024-01", AmountDue: n})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.RecordPayment(ctx, rec.ID, payment.NewVersement{Amount: 1, Method: payment.MethodCash})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := ledger.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), stored.AmountPaid)
	assert.Len(t, stored.Versements, n)
	assert.Equal(t, payment.StatusPaid, stored.Status)
	assert.Equal(t, []string{st.ID}, hook.calls, "settled exactly once")
}

func TestLedger_RecordPayment_hookFailure(t *testing.T) {
	ctx := context.Background()
	hook := &hookMock{err: errors.New("store down")}
	ledger, repos, logger := setup(t, hook)
	st := testutil.CreateStudent(t, repos.Students, "Amani", "Kabila", time.Time{})

	rec, err := ledger.CreateMonthlyRecord(ctx, payment.NewRecord{StudentID: st.ID, Month: "2024-01", AmountDue: 50000})
	require.NoError(t, err)

	rec, err = ledger.RecordPayment(ctx, rec.ID, payment.NewVersement{Amount: 50000, Method: payment.MethodTransfer})
	require.NoError(t, err, "the payment stands")
	assert.Equal(t, payment.StatusPaid, rec.Status)
	assert.Len(t, logger.Messages(), 1)

	stored, err := ledger.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPaid, stored.Status)
}

func TestLedger_HasOutstanding(t *testing.T) {
	ctx := context.Background()
	ledger, repos, _ := setup(t, nil)
	st := testutil.CreateStudent(t, repos.Students, "Amani", "Kabila", time.Time{})

	has, err := ledger.HasOutstanding(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, has)

	testutil.CreateRecord(t, repos.Payments, st.ID, "2024-01", 50000, 50000)
	has, err = ledger.HasOutstanding(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, has)

	testutil.CreateRecord(t, repos.Payments, st.ID, "2024-02", 50000, 100)
	has, err = ledger.HasOutstanding(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, has)

	t.Run("blank student id", func(t *testing.T) {
		for _, id := range []string{"", "   "} {
			_, err := ledger.HasOutstanding(ctx, id)
			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr), "%q", id)
			assert.Equal(t, payment.ErrBlankStudentID, vErr.Err)
		}
	})
}
