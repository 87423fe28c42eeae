package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/payment"
	"github.com/trezcool/ecole/core/student"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = core.NewNotFoundError("roll-call")
)

type (
	Repository interface {
		// PutRollCall replaces the whole roll-call of rc.SessionID.
		PutRollCall(ctx context.Context, rc RollCall) error
		GetRollCall(ctx context.Context, sessionID string) (RollCall, error)
		// ListEntries returns the entries of a student, or every entry when studentID is empty.
		ListEntries(ctx context.Context, studentID string) ([]SessionEntry, error)
	}

	Service interface {
		RecordRollCall(ctx context.Context, nr NewRollCall) (RollCall, error)
		GetRollCall(ctx context.Context, sessionID string) (RollCall, error)
		ListEntries(ctx context.Context, studentID string) ([]SessionEntry, error)
		Standing(ctx context.Context, studentID string) (Standing, error)
	}

	service struct {
		repo     Repository
		students student.Repository
		payments payment.Repository
		policy   Policy
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, students student.Repository, payments payment.Repository, policy Policy) Service {
	return &service{
		repo:     repo,
		students: students,
		payments: payments,
		policy:   policy.withDefaults(),
	}
}

// RecordRollCall validates then upserts the roll-call as a whole.
// Each entry gets the standing of its student, computed from the sessions held before this one,
// so submitting the same roll-call again yields the same result.
// Closing the roll-call once the session is over is up to the caller.
func (svc *service) RecordRollCall(ctx context.Context, nr NewRollCall) (RollCall, error) {
	if err := nr.Validate(svc.policy); err != nil {
		return RollCall{}, err
	}

	rc := RollCall{
		SessionID:  nr.SessionID,
		ClassID:    nr.ClassID,
		Date:       nr.Date,
		Entries:    make([]Entry, 0, len(nr.Entries)),
		RecordedAt: NowFunc().UTC(),
	}
	for _, ne := range nr.Entries {
		standing, err := svc.standing(ctx, ne.StudentID, nr.Date, nr.SessionID)
		if err != nil {
			return RollCall{}, err
		}
		rc.Entries = append(rc.Entries, Entry{
			StudentID:   ne.StudentID,
			Status:      ne.Status,
			MinutesLate: ne.MinutesLate,
			Billable:    standing.Billable && svc.policy.IsBillable(ne.Status, ne.MinutesLate),
			Standing:    standing,
		})
	}

	if err := svc.repo.PutRollCall(ctx, rc); err != nil {
		return RollCall{}, errors.Wrap(err, "putting roll-call")
	}
	return rc, nil
}

func (svc *service) GetRollCall(ctx context.Context, sessionID string) (RollCall, error) {
	return svc.repo.GetRollCall(ctx, core.CleanString(sessionID))
}

func (svc *service) ListEntries(ctx context.Context, studentID string) ([]SessionEntry, error) {
	return svc.repo.ListEntries(ctx, core.CleanString(studentID))
}

// Standing returns the current standing of a student, as shown at the front desk.
func (svc *service) Standing(ctx context.Context, studentID string) (Standing, error) {
	return svc.standing(ctx, core.CleanString(studentID), "", "")
}

func (svc *service) standing(ctx context.Context, studentID, date, sessionID string) (Standing, error) {
	st, err := svc.students.GetStudent(ctx, studentID)
	if err != nil {
		return Standing{}, errors.Wrap(err, "getting student")
	}
	entries, err := svc.repo.ListEntries(ctx, studentID)
	if err != nil {
		return Standing{}, errors.Wrap(err, "listing attendance entries")
	}
	recs, err := svc.payments.ListRecords(ctx, studentID)
	if err != nil {
		return Standing{}, errors.Wrap(err, "listing payment records")
	}
	return svc.policy.ComputeStanding(st, CountPresent(entries, date, sessionID), payment.HasOutstanding(recs)), nil
}
