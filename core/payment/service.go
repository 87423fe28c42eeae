package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/student"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound        = core.NewNotFoundError("payment record")
	ErrDuplicateRecord = core.NewDuplicateRecordError("a payment record already exists for this student and month")
	ErrBlankStudentID  = errors.New("student id is required")
)

type (
	Repository interface {
		// CreateRecord returns ErrDuplicateRecord if the (student, month) pair is taken.
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		GetRecord(ctx context.Context, id string) (Record, error)
		GetRecordByMonth(ctx context.Context, studentID string, month Month) (Record, error)
		// ListRecords returns the records of a student, or all records when studentID is empty.
		ListRecords(ctx context.Context, studentID string) ([]Record, error)
		// UpdateRecord applies fn to the stored record and saves the result as one atomic step.
		// Nothing is saved when fn fails.
		UpdateRecord(ctx context.Context, id string, fn func(rec *Record) error) (Record, error)
	}

	// SettlementHook is notified once a payment brings a record to StatusPaid.
	SettlementHook interface {
		UnbanIfSettled(ctx context.Context, studentID string) error
	}

	Ledger interface {
		CreateMonthlyRecord(ctx context.Context, nr NewRecord) (Record, error)
		RecordPayment(ctx context.Context, recordID string, nv NewVersement) (Record, error)
		GetRecord(ctx context.Context, id string) (Record, error)
		ListRecords(ctx context.Context, studentID string) ([]Record, error)
		HasOutstanding(ctx context.Context, studentID string) (bool, error)
	}

	ledger struct {
		repo     Repository
		students student.Repository
		hook     SettlementHook
		logger   core.Logger
	}
)

var _ Ledger = (*ledger)(nil)

// NewLedger returns the payment ledger. hook may be nil.
func NewLedger(repo Repository, students student.Repository, hook SettlementHook, logger core.Logger) Ledger {
	return &ledger{
		repo:     repo,
		students: students,
		hook:     hook,
		logger:   logger,
	}
}

func (l *ledger) CreateMonthlyRecord(ctx context.Context, nr NewRecord) (Record, error) {
	if err := nr.Validate(); err != nil {
		return Record{}, err
	}
	if _, err := l.students.GetStudent(ctx, nr.StudentID); err != nil {
		return Record{}, errors.Wrap(err, "getting student")
	}

	// guard against double-billing; the repository enforces it as well
	if _, err := l.repo.GetRecordByMonth(ctx, nr.StudentID, nr.Month); err == nil {
		return Record{}, ErrDuplicateRecord
	} else if errors.Cause(err) != ErrNotFound {
		return Record{}, errors.Wrap(err, "checking existing record")
	}

	now := NowFunc().UTC()
	rec := Record{
		ID:         uuid.New().String(),
		StudentID:  nr.StudentID,
		Month:      nr.Month,
		AmountDue:  nr.AmountDue,
		AmountPaid: nr.PaidSoFar,
		Versements: []Versement{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	rec.setBalance()

	rec, err := l.repo.CreateRecord(ctx, rec)
	if err != nil {
		if errors.Cause(err) == ErrDuplicateRecord {
			return Record{}, ErrDuplicateRecord
		}
		return Record{}, errors.Wrap(err, "creating payment record")
	}
	return rec, nil
}

func (l *ledger) RecordPayment(ctx context.Context, recordID string, nv NewVersement) (Record, error) {
	if err := nv.Validate(); err != nil {
		return Record{}, err
	}

	now := NowFunc().UTC()
	paidAt := nv.PaidAt.UTC()
	if nv.PaidAt.IsZero() {
		paidAt = now
	}

	var settled bool
	rec, err := l.repo.UpdateRecord(ctx, core.CleanString(recordID), func(rec *Record) error {
		wasSettled := rec.IsSettled()
		rec.addVersement(Versement{Amount: nv.Amount, Method: nv.Method, PaidAt: paidAt})
		rec.UpdatedAt = now
		settled = !wasSettled && rec.IsSettled()
		return nil
	})
	if err != nil {
		return Record{}, errors.Wrap(err, "updating payment record")
	}

	if settled && l.hook != nil {
		// the payment is committed; a failed unban is reported, not rolled back
		if err := l.hook.UnbanIfSettled(ctx, rec.StudentID); err != nil {
			l.logger.Error(fmt.Sprintf("unbanning settled student %s: %v", rec.StudentID, err), err)
		}
	}
	return rec, nil
}

func (l *ledger) GetRecord(ctx context.Context, id string) (Record, error) {
	return l.repo.GetRecord(ctx, core.CleanString(id))
}

func (l *ledger) ListRecords(ctx context.Context, studentID string) ([]Record, error) {
	return l.repo.ListRecords(ctx, core.CleanString(studentID))
}

// HasOutstanding reports whether any record of the student is not paid.
func (l *ledger) HasOutstanding(ctx context.Context, studentID string) (bool, error) {
	studentID = core.CleanString(studentID)
	if studentID == "" {
		return false, core.NewValidationError(ErrBlankStudentID, core.FieldError{Field: "student_id", Error: ErrBlankStudentID.Error()})
	}
	recs, err := l.repo.ListRecords(ctx, studentID)
	if err != nil {
		return false, errors.Wrap(err, "listing payment records")
	}
	return HasOutstanding(recs), nil
}

// HasOutstanding reports whether any of recs is not paid.
func HasOutstanding(recs []Record) bool {
	for _, rec := range recs {
		if !rec.IsSettled() {
			return true
		}
	}
	return false
}
