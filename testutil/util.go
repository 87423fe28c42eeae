// Package testutil holds the fixtures and fakes shared by the tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/attendance"
	"github.com/trezcool/ecole/core/discipline"
	"github.com/trezcool/ecole/core/payment"
	"github.com/trezcool/ecole/core/student"
	"github.com/trezcool/ecole/storage/database/inmem"
)

type Repos struct {
	Students   student.Repository
	Payments   payment.Repository
	Attendance attendance.Repository
	Discipline discipline.Repository
}

// NewRepos returns the repositories of a fresh in-memory database.
func NewRepos(t *testing.T) Repos {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	return Repos{
		Students:   inmemdb.NewStudentRepository(db),
		Payments:   inmemdb.NewPaymentRepository(db),
		Attendance: inmemdb.NewAttendanceRepository(db),
		Discipline: inmemdb.NewDisciplineRepository(db),
	}
}

// MockNow replaces a package NowFunc for the duration of the test.
func MockNow(t *testing.T, nowFunc *func() time.Time, now time.Time) {
	orig := *nowFunc
	*nowFunc = func() time.Time { return now }
	t.Cleanup(func() { *nowFunc = orig })
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	firstName, lastName string,
	enrolledAt time.Time,
	opts ...func(*student.Student),
) student.Student {
	now := time.Now().UTC()
	st := student.Student{
		ID:         uuid.New().String(),
		FirstName:  firstName,
		LastName:   lastName,
		Sex:        student.SexFemale,
		ClassID:    "6A",
		Guardians:  []student.Guardian{{Name: "Parent " + lastName, Phone: "+243 81 000 0000", Relationship: "mère"}},
		Status:     student.StatusActive,
		EnrolledAt: enrolledAt.UTC(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(&st)
	}
	st, err := repo.CreateStudent(context.Background(), st)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}

// Banned sets a ban on the student created by CreateStudent.
func Banned(reason string, date time.Time) func(*student.Student) {
	return func(st *student.Student) {
		st.Ban = &student.Ban{Reason: reason, Date: date.UTC()}
	}
}

func Inactive(st *student.Student)  { st.Status = student.StatusInactive }
func FeeExempt(st *student.Student) { st.FeeExempt = true }

// CreateRecord stores a payment record as is, bypassing the ledger.
func CreateRecord(t *testing.T, repo payment.Repository, studentID string, month payment.Month, due, paid int64) payment.Record {
	bal := payment.DeriveStatus(due, paid)
	now := time.Now().UTC()
	rec := payment.Record{
		ID:              uuid.New().String(),
		StudentID:       studentID,
		Month:           month,
		AmountDue:       due,
		AmountPaid:      paid,
		AmountRemaining: bal.Remaining,
		Status:          bal.Status,
		Versements:      []payment.Versement{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	rec, err := repo.CreateRecord(context.Background(), rec)
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return rec
}

// PutRollCall stores a roll-call as is, bypassing the attendance service.
func PutRollCall(t *testing.T, repo attendance.Repository, sessionID, date string, entries ...attendance.Entry) {
	rc := attendance.RollCall{
		SessionID:  sessionID,
		ClassID:    "6A",
		Date:       date,
		Entries:    entries,
		RecordedAt: time.Now().UTC(),
	}
	if err := repo.PutRollCall(context.Background(), rc); err != nil {
		t.Fatalf("PutRollCall() failed: %v", err)
	}
}

// Notifier records the notifications it receives. Err is returned by every call when set.
type Notifier struct {
	mu   sync.Mutex
	Err  error
	sent []core.Notification
}

var _ core.Notifier = (*Notifier)(nil)

func (n *Notifier) NotifyAdmin(_ context.Context, notif core.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.sent = append(n.sent, notif)
	return nil
}

func (n *Notifier) Sent() []core.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]core.Notification(nil), n.sent...)
}

// Logger keeps the logged messages, prefixed by their level.
type Logger struct {
	mu   sync.Mutex
	msgs []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, fmt.Sprintf("%s: %s", level, msg))
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }

func (l *Logger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs...)
}
