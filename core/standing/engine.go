package standing

import (
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/discipline"
	"github.com/trezcool/ecole/core/payment"
	"github.com/trezcool/ecole/core/student"
)

var NowFunc = time.Now // mockable

const (
	banMotif    = "non-paiement"
	banSanction = "suspendu jusqu'au paiement"
)

type (
	// Failure is a student the batch could not process.
	Failure struct {
		StudentID string `json:"student_id"`
		Error     string `json:"error"`
	}

	// BatchReport summarizes a sweep. Every student is processed independently.
	BatchReport struct {
		Rule      string    `json:"rule"`
		Month     string    `json:"month"`
		Processed int       `json:"processed"`
		Banned    int       `json:"banned"`
		Warned    int       `json:"warned"`
		Skipped   int       `json:"skipped"`
		Failures  []Failure `json:"failures"`
	}

	Engine interface {
		// RunDeadlineBan bans students without a record for the current month, once the deadline is past.
		RunDeadlineBan(ctx context.Context) (BatchReport, error)
		// RunArrearsBan bans students with too many consecutive unpaid months and warns about those one month behind.
		RunArrearsBan(ctx context.Context) (BatchReport, error)
		// UnbanIfSettled lifts the ban of a student whose pending payment got settled.
		UnbanIfSettled(ctx context.Context, studentID string) error
		// Unban lifts a ban by hand.
		Unban(ctx context.Context, studentID string) (student.Student, error)
	}

	Deps struct {
		Students   student.Repository
		Payments   payment.Repository
		Discipline discipline.Service
		Notifier   core.Notifier
		Logger     core.Logger
	}

	engine struct {
		Deps
		policy Policy
	}
)

var (
	_ Engine                 = (*engine)(nil)
	_ payment.SettlementHook = (*engine)(nil)
)

func NewEngine(deps Deps, policy Policy) (Engine, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Students, "Students"),
		vala.IsNotNil(deps.Payments, "Payments"),
		vala.IsNotNil(deps.Discipline, "Discipline"),
		vala.IsNotNil(deps.Notifier, "Notifier"),
		vala.IsNotNil(deps.Logger, "Logger"),
	).Check(); err != nil {
		return nil, errors.Wrap(err, "standing engine")
	}
	return &engine{Deps: deps, policy: policy.withDefaults()}, nil
}

// eligible tells whether the ban rules apply to st at all.
func eligible(st student.Student) bool {
	return !st.IsBanned() && !st.IsInactive() && !st.FeeExempt
}

func (e *engine) RunDeadlineBan(ctx context.Context) (BatchReport, error) {
	now, month := e.policy.Now(NowFunc())
	report := BatchReport{Rule: "deadline", Month: month.String(), Failures: []Failure{}}
	if now.Day() < e.policy.DeadlineDay {
		e.Logger.Debug(fmt.Sprintf("deadline sweep: day %d is before day %d, nothing to do", now.Day(), e.policy.DeadlineDay))
		return report, nil
	}

	students, err := e.Students.ListStudents(ctx)
	if err != nil {
		return report, errors.Wrap(err, "listing students")
	}
	reason := fmt.Sprintf("non-paiement avant le %d", e.policy.DeadlineDay)

	for _, st := range students {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++
		if !eligible(st) {
			report.Skipped++
			continue
		}

		_, err := e.Payments.GetRecordByMonth(ctx, st.ID, month)
		switch {
		case err == nil:
			continue
		case errors.Cause(err) != payment.ErrNotFound:
			report.fail(st.ID, errors.Wrap(err, "getting current month record"))
			continue
		}

		if err := e.ban(ctx, st, reason, now); err != nil {
			report.fail(st.ID, err)
			continue
		}
		report.Banned++
	}

	e.logReport(report)
	return report, nil
}

func (e *engine) RunArrearsBan(ctx context.Context) (BatchReport, error) {
	now, month := e.policy.Now(NowFunc())
	report := BatchReport{Rule: "arrears", Month: month.String(), Failures: []Failure{}}

	students, err := e.Students.ListStudents(ctx)
	if err != nil {
		return report, errors.Wrap(err, "listing students")
	}
	recs, err := e.Payments.ListRecords(ctx, "")
	if err != nil {
		return report, errors.Wrap(err, "listing payment records")
	}
	byStudent := make(map[string][]payment.Record)
	for _, rec := range recs {
		byStudent[rec.StudentID] = append(byStudent[rec.StudentID], rec)
	}

	for _, st := range students {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++
		if !eligible(st) {
			report.Skipped++
			continue
		}

		count := e.policy.ArrearsCount(byStudent[st.ID], month, st.EnrolledAt)
		switch {
		case count >= e.policy.ArrearsBanThreshold:
			if err := e.ban(ctx, st, fmt.Sprintf("%d mois de paiements en retard", count), now); err != nil {
				report.fail(st.ID, err)
				continue
			}
			report.Banned++
		case count > 0:
			e.notify(ctx, core.Notification{
				Type:      core.NotificationPayment,
				StudentID: st.ID,
				Message:   fmt.Sprintf("%s a %d mois de paiement en retard", st.FullName(), count),
			})
			report.Warned++
		}
	}

	e.logReport(report)
	return report, nil
}

func (e *engine) UnbanIfSettled(ctx context.Context, studentID string) error {
	st, err := e.Students.GetStudent(ctx, studentID)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	if !st.IsBanned() {
		return nil
	}
	if err := e.Students.PutStudentBan(ctx, st.ID, nil); err != nil {
		return errors.Wrap(err, "clearing ban")
	}
	e.Logger.Info(fmt.Sprintf("student %s unbanned after settlement", st.ID))
	e.notify(ctx, core.Notification{
		Type:      core.NotificationPayment,
		StudentID: st.ID,
		Message:   fmt.Sprintf("%s a régularisé sa situation et n'est plus banni", st.FullName()),
	})
	return nil
}

func (e *engine) Unban(ctx context.Context, studentID string) (student.Student, error) {
	st, err := e.Students.GetStudent(ctx, core.CleanString(studentID))
	if err != nil {
		return student.Student{}, err
	}
	if !st.IsBanned() {
		return st, nil
	}
	if err := e.Students.PutStudentBan(ctx, st.ID, nil); err != nil {
		return student.Student{}, errors.Wrap(err, "clearing ban")
	}
	st.Ban = nil
	e.Logger.Info(fmt.Sprintf("student %s unbanned by hand", st.ID))
	return st, nil
}

// ban writes the ban, then files a system discipline record and alerts the admin.
// Once the ban is written, later failures are logged only.
func (e *engine) ban(ctx context.Context, st student.Student, reason string, now time.Time) error {
	ban, err := student.NewBan(reason, now)
	if err != nil {
		return err
	}
	if err := e.Students.PutStudentBan(ctx, st.ID, ban); err != nil {
		return errors.Wrap(err, "putting ban")
	}

	if _, err := e.Discipline.System(ctx, st.ID, discipline.TypeBan, reason, banMotif, banSanction); err != nil {
		e.Logger.Error(fmt.Sprintf("filing ban record of student %s: %v", st.ID, err), err)
	}
	e.notify(ctx, core.Notification{
		Type:      core.NotificationBan,
		StudentID: st.ID,
		Message:   fmt.Sprintf("%s a été banni: %s", st.FullName(), reason),
	})
	return nil
}

func (e *engine) notify(ctx context.Context, n core.Notification) {
	if err := e.Notifier.NotifyAdmin(ctx, n); err != nil {
		e.Logger.Warn(fmt.Sprintf("notifying admin (%s, student %s): %v", n.Type, n.StudentID, err))
	}
}

func (e *engine) logReport(r BatchReport) {
	msg := fmt.Sprintf("%s sweep %s: processed=%d banned=%d warned=%d skipped=%d failed=%d",
		r.Rule, r.Month, r.Processed, r.Banned, r.Warned, r.Skipped, len(r.Failures))
	if len(r.Failures) > 0 {
		e.Logger.Warn(msg)
		return
	}
	e.Logger.Info(msg)
}

func (r *BatchReport) fail(studentID string, err error) {
	r.Failures = append(r.Failures, Failure{StudentID: studentID, Error: err.Error()})
}
