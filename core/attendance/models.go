package attendance

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "retard"
)

const (
	// DefaultBillableLateCutoff is the lateness, in minutes, from which a late arrival is no longer billed.
	DefaultBillableLateCutoff = 15
	// DefaultMaxLateMinutes bounds minutes_late on a late entry.
	DefaultMaxLateMinutes = 120
	// DefaultTrialSessions is the number of free sessions a new student attends before being billed.
	DefaultTrialSessions = 2
)

var (
	errDuplicateStudent = errors.New("a student can only appear once per roll-call")
)

// Policy holds the attendance thresholds. The zero value of a field means its default.
type Policy struct {
	BillableLateCutoff int
	MaxLateMinutes     int
	TrialSessions      int
}

func DefaultPolicy() Policy {
	return Policy{
		BillableLateCutoff: DefaultBillableLateCutoff,
		MaxLateMinutes:     DefaultMaxLateMinutes,
		TrialSessions:      DefaultTrialSessions,
	}
}

func PolicyFromConfig(conf core.StandingConfig) Policy {
	p := Policy{
		BillableLateCutoff: conf.BillableLateCutoff,
		MaxLateMinutes:     conf.MaxLateMinutes,
		TrialSessions:      conf.TrialSessions,
	}
	return p.withDefaults()
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.BillableLateCutoff <= 0 {
		p.BillableLateCutoff = def.BillableLateCutoff
	}
	if p.MaxLateMinutes <= 0 {
		p.MaxLateMinutes = def.MaxLateMinutes
	}
	if p.TrialSessions <= 0 {
		p.TrialSessions = def.TrialSessions
	}
	return p
}

// IsBillable tells whether an attendance outcome is billed.
func (p Policy) IsBillable(status Status, minutesLate int) bool {
	switch status {
	case StatusPresent:
		return true
	case StatusLate:
		return minutesLate < p.BillableLateCutoff
	default:
		return false
	}
}

// IsBillable applies the default policy.
func IsBillable(status Status, minutesLate int) bool {
	return DefaultPolicy().IsBillable(status, minutesLate)
}

type Entry struct {
	StudentID   string   `json:"student_id"`
	Status      Status   `json:"status"`
	MinutesLate int      `json:"minutes_late"`
	Billable    bool     `json:"billable"`
	Standing    Standing `json:"standing"`
}

// RollCall is the attendance taken for one course session.
type RollCall struct {
	SessionID  string    `json:"session_id"`
	ClassID    string    `json:"class_id"`
	Date       string    `json:"date"` // YYYY-MM-DD
	Entries    []Entry   `json:"entries"`
	RecordedAt time.Time `json:"recorded_at"` // UTC
}

// SessionEntry is an Entry along with the session it belongs to.
type SessionEntry struct {
	SessionID string `json:"session_id"`
	ClassID   string `json:"class_id"`
	Date      string `json:"date"`
	Entry
}

type NewEntry struct {
	StudentID   string `json:"student_id" validate:"required,notblank"`
	Status      Status `json:"status" validate:"required,oneof=present absent retard"`
	MinutesLate int    `json:"minutes_late"`
}

// NewRollCall contains the information submitted by the teacher taking the roll-call.
type NewRollCall struct {
	SessionID string     `json:"session_id" validate:"required,notblank"`
	ClassID   string     `json:"class_id" validate:"required,notblank"`
	Date      string     `json:"date" validate:"required,datetime=2006-01-02"`
	Entries   []NewEntry `json:"entries" validate:"required,min=1,dive"`
}

func (nr *NewRollCall) Validate(p Policy) error {
	nr.SessionID = core.CleanString(nr.SessionID)
	nr.ClassID = core.CleanString(nr.ClassID)
	nr.Date = core.CleanString(nr.Date)
	for i := range nr.Entries {
		nr.Entries[i].StudentID = core.CleanString(nr.Entries[i].StudentID)
		nr.Entries[i].Status = Status(core.CleanString(string(nr.Entries[i].Status), true /* lower */))
	}

	if err := core.Validate.Struct(nr); err != nil {
		return err
	}

	var fldErrs []core.FieldError
	seen := make(map[string]bool, len(nr.Entries))
	for i, e := range nr.Entries {
		field := fmt.Sprintf("entries[%d]", i)
		if seen[e.StudentID] {
			fldErrs = append(fldErrs, core.FieldError{Field: field + ".student_id", Error: errDuplicateStudent.Error()})
		}
		seen[e.StudentID] = true

		if e.Status == StatusLate {
			if e.MinutesLate <= 0 || e.MinutesLate > p.MaxLateMinutes {
				fldErrs = append(fldErrs, core.FieldError{
					Field: field + ".minutes_late",
					Error: fmt.Sprintf("minutes_late is required for a late arrival and must be between 1 and %d", p.MaxLateMinutes),
				})
			}
		} else {
			nr.Entries[i].MinutesLate = 0
		}
	}
	if len(fldErrs) > 0 {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}
