package payment

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
)

type Status string

const (
	StatusUnpaid  Status = "impaye"
	StatusPartial Status = "partiel"
	StatusPaid    Status = "paye"
)

// Payment methods
const (
	MethodCash        = "especes"
	MethodMobileMoney = "mobile_money"
	MethodTransfer    = "virement"
	MethodCheck       = "cheque"
)

var (
	AllMethods = []string{MethodCash, MethodMobileMoney, MethodTransfer, MethodCheck}

	// errors
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	errInvalidMonth  = errors.New("invalid month")
)

// Month is a calendar month formatted as YYYY-MM.
type Month string

const monthLayout = "2006-01"

func MonthOf(t time.Time) Month {
	return Month(t.Format(monthLayout))
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, core.CleanString(s))
	if err != nil {
		return "", errInvalidMonth
	}
	return MonthOf(t), nil
}

// Start returns the first instant of the month in UTC.
func (m Month) Start() (time.Time, error) {
	t, err := time.Parse(monthLayout, string(m))
	if err != nil {
		return time.Time{}, errInvalidMonth
	}
	return t, nil
}

// Add shifts the month by n calendar months (negative n goes backward).
// An invalid month is returned unchanged.
func (m Month) Add(n int) Month {
	t, err := m.Start()
	if err != nil {
		return m
	}
	return MonthOf(t.AddDate(0, n, 0))
}

func (m Month) Before(other Month) bool {
	return string(m) < string(other) // YYYY-MM sorts lexically
}

func (m Month) String() string { return string(m) }

// Balance is the derived state of a payment record.
type Balance struct {
	Status    Status `json:"status"`
	Remaining int64  `json:"amount_remaining"`
}

// DeriveStatus computes the status and remaining amount of a record from what is due and what was paid.
// A record with nothing due is paid.
func DeriveStatus(total, paid int64) Balance {
	remaining := total - paid
	if remaining < 0 {
		remaining = 0
	}
	var status Status
	switch {
	case paid >= total:
		status = StatusPaid
	case paid <= 0:
		status = StatusUnpaid
	default:
		status = StatusPartial
	}
	return Balance{Status: status, Remaining: remaining}
}

type Versement struct {
	Amount int64     `json:"amount"`
	Method string    `json:"method"`
	PaidAt time.Time `json:"paid_at"` // UTC
}

// Record is the tuition obligation of one student for one month.
type Record struct {
	ID              string      `json:"id"`
	StudentID       string      `json:"student_id"`
	Month           Month       `json:"month"`
	AmountDue       int64       `json:"amount_due"`
	AmountPaid      int64       `json:"amount_paid"`
	AmountRemaining int64       `json:"amount_remaining"`
	Status          Status      `json:"status"`
	Versements      []Versement `json:"versements"`
	CreatedAt       time.Time   `json:"created_at"` // UTC
	UpdatedAt       time.Time   `json:"updated_at"` // UTC
}

func (r *Record) setBalance() {
	bal := DeriveStatus(r.AmountDue, r.AmountPaid)
	r.Status = bal.Status
	r.AmountRemaining = bal.Remaining
}

// addVersement appends v and re-derives the balance. Existing versements are never edited.
func (r *Record) addVersement(v Versement) {
	r.Versements = append(r.Versements, v)
	r.AmountPaid += v.Amount
	r.setBalance()
}

func (r Record) IsSettled() bool {
	return r.Status == StatusPaid
}

// NewRecord contains information needed to bill a student for a month.
type NewRecord struct {
	StudentID string `json:"student_id" validate:"required,notblank"`
	Month     Month  `json:"month" validate:"required,month"`
	AmountDue int64  `json:"amount_due" validate:"gte=0"`
	PaidSoFar int64  `json:"paid_so_far" validate:"gte=0"`
}

func (nr *NewRecord) Validate() error {
	nr.StudentID = core.CleanString(nr.StudentID)
	nr.Month = Month(core.CleanString(string(nr.Month)))
	return core.Validate.Struct(nr)
}

// NewVersement contains information needed to record a payment on an existing record.
type NewVersement struct {
	Amount int64     `json:"amount"`
	Method string    `json:"method" validate:"required,oneof=especes mobile_money virement cheque"`
	PaidAt time.Time `json:"paid_at"` // defaults to now
}

func (nv *NewVersement) Validate() error {
	if nv.Amount <= 0 {
		return core.NewValidationError(ErrInvalidAmount, core.FieldError{Field: "amount", Error: ErrInvalidAmount.Error()})
	}
	nv.Method = core.CleanString(nv.Method, true /* lower */)
	return core.Validate.Struct(nv)
}
