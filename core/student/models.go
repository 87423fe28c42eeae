package student

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Status string

const (
	StatusActive   Status = "actif"
	StatusInactive Status = "inactif"
)

type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

var errInvalidBan = errors.New("a ban requires a reason and a date")

// Ban is the state of a banned student. A Student without a Ban is active.
type Ban struct {
	Reason string
	Date   time.Time // UTC
}

// NewBan builds a valid Ban; reason and date are both mandatory.
func NewBan(reason string, date time.Time) (*Ban, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" || date.IsZero() {
		return nil, errInvalidBan
	}
	return &Ban{Reason: reason, Date: date.UTC()}, nil
}

type Guardian struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

type Student struct {
	ID         string     `json:"id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Sex        Sex        `json:"sex"`
	ClassID    string     `json:"class_id"`
	Guardians  []Guardian `json:"guardians"`
	Status     Status     `json:"status"`
	FeeExempt  bool       `json:"fee_exempt"`
	EnrolledAt time.Time  `json:"enrolled_at"` // UTC
	Ban        *Ban       `json:"-"`
	CreatedAt  time.Time  `json:"created_at"` // UTC
	UpdatedAt  time.Time  `json:"updated_at"` // UTC
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

func (s Student) IsBanned() bool {
	return s.Ban != nil
}

func (s Student) IsInactive() bool {
	return s.Status == StatusInactive
}

type studentJSON struct {
	alias
	IsBanned  bool       `json:"is_banned"`
	BanReason *string    `json:"ban_reason"`
	BanDate   *time.Time `json:"ban_date"`
}

type alias Student

// MarshalJSON flattens the ban state into is_banned, ban_reason and ban_date.
func (s Student) MarshalJSON() ([]byte, error) {
	out := studentJSON{alias: alias(s)}
	if s.Ban != nil {
		out.IsBanned = true
		out.BanReason = &s.Ban.Reason
		out.BanDate = &s.Ban.Date
	}
	return json.Marshal(out)
}
