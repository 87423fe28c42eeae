package risk

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/attendance"
	"github.com/trezcool/ecole/core/payment"
	"github.com/trezcool/ecole/core/standing"
	"github.com/trezcool/ecole/core/student"
)

var NowFunc = time.Now // mockable

const (
	DefaultAbsenceRateThreshold = 30 // percent
	DefaultLateCountThreshold   = 3

	attendanceKey = "risk:attendance"
	paymentKey    = "risk:payment"
)

type (
	Thresholds struct {
		AbsenceRate int // percent
		LateCount   int
	}

	AttendanceRisk struct {
		StudentID   string `json:"student_id"`
		Name        string `json:"name"`
		ClassID     string `json:"class_id"`
		Sessions    int    `json:"sessions"`
		Absences    int    `json:"absences"`
		Lates       int    `json:"lates"`
		AbsenceRate int    `json:"absence_rate"` // percent
		Reason      string `json:"reason"`
	}

	PaymentRisk struct {
		StudentID    string `json:"student_id"`
		Name         string `json:"name"`
		ClassID      string `json:"class_id"`
		UnpaidMonths int    `json:"unpaid_months"`
		IsBanned     bool   `json:"is_banned"`
	}

	// ReportCache stores computed reports for a while. A miss returns false and no error.
	ReportCache interface {
		Get(ctx context.Context, key string, dst interface{}) (bool, error)
		Set(ctx context.Context, key string, v interface{}) error
		Delete(ctx context.Context, keys ...string) error
	}

	Scorer interface {
		AtRiskAttendance(ctx context.Context) ([]AttendanceRisk, error)
		AtRiskPayment(ctx context.Context) ([]PaymentRisk, error)
		// Invalidate drops the cached reports.
		Invalidate(ctx context.Context)
	}

	scorer struct {
		students   student.Repository
		payments   payment.Repository
		attendance attendance.Repository
		policy     standing.Policy
		thresholds Thresholds
		cache      ReportCache
		logger     core.Logger
	}
)

var _ Scorer = (*scorer)(nil)

func ThresholdsFromConfig(conf core.RiskConfig) Thresholds {
	t := Thresholds{AbsenceRate: conf.AbsenceRateThreshold, LateCount: conf.LateCountThreshold}
	return t.withDefaults()
}

func (t Thresholds) withDefaults() Thresholds {
	if t.AbsenceRate <= 0 {
		t.AbsenceRate = DefaultAbsenceRateThreshold
	}
	if t.LateCount <= 0 {
		t.LateCount = DefaultLateCountThreshold
	}
	return t
}

// NewScorer returns a read-only risk scorer. cache may be nil.
func NewScorer(
	students student.Repository,
	payments payment.Repository,
	att attendance.Repository,
	policy standing.Policy,
	thresholds Thresholds,
	cache ReportCache,
	logger core.Logger,
) Scorer {
	return &scorer{
		students:   students,
		payments:   payments,
		attendance: att,
		policy:     policy,
		thresholds: thresholds.withDefaults(),
		cache:      cache,
		logger:     logger,
	}
}

func (s *scorer) AtRiskAttendance(ctx context.Context) ([]AttendanceRisk, error) {
	var risks []AttendanceRisk
	if s.cached(ctx, attendanceKey, &risks) {
		return risks, nil
	}

	students, err := s.students.ListStudents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	entries, err := s.attendance.ListEntries(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "listing attendance entries")
	}

	byStudent := make(map[string][]attendance.SessionEntry)
	for _, e := range entries {
		byStudent[e.StudentID] = append(byStudent[e.StudentID], e)
	}

	risks = []AttendanceRisk{}
	for _, st := range students {
		if r, ok := s.scoreAttendance(st, byStudent[st.ID]); ok {
			risks = append(risks, r)
		}
	}
	sort.SliceStable(risks, func(i, j int) bool {
		if risks[i].AbsenceRate != risks[j].AbsenceRate {
			return risks[i].AbsenceRate > risks[j].AbsenceRate
		}
		return risks[i].Lates > risks[j].Lates
	})

	s.store(ctx, attendanceKey, risks)
	return risks, nil
}

func (s *scorer) scoreAttendance(st student.Student, entries []attendance.SessionEntry) (AttendanceRisk, bool) {
	if len(entries) == 0 {
		return AttendanceRisk{}, false
	}
	r := AttendanceRisk{StudentID: st.ID, Name: st.FullName(), ClassID: st.ClassID, Sessions: len(entries)}
	for _, e := range entries {
		switch e.Status {
		case attendance.StatusAbsent:
			r.Absences++
		case attendance.StatusLate:
			r.Lates++
		}
	}
	r.AbsenceRate = int(math.Round(float64(r.Absences) / float64(r.Sessions) * 100))

	switch {
	case r.AbsenceRate >= s.thresholds.AbsenceRate:
		r.Reason = fmt.Sprintf("Taux d'absence de %d%%", r.AbsenceRate)
	case r.Lates >= s.thresholds.LateCount:
		r.Reason = fmt.Sprintf("%d retards", r.Lates)
	default:
		return AttendanceRisk{}, false
	}
	return r, true
}

func (s *scorer) AtRiskPayment(ctx context.Context) ([]PaymentRisk, error) {
	var risks []PaymentRisk
	if s.cached(ctx, paymentKey, &risks) {
		return risks, nil
	}

	students, err := s.students.ListStudents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	recs, err := s.payments.ListRecords(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "listing payment records")
	}
	byStudent := make(map[string][]payment.Record)
	for _, rec := range recs {
		byStudent[rec.StudentID] = append(byStudent[rec.StudentID], rec)
	}

	_, month := s.policy.Now(NowFunc())
	risks = []PaymentRisk{}
	for _, st := range students {
		if st.IsInactive() || st.FeeExempt {
			continue
		}
		n := s.policy.ArrearsCount(byStudent[st.ID], month, st.EnrolledAt)
		if n < 1 {
			continue
		}
		risks = append(risks, PaymentRisk{
			StudentID:    st.ID,
			Name:         st.FullName(),
			ClassID:      st.ClassID,
			UnpaidMonths: n,
			IsBanned:     st.IsBanned(),
		})
	}
	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].UnpaidMonths > risks[j].UnpaidMonths
	})

	s.store(ctx, paymentKey, risks)
	return risks, nil
}

func (s *scorer) cached(ctx context.Context, key string, dst interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("reading %s from cache: %v", key, err))
		return false
	}
	return hit
}

func (s *scorer) store(ctx context.Context, key string, v interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v); err != nil {
		s.logger.Warn(fmt.Sprintf("writing %s to cache: %v", key, err))
	}
}

func (s *scorer) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, attendanceKey, paymentKey); err != nil {
		s.logger.Warn(fmt.Sprintf("invalidating risk reports: %v", err))
	}
}

// PassRate returns the rounded percentage of grades reaching cutoff.
func PassRate(grades []float64, cutoff float64) int {
	if len(grades) == 0 {
		return 0
	}
	var passed int
	for _, g := range grades {
		if g >= cutoff {
			passed++
		}
	}
	return int(math.Round(float64(passed) / float64(len(grades)) * 100))
}
