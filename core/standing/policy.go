package standing

import (
	"time"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/payment"
)

const (
	DefaultDeadlineDay           = 10
	DefaultArrearsBanThreshold   = 2
	DefaultArrearsLookbackMonths = 12
)

// Policy holds the calendar thresholds of the ban rules.
type Policy struct {
	DeadlineDay           int
	ArrearsBanThreshold   int
	ArrearsLookbackMonths int
	Location              *time.Location // school time zone; nil means UTC
}

func DefaultPolicy() Policy {
	return Policy{
		DeadlineDay:           DefaultDeadlineDay,
		ArrearsBanThreshold:   DefaultArrearsBanThreshold,
		ArrearsLookbackMonths: DefaultArrearsLookbackMonths,
		Location:              time.UTC,
	}
}

func PolicyFromConfig(conf core.StandingConfig) Policy {
	p := Policy{
		DeadlineDay:           conf.DeadlineDay,
		ArrearsBanThreshold:   conf.ArrearsBanThreshold,
		ArrearsLookbackMonths: conf.ArrearsLookbackMonths,
		Location:              conf.Location(),
	}
	return p.withDefaults()
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.DeadlineDay <= 0 || p.DeadlineDay > 28 {
		p.DeadlineDay = def.DeadlineDay
	}
	if p.ArrearsBanThreshold <= 0 {
		p.ArrearsBanThreshold = def.ArrearsBanThreshold
	}
	if p.ArrearsLookbackMonths <= 0 {
		p.ArrearsLookbackMonths = def.ArrearsLookbackMonths
	}
	if p.Location == nil {
		p.Location = def.Location
	}
	return p
}

// Now returns t in the school time zone, together with its month.
func (p Policy) Now(t time.Time) (time.Time, payment.Month) {
	t = t.In(p.withDefaults().Location)
	return t, payment.MonthOf(t)
}

// ArrearsCount counts the consecutive unsettled months walking backward from current,
// a month without a record counting as unsettled. The walk stops at the first paid month,
// after lookback months, or before the month the student enrolled (since; empty means no bound).
func ArrearsCount(recs []payment.Record, current payment.Month, lookback int, since payment.Month) int {
	byMonth := make(map[payment.Month]payment.Record, len(recs))
	for _, rec := range recs {
		byMonth[rec.Month] = rec
	}

	var count int
	for i := 0; i < lookback; i++ {
		m := current.Add(-i)
		if since != "" && m.Before(since) {
			break
		}
		if rec, ok := byMonth[m]; ok && rec.IsSettled() {
			break
		}
		count++
	}
	return count
}

// ArrearsCount applies the policy lookback, bounded by the enrollment month.
func (p Policy) ArrearsCount(recs []payment.Record, current payment.Month, enrolledAt time.Time) int {
	p = p.withDefaults()
	var since payment.Month
	if !enrolledAt.IsZero() {
		since = payment.MonthOf(enrolledAt.In(p.Location))
	}
	return ArrearsCount(recs, current, p.ArrearsLookbackMonths, since)
}
