package attendance

import "github.com/trezcool/ecole/core/student"

// StandingState is the eligibility of a student to attend a billed session.
type StandingState string

const (
	StandingTrial      StandingState = "essai"
	StandingAuthorized StandingState = "autorise"
	StandingSendHome   StandingState = "a_renvoyer"
	StandingBanned     StandingState = "banni"
)

type Standing struct {
	State    StandingState `json:"state"`
	Billable bool          `json:"billable"`
	Message  string        `json:"message"`
}

var (
	standingBanned     = Standing{State: StandingBanned, Billable: false, Message: "Élève banni (paiement requis)"}
	standingTrial      = Standing{State: StandingTrial, Billable: false, Message: "Séance d'essai"}
	standingSendHome   = Standing{State: StandingSendHome, Billable: false, Message: "Paiement requis"}
	standingAuthorized = Standing{State: StandingAuthorized, Billable: true, Message: "Autorisé"}
)

// ComputeStanding evaluates, first match wins: ban, trial sessions, outstanding payment.
// presentCount only counts prior sessions the student attended as present.
func (p Policy) ComputeStanding(st student.Student, presentCount int, hasOutstandingPayment bool) Standing {
	switch {
	case st.IsBanned():
		return standingBanned
	case presentCount < p.TrialSessions:
		return standingTrial
	case hasOutstandingPayment:
		return standingSendHome
	default:
		return standingAuthorized
	}
}

// ComputeStanding applies the default policy.
func ComputeStanding(st student.Student, presentCount int, hasOutstandingPayment bool) Standing {
	return DefaultPolicy().ComputeStanding(st, presentCount, hasOutstandingPayment)
}

// CountPresent counts the entries marked present in sessions held before the session (date, sessionID).
// Sessions of the same day are ordered by id. An empty date counts every session.
func CountPresent(entries []SessionEntry, date, sessionID string) int {
	var n int
	for _, e := range entries {
		if e.Status == StatusPresent && (date == "" || before(e, date, sessionID)) {
			n++
		}
	}
	return n
}

func before(e SessionEntry, date, sessionID string) bool {
	if e.Date != date {
		return e.Date < date
	}
	return e.SessionID < sessionID
}
