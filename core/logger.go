package core

// Logger is any service that can log and report application events.
// args may hold errors, maps of extra data or an identifying value for the acting subject.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Actor identifies who triggered a logged event, e.g. the authenticated staff member.
type Actor struct {
	ID    string
	Name  string
	Email string
}
