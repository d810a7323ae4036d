package models

type JobKind string

const (
	JobKindMail     JobKind = "mail"
	JobKindCalendar JobKind = "calendar"
)

// AllJobKinds lists every job kind the monitor observes
var AllJobKinds = []JobKind{JobKindMail, JobKindCalendar}

// Valid reports whether the kind is one of the known job kinds
func (k JobKind) Valid() bool {
	return k == JobKindMail || k == JobKindCalendar
}

type JobLifecycle string

const (
	LifecycleNotStarted JobLifecycle = "not_started"
	LifecycleRunning    JobLifecycle = "running"
	LifecyclePaused     JobLifecycle = "paused"
	LifecycleCompleted  JobLifecycle = "completed"
	LifecycleError      JobLifecycle = "error"
)
