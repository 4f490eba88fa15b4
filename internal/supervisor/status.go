package supervisor

// ManagedStatus is the supervisor's own, authoritative view of a service's
// lifecycle state. It is never derived from the service's self-reported
// health (see health.go); it is driven by the lifecycle engine in
// lifecycle.go and by the cron ticker in cron.go.
type ManagedStatus string

const (
	StatusStopped   ManagedStatus = "stopped"
	StatusStarting  ManagedStatus = "starting"
	StatusRunning   ManagedStatus = "running"
	StatusStopping  ManagedStatus = "stopping"
	StatusCrashed   ManagedStatus = "crashed"
	StatusScheduled ManagedStatus = "scheduled"
)

// legalTransitions enumerates the transitions of the managed-status state
// machine, checked by isLegalTransition. Nothing in the package consults it
// at runtime, and the code also takes edges it does not list: starting or
// scheduled -> stopping on a user stop, running -> starting when the restart
// loop re-enters, and starting -> scheduled when a cron tick completes.
var legalTransitions = map[ManagedStatus]map[ManagedStatus]bool{
	StatusStopped:   {StatusStarting: true},
	StatusStarting:  {StatusRunning: true, StatusStopped: true, StatusCrashed: true, StatusStarting: true},
	StatusRunning:   {StatusStopping: true, StatusCrashed: true, StatusStopped: true},
	StatusStopping:  {StatusStopped: true},
	StatusCrashed:   {StatusStarting: true},
	StatusScheduled: {StatusStarting: true, StatusStopped: true},
}

func isLegalTransition(from, to ManagedStatus) bool {
	if from == to {
		// starting -> starting (restart loop re-entry) is the only legal
		// self-loop; everything else is a no-op the caller should avoid.
		return from == StatusStarting
	}
	edges, ok := legalTransitions[from]
	return ok && edges[to]
}
