// Package cronsched provides the one concrete supervisor.Trigger
// implementation the repository ships: a standard five-field cron
// expression parsed and evaluated by github.com/robfig/cron/v3, the same
// library internal/cronjob.go's CronJob wraps. The supervisor package
// itself only ever calls Trigger.NextFire — it never imports a
// cron-expression parser directly.
package cronsched

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// RobfigTrigger adapts a parsed robfig/cron/v3 schedule to
// supervisor.Trigger. It also accepts the descriptor forms ("@every 5m",
// "@daily", ...) robfig's standard parser understands.
type RobfigTrigger struct {
	schedule cron.Schedule
	expr     string
}

// NewRobfigTrigger parses expr with cron.ParseStandard (five fields, no
// seconds) plus the "@every"/"@daily"/... descriptors, mirroring how
// internal/cronjob.go configures its own scheduler.
func NewRobfigTrigger(expr string) (*RobfigTrigger, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("cronsched: invalid schedule %q: %w", expr, err)
	}
	return &RobfigTrigger{schedule: sched, expr: expr}, nil
}

// NewRobfigTriggerInLocation is NewRobfigTrigger with an explicit timezone,
// grounded on internal/cronjob.go's TimeZone handling (falling back to the
// machine's local zone on an empty/invalid location name is the caller's
// responsibility, same as that warn-and-fall-back behavior).
func NewRobfigTriggerInLocation(expr string, loc *time.Location) (*RobfigTrigger, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("cronsched: invalid schedule %q: %w", expr, err)
	}
	if loc != nil {
		sched = &locatedSchedule{schedule: sched, loc: loc}
	}
	return &RobfigTrigger{schedule: sched, expr: expr}, nil
}

// NextFire implements supervisor.Trigger.
func (t *RobfigTrigger) NextFire(now time.Time) time.Time {
	return t.schedule.Next(now)
}

// String returns the original expression, useful for logging.
func (t *RobfigTrigger) String() string { return t.expr }

// locatedSchedule re-evaluates Next in a fixed location so the schedule
// fires on wall-clock time in that zone regardless of the caller's `now`.
type locatedSchedule struct {
	schedule cron.Schedule
	loc      *time.Location
}

func (s *locatedSchedule) Next(now time.Time) time.Time {
	return s.schedule.Next(now.In(s.loc))
}
