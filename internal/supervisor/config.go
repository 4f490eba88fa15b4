package supervisor

import "time"

// RestartPolicy is the declarative rule mapping a service's exit outcome
// to a restart decision.
type RestartPolicy string

const (
	// RestartNo never restarts; any exit is terminal.
	RestartNo RestartPolicy = "no"
	// RestartOnFailure restarts only after a failed Start, up to MaxRetries.
	RestartOnFailure RestartPolicy = "on-failure"
	// RestartAlways restarts unconditionally, success or failure, until a
	// user-requested stop.
	RestartAlways RestartPolicy = "always"
	// RestartUnlessStopped restarts unconditionally unless the user asked
	// the service to stop.
	RestartUnlessStopped RestartPolicy = "unless-stopped"
)

// Trigger supplies cron-like fire times to the scheduler. The supervisor
// never parses a cron expression itself — concrete schedule parsing is
// delegated to internal/cronsched — it only calls NextFire.
type Trigger interface {
	NextFire(now time.Time) time.Time
}

// CronConfig configures re-entry of the start path on a recurring schedule.
type CronConfig struct {
	Trigger Trigger
	// Timeout bounds a single cron-triggered invocation. Zero means no
	// per-invocation timeout.
	Timeout time.Duration
}

// Default backoff bounds and timeouts.
const (
	DefaultMaxRetries    = 3
	DefaultBackoffBaseMs = 1000
	DefaultBackoffMaxMs  = 30000
	DefaultStopTimeout   = 10 * time.Second
	DefaultHealthTimeout = 2 * time.Second
)

// ServiceConfig carries the recognized per-service options.
type ServiceConfig struct {
	RestartPolicy RestartPolicy
	// MaxRetries bounds restart attempts under RestartOnFailure; unused by
	// other policies. Zero is treated as DefaultMaxRetries unless the
	// caller explicitly wants zero retries — use MaxRetriesSet to
	// distinguish "not configured" from "configured to 0".
	MaxRetries    int
	MaxRetriesSet bool

	Cron *CronConfig

	BackoffBaseMs int64
	BackoffMaxMs  int64

	// StopTimeout bounds service.Stop(); zero means DefaultStopTimeout.
	StopTimeout time.Duration
	// HealthTimeout bounds service.HealthCheck(); zero means DefaultHealthTimeout.
	HealthTimeout time.Duration

	// JitterDisabled turns off the ±20% jitter on backoff delays. Tests
	// that assert exact backoff durations set this.
	JitterDisabled bool
}

// withDefaults returns a copy of c with zero-valued fields replaced by their
// documented defaults.
func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.RestartPolicy == "" {
		c.RestartPolicy = RestartNo
	}
	if !c.MaxRetriesSet && c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.BackoffBaseMs <= 0 {
		c.BackoffBaseMs = DefaultBackoffBaseMs
	}
	if c.BackoffMaxMs <= 0 {
		c.BackoffMaxMs = DefaultBackoffMaxMs
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = DefaultStopTimeout
	}
	if c.HealthTimeout <= 0 {
		c.HealthTimeout = DefaultHealthTimeout
	}
	return c
}
