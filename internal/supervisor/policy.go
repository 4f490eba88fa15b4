package supervisor

import (
	"math"
	"math/rand"
	"time"
)

// outcome is what a single service.Start (or cron-triggered invocation)
// produced, consumed by the restart policy evaluator.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeFailure
	outcomeCancelled
)

// restartDecision is the pure-function result of applying a RestartPolicy
// to an exit outcome, grounded on the shouldRestart/calculateBackoff split
// in other_examples' altuslabsxyz-devnet-builder supervisor.
type restartDecision struct {
	restart    bool
	nextStatus ManagedStatus // terminal status when restart == false
	resetCount bool
}

// evaluateRestart decides whether the supervising loop should restart after the
// given outcome. userStopped is the entry's durable user-requested-stop
// flag; restartCount is the count BEFORE this
// decision (i.e. the number of restarts already attempted).
func evaluateRestart(cfg ServiceConfig, o outcome, userStopped bool, restartCount int) restartDecision {
	switch o {
	case outcomeSuccess:
		switch cfg.RestartPolicy {
		case RestartAlways:
			if userStopped {
				return restartDecision{restart: false, nextStatus: StatusStopped, resetCount: true}
			}
			return restartDecision{restart: true}
		case RestartUnlessStopped:
			if userStopped {
				return restartDecision{restart: false, nextStatus: StatusStopped, resetCount: true}
			}
			return restartDecision{restart: true}
		default: // no, on-failure: a clean completion is not an error
			return restartDecision{restart: false, nextStatus: StatusStopped, resetCount: true}
		}
	case outcomeFailure:
		if userStopped {
			return restartDecision{restart: false, nextStatus: StatusCrashed}
		}
		switch cfg.RestartPolicy {
		case RestartNo:
			return restartDecision{restart: false, nextStatus: StatusCrashed}
		case RestartOnFailure:
			if restartCount >= cfg.MaxRetries {
				return restartDecision{restart: false, nextStatus: StatusCrashed}
			}
			return restartDecision{restart: true}
		case RestartAlways, RestartUnlessStopped:
			return restartDecision{restart: true}
		default:
			return restartDecision{restart: false, nextStatus: StatusCrashed}
		}
	default: // outcomeCancelled: user stop during Start; loop unwinds, caller sets status
		return restartDecision{restart: false}
	}
}

// backoff computes the delay before restart attempt n (n >= 1):
// min(backoffMaxMs, backoffBaseMs * 2^(n-1)), with optional ±20% jitter.
func backoff(cfg ServiceConfig, n int) time.Duration {
	if n < 1 {
		n = 1
	}
	base := float64(cfg.BackoffBaseMs)
	max := float64(cfg.BackoffMaxMs)
	d := base * math.Pow(2, float64(n-1))
	if d > max {
		d = max
	}
	if !cfg.JitterDisabled {
		// jitter in [0.8, 1.2] x d
		jitter := 0.8 + rand.Float64()*0.4 //nolint:gosec // non-cryptographic scheduling jitter
		d *= jitter
	}
	return time.Duration(d) * time.Millisecond
}
