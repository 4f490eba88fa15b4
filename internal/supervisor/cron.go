package supervisor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/loykin/svcsuper/internal/metrics"
)

// startCronTask spawns the ticker task for a cron-configured entry. It is
// independent of the supervising task and runs from registration until a
// user StopService or RemoveService cancels it; a later StartService does
// not start it again. Grounded on the scheduling loop
// in internal/cronjob/cronjob.go (Start/executeJob), generalized from its
// robfig/cron.Cron-driven callback into an explicit NextFire/cancellable-
// wait loop so the core package never imports a cron-parsing library
// directly; concrete schedule parsing is delegated to internal/cronsched.
func (s *Supervisor) startCronTask(name string, e *entry) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	e.cronTask = &cronTaskHandle{cancel: cancel, done: done}
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.runCronLoop(ctx, name, e)
	}()
}

func (s *Supervisor) runCronLoop(ctx context.Context, name string, e *entry) {
	trigger := e.config.Cron.Trigger
	for {
		now := time.Now()
		next := trigger.NextFire(now)
		wait := next.Sub(now)
		if wait < 0 {
			wait = 0
		}
		metrics.SetCronNextSchedule(name, float64(next.Unix()))
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}

		s.mu.Lock()
		userStopped := e.userStopped
		s.mu.Unlock()
		if userStopped {
			return
		}

		s.fireCronTick(ctx, name, e)
	}
}

// fireCronTick implements one tick: skip if the service is already
// starting/running (overlap-skipping policy, no queue), otherwise invoke
// the start path once with the configured per-invocation timeout and no
// restart loop around it.
func (s *Supervisor) fireCronTick(ctx context.Context, name string, e *entry) {
	s.mu.Lock()
	status := e.status
	s.mu.Unlock()

	if status == StatusStarting || status == StatusRunning {
		s.log.Info("cron tick skipped, already active", "name", name)
		metrics.IncCronSkipped(name)
		s.bus.publish(LifecycleEvent{Kind: EventCronSkipped, Name: name})
		return
	}

	runID := uuid.NewString()
	s.log.Info("cron tick fired", "name", name, "run_id", runID)
	s.bus.publish(LifecycleEvent{ID: runID, Kind: EventCronFired, Name: name})

	tickCtx := ctx
	var cancel context.CancelFunc
	if e.config.Cron.Timeout > 0 {
		tickCtx, cancel = context.WithTimeout(ctx, e.config.Cron.Timeout)
		defer cancel()
	}

	s.mu.Lock()
	s.recordTransition(name, e.status, StatusStarting)
	e.status = StatusStarting
	e.restartCount = 0
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- e.svc.Start(tickCtx) }()

	var err error
	select {
	case err = <-done:
	case <-tickCtx.Done():
		err = tickCtx.Err()
	}

	// Once the tick completes, idle status returns to Scheduled between
	// ticks, unless the
	// invocation crashed, in which case it stays Crashed for this tick —
	// the next fire re-enters from Crashed via the start path as normal.
	s.mu.Lock()
	next := StatusScheduled
	if err != nil {
		next = StatusCrashed
	}
	s.recordTransition(name, e.status, next)
	e.status = next
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("cron invocation failed", "name", name, "error", err, "run_id", runID)
		s.bus.publish(LifecycleEvent{ID: runID, Kind: EventCrashed, Name: name, Err: err})
	} else {
		s.bus.publish(LifecycleEvent{ID: runID, Kind: EventStopped, Name: name})
	}
	s.bus.publish(LifecycleEvent{Kind: EventHealthChecked, Name: name})
}
