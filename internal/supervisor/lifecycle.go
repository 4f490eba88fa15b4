package supervisor

import (
	"context"
	"errors"
	"time"

	"github.com/loykin/svcsuper/internal/metrics"
)

// StartService is idempotent on an already-starting/running service,
// clears the user-stop flag, and spawns a
// supervising task. It returns once that task has either reached Running
// (long-running service observed after a short grace wait) or completed a
// short-lived run, or reports an immediate startup failure.
func (s *Supervisor) StartService(ctx context.Context, name string) error {
	e := s.get(name)
	if e == nil {
		return ErrNotFound
	}

	s.mu.Lock()
	if e.status == StatusStarting || e.status == StatusRunning {
		s.mu.Unlock()
		return nil
	}
	e.userStopped = false
	e.restartCount = 0
	s.recordTransition(name, e.status, StatusStarting)
	e.status = StatusStarting
	taskCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.supervising = &taskHandle{cancel: cancel, done: done}
	s.mu.Unlock()

	s.log.Info("service starting", "name", name)
	s.bus.publish(LifecycleEvent{Kind: EventStarting, Name: name})

	startResult := make(chan error, 1)
	go func() {
		defer close(done)
		s.runSupervisingLoop(taskCtx, name, e, startResult)
	}()

	// Grace wait: give the first Start() a moment to either fail fast or
	// settle into Running/Stopped before returning to the caller. A long-running
	// service that is still mid-Start after the grace period is reported
	// as Running; its supervising task continues independently.
	select {
	case err := <-startResult:
		return err
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// runSupervisingLoop is the supervising-task algorithm: start, wait for
// exit, evaluate the restart policy, repeat. It owns the entry's
// status/restartCount for the lifetime of the task and
// reports the outcome of the FIRST Start() attempt on firstResult so
// StartService can return promptly; later attempts (restarts) are silent
// beyond logging/events.
func (s *Supervisor) runSupervisingLoop(ctx context.Context, name string, e *entry, firstResult chan<- error) {
	reported := false
	report := func(err error) {
		if !reported {
			reported = true
			firstResult <- err
		}
	}

	for {
		s.mu.Lock()
		s.recordTransition(name, e.status, StatusStarting)
		e.status = StatusStarting
		s.mu.Unlock()

		longRunningSettled := make(chan struct{})
		go func() {
			select {
			case <-time.After(30 * time.Millisecond):
				s.mu.Lock()
				if e.status == StatusStarting {
					s.recordTransition(name, e.status, StatusRunning)
					e.status = StatusRunning
					s.bus.publish(LifecycleEvent{Kind: EventRunning, Name: name})
				}
				s.mu.Unlock()
			case <-longRunningSettled:
			}
		}()

		metrics.IncStart(name)
		err := e.svc.Start(ctx)
		close(longRunningSettled)

		var o outcome
		switch {
		case ctx.Err() != nil:
			o = outcomeCancelled
		case err != nil:
			o = outcomeFailure
		default:
			o = outcomeSuccess
		}

		s.mu.Lock()
		userStopped := e.userStopped
		restartCount := e.restartCount
		s.mu.Unlock()

		if o == outcomeCancelled {
			report(nil)
			return
		}

		if o == outcomeFailure {
			s.log.Error("service failed", "name", name, "error", err)
			s.bus.publish(LifecycleEvent{Kind: EventCrashed, Name: name, Err: err})
		}

		decision := evaluateRestart(e.config, o, userStopped, restartCount)

		if !decision.restart {
			s.mu.Lock()
			s.recordTransition(name, e.status, decision.nextStatus)
			e.status = decision.nextStatus
			if decision.resetCount {
				e.restartCount = 0
			}
			s.mu.Unlock()

			if o == outcomeSuccess {
				s.log.Info("service stopped cleanly", "name", name)
				s.bus.publish(LifecycleEvent{Kind: EventStopped, Name: name})
			} else {
				s.log.Warn("service crashed", "name", name, "restart_count", restartCount)
			}
			if o == outcomeFailure {
				report(errors.Join(ErrStartFailed, err))
			} else {
				report(nil)
			}
			return
		}

		s.mu.Lock()
		e.restartCount++
		attempt := e.restartCount
		s.mu.Unlock()

		delay := backoff(e.config, attempt)
		metrics.IncRestart(name)
		metrics.ObserveRestartBackoff(name, delay.Seconds())
		s.log.Info("service restart scheduled", "name", name, "attempt", attempt, "delay_ms", delay.Milliseconds())
		s.bus.publish(LifecycleEvent{Kind: EventRestartScheduled, Name: name, Attempt: attempt, DelayMs: delay.Milliseconds()})

		// Successful long-running completions that restart (RestartAlways)
		// are not a failure; report success for the first iteration if
		// this is attempt 1 so a caller's StartService doesn't hang past
		// the grace window.
		if attempt == 1 && o == outcomeSuccess {
			report(nil)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			report(nil)
			return
		}
	}
}

// StopService sets the durable user-stop flag, cancels any cron ticker,
// invokes service.Stop() under a
// bounded timeout, cancels the supervising task, and waits for it to
// unwind.
func (s *Supervisor) StopService(ctx context.Context, name string) error {
	e := s.get(name)
	if e == nil {
		return ErrNotFound
	}

	s.mu.Lock()
	e.userStopped = true
	s.mu.Unlock()

	if e.cronTask != nil {
		e.cronTask.cancel() // idempotent; cron loop observes this and exits
	}

	s.mu.Lock()
	status := e.status
	if status == StatusStopped || status == StatusCrashed {
		s.mu.Unlock()
		return nil
	}
	s.recordTransition(name, status, StatusStopping)
	e.status = StatusStopping
	task := e.supervising
	s.mu.Unlock()

	s.log.Info("service stopping", "name", name)
	s.bus.publish(LifecycleEvent{Kind: EventStopping, Name: name})

	metrics.IncStop(name)
	var stopErr error
	stopDone := make(chan error, 1)
	go func() {
		stopCtx, cancel := context.WithTimeout(ctx, e.config.StopTimeout)
		defer cancel()
		stopDone <- e.svc.Stop(stopCtx)
	}()
	select {
	case stopErr = <-stopDone:
	case <-time.After(e.config.StopTimeout):
		stopErr = ErrStopTimeout
	}

	if task != nil {
		task.cancel()
		<-task.done
	}

	s.mu.Lock()
	s.recordTransition(name, e.status, StatusStopped)
	e.status = StatusStopped
	e.restartCount = 0
	s.mu.Unlock()

	s.log.Info("service stopped", "name", name)
	s.bus.publish(LifecycleEvent{Kind: EventStopped, Name: name})

	if errors.Is(stopErr, ErrStopTimeout) {
		return ErrStopTimeout
	}
	return nil
}

// RestartService is StopService followed by StartService.
func (s *Supervisor) RestartService(ctx context.Context, name string) error {
	if err := s.StopService(ctx, name); err != nil && !errors.Is(err, ErrStopTimeout) {
		return err
	}
	return s.StartService(ctx, name)
}
