// Package supervisor implements the core service-supervisor state machine:
// a registry of named services, a lifecycle engine driving start/stop/
// restart, a restart-policy evaluator with exponential backoff,
// cron-triggered re-entry, concurrent fan-out, and health reporting that
// reflects supervisor-tracked status rather than a service's own
// self-report.
//
// Its shape generalizes a process-manager registry-plus-lifecycle design
// from OS-process supervision to the opaque three-method service.Service
// contract.
package supervisor

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/loykin/svcsuper/internal/metrics"
	"github.com/loykin/svcsuper/internal/service"
)

// Supervisor owns the registry and drives every service's lifecycle. The
// zero value is not usable; construct with New.
type Supervisor struct {
	mu     sync.Mutex
	order  []string
	byName map[string]*entry

	bus               *eventBus
	fanoutConcurrency int
	log               *slog.Logger
}

// Option configures a Supervisor at construction time.
type Option func(*Supervisor)

// WithFanoutConcurrency overrides the default bounded concurrency (32)
// used by StartAllServices/StopAllServices. HealthCheckAllServices is not
// bounded by it.
func WithFanoutConcurrency(n int) Option {
	return func(s *Supervisor) {
		if n > 0 {
			s.fanoutConcurrency = n
		}
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) { s.log = l }
}

const defaultFanoutConcurrency = 32

// New constructs an empty Supervisor.
func New(opts ...Option) *Supervisor {
	s := &Supervisor{
		byName:            make(map[string]*entry),
		bus:               newEventBus(),
		fanoutConcurrency: defaultFanoutConcurrency,
		log:               slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AddService registers svc under svc.Name() with the given config. It fails
// with ErrNameAlreadyExists if the name is taken. It does not start the
// service; if cfg.Cron is set, the cron ticker task is started immediately
// (it is independent of the supervising task) and the entry begins in
// StatusScheduled, otherwise StatusStopped.
func (s *Supervisor) AddService(svc service.Service, cfg ServiceConfig) error {
	name := svc.Name()
	if strings.TrimSpace(name) == "" {
		return ErrNotFound // a nameless service can never be found again; reject early
	}
	s.mu.Lock()
	if _, exists := s.byName[name]; exists {
		s.mu.Unlock()
		return ErrNameAlreadyExists
	}
	e := newEntry(svc, cfg)
	s.byName[name] = e
	s.order = append(s.order, name)
	s.mu.Unlock()

	s.log.Info("service added", "name", name, "restart_policy", e.config.RestartPolicy)
	s.bus.publish(LifecycleEvent{Kind: EventAdded, Name: name})

	if e.config.Cron != nil {
		s.startCronTask(name, e)
	}
	return nil
}

// RemoveService best-effort stops the service, cancels its cron ticker if
// any, then deletes the entry. It fails with ErrNotFound if absent.
func (s *Supervisor) RemoveService(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.byName[name]
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	_ = s.StopService(ctx, name) // best-effort; errors intentionally swallowed

	s.mu.Lock()
	if e.cronTask != nil {
		e.cronTask.cancel()
	}
	delete(s.byName, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if e.cronTask != nil {
		<-e.cronTask.done
	}

	s.log.Info("service removed", "name", name)
	s.bus.publish(LifecycleEvent{Kind: EventRemoved, Name: name})
	return nil
}

// Services returns registered service names in insertion order.
func (s *Supervisor) Services() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// ServicesMatching returns registered names matching a '*'-wildcard
// pattern, grounded on internal/manager/manager.go's wildcardMatch/StatusMatch.
func (s *Supervisor) ServicesMatching(pattern string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.order))
	for _, n := range s.order {
		if wildcardMatch(n, pattern) {
			out = append(out, n)
		}
	}
	return out
}

// Status returns the current managed status of a service.
func (s *Supervisor) Status(name string) (ManagedStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byName[name]
	if !ok {
		return "", ErrNotFound
	}
	return e.status, nil
}

// Events subscribes to the supervisor's lifecycle event stream. The
// returned unsubscribe func must be called when the caller is done, or the
// subscriber channel leaks. See events.go for the drop-oldest back-pressure
// policy.
func (s *Supervisor) Events() (<-chan LifecycleEvent, func()) {
	return s.bus.subscribe()
}

// ServiceHistory returns the bounded, in-memory lifecycle event history for
// name (oldest first), independent of any external event sink. It returns
// an empty slice for a name with no recorded events, including an unknown
// name, rather than ErrNotFound, since history is advisory.
func (s *Supervisor) ServiceHistory(name string) []LifecycleEvent {
	return s.bus.historyFor(name)
}

// recordTransition updates the state-transition and current-state gauges.
// Caller must hold s.mu.
func (s *Supervisor) recordTransition(name string, from, to ManagedStatus) {
	if from == to {
		return
	}
	metrics.RecordStateTransition(name, string(from), string(to))
	metrics.SetCurrentState(name, string(from), false)
	metrics.SetCurrentState(name, string(to), true)
}

// get returns the entry for name, or nil. Caller must not hold s.mu.
func (s *Supervisor) get(name string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byName[name]
}

// wildcardMatch matches name against a pattern with a single kind of glob,
// '*', matching any substring (including empty), ported verbatim from
// internal/manager/manager.go since the string-matching logic has nothing
// service-specific to adapt.
func wildcardMatch(name, pattern string) bool {
	if pattern == "" {
		return false
	}
	if pattern == "*" {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return name == pattern
	}
	parts := strings.Split(pattern, "*")
	idx := 0
	if parts[0] != "" {
		if !strings.HasPrefix(name, parts[0]) {
			return false
		}
		idx = len(parts[0])
	}
	for i := 1; i < len(parts)-1; i++ {
		p := parts[i]
		if p == "" {
			continue
		}
		j := strings.Index(name[idx:], p)
		if j < 0 {
			return false
		}
		idx += j + len(p)
	}
	last := parts[len(parts)-1]
	if last != "" {
		return strings.HasSuffix(name, last) && idx <= len(name)-len(last)
	}
	return true
}
