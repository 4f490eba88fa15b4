package supervisor

import (
	"context"
	"time"

	"github.com/loykin/svcsuper/internal/service"
)

// HealthReport is the Health Aggregator's output for one service: the
// supervisor's own managed status is authoritative, and the service's
// self-reported health is folded in as supplementary detail,
// never overriding a managed status of crashed/stopped/stopping.
type HealthReport struct {
	Name          string
	ManagedStatus ManagedStatus
	RestartCount  int
	Reported      service.ReportedHealth
	ReportedErr   string
	Timestamp     time.Time
}

const defaultHealthCheckTimeout = 2 * time.Second

// HealthCheckService composes the entry's managed status with a
// timeout-bounded call to the service's own HealthCheck, grounded on
// internal/manager/manager.go's Status() but extended with a self-report
// call layered on top of it.
func (s *Supervisor) HealthCheckService(ctx context.Context, name string) (HealthReport, error) {
	e := s.get(name)
	if e == nil {
		return HealthReport{}, ErrNotFound
	}

	s.mu.Lock()
	status := e.status
	restartCount := e.restartCount
	timeout := e.config.HealthTimeout
	s.mu.Unlock()
	if timeout <= 0 {
		timeout = defaultHealthCheckTimeout
	}

	report := HealthReport{
		Name:          name,
		ManagedStatus: status,
		RestartCount:  restartCount,
		Timestamp:     time.Now(),
	}

	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		h   service.ReportedHealth
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		h, err := e.svc.HealthCheck(hctx)
		resultCh <- result{h, err}
	}()

	select {
	case r := <-resultCh:
		report.Reported = r.h
		if r.err != nil {
			report.ReportedErr = r.err.Error()
		}
	case <-hctx.Done():
		report.ReportedErr = "health check timed out"
	}

	s.mu.Lock()
	e.lastHealth = report.Reported
	if report.ReportedErr != "" {
		e.lastHealthErr = hctx.Err()
	} else {
		e.lastHealthErr = nil
	}
	s.mu.Unlock()

	s.bus.publish(LifecycleEvent{Kind: EventHealthChecked, Name: name})
	return report, nil
}

// HealthCheckAllServices runs HealthCheckService across every registered
// service with unbounded concurrency (health checks are read-only and
// individually timeout-bounded, unlike the fan-out lifecycle operations in
// fanout.go). A per-service failure becomes an unhealthy report rather than
// aborting the sweep, matching fanout.go's independent-failure-accounting.
func (s *Supervisor) HealthCheckAllServices(ctx context.Context) map[string]HealthReport {
	names := s.Services()
	type pair struct {
		name   string
		report HealthReport
	}
	resultCh := make(chan pair, len(names))

	for _, name := range names {
		go func(name string) {
			report, err := s.HealthCheckService(ctx, name)
			if err != nil {
				report = HealthReport{Name: name, ManagedStatus: StatusCrashed, ReportedErr: err.Error(), Timestamp: time.Now()}
			}
			resultCh <- pair{name, report}
		}(name)
	}

	out := make(map[string]HealthReport, len(names))
	for range names {
		p := <-resultCh
		out[p.name] = p.report
	}
	return out
}
