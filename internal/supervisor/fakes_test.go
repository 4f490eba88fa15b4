package supervisor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loykin/svcsuper/internal/service"
)

// fakeService is an in-memory service.Service used throughout this
// package's tests. It supports scripted start behavior (succeed after a
// delay, fail after a delay, or block until ctx is cancelled) and counts
// invocations so tests can assert on attempt counts without sleeping past
// the whole supervising loop.
type fakeService struct {
	name string

	mu         sync.Mutex
	startCalls int32
	stopCalls  int32

	// startFn, when set, is called on every Start invocation and its
	// result returned directly; overrides the delay/err scripting below.
	startFn func(ctx context.Context, attempt int) error

	startDelay time.Duration
	startErr   error
	// blockUntilStop makes Start hang until ctx is cancelled or Stop is
	// called, simulating a long-running service.
	blockUntilStop bool

	stopErr   error
	stopDelay time.Duration

	health      service.ReportedHealth
	healthErr   error
	healthDelay time.Duration

	stopSignal chan struct{}
}

func newFakeService(name string) *fakeService {
	return &fakeService{name: name, stopSignal: make(chan struct{}, 1)}
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(ctx context.Context) error {
	n := int(atomic.AddInt32(&f.startCalls, 1))

	if f.startFn != nil {
		return f.startFn(ctx, n)
	}

	if f.blockUntilStop {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.stopSignal:
			return nil
		}
	}

	if f.startDelay > 0 {
		select {
		case <-time.After(f.startDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.startErr
}

func (f *fakeService) Stop(ctx context.Context) error {
	atomic.AddInt32(&f.stopCalls, 1)
	select {
	case f.stopSignal <- struct{}{}:
	default:
	}
	if f.stopDelay > 0 {
		select {
		case <-time.After(f.stopDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.stopErr
}

func (f *fakeService) HealthCheck(ctx context.Context) (service.ReportedHealth, error) {
	if f.healthDelay > 0 {
		select {
		case <-time.After(f.healthDelay):
		case <-ctx.Done():
			return service.ReportedHealth{}, ctx.Err()
		}
	}
	return f.health, f.healthErr
}

func (f *fakeService) StartCalls() int {
	return int(atomic.LoadInt32(&f.startCalls))
}

func (f *fakeService) StopCalls() int {
	return int(atomic.LoadInt32(&f.stopCalls))
}

// fixedTrigger fires a constant interval after the time it is asked, used
// by cron tests in place of a real cron-expression parser.
type fixedTrigger struct {
	interval time.Duration
}

func (t fixedTrigger) NextFire(now time.Time) time.Time {
	return now.Add(t.interval)
}
