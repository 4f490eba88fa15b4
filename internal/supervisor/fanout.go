package supervisor

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// StartAllServices starts every registered service with bounded
// concurrency. One service's failure never aborts the others: we
// deliberately do not rely on errgroup.Group's fail-fast Wait() the way a
// single dependent pipeline would; instead every goroutine's error is
// collected independently and folded into one AggregateError, the way a
// process fleet's StartAll must tolerate partial failure.
func (s *Supervisor) StartAllServices(ctx context.Context) error {
	return s.fanout(ctx, s.StartService)
}

// StopAllServices stops every registered service with the same bounded,
// independent-failure fan-out as StartAllServices.
func (s *Supervisor) StopAllServices(ctx context.Context) error {
	return s.fanout(ctx, s.StopService)
}

func (s *Supervisor) fanout(ctx context.Context, op func(context.Context, string) error) error {
	names := s.Services()
	if len(names) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanoutConcurrency)

	causes := make(map[string]error)

	type failure struct {
		name string
		err  error
	}
	failuresCh := make(chan failure, len(names))

	for _, name := range names {
		name := name
		g.Go(func() error {
			// Each op call gets the shared context but never aborts siblings on
			// error; errgroup's context cancellation here only propagates an
			// outer caller cancellation, not a sibling's failure, since we never
			// return a non-nil error from this closure.
			if err := op(gctx, name); err != nil {
				failuresCh <- failure{name, err}
			}
			return nil
		})
	}
	_ = g.Wait()
	close(failuresCh)

	for f := range failuresCh {
		causes[f.name] = f.err
	}
	return newAggregateError(causes)
}
