// Package eventsink defines the audit-log destination contract and its
// two concrete backends, ported from internal/history/history.go. This is
// a deliberately different concern from the dropped internal/store package:
// a sink only ever appends records of what already happened and is never
// read back to reconstruct supervisor state at startup, so it does not
// conflict with the "no persistent state across restarts" non-goal.
package eventsink

import (
	"context"

	"github.com/loykin/svcsuper/internal/supervisor"
)

// Sink is a destination for lifecycle events, fed by a subscriber loop over
// supervisor.Supervisor.Events(). Implementations must be safe for
// concurrent use the way internal/history.Sink is.
type Sink interface {
	Send(ctx context.Context, e supervisor.LifecycleEvent) error
}

// Run drains events from ch and forwards each to sink until ch closes or
// ctx is cancelled. Send failures are reported through onError rather than
// aborting the loop: one bad write must not stall lifecycle processing.
func Run(ctx context.Context, ch <-chan supervisor.LifecycleEvent, sink Sink, onError func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := sink.Send(ctx, evt); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}
