package supervisor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventKind enumerates the LifecycleEvent variants.
type EventKind string

const (
	EventAdded            EventKind = "added"
	EventRemoved          EventKind = "removed"
	EventStarting         EventKind = "starting"
	EventRunning          EventKind = "running"
	EventStopping         EventKind = "stopping"
	EventStopped          EventKind = "stopped"
	EventCrashed          EventKind = "crashed"
	EventRestartScheduled EventKind = "restart_scheduled"
	EventCronFired        EventKind = "cron_fired"
	EventCronSkipped      EventKind = "cron_skipped"
	EventHealthChecked    EventKind = "health_checked"
)

// LifecycleEvent is published on the supervisor's event stream for one
// service transition. Attempt/DelayMs are only meaningful for
// EventRestartScheduled; Err is only meaningful for EventCrashed. ID
// correlates an event across the live stream, the history ring buffer, and
// an external event sink row.
type LifecycleEvent struct {
	ID        string
	Kind      EventKind
	Name      string
	Timestamp time.Time
	Attempt   int
	DelayMs   int64
	Err       error
}

// eventBus is a multi-producer, single-topic stream, one per Supervisor.
// Back-pressure policy is drop-oldest: a subscriber that falls behind a
// bounded buffer silently loses its oldest unread event rather than
// blocking a lifecycle transition. This back-pressure behavior must be
// documented per subscriber — a slow dashboard must never stall a restart
// decision.
type eventBus struct {
	mu      sync.Mutex
	subs    map[int]chan LifecycleEvent
	next    int
	cap     int
	history map[string][]LifecycleEvent
	histCap int
}

const defaultEventBufferSize = 64

// defaultHistoryCap bounds the per-service lifecycle ring buffer kept
// independent of any external event sink, grounded on
// internal/cronjob.go's jobHistory trimming (simplified here to a single
// most-recent-N cap rather than a separate successful/failed split, since
// ManagedStatus already distinguishes a crash from a clean stop).
const defaultHistoryCap = 20

func newEventBus() *eventBus {
	return &eventBus{
		subs:    make(map[int]chan LifecycleEvent),
		cap:     defaultEventBufferSize,
		history: make(map[string][]LifecycleEvent),
		histCap: defaultHistoryCap,
	}
}

// subscribe returns a receive-only channel of events and an unsubscribe
// func. The channel is buffered (defaultEventBufferSize); once full, the
// publisher drops the oldest buffered event to make room rather than
// blocking, per the drop-oldest policy above.
func (b *eventBus) subscribe() (<-chan LifecycleEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan LifecycleEvent, b.cap)
	b.subs[id] = ch
	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, unsubscribe
}

func (b *eventBus) publish(evt LifecycleEvent) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	h := append(b.history[evt.Name], evt)
	if len(h) > b.histCap {
		h = h[len(h)-b.histCap:]
	}
	b.history[evt.Name] = h
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// Drop the oldest buffered event for this subscriber, then
			// retry once. Per-service ordering is preserved for everything
			// that survives; cross-service ordering was never guaranteed.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}
}

// historyFor returns a copy of the bounded lifecycle event history
// recorded for name, oldest first.
func (b *eventBus) historyFor(name string) []LifecycleEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.history[name]
	out := make([]LifecycleEvent, len(h))
	copy(out, h)
	return out
}
