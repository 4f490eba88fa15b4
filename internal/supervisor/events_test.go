package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsPublishesLifecycleTransitions(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	events, unsubscribe := sup.Events()
	defer unsubscribe()

	svc := newFakeService("ev1")
	require.NoError(t, sup.AddService(svc, noJitterConfig(RestartNo)))
	require.NoError(t, sup.StartService(context.Background(), "ev1"))

	seen := map[EventKind]bool{}
	deadline := time.After(500 * time.Millisecond)
	for len(seen) < 3 {
		select {
		case e := <-events:
			seen[e.Kind] = true
		case <-deadline:
			t.Fatalf("timed out waiting for events, saw: %v", seen)
		}
	}
	assert.True(t, seen[EventAdded])
	assert.True(t, seen[EventStarting])
}

func TestEventBusDropsOldestWhenSubscriberFalseBehind(t *testing.T) {
	bus := newEventBus()
	bus.cap = 2
	ch, unsubscribe := bus.subscribe()
	defer unsubscribe()

	bus.publish(LifecycleEvent{Kind: EventAdded, Name: "one"})
	bus.publish(LifecycleEvent{Kind: EventStarting, Name: "two"})
	bus.publish(LifecycleEvent{Kind: EventRunning, Name: "three"}) // evicts "one"

	first := <-ch
	second := <-ch
	assert.Equal(t, "two", first.Name)
	assert.Equal(t, "three", second.Name)

	select {
	case <-ch:
		t.Fatal("expected channel to be empty after draining both buffered events")
	default:
	}
}

func TestEventBusUnsubscribeClosesChannel(t *testing.T) {
	bus := newEventBus()
	ch, unsubscribe := bus.subscribe()
	unsubscribe()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestEventBusStampsIDAndTimestampWhenUnset(t *testing.T) {
	bus := newEventBus()
	ch, unsubscribe := bus.subscribe()
	defer unsubscribe()

	bus.publish(LifecycleEvent{Kind: EventAdded, Name: "svc"})
	evt := <-ch
	assert.NotEmpty(t, evt.ID)
	assert.False(t, evt.Timestamp.IsZero())
}

func TestEventBusPreservesExplicitID(t *testing.T) {
	bus := newEventBus()
	ch, unsubscribe := bus.subscribe()
	defer unsubscribe()

	bus.publish(LifecycleEvent{ID: "fixed-id", Kind: EventCronFired, Name: "svc"})
	evt := <-ch
	assert.Equal(t, "fixed-id", evt.ID)
}

func TestEventBusHistoryTrimsToCap(t *testing.T) {
	bus := newEventBus()
	bus.histCap = 3
	for i := 0; i < 5; i++ {
		bus.publish(LifecycleEvent{Kind: EventHealthChecked, Name: "svc"})
	}
	history := bus.historyFor("svc")
	assert.Len(t, history, 3)

	empty := bus.historyFor("unknown")
	assert.Empty(t, empty)
}

func TestSupervisorServiceHistoryReflectsLifecycle(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	svc := newFakeService("hist1")
	require.NoError(t, sup.AddService(svc, noJitterConfig(RestartNo)))
	require.NoError(t, sup.StartService(context.Background(), "hist1"))
	time.Sleep(50 * time.Millisecond)

	history := sup.ServiceHistory("hist1")
	require.NotEmpty(t, history)
	assert.Equal(t, "hist1", history[0].Name)
}
