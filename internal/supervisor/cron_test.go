package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronFiresOnScheduleAndEntryStartsScheduled(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	svc := newFakeService("cron1")
	cfg := ServiceConfig{
		RestartPolicy: RestartNo,
		Cron:          &CronConfig{Trigger: fixedTrigger{interval: 15 * time.Millisecond}},
	}
	require.NoError(t, sup.AddService(svc, cfg))

	status, err := sup.Status("cron1")
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, status)

	require.Eventually(t, func() bool {
		return svc.StartCalls() >= 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, sup.RemoveService(context.Background(), "cron1"))
}

func TestCronSkipsOverlappingTick(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	svc := newFakeService("cron2")
	svc.startDelay = 100 * time.Millisecond // longer than the tick interval
	cfg := ServiceConfig{
		RestartPolicy: RestartNo,
		Cron: &CronConfig{
			Trigger: fixedTrigger{interval: 20 * time.Millisecond},
			Timeout: 500 * time.Millisecond,
		},
	}
	require.NoError(t, sup.AddService(svc, cfg))

	time.Sleep(150 * time.Millisecond)
	// With a 100ms start delay and a 20ms tick interval, the ticker only
	// asks for the next fire once the previous invocation has returned, so
	// invocations never overlap; the start count should be far below what a
	// free-running 20ms ticker would have produced (~7 ticks in 150ms).
	assert.Less(t, svc.StartCalls(), 5)

	require.NoError(t, sup.RemoveService(context.Background(), "cron2"))
}

func TestCronStopsWhenUserStopped(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	svc := newFakeService("cron3")
	cfg := ServiceConfig{
		RestartPolicy: RestartNo,
		Cron:          &CronConfig{Trigger: fixedTrigger{interval: 10 * time.Millisecond}},
	}
	require.NoError(t, sup.AddService(svc, cfg))

	require.Eventually(t, func() bool {
		return svc.StartCalls() >= 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, sup.StopService(context.Background(), "cron3"))
	countAtStop := svc.StartCalls()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, countAtStop, svc.StartCalls())
}
