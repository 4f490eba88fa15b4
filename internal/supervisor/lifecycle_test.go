package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noJitterConfig(policy RestartPolicy) ServiceConfig {
	return ServiceConfig{
		RestartPolicy:  policy,
		MaxRetries:     2,
		MaxRetriesSet:  true,
		BackoffBaseMs:  5,
		BackoffMaxMs:   5,
		JitterDisabled: true,
		StopTimeout:    200 * time.Millisecond,
	}
}

// S1: policy=no, start fails immediately -> crashed after exactly one call.
func TestLifecycleNoRestartOnImmediateFailure(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	svc := newFakeService("s1")
	svc.startErr = assertErr
	require.NoError(t, sup.AddService(svc, noJitterConfig(RestartNo)))

	err := sup.StartService(context.Background(), "s1")
	require.Error(t, err)

	time.Sleep(20 * time.Millisecond)
	status, err := sup.Status("s1")
	require.NoError(t, err)
	assert.Equal(t, StatusCrashed, status)
	assert.Equal(t, 1, svc.StartCalls())
}

// S2: short-lived success, policy=no -> stopped, one call.
func TestLifecycleNoRestartOnSuccess(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	svc := newFakeService("s2")
	require.NoError(t, sup.AddService(svc, noJitterConfig(RestartNo)))

	require.NoError(t, sup.StartService(context.Background(), "s2"))
	time.Sleep(20 * time.Millisecond)

	status, err := sup.Status("s2")
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, status)
	assert.Equal(t, 1, svc.StartCalls())
}

// S3: on-failure with maxRetries=2 exhausts retries then crashes, having
// attempted exactly MaxRetries+1 total starts.
func TestLifecycleOnFailureExhaustsRetries(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	svc := newFakeService("s3")
	svc.startErr = assertErr
	require.NoError(t, sup.AddService(svc, noJitterConfig(RestartOnFailure)))

	_ = sup.StartService(context.Background(), "s3")
	require.Eventually(t, func() bool {
		status, _ := sup.Status("s3")
		return status == StatusCrashed
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 3, svc.StartCalls()) // initial + 2 retries
}

// S4: StopService on a crashed service is a no-op, and a subsequent
// StartService resets restartCount, so the second round gets the full
// MaxRetries retries again.
func TestLifecycleStartResetsRestartCount(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	svc := newFakeService("s4")
	svc.startErr = assertErr
	cfg := noJitterConfig(RestartOnFailure)
	require.NoError(t, sup.AddService(svc, cfg))

	_ = sup.StartService(context.Background(), "s4")
	require.Eventually(t, func() bool {
		status, _ := sup.Status("s4")
		return status == StatusCrashed
	}, time.Second, 5*time.Millisecond)
	firstRoundCalls := svc.StartCalls()
	require.Equal(t, 3, firstRoundCalls)

	require.NoError(t, sup.StopService(context.Background(), "s4"))

	// Second round still fails; without a reset it would crash after one call.
	_ = sup.StartService(context.Background(), "s4")
	require.Eventually(t, func() bool {
		status, _ := sup.Status("s4")
		return status == StatusCrashed
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2*firstRoundCalls, svc.StartCalls())
}

// S5: RestartAlways keeps restarting a successful short-lived service until
// explicitly stopped, and stopping halts further invocations.
func TestLifecycleAlwaysRestartsUntilStopped(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	svc := newFakeService("s5")
	require.NoError(t, sup.AddService(svc, noJitterConfig(RestartAlways)))

	require.NoError(t, sup.StartService(context.Background(), "s5"))
	time.Sleep(40 * time.Millisecond)
	assert.GreaterOrEqual(t, svc.StartCalls(), 2)

	require.NoError(t, sup.StopService(context.Background(), "s5"))
	status, err := sup.Status("s5")
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, status)

	countAfterStop := svc.StartCalls()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, countAfterStop, svc.StartCalls(), "no further start() invocations once stopped")
}

// S6: a long-running service (blocks until stopped) reaches Running after
// the grace window and StopService converges it to Stopped within its
// configured stop timeout.
func TestLifecycleLongRunningReachesRunningThenStops(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	svc := newFakeService("s6")
	svc.blockUntilStop = true
	cfg := noJitterConfig(RestartNo)
	cfg.StopTimeout = 200 * time.Millisecond
	require.NoError(t, sup.AddService(svc, cfg))

	require.NoError(t, sup.StartService(context.Background(), "s6"))

	require.Eventually(t, func() bool {
		status, _ := sup.Status("s6")
		return status == StatusRunning
	}, time.Second, 5*time.Millisecond)

	start := time.Now()
	require.NoError(t, sup.StopService(context.Background(), "s6"))
	elapsed := time.Since(start)
	assert.Less(t, elapsed, cfg.StopTimeout+100*time.Millisecond)

	status, err := sup.Status("s6")
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, status)
	assert.Equal(t, 1, svc.StopCalls())
}

func TestAddServiceRejectsDuplicateName(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	svc := newFakeService("dup")
	require.NoError(t, sup.AddService(svc, ServiceConfig{}))
	err := sup.AddService(newFakeService("dup"), ServiceConfig{})
	assert.ErrorIs(t, err, ErrNameAlreadyExists)
}

func TestAddServiceRejectsEmptyName(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	err := sup.AddService(newFakeService(""), ServiceConfig{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStartServiceUnknownName(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	err := sup.StartService(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServicesMatchingWildcard(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	require.NoError(t, sup.AddService(newFakeService("web-1"), ServiceConfig{}))
	require.NoError(t, sup.AddService(newFakeService("web-2"), ServiceConfig{}))
	require.NoError(t, sup.AddService(newFakeService("db-1"), ServiceConfig{}))

	matched := sup.ServicesMatching("web-*")
	assert.ElementsMatch(t, []string{"web-1", "web-2"}, matched)
}

var assertErr = errSentinel("boom")

type errSentinel string

func (e errSentinel) Error() string { return string(e) }
