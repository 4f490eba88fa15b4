package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAllServicesIsolatesFailures(t *testing.T) {
	sup := New(WithLogger(discardLogger()), WithFanoutConcurrency(4))
	good := newFakeService("good")
	bad := newFakeService("bad")
	bad.startErr = assertErr

	require.NoError(t, sup.AddService(good, noJitterConfig(RestartNo)))
	require.NoError(t, sup.AddService(bad, noJitterConfig(RestartNo)))

	err := sup.StartAllServices(context.Background())
	require.Error(t, err)

	var agg *AggregateError
	require.True(t, errors.As(err, &agg))
	assert.Len(t, agg.Causes, 1)
	assert.Contains(t, agg.Causes, "bad")

	goodStatus, _ := sup.Status("good")
	assert.Equal(t, StatusStopped, goodStatus) // short-lived success settles to stopped under RestartNo
}

func TestStartAllServicesEmptyRegistryIsNoop(t *testing.T) {
	sup := New(WithLogger(discardLogger()))
	assert.NoError(t, sup.StartAllServices(context.Background()))
}

func TestStopAllServicesBoundedConcurrency(t *testing.T) {
	sup := New(WithLogger(discardLogger()), WithFanoutConcurrency(2))
	names := []string{"a", "b", "c", "d", "e"}
	services := make([]*fakeService, 0, len(names))
	for _, n := range names {
		svc := newFakeService(n)
		svc.blockUntilStop = true
		services = append(services, svc)
		cfg := noJitterConfig(RestartNo)
		cfg.StopTimeout = 200 * time.Millisecond
		require.NoError(t, sup.AddService(svc, cfg))
		require.NoError(t, sup.StartService(context.Background(), n))
	}

	err := sup.StopAllServices(context.Background())
	assert.NoError(t, err)

	for _, svc := range services {
		status, statusErr := sup.Status(svc.name)
		require.NoError(t, statusErr)
		assert.Equal(t, StatusStopped, status)
		assert.Equal(t, 1, svc.StopCalls())
	}
}
