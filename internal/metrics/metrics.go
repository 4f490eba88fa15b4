// Package metrics exposes the supervisor's Prometheus collectors: a
// Register-once-then-no-op pattern, counter/histogram/gauge shapes
// relabeled from per-OS-process metrics to per-managed-service ones.
package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	regOK atomic.Bool

	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcsuper",
			Subsystem: "service",
			Name:      "starts_total",
			Help:      "Number of start attempts made by the supervisor.",
		}, []string{"name"},
	)
	serviceRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcsuper",
			Subsystem: "service",
			Name:      "restarts_total",
			Help:      "Number of restarts scheduled by the restart policy evaluator.",
		}, []string{"name"},
	)
	serviceStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcsuper",
			Subsystem: "service",
			Name:      "stops_total",
			Help:      "Number of stops, graceful or timed out.",
		}, []string{"name"},
	)
	restartBackoff = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "svcsuper",
			Subsystem: "service",
			Name:      "restart_backoff_seconds",
			Help:      "Computed backoff delay before each restart attempt.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"name"},
	)
	stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcsuper",
			Subsystem: "service",
			Name:      "state_transitions_total",
			Help:      "Number of managed-status transitions.",
		}, []string{"name", "from", "to"},
	)
	currentState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "svcsuper",
			Subsystem: "service",
			Name:      "current_state",
			Help:      "Current managed status of each service (1 = active state, 0 = inactive).",
		}, []string{"name", "state"},
	)
	cronNextSchedule = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "svcsuper",
			Subsystem: "cron",
			Name:      "next_schedule_unix",
			Help:      "Unix timestamp of the next scheduled cron fire per service.",
		}, []string{"name"},
	)
	cronSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcsuper",
			Subsystem: "cron",
			Name:      "skipped_total",
			Help:      "Number of cron ticks skipped due to an overlapping invocation.",
		}, []string{"name"},
	)
)

// Register registers all collectors with r. Safe to call more than once;
// later calls after a success are no-ops, tolerating
// prometheus.AlreadyRegisteredError.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		serviceStarts, serviceRestarts, serviceStops, restartBackoff,
		stateTransitions, currentState, cronNextSchedule, cronSkips,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler serves the default Prometheus gatherer over HTTP.
func Handler() http.Handler { return promhttp.Handler() }

func IncStart(name string) {
	if regOK.Load() {
		serviceStarts.WithLabelValues(name).Inc()
	}
}

func IncRestart(name string) {
	if regOK.Load() {
		serviceRestarts.WithLabelValues(name).Inc()
	}
}

func IncStop(name string) {
	if regOK.Load() {
		serviceStops.WithLabelValues(name).Inc()
	}
}

func ObserveRestartBackoff(name string, seconds float64) {
	if regOK.Load() {
		restartBackoff.WithLabelValues(name).Observe(seconds)
	}
}

func RecordStateTransition(name, from, to string) {
	if regOK.Load() {
		stateTransitions.WithLabelValues(name, from, to).Inc()
	}
}

func SetCurrentState(name, state string, active bool) {
	if regOK.Load() {
		v := 0.0
		if active {
			v = 1
		}
		currentState.WithLabelValues(name, state).Set(v)
	}
}

func SetCronNextSchedule(name string, unix float64) {
	if regOK.Load() {
		cronNextSchedule.WithLabelValues(name).Set(unix)
	}
}

func IncCronSkipped(name string) {
	if regOK.Load() {
		cronSkips.WithLabelValues(name).Inc()
	}
}
