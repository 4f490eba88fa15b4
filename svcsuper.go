// Package svcsuper is a thin, stable public facade over internal/supervisor
// and its surrounding infrastructure, mirroring provisr.go's pattern of
// re-exporting internal types as zero-cost aliases and internal
// constructors as package-level functions so embedders never import
// internal/... directly.
package svcsuper

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/svcsuper/internal/cronsched"
	"github.com/loykin/svcsuper/internal/echoapi"
	"github.com/loykin/svcsuper/internal/eventsink"
	"github.com/loykin/svcsuper/internal/httpapi"
	"github.com/loykin/svcsuper/internal/metrics"
	"github.com/loykin/svcsuper/internal/service"
	"github.com/loykin/svcsuper/internal/supervisor"
	"github.com/loykin/svcsuper/internal/svcconfig"
)

// Re-exported core types. These are aliases so conversions are zero-cost.
type (
	Service         = service.Service
	ReportedHealth  = service.ReportedHealth
	ManagedStatus   = supervisor.ManagedStatus
	RestartPolicy   = supervisor.RestartPolicy
	ServiceConfig   = supervisor.ServiceConfig
	CronConfig      = supervisor.CronConfig
	Trigger         = supervisor.Trigger
	HealthReport    = supervisor.HealthReport
	LifecycleEvent  = supervisor.LifecycleEvent
	EventKind       = supervisor.EventKind
	AggregateError  = supervisor.AggregateError
	SupervisorOpt   = supervisor.Option
)

const (
	RestartNo            = supervisor.RestartNo
	RestartOnFailure     = supervisor.RestartOnFailure
	RestartAlways        = supervisor.RestartAlways
	RestartUnlessStopped = supervisor.RestartUnlessStopped
)

// Supervisor is a thin facade over internal/supervisor.Supervisor. It
// exists so that the package-level constructors below (config loading,
// HTTP servers, event sinks) can live alongside the core type without
// forcing embedders to import internal/supervisor themselves.
type Supervisor struct{ inner *supervisor.Supervisor }

func New(opts ...SupervisorOpt) *Supervisor {
	return &Supervisor{inner: supervisor.New(opts...)}
}

func WithLogger(l *slog.Logger) SupervisorOpt { return supervisor.WithLogger(l) }

func WithFanoutConcurrency(n int) SupervisorOpt { return supervisor.WithFanoutConcurrency(n) }

func (s *Supervisor) AddService(svc Service, cfg ServiceConfig) error {
	return s.inner.AddService(svc, cfg)
}
func (s *Supervisor) RemoveService(ctx context.Context, name string) error {
	return s.inner.RemoveService(ctx, name)
}
func (s *Supervisor) StartService(ctx context.Context, name string) error {
	return s.inner.StartService(ctx, name)
}
func (s *Supervisor) StopService(ctx context.Context, name string) error {
	return s.inner.StopService(ctx, name)
}
func (s *Supervisor) RestartService(ctx context.Context, name string) error {
	return s.inner.RestartService(ctx, name)
}
func (s *Supervisor) StartAllServices(ctx context.Context) error { return s.inner.StartAllServices(ctx) }
func (s *Supervisor) StopAllServices(ctx context.Context) error  { return s.inner.StopAllServices(ctx) }
func (s *Supervisor) Services() []string                        { return s.inner.Services() }
func (s *Supervisor) ServicesMatching(pattern string) []string  { return s.inner.ServicesMatching(pattern) }
func (s *Supervisor) Status(name string) (ManagedStatus, error)  { return s.inner.Status(name) }
func (s *Supervisor) Events() (<-chan LifecycleEvent, func())   { return s.inner.Events() }
func (s *Supervisor) HealthCheckService(ctx context.Context, name string) (HealthReport, error) {
	return s.inner.HealthCheckService(ctx, name)
}
func (s *Supervisor) HealthCheckAllServices(ctx context.Context) map[string]HealthReport {
	return s.inner.HealthCheckAllServices(ctx)
}
func (s *Supervisor) ServiceHistory(name string) []LifecycleEvent { return s.inner.ServiceHistory(name) }

// Inner exposes the wrapped *internal/supervisor.Supervisor for callers
// that need to pass it to httpapi/echoapi/eventsink constructors below.
func (s *Supervisor) Inner() *supervisor.Supervisor { return s.inner }

// Config loading

type Config = svcconfig.Config

func LoadConfig(path string) (*Config, error) { return svcconfig.Load(path) }

// Cron trigger construction

func NewCronTrigger(expr string) (Trigger, error) { return cronsched.NewRobfigTrigger(expr) }

func NewCronTriggerInLocation(expr string, loc *time.Location) (Trigger, error) {
	return cronsched.NewRobfigTriggerInLocation(expr, loc)
}

// HTTP status surfaces

func NewHTTPServer(addr, basePath string, s *Supervisor) (*http.Server, error) {
	return httpapi.NewServer(addr, basePath, s.inner)
}

func NewEchoServer(addr, basePath string, s *Supervisor) (*echo.Echo, error) {
	return echoapi.NewServer(addr, basePath, s.inner)
}

// Metrics

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }
func MetricsHandler() http.Handler                  { return metrics.Handler() }

// Event sinks

type EventSink = eventsink.Sink

func NewSQLEventSink(dsn string) (EventSink, error) { return eventsink.NewSQLSinkFromDSN(dsn) }

func NewClickHouseEventSink(baseURL, table string) EventSink {
	return eventsink.NewClickHouseSink(baseURL, table)
}

func RunEventSink(ctx context.Context, ch <-chan LifecycleEvent, sink EventSink, onError func(error)) {
	eventsink.Run(ctx, ch, sink, onError)
}
