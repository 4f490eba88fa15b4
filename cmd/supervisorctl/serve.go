package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/loykin/svcsuper/internal/applog"
	"github.com/loykin/svcsuper/internal/cronsched"
	"github.com/loykin/svcsuper/internal/echoapi"
	"github.com/loykin/svcsuper/internal/eventsink"
	"github.com/loykin/svcsuper/internal/exampleservice"
	"github.com/loykin/svcsuper/internal/httpapi"
	"github.com/loykin/svcsuper/internal/metrics"
	"github.com/loykin/svcsuper/internal/supervisor"
	"github.com/loykin/svcsuper/internal/svcconfig"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the supervisor daemon until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func runServe(configPath string) error {
	if configPath == "" {
		return fmt.Errorf("serve: --config is required")
	}
	cfg, err := svcconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	log := buildLogger(cfg.Log)
	sup := supervisor.New(supervisor.WithLogger(log))

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("serve: register metrics: %w", err)
		}
		go serveMetrics(cfg.Metrics.Listen, log)
	}

	if err := registerConfiguredServices(sup, cfg.ServiceSpecs, log); err != nil {
		return err
	}

	var sink eventsink.Sink
	if cfg.EventLog != nil && cfg.EventLog.Enabled {
		sink, err = buildSink(*cfg.EventLog)
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		events, unsubscribe := sup.Events()
		defer unsubscribe()
		go eventsink.Run(context.Background(), events, sink, func(err error) {
			log.Warn("event sink write failed", "error", err)
		})
	}

	if cfg.HTTP != nil && cfg.HTTP.Enabled {
		if err := serveHTTP(*cfg.HTTP, sup, log); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sup.StartAllServices(ctx); err != nil {
		log.Warn("one or more services failed to start", "error", err)
	}

	<-ctx.Done()
	log.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sup.StopAllServices(stopCtx); err != nil {
		log.Warn("one or more services failed to stop cleanly", "error", err)
	}
	return nil
}

func buildLogger(cfg *svcconfig.LogConfig) *slog.Logger {
	if cfg == nil {
		return applog.New(applog.Config{AlsoStdout: true})
	}
	level := slog.LevelInfo
	if cfg.Level != "" {
		_ = level.UnmarshalText([]byte(cfg.Level))
	}
	return applog.New(applog.Config{
		FilePath:   cfg.FilePath,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		AlsoStdout: cfg.AlsoStdout,
		Color:      cfg.Color,
		Level:      level,
	})
}

func registerConfiguredServices(sup *supervisor.Supervisor, specs []svcconfig.ServiceSpec, log *slog.Logger) error {
	for _, spec := range specs {
		config := spec.Config
		if spec.Cron != nil {
			trigger, err := cronsched.NewRobfigTrigger(spec.Cron.Schedule)
			if err != nil {
				return fmt.Errorf("serve: service %q: %w", spec.Name, err)
			}
			config.Cron = &supervisor.CronConfig{
				Trigger: trigger,
				Timeout: time.Duration(spec.Cron.TimeoutMs) * time.Millisecond,
			}
		}
		svc := exampleservice.NewTicker(spec.Name, 5*time.Second, log)
		if err := sup.AddService(svc, config); err != nil {
			return fmt.Errorf("serve: register service %q: %w", spec.Name, err)
		}
	}
	return nil
}

func buildSink(cfg svcconfig.EventLogConfig) (eventsink.Sink, error) {
	switch cfg.Driver {
	case "clickhouse":
		return eventsink.NewClickHouseSink(cfg.DSN, cfg.Table), nil
	case "sqlite", "postgres", "":
		return eventsink.NewSQLSinkFromDSN(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown event_log driver %q", cfg.Driver)
	}
}

func serveHTTP(cfg svcconfig.HTTPConfig, sup *supervisor.Supervisor, log *slog.Logger) error {
	if cfg.Engine == "echo" {
		_, err := echoapi.NewServer(cfg.Listen, cfg.BasePath, sup)
		if err != nil {
			return err
		}
		log.Info("echo status API listening", "addr", cfg.Listen)
		return nil
	}
	_, err := httpapi.NewServer(cfg.Listen, cfg.BasePath, sup)
	if err != nil {
		return err
	}
	log.Info("gin status API listening", "addr", cfg.Listen)
	return nil
}

func serveMetrics(addr string, log *slog.Logger) {
	log.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, metrics.Handler()); err != nil { //nolint:gosec // internal metrics endpoint
		log.Error("metrics server stopped", "error", err)
	}
}
