// Package svcconfig loads the daemon's declarative configuration file,
// grounded on internal/config/config.go's viper+mapstructure loader:
// the same ReadInConfig/Unmarshal skeleton and the same discriminated-union
// decoding pattern for typed sub-entries (there: {type, spec} for
// process/cronjob; here: per-service restart policy and an optional cron
// block), generalized from OS-process specs to the opaque-service registry
// this repository supervises.
package svcconfig

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/loykin/svcsuper/internal/supervisor"
)

// Config is the root of the daemon config file (TOML/YAML/JSON, whichever
// viper's extension sniffing picks).
type Config struct {
	Log      *LogConfig      `mapstructure:"log"`
	Metrics  *MetricsConfig  `mapstructure:"metrics"`
	HTTP     *HTTPConfig     `mapstructure:"http"`
	EventLog *EventLogConfig `mapstructure:"event_log"`
	Services []ServiceEntry  `mapstructure:"services"`

	// Computed
	ServiceSpecs []ServiceSpec `mapstructure:"-"`
}

type LogConfig struct {
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	AlsoStdout bool   `mapstructure:"also_stdout"`
	Color      bool   `mapstructure:"color"`
	Level      string `mapstructure:"level"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// HTTPConfig configures the read-only status surface (internal/httpapi).
type HTTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Listen   string `mapstructure:"listen"`
	BasePath string `mapstructure:"base_path"`
	Engine   string `mapstructure:"engine"` // "gin" (default) or "echo"
}

// EventLogConfig configures the append-only audit sink (internal/eventsink).
type EventLogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Driver  string `mapstructure:"driver"` // "sqlite", "postgres", "clickhouse"
	DSN     string `mapstructure:"dsn"`
	Table   string `mapstructure:"table"`
}

// ServiceEntry is one [[services]] block: declarative restart/cron/timeout
// policy for a service the process registers with supervisor.AddService at
// startup (the service implementation itself is provided by the embedding
// program, not decoded from config — service.Service is an opaque
// interface).
type ServiceEntry struct {
	Name          string     `mapstructure:"name"`
	RestartPolicy string     `mapstructure:"restart_policy"`
	MaxRetries    *int       `mapstructure:"max_retries"`
	BackoffBaseMs int64      `mapstructure:"backoff_base_ms"`
	BackoffMaxMs  int64      `mapstructure:"backoff_max_ms"`
	StopTimeoutMs int64      `mapstructure:"stop_timeout_ms"`
	HealthTimeMs  int64      `mapstructure:"health_timeout_ms"`
	Cron          *CronEntry `mapstructure:"cron"`
}

type CronEntry struct {
	Schedule  string `mapstructure:"schedule"`
	TimeZone  string `mapstructure:"timezone"`
	TimeoutMs int64  `mapstructure:"timeout_ms"`
}

// ServiceSpec is ServiceEntry decoded into ready-to-use supervisor types;
// Cron.Trigger is left nil here since building the concrete
// cronsched.RobfigTrigger requires importing that package, which svcconfig
// deliberately does not — callers build it from CronEntry themselves (see
// cmd/supervisorctl's config wiring) to keep this package trigger-agnostic.
type ServiceSpec struct {
	Name   string
	Config supervisor.ServiceConfig
	Cron   *CronEntry
}

// Load parses configPath with viper (format inferred from extension) and
// decodes it via mapstructure, same two-step shape as
// internal/config/config.go's parseConfigFile + per-field decodeTo.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("svcconfig: read config: %w", err)
	}

	cfg := &Config{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("svcconfig: build decoder: %w", err)
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("svcconfig: decode config: %w", err)
	}

	specs := make([]ServiceSpec, 0, len(cfg.Services))
	for _, entry := range cfg.Services {
		spec, err := entry.toServiceSpec()
		if err != nil {
			return nil, fmt.Errorf("svcconfig: service %q: %w", entry.Name, err)
		}
		specs = append(specs, spec)
	}
	cfg.ServiceSpecs = specs
	return cfg, nil
}

func (e ServiceEntry) toServiceSpec() (ServiceSpec, error) {
	if e.Name == "" {
		return ServiceSpec{}, fmt.Errorf("service entry requires a name")
	}

	policy := supervisor.RestartPolicy(e.RestartPolicy)
	switch policy {
	case "":
		policy = supervisor.RestartNo
	case supervisor.RestartNo, supervisor.RestartOnFailure, supervisor.RestartAlways, supervisor.RestartUnlessStopped:
	default:
		return ServiceSpec{}, fmt.Errorf("unknown restart_policy %q", e.RestartPolicy)
	}

	sc := supervisor.ServiceConfig{
		RestartPolicy: policy,
		BackoffBaseMs: e.BackoffBaseMs,
		BackoffMaxMs:  e.BackoffMaxMs,
	}
	if e.MaxRetries != nil {
		sc.MaxRetries = *e.MaxRetries
		sc.MaxRetriesSet = true
	}
	if e.StopTimeoutMs > 0 {
		sc.StopTimeout = time.Duration(e.StopTimeoutMs) * time.Millisecond
	}
	if e.HealthTimeMs > 0 {
		sc.HealthTimeout = time.Duration(e.HealthTimeMs) * time.Millisecond
	}

	return ServiceSpec{Name: e.Name, Config: sc, Cron: e.Cron}, nil
}
