// Package exampleservice provides a small in-memory service.Service used
// by cmd/supervisorctl's demo config and by callers wiring their first
// service against this supervisor. It is not a teacher port — the
// teacher's equivalent concept is an OS process launched by command
// string, which has no analogue once Start/Stop become arbitrary Go
// closures — so this is written fresh in the idiom of the rest of the
// ambient stack (slog logging, context-respecting loops).
package exampleservice

import (
	"context"
	"log/slog"
	"time"

	"github.com/loykin/svcsuper/internal/service"
)

// Ticker is a long-running demo service that logs a heartbeat every
// interval until its context is cancelled.
type Ticker struct {
	name     string
	interval time.Duration
	log      *slog.Logger
}

func NewTicker(name string, interval time.Duration, log *slog.Logger) *Ticker {
	return &Ticker{name: name, interval: interval, log: log}
}

func (t *Ticker) Name() string { return t.name }

func (t *Ticker) Start(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.log.Info("heartbeat", "service", t.name)
		}
	}
}

func (t *Ticker) Stop(ctx context.Context) error {
	return nil // Start's ctx cancellation already unwinds the loop
}

func (t *Ticker) HealthCheck(ctx context.Context) (service.ReportedHealth, error) {
	return service.ReportedHealth{Status: "ok"}, nil
}
