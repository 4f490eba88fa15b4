package supervisor

import (
	"context"

	"github.com/loykin/svcsuper/internal/service"
)

// entry is the per-service registry slot, grounded on
// internal/manager/manager.go's entry{r, spec} plus the status/restartCount
// bookkeeping process.Process keeps for a supervised OS process.
//
// All mutable fields are guarded by the owning Supervisor's mutex; entry
// itself holds no lock so that callers never accidentally lock twice.
type entry struct {
	svc    service.Service
	config ServiceConfig

	status        ManagedStatus
	restartCount  int
	userStopped   bool // durable user-requested-stop flag
	supervising   *taskHandle
	cronTask      *cronTaskHandle
	lastHealth    service.ReportedHealth
	lastHealthErr error
}

// taskHandle owns the supervising goroutine that StartService spawns for one
// service. A cron-triggered invocation runs on the ticker goroutine without
// one, and the handle is not cleared when the goroutine exits.
type taskHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// cronTaskHandle owns the ticker goroutine for a cron-configured service,
// independent of the supervising task. The goroutine runs from registration
// until a user stop or removal cancels it.
type cronTaskHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func newEntry(svc service.Service, cfg ServiceConfig) *entry {
	st := StatusStopped
	if cfg.Cron != nil {
		st = StatusScheduled
	}
	return &entry{svc: svc, config: cfg.withDefaults(), status: st}
}
