package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIdempotentAndCountersWork(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	// idempotent: calling again should be a no-op
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}

	IncStart("a")
	IncStart("a")
	IncRestart("a")
	IncStop("a")
	ObserveRestartBackoff("a", 1.25)
	RecordStateTransition("a", "stopped", "starting")
	SetCurrentState("a", "starting", true)
	SetCronNextSchedule("a", 1700000000)
	IncCronSkipped("a")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	wantNames := map[string]bool{
		"svcsuper_service_starts_total":           false,
		"svcsuper_service_restarts_total":         false,
		"svcsuper_service_stops_total":             false,
		"svcsuper_service_restart_backoff_seconds": false,
		"svcsuper_service_state_transitions_total": false,
		"svcsuper_service_current_state":           false,
		"svcsuper_cron_next_schedule_unix":         false,
		"svcsuper_cron_skipped_total":              false,
	}
	for _, mf := range mfs {
		n := mf.GetName()
		if _, ok := wantNames[n]; ok {
			wantNames[n] = true
			if len(mf.GetMetric()) == 0 {
				t.Fatalf("metric %s has no samples", n)
			}
		}
	}
	for n, ok := range wantNames {
		if !ok {
			t.Fatalf("expected to find metric %s", n)
		}
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	regOK.Store(false)
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	IncStart("x")

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != 200 {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	b, _ := io.ReadAll(resp.Body)
	s := string(b)
	if !strings.Contains(s, "svcsuper_service_starts_total") {
		t.Fatalf("metrics output missing starts_total")
	}
}

func TestConcurrentIncrements(t *testing.T) {
	regOK.Store(false)
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			IncStart("concurrent")
			IncStop("concurrent")
		}()
	}
	wg.Wait()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "svcsuper_service_starts_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected starts_total metric family after concurrent increments")
	}
}
