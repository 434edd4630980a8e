package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tidewatch-sim/internal/config"
	"tidewatch-sim/internal/fleet"
	"tidewatch-sim/internal/tide"
)

func testConfig() *config.FleetConfig {
	station := func(id string) config.Station {
		return config.Station{
			ID:             id,
			Unit:           "m",
			Low:            0,
			High:           10,
			CriticalMargin: 1.5,
			Seed:           42,
			Model:          config.Model{BaseLevel: 5, Amplitude: 1, PeriodSteps: 120},
		}
	}
	return &config.FleetConfig{
		FleetID:        "test-fleet",
		TickInterval:   config.Duration(time.Hour),
		DebounceWindow: config.Duration(50 * time.Millisecond),
		Stations:       []config.Station{station("st-001"), station("st-002")},
	}
}

// newTestServer runs a two-station fleet in the background and returns a
// server routed against it. The hour-long tick keeps the loops quiet.
func newTestServer(t *testing.T) (*Server, *fleet.Registry) {
	t.Helper()
	reg := fleet.NewRegistry(testConfig(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go reg.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if reg.Snapshot().States[fleet.StateRunning] == 2 {
			return NewServer(reg), reg
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("stations did not reach running state")
	return nil, nil
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodGet, "/snapshot")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %d", w.Code)
	}
	var snap fleet.FleetSnapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if snap.FleetID != "test-fleet" || len(snap.Stations) != 2 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.States[fleet.StateRunning] != 2 {
		t.Errorf("expected 2 running stations, got %+v", snap.States)
	}
}

func TestHandleInterruptAndResume(t *testing.T) {
	srv, reg := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/interrupt")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %d", w.Code)
	}
	var stats fleet.InterruptionStats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if stats.Received != 1 || stats.Pauses != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if got := reg.Snapshot().States[fleet.StatePaused]; got != 2 {
		t.Errorf("expected 2 paused stations, got %d", got)
	}

	w = do(t, h, http.MethodPost, "/resume")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %d", w.Code)
	}
	if got := reg.Snapshot().States[fleet.StateRunning]; got != 2 {
		t.Errorf("expected 2 running stations after resume, got %d", got)
	}
}

func TestHandleStationActions(t *testing.T) {
	srv, reg := newTestServer(t)
	h := srv.Handler()

	if w := do(t, h, http.MethodPost, "/stations/pause?id=st-001"); w.Code != http.StatusNoContent {
		t.Fatalf("pause status = %d, want 204", w.Code)
	}
	snap := reg.Snapshot()
	if snap.States[fleet.StatePaused] != 1 || snap.States[fleet.StateRunning] != 1 {
		t.Errorf("expected one paused and one running, got %+v", snap.States)
	}

	if w := do(t, h, http.MethodPost, "/stations/resume?id=st-001"); w.Code != http.StatusNoContent {
		t.Fatalf("resume status = %d, want 204", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/stations/stop?id=st-001"); w.Code != http.StatusNoContent {
		t.Fatalf("stop status = %d, want 204", w.Code)
	}
	// Pausing a stopped station is an invariant violation.
	if w := do(t, h, http.MethodPost, "/stations/pause?id=st-001"); w.Code != http.StatusConflict {
		t.Errorf("pause after stop status = %d, want 409", w.Code)
	}

	if w := do(t, h, http.MethodPost, "/stations/pause?id=st-999"); w.Code != http.StatusNotFound {
		t.Errorf("unknown station status = %d, want 404", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/stations/pause"); w.Code != http.StatusBadRequest {
		t.Errorf("missing id status = %d, want 400", w.Code)
	}
}

func TestHandleThresholds(t *testing.T) {
	srv, reg := newTestServer(t)
	h := srv.Handler()

	if w := do(t, h, http.MethodPost, "/thresholds?id=st-001&low=-2&high=8"); w.Code != http.StatusNoContent {
		t.Fatalf("update status = %d, want 204", w.Code)
	}
	for _, st := range reg.Snapshot().Stations {
		if st.ID == "st-001" && (st.Low != -2 || st.High != 8) {
			t.Errorf("thresholds not applied: %+v", st)
		}
	}

	if w := do(t, h, http.MethodPost, "/thresholds?id=st-001&low=abc&high=8"); w.Code != http.StatusBadRequest {
		t.Errorf("bad low status = %d, want 400", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/thresholds?id=st-001&low=8&high=-2"); w.Code != http.StatusBadRequest {
		t.Errorf("inverted band status = %d, want 400", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/thresholds?id=st-999&low=0&high=1"); w.Code != http.StatusNotFound {
		t.Errorf("unknown station status = %d, want 404", w.Code)
	}
}

func TestHandleEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodGet, "/events")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %d", w.Code)
	}
	var events []tide.Event
	if err := json.NewDecoder(w.Body).Decode(&events); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	started := 0
	for _, e := range events {
		if e.Type == tide.EventStarted {
			started++
		}
	}
	if started != 2 {
		t.Errorf("expected 2 started events, got %d", started)
	}
}

func TestHandleHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv.Handler(), http.MethodGet, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %d", w.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected healthz body: %v", body)
	}
}

func TestHandleIndex(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodGet, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "test-fleet") || !strings.Contains(body, "st-001") {
		t.Error("dashboard should list the fleet and its stations")
	}

	if w := do(t, h, http.MethodGet, "/no-such-page"); w.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", w.Code)
	}
}

func TestHandleMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv.Handler(), http.MethodGet, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status OK, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "# HELP") {
		t.Error("metrics endpoint should expose Prometheus text format")
	}
}
