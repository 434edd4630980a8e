//go:build e2e

package e2e

import (
	"context"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"tidewatch-sim/internal/fleet"
	"tidewatch-sim/internal/tide"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	addr, err := c.PortEndpoint(ctx, "6379/tcp", "")
	if err != nil {
		t.Fatalf("container endpoint: %v", err)
	}
	return addr
}

func TestRedisWriterRoundTrip(t *testing.T) {
	addr := startRedis(t)

	w, err := fleet.NewRedisWriter(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatalf("connect writer: %v", err)
	}
	defer w.Close()

	now := time.Now().UTC()
	row := tide.ReadingRow{
		FleetID:    "e2e-fleet",
		StationID:  "st-001",
		Seq:        1,
		WaterLevel: 2.75,
		Level:      "normal",
		Timestamp:  now,
	}
	if err := w.Write(row); err != nil {
		t.Fatalf("write reading: %v", err)
	}
	row.Seq = 2
	row.WaterLevel = 4.5
	row.Level = "warning"
	if err := w.Write(row); err != nil {
		t.Fatalf("write reading: %v", err)
	}

	got, ok, err := w.LatestReading("st-001")
	if err != nil {
		t.Fatalf("latest reading: %v", err)
	}
	if !ok {
		t.Fatal("expected a latest reading for st-001")
	}
	if got.Seq != 2 || got.WaterLevel != 4.5 || got.Level != "warning" {
		t.Errorf("unexpected latest reading: %+v", got)
	}

	count, err := w.ReadingCount("st-001")
	if err != nil {
		t.Fatalf("reading count: %v", err)
	}
	if count != 2 {
		t.Errorf("reading count = %d, want 2", count)
	}

	if _, ok, err := w.LatestReading("st-999"); err != nil || ok {
		t.Errorf("unknown station should report no reading, got ok=%v err=%v", ok, err)
	}
	if count, err := w.ReadingCount("st-999"); err != nil || count != 0 {
		t.Errorf("unknown station count = %d, %v, want 0", count, err)
	}
}

func TestRedisWriterAlertsAndState(t *testing.T) {
	addr := startRedis(t)

	w, err := fleet.NewRedisWriter(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatalf("connect writer: %v", err)
	}
	defer w.Close()

	base := time.Now().UTC()
	for seq := uint64(1); seq <= 3; seq++ {
		alert := tide.AlertRow{
			FleetID:    "e2e-fleet",
			StationID:  "st-001",
			Seq:        seq,
			WaterLevel: 5.0 + float64(seq),
			Level:      "critical",
			Low:        0,
			High:       4,
			Message:    "critical water level",
			Ts:         base.Add(time.Duration(seq) * time.Second),
		}
		if err := w.WriteAlert(alert); err != nil {
			t.Fatalf("write alert: %v", err)
		}
	}

	keys, err := w.RecentAlerts("e2e-fleet", 2)
	if err != nil {
		t.Fatalf("recent alerts: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("recent alerts = %d keys, want 2", len(keys))
	}

	state := tide.FleetStateRow{
		FleetID:    "e2e-fleet",
		Stations:   3,
		Running:    2,
		Paused:     1,
		WorstLevel: "warning",
		Readings:   42,
		Ts:         base,
	}
	if err := w.WriteFleetState(state); err != nil {
		t.Fatalf("write state: %v", err)
	}
	if err := w.WriteEvent(tide.EventRow{FleetID: "e2e-fleet", StationID: "st-001", Type: "paused", Ts: base}); err != nil {
		t.Fatalf("write event: %v", err)
	}
}
