package fleet

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tidewatch-sim/internal/tide"
)

func newMemSQLiteWriter(t *testing.T) *SQLiteWriter {
	t.Helper()
	w, err := NewSQLiteWriter(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteWriter: %v", err)
	}
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return w
}

func TestSQLiteWriterReadings(t *testing.T) {
	w := newMemSQLiteWriter(t)

	row := sampleReadingRow("st-001")
	if err := w.Write(row); err != nil {
		t.Fatalf("Write: %v", err)
	}

	batch := []tide.ReadingRow{sampleReadingRow("st-002"), sampleReadingRow("st-003")}
	if err := w.WriteBatch(batch); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	var n int
	if err := w.db.QueryRow(`SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		t.Fatalf("count readings: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 readings, got %d", n)
	}

	var level string
	var water float64
	err := w.db.QueryRow(`SELECT level, water_level FROM readings WHERE station_id = ?`, "st-001").Scan(&level, &water)
	if err != nil {
		t.Fatalf("select reading: %v", err)
	}
	if level != "normal" || water != 1.5 {
		t.Fatalf("got level=%s water=%v, want normal 1.5", level, water)
	}
}

func TestSQLiteWriterReplacesDuplicateSeq(t *testing.T) {
	w := newMemSQLiteWriter(t)

	row := sampleReadingRow("st-001")
	if err := w.Write(row); err != nil {
		t.Fatalf("Write: %v", err)
	}
	row.WaterLevel = 9.9
	if err := w.Write(row); err != nil {
		t.Fatalf("Write duplicate seq: %v", err)
	}

	var n int
	if err := w.db.QueryRow(`SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		t.Fatalf("count readings: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 reading after replace, got %d", n)
	}
}

func TestSQLiteWriterAlertsAndEvents(t *testing.T) {
	w := newMemSQLiteWriter(t)

	alert := tide.AlertRow{
		FleetID:    "test-fleet",
		StationID:  "st-001",
		Seq:        4,
		WaterLevel: 12.0,
		Level:      "critical",
		Low:        0,
		High:       10,
		Message:    "critical water level 12.00 outside [0.00, 10.00]",
		Ts:         time.Now().UTC(),
	}
	if err := w.WriteAlert(alert); err != nil {
		t.Fatalf("WriteAlert: %v", err)
	}

	event := tide.EventRow{FleetID: "test-fleet", StationID: "st-001", Type: "paused", Detail: "operator", Ts: time.Now().UTC()}
	if err := w.WriteEvent(event); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}

	var level string
	if err := w.db.QueryRow(`SELECT level FROM alerts`).Scan(&level); err != nil {
		t.Fatalf("select alert: %v", err)
	}
	if level != "critical" {
		t.Fatalf("alert level = %s, want critical", level)
	}

	var typ, detail string
	if err := w.db.QueryRow(`SELECT type, detail FROM events`).Scan(&typ, &detail); err != nil {
		t.Fatalf("select event: %v", err)
	}
	if typ != "paused" || detail != "operator" {
		t.Fatalf("event = %s/%s, want paused/operator", typ, detail)
	}
}

func TestSQLiteWriterFleetState(t *testing.T) {
	w := newMemSQLiteWriter(t)

	row := tide.FleetStateRow{
		FleetID:    "test-fleet",
		Stations:   3,
		Running:    2,
		Paused:     1,
		WorstLevel: "warning",
		Readings:   100,
		Ts:         time.Now().UTC(),
	}
	if err := w.WriteFleetState(row); err != nil {
		t.Fatalf("WriteFleetState: %v", err)
	}

	var running int
	var worst string
	if err := w.db.QueryRow(`SELECT running, worst_level FROM fleet_state`).Scan(&running, &worst); err != nil {
		t.Fatalf("select fleet_state: %v", err)
	}
	if running != 2 || worst != "warning" {
		t.Fatalf("got running=%d worst=%s, want 2 warning", running, worst)
	}
}

func TestSQLiteWriterCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive", "tidewatch.db")

	w, err := NewSQLiteWriter(path)
	if err != nil {
		t.Fatalf("NewSQLiteWriter: %v", err)
	}
	if err := w.Write(sampleReadingRow("st-001")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}
