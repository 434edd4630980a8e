package fleet

import (
	"testing"
	"time"

	"tidewatch-sim/internal/tide"
)

// plainWriter only accepts reading rows.
type plainWriter struct {
	rows []tide.ReadingRow
}

func (w *plainWriter) Write(row tide.ReadingRow) error {
	w.rows = append(w.rows, row)
	return nil
}

// fullWriter accepts every row kind plus batches.
type fullWriter struct {
	rows    []tide.ReadingRow
	batches int
	alerts  []tide.AlertRow
	events  []tide.EventRow
	states  []tide.FleetStateRow
	closed  bool
}

func (w *fullWriter) Write(row tide.ReadingRow) error {
	w.rows = append(w.rows, row)
	return nil
}

func (w *fullWriter) WriteBatch(rows []tide.ReadingRow) error {
	w.batches++
	w.rows = append(w.rows, rows...)
	return nil
}

func (w *fullWriter) WriteAlert(row tide.AlertRow) error {
	w.alerts = append(w.alerts, row)
	return nil
}

func (w *fullWriter) WriteEvent(row tide.EventRow) error {
	w.events = append(w.events, row)
	return nil
}

func (w *fullWriter) WriteFleetState(row tide.FleetStateRow) error {
	w.states = append(w.states, row)
	return nil
}

func (w *fullWriter) Close() error {
	w.closed = true
	return nil
}

func sampleReadingRow(station string) tide.ReadingRow {
	return tide.ReadingRow{
		FleetID:    "test-fleet",
		StationID:  station,
		Seq:        1,
		WaterLevel: 1.5,
		Level:      "normal",
		Timestamp:  time.Now().UTC(),
	}
}

func TestMultiWriterFansOutReadings(t *testing.T) {
	plain := &plainWriter{}
	full := &fullWriter{}
	mw := NewMultiWriter(plain, full)

	if err := mw.Write(sampleReadingRow("st-001")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if len(plain.rows) != 1 {
		t.Errorf("expected 1 row in plain writer, got %d", len(plain.rows))
	}
	if len(full.rows) != 1 {
		t.Errorf("expected 1 row in full writer, got %d", len(full.rows))
	}
}

func TestMultiWriterBatchFallsBackToSingleWrites(t *testing.T) {
	plain := &plainWriter{}
	full := &fullWriter{}
	mw := NewMultiWriter(plain, full)

	rows := []tide.ReadingRow{sampleReadingRow("st-001"), sampleReadingRow("st-002")}
	if err := mw.WriteBatch(rows); err != nil {
		t.Fatalf("batch write failed: %v", err)
	}

	if len(plain.rows) != 2 {
		t.Errorf("expected 2 rows via fallback, got %d", len(plain.rows))
	}
	if full.batches != 1 {
		t.Errorf("expected 1 batch call, got %d", full.batches)
	}
	if len(full.rows) != 2 {
		t.Errorf("expected 2 rows via batch, got %d", len(full.rows))
	}
}

func TestMultiWriterRoutesAlertsToCapableWriters(t *testing.T) {
	plain := &plainWriter{}
	full := &fullWriter{}
	mw := NewMultiWriter(plain, full)

	alert := tide.AlertRow{FleetID: "test-fleet", StationID: "st-001", Level: "critical"}
	if err := mw.WriteAlert(alert); err != nil {
		t.Fatalf("alert write failed: %v", err)
	}

	if len(full.alerts) != 1 {
		t.Errorf("expected 1 alert in full writer, got %d", len(full.alerts))
	}
}

func TestMultiWriterRoutesEventsAndState(t *testing.T) {
	full := &fullWriter{}
	mw := NewMultiWriter(&plainWriter{}, full)

	if err := mw.WriteEvent(tide.EventRow{FleetID: "test-fleet", Type: "started"}); err != nil {
		t.Fatalf("event write failed: %v", err)
	}
	if err := mw.WriteFleetState(tide.FleetStateRow{FleetID: "test-fleet", Stations: 3}); err != nil {
		t.Fatalf("state write failed: %v", err)
	}

	if len(full.events) != 1 {
		t.Errorf("expected 1 event, got %d", len(full.events))
	}
	if len(full.states) != 1 {
		t.Errorf("expected 1 state row, got %d", len(full.states))
	}
}

func TestMultiWriterCloseReachesClosers(t *testing.T) {
	full := &fullWriter{}
	mw := NewMultiWriter(&plainWriter{}, full)

	if err := mw.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !full.closed {
		t.Error("expected inner writer to be closed")
	}
}
