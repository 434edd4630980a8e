package fleet

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"tidewatch-sim/internal/tide"
)

// JSONStdoutWriter prints readings, alerts, and events as JSON to STDOUT.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// Write outputs a reading row in JSON format.
func (w *JSONStdoutWriter) Write(row tide.ReadingRow) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}

// WriteBatch outputs multiple reading rows in JSON format.
func (w *JSONStdoutWriter) WriteBatch(rows []tide.ReadingRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteAlert outputs a threshold breach in JSON format.
func (w *JSONStdoutWriter) WriteAlert(row tide.AlertRow) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}

// WriteAlerts outputs multiple alerts in JSON format.
func (w *JSONStdoutWriter) WriteAlerts(rows []tide.AlertRow) error {
	for _, r := range rows {
		_ = w.WriteAlert(r)
	}
	return nil
}

// WriteEvent outputs a lifecycle event in JSON format.
func (w *JSONStdoutWriter) WriteEvent(row tide.EventRow) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}

// WriteEvents outputs multiple lifecycle events in JSON format.
func (w *JSONStdoutWriter) WriteEvents(rows []tide.EventRow) error {
	for _, r := range rows {
		_ = w.WriteEvent(r)
	}
	return nil
}

// WriteFleetState outputs a fleet aggregate row in JSON format.
func (w *JSONStdoutWriter) WriteFleetState(row tide.FleetStateRow) error {
	data, _ := json.Marshal(row)
	fmt.Fprintln(w.out, string(data))
	return nil
}
