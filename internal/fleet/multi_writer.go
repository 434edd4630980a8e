package fleet

import (
	"io"

	"tidewatch-sim/internal/tide"
)

// MultiWriter fans rows out to multiple writers. Alert, event, and state
// rows only reach the inner writers that support them.
type MultiWriter struct {
	writers []ReadingWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...ReadingWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Write sends a reading row to all writers.
func (mw *MultiWriter) Write(row tide.ReadingRow) error {
	for _, w := range mw.writers {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple reading rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []tide.ReadingRow) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchReadingWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteAlert sends an alert row to the writers that handle alerts.
func (mw *MultiWriter) WriteAlert(row tide.AlertRow) error {
	for _, w := range mw.writers {
		aw, ok := w.(AlertWriter)
		if !ok {
			continue
		}
		if err := aw.WriteAlert(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteAlerts sends multiple alerts, using batch if supported.
func (mw *MultiWriter) WriteAlerts(rows []tide.AlertRow) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchAlertWriter); ok {
			if err := bw.WriteAlerts(rows); err != nil {
				return err
			}
			continue
		}
		aw, ok := w.(AlertWriter)
		if !ok {
			continue
		}
		for _, r := range rows {
			if err := aw.WriteAlert(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteEvent sends a lifecycle event to the writers that handle events.
func (mw *MultiWriter) WriteEvent(row tide.EventRow) error {
	for _, w := range mw.writers {
		ew, ok := w.(EventWriter)
		if !ok {
			continue
		}
		if err := ew.WriteEvent(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvents sends multiple lifecycle events, using batch if supported.
func (mw *MultiWriter) WriteEvents(rows []tide.EventRow) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchEventWriter); ok {
			if err := bw.WriteEvents(rows); err != nil {
				return err
			}
			continue
		}
		ew, ok := w.(EventWriter)
		if !ok {
			continue
		}
		for _, r := range rows {
			if err := ew.WriteEvent(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteFleetState sends a fleet aggregate row to the writers that handle state.
func (mw *MultiWriter) WriteFleetState(row tide.FleetStateRow) error {
	for _, w := range mw.writers {
		sw, ok := w.(StateWriter)
		if !ok {
			continue
		}
		if err := sw.WriteFleetState(row); err != nil {
			return err
		}
	}
	return nil
}

// SetAdminStatus forwards admin UI status to writers that display it.
func (mw *MultiWriter) SetAdminStatus(listening bool) {
	for _, w := range mw.writers {
		if aw, ok := w.(AdminStatusWriter); ok {
			aw.SetAdminStatus(listening)
		}
	}
}

// Close closes every inner writer that holds resources.
func (mw *MultiWriter) Close() error {
	var err error
	for _, w := range mw.writers {
		c, ok := w.(io.Closer)
		if !ok {
			continue
		}
		if e := c.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
