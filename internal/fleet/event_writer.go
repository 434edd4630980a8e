package fleet

import "tidewatch-sim/internal/tide"

// EventWriter handles station lifecycle event rows.
type EventWriter interface {
	WriteEvent(tide.EventRow) error
}

// Optional: event writers may support batch mode.
type batchEventWriter interface {
	WriteEvents([]tide.EventRow) error
}
