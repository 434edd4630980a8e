package fleet

import "tidewatch-sim/internal/tide"

// AlertWriter handles threshold breach rows.
type AlertWriter interface {
	WriteAlert(tide.AlertRow) error
}

// Optional: alert writers may support batch mode.
type batchAlertWriter interface {
	WriteAlerts([]tide.AlertRow) error
}
