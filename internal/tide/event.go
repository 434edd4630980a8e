package tide

import (
	"os"
	"time"
)

// Lifecycle event types.
const (
	EventStarted             = "started"
	EventPaused              = "paused"
	EventResumed             = "resumed"
	EventStopped             = "stopped"
	EventFault               = "fault"
	EventConfigError         = "config_error"
	EventInterrupt           = "interrupt"
	EventInterruptSuppressed = "interrupt_suppressed"
	EventThresholdsUpdated   = "thresholds_updated"
)

// Event records a station or fleet lifecycle transition. Fleet wide events
// carry an empty StationID.
type Event struct {
	StationID string
	Type      string
	Detail    string
	Timestamp time.Time
}

// EventRow is the flattened GreptimeDB representation of an Event.
type EventRow struct {
	FleetID   string    `json:"fleet_id"`   // TAG
	StationID string    `json:"station_id"` // TAG
	Type      string    `json:"type"`       // FIELD
	Detail    string    `json:"detail"`     // FIELD
	Ts        time.Time `json:"ts"`         // TIME INDEX
}

// EventTableName is the GreptimeDB table for lifecycle events; override
// with GREPTIMEDB_EVENT_TABLE.
var EventTableName = func() string {
	if v := os.Getenv("GREPTIMEDB_EVENT_TABLE"); v != "" {
		return v
	}
	return "tide_events"
}()

func (EventRow) TableName() string {
	return EventTableName
}

// Row flattens the event for storage.
func (e Event) Row(fleetID string) EventRow {
	return EventRow{
		FleetID:   fleetID,
		StationID: e.StationID,
		Type:      e.Type,
		Detail:    e.Detail,
		Ts:        e.Timestamp,
	}
}
