package tide

import (
	"os"
	"time"
)

// FleetStateRow is a periodic aggregate of the whole fleet, written on a
// fixed cadence so dashboards can chart fleet health over time.
type FleetStateRow struct {
	FleetID      string    `json:"fleet_id"`     // TAG
	Stations     int       `json:"stations"`     // FIELD
	Initializing int       `json:"initializing"` // FIELD
	Running      int       `json:"running"`      // FIELD
	Paused       int       `json:"paused"`       // FIELD
	Stopped      int       `json:"stopped"`      // FIELD
	Failed       int       `json:"failed"`       // FIELD
	Alerting     int       `json:"alerting"`     // FIELD
	WorstLevel   string    `json:"worst_level"`  // FIELD
	Readings     uint64    `json:"readings"`     // FIELD
	Interrupts   uint64    `json:"interrupts"`   // FIELD
	Ts           time.Time `json:"ts"`           // TIME INDEX
}

// FleetStateTableName is the GreptimeDB table for fleet aggregates;
// override with GREPTIMEDB_FLEET_TABLE.
var FleetStateTableName = func() string {
	if v := os.Getenv("GREPTIMEDB_FLEET_TABLE"); v != "" {
		return v
	}
	return "tide_fleet_state"
}()

func (FleetStateRow) TableName() string {
	return FleetStateTableName
}
