package tide

import (
	"fmt"
	"os"
	"time"
)

// Alert records a threshold breach raised while ingesting a reading.
type Alert struct {
	StationID  string
	Seq        uint64
	WaterLevel float64
	Level      AlertLevel
	Low        float64
	High       float64
	Timestamp  time.Time
}

// Message renders a human readable summary for logs and dashboards.
func (a Alert) Message() string {
	return fmt.Sprintf("%s water level %.2f outside [%.2f, %.2f]", a.Level, a.WaterLevel, a.Low, a.High)
}

// AlertRow is the flattened GreptimeDB representation of an Alert.
type AlertRow struct {
	FleetID    string    `json:"fleet_id"`    // TAG
	StationID  string    `json:"station_id"`  // TAG
	Seq        uint64    `json:"seq"`         // FIELD
	WaterLevel float64   `json:"water_level"` // FIELD
	Level      string    `json:"level"`       // FIELD
	Low        float64   `json:"low"`         // FIELD
	High       float64   `json:"high"`        // FIELD
	Message    string    `json:"message"`     // FIELD
	Ts         time.Time `json:"ts"`          // TIME INDEX
}

// AlertTableName is the GreptimeDB table for alerts; override with
// GREPTIMEDB_ALERT_TABLE.
var AlertTableName = func() string {
	if v := os.Getenv("GREPTIMEDB_ALERT_TABLE"); v != "" {
		return v
	}
	return "tide_alerts"
}()

func (AlertRow) TableName() string {
	return AlertTableName
}

// Row flattens the alert for storage.
func (a Alert) Row(fleetID string) AlertRow {
	return AlertRow{
		FleetID:    fleetID,
		StationID:  a.StationID,
		Seq:        a.Seq,
		WaterLevel: a.WaterLevel,
		Level:      a.Level.String(),
		Low:        a.Low,
		High:       a.High,
		Message:    a.Message(),
		Ts:         a.Timestamp,
	}
}
