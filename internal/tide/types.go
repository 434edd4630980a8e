// Reading structs with greptime tags
package tide

import (
	"encoding/json"
	"os"
	"time"
)

// AlertLevel classifies a reading's severity relative to configured
// thresholds. Levels are totally ordered: Normal < Warning < Critical.
type AlertLevel int

const (
	LevelNormal AlertLevel = iota
	LevelWarning
	LevelCritical
)

// String returns the lowercase name used in rows and logs.
func (l AlertLevel) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelCritical:
		return "critical"
	default:
		return "normal"
	}
}

// MarshalJSON emits the level name rather than its ordinal.
func (l AlertLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// Reading is one simulated sensor sample for a station. The water level is
// the classified value; the auxiliary channels are informational only.
type Reading struct {
	StationID   string
	Seq         uint64
	WaterLevel  float64
	Temperature float64
	Pressure    float64
	WindSpeed   float64
	Level       AlertLevel
	Timestamp   time.Time
}

// ReadingRow represents one reading record for GreptimeDB.
type ReadingRow struct {
	FleetID     string    `json:"fleet_id"`    // TAG
	StationID   string    `json:"station_id"`  // TAG
	Seq         uint64    `json:"seq"`         // FIELD
	WaterLevel  float64   `json:"water_level"` // FIELD
	Temperature float64   `json:"temperature"` // FIELD
	Pressure    float64   `json:"pressure"`    // FIELD
	WindSpeed   float64   `json:"wind_speed"`  // FIELD
	Level       string    `json:"level"`       // FIELD
	Timestamp   time.Time `json:"ts"`          // TIME INDEX
}

// ReadingTableName holds the table name used when writing to GreptimeDB.
// It defaults to "tide_readings" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var ReadingTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "tide_readings"
}()

func (ReadingRow) TableName() string {
	return ReadingTableName
}

// Row converts a reading into its persisted form.
func (r Reading) Row(fleetID string) ReadingRow {
	return ReadingRow{
		FleetID:     fleetID,
		StationID:   r.StationID,
		Seq:         r.Seq,
		WaterLevel:  r.WaterLevel,
		Temperature: r.Temperature,
		Pressure:    r.Pressure,
		WindSpeed:   r.WindSpeed,
		Level:       r.Level.String(),
		Timestamp:   r.Timestamp,
	}
}
