package fleet

import (
	"time"

	"tidewatch-sim/internal/tide"
)

// State is a station's lifecycle state.
type State string

const (
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StatePaused       State = "paused"
	StateStopped      State = "stopped"
)

// AlertCounts tallies ingested readings by alert level.
type AlertCounts struct {
	Normal   uint64 `json:"normal"`
	Warning  uint64 `json:"warning"`
	Critical uint64 `json:"critical"`
}

func (c *AlertCounts) bump(l tide.AlertLevel) {
	switch l {
	case tide.LevelCritical:
		c.Critical++
	case tide.LevelWarning:
		c.Warning++
	default:
		c.Normal++
	}
}

// StationStatus is a copy of one station's state at a point in time.
type StationStatus struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	State     State              `json:"state"`
	Err       string             `json:"err,omitempty"`
	Unit      string             `json:"unit"`
	Low       float64            `json:"low"`
	High      float64            `json:"high"`
	Level     tide.AlertLevel    `json:"level"`
	LastValue float64            `json:"last_value"`
	LastSeq   uint64             `json:"last_seq"`
	LastTime  time.Time          `json:"last_time"`
	Phase     string             `json:"phase,omitempty"`
	Stats     tide.StatsSnapshot `json:"stats"`
	Alerts    AlertCounts        `json:"alerts"`
}

// InterruptionStats counts interruption signals and their outcomes.
type InterruptionStats struct {
	Received   uint64    `json:"received"`
	Suppressed uint64    `json:"suppressed"`
	Pauses     uint64    `json:"pauses"`
	Stops      uint64    `json:"stops"`
	Resumes    uint64    `json:"resumes"`
	LastSignal time.Time `json:"last_signal"`
}

// FleetSnapshot is a consistent, read-only copy of the whole fleet. All
// aggregates are recomputed from the station copies when the snapshot is
// taken, never maintained incrementally.
type FleetSnapshot struct {
	FleetID       string            `json:"fleet_id"`
	TakenAt       time.Time         `json:"taken_at"`
	Stations      []StationStatus   `json:"stations"`
	TotalReadings uint64            `json:"total_readings"`
	Alerting      int               `json:"alerting"`
	WorstLevel    tide.AlertLevel   `json:"worst_level"`
	States        map[State]int     `json:"states"`
	Interruptions InterruptionStats `json:"interruptions"`
}

// StateRow flattens the snapshot into its periodic storage form.
func (s FleetSnapshot) StateRow() tide.FleetStateRow {
	failed := 0
	for _, st := range s.Stations {
		if st.State == StateStopped && st.Err != "" {
			failed++
		}
	}
	return tide.FleetStateRow{
		FleetID:      s.FleetID,
		Stations:     len(s.Stations),
		Initializing: s.States[StateInitializing],
		Running:      s.States[StateRunning],
		Paused:       s.States[StatePaused],
		Stopped:      s.States[StateStopped],
		Failed:       failed,
		Alerting:     s.Alerting,
		WorstLevel:   s.WorstLevel.String(),
		Readings:     s.TotalReadings,
		Interrupts:   s.Interruptions.Received,
		Ts:           s.TakenAt,
	}
}
