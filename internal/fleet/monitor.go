package fleet

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"tidewatch-sim/internal/config"
	"tidewatch-sim/internal/metrics"
	"tidewatch-sim/internal/scenario"
	"tidewatch-sim/internal/tide"
)

// ErrInvariant marks programming errors: a reading routed to the wrong
// station or a transition attempted from a terminal state. These are
// surfaced loudly, never contained as station state.
var ErrInvariant = errors.New("invariant violation")

// ErrNotRunning reports an ingest or step against a station that is not
// running. Paused stations return it on every tick until resumed.
var ErrNotRunning = errors.New("station not running")

// Monitor owns one station's lifecycle. It ties the generator and the
// threshold classification together, maintains rolling statistics, and
// guards every transition and ingest with the station's own lock so a
// controller transition never races an in-flight reading.
type Monitor struct {
	mu         sync.Mutex
	id         string
	name       string
	thresholds tide.Thresholds
	gen        *tide.Generator
	tracker    *scenario.Tracker
	state      State
	err        string
	last       tide.Reading
	stats      tide.Stats
	alerts     AlertCounts
	stopped    chan struct{}
}

// NewMonitor builds a monitor in the initializing state. Thresholds are
// checked at Start so a malformed station shows up in snapshots instead
// of failing construction.
func NewMonitor(cfg config.Station, sc *scenario.Scenario) *Monitor {
	m := &Monitor{
		id:   cfg.ID,
		name: cfg.Name,
		thresholds: tide.Thresholds{
			Low:    cfg.Low,
			High:   cfg.High,
			Unit:   cfg.Unit,
			Margin: cfg.CriticalMargin,
		},
		tracker: scenario.NewTracker(sc),
		state:   StateInitializing,
		stopped: make(chan struct{}),
	}
	model := tide.Model{
		BaseLevel:   cfg.Model.BaseLevel,
		Amplitude:   cfg.Model.Amplitude,
		PeriodSteps: cfg.Model.PeriodSteps,
		Noise:       cfg.Model.Noise,
		Drift:       cfg.Model.Drift,
		FaultRate:   cfg.FaultRate,
	}
	// The shape callback runs inside step under m.mu, so reading the
	// tracker here needs no extra locking.
	m.gen = tide.NewGenerator(cfg.ID, cfg.Seed, model, func(step uint64) (float64, float64) {
		return m.tracker.Phase().Shape()
	})
	return m
}

// ID returns the station id.
func (m *Monitor) ID() string { return m.id }

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the recorded config error or fault cause, if any.
func (m *Monitor) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Done is closed once the station reaches the stopped state.
func (m *Monitor) Done() <-chan struct{} { return m.stopped }

// Thresholds returns the active alert band.
func (m *Monitor) Thresholds() tide.Thresholds {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.thresholds
}

// UpdateThresholds swaps the alert band at runtime, keeping the unit and
// critical margin from the current configuration.
func (m *Monitor) UpdateThresholds(low, high float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.thresholds
	next.Low, next.High = low, high
	if err := next.Validate(); err != nil {
		return err
	}
	m.thresholds = next
	return nil
}

// Start validates the thresholds and schedules the station. A validation
// failure stops this station permanently; the fleet keeps going without it.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateInitializing {
		return fmt.Errorf("%w: start from %s", ErrInvariant, m.state)
	}
	if err := m.thresholds.Validate(); err != nil {
		m.failLocked(err.Error())
		return err
	}
	m.state = StateRunning
	return nil
}

// Pause freezes generation and statistics. It reports whether this call
// performed the transition; pausing a paused station is a no-op.
func (m *Monitor) Pause() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateRunning:
		m.state = StatePaused
		return true, nil
	case StatePaused:
		return false, nil
	default:
		return false, fmt.Errorf("%w: pause from %s", ErrInvariant, m.state)
	}
}

// Resume restarts generation after a pause. The generator picks up where
// it left off; elapsed paused time is skipped, not replayed.
func (m *Monitor) Resume() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StatePaused:
		m.state = StateRunning
		return true, nil
	case StateRunning:
		return false, nil
	default:
		return false, fmt.Errorf("%w: resume from %s", ErrInvariant, m.state)
	}
}

// Stop is terminal and idempotent. Any in-flight ingest holds the lock, so
// the transition only lands after it completes. Returns whether this call
// performed the transition.
func (m *Monitor) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateStopped {
		return false
	}
	m.stopLocked()
	return true
}

func (m *Monitor) stopLocked() {
	m.state = StateStopped
	m.gen.Retire()
	close(m.stopped)
}

func (m *Monitor) failLocked(cause string) {
	m.err = cause
	m.stopLocked()
}

// step advances the station by one reading. It returns ErrNotRunning while
// paused, ErrExhausted once stopped, and the generator's fault error after
// moving the station to stopped.
func (m *Monitor) step() (tide.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateRunning:
	case StatePaused:
		return tide.Reading{}, ErrNotRunning
	default:
		return tide.Reading{}, tide.ErrExhausted
	}
	reading, err := m.gen.Next()
	if err != nil {
		var fault *tide.FaultError
		if errors.As(err, &fault) {
			metrics.GeneratorFaults.WithLabelValues(m.id, fault.Cause).Inc()
			m.failLocked(fault.Cause)
		}
		return tide.Reading{}, err
	}
	m.applyLocked(&reading)
	m.tracker.Observe(scenario.Event{Type: scenario.EventReadingsProduced, Value: float64(reading.Seq)})
	m.tracker.Observe(scenario.Event{Type: scenario.EventLevelAbove, Value: reading.WaterLevel})
	return reading, nil
}

// Ingest applies one externally produced reading: classify, update the
// rolling statistics, record it as the station's latest. A reading for
// another station is a programming error, not a station failure.
func (m *Monitor) Ingest(reading tide.Reading) (tide.AlertLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reading.StationID != m.id {
		return tide.LevelNormal, fmt.Errorf("%w: reading for %q routed to %q", ErrInvariant, reading.StationID, m.id)
	}
	if m.state != StateRunning {
		return tide.LevelNormal, fmt.Errorf("%w: %s is %s", ErrNotRunning, m.id, m.state)
	}
	m.applyLocked(&reading)
	return reading.Level, nil
}

func (m *Monitor) applyLocked(reading *tide.Reading) {
	start := time.Now()
	reading.Level = tide.Classify(reading.WaterLevel, m.thresholds)
	m.stats.Add(reading.WaterLevel)
	m.alerts.bump(reading.Level)
	m.last = *reading

	metrics.ReadingsTotal.WithLabelValues(m.id).Inc()
	metrics.WaterLevel.WithLabelValues(m.id).Set(reading.WaterLevel)
	if reading.Level > tide.LevelNormal {
		metrics.AlertsTotal.WithLabelValues(m.id, reading.Level.String()).Inc()
	}
	metrics.IngestDuration.Observe(time.Since(start).Seconds())
}

// Status copies the station's state for snapshots.
func (m *Monitor) Status() StationStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return StationStatus{
		ID:        m.id,
		Name:      m.name,
		State:     m.state,
		Err:       m.err,
		Unit:      m.thresholds.Unit,
		Low:       m.thresholds.Low,
		High:      m.thresholds.High,
		Level:     m.last.Level,
		LastValue: m.last.WaterLevel,
		LastSeq:   m.last.Seq,
		LastTime:  m.last.Timestamp,
		Phase:     m.tracker.Current(),
		Stats:     m.stats.Snapshot(),
		Alerts:    m.alerts,
	}
}
