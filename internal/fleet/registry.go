// Fleet registry orchestrating station monitors and output writers
package fleet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"tidewatch-sim/internal/config"
	"tidewatch-sim/internal/logging"
	"tidewatch-sim/internal/metrics"
	"tidewatch-sim/internal/scenario"
	"tidewatch-sim/internal/tide"
)

// ReadingWriter is an interface to support different output writers.
type ReadingWriter interface {
	Write(tide.ReadingRow) error
}

// Optional: writers can also support batch mode.
type batchReadingWriter interface {
	WriteBatch([]tide.ReadingRow) error
}

// ErrNoRunnableStations means validation left nothing to schedule.
var ErrNoRunnableStations = errors.New("no runnable stations")

// ErrUnknownStation rejects operations on ids outside the fixed fleet.
var ErrUnknownStation = errors.New("unknown station")

const journalCapacity = 256

// Registry owns the fixed set of station monitors. It schedules one tick
// loop per station, routes produced rows to the writers, and serves
// consistent snapshots to whoever polls.
type Registry struct {
	fleetID  string
	interval time.Duration
	monitors map[string]*Monitor
	order    []string
	ctrl     *Controller
	writer   ReadingWriter
	alertW   AlertWriter
	eventW   EventWriter
	stateW   StateWriter
	writeMu  sync.Mutex
	events   *eventJournal
	stopc    chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewRegistry builds monitors for every configured station. The station
// set is fixed from here on. A nil writer discards all rows.
func NewRegistry(cfg *config.FleetConfig, scn *scenario.Scenario, writer ReadingWriter) *Registry {
	r := &Registry{
		fleetID:  cfg.FleetID,
		interval: cfg.TickInterval.Std(),
		monitors: map[string]*Monitor{},
		writer:   writer,
		events:   newEventJournal(journalCapacity),
		stopc:    make(chan struct{}),
		now:      time.Now,
	}
	if r.interval <= 0 {
		r.interval = 2 * time.Second
	}
	for _, st := range cfg.Stations {
		if _, dup := r.monitors[st.ID]; dup {
			continue
		}
		r.monitors[st.ID] = NewMonitor(st, scn)
		r.order = append(r.order, st.ID)
	}
	sort.Strings(r.order)
	r.ctrl = newController(r, cfg.DebounceWindow.Std())

	if aw, ok := writer.(AlertWriter); ok {
		r.alertW = aw
	}
	if ew, ok := writer.(EventWriter); ok {
		r.eventW = ew
	}
	if sw, ok := writer.(StateWriter); ok {
		r.stateW = sw
	}
	return r
}

// Controller returns the interruption controller for this fleet.
func (r *Registry) Controller() *Controller { return r.ctrl }

// FleetID returns the configured fleet identifier.
func (r *Registry) FleetID() string { return r.fleetID }

// Events returns the recent lifecycle events, oldest first.
func (r *Registry) Events() []tide.Event { return r.events.list() }

// Run starts every station that passes validation, spawns one tick loop
// per running station, and blocks until the fleet stops or the context is
// cancelled. It returns ErrNoRunnableStations when validation excluded
// every station.
func (r *Registry) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)

	started := 0
	for _, id := range r.order {
		m := r.monitors[id]
		if err := m.Start(); err != nil {
			log.Error("station excluded", "station_id", id, "err", err)
			r.record(ctx, tide.Event{StationID: id, Type: tide.EventConfigError, Detail: m.Err()})
			continue
		}
		started++
		r.record(ctx, tide.Event{StationID: id, Type: tide.EventStarted})
	}
	r.updateStateMetrics()
	if started == 0 {
		return ErrNoRunnableStations
	}
	log.Info("fleet running", "fleet_id", r.fleetID, "stations", started, "tick_interval", r.interval)

	var wg sync.WaitGroup
	for _, id := range r.order {
		m := r.monitors[id]
		if m.State() != StateRunning {
			continue
		}
		wg.Add(1)
		go func(m *Monitor) {
			defer wg.Done()
			r.stationLoop(ctx, m)
		}(m)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.stateLoop(ctx)
	}()
	wg.Wait()

	log.Info("fleet stopped", "fleet_id", r.fleetID)
	return nil
}

// stationLoop is the per-station tick loop. Readings ingest in generation
// order because only this loop ever advances the station's generator.
func (r *Registry) stationLoop(ctx context.Context, m *Monitor) {
	log := logging.FromContext(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.Done():
			return
		case <-ticker.C:
			reading, err := m.step()
			switch {
			case err == nil:
				r.writeReading(ctx, m, reading)
			case errors.Is(err, ErrNotRunning):
				// paused; keep ticking until resumed or stopped
			case errors.Is(err, tide.ErrExhausted):
				return
			default:
				var fault *tide.FaultError
				if errors.As(err, &fault) {
					log.Error("station fault", "station_id", m.ID(), "cause", fault.Cause)
					r.record(ctx, tide.Event{StationID: m.ID(), Type: tide.EventFault, Detail: fault.Cause})
					r.record(ctx, tide.Event{StationID: m.ID(), Type: tide.EventStopped, Detail: fault.Cause})
					r.updateStateMetrics()
					return
				}
				log.Error("step failed", "station_id", m.ID(), "err", err)
			}
		}
	}
}

func (r *Registry) writeReading(ctx context.Context, m *Monitor, reading tide.Reading) {
	if r.writer == nil {
		return
	}
	log := logging.FromContext(ctx)
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.writer.Write(reading.Row(r.fleetID)); err != nil {
		log.Error("write failed", "station_id", reading.StationID, "err", err)
	}
	if reading.Level > tide.LevelNormal && r.alertW != nil {
		th := m.Thresholds()
		alert := tide.Alert{
			StationID:  reading.StationID,
			Seq:        reading.Seq,
			WaterLevel: reading.WaterLevel,
			Level:      reading.Level,
			Low:        th.Low,
			High:       th.High,
			Timestamp:  reading.Timestamp,
		}
		if err := r.alertW.WriteAlert(alert.Row(r.fleetID)); err != nil {
			log.Error("alert write failed", "station_id", reading.StationID, "err", err)
		}
	}
}

// stateLoop periodically writes the fleet aggregate row. It exits when the
// fleet stops so Run can return.
func (r *Registry) stateLoop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopc:
			r.flushState(ctx)
			return
		case <-ticker.C:
			r.flushState(ctx)
		}
	}
}

func (r *Registry) flushState(ctx context.Context) {
	r.updateStateMetrics()
	if r.stateW == nil {
		return
	}
	row := r.Snapshot().StateRow()
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.stateW.WriteFleetState(row); err != nil {
		logging.FromContext(ctx).Error("state write failed", "err", err)
	}
}

func (r *Registry) updateStateMetrics() {
	counts := map[State]int{}
	for _, id := range r.order {
		counts[r.monitors[id].State()]++
	}
	for _, s := range []State{StateInitializing, StateRunning, StatePaused, StateStopped} {
		metrics.StationsByState.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}

// record journals a lifecycle event and forwards it to the event writer.
func (r *Registry) record(ctx context.Context, e tide.Event) {
	e.Timestamp = r.now().UTC()
	r.events.add(e)
	if r.eventW == nil {
		return
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.eventW.WriteEvent(e.Row(r.fleetID)); err != nil {
		logging.FromContext(ctx).Error("event write failed", "err", err)
	}
}

func (r *Registry) pauseAll(ctx context.Context) int {
	count := 0
	for _, id := range r.order {
		changed, err := r.monitors[id].Pause()
		if err != nil || !changed {
			continue
		}
		count++
		r.record(ctx, tide.Event{StationID: id, Type: tide.EventPaused})
	}
	r.updateStateMetrics()
	return count
}

func (r *Registry) resumeAll(ctx context.Context) int {
	count := 0
	for _, id := range r.order {
		changed, err := r.monitors[id].Resume()
		if err != nil || !changed {
			continue
		}
		count++
		r.record(ctx, tide.Event{StationID: id, Type: tide.EventResumed})
	}
	r.updateStateMetrics()
	return count
}

func (r *Registry) stopAll(ctx context.Context) int {
	count := 0
	for _, id := range r.order {
		if !r.monitors[id].Stop() {
			continue
		}
		count++
		r.record(ctx, tide.Event{StationID: id, Type: tide.EventStopped})
	}
	r.stopOnce.Do(func() { close(r.stopc) })
	r.updateStateMetrics()
	return count
}

func (r *Registry) monitor(id string) (*Monitor, error) {
	m, ok := r.monitors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStation, id)
	}
	return m, nil
}

// PauseStation pauses a single station by id.
func (r *Registry) PauseStation(ctx context.Context, id string) error {
	m, err := r.monitor(id)
	if err != nil {
		return err
	}
	changed, err := m.Pause()
	if err != nil {
		return err
	}
	if changed {
		r.record(ctx, tide.Event{StationID: id, Type: tide.EventPaused, Detail: "operator"})
		r.updateStateMetrics()
	}
	return nil
}

// ResumeStation resumes a single station by id.
func (r *Registry) ResumeStation(ctx context.Context, id string) error {
	m, err := r.monitor(id)
	if err != nil {
		return err
	}
	changed, err := m.Resume()
	if err != nil {
		return err
	}
	if changed {
		r.record(ctx, tide.Event{StationID: id, Type: tide.EventResumed, Detail: "operator"})
		r.updateStateMetrics()
	}
	return nil
}

// StopStation stops a single station by id. Stopping is terminal.
func (r *Registry) StopStation(ctx context.Context, id string) error {
	m, err := r.monitor(id)
	if err != nil {
		return err
	}
	if m.Stop() {
		r.record(ctx, tide.Event{StationID: id, Type: tide.EventStopped, Detail: "operator"})
		r.updateStateMetrics()
	}
	return nil
}

// UpdateThresholds swaps one station's alert band at runtime.
func (r *Registry) UpdateThresholds(ctx context.Context, id string, low, high float64) error {
	m, err := r.monitor(id)
	if err != nil {
		return err
	}
	if err := m.UpdateThresholds(low, high); err != nil {
		return err
	}
	detail := fmt.Sprintf("low=%.2f high=%.2f", low, high)
	r.record(ctx, tide.Event{StationID: id, Type: tide.EventThresholdsUpdated, Detail: detail})
	return nil
}

// Snapshot returns a consistent copy of the fleet. Aggregates are
// recomputed from the per-station copies, never carried incrementally.
func (r *Registry) Snapshot() FleetSnapshot {
	snap := FleetSnapshot{
		FleetID: r.fleetID,
		TakenAt: r.now().UTC(),
		States:  map[State]int{},
	}
	worst := tide.LevelNormal
	for _, id := range r.order {
		st := r.monitors[id].Status()
		snap.Stations = append(snap.Stations, st)
		snap.TotalReadings += st.Stats.Count
		snap.States[st.State]++
		if st.Level > tide.LevelNormal {
			snap.Alerting++
		}
		if st.Level > worst {
			worst = st.Level
		}
	}
	snap.WorstLevel = worst
	snap.Interruptions = r.ctrl.Stats()
	return snap
}

// eventJournal keeps the most recent lifecycle events in a bounded ring.
type eventJournal struct {
	mu  sync.Mutex
	buf []tide.Event
	max int
}

func newEventJournal(max int) *eventJournal {
	return &eventJournal{max: max}
}

func (j *eventJournal) add(e tide.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.buf = append(j.buf, e)
	if len(j.buf) > j.max {
		j.buf = j.buf[len(j.buf)-j.max:]
	}
}

func (j *eventJournal) list() []tide.Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]tide.Event, len(j.buf))
	copy(out, j.buf)
	return out
}
