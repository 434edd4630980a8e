package tide

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrExhausted is returned by Next after the generator has been retired.
// A live generator never runs out of readings.
var ErrExhausted = errors.New("generator retired")

// Generator fault causes.
const (
	FaultReadFailure  = "read_failure"
	FaultDisconnected = "disconnected"
)

// FaultError reports an unexpected sensor failure during generation. The
// owning monitor stops the station and records the cause.
type FaultError struct {
	StationID string
	Cause     string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("station %s: generator fault: %s", e.StationID, e.Cause)
}

// Model defines the tidal simulation parameters for one station.
type Model struct {
	BaseLevel float64 `yaml:"base_level"`
	Amplitude float64 `yaml:"amplitude"`
	// PeriodSteps is the number of readings per full tidal cycle.
	PeriodSteps int     `yaml:"period_steps"`
	Noise       float64 `yaml:"noise"`
	Drift       float64 `yaml:"drift"`
	FaultRate   float64 `yaml:"fault_rate"`
}

// ShapeFunc modulates the tidal model per step, returning a water level
// offset and a noise scale factor. Scenario profiles plug in here.
type ShapeFunc func(step uint64) (offset, noiseScale float64)

// Generator produces a lazy, infinite sequence of simulated readings for a
// single station. The sequence is deterministic for a given seed and
// advances one step per call; it never rewinds. Exactly one caller may use
// a generator, so it carries no locking.
type Generator struct {
	id      string
	model   Model
	shape   ShapeFunc
	rand    *rand.Rand
	now     func() time.Time
	step    uint64
	retired bool
}

// NewGenerator creates a seeded generator for one station.
func NewGenerator(stationID string, seed int64, model Model, shape ShapeFunc) *Generator {
	return &Generator{
		id:    stationID,
		model: model,
		shape: shape,
		rand:  rand.New(rand.NewSource(seed)),
		now:   time.Now,
	}
}

// Next produces the next reading. It returns ErrExhausted once the
// generator has been retired and a FaultError when the simulated sensor
// fails; the alert level is left for the caller to classify.
func (g *Generator) Next() (Reading, error) {
	if g.retired {
		return Reading{}, ErrExhausted
	}
	step := g.step
	g.step++

	if g.model.FaultRate > 0 && g.rand.Float64() < g.model.FaultRate {
		cause := FaultReadFailure
		if g.rand.Float64() < 0.5 {
			cause = FaultDisconnected
		}
		return Reading{}, &FaultError{StationID: g.id, Cause: cause}
	}

	offset, noiseScale := 0.0, 1.0
	if g.shape != nil {
		offset, noiseScale = g.shape(step)
	}

	period := g.model.PeriodSteps
	if period <= 0 {
		period = 120
	}
	phase := 2 * math.Pi * float64(step) / float64(period)
	level := g.model.BaseLevel + g.model.Amplitude*math.Sin(phase) + offset
	level += (g.rand.Float64()*2 - 1) * g.model.Noise * noiseScale
	level += g.model.Drift * float64(step)

	return Reading{
		StationID:   g.id,
		Seq:         step + 1,
		WaterLevel:  level,
		Temperature: 12 + 6*math.Sin(phase/2) + (g.rand.Float64()*2-1)*1.5,
		Pressure:    1013 + (g.rand.Float64()*2-1)*8,
		WindSpeed:   math.Abs(g.rand.NormFloat64()) * 12,
		Timestamp:   g.now().UTC(),
	}, nil
}

// Retire permanently ends the sequence. Retiring twice is a no-op.
func (g *Generator) Retire() {
	g.retired = true
}

// Retired reports whether the generator has been retired.
func (g *Generator) Retired() bool {
	return g.retired
}
