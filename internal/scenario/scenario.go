package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a weather arc with ordered phases and an overall description.
type Scenario struct {
	Name        string  `yaml:"name,omitempty"`
	Description string  `yaml:"description,omitempty"`
	Phases      []Phase `yaml:"phases"`
}

// Phase describes a stage of the arc and how it bends the tidal curve while
// active. A zero noise scale means the model noise is left untouched.
type Phase struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	LevelOffset float64   `yaml:"level_offset,omitempty"`
	NoiseScale  float64   `yaml:"noise_scale,omitempty"`
	Triggers    []Trigger `yaml:"triggers,omitempty"`
}

// Shape returns the water level offset and noise scale for this phase.
func (p Phase) Shape() (offset, noiseScale float64) {
	if p.NoiseScale == 0 {
		return p.LevelOffset, 1
	}
	return p.LevelOffset, p.NoiseScale
}

// Trigger moves the scenario to another phase based on an event.
type Trigger struct {
	Event string  `yaml:"event"`
	Value float64 `yaml:"value"`
	Next  string  `yaml:"next"`
}

// Event represents a runtime occurrence that may advance the scenario.
type Event struct {
	Type  string
	Value float64
}

// Event types fed by the station monitors.
const (
	EventReadingsProduced = "readings_produced"
	EventLevelAbove       = "level_above"
)

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &s, nil
}

// NextPhase returns the name of the next phase given the current phase and event.
// If no trigger matches, ok will be false.
func (s *Scenario) NextPhase(current string, ev Event) (next string, ok bool) {
	for _, p := range s.Phases {
		if p.Name != current {
			continue
		}
		for _, tr := range p.Triggers {
			if tr.Event == ev.Type && ev.Value >= tr.Value {
				return tr.Next, true
			}
		}
	}
	return "", false
}

func (s *Scenario) phase(name string) (Phase, bool) {
	for _, p := range s.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

// Tracker follows one station's progress through a scenario. Each station
// advances independently, so trackers are not shared.
type Tracker struct {
	scenario *Scenario
	current  string
}

// NewTracker starts a tracker at the scenario's first phase. A nil scenario
// yields a tracker that never modulates anything.
func NewTracker(s *Scenario) *Tracker {
	t := &Tracker{scenario: s}
	if s != nil && len(s.Phases) > 0 {
		t.current = s.Phases[0].Name
	}
	return t
}

// Phase returns the active phase, or a neutral zero phase without a scenario.
func (t *Tracker) Phase() Phase {
	if t.scenario == nil {
		return Phase{}
	}
	p, _ := t.scenario.phase(t.current)
	return p
}

// Observe feeds an event to the tracker and reports whether it advanced.
func (t *Tracker) Observe(ev Event) bool {
	if t.scenario == nil {
		return false
	}
	next, ok := t.scenario.NextPhase(t.current, ev)
	if !ok {
		return false
	}
	t.current = next
	return true
}

// Current returns the active phase name.
func (t *Tracker) Current() string {
	return t.current
}
