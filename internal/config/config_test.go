package config

import (
	"os"
	"testing"
	"time"
)

const schemaPath = "../../schemas/stations.cue"

func writeConfig(t *testing.T, name, yaml string) string {
	t.Helper()
	if err := os.WriteFile(name, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(name) })
	return name
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfig(t, "test-fleet.yaml", `
fleet_id: north-sea
tick_interval: 1s
stations:
  - id: st-esbjerg
    name: Esbjerg Harbour
    unit: m
    low: 0.0
    high: 10.0
  - id: st-hvide-sande
    unit: m
    low: -1.0
    high: 4.0
    critical_margin: 2.0
    seed: 42
    model:
      base_level: 1.8
      amplitude: 0.9
`)

	cfg, err := Load(path, schemaPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(cfg.Stations) != 2 || cfg.Stations[0].ID != "st-esbjerg" {
		t.Fatalf("Unexpected station data: %+v", cfg.Stations)
	}
	if cfg.FleetID != "north-sea" {
		t.Errorf("fleet id = %s, want north-sea", cfg.FleetID)
	}
	if cfg.TickInterval.Std() != time.Second {
		t.Errorf("tick interval = %v, want 1s", cfg.TickInterval.Std())
	}
	if cfg.DebounceWindow.Std() != 500*time.Millisecond {
		t.Errorf("debounce window default = %v, want 500ms", cfg.DebounceWindow.Std())
	}

	first := cfg.Stations[0]
	if first.CriticalMargin != 1.5 {
		t.Errorf("critical margin default = %v, want 1.5", first.CriticalMargin)
	}
	if first.Seed == 0 {
		t.Error("expected derived seed for station without one")
	}
	if first.Model.PeriodSteps != 120 || first.Model.BaseLevel != 1.5 {
		t.Errorf("model defaults not applied: %+v", first.Model)
	}

	second := cfg.Stations[1]
	if second.Seed != 42 || second.CriticalMargin != 2.0 {
		t.Errorf("explicit values overridden: %+v", second)
	}
	if second.Name != "st-hvide-sande" {
		t.Errorf("name default = %s, want station id", second.Name)
	}
	if second.Model.Amplitude != 0.9 {
		t.Errorf("model amplitude = %v, want 0.9", second.Model.Amplitude)
	}
}

func TestLoadConfig_DuplicateStationID(t *testing.T) {
	path := writeConfig(t, "test-dup.yaml", `
stations:
  - id: st-1
    unit: m
    low: 0
    high: 10
  - id: st-1
    unit: m
    low: 0
    high: 10
`)
	if _, err := Load(path, schemaPath); err == nil {
		t.Fatal("expected error for duplicate station id")
	}
}

func TestLoadConfig_NoStations(t *testing.T) {
	path := writeConfig(t, "test-empty.yaml", `
fleet_id: empty
stations: []
`)
	if _, err := Load(path, schemaPath); err == nil {
		t.Fatal("expected error for empty station list")
	}
}

func TestLoadConfig_Unparsable(t *testing.T) {
	path := writeConfig(t, "test-bad.yaml", "stations: [\n  broken")
	if _, err := Load(path, schemaPath); err == nil {
		t.Fatal("expected error for unparsable config")
	}
}

func TestLoadConfig_SchemaViolation(t *testing.T) {
	path := writeConfig(t, "test-schema.yaml", `
stations:
  - id: st-1
    unit: m
    low: 0
    high: 10
    fault_rate: 2.0
`)
	if _, err := Load(path, schemaPath); err == nil {
		t.Fatal("expected schema error for fault_rate above 1")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("FLEET_ID", "env-fleet")
	t.Setenv("TICK_INTERVAL", "250ms")
	path := writeConfig(t, "test-env.yaml", `
fleet_id: file-fleet
stations:
  - id: st-1
    unit: m
    low: 0
    high: 10
`)
	cfg, err := Load(path, schemaPath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.FleetID != "env-fleet" {
		t.Errorf("fleet id = %s, want env-fleet", cfg.FleetID)
	}
	if cfg.TickInterval.Std() != 250*time.Millisecond {
		t.Errorf("tick interval = %v, want 250ms", cfg.TickInterval.Std())
	}
}
