package tide

import (
	"errors"
	"fmt"
)

// ErrConfig marks a station-level configuration problem. A station with
// invalid thresholds is excluded from scheduling; the rest of the fleet
// starts normally.
var ErrConfig = errors.New("invalid station config")

// DefaultCriticalMargin is applied when a station config leaves the
// margin unset.
const DefaultCriticalMargin = 1.5

// Thresholds hold the per-station alert bounds. A value inside [Low, High]
// is normal, outside it a warning, and beyond the critical margin a
// critical alert.
type Thresholds struct {
	Low    float64
	High   float64
	Unit   string
	Margin float64
}

// Validate reports a ConfigError for malformed thresholds: inverted
// bounds, a missing unit, or a margin below 1.
func (t Thresholds) Validate() error {
	if t.Low >= t.High {
		return fmt.Errorf("%w: low %.3f >= high %.3f", ErrConfig, t.Low, t.High)
	}
	if t.Unit == "" {
		return fmt.Errorf("%w: missing unit", ErrConfig)
	}
	if t.Margin < 1 {
		return fmt.Errorf("%w: critical margin %.3f < 1", ErrConfig, t.Margin)
	}
	return nil
}

// criticalLow returns the lower critical bound. Multiplying a positive low
// bound by a margin > 1 would land inside the normal band, so the bound is
// mirrored to stay below it.
func (t Thresholds) criticalLow() float64 {
	m := t.Margin
	if m < 1 {
		m = 1
	}
	if t.Low > 0 {
		return t.Low / m
	}
	return t.Low * m
}

// criticalHigh returns the upper critical bound, kept above the normal band.
func (t Thresholds) criticalHigh() float64 {
	m := t.Margin
	if m < 1 {
		m = 1
	}
	if t.High < 0 {
		return t.High / m
	}
	return t.High * m
}

// Classify maps a value to an alert level. It is a pure function of the
// value and thresholds: increasing distance from the [Low, High] band never
// decreases the level.
func Classify(value float64, t Thresholds) AlertLevel {
	switch {
	case value < t.criticalLow() || value > t.criticalHigh():
		return LevelCritical
	case value < t.Low || value > t.High:
		return LevelWarning
	default:
		return LevelNormal
	}
}
