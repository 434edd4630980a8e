package tide

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestClassify_ScriptedLevels(t *testing.T) {
	th := Thresholds{Low: 0, High: 10, Unit: "m", Margin: 1.5}
	values := []float64{5.0, 11.0, -3.0}
	want := []AlertLevel{LevelNormal, LevelWarning, LevelCritical}
	for i, v := range values {
		if got := Classify(v, th); got != want[i] {
			t.Errorf("Classify(%v) = %v, want %v", v, got, want[i])
		}
	}
}

func TestClassify_PositiveLowBand(t *testing.T) {
	th := Thresholds{Low: 2, High: 10, Unit: "m", Margin: 1.5}
	cases := []struct {
		value float64
		want  AlertLevel
	}{
		{2.5, LevelNormal},
		{9.9, LevelNormal},
		{1.5, LevelWarning},
		{1.0, LevelCritical},
		{14.0, LevelWarning},
		{16.0, LevelCritical},
	}
	for _, c := range cases {
		if got := Classify(c.value, th); got != c.want {
			t.Errorf("Classify(%v) = %v, want %v", c.value, got, c.want)
		}
	}
}

func TestClassify_NegativeBand(t *testing.T) {
	th := Thresholds{Low: -10, High: -2, Unit: "cm", Margin: 1.5}
	cases := []struct {
		value float64
		want  AlertLevel
	}{
		{-5.0, LevelNormal},
		{-12.0, LevelWarning},
		{-16.0, LevelCritical},
		{-1.5, LevelWarning},
		{-1.0, LevelCritical},
	}
	for _, c := range cases {
		if got := Classify(c.value, th); got != c.want {
			t.Errorf("Classify(%v) = %v, want %v", c.value, got, c.want)
		}
	}
}

// Moving farther outside the band must never lower the alert level.
func TestClassify_MonotonicOutsideBand(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		low := r.Float64()*40 - 20
		high := low + 0.5 + r.Float64()*20
		th := Thresholds{Low: low, High: high, Unit: "cm", Margin: 1 + r.Float64()*2}
		if err := th.Validate(); err != nil {
			t.Fatalf("generated invalid thresholds: %v", err)
		}

		span := high - low
		d1 := (r.Float64()*3 - 1) * span // negative places the value inside the band
		d2 := math.Max(d1, 0) + r.Float64()*span
		var v1, v2 float64
		if r.Intn(2) == 0 {
			v1, v2 = low-d1, low-d2
		} else {
			v1, v2 = high+d1, high+d2
		}

		l1, l2 := Classify(v1, th), Classify(v2, th)
		if l1 > l2 {
			t.Fatalf("level dropped with distance: Classify(%v)=%v but Classify(%v)=%v for %+v", v1, l1, v2, l2, th)
		}
		if d1 < 0 && l1 != LevelNormal {
			t.Fatalf("in-band value %v classified %v for %+v", v1, l1, th)
		}
		if d2 > 0 && l2 == LevelNormal {
			t.Fatalf("out-of-band value %v classified normal for %+v", v2, th)
		}
	}
}

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name    string
		th      Thresholds
		wantErr bool
	}{
		{"valid", Thresholds{Low: 0, High: 10, Unit: "m", Margin: 1.5}, false},
		{"negative band", Thresholds{Low: -8, High: -2, Unit: "cm", Margin: 2}, false},
		{"low equals high", Thresholds{Low: 5, High: 5, Unit: "m", Margin: 1.5}, true},
		{"low above high", Thresholds{Low: 6, High: 5, Unit: "m", Margin: 1.5}, true},
		{"missing unit", Thresholds{Low: 0, High: 10, Margin: 1.5}, true},
		{"margin below one", Thresholds{Low: 0, High: 10, Unit: "m", Margin: 0.5}, true},
	}
	for _, tt := range tests {
		err := tt.th.Validate()
		if tt.wantErr && err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
		}
		if tt.wantErr && err != nil && !errors.Is(err, ErrConfig) {
			t.Errorf("%s: error %v is not an ErrConfig", tt.name, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
		}
	}
}
