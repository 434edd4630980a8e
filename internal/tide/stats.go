package tide

import "math"

// Stats accumulates rolling statistics over a stream of values using
// Welford's incremental algorithm, avoiding the drift of a naive
// sum-of-values mean.
type Stats struct {
	count uint64
	mean  float64
	m2    float64
	min   float64
	max   float64
}

// Add folds one value into the statistics.
func (s *Stats) Add(v float64) {
	s.count++
	if s.count == 1 {
		s.min, s.max = v, v
	} else {
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
	}
	delta := v - s.mean
	s.mean += delta / float64(s.count)
	s.m2 += delta * (v - s.mean)
}

// Count returns the number of values seen.
func (s *Stats) Count() uint64 { return s.count }

// Mean returns the running mean, or 0 before any value was added.
func (s *Stats) Mean() float64 { return s.mean }

// Min returns the smallest value seen, or 0 before any value was added.
func (s *Stats) Min() float64 {
	if s.count == 0 {
		return 0
	}
	return s.min
}

// Max returns the largest value seen, or 0 before any value was added.
func (s *Stats) Max() float64 {
	if s.count == 0 {
		return 0
	}
	return s.max
}

// StdDev returns the population standard deviation.
func (s *Stats) StdDev() float64 {
	if s.count < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.count))
}

// StatsSnapshot is a plain copy of the accumulated statistics, safe to
// hand out without exposing the accumulator itself.
type StatsSnapshot struct {
	Count  uint64  `json:"count"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// Snapshot returns a copy of the current statistics.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Count:  s.count,
		Mean:   s.mean,
		Min:    s.Min(),
		Max:    s.Max(),
		StdDev: s.StdDev(),
	}
}
