package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReadingsTotal counts produced readings per station
	ReadingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_readings_total",
			Help: "Total number of readings produced",
		},
		[]string{"station"},
	)

	// AlertsTotal counts threshold breaches by alert level
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_alerts_total",
			Help: "Total number of threshold breaches",
		},
		[]string{"station", "level"},
	)

	// WaterLevel last observed water level per station
	WaterLevel = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tidewatch_water_level",
			Help: "Last observed water level per station",
		},
		[]string{"station"},
	)

	// StationsByState number of stations in each lifecycle state
	StationsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tidewatch_stations_by_state",
			Help: "Number of stations in each lifecycle state",
		},
		[]string{"state"},
	)

	// InterruptionsTotal interruption signals acted upon
	InterruptionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tidewatch_interruptions_total",
			Help: "Total number of interruption signals acted upon",
		},
	)

	// InterruptionsSuppressed interruption signals absorbed by the debounce window
	InterruptionsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tidewatch_interruptions_suppressed_total",
			Help: "Total number of interruption signals suppressed by debouncing",
		},
	)

	// GeneratorFaults simulated sensor failures by cause
	GeneratorFaults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidewatch_generator_faults_total",
			Help: "Total number of generator faults",
		},
		[]string{"station", "cause"},
	)

	// IngestDuration time spent classifying and applying one reading
	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tidewatch_ingest_duration_seconds",
			Help:    "Time spent ingesting one reading",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
	)
)
