// Package metrics exports container activity to Prometheus.
//
//	rec := metrics.NewRecorder(&metrics.Config{Registry: reg})
//	c := container.New(container.WithRecorder(rec))
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/types"
)

// Config configures the recorder.
type Config struct {
	// Namespace is the Prometheus namespace for all metrics.
	// Default: "inject"
	Namespace string

	// Subsystem is the Prometheus subsystem for all metrics.
	// Default: "container"
	Subsystem string

	// LoadBuckets are the histogram buckets for load duration.
	// Default: {0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	LoadBuckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() *Config {
	return &Config{
		Namespace:   "inject",
		Subsystem:   "container",
		LoadBuckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		Registry:    prometheus.DefaultRegisterer,
	}
}

// Recorder implements container.Recorder on Prometheus collectors.
type Recorder struct {
	config *Config

	loadDuration  prometheus.Histogram
	rounds        prometheus.Gauge
	applied       prometheus.Gauge
	unapplied     prometheus.Gauge
	registrations *prometheus.CounterVec
	resolutions   *prometheus.CounterVec
	thresholds    prometheus.Counter
}

var _ container.Recorder = (*Recorder)(nil)

// NewRecorder creates and registers the container metrics. Zero fields of
// config take their defaults.
func NewRecorder(config *Config) *Recorder {
	def := DefaultConfig()
	if config == nil {
		config = def
	}
	if config.Namespace == "" {
		config.Namespace = def.Namespace
	}
	if config.Subsystem == "" {
		config.Subsystem = def.Subsystem
	}
	if len(config.LoadBuckets) == 0 {
		config.LoadBuckets = def.LoadBuckets
	}
	if config.Registry == nil {
		config.Registry = def.Registry
	}

	r := &Recorder{config: config}
	r.initMetrics()
	return r
}

func (r *Recorder) initMetrics() {
	ns, sub := r.config.Namespace, r.config.Subsystem

	r.loadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns,
		Subsystem: sub,
		Name:      "load_duration_seconds",
		Help:      "Duration of container loads in seconds",
		Buckets:   r.config.LoadBuckets,
	})

	r.rounds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns,
		Subsystem: sub,
		Name:      "load_rounds",
		Help:      "Conditional rounds needed by the last load",
	})

	r.applied = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns,
		Subsystem: sub,
		Name:      "conditional_applied",
		Help:      "Conditional providers registered by the last load",
	})

	r.unapplied = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns,
		Subsystem: sub,
		Name:      "conditional_unapplied",
		Help:      "Conditional providers whose condition never matched in the last load",
	})

	r.registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Subsystem: sub,
		Name:      "registrations_total",
		Help:      "Total number of registered providers by erased root type",
	}, []string{"type"})

	r.resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Subsystem: sub,
		Name:      "resolutions_total",
		Help:      "Total number of queries by outcome",
	}, []string{"outcome"})

	r.thresholds = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Subsystem: sub,
		Name:      "round_threshold_exceeded_total",
		Help:      "Loads that needed at least the configured number of conditional rounds",
	})

	r.config.Registry.MustRegister(
		r.loadDuration,
		r.rounds,
		r.applied,
		r.unapplied,
		r.registrations,
		r.resolutions,
		r.thresholds,
	)
}

func (r *Recorder) RecordLoad(res container.LoadResult) {
	r.loadDuration.Observe(res.Duration.Seconds())
	r.rounds.Set(float64(res.Rounds))
	r.applied.Set(float64(res.Applied))
	r.unapplied.Set(float64(res.Unapplied))
}

// RecordRegistration counts by erased type to keep label cardinality bounded.
func (r *Recorder) RecordRegistration(t types.TypeIdentifier) {
	r.registrations.WithLabelValues(t.Erasure().Key()).Inc()
}

func (r *Recorder) RecordResolution(outcome container.ResolutionOutcome) {
	r.resolutions.WithLabelValues(string(outcome)).Inc()
}

func (r *Recorder) RecordRoundThresholdExceeded(int) {
	r.thresholds.Inc()
}

// Registry returns the registerer the metrics were registered with.
func (r *Recorder) Registry() prometheus.Registerer { return r.config.Registry }
