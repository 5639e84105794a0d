// Package metrics provides Prometheus instrumentation for pipework components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for pipework components.
type Registry struct {
	// Pipeline Metrics
	PipelineRuns    *prometheus.CounterVec
	PipelineRunning *prometheus.GaugeVec
	StageStarted    *prometheus.CounterVec
	StageCompleted  *prometheus.CounterVec
	StageFailed     *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec

	// Worker Pool Metrics
	PoolWorkers   *prometheus.GaugeVec
	PoolActive    *prometheus.GaugeVec
	PoolProcessed *prometheus.CounterVec
	PoolFailures  *prometheus.CounterVec

	// Throttling Metrics
	LimiterActive   *prometheus.GaugeVec
	LimiterWaiting  *prometheus.GaugeVec
	LimiterWaitTime *prometheus.HistogramVec
	RateAdmitted    *prometheus.CounterVec
	RateDenied      *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by pipework components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registry to use. If nil, uses
	// prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Registry: prometheus.DefaultRegisterer,
	}
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		PipelineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipework",
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by terminal state",
			},
			[]string{"pipeline", "state"},
		),

		PipelineRunning: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "pipework",
				Subsystem: "pipeline",
				Name:      "running",
				Help:      "Number of pipeline runs currently in flight",
			},
			[]string{"pipeline"},
		),

		StageStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipework",
				Subsystem: "stage",
				Name:      "started_total",
				Help:      "Total number of stage executions started",
			},
			[]string{"pipeline", "stage"},
		),

		StageCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipework",
				Subsystem: "stage",
				Name:      "completed_total",
				Help:      "Total number of stage executions completed without error",
			},
			[]string{"pipeline", "stage"},
		),

		StageFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipework",
				Subsystem: "stage",
				Name:      "failed_total",
				Help:      "Total number of stage executions that returned an error",
			},
			[]string{"pipeline", "stage"},
		),

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pipework",
				Subsystem: "stage",
				Name:      "duration_seconds",
				Help:      "Time from stage start to exit",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pipeline", "stage"},
		),

		PoolWorkers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "pipework",
				Subsystem: "pool",
				Name:      "workers",
				Help:      "Configured worker count",
			},
			[]string{"pool"},
		),

		PoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "pipework",
				Subsystem: "pool",
				Name:      "active_workers",
				Help:      "Number of workers currently processing an item",
			},
			[]string{"pool"},
		),

		PoolProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipework",
				Subsystem: "pool",
				Name:      "items_processed_total",
				Help:      "Total number of items processed by the pool",
			},
			[]string{"pool"},
		),

		PoolFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipework",
				Subsystem: "pool",
				Name:      "item_failures_total",
				Help:      "Total number of items whose processing returned an error",
			},
			[]string{"pool"},
		),

		LimiterActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "pipework",
				Subsystem: "concurrency",
				Name:      "active",
				Help:      "Number of held concurrency slots",
			},
			[]string{"limiter"},
		),

		LimiterWaiting: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "pipework",
				Subsystem: "concurrency",
				Name:      "waiting",
				Help:      "Number of operations waiting for a concurrency slot",
			},
			[]string{"limiter"},
		),

		LimiterWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pipework",
				Subsystem: "throttle",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for admission",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"throttle_type", "throttle_name"},
		),

		RateAdmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipework",
				Subsystem: "rate",
				Name:      "admitted_total",
				Help:      "Total number of operations admitted by the rate limiter",
			},
			[]string{"limiter"},
		),

		RateDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pipework",
				Subsystem: "rate",
				Name:      "denied_total",
				Help:      "Total number of non-blocking admissions denied",
			},
			[]string{"limiter"},
		),
	}
}
