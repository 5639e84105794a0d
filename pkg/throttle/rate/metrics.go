package rate

import (
	"context"
	"time"

	"github.com/vnykmshr/pipework/pkg/metrics"
)

// MetricsLimiter wraps a Limiter with Prometheus metrics collection.
type MetricsLimiter struct {
	limiter  Limiter
	name     string
	registry *metrics.Registry
}

// NewWithMetrics creates a paced limiter that records admissions, denials
// and wait times into the given metrics configuration.
func NewWithMetrics(interval time.Duration, name string, cfg metrics.Config) Limiter {
	base := NewEvery(interval)

	if !cfg.Enabled {
		return base
	}

	registry := metrics.DefaultRegistry
	if cfg.Registry != nil {
		registry = metrics.NewRegistry(cfg.Registry)
	}

	return &MetricsLimiter{
		limiter:  base,
		name:     name,
		registry: registry,
	}
}

// Admit blocks until the next admission slot or until ctx is cancelled.
func (ml *MetricsLimiter) Admit(ctx context.Context) error {
	start := time.Now()
	err := ml.limiter.Admit(ctx)

	ml.registry.LimiterWaitTime.WithLabelValues("rate", ml.name).Observe(time.Since(start).Seconds())
	if err == nil {
		ml.registry.RateAdmitted.WithLabelValues(ml.name).Inc()
	}
	return err
}

// Allow reports whether an operation may start now, without blocking.
func (ml *MetricsLimiter) Allow() bool {
	ok := ml.limiter.Allow()
	if ok {
		ml.registry.RateAdmitted.WithLabelValues(ml.name).Inc()
	} else {
		ml.registry.RateDenied.WithLabelValues(ml.name).Inc()
	}
	return ok
}

// Interval returns the pacing interval.
func (ml *MetricsLimiter) Interval() time.Duration { return ml.limiter.Interval() }

// SetInterval changes the pacing interval for subsequent admissions.
func (ml *MetricsLimiter) SetInterval(d time.Duration) { ml.limiter.SetInterval(d) }
