package concurrency

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

// NewWithMetrics creates a concurrency limiter that records slot usage and
// wait times into the given metrics configuration.
func NewWithMetrics(capacity int, name string, cfg metrics.Config) Limiter {
	base := New(capacity)

	if !cfg.Enabled {
		return base
	}

	registry := metrics.DefaultRegistry
	if cfg.Registry != nil {
		registry = metrics.NewRegistry(cfg.Registry)
	}

	ml := &MetricsLimiter{
		limiter:  base,
		name:     name,
		registry: registry,
	}
	ml.updateGauges()
	return ml
}

func (ml *MetricsLimiter) updateGauges() {
	ml.registry.LimiterActive.WithLabelValues(ml.name).Set(float64(ml.limiter.InUse()))
}

// TryAcquire attempts to take one slot without blocking.
func (ml *MetricsLimiter) TryAcquire() bool {
	acquired := ml.limiter.TryAcquire()
	ml.updateGauges()
	return acquired
}

// Acquire blocks until a slot is available or ctx is cancelled.
func (ml *MetricsLimiter) Acquire(ctx context.Context) error {
	start := time.Now()
	ml.registry.LimiterWaiting.WithLabelValues(ml.name).Inc()

	err := ml.limiter.Acquire(ctx)

	ml.registry.LimiterWaiting.WithLabelValues(ml.name).Dec()
	ml.registry.LimiterWaitTime.WithLabelValues("concurrency", ml.name).Observe(time.Since(start).Seconds())
	ml.updateGauges()

	return err
}

// Release returns a slot to the limiter.
func (ml *MetricsLimiter) Release() {
	ml.limiter.Release()
	ml.updateGauges()
}

// Do acquires a slot, runs fn, and releases the slot on every exit path.
func (ml *MetricsLimiter) Do(ctx context.Context, fn func() error) error {
	if err := ml.Acquire(ctx); err != nil {
		return err
	}
	defer ml.Release()
	return fn()
}

// Capacity returns the maximum number of concurrent operations.
func (ml *MetricsLimiter) Capacity() int { return ml.limiter.Capacity() }

// Available returns the number of free slots.
func (ml *MetricsLimiter) Available() int { return ml.limiter.Available() }

// InUse returns the number of held slots.
func (ml *MetricsLimiter) InUse() int { return ml.limiter.InUse() }
