package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	pwerrors "github.com/vnykmshr/pipework/pkg/common/errors"
	"github.com/vnykmshr/pipework/pkg/common/validation"
	"github.com/vnykmshr/pipework/pkg/metrics"
	"github.com/vnykmshr/pipework/pkg/queue"
)

// WorkFunc processes one item. Returning an error fails the whole pool
// (fail-fast); retries, if desired, belong inside the WorkFunc itself.
type WorkFunc[T, R any] func(ctx context.Context, item T) (R, error)

// Pool is a fixed-size group of workers competing for items on one shared
// input queue. Results may complete out of order relative to submission:
// workers race for the next queued item.
type Pool interface {
	// Run starts the workers and blocks until the input queue is closed and
	// drained, a worker fails, or ctx is cancelled. The output queue closes
	// only after every worker has exited. Run is one-shot.
	Run(ctx context.Context) error

	// Workers returns the configured worker count.
	Workers() int

	// Stats returns pool execution counters.
	Stats() Stats
}

// Stats holds pool execution counters.
type Stats struct {
	// Workers is the configured worker count.
	Workers int

	// Active is the number of workers currently processing an item.
	Active int

	// Processed is the number of items completed without error.
	Processed int64

	// Failures is the number of items whose WorkFunc returned an error.
	Failures int64
}

// Config holds configuration options for creating a pool.
type Config struct {
	// Workers is the number of concurrent workers. Must be positive.
	Workers int

	// Name identifies the pool in metrics.
	Name string

	// OnItem is called after each item completes, with the worker that
	// processed it and the item's error, if any.
	OnItem func(workerID int, err error)

	// Metrics enables Prometheus instrumentation for this pool.
	Metrics metrics.Config
}

type pool[T, R any] struct {
	config   Config
	in       queue.Queue[T]
	out      queue.Queue[R]
	fn       WorkFunc[T, R]
	registry *metrics.Registry

	started   atomic.Bool
	active    atomic.Int32
	processed atomic.Int64
	failures  atomic.Int64
}

// New creates a pool of the given size processing items from in into out.
// Pass a nil out for a sink pool whose WorkFunc result is discarded.
// Panics on invalid configuration.
func New[T, R any](workers int, in queue.Queue[T], out queue.Queue[R], fn WorkFunc[T, R]) Pool {
	return NewWithConfig(Config{Workers: workers}, in, out, fn)
}

// NewWithConfig creates a pool with the specified configuration.
func NewWithConfig[T, R any](config Config, in queue.Queue[T], out queue.Queue[R], fn WorkFunc[T, R]) Pool {
	p, err := NewSafe(config, in, out, fn)
	if err != nil {
		panic(err)
	}
	return p
}

// NewSafe creates a pool, returning an error for invalid configuration
// instead of panicking.
func NewSafe[T, R any](config Config, in queue.Queue[T], out queue.Queue[R], fn WorkFunc[T, R]) (Pool, error) {
	if err := validation.ValidatePositive("pool", "workers", config.Workers); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, pwerrors.NewValidationError("pool", "in", nil, "cannot be nil").
			WithHint("provide the shared input queue")
	}
	if fn == nil {
		return nil, pwerrors.NewValidationError("pool", "fn", nil, "cannot be nil").
			WithHint("provide a work function")
	}
	if config.Name == "" {
		config.Name = "pool"
	}

	p := &pool[T, R]{config: config, in: in, out: out, fn: fn}

	if config.Metrics.Enabled {
		p.registry = metrics.DefaultRegistry
		if config.Metrics.Registry != nil {
			p.registry = metrics.NewRegistry(config.Metrics.Registry)
		}
		p.registry.PoolWorkers.WithLabelValues(config.Name).Set(float64(config.Workers))
	}

	return p, nil
}

func (p *pool[T, R]) Run(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return pwerrors.ErrPipelineRunning
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < p.config.Workers; w++ {
		w := w
		g.Go(func() error {
			return p.worker(gctx, w)
		})
	}

	// The join across all workers guarantees the output queue is not
	// closed while any worker could still send to it.
	err := g.Wait()
	if p.out != nil {
		if cerr := p.out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (p *pool[T, R]) worker(ctx context.Context, id int) error {
	for {
		item, err := p.in.Receive(ctx)
		if err != nil {
			if errors.Is(err, pwerrors.ErrClosed) {
				return nil // input drained
			}
			return err
		}

		result, err := p.processItem(ctx, item)

		if p.config.OnItem != nil {
			p.config.OnItem(id, err)
		}

		if err != nil {
			p.failures.Add(1)
			if p.registry != nil {
				p.registry.PoolFailures.WithLabelValues(p.config.Name).Inc()
			}
			return fmt.Errorf("worker %d: %w", id, err)
		}

		p.processed.Add(1)
		if p.registry != nil {
			p.registry.PoolProcessed.WithLabelValues(p.config.Name).Inc()
		}

		if p.out != nil {
			if err := p.out.Send(ctx, result); err != nil {
				return err
			}
		}
	}
}

// processItem runs the work function with panic recovery, so a panicking
// item surfaces as that worker's error instead of crashing the process.
func (p *pool[T, R]) processItem(ctx context.Context, item T) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("work function panicked: %v\nStack trace:\n%s", r, debug.Stack())
		}
	}()

	p.active.Add(1)
	if p.registry != nil {
		p.registry.PoolActive.WithLabelValues(p.config.Name).Inc()
	}
	defer func() {
		p.active.Add(-1)
		if p.registry != nil {
			p.registry.PoolActive.WithLabelValues(p.config.Name).Dec()
		}
	}()

	return p.fn(ctx, item)
}

func (p *pool[T, R]) Workers() int {
	return p.config.Workers
}

func (p *pool[T, R]) Stats() Stats {
	return Stats{
		Workers:   p.config.Workers,
		Active:    int(p.active.Load()),
		Processed: p.processed.Load(),
		Failures:  p.failures.Load(),
	}
}
