package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	pwerrors "github.com/vnykmshr/pipework/pkg/common/errors"
	"github.com/vnykmshr/pipework/pkg/metrics"
)

// State is the coordinator's position in its lifecycle.
type State int32

const (
	// StateBuilding accepts stage registrations.
	StateBuilding State = iota

	// StateRunning means all stages have been started.
	StateRunning

	// StateCompleted means every stage returned without error and without
	// cancellation.
	StateCompleted

	// StateCancelled means an external signal stopped the pipeline before
	// any stage failed.
	StateCancelled

	// StateFailed means a stage returned an error; the first one is the
	// reported cause.
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the aggregate outcome of a pipeline run. The three terminal
// states need different operator responses: Completed means all work was
// done, Cancelled means the caller asked for shutdown, Failed carries the
// first stage error as the cause.
type Result struct {
	// State is the terminal state of the run.
	State State

	// Err is the first stage error observed, nil unless State is Failed.
	Err error

	// Stages holds per-stage outcomes in registration order.
	Stages []StageResult

	// Duration is the wall time from start to the last stage exit.
	Duration time.Duration
}

// Pipeline wires stages together, owns their shared cancellation, collects
// the first error from any stage, and orchestrates shutdown.
type Pipeline interface {
	// AddStage registers a named stage. It panics on an empty name, a nil
	// run function, a duplicate stage name, or an output queue already owned
	// by another stage; all four are wiring defects, not runtime conditions.
	AddStage(name string, fn RunFunc, opts ...StageOption) Pipeline

	// Run starts every registered stage, blocks until all of them exit, and
	// reports the aggregate outcome. A pipeline runs once; subsequent calls
	// return a Result carrying ErrPipelineRunning.
	Run(ctx context.Context) Result

	// State returns the coordinator's current lifecycle state.
	State() State

	// Stages returns the names of registered stages in registration order.
	Stages() []string
}

// Config holds pipeline configuration options.
type Config struct {
	// Name identifies the pipeline in logs and metrics.
	Name string

	// Logger receives diagnostics, in particular stage errors discarded
	// because an earlier error already won. Defaults to a no-op logger.
	Logger zerolog.Logger

	// OnStageStart is called when a stage's run function is entered.
	OnStageStart func(name string)

	// OnStageComplete is called when a stage exits, clean or not.
	OnStageComplete func(result StageResult)

	// Metrics enables Prometheus instrumentation for this pipeline.
	Metrics metrics.Config
}

type pipeline struct {
	config   Config
	registry *metrics.Registry

	mu     sync.Mutex
	state  State
	stages []*Stage
	owners map[Closer]string
}

// New creates a pipeline with default configuration.
func New() Pipeline {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a pipeline with the specified configuration.
func NewWithConfig(config Config) Pipeline {
	if config.Name == "" {
		config.Name = "pipeline"
	}

	p := &pipeline{
		config: config,
		state:  StateBuilding,
		owners: make(map[Closer]string),
	}

	if config.Metrics.Enabled {
		p.registry = metrics.DefaultRegistry
		if config.Metrics.Registry != nil {
			p.registry = metrics.NewRegistry(config.Metrics.Registry)
		}
	}

	return p
}

func (p *pipeline) AddStage(name string, fn RunFunc, opts ...StageOption) Pipeline {
	if name == "" {
		panic("pipeline: stage name cannot be empty")
	}
	if fn == nil {
		panic("pipeline: stage run function cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateBuilding {
		panic("pipeline: cannot add stage after Run")
	}
	for _, existing := range p.stages {
		if existing.name == name {
			panic(fmt.Sprintf("pipeline: duplicate stage name %q", name))
		}
	}

	st := &Stage{name: name, run: fn}
	for _, opt := range opts {
		opt(st)
	}

	// Single-owner close discipline, enforced at wiring time.
	for _, out := range st.outputs {
		if owner, taken := p.owners[out]; taken {
			panic(fmt.Sprintf("pipeline: output queue of stage %q already owned by stage %q", name, owner))
		}
		p.owners[out] = name
	}

	p.stages = append(p.stages, st)
	return p
}

func (p *pipeline) Run(ctx context.Context) Result {
	p.mu.Lock()
	if p.state != StateBuilding {
		state := p.state
		p.mu.Unlock()
		return Result{State: state, Err: pwerrors.ErrPipelineRunning}
	}
	p.state = StateRunning
	stages := p.stages
	p.mu.Unlock()

	if p.registry != nil {
		p.registry.PipelineRunning.WithLabelValues(p.config.Name).Inc()
		defer p.registry.PipelineRunning.WithLabelValues(p.config.Name).Dec()
	}

	start := time.Now()
	results := make([]StageResult, len(stages))

	g, gctx := errgroup.WithContext(ctx)
	for i, st := range stages {
		i, st := i, st
		g.Go(func() error {
			results[i] = p.runStage(gctx, st)
			if err := results[i].Err; err != nil {
				return fmt.Errorf("stage %s: %w", st.name, err)
			}
			return nil
		})
	}

	// First error wins; the group cancels gctx so every other stage
	// observes cancellation and exits. Wait never abandons a stage.
	firstErr := g.Wait()
	duration := time.Since(start)

	var state State
	switch {
	case firstErr != nil:
		state = StateFailed
	case ctx.Err() != nil:
		state = StateCancelled
	default:
		state = StateCompleted
	}

	p.logDiscardedErrors(results, firstErr)

	p.mu.Lock()
	p.state = state
	p.mu.Unlock()

	if p.registry != nil {
		p.registry.PipelineRuns.WithLabelValues(p.config.Name, state.String()).Inc()
	}

	return Result{
		State:    state,
		Err:      firstErr,
		Stages:   results,
		Duration: duration,
	}
}

// runStage executes one stage, guaranteeing that every output queue the
// stage owns is closed exactly once no matter how the run function exits.
func (p *pipeline) runStage(ctx context.Context, st *Stage) (result StageResult) {
	start := time.Now()

	if p.config.OnStageStart != nil {
		p.config.OnStageStart(st.name)
	}
	if p.registry != nil {
		p.registry.StageStarted.WithLabelValues(p.config.Name, st.name).Inc()
	}

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("stage panicked: %v\nStack trace:\n%s", r, debug.Stack())
		}

		for _, out := range st.outputs {
			if err := out.Close(); err != nil {
				// The run function closed its own output; single-owner
				// discipline says it should not have.
				p.config.Logger.Warn().
					Str("pipeline", p.config.Name).
					Str("stage", st.name).
					Err(err).
					Msg("output queue close")
			}
		}

		result.Name = st.name
		result.Duration = time.Since(start)

		if p.registry != nil {
			p.registry.StageDuration.WithLabelValues(p.config.Name, st.name).Observe(result.Duration.Seconds())
			if result.Err != nil {
				p.registry.StageFailed.WithLabelValues(p.config.Name, st.name).Inc()
			} else {
				p.registry.StageCompleted.WithLabelValues(p.config.Name, st.name).Inc()
			}
		}
		if p.config.OnStageComplete != nil {
			p.config.OnStageComplete(result)
		}
	}()

	err := st.run(ctx)

	// A stage unblocked by cancellation exits clean; shutdown is not that
	// stage's failure.
	if err != nil && pwerrors.IsCancellation(err) {
		result.Cancelled = true
		err = nil
	}
	if err == nil && ctx.Err() != nil {
		result.Cancelled = true
	}

	result.Err = err
	return result
}

// logDiscardedErrors reports stage errors that lost the first-error race.
// They never surface as the primary cause, but they matter for diagnostics.
func (p *pipeline) logDiscardedErrors(results []StageResult, firstErr error) {
	if firstErr == nil {
		return
	}
	for _, sr := range results {
		if sr.Err == nil || errors.Is(firstErr, sr.Err) {
			continue
		}
		p.config.Logger.Debug().
			Str("pipeline", p.config.Name).
			Str("stage", sr.Name).
			Err(sr.Err).
			Msg("stage error discarded; an earlier error won")
	}
}

func (p *pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *pipeline) Stages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.name
	}
	return names
}
