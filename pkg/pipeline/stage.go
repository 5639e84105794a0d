package pipeline

import (
	"context"
	"time"
)

// RunFunc is a stage's execution loop. It reads from the stage's input
// queues, writes to its output queues, and returns when its work is done,
// when it fails, or when ctx is cancelled. A RunFunc that exits because of
// cancellation must return nil or the context error; either is treated as a
// clean cancellation exit, not a failure.
type RunFunc func(ctx context.Context) error

// Closer is the part of a queue a stage's owner must release on exit.
// queue.Queue[T] satisfies it for any T.
type Closer interface {
	Close() error
}

// Stage is a named unit of work wired into a pipeline. Stages are created
// through Pipeline.AddStage and started by Run; they terminate exactly once.
type Stage struct {
	name    string
	run     RunFunc
	inputs  []Closer
	outputs []Closer
}

// Name returns the stage's unique name within its pipeline.
func (s *Stage) Name() string { return s.name }

// StageOption configures a stage at registration time.
type StageOption func(*Stage)

// WithInputs declares the queues the stage consumes. Inputs are recorded for
// wiring checks only; a consumer never closes its inputs.
func WithInputs(inputs ...Closer) StageOption {
	return func(s *Stage) {
		s.inputs = append(s.inputs, inputs...)
	}
}

// WithOutputs declares the queues the stage owns as producer. The pipeline
// closes each of them exactly once when the stage exits, on every exit path.
// A queue may be owned by at most one stage.
func WithOutputs(outputs ...Closer) StageOption {
	return func(s *Stage) {
		s.outputs = append(s.outputs, outputs...)
	}
}

// StageResult records the outcome of one stage's execution.
type StageResult struct {
	// Name is the stage name.
	Name string

	// Err is the stage's failure, nil for a clean exit. Cancellation-induced
	// exits are clean: a stage that returns the context error after the
	// pipeline was cancelled reports no failure here.
	Err error

	// Cancelled reports whether the stage exited due to cancellation rather
	// than finishing its work.
	Cancelled bool

	// Duration is the time from stage start to exit.
	Duration time.Duration
}
