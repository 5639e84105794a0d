/*
Package pipeline provides the coordinator that wires stages into a running
pipeline with uniform cancellation and first-error-wins failure semantics.

A pipeline is built by registering named stages, each a RunFunc reading from
input queues and writing to output queues, then started with Run. The
coordinator starts every stage concurrently, blocks until all of them exit,
and reports one of three terminal states: Completed, Cancelled (the caller's
context fired before any stage failed) or Failed (a stage returned an error;
the first one is the cause and triggers cancellation of every other stage).

# Quick Start

	nums := queue.New[int](8)
	doubled := queue.New[int](8)
	var got []int

	p := pipeline.New()

	p.AddStage("emit", func(ctx context.Context) error {
		for i := 1; i <= 5; i++ {
			if err := nums.Send(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}, pipeline.WithOutputs(nums))

	p.AddStage("double", func(ctx context.Context) error {
		for {
			v, err := nums.Receive(ctx)
			if err != nil {
				return nil // upstream closed
			}
			if err := doubled.Send(ctx, v*2); err != nil {
				return err
			}
		}
	}, pipeline.WithInputs(nums), pipeline.WithOutputs(doubled))

	p.AddStage("collect", func(ctx context.Context) error {
		for {
			v, err := doubled.Receive(ctx)
			if err != nil {
				return nil
			}
			got = append(got, v)
		}
	}, pipeline.WithInputs(doubled))

	result := p.Run(ctx)

# Queue ownership

Each queue has exactly one owning stage, declared with WithOutputs. The
coordinator closes owned queues when their stage exits, on every exit path
including panics, so downstream consumers always observe end of stream.
Registering the same queue as the output of two stages panics at wiring
time: double close is a programming defect and is made unrepresentable
rather than detected at runtime.

# Cancellation and errors

Run derives a shared cancellation from the caller's context. The first stage
error cancels it; every other stage unblocks from its queue operations,
exits, and reports a clean cancellation-induced exit rather than a failure.
Stage errors that lose the first-error race are discarded from the result
and logged through Config.Logger for diagnostics.

Stages that exit because of cancellation should return nil or the context
error; both count as clean. Returning any other error marks the stage, and
the run, as failed.

# Monitoring

Config carries OnStageStart/OnStageComplete callbacks, a zerolog.Logger for
diagnostics, and an optional metrics.Config that records runs, stage
durations and failures to Prometheus.
*/
package pipeline
