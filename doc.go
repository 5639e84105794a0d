/*
Package pipework provides a Go library for building concurrent data
pipelines from bounded queues, cooperating stages, and worker pools.

Core building blocks:
  - queue: Bounded generic queues with blocking, non-blocking and
    context-aware operations
  - signal: Cancellation signals layered on context with causes, timeouts
    and OS shutdown hooks
  - pipeline: Stage coordination with fail-fast error handling and
    guaranteed queue cleanup

Topology and flow control:
  - combine: Fan-out, fan-in, priority fan-in and stream-of-streams
    flattening
  - pool: Fixed-size worker pools bounding stage parallelism
  - throttle/concurrency: Semaphore-style limits on in-flight operations
  - throttle/rate: Evenly paced admission of work items

Operations:
  - schedule: Cron-triggered pipeline runs
  - metrics: Prometheus instrumentation for pipelines, pools and limiters

Example usage:

	import (
		"github.com/vnykmshr/pipework/pkg/pipeline"
		"github.com/vnykmshr/pipework/pkg/queue"
	)

	nums := queue.New[int](16)

	p := pipeline.New()
	p.AddStage("produce", func(ctx context.Context) error {
		for i := 0; i < 100; i++ {
			if err := nums.Send(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}, pipeline.WithOutputs(nums))

	result := p.Run(context.Background())
*/
package pipework
