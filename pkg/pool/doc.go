/*
Package pool provides a fixed-size worker pool that bounds the parallelism
of one pipeline stage.

N workers share one input queue and, typically, one output queue. Workers
compete for the next queued item, so results complete in no particular
order. The pool is complete only when the producer has closed the input
queue and every worker has drained it and exited; only then does the pool
close the output queue.

	jobs := queue.New[Job](64)
	results := queue.New[Result](64)

	workers := pool.New(8, jobs, results, func(ctx context.Context, j Job) (Result, error) {
		return process(ctx, j)
	})

	p.AddStage("workers", workers.Run)

The first worker error cancels the rest of the pool and is reported as the
pool's error; a worker unblocked by cancellation exits without one. Panics
inside the work function are recovered into errors. For N items submitted
on the clean path, exactly N results are produced, with no duplication and
no loss, regardless of the worker count.
*/
package pool
