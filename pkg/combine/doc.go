/*
Package combine provides the queue combinators that shape pipeline
topologies: fan-out, fan-in, priority fan-in and stream-of-streams
flattening.

All combinators are blocking stage bodies: they run until their sources are
exhausted or the context is cancelled, and they close the output queues they
own before returning. Wire them into a pipeline as the run function of a
stage, without redeclaring their outputs:

	merged := queue.New[int](16)

	p.AddStage("merge", func(ctx context.Context) error {
		return combine.Merge(ctx, merged, left, right)
	})

FanOut distributes one queue's items across several outputs with competing
forwarders; every item goes to exactly one output. Merge is the inverse,
draining several sources into one output that closes only after the last
source is drained. PriorityMerge serves two sources with unequal priority
using a two-phase wait: a non-blocking check of the urgent source first,
then a fair blocking wait across both. Bridge consumes a queue whose
elements are themselves queues, draining each into a single flat output.

Failure semantics follow the rest of the engine: the first error cancels
the combinator's internal group, every forwarder unblocks and exits, and
owned outputs are closed so downstream consumers observe end of stream.
*/
package combine
