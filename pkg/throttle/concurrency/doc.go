/*
Package concurrency provides a counting admission gate that bounds how many
operations run at once.

A Limiter with capacity C admits at most C concurrent operations. Acquire
blocks while all slots are held and resolves promptly on context
cancellation, so a goroutine waiting for admission can never outlive its
pipeline. Slots are granted to waiters in FIFO order.

	limiter := concurrency.New(8)

	err := limiter.Do(ctx, func() error {
		return fetch(url)
	})

Do releases the slot on every exit path, including panics unwinding through
fn's defers, and is the preferred form. Acquire/Release remain available
when the critical section spans function boundaries:

	if err := limiter.Acquire(ctx); err != nil {
		return err
	}
	defer limiter.Release()

NewWithMetrics wraps a limiter with Prometheus gauges for held and waiting
slots plus a wait-time histogram.
*/
package concurrency
