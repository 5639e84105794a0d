/*
Package queue provides bounded, closeable FIFO queues that connect pipeline
stages.

A Queue passes values from producers to consumers with a fixed capacity.
When the queue is full, Send blocks the producer, providing natural
backpressure; when it is empty, Receive blocks the consumer. Both operations
take a context and resolve promptly on cancellation, so a goroutine blocked
on a queue can never outlive its pipeline.

Basic usage:

	q := queue.New[int](16)

	// Producer owns the queue and closes it when done.
	go func() {
		defer q.Close()
		for i := 0; i < 5; i++ {
			if err := q.Send(ctx, i); err != nil {
				return
			}
		}
	}()

	// Consumer drains until ErrClosed.
	for {
		v, err := q.Receive(ctx)
		if err != nil {
			break
		}
		process(v)
	}

Lifecycle:

A queue moves through three states: open (sends and receives proceed),
closing (Close has been called, buffered values still deliverable) and
closed (empty and closed; Receive returns ErrClosed). A queue never reopens.

Ownership:

Exactly one goroutine, the producing side, may call Close, typically in a
defer. A second Close returns ErrAlreadyClosed rather than passing silently:
double close always indicates a broken ownership discipline. Sending on a
queue after closing it is likewise a programming defect: Send returns
ErrClosed once the close has been observed, but a Send racing a Close from
another goroutine may panic. Keep sends and the close on the same goroutine
and the race cannot occur.

Capacity 0 creates a synchronous hand-off: Send does not return until a
consumer has taken the value. This is useful when the producer must not run
ahead of the consumer at all.
*/
package queue
