package queue

import (
	"context"
	"sync/atomic"

	"github.com/vnykmshr/pipework/pkg/common/errors"
	"github.com/vnykmshr/pipework/pkg/common/validation"
)

// Queue is a bounded, FIFO, closeable conduit between producer and consumer
// goroutines. A queue with capacity 0 behaves as a synchronous hand-off:
// Send blocks until a matching Receive is ready.
//
// Exactly one logical owner (the producing side) may close a queue; any
// number of consumers may read. Sending after Close is a violation of that
// ownership discipline and the caller is expected to make it unrepresentable
// by closing only from the goroutine that performs the sends.
type Queue[T any] interface {
	// Send delivers a value to the queue. It blocks while the queue is full
	// and returns the context error if ctx is cancelled while waiting.
	// Returns ErrClosed if the queue has been closed. ErrClosed is a
	// diagnostic, not a synchronization guarantee: a Send racing or
	// following the owner's Close may panic instead. Only the goroutine
	// that performs the sends may close the queue.
	Send(ctx context.Context, value T) error

	// TrySend attempts to deliver a value without blocking.
	// Returns ErrFull when the queue is full, ErrClosed when closed.
	// The same close discipline as Send applies: TrySend concurrent with
	// Close may panic.
	TrySend(value T) error

	// Receive takes the next value from the queue. It blocks while the queue
	// is empty and returns the context error if ctx is cancelled while
	// waiting. Once the queue is closed and drained it returns ErrClosed.
	Receive(ctx context.Context) (T, error)

	// TryReceive attempts to take a value without blocking. The boolean
	// reports whether a value was taken. Returns ErrClosed once the queue is
	// closed and drained.
	TryReceive() (T, bool, error)

	// Out exposes the receive side of the queue for use in a select across
	// multiple sources. The channel yields buffered values after Close and
	// is closed once drained. Receives through Out bypass the queue's
	// receive counter.
	Out() <-chan T

	// Close marks the queue closed. Buffered values remain receivable.
	// A second Close returns ErrAlreadyClosed; closing twice indicates a
	// broken ownership discipline, never a recoverable condition.
	Close() error

	// Closed reports whether Close has been called.
	Closed() bool

	// Len returns the number of buffered values.
	Len() int

	// Cap returns the queue capacity.
	Cap() int

	// Stats returns queue operation counters.
	Stats() Stats
}

// Stats holds queue operation counters.
type Stats struct {
	// SendCount is the total number of completed sends.
	SendCount int64

	// ReceiveCount is the total number of completed receives.
	ReceiveCount int64

	// BlockedSends is the number of sends that found the queue full and
	// had to wait.
	BlockedSends int64

	// FullRejects is the number of TrySend calls rejected with ErrFull.
	FullRejects int64
}

type queue[T any] struct {
	items  chan T
	closed atomic.Bool

	sends        atomic.Int64
	receives     atomic.Int64
	blockedSends atomic.Int64
	fullRejects  atomic.Int64
}

// New creates a queue with the given capacity. Capacity 0 creates a
// synchronous hand-off queue. Panics if capacity is negative.
func New[T any](capacity int) Queue[T] {
	q, err := NewSafe[T](capacity)
	if err != nil {
		panic(err)
	}
	return q
}

// NewSafe creates a queue with the given capacity, returning an error for
// invalid configuration instead of panicking.
func NewSafe[T any](capacity int) (Queue[T], error) {
	if err := validation.ValidateNonNegative("queue", "capacity", capacity); err != nil {
		return nil, err
	}
	return &queue[T]{items: make(chan T, capacity)}, nil
}

func (q *queue[T]) Send(ctx context.Context, value T) error {
	if q.closed.Load() {
		return errors.ErrClosed
	}

	// Fast path: space available right now.
	select {
	case q.items <- value:
		q.sends.Add(1)
		return nil
	default:
	}

	q.blockedSends.Add(1)

	select {
	case q.items <- value:
		q.sends.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *queue[T]) TrySend(value T) error {
	if q.closed.Load() {
		return errors.ErrClosed
	}

	select {
	case q.items <- value:
		q.sends.Add(1)
		return nil
	default:
		q.fullRejects.Add(1)
		return errors.ErrFull
	}
}

func (q *queue[T]) Receive(ctx context.Context) (T, error) {
	var zero T

	select {
	case value, ok := <-q.items:
		if !ok {
			return zero, errors.ErrClosed
		}
		q.receives.Add(1)
		return value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (q *queue[T]) TryReceive() (T, bool, error) {
	var zero T

	select {
	case value, ok := <-q.items:
		if !ok {
			return zero, false, errors.ErrClosed
		}
		q.receives.Add(1)
		return value, true, nil
	default:
		return zero, false, nil
	}
}

func (q *queue[T]) Out() <-chan T {
	return q.items
}

func (q *queue[T]) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return errors.ErrAlreadyClosed
	}
	close(q.items)
	return nil
}

func (q *queue[T]) Closed() bool {
	return q.closed.Load()
}

func (q *queue[T]) Len() int {
	return len(q.items)
}

func (q *queue[T]) Cap() int {
	return cap(q.items)
}

func (q *queue[T]) Stats() Stats {
	return Stats{
		SendCount:    q.sends.Load(),
		ReceiveCount: q.receives.Load(),
		BlockedSends: q.blockedSends.Load(),
		FullRejects:  q.fullRejects.Load(),
	}
}
