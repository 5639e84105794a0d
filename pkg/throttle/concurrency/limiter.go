package concurrency

import (
	"context"
	"sync"

	"github.com/vnykmshr/pipework/pkg/common/validation"
)

// Limiter is a counting admission gate that bounds how many operations run
// at once. An operation acquires a slot before starting and must release it
// on every exit path; Do wraps that discipline for callers.
type Limiter interface {
	// TryAcquire attempts to take one slot without blocking.
	// It returns true if a slot was available.
	TryAcquire() bool

	// Acquire blocks until a slot is available or ctx is cancelled.
	// Waiting participates in the cancellation wait: a blocked Acquire
	// returns promptly once ctx fires.
	Acquire(ctx context.Context) error

	// Release returns a slot to the limiter. It panics if more slots are
	// released than were acquired.
	Release()

	// Do acquires a slot, runs fn, and releases the slot regardless of how
	// fn exits. It returns ctx's error if the slot could not be acquired.
	Do(ctx context.Context, fn func() error) error

	// Capacity returns the maximum number of concurrent operations.
	Capacity() int

	// Available returns the number of free slots.
	Available() int

	// InUse returns the number of held slots.
	InUse() int
}

type waiter struct {
	ready  chan struct{}
	cancel <-chan struct{}
}

type limiter struct {
	mu        sync.Mutex
	capacity  int
	available int
	inUse     int
	waiters   []waiter
}

// New creates a Limiter with the given capacity. Panics if capacity is not
// positive.
func New(capacity int) Limiter {
	l, err := NewSafe(capacity)
	if err != nil {
		panic(err)
	}
	return l
}

// NewSafe creates a Limiter with the given capacity, returning an error for
// invalid configuration instead of panicking.
func NewSafe(capacity int) (Limiter, error) {
	if err := validation.ValidatePositive("concurrency", "capacity", capacity); err != nil {
		return nil, err
	}
	return &limiter{capacity: capacity, available: capacity}, nil
}

func (l *limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.available > 0 {
		l.available--
		l.inUse++
		return true
	}
	return false
}

func (l *limiter) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	l.mu.Lock()

	// Fast path: slot available immediately.
	if l.available > 0 {
		l.available--
		l.inUse++
		l.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	l.waiters = append(l.waiters, waiter{ready: ready, cancel: ctx.Done()})
	l.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		l.removeWaiter(ready)
		// The slot may have been granted between ctx firing and removal.
		select {
		case <-ready:
			l.Release()
		default:
		}
		return ctx.Err()
	}
}

func (l *limiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inUse == 0 {
		panic("concurrency: released more slots than acquired")
	}

	l.available++
	l.inUse--
	l.notifyWaiters()
}

func (l *limiter) Do(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

func (l *limiter) Capacity() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.capacity
}

func (l *limiter) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.available
}

func (l *limiter) InUse() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inUse
}

// notifyWaiters grants slots to waiting goroutines in FIFO order.
// Must be called with l.mu held.
func (l *limiter) notifyWaiters() {
	var remaining []waiter

	for i, w := range l.waiters {
		select {
		case <-w.cancel:
			// Skip cancelled waiters.
			continue
		default:
		}

		if l.available == 0 {
			remaining = append(remaining, l.waiters[i:]...)
			break
		}

		l.available--
		l.inUse++
		close(w.ready)
	}

	l.waiters = remaining
}

// removeWaiter drops a cancelled waiter from the list.
func (l *limiter) removeWaiter(ready chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var remaining []waiter
	for _, w := range l.waiters {
		if w.ready != ready {
			remaining = append(remaining, w)
		}
	}
	l.waiters = remaining
}
