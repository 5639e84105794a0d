package signal

import (
	"context"
	"errors"
	"os"
	osignal "os/signal"
	"sync"
	"syscall"
	"time"
)

// ErrShutdown is the cancellation cause recorded when an OS termination
// signal fires a Signal created by NotifyShutdown.
var ErrShutdown = errors.New("shutdown signal received")

// Signal is a one-shot, broadcast stop flag with an optional deadline and an
// originating cause. Once fired it never resets; cancelling twice is a no-op
// and only the first cause is retained.
//
// Signals form a hierarchy: a child fires when either its own Cancel is
// called or its parent fires. Propagation is strictly downward.
type Signal struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	timer  context.CancelFunc
}

// New creates a root Signal with no deadline.
func New() *Signal {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &Signal{ctx: ctx, cancel: cancel}
}

// NewWithTimeout creates a root Signal that fires automatically once the
// timeout elapses, with cause context.DeadlineExceeded.
func NewWithTimeout(timeout time.Duration) *Signal {
	base, cancel := context.WithCancelCause(context.Background())
	ctx, timer := context.WithTimeout(base, timeout)
	return &Signal{ctx: ctx, cancel: cancel, timer: timer}
}

// Child derives a Signal that fires when either its own Cancel is called or
// the parent fires, whichever happens first.
func Child(parent *Signal) *Signal {
	ctx, cancel := context.WithCancelCause(parent.ctx)
	return &Signal{ctx: ctx, cancel: cancel}
}

// FromContext derives a Signal from an existing context. The Signal fires
// when the context is done or when Cancel is called.
func FromContext(parent context.Context) *Signal {
	ctx, cancel := context.WithCancelCause(parent)
	return &Signal{ctx: ctx, cancel: cancel}
}

// NotifyShutdown derives a child Signal that fires with cause ErrShutdown
// when the process receives one of the given OS signals (SIGINT and SIGTERM
// by default). The returned stop function releases the signal watcher and is
// safe to call more than once; it is typically deferred by the caller.
func NotifyShutdown(parent *Signal, sigs ...os.Signal) (*Signal, func()) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	child := Child(parent)

	ch := make(chan os.Signal, 1)
	osignal.Notify(ch, sigs...)

	done := make(chan struct{})
	go func() {
		defer osignal.Stop(ch)
		select {
		case <-ch:
			child.Cancel(ErrShutdown)
		case <-child.Done():
		case <-done:
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() { close(done) })
	}
	return child, stop
}

// Done returns a channel that is closed once the Signal fires. Consumers
// must combine it with their blocking queue operations in a single select,
// never poll it in a loop.
func (s *Signal) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Cancel fires the Signal with the given cause. Calling Cancel on an
// already-fired Signal is a no-op; the first cause wins. A nil cause is
// recorded as context.Canceled.
func (s *Signal) Cancel(cause error) {
	s.cancel(cause)
	if s.timer != nil {
		s.timer()
	}
}

// Cancelled reports whether the Signal has fired.
func (s *Signal) Cancelled() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

// Cause returns the error that fired the Signal, or nil if it has not fired.
func (s *Signal) Cause() error {
	if !s.Cancelled() {
		return nil
	}
	return context.Cause(s.ctx)
}

// Err returns the context error (context.Canceled or
// context.DeadlineExceeded), or nil if the Signal has not fired.
func (s *Signal) Err() error {
	return s.ctx.Err()
}

// Deadline returns the Signal's deadline, if one was configured.
func (s *Signal) Deadline() (time.Time, bool) {
	return s.ctx.Deadline()
}

// Context exposes the Signal as a context.Context for APIs that block on
// one, such as queue sends and receives.
func (s *Signal) Context() context.Context {
	return s.ctx
}
