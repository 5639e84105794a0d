package rate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vnykmshr/pipework/pkg/common/validation"
)

// Limiter is an admission gate paced by a fixed interval: at most one
// operation is admitted per interval, producing evenly spaced starts
// regardless of how fast callers request admission.
type Limiter interface {
	// Admit blocks until the next admission slot or until ctx is cancelled.
	// Waiting participates in the cancellation wait.
	Admit(ctx context.Context) error

	// Allow reports whether an operation may start now, without blocking.
	Allow() bool

	// Interval returns the pacing interval.
	Interval() time.Duration

	// SetInterval changes the pacing interval for subsequent admissions.
	SetInterval(d time.Duration)
}

type pacedLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	lim      *rate.Limiter
}

// NewEvery creates a Limiter that admits one operation per interval.
// Panics if the interval is not positive.
func NewEvery(interval time.Duration) Limiter {
	l, err := NewEverySafe(interval)
	if err != nil {
		panic(err)
	}
	return l
}

// NewEverySafe creates a Limiter that admits one operation per interval,
// returning an error for invalid configuration instead of panicking.
func NewEverySafe(interval time.Duration) (Limiter, error) {
	if err := validation.ValidatePositiveDuration("rate", "interval", int64(interval)); err != nil {
		return nil, err
	}
	// Burst 1 keeps admissions evenly spaced instead of allowing catch-up
	// bursts after an idle period.
	return &pacedLimiter{
		interval: interval,
		lim:      rate.NewLimiter(rate.Every(interval), 1),
	}, nil
}

func (p *pacedLimiter) Admit(ctx context.Context) error {
	p.mu.Lock()
	lim := p.lim
	p.mu.Unlock()
	return lim.Wait(ctx)
}

func (p *pacedLimiter) Allow() bool {
	p.mu.Lock()
	lim := p.lim
	p.mu.Unlock()
	return lim.Allow()
}

func (p *pacedLimiter) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

func (p *pacedLimiter) SetInterval(d time.Duration) {
	if d <= 0 {
		panic("rate: interval must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interval = d
	p.lim.SetLimit(rate.Every(d))
}
