package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	pwerrors "github.com/vnykmshr/pipework/pkg/common/errors"
	"github.com/vnykmshr/pipework/pkg/signal"
)

// Job is one scheduled unit of work, typically a function that builds and
// runs a fresh pipeline. The context is cancelled when the runner stops.
type Job func(ctx context.Context) error

// Entry describes one scheduled job.
type Entry struct {
	// ID is the caller-chosen job identifier.
	ID string

	// Spec is the cron expression the job was registered with.
	Spec string

	// Next is the next scheduled firing time.
	Next time.Time

	// Prev is the most recent firing time, zero if the job has not run.
	Prev time.Time

	// Runs is the number of completed executions.
	Runs int64

	// Failures is the number of executions that returned an error.
	Failures int64
}

// Runner fires registered jobs on cron schedules.
//
// Supported expressions are the standard five-field cron format plus
// descriptors such as "@hourly" and "@every 30s". Overlapping firings of
// the same job are skipped unless AllowOverlapping is set.
type Runner interface {
	// Add registers a job under id. Returns an error for an invalid
	// expression, a duplicate id, or a nil job. Jobs may be added before
	// or after Start.
	Add(id, spec string, job Job) error

	// Remove deregisters a job. Returns false if id is unknown.
	Remove(id string) bool

	// Start begins firing jobs. Idempotent.
	Start()

	// Stop cancels the job context, stops new firings, and waits for
	// in-flight jobs to finish or ctx to expire. Stop is terminal: a
	// stopped runner does not restart.
	Stop(ctx context.Context) error

	// Next returns the next firing time for id.
	Next(id string) (time.Time, error)

	// Entries returns a snapshot of all registered jobs.
	Entries() []Entry
}

// Config holds configuration options for creating a runner.
type Config struct {
	// Logger receives job lifecycle diagnostics. The zero value discards.
	Logger zerolog.Logger

	// Location is the timezone for expression evaluation.
	// Defaults to time.Local.
	Location *time.Location

	// AllowOverlapping permits a job to fire while its previous execution
	// is still running. Off by default: overlapping firings are skipped.
	AllowOverlapping bool

	// OnError is called after a job execution returns an error.
	OnError func(id string, err error)
}

type runner struct {
	config  Config
	cron    *cron.Cron
	sig     *signal.Signal
	started atomic.Bool

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	id       string
	spec     string
	cronID   cron.EntryID
	runs     atomic.Int64
	failures atomic.Int64
}

// New creates a runner with default configuration.
func New() Runner {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a runner with the specified configuration.
func NewWithConfig(config Config) Runner {
	if config.Location == nil {
		config.Location = time.Local
	}

	logger := cronLogger{log: config.Logger}
	chain := []cron.JobWrapper{cron.Recover(logger)}
	if !config.AllowOverlapping {
		chain = append(chain, cron.SkipIfStillRunning(logger))
	}

	return &runner{
		config: config,
		cron: cron.New(
			cron.WithLocation(config.Location),
			cron.WithLogger(logger),
			cron.WithChain(chain...),
		),
		sig:     signal.New(),
		entries: make(map[string]*entry),
	}
}

func (r *runner) Add(id, spec string, job Job) error {
	if id == "" {
		return pwerrors.NewValidationError("schedule", "id", id, "cannot be empty")
	}
	if job == nil {
		return pwerrors.NewValidationError("schedule", "job", nil, "cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return pwerrors.NewValidationError("schedule", "id", id, "already registered").
			WithHint("remove the existing job first or choose a distinct id")
	}

	e := &entry{id: id, spec: spec}
	cronID, err := r.cron.AddFunc(spec, r.wrap(e, job))
	if err != nil {
		return pwerrors.NewValidationError("schedule", "spec", spec, err.Error())
	}
	e.cronID = cronID
	r.entries[id] = e
	return nil
}

func (r *runner) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[id]
	if !exists {
		return false
	}
	r.cron.Remove(e.cronID)
	delete(r.entries, id)
	return true
}

func (r *runner) Start() {
	if r.started.CompareAndSwap(false, true) {
		r.cron.Start()
	}
}

func (r *runner) Stop(ctx context.Context) error {
	if !r.started.CompareAndSwap(true, false) {
		return nil
	}

	r.sig.Cancel(signal.ErrShutdown)
	stopped := r.cron.Stop()

	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *runner) Next(id string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[id]
	if !exists {
		return time.Time{}, pwerrors.NewValidationError("schedule", "id", id, "not registered")
	}
	return r.cron.Entry(e.cronID).Next, nil
}

func (r *runner) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		ce := r.cron.Entry(e.cronID)
		out = append(out, Entry{
			ID:       e.id,
			Spec:     e.spec,
			Next:     ce.Next,
			Prev:     ce.Prev,
			Runs:     e.runs.Load(),
			Failures: e.failures.Load(),
		})
	}
	return out
}

// wrap adapts a Job to the cron callback, threading the runner's shutdown
// context and recording per-job counters.
func (r *runner) wrap(e *entry, job Job) func() {
	return func() {
		if r.sig.Cancelled() {
			return
		}

		start := time.Now()
		err := job(r.sig.Context())
		elapsed := time.Since(start)

		e.runs.Add(1)
		if err != nil {
			e.failures.Add(1)
			r.config.Logger.Error().
				Err(err).
				Str("job", e.id).
				Dur("elapsed", elapsed).
				Msg("scheduled job failed")
			if r.config.OnError != nil {
				r.config.OnError(e.id, err)
			}
			return
		}

		r.config.Logger.Debug().
			Str("job", e.id).
			Dur("elapsed", elapsed).
			Msg("scheduled job completed")
	}
}

// cronLogger adapts zerolog to the cron.Logger interface. Routine cron
// chatter lands at debug, errors at error.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
