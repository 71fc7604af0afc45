package retryx

import (
	"context"
	"time"

	"github.com/seb7887/retryx/backoff"
	"github.com/seb7887/retryx/observe"
	"github.com/seb7887/retryx/runid"
)

// Operation is the fallible callable a Retrier drives. Caller-supplied
// arguments are captured by the closure. The context is the one passed to
// Do, or context.Background under the blocking Run discipline; the engine
// never cancels an in-flight invocation, so operations that should stop
// early must honor the context themselves.
type Operation[T any] func(ctx context.Context) (T, error)

// Config configures a Retrier.
type Config[T any] struct {
	// OnResult decides whether to retry after a normal result.
	// Mutually exclusive with Global. Default: StopOnResult.
	OnResult ResultCallback[T]

	// OnError decides whether to retry after an operation error.
	// Mutually exclusive with Global. Default: RetryOnError.
	OnError ErrorCallback[T]

	// Global replaces the OnResult/OnError pair with a single combined
	// callback receiving both the result and the error of the latest
	// attempt.
	Global GlobalCallback[T]

	// MaxTries caps the number of invocations. The limit is checked before
	// invoking, so an operation configured for at most N tries is invoked
	// at most N times. 0 means unbounded by count.
	MaxTries int

	// Backoff is the wait strategy applied between attempts.
	// Default: a zero-delay constant strategy.
	Backoff backoff.Strategy

	// GiveupAfter bounds the whole run, measured from the first
	// invocation. The run fails with a *TimeoutError when the next wait
	// would cross the budget. 0 means unbounded by time.
	GiveupAfter time.Duration

	// WrapError wraps the final operation error in a *RetryError carrying
	// the attempt ledger, instead of returning it raw.
	WrapError bool

	// Reraise makes limit violations resurface the last attempt's own
	// error, or an *UnexpectedResultError when the last attempt returned
	// normally, instead of a limit-specific error.
	Reraise bool

	// Name labels observer events and metrics. Default: "retryx".
	Name string

	// Observers receive run lifecycle events.
	Observers []observe.Observer

	// NewRunID generates the identifier correlating observer events of one
	// run. Default: runid.NewULID.
	NewRunID func() string
}

const _defaultName = "retryx"

// Retrier drives an operation through the retry state machine.
//
// A Retrier is immutable and safe for sequential reuse: stateful backoff
// strategies are reset at the start of every run. Concurrent runs of a
// single Retrier configured with a stateful strategy would share that
// strategy's state; use the package-level Do and Run façades, which build
// a fresh Retrier per call, when calls may overlap.
type Retrier[T any] struct {
	decision    decision[T]
	maxTries    int
	backoff     backoff.Strategy
	giveupAfter time.Duration
	wrapError   bool
	reraise     bool
	name        string
	observers   []observe.Observer
	newRunID    func() string
}

// New validates cfg and builds a Retrier. Configuring Global together with
// OnResult or OnError fails with ErrDecisionConflict; the conflict is
// rejected here, at construction time, not when the Retrier runs.
func New[T any](cfg Config[T]) (*Retrier[T], error) {
	d, err := newDecision(cfg.OnResult, cfg.OnError, cfg.Global)
	if err != nil {
		return nil, err
	}

	r := &Retrier[T]{
		decision:    d,
		maxTries:    cfg.MaxTries,
		backoff:     cfg.Backoff,
		giveupAfter: cfg.GiveupAfter,
		wrapError:   cfg.WrapError,
		reraise:     cfg.Reraise,
		name:        cfg.Name,
		observers:   cfg.Observers,
		newRunID:    cfg.NewRunID,
	}

	if r.backoff == nil {
		r.backoff = backoff.NewConstant(0)
	}
	if r.name == "" {
		r.name = _defaultName
	}
	if r.newRunID == nil {
		r.newRunID = runid.NewULID
	}

	return r, nil
}

// Do builds a Retrier from cfg and runs op once under the cooperative
// discipline. It is the one-shot entry point equivalent to wrapping op in
// a decorated call.
func Do[T any](ctx context.Context, op Operation[T], cfg Config[T]) (T, error) {
	r, err := New(cfg)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.Do(ctx, op)
}

// Run builds a Retrier from cfg and runs op once under the blocking
// discipline.
func Run[T any](op Operation[T], cfg Config[T]) (T, error) {
	r, err := New(cfg)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.Run(op)
}
