package retryx

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/seb7887/retryx/backoff"
)

// sleepFunc is the wait primitive the state machine is parameterized over.
// It is the only suspension point of a run.
type sleepFunc func(ctx context.Context, d time.Duration) error

func blockingSleep(_ context.Context, d time.Duration) error {
	time.Sleep(d)
	return nil
}

func cooperativeSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type limitKind int

const (
	limitMaxTries limitKind = iota
	limitTimeout
)

// Run executes op under the blocking discipline: the calling goroutine is
// occupied for the lifetime of the call, including backoff waits.
func (r *Retrier[T]) Run(op Operation[T]) (T, error) {
	return r.run(context.Background(), op, blockingSleep)
}

// Do executes op under the cooperative discipline: a context cancelled
// during a backoff wait aborts the run with ctx.Err(). Invocation and
// decision evaluation are not cancellation points.
func (r *Retrier[T]) Do(ctx context.Context, op Operation[T]) (T, error) {
	return r.run(ctx, op, cooperativeSleep)
}

func (r *Retrier[T]) run(ctx context.Context, op Operation[T], sleep sleepFunc) (T, error) {
	var zero T

	if res, ok := r.backoff.(backoff.Resetter); ok {
		res.Reset()
	}

	runID := r.newRunID()
	runStart := time.Now()
	var deadline time.Time
	if r.giveupAfter > 0 {
		deadline = runStart.Add(r.giveupAfter)
	}
	rctx := newContext[T](r.backoff, deadline)

	r.reportStart(runID)

	resolve := func(result T, err error) (T, error) {
		r.reportResolve(runID, rctx.Len(), time.Since(runStart), err)
		return result, err
	}

	for i := 0; ; i++ {
		if r.maxTries > 0 && i == r.maxTries {
			return resolve(zero, r.throw(limitMaxTries, rctx))
		}

		attemptStart, err := r.checkLimits(ctx, i, rctx, sleep, runID)
		if err != nil {
			return resolve(zero, err)
		}

		result, opErr, tryAgain := r.invoke(ctx, op)
		retry, decErr := r.consult(result, opErr, tryAgain, rctx)

		// The attempt is recorded unconditionally, after the consult but
		// before any branch leaves the iteration, so the ledger grows by
		// exactly one entry per try even when the decision is fatal.
		rctx.append(Attempt[T]{Result: result, Err: opErr, Time: attemptStart})
		r.reportAttempt(runID, rctx.Len(), opErr)

		if decErr != nil {
			return resolve(zero, decErr)
		}
		if retry {
			continue
		}
		if opErr != nil {
			if r.wrapError {
				return resolve(zero, &RetryError[T]{
					Message: opErr.Error(),
					Context: rctx,
					Err:     opErr,
				})
			}
			return resolve(zero, opErr)
		}
		return resolve(result, nil)
	}
}

// checkLimits draws the next wait, enforces the deadline, and sleeps.
// It returns the instant the upcoming attempt starts: the resumption
// instant after the wait, or the call instant for the first iteration,
// which never waits and never checks the deadline.
func (r *Retrier[T]) checkLimits(ctx context.Context, i int, rctx *Context[T], sleep sleepFunc, runID string) (time.Time, error) {
	start := time.Now()
	if i == 0 {
		return start, nil
	}

	var wait time.Duration
	if rctx.Backoff != nil {
		wait = rctx.Backoff.Next()
	}

	// Pre-sleep check: the run fails before committing to a wait whose
	// completion would exceed the deadline.
	if !rctx.Deadline.IsZero() && !start.Add(wait).Before(rctx.Deadline) {
		return start, r.throw(limitTimeout, rctx)
	}

	if wait > 0 {
		r.reportWait(runID, rctx.Len(), wait)
		if err := sleep(ctx, wait); err != nil {
			return start, err
		}
		start = time.Now()
	}
	return start, nil
}

// invoke calls the operation and classifies the outcome: normal result,
// error, or the try-again signal.
func (r *Retrier[T]) invoke(ctx context.Context, op Operation[T]) (result T, err error, tryAgain bool) {
	result, err = op(ctx)
	if err != nil && errors.Is(err, ErrTryAgain) {
		var zero T
		return zero, nil, true
	}
	return result, err, false
}

// consult evaluates the decision. The try-again signal bypasses it. A panic
// inside a callback is recovered and surfaced as a fatal *DecisionError
// wrapping the last known result and error.
func (r *Retrier[T]) consult(result T, opErr error, tryAgain bool, rctx *Context[T]) (retry bool, fatal error) {
	if tryAgain {
		return true, nil
	}
	defer func() {
		if v := recover(); v != nil {
			fatal = &DecisionError[T]{
				Value:   v,
				Result:  result,
				Err:     opErr,
				Context: rctx,
				Stack:   debug.Stack(),
			}
		}
	}()
	return r.decision.decide(result, opErr, rctx), nil
}

// throw builds the error for a limit violation. In reraise mode the last
// attempt's own error takes its place, or an *UnexpectedResultError when
// the last attempt returned normally.
func (r *Retrier[T]) throw(kind limitKind, rctx *Context[T]) error {
	if r.reraise {
		if last, ok := rctx.Last(); ok {
			if last.Err != nil {
				return last.Err
			}
			return &UnexpectedResultError[T]{Result: last.Result, Context: rctx}
		}
	}
	switch kind {
	case limitTimeout:
		return &TimeoutError[T]{RetryError[T]{Message: "timeout limit reached", Context: rctx}}
	default:
		return &MaxRetriesError[T]{RetryError[T]{Message: "max tries limit reached", Context: rctx}}
	}
}

func (r *Retrier[T]) reportStart(runID string) {
	for _, o := range r.observers {
		o.OnStart(r.name, runID)
	}
}

func (r *Retrier[T]) reportAttempt(runID string, try int, err error) {
	for _, o := range r.observers {
		o.OnAttempt(r.name, runID, try, err)
	}
}

func (r *Retrier[T]) reportWait(runID string, try int, wait time.Duration) {
	for _, o := range r.observers {
		o.OnWait(r.name, runID, try, wait)
	}
}

func (r *Retrier[T]) reportResolve(runID string, tries int, elapsed time.Duration, err error) {
	for _, o := range r.observers {
		o.OnResolve(r.name, runID, tries, elapsed, err)
	}
}
