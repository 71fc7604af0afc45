/*
Package retryx wraps a fallible operation with a retry policy: the engine
invokes the operation until a decision callback says to stop, a try-count
limit is hit, or a time budget expires, waiting between attempts according
to a configurable backoff strategy.

# Workflow

An operation is any func(ctx) (T, error); arguments are captured by the
closure. The engine repeats it until one of the following occurs:
  - The decision callbacks report that the latest outcome is final. By
    default any normal result stops the run and any error is retried.
  - MaxTries invocations have been made, yielding a *MaxRetriesError.
  - The next backoff wait would cross the GiveupAfter budget, yielding a
    *TimeoutError.
  - A decision callback panics, yielding a *DecisionError. This is fatal
    and never retried.

An operation may return ErrTryAgain (or an error wrapping it) to force an
unconditional retry without consulting the decision callbacks. Try-again
iterations are still subject to the try-count and time limits.

Every invocation is recorded as an Attempt in the run's Context, an
append-only ledger that decision callbacks can inspect and that all limit
errors carry, so callers can reconstruct the full history of a failed run.

# Disciplines

The same state machine runs under two disciplines. Retrier.Run occupies
the calling goroutine for the whole call, sleeping through backoff waits.
Retrier.Do waits cooperatively: a context cancelled during a backoff wait
aborts the run with ctx.Err(). The wait is the only cancellation point;
an in-flight invocation must honor cancellation on its own.

# Example

	r, err := retryx.New(retryx.Config[string]{
		MaxTries:    5,
		Backoff:     backoff.NewExponential(100 * time.Millisecond),
		GiveupAfter: 30 * time.Second,
	})
	if err != nil {
		// configuration error, e.g. conflicting decision callbacks
	}
	greeting, err := r.Do(ctx, fetchGreeting)

For one-shot calls the package-level Do and Run build a fresh Retrier per
invocation, which also guarantees stateful backoff strategies never share
state between calls.
*/
package retryx
