package retryx

import (
	"time"

	"go.uber.org/multierr"

	"github.com/seb7887/retryx/backoff"
)

// Attempt is an immutable record of one invocation of the operation.
// Exactly one of Result and Err is meaningful, except for try-again
// iterations, which record neither.
type Attempt[T any] struct {
	// Result is the operation's return value, when it returned normally.
	Result T

	// Err is the operation's error, when it failed.
	Err error

	// Time is the instant the attempt started: the resumption instant
	// after the preceding backoff wait, or the call instant for the
	// first attempt.
	Time time.Time
}

// Context is the mutable per-run state handed to decision callbacks: the
// append-only attempt ledger, the active backoff strategy, and the run's
// deadline. One Context belongs to exactly one run and is never shared
// across calls.
type Context[T any] struct {
	// Backoff is the active wait strategy. Decision callbacks may replace
	// it mid-run; the new strategy is used from the next wait onward,
	// starting in its own initial state.
	Backoff backoff.Strategy

	// Deadline is the absolute instant after which the run must fail.
	// The zero value means the run is unbounded in time. A deadline only
	// fires between attempts, never before the first.
	Deadline time.Time

	attempts []Attempt[T]
}

func newContext[T any](b backoff.Strategy, deadline time.Time) *Context[T] {
	return &Context[T]{
		Backoff:  b,
		Deadline: deadline,
	}
}

// Len returns the number of recorded attempts, which equals the number of
// tries made so far.
func (c *Context[T]) Len() int {
	return len(c.attempts)
}

// Tries is an alias for Len.
func (c *Context[T]) Tries() int {
	return c.Len()
}

// At returns the i-th attempt in call order. Negative indexes count from
// the most recent attempt, so At(-1) is the latest one. At panics when the
// index is out of range, mirroring slice indexing.
func (c *Context[T]) At(i int) Attempt[T] {
	if i < 0 {
		i += len(c.attempts)
	}
	return c.attempts[i]
}

// Last returns the most recent attempt, and false when no attempt has been
// recorded yet.
func (c *Context[T]) Last() (Attempt[T], bool) {
	if len(c.attempts) == 0 {
		return Attempt[T]{}, false
	}
	return c.attempts[len(c.attempts)-1], true
}

// Attempts returns a copy of the ledger in call order. The ledger itself
// never shrinks or reorders.
func (c *Context[T]) Attempts() []Attempt[T] {
	out := make([]Attempt[T], len(c.attempts))
	copy(out, c.attempts)
	return out
}

// Errs combines the errors of every failed attempt into a single error,
// in call order. It returns nil when no attempt failed.
func (c *Context[T]) Errs() error {
	var combined error
	for _, a := range c.attempts {
		combined = multierr.Append(combined, a.Err)
	}
	return combined
}

func (c *Context[T]) append(a Attempt[T]) {
	c.attempts = append(c.attempts, a)
}
