package retryx

import (
	"errors"
	"fmt"
)

// Sentinel errors that can be checked using errors.Is
var (
	// ErrTryAgain forces an unconditional retry when returned (or wrapped)
	// by an operation. The decision callbacks are not consulted and the
	// error never reaches the caller.
	ErrTryAgain = errors.New("retryx: try again")

	// ErrMaxRetries is matched by *MaxRetriesError.
	ErrMaxRetries = errors.New("retryx: max tries limit reached")

	// ErrTimeout is matched by *TimeoutError.
	ErrTimeout = errors.New("retryx: timeout limit reached")

	// ErrDecisionConflict is returned by New when a combined Global callback
	// is configured together with the split OnResult/OnError pair.
	ErrDecisionConflict = errors.New("retryx: global and split decision callbacks are mutually exclusive")
)

// RetryError wraps a final operation error together with the run's attempt
// ledger. It is returned instead of the raw operation error when WrapError
// is set, and embedded by the limit error types.
type RetryError[T any] struct {
	Message string
	Context *Context[T]
	Err     error
}

// Error implements the error interface.
func (e *RetryError[T]) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("retryx: %s (tries: %d): %s", e.Message, e.Context.Len(), e.Err.Error())
	}
	return fmt.Sprintf("retryx: %s (tries: %d)", e.Message, e.Context.Len())
}

// Unwrap returns the underlying error, allowing errors.Is and errors.As to work.
func (e *RetryError[T]) Unwrap() error {
	return e.Err
}

// MaxRetriesError reports that the try-count limit was reached before a
// stopping decision. It carries the full attempt ledger.
type MaxRetriesError[T any] struct {
	RetryError[T]
}

// Is matches the ErrMaxRetries sentinel.
func (e *MaxRetriesError[T]) Is(target error) bool {
	return target == ErrMaxRetries
}

// TimeoutError reports that the next backoff wait would have crossed the
// run's deadline. It carries the full attempt ledger.
type TimeoutError[T any] struct {
	RetryError[T]
}

// Is matches the ErrTimeout sentinel.
func (e *TimeoutError[T]) Is(target error) bool {
	return target == ErrTimeout
}

// DecisionError reports a panic raised while evaluating a decision
// callback. It is fatal: the engine aborts the run without further
// attempts. Result and Err hold the outcome of the attempt that was being
// consulted.
type DecisionError[T any] struct {
	Value   any
	Result  T
	Err     error
	Context *Context[T]
	Stack   []byte
}

// Error implements the error interface.
func (e *DecisionError[T]) Error() string {
	return fmt.Sprintf("retryx: decision callback panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error, so callers can still
// match the cause with errors.Is.
func (e *DecisionError[T]) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// UnexpectedResultError carries the last attempt's result when reraise mode
// fires on a run whose last attempt returned normally, so there is no error
// to re-raise.
type UnexpectedResultError[T any] struct {
	Result  T
	Context *Context[T]
}

// Error implements the error interface.
func (e *UnexpectedResultError[T]) Error() string {
	return fmt.Sprintf("retryx: run stopped on unexpected result: %v", e.Result)
}
