package retryx

// ResultCallback reports whether the run should retry after the operation
// returned normally. Returning true means "try again".
type ResultCallback[T any] func(result T, ctx *Context[T]) bool

// ErrorCallback reports whether the run should retry after the operation
// failed. Returning true means "try again".
type ErrorCallback[T any] func(err error, ctx *Context[T]) bool

// GlobalCallback is the combined form of the decision: it receives both the
// result and the error of the latest attempt, exactly one of which is
// meaningful, and replaces the OnResult/OnError pair.
type GlobalCallback[T any] func(result T, err error, ctx *Context[T]) bool

// StopOnResult is the default result policy: any normal result is final.
func StopOnResult[T any](T, *Context[T]) bool {
	return false
}

// RetryOnError is the default error policy: any error is retried.
func RetryOnError[T any](error, *Context[T]) bool {
	return true
}

// decision dispatches the latest outcome to the configured callbacks.
type decision[T any] struct {
	onResult ResultCallback[T]
	onError  ErrorCallback[T]
	global   GlobalCallback[T]
}

func newDecision[T any](onResult ResultCallback[T], onError ErrorCallback[T], global GlobalCallback[T]) (decision[T], error) {
	if global != nil && (onResult != nil || onError != nil) {
		return decision[T]{}, ErrDecisionConflict
	}
	if onResult == nil {
		onResult = StopOnResult[T]
	}
	if onError == nil {
		onError = RetryOnError[T]
	}
	return decision[T]{
		onResult: onResult,
		onError:  onError,
		global:   global,
	}, nil
}

func (d decision[T]) decide(result T, err error, ctx *Context[T]) bool {
	if d.global != nil {
		return d.global(result, err, ctx)
	}
	if err != nil {
		return d.onError(err, ctx)
	}
	return d.onResult(result, ctx)
}
