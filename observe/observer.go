// Package observe provides lifecycle hooks for the retry engine: structured
// logging, Prometheus metrics, OpenTelemetry tracing, and in-process event
// streaming.
package observe

import "time"

// Observer receives the lifecycle events of one engine run. Every hook
// carries the configured operation name and the run identifier, so
// implementations can correlate events without keeping engine state.
//
// A run emits OnStart once, then OnWait/OnAttempt per iteration, and
// OnResolve exactly once at the end, whether the run succeeded or failed.
type Observer interface {
	// OnStart is called before the first invocation.
	OnStart(op, runID string)

	// OnAttempt is called after each invocation has been recorded.
	// try is 1-indexed; err is nil when the attempt returned normally.
	OnAttempt(op, runID string, try int, err error)

	// OnWait is called before suspending for a backoff wait.
	// try is the number of attempts made so far.
	OnWait(op, runID string, try int, wait time.Duration)

	// OnResolve is called once when the run resolves. err is the final
	// error surfaced to the caller, nil on success.
	OnResolve(op, runID string, tries int, elapsed time.Duration, err error)
}

// Noop is an Observer that ignores every event.
type Noop struct{}

var _ Observer = Noop{}

func (Noop) OnStart(string, string)                              {}
func (Noop) OnAttempt(string, string, int, error)                {}
func (Noop) OnWait(string, string, int, time.Duration)           {}
func (Noop) OnResolve(string, string, int, time.Duration, error) {}
