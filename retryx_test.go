package retryx_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seb7887/retryx"
	"github.com/seb7887/retryx/backoff"
	"github.com/seb7887/retryx/observe"
	"github.com/seb7887/retryx/retryxtest"
)

var (
	errDumb = errors.New("dumb")
	errBoom = errors.New("boom")
)

func TestRetryUntilSuccess(t *testing.T) {
	script := retryxtest.NewScript(
		retryxtest.Fail[string](errDumb),
		retryxtest.Fail[string](errBoom),
		retryxtest.Ok("ok"),
		retryxtest.Fail[string](errBoom),
		retryxtest.Ok("ok"),
	)

	result, err := retryx.Run(script.Operation(), retryx.Config[string]{})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, script.Calls(), "default decision should stop on the first normal result")
}

func TestDefaultDecisionStopsOnFirstResult(t *testing.T) {
	script := retryxtest.NewScript(
		retryxtest.Ok("first"),
		retryxtest.Ok("second"),
	)

	result, err := retryx.Run(script.Operation(), retryx.Config[string]{})

	require.NoError(t, err)
	assert.Equal(t, "first", result)
	assert.Equal(t, 1, script.Calls())
}

func TestOnErrorStopsOnMatch(t *testing.T) {
	script := retryxtest.NewScript(
		retryxtest.Fail[string](errBoom),
		retryxtest.Fail[string](errDumb),
		retryxtest.Ok("unreached"),
	)

	_, err := retryx.Run(script.Operation(), retryx.Config[string]{
		OnError: func(err error, _ *retryx.Context[string]) bool {
			return !errors.Is(err, errDumb)
		},
	})

	require.ErrorIs(t, err, errDumb)
	assert.Equal(t, 2, script.Calls())
}

func TestWrapError(t *testing.T) {
	script := retryxtest.NewScript(
		retryxtest.Fail[string](errBoom),
		retryxtest.Fail[string](errDumb),
		retryxtest.Ok("unreached"),
	)

	_, err := retryx.Run(script.Operation(), retryx.Config[string]{
		OnError: func(err error, _ *retryx.Context[string]) bool {
			return !errors.Is(err, errDumb)
		},
		WrapError: true,
	})

	var wrapped *retryx.RetryError[string]
	require.ErrorAs(t, err, &wrapped)
	assert.ErrorIs(t, err, errDumb, "wrapped error should still match the cause")
	assert.Equal(t, 2, wrapped.Context.Len())
	assert.Equal(t, 2, script.Calls())
}

func TestOnResult(t *testing.T) {
	script := retryxtest.NewScript(
		retryxtest.Ok("foo"),
		retryxtest.Ok("foo"),
		retryxtest.Ok("bar"),
	)

	result, err := retryx.Run(script.Operation(), retryx.Config[string]{
		OnResult: func(result string, _ *retryx.Context[string]) bool {
			return result == "foo"
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "bar", result)
	assert.Equal(t, 3, script.Calls())
}

func TestGlobalCallback(t *testing.T) {
	script := retryxtest.NewScript(
		retryxtest.Ok("foo"),
		retryxtest.Ok("bar"),
	)

	result, err := retryx.Run(script.Operation(), retryx.Config[string]{
		Global: func(result string, _ error, _ *retryx.Context[string]) bool {
			return result == "foo"
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "bar", result)
	assert.Equal(t, 2, script.Calls())
}

func TestGlobalConflictsWithSplitCallbacks(t *testing.T) {
	_, err := retryx.New(retryx.Config[string]{
		OnResult: func(string, *retryx.Context[string]) bool { return false },
		Global:   func(string, error, *retryx.Context[string]) bool { return false },
	})

	require.ErrorIs(t, err, retryx.ErrDecisionConflict)
}

func TestDecisionPanicIsFatal(t *testing.T) {
	script := retryxtest.NewCycle(retryxtest.Ok("foo"))

	_, err := retryx.Run(script.Operation(), retryx.Config[string]{
		Global: func(string, error, *retryx.Context[string]) bool {
			panic("no reason")
		},
	})

	var decErr *retryx.DecisionError[string]
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "foo", decErr.Result)
	assert.Equal(t, "no reason", decErr.Value)
	assert.NotEmpty(t, decErr.Stack)
	assert.NotErrorIs(t, err, retryx.ErrMaxRetries)
	assert.Equal(t, 1, script.Calls(), "operation must not run again after a fatal decision")
	assert.Equal(t, 1, decErr.Context.Len(), "the attempt is still recorded")
}

func TestMaxTries(t *testing.T) {
	script := retryxtest.NewCycle(
		retryxtest.Fail[string](errDumb),
		retryxtest.Fail[string](errBoom),
	)

	_, err := retryx.Run(script.Operation(), retryx.Config[string]{MaxTries: 4})

	var maxErr *retryx.MaxRetriesError[string]
	require.ErrorAs(t, err, &maxErr)
	assert.ErrorIs(t, err, retryx.ErrMaxRetries)
	assert.Equal(t, 4, script.Calls())
	assert.Equal(t, 4, maxErr.Context.Len())
}

func TestConstantBackoffApplied(t *testing.T) {
	script := retryxtest.NewCycle(
		retryxtest.Fail[string](errDumb),
		retryxtest.Fail[string](errBoom),
		retryxtest.Ok("foo"),
	)

	result, err := retryx.Run(script.Operation(), retryx.Config[string]{
		Backoff: backoff.NewConstant(time.Millisecond),
	})

	require.NoError(t, err)
	assert.Equal(t, "foo", result)
	assert.Equal(t, 3, script.Calls())
}

func TestSequenceBackoffApplied(t *testing.T) {
	script := retryxtest.NewCycle(
		retryxtest.Fail[string](errDumb),
		retryxtest.Fail[string](errBoom),
		retryxtest.Ok("foo"),
	)

	result, err := retryx.Run(script.Operation(), retryx.Config[string]{
		Backoff: backoff.FromSlice(time.Millisecond, 2*time.Millisecond),
	})

	require.NoError(t, err)
	assert.Equal(t, "foo", result)
	assert.Equal(t, 3, script.Calls())
}

func TestExponentialBackoffApplied(t *testing.T) {
	script := retryxtest.NewCycle(
		retryxtest.Fail[string](errDumb),
		retryxtest.Ok("foo"),
	)

	result, err := retryx.Run(script.Operation(), retryx.Config[string]{
		Backoff: backoff.NewExponential(time.Millisecond, backoff.WithMax(2*time.Millisecond)),
	})

	require.NoError(t, err)
	assert.Equal(t, "foo", result)
	assert.Equal(t, 2, script.Calls())
}

func TestChangeBackoffMidRun(t *testing.T) {
	script := retryxtest.NewCycle(
		retryxtest.Ok("foo"),
		retryxtest.Ok("bar"),
	)

	result, err := retryx.Run(script.Operation(), retryx.Config[string]{
		OnResult: func(result string, ctx *retryx.Context[string]) bool {
			ctx.Backoff = backoff.NewConstant(time.Millisecond)
			return result != "bar"
		},
		MaxTries: 4,
	})

	require.NoError(t, err)
	assert.Equal(t, "bar", result)
	assert.Equal(t, 2, script.Calls())
}

func TestTimeout(t *testing.T) {
	script := retryxtest.NewCycle(
		retryxtest.Ok("foo"),
		retryxtest.Ok("bar"),
	)

	_, err := retryx.Run(script.Operation(), retryx.Config[string]{
		OnResult:    func(string, *retryx.Context[string]) bool { return true },
		Backoff:     backoff.NewConstant(60 * time.Millisecond),
		GiveupAfter: 50 * time.Millisecond,
	})

	var timeoutErr *retryx.TimeoutError[string]
	require.ErrorAs(t, err, &timeoutErr)
	assert.ErrorIs(t, err, retryx.ErrTimeout)
	assert.Equal(t, 1, script.Calls(), "the wait that would cross the deadline must not happen")
	assert.GreaterOrEqual(t, timeoutErr.Context.Len(), 1)
}

func TestTimeoutAfterSeveralAttempts(t *testing.T) {
	script := retryxtest.NewCycle(retryxtest.Fail[string](errBoom))

	_, err := retryx.Run(script.Operation(), retryx.Config[string]{
		Backoff:     backoff.FromSlice(time.Millisecond, 200*time.Millisecond),
		GiveupAfter: 100 * time.Millisecond,
	})

	require.ErrorIs(t, err, retryx.ErrTimeout)
	assert.Equal(t, 2, script.Calls())
}

func TestReraiseMaxTriesSurfacesResult(t *testing.T) {
	script := retryxtest.NewCycle(retryxtest.Ok("foo"))

	_, err := retryx.Run(script.Operation(), retryx.Config[string]{
		OnResult: func(string, *retryx.Context[string]) bool { return true },
		MaxTries: 4,
		Reraise:  true,
	})

	var resErr *retryx.UnexpectedResultError[string]
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "foo", resErr.Result)
	assert.NotErrorIs(t, err, retryx.ErrMaxRetries)
	assert.Equal(t, 4, script.Calls())
}

func TestReraiseMaxTriesSurfacesLastError(t *testing.T) {
	script := retryxtest.NewCycle(retryxtest.Fail[string](errDumb))

	_, err := retryx.Run(script.Operation(), retryx.Config[string]{
		MaxTries: 4,
		Reraise:  true,
	})

	require.ErrorIs(t, err, errDumb)
	assert.NotErrorIs(t, err, retryx.ErrMaxRetries)
	assert.Equal(t, 4, script.Calls())
}

func TestReraiseTimeoutSurfacesResult(t *testing.T) {
	script := retryxtest.NewCycle(retryxtest.Ok("foo"))

	_, err := retryx.Run(script.Operation(), retryx.Config[string]{
		OnResult:    func(string, *retryx.Context[string]) bool { return true },
		Backoff:     backoff.NewConstant(60 * time.Millisecond),
		GiveupAfter: 50 * time.Millisecond,
		Reraise:     true,
	})

	var resErr *retryx.UnexpectedResultError[string]
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "foo", resErr.Result)
}

func TestReraiseTimeoutSurfacesLastError(t *testing.T) {
	script := retryxtest.NewCycle(retryxtest.Fail[string](errDumb))

	_, err := retryx.Run(script.Operation(), retryx.Config[string]{
		Backoff:     backoff.NewConstant(60 * time.Millisecond),
		GiveupAfter: 50 * time.Millisecond,
		Reraise:     true,
	})

	require.ErrorIs(t, err, errDumb)
	assert.NotErrorIs(t, err, retryx.ErrTimeout)
}

func TestTryAgainBypassesDecision(t *testing.T) {
	script := retryxtest.NewScript(
		retryxtest.Again[string](),
		retryxtest.Again[string](),
		retryxtest.Ok("ok"),
	)

	result, err := retryx.Run(script.Operation(), retryx.Config[string]{
		// Stop on any error: only the try-again signal may cause retries here.
		OnError: func(error, *retryx.Context[string]) bool { return false },
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, script.Calls())
}

func TestTryAgainStillBoundedByMaxTries(t *testing.T) {
	script := retryxtest.NewCycle(retryxtest.Again[string]())

	_, err := retryx.Run(script.Operation(), retryx.Config[string]{MaxTries: 4})

	require.ErrorIs(t, err, retryx.ErrMaxRetries)
	assert.Equal(t, 4, script.Calls())
}

func TestTryAgainStillBoundedByTimeout(t *testing.T) {
	script := retryxtest.NewCycle(retryxtest.Again[string]())

	_, err := retryx.Run(script.Operation(), retryx.Config[string]{
		Backoff:     backoff.NewConstant(60 * time.Millisecond),
		GiveupAfter: 50 * time.Millisecond,
	})

	require.ErrorIs(t, err, retryx.ErrTimeout)
}

func TestContextLedger(t *testing.T) {
	script := retryxtest.NewScript(
		retryxtest.Fail[string](errDumb),
		retryxtest.Ok("ok"),
	)

	var captured *retryx.Context[string]
	result, err := retryx.Run(script.Operation(), retryx.Config[string]{
		Global: func(_ string, err error, ctx *retryx.Context[string]) bool {
			captured = ctx
			return err != nil
		},
	})

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "ok", result)

	assert.Equal(t, 2, captured.Len())
	assert.Equal(t, captured.Len(), captured.Tries())
	assert.ErrorIs(t, captured.At(0).Err, errDumb)
	assert.Equal(t, "ok", captured.At(1).Result)
	assert.Equal(t, captured.At(1), captured.At(-1))
	assert.False(t, captured.At(1).Time.Before(captured.At(0).Time))

	attempts := captured.Attempts()
	require.Len(t, attempts, 2)
	assert.Equal(t, captured.At(0), attempts[0])
}

func TestAttemptRecordedAfterConsult(t *testing.T) {
	script := retryxtest.NewScript(
		retryxtest.Fail[string](errDumb),
		retryxtest.Ok("ok"),
	)

	var seen []int
	_, err := retryx.Run(script.Operation(), retryx.Config[string]{
		Global: func(_ string, err error, ctx *retryx.Context[string]) bool {
			seen = append(seen, ctx.Len())
			return err != nil
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, seen, "the attempt under consultation is not in the ledger yet")
}

func TestCancelDuringWait(t *testing.T) {
	script := retryxtest.NewCycle(retryxtest.Fail[string](errBoom))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := retryx.Do(ctx, script.Operation(), retryx.Config[string]{
		Backoff: backoff.NewConstant(time.Second),
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, script.Calls())
}

func TestDoFacade(t *testing.T) {
	script := retryxtest.NewScript(
		retryxtest.Fail[string](errBoom),
		retryxtest.Ok("ok"),
	)

	result, err := retryx.Do(context.Background(), script.Operation(), retryx.Config[string]{
		Backoff: backoff.NewConstant(time.Millisecond),
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, script.Calls())
}

func TestBackoffResetBetweenRuns(t *testing.T) {
	seq := backoff.FromSlice(time.Millisecond, 2*time.Millisecond)
	r, err := retryx.New(retryx.Config[string]{Backoff: seq})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		script := retryxtest.NewScript(
			retryxtest.Fail[string](errBoom),
			retryxtest.Fail[string](errBoom),
			retryxtest.Ok("ok"),
		)
		result, err := r.Run(script.Operation())
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, script.Calls())
	}
}

func TestDisciplinesShareSemantics(t *testing.T) {
	run := map[string]func(r *retryx.Retrier[string], op retryx.Operation[string]) (string, error){
		"blocking": func(r *retryx.Retrier[string], op retryx.Operation[string]) (string, error) {
			return r.Run(op)
		},
		"cooperative": func(r *retryx.Retrier[string], op retryx.Operation[string]) (string, error) {
			return r.Do(context.Background(), op)
		},
	}

	for name, exec := range run {
		t.Run(name, func(t *testing.T) {
			script := retryxtest.NewCycle(
				retryxtest.Fail[string](errDumb),
				retryxtest.Again[string](),
				retryxtest.Ok("foo"),
			)

			r, err := retryx.New(retryx.Config[string]{
				OnResult: func(result string, _ *retryx.Context[string]) bool {
					return result != "foo"
				},
				Backoff:  backoff.NewConstant(time.Millisecond),
				MaxTries: 5,
			})
			require.NoError(t, err)

			result, err := exec(r, script.Operation())

			require.NoError(t, err)
			assert.Equal(t, "foo", result)
			assert.Equal(t, 3, script.Calls())
		})
	}
}

// recordingObserver captures lifecycle events for assertions.
type recordingObserver struct {
	mu       sync.Mutex
	starts   int
	attempts []error
	waits    []time.Duration
	resolves []error
	runIDs   map[string]struct{}
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{runIDs: make(map[string]struct{})}
}

func (o *recordingObserver) OnStart(_, runID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.starts++
	o.runIDs[runID] = struct{}{}
}

func (o *recordingObserver) OnAttempt(_, runID string, _ int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, err)
	o.runIDs[runID] = struct{}{}
}

func (o *recordingObserver) OnWait(_, _ string, _ int, wait time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.waits = append(o.waits, wait)
}

func (o *recordingObserver) OnResolve(_, _ string, _ int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resolves = append(o.resolves, err)
}

func TestObserverSeesLifecycle(t *testing.T) {
	script := retryxtest.NewScript(
		retryxtest.Fail[string](errBoom),
		retryxtest.Fail[string](errDumb),
		retryxtest.Ok("ok"),
	)

	obs := newRecordingObserver()
	_, err := retryx.Run(script.Operation(), retryx.Config[string]{
		Backoff:   backoff.NewConstant(time.Millisecond),
		Observers: []observe.Observer{obs},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, obs.starts)
	require.Len(t, obs.attempts, 3)
	assert.ErrorIs(t, obs.attempts[0], errBoom)
	assert.NoError(t, obs.attempts[2])
	assert.Len(t, obs.waits, 2)
	require.Len(t, obs.resolves, 1)
	assert.NoError(t, obs.resolves[0])
	assert.Len(t, obs.runIDs, 1, "all events of one run share the run ID")
}

func TestMetricsObserver(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observe.NewMetrics(registry)

	script := retryxtest.NewScript(
		retryxtest.Fail[string](errBoom),
		retryxtest.Fail[string](errDumb),
		retryxtest.Ok("ok"),
	)

	_, err := retryx.Run(script.Operation(), retryx.Config[string]{
		Name:      "flaky-op",
		Backoff:   backoff.NewConstant(time.Millisecond),
		Observers: []observe.Observer{metrics},
	})

	require.NoError(t, err)
	assert.Equal(t, 3.0, retryxtest.GatherValue(t, registry, "retry_attempts_total"))
	assert.Equal(t, 0.0, retryxtest.GatherValue(t, registry, "retry_active_runs"))
	assert.Equal(t, 2.0, retryxtest.GatherValue(t, registry, "retry_backoff_wait_seconds"))
	retryxtest.AssertMetricExists(t, registry, "retry_run_duration_seconds")
}
