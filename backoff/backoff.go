// Package backoff provides wait strategies for the retry engine.
package backoff

import "time"

// Strategy produces successive wait durations between attempts.
// Implementations may keep state across calls; a Strategy instance serves
// one run at a time.
type Strategy interface {
	// Next returns the delay to apply before the next attempt.
	Next() time.Duration
}

// Resetter is implemented by stateful strategies that can rewind to their
// initial state. The engine resets the configured strategy at the start of
// every run, so one Retrier can serve successive calls with fresh state.
type Resetter interface {
	Reset()
}

// StrategyFunc adapts a plain function to a Strategy.
type StrategyFunc func() time.Duration

// Next implements the Strategy interface.
func (f StrategyFunc) Next() time.Duration {
	return f()
}

// Sequence consumes an externally supplied list of durations, one per
// call. Once the list is exhausted the last element repeats; an empty
// list always yields zero.
type Sequence struct {
	durations []time.Duration
	next      int
}

// FromSlice builds a Sequence over the given durations.
func FromSlice(durations ...time.Duration) *Sequence {
	return &Sequence{durations: durations}
}

// Next implements the Strategy interface.
func (s *Sequence) Next() time.Duration {
	if len(s.durations) == 0 {
		return 0
	}
	if s.next >= len(s.durations) {
		return s.durations[len(s.durations)-1]
	}
	d := s.durations[s.next]
	s.next++
	return d
}

// Reset implements the Resetter interface.
func (s *Sequence) Reset() {
	s.next = 0
}
