// Package retryxtest provides helpers for testing code built on retryx:
// scripted operations replaying a fixed sequence of outcomes, and
// Prometheus metric assertions for the observe package.
package retryxtest

import (
	"context"
	"sync"

	"github.com/seb7887/retryx"
)

// Step is one scripted outcome of an operation.
type Step[T any] struct {
	Value T
	Err   error
}

// Ok builds a step that returns v.
func Ok[T any](v T) Step[T] {
	return Step[T]{Value: v}
}

// Fail builds a step that returns err.
func Fail[T any](err error) Step[T] {
	return Step[T]{Err: err}
}

// Again builds a step that raises the try-again signal.
func Again[T any]() Step[T] {
	return Step[T]{Err: retryx.ErrTryAgain}
}

// Script replays a fixed sequence of outcomes, one per invocation, and
// counts calls. Once a non-cycling script is exhausted its last step
// repeats. Scripts are safe for concurrent use.
type Script[T any] struct {
	mu    sync.Mutex
	steps []Step[T]
	cycle bool
	calls int
}

// NewScript builds a script over the given steps.
func NewScript[T any](steps ...Step[T]) *Script[T] {
	return &Script[T]{steps: steps}
}

// NewCycle builds a script that repeats the given steps forever.
func NewCycle[T any](steps ...Step[T]) *Script[T] {
	return &Script[T]{steps: steps, cycle: true}
}

// Operation returns the scripted operation.
func (s *Script[T]) Operation() retryx.Operation[T] {
	return func(context.Context) (T, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		i := s.calls
		s.calls++
		if s.cycle {
			i %= len(s.steps)
		} else if i >= len(s.steps) {
			i = len(s.steps) - 1
		}

		step := s.steps[i]
		return step.Value, step.Err
	}
}

// Calls returns the number of invocations made so far.
func (s *Script[T]) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
