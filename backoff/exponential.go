package backoff

import (
	"math/rand"
	"time"
)

// Defaults for the exponential strategy.
const (
	DefaultMax                 = time.Minute
	DefaultRandomizationFactor = 0.5
	DefaultMultiplier          = 1.5

	// minCurrent is the floor the growing interval is clamped to after the
	// first increment.
	minCurrent = 100 * time.Millisecond
)

// Exponential implements exponential backoff with jitter. Each call draws a
// uniformly randomized value in [current*(1-r), current*(1+r)] for
// randomization factor r, then grows current by the multiplier, clamped to
// [100ms, max].
type Exponential struct {
	initial    time.Duration
	max        time.Duration
	factor     float64
	multiplier float64
	rng        *rand.Rand
	current    time.Duration
}

// ExponentialOption configures an Exponential strategy.
type ExponentialOption func(*Exponential)

// WithMax caps the growing interval.
func WithMax(max time.Duration) ExponentialOption {
	return func(e *Exponential) {
		e.max = max
	}
}

// WithRandomizationFactor sets the jitter width r. The drawn value lies in
// [current*(1-r), current*(1+r)].
func WithRandomizationFactor(r float64) ExponentialOption {
	return func(e *Exponential) {
		e.factor = r
	}
}

// WithMultiplier sets the growth factor applied to the interval after each
// draw.
func WithMultiplier(m float64) ExponentialOption {
	return func(e *Exponential) {
		e.multiplier = m
	}
}

// WithRand injects the random source, so tests can assert deterministic
// bounds instead of relying on wall-clock seeding.
func WithRand(rng *rand.Rand) ExponentialOption {
	return func(e *Exponential) {
		e.rng = rng
	}
}

// NewExponential creates an exponential strategy starting at initial.
// Defaults: max 60s, randomization factor 0.5, multiplier 1.5, wall-clock
// seeded randomness.
func NewExponential(initial time.Duration, opts ...ExponentialOption) *Exponential {
	e := &Exponential{
		initial:    initial,
		max:        DefaultMax,
		factor:     DefaultRandomizationFactor,
		multiplier: DefaultMultiplier,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e.current = e.initial

	return e
}

// Next implements the Strategy interface.
func (e *Exponential) Next() time.Duration {
	d := e.interval()
	e.increment()
	return d
}

// Reset implements the Resetter interface.
func (e *Exponential) Reset() {
	e.current = e.initial
}

func (e *Exponential) interval() time.Duration {
	delta := time.Duration(e.factor * float64(e.current))
	lo := e.current - delta
	hi := e.current + delta
	return lo + time.Duration(e.rng.Float64()*float64(hi-lo))
}

func (e *Exponential) increment() {
	next := time.Duration(float64(e.current) * e.multiplier)
	if next > e.max {
		next = e.max
	}
	if next < minCurrent {
		next = minCurrent
	}
	e.current = next
}
