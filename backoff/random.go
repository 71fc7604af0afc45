package backoff

import (
	"math/rand"
	"time"
)

// Random draws a uniformly random delay in [Min, Max] on every call,
// independent of history.
type Random struct {
	min time.Duration
	max time.Duration
	rng *rand.Rand
}

// NewRandom creates a uniform-random strategy over [min, max] with a
// wall-clock seeded source.
func NewRandom(min, max time.Duration) *Random {
	return NewRandomWithSource(min, max, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewRandomWithSource creates a uniform-random strategy using a custom
// random source, so tests can assert deterministic bounds.
func NewRandomWithSource(min, max time.Duration, rng *rand.Rand) *Random {
	return &Random{
		min: min,
		max: max,
		rng: rng,
	}
}

// Next implements the Strategy interface.
func (r *Random) Next() time.Duration {
	return r.min + time.Duration(r.rng.Float64()*float64(r.max-r.min))
}
