package backoff

import "time"

// Constant returns the same delay on every call.
type Constant struct {
	// Interval is the fixed delay between attempts.
	Interval time.Duration
}

// Next implements the Strategy interface.
func (c *Constant) Next() time.Duration {
	return c.Interval
}

// NewConstant creates a constant strategy with the specified interval.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{
		Interval: interval,
	}
}
