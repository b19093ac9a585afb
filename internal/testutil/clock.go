package testutil

import "sync"

// DeterministicTime is a clock.TimeSource for tests.
//
// Each call to Now advances by a fixed step, so the same scenario produces
// the same timestamps on every run. The first call returns step.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicTime struct {
	mu   sync.Mutex
	step int64
	now  int64
}

// NewDeterministicTime creates a deterministic time source. A step below 1
// defaults to 1.
func NewDeterministicTime(step int64) *DeterministicTime {
	if step < 1 {
		step = 1
	}
	return &DeterministicTime{step: step}
}

// Now advances the clock by one step and returns the new value.
func (c *DeterministicTime) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += c.step
	return c.now
}

// Current returns the last value handed out without advancing.
func (c *DeterministicTime) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock so the next call to Now returns step again.
func (c *DeterministicTime) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = 0
}
