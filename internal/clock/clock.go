package clock

import "sync/atomic"

// Clock allocates house identifiers.
//
// Every id handed out is strictly greater than the previous one and is never
// reused, deletions included. The first call to Next on a fresh Clock
// returns 1.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// The house store still calls Next from inside its critical section so that
// allocation and insertion are observed together.
type Clock struct {
	seq atomic.Uint64
}

// New creates a clock whose first id is 1.
func New() *Clock {
	return &Clock{}
}

// NewAt creates a clock positioned at start, so the next id is start+1.
// Used when restoring a store from a journal or snapshot.
func NewAt(start uint64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next id and advances the clock.
func (c *Clock) Next() uint64 {
	return c.seq.Add(1)
}

// Peek returns the id the next call to Next would return, without
// advancing. Used to stage a mutation before it is committed.
func (c *Clock) Peek() uint64 {
	return c.seq.Load() + 1
}

// Current returns the last id handed out (0 if none).
func (c *Clock) Current() uint64 {
	return c.seq.Load()
}
