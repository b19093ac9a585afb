package clock

import (
	"sync"
	"time"
)

// TimeSource supplies mutation timestamps as Unix nanoseconds.
type TimeSource interface {
	Now() int64
}

// WallTime reads the system clock and never goes backwards: if the wall
// clock steps back, the last observed value is returned again. This keeps
// created_at <= updated_at and ledger order chronological.
type WallTime struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewWallTime returns a TimeSource backed by time.Now.
func NewWallTime() *WallTime {
	return &WallTime{now: time.Now}
}

// Now returns the current time in Unix nanoseconds, clamped to be
// non-decreasing across calls.
func (w *WallTime) Now() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	ts := w.now().UTC().UnixNano()
	if ts < w.last {
		ts = w.last
	}
	w.last = ts
	return ts
}
