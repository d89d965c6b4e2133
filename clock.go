package sequencer

import (
	"sync/atomic"
	"time"
)

// ClockPair couples a real millisecond clock with a cached value that is
// refreshed exactly once per tick. Every read within a tick observes the
// same value, so the cached clock never moves backwards within a tick,
// even though the real clock underneath it is free-running.
type ClockPair struct {
	cached atomic.Int64
}

// NewClockPair constructs a ClockPair with the cached clock at zero. The
// cached clock reads zero until the first Set call.
func NewClockPair() *ClockPair {
	return &ClockPair{}
}

// NowMs returns the real wall-clock time in epoch milliseconds. It is never
// cached and may be called as often as needed; the Sequencer calls it
// exactly once per tick.
func (c *ClockPair) NowMs() int64 {
	return time.Now().UnixMilli()
}

// Set refreshes the cached clock. Called once per tick by the Sequencer
// immediately after reading NowMs.
func (c *ClockPair) Set(nowMs int64) {
	c.cached.Store(nowMs)
}

// CachedMs returns the clock value captured by the most recent Set call.
// Work reads the tick's `now` back through this accessor immediately after
// calling Set, so every subsequent step of that tick — session aging, timer
// firing, control-toggle handling — shares the one cached instant rather
// than re-reading NowMs, which is free to advance mid-tick.
func (c *ClockPair) CachedMs() int64 {
	return c.cached.Load()
}
