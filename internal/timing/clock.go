// Package timing decides, once per host loop iteration, whether a render
// and how many logical updates are due. Render and update cadence are
// governed independently.
package timing

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is a monotonic time source. Now is the time elapsed since the clock
// started.
type Clock interface {
	Now() time.Duration
	Resolution() time.Duration
}

// SystemClock reads the host's monotonic clock.
type SystemClock struct {
	clock clockwork.Clock
	start time.Time
}

// NewSystemClock starts a clock at the current instant.
func NewSystemClock() *SystemClock {
	c := clockwork.NewRealClock()
	return &SystemClock{clock: c, start: c.Now()}
}

// Now returns the time since the clock started.
func (c *SystemClock) Now() time.Duration {
	return c.clock.Since(c.start)
}

// Resolution of the monotonic clock as exposed by the time package.
func (c *SystemClock) Resolution() time.Duration {
	return time.Nanosecond
}

// ManualClock only moves when told to. Used for deterministic runs and
// safe to advance from another goroutine.
type ManualClock struct {
	fake  clockwork.FakeClock
	start time.Time
}

// NewManualClock creates a clock at zero.
func NewManualClock() *ManualClock {
	f := clockwork.NewFakeClock()
	return &ManualClock{fake: f, start: f.Now()}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Duration {
	return c.fake.Since(c.start)
}

// Resolution of a manual clock is one nanosecond.
func (c *ManualClock) Resolution() time.Duration {
	return time.Nanosecond
}

// Advance moves the clock forward by d. Negative values are ignored.
func (c *ManualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.fake.Advance(d)
}
