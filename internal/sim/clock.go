package sim

import "time"

// Clock is the simulation's logical time, advanced by exactly one tick per
// step. Sessions and cooldowns read this clock, never the wall clock, so a
// delayed tick still accounts for its full duration.
type Clock struct {
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time { return c.now }

func (c *Clock) Advance(dt time.Duration) time.Time {
	c.now = c.now.Add(dt)
	return c.now
}
