package logic

import "time"

// MillisPerHour converts operator hours into cycle milliseconds.
const MillisPerHour = 3_600_000

// HoursToMillis converts a duration in whole hours to milliseconds.
func HoursToMillis(hours int) int64 {
	return int64(hours) * MillisPerHour
}

// MillisToHours converts milliseconds back to (fractional) hours for display.
func MillisToHours(ms int64) float64 {
	return float64(ms) / MillisPerHour
}

// CycleClock tracks elapsed and remaining cook time. The zero value is a
// clock that has not started: elapsed is zero and remaining is the total.
type CycleClock struct {
	start   time.Time
	total   time.Duration
	started bool
}

// NewCycleClock creates a stopped clock for the given total duration.
func NewCycleClock(totalMs int64) CycleClock {
	return CycleClock{total: time.Duration(totalMs) * time.Millisecond}
}

// Start begins counting from now. Subsequent calls are ignored.
func (c *CycleClock) Start(now time.Time) {
	if c.started {
		return
	}
	c.start = now
	c.started = true
}

// Started reports whether the clock is running.
func (c CycleClock) Started() bool {
	return c.started
}

// Total returns the configured cycle length.
func (c CycleClock) Total() time.Duration {
	return c.total
}

// Elapsed returns now - start, clamped at zero.
func (c CycleClock) Elapsed(now time.Time) time.Duration {
	if !c.started {
		return 0
	}
	d := now.Sub(c.start)
	if d < 0 {
		return 0
	}
	return d
}

// Remaining returns total - elapsed, clamped at zero. Computed from elapsed
// so it never goes through start + total - now.
func (c CycleClock) Remaining(now time.Time) time.Duration {
	elapsed := c.Elapsed(now)
	if elapsed >= c.total {
		return 0
	}
	return c.total - elapsed
}

// Done reports whether a running clock has reached its total.
func (c CycleClock) Done(now time.Time) bool {
	return c.started && c.Remaining(now) == 0
}
