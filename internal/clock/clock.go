// Package clock supplies the monotonic time source and fixed-rate deadline
// scheduler the acquisition and publisher loops run on.
package clock

import "time"

// Clock reports seconds elapsed since it was created. All pipeline
// timestamps are relative to this origin, matching the teacher's use of
// time.Now() as a monotonic source rather than wall-clock timestamps.
type Clock struct {
	start time.Time
}

// New returns a Clock whose origin is the current instant.
func New() *Clock {
	return &Clock{start: time.Now()}
}

// Now returns seconds elapsed since the clock's origin.
func (c *Clock) Now() float64 {
	return time.Since(c.start).Seconds()
}
