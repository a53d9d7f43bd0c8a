package clock

import (
	"testing"
	"time"
)

func TestSchedulerHoldsApproximateRate(t *testing.T) {
	if testing.Short() {
		t.Skip("timing-sensitive test skipped in short mode")
	}
	s := NewScheduler(1000)
	s.Start()

	const ticks = 500
	start := time.Now()
	for i := 0; i < ticks; i++ {
		work := s.BeginTick()
		s.EndTick(work)
		s.WaitForDeadline()
	}
	elapsed := time.Since(start)

	effectiveHz := float64(ticks) / elapsed.Seconds()
	rel := (effectiveHz - 1000) / 1000
	if rel < 0 {
		rel = -rel
	}
	if rel > 0.05 {
		t.Fatalf("effective hz %.1f too far from target 1000 (rel err %.3f)", effectiveHz, rel)
	}
}

func TestSchedulerBacklogResetsInsteadOfCascading(t *testing.T) {
	s := NewScheduler(1000)
	s.Start()
	s.wake = time.Now().Add(-10 * time.Second) // simulate a huge stall
	before := time.Now()
	s.WaitForDeadline()
	if s.wake.Before(before) {
		t.Fatalf("expected wake to be reset forward of now, got %v vs %v", s.wake, before)
	}
}
