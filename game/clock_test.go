package game

import (
	"testing"
	"time"
)

func TestNextRoundStart(t *testing.T) {
	interval := time.Minute
	base := time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
	}{
		{"exactly on boundary", base},
		{"one ms after", base.Add(time.Millisecond)},
		{"mid window", base.Add(31 * time.Second)},
		{"end of window", base.Add(59*time.Second + 999*time.Millisecond)},
	}
	for _, tt := range tests {
		got := NextRoundStart(tt.now, interval)
		if got.Before(tt.now) {
			t.Errorf("%s: start %v before now %v", tt.name, got, tt.now)
		}
		if got.UnixMilli()%interval.Milliseconds() != 0 {
			t.Errorf("%s: start %v not on an interval boundary", tt.name, got)
		}
	}
}

// Two calls falling inside the same window must agree on the start instant;
// this is the whole synchronization mechanism.
func TestNextRoundStartStableWithinWindow(t *testing.T) {
	interval := time.Minute
	early := time.Date(2026, 3, 14, 9, 26, 3, 0, time.UTC)
	late := early.Add(50 * time.Second)

	if a, b := NextRoundStart(early, interval), NextRoundStart(late, interval); !a.Equal(b) {
		t.Fatalf("same window, different starts: %v vs %v", a, b)
	}

	next := late.Add(15 * time.Second) // crosses the boundary
	if a, b := NextRoundStart(early, interval), NextRoundStart(next, interval); a.Equal(b) {
		t.Fatalf("different windows produced the same start %v", a)
	}
}

func TestSecondsRemaining(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 27, 0, 0, time.UTC)
	tests := []struct {
		now  time.Time
		want int
	}{
		{start.Add(-10 * time.Second), 10},
		{start.Add(-1500 * time.Millisecond), 2}, // ceil
		{start, 0},
		{start.Add(5 * time.Second), 0}, // floored at zero
	}
	for _, tt := range tests {
		if got := SecondsRemaining(start, tt.now); got != tt.want {
			t.Errorf("SecondsRemaining(now=%v) = %d, want %d", tt.now, got, tt.want)
		}
	}
}
