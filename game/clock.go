package game

import "time"

// NextRoundStart returns the smallest multiple of interval that is not before
// now. Two callers inside the same interval window always get the identical
// instant, which is what lets independent processes agree on a round start
// without exchanging a single message.
func NextRoundStart(now time.Time, interval time.Duration) time.Time {
	ms := now.UnixMilli()
	step := interval.Milliseconds()
	target := (ms + step - 1) / step * step
	return time.UnixMilli(target)
}

// SecondsRemaining is the whole-second countdown until start, floored at zero.
func SecondsRemaining(start, now time.Time) int {
	d := start.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return secs
}
