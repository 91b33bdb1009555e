package pattern

import "time"

// nextGreen projects the next green-phase start strictly after now by
// stepping whole cycles forward from the most recent observed start. The
// step count is computed arithmetically so a stale dataset (years old)
// costs the same as a fresh one. Callers guarantee at least one measurement
// and a positive cycle.
func (a *Analyzer) nextGreen(now time.Time, cycleMS, greenMS int64) (start, end time.Time) {
	cycle := time.Duration(cycleMS) * time.Millisecond
	start = a.byStart[len(a.byStart)-1].start
	if !start.After(now) {
		steps := now.Sub(start)/cycle + 1
		start = start.Add(steps * cycle)
	}
	end = start.Add(time.Duration(greenMS) * time.Millisecond)
	return start, end
}
