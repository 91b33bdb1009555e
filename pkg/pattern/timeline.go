package pattern

import (
	"time"

	"github.com/greenwave-dev/greenwave/pkg/isotime"
)

// PhaseInterval is one green or red stretch inside a generated timeline.
// Timestamps are ISO-8601 strings carrying the measurements' own zone.
type PhaseInterval struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	State     State  `json:"state"`
}

// DailyTimeline replays the inferred cycle across a window opening at
// midnight of refDate in the measurements' zone and spanning hours hours.
// The earliest measurement's time-of-day anchors the projection on the
// target date; whole cycles are subtracted to find the first occurrence
// inside the window, then green/red intervals alternate forward until the
// window closes. The final interval is clipped to the window rather than
// overrun. Without an inferred pattern, or with a non-positive window, the
// timeline is empty.
func (a *Analyzer) DailyTimeline(refDate time.Time, hours int) []PhaseInterval {
	cycleMS, _, ok := a.inferCycle()
	if !ok || hours <= 0 {
		return nil
	}

	greenMS := summarizeDurations(a.durations()).average
	if greenMS > cycleMS {
		greenMS = cycleMS
	}
	cycle := time.Duration(cycleMS) * time.Millisecond
	green := time.Duration(greenMS) * time.Millisecond

	earliest := a.byStart[0].start
	loc := earliest.Location()
	y, m, d := refDate.Date()
	windowStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	windowEnd := windowStart.Add(time.Duration(hours) * time.Hour)

	cursor := time.Date(y, m, d,
		earliest.Hour(), earliest.Minute(), earliest.Second(), earliest.Nanosecond(), loc)
	if diff := cursor.Sub(windowStart); diff >= cycle {
		cursor = cursor.Add(-(diff / cycle) * cycle)
	}

	var timeline []PhaseInterval
	for cursor.Before(windowEnd) {
		greenEnd := cursor.Add(green)
		if greenEnd.After(windowEnd) {
			greenEnd = windowEnd
		}
		timeline = append(timeline, PhaseInterval{
			StartTime: isotime.Format(cursor),
			EndTime:   isotime.Format(greenEnd),
			State:     Green,
		})

		redEnd := cursor.Add(cycle)
		if redEnd.After(windowEnd) {
			redEnd = windowEnd
		}
		if redEnd.After(greenEnd) {
			timeline = append(timeline, PhaseInterval{
				StartTime: isotime.Format(greenEnd),
				EndTime:   isotime.Format(redEnd),
				State:     Red,
			})
		}
		cursor = cursor.Add(cycle)
	}
	return timeline
}
