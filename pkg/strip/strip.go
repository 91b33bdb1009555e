// Package strip renders a day of inferred traffic light phases as a colored
// terminal strip: one row per hour, one cell per minute.
package strip

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/greenwave-dev/greenwave/pkg/isotime"
	"github.com/greenwave-dev/greenwave/pkg/pattern"
)

// span is one phase interval with parsed endpoints.
type span struct {
	start time.Time
	end   time.Time
	state pattern.State
}

// Render draws the timeline as hour rows starting at dayStart. Each cell is
// the phase at the midpoint of its minute: a green block for green, a shaded
// block for red, blank outside every interval. Intervals must be ordered and
// non-overlapping, as the engine emits them.
func Render(intervals []pattern.PhaseInterval, dayStart time.Time, hours int) (string, error) {
	spans := make([]span, 0, len(intervals))
	for i, interval := range intervals {
		start, err := isotime.Parse(interval.StartTime)
		if err != nil {
			return "", fmt.Errorf("interval %d: bad start: %w", i, err)
		}
		end, err := isotime.Parse(interval.EndTime)
		if err != nil {
			return "", fmt.Errorf("interval %d: bad end: %w", i, err)
		}
		spans = append(spans, span{start: start, end: end, state: interval.State})
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	var output strings.Builder
	output.WriteString("🚦 Daily Phase Timeline (1-minute resolution)\n")
	output.WriteString(strings.Repeat("─", 66) + "\n")
	output.WriteString("      " + ruler() + "\n")

	idx := 0
	for hour := range hours {
		rowStart := dayStart.Add(time.Duration(hour) * time.Hour)
		line := rowStart.Format("15:04") + " "

		for minute := range 60 {
			probe := rowStart.Add(time.Duration(minute)*time.Minute + 30*time.Second)
			for idx < len(spans) && !probe.Before(spans[idx].end) {
				idx++
			}

			cell := " "
			if idx < len(spans) && !probe.Before(spans[idx].start) {
				if spans[idx].state == pattern.Green {
					cell = green.Sprint("█")
				} else {
					cell = red.Sprint("░")
				}
			}
			line += cell
		}
		output.WriteString(line + "\n")
	}

	output.WriteString(strings.Repeat("─", 66) + "\n")
	output.WriteString(green.Sprint("█") + " green   " + red.Sprint("░") + " red\n")
	return output.String(), nil
}

// ruler labels the minute columns at quarter-hour marks.
func ruler() string {
	cells := []byte(strings.Repeat(" ", 60))
	for _, mark := range []int{0, 15, 30, 45} {
		copy(cells[mark:], strconv.Itoa(mark))
	}
	return string(cells)
}
