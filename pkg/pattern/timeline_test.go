package pattern

import (
	"testing"
	"time"
)

func twoMinuteCycleAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	base := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	starts := spacedStarts(base, 3, 2*time.Minute)
	return newAnalyzer(t, starts, []int64{30000, 30000, 30000})
}

func TestDailyTimelineFullDay(t *testing.T) {
	a := twoMinuteCycleAnalyzer(t)
	refDate := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	timeline := a.DailyTimeline(refDate, 24)

	// A 2-minute cycle tiles a 24-hour window 720 times, one green and one
	// red interval per cycle.
	if len(timeline) != 1440 {
		t.Fatalf("Expected 1440 intervals over 24 hours, got %d", len(timeline))
	}
	if timeline[0].State != Green {
		t.Errorf("Expected the timeline to open with green, got %q", timeline[0].State)
	}
	if timeline[0].StartTime != "2025-12-01T00:00:00Z" {
		t.Errorf("Expected the first interval at window open, got %s", timeline[0].StartTime)
	}
	if last := timeline[len(timeline)-1]; last.EndTime != "2025-12-02T00:00:00Z" {
		t.Errorf("Expected the last interval to end at window close, got %s", last.EndTime)
	}
}

func TestDailyTimelineAlternatesContiguously(t *testing.T) {
	a := twoMinuteCycleAnalyzer(t)
	refDate := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	timeline := a.DailyTimeline(refDate, 24)

	windowStart := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.Add(24 * time.Hour)

	for i, interval := range timeline {
		want := Green
		if i%2 == 1 {
			want = Red
		}
		if interval.State != want {
			t.Fatalf("Expected %q at index %d, got %q", want, i, interval.State)
		}

		start, err := time.Parse(time.RFC3339, interval.StartTime)
		if err != nil {
			t.Fatalf("Interval %d start is not valid RFC 3339: %v", i, err)
		}
		end, err := time.Parse(time.RFC3339, interval.EndTime)
		if err != nil {
			t.Fatalf("Interval %d end is not valid RFC 3339: %v", i, err)
		}
		if !start.Before(end) {
			t.Fatalf("Interval %d is empty or inverted: %s .. %s", i, interval.StartTime, interval.EndTime)
		}
		if start.Before(windowStart) || end.After(windowEnd) {
			t.Fatalf("Interval %d leaks outside the window: %s .. %s", i, interval.StartTime, interval.EndTime)
		}
		if i > 0 && timeline[i-1].EndTime != interval.StartTime {
			t.Fatalf("Gap between interval %d end %s and interval %d start %s",
				i-1, timeline[i-1].EndTime, i, interval.StartTime)
		}
	}
}

func TestDailyTimelineLimitedHours(t *testing.T) {
	a := twoMinuteCycleAnalyzer(t)
	refDate := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	oneHour := a.DailyTimeline(refDate, 1)
	fullDay := a.DailyTimeline(refDate, 24)

	if len(oneHour) == 0 {
		t.Fatal("Expected a non-empty 1-hour timeline")
	}
	if len(oneHour) >= len(fullDay) {
		t.Errorf("Expected fewer intervals over 1 hour than 24, got %d vs %d",
			len(oneHour), len(fullDay))
	}
	if len(oneHour) != 60 {
		t.Errorf("Expected 60 intervals over 1 hour of 2-minute cycles, got %d", len(oneHour))
	}
}

func TestDailyTimelineClipsAtWindowEnd(t *testing.T) {
	// 25-minute cycle with 10-minute greens, anchored at 08:00. Walking back
	// from the anchor puts the first in-window start at 00:05, so the third
	// green (00:55) straddles a 1-hour window and must be cut at 01:00.
	base := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	starts := spacedStarts(base, 3, 25*time.Minute)
	a := newAnalyzer(t, starts, []int64{600000, 600000, 600000})

	refDate := time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC)
	timeline := a.DailyTimeline(refDate, 1)

	if len(timeline) != 5 {
		t.Fatalf("Expected 5 intervals, got %d: %+v", len(timeline), timeline)
	}
	if timeline[0].StartTime != "2025-12-02T00:05:00Z" {
		t.Errorf("Expected first green at 00:05, got %s", timeline[0].StartTime)
	}
	last := timeline[len(timeline)-1]
	if last.State != Green {
		t.Errorf("Expected the clipped final interval to be green, got %q", last.State)
	}
	if last.StartTime != "2025-12-02T00:55:00Z" || last.EndTime != "2025-12-02T01:00:00Z" {
		t.Errorf("Expected final green clipped to 00:55..01:00, got %s..%s",
			last.StartTime, last.EndTime)
	}
}

func TestDailyTimelineProjectsOntoRequestedDate(t *testing.T) {
	// Measurements from December 1st replayed onto December 25th.
	a := twoMinuteCycleAnalyzer(t)
	refDate := time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)
	timeline := a.DailyTimeline(refDate, 2)

	if len(timeline) == 0 {
		t.Fatal("Expected a non-empty timeline on a projected date")
	}
	if timeline[0].StartTime != "2025-12-25T00:00:00Z" {
		t.Errorf("Expected intervals on the requested date, got %s", timeline[0].StartTime)
	}
}

func TestDailyTimelineLongGreenShortCycle(t *testing.T) {
	// The tightest gap implies a 15s cycle, but the average green is far
	// longer. Greens are clamped to the cycle and the zero-length reds are
	// dropped rather than emitted inverted.
	base := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	starts := []time.Time{base, base.Add(15 * time.Second), base.Add(615 * time.Second)}
	a := newAnalyzer(t, starts, []int64{10000, 500000, 500000})

	refDate := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	timeline := a.DailyTimeline(refDate, 1)

	if len(timeline) == 0 {
		t.Fatal("Expected a non-empty timeline")
	}
	for i, interval := range timeline {
		if interval.State != Green {
			t.Fatalf("Expected only green intervals, got %q at index %d", interval.State, i)
		}
		if i > 0 && timeline[i-1].EndTime != interval.StartTime {
			t.Fatalf("Expected contiguous greens, gap before index %d", i)
		}
	}
}

func TestDailyTimelineRequiresPattern(t *testing.T) {
	refDate := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	single := newAnalyzer(t,
		[]time.Time{time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)}, []int64{30000})
	if timeline := single.DailyTimeline(refDate, 24); len(timeline) != 0 {
		t.Errorf("Expected an empty timeline from one measurement, got %d intervals", len(timeline))
	}

	sparse := newAnalyzer(t, []time.Time{
		time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 2, 8, 0, 0, 0, time.UTC),
	}, []int64{30000, 30000})
	if timeline := sparse.DailyTimeline(refDate, 24); len(timeline) != 0 {
		t.Errorf("Expected an empty timeline without an eligible gap, got %d intervals", len(timeline))
	}
}

func TestDailyTimelineNonPositiveWindow(t *testing.T) {
	a := twoMinuteCycleAnalyzer(t)
	refDate := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	if timeline := a.DailyTimeline(refDate, 0); len(timeline) != 0 {
		t.Errorf("Expected an empty timeline for a 0-hour window, got %d intervals", len(timeline))
	}
	if timeline := a.DailyTimeline(refDate, -3); len(timeline) != 0 {
		t.Errorf("Expected an empty timeline for a negative window, got %d intervals", len(timeline))
	}
}
