package pattern

import (
	"testing"
	"time"
)

func TestRedGapDerivation(t *testing.T) {
	base := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	starts := []time.Time{base, base.Add(2 * time.Minute), base.Add(5 * time.Minute)}
	durations := []int64{30000, 45000, 30000}

	a := newAnalyzer(t, starts, durations)
	gaps := a.redGaps()

	if len(gaps) != 2 {
		t.Fatalf("Expected 2 gaps from 3 measurements, got %d", len(gaps))
	}
	if gaps[0].cycleMS != 120000 || gaps[0].redMS != 90000 {
		t.Errorf("Expected first gap cycle=120000 red=90000, got cycle=%d red=%d",
			gaps[0].cycleMS, gaps[0].redMS)
	}
	if gaps[1].cycleMS != 180000 || gaps[1].redMS != 135000 {
		t.Errorf("Expected second gap cycle=180000 red=135000, got cycle=%d red=%d",
			gaps[1].cycleMS, gaps[1].redMS)
	}
}

func TestInferCyclePicksSmallestRed(t *testing.T) {
	// Three gaps: reds of 90s, 60s and 150s. The 60s red is the tightest
	// evidence of the true cycle.
	base := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	starts := []time.Time{
		base,
		base.Add(2 * time.Minute),
		base.Add(4 * time.Minute),
		base.Add(7 * time.Minute),
	}
	durations := []int64{30000, 60000, 30000, 30000}

	a := newAnalyzer(t, starts, durations)
	cycleMS, redMS, ok := a.inferCycle()
	if !ok {
		t.Fatal("Expected an inferred cycle")
	}
	if redMS != 60000 {
		t.Errorf("Expected the smallest red gap 60000, got %d", redMS)
	}
	if cycleMS != 120000 {
		t.Errorf("Expected the cycle of the tightest gap 120000, got %d", cycleMS)
	}
}

func TestInferCycleTieBreaksEarliest(t *testing.T) {
	// Both gaps have a 60s red but different cycles. The earlier pair in
	// sorted order must win so identical input always infers identically.
	base := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	starts := []time.Time{
		base,
		base.Add(100 * time.Second),
		base.Add(250 * time.Second),
	}
	durations := []int64{40000, 90000, 30000}

	a := newAnalyzer(t, starts, durations)
	cycleMS, redMS, ok := a.inferCycle()
	if !ok {
		t.Fatal("Expected an inferred cycle")
	}
	if redMS != 60000 {
		t.Errorf("Expected red 60000, got %d", redMS)
	}
	if cycleMS != 100000 {
		t.Errorf("Expected the earlier pair's cycle 100000, got %d", cycleMS)
	}
}

func TestInferCycleEligibilityBounds(t *testing.T) {
	base := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		gap     time.Duration
		wantOK  bool
		wantRed int64
	}{
		// duration is 60s, so red = gap - 60s in each case
		{"zero red is ineligible", 60 * time.Second, false, 0},
		{"one millisecond red is eligible", 60*time.Second + time.Millisecond, true, 1},
		{"just under two hours is eligible", 2*time.Hour + 60*time.Second - time.Millisecond, true, 7199999},
		{"exactly two hours is ineligible", 2*time.Hour + 60*time.Second, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			starts := []time.Time{base, base.Add(tt.gap)}
			a := newAnalyzer(t, starts, []int64{60000, 60000})

			_, redMS, ok := a.inferCycle()
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got ok=%v", tt.wantOK, ok)
			}
			if ok && redMS != tt.wantRed {
				t.Errorf("Expected red %d, got %d", tt.wantRed, redMS)
			}
		})
	}
}

func TestInferCycleTooFewMeasurements(t *testing.T) {
	base := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)

	a := newAnalyzer(t, nil, nil)
	if _, _, ok := a.inferCycle(); ok {
		t.Error("Expected no cycle from zero measurements")
	}

	a = newAnalyzer(t, []time.Time{base}, []int64{30000})
	if _, _, ok := a.inferCycle(); ok {
		t.Error("Expected no cycle from one measurement")
	}
}
