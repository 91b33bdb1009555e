package pattern

import (
	"math"
	"time"

	"github.com/greenwave-dev/greenwave/pkg/isotime"
)

// Analysis is the aggregate result of one engine pass. Pointer fields are
// absent when the data cannot support them: statistics need at least one
// capture and the standard deviation needs three, while everything
// cycle-related needs an inferred pattern. Field names match the service's
// wire format.
type Analysis struct {
	HasPattern        bool       `json:"has_pattern"`
	AverageDurationMS *int64     `json:"average_duration_ms,omitempty"`
	MinDurationMS     *int64     `json:"min_duration_ms,omitempty"`
	MaxDurationMS     *int64     `json:"max_duration_ms,omitempty"`
	StdDevDurationMS  *float64   `json:"stddev_duration_ms,omitempty"`
	TypicalDurationMS *int64     `json:"typical_duration_ms,omitempty"`
	Regularity        Regularity `json:"schedule_regularity,omitempty"`
	TotalCaptures     int        `json:"total_captures"`
	LastCapture       *string    `json:"last_capture,omitempty"`
	AverageCycleMS    *int64     `json:"average_cycle_ms,omitempty"`
	RedDurationMS     *int64     `json:"red_duration_ms,omitempty"`
	NextGreenStart    *string    `json:"next_green_start,omitempty"`
	NextGreenEnd      *string    `json:"next_green_end,omitempty"`
}

// durationSummary carries the descriptive statistics over the observed
// durations. stddev is the sample standard deviation and only meaningful
// when samples >= minSamplesForStdDev.
type durationSummary struct {
	mean    float64
	average int64
	min     int64
	max     int64
	stddev  float64
	samples int
}

// Analyze runs the full pass: descriptive statistics, cycle inference,
// regularity classification, and next-green projection relative to the
// caller-supplied now. Insufficient data is a normal outcome, not an error:
// with zero captures only TotalCaptures is set, and without an eligible red
// gap the statistics still come back with HasPattern false.
func (a *Analyzer) Analyze(now time.Time) Analysis {
	res := Analysis{TotalCaptures: len(a.byStart)}
	if len(a.byStart) == 0 {
		return res
	}

	sum := summarizeDurations(a.durations())
	res.AverageDurationMS = &sum.average
	res.MinDurationMS = &sum.min
	res.MaxDurationMS = &sum.max
	res.TypicalDurationMS = &sum.average
	if sum.samples >= minSamplesForStdDev {
		res.StdDevDurationMS = &sum.stddev
	}
	res.Regularity = classifyRegularity(sum)

	last := a.byStart[len(a.byStart)-1]
	lastEnd := isotime.Format(last.start.Add(time.Duration(last.durationMS) * time.Millisecond))
	res.LastCapture = &lastEnd

	cycleMS, redMS, ok := a.inferCycle()
	if !ok {
		return res
	}
	res.HasPattern = true
	res.AverageCycleMS = &cycleMS
	res.RedDurationMS = &redMS

	nextStart, nextEnd := a.nextGreen(now, cycleMS, sum.average)
	startISO, endISO := isotime.Format(nextStart), isotime.Format(nextEnd)
	res.NextGreenStart = &startISO
	res.NextGreenEnd = &endISO
	return res
}

// summarizeDurations computes mean (rounded to the nearest integer for the
// wire), min, max, and the sample standard deviation. Callers guarantee a
// non-empty slice.
func summarizeDurations(durations []int64) durationSummary {
	sum := durationSummary{
		min:     durations[0],
		max:     durations[0],
		samples: len(durations),
	}

	var total int64
	for _, d := range durations {
		total += d
		if d < sum.min {
			sum.min = d
		}
		if d > sum.max {
			sum.max = d
		}
	}
	sum.mean = float64(total) / float64(len(durations))
	sum.average = int64(math.Round(sum.mean))

	if len(durations) >= minSamplesForStdDev {
		var sq float64
		for _, d := range durations {
			diff := float64(d) - sum.mean
			sq += diff * diff
		}
		sum.stddev = math.Sqrt(sq / float64(len(durations)-1))
	}
	return sum
}

// classifyRegularity turns the coefficient of variation (stddev over mean)
// into a verdict. Below three samples there is no verdict at all.
func classifyRegularity(sum durationSummary) Regularity {
	if sum.samples < minSamplesForStdDev {
		return ""
	}
	cv := sum.stddev / sum.mean
	switch {
	case cv < regularCV:
		return Regular
	case cv < somewhatRegularCV:
		return SomewhatRegular
	default:
		return Irregular
	}
}
