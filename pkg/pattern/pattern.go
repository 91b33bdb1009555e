// Package pattern infers the repeating schedule of a traffic light from
// sparse, irregularly spaced green-phase captures. Each capture records when
// a green phase started and how long it lasted; from adjacent captures the
// engine derives the red gaps between them and picks the single most
// trustworthy cycle. Once a cycle is known, projecting the next green phase
// or replaying a full day of phases is plain modular arithmetic, and
// ValidatePattern closes the loop by back-testing the inferred cycle against
// everything observed.
//
// The engine is deliberately stateless: an Analyzer is immutable after
// construction and never touches the ambient clock. Every method is a pure
// function of the captured data plus explicit time parameters. One analyzer
// per light; concurrent use needs no coordination.
package pattern

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	// maxRedGapMS bounds a believable red phase between two adjacent
	// captures. Gaps of two hours or more span missed cycles or idle
	// stretches and say nothing about the light's own rhythm.
	maxRedGapMS = 2 * 60 * 60 * 1000

	// minSamplesForStdDev is how many durations are needed before a
	// standard deviation (and the regularity verdict built on it) is
	// meaningful.
	minSamplesForStdDev = 3

	// regularCV and somewhatRegularCV are the coefficient-of-variation
	// thresholds separating the regularity verdicts.
	regularCV         = 0.10
	somewhatRegularCV = 0.20
)

// Regularity classifies how consistent the observed green durations are.
// The empty value means there were too few samples for a verdict.
type Regularity string

// Regularity verdicts, ordered from most to least consistent.
const (
	Regular         Regularity = "regular"
	SomewhatRegular Regularity = "somewhat_regular"
	Irregular       Regularity = "irregular"
)

// State labels one side of the light's cycle.
type State string

// The two phases a timeline alternates between.
const (
	Green State = "green"
	Red   State = "red"
)

// ErrInvalidInput marks construction input the engine refuses to analyze:
// mismatched slice lengths or a non-positive duration. Rejecting eagerly
// beats silently corrupting the gap computation downstream.
var ErrInvalidInput = errors.New("pattern: invalid input")

// measurement pairs one observed green-phase start with its duration.
type measurement struct {
	start      time.Time
	durationMS int64
}

// Analyzer holds one light's captures, sorted by start time.
type Analyzer struct {
	byStart []measurement
}

// New builds an Analyzer from parallel slices of green-phase start times and
// durations in milliseconds. Input order is not assumed; the analyzer sorts
// a copy. Zero measurements is fine (analysis reports no pattern); malformed
// input is not.
func New(starts []time.Time, durationsMS []int64) (*Analyzer, error) {
	if len(starts) != len(durationsMS) {
		return nil, fmt.Errorf("%w: %d starts but %d durations", ErrInvalidInput, len(starts), len(durationsMS))
	}
	for i, d := range durationsMS {
		if d <= 0 {
			return nil, fmt.Errorf("%w: duration %dms at index %d must be positive", ErrInvalidInput, d, i)
		}
	}

	byStart := make([]measurement, len(starts))
	for i := range starts {
		byStart[i] = measurement{start: starts[i], durationMS: durationsMS[i]}
	}
	sort.SliceStable(byStart, func(i, j int) bool {
		return byStart[i].start.Before(byStart[j].start)
	})

	return &Analyzer{byStart: byStart}, nil
}

// Count reports how many captures the analyzer holds.
func (a *Analyzer) Count() int {
	return len(a.byStart)
}

// Location reports the zone the captures carry, taken from the earliest
// measurement. An empty analyzer reports UTC.
func (a *Analyzer) Location() *time.Location {
	if len(a.byStart) == 0 {
		return time.UTC
	}
	return a.byStart[0].start.Location()
}

// durations returns the duration column in sorted-by-start order.
func (a *Analyzer) durations() []int64 {
	out := make([]int64, len(a.byStart))
	for i, m := range a.byStart {
		out[i] = m.durationMS
	}
	return out
}
