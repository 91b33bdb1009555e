package pattern

import "time"

const (
	// DefaultToleranceMS is how far a measurement may drift from the nearest
	// projected cycle boundary and still count as a match.
	DefaultToleranceMS = 5000

	// minMatchRate is the fraction of measurements that must land on the
	// projected grid for the pattern to count as valid.
	minMatchRate = 0.70
)

// Validation reports how well the inferred cycle explains the full set of
// measurements, not just the pair that produced it.
type Validation struct {
	IsValid   bool    `json:"is_valid"`
	Matches   int     `json:"matches"`
	Total     int     `json:"total"`
	MatchRate float64 `json:"match_rate"`
}

// ValidatePattern back-tests the inferred cycle against every measurement.
// The earliest measurement's time-of-day, projected onto each measurement's
// calendar date, anchors a grid of cycle boundaries; a measurement matches
// when its start lands within toleranceMS of a whole number of cycles from
// that anchor, checked on both sides of the modulus wrap. Without at least
// two measurements and an inferred pattern the verdict is invalid with zero
// matches.
func (a *Analyzer) ValidatePattern(toleranceMS int64) Validation {
	res := Validation{Total: len(a.byStart)}
	cycleMS, _, ok := a.inferCycle()
	if !ok {
		return res
	}

	anchor := a.byStart[0].start
	for _, m := range a.byStart {
		y, mo, d := m.start.Date()
		projected := time.Date(y, mo, d,
			anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(),
			m.start.Location())
		elapsed := m.start.Sub(projected).Milliseconds()
		rem := ((elapsed % cycleMS) + cycleMS) % cycleMS
		if rem <= toleranceMS || rem >= cycleMS-toleranceMS {
			res.Matches++
		}
	}
	res.MatchRate = float64(res.Matches) / float64(res.Total)
	res.IsValid = res.MatchRate >= minMatchRate
	return res
}
