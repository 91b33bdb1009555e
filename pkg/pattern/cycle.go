package pattern

// redGap is the inferred off interval between two adjacent captures: the
// stretch from one green phase's end to the next green phase's start, plus
// the full start-to-start cycle it implies.
type redGap struct {
	redMS   int64
	cycleMS int64
}

// redGaps derives the gap after every capture except the last. A gap can be
// non-positive when captures overlap or repeat; eligibility is judged by the
// caller.
func (a *Analyzer) redGaps() []redGap {
	if len(a.byStart) < 2 {
		return nil
	}
	gaps := make([]redGap, 0, len(a.byStart)-1)
	for i := 0; i < len(a.byStart)-1; i++ {
		cur, next := a.byStart[i], a.byStart[i+1]
		cycle := next.start.Sub(cur.start).Milliseconds()
		gaps = append(gaps, redGap{
			redMS:   cycle - cur.durationMS,
			cycleMS: cycle,
		})
	}
	return gaps
}

// inferCycle picks the single most trustworthy repeating cycle: among gaps
// with 0 < red < 2h, the one with the smallest red duration. The smallest
// observed red interval is the tightest evidence of one true cycle; larger
// gaps may span several missed cycles. Ties break to the earliest pair in
// sorted order, so the result is deterministic for identical input.
func (a *Analyzer) inferCycle() (cycleMS, redMS int64, ok bool) {
	var best redGap
	for _, g := range a.redGaps() {
		if g.redMS <= 0 || g.redMS >= maxRedGapMS {
			continue
		}
		if !ok || g.redMS < best.redMS {
			best = g
			ok = true
		}
	}
	if !ok {
		return 0, 0, false
	}
	return best.cycleMS, best.redMS, true
}
