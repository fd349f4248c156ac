// Package sentiment reduces the full instrument table into market breadth
// counts and a single composite score in [0,100].
package sentiment

import (
	"math"

	"market-pulse/internal/provider"
	"market-pulse/internal/types"
)

// Levels derived from the composite score. 40 and 60 are inclusive
// boundaries: both map to LevelNeutral.
const (
	LevelOptimistic  = "optimistic"
	LevelPessimistic = "pessimistic"
	LevelNeutral     = "neutral"
)

// NeutralScore is reported when no market data is available for the cycle.
const NeutralScore = 50.0

// Reducer computes breadth aggregates from instrument tables.
type Reducer struct {
	limitPct float64 // percent change at which a move counts as a limit move
}

// NewReducer creates a reducer with the given limit-move threshold
// (e.g. 9.8 for the A-share main board).
func NewReducer(limitPct float64) *Reducer {
	return &Reducer{limitPct: limitPct}
}

// Reduce aggregates one point-in-time instrument table into a
// MarketOverview. Amounts are reported in 100M units.
func (r *Reducer) Reduce(rows []provider.InstrumentRow) types.MarketOverview {
	var o types.MarketOverview
	for _, row := range rows {
		switch {
		case row.ChangePct > 0:
			o.UpCount++
		case row.ChangePct < 0:
			o.DownCount++
		default:
			o.FlatCount++
		}
		if row.ChangePct >= r.limitPct {
			o.LimitUp++
		}
		if row.ChangePct <= -r.limitPct {
			o.LimitDown++
		}
		o.TotalAmount += row.Amount
	}
	o.TotalAmount /= 1e8

	down := o.DownCount
	if down < 1 {
		down = 1
	}
	o.UpDownRatio = float64(o.UpCount) / float64(down)
	return o
}

// Score computes the composite sentiment score from an overview. It is a
// pure function of three clamped sub-scores:
//
//	ratioScore   = clamp(ratio * 33, 0, 100)       saturates at a 3:1 ratio
//	limitScore   = clamp(limitUp / 200 * 100, ...)  saturates at 200 limit-ups
//	breadthScore = up / (up + down) * 100, 50 when the denominator is zero
//
// composite = 0.5*ratioScore + 0.3*limitScore + 0.2*breadthScore, rounded to
// one decimal. The coefficients and rounding are load-bearing: the dashboard
// expects output parity across rebuilds.
func Score(o types.MarketOverview) float64 {
	ratioScore := clamp(o.UpDownRatio*33, 0, 100)
	limitScore := clamp(float64(o.LimitUp)/200*100, 0, 100)

	breadthScore := 50.0
	if total := o.UpCount + o.DownCount; total > 0 {
		breadthScore = float64(o.UpCount) / float64(total) * 100
	}

	composite := ratioScore*0.5 + limitScore*0.3 + breadthScore*0.2
	return math.Round(composite*10) / 10
}

// Level maps a composite score to its qualitative label.
func Level(score float64) string {
	switch {
	case score > 60:
		return LevelOptimistic
	case score < 40:
		return LevelPessimistic
	default:
		return LevelNeutral
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
