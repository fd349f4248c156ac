package sentiment

import (
	"testing"

	"market-pulse/internal/provider"
	"market-pulse/internal/types"
)

func TestLevelBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, LevelPessimistic},
		{39.9, LevelPessimistic},
		{40, LevelNeutral},
		{50, LevelNeutral},
		{60, LevelNeutral},
		{60.1, LevelOptimistic},
		{100, LevelOptimistic},
	}

	for _, tt := range tests {
		if got := Level(tt.score); got != tt.want {
			t.Errorf("Level(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestScoreReferenceVector(t *testing.T) {
	// 3:1 ratio saturates the ratio sub-score at 99, 150 limit-ups give 75,
	// breadth 600/800 gives 75: composite 49.5+22.5+15.
	o := types.MarketOverview{
		UpCount:     600,
		DownCount:   200,
		LimitUp:     150,
		UpDownRatio: 3.0,
	}

	if got := Score(o); got != 87.0 {
		t.Errorf("Score() = %v, want 87.0", got)
	}
}

func TestScoreAllZeroOverview(t *testing.T) {
	// Zero instruments: ratio and limit sub-scores are 0, breadth defaults
	// to 50, composite is 0.2*50.
	if got := Score(types.MarketOverview{}); got != 10.0 {
		t.Errorf("Score(zero overview) = %v, want 10.0", got)
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	overviews := []types.MarketOverview{
		{},
		{UpCount: 5000, DownCount: 1, LimitUp: 5000, UpDownRatio: 5000},
		{UpCount: 0, DownCount: 5000, UpDownRatio: 0},
		{UpCount: 1, DownCount: 1, LimitUp: 1, UpDownRatio: 1},
		{UpCount: 2500, DownCount: 2500, LimitUp: 200, UpDownRatio: 1},
	}

	for _, o := range overviews {
		got := Score(o)
		if got < 0 || got > 100 {
			t.Errorf("Score(%+v) = %v, out of [0,100]", o, got)
		}
	}
}

func TestScoreLimitSaturation(t *testing.T) {
	// 200 simultaneous limit-ups saturate the limit sub-score.
	base := types.MarketOverview{LimitUp: 200}
	more := types.MarketOverview{LimitUp: 400}

	if Score(base) != Score(more) {
		t.Errorf("limit sub-score should saturate at 200: %v vs %v", Score(base), Score(more))
	}
}

func TestReduceCounts(t *testing.T) {
	rows := []provider.InstrumentRow{
		{Code: "600000", ChangePct: 2.5, Amount: 3e8},
		{Code: "600001", ChangePct: -1.2, Amount: 1e8},
		{Code: "600002", ChangePct: 0, Amount: 2e8},
		{Code: "600003", ChangePct: 9.8, Amount: 4e8},   // inclusive limit-up
		{Code: "600004", ChangePct: 10.01, Amount: 1e8},
		{Code: "600005", ChangePct: -9.8, Amount: 1e8}, // inclusive limit-down
	}

	o := NewReducer(9.8).Reduce(rows)

	if o.UpCount != 3 {
		t.Errorf("UpCount = %d, want 3", o.UpCount)
	}
	if o.DownCount != 2 {
		t.Errorf("DownCount = %d, want 2", o.DownCount)
	}
	if o.FlatCount != 1 {
		t.Errorf("FlatCount = %d, want 1", o.FlatCount)
	}
	if o.LimitUp != 2 {
		t.Errorf("LimitUp = %d, want 2", o.LimitUp)
	}
	if o.LimitDown != 1 {
		t.Errorf("LimitDown = %d, want 1", o.LimitDown)
	}
	if o.TotalAmount != 12.0 {
		t.Errorf("TotalAmount = %v, want 12.0", o.TotalAmount)
	}
	if o.UpDownRatio != 1.5 {
		t.Errorf("UpDownRatio = %v, want 1.5", o.UpDownRatio)
	}
}

func TestReduceRatioFloorsDeclinersAtOne(t *testing.T) {
	rows := []provider.InstrumentRow{
		{ChangePct: 1.0},
		{ChangePct: 2.0},
	}

	o := NewReducer(9.8).Reduce(rows)
	if o.UpDownRatio != 2.0 {
		t.Errorf("UpDownRatio = %v, want 2.0 (decliners floored at 1)", o.UpDownRatio)
	}
}

func TestReduceEmptyTable(t *testing.T) {
	o := NewReducer(9.8).Reduce(nil)
	if o.UpCount != 0 || o.DownCount != 0 || o.LimitUp != 0 {
		t.Errorf("empty table should produce zero counts, got %+v", o)
	}
	if o.UpDownRatio != 0 {
		t.Errorf("UpDownRatio = %v, want 0", o.UpDownRatio)
	}
}
