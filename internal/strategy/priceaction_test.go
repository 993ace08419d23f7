package strategy

import (
	"testing"

	"PipSentinel/internal/model"
)

func TestDetectPriceAction_EmbeddedBreakout(t *testing.T) {
	bars := quietUptrend(300)
	const idx = 150
	base := bars[idx].Open
	// body 0.0008 of a 0.0010 range, close well above the prior 20-bar high
	bars[idx] = model.NewCandle(bars[idx].Time, base, base+0.0009, base-0.0001, base+0.0008, 100)
	fadeMomentum(bars, idx)

	signals := DetectPriceAction(bars, params(20, 0.5, 0.6))
	if len(signals) != 1 {
		t.Fatalf("expected exactly 1 signal, got %d: %+v", len(signals), signals)
	}
	s := signals[0]
	if s.Index != idx || s.Direction != model.Long || s.Kind != model.SetupBreakout {
		t.Errorf("expected LONG breakout at %d, got %s %s at %d", idx, s.Direction, s.Kind, s.Index)
	}
	if s.BodyPercent < 0.79 || s.BodyPercent > 0.81 {
		t.Errorf("expected body percent ~0.8, got %.4f", s.BodyPercent)
	}
	if s.Price != bars[idx].Close || !s.Time.Equal(bars[idx].Time) {
		t.Errorf("signal should carry the candle close and time, got %+v", s)
	}
}

func TestDetectPriceAction_IndexWithinRange(t *testing.T) {
	for _, lookback := range []int{3, 5, 20, 50} {
		bars := randomWalk(400, int64(lookback))
		signals := DetectPriceAction(bars, params(lookback, 0.5, 0.4))
		if len(signals) == 0 {
			t.Fatalf("lookback %d: expected some signals on a random walk", lookback)
		}
		perBar := map[int]map[model.Direction]int{}
		for _, s := range signals {
			if s.Index < lookback || s.Index >= len(bars) {
				t.Errorf("lookback %d: signal index %d out of range", lookback, s.Index)
			}
			if perBar[s.Index] == nil {
				perBar[s.Index] = map[model.Direction]int{}
			}
			perBar[s.Index][s.Direction]++
			if perBar[s.Index][s.Direction] > 1 {
				t.Errorf("lookback %d: more than one %s signal at %d", lookback, s.Direction, s.Index)
			}
		}
	}
}

func TestDetectPriceAction_MomentumWithoutBreakout(t *testing.T) {
	bars := quietUptrend(60)
	const idx = 40
	// strong green body that stays below the recent high: close[40] > close[37]
	prev := bars[idx-1]
	open := prev.Low - 0.0003
	bars[idx] = model.NewCandle(bars[idx].Time, open, open+0.00047, open-0.00003, open+0.00045, 100)
	if bars[idx].High > bars[idx-1].High {
		t.Fatal("fixture should not break the recent high")
	}
	bars[idx-3] = model.NewCandle(bars[idx-3].Time, open-0.0002, open-0.0001, open-0.0004, open-0.0003, 100)

	signals := DetectPriceAction(bars, params(20, 0.5, 0.9))
	var found bool
	for _, s := range signals {
		if s.Index == idx && s.Direction == model.Long {
			found = true
			if s.Kind != model.SetupMomentum {
				t.Errorf("expected momentum, got %s", s.Kind)
			}
		}
	}
	if !found {
		t.Fatalf("expected a LONG signal at %d, got %+v", idx, signals)
	}
}

func TestDetectPriceAction_Rejection(t *testing.T) {
	bars := quietUptrend(60)
	const idx = 45
	c := bars[idx]
	// long lower wick probing below the recent low, small body
	low := bars[idx-20].Low - 0.0005
	bars[idx] = model.NewCandle(c.Time, c.Open, c.Open+0.00005, low, c.Open+0.00002, 100)

	signals := DetectPriceAction(bars, params(20, 0.5, 0.6))
	var got *model.Signal
	for i := range signals {
		if signals[i].Index == idx && signals[i].Direction == model.Long {
			got = &signals[i]
		}
	}
	if got == nil {
		t.Fatalf("expected LONG rejection at %d, got %+v", idx, signals)
	}
	if got.Kind != model.SetupRejection {
		t.Errorf("expected rejection, got %s", got.Kind)
	}
}

// fadeMomentum rewrites bars[idx-3] as a small candle closing just beyond
// bars[idx] so the three-bar momentum at idx opposes the candle's colour.
func fadeMomentum(bars []model.Candle, idx int) {
	c := bars[idx].Close
	at := bars[idx-3].Time
	if bars[idx].Bullish() {
		bars[idx-3] = model.NewCandle(at, c+0.00006, c+0.00007, c, c+0.00001, 100)
		return
	}
	bars[idx-3] = model.NewCandle(at, c-0.00006, c, c-0.00007, c-0.00001, 100)
}

func TestDetectPriceAction_MomentumBeforeBreakout(t *testing.T) {
	longBar := func(bars []model.Candle, idx int) {
		base := bars[idx].Open
		bars[idx] = model.NewCandle(bars[idx].Time, base, base+0.0009, base-0.0001, base+0.0008, 100)
	}
	shortBar := func(bars []model.Candle, idx int) {
		open := bars[idx].Open
		low := bars[idx-20].Low - 0.0010
		high := open + 0.0001
		bars[idx] = model.NewCandle(bars[idx].Time, open, high, low, low+(high-low)*0.1, 100)
	}
	tests := []struct {
		name  string
		dir   model.Direction
		setup func([]model.Candle, int)
		fade  bool
		want  model.SetupKind
	}{
		{"long momentum and breakout", model.Long, longBar, false, model.SetupMomentum},
		{"long breakout with faded momentum", model.Long, longBar, true, model.SetupBreakout},
		{"short momentum and breakout", model.Short, shortBar, false, model.SetupMomentum},
		{"short breakout with faded momentum", model.Short, shortBar, true, model.SetupBreakout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars := quietUptrend(60)
			const idx = 45
			tt.setup(bars, idx)
			if tt.fade {
				fadeMomentum(bars, idx)
			}
			var got []model.SetupKind
			for _, s := range DetectPriceAction(bars, params(20, 0.5, 0.9)) {
				if s.Index == idx && s.Direction == tt.dir {
					got = append(got, s.Kind)
				}
			}
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("expected one %s %s at %d, got %v", tt.dir, tt.want, idx, got)
			}
		})
	}
}

func TestDetectPriceAction_ZeroRangeIgnored(t *testing.T) {
	bars := quietUptrend(40)
	p := bars[30].Close
	bars[30] = model.NewCandle(bars[30].Time, p, p, p, p, 100)
	for _, s := range DetectPriceAction(bars, params(20, 0.0, 0.0)) {
		if s.Index == 30 {
			t.Fatalf("zero-range candle emitted %+v", s)
		}
	}
}

func TestDetectPriceAction_ShortSeries(t *testing.T) {
	if got := DetectPriceAction(quietUptrend(20), params(20, 0.5, 0.5)); got != nil {
		t.Errorf("expected no signals when series is not longer than lookback, got %d", len(got))
	}
}
