package strategy

import (
	"sort"
	"time"

	"PipSentinel/internal/calculator"
	"PipSentinel/internal/model"
)

// Confluence weights.
const (
	orderBlockWeight = 1.5
	fvgWeight        = 1.0
	biasWeight       = 2.0
	liquidityWeight  = 0.5

	confluenceTolerancePips = 20

	// Retention for the multi-timeframe context.
	htfOrderBlockKeep = 100
	htfFVGKeep        = 50
	htfLiquidityKeep  = 50
	liquidityStrength = 3
	biasPeriod        = 20
)

// ScoreConfluence adds up the higher-timeframe structures that agree with
// sig. Zones are widened by a 20-pip tolerance on both sides. Only
// structures confirmed at or before the signal time are considered, limited
// to the most recent ones per ctx's windows.
func ScoreConfluence(sig model.Signal, ctx *model.HTFContext, inst model.Instrument) float64 {
	if ctx == nil {
		return 0
	}
	tol := calculator.PipsToPrice(confluenceTolerancePips, inst.PipSize)
	price := sig.Price
	score := 0.0

	for _, ob := range visible(ctx.OrderBlocks, sig.Time, ctx.OrderBlockWindow, func(o model.OrderBlock) time.Time { return o.ConfirmedAt }) {
		if ob.Type == sig.Direction && price >= ob.Low-tol && price <= ob.High+tol {
			score += orderBlockWeight
		}
	}
	for _, g := range visible(ctx.FVGs, sig.Time, ctx.FVGWindow, func(g model.FairValueGap) time.Time { return g.ConfirmedAt }) {
		if g.Type == sig.Direction && price >= g.Bottom-tol && price <= g.Top+tol {
			score += fvgWeight
		}
	}
	if bias := ctx.BiasAt(sig.Time); bias != model.Flat && bias == sig.Direction {
		score += biasWeight
	}
	for _, z := range visible(ctx.Liquidity, sig.Time, ctx.LiquidityWindow, func(z model.LiquidityZone) time.Time { return z.ConfirmedAt }) {
		if price >= z.Price-tol && price <= z.Price+tol {
			score += liquidityWeight
		}
	}
	return score
}

// visible returns the trailing window of xs confirmed at or before t. xs
// must be ordered by confirmation time; a zero confirmation time counts as
// always visible.
func visible[T any](xs []T, t time.Time, window int, confirmed func(T) time.Time) []T {
	end := sort.Search(len(xs), func(i int) bool {
		c := confirmed(xs[i])
		return !c.IsZero() && c.After(t)
	})
	return keepLast(xs[:end], window)
}

// ContextKey identifies the parameters BuildContext depends on, so callers
// can share one context between parameter sets that agree on them.
type ContextKey struct {
	Lookback   int
	FVGMinPips float64
}

func KeyOf(p model.ParameterSet) ContextKey {
	return ContextKey{Lookback: p.LookbackPeriod, FVGMinPips: p.FVGMinPips}
}

// BuildContext derives the multi-timeframe context from series.HigherTF:
// 4h order blocks and fair value gaps, 1h liquidity and the daily bias
// timeline. Missing timeframes contribute nothing.
func BuildContext(series *model.PriceSeries, key ContextKey, inst model.Instrument) *model.HTFContext {
	ctx := &model.HTFContext{
		DailyBias:        model.Flat,
		OrderBlockWindow: htfOrderBlockKeep,
		FVGWindow:        htfFVGKeep,
		LiquidityWindow:  htfLiquidityKeep,
	}
	if series == nil || series.HigherTF == nil {
		return ctx
	}

	if h4 := series.HigherTF[model.TF4h]; len(h4) > 0 {
		shift := model.TF4h.Duration()
		for _, ob := range DetectOrderBlocks(h4, key.Lookback, 0) {
			ob.ConfirmedAt = ob.ConfirmedAt.Add(shift)
			ctx.OrderBlocks = append(ctx.OrderBlocks, ob)
		}
		for _, g := range DetectFairValueGaps(h4, key.FVGMinPips, inst, 0) {
			g.ConfirmedAt = g.ConfirmedAt.Add(shift)
			ctx.FVGs = append(ctx.FVGs, g)
		}
	}
	if h1 := series.HigherTF[model.TF1h]; len(h1) > 0 {
		shift := model.TF1h.Duration()
		for _, z := range DetectLiquidityZones(h1, liquidityStrength, 0) {
			z.ConfirmedAt = z.ConfirmedAt.Add(shift)
			ctx.Liquidity = append(ctx.Liquidity, z)
		}
	}
	if d1 := series.HigherTF[model.TF1d]; len(d1) > 0 {
		ctx.BiasTimeline = biasTimeline(d1)
	}
	return ctx
}

// biasTimeline computes the bias known after each daily close.
func biasTimeline(days []model.Candle) []model.BiasPoint {
	out := make([]model.BiasPoint, 0, len(days))
	for k := biasPeriod - 1; k < len(days); k++ {
		out = append(out, model.BiasPoint{
			From: days[k].Time.Add(model.TF1d.Duration()),
			Bias: calculator.TrendBias(days[:k+1], biasPeriod),
		})
	}
	return out
}
