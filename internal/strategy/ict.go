package strategy

import (
	"math"

	"PipSentinel/internal/calculator"
	"PipSentinel/internal/model"
)

const (
	// A move must exceed this multiple of the average move to mark an order block.
	orderBlockImpulse = 1.5
	// Gaps wider than this many price units are treated as bad data.
	fvgCeiling = 0.01

	// Retention used by the single-timeframe detector.
	orderBlockKeep = 50
	fvgKeep        = 30
)

// DetectOrderBlocks marks bars[i] as an order block when the move from
// close[i] to close[i+1] exceeds 1.5x the average absolute move over the
// prior lookback bars. The block is typed by the direction of that move.
// Only the most recent keep blocks are returned; keep <= 0 returns all.
func DetectOrderBlocks(bars []model.Candle, lookback, keep int) []model.OrderBlock {
	if lookback <= 0 || len(bars) < lookback+2 {
		return nil
	}
	var out []model.OrderBlock
	for i := lookback; i <= len(bars)-2; i++ {
		avg := calculator.AvgAbsMove(bars, i, lookback)
		move := bars[i+1].Close - bars[i].Close
		if avg <= 0 || math.Abs(move) <= orderBlockImpulse*avg {
			continue
		}
		typ := model.Long
		if move < 0 {
			typ = model.Short
		}
		out = append(out, model.OrderBlock{
			Index:       i,
			Type:        typ,
			High:        bars[i].High,
			Low:         bars[i].Low,
			Time:        bars[i].Time,
			ConfirmedAt: bars[i+1].Time,
		})
	}
	return keepLast(out, keep)
}

// DetectFairValueGaps finds three-candle imbalances around each interior
// bar. A bullish gap is low[i+1]-high[i-1], a bearish gap low[i-1]-high[i+1];
// either must exceed minPips and stay under the sanity ceiling.
func DetectFairValueGaps(bars []model.Candle, minPips float64, inst model.Instrument, keep int) []model.FairValueGap {
	if len(bars) < 3 {
		return nil
	}
	minGap := calculator.PipsToPrice(minPips, inst.PipSize)
	var out []model.FairValueGap
	for i := 1; i < len(bars)-1; i++ {
		prev, next := bars[i-1], bars[i+1]
		if gap := next.Low - prev.High; gap > minGap && gap < fvgCeiling {
			out = append(out, model.FairValueGap{
				Index: i, Type: model.Long,
				Top: next.Low, Bottom: prev.High,
				Time: bars[i].Time, ConfirmedAt: next.Time,
			})
		}
		if gap := prev.Low - next.High; gap > minGap && gap < fvgCeiling {
			out = append(out, model.FairValueGap{
				Index: i, Type: model.Short,
				Top: prev.Low, Bottom: next.High,
				Time: bars[i].Time, ConfirmedAt: next.Time,
			})
		}
	}
	return keepLast(out, keep)
}

// DetectLiquidityZones returns swing highs and lows with strength bars on
// each side. Ties do not count as swings.
func DetectLiquidityZones(bars []model.Candle, strength, keep int) []model.LiquidityZone {
	if strength <= 0 || len(bars) < 2*strength+1 {
		return nil
	}
	var out []model.LiquidityZone
	for i := strength; i < len(bars)-strength; i++ {
		isHigh, isLow := true, true
		for j := i - strength; j <= i+strength && (isHigh || isLow); j++ {
			if j == i {
				continue
			}
			if bars[j].High >= bars[i].High {
				isHigh = false
			}
			if bars[j].Low <= bars[i].Low {
				isLow = false
			}
		}
		confirmed := bars[i+strength].Time
		if isHigh {
			out = append(out, model.LiquidityZone{Index: i, Price: bars[i].High, Side: model.Short, Time: bars[i].Time, ConfirmedAt: confirmed})
		}
		if isLow {
			out = append(out, model.LiquidityZone{Index: i, Price: bars[i].Low, Side: model.Long, Time: bars[i].Time, ConfirmedAt: confirmed})
		}
	}
	return keepLast(out, keep)
}

// DetectICT emits retest signals against order blocks and fair value gaps
// found on the same bars. A zone is usable from the bar after the one that
// confirmed it, and only the most recent 50 blocks / 30 gaps are in play at
// any bar. An order-block retest takes precedence over a gap fill.
func DetectICT(bars []model.Candle, p model.ParameterSet, inst model.Instrument) []model.Signal {
	lookback := p.LookbackPeriod
	if lookback <= 0 || len(bars) <= lookback {
		return nil
	}
	obs := DetectOrderBlocks(bars, lookback, 0)
	fvgs := DetectFairValueGaps(bars, p.FVGMinPips, inst, 0)

	var signals []model.Signal
	obEnd, fvgEnd := 0, 0
	for i := lookback; i < len(bars); i++ {
		// zones confirmed by bar k are usable from k+1; block at j is confirmed by j+1
		for obEnd < len(obs) && obs[obEnd].Index+1 < i {
			obEnd++
		}
		for fvgEnd < len(fvgs) && fvgs[fvgEnd].Index+1 < i {
			fvgEnd++
		}
		c := bars[i]
		rng := c.Range()
		if rng <= 0 {
			continue
		}
		bodyPct := c.Body() / rng
		activeOBs := keepLast(obs[:obEnd], orderBlockKeep)
		activeFVGs := keepLast(fvgs[:fvgEnd], fvgKeep)

		if c.Bullish() {
			if kind, ok := retest(c, model.Long, activeOBs, activeFVGs); ok {
				signals = append(signals, newSignal(i, c, model.Long, kind, bodyPct))
			}
		}
		if c.Bearish() {
			if kind, ok := retest(c, model.Short, activeOBs, activeFVGs); ok {
				signals = append(signals, newSignal(i, c, model.Short, kind, bodyPct))
			}
		}
	}
	return signals
}

func retest(c model.Candle, dir model.Direction, obs []model.OrderBlock, fvgs []model.FairValueGap) (model.SetupKind, bool) {
	for k := len(obs) - 1; k >= 0; k-- {
		ob := obs[k]
		if ob.Type == dir && touches(c, dir, ob.Low, ob.High) {
			return model.SetupOrderBlockRetest, true
		}
	}
	for k := len(fvgs) - 1; k >= 0; k-- {
		g := fvgs[k]
		if g.Type == dir && touches(c, dir, g.Bottom, g.Top) {
			return model.SetupFVGFill, true
		}
	}
	return "", false
}

// touches reports whether c dipped into [bottom, top] and closed back out
// on the side of dir.
func touches(c model.Candle, dir model.Direction, bottom, top float64) bool {
	if dir == model.Long {
		return c.Low <= top && c.Close > bottom
	}
	return c.High >= bottom && c.Close < top
}

func keepLast[T any](xs []T, n int) []T {
	if n <= 0 || len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}
