package strategy

import (
	"PipSentinel/internal/calculator"
	"PipSentinel/internal/model"
)

// Tolerance band for the rejection probe of the recent extreme.
const (
	rejectionLowBand  = 1.001
	rejectionHighBand = 0.999
)

// DetectPriceAction scans bars for momentum, breakout and rejection setups.
// Every candle from index LookbackPeriod onwards is examined; each may emit
// at most one Long and one Short signal. Within a direction the first
// matching setup wins, in the order momentum, breakout, rejection. Candles
// with zero range never signal.
func DetectPriceAction(bars []model.Candle, p model.ParameterSet) []model.Signal {
	lookback := p.LookbackPeriod
	if lookback <= 0 || len(bars) <= lookback {
		return nil
	}

	var signals []model.Signal
	for i := lookback; i < len(bars); i++ {
		c := bars[i]
		rng := c.Range()
		if rng <= 0 {
			continue
		}
		bodyPct := c.Body() / rng
		recentHigh, recentLow, ok := calculator.RecentRange(bars, i, lookback)
		if !ok {
			continue
		}
		mom := calculator.Momentum(bars, i)
		strong := bodyPct >= p.StrongBodyMin

		if kind, ok := longSetup(c, strong, mom, recentHigh, recentLow, rng, p.WickMinPercent); ok {
			signals = append(signals, newSignal(i, c, model.Long, kind, bodyPct))
		}
		if kind, ok := shortSetup(c, strong, mom, recentHigh, recentLow, rng, p.WickMinPercent); ok {
			signals = append(signals, newSignal(i, c, model.Short, kind, bodyPct))
		}
	}
	return signals
}

func longSetup(c model.Candle, strong bool, mom, recentHigh, recentLow, rng, wickMin float64) (model.SetupKind, bool) {
	green := c.Bullish()
	switch {
	case green && strong && mom > 0:
		return model.SetupMomentum, true
	case green && strong && c.High > recentHigh:
		return model.SetupBreakout, true
	}
	lowerWick := (minF(c.Open, c.Close) - c.Low) / rng
	if lowerWick > wickMin && c.Low <= recentLow*rejectionLowBand {
		return model.SetupRejection, true
	}
	return "", false
}

func shortSetup(c model.Candle, strong bool, mom, recentHigh, recentLow, rng, wickMin float64) (model.SetupKind, bool) {
	red := c.Bearish()
	switch {
	case red && strong && mom < 0:
		return model.SetupMomentum, true
	case red && strong && c.Low < recentLow:
		return model.SetupBreakout, true
	}
	upperWick := (c.High - maxF(c.Open, c.Close)) / rng
	if upperWick > wickMin && c.High >= recentHigh*rejectionHighBand {
		return model.SetupRejection, true
	}
	return "", false
}

func newSignal(i int, c model.Candle, dir model.Direction, kind model.SetupKind, bodyPct float64) model.Signal {
	return model.Signal{
		Index:       i,
		Direction:   dir,
		Kind:        kind,
		Price:       c.Close,
		Time:        c.Time,
		BodyPercent: bodyPct,
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
