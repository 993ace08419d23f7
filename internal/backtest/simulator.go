package backtest

import (
	"PipSentinel/internal/calculator"
	"PipSentinel/internal/model"
)

// Simulate walks the bars after sig and applies the exit rules:
//
//  1. with a trailing stop, move the stop toward the close if that tightens it
//  2. stop hit (low <= stop long, high >= stop short) closes at the stop
//  3. target hit (high >= target long, low <= target short) closes at the target
//
// The stop is checked before the target, so a bar touching both counts as
// a stop-out. It returns ok=false when neither level is reached within
// opts.Horizon bars or before the data ends.
func Simulate(bars []model.Candle, sig model.Signal, p model.ParameterSet, opts Options) (model.Trade, bool) {
	return simulate(bars, sig, p, opts.WithDefaults(), nil)
}

func simulate(bars []model.Candle, sig model.Signal, p model.ParameterSet, opts Options, onBar func(j int, stop float64)) (model.Trade, bool) {
	pip := opts.Instrument.PipSize
	sign := sig.Direction.Sign()
	if sign == 0 || sig.Index < 0 || sig.Index >= len(bars) {
		return model.Trade{}, false
	}
	long := sign > 0

	entry := sig.Price
	stop := calculator.RoundPrice(entry - sign*calculator.PipsToPrice(p.StopLossPips, pip))
	target := calculator.RoundPrice(entry + sign*calculator.PipsToPrice(p.StopLossPips*p.RiskRewardRatio, pip))
	initialStop := stop
	trail := 0.0
	if p.TrailingStop {
		trail = calculator.PipsToPrice(p.TrailingStopPips, pip)
	}

	last := sig.Index + opts.Horizon
	if last > len(bars)-1 {
		last = len(bars) - 1
	}
	for j := sig.Index + 1; j <= last; j++ {
		b := bars[j]
		if trail > 0 {
			candidate := calculator.RoundPrice(b.Close - sign*trail)
			if (long && candidate > stop) || (!long && candidate < stop) {
				stop = candidate
			}
		}
		if onBar != nil {
			onBar(j, stop)
		}

		var exit float64
		var reason model.ExitReason
		switch {
		case long && b.Low <= stop, !long && b.High >= stop:
			exit, reason = stop, model.ExitStopLoss
		case long && b.High >= target, !long && b.Low <= target:
			exit, reason = target, model.ExitTakeProfit
		default:
			continue
		}

		pips := calculator.PriceToPips(sign*(exit-entry), pip)
		pnl := calculator.PipsToMoney(pips, opts.Instrument.PipValue)
		outcome := model.OutcomeLoss
		if pnl > 0 {
			outcome = model.OutcomeWin
		}
		return model.Trade{
			EntryTime:  sig.Time,
			ExitTime:   b.Time,
			Direction:  sig.Direction,
			Setup:      sig.Kind,
			EntryPrice: entry,
			ExitPrice:  exit,
			StopLoss:   initialStop,
			TakeProfit: target,
			Outcome:    outcome,
			ExitReason: reason,
			Pips:       pips,
			PnL:        pnl,
			Confluence: sig.Confluence,
			BarsHeld:   j - sig.Index,
		}, true
	}
	return model.Trade{}, false
}
