package backtest

import (
	"errors"
	"fmt"
	"math"

	"PipSentinel/internal/calculator"
	"PipSentinel/internal/model"
	"PipSentinel/internal/strategy"
)

var (
	// ErrInsufficientData means the series is too short to evaluate.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrNoTrades means the run completed without a single resolved trade.
	ErrNoTrades = errors.New("no completed trades")
	// ErrInvalidParams wraps parameter sets the runner cannot evaluate.
	ErrInvalidParams = errors.New("invalid parameters")
)

// SplitIndex is floor(n * pct / 100), clamped to [0, n].
func SplitIndex(n int, pct float64) int {
	idx := int(math.Floor(float64(n) * pct / 100))
	if idx < 0 {
		return 0
	}
	if idx > n {
		return n
	}
	return idx
}

// Bounds returns the [start, end) bar range of seg.
func Bounds(n int, pct float64, seg model.Segment) (start, end int) {
	split := SplitIndex(n, pct)
	switch seg {
	case model.SegmentTrain:
		return 0, split
	case model.SegmentTest:
		return split, n
	}
	return 0, n
}

// ValidateParams rejects parameter sets the detectors or simulator cannot use.
func ValidateParams(p model.ParameterSet) error {
	switch {
	case p.LookbackPeriod <= 0:
		return fmt.Errorf("%w: lookback_period must be positive", ErrInvalidParams)
	case p.StopLossPips <= 0:
		return fmt.Errorf("%w: stop_loss_pips must be positive", ErrInvalidParams)
	case p.RiskRewardRatio <= 0:
		return fmt.Errorf("%w: risk_reward_ratio must be positive", ErrInvalidParams)
	case p.OptimizeFromPercent < 0 || p.OptimizeFromPercent > 100:
		return fmt.Errorf("%w: optimize_from_percent must be within [0,100]", ErrInvalidParams)
	case p.TrailingStop && p.TrailingStopPips <= 0:
		return fmt.Errorf("%w: trailing_stop_pips must be positive when trailing", ErrInvalidParams)
	}
	if _, err := model.ParseStrategyMode(string(p.Mode)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

// Run evaluates p on one segment of series. htf supplies the
// higher-timeframe structure for confluence scoring; nil runs price
// action alone. Run has no side effects and is safe to call concurrently
// on a shared series and context.
//
// It returns ErrInsufficientData when the series holds fewer than
// opts.MinBars candles or the segment is not longer than the lookback, and
// ErrNoTrades when no signal resolved into a trade.
func Run(series *model.PriceSeries, p model.ParameterSet, htf *model.HTFContext, seg model.Segment, opts Options) (*model.BacktestResult, error) {
	opts = opts.WithDefaults()
	if err := ValidateParams(p); err != nil {
		return nil, err
	}
	if series == nil || len(series.Bars) < opts.MinBars {
		return nil, ErrInsufficientData
	}
	start, end := Bounds(len(series.Bars), p.OptimizeFromPercent, seg)
	bars := series.Bars[start:end]
	if len(bars) <= p.LookbackPeriod {
		return nil, ErrInsufficientData
	}

	signals := strategy.Evaluate(bars, p, htf, opts.Instrument)

	res := &model.BacktestResult{
		Params:       p,
		Segment:      seg,
		Start:        bars[0].Time,
		End:          bars[len(bars)-1].Time,
		SignalsFound: len(signals),
	}

	balance := opts.InitialBalance
	day := ""
	today := 0
	for _, sig := range signals {
		if p.KillZoneOnly && !model.InKillZone(sig.Time, opts.KillZones) {
			continue
		}
		if d := bars[sig.Index].Date; d != day {
			day = d
			today = 0
		}
		if p.MaxTradesPerDay > 0 && today >= p.MaxTradesPerDay {
			continue
		}
		tr, ok := simulate(bars, sig, p, opts, nil)
		if !ok {
			res.SignalsExpired++
			continue
		}
		today++
		balance += tr.PnL
		tr.Balance = balance
		res.Trades = append(res.Trades, tr)
	}

	if len(res.Trades) == 0 {
		return nil, ErrNoTrades
	}
	res.Metrics = calculator.CalculateMetrics(res.Trades, opts.InitialBalance)
	return res, nil
}
