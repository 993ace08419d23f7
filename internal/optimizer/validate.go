package optimizer

import (
	"errors"
	"fmt"

	"PipSentinel/internal/backtest"
	"PipSentinel/internal/model"
	"PipSentinel/internal/strategy"
)

// Validate forward-tests the ranked results on the held-out segment in rank
// order. The first result that completes a test run becomes the champion;
// it passes when the test run is profitable with a profit factor above 1.
func Validate(series *model.PriceSeries, htf *model.HTFContext, results []model.OptimizerResult, opts backtest.Options) model.ValidationReport {
	var report model.ValidationReport
	if len(results) == 0 {
		report.Reason = "no parameter set passed the train filter"
		return report
	}
	opts = opts.WithDefaults()

	var lastErr error
	for _, r := range results {
		ctx := htf
		if ctx == nil && series != nil && len(series.HigherTF) > 0 {
			ctx = strategy.BuildContext(series, strategy.KeyOf(r.Params), opts.Instrument)
		}
		res, err := backtest.Run(series, r.Params, ctx, model.SegmentTest, opts)
		if err != nil {
			lastErr = err
			continue
		}
		report.Best = r
		report.Test = res
		m := res.Metrics
		switch {
		case m.NetProfit <= 0:
			report.Reason = fmt.Sprintf("test net profit %.2f is not positive", m.NetProfit)
		case !m.Profitable():
			report.Reason = fmt.Sprintf("test profit factor %.2f is not above 1", m.ProfitFactor)
		default:
			report.Passed = true
			report.Reason = "profitable on unseen data"
		}
		return report
	}

	report.Best = results[0]
	switch {
	case errors.Is(lastErr, backtest.ErrNoTrades):
		report.Reason = "no ranked parameter set traded on the test segment"
	default:
		report.Reason = fmt.Sprintf("test segment unusable: %v", lastErr)
	}
	return report
}
