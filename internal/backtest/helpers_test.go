package backtest

import (
	"math/rand"
	"time"

	"PipSentinel/internal/model"
)

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func at(i int) time.Time { return t0.Add(time.Duration(i) * 15 * time.Minute) }

func candle(i int, o, h, l, c float64) model.Candle {
	return model.NewCandle(at(i), o, h, l, c, 100)
}

func randomSeries(n int, seed int64) *model.PriceSeries {
	r := rand.New(rand.NewSource(seed))
	bars := make([]model.Candle, n)
	price := 1.1
	for i := range bars {
		open := price
		close := open + (r.Float64()-0.5)*0.0020
		high := max(open, close) + r.Float64()*0.0010
		low := min(open, close) - r.Float64()*0.0010
		bars[i] = candle(i, open, high, low, close)
		price = close
	}
	return &model.PriceSeries{Symbol: "EURUSD", Timeframe: model.TF15m, Bars: bars}
}

func baseParams() model.ParameterSet {
	p := model.DefaultParameterSet()
	p.StrongBodyMin = 0.5
	p.WickMinPercent = 0.4
	p.LookbackPeriod = 20
	p.StopLossPips = 10
	p.RiskRewardRatio = 1.5
	p.MaxTradesPerDay = 0
	return p
}
