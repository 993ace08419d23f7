package strategy

import (
	"math/rand"
	"time"

	"PipSentinel/internal/model"
)

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func at(i int) time.Time { return t0.Add(time.Duration(i) * 5 * time.Minute) }

// quietUptrend builds n small green candles whose wicks stay under the
// rejection threshold used in these tests.
func quietUptrend(n int) []model.Candle {
	bars := make([]model.Candle, n)
	for i := range bars {
		base := 1.1000 + float64(i)*0.00005
		bars[i] = model.NewCandle(at(i), base, base+0.0001, base-0.0001, base+0.00002, 100)
	}
	return bars
}

func randomWalk(n int, seed int64) []model.Candle {
	r := rand.New(rand.NewSource(seed))
	bars := make([]model.Candle, n)
	price := 1.1
	for i := range bars {
		open := price
		close := open + (r.Float64()-0.5)*0.002
		high := maxF(open, close) + r.Float64()*0.001
		low := minF(open, close) - r.Float64()*0.001
		bars[i] = model.NewCandle(at(i), open, high, low, close, 100)
		price = close
	}
	return bars
}

func params(lookback int, body, wick float64) model.ParameterSet {
	p := model.DefaultParameterSet()
	p.LookbackPeriod = lookback
	p.StrongBodyMin = body
	p.WickMinPercent = wick
	return p
}
