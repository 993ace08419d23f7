package calculator

import (
	"errors"

	"PipSentinel/internal/model"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// TrendBias compares the last close with its SMA over period bars. It
// returns Flat when there is not enough data or the close sits on the mean.
func TrendBias(bars []model.Candle, period int) model.Direction {
	closes := extractCloses(bars)
	ma, err := CalculateSMA(closes, period)
	if err != nil {
		return model.Flat
	}
	last := closes[len(closes)-1]
	switch {
	case last > ma:
		return model.Long
	case last < ma:
		return model.Short
	}
	return model.Flat
}

func extractCloses(bars []model.Candle) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
