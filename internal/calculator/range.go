package calculator

import (
	"math"

	"PipSentinel/internal/model"
)

// RecentRange returns the highest high and lowest low of the lookback bars
// strictly before index i. It returns ok=false when fewer than lookback
// bars precede i.
func RecentRange(bars []model.Candle, i, lookback int) (high, low float64, ok bool) {
	if lookback <= 0 || i < lookback || i > len(bars) {
		return 0, 0, false
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for j := i - lookback; j < i; j++ {
		if bars[j].High > high {
			high = bars[j].High
		}
		if bars[j].Low < low {
			low = bars[j].Low
		}
	}
	return high, low, true
}

// Momentum is close[i] - close[i-3], or 0 when i < 3.
func Momentum(bars []model.Candle, i int) float64 {
	if i < 3 || i >= len(bars) {
		return 0
	}
	return bars[i].Close - bars[i-3].Close
}

// AvgAbsMove is the mean absolute close-to-close move over the lookback
// moves ending at index i.
func AvgAbsMove(bars []model.Candle, i, lookback int) float64 {
	if lookback <= 0 || i < lookback || i >= len(bars) {
		return 0
	}
	sum := 0.0
	for j := i - lookback + 1; j <= i; j++ {
		sum += math.Abs(bars[j].Close - bars[j-1].Close)
	}
	return sum / float64(lookback)
}
