package calculator

import "math"

// Pip arithmetic is rounded to fixed precision so that values like
// (1.1030-1.1000)/0.0001 come out as exactly 30 rather than 30.000000000001.
const (
	pipPrecision   = 1e6 // pips are kept to a millionth of a pip
	pricePrecision = 1e8 // price levels to 1e-8
	moneyPrecision = 1e6
)

// PriceToPips converts a price difference into pips.
func PriceToPips(diff, pipSize float64) float64 {
	if pipSize == 0 {
		return 0
	}
	return math.Round(diff/pipSize*pipPrecision) / pipPrecision
}

// PipsToPrice converts a pip distance into a price difference.
func PipsToPrice(pips, pipSize float64) float64 {
	return RoundPrice(pips * pipSize)
}

// PipsToMoney converts pips into account currency at pipValue per pip.
func PipsToMoney(pips, pipValue float64) float64 {
	return math.Round(pips*pipValue*moneyPrecision) / moneyPrecision
}

// RoundPrice snaps a price level to the fixed price precision.
func RoundPrice(p float64) float64 {
	return math.Round(p*pricePrecision) / pricePrecision
}
