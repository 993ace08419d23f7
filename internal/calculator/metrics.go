package calculator

import (
	"math"

	"PipSentinel/internal/model"
)

// CalculateMetrics rolls a trade list up into Metrics.
//
// ProfitFactor is 0 when the gross loss is zero; use
// Metrics.ProfitFactorUnbounded to tell that apart from a real zero.
// Max drawdown is sampled after every trade against the running peak
// balance, starting from initialBalance.
func CalculateMetrics(trades []model.Trade, initialBalance float64) model.Metrics {
	m := model.Metrics{
		TotalTrades:    len(trades),
		InitialBalance: initialBalance,
		FinalBalance:   initialBalance,
	}
	if len(trades) == 0 {
		return m
	}

	var winSum, lossSum float64
	balance := initialBalance
	peak := initialBalance
	for _, t := range trades {
		if t.PnL > 0 {
			m.Wins++
			winSum += t.PnL
		} else {
			m.Losses++
			lossSum += t.PnL
		}
		balance += t.PnL
		if balance > peak {
			peak = balance
		}
		if peak > 0 {
			if dd := (peak - balance) / peak * 100; dd > m.MaxDrawdownPct {
				m.MaxDrawdownPct = dd
			}
		}
	}

	n := float64(len(trades))
	m.FinalBalance = balance
	m.NetProfit = balance - initialBalance
	if initialBalance > 0 {
		m.ReturnPct = m.NetProfit / initialBalance * 100
	}
	m.WinRate = float64(m.Wins) / n * 100
	m.GrossProfit = winSum
	m.GrossLoss = math.Abs(lossSum)
	if lossSum != 0 {
		m.ProfitFactor = winSum / math.Abs(lossSum)
	}
	if m.Wins > 0 {
		m.AvgWin = winSum / float64(m.Wins)
	}
	if m.Losses > 0 {
		m.AvgLoss = math.Abs(lossSum) / float64(m.Losses)
	}
	winFrac := float64(m.Wins) / n
	lossFrac := float64(m.Losses) / n
	m.Expectancy = winFrac*m.AvgWin - lossFrac*m.AvgLoss
	return m
}
