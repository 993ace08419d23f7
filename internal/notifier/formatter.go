package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"PipSentinel/internal/model"
)

// FormatProfitFactor renders the no-loss sentinel as infinity.
func FormatProfitFactor(m model.Metrics) string {
	if m.ProfitFactorUnbounded() {
		return "∞"
	}
	return fmt.Sprintf("%.2f", m.ProfitFactor)
}

// FormatMetrics is the one-block metrics summary shared by every report.
func FormatMetrics(m model.Metrics) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  Trades: %d (%dW / %dL) | Win rate: %.1f%%\n", m.TotalTrades, m.Wins, m.Losses, m.WinRate))
	b.WriteString(fmt.Sprintf("  Net: %+.2f (%+.2f%%) | PF: %s\n", m.NetProfit, m.ReturnPct, FormatProfitFactor(m)))
	b.WriteString(fmt.Sprintf("  Max DD: %.2f%% | Expectancy: %+.3f\n", m.MaxDrawdownPct, m.Expectancy))
	return b.String()
}

func formatParams(p model.ParameterSet) string {
	trail := "off"
	if p.TrailingStop {
		trail = fmt.Sprintf("%.0fp", p.TrailingStopPips)
	}
	kz := ""
	if p.KillZoneOnly {
		kz = " | KZ"
	}
	return fmt.Sprintf("%s body≥%.2f lb=%d wick>%.2f conf≥%.1f | SL %.0fp RR %.1f trail %s | max/day %d%s",
		p.Mode, p.StrongBodyMin, p.LookbackPeriod, p.WickMinPercent, p.MinConfluence,
		p.StopLossPips, p.RiskRewardRatio, trail, p.MaxTradesPerDay, kz)
}

// FormatOptimizationReport lists the best ranked train results of a run.
func FormatOptimizationReport(symbol string, results []model.OptimizerResult, report model.ValidationReport, top int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>PipSentinel optimisation</b> | %s | %s\n\n",
		html.EscapeString(symbol), time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Evaluated %d combinations in %s, %d passed the filter\n\n",
		report.Evaluated, report.Elapsed.Round(time.Second), report.Retained))

	if len(results) == 0 {
		b.WriteString("No parameter set reached 10 trades with a profit factor above 1.\n")
		return b.String()
	}
	if top <= 0 || top > len(results) {
		top = len(results)
	}
	b.WriteString("🏆 <b>Top results (train):</b>\n")
	for _, r := range results[:top] {
		m := r.Train
		b.WriteString(fmt.Sprintf("%2d. %+.2f%% | PF %s | WR %.1f%% | %d trades | DD %.1f%%\n",
			r.Rank, m.ReturnPct, FormatProfitFactor(m), m.WinRate, m.TotalTrades, m.MaxDrawdownPct))
		b.WriteString(fmt.Sprintf("    <code>%s</code>\n", html.EscapeString(formatParams(r.Params))))
	}
	return b.String()
}

// FormatValidationReport shows the forward test of the champion candidate.
func FormatValidationReport(report model.ValidationReport) string {
	var b strings.Builder
	verdict := "❌ <b>Validation failed</b>"
	if report.Passed {
		verdict = "✅ <b>Validation passed</b>"
	}
	b.WriteString(verdict + "\n")
	b.WriteString(fmt.Sprintf("%s\n\n", html.EscapeString(report.Reason)))

	if report.Test == nil {
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Candidate #%d: <code>%s</code>\n\n", report.Best.Rank, html.EscapeString(formatParams(report.Best.Params))))
	b.WriteString("📘 <b>Train</b>\n")
	b.WriteString(FormatMetrics(report.Best.Train))
	b.WriteString(fmt.Sprintf("\n📗 <b>Test</b> (%s → %s)\n",
		report.Test.Start.Format("2006-01-02"), report.Test.End.Format("2006-01-02")))
	b.WriteString(FormatMetrics(report.Test.Metrics))
	if report.Test.SignalsExpired > 0 {
		b.WriteString(fmt.Sprintf("  Expired signals: %d of %d\n", report.Test.SignalsExpired, report.Test.SignalsFound))
	}
	return b.String()
}

// FormatTrades lists the last limit trades, newest last.
func FormatTrades(trades []model.Trade, limit int) string {
	if len(trades) == 0 {
		return "No trades.\n"
	}
	start := 0
	if limit > 0 && len(trades) > limit {
		start = len(trades) - limit
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Trades</b> (%d of %d)\n", len(trades)-start, len(trades)))
	for _, t := range trades[start:] {
		icon := "🟢"
		if t.Outcome == model.OutcomeLoss {
			icon = "🔴"
		}
		b.WriteString(fmt.Sprintf("%s %s %-5s %-9s %.5f → %.5f %+.1fp %+.2f\n",
			icon, t.EntryTime.Format("01-02 15:04"), t.Direction, t.Setup,
			t.EntryPrice, t.ExitPrice, t.Pips, t.PnL))
	}
	return b.String()
}

// FormatChampion formats the persisted champion state for display.
func FormatChampion(state model.ChampionState) string {
	var b strings.Builder
	b.WriteString("👑 <b>Current champion</b>\n\n")
	if state.Params == nil {
		b.WriteString("None promoted yet.\n")
	} else {
		b.WriteString(fmt.Sprintf("<code>%s</code>\n", html.EscapeString(formatParams(*state.Params))))
		b.WriteString(fmt.Sprintf("Promoted: %s\n\n", state.PromotedAt.Format("2006-01-02 15:04")))
		b.WriteString("📘 <b>Train</b>\n")
		b.WriteString(FormatMetrics(state.Train))
		b.WriteString("📗 <b>Test</b>\n")
		b.WriteString(FormatMetrics(state.Test))
	}
	if n := len(state.Attempts); n > 0 {
		last := state.Attempts[n-1]
		b.WriteString(fmt.Sprintf("\nLast validation %s: passed=%v (%s)\n",
			last.At.Format("2006-01-02 15:04"), last.Passed, html.EscapeString(last.Reason)))
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "🤖 <b>PipSentinel commands</b>\n\n" +
		"/optimize - run the grid search and validation now\n" +
		"/champion - show the promoted parameter set\n" +
		"/help - show this message\n"
}
