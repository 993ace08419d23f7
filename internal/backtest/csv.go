package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"PipSentinel/internal/model"
)

// WriteTradesCSV writes the trade list to path, one row per trade.
func WriteTradesCSV(trades []model.Trade, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"entry_time", "exit_time", "direction", "setup", "entry", "exit", "stop_loss", "take_profit",
		"outcome", "exit_reason", "pips", "pnl", "balance", "confluence", "bars_held",
	}); err != nil {
		return err
	}
	for _, t := range trades {
		if err := w.Write([]string{
			t.EntryTime.Format(time.RFC3339), t.ExitTime.Format(time.RFC3339),
			string(t.Direction), string(t.Setup),
			formatF(t.EntryPrice), formatF(t.ExitPrice), formatF(t.StopLoss), formatF(t.TakeProfit),
			string(t.Outcome), string(t.ExitReason),
			formatF(t.Pips), formatF(t.PnL), formatF(t.Balance), formatF(t.Confluence),
			strconv.Itoa(t.BarsHeld),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
