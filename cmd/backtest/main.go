package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"PipSentinel/internal/backtest"
	"PipSentinel/internal/config"
	"PipSentinel/internal/model"
	"PipSentinel/internal/notifier"
	"PipSentinel/internal/optimizer"
	"PipSentinel/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := flag.String("config", "configs/config.yaml", "path to the YAML config")
	csvPath := flag.String("csv", "", "candle CSV, overrides data.csv_path")
	mode := flag.String("mode", "", "strategy mode: price_action, ict or combined")
	single := flag.Bool("single", false, "backtest the configured strategy instead of searching the grid")
	tradesOut := flag.String("trades-out", "", "write the test-segment trades to this CSV")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if *csvPath != "" {
		cfg.Data.Source = "csv"
		cfg.Data.CSVPath = *csvPath
	}
	if *mode != "" {
		m, err := model.ParseStrategyMode(*mode)
		if err != nil {
			log.Fatalf("[FATAL] %v", err)
		}
		cfg.Strategy.Mode = m
		cfg.Search.Modes = nil
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	col, err := cfg.NewCollector()
	if err != nil {
		log.Fatalf("[FATAL] init collector: %v", err)
	}
	series, err := col.Collect(ctx)
	if err != nil {
		log.Fatalf("[FATAL] collect: %v", err)
	}

	var trades []model.Trade
	if *single {
		trades = runSingle(cfg, series)
	} else {
		trades = runSearch(ctx, cfg, series)
	}

	if *tradesOut != "" && len(trades) > 0 {
		if err := backtest.WriteTradesCSV(trades, *tradesOut); err != nil {
			log.Fatalf("[FATAL] write trades: %v", err)
		}
		log.Printf("[INFO] wrote %d trades to %s", len(trades), *tradesOut)
	}
}

func runSingle(cfg *config.Config, series *model.PriceSeries) []model.Trade {
	p := cfg.BaseParams()
	opts := cfg.BacktestOptions()
	htf := strategy.BuildContext(series, strategy.KeyOf(p), opts.Instrument)

	var test []model.Trade
	for _, seg := range []model.Segment{model.SegmentTrain, model.SegmentTest} {
		res, err := backtest.Run(series, p, htf, seg, opts)
		switch {
		case errors.Is(err, backtest.ErrNoTrades):
			fmt.Printf("%s: no trades\n\n", seg)
			continue
		case err != nil:
			log.Fatalf("[FATAL] %s backtest: %v", seg, err)
		}
		fmt.Printf("%s %s → %s, %d signals, %d expired\n", seg,
			res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"), res.SignalsFound, res.SignalsExpired)
		fmt.Println(plain(notifier.FormatMetrics(res.Metrics)))
		if seg == model.SegmentTest {
			test = res.Trades
			fmt.Println(plain(notifier.FormatTrades(res.Trades, 20)))
		}
	}
	return test
}

func runSearch(ctx context.Context, cfg *config.Config, series *model.PriceSeries) []model.Trade {
	opt := cfg.NewOptimizer()
	opt.Progress = progressPrinter(opt.Grid.Size())

	search, err := opt.Run(ctx, series, nil)
	if err != nil && search == nil {
		log.Fatalf("[FATAL] optimize: %v", err)
	}
	if err != nil {
		log.Printf("[WARN] search interrupted, ranking partial results: %v", err)
	}

	report := optimizer.Validate(series, nil, search.Results, opt.Options)
	report.Evaluated = search.Evaluated
	report.Retained = search.Retained
	report.Elapsed = search.Elapsed

	fmt.Println(plain(notifier.FormatOptimizationReport(series.Symbol, search.Results, report, 20)))
	fmt.Println(plain(notifier.FormatValidationReport(report)))
	if report.Test == nil {
		return nil
	}
	return report.Test.Trades
}

// progressPrinter logs roughly every tenth of the grid.
func progressPrinter(total int) func(done, total int) {
	step := total / 10
	if step == 0 {
		step = 1
	}
	return func(done, total int) {
		if done%step == 0 || done == total {
			log.Printf("[INFO] %d/%d combinations", done, total)
		}
	}
}

var tagStripper = strings.NewReplacer("<b>", "", "</b>", "", "<code>", "", "</code>", "", "&lt;", "<", "&gt;", ">", "&amp;", "&", "&#34;", "\"", "&#39;", "'")

// plain strips the Telegram HTML markup for terminal output.
func plain(s string) string { return tagStripper.Replace(s) }
