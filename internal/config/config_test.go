package config

import (
	"os"
	"path/filepath"
	"testing"

	"PipSentinel/internal/model"
	"PipSentinel/internal/optimizer"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Data.Symbol != "EURUSD" || cfg.Timeframe() != model.TF15m {
		t.Errorf("unexpected data defaults: %+v", cfg.Data)
	}
	if cfg.BaseParams() != model.DefaultParameterSet() {
		t.Errorf("strategy should default to DefaultParameterSet, got %s", cfg.BaseParams())
	}
	if cfg.Optimizer.MinTrades != optimizer.DefaultMinTrades || cfg.Optimizer.TopN != optimizer.DefaultTopN {
		t.Errorf("unexpected optimizer defaults: %+v", cfg.Optimizer)
	}
	if cfg.Grid().Size() != optimizer.DefaultGrid(cfg.BaseParams()).Size() {
		t.Errorf("empty grid section should fall back to the default grid")
	}
	if cfg.Instrument() != model.DefaultInstrument() {
		t.Errorf("unexpected instrument %+v", cfg.Instrument())
	}
	if err := cfg.Validate(); err == nil {
		t.Error("csv source without a path should not validate")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
data:
  source: synthetic
  delimiter: ";"
  timeframe: m5
instrument:
  pip_size: 0.01
  kill_zones:
    - { start_hour: 8, end_hour: 11 }
strategy:
  mode: combined
  max_trades_per_day: 0
  stop_loss_pips: 25
grid:
  stop_loss_pips: [10, 20]
  risk_reward_ratio: [1, 2, 3]
`)
	t.Setenv("OPTIMIZER_WORKERS", "3")
	t.Setenv("CRON_OPTIMIZE", "0 0 6 * * *")
	t.Setenv("DATABASE_URL", "postgres://localhost/pips")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Optimizer.Workers != 3 || cfg.Schedule.OptimizeCron != "0 0 6 * * *" || cfg.Database.PostgresURL == "" {
		t.Errorf("env overrides not applied: %+v %+v", cfg.Optimizer, cfg.Schedule)
	}
	p := cfg.BaseParams()
	if p.Mode != model.ModeCombined || p.MaxTradesPerDay != 0 || p.StopLossPips != 25 {
		t.Errorf("strategy section not applied: %s", p)
	}
	if p.LookbackPeriod != 20 {
		t.Errorf("unset strategy fields should keep defaults, lookback=%d", p.LookbackPeriod)
	}
	g := cfg.Grid()
	if g.Size() != 6 || g.Base.StopLossPips != 25 {
		t.Errorf("grid: size %d base %s", g.Size(), g.Base)
	}
	if cfg.Timeframe() != model.TF5m || cfg.Delimiter() != ';' {
		t.Errorf("timeframe %s delimiter %q", cfg.Timeframe(), cfg.Delimiter())
	}
	opts := cfg.BacktestOptions()
	if opts.Instrument.PipSize != 0.01 || opts.Instrument.PipValue != model.DefaultInstrument().PipValue {
		t.Errorf("instrument %+v", opts.Instrument)
	}
	if len(opts.KillZones) != 1 || opts.KillZones[0].StartHour != 8 || opts.Horizon != 100 {
		t.Errorf("options %+v", opts)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown source", "data: {source: ftp}"},
		{"bad timeframe", "data: {source: synthetic, timeframe: 3m}"},
		{"bad mode", "data: {source: synthetic}\nstrategy: {mode: scalping}"},
		{"zero stop", "data: {source: synthetic}\nstrategy: {stop_loss_pips: 0}"},
		{"inverted kill zone", "data: {source: synthetic}\ninstrument: {kill_zones: [{start_hour: 10, end_hour: 7}]}"},
		{"bad grid mode", "data: {source: synthetic}\ngrid: {modes: [swing]}"},
	}
	for _, tt := range tests {
		cfg, err := Load(writeConfig(t, tt.yaml))
		if err != nil {
			t.Fatalf("%s: load: %v", tt.name, err)
		}
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestLoad_BadWorkers(t *testing.T) {
	t.Setenv("OPTIMIZER_WORKERS", "many")
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected error for non-numeric OPTIMIZER_WORKERS")
	}
}

func TestValidateTelegram(t *testing.T) {
	cfg := &Config{}
	if cfg.ValidateTelegram() == nil {
		t.Error("empty telegram section should fail")
	}
	cfg.Telegram.BotToken, cfg.Telegram.ChatID = "token", "42"
	if err := cfg.ValidateTelegram(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSourceAndOptimizer(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
data:
  source: synthetic
  synthetic_bars: 300
optimizer:
  workers: 2
  top_n: 5
grid:
  stop_loss_pips: [10, 20]
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	col, err := cfg.NewCollector()
	if err != nil {
		t.Fatalf("collector: %v", err)
	}
	if col.Source.Name() != "synthetic" || col.Symbol != "EURUSD" {
		t.Errorf("unexpected collector %+v", col)
	}
	o := cfg.NewOptimizer()
	if o.Workers != 2 || o.TopN != 5 || o.MinTrades != optimizer.DefaultMinTrades || o.Grid.Size() != 2 {
		t.Errorf("unexpected optimizer %+v", o)
	}

	cfg.Data.Source = "ftp"
	if _, err := cfg.NewSource(); err == nil {
		t.Error("expected error for unknown source")
	}
}
