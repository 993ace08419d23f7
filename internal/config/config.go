package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"PipSentinel/internal/backtest"
	"PipSentinel/internal/collector"
	"PipSentinel/internal/model"
	"PipSentinel/internal/optimizer"
)

// Config holds all application configuration.
type Config struct {
	Data struct {
		Source         string  `yaml:"source"` // csv, yahoo or synthetic
		CSVPath        string  `yaml:"csv_path"`
		Delimiter      string  `yaml:"delimiter"`
		Symbol         string  `yaml:"symbol"`
		Timeframe      string  `yaml:"timeframe"`
		SyntheticBars  int     `yaml:"synthetic_bars"`
		SyntheticSeed  int64   `yaml:"synthetic_seed"`
		SyntheticDrift float64 `yaml:"synthetic_drift"`
	} `yaml:"data"`
	Market struct {
		PipSize        float64 `yaml:"pip_size"`
		PipValue       float64 `yaml:"pip_value"`
		InitialBalance float64 `yaml:"initial_balance"`
		HorizonBars    int     `yaml:"horizon_bars"`
		MinBars        int     `yaml:"min_bars"`
		KillZones      []struct {
			StartHour int `yaml:"start_hour"`
			EndHour   int `yaml:"end_hour"`
		} `yaml:"kill_zones"`
	} `yaml:"instrument"`
	Strategy  model.ParameterSet `yaml:"strategy"`
	Search    optimizer.Grid     `yaml:"grid"`
	Optimizer struct {
		Workers   int `yaml:"workers"`
		MinTrades int `yaml:"min_trades"`
		TopN      int `yaml:"top_n"`
	} `yaml:"optimizer"`
	Schedule struct {
		OptimizeCron string `yaml:"optimize_cron"`
		RunOnStart   bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresURL string `yaml:"postgres_url"`
	} `yaml:"database"`
	StateFile string `yaml:"state_file"`
	Proxy     string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{Strategy: model.DefaultParameterSet()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_CSV_PATH"); v != "" {
		cfg.Data.CSVPath = v
		if cfg.Data.Source == "" {
			cfg.Data.Source = "csv"
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.PostgresURL = v
	}
	if v := os.Getenv("CRON_OPTIMIZE"); v != "" {
		cfg.Schedule.OptimizeCron = v
	}
	if v := os.Getenv("OPTIMIZER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("OPTIMIZER_WORKERS: %w", err)
		}
		cfg.Optimizer.Workers = n
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Data.Source == "" {
		cfg.Data.Source = "csv"
	}
	if cfg.Data.Symbol == "" {
		cfg.Data.Symbol = "EURUSD"
	}
	if cfg.Data.Timeframe == "" {
		cfg.Data.Timeframe = string(model.TF15m)
	}
	if cfg.Data.SyntheticBars == 0 {
		cfg.Data.SyntheticBars = 5000
	}
	if cfg.Optimizer.MinTrades == 0 {
		cfg.Optimizer.MinTrades = optimizer.DefaultMinTrades
	}
	if cfg.Optimizer.TopN == 0 {
		cfg.Optimizer.TopN = optimizer.DefaultTopN
	}
	if cfg.Schedule.OptimizeCron == "" {
		cfg.Schedule.OptimizeCron = "0 0 22 * * 5"
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "data/champion.json"
	}
	if cfg.Database.SQLitePath == "" && cfg.Database.PostgresURL == "" {
		cfg.Database.SQLitePath = "data/pip_sentinel.db"
	}

	return cfg, nil
}

// Validate checks the settings every binary depends on.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case "csv":
		if c.Data.CSVPath == "" {
			return fmt.Errorf("data.csv_path is required for the csv source")
		}
	case "yahoo", "synthetic":
	default:
		return fmt.Errorf("data.source %q must be csv, yahoo or synthetic", c.Data.Source)
	}
	if len([]rune(c.Data.Delimiter)) > 1 && !strings.EqualFold(c.Data.Delimiter, "tab") {
		return fmt.Errorf("data.delimiter must be a single character")
	}
	if _, ok := model.ParseTimeframe(c.Data.Timeframe); !ok {
		return fmt.Errorf("data.timeframe %q is not supported", c.Data.Timeframe)
	}
	if c.Market.PipSize < 0 || c.Market.PipValue < 0 {
		return fmt.Errorf("instrument pip_size and pip_value must not be negative")
	}
	for _, z := range c.Market.KillZones {
		if z.StartHour < 0 || z.EndHour > 24 || z.StartHour >= z.EndHour {
			return fmt.Errorf("kill zone [%d,%d) is not a valid UTC hour window", z.StartHour, z.EndHour)
		}
	}
	if err := backtest.ValidateParams(c.Strategy); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	for _, m := range c.Search.Modes {
		if _, err := model.ParseStrategyMode(string(m)); err != nil {
			return fmt.Errorf("grid: %w", err)
		}
	}
	if c.Optimizer.Workers < 0 {
		return fmt.Errorf("optimizer.workers must not be negative")
	}
	return nil
}

// ValidateTelegram checks the settings the daemon needs to notify.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}

// BaseParams is the configured strategy with an empty mode resolved.
func (c *Config) BaseParams() model.ParameterSet {
	p := c.Strategy
	if mode, err := model.ParseStrategyMode(string(p.Mode)); err == nil {
		p.Mode = mode
	}
	return p
}

// Grid is the configured search space over BaseParams. A grid section
// without any list falls back to the default search space.
func (c *Config) Grid() optimizer.Grid {
	g := c.Search
	g.Base = c.BaseParams()
	if g.Size() == 1 {
		return optimizer.DefaultGrid(g.Base)
	}
	return g
}

func (c *Config) Timeframe() model.Timeframe {
	tf, _ := model.ParseTimeframe(c.Data.Timeframe)
	return tf
}

func (c *Config) Instrument() model.Instrument {
	inst := model.DefaultInstrument()
	if c.Market.PipSize > 0 {
		inst.PipSize = c.Market.PipSize
	}
	if c.Market.PipValue > 0 {
		inst.PipValue = c.Market.PipValue
	}
	return inst
}

// BacktestOptions converts the instrument section into runner options.
func (c *Config) BacktestOptions() backtest.Options {
	opts := backtest.Options{
		Instrument:     c.Instrument(),
		Horizon:        c.Market.HorizonBars,
		InitialBalance: c.Market.InitialBalance,
		MinBars:        c.Market.MinBars,
	}
	for _, z := range c.Market.KillZones {
		opts.KillZones = append(opts.KillZones, model.KillZone{StartHour: z.StartHour, EndHour: z.EndHour})
	}
	return opts.WithDefaults()
}

// Delimiter is the CSV field separator; empty means comma.
func (c *Config) Delimiter() rune {
	d := strings.TrimSpace(c.Data.Delimiter)
	if c.Data.Delimiter == "\t" || strings.EqualFold(d, "tab") {
		return '\t'
	}
	if d == "" {
		return ','
	}
	return []rune(d)[0]
}

// NewSource builds the configured candle source.
func (c *Config) NewSource() (collector.Source, error) {
	switch c.Data.Source {
	case "csv":
		return &collector.CSVSource{Path: c.Data.CSVPath, Delimiter: c.Delimiter()}, nil
	case "yahoo":
		return collector.NewYahooSource(c.Data.Symbol, c.Timeframe(), c.Proxy), nil
	case "synthetic":
		return &collector.SyntheticSource{
			Timeframe: c.Timeframe(),
			Count:     c.Data.SyntheticBars,
			Seed:      c.Data.SyntheticSeed,
			Drift:     c.Data.SyntheticDrift,
		}, nil
	}
	return nil, fmt.Errorf("unknown data source %q", c.Data.Source)
}

// NewCollector wraps NewSource with the configured symbol and timeframe.
func (c *Config) NewCollector() (*collector.Collector, error) {
	src, err := c.NewSource()
	if err != nil {
		return nil, err
	}
	return collector.NewCollector(src, c.Data.Symbol, c.Timeframe()), nil
}

// NewOptimizer builds the grid search from the grid and optimizer sections.
func (c *Config) NewOptimizer() *optimizer.Optimizer {
	o := optimizer.New(c.Grid(), c.BacktestOptions())
	o.Workers = c.Optimizer.Workers
	o.MinTrades = c.Optimizer.MinTrades
	o.TopN = c.Optimizer.TopN
	return o
}
