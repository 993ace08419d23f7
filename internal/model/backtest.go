package model

import (
	"fmt"
	"time"
)

// StrategyMode selects which detectors feed the simulator.
type StrategyMode string

const (
	ModePriceAction StrategyMode = "price_action"
	ModeICT         StrategyMode = "ict"
	ModeCombined    StrategyMode = "combined"
)

func ParseStrategyMode(s string) (StrategyMode, error) {
	switch StrategyMode(s) {
	case ModePriceAction, ModeICT, ModeCombined:
		return StrategyMode(s), nil
	case "":
		return ModePriceAction, nil
	}
	return "", fmt.Errorf("unknown strategy mode %q", s)
}

// ParameterSet is the full tunable configuration of one backtest.
type ParameterSet struct {
	Mode                StrategyMode `json:"mode" yaml:"mode"`
	StrongBodyMin       float64      `json:"strong_body_min" yaml:"strong_body_min"`
	LookbackPeriod      int          `json:"lookback_period" yaml:"lookback_period"`
	WickMinPercent      float64      `json:"wick_min_percent" yaml:"wick_min_percent"`
	MinConfluence       float64      `json:"min_confluence" yaml:"min_confluence"`
	StopLossPips        float64      `json:"stop_loss_pips" yaml:"stop_loss_pips"`
	RiskRewardRatio     float64      `json:"risk_reward_ratio" yaml:"risk_reward_ratio"`
	TrailingStop        bool         `json:"trailing_stop" yaml:"trailing_stop"`
	TrailingStopPips    float64      `json:"trailing_stop_pips" yaml:"trailing_stop_pips"`
	KillZoneOnly        bool         `json:"kill_zone_only" yaml:"kill_zone_only"`
	MaxTradesPerDay     int          `json:"max_trades_per_day" yaml:"max_trades_per_day"`
	OptimizeFromPercent float64      `json:"optimize_from_percent" yaml:"optimize_from_percent"`
	FVGMinPips          float64      `json:"fvg_min_pips" yaml:"fvg_min_pips"`
}

// DefaultParameterSet mirrors the values the strategy ships with.
func DefaultParameterSet() ParameterSet {
	return ParameterSet{
		Mode:                ModePriceAction,
		StrongBodyMin:       0.6,
		LookbackPeriod:      20,
		WickMinPercent:      0.5,
		MinConfluence:       2.0,
		StopLossPips:        15,
		RiskRewardRatio:     2,
		TrailingStopPips:    10,
		MaxTradesPerDay:     3,
		OptimizeFromPercent: 70,
		FVGMinPips:          5,
	}
}

func (p ParameterSet) String() string {
	return fmt.Sprintf("mode=%s body=%.2f lb=%d wick=%.2f conf=%.1f sl=%.0f rr=%.1f trail=%v/%.0f kz=%v max/day=%d",
		p.Mode, p.StrongBodyMin, p.LookbackPeriod, p.WickMinPercent, p.MinConfluence,
		p.StopLossPips, p.RiskRewardRatio, p.TrailingStop, p.TrailingStopPips, p.KillZoneOnly, p.MaxTradesPerDay)
}

// Segment selects which part of the series a backtest runs on.
type Segment string

const (
	SegmentTrain Segment = "TRAIN"
	SegmentTest  Segment = "TEST"
	SegmentFull  Segment = "FULL"
)

type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
)

type ExitReason string

const (
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
)

// Trade is a completed simulated position.
type Trade struct {
	EntryTime  time.Time
	ExitTime   time.Time
	Direction  Direction
	Setup      SetupKind
	EntryPrice float64
	ExitPrice  float64
	StopLoss   float64 // initial stop
	TakeProfit float64
	Outcome    Outcome
	ExitReason ExitReason
	Pips       float64
	PnL        float64
	Balance    float64 // running balance after this trade
	Confluence float64
	BarsHeld   int
}

// Metrics summarises a trade list.
type Metrics struct {
	TotalTrades    int     `json:"total_trades"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"win_rate"`
	ProfitFactor   float64 `json:"profit_factor"` // 0 when there are no losing trades
	NetProfit      float64 `json:"net_profit"`
	ReturnPct      float64 `json:"return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossLoss      float64 `json:"gross_loss"` // absolute sum of non-positive trades
	InitialBalance float64 `json:"initial_balance"`
	FinalBalance   float64 `json:"final_balance"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	Expectancy     float64 `json:"expectancy"`
}

// ProfitFactorUnbounded reports the case where ProfitFactor holds the 0
// sentinel because nothing was lost, so the true ratio is infinite. A
// break-even exit counts as a loss but leaves GrossLoss at zero.
func (m Metrics) ProfitFactorUnbounded() bool {
	return m.GrossLoss == 0 && m.GrossProfit > 0
}

// Profitable is the ranking filter's profit-factor test.
func (m Metrics) Profitable() bool {
	return m.ProfitFactor > 1.0 || m.ProfitFactorUnbounded()
}

// BacktestResult is the outcome of one ParameterSet on one segment.
type BacktestResult struct {
	Params         ParameterSet
	Segment        Segment
	Start          time.Time
	End            time.Time
	Trades         []Trade
	Metrics        Metrics
	SignalsFound   int
	SignalsExpired int
}

// OptimizerResult is one ranked grid entry.
type OptimizerResult struct {
	Rank    int          `json:"rank"`
	Params  ParameterSet `json:"params"`
	Train   Metrics      `json:"train"`
	GridPos int          `json:"-"`
}

// ValidationReport is the forward test of the optimizer's ranking.
type ValidationReport struct {
	Best      OptimizerResult
	Test      *BacktestResult
	Passed    bool
	Reason    string
	Evaluated int
	Retained  int
	Elapsed   time.Duration
}
