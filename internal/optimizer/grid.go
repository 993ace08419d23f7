package optimizer

import (
	"PipSentinel/internal/model"
)

// Grid lists the candidate values of each searched parameter. An empty list
// leaves the field at its Base value.
type Grid struct {
	Base model.ParameterSet `yaml:"-"`

	Modes            []model.StrategyMode `yaml:"modes"`
	StrongBodyMin    []float64            `yaml:"strong_body_min"`
	LookbackPeriod   []int                `yaml:"lookback_period"`
	WickMinPercent   []float64            `yaml:"wick_min_percent"`
	MinConfluence    []float64            `yaml:"min_confluence"`
	StopLossPips     []float64            `yaml:"stop_loss_pips"`
	RiskRewardRatio  []float64            `yaml:"risk_reward_ratio"`
	TrailingStop     []bool               `yaml:"trailing_stop"`
	TrailingStopPips []float64            `yaml:"trailing_stop_pips"`
	KillZoneOnly     []bool               `yaml:"kill_zone_only"`
	MaxTradesPerDay  []int                `yaml:"max_trades_per_day"`
}

// DefaultGrid is the stock search space around base.
func DefaultGrid(base model.ParameterSet) Grid {
	return Grid{
		Base:             base,
		StrongBodyMin:    []float64{0.5, 0.6, 0.7, 0.8},
		LookbackPeriod:   []int{10, 20, 30},
		WickMinPercent:   []float64{0.4, 0.5, 0.6},
		StopLossPips:     []float64{10, 15, 20, 25},
		RiskRewardRatio:  []float64{1.5, 2, 2.5, 3},
		MinConfluence:    []float64{1, 2, 3},
		MaxTradesPerDay:  []int{1, 2, 3},
		TrailingStop:     []bool{false, true},
		TrailingStopPips: []float64{8, 10, 15},
	}
}

// axis applies the value at position k of one list to a parameter set.
// An axis is idle for a set that ignores its field; only its first value
// is enumerated then.
type axis struct {
	n    int
	set  func(p *model.ParameterSet, k int)
	idle func(p model.ParameterSet) bool
}

func trailingOff(p model.ParameterSet) bool { return !p.TrailingStop }

func notCombined(p model.ParameterSet) bool { return p.Mode != model.ModeCombined }

func (g Grid) axes() []axis {
	var out []axis
	add := func(n int, set func(p *model.ParameterSet, k int), idle func(p model.ParameterSet) bool) {
		if n > 0 {
			out = append(out, axis{n: n, set: set, idle: idle})
		}
	}
	add(len(g.Modes), func(p *model.ParameterSet, k int) { p.Mode = g.Modes[k] }, nil)
	add(len(g.StrongBodyMin), func(p *model.ParameterSet, k int) { p.StrongBodyMin = g.StrongBodyMin[k] }, nil)
	add(len(g.LookbackPeriod), func(p *model.ParameterSet, k int) { p.LookbackPeriod = g.LookbackPeriod[k] }, nil)
	add(len(g.WickMinPercent), func(p *model.ParameterSet, k int) { p.WickMinPercent = g.WickMinPercent[k] }, nil)
	add(len(g.MinConfluence), func(p *model.ParameterSet, k int) { p.MinConfluence = g.MinConfluence[k] }, notCombined)
	add(len(g.StopLossPips), func(p *model.ParameterSet, k int) { p.StopLossPips = g.StopLossPips[k] }, nil)
	add(len(g.RiskRewardRatio), func(p *model.ParameterSet, k int) { p.RiskRewardRatio = g.RiskRewardRatio[k] }, nil)
	add(len(g.TrailingStop), func(p *model.ParameterSet, k int) { p.TrailingStop = g.TrailingStop[k] }, nil)
	add(len(g.TrailingStopPips), func(p *model.ParameterSet, k int) { p.TrailingStopPips = g.TrailingStopPips[k] }, trailingOff)
	add(len(g.KillZoneOnly), func(p *model.ParameterSet, k int) { p.KillZoneOnly = g.KillZoneOnly[k] }, nil)
	add(len(g.MaxTradesPerDay), func(p *model.ParameterSet, k int) { p.MaxTradesPerDay = g.MaxTradesPerDay[k] }, nil)
	return out
}

// each walks the Cartesian product with the last list varying fastest and
// calls fn for every combination that is not a duplicate through an idle
// axis.
func (g Grid) each(fn func(p model.ParameterSet)) {
	axes := g.axes()
	idx := make([]int, len(axes))
	for {
		p := g.Base
		for i, a := range axes {
			a.set(&p, idx[i])
		}
		dup := false
		for i, a := range axes {
			if idx[i] > 0 && a.idle != nil && a.idle(p) {
				dup = true
				break
			}
		}
		if !dup {
			fn(p)
		}

		i := len(axes) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < axes[i].n {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return
		}
	}
}

// Size is the number of combinations the grid expands to.
func (g Grid) Size() int {
	n := 0
	g.each(func(model.ParameterSet) { n++ })
	return n
}

// Combinations expands the grid. The last list varies fastest; the order
// is fixed for a given grid. Values of an idle axis beyond its first are
// skipped, so trailing distances are only searched with the trailing stop
// on and confluence thresholds only in combined mode.
func (g Grid) Combinations() []model.ParameterSet {
	var out []model.ParameterSet
	g.each(func(p model.ParameterSet) { out = append(out, p) })
	return out
}
