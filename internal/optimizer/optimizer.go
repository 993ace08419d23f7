package optimizer

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"PipSentinel/internal/backtest"
	"PipSentinel/internal/model"
	"PipSentinel/internal/strategy"
)

const (
	DefaultMinTrades = 10
	DefaultTopN      = 20
)

// Optimizer searches Grid on the train segment of a series.
type Optimizer struct {
	Grid      Grid
	Workers   int // concurrent backtests; 0 means GOMAXPROCS
	MinTrades int
	TopN      int
	Options   backtest.Options
	// Progress, when set, is called after every evaluated combination from
	// a single goroutine.
	Progress func(done, total int)
}

func New(grid Grid, opts backtest.Options) *Optimizer {
	return &Optimizer{
		Grid:      grid,
		MinTrades: DefaultMinTrades,
		TopN:      DefaultTopN,
		Options:   opts,
	}
}

// Search is the ranked outcome of one grid run.
type Search struct {
	Results   []model.OptimizerResult
	Total     int // grid size
	Evaluated int // combinations actually run
	Retained  int // combinations that passed the filter, before truncation
	Elapsed   time.Duration
}

type evaluation struct {
	pos int
	res *model.BacktestResult
}

// Run backtests every grid combination on the train segment. htf, when
// non-nil, is shared by all combinations; otherwise a context is built
// from series.HigherTF once per distinct lookback and gap size.
//
// Combinations that fail (no trades, insufficient data) are skipped.
// Cancelling ctx stops scheduling new combinations; the partial ranking is
// returned together with ctx.Err().
func (o *Optimizer) Run(ctx context.Context, series *model.PriceSeries, htf *model.HTFContext) (*Search, error) {
	started := time.Now()
	opts := o.Options.WithDefaults()
	if series == nil || len(series.Bars) < opts.MinBars {
		return nil, fmt.Errorf("optimize: %w", backtest.ErrInsufficientData)
	}
	combos := o.Grid.Combinations()
	byKey := contexts(series, combos, htf, opts.Instrument)

	workers := o.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log.Printf("[INFO] optimizer: %d combinations on %d bars, %d workers", len(combos), len(series.Bars), workers)

	evals := make(chan evaluation, workers)
	search := &Search{Total: len(combos)}
	var retained []model.OptimizerResult
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range evals {
			search.Evaluated++
			if ev.res != nil && o.keep(ev.res.Metrics) {
				retained = append(retained, model.OptimizerResult{
					Params:  ev.res.Params,
					Train:   ev.res.Metrics,
					GridPos: ev.pos,
				})
			}
			if o.Progress != nil {
				o.Progress(search.Evaluated, search.Total)
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(workers)
	for pos, p := range combos {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res, err := backtest.Run(series, p, byKey[strategy.KeyOf(p)], model.SegmentTrain, opts)
			if err != nil {
				res = nil
			}
			evals <- evaluation{pos: pos, res: res}
			return nil
		})
	}
	_ = g.Wait()
	close(evals)
	<-done

	search.Retained = len(retained)
	search.Results = Rank(retained, o.topN())
	search.Elapsed = time.Since(started)
	log.Printf("[INFO] optimizer: evaluated %d/%d, retained %d in %s",
		search.Evaluated, search.Total, search.Retained, search.Elapsed.Round(time.Millisecond))

	if err := ctx.Err(); err != nil {
		return search, fmt.Errorf("optimize: %w", err)
	}
	return search, nil
}

func (o *Optimizer) keep(m model.Metrics) bool {
	minTrades := o.MinTrades
	if minTrades <= 0 {
		minTrades = DefaultMinTrades
	}
	return m.TotalTrades >= minTrades && m.Profitable()
}

func (o *Optimizer) topN() int {
	if o.TopN <= 0 {
		return DefaultTopN
	}
	return o.TopN
}

// contexts maps each distinct ContextKey in combos to its context.
func contexts(series *model.PriceSeries, combos []model.ParameterSet, htf *model.HTFContext, inst model.Instrument) map[strategy.ContextKey]*model.HTFContext {
	out := make(map[strategy.ContextKey]*model.HTFContext)
	for _, p := range combos {
		key := strategy.KeyOf(p)
		if _, ok := out[key]; ok {
			continue
		}
		switch {
		case htf != nil:
			out[key] = htf
		case len(series.HigherTF) > 0:
			out[key] = strategy.BuildContext(series, key, inst)
		default:
			out[key] = nil
		}
	}
	return out
}

// Rank orders results by return desc, then net profit desc, then grid
// position, and keeps the first n with 1-based ranks.
func Rank(results []model.OptimizerResult, n int) []model.OptimizerResult {
	ranked := append([]model.OptimizerResult(nil), results...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Train, ranked[j].Train
		if a.ReturnPct != b.ReturnPct {
			return a.ReturnPct > b.ReturnPct
		}
		if a.NetProfit != b.NetProfit {
			return a.NetProfit > b.NetProfit
		}
		return ranked[i].GridPos < ranked[j].GridPos
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
