package collector

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"time"

	"PipSentinel/internal/calculator"
	"PipSentinel/internal/model"
)

// SyntheticSource generates a deterministic drifting series for demos and
// tests.
type SyntheticSource struct {
	Start     time.Time
	Timeframe model.Timeframe
	Count     int
	Price     float64 // starting price
	Drift     float64 // mean close-to-close change per bar
	Noise     float64 // max random component per bar
	Seed      int64
}

func (s *SyntheticSource) Name() string { return "synthetic" }

func (s *SyntheticSource) Load(_ context.Context) ([]model.Candle, error) {
	if s.Count <= 0 {
		return nil, fmt.Errorf("synthetic: count must be positive")
	}
	step := s.Timeframe.Duration()
	if step == 0 {
		return nil, fmt.Errorf("synthetic: unknown timeframe %q", s.Timeframe)
	}
	start := s.Start
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	price := s.Price
	if price <= 0 {
		price = 1.1
	}
	noise := s.Noise
	if noise <= 0 {
		noise = 0.0010
	}

	r := rand.New(rand.NewSource(s.Seed))
	bars := make([]model.Candle, s.Count)
	for i := range bars {
		open := price
		close := open + s.Drift + (r.Float64()-0.5)*noise
		high := math.Max(open, close) + r.Float64()*noise/2
		low := math.Min(open, close) - r.Float64()*noise/2
		bars[i] = model.NewCandle(start.Add(time.Duration(i)*step), open, high, low, close, 1000)
		price = close
	}
	return bars, nil
}

// Collector turns a Source into a PriceSeries with its higher timeframes.
type Collector struct {
	Source    Source
	Symbol    string
	Timeframe model.Timeframe
	HigherTF  []model.Timeframe
}

// NewCollector creates a Collector resampling to H1, H4 and D1.
func NewCollector(src Source, symbol string, tf model.Timeframe) *Collector {
	return &Collector{
		Source:    src,
		Symbol:    symbol,
		Timeframe: tf,
		HigherTF:  []model.Timeframe{model.TF1h, model.TF4h, model.TF1d},
	}
}

// Collect loads the entry-timeframe bars and resamples every configured
// higher timeframe that is coarser than the entry timeframe.
func (c *Collector) Collect(ctx context.Context) (*model.PriceSeries, error) {
	bars, err := c.Source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.Source.Name(), err)
	}
	bars, dupes := sortCandles(bars)
	if dupes > 0 {
		log.Printf("[WARN] %s: dropped %d duplicate timestamps", c.Source.Name(), dupes)
	}

	series := &model.PriceSeries{
		Symbol:    c.Symbol,
		Timeframe: c.Timeframe,
		Bars:      bars,
		HigherTF:  make(map[model.Timeframe][]model.Candle),
		FetchedAt: time.Now(),
	}
	for _, tf := range c.HigherTF {
		if tf.Duration() <= c.Timeframe.Duration() {
			continue
		}
		if htf := calculator.Resample(bars, tf); len(htf) > 0 {
			series.HigherTF[tf] = htf
		}
	}
	if len(bars) > 0 {
		log.Printf("[INFO] collected %d %s bars of %s from %s (%s .. %s)",
			len(bars), c.Timeframe, c.Symbol, c.Source.Name(),
			bars[0].Time.Format(time.RFC3339), bars[len(bars)-1].Time.Format(time.RFC3339))
	}
	return series, nil
}

// sortCandles orders bars by time and drops repeated timestamps, keeping
// the first occurrence. It returns the number dropped.
func sortCandles(bars []model.Candle) ([]model.Candle, int) {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if len(out) > 0 && b.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, b)
	}
	return out, len(bars) - len(out)
}
