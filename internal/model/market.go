package model

import (
	"fmt"
	"time"
)

// Candle represents a single candlestick bar.
type Candle struct {
	Time   time.Time
	Date   string // 2006-01-02, UTC
	Clock  string // 15:04, UTC
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// NewCandle fills the derived Date and Clock fields from t.
func NewCandle(t time.Time, open, high, low, close, volume float64) Candle {
	u := t.UTC()
	return Candle{
		Time:   u,
		Date:   u.Format("2006-01-02"),
		Clock:  u.Format("15:04"),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}
}

// Validate checks the candle invariants enforced at ingestion.
func (c Candle) Validate() error {
	if c.Time.IsZero() || c.Time.Year() <= 2000 {
		return fmt.Errorf("invalid timestamp %v", c.Time)
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return fmt.Errorf("non-positive price at %s", c.Time.Format(time.RFC3339))
	}
	if c.High < c.Low {
		return fmt.Errorf("high %.5f below low %.5f at %s", c.High, c.Low, c.Time.Format(time.RFC3339))
	}
	return nil
}

func (c Candle) Range() float64 { return c.High - c.Low }

func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

func (c Candle) Bullish() bool { return c.Close > c.Open }
func (c Candle) Bearish() bool { return c.Close < c.Open }

// Timeframe is a bar duration label such as "5m" or "4h".
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// ParseTimeframe accepts both "5m" and "m5" spellings.
func ParseTimeframe(s string) (Timeframe, bool) {
	switch s {
	case "1m", "m1", "M1":
		return TF1m, true
	case "5m", "m5", "M5":
		return TF5m, true
	case "15m", "m15", "M15":
		return TF15m, true
	case "30m", "m30", "M30":
		return TF30m, true
	case "1h", "h1", "H1":
		return TF1h, true
	case "4h", "h4", "H4":
		return TF4h, true
	case "1d", "d1", "D1", "day":
		return TF1d, true
	}
	return "", false
}

func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF1m:
		return time.Minute
	case TF5m:
		return 5 * time.Minute
	case TF15m:
		return 15 * time.Minute
	case TF30m:
		return 30 * time.Minute
	case TF1h:
		return time.Hour
	case TF4h:
		return 4 * time.Hour
	case TF1d:
		return 24 * time.Hour
	}
	return 0
}

// PriceSeries holds the entry-timeframe bars and any higher-timeframe bars
// resampled from them. It is never mutated once built.
type PriceSeries struct {
	Symbol    string
	Timeframe Timeframe
	Bars      []Candle
	HigherTF  map[Timeframe][]Candle
	FetchedAt time.Time
}

func (s *PriceSeries) Len() int { return len(s.Bars) }

// Instrument carries the pip conversion constants. The defaults are the
// EURUSD-style values the strategy was tuned on.
type Instrument struct {
	PipSize  float64
	PipValue float64
}

func DefaultInstrument() Instrument {
	return Instrument{PipSize: 0.0001, PipValue: 0.10}
}

// KillZone is a UTC hour window [StartHour, EndHour).
type KillZone struct {
	StartHour int
	EndHour   int
}

// DefaultKillZones are the London and New York opens.
func DefaultKillZones() []KillZone {
	return []KillZone{{StartHour: 7, EndHour: 10}, {StartHour: 12, EndHour: 15}}
}

// InKillZone reports whether t's UTC hour falls in any of the zones.
func InKillZone(t time.Time, zones []KillZone) bool {
	h := t.UTC().Hour()
	for _, z := range zones {
		if h >= z.StartHour && h < z.EndHour {
			return true
		}
	}
	return false
}
