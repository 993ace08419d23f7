package model

import "time"

// Direction is the side of a signal or structure.
type Direction string

const (
	Flat  Direction = "FLAT"
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Sign returns +1 for Long, -1 for Short and 0 otherwise.
func (d Direction) Sign() float64 {
	switch d {
	case Long:
		return 1
	case Short:
		return -1
	}
	return 0
}

// SetupKind names the pattern that produced a signal.
type SetupKind string

const (
	SetupMomentum         SetupKind = "momentum"
	SetupBreakout         SetupKind = "breakout"
	SetupRejection        SetupKind = "rejection"
	SetupOrderBlockRetest SetupKind = "order_block_retest"
	SetupFVGFill          SetupKind = "fvg_fill"
)

// Signal is a detected entry opportunity on the entry timeframe.
// Confluence is the only field written after detection.
type Signal struct {
	Index       int
	Direction   Direction
	Kind        SetupKind
	Price       float64
	Time        time.Time
	BodyPercent float64
	Confluence  float64
}

// OrderBlock is the candle that originated an outsized move. ConfirmedAt
// is the time the following bar proved the move; it is the earliest a
// signal may see the block.
type OrderBlock struct {
	Index       int
	Type        Direction
	High        float64
	Low         float64
	Time        time.Time
	ConfirmedAt time.Time
}

// FairValueGap is a three-candle imbalance band [Bottom, Top].
type FairValueGap struct {
	Index       int
	Type        Direction
	Top         float64
	Bottom      float64
	Time        time.Time
	ConfirmedAt time.Time
}

// LiquidityZone is a swing extreme where resting orders are expected.
// Swing lows are Long-side, swing highs Short-side.
type LiquidityZone struct {
	Index       int
	Price       float64
	Side        Direction
	Time        time.Time
	ConfirmedAt time.Time
}

// BiasPoint is the daily bias in force from From onwards.
type BiasPoint struct {
	From time.Time
	Bias Direction
}

// HTFContext is the higher-timeframe structure a signal is scored against.
// The zero value means price-action only. Structures are ordered by
// ConfirmedAt and only those confirmed before a signal count towards it.
type HTFContext struct {
	OrderBlocks []OrderBlock
	FVGs        []FairValueGap
	Liquidity   []LiquidityZone
	// DailyBias applies when BiasTimeline has no point at or before the signal.
	DailyBias    Direction
	BiasTimeline []BiasPoint
	// Window caps how many of the most recent confirmed structures of each
	// kind are considered; 0 means all.
	OrderBlockWindow int
	FVGWindow        int
	LiquidityWindow  int
}

func (c *HTFContext) Empty() bool {
	return c == nil || (len(c.OrderBlocks) == 0 && len(c.FVGs) == 0 && len(c.Liquidity) == 0 &&
		len(c.BiasTimeline) == 0 && (c.DailyBias == "" || c.DailyBias == Flat))
}

// BiasAt returns the daily bias in force at t.
func (c *HTFContext) BiasAt(t time.Time) Direction {
	if c == nil {
		return Flat
	}
	bias := c.DailyBias
	for _, p := range c.BiasTimeline {
		if p.From.After(t) {
			break
		}
		bias = p.Bias
	}
	if bias == "" {
		return Flat
	}
	return bias
}
