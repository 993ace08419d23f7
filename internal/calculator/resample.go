package calculator

import (
	"time"

	"PipSentinel/internal/model"
)

// Align truncates t (UTC) to the start of its tf bucket. Daily buckets start
// at midnight UTC.
func Align(t time.Time, tf model.Timeframe) time.Time {
	u := t.UTC()
	if tf == model.TF1d {
		y, m, d := u.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	dur := tf.Duration()
	if dur <= 0 {
		return u
	}
	return u.Truncate(dur)
}

// Resample aggregates ordered bars into tf buckets. The last bucket may be
// partial. Bars must already be sorted by time.
func Resample(bars []model.Candle, tf model.Timeframe) []model.Candle {
	if len(bars) == 0 || tf.Duration() <= 0 {
		return nil
	}
	out := make([]model.Candle, 0, len(bars)/4+1)
	var cur model.Candle
	var bucket time.Time
	open := false
	for _, b := range bars {
		start := Align(b.Time, tf)
		if !open || !start.Equal(bucket) {
			if open {
				out = append(out, cur)
			}
			bucket = start
			cur = model.NewCandle(start, b.Open, b.High, b.Low, b.Close, b.Volume)
			open = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	if open {
		out = append(out, cur)
	}
	return out
}
