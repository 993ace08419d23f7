package collector

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"PipSentinel/internal/model"
)

var (
	dateLayouts = []string{"2006-01-02", "2006.01.02", "2006/01/02", "20060102"}
	timeLayouts = []string{"15:04:05", "15:04"}
	tsLayouts   = []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05",
		"2006.01.02 15:04:05",
		"2006.01.02 15:04",
		"20060102 150405",
	}
)

// CSVSource reads candles from a delimited file laid out either as
// date,time,open,high,low,close[,volume] or
// timestamp,open,high,low,close[,volume]. A header row is optional; when
// present, columns are matched by name. Rows that do not parse or fail
// Candle.Validate are dropped.
type CSVSource struct {
	Path      string
	Delimiter rune           // defaults to ','
	Location  *time.Location // zone of timestamps without offset; defaults to UTC
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Name() string { return "csv:" + filepath.Base(s.Path) }

func (s *CSVSource) Load(ctx context.Context) ([]model.Candle, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()

	bars, dropped, err := s.parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	if dropped > 0 {
		log.Printf("[WARN] %s: dropped %d malformed rows", s.Name(), dropped)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: no valid rows", s.Path)
	}
	return bars, nil
}

// columns holds the record position of each field; -1 means absent.
type columns struct {
	date, clock, ts        int
	open, high, low, close int
	volume                 int
}

func (s *CSVSource) parse(ctx context.Context, in io.Reader) ([]model.Candle, int, error) {
	r := csv.NewReader(bufio.NewReaderSize(in, 1<<20))
	r.Comma = ','
	if s.Delimiter != 0 {
		r.Comma = s.Delimiter
	}
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	var (
		bars    []model.Candle
		cols    *columns
		dropped int
		line    int
	)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				dropped++
				continue
			}
			return nil, dropped, err
		}
		if line%10000 == 0 && ctx.Err() != nil {
			return nil, dropped, ctx.Err()
		}
		if cols == nil {
			if h, ok := headerColumns(rec); ok {
				cols = h
				continue
			}
			cols = positionalColumns(rec, loc)
		}
		c, err := cols.candle(rec, loc)
		if err != nil {
			dropped++
			continue
		}
		bars = append(bars, c)
	}
	bars, dupes := sortCandles(bars)
	return bars, dropped + dupes, nil
}

func headerColumns(rec []string) (*columns, bool) {
	if len(rec) == 0 {
		return nil, false
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(rec[len(rec)-1]), 64); err == nil {
		return nil, false
	}
	c := &columns{-1, -1, -1, -1, -1, -1, -1, -1}
	for i, name := range rec {
		switch strings.ToLower(strings.Trim(strings.TrimSpace(name), "<>\"")) {
		case "date", "day":
			c.date = i
		case "time", "hour":
			c.clock = i
		case "timestamp", "datetime", "date_time", "gmt time", "local time":
			c.ts = i
		case "open", "o":
			c.open = i
		case "high", "h":
			c.high = i
		case "low", "l":
			c.low = i
		case "close", "c":
			c.close = i
		case "volume", "vol", "tickvol", "v":
			c.volume = i
		}
	}
	if c.open < 0 || c.high < 0 || c.low < 0 || c.close < 0 || (c.ts < 0 && c.date < 0) {
		return nil, false
	}
	return c, true
}

// positionalColumns guesses the layout of a headerless file from its
// first record: a clock in the second field means split date and time.
func positionalColumns(rec []string, loc *time.Location) *columns {
	if len(rec) >= 6 {
		if _, err := parseAny(timeLayouts, rec[1], loc); err == nil {
			return &columns{date: 0, clock: 1, ts: -1, open: 2, high: 3, low: 4, close: 5, volume: 6}
		}
	}
	return &columns{date: -1, clock: -1, ts: 0, open: 1, high: 2, low: 3, close: 4, volume: 5}
}

func (c *columns) candle(rec []string, loc *time.Location) (model.Candle, error) {
	field := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var (
		t   time.Time
		err error
	)
	if c.ts >= 0 {
		t, err = parseTimestamp(field(c.ts), loc)
	} else {
		t, err = parseDateTime(field(c.date), field(c.clock), loc)
	}
	if err != nil {
		return model.Candle{}, err
	}

	var ohlc [4]float64
	for k, i := range []int{c.open, c.high, c.low, c.close} {
		if ohlc[k], err = strconv.ParseFloat(field(i), 64); err != nil {
			return model.Candle{}, fmt.Errorf("price column %d: %w", i, err)
		}
	}
	vol := 0.0
	if v := field(c.volume); v != "" {
		if vol, err = strconv.ParseFloat(v, 64); err != nil {
			return model.Candle{}, fmt.Errorf("volume: %w", err)
		}
	}

	candle := model.NewCandle(t, ohlc[0], ohlc[1], ohlc[2], ohlc[3], vol)
	if err := candle.Validate(); err != nil {
		return model.Candle{}, err
	}
	return candle, nil
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return parseAny(tsLayouts, s, loc)
}

func parseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := parseAny(dateLayouts, date, loc)
	if err != nil {
		return time.Time{}, err
	}
	if clock == "" {
		return d, nil
	}
	tm, err := parseAny(timeLayouts, clock, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), tm.Hour(), tm.Minute(), tm.Second(), 0, loc), nil
}

func parseAny(layouts []string, s string, loc *time.Location) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}
