package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PipSentinel/internal/model"
)

// YahooSource loads intraday forex candles from the Yahoo Finance chart API.
type YahooSource struct {
	Client    *http.Client
	Symbol    string
	Timeframe model.Timeframe
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooSource creates a Yahoo source with optional proxy support.
func NewYahooSource(symbol string, tf model.Timeframe, proxyURL string) *YahooSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooSource{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Symbol:    symbol,
		Timeframe: tf,
		BaseURL:   "https://query1.finance.yahoo.com",
		SymbolMap: map[string]string{
			"GOLD":   "GC=F",
			"XAUUSD": "GC=F",
		},
	}
}

func (s *YahooSource) Name() string { return "yahoo:" + s.Symbol }

// yahooSymbol maps a pair such as EURUSD to its EURUSD=X ticker.
func (s *YahooSource) yahooSymbol() string {
	if mapped, ok := s.SymbolMap[s.Symbol]; ok {
		return mapped
	}
	if len(s.Symbol) == 6 && !strings.Contains(s.Symbol, "=") {
		return s.Symbol + "=X"
	}
	return s.Symbol
}

// interval returns Yahoo's interval name and the longest range it serves
// for that interval.
func interval(tf model.Timeframe) (string, string, error) {
	switch tf {
	case model.TF1m:
		return "1m", "7d", nil
	case model.TF5m:
		return "5m", "60d", nil
	case model.TF15m:
		return "15m", "60d", nil
	case model.TF30m:
		return "30m", "60d", nil
	case model.TF1h:
		return "60m", "730d", nil
	case model.TF1d:
		return "1d", "10y", nil
	}
	return "", "", fmt.Errorf("yahoo: unsupported timeframe %s", tf)
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vs []*float64, i int) float64 {
	if i >= len(vs) || vs[i] == nil {
		return 0
	}
	return *vs[i]
}

func (s *YahooSource) Load(ctx context.Context) ([]model.Candle, error) {
	iv, rng, err := interval(s.Timeframe)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		s.BaseURL, url.PathEscape(s.yahooSymbol()), iv, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c := model.NewCandle(time.Unix(ts, 0),
			at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i), at(quote.Volume, i))
		if c.Validate() != nil {
			continue // null bars while the market is closed
		}
		bars = append(bars, c)
	}
	bars, _ = sortCandles(bars)
	return bars, nil
}
