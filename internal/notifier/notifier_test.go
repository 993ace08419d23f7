package notifier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"PipSentinel/internal/model"
)

func sampleReport(passed bool) model.ValidationReport {
	p := model.DefaultParameterSet()
	return model.ValidationReport{
		Best: model.OptimizerResult{Rank: 1, Params: p, Train: model.Metrics{
			TotalTrades: 40, Wins: 24, Losses: 16, WinRate: 60, ProfitFactor: 1.6, NetProfit: 32, ReturnPct: 0.32,
		}},
		Test: &model.BacktestResult{
			Start:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			End:     time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			Metrics: model.Metrics{TotalTrades: 10, Wins: 10, NetProfit: 15, GrossProfit: 15, ReturnPct: 0.15},
		},
		Passed:    passed,
		Reason:    "profitable on unseen data",
		Evaluated: 8,
		Retained:  1,
		Elapsed:   3 * time.Second,
	}
}

func TestFormatProfitFactor(t *testing.T) {
	if got := FormatProfitFactor(model.Metrics{Wins: 3, NetProfit: 5, GrossProfit: 5}); got != "∞" {
		t.Errorf("no-loss run should render as infinity, got %q", got)
	}
	if got := FormatProfitFactor(model.Metrics{Wins: 3, Losses: 1, ProfitFactor: 2.5, NetProfit: 5}); got != "2.50" {
		t.Errorf("expected 2.50, got %q", got)
	}
	if got := FormatProfitFactor(model.Metrics{}); got != "0.00" {
		t.Errorf("empty metrics should render 0.00, got %q", got)
	}
}

func TestFormatOptimizationReport(t *testing.T) {
	r := sampleReport(true)
	msg := FormatOptimizationReport("EURUSD", []model.OptimizerResult{r.Best}, r, 20)
	for _, want := range []string{"EURUSD", "Evaluated 8", "1 passed", "+0.32%", "PF 1.60"} {
		if !strings.Contains(msg, want) {
			t.Errorf("report missing %q:\n%s", want, msg)
		}
	}
	empty := FormatOptimizationReport("EURUSD", nil, r, 20)
	if !strings.Contains(empty, "No parameter set") {
		t.Errorf("empty report should say nothing qualified:\n%s", empty)
	}
}

func TestFormatValidationReport(t *testing.T) {
	pass := FormatValidationReport(sampleReport(true))
	if !strings.Contains(pass, "passed") || !strings.Contains(pass, "PF: ∞") || !strings.Contains(pass, "2024-03-01") {
		t.Errorf("unexpected passing report:\n%s", pass)
	}
	r := sampleReport(false)
	r.Test = nil
	r.Reason = "no ranked parameter set traded on the test segment"
	fail := FormatValidationReport(r)
	if !strings.Contains(fail, "failed") || !strings.Contains(fail, r.Reason) {
		t.Errorf("unexpected failing report:\n%s", fail)
	}
}

func TestFormatTrades_Limit(t *testing.T) {
	var trades []model.Trade
	for i := 0; i < 5; i++ {
		trades = append(trades, model.Trade{Direction: model.Long, Setup: model.SetupMomentum, Outcome: model.OutcomeWin})
	}
	trades[4].Outcome = model.OutcomeLoss
	msg := FormatTrades(trades, 2)
	if !strings.Contains(msg, "(2 of 5)") || strings.Count(msg, "\n") != 3 || !strings.Contains(msg, "🔴") {
		t.Errorf("unexpected trades message:\n%s", msg)
	}
	if FormatTrades(nil, 5) != "No trades.\n" {
		t.Error("empty trade list")
	}
}

func TestFormatChampion(t *testing.T) {
	if msg := FormatChampion(model.ChampionState{}); !strings.Contains(msg, "None promoted") {
		t.Errorf("empty champion:\n%s", msg)
	}
	p := model.DefaultParameterSet()
	msg := FormatChampion(model.ChampionState{
		Params:   &p,
		Attempts: []model.ChampionAttempt{{Passed: false, Reason: "pf <1"}},
	})
	if !strings.Contains(msg, "price_action") || !strings.Contains(msg, "pf &lt;1") {
		t.Errorf("unexpected champion message:\n%s", msg)
	}
}

func TestSplitMessage(t *testing.T) {
	text := strings.Repeat("0123456789\n", 10)
	parts := splitMessage(text, 25)
	if strings.Join(parts, "") != text {
		t.Fatal("split must preserve the text")
	}
	for _, p := range parts {
		if len(p) > 25 {
			t.Errorf("part exceeds limit: %d", len(p))
		}
	}
	if got := splitMessage("short", 25); len(got) != 1 {
		t.Errorf("short text should not split, got %d parts", len(got))
	}
}

func TestSplitMessage_KeepsRunesWhole(t *testing.T) {
	// one long line of three-byte and four-byte runes
	text := strings.Repeat("∞📈", 20)
	for _, limit := range []int{5, 8, 10, 13} {
		parts := splitMessage(text, limit)
		if strings.Join(parts, "") != text {
			t.Fatalf("limit %d: split must preserve the text", limit)
		}
		for _, p := range parts {
			if !utf8.ValidString(p) {
				t.Errorf("limit %d: part %q splits a rune", limit, p)
			}
			if len(p) > limit {
				t.Errorf("limit %d: part exceeds limit: %d", limit, len(p))
			}
		}
	}
}

func TestNormalizeCommand(t *testing.T) {
	tests := map[string]string{
		"/optimize":             "/optimize",
		"/Champion@PipBot":      "/champion",
		"  /help extra words  ": "/help",
		"":                      "",
	}
	for in, want := range tests {
		if got := normalizeCommand(in); got != want {
			t.Errorf("normalizeCommand(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestSend_SplitsLongMessages(t *testing.T) {
	var mu sync.Mutex
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/sendMessage" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		texts = append(texts, payload["text"])
		mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("token", "42", "")
	tn.BaseURL = srv.URL
	if err := tn.Send(strings.Repeat("line of report text\n", 400)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(texts) < 2 {
		t.Errorf("expected the message to be split, got %d sends", len(texts))
	}

	tn.BotToken = "wrong"
	if err := tn.Send("hello"); err == nil {
		t.Error("expected an error for a non-200 response")
	}
}
