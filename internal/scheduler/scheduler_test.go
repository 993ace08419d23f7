package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"PipSentinel/internal/backtest"
	"PipSentinel/internal/champion"
	"PipSentinel/internal/collector"
	"PipSentinel/internal/model"
	"PipSentinel/internal/optimizer"
	"PipSentinel/internal/recorder"
)

const pip = 0.0001

type staticSource struct{ bars []model.Candle }

func (s staticSource) Name() string { return "static" }
func (s staticSource) Load(context.Context) ([]model.Candle, error) {
	return append([]model.Candle(nil), s.bars...), nil
}

type failingSource struct{}

func (failingSource) Name() string { return "failing" }
func (failingSource) Load(context.Context) ([]model.Candle, error) {
	return nil, errors.New("feed offline")
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, text)
	return nil
}

func (f *fakeSender) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		return ""
	}
	return f.msgs[len(f.msgs)-1]
}

// breakoutCycles repeats a breakout candle followed by a 23-pip rise, a
// fall and a flat tail, so a long breakout with a 10-pip stop and 2R target
// wins every time.
func breakoutCycles(cycles int) []model.Candle {
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	var bars []model.Candle
	add := func(o, h, l, c float64) {
		bars = append(bars, model.NewCandle(t0.Add(time.Duration(len(bars))*15*time.Minute), o, h, l, c, 100))
	}
	flat := func(x float64) { add(x, x+5*pip, x-5*pip, x) }
	for k := 0; k < 20; k++ {
		flat(1.1 - 12*pip)
	}
	for c := 0; c < cycles; c++ {
		L := 1.1 + float64(c)*10*pip
		add(L, L+9*pip, L-pip, L+8*pip)
		for k := 0; k < 5; k++ {
			o := L + float64(8+4*k)*pip
			add(o, o+7*pip, o-3*pip, o+4*pip)
		}
		for k := 0; k < 10; k++ {
			o := L + float64(28-4*k)*pip
			add(o, o+3*pip, o-7*pip, o-4*pip)
		}
		for k := 0; k < 14; k++ {
			flat(L - 12*pip)
		}
	}
	return bars
}

func newTestScheduler(t *testing.T, src collector.Source) (*Scheduler, *fakeSender) {
	t.Helper()
	base := model.DefaultParameterSet()
	base.WickMinPercent = 0.6
	base.MaxTradesPerDay = 0
	grid := optimizer.Grid{
		Base:            base,
		StrongBodyMin:   []float64{0.5, 0.99},
		StopLossPips:    []float64{10, 15},
		RiskRewardRatio: []float64{1, 2},
	}
	col := collector.NewCollector(src, "EURUSD", model.TF15m)
	col.HigherTF = nil
	store, err := champion.NewStore(filepath.Join(t.TempDir(), "champion.json"))
	if err != nil {
		t.Fatal(err)
	}
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rec.Close() })
	sender := &fakeSender{}
	s := NewScheduler(context.Background(), col, optimizer.New(grid, backtest.DefaultOptions()), store, sender, rec)
	return s, sender
}

func TestOptimize_PromotesChampion(t *testing.T) {
	s, sender := newTestScheduler(t, staticSource{bars: breakoutCycles(20)})
	report, err := s.Optimize()
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if !report.Passed || report.Evaluated != 8 || report.Retained != 3 {
		t.Fatalf("unexpected report: passed=%v evaluated=%d retained=%d (%s)",
			report.Passed, report.Evaluated, report.Retained, report.Reason)
	}
	st := s.Champion.GetState()
	if st.Params == nil || st.Params.StopLossPips != 10 || st.Params.RiskRewardRatio != 2 {
		t.Errorf("expected the top result promoted, got %+v", st.Params)
	}
	msg := sender.last()
	if !strings.Contains(msg, "Validation passed") || !strings.Contains(msg, "New champion") {
		t.Errorf("unexpected notification:\n%s", msg)
	}
	if reply := s.HandleCommand("/champion"); !strings.Contains(reply, "Current champion") || strings.Contains(reply, "None promoted") {
		t.Errorf("unexpected /champion reply:\n%s", reply)
	}
}

func TestOptimize_CollectFailure(t *testing.T) {
	s, _ := newTestScheduler(t, failingSource{})
	if _, err := s.Optimize(); err == nil || !strings.Contains(err.Error(), "feed offline") {
		t.Fatalf("expected the collector error, got %v", err)
	}
	if len(s.Champion.GetState().Attempts) != 0 {
		t.Error("a failed collect must not record a validation attempt")
	}
}

func TestOptimize_RejectsOverlap(t *testing.T) {
	s, _ := newTestScheduler(t, staticSource{bars: breakoutCycles(20)})
	s.running.Store(true)
	if _, err := s.Optimize(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if reply := s.HandleCommand("/optimize"); !strings.Contains(reply, "already running") {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestHandleCommand_Help(t *testing.T) {
	s, _ := newTestScheduler(t, staticSource{})
	for _, cmd := range []string{"/help", "/start", "/unknown"} {
		if reply := s.HandleCommand(cmd); !strings.Contains(reply, "/optimize") {
			t.Errorf("%s: expected help text, got %q", cmd, reply)
		}
	}
	if reply := s.HandleCommand("/champion"); !strings.Contains(reply, "None promoted") {
		t.Errorf("unexpected empty champion reply %q", reply)
	}
}

func TestRegister(t *testing.T) {
	s, _ := newTestScheduler(t, staticSource{})
	if err := s.Register("0 0 22 * * 5"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.Register("every friday"); err == nil {
		t.Error("expected an error for an invalid cron spec")
	}
}
