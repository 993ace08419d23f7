package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"PipSentinel/internal/model"
)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestNewRun_AssignsID(t *testing.T) {
	a, b := NewRun("EURUSD", model.TF15m), NewRun("EURUSD", model.TF15m)
	if _, err := uuid.Parse(a.ID); err != nil {
		t.Fatalf("run id %q is not a uuid: %v", a.ID, err)
	}
	if a.ID == b.ID {
		t.Error("run ids must be unique")
	}
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	r := openTemp(t)
	p := model.DefaultParameterSet()
	run := NewRun("EURUSD", model.TF15m)
	run.Bars = 5000
	run.GridSize = 8
	run.Evaluated = 8
	run.Retained = 3
	run.Elapsed = 1500 * time.Millisecond
	run.Passed = true
	run.Champion = &p
	run.Test = model.Metrics{TotalTrades: 12, ReturnPct: 1.5, ProfitFactor: 1.8}

	if err := r.RecordRun(run); err != nil {
		t.Fatalf("record run: %v", err)
	}
	results := []model.OptimizerResult{
		{Rank: 1, Params: p, Train: model.Metrics{TotalTrades: 20, ReturnPct: 3}},
		{Rank: 2, Params: p, Train: model.Metrics{TotalTrades: 15, ReturnPct: 2}},
	}
	if err := r.RecordResults(run.ID, results); err != nil {
		t.Fatalf("record results: %v", err)
	}
	entry := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	trades := []model.Trade{
		{EntryTime: entry, ExitTime: entry.Add(time.Hour), Direction: model.Long, Setup: model.SetupBreakout, Outcome: model.OutcomeWin, PnL: 3},
		{EntryTime: entry.Add(2 * time.Hour), ExitTime: entry.Add(3 * time.Hour), Direction: model.Short, Setup: model.SetupRejection, Outcome: model.OutcomeLoss, PnL: -1.5},
	}
	if err := r.RecordTrades(run.ID, model.SegmentTest, trades); err != nil {
		t.Fatalf("record trades: %v", err)
	}

	var passed bool
	var elapsed int64
	var champion string
	if err := r.db.QueryRow(`SELECT passed, elapsed_ms, champion FROM optimization_runs WHERE id = ?`, run.ID).
		Scan(&passed, &elapsed, &champion); err != nil {
		t.Fatalf("query run: %v", err)
	}
	if !passed || elapsed != 1500 || champion == "" {
		t.Errorf("unexpected run row: passed=%v elapsed=%d champion=%q", passed, elapsed, champion)
	}

	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM optimizer_results WHERE run_id = ?`, run.ID).Scan(&n); err != nil || n != 2 {
		t.Errorf("expected 2 result rows, got %d (%v)", n, err)
	}
	var pnl float64
	if err := r.db.QueryRow(`SELECT SUM(pnl) FROM trades WHERE run_id = ? AND segment = 'TEST'`, run.ID).Scan(&pnl); err != nil || pnl != 1.5 {
		t.Errorf("expected trade pnl sum 1.5, got %v (%v)", pnl, err)
	}
}

func TestSQLiteRecorder_RunWithoutChampion(t *testing.T) {
	r := openTemp(t)
	run := NewRun("GBPUSD", model.TF5m)
	run.Reason = "no parameter set passed the train filter"
	if err := r.RecordRun(run); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := r.RecordRun(run); err == nil {
		t.Error("duplicate run id should be rejected")
	}
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	if err := rec.RecordRun(NewRun("EURUSD", model.TF15m)); err != nil {
		t.Fatal(err)
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
}
