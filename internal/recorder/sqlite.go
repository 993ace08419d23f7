package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"PipSentinel/internal/model"
)

// SQLiteRecorder persists optimisation history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets reporting tools read while the daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS optimization_runs (
			id               TEXT PRIMARY KEY,
			timestamp        INTEGER NOT NULL,
			symbol           TEXT,
			timeframe        TEXT,
			bars             INTEGER,
			grid_size        INTEGER,
			evaluated        INTEGER,
			retained         INTEGER,
			elapsed_ms       INTEGER,
			passed           INTEGER,
			reason           TEXT,
			champion         TEXT,
			train_trades     INTEGER,
			train_return_pct REAL,
			train_pf         REAL,
			test_trades      INTEGER,
			test_return_pct  REAL,
			test_pf          REAL,
			test_drawdown    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON optimization_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS optimizer_results (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL,
			rank          INTEGER,
			params        TEXT,
			total_trades  INTEGER,
			win_rate      REAL,
			profit_factor REAL,
			net_profit    REAL,
			return_pct    REAL,
			max_drawdown  REAL,
			expectancy    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON optimizer_results(run_id)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			segment     TEXT,
			entry_time  INTEGER,
			exit_time   INTEGER,
			direction   TEXT,
			setup       TEXT,
			entry_price REAL,
			exit_price  REAL,
			stop_loss   REAL,
			take_profit REAL,
			outcome     TEXT,
			exit_reason TEXT,
			pips        REAL,
			pnl         REAL,
			balance     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	champion, err := marshalParams(run.Champion)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`INSERT INTO optimization_runs
		(id, timestamp, symbol, timeframe, bars, grid_size, evaluated, retained, elapsed_ms,
		 passed, reason, champion,
		 train_trades, train_return_pct, train_pf,
		 test_trades, test_return_pct, test_pf, test_drawdown)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.Symbol, string(run.Timeframe), run.Bars,
		run.GridSize, run.Evaluated, run.Retained, run.Elapsed.Milliseconds(),
		run.Passed, run.Reason, champion,
		run.Train.TotalTrades, run.Train.ReturnPct, run.Train.ProfitFactor,
		run.Test.TotalTrades, run.Test.ReturnPct, run.Test.ProfitFactor, run.Test.MaxDrawdownPct,
	)
	return err
}

func (r *SQLiteRecorder) RecordResults(runID string, results []model.OptimizerResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, res := range results {
		params, err := json.Marshal(res.Params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		m := res.Train
		if _, err := tx.Exec(`INSERT INTO optimizer_results
			(run_id, rank, params, total_trades, win_rate, profit_factor, net_profit, return_pct, max_drawdown, expectancy)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			runID, res.Rank, string(params), m.TotalTrades, m.WinRate, m.ProfitFactor,
			m.NetProfit, m.ReturnPct, m.MaxDrawdownPct, m.Expectancy,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordTrades(runID string, seg model.Segment, trades []model.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO trades
		(run_id, segment, entry_time, exit_time, direction, setup, entry_price, exit_price,
		 stop_loss, take_profit, outcome, exit_reason, pips, pnl, balance)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.Exec(
			runID, string(seg), t.EntryTime.Unix(), t.ExitTime.Unix(),
			string(t.Direction), string(t.Setup), t.EntryPrice, t.ExitPrice,
			t.StopLoss, t.TakeProfit, string(t.Outcome), string(t.ExitReason),
			t.Pips, t.PnL, t.Balance,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func marshalParams(p *model.ParameterSet) (string, error) {
	if p == nil {
		return "", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(b), nil
}
