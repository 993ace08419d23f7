package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"PipSentinel/internal/model"
)

// PostgresRecorder persists optimisation history to PostgreSQL.
type PostgresRecorder struct {
	db *pgxpool.Pool
}

// NewPostgresRecorder connects to databaseURL and creates the schema.
func NewPostgresRecorder(ctx context.Context, databaseURL string) (*PostgresRecorder, error) {
	db, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.Ping(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{db: db}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Println("[INFO] postgres recorder connected")
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS optimization_runs (
			id               UUID PRIMARY KEY,
			started_at       TIMESTAMPTZ NOT NULL,
			symbol           TEXT,
			timeframe        TEXT,
			bars             INTEGER,
			grid_size        INTEGER,
			evaluated        INTEGER,
			retained         INTEGER,
			elapsed_ms       BIGINT,
			passed           BOOLEAN,
			reason           TEXT,
			champion         JSONB,
			train_trades     INTEGER,
			train_return_pct DOUBLE PRECISION,
			train_pf         DOUBLE PRECISION,
			test_trades      INTEGER,
			test_return_pct  DOUBLE PRECISION,
			test_pf          DOUBLE PRECISION,
			test_drawdown    DOUBLE PRECISION
		)`,
		`CREATE TABLE IF NOT EXISTS optimizer_results (
			id            BIGSERIAL PRIMARY KEY,
			run_id        UUID NOT NULL REFERENCES optimization_runs(id) ON DELETE CASCADE,
			rank          INTEGER,
			params        JSONB,
			total_trades  INTEGER,
			win_rate      DOUBLE PRECISION,
			profit_factor DOUBLE PRECISION,
			net_profit    DOUBLE PRECISION,
			return_pct    DOUBLE PRECISION,
			max_drawdown  DOUBLE PRECISION,
			expectancy    DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON optimizer_results(run_id)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id          BIGSERIAL PRIMARY KEY,
			run_id      UUID NOT NULL REFERENCES optimization_runs(id) ON DELETE CASCADE,
			segment     TEXT,
			entry_time  TIMESTAMPTZ,
			exit_time   TIMESTAMPTZ,
			direction   TEXT,
			setup       TEXT,
			entry_price DOUBLE PRECISION,
			exit_price  DOUBLE PRECISION,
			stop_loss   DOUBLE PRECISION,
			take_profit DOUBLE PRECISION,
			outcome     TEXT,
			exit_reason TEXT,
			pips        DOUBLE PRECISION,
			pnl         DOUBLE PRECISION,
			balance     DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *PostgresRecorder) RecordRun(run *Run) error {
	id, err := uuid.Parse(run.ID)
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()

	var champion []byte
	if run.Champion != nil {
		b, err := json.Marshal(run.Champion)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		champion = b
	}
	const insertRunSQL = `
		INSERT INTO optimization_runs (
			id, started_at, symbol, timeframe, bars,
			grid_size, evaluated, retained, elapsed_ms,
			passed, reason, champion,
			train_trades, train_return_pct, train_pf,
			test_trades, test_return_pct, test_pf, test_drawdown
		)
		VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,$9,
			$10,$11,$12,
			$13,$14,$15,
			$16,$17,$18,$19
		)
		ON CONFLICT (id) DO NOTHING`
	_, err = r.db.Exec(ctx, insertRunSQL,
		id, run.StartedAt, run.Symbol, string(run.Timeframe), run.Bars,
		run.GridSize, run.Evaluated, run.Retained, run.Elapsed.Milliseconds(),
		run.Passed, run.Reason, champion,
		run.Train.TotalTrades, run.Train.ReturnPct, run.Train.ProfitFactor,
		run.Test.TotalTrades, run.Test.ReturnPct, run.Test.ProfitFactor, run.Test.MaxDrawdownPct,
	)
	return err
}

func (r *PostgresRecorder) RecordResults(runID string, results []model.OptimizerResult) error {
	if len(results) == 0 {
		return nil
	}
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for _, res := range results {
		params, err := json.Marshal(res.Params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		m := res.Train
		batch.Queue(`
			INSERT INTO optimizer_results
				(run_id, rank, params, total_trades, win_rate, profit_factor, net_profit, return_pct, max_drawdown, expectancy)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			id, res.Rank, params, m.TotalTrades, m.WinRate, m.ProfitFactor,
			m.NetProfit, m.ReturnPct, m.MaxDrawdownPct, m.Expectancy)
	}
	return r.db.SendBatch(ctx, batch).Close()
}

func (r *PostgresRecorder) RecordTrades(runID string, seg model.Segment, trades []model.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows := make([][]any, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []any{
			id, string(seg), t.EntryTime, t.ExitTime,
			string(t.Direction), string(t.Setup), t.EntryPrice, t.ExitPrice,
			t.StopLoss, t.TakeProfit, string(t.Outcome), string(t.ExitReason),
			t.Pips, t.PnL, t.Balance,
		})
	}
	_, err = r.db.CopyFrom(ctx, pgx.Identifier{"trades"}, []string{
		"run_id", "segment", "entry_time", "exit_time", "direction", "setup",
		"entry_price", "exit_price", "stop_loss", "take_profit", "outcome", "exit_reason",
		"pips", "pnl", "balance",
	}, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy trades: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Close() error {
	log.Println("[INFO] closing postgres recorder")
	r.db.Close()
	return nil
}
