package recorder

import (
	"time"

	"github.com/google/uuid"

	"PipSentinel/internal/model"
)

// Run is one optimisation and validation pass.
type Run struct {
	ID        string
	StartedAt time.Time
	Symbol    string
	Timeframe model.Timeframe
	Bars      int
	GridSize  int
	Evaluated int
	Retained  int
	Elapsed   time.Duration
	Passed    bool
	Reason    string
	Champion  *model.ParameterSet // nil when nothing was retained
	Train     model.Metrics
	Test      model.Metrics
}

// NewRun stamps a run with a fresh ID.
func NewRun(symbol string, tf model.Timeframe) *Run {
	return &Run{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Symbol:    symbol,
		Timeframe: tf,
	}
}

// Recorder persists optimisation history for later analysis.
type Recorder interface {
	RecordRun(run *Run) error
	RecordResults(runID string, results []model.OptimizerResult) error
	RecordTrades(runID string, seg model.Segment, trades []model.Trade) error
	Close() error
}

var (
	_ Recorder = (*SQLiteRecorder)(nil)
	_ Recorder = (*PostgresRecorder)(nil)
	_ Recorder = (*NoopRecorder)(nil)
)
