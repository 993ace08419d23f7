package recorder

import "PipSentinel/internal/model"

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *Run) error                                  { return nil }
func (n *NoopRecorder) RecordResults(_ string, _ []model.OptimizerResult) error { return nil }
func (n *NoopRecorder) RecordTrades(_ string, _ model.Segment, _ []model.Trade) error {
	return nil
}
func (n *NoopRecorder) Close() error { return nil }
