package collector

import (
	"context"

	"PipSentinel/internal/model"
)

// Source supplies a validated, time-ordered candle sequence on one
// timeframe.
type Source interface {
	Load(ctx context.Context) ([]model.Candle, error)
	Name() string
}
