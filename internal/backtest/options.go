package backtest

import "PipSentinel/internal/model"

// Options are the run settings that are not part of the searched
// parameter space.
type Options struct {
	Instrument     model.Instrument
	KillZones      []model.KillZone
	Horizon        int     // bars a signal may stay open before it expires
	InitialBalance float64 // account balance the trade PnL accumulates on
	MinBars        int     // shortest series a run accepts
}

func DefaultOptions() Options {
	return Options{
		Instrument:     model.DefaultInstrument(),
		KillZones:      model.DefaultKillZones(),
		Horizon:        100,
		InitialBalance: 10000,
		MinBars:        200,
	}
}

// WithDefaults fills unset fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.Instrument.PipSize <= 0 {
		o.Instrument.PipSize = d.Instrument.PipSize
	}
	if o.Instrument.PipValue <= 0 {
		o.Instrument.PipValue = d.Instrument.PipValue
	}
	if o.KillZones == nil {
		o.KillZones = d.KillZones
	}
	if o.Horizon <= 0 {
		o.Horizon = d.Horizon
	}
	if o.InitialBalance <= 0 {
		o.InitialBalance = d.InitialBalance
	}
	if o.MinBars <= 0 {
		o.MinBars = d.MinBars
	}
	return o
}
