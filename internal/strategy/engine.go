package strategy

import (
	"sort"

	"PipSentinel/internal/model"
)

// Evaluate runs the detectors selected by p.Mode over bars and returns the
// signals in bar order.
//
// Price-action and ICT modes keep every signal and only attach a confluence
// score when ctx carries structure. Combined mode runs the price-action
// detector and keeps signals scoring at least p.MinConfluence against ctx.
func Evaluate(bars []model.Candle, p model.ParameterSet, ctx *model.HTFContext, inst model.Instrument) []model.Signal {
	var signals []model.Signal
	switch p.Mode {
	case model.ModeICT:
		signals = DetectICT(bars, p, inst)
	default:
		signals = DetectPriceAction(bars, p)
	}

	scored := !ctx.Empty()
	if p.Mode == model.ModeCombined {
		kept := signals[:0]
		for _, s := range signals {
			s.Confluence = ScoreConfluence(s, ctx, inst)
			if s.Confluence >= p.MinConfluence {
				kept = append(kept, s)
			}
		}
		signals = kept
	} else if scored {
		for i := range signals {
			signals[i].Confluence = ScoreConfluence(signals[i], ctx, inst)
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Index != signals[j].Index {
			return signals[i].Index < signals[j].Index
		}
		return signals[i].Time.Before(signals[j].Time)
	})
	return signals
}
