package model

import "time"

// ChampionState is the persisted parameter set currently trusted for live
// use, with the evidence it was promoted on.
type ChampionState struct {
	Params     *ParameterSet     `json:"params,omitempty"`
	RunID      string            `json:"run_id,omitempty"`
	Train      Metrics           `json:"train"`
	Test       Metrics           `json:"test"`
	PromotedAt time.Time         `json:"promoted_at"`
	Attempts   []ChampionAttempt `json:"attempts,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ChampionAttempt records one validation, promoted or not.
type ChampionAttempt struct {
	RunID     string    `json:"run_id"`
	At        time.Time `json:"at"`
	Passed    bool      `json:"passed"`
	Reason    string    `json:"reason"`
	TestPct   float64   `json:"test_return_pct"`
	Evaluated int       `json:"evaluated"`
}
