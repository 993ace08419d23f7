package champion

import (
	"log"
	"sync"
	"time"

	"PipSentinel/internal/model"
)

// maxAttempts bounds the validation history kept in the state file.
const maxAttempts = 12

// Store holds the champion parameter set with concurrency safety.
type Store struct {
	mu       sync.Mutex
	state    *model.ChampionState
	filePath string
}

// NewStore creates a Store, loading state from disk.
func NewStore(filePath string) (*Store, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	return &Store{state: state, filePath: filePath}, nil
}

// GetState returns a copy of the current champion state.
func (s *Store) GetState() model.ChampionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := *s.state
	st.Attempts = append([]model.ChampionAttempt(nil), s.state.Attempts...)
	if s.state.Params != nil {
		p := *s.state.Params
		st.Params = &p
	}
	return st
}

// Params returns the champion parameter set, or fallback when none has
// been promoted yet.
func (s *Store) Params(fallback model.ParameterSet) model.ParameterSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Params == nil {
		return fallback
	}
	return *s.state.Params
}

// Apply records a validation and promotes its parameter set when it passed.
// It reports whether the champion changed.
func (s *Store) Apply(runID string, report model.ValidationReport) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt := model.ChampionAttempt{
		RunID:     runID,
		At:        time.Now(),
		Passed:    report.Passed,
		Reason:    report.Reason,
		Evaluated: report.Evaluated,
	}
	if report.Test != nil {
		attempt.TestPct = report.Test.Metrics.ReturnPct
	}
	s.state.Attempts = append(s.state.Attempts, attempt)
	if len(s.state.Attempts) > maxAttempts {
		s.state.Attempts = s.state.Attempts[len(s.state.Attempts)-maxAttempts:]
	}

	promoted := report.Passed && report.Test != nil
	if promoted {
		p := report.Best.Params
		s.state.Params = &p
		s.state.RunID = runID
		s.state.Train = report.Best.Train
		s.state.Test = report.Test.Metrics
		s.state.PromotedAt = attempt.At
		log.Printf("[INFO] champion promoted: %s", p)
	}

	if err := s.save(); err != nil {
		return promoted, err
	}
	return promoted, nil
}

func (s *Store) save() error {
	return SaveState(s.filePath, s.state)
}
