package champion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"PipSentinel/internal/model"
)

// LoadState reads the champion state from a JSON file. Returns a zero state
// if the file doesn't exist.
func LoadState(filePath string) (*model.ChampionState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.ChampionState{}, nil
		}
		return nil, err
	}
	var state model.ChampionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return &state, nil
}

// SaveState writes the champion state to a JSON file, creating its
// directory if needed.
func SaveState(filePath string, state *model.ChampionState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0o644)
}
