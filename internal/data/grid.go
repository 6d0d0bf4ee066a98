package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"switchwrapper/internal/model"
)

// LoadGridJSON loads a grid from a JSON file with bus, plant, branch, dcline and
// storage arrays.
func LoadGridJSON(path string) (*model.Grid, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grid file: %w", err)
	}
	var g model.Grid
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("failed to parse grid file: %w", err)
	}
	return &g, nil
}

// MarshalGrid renders a grid the way SaveGridJSON writes it.
func MarshalGrid(g *model.Grid) ([]byte, error) {
	raw, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal grid: %w", err)
	}
	return append(raw, '\n'), nil
}

// SaveGridJSON writes a grid to a JSON file, creating its directory.
func SaveGridJSON(g *model.Grid, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	raw, err := MarshalGrid(g)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write grid file: %w", err)
	}
	return nil
}
