// Package fixture reads and writes recorded monitor runs as JSON.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/cyclone-outage-monitor/internal/monitor"
)

// Fixture is a recorded run: the settings it was produced with and every
// update in tick order.
type Fixture struct {
	Seed     uint64           `json:"seed"`
	GridAge  float64          `json:"grid_age"`
	Capacity int              `json:"capacity"`
	Interval string           `json:"interval"`
	Updates  []monitor.Update `json:"updates"`
}

// Write stores f as indented JSON, creating parent directories as needed.
func Write(path string, f Fixture) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create fixture dir: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// Load reads a fixture written by Write.
func Load(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}
