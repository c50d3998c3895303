package scan

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"wifi-sampler/internal/model"
)

// Static replays scan results from a fixture, cycling through them.
type Static struct {
	scans [][]model.ObservedNetwork
	next  int
}

type fixture struct {
	Scans [][]model.ObservedNetwork `yaml:"scans"`
}

func NewStatic(scans ...[]model.ObservedNetwork) *Static {
	return &Static{scans: scans}
}

// LoadStatic reads a YAML fixture of the form `scans: [[{ssid, mac, rssi, channel}]]`.
func LoadStatic(path string) (*Static, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fixture
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Scans) == 0 {
		return nil, fmt.Errorf("fixture %s has no scans", path)
	}
	return NewStatic(f.Scans...), nil
}

func (s *Static) Scan(ctx context.Context) ([]model.ObservedNetwork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.scans) == 0 {
		return nil, nil
	}
	src := s.scans[s.next%len(s.scans)]
	s.next++
	return append([]model.ObservedNetwork(nil), src...), nil
}
