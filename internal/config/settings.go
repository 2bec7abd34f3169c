package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/boothmap/boothmap/internal/engine"
	"github.com/boothmap/boothmap/internal/nudge"
	"github.com/boothmap/boothmap/internal/render"
)

// Settings is the editor tuning file. Omitted keys keep their defaults.
//
//	nudge:
//	  map_delay: 500ms
//	  zone_delay: 150ms
//	  steps: {base: 5, fine: 10, coarse: 50}
//	vertex_radius: 10
//	edge_tolerance: 6
//	rotate_step: 5
//	label_line_spacing: -0.5
//	zone_hide: 5s
type Settings struct {
	Nudge struct {
		MapDelay  time.Duration `yaml:"map_delay"`
		ZoneDelay time.Duration `yaml:"zone_delay"`
		Steps     nudge.Steps   `yaml:"steps"`
	} `yaml:"nudge"`
	VertexRadius     float64       `yaml:"vertex_radius"`
	EdgeTolerance    float64       `yaml:"edge_tolerance"`
	RotateStep       float64       `yaml:"rotate_step"`
	LabelLineSpacing float64       `yaml:"label_line_spacing"`
	ZoneHide         time.Duration `yaml:"zone_hide"`
}

func DefaultSettings() Settings {
	e := engine.DefaultSettings()
	var s Settings
	s.Nudge.MapDelay = e.MapDelay
	s.Nudge.ZoneDelay = e.ZoneDelay
	s.Nudge.Steps = e.Steps
	s.VertexRadius = e.VertexRadius
	s.EdgeTolerance = e.EdgeTolerance
	s.RotateStep = e.RotateStep
	s.LabelLineSpacing = render.DefaultLineSpacing
	s.ZoneHide = e.ZoneHide
	return s
}

// LoadSettings reads a YAML settings file over the defaults. An empty path
// returns the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}

// Engine converts to the engine's interaction constants.
func (s Settings) Engine() engine.Settings {
	return engine.Settings{
		VertexRadius:  s.VertexRadius,
		EdgeTolerance: s.EdgeTolerance,
		RotateStep:    s.RotateStep,
		Steps:         s.Nudge.Steps,
		MapDelay:      s.Nudge.MapDelay,
		ZoneDelay:     s.Nudge.ZoneDelay,
		ZoneHide:      s.ZoneHide,
	}
}
