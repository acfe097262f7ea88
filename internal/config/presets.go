package config

import (
	"math"
	"sort"

	"github.com/san-kum/goalseek/internal/dynamo"
)

// Presets are named starting situations. Every preset starts from the
// defaults and overrides the pose and goal.
var Presets = map[string]*Config{
	"spawn":  preset(dynamo.Pose{X: SpawnX, Y: SpawnY}, dynamo.Goal{X: 5, Y: 5}, 30),
	"corner": preset(dynamo.Pose{X: 1, Y: 1, Theta: math.Pi / 2}, dynamo.Goal{X: 10, Y: 10}, 60),
	"behind": preset(dynamo.Pose{X: 5, Y: 5}, dynamo.Goal{X: 1, Y: 5}, 60),
	"seam":   preset(dynamo.Pose{X: 5, Y: 5, Theta: math.Pi - 0.05}, dynamo.Goal{X: 0, Y: 4}, 60),
	"far":    preset(dynamo.Pose{X: 0, Y: 0, Theta: -math.Pi / 4}, dynamo.Goal{X: 40, Y: 30}, 120),
	"near":   preset(dynamo.Pose{X: 5, Y: 5}, dynamo.Goal{X: 5.05, Y: 5.05}, 5),
}

func preset(start dynamo.Pose, goal dynamo.Goal, duration float64) *Config {
	cfg := DefaultConfig()
	cfg.Start = start
	cfg.Goal = goal
	cfg.Duration = duration
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
