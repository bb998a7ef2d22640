package config

import (
	_ "embed"
)

//go:embed defaults/mathrain.yaml
var defaultYAML []byte

// DefaultConfig returns the built-in configuration: three lives, 10 points
// per level, a level-up every 100 points and the easy/medium/hard presets.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			StartingLives:  3,
			PointsPerLevel: 10,
			LevelUpEvery:   100,
			DefaultPreset:  "medium",
		},
		Progression: ProgressionConfig{
			FallStepMs:   300,
			FallFloorMs:  3000,
			SpawnStepMs:  200,
			SpawnFloorMs: 1000,
		},
		Presets: []PresetConfig{
			{Name: "easy", SpawnIntervalMs: 3000, FallDurationMs: 8000, OperandCeiling: 10},
			{Name: "medium", SpawnIntervalMs: 2000, FallDurationMs: 6000, OperandCeiling: 20},
			{Name: "hard", SpawnIntervalMs: 1500, FallDurationMs: 4000, OperandCeiling: 50},
		},
	}
}
