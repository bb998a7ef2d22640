// Package config provides YAML-based configuration loading for the game:
// the difficulty presets, the progression rule and the session rules.
package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/mathrain/internal/difficulty"
	"github.com/vovakirdan/mathrain/internal/raindrops"
)

// Config contains all game configuration.
type Config struct {
	Session     SessionConfig     `yaml:"session"`
	Progression ProgressionConfig `yaml:"progression"`
	Presets     []PresetConfig    `yaml:"presets"`
}

// SessionConfig defines scoring and lives.
type SessionConfig struct {
	StartingLives  int    `yaml:"starting_lives"`
	PointsPerLevel int    `yaml:"points_per_level"`
	LevelUpEvery   int    `yaml:"level_up_every"` // Level up at exact multiples of this score
	DefaultPreset  string `yaml:"default_preset"` // Used for unknown difficulty choices
}

// ProgressionConfig defines how each level-up tightens the profile.
// All values are in milliseconds.
type ProgressionConfig struct {
	FallStepMs   int `yaml:"fall_step_ms"`
	FallFloorMs  int `yaml:"fall_floor_ms"`
	SpawnStepMs  int `yaml:"spawn_step_ms"`
	SpawnFloorMs int `yaml:"spawn_floor_ms"`
}

// PresetConfig defines one named starting profile.
type PresetConfig struct {
	Name            string `yaml:"name"`
	SpawnIntervalMs int    `yaml:"spawn_interval_ms"`
	FallDurationMs  int    `yaml:"fall_duration_ms"`
	OperandCeiling  int    `yaml:"operand_ceiling"`
}

// Rule converts the progression settings.
func (p ProgressionConfig) Rule() difficulty.Rule {
	return difficulty.Rule{
		FallStep:   ms(p.FallStepMs),
		FallFloor:  ms(p.FallFloorMs),
		SpawnStep:  ms(p.SpawnStepMs),
		SpawnFloor: ms(p.SpawnFloorMs),
	}
}

// Table builds the preset table.
func (c Config) Table() (*difficulty.Table, error) {
	entries := make([]difficulty.Entry, 0, len(c.Presets))
	for _, p := range c.Presets {
		entries = append(entries, difficulty.Entry{
			Name: difficulty.ParsePreset(p.Name),
			Profile: difficulty.Profile{
				SpawnInterval:  ms(p.SpawnIntervalMs),
				FallDuration:   ms(p.FallDurationMs),
				OperandCeiling: p.OperandCeiling,
			},
		})
	}

	fallback := difficulty.ParsePreset(c.Session.DefaultPreset)
	if fallback == "" {
		fallback = difficulty.DefaultPreset
	}
	return difficulty.NewTable(entries, fallback)
}

// Validate checks that the configuration can drive a session.
func (c Config) Validate() error {
	if c.Session.StartingLives < 1 {
		return fmt.Errorf("config: starting_lives must be at least 1")
	}
	if c.Session.PointsPerLevel < 1 {
		return fmt.Errorf("config: points_per_level must be at least 1")
	}
	if c.Session.LevelUpEvery < 1 {
		return fmt.Errorf("config: level_up_every must be at least 1")
	}
	if err := c.Progression.Rule().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Table(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SessionRules converts the configuration into controller rules.
func (c Config) SessionRules() (raindrops.Config, error) {
	if err := c.Validate(); err != nil {
		return raindrops.Config{}, err
	}
	table, err := c.Table()
	if err != nil {
		return raindrops.Config{}, fmt.Errorf("config: %w", err)
	}
	return raindrops.Config{
		Presets:        table,
		Rule:           c.Progression.Rule(),
		StartingLives:  c.Session.StartingLives,
		PointsPerLevel: c.Session.PointsPerLevel,
		LevelUpEvery:   c.Session.LevelUpEvery,
	}, nil
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
