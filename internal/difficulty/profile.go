// Package difficulty defines the per-session difficulty profile, the named
// presets a session can start from, and the level-up progression rule.
package difficulty

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Preset names a starting difficulty.
type Preset string

const (
	Easy   Preset = "easy"
	Medium Preset = "medium"
	Hard   Preset = "hard"
)

// DefaultPreset is used when a session is started with an unknown choice.
const DefaultPreset = Medium

// MaxOperandCeiling keeps every answer short enough to type.
const MaxOperandCeiling = 9999

// ParsePreset normalizes user input into a preset name.
// It does not check that the preset exists; see Table.Resolve.
func ParsePreset(s string) Preset {
	return Preset(strings.ToLower(strings.TrimSpace(s)))
}

// Profile holds the active difficulty parameters of a session.
type Profile struct {
	SpawnInterval  time.Duration // Time between drop spawns
	FallDuration   time.Duration // Time a drop takes to reach the ground
	OperandCeiling int           // Largest operand for add and subtract
}

// Validate checks that the profile can drive a session.
func (p Profile) Validate() error {
	if p.SpawnInterval <= 0 {
		return errors.New("difficulty: spawn interval must be positive")
	}
	if p.FallDuration <= 0 {
		return errors.New("difficulty: fall duration must be positive")
	}
	if p.OperandCeiling < 1 {
		return errors.New("difficulty: operand ceiling must be at least 1")
	}
	if p.OperandCeiling > MaxOperandCeiling {
		return fmt.Errorf("difficulty: operand ceiling must be at most %d", MaxOperandCeiling)
	}
	return nil
}

// Rule is the progression applied on every level-up.
// Both adjustments stop at their floor; OperandCeiling is never touched.
type Rule struct {
	FallStep   time.Duration
	FallFloor  time.Duration
	SpawnStep  time.Duration
	SpawnFloor time.Duration
}

// DefaultRule returns the standard progression: fall 0.3s faster down to 3s,
// spawn 200ms sooner down to 1s.
func DefaultRule() Rule {
	return Rule{
		FallStep:   300 * time.Millisecond,
		FallFloor:  3 * time.Second,
		SpawnStep:  200 * time.Millisecond,
		SpawnFloor: time.Second,
	}
}

// Validate checks the rule for non-negative steps and positive floors.
func (r Rule) Validate() error {
	if r.FallStep < 0 || r.SpawnStep < 0 {
		return errors.New("difficulty: progression steps must not be negative")
	}
	if r.FallFloor <= 0 || r.SpawnFloor <= 0 {
		return errors.New("difficulty: progression floors must be positive")
	}
	return nil
}

// LevelUp tightens the profile in place. The fall duration is adjusted
// first, then the spawn interval. Returns true if the spawn interval
// changed, in which case the caller must re-arm its spawn timer.
func (p *Profile) LevelUp(r Rule) (spawnChanged bool) {
	if p.FallDuration > r.FallFloor {
		p.FallDuration = max(p.FallDuration-r.FallStep, r.FallFloor)
	}

	if p.SpawnInterval > r.SpawnFloor {
		before := p.SpawnInterval
		p.SpawnInterval = max(p.SpawnInterval-r.SpawnStep, r.SpawnFloor)
		spawnChanged = p.SpawnInterval != before
	}

	return spawnChanged
}

// String formats the profile for logs and the presets listing.
func (p Profile) String() string {
	return fmt.Sprintf("spawn every %v, fall %v, operands up to %d",
		p.SpawnInterval, p.FallDuration, p.OperandCeiling)
}
