package difficulty

import (
	"fmt"
	"time"
)

// Entry pairs a preset name with its starting profile.
type Entry struct {
	Name    Preset
	Profile Profile
}

// Table is an ordered, read-only set of presets with a fallback.
type Table struct {
	entries  []Entry
	fallback Preset
}

// NewTable validates the entries and builds a table.
// The fallback must name one of the entries.
func NewTable(entries []Entry, fallback Preset) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("difficulty: no presets defined")
	}

	seen := make(map[Preset]bool, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("difficulty: preset with empty name")
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("difficulty: preset %q defined twice", e.Name)
		}
		if err := e.Profile.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", e.Name, err)
		}
		seen[e.Name] = true
	}

	if !seen[fallback] {
		return nil, fmt.Errorf("difficulty: fallback preset %q is not defined", fallback)
	}

	return &Table{
		entries:  append([]Entry(nil), entries...),
		fallback: fallback,
	}, nil
}

// DefaultTable returns the easy, medium and hard presets with medium as
// the fallback.
func DefaultTable() *Table {
	t, err := NewTable([]Entry{
		{Name: Easy, Profile: Profile{
			SpawnInterval:  3000 * time.Millisecond,
			FallDuration:   8 * time.Second,
			OperandCeiling: 10,
		}},
		{Name: Medium, Profile: Profile{
			SpawnInterval:  2000 * time.Millisecond,
			FallDuration:   6 * time.Second,
			OperandCeiling: 20,
		}},
		{Name: Hard, Profile: Profile{
			SpawnInterval:  1500 * time.Millisecond,
			FallDuration:   4 * time.Second,
			OperandCeiling: 50,
		}},
	}, DefaultPreset)
	if err != nil {
		panic(err)
	}
	return t
}

// Resolve looks up a preset by user choice. Unknown or empty choices
// resolve to the fallback preset. The returned profile is a copy, so
// level-ups never alter the table.
func (t *Table) Resolve(choice string) (Preset, Profile) {
	name := ParsePreset(choice)
	for _, e := range t.entries {
		if e.Name == name {
			return e.Name, e.Profile
		}
	}
	for _, e := range t.entries {
		if e.Name == t.fallback {
			return e.Name, e.Profile
		}
	}
	// NewTable guarantees the fallback exists.
	return t.entries[0].Name, t.entries[0].Profile
}

// Has reports whether the table defines the given choice.
func (t *Table) Has(choice string) bool {
	name := ParsePreset(choice)
	for _, e := range t.entries {
		if e.Name == name {
			return true
		}
	}
	return false
}

// Entries returns the presets in definition order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Fallback returns the preset used for unknown choices.
func (t *Table) Fallback() Preset {
	return t.fallback
}

// Index returns the position of a preset in definition order, or the
// fallback's position if the preset is unknown.
func (t *Table) Index(p Preset) int {
	resolved, _ := t.Resolve(string(p))
	for i, e := range t.entries {
		if e.Name == resolved {
			return i
		}
	}
	return 0
}
