// Package raindrops implements the session controller: the state machine
// that spawns drops, judges answers, tracks score, lives and level, and
// drives difficulty progression.
//
// The controller is single-threaded. Every method, including Advance which
// fires timers, must be called from one event loop. Rendering and input are
// left to the caller, which observes the controller through Events.
package raindrops

import (
	"github.com/vovakirdan/mathrain/internal/difficulty"
	"github.com/vovakirdan/mathrain/internal/drops"
)

// Phase is the session lifecycle stage.
type Phase int

const (
	PhaseIdle    Phase = iota // No session started yet, or torn down
	PhaseRunning              // Drops are falling
	PhaseOver                 // Out of lives; waiting for a restart
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseOver:
		return "over"
	default:
		return "unknown"
	}
}

// State is a snapshot of the session.
type State struct {
	Phase    Phase
	Preset   difficulty.Preset
	Score    int
	Lives    int
	Level    int
	Selected drops.ID // zero when nothing is selected
}

// HasSelection reports whether a drop is selected.
func (s State) HasSelection() bool {
	return s.Selected != 0
}

// Verdict is the outcome of SubmitAnswer.
type Verdict int

const (
	VerdictIgnored Verdict = iota // Not running, or nothing selected
	VerdictCorrect
	VerdictWrong
)

func (v Verdict) String() string {
	switch v {
	case VerdictIgnored:
		return "ignored"
	case VerdictCorrect:
		return "correct"
	case VerdictWrong:
		return "wrong"
	default:
		return "unknown"
	}
}
