package raindrops

import (
	"time"

	"github.com/vovakirdan/mathrain/internal/difficulty"
	"github.com/vovakirdan/mathrain/internal/drops"
)

// Event is a notification from the controller to its renderer and other
// observers. Events are delivered synchronously, in the order the state
// changed.
type Event interface {
	raindropsEvent()
}

// GameStartedEvent is sent when a session enters Running.
type GameStartedEvent struct {
	Preset  difficulty.Preset
	Profile difficulty.Profile
}

func (GameStartedEvent) raindropsEvent() {}

// DropSpawnedEvent is sent for every new drop. Fall is the time the drop
// takes to reach the ground, for the renderer's animation.
type DropSpawnedEvent struct {
	Drop drops.Drop
	Fall time.Duration
}

func (DropSpawnedEvent) raindropsEvent() {}

// RemoveReason says why a drop left the field.
type RemoveReason int

const (
	RemovedAnswered RemoveReason = iota // Solved by the player
	RemovedExpired                      // Reached the ground
	RemovedCleared                      // Session teardown
)

func (r RemoveReason) String() string {
	switch r {
	case RemovedAnswered:
		return "answered"
	case RemovedExpired:
		return "expired"
	case RemovedCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// DropRemovedEvent is sent when a drop leaves the field.
type DropRemovedEvent struct {
	Drop   drops.Drop
	Reason RemoveReason
}

func (DropRemovedEvent) raindropsEvent() {}

// DropSelectedEvent is sent when the selection changes to a drop.
// Previous is zero if nothing was selected before.
type DropSelectedEvent struct {
	ID       drops.ID
	Previous drops.ID
}

func (DropSelectedEvent) raindropsEvent() {}

// AnswerJudgedEvent is sent for every submitted answer.
type AnswerJudgedEvent struct {
	Drop    drops.Drop
	Given   string
	Correct bool
	Level   int
}

func (AnswerJudgedEvent) raindropsEvent() {}

// ScoreChangedEvent carries the new score.
type ScoreChangedEvent struct {
	Score int
}

func (ScoreChangedEvent) raindropsEvent() {}

// LivesChangedEvent carries the remaining lives.
type LivesChangedEvent struct {
	Lives int
}

func (LivesChangedEvent) raindropsEvent() {}

// LevelChangedEvent carries the new level and the tightened profile.
type LevelChangedEvent struct {
	Level   int
	Profile difficulty.Profile
}

func (LevelChangedEvent) raindropsEvent() {}

// GameOverEvent is sent when the last life is lost.
type GameOverEvent struct {
	FinalScore int
	Level      int
}

func (GameOverEvent) raindropsEvent() {}

// Listener receives controller events.
type Listener interface {
	HandleEvent(e Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(e Event)

// HandleEvent calls f(e).
func (f ListenerFunc) HandleEvent(e Event) {
	f(e)
}

// Multi fans events out to several listeners in order. Nil listeners are
// skipped.
func Multi(listeners ...Listener) Listener {
	out := make([]Listener, 0, len(listeners))
	for _, l := range listeners {
		if l != nil {
			out = append(out, l)
		}
	}
	return ListenerFunc(func(e Event) {
		for _, l := range out {
			l.HandleEvent(e)
		}
	})
}
