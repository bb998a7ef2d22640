package storage

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/mathrain/internal/raindrops"
)

// Journal records controller events into a Store. Write failures are
// logged and otherwise ignored so the game keeps running.
type Journal struct {
	store     *Store
	player    string
	logger    *log.Logger
	sessionID string
	level     int
}

// NewJournal creates a journal listener for one player.
func NewJournal(store *Store, player string, logger *log.Logger) *Journal {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Journal{store: store, player: player, logger: logger}
}

// SessionID returns the journal ID of the current session, if any.
func (j *Journal) SessionID() string {
	return j.sessionID
}

// HandleEvent implements raindrops.Listener.
func (j *Journal) HandleEvent(e raindrops.Event) {
	switch e := e.(type) {
	case raindrops.GameStartedEvent:
		j.Finish()
		j.level = 1
		id, err := j.store.StartSession(j.player, string(e.Preset))
		if err != nil {
			j.logger.Warn("journal: could not start session", "error", err)
			j.sessionID = ""
			return
		}
		j.sessionID = id

	case raindrops.LevelChangedEvent:
		j.level = e.Level

	case raindrops.AnswerJudgedEvent:
		outcome := OutcomeWrong
		if e.Correct {
			outcome = OutcomeCorrect
		}
		j.record(Attempt{
			Expression: e.Drop.Problem.Expression,
			Answer:     e.Drop.Problem.Answer,
			Given:      e.Given,
			Outcome:    outcome,
			Level:      e.Level,
		})

	case raindrops.DropRemovedEvent:
		if e.Reason != raindrops.RemovedExpired {
			return
		}
		j.record(Attempt{
			Expression: e.Drop.Problem.Expression,
			Answer:     e.Drop.Problem.Answer,
			Outcome:    OutcomeExpired,
			Level:      j.level,
		})

	case raindrops.GameOverEvent:
		j.level = e.Level
		j.Finish()
	}
}

// Finish closes the open session, if any, at the last level seen. Call it
// when a session is abandoned without reaching game over.
func (j *Journal) Finish() {
	if j.sessionID == "" {
		return
	}
	if err := j.store.EndSession(j.sessionID, j.level); err != nil {
		j.logger.Warn("journal: could not end session", "error", err)
	}
	j.sessionID = ""
}

func (j *Journal) record(a Attempt) {
	if j.sessionID == "" {
		return
	}
	a.SessionID = j.sessionID
	if _, err := j.store.RecordAttempt(a); err != nil {
		j.logger.Warn("journal: could not record attempt", "error", err)
	}
}

var _ raindrops.Listener = (*Journal)(nil)
