package raindrops

import (
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/mathrain/internal/clock"
	"github.com/vovakirdan/mathrain/internal/difficulty"
	"github.com/vovakirdan/mathrain/internal/drops"
	"github.com/vovakirdan/mathrain/internal/problem"
)

// Config holds the session rules.
type Config struct {
	Presets        *difficulty.Table
	Rule           difficulty.Rule
	StartingLives  int
	PointsPerLevel int // Score for a correct answer is PointsPerLevel * level
	LevelUpEvery   int // Level up when the score is an exact multiple of this
}

// DefaultConfig returns the standard rules: 3 lives, 10 points per level,
// a level-up at every multiple of 100.
func DefaultConfig() Config {
	return Config{
		Presets:        difficulty.DefaultTable(),
		Rule:           difficulty.DefaultRule(),
		StartingLives:  3,
		PointsPerLevel: 10,
		LevelUpEvery:   100,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Presets == nil {
		c.Presets = def.Presets
	}
	if c.Rule == (difficulty.Rule{}) {
		c.Rule = def.Rule
	}
	if c.StartingLives <= 0 {
		c.StartingLives = def.StartingLives
	}
	if c.PointsPerLevel <= 0 {
		c.PointsPerLevel = def.PointsPerLevel
	}
	if c.LevelUpEvery <= 0 {
		c.LevelUpEvery = def.LevelUpEvery
	}
	return c
}

// Options wires a Controller to its collaborators.
type Options struct {
	Config   Config
	Timers   *clock.Queue   // Required; the controller arms all its timers here
	Random   problem.Source // Problem randomness; seeded from the clock if nil
	Listener Listener       // Receives events; may be nil
	Logger   *log.Logger    // May be nil
}

// Controller runs one session at a time.
type Controller struct {
	cfg      Config
	timers   *clock.Queue
	registry *drops.Registry
	gen      *problem.Generator
	listener Listener
	logger   *log.Logger

	state      State
	profile    difficulty.Profile
	spawnTimer *clock.Timer
}

// New creates a controller in the Idle phase.
func New(opts Options) *Controller {
	src := opts.Random
	if src == nil {
		src = rand.New(rand.NewSource(opts.Timers.Now().UnixNano()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	c := &Controller{
		cfg:      opts.Config.withDefaults(),
		timers:   opts.Timers,
		gen:      problem.NewGenerator(src),
		listener: opts.Listener,
		logger:   logger,
	}
	c.registry = drops.NewRegistry(opts.Timers, c.sweepExpired)
	c.state = c.idleState()
	return c
}

func (c *Controller) idleState() State {
	return State{
		Phase: PhaseIdle,
		Lives: c.cfg.StartingLives,
		Level: 1,
	}
}

// State returns a snapshot of the session.
func (c *Controller) State() State {
	s := c.state
	if d, ok := c.registry.Selected(); ok {
		s.Selected = d.ID
	}
	return s
}

// Profile returns the active difficulty profile.
func (c *Controller) Profile() difficulty.Profile {
	return c.profile
}

// Presets returns the preset table sessions start from.
func (c *Controller) Presets() *difficulty.Table {
	return c.cfg.Presets
}

// Drops returns the live drops in creation order.
func (c *Controller) Drops() []drops.Drop {
	return c.registry.Drops()
}

// Now returns the controller's clock time.
func (c *Controller) Now() time.Time {
	return c.timers.Now()
}

// Advance moves the controller clock to now, firing due spawn and expiry
// timers. It is the only way time passes for the session.
func (c *Controller) Advance(now time.Time) {
	c.timers.Advance(now)
}

// Start begins a new session with the chosen preset. Unknown choices fall
// back to the table's default. Start is ignored while a session is running
// and reports whether a session was started.
func (c *Controller) Start(choice string) bool {
	if c.state.Phase == PhaseRunning {
		c.logger.Debug("start ignored, session running")
		return false
	}

	preset, profile := c.cfg.Presets.Resolve(choice)
	if !c.cfg.Presets.Has(choice) {
		c.logger.Debug("unknown preset, using fallback", "choice", choice, "preset", preset)
	}

	c.clearDrops()
	c.profile = profile
	c.state = State{
		Phase:  PhaseRunning,
		Preset: preset,
		Score:  0,
		Lives:  c.cfg.StartingLives,
		Level:  1,
	}

	c.logger.Info("session started", "preset", preset, "profile", profile.String())
	c.emit(GameStartedEvent{Preset: preset, Profile: profile})
	c.emit(ScoreChangedEvent{Score: c.state.Score})
	c.emit(LivesChangedEvent{Lives: c.state.Lives})
	c.emit(LevelChangedEvent{Level: c.state.Level, Profile: c.profile})

	c.armSpawnTimer()
	c.spawn()
	return true
}

// Stop tears the session down to Idle, clearing drops and timers.
func (c *Controller) Stop() {
	if c.state.Phase == PhaseIdle {
		return
	}
	c.stopSpawnTimer()
	c.clearDrops()
	c.state = c.idleState()
	c.logger.Debug("session stopped")
}

// SelectDrop selects a live drop while running. It reports whether the
// selection changed; unknown drops and other phases are ignored.
func (c *Controller) SelectDrop(id drops.ID) bool {
	if c.state.Phase != PhaseRunning {
		return false
	}

	var previous drops.ID
	if d, ok := c.registry.Selected(); ok {
		previous = d.ID
	}
	if err := c.registry.Select(id); err != nil {
		c.logger.Debug("select ignored", "err", err)
		return false
	}

	c.emit(DropSelectedEvent{ID: id, Previous: previous})
	return true
}

// SubmitAnswer judges raw against the selected drop. Input that does not
// parse as an integer is a wrong answer. The selection is cleared either
// way. Without a running session or a selection nothing happens.
func (c *Controller) SubmitAnswer(raw string) Verdict {
	if c.state.Phase != PhaseRunning {
		return VerdictIgnored
	}
	d, ok := c.registry.Selected()
	if !ok {
		return VerdictIgnored
	}
	c.registry.Deselect()

	given := strings.TrimSpace(raw)
	value, err := strconv.Atoi(given)
	correct := err == nil && d.Problem.Check(value)

	c.emit(AnswerJudgedEvent{Drop: d, Given: given, Correct: correct, Level: c.state.Level})

	if !correct {
		c.logger.Debug("wrong answer", "drop", d.ID, "expression", d.Problem.Expression, "given", given)
		c.loseLife()
		return VerdictWrong
	}

	if c.registry.Remove(d.ID) {
		c.emit(DropRemovedEvent{Drop: d, Reason: RemovedAnswered})
	}

	c.state.Score += c.cfg.PointsPerLevel * c.state.Level
	c.emit(ScoreChangedEvent{Score: c.state.Score})

	if c.state.Score > 0 && c.state.Score%c.cfg.LevelUpEvery == 0 {
		c.levelUp()
	}
	return VerdictCorrect
}

// spawn generates a problem and registers a new drop for it.
func (c *Controller) spawn() {
	p := c.gen.Generate(c.profile)
	d := c.registry.Spawn(p, c.profile.FallDuration)
	c.emit(DropSpawnedEvent{Drop: d, Fall: c.profile.FallDuration})
}

// armSpawnTimer replaces the spawn timer with one at the current interval.
// The old timer is always cancelled before the new one is armed.
func (c *Controller) armSpawnTimer() {
	c.stopSpawnTimer()

	var t *clock.Timer
	t = c.timers.AfterFunc(c.profile.SpawnInterval, func(time.Time) {
		c.onSpawnTick(t)
	})
	c.spawnTimer = t
}

func (c *Controller) stopSpawnTimer() {
	c.spawnTimer.Stop()
	c.spawnTimer = nil
}

// onSpawnTick spawns a drop and re-arms the periodic timer. Ticks from a
// replaced timer, or arriving after the session left Running, do nothing.
func (c *Controller) onSpawnTick(t *clock.Timer) {
	if t != c.spawnTimer || c.state.Phase != PhaseRunning {
		return
	}
	c.armSpawnTimer()
	c.spawn()
}

// sweepExpired runs when any drop's expiry timer fires. Each expired drop
// still on the field costs one life.
func (c *Controller) sweepExpired(now time.Time) {
	if c.state.Phase != PhaseRunning {
		return
	}
	for d := range c.registry.ExpireDue(now) {
		c.emit(DropRemovedEvent{Drop: d, Reason: RemovedExpired})
		c.logger.Debug("drop expired", "drop", d.ID, "expression", d.Problem.Expression)
		c.loseLife()
		if c.state.Phase != PhaseRunning {
			return
		}
	}
}

func (c *Controller) loseLife() {
	c.state.Lives = max(c.state.Lives-1, 0)
	c.emit(LivesChangedEvent{Lives: c.state.Lives})

	if c.state.Lives == 0 {
		c.gameOver()
	}
}

func (c *Controller) levelUp() {
	c.state.Level++
	if c.profile.LevelUp(c.cfg.Rule) {
		c.armSpawnTimer()
	}
	c.logger.Debug("level up", "level", c.state.Level, "profile", c.profile.String())
	c.emit(LevelChangedEvent{Level: c.state.Level, Profile: c.profile})
}

func (c *Controller) gameOver() {
	c.state.Phase = PhaseOver
	c.stopSpawnTimer()
	c.clearDrops()

	c.logger.Info("game over", "score", c.state.Score, "level", c.state.Level, "preset", c.state.Preset)
	c.emit(GameOverEvent{FinalScore: c.state.Score, Level: c.state.Level})
}

// clearDrops empties the registry and tells observers about each drop.
func (c *Controller) clearDrops() {
	for _, d := range c.registry.Clear() {
		c.emit(DropRemovedEvent{Drop: d, Reason: RemovedCleared})
	}
}

func (c *Controller) emit(e Event) {
	if c.listener != nil {
		c.listener.HandleEvent(e)
	}
}
