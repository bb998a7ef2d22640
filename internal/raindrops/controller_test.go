package raindrops

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/vovakirdan/mathrain/internal/clock"
	"github.com/vovakirdan/mathrain/internal/difficulty"
	"github.com/vovakirdan/mathrain/internal/drops"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// recorder collects controller events.
type recorder struct {
	events []Event
}

func (r *recorder) HandleEvent(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) count(match func(Event) bool) int {
	n := 0
	for _, e := range r.events {
		if match(e) {
			n++
		}
	}
	return n
}

func (r *recorder) last() Event {
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

func newTestController(t *testing.T) (*Controller, *clock.Queue, *recorder) {
	t.Helper()
	q := clock.NewQueue(epoch)
	rec := &recorder{}
	c := New(Options{
		Config:   DefaultConfig(),
		Timers:   q,
		Random:   rand.New(rand.NewSource(1)),
		Listener: rec,
	})
	return c, q, rec
}

// checkInvariants verifies the state invariants that must hold after
// every transition.
func checkInvariants(t *testing.T, c *Controller) {
	t.Helper()
	s := c.State()

	if (s.Lives == 0) != (s.Phase == PhaseOver) {
		t.Fatalf("invariant broken: lives=%d phase=%v", s.Lives, s.Phase)
	}
	if s.Phase != PhaseRunning && len(c.Drops()) != 0 {
		t.Fatalf("%d drops left while %v", len(c.Drops()), s.Phase)
	}
	if s.Score < 0 || s.Level < 1 {
		t.Fatalf("bad counters: score=%d level=%d", s.Score, s.Level)
	}
}

// answerOldest selects the oldest live drop and answers it correctly.
func answerOldest(t *testing.T, c *Controller) Verdict {
	t.Helper()
	live := c.Drops()
	if len(live) == 0 {
		t.Fatal("no live drops to answer")
	}
	d := live[0]
	if !c.SelectDrop(d.ID) {
		t.Fatalf("SelectDrop(%v) failed", d.ID)
	}
	return c.SubmitAnswer(strconv.Itoa(d.Problem.Answer))
}

func TestIdleState(t *testing.T) {
	c, _, _ := newTestController(t)
	s := c.State()

	if s.Phase != PhaseIdle {
		t.Errorf("Phase = %v, expected idle", s.Phase)
	}
	if s.Lives != 3 || s.Level != 1 || s.Score != 0 {
		t.Errorf("idle state = %+v", s)
	}
	checkInvariants(t, c)

	if c.SelectDrop(1) {
		t.Error("SelectDrop should be ignored while idle")
	}
	if v := c.SubmitAnswer("4"); v != VerdictIgnored {
		t.Errorf("SubmitAnswer while idle = %v, expected ignored", v)
	}
}

func TestStartSpawnsImmediately(t *testing.T) {
	c, q, rec := newTestController(t)

	if !c.Start("easy") {
		t.Fatal("Start() should succeed from idle")
	}
	checkInvariants(t, c)

	s := c.State()
	if s.Phase != PhaseRunning || s.Preset != difficulty.Easy {
		t.Errorf("state after start = %+v", s)
	}
	if len(c.Drops()) != 1 {
		t.Fatalf("expected one drop right after start, got %d", len(c.Drops()))
	}
	if _, ok := rec.events[0].(GameStartedEvent); !ok {
		t.Errorf("first event = %T, expected GameStartedEvent", rec.events[0])
	}
	spawned, ok := rec.last().(DropSpawnedEvent)
	if !ok {
		t.Fatalf("last event = %T, expected DropSpawnedEvent", rec.last())
	}
	if spawned.Fall != 8*time.Second {
		t.Errorf("Fall = %v, expected easy preset 8s", spawned.Fall)
	}

	// spawn cadence: one drop per 3s on easy
	c.Advance(epoch.Add(2999 * time.Millisecond))
	if len(c.Drops()) != 1 {
		t.Errorf("spawned early: %d drops", len(c.Drops()))
	}
	c.Advance(epoch.Add(6 * time.Second))
	if len(c.Drops()) != 3 {
		t.Errorf("expected 3 drops at 6s, got %d", len(c.Drops()))
	}
	if q.Len() == 0 {
		t.Error("no timers armed while running")
	}
}

func TestStartIgnoredWhileRunning(t *testing.T) {
	c, _, _ := newTestController(t)
	c.Start("easy")

	if c.Start("hard") {
		t.Error("Start() should be ignored while running")
	}
	if c.State().Preset != difficulty.Easy {
		t.Error("preset changed while running")
	}
}

func TestStartUnknownPresetFallsBack(t *testing.T) {
	c, _, _ := newTestController(t)
	c.Start("nightmare")

	if c.State().Preset != difficulty.DefaultPreset {
		t.Errorf("Preset = %q, expected fallback %q", c.State().Preset, difficulty.DefaultPreset)
	}
	if c.Profile().SpawnInterval != 2*time.Second {
		t.Errorf("SpawnInterval = %v, expected medium 2s", c.Profile().SpawnInterval)
	}
}

func TestCorrectAnswerScores(t *testing.T) {
	c, _, rec := newTestController(t)
	c.Start("easy")

	if v := answerOldest(t, c); v != VerdictCorrect {
		t.Fatalf("verdict = %v, expected correct", v)
	}
	checkInvariants(t, c)

	s := c.State()
	if s.Score != 10 {
		t.Errorf("Score = %d, expected 10", s.Score)
	}
	if s.HasSelection() {
		t.Error("selection should be cleared after answering")
	}
	if len(c.Drops()) != 0 {
		t.Errorf("answered drop still live")
	}

	removed := rec.count(func(e Event) bool {
		r, ok := e.(DropRemovedEvent)
		return ok && r.Reason == RemovedAnswered
	})
	if removed != 1 {
		t.Errorf("got %d answered removals, expected 1", removed)
	}
}

func TestWrongAnswerCostsLife(t *testing.T) {
	c, _, _ := newTestController(t)
	c.Start("easy")
	d := c.Drops()[0]

	c.SelectDrop(d.ID)
	if v := c.SubmitAnswer(strconv.Itoa(d.Problem.Answer + 1)); v != VerdictWrong {
		t.Fatalf("verdict = %v, expected wrong", v)
	}
	checkInvariants(t, c)

	s := c.State()
	if s.Lives != 2 {
		t.Errorf("Lives = %d, expected 2", s.Lives)
	}
	if s.HasSelection() {
		t.Error("selection should be cleared after a wrong answer")
	}
	if _, ok := c.registry.Get(d.ID); !ok {
		t.Error("a wrong answer must not remove the drop")
	}
}

func TestUnparsableAnswerIsWrong(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "4.0", "12abc"} {
		c, _, _ := newTestController(t)
		c.Start("easy")
		c.SelectDrop(c.Drops()[0].ID)

		if v := c.SubmitAnswer(raw); v != VerdictWrong {
			t.Errorf("SubmitAnswer(%q) = %v, expected wrong", raw, v)
		}
		if c.State().Lives != 2 {
			t.Errorf("SubmitAnswer(%q) left %d lives", raw, c.State().Lives)
		}
	}
}

func TestSubmitWithoutSelection(t *testing.T) {
	c, _, _ := newTestController(t)
	c.Start("easy")

	if v := c.SubmitAnswer("5"); v != VerdictIgnored {
		t.Errorf("verdict = %v, expected ignored", v)
	}
	if c.State().Lives != 3 {
		t.Error("submitting without a selection must not cost a life")
	}
}

func TestThreeMissesEndGame(t *testing.T) {
	c, _, rec := newTestController(t)
	c.Start("easy")
	answerOldest(t, c)
	c.Advance(epoch.Add(3 * time.Second))

	for i := 0; i < 3; i++ {
		live := c.Drops()
		if len(live) == 0 {
			t.Fatalf("miss %d: no drop to answer", i)
		}
		c.SelectDrop(live[0].ID)
		c.SubmitAnswer("wrong")
		checkInvariants(t, c)
	}

	s := c.State()
	if s.Phase != PhaseOver {
		t.Fatalf("Phase = %v, expected over", s.Phase)
	}
	over, ok := rec.last().(GameOverEvent)
	if !ok {
		t.Fatalf("last event = %T, expected GameOverEvent", rec.last())
	}
	if over.FinalScore != 10 || over.FinalScore != s.Score {
		t.Errorf("FinalScore = %d, state score = %d, expected 10", over.FinalScore, s.Score)
	}

	// no drops, no timers, no input after game over
	if len(c.Drops()) != 0 {
		t.Error("drops left after game over")
	}
	c.Advance(epoch.Add(time.Hour))
	if len(c.Drops()) != 0 {
		t.Error("spawn timer still running after game over")
	}
	if c.SelectDrop(1) || c.SubmitAnswer("1") != VerdictIgnored {
		t.Error("input should be disabled after game over")
	}
}

func TestExpiryCostsLife(t *testing.T) {
	c, _, rec := newTestController(t)
	c.Start("hard") // spawn every 1.5s, fall 4s

	c.Advance(epoch.Add(3999 * time.Millisecond))
	if c.State().Lives != 3 {
		t.Fatalf("life lost before the first drop landed")
	}

	c.Advance(epoch.Add(4 * time.Second))
	checkInvariants(t, c)
	if c.State().Lives != 2 {
		t.Errorf("Lives = %d after first expiry, expected 2", c.State().Lives)
	}

	expired := rec.count(func(e Event) bool {
		r, ok := e.(DropRemovedEvent)
		return ok && r.Reason == RemovedExpired
	})
	if expired != 1 {
		t.Errorf("got %d expiries, expected 1", expired)
	}
}

func TestExpiriesEndGame(t *testing.T) {
	c, _, rec := newTestController(t)
	c.Start("hard")

	// drops land at 4s, 5.5s, 7s
	c.Advance(epoch.Add(time.Minute))
	checkInvariants(t, c)

	s := c.State()
	if s.Phase != PhaseOver || s.Lives != 0 {
		t.Fatalf("state = %+v, expected over with no lives", s)
	}

	livesEvents := rec.count(func(e Event) bool {
		_, ok := e.(LivesChangedEvent)
		return ok
	})
	// one at start plus one per miss
	if livesEvents != 4 {
		t.Errorf("got %d LivesChangedEvents, expected 4", livesEvents)
	}
	overs := rec.count(func(e Event) bool {
		_, ok := e.(GameOverEvent)
		return ok
	})
	if overs != 1 {
		t.Errorf("got %d GameOverEvents, expected 1", overs)
	}
}

func TestAnswerAtExpiryInstantNotPenalized(t *testing.T) {
	c, _, _ := newTestController(t)
	c.Start("easy")
	d := c.Drops()[0]

	// reach the last instant before landing, answer, then let the deadline pass
	c.Advance(d.ExpiresAt.Add(-time.Nanosecond))
	c.SelectDrop(d.ID)
	if v := c.SubmitAnswer(strconv.Itoa(d.Problem.Answer)); v != VerdictCorrect {
		t.Fatalf("verdict = %v", v)
	}
	c.Advance(d.ExpiresAt)

	if c.State().Lives != 3 {
		t.Errorf("Lives = %d, answered drop was penalized on expiry", c.State().Lives)
	}
}

func TestSelectionIsExclusive(t *testing.T) {
	c, _, rec := newTestController(t)
	c.Start("easy")
	c.Advance(epoch.Add(3 * time.Second))

	live := c.Drops()
	a, b := live[0], live[1]

	c.SelectDrop(a.ID)
	c.SelectDrop(b.ID)

	if got := c.State().Selected; got != b.ID {
		t.Errorf("Selected = %v, expected %v", got, b.ID)
	}
	if len(c.Drops()) != 2 {
		t.Error("selecting must never remove drops")
	}

	sel, ok := rec.last().(DropSelectedEvent)
	if !ok || sel.ID != b.ID || sel.Previous != a.ID {
		t.Errorf("last event = %#v, expected selection of b replacing a", rec.last())
	}

	if c.SelectDrop(drops.ID(12345)) {
		t.Error("selecting a missing drop should fail")
	}
	if c.State().Selected != b.ID {
		t.Error("failed select changed the selection")
	}
}

func TestLevelUpAtHundred(t *testing.T) {
	c, _, rec := newTestController(t)
	c.Start("easy")

	now := epoch
	for i := 0; i < 10; i++ {
		if i > 0 {
			now = now.Add(3 * time.Second)
			c.Advance(now)
		}
		if v := answerOldest(t, c); v != VerdictCorrect {
			t.Fatalf("answer %d: verdict %v", i, v)
		}
		checkInvariants(t, c)
	}

	s := c.State()
	if s.Score != 100 || s.Level != 2 {
		t.Fatalf("state = %+v, expected score 100 at level 2", s)
	}
	p := c.Profile()
	if p.SpawnInterval != 2800*time.Millisecond {
		t.Errorf("SpawnInterval = %v, expected 2.8s", p.SpawnInterval)
	}
	if p.FallDuration != 7700*time.Millisecond {
		t.Errorf("FallDuration = %v, expected 7.7s", p.FallDuration)
	}

	lvl := rec.count(func(e Event) bool {
		l, ok := e.(LevelChangedEvent)
		return ok && l.Level == 2
	})
	if lvl != 1 {
		t.Errorf("got %d LevelChangedEvents to 2, expected 1", lvl)
	}

	// The spawn timer restarts at the new interval from the level-up instant
	// instead of waiting for the old 3s cadence.
	c.Advance(now.Add(2799 * time.Millisecond))
	if len(c.Drops()) != 0 {
		t.Fatalf("spawned before the new interval elapsed")
	}
	c.Advance(now.Add(2800 * time.Millisecond))
	if len(c.Drops()) != 1 {
		t.Fatalf("expected a drop at the new 2.8s cadence, got %d", len(c.Drops()))
	}
	if d := c.Drops()[0]; d.ExpiresAt.Sub(d.CreatedAt) != 7700*time.Millisecond {
		t.Errorf("new drop falls for %v, expected 7.7s", d.ExpiresAt.Sub(d.CreatedAt))
	}

	// level 2 answers are worth 20
	answerOldest(t, c)
	if got := c.State().Score; got != 120 {
		t.Errorf("Score = %d, expected 120", got)
	}
}

func TestLevelUpOnlyOnExactMultiple(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PointsPerLevel = 30
	q := clock.NewQueue(epoch)
	c := New(Options{Config: cfg, Timers: q, Random: rand.New(rand.NewSource(5))})
	c.Start("medium")

	// 30, 60, 90, 120: never an exact multiple of 100 until 300
	now := epoch
	for i := 0; i < 4; i++ {
		if i > 0 {
			now = now.Add(2 * time.Second)
			c.Advance(now)
		}
		answerOldest(t, c)
	}
	if s := c.State(); s.Score != 120 || s.Level != 1 {
		t.Errorf("state = %+v, expected 120 at level 1", s)
	}
}

func TestScoreNeverDecreases(t *testing.T) {
	c, _, rec := newTestController(t)
	c.Start("medium")

	rng := rand.New(rand.NewSource(77))
	now := epoch
	for c.State().Phase == PhaseRunning {
		now = now.Add(500 * time.Millisecond)
		c.Advance(now)
		if live := c.Drops(); len(live) > 0 && rng.Intn(2) == 0 {
			d := live[rng.Intn(len(live))]
			c.SelectDrop(d.ID)
			if rng.Intn(3) == 0 {
				c.SubmitAnswer("x")
			} else {
				c.SubmitAnswer(strconv.Itoa(d.Problem.Answer))
			}
		}
		checkInvariants(t, c)
	}

	last := 0
	for _, e := range rec.events {
		if sc, ok := e.(ScoreChangedEvent); ok {
			if sc.Score < last {
				t.Fatalf("score decreased from %d to %d", last, sc.Score)
			}
			last = sc.Score
		}
	}
}

func TestRestartAfterGameOver(t *testing.T) {
	c, _, rec := newTestController(t)
	c.Start("hard")
	answerOldest(t, c)
	c.Advance(epoch.Add(time.Minute))
	if c.State().Phase != PhaseOver {
		t.Fatalf("expected game over, got %v", c.State().Phase)
	}

	rec.events = nil
	if !c.Start("easy") {
		t.Fatal("restart from over should succeed")
	}
	checkInvariants(t, c)

	s := c.State()
	if s.Score != 0 || s.Lives != 3 || s.Level != 1 || s.Preset != difficulty.Easy {
		t.Errorf("restarted state = %+v", s)
	}
	if c.Profile().SpawnInterval != 3*time.Second {
		t.Errorf("profile not reset: %v", c.Profile())
	}
	if len(c.Drops()) != 1 {
		t.Errorf("expected only the fresh drop, got %d", len(c.Drops()))
	}
	for _, d := range c.Drops() {
		if d.CreatedAt.Before(epoch.Add(time.Minute)) {
			t.Errorf("drop %v survived from the previous session", d.ID)
		}
	}
}

func TestStopReturnsToIdle(t *testing.T) {
	c, q, rec := newTestController(t)
	c.Start("easy")
	c.Advance(epoch.Add(3 * time.Second))

	c.Stop()
	checkInvariants(t, c)

	if c.State().Phase != PhaseIdle {
		t.Errorf("Phase = %v, expected idle", c.State().Phase)
	}
	if q.Len() != 0 {
		t.Errorf("%d timers still armed after Stop()", q.Len())
	}

	cleared := rec.count(func(e Event) bool {
		r, ok := e.(DropRemovedEvent)
		return ok && r.Reason == RemovedCleared
	})
	if cleared != 2 {
		t.Errorf("got %d cleared removals, expected 2", cleared)
	}
}

func TestDeterministicSessions(t *testing.T) {
	run := func() []string {
		c, _, _ := newTestController(t)
		c.Start("medium")
		c.Advance(epoch.Add(10 * time.Second))
		var exprs []string
		for _, d := range c.Drops() {
			exprs = append(exprs, d.Problem.Expression)
		}
		return exprs
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("drop %d: %q vs %q", i, a[i], b[i])
		}
	}
}
