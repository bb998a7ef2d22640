package tui

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/vovakirdan/mathrain/internal/core"
	"github.com/vovakirdan/mathrain/internal/difficulty"
	"github.com/vovakirdan/mathrain/internal/drops"
	"github.com/vovakirdan/mathrain/internal/raindrops"
)

// Board layout constants
const (
	minBoardW     = 32
	minBoardH     = 10
	flashDuration = 1500 * time.Millisecond
	urgentAt      = 0.75 // Progress after which a drop is drawn as urgent

	tooSmallNotice = "too small"
)

// Frame is everything the board needs to draw one frame.
type Frame struct {
	State    raindrops.State
	Profile  difficulty.Profile
	Drops    []drops.Drop
	Now      time.Time
	MaxLives int
	Answer   string   // Answer field as typed
	Presets  []string // Shown while Idle or Over
	Cursor   int      // Highlighted preset
}

type hitBox struct {
	id   drops.ID
	rect core.Rect
}

type flash struct {
	text  string
	color core.Color
	until time.Time
}

// Board draws the playfield. It listens to controller events to place new
// drops in lanes and to show short feedback messages.
type Board struct {
	rng   *rand.Rand
	now   func() time.Time
	lanes map[drops.ID]float64 // Horizontal position as a fraction of the free width
	hits  []hitBox
	flash flash
	over  *raindrops.GameOverEvent
}

// NewBoard creates a board. now supplies game time for feedback messages.
func NewBoard(seed int64, now func() time.Time) *Board {
	return &Board{
		rng:   rand.New(rand.NewSource(seed)),
		now:   now,
		lanes: make(map[drops.ID]float64),
	}
}

// HandleEvent implements raindrops.Listener.
func (b *Board) HandleEvent(e raindrops.Event) {
	switch e := e.(type) {
	case raindrops.GameStartedEvent:
		clear(b.lanes)
		b.over = nil
		b.show(fmt.Sprintf("%s: go!", strings.ToUpper(string(e.Preset))), core.ColorHUD)

	case raindrops.DropSpawnedEvent:
		b.lanes[e.Drop.ID] = b.rng.Float64()

	case raindrops.DropRemovedEvent:
		delete(b.lanes, e.Drop.ID)
		if e.Reason == raindrops.RemovedExpired {
			b.show(fmt.Sprintf("splash! %s = %d", e.Drop.Problem.Expression, e.Drop.Problem.Answer), core.ColorBad)
		}

	case raindrops.AnswerJudgedEvent:
		if e.Correct {
			b.show(fmt.Sprintf("%s = %d", e.Drop.Problem.Expression, e.Drop.Problem.Answer), core.ColorGood)
		} else {
			given := e.Given
			if given == "" {
				given = "nothing"
			}
			b.show(fmt.Sprintf("%s is not %s", e.Drop.Problem.Expression, given), core.ColorBad)
		}

	case raindrops.LevelChangedEvent:
		if e.Level > 1 {
			b.show(fmt.Sprintf("level %d!", e.Level), core.ColorGood)
		}

	case raindrops.GameOverEvent:
		over := e
		b.over = &over
	}
}

func (b *Board) show(text string, c core.Color) {
	b.flash = flash{text: text, color: c, until: b.now().Add(flashDuration)}
}

// At returns the drop drawn at screen cell (x, y) in the last frame.
// Drops drawn later sit on top.
func (b *Board) At(x, y int) (drops.ID, bool) {
	for i := len(b.hits) - 1; i >= 0; i-- {
		if b.hits[i].rect.Contains(x, y) {
			return b.hits[i].id, true
		}
	}
	return 0, false
}

// Render draws a frame into s.
func (b *Board) Render(s *core.Screen, f Frame) {
	s.Clear()
	b.hits = b.hits[:0]

	if s.Width() < minBoardW || s.Height() < minBoardH {
		s.DrawTextColored(0, 0, tooSmallNotice, core.ColorBad)
		return
	}

	b.drawHUD(s, f)

	field := s.Bounds()
	field.Y, field.H = 1, field.H-3
	s.DrawBox(field, core.ColorBorder)
	inner := field.Inset(1)
	ground := inner.Bottom() - 1
	s.DrawHLine(inner.X, ground, inner.W, '~', core.ColorGround)

	if f.State.Phase == raindrops.PhaseRunning {
		b.drawDrops(s, core.NewRect(inner.X, inner.Y, inner.W, inner.H-1), f)
	} else {
		b.drawPresetMenu(s, inner, f)
	}

	b.drawPrompt(s, f)

	if f.Now.Before(b.flash.until) {
		s.DrawTextColored(1, s.Height()-1, b.flash.text, b.flash.color)
	}
}

func (b *Board) drawHUD(s *core.Screen, f Frame) {
	st := f.State
	lives := strings.Repeat("♥", st.Lives) + strings.Repeat("♡", max(f.MaxLives-st.Lives, 0))
	hud := fmt.Sprintf("SCORE %d   LIVES %s   LEVEL %d", st.Score, lives, st.Level)
	s.DrawTextColored(1, 0, hud, core.ColorHUD)

	if st.Phase == raindrops.PhaseRunning {
		pace := fmt.Sprintf("%s  fall %.1fs  every %.1fs",
			st.Preset, f.Profile.FallDuration.Seconds(), f.Profile.SpawnInterval.Seconds())
		s.DrawTextColored(s.Width()-len(pace)-1, 0, pace, core.ColorDim)
	}
}

// drawDrops places each drop by its fall progress and records hit boxes.
func (b *Board) drawDrops(s *core.Screen, area core.Rect, f Frame) {
	for _, d := range f.Drops {
		label := " " + d.Problem.Expression + " "
		color := core.ColorDrop
		progress := d.Progress(f.Now)
		switch {
		case d.ID == f.State.Selected:
			label = "[" + d.Problem.Expression + "]"
			color = core.ColorSelected
		case progress >= urgentAt:
			color = core.ColorUrgent
		}

		lane, ok := b.lanes[d.ID]
		if !ok {
			lane = b.rng.Float64()
			b.lanes[d.ID] = lane
		}

		w := len([]rune(label))
		x := area.X + int(lane*float64(max(area.W-w, 0)))
		y := area.Y + int(core.ClampF(progress, 0, 1)*float64(max(area.H-1, 0)))
		rect := b.unblock(core.NewRect(x, y, w, 1), area)

		s.DrawTextColored(rect.X, rect.Y, label, color)
		b.hits = append(b.hits, hitBox{id: d.ID, rect: rect})
	}
}

// unblock slides r sideways past labels already drawn on its row so every
// drop stays readable and clickable. It gives up once the row is full.
func (b *Board) unblock(r core.Rect, area core.Rect) core.Rect {
	for range len(b.hits) {
		i := slices.IndexFunc(b.hits, func(h hitBox) bool { return h.rect.Intersects(r) })
		if i < 0 {
			return r
		}
		next := b.hits[i].rect.Right() + 1
		if next+r.W > area.Right() {
			return r
		}
		r.X = core.Clamp(next, area.X, area.Right()-r.W)
	}
	return r
}

func (b *Board) drawPresetMenu(s *core.Screen, area core.Rect, f Frame) {
	y := area.Y + max((area.H-len(f.Presets)-6)/2, 0)

	s.DrawTextCentered(area, y, "M A T H   R A I N", core.ColorHUD)
	y += 2

	if b.over != nil && f.State.Phase == raindrops.PhaseOver {
		s.DrawTextCentered(area, y, fmt.Sprintf("GAME OVER  score %d  level %d", b.over.FinalScore, b.over.Level), core.ColorBad)
		y++
	}
	s.DrawTextCentered(area, y, "choose a difficulty", core.ColorDim)
	y += 2

	for i, name := range f.Presets {
		line := "  " + name + "  "
		color := core.ColorDefault
		if i == f.Cursor {
			line = "> " + name + " <"
			color = core.ColorSelected
		}
		s.DrawTextCentered(area, y+i, line, color)
	}
}

func (b *Board) drawPrompt(s *core.Screen, f Frame) {
	y := s.Height() - 2
	switch {
	case f.State.Phase != raindrops.PhaseRunning:
		s.DrawTextColored(1, y, "press enter to start", core.ColorDim)
	case !f.State.HasSelection():
		s.DrawTextColored(1, y, "pick a drop: tab or click", core.ColorDim)
	default:
		expr := ""
		for _, d := range f.Drops {
			if d.ID == f.State.Selected {
				expr = d.Problem.Expression
				break
			}
		}
		s.DrawTextColored(1, y, expr+" = ", core.ColorSelected)
		s.DrawTextColored(len([]rune(expr))+4, y, f.Answer+"_", core.ColorHUD)
	}
}
