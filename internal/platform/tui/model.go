package tui

import (
	"io"
	"math/rand"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/mathrain/internal/clock"
	"github.com/vovakirdan/mathrain/internal/core"
	"github.com/vovakirdan/mathrain/internal/difficulty"
	"github.com/vovakirdan/mathrain/internal/drops"
	"github.com/vovakirdan/mathrain/internal/problem"
	"github.com/vovakirdan/mathrain/internal/raindrops"
	"github.com/vovakirdan/mathrain/internal/storage"
)

// Options configures a game model.
type Options struct {
	Rules   raindrops.Config
	Runtime core.RuntimeConfig
	Store   *storage.Store // Practice journal; nil disables journaling
	Player  string
	Preset  string    // Initially highlighted preset
	Start   time.Time // Game clock origin; zero means now
	Logger  *log.Logger
}

// Model is the Bubble Tea model for one player's game.
type Model struct {
	ctrl     *raindrops.Controller
	board    *Board
	journal  *storage.Journal
	screen   *core.Screen
	input    textinput.Model
	help     help.Model
	keys     *KeyMapper
	presets  []string
	cursor   int
	maxLives int
	config   core.RuntimeConfig
	logger   *log.Logger
	quitting bool
}

// NewModel creates a game model sitting at the preset menu.
func NewModel(opts Options) Model {
	cfg := opts.Runtime
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.FPS <= 0 {
		cfg.FPS = core.DefaultConfig().FPS
	}
	start := opts.Start
	if start.IsZero() {
		start = time.Now()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	rules := opts.Rules
	if rules.Presets == nil {
		rules = raindrops.DefaultConfig()
	}

	timers := clock.NewQueue(start)
	board := NewBoard(cfg.Seed+1, timers.Now)

	var journal *storage.Journal
	listeners := []raindrops.Listener{board}
	if opts.Store != nil {
		journal = storage.NewJournal(opts.Store, opts.Player, logger)
		listeners = append(listeners, journal)
	}

	ctrl := raindrops.New(raindrops.Options{
		Config:   rules,
		Timers:   timers,
		Random:   rand.New(rand.NewSource(cfg.Seed)),
		Listener: raindrops.Multi(listeners...),
		Logger:   logger,
	})

	presets := make([]string, 0)
	for _, e := range ctrl.Presets().Entries() {
		presets = append(presets, string(e.Name))
	}

	input := textinput.New()
	input.CharLimit = answerLimit(ctrl.Presets())
	input.Focus()

	h := help.New()
	h.ShowAll = false

	return Model{
		ctrl:     ctrl,
		board:    board,
		journal:  journal,
		screen:   core.NewScreen(cfg.ScreenW, max(cfg.ScreenH-1, 0)),
		input:    input,
		help:     h,
		keys:     NewKeyMapper(),
		presets:  presets,
		cursor:   ctrl.Presets().Index(difficulty.ParsePreset(opts.Preset)),
		maxLives: ctrl.State().Lives,
		config:   cfg,
		logger:   logger,
	}
}

// answerLimit is the width of the longest answer any preset can produce,
// plus one for a sign.
func answerLimit(t *difficulty.Table) int {
	longest := 1
	for _, e := range t.Entries() {
		longest = max(longest, problem.MaxAnswer(e.Profile.OperandCeiling))
	}
	return len(strconv.Itoa(longest)) + 1
}

// Init starts the frame loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.config.FPS)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.screen.Resize(msg.Width, max(msg.Height-1, 0))
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		m.ctrl.Advance(time.Time(msg))
		return m, tickCmd(m.config.FPS)
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	running := m.ctrl.State().Phase == raindrops.PhaseRunning

	switch m.keys.MapKey(msg) {
	case core.ActionQuit:
		m.shutdown()
		m.quitting = true
		return m, tea.Quit

	case core.ActionHelp:
		m.help.ShowAll = !m.help.ShowAll

	case core.ActionRestart:
		if running {
			m.shutdown()
			m.input.Reset()
		}

	case core.ActionNext:
		if running {
			m.cycleSelection(1)
		}

	case core.ActionPrev:
		if running {
			m.cycleSelection(-1)
		}

	case core.ActionUp:
		if !running {
			m.moveCursor(-1)
		}

	case core.ActionDown:
		if !running {
			m.moveCursor(1)
		}

	case core.ActionConfirm:
		if running {
			m.ctrl.SubmitAnswer(m.input.Value())
			m.input.Reset()
		} else if len(m.presets) > 0 {
			m.ctrl.Start(m.presets[m.cursor])
			m.maxLives = m.ctrl.State().Lives
		}

	case core.ActionNone:
		if running && IsAnswerInput(msg) {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// handleMouse selects the drop under a left click.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if id, ok := m.board.At(msg.X, msg.Y); ok {
		m.ctrl.SelectDrop(id)
	}
	return m, nil
}

// cycleSelection moves the selection through drops in creation order,
// starting from the oldest when nothing is selected.
func (m *Model) cycleSelection(step int) {
	live := m.ctrl.Drops()
	if len(live) == 0 {
		return
	}

	selected := m.ctrl.State().Selected
	i := slices.IndexFunc(live, func(d drops.Drop) bool { return d.ID == selected })
	switch {
	case i < 0 && step > 0:
		i = 0
	case i < 0:
		i = len(live) - 1
	default:
		i = (i + step + len(live)) % len(live)
	}
	m.ctrl.SelectDrop(live[i].ID)
}

func (m *Model) moveCursor(step int) {
	if len(m.presets) == 0 {
		return
	}
	m.cursor = (m.cursor + step + len(m.presets)) % len(m.presets)
}

// shutdown returns the controller to Idle and closes the journal session.
func (m *Model) shutdown() {
	if st := m.ctrl.State(); st.Phase == raindrops.PhaseRunning {
		m.logger.Debug("session abandoned", "score", st.Score, "level", st.Level)
	}
	m.ctrl.Stop()
	if m.journal != nil {
		m.journal.Finish()
	}
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	m.board.Render(m.screen, m.frame())

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	return RenderScreen(m.screen) + "\n" + helpStyle.Render(m.help.View(m.keys.Keys()))
}

func (m Model) frame() Frame {
	return Frame{
		State:    m.ctrl.State(),
		Profile:  m.ctrl.Profile(),
		Drops:    m.ctrl.Drops(),
		Now:      m.ctrl.Now(),
		MaxLives: m.maxLives,
		Answer:   m.input.Value(),
		Presets:  m.presets,
		Cursor:   m.cursor,
	}
}

// Run starts the Bubble Tea program with the given options.
func Run(opts Options) error {
	model := NewModel(opts)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Click to select a drop
	)

	_, err := p.Run()
	return err
}
