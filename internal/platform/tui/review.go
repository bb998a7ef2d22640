package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/mathrain/internal/storage"
)

// Review layout constants
const (
	reviewRows = 100 // Max journal rows to load per view
)

// ReviewView selects what the review screen lists.
type ReviewView int

const (
	ViewTroubleSpots ReviewView = iota
	ViewRecent
)

var reviewTitles = []string{"Trouble spots", "Recent attempts"}

// ReviewKeyMap defines the key bindings for the review screen.
type ReviewKeyMap struct {
	Up   key.Binding
	Down key.Binding
	Next key.Binding
	Quit key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ReviewKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Next, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ReviewKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Next, k.Quit}}
}

// DefaultReviewKeyMap returns default key bindings.
func DefaultReviewKeyMap() ReviewKeyMap {
	return ReviewKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "shift+tab", "left", "right"),
			key.WithHelp("tab", "switch view"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ReviewModel is the Bubble Tea model for browsing the practice journal.
type ReviewModel struct {
	store    *storage.Store
	view     ReviewView
	summary  storage.Summary
	spots    []storage.TroubleSpot
	attempts []storage.Attempt
	loadErr  error
	table    table.Model
	help     help.Model
	keys     ReviewKeyMap
	width    int
	height   int
	quitting bool
}

// NewReviewModel creates a review model and loads the journal.
func NewReviewModel(store *storage.Store, view ReviewView, width, height int) ReviewModel {
	h := help.New()
	h.ShowAll = false

	m := ReviewModel{
		store:  store,
		view:   view,
		keys:   DefaultReviewKeyMap(),
		help:   h,
		width:  width,
		height: height,
	}
	m.load()
	m.table = m.createTable()
	m.updateTableRows()
	return m
}

// load reads everything the screen shows. A failure is kept for display.
func (m *ReviewModel) load() {
	var err error
	if m.summary, err = m.store.Summarize(); err != nil {
		m.loadErr = err
		return
	}
	if m.spots, err = m.store.TroubleSpots(reviewRows); err != nil {
		m.loadErr = err
		return
	}
	if m.attempts, err = m.store.RecentAttempts(reviewRows); err != nil {
		m.loadErr = err
	}
}

// createTable creates a table with columns for the current view.
func (m *ReviewModel) createTable() table.Model {
	var columns []table.Column
	switch m.view {
	case ViewRecent:
		columns = []table.Column{
			{Title: "Problem", Width: 12},
			{Title: "Answer", Width: 7},
			{Title: "Given", Width: 7},
			{Title: "Outcome", Width: 9},
			{Title: "Lvl", Width: 4},
			{Title: "When", Width: 13},
		}
	default:
		columns = []table.Column{
			{Title: "Problem", Width: 12},
			{Title: "Answer", Width: 7},
			{Title: "Misses", Width: 7},
			{Title: "Seen", Width: 6},
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-9, 3)), // Leave room for header, help, and margins
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// updateTableRows fills the table for the current view.
func (m *ReviewModel) updateTableRows() {
	var rows []table.Row
	switch m.view {
	case ViewRecent:
		rows = make([]table.Row, len(m.attempts))
		for i, a := range m.attempts {
			given := a.Given
			if given == "" {
				given = "-"
			}
			rows[i] = table.Row{
				a.Expression,
				fmt.Sprintf("%d", a.Answer),
				given,
				string(a.Outcome),
				fmt.Sprintf("%d", a.Level),
				a.CreatedAt.Format("Jan 02 15:04"),
			}
		}
	default:
		rows = make([]table.Row, len(m.spots))
		for i, t := range m.spots {
			rows[i] = table.Row{
				t.Expression,
				fmt.Sprintf("%d", t.Answer),
				fmt.Sprintf("%d", t.Misses),
				fmt.Sprintf("%d", t.Attempts),
			}
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init initializes the review model.
func (m ReviewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the review screen.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Next):
			m.view = (m.view + 1) % ReviewView(len(reviewTitles))
			m.table = m.createTable()
			m.updateTableRows()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the review screen.
func (m ReviewModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	b.WriteString(titleStyle.Render(centerText("PRACTICE JOURNAL - "+reviewTitles[m.view], m.width)))
	b.WriteString("\n\n")

	summaryStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	summary := fmt.Sprintf("%d sessions   %d correct   %d wrong   %d landed   %.0f%% accuracy",
		m.summary.Sessions, m.summary.Correct, m.summary.Wrong, m.summary.Expired, m.summary.Accuracy()*100)
	b.WriteString(summaryStyle.Render(centerText(summary, m.width)))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(centerText(tableStyle.Render(m.renderTableContent()), m.width))

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderTableContent renders the table or an explanatory message.
func (m ReviewModel) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)

	if m.loadErr != nil {
		return emptyStyle.Render("Could not read the journal:\n" + m.loadErr.Error())
	}
	if len(m.table.Rows()) == 0 {
		if m.view == ViewTroubleSpots {
			return emptyStyle.Render("No misses recorded yet.\nKeep it up!")
		}
		return emptyStyle.Render("No attempts recorded yet.\nPlay a round to fill the journal.")
	}
	return m.table.View()
}

// RunReview runs the review screen until the user quits.
func RunReview(store *storage.Store, view ReviewView, width, height int) error {
	p := tea.NewProgram(
		NewReviewModel(store, view, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
