package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/mathrain/internal/core"
)

// colorStyles maps color roles to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault:  lipgloss.NewStyle(),
	core.ColorDrop:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	core.ColorSelected: lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Bold(true),
	core.ColorUrgent:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
	core.ColorGround:   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	core.ColorBorder:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	core.ColorHUD:      lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true),
	core.ColorGood:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorBad:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	core.ColorDim:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Adjacent cells with the same color share one styled run.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}
		s.Runs(y, func(text string, c core.Color) {
			style, ok := colorStyles[c]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(text))
		})
	}
	return sb.String()
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}
