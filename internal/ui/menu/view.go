package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#CBA6F7")).
			Padding(0, 1)

	listItemStyle    = lipgloss.NewStyle().PaddingLeft(1)
	focusedItemStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				Foreground(lipgloss.Color("#1e1e2e")).
				Background(lipgloss.Color("#FAB387"))

	activeMarkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

// View renders the picker box, centered when a size is known
func (m *MenuModel) View() string {
	if !m.visible {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("Select channel"))
	s.WriteString("\n\n")

	for i, label := range m.labels {
		mark := "  "
		if i == m.current {
			mark = activeMarkStyle.Render("● ")
		}
		item := fmt.Sprintf("%d  %s", i+1, label)
		if i == m.selectedIndex {
			s.WriteString(mark + focusedItemStyle.Render(item))
		} else {
			s.WriteString(mark + listItemStyle.Render(item))
		}
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓ move · enter select · 1-9 jump · esc close"))

	box := boxStyle.Render(s.String())
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
