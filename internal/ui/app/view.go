package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/universal-console/serialconsole/internal/ui/components"
)

var scrollbackTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#1e1e2e")).
	Background(lipgloss.Color("#FAB387")).
	Padding(0, 1)

// View implements tea.Model
func (m *Model) View() string {
	body := m.renderBody()
	if overlay := m.alerts.View(m.width); overlay != "" {
		body = overlayTop(body, overlay)
	}

	hint := "rich"
	if m.scrolling {
		hint = scrollbackTitleStyle.Render("SCROLLBACK") + " esc to return"
	}
	spin := ""
	if m.connecting() {
		spin = m.spinner.View()
	}

	sections := []string{
		body,
		components.RenderStatusBar(m.status, spin, hint, m.width),
		m.legend.View(),
	}
	return strings.Join(sections, "\n")
}

func (m *Model) renderBody() string {
	switch {
	case m.picker.IsVisible():
		return m.picker.View()
	case m.scrolling:
		return m.viewport.View()
	default:
		return m.term.Render()
	}
}

// overlayTop replaces the first lines of body with overlay
func overlayTop(body, overlay string) string {
	lines := strings.Split(body, "\n")
	for i, l := range strings.Split(overlay, "\n") {
		if i >= len(lines) {
			break
		}
		lines[i] = l
	}
	return strings.Join(lines, "\n")
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
