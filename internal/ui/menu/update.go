package menu

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles keys while the picker is open. Digits pick a channel
// directly.
func (m *MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !m.visible || len(m.labels) == 0 {
		return m, nil
	}

	switch key.String() {
	case "up", "k", "shift+tab":
		m.selectedIndex--
		if m.selectedIndex < 0 {
			m.selectedIndex = len(m.labels) - 1
		}
	case "down", "j", "tab":
		m.selectedIndex = (m.selectedIndex + 1) % len(m.labels)
	case "enter":
		m.visible = false
		return m, selected(m.selectedIndex)
	case "esc", "f2", "q":
		m.visible = false
		return m, closed
	default:
		if r := key.Runes; len(r) == 1 && r[0] >= '1' && r[0] <= '9' {
			index := int(r[0] - '1')
			if index < len(m.labels) {
				m.selectedIndex = index
				m.visible = false
				return m, selected(index)
			}
		}
	}
	return m, nil
}
