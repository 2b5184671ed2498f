// Package menu implements the channel picker: a small overlay listing the
// multiplexer's channels, opened from the rich terminal.
package menu

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ChannelSelectedMsg is sent when the operator picks a channel
type ChannelSelectedMsg struct {
	Index int
}

// ClosedMsg is sent when the picker is dismissed without a choice
type ClosedMsg struct{}

// MenuModel is the channel picker state
type MenuModel struct {
	labels        []string
	current       int
	selectedIndex int
	visible       bool

	width  int
	height int
}

// NewMenuModel creates a hidden picker over labels
func NewMenuModel(labels []string) *MenuModel {
	return &MenuModel{labels: append([]string(nil), labels...)}
}

// Init implements tea.Model
func (m *MenuModel) Init() tea.Cmd {
	return nil
}

// Open shows the picker with the active channel highlighted
func (m *MenuModel) Open(current int) {
	m.current = current
	m.selectedIndex = current
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.labels) {
		m.selectedIndex = 0
	}
	m.visible = true
}

// SetCurrent marks the active channel
func (m *MenuModel) SetCurrent(index int) {
	m.current = index
}

// Close hides the picker
func (m *MenuModel) Close() {
	m.visible = false
}

// IsVisible reports whether the picker is open
func (m *MenuModel) IsVisible() bool {
	return m.visible
}

// Selected returns the highlighted index
func (m *MenuModel) Selected() int {
	return m.selectedIndex
}

// SetLabels replaces the channel labels
func (m *MenuModel) SetLabels(labels []string) {
	m.labels = append([]string(nil), labels...)
	if m.selectedIndex >= len(m.labels) {
		m.selectedIndex = 0
	}
}

// SetSize records the area the picker is centered in
func (m *MenuModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func selected(index int) tea.Cmd {
	return func() tea.Msg { return ChannelSelectedMsg{Index: index} }
}

func closed() tea.Msg {
	return ClosedMsg{}
}
