// Package actions renders the key legend under the terminal: the global
// shortcuts and, after the link gives up, the recovery actions.
package actions

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/universal-console/serialconsole/internal/interfaces"
)

var (
	legendStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")).
			Padding(0, 1)

	recoveryPaneStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), true, false, false, false).
				BorderForeground(lipgloss.Color("#F38BA8")).
				Padding(0, 1)

	keyStyles = map[string]lipgloss.Style{
		"primary":  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89B4FA")),
		"recovery": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#F38BA8")).Padding(0, 1),
	}
)

// DefaultShortcuts are the rich renderer's global keys
var DefaultShortcuts = []interfaces.KeyAction{
	{Name: "Channel", Key: "F2"},
	{Name: "Plain", Key: "F6"},
	{Name: "Scrollback", Key: "F7"},
	{Name: "Reconnect", Key: "F9"},
	{Name: "Quit", Key: "F10"},
}

// Pane is the key legend
type Pane struct {
	shortcuts []interfaces.KeyAction
	recovery  []interfaces.KeyAction
	width     int
}

// NewPane creates a legend listing shortcuts
func NewPane(shortcuts []interfaces.KeyAction) *Pane {
	return &Pane{shortcuts: shortcuts}
}

// SetRecovery shows actions as recovery options; nil hides them
func (p *Pane) SetRecovery(actions []interfaces.KeyAction) {
	p.recovery = actions
}

// Recovery returns the recovery options shown
func (p *Pane) Recovery() []interfaces.KeyAction {
	return p.recovery
}

// SetWidth sets the rendering width of the pane.
func (p *Pane) SetWidth(width int) {
	p.width = width
}

// Height returns the number of lines View renders
func (p *Pane) Height() int {
	if len(p.recovery) > 0 {
		// border, title, keys, legend
		return 4
	}
	return 1
}

// View renders the legend
func (p *Pane) View() string {
	legend := legendStyle.Render(renderKeys(p.shortcuts, keyStyles["primary"]))
	if p.width > 0 {
		legend = legendStyle.Width(p.width).Render(renderKeys(p.shortcuts, keyStyles["primary"]))
	}
	if len(p.recovery) == 0 {
		return legend
	}

	recovery := lipgloss.JoinVertical(lipgloss.Left,
		"Connection failed. Recovery options:",
		renderKeys(p.recovery, keyStyles["recovery"]),
	)
	style := recoveryPaneStyle
	if p.width > 0 {
		style = style.Width(p.width)
	}
	return lipgloss.JoinVertical(lipgloss.Left, style.Render(recovery), legend)
}

// renderKeys formats actions as "F2 Channel  F6 Plain"
func renderKeys(actions []interfaces.KeyAction, keyStyle lipgloss.Style) string {
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		if a.Key == "" {
			parts = append(parts, a.Name)
			continue
		}
		parts = append(parts, keyStyle.Render(a.Key)+" "+a.Name)
	}
	return strings.Join(parts, "  ")
}
