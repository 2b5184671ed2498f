// Package components provides the reusable pieces of the rich terminal view:
// the connection indicator, the alert stack and the terminal emulator.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/link"
)

// Indicator colors of the firmware web console.
const (
	ColorGood         = "#00ff00"
	ColorUnstable     = "#ffff00"
	ColorPoor         = "#ff9900"
	ColorReconnecting = "#0099ff"
	ColorDown         = "#ff0000"
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#313244")).
			Padding(0, 1)

	channelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89B4FA"))

	rttStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))
)

// StatusIcon returns the glyph shown for state and quality
func StatusIcon(state link.State, quality link.Quality) string {
	switch state {
	case link.StateConnected:
		switch quality {
		case link.QualityUnstable:
			return "◐"
		case link.QualityPoor:
			return "○"
		default:
			return "●"
		}
	case link.StateConnecting, link.StateReconnecting:
		return "⟳"
	default:
		return "○"
	}
}

// StatusText describes the connection state
func StatusText(s interfaces.LinkStatus) string {
	switch s.State {
	case link.StateConnected:
		return "Connected"
	case link.StateConnecting:
		return "Connecting"
	case link.StateReconnecting:
		return fmt.Sprintf("Reconnecting (%d/%d)", s.Attempts, s.MaxAttempts)
	case link.StateFailed:
		return "Connection Failed"
	default:
		return "Disconnected"
	}
}

// StatusColor picks the indicator color. Quality only matters while
// connected.
func StatusColor(state link.State, quality link.Quality) string {
	switch state {
	case link.StateConnected:
		switch quality {
		case link.QualityUnstable:
			return ColorUnstable
		case link.QualityPoor:
			return ColorPoor
		default:
			return ColorGood
		}
	case link.StateReconnecting:
		return ColorReconnecting
	default:
		return ColorDown
	}
}

// RenderStatus formats the indicator, e.g. "● Connected". spinner replaces
// the icon while a connection attempt is in flight.
func RenderStatus(s interfaces.LinkStatus, spinner string) string {
	icon := StatusIcon(s.State, s.Quality)
	if spinner != "" && (s.State == link.StateConnecting || s.State == link.StateReconnecting) {
		icon = spinner
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(StatusColor(s.State, s.Quality)))
	return style.Render(icon + " " + StatusText(s))
}

// RenderStatusBar lays out the indicator, channel label and last probe RTT
// across width columns
func RenderStatusBar(s interfaces.LinkStatus, spinner, hint string, width int) string {
	parts := []string{RenderStatus(s, spinner)}
	if s.ChannelLabel != "" {
		parts = append(parts, channelStyle.Render(s.ChannelLabel))
	}
	if s.State == link.StateConnected && s.RTT > 0 {
		parts = append(parts, rttStyle.Render(fmt.Sprintf("%dms", s.RTT.Milliseconds())))
	}
	left := strings.Join(parts, "  ")

	if width <= 0 {
		return statusBarStyle.Render(left)
	}
	inner := width - statusBarStyle.GetHorizontalFrameSize()
	gap := inner - lipgloss.Width(left) - lipgloss.Width(hint)
	if gap < 1 {
		return statusBarStyle.Width(width).Render(left)
	}
	return statusBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + hint)
}
