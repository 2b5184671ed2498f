package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/universal-console/serialconsole/internal/interfaces"
)

// AlertLifetime is how long a non-sticky alert stays on screen
const AlertLifetime = 3 * time.Second

var (
	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)

	defaultAlertColors = alertColors{
		err:  lipgloss.Color("#ff4444"),
		info: lipgloss.Color("#4444ff"),
		warn: lipgloss.Color("#b36b00"),
	}
)

type alertColors struct {
	err, info, warn lipgloss.Color
}

type shownAlert struct {
	alert interfaces.Alert
	since time.Time
}

// AlertStack holds the alerts shown in the top-right corner
type AlertStack struct {
	alerts []shownAlert
	limit  int
	colors alertColors
}

// NewAlertStack creates a stack showing at most limit alerts, colored from
// theme when one is given
func NewAlertStack(limit int, theme *interfaces.Theme) *AlertStack {
	if limit <= 0 {
		limit = 3
	}
	colors := defaultAlertColors
	if theme != nil {
		if theme.Error != "" {
			colors.err = lipgloss.Color(theme.Error)
		}
		if theme.Info != "" {
			colors.info = lipgloss.Color(theme.Info)
		}
		if theme.Warning != "" {
			colors.warn = lipgloss.Color(theme.Warning)
		}
	}
	return &AlertStack{limit: limit, colors: colors}
}

// Push adds an alert, dropping the oldest beyond the limit
func (s *AlertStack) Push(a interfaces.Alert, now time.Time) {
	s.alerts = append(s.alerts, shownAlert{alert: a, since: now})
	if len(s.alerts) > s.limit {
		s.alerts = s.alerts[len(s.alerts)-s.limit:]
	}
}

// Expire drops non-sticky alerts older than AlertLifetime. It reports
// whether anything changed.
func (s *AlertStack) Expire(now time.Time) bool {
	kept := s.alerts[:0]
	for _, a := range s.alerts {
		if a.alert.Sticky || now.Sub(a.since) < AlertLifetime {
			kept = append(kept, a)
		}
	}
	changed := len(kept) != len(s.alerts)
	s.alerts = kept
	return changed
}

// ClearSticky drops the sticky alerts, once the condition behind them ended
func (s *AlertStack) ClearSticky() {
	kept := s.alerts[:0]
	for _, a := range s.alerts {
		if !a.alert.Sticky {
			kept = append(kept, a)
		}
	}
	s.alerts = kept
}

// Dismiss drops every alert
func (s *AlertStack) Dismiss() {
	s.alerts = nil
}

// Len returns the number of alerts shown
func (s *AlertStack) Len() int {
	return len(s.alerts)
}

// Sticky returns the newest sticky alert, if any
func (s *AlertStack) Sticky() (interfaces.Alert, bool) {
	for i := len(s.alerts) - 1; i >= 0; i-- {
		if s.alerts[i].alert.Sticky {
			return s.alerts[i].alert, true
		}
	}
	return interfaces.Alert{}, false
}

// View renders the alerts right-aligned within width, newest last
func (s *AlertStack) View(width int) string {
	if len(s.alerts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(s.alerts))
	for _, a := range s.alerts {
		lines = append(lines, s.renderAlert(a.alert))
	}
	block := lipgloss.JoinVertical(lipgloss.Right, lines...)
	if width <= 0 {
		return block
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
}

func (s *AlertStack) renderAlert(a interfaces.Alert) string {
	bg := s.colors.info
	switch a.Kind {
	case interfaces.NoticeError:
		bg = s.colors.err
	case interfaces.NoticeWarning:
		bg = s.colors.warn
	}
	text := a.Message
	if a.Sticky && len(a.Actions) > 0 {
		text += "  " + RenderRecoveryHint(a.Actions)
	}
	return alertStyle.Background(bg).Render(text)
}

// RenderRecoveryHint lists actions as "F9 Reconnect · F10 Quit"
func RenderRecoveryHint(actions []interfaces.KeyAction) string {
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		if a.Key == "" {
			parts = append(parts, a.Name)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", a.Key, a.Name))
	}
	return strings.Join(parts, " · ")
}
