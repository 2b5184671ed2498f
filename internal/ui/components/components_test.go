package components

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/link"
)

func TestStatusText(t *testing.T) {
	tests := []struct {
		status   interfaces.LinkStatus
		expected string
	}{
		{interfaces.LinkStatus{State: link.StateConnected}, "Connected"},
		{interfaces.LinkStatus{State: link.StateConnecting}, "Connecting"},
		{interfaces.LinkStatus{State: link.StateReconnecting, Attempts: 2, MaxAttempts: 10}, "Reconnecting (2/10)"},
		{interfaces.LinkStatus{State: link.StateFailed}, "Connection Failed"},
		{interfaces.LinkStatus{State: link.StateDisconnected}, "Disconnected"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusText(tt.status))
		})
	}
}

func TestStatusColorFollowsQualityOnlyWhenConnected(t *testing.T) {
	assert.Equal(t, ColorGood, StatusColor(link.StateConnected, link.QualityGood))
	assert.Equal(t, ColorUnstable, StatusColor(link.StateConnected, link.QualityUnstable))
	assert.Equal(t, ColorPoor, StatusColor(link.StateConnected, link.QualityPoor))
	assert.Equal(t, ColorReconnecting, StatusColor(link.StateReconnecting, link.QualityPoor))
	assert.Equal(t, ColorDown, StatusColor(link.StateFailed, link.QualityGood))
	assert.Equal(t, ColorDown, StatusColor(link.StateDisconnected, link.QualityGood))
}

func TestStatusIcon(t *testing.T) {
	assert.Equal(t, "●", StatusIcon(link.StateConnected, link.QualityGood))
	assert.Equal(t, "◐", StatusIcon(link.StateConnected, link.QualityUnstable))
	assert.Equal(t, "⟳", StatusIcon(link.StateReconnecting, link.QualityGood))
	assert.Equal(t, "○", StatusIcon(link.StateFailed, link.QualityGood))
}

func TestRenderStatusBar(t *testing.T) {
	s := interfaces.LinkStatus{
		State:        link.StateConnected,
		ChannelLabel: "SBC3",
		RTT:          42 * time.Millisecond,
	}
	bar := RenderStatusBar(s, "", "rich", 60)
	assert.Contains(t, bar, "Connected")
	assert.Contains(t, bar, "SBC3")
	assert.Contains(t, bar, "42ms")
	assert.Contains(t, bar, "rich")

	s.State = link.StateReconnecting
	bar = RenderStatusBar(s, "x", "", 0)
	assert.Contains(t, bar, "x Reconnecting")
	assert.NotContains(t, bar, "42ms")
}

func TestAlertStackExpiry(t *testing.T) {
	now := time.Now()
	stack := NewAlertStack(2, nil)

	stack.Push(interfaces.Alert{Kind: interfaces.NoticeInfo, Message: "one"}, now)
	stack.Push(interfaces.Alert{Kind: interfaces.NoticeError, Message: "failed", Sticky: true}, now)
	assert.Equal(t, 2, stack.Len())

	assert.False(t, stack.Expire(now.Add(time.Second)))
	assert.True(t, stack.Expire(now.Add(AlertLifetime)))
	assert.Equal(t, 1, stack.Len())

	sticky, ok := stack.Sticky()
	require.True(t, ok)
	assert.Equal(t, "failed", sticky.Message)

	stack.ClearSticky()
	assert.Equal(t, 0, stack.Len())
	_, ok = stack.Sticky()
	assert.False(t, ok)
}

func TestAlertStackLimit(t *testing.T) {
	now := time.Now()
	stack := NewAlertStack(2, &interfaces.Theme{Error: "#aa0000"})
	for _, m := range []string{"a", "b", "c"} {
		stack.Push(interfaces.Alert{Message: m}, now)
	}
	assert.Equal(t, 2, stack.Len())
	view := stack.View(40)
	assert.NotContains(t, view, " a ")
	assert.Contains(t, view, "c")

	stack.Dismiss()
	assert.Empty(t, stack.View(40))
}

func TestStickyAlertShowsActions(t *testing.T) {
	stack := NewAlertStack(3, nil)
	stack.Push(interfaces.Alert{
		Kind:    interfaces.NoticeError,
		Message: "Connection failed",
		Sticky:  true,
		Actions: []interfaces.KeyAction{{Name: "Reconnect", Key: "F9"}, {Name: "Quit", Key: "F10"}},
	}, time.Now())
	assert.Contains(t, stack.View(0), "F9 Reconnect · F10 Quit")
}

func TestRenderRecoveryHint(t *testing.T) {
	hint := RenderRecoveryHint([]interfaces.KeyAction{{Name: "Reconnect", Key: "F9"}, {Name: "Edit configuration"}})
	assert.Equal(t, "F9 Reconnect · Edit configuration", hint)
}

func TestTerminalWritesAndWraps(t *testing.T) {
	term := NewTerminal(20, 4)
	term.Write("hello\r\n\x1b[31mred\x1b[0m")

	assert.Equal(t, "hello", term.Line(0))
	assert.Equal(t, "red", term.Line(1))

	col, row := term.Cursor()
	assert.Equal(t, 3, col)
	assert.Equal(t, 1, row)

	rendered := term.Render()
	assert.Contains(t, rendered, "hello")
	assert.Equal(t, 4, len(strings.Split(rendered, "\n")))
}

func TestTerminalResizeAndClear(t *testing.T) {
	term := NewTerminal(0, 0)
	cols, rows := term.Size()
	assert.Equal(t, 80, cols)
	assert.Equal(t, 24, rows)

	term.Resize(40, 10)
	cols, rows = term.Size()
	assert.Equal(t, 40, cols)
	assert.Equal(t, 10, rows)

	term.Write("text")
	term.Clear()
	assert.Empty(t, term.Line(0))
}
