package actions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/universal-console/serialconsole/internal/interfaces"
)

func TestPaneListsShortcuts(t *testing.T) {
	p := NewPane(DefaultShortcuts)
	view := p.View()
	for _, s := range DefaultShortcuts {
		assert.Contains(t, view, s.Name)
	}
	assert.Equal(t, 1, p.Height())
	assert.Equal(t, 1, len(strings.Split(view, "\n")))
}

func TestPaneRecoveryOptions(t *testing.T) {
	p := NewPane(DefaultShortcuts)
	p.SetWidth(80)
	p.SetRecovery([]interfaces.KeyAction{{Name: "Reconnect", Key: "F9"}, {Name: "Edit configuration"}})

	view := p.View()
	assert.Contains(t, view, "Connection failed. Recovery options:")
	assert.Contains(t, view, "Edit configuration")
	assert.Equal(t, 4, p.Height())
	assert.Equal(t, p.Height(), len(strings.Split(view, "\n")))
	assert.Len(t, p.Recovery(), 2)

	p.SetRecovery(nil)
	assert.Equal(t, 1, p.Height())
	assert.NotContains(t, p.View(), "Recovery options")
}
