package app

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/link"
	"github.com/universal-console/serialconsole/internal/ui/menu"
)

// expireInterval is how often the alert stack is checked for expiry
const expireInterval = 250 * time.Millisecond

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetTerminalSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case menu.ChannelSelectedMsg:
		m.ctrl.SelectChannel(msg.Index)
		return m, nil

	case menu.ClosedMsg:
		return m, nil

	case FrameMsg:
		m.write(msg.Frame)
		return m, nil

	case ReplayMsg:
		for _, frame := range msg.History {
			m.write(frame)
		}
		return m, nil

	case NoticeMsg:
		m.term.Write(noticeText(msg.Kind, msg.Text))
		return m, nil

	case AlertMsg:
		m.alerts.Push(msg.Alert, m.now())
		if msg.Alert.Sticky && m.status.State == link.StateFailed {
			m.legend.SetRecovery(msg.Alert.Actions)
			m.SetTerminalSize(m.width, m.height)
		}
		return m, m.scheduleExpiry()

	case StatusMsg:
		return m, m.setStatus(msg.Status)

	case expireMsg:
		m.expiring = false
		m.alerts.Expire(time.Time(msg))
		return m, m.scheduleExpiry()

	case spinner.TickMsg:
		if !m.connecting() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) write(frame string) {
	m.term.Write(frame)
	m.scrollback.Append(frame)
	if m.scrolling {
		m.refreshScrollback()
	}
}

func (m *Model) setStatus(s interfaces.LinkStatus) tea.Cmd {
	m.status = s
	m.picker.SetCurrent(s.Channel)

	if s.State != link.StateFailed && len(m.legend.Recovery()) > 0 {
		m.alerts.ClearSticky()
		m.legend.SetRecovery(nil)
		m.SetTerminalSize(m.width, m.height)
	}

	if m.connecting() && !m.spinning {
		m.spinning = true
		return m.spinner.Tick
	}
	return nil
}

func (m *Model) scheduleExpiry() tea.Cmd {
	if m.expiring || m.alerts.Len() == 0 {
		return nil
	}
	m.expiring = true
	return tea.Tick(expireInterval, func(t time.Time) tea.Msg { return expireMsg(t) })
}

// handleKey routes a key to the picker, the scrollback view, a shortcut
// or the remote console, in that order
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.picker.IsVisible() {
		_, cmd := m.picker.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "f2":
		m.picker.Open(m.status.Channel)
		return nil
	case "f6":
		m.ctrl.SwitchRenderer(interfaces.RendererPlain)
		return nil
	case "f7":
		m.toggleScrollback()
		return nil
	case "f9":
		m.ctrl.Reconnect()
		return nil
	case "f10":
		m.ctrl.Quit()
		return tea.Quit
	case "alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8", "alt+9":
		m.ctrl.SelectChannel(int(msg.Runes[0] - '1'))
		return nil
	}

	if m.scrolling {
		switch msg.String() {
		case "esc", "q":
			m.toggleScrollback()
			return nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}

	if msg.Type == tea.KeyEsc && m.alerts.Len() > 0 {
		m.alerts.Dismiss()
		return nil
	}

	if code, ok := controlCode(msg); ok {
		m.ctrl.SendControl(code)
		return nil
	}
	if data := keyBytes(msg); len(data) > 0 {
		m.ctrl.SendInput(data)
	}
	return nil
}

func (m *Model) toggleScrollback() {
	m.scrolling = !m.scrolling
	if m.scrolling {
		m.logger.LogUIStateChange("terminal", "scrollback", "operator")
		m.refreshScrollback()
	} else {
		m.logger.LogUIStateChange("scrollback", "terminal", "operator")
	}
}

func (m *Model) refreshScrollback() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(joinLines(m.scrollback.Lines()))
	if atBottom || !m.scrolling {
		m.viewport.GotoBottom()
	}
}

// controlCode reports Ctrl+letter keys other than those with their own
// names (tab, enter)
func controlCode(msg tea.KeyMsg) (byte, bool) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyEnter:
		return 0, false
	}
	if msg.Type >= tea.KeyCtrlA && msg.Type <= tea.KeyCtrlZ {
		return byte(msg.Type), true
	}
	return 0, false
}

// keyBytes returns what a terminal sends for msg
func keyBytes(msg tea.KeyMsg) []byte {
	var out []byte
	switch msg.Type {
	case tea.KeyRunes:
		out = []byte(string(msg.Runes))
	case tea.KeySpace:
		out = []byte{' '}
	case tea.KeyEnter:
		out = []byte{'\r'}
	case tea.KeyBackspace:
		out = []byte{0x7f}
	case tea.KeyTab:
		out = []byte{'\t'}
	case tea.KeyEsc:
		out = []byte{0x1b}
	case tea.KeyUp:
		out = []byte("\x1b[A")
	case tea.KeyDown:
		out = []byte("\x1b[B")
	case tea.KeyRight:
		out = []byte("\x1b[C")
	case tea.KeyLeft:
		out = []byte("\x1b[D")
	case tea.KeyHome:
		out = []byte("\x1b[H")
	case tea.KeyEnd:
		out = []byte("\x1b[F")
	case tea.KeyDelete:
		out = []byte("\x1b[3~")
	case tea.KeyPgUp:
		out = []byte("\x1b[5~")
	case tea.KeyPgDown:
		out = []byte("\x1b[6~")
	default:
		return nil
	}
	if msg.Alt && msg.Type != tea.KeyEsc {
		out = append([]byte{0x1b}, out...)
	}
	return out
}
