// Package app implements the rich terminal: a Bubble Tea model hosting a
// vt10x screen that serial output is written into, with a status bar, alert
// stack, channel picker, scrollback viewport and key legend around it.
package app

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/universal-console/serialconsole/internal/content"
	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/link"
	"github.com/universal-console/serialconsole/internal/logging"
	"github.com/universal-console/serialconsole/internal/ui/actions"
	"github.com/universal-console/serialconsole/internal/ui/components"
	"github.com/universal-console/serialconsole/internal/ui/menu"
)

// MaxScrollbackLines bounds the text kept for the scrollback view
const MaxScrollbackLines = 5000

// Welcome is written to a fresh screen
const Welcome = "\x1b[32mSerial Terminal (rich)\x1b[0m\r\n"

// Messages the rich renderer feeds into the program.
type (
	// FrameMsg carries one raw payload frame
	FrameMsg struct{ Frame string }

	// ReplayMsg carries history written into a fresh screen
	ReplayMsg struct{ History []string }

	// NoticeMsg carries a client-side message written inline
	NoticeMsg struct {
		Kind interfaces.NoticeKind
		Text string
	}

	// AlertMsg carries an alert for the stack
	AlertMsg struct{ Alert interfaces.Alert }

	// StatusMsg carries a new link status
	StatusMsg struct{ Status interfaces.LinkStatus }

	expireMsg time.Time
)

// Config holds the presentation options of the model
type Config struct {
	Labels []string
	Theme  *interfaces.Theme
	Logger *logging.Logger
}

// Model is the rich terminal state
type Model struct {
	ctrl interfaces.Controller

	term     *components.Terminal
	alerts   *components.AlertStack
	legend   *actions.Pane
	picker   *menu.MenuModel
	spinner  spinner.Model
	viewport viewport.Model

	status     interfaces.LinkStatus
	scrollback *lineLog
	scrolling  bool
	expiring   bool
	spinning   bool

	width  int
	height int
	now    func() time.Time
	logger *logging.Logger
}

// NewModel creates a model sending operator input to ctrl
func NewModel(ctrl interfaces.Controller, cfg Config) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Line
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetUILogger()
	}

	m := &Model{
		ctrl:       ctrl,
		term:       components.NewTerminal(80, 22),
		alerts:     components.NewAlertStack(3, cfg.Theme),
		legend:     actions.NewPane(actions.DefaultShortcuts),
		picker:     menu.NewMenuModel(cfg.Labels),
		spinner:    sp,
		viewport:   viewport.New(80, 22),
		scrollback: newLineLog(MaxScrollbackLines),
		now:        time.Now,
		logger:     logger,
	}
	m.term.Write(Welcome)
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Status returns the last link status received
func (m *Model) Status() interfaces.LinkStatus {
	return m.status
}

// Screen returns the emulator contents as plain text, one line per row
func (m *Model) Screen() string {
	_, rows := m.term.Size()
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = m.term.Line(i)
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// Scrollback returns the plain-text history
func (m *Model) Scrollback() []string {
	return m.scrollback.Lines()
}

// SetTerminalSize lays the screen out for a width x height window
func (m *Model) SetTerminalSize(width, height int) {
	m.width = width
	m.height = height
	m.legend.SetWidth(width)
	m.picker.SetSize(width, m.bodyHeight())
	m.term.Resize(width, m.bodyHeight())
	m.viewport.Width = width
	m.viewport.Height = m.bodyHeight()
}

// bodyHeight is the space left for the screen after the status bar and
// the legend
func (m *Model) bodyHeight() int {
	h := m.height - 1 - m.legend.Height()
	if h < 1 {
		return 1
	}
	return h
}

func (m *Model) connecting() bool {
	return m.status.State == link.StateConnecting || m.status.State == link.StateReconnecting
}

// noticeColors are the SGR codes of inline notices
var noticeColors = map[interfaces.NoticeKind]string{
	interfaces.NoticeSuccess: "32",
	interfaces.NoticeError:   "31",
	interfaces.NoticeWarning: "33",
	interfaces.NoticeChannel: "33",
	interfaces.NoticeControl: "36",
}

// noticeText formats a notice for the emulator. Control feedback stays on
// the current line.
func noticeText(kind interfaces.NoticeKind, text string) string {
	if code, ok := noticeColors[kind]; ok {
		text = "\x1b[" + code + "m" + text + "\x1b[0m"
	}
	if kind == interfaces.NoticeControl {
		return text
	}
	return text + "\r\n"
}

// lineLog assembles output into bounded plain-text lines for scrollback.
// Unlike the plain renderer it folds CRLF into one line break.
type lineLog struct {
	lines   []string
	current []rune
	limit   int
	sawCR   bool
}

func newLineLog(limit int) *lineLog {
	return &lineLog{limit: limit}
}

// Append adds one raw frame
func (l *lineLog) Append(frame string) {
	for _, r := range content.StripANSI(frame) {
		if l.sawCR {
			l.sawCR = false
			if r == '\n' {
				continue
			}
		}
		switch {
		case r == '\r':
			l.sawCR = true
			l.newline()
		case r == '\n':
			l.newline()
		case r == '\t':
			l.current = append(l.current, []rune(strings.Repeat(" ", content.TabWidth))...)
		case r == '\b':
			if n := len(l.current); n > 0 {
				l.current = l.current[:n-1]
			}
		case r < 32 || r == 0x7f:
			// dropped
		default:
			l.current = append(l.current, r)
		}
	}
}

func (l *lineLog) newline() {
	l.lines = append(l.lines, string(l.current))
	l.current = l.current[:0]
	if len(l.lines) > l.limit {
		l.lines = l.lines[len(l.lines)-l.limit:]
	}
}

// Lines returns the finished lines plus the partial last one
func (l *lineLog) Lines() []string {
	out := append([]string(nil), l.lines...)
	if len(l.current) > 0 {
		out = append(out, string(l.current))
	}
	return out
}
