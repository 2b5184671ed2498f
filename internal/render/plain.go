package render

import (
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/muesli/cancelreader"
	"golang.org/x/term"

	"github.com/universal-console/serialconsole/internal/content"
	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/link"
	"github.com/universal-console/serialconsole/internal/logging"
	"github.com/universal-console/serialconsole/internal/ui/components"
)

// CommandPrefix (Ctrl-]) introduces a plain renderer command key
const CommandPrefix byte = 0x1d

// PlainWelcome is printed when the plain renderer starts
const PlainWelcome = "Serial Terminal (plain)\nPress Ctrl-] ? for commands\n"

const plainHelp = `Commands (after Ctrl-]):
  1-9  select channel
  r    reconnect now
  t    switch to the rich terminal
  e    toggle local echo
  s    show connection status
  q    quit
  ^]   send a literal Ctrl-]
`

// Plain writes filtered text to a writer and reads keys from a reader,
// switching the reader's terminal to raw mode when it is one
type Plain struct {
	in     io.Reader
	out    io.Writer
	logger *logging.Logger

	mu     sync.Mutex
	echo   bool
	raw    bool
	status interfaces.LinkStatus

	ctrl    interfaces.Controller
	reader  cancelreader.CancelReader
	prefix  bool
	restore func()

	stopped     atomic.Bool
	done        chan struct{}
	doneOnce    sync.Once
	restoreOnce sync.Once
}

// NewPlain creates a plain renderer
func NewPlain(opts Options) *Plain {
	opts = opts.withDefaults()
	return &Plain{
		in:     opts.In,
		out:    opts.Out,
		logger: opts.Logger,
		echo:   opts.LocalEcho,
		done:   make(chan struct{}),
	}
}

// Kind implements interfaces.Renderer
func (p *Plain) Kind() interfaces.RendererKind { return interfaces.RendererPlain }

// Done implements interfaces.Renderer
func (p *Plain) Done() <-chan struct{} { return p.done }

// LocalEcho reports whether typed characters are printed
func (p *Plain) LocalEcho() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.echo
}

// Start puts the input terminal in raw mode and begins reading keys
func (p *Plain) Start(ctrl interfaces.Controller) error {
	p.ctrl = ctrl

	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		state, err := term.MakeRaw(fd)
		if err != nil {
			p.logger.Warn("Raw mode unavailable, input is line buffered", "error", err.Error())
		} else {
			p.mu.Lock()
			p.raw = true
			p.mu.Unlock()
			p.restore = func() { _ = term.Restore(fd, state) }
		}
	}

	reader, err := cancelreader.NewReader(p.in)
	if err != nil {
		// e.g. stdin redirected from a regular file
		p.logger.Debug("Input is not cancelable", "error", err.Error())
		reader = uncancelable{p.in}
	}
	p.reader = reader

	p.print(PlainWelcome)
	p.logger.Debug("Plain renderer started", "raw", p.raw, "local_echo", p.LocalEcho())
	go p.readLoop()
	return nil
}

// Stop cancels the key reader and restores the terminal
func (p *Plain) Stop() error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if p.reader == nil {
		p.finish()
		return nil
	}
	if !p.reader.Cancel() {
		// the reader cannot be interrupted; stop listening to it
		p.restoreTerminal()
		p.finish()
	}
	return nil
}

func (p *Plain) readLoop() {
	defer p.finish()
	defer p.restoreTerminal()
	defer p.reader.Close()

	buf := make([]byte, 256)
	for {
		n, err := p.reader.Read(buf)
		if p.stopped.Load() {
			return
		}
		for _, b := range buf[:n] {
			p.handleByte(b)
		}
		if err != nil {
			if err != io.EOF && err != cancelreader.ErrCanceled {
				p.logger.Warn("Input closed", "error", err.Error())
			}
			return
		}
	}
}

func (p *Plain) finish() {
	p.doneOnce.Do(func() { close(p.done) })
}

func (p *Plain) restoreTerminal() {
	p.restoreOnce.Do(func() {
		if p.restore != nil {
			p.restore()
		}
		p.mu.Lock()
		p.raw = false
		p.mu.Unlock()
	})
}

// handleByte translates one key. Enter sends a newline and backspace sends
// \b, as a line-oriented serial console expects.
func (p *Plain) handleByte(b byte) {
	if p.prefix {
		p.prefix = false
		p.command(b)
		return
	}

	switch {
	case b == CommandPrefix:
		p.prefix = true
	case b == '\r' || b == '\n':
		if p.ctrl.SendInput([]byte(content.KeyEnter)) {
			p.echoText("\n")
		}
	case b == 0x7f || b == '\b':
		if p.ctrl.SendInput([]byte(content.KeyBackspace)) {
			p.echoText(content.EraseSequence)
		}
	case b == '\t':
		if p.ctrl.SendInput([]byte(content.KeyTab)) {
			p.echoText(strings.Repeat(" ", content.TabWidth))
		}
	case content.IsControl(b):
		p.ctrl.SendControl(b)
	default:
		if p.ctrl.SendInput([]byte{b}) && b >= 32 && b != 0x7f {
			p.echoText(string([]byte{b}))
		}
	}
}

func (p *Plain) command(b byte) {
	switch {
	case b >= '1' && b <= '9':
		p.ctrl.SelectChannel(int(b - '1'))
	case b == 'r' || b == 'R':
		p.ctrl.Reconnect()
	case b == 't' || b == 'T':
		p.ctrl.SwitchRenderer(interfaces.RendererRich)
	case b == 'e' || b == 'E':
		p.toggleEcho()
	case b == 's' || b == 'S':
		p.print(p.statusLine() + "\n")
	case b == 'q' || b == 'Q':
		p.ctrl.Quit()
	case b == '?' || b == 'h' || b == 'H':
		p.print(plainHelp)
	case b == CommandPrefix:
		p.ctrl.SendInput([]byte{CommandPrefix})
	}
}

func (p *Plain) toggleEcho() {
	p.mu.Lock()
	p.echo = !p.echo
	on := p.echo
	p.mu.Unlock()

	if on {
		p.print("Local echo enabled\n")
	} else {
		p.print("Local echo disabled\n")
	}
}

func (p *Plain) echoText(s string) {
	if p.LocalEcho() {
		p.print(s)
	}
}

// print writes s, translating newlines while the terminal is raw
func (p *Plain) print(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.raw {
		s = strings.ReplaceAll(s, "\n", "\r\n")
	}
	if _, err := io.WriteString(p.out, s); err != nil {
		p.logger.Debug("Write failed", "error", err.Error())
	}
}

// Write implements interfaces.Renderer
func (p *Plain) Write(frame string) {
	if text := content.FilterPlain(frame); text != "" {
		p.print(text)
	}
}

// Replay implements interfaces.Renderer
func (p *Plain) Replay(history []string) {
	for _, frame := range history {
		p.Write(frame)
	}
}

// Notice implements interfaces.Renderer. Control feedback only appears
// with local echo on.
func (p *Plain) Notice(kind interfaces.NoticeKind, text string) {
	if kind == interfaces.NoticeControl {
		p.echoText(text)
		return
	}
	p.print(text + "\n")
}

// Notify implements interfaces.Renderer
func (p *Plain) Notify(alert interfaces.Alert) {
	line := "[!] " + alert.Message
	if alert.Sticky {
		line += " (Ctrl-] r to reconnect, Ctrl-] q to quit)"
	}
	p.print(line + "\n")
}

// UpdateStatus implements interfaces.Renderer. Only reconnect progress is
// printed; connect and disconnect have their own notices.
func (p *Plain) UpdateStatus(s interfaces.LinkStatus) {
	p.mu.Lock()
	prev := p.status
	p.status = s
	p.mu.Unlock()

	if s.State != link.StateReconnecting {
		return
	}
	if prev.State != s.State || prev.Attempts != s.Attempts {
		p.print("[" + components.StatusText(s) + "]\n")
	}
}

func (p *Plain) statusLine() string {
	p.mu.Lock()
	s := p.status
	p.mu.Unlock()

	line := components.StatusIcon(s.State, s.Quality) + " " + components.StatusText(s)
	if s.ChannelLabel != "" {
		line += " | " + s.ChannelLabel
	}
	if s.State == link.StateConnected {
		line += " | link " + s.Quality.String()
		if s.RTT > 0 {
			line += " " + s.RTT.String()
		}
	}
	return line
}

// uncancelable adapts a reader that cannot be interrupted
type uncancelable struct {
	io.Reader
}

func (uncancelable) Cancel() bool { return false }
func (uncancelable) Close() error { return nil }

var _ interfaces.Renderer = (*Plain)(nil)
