package render

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/universal-console/serialconsole/internal/errors"
	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/logging"
	"github.com/universal-console/serialconsole/internal/ui/app"
)

// Rich runs the Bubble Tea terminal. Calls from the event loop are queued
// in a mailbox and fed to the program by a pump goroutine.
type Rich struct {
	in     io.Reader
	out    io.Writer
	cfg    app.Config
	logger *logging.Logger

	box     *mailbox[tea.Msg]
	program *tea.Program

	mu       sync.Mutex
	err      error
	done     chan struct{}
	doneOnce sync.Once
	stopOnce sync.Once
}

// NewRich creates a rich renderer
func NewRich(opts Options) *Rich {
	opts = opts.withDefaults()
	return &Rich{
		in:     opts.In,
		out:    opts.Out,
		cfg:    app.Config{Labels: opts.Labels, Theme: opts.Theme},
		logger: opts.Logger,
		box:    newMailbox[tea.Msg](),
		done:   make(chan struct{}),
	}
}

// Kind implements interfaces.Renderer
func (r *Rich) Kind() interfaces.RendererKind { return interfaces.RendererRich }

// Done implements interfaces.Renderer
func (r *Rich) Done() <-chan struct{} { return r.done }

// Err returns why the program exited, nil after a normal quit
func (r *Rich) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Start launches the program on the alternate screen
func (r *Rich) Start(ctrl interfaces.Controller) error {
	model := app.NewModel(ctrl, r.cfg)
	r.program = tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithInput(r.in),
		tea.WithOutput(r.out),
	)

	go r.pump()
	go func() {
		_, err := r.program.Run()
		if err != nil && err != tea.ErrProgramKilled {
			r.mu.Lock()
			r.err = errors.NewRenderError("render").
				WithLogger(r.logger).
				WithOperation("run").
				WithMessage("rich terminal exited").
				WithCause(err).
				Build()
			r.mu.Unlock()
		}
		r.box.close()
		r.doneOnce.Do(func() { close(r.done) })
	}()
	r.logger.Debug("Rich renderer started")
	return nil
}

func (r *Rich) pump() {
	for {
		msgs, ok := r.box.take()
		if !ok {
			return
		}
		for _, msg := range msgs {
			r.program.Send(msg)
		}
	}
}

// Stop asks the program to quit. It returns at once: the program may be
// waiting on the event loop that calls Stop.
func (r *Rich) Stop() error {
	r.stopOnce.Do(func() {
		if r.program == nil {
			r.box.close()
			r.doneOnce.Do(func() { close(r.done) })
			return
		}
		go r.program.Quit()
	})
	return nil
}

// Write implements interfaces.Renderer
func (r *Rich) Write(frame string) {
	r.box.put(app.FrameMsg{Frame: frame})
}

// Replay implements interfaces.Renderer
func (r *Rich) Replay(history []string) {
	r.box.put(app.ReplayMsg{History: append([]string(nil), history...)})
}

// Notice implements interfaces.Renderer
func (r *Rich) Notice(kind interfaces.NoticeKind, text string) {
	r.box.put(app.NoticeMsg{Kind: kind, Text: text})
}

// Notify implements interfaces.Renderer
func (r *Rich) Notify(alert interfaces.Alert) {
	r.box.put(app.AlertMsg{Alert: alert})
}

// UpdateStatus implements interfaces.Renderer
func (r *Rich) UpdateStatus(status interfaces.LinkStatus) {
	r.box.put(app.StatusMsg{Status: status})
}

var _ interfaces.Renderer = (*Rich)(nil)
