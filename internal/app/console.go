// Package app provides the application context that owns every long-lived
// component of the console: the event loop, the transport session, the
// event broadcaster, the message history, the channel registry and the
// active renderer. It wires events from the session to the renderer and
// operator actions from the renderer back to the session.
package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/universal-console/serialconsole/internal/config"
	"github.com/universal-console/serialconsole/internal/content"
	"github.com/universal-console/serialconsole/internal/errors"
	"github.com/universal-console/serialconsole/internal/events"
	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/link"
	"github.com/universal-console/serialconsole/internal/logging"
	"github.com/universal-console/serialconsole/internal/loop"
	"github.com/universal-console/serialconsole/internal/protocol"
	"github.com/universal-console/serialconsole/internal/registry"
	"github.com/universal-console/serialconsole/internal/session"
)

// Notices shown on link events.
const (
	ConnectedNotice    = "WebSocket connected!"
	DisconnectedNotice = "WebSocket disconnected!"
)

// stopGrace bounds how long shutdown waits for the renderer to release the
// terminal
const stopGrace = 2 * time.Second

// RendererFactory creates a renderer of the given kind
type RendererFactory func(kind interfaces.RendererKind) (interfaces.Renderer, error)

// Options are the dependencies of a Console. Dialer, Clock and Logger are
// optional.
type Options struct {
	Profile  *interfaces.Profile
	Renderer interfaces.RendererKind
	Factory  RendererFactory
	Dialer   interfaces.Dialer
	Clock    clock.Clock
	Logger   *logging.Logger
}

// Console is the application context
type Console struct {
	loop     *loop.Loop
	bus      *events.Broadcaster
	session  *session.Session
	buffer   *content.MessageBuffer
	channels *registry.Channels
	health   *registry.HealthMonitor
	errs     *errors.Handler
	recovery *errors.RecoveryManager
	factory  RendererFactory
	kind     interfaces.RendererKind
	logger   *logging.Logger

	// owned by the loop goroutine
	renderer  interfaces.Renderer
	channel   int
	initial   int
	switching bool
	quitting  bool
	unsubs    []func()
}

// New wires a console for profile. Nothing runs until Run.
func New(opts Options) (*Console, error) {
	if opts.Profile == nil {
		return nil, fmt.Errorf("%w: no profile", errors.ErrConfiguration)
	}
	if opts.Factory == nil {
		return nil, fmt.Errorf("%w: no renderer factory", errors.ErrConfiguration)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetAppLogger()
	}
	profile := opts.Profile

	cfg := config.SessionConfig(profile)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := loop.New(opts.Clock, logger.WithComponent("loop"))
	dialer := opts.Dialer
	if dialer == nil {
		dialer = protocol.NewWSDialer(l, config.DialerOptions(profile), logger.WithComponent("transport"))
	}
	bus := events.NewBroadcaster(logger.WithComponent("events"))

	kind := opts.Renderer
	if kind == "" {
		kind = profile.Renderer
	}

	c := &Console{
		loop:     l,
		bus:      bus,
		session:  session.New(cfg, dialer, l, bus, logger.WithComponent("session")),
		buffer:   content.NewMessageBuffer(content.DefaultBufferCapacity),
		channels: registry.NewChannels(profile.Channels.Count, profile.Channels.Labels),
		health:   registry.NewHealthMonitor(registry.DefaultHistorySize),
		errs:     errors.NewHandler(),
		recovery: errors.NewRecoveryManager(),
		factory:  opts.Factory,
		kind:     kind,
		logger:   logger,
		channel:  profile.Channels.Initial,
		initial:  profile.Channels.Initial,
	}
	c.subscribe()
	return c, nil
}

func (c *Console) subscribe() {
	c.unsubs = append(c.unsubs,
		c.bus.OnConnect(c.handleConnect),
		c.bus.OnDisconnect(c.handleDisconnect),
		c.bus.OnMessage(c.handleMessage),
		c.bus.OnStateChange(c.handleStateChange),
	)
	c.session.OnQualityChange(func(link.Quality) { c.updateStatus() })
	c.session.OnProbeResult(func(r session.ProbeResult) {
		c.health.Record(registry.ProbeSnapshot{
			Timestamp: c.loop.Now(),
			RTT:       r.RTT,
			Quality:   r.Quality,
			TimedOut:  r.TimedOut,
		})
		c.updateStatus()
	})
}

// Session returns the transport session. Only touch it from the loop.
func (c *Console) Session() *session.Session { return c.session }

// Buffer returns the message history
func (c *Console) Buffer() *content.MessageBuffer { return c.buffer }

// Health returns the probe history
func (c *Console) Health() *registry.HealthMonitor { return c.health }

// Channels returns the channel registry
func (c *Console) Channels() *registry.Channels { return c.channels }

// Recovery returns the recovery tracker for the failed state
func (c *Console) Recovery() *errors.RecoveryManager { return c.recovery }

// Run starts the renderer, connects and serves until Quit or ctx ends
func (c *Console) Run(ctx context.Context) error {
	r, err := c.factory(c.kind)
	if err != nil {
		return err
	}

	c.loop.Post(func() {
		c.attach(r, nil)
		c.session.Connect()
	})
	runErr := c.loop.Run(ctx)

	// the loop has stopped, so this goroutine now owns the session
	c.shutdown()
	if runErr != nil && !stderrors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func (c *Console) shutdown() {
	c.session.Disconnect()
	for _, unsub := range c.unsubs {
		unsub()
	}
	if c.renderer != nil {
		_ = c.renderer.Stop()
		select {
		case <-c.renderer.Done():
		case <-time.After(stopGrace):
			c.logger.Warn("Renderer did not stop in time", "renderer", c.renderer.Kind())
		}
	}

	trends := c.health.GetHealthTrends(24 * time.Hour)
	appended, evicted := c.buffer.Stats()
	c.logger.Info("Console stopped",
		"probes", trends.SampleCount,
		"probe_timeouts", trends.Timeouts,
		"avg_rtt", trends.AverageRTT,
		"frames", appended,
		"frames_evicted", evicted)
}

// attach makes r the active renderer and replays history into it
func (c *Console) attach(r interfaces.Renderer, history []string) {
	c.renderer = r
	if err := r.Start(c); err != nil {
		errors.NewRenderError("app").
			WithLogger(c.logger).
			WithOperation("start").
			WithContext("renderer", r.Kind()).
			WithCause(err).
			Build()
		c.renderer = nil
		c.quit()
		return
	}
	c.logger.LogUIStateChange("", string(r.Kind()), "attach")

	if len(history) > 0 {
		r.Replay(history)
	}
	r.UpdateStatus(c.status())
	if s := c.recovery.Active(); s != nil {
		r.Notify(s.Notification.Alert())
	}
	go c.watch(r)
}

// watch reacts to a renderer exiting on its own: a broken rich terminal
// falls back to plain, anything else quits
func (c *Console) watch(r interfaces.Renderer) {
	<-r.Done()
	c.loop.Post(func() {
		if c.renderer != r || c.quitting {
			return
		}
		if f, ok := r.(interface{ Err() error }); ok && f.Err() != nil && r.Kind() == interfaces.RendererRich {
			c.logger.Warn("Rich terminal failed, falling back to plain", "error", f.Err().Error())
			c.renderer = nil
			if next, err := c.factory(interfaces.RendererPlain); err == nil {
				c.attach(next, c.buffer.Replay())
				return
			}
		}
		c.quit()
	})
}

// switchTo replaces the active renderer once the old one has released the
// terminal. Output arriving meanwhile is only buffered and shows up in the
// replay.
func (c *Console) switchTo(kind interfaces.RendererKind) {
	if c.switching || c.quitting {
		return
	}
	old := c.renderer
	if old != nil && old.Kind() == kind {
		return
	}
	next, err := c.factory(kind)
	if err != nil {
		c.notice(interfaces.NoticeError, fmt.Sprintf("Cannot switch renderer: %v", err))
		return
	}

	c.switching = true
	c.renderer = nil
	c.logger.LogUIStateChange(kindName(old), string(kind), "switch")
	if old == nil {
		c.switching = false
		c.attach(next, c.buffer.Replay())
		return
	}
	_ = old.Stop()
	go func() {
		<-old.Done()
		c.loop.Post(func() {
			c.switching = false
			if c.quitting {
				return
			}
			c.attach(next, c.buffer.Replay())
		})
	}()
}

func kindName(r interfaces.Renderer) string {
	if r == nil {
		return ""
	}
	return string(r.Kind())
}

// quit disconnects, stops the renderer and ends the loop once the terminal
// is restored
func (c *Console) quit() {
	if c.quitting {
		return
	}
	c.quitting = true
	c.session.Disconnect()

	r := c.renderer
	if r == nil {
		c.loop.Stop()
		return
	}
	_ = r.Stop()
	go func() {
		select {
		case <-r.Done():
		case <-time.After(stopGrace):
		}
		c.loop.Stop()
	}()
}

func (c *Console) status() interfaces.LinkStatus {
	s := c.session.Status()
	s.Channel = c.channel
	s.ChannelLabel = c.channels.Label(c.channel)
	return s
}

func (c *Console) updateStatus() {
	if c.renderer != nil {
		c.renderer.UpdateStatus(c.status())
	}
}

func (c *Console) notice(kind interfaces.NoticeKind, text string) {
	if c.renderer != nil {
		c.renderer.Notice(kind, text)
	}
}

func (c *Console) handleConnect() {
	c.recovery.EndSession()
	c.notice(interfaces.NoticeSuccess, ConnectedNotice)
	c.selectChannel(c.initial)
}

func (c *Console) handleDisconnect() {
	c.notice(interfaces.NoticeError, DisconnectedNotice)
}

func (c *Console) handleMessage(frame string) {
	c.buffer.Append(frame)
	if c.renderer != nil {
		c.renderer.Write(frame)
	}
}

func (c *Console) handleStateChange(_, next link.State) {
	c.updateStatus()
	if next != link.StateFailed {
		return
	}
	err := c.session.Err()
	if err == nil {
		err = errors.ErrReconnectExhausted
	}
	n := c.errs.Notify(err)
	c.recovery.StartSession(n)
	if c.renderer != nil {
		c.renderer.Notify(n.Alert())
	}
}

// selectChannel records index and tells the multiplexer when connected.
// Indices are not checked against the registry; the device ignores
// channels it does not have.
func (c *Console) selectChannel(index int) {
	c.channel = index
	c.session.Adapter().SelectChannel(index)
	c.notice(interfaces.NoticeChannel, "Switched to "+c.channels.Label(index))
	c.updateStatus()
}

func (c *Console) sendControl(code byte) bool {
	if !c.session.Send(string([]byte{code})) {
		return false
	}
	c.notice(interfaces.NoticeControl, content.ControlName(code))
	return true
}

// call runs fn on the loop and waits for its result. It must not be used
// from the loop goroutine.
func (c *Console) call(fn func() bool) bool {
	result := make(chan bool, 1)
	if !c.loop.Post(func() { result <- fn() }) {
		return false
	}
	select {
	case ok := <-result:
		return ok
	case <-c.loop.Done():
		return false
	}
}

// SendInput implements interfaces.Controller. Input is dropped while the
// link is down.
func (c *Console) SendInput(data []byte) bool {
	text := string(data)
	return c.call(func() bool { return c.session.Send(text) })
}

// SendControl implements interfaces.Controller
func (c *Console) SendControl(code byte) bool {
	return c.call(func() bool { return c.sendControl(code) })
}

// SelectChannel implements interfaces.Controller
func (c *Console) SelectChannel(index int) {
	c.loop.Post(func() { c.selectChannel(index) })
}

// Reconnect implements interfaces.Controller
func (c *Console) Reconnect() {
	c.loop.Post(func() {
		c.recovery.EndSession()
		c.session.ForceReconnect()
	})
}

// SwitchRenderer implements interfaces.Controller
func (c *Console) SwitchRenderer(kind interfaces.RendererKind) {
	c.loop.Post(func() { c.switchTo(kind) })
}

// Quit implements interfaces.Controller
func (c *Console) Quit() {
	c.loop.Post(c.quit)
}

var _ interfaces.Controller = (*Console)(nil)
