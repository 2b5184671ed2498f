// Package session implements the transport session: the state machine that
// owns the connection to the multiplexer, reconnects with backoff after
// unexpected drops, and probes link quality with a heartbeat.
//
// A Session is not safe for concurrent use. Every method, and every callback
// it registers, runs on the event loop goroutine.
package session

import (
	"fmt"
	"time"

	"github.com/universal-console/serialconsole/internal/errors"
	"github.com/universal-console/serialconsole/internal/events"
	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/link"
	"github.com/universal-console/serialconsole/internal/logging"
	"github.com/universal-console/serialconsole/internal/protocol"
)

// Defaults used by the firmware client
const (
	DefaultHeartbeatInterval   = 15 * time.Second
	DefaultProbeTimeout        = 3 * time.Second
	DefaultForceReconnectDelay = 100 * time.Millisecond
)

// Config holds the session parameters
type Config struct {
	URL                 string
	HeartbeatInterval   time.Duration
	ProbeTimeout        time.Duration
	ForceReconnectDelay time.Duration
	Policy              link.Policy
}

// DefaultConfig returns the firmware client's settings for url
func DefaultConfig(url string) Config {
	return Config{
		URL:                 url,
		HeartbeatInterval:   DefaultHeartbeatInterval,
		ProbeTimeout:        DefaultProbeTimeout,
		ForceReconnectDelay: DefaultForceReconnectDelay,
		Policy:              link.DefaultPolicy(),
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	chain := errors.NewErrorChain(nil)
	chain.Add(protocol.ValidateURL(c.URL))
	if c.HeartbeatInterval <= 0 {
		chain.Add(fmt.Errorf("%w: heartbeat interval must be positive", errors.ErrConfiguration))
	}
	if c.ProbeTimeout <= 0 {
		chain.Add(fmt.Errorf("%w: probe timeout must be positive", errors.ErrConfiguration))
	}
	if c.ForceReconnectDelay < 0 {
		chain.Add(fmt.Errorf("%w: force reconnect delay is negative", errors.ErrConfiguration))
	}
	if err := c.Policy.Validate(); err != nil {
		chain.Add(fmt.Errorf("%w: %v", errors.ErrConfiguration, err))
	}
	return chain.Join()
}

// Session is the connection state machine
type Session struct {
	cfg     Config
	dialer  interfaces.Dialer
	sched   interfaces.Scheduler
	bus     *events.Broadcaster
	adapter *protocol.Adapter
	logger  *logging.Logger

	conn     interfaces.Conn
	gen      uint64
	dialedAt time.Time

	state    link.State
	quality  link.Quality
	attempts int
	manual   bool

	heartbeat interfaces.Task
	probe     interfaces.Task
	reconnect interfaces.Task
	force     interfaces.Task

	lastProbeSentAt time.Time
	lastRTT         time.Duration
	failure         error

	onQuality func(link.Quality)
	onProbe   func(ProbeResult)
}

// ProbeResult is the outcome of one heartbeat
type ProbeResult struct {
	RTT      time.Duration
	Quality  link.Quality
	TimedOut bool
}

// New creates a disconnected session. Zero durations in cfg take the
// defaults; a nil logger uses the session component logger.
func New(cfg Config, dialer interfaces.Dialer, sched interfaces.Scheduler, bus *events.Broadcaster, logger *logging.Logger) *Session {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.ForceReconnectDelay <= 0 {
		cfg.ForceReconnectDelay = DefaultForceReconnectDelay
	}
	if logger == nil {
		logger = logging.GetSessionLogger()
	}

	s := &Session{
		cfg:     cfg,
		dialer:  dialer,
		sched:   sched,
		bus:     bus,
		logger:  logger,
		state:   link.StateDisconnected,
		quality: link.QualityGood,
	}
	s.adapter = protocol.NewAdapter(s, bus, logger.WithComponent("protocol"))
	return s
}

// Adapter returns the protocol adapter bound to this session
func (s *Session) Adapter() *protocol.Adapter { return s.adapter }

// State returns the current connection state
func (s *Session) State() link.State { return s.state }

// Quality returns the last estimated link quality
func (s *Session) Quality() link.Quality { return s.quality }

// Attempts returns the consecutive automatic reconnect count
func (s *Session) Attempts() int { return s.attempts }

// MaxAttempts returns the reconnect cap
func (s *Session) MaxAttempts() int { return s.cfg.Policy.MaxAttempts }

// LastRTT returns the last measured heartbeat round trip
func (s *Session) LastRTT() time.Duration { return s.lastRTT }

// URL returns the endpoint the session dials
func (s *Session) URL() string { return s.cfg.URL }

// OnQualityChange registers the observer called whenever quality changes
func (s *Session) OnQualityChange(fn func(link.Quality)) {
	s.onQuality = fn
}

// OnProbeResult registers the observer called after every heartbeat reply
// or timeout
func (s *Session) OnProbeResult(fn func(ProbeResult)) {
	s.onProbe = fn
}

// Err returns the error that left the session failed, or nil
func (s *Session) Err() error { return s.failure }

// Status returns the presentation snapshot of the link
func (s *Session) Status() interfaces.LinkStatus {
	return interfaces.LinkStatus{
		State:       s.state,
		Quality:     s.quality,
		Attempts:    s.attempts,
		MaxAttempts: s.cfg.Policy.MaxAttempts,
		RTT:         s.lastRTT,
	}
}

func (s *Session) setState(next link.State) {
	prev := s.state
	if prev == next {
		return
	}
	s.state = next
	s.logger.LogStateChange(prev.String(), next.String())
	s.bus.Publish(events.StateChange(prev, next))
}

func (s *Session) setQuality(q link.Quality) {
	if s.quality == q {
		return
	}
	s.quality = q
	if s.onQuality != nil {
		s.onQuality(q)
	}
}

func (s *Session) live() bool {
	if s.conn == nil {
		return false
	}
	rs := s.conn.ReadyState()
	return rs == interfaces.ReadyConnecting || rs == interfaces.ReadyOpen
}

// Connect starts opening a fresh connection. It does nothing while a handle
// is already connecting or open.
func (s *Session) Connect() {
	if s.live() {
		return
	}
	cancelTask(&s.reconnect)
	s.manual = false
	s.failure = nil

	s.setState(link.StateConnecting)

	s.gen++
	gen := s.gen
	s.dialedAt = s.sched.Now()
	conn, err := s.dialer.Dial(s.cfg.URL, interfaces.ConnHandlers{
		OnOpen:    func() { s.handleOpen(gen) },
		OnMessage: func(frame string) { s.handleMessage(gen, frame) },
		OnError:   func(err error) { s.handleError(gen, err) },
		OnClose:   func(code int, reason string) { s.handleClose(gen, code, reason) },
	})
	if err != nil {
		s.conn = nil
		s.logger.Warn("Dial failed", "url", s.cfg.URL, "error", err.Error())
		s.handleClose(gen, protocol.CloseAbnormal, err.Error())
		return
	}
	s.conn = conn
	s.logger.LogConnectionAttempt(s.cfg.URL, conn.ID(), s.attempts)
}

// Disconnect tears the connection down without scheduling a reconnect
func (s *Session) Disconnect() {
	s.manual = true
	s.cancelTimers()

	wasOpen := s.state == link.StateConnected
	if s.conn != nil {
		conn := s.conn
		s.conn = nil
		// later callbacks from this handle are stale
		s.gen++
		if err := conn.Close(); err != nil {
			s.logger.Debug("Close failed", "conn_id", conn.ID(), "error", err.Error())
		}
		s.logger.LogConnectionClosed(conn.ID(), protocol.CloseNormal, "manual disconnect", true)
	}
	s.attempts = 0
	s.setState(link.StateDisconnected)
	if wasOpen {
		s.bus.Publish(events.Disconnect())
	}
}

// ForceReconnect disconnects, resets the attempt counter and connects again
// after a short fixed delay, regardless of backoff or the attempt cap
func (s *Session) ForceReconnect() {
	s.Disconnect()
	s.attempts = 0
	s.force = s.sched.AfterFunc(s.cfg.ForceReconnectDelay, func() {
		s.force = nil
		s.Connect()
	})
}

// Send hands text to the open connection. It reports false, without
// queueing, when there is none or the write fails.
func (s *Session) Send(text string) bool {
	if s.conn == nil || s.conn.ReadyState() != interfaces.ReadyOpen {
		return false
	}
	if err := s.conn.Send(text); err != nil {
		s.logger.Debug("Send failed", "conn_id", s.conn.ID(), "error", err.Error())
		return false
	}
	return true
}

func (s *Session) handleOpen(gen uint64) {
	if gen != s.gen || s.conn == nil {
		return
	}
	s.logger.LogConnectionOpen(s.cfg.URL, s.conn.ID(), s.sched.Now().Sub(s.dialedAt))
	s.attempts = 0
	s.lastProbeSentAt = time.Time{}
	s.setQuality(link.QualityGood)
	s.startHeartbeat()
	s.setState(link.StateConnected)
	s.bus.Publish(events.Connect())
}

func (s *Session) handleMessage(gen uint64, frame string) {
	if gen != s.gen {
		return
	}
	s.adapter.HandleInbound(frame)
}

func (s *Session) handleError(gen uint64, err error) {
	if gen != s.gen {
		return
	}
	errors.NewTransportError("session").
		WithLogger(s.logger).
		WithOperation("transport").
		WithCause(err).
		Build()
	s.setQuality(link.QualityPoor)
}

func (s *Session) handleClose(gen uint64, code int, reason string) {
	if gen != s.gen {
		return
	}
	connID := ""
	if s.conn != nil {
		connID = s.conn.ID()
	}
	s.conn = nil
	s.stopHeartbeat()

	if s.manual {
		s.manual = false
		s.logger.LogConnectionClosed(connID, code, reason, true)
		s.setState(link.StateDisconnected)
		return
	}

	s.logger.LogConnectionClosed(connID, code, reason, false)
	s.setState(link.StateDisconnected)
	s.bus.Publish(events.Disconnect())

	decision := s.cfg.Policy.Decide(s.attempts)
	if !decision.ShouldAttempt {
		s.failure = errors.NewReconnectExhaustedError("session").
			WithLogger(s.logger).
			WithContext("attempts", s.attempts).
			Build()
		s.setState(link.StateFailed)
		return
	}
	s.scheduleReconnect(decision.Delay)
}

func (s *Session) scheduleReconnect(delay time.Duration) {
	s.setState(link.StateReconnecting)
	s.logger.LogReconnectScheduled(s.attempts+1, s.cfg.Policy.MaxAttempts, delay)
	cancelTask(&s.reconnect)
	s.reconnect = s.sched.AfterFunc(delay, func() {
		s.reconnect = nil
		s.attempts++
		s.Connect()
	})
}

func (s *Session) cancelTimers() {
	s.stopHeartbeat()
	cancelTask(&s.reconnect)
	cancelTask(&s.force)
}

func cancelTask(t *interfaces.Task) {
	if *t != nil {
		(*t).Cancel()
		*t = nil
	}
}
