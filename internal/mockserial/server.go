// Package mockserial implements a development stand-in for the serial
// console multiplexer: a WebSocket endpoint fronting several simulated
// boards, speaking the same text-frame protocol as the firmware.
package mockserial

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/universal-console/serialconsole/internal/errors"
	"github.com/universal-console/serialconsole/internal/logging"
	"github.com/universal-console/serialconsole/internal/protocol"
)

// DefaultChannels matches the firmware's channel count
const DefaultChannels = 5

// Options configures the mock multiplexer
type Options struct {
	Channels     int
	AnswerPings  bool
	WriteTimeout time.Duration
}

// DefaultOptions returns options mirroring the real device, plus pong replies
func DefaultOptions() Options {
	return Options{
		Channels:     DefaultChannels,
		AnswerPings:  true,
		WriteTimeout: 5 * time.Second,
	}
}

// Server is an http.Handler serving the multiplexer protocol
type Server struct {
	opts   Options
	logger *logging.Logger

	mu          sync.Mutex
	channel     int
	boards      []*sbc
	clients     map[*client]struct{}
	answerPings bool
	received    []string
}

type client struct {
	conn *websocket.Conn
	out  chan string
}

// NewServer creates a mock multiplexer with channel 0 selected
func NewServer(opts Options, logger *logging.Logger) *Server {
	if opts.Channels <= 0 {
		opts.Channels = DefaultChannels
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.GetGlobalLogger().WithComponent("mockserial")
	}
	s := &Server{
		opts:        opts,
		logger:      logger,
		clients:     make(map[*client]struct{}),
		answerPings: opts.AnswerPings,
	}
	for i := 0; i < opts.Channels; i++ {
		s.boards = append(s.boards, newSBC(i))
	}
	return s
}

// ServeHTTP upgrades the request and serves one client until it leaves
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Warn("WebSocket accept failed", "error", err.Error())
		return
	}

	c := &client{conn: conn, out: make(chan string, 256)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("Client connected", "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Info("Client disconnected", "remote", r.RemoteAddr)
	}()

	go s.writeLoop(ctx, c)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			s.logger.Debug("Ignoring binary frame", "bytes", len(data))
			continue
		}
		s.handleText(c, string(data))
	}
}

func (s *Server) writeLoop(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.out:
			wctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, []byte(msg))
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (s *Server) handleText(c *client, msg string) {
	if msg == "" {
		return
	}
	for i := 0; i < len(msg); i++ {
		if msg[i] > 127 {
			s.logger.Debug("Ignoring non-ASCII frame")
			return
		}
	}

	s.mu.Lock()
	s.received = append(s.received, msg)
	answer := s.answerPings
	s.mu.Unlock()

	if msg == protocol.FramePing && answer {
		s.enqueue(c, protocol.FramePongText)
		return
	}

	if strings.HasPrefix(msg, protocol.ChannelPrefix) {
		if n, ok := protocol.ParseChannelCommand(msg); ok {
			s.SelectChannel(n)
		} else {
			errors.NewProtocolError("mockserial").
				WithLogger(s.logger).
				WithSeverity(errors.SeverityLow).
				WithOperation("select_channel").
				WithMessage("malformed channel command ignored").
				WithContext("frame", msg).
				Build()
		}
		return
	}

	s.mu.Lock()
	out := s.boards[s.channel].feed(msg)
	s.mu.Unlock()
	if out != "" {
		s.Broadcast(out)
	}
}

// SelectChannel switches the active board. Out of range indices are ignored
// and reported as false.
func (s *Server) SelectChannel(n int) bool {
	s.mu.Lock()
	if n < 0 || n >= len(s.boards) {
		s.mu.Unlock()
		s.logger.Debug("Ignoring channel out of range", "channel", n)
		return false
	}
	s.channel = n
	banner := s.boards[n].banner()
	s.mu.Unlock()

	s.logger.Info("Switched channel", "channel", n)
	s.Broadcast(banner)
	return true
}

// Broadcast sends frame to every connected client, as board output does
func (s *Server) Broadcast(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		s.enqueueLocked(c, frame)
	}
}

func (s *Server) enqueue(c *client, frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueueLocked(c, frame)
}

func (s *Server) enqueueLocked(c *client, frame string) {
	select {
	case c.out <- frame:
	default:
		s.logger.Warn("Client too slow, dropping frame")
	}
}

// SetAnswerPings toggles pong replies, to simulate a stalled link
func (s *Server) SetAnswerPings(answer bool) {
	s.mu.Lock()
	s.answerPings = answer
	s.mu.Unlock()
}

// DropClients closes every connection abruptly
func (s *Server) DropClients() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.conn.CloseNow()
	}
}

// Channel returns the selected channel
func (s *Server) Channel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

// Clients returns the number of connected clients
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Received returns every text frame accepted so far
func (s *Server) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.received))
	copy(out, s.received)
	return out
}
