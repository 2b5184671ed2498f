package protocol

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/universal-console/serialconsole/internal/errors"
	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/logging"
)

// Poster hands a callback to the event loop
type Poster interface {
	Post(fn func()) bool
}

// DialerOptions tunes the WebSocket transport
type DialerOptions struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadLimit        int64
	// SendQueue bounds the frames waiting for the writer goroutine
	SendQueue int
}

// WSDialer opens coder/websocket connections whose callbacks are delivered
// through a Poster
type WSDialer struct {
	poster Poster
	opts   DialerOptions
	logger *logging.Logger
}

// NewWSDialer creates a dialer. Zero options take the package defaults.
func NewWSDialer(poster Poster, opts DialerOptions, logger *logging.Logger) *WSDialer {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = DefaultReadLimit
	}
	if opts.SendQueue <= 0 {
		opts.SendQueue = DefaultSendQueue
	}
	if logger == nil {
		logger = logging.GetTransportLogger()
	}
	return &WSDialer{poster: poster, opts: opts, logger: logger}
}

// Dial returns a handle in ReadyConnecting. The handshake runs in the
// background; its outcome arrives through handlers.
func (d *WSDialer) Dial(rawURL string, handlers interfaces.ConnHandlers) (interfaces.Conn, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, errors.NewTransportError("transport").
			WithLogger(d.logger).
			WithOperation("dial").
			WithMessage("invalid endpoint").
			WithContext("url", rawURL).
			WithCause(err).
			Build()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &wsConn{
		id:       uuid.NewString(),
		url:      rawURL,
		dialer:   d,
		handlers: handlers,
		ctx:      ctx,
		cancel:   cancel,
		outbound: make(chan string, d.opts.SendQueue),
	}
	c.state.Store(int32(interfaces.ReadyConnecting))

	go c.run()
	return c, nil
}

type wsConn struct {
	id       string
	url      string
	dialer   *WSDialer
	handlers interfaces.ConnHandlers

	ctx      context.Context
	cancel   context.CancelFunc
	outbound chan string

	mu        sync.Mutex
	ws        *websocket.Conn
	state     atomic.Int32
	closeOnce sync.Once
	manual    atomic.Bool
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) ReadyState() interfaces.ReadyState {
	return interfaces.ReadyState(c.state.Load())
}

func (c *wsConn) post(fn func()) {
	c.dialer.poster.Post(fn)
}

func (c *wsConn) emitError(err error) {
	if h := c.handlers.OnError; h != nil {
		c.post(func() { h(err) })
	}
}

func (c *wsConn) emitClose(code int, reason string) {
	c.state.Store(int32(interfaces.ReadyClosed))
	if h := c.handlers.OnClose; h != nil {
		c.post(func() { h(code, reason) })
	}
}

func (c *wsConn) run() {
	defer c.cancel()
	logger := c.dialer.logger.WithField("conn_id", c.id)

	dialCtx, cancelDial := context.WithTimeout(c.ctx, c.dialer.opts.HandshakeTimeout)
	ws, _, err := websocket.Dial(dialCtx, c.url, nil)
	cancelDial()
	if err != nil {
		if c.manual.Load() {
			c.emitClose(CloseAbnormal, "closed before open")
			return
		}
		logger.Debug("Handshake failed", "url", c.url, "error", err.Error())
		c.emitError(err)
		c.emitClose(CloseAbnormal, "")
		return
	}
	ws.SetReadLimit(c.dialer.opts.ReadLimit)

	c.mu.Lock()
	if c.manual.Load() {
		c.mu.Unlock()
		ws.Close(websocket.StatusNormalClosure, "")
		c.emitClose(CloseNormal, "")
		return
	}
	c.ws = ws
	go c.writeLoop(ws)
	c.state.Store(int32(interfaces.ReadyOpen))
	c.mu.Unlock()

	if h := c.handlers.OnOpen; h != nil {
		c.post(h)
	}

	for {
		_, data, err := ws.Read(c.ctx)
		if err != nil {
			c.finish(err)
			return
		}
		if h := c.handlers.OnMessage; h != nil {
			frame := string(data)
			c.post(func() { h(frame) })
		}
	}
}

// finish reports the end of an open connection
func (c *wsConn) finish(err error) {
	var ce websocket.CloseError
	switch {
	case stderrors.As(err, &ce):
		c.emitClose(int(ce.Code), ce.Reason)
	case c.manual.Load():
		c.emitClose(CloseNormal, "")
	default:
		c.emitError(err)
		c.emitClose(CloseAbnormal, "")
	}
}

// Send queues text for the writer goroutine and returns without waiting for
// the socket. A nil error means the frame was accepted by an open handle.
func (c *wsConn) Send(text string) error {
	if c.ReadyState() != interfaces.ReadyOpen {
		return ErrNotOpen
	}
	select {
	case c.outbound <- text:
		return nil
	case <-c.ctx.Done():
		return ErrNotOpen
	default:
		return errors.NewSendFailureError("transport").
			WithLogger(c.dialer.logger).
			WithOperation("send").
			WithContext("conn_id", c.id).
			WithContext("queued", len(c.outbound)).
			WithCause(ErrSendQueueFull).
			Build()
	}
}

// writeLoop drains outbound in order. A failed write aborts the socket so
// the read loop reports the close.
func (c *wsConn) writeLoop(ws *websocket.Conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case text := <-c.outbound:
			ctx, cancel := context.WithTimeout(c.ctx, c.dialer.opts.WriteTimeout)
			err := ws.Write(ctx, websocket.MessageText, []byte(text))
			cancel()
			if err != nil {
				if c.ctx.Err() == nil && !c.manual.Load() {
					errors.NewSendFailureError("transport").
						WithLogger(c.dialer.logger).
						WithOperation("write").
						WithContext("conn_id", c.id).
						WithCause(err).
						Build()
				}
				ws.CloseNow()
				return
			}
		}
	}
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.manual.Store(true)

		if c.ws == nil {
			// still connecting: abort the handshake
			c.state.Store(int32(interfaces.ReadyClosing))
			c.cancel()
			return
		}
		c.state.Store(int32(interfaces.ReadyClosing))
		ws := c.ws
		go ws.Close(websocket.StatusNormalClosure, "")
	})
	return nil
}

var _ interfaces.Dialer = (*WSDialer)(nil)
