package protocol_test

import (
	stderrors "errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-console/serialconsole/internal/errors"
	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/logging"
	"github.com/universal-console/serialconsole/internal/mockserial"
	"github.com/universal-console/serialconsole/internal/protocol"
)

// recorder collects callbacks; the inline poster runs them immediately on
// the transport goroutine, which keeps ordering per handle
type recorder struct {
	mu       sync.Mutex
	opened   int
	messages []string
	errs     []error
	closes   []int
}

func (r *recorder) Post(fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
	return true
}

func (r *recorder) handlers() interfaces.ConnHandlers {
	return interfaces.ConnHandlers{
		OnOpen:    func() { r.opened++ },
		OnMessage: func(f string) { r.messages = append(r.messages, f) },
		OnError:   func(err error) { r.errs = append(r.errs, err) },
		OnClose:   func(code int, _ string) { r.closes = append(r.closes, code) },
	}
}

func (r *recorder) snapshot() (int, []string, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened, append([]string(nil), r.messages...), len(r.errs), len(r.closes)
}

const waitFor = 3 * time.Second
const tick = 5 * time.Millisecond

func startMock(t *testing.T) (*mockserial.Server, string) {
	t.Helper()
	srv := mockserial.NewServer(mockserial.DefaultOptions(), logging.NewDiscardLogger())
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/"
}

func newDialer(r *recorder) *protocol.WSDialer {
	return protocol.NewWSDialer(r, protocol.DialerOptions{HandshakeTimeout: 2 * time.Second}, logging.NewDiscardLogger())
}

func TestDialOpensAndExchangesFrames(t *testing.T) {
	_, url := startMock(t)
	r := &recorder{}

	conn, err := newDialer(r).Dial(url, r.handlers())
	require.NoError(t, err)
	assert.NotEmpty(t, conn.ID())

	require.Eventually(t, func() bool { return conn.ReadyState() == interfaces.ReadyOpen }, waitFor, tick)
	require.NoError(t, conn.Send("ping"))
	require.Eventually(t, func() bool {
		_, msgs, _, _ := r.snapshot()
		return len(msgs) == 1 && msgs[0] == "pong"
	}, waitFor, tick)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		_, _, _, closes := r.snapshot()
		return closes == 1
	}, waitFor, tick)

	opened, _, _, _ := r.snapshot()
	assert.Equal(t, 1, opened)
	assert.Equal(t, interfaces.ReadyClosed, conn.ReadyState())
}

func TestSendBeforeOpenFails(t *testing.T) {
	r := &recorder{}
	// nothing listens here, the handshake cannot complete
	conn, err := newDialer(r).Dial("ws://127.0.0.1:1/", r.handlers())
	require.NoError(t, err)

	err = conn.Send("x")
	assert.True(t, stderrors.Is(err, errors.ErrSendFailure))

	require.Eventually(t, func() bool {
		_, _, errs, closes := r.snapshot()
		return errs == 1 && closes == 1
	}, waitFor, tick)
	opened, _, _, _ := r.snapshot()
	assert.Equal(t, 0, opened)
}

func TestDialRejectsBadURL(t *testing.T) {
	r := &recorder{}
	conn, err := newDialer(r).Dial("http://host/", r.handlers())
	assert.Nil(t, conn)
	assert.True(t, stderrors.Is(err, errors.ErrTransport))
}

func TestServerDropReportsClose(t *testing.T) {
	srv, url := startMock(t)
	r := &recorder{}

	conn, err := newDialer(r).Dial(url, r.handlers())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.Clients() == 1 }, waitFor, tick)

	srv.DropClients()
	require.Eventually(t, func() bool {
		_, _, _, closes := r.snapshot()
		return closes == 1
	}, waitFor, tick)
	assert.Equal(t, interfaces.ReadyClosed, conn.ReadyState())
	assert.Error(t, conn.Send("x"))
}

func TestCloseWhileConnecting(t *testing.T) {
	// accepts TCP but never answers the HTTP upgrade
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	var held []net.Conn
	var heldMu sync.Mutex
	t.Cleanup(func() {
		ln.Close()
		heldMu.Lock()
		for _, c := range held {
			c.Close()
		}
		heldMu.Unlock()
	})
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			heldMu.Lock()
			held = append(held, c)
			heldMu.Unlock()
		}
	}()

	r := &recorder{}
	conn, err := newDialer(r).Dial("ws://"+ln.Addr().String()+"/", r.handlers())
	require.NoError(t, err)
	assert.Equal(t, interfaces.ReadyConnecting, conn.ReadyState())
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		_, _, _, closes := r.snapshot()
		return closes == 1
	}, waitFor, tick)
	opened, _, errs, _ := r.snapshot()
	assert.Equal(t, 0, opened)
	assert.Equal(t, 0, errs)
}

func TestSendDoesNotBlockOnStalledPeer(t *testing.T) {
	// accepts the upgrade and then never reads
	hold := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer ws.CloseNow()
		<-hold
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { close(hold) })

	r := &recorder{}
	d := protocol.NewWSDialer(r, protocol.DialerOptions{
		HandshakeTimeout: 2 * time.Second,
		WriteTimeout:     10 * time.Second,
		SendQueue:        8,
	}, logging.NewDiscardLogger())
	conn, err := d.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/", r.handlers())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return conn.ReadyState() == interfaces.ReadyOpen }, waitFor, tick)

	frame := strings.Repeat("x", 64<<10)
	start := time.Now()
	var full error
	for i := 0; i < 2000 && full == nil; i++ {
		full = conn.Send(frame)
	}
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Error(t, full)
	assert.True(t, stderrors.Is(full, errors.ErrSendFailure))
	assert.True(t, stderrors.Is(full, protocol.ErrSendQueueFull))
}
