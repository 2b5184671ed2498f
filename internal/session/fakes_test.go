package session

import (
	"sort"
	"time"

	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/protocol"
)

// fakeScheduler runs tasks synchronously as virtual time advances
type fakeScheduler struct {
	now   time.Time
	seq   int
	tasks []*fakeTask
}

type fakeTask struct {
	seq       int
	at        time.Time
	every     time.Duration
	fn        func()
	cancelled bool
}

func (t *fakeTask) Cancel() { t.cancelled = true }

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeScheduler) add(d, every time.Duration, fn func()) *fakeTask {
	f.seq++
	t := &fakeTask{seq: f.seq, at: f.now.Add(d), every: every, fn: fn}
	f.tasks = append(f.tasks, t)
	return t
}

func (f *fakeScheduler) AfterFunc(d time.Duration, fn func()) interfaces.Task {
	return f.add(d, 0, fn)
}

func (f *fakeScheduler) Every(d time.Duration, fn func()) interfaces.Task {
	return f.add(d, d, fn)
}

func (f *fakeScheduler) Now() time.Time { return f.now }

func (f *fakeScheduler) live() []*fakeTask {
	var out []*fakeTask
	for _, t := range f.tasks {
		if !t.cancelled {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].at.Equal(out[j].at) {
			return out[i].seq < out[j].seq
		}
		return out[i].at.Before(out[j].at)
	})
	return out
}

// Advance moves time forward by d, running every task that comes due in
// time order
func (f *fakeScheduler) Advance(d time.Duration) {
	target := f.now.Add(d)
	for {
		live := f.live()
		if len(live) == 0 || live[0].at.After(target) {
			break
		}
		t := live[0]
		f.now = t.at
		if t.every > 0 {
			t.at = t.at.Add(t.every)
		} else {
			t.cancelled = true
		}
		t.fn()
	}
	f.now = target
}

// oneShots returns the delays, from now, of pending one-shot tasks
func (f *fakeScheduler) oneShots() []time.Duration {
	var out []time.Duration
	for _, t := range f.live() {
		if t.every == 0 {
			out = append(out, t.at.Sub(f.now))
		}
	}
	return out
}

func (f *fakeScheduler) repeating() int {
	n := 0
	for _, t := range f.live() {
		if t.every > 0 {
			n++
		}
	}
	return n
}

type fakeConn struct {
	id      string
	state   interfaces.ReadyState
	h       interfaces.ConnHandlers
	sent    []string
	closed  bool
	sendErr error
}

func (c *fakeConn) ID() string                        { return c.id }
func (c *fakeConn) ReadyState() interfaces.ReadyState { return c.state }

func (c *fakeConn) Send(text string) error {
	if c.state != interfaces.ReadyOpen {
		return protocol.ErrNotOpen
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, text)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	c.state = interfaces.ReadyClosed
	return nil
}

func (c *fakeConn) open() {
	c.state = interfaces.ReadyOpen
	c.h.OnOpen()
}

func (c *fakeConn) drop() {
	c.state = interfaces.ReadyClosed
	c.h.OnClose(protocol.CloseAbnormal, "")
}

func (c *fakeConn) receive(frame string) {
	c.h.OnMessage(frame)
}

type fakeDialer struct {
	conns []*fakeConn
	err   error
	urls  []string
}

func (d *fakeDialer) Dial(url string, h interfaces.ConnHandlers) (interfaces.Conn, error) {
	d.urls = append(d.urls, url)
	if d.err != nil {
		return nil, d.err
	}
	c := &fakeConn{id: "conn-" + string(rune('a'+len(d.conns))), state: interfaces.ReadyConnecting, h: h}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) last() *fakeConn {
	return d.conns[len(d.conns)-1]
}
