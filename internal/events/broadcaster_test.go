package events

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-console/serialconsole/internal/link"
	"github.com/universal-console/serialconsole/internal/logging"
)

func newTestBroadcaster() *Broadcaster {
	return NewBroadcaster(logging.NewDiscardLogger())
}

func TestPublishInSubscriptionOrder(t *testing.T) {
	b := newTestBroadcaster()
	var order []int
	b.OnConnect(func() { order = append(order, 1) })
	b.OnConnect(func() { order = append(order, 2) })
	b.OnConnect(func() { order = append(order, 3) })

	assert.Equal(t, 3, b.Publish(Connect()))
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestPublishOnlyMatchingKind(t *testing.T) {
	b := newTestBroadcaster()
	var frames []string
	disconnects := 0
	b.OnMessage(func(f string) { frames = append(frames, f) })
	b.OnDisconnect(func() { disconnects++ })

	b.Publish(Message("\x1b[32mhello\x1b[0m"))
	b.Publish(Disconnect())

	assert.Equal(t, []string{"\x1b[32mhello\x1b[0m"}, frames)
	assert.Equal(t, 1, disconnects)
}

func TestStateChangePayload(t *testing.T) {
	b := newTestBroadcaster()
	var got []link.Transition
	b.OnStateChange(func(old, new link.State) {
		got = append(got, link.Transition{Old: old, New: new})
	})

	b.Publish(StateChange(link.StateDisconnected, link.StateConnecting))
	require.Len(t, got, 1)
	assert.Equal(t, link.StateDisconnected, got[0].Old)
	assert.Equal(t, link.StateConnecting, got[0].New)
}

func TestUnsubscribe(t *testing.T) {
	b := newTestBroadcaster()
	var a, c int
	unsubA := b.OnConnect(func() { a++ })
	b.OnConnect(func() { c++ })

	b.Publish(Connect())
	unsubA()
	unsubA()
	b.Publish(Connect())

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, c)
	assert.Equal(t, 1, b.Count(KindConnect))
}

func TestFailingSubscriberIsolated(t *testing.T) {
	b := newTestBroadcaster()
	var reached []string
	b.Subscribe(KindMessage, func(e Event) error {
		reached = append(reached, "first")
		panic("subscriber exploded")
	})
	b.Subscribe(KindMessage, func(e Event) error {
		reached = append(reached, "second")
		return stderrors.New("subscriber failed")
	})
	b.OnMessage(func(string) { reached = append(reached, "third") })

	var ok int
	assert.NotPanics(t, func() { ok = b.Publish(Message("x")) })
	assert.Equal(t, 1, ok)
	assert.Equal(t, []string{"first", "second", "third"}, reached)
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	b := newTestBroadcaster()
	calls := 0
	var unsub func()
	unsub = b.OnConnect(func() { unsub() })
	b.OnConnect(func() { calls++ })

	b.Publish(Connect())
	b.Publish(Connect())
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, b.Count(KindConnect))
}
