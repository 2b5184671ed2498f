// Package events implements the broadcaster that decouples the transport
// session from its consumers. Subscribers register per event kind and are
// invoked synchronously, in subscription order, on the publishing goroutine.
package events

import (
	"fmt"
	"sync"

	"github.com/universal-console/serialconsole/internal/errors"
	"github.com/universal-console/serialconsole/internal/link"
	"github.com/universal-console/serialconsole/internal/logging"
)

// Kind identifies an event category
type Kind int

const (
	KindConnect Kind = iota
	KindDisconnect
	KindMessage
	KindStateChange
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindDisconnect:
		return "disconnect"
	case KindMessage:
		return "message"
	case KindStateChange:
		return "state_change"
	default:
		return "unknown"
	}
}

// Event is one broadcast. Frame is set for KindMessage and Transition for
// KindStateChange.
type Event struct {
	Kind       Kind
	Frame      string
	Transition link.Transition
}

// Connect builds a connect event
func Connect() Event { return Event{Kind: KindConnect} }

// Disconnect builds a disconnect event
func Disconnect() Event { return Event{Kind: KindDisconnect} }

// Message builds a message event carrying a raw payload frame
func Message(frame string) Event { return Event{Kind: KindMessage, Frame: frame} }

// StateChange builds a state change event
func StateChange(old, new link.State) Event {
	return Event{Kind: KindStateChange, Transition: link.Transition{Old: old, New: new}}
}

// Handler consumes an event. A returned error is logged, never propagated.
type Handler func(Event) error

type subscription struct {
	id      uint64
	handler Handler
}

// Broadcaster fans events out to subscribers
type Broadcaster struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Kind][]subscription
	logger *logging.Logger
}

// NewBroadcaster creates an empty broadcaster
func NewBroadcaster(logger *logging.Logger) *Broadcaster {
	if logger == nil {
		logger = logging.GetGlobalLogger().WithComponent("events")
	}
	return &Broadcaster{
		subs:   make(map[Kind][]subscription),
		logger: logger,
	}
}

// Subscribe registers h for kind and returns a function removing exactly this
// subscription. Calling it more than once is a no-op.
func (b *Broadcaster) Subscribe(kind Kind, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(kind, id) })
	}
}

func (b *Broadcaster) remove(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[kind]
	for i, s := range subs {
		if s.id == id {
			// copy so a publish iterating the old slice is unaffected
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			b.subs[kind] = next
			return
		}
	}
}

// OnConnect subscribes to connect events
func (b *Broadcaster) OnConnect(fn func()) func() {
	return b.Subscribe(KindConnect, func(Event) error {
		fn()
		return nil
	})
}

// OnDisconnect subscribes to disconnect events
func (b *Broadcaster) OnDisconnect(fn func()) func() {
	return b.Subscribe(KindDisconnect, func(Event) error {
		fn()
		return nil
	})
}

// OnMessage subscribes to payload frames
func (b *Broadcaster) OnMessage(fn func(frame string)) func() {
	return b.Subscribe(KindMessage, func(e Event) error {
		fn(e.Frame)
		return nil
	})
}

// OnStateChange subscribes to state transitions
func (b *Broadcaster) OnStateChange(fn func(old, new link.State)) func() {
	return b.Subscribe(KindStateChange, func(e Event) error {
		fn(e.Transition.Old, e.Transition.New)
		return nil
	})
}

// Publish delivers e to every subscriber of its kind. A failing subscriber
// does not stop delivery to the rest. It returns the number of subscribers
// that completed cleanly.
func (b *Broadcaster) Publish(e Event) int {
	b.mu.Lock()
	subs := b.subs[e.Kind]
	b.mu.Unlock()

	ok := 0
	for _, s := range subs {
		name := fmt.Sprintf("%s#%d", e.Kind, s.id)
		if errors.SafeInvoke(b.logger, name, func() error { return s.handler(e) }) {
			ok++
		}
	}
	return ok
}

// Count returns the number of subscribers for kind
func (b *Broadcaster) Count(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[kind])
}
