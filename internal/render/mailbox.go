package render

import "sync"

// mailbox is an unbounded FIFO handing messages from the event loop to a
// consumer goroutine without blocking the producer
type mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	wake   chan struct{}
	closed bool
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{wake: make(chan struct{}, 1)}
}

// put queues v; it is dropped once the mailbox is closed
func (b *mailbox[T]) put(v T) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.items = append(b.items, v)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// take waits for queued items. ok is false once the mailbox is closed and
// drained.
func (b *mailbox[T]) take() (items []T, ok bool) {
	for {
		b.mu.Lock()
		if len(b.items) > 0 {
			items, b.items = b.items, nil
			b.mu.Unlock()
			return items, true
		}
		if b.closed {
			b.mu.Unlock()
			return nil, false
		}
		b.mu.Unlock()
		<-b.wake
	}
}

func (b *mailbox[T]) close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}
