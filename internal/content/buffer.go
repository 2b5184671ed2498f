package content

import "sync"

// Message history sizes
const (
	DefaultBufferCapacity = 1000
	DefaultReplayCount    = 50
)

// MessageBuffer is a bounded FIFO of raw payload frames in receipt order.
// When full, the oldest frame is evicted.
type MessageBuffer struct {
	mu       sync.RWMutex
	frames   []string
	start    int
	count    int
	replayN  int
	evicted  uint64
	appended uint64
}

// NewMessageBuffer creates a buffer holding up to capacity frames. A
// non-positive capacity uses DefaultBufferCapacity.
func NewMessageBuffer(capacity int) *MessageBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &MessageBuffer{
		frames:  make([]string, capacity),
		replayN: DefaultReplayCount,
	}
}

// Append adds frame, evicting the oldest frame when full
func (b *MessageBuffer) Append(frame string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.appended++
	capacity := len(b.frames)
	if b.count < capacity {
		b.frames[(b.start+b.count)%capacity] = frame
		b.count++
		return
	}
	b.frames[b.start] = frame
	b.start = (b.start + 1) % capacity
	b.evicted++
}

// Len returns the number of frames held
func (b *MessageBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap returns the buffer capacity
func (b *MessageBuffer) Cap() int {
	return len(b.frames)
}

// Snapshot returns a copy of every frame held, oldest first
func (b *MessageBuffer) Snapshot() []string {
	return b.Tail(b.Cap())
}

// Tail returns a copy of the last n frames, oldest first
func (b *MessageBuffer) Tail(n int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.count {
		n = b.count
	}
	if n <= 0 {
		return []string{}
	}
	out := make([]string, n)
	capacity := len(b.frames)
	first := b.start + b.count - n
	for i := 0; i < n; i++ {
		out[i] = b.frames[(first+i)%capacity]
	}
	return out
}

// Replay returns the frames a newly activated renderer should display
func (b *MessageBuffer) Replay() []string {
	return b.Tail(b.replayN)
}

// Stats returns the totals appended and evicted since creation
func (b *MessageBuffer) Stats() (appended, evicted uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.appended, b.evicted
}
