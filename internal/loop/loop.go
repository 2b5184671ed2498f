// Package loop implements the single-threaded event loop of the console.
// Session state, timer callbacks and transport callbacks all run on the
// goroutine executing Run; other goroutines hand work over with Post.
package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/logging"
)

// Loop serializes callbacks onto one goroutine and schedules timers against
// a clock.Clock.
type Loop struct {
	clock  clock.Clock
	logger *logging.Logger

	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}

	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
}

// New creates a loop. A nil clock uses the wall clock.
func New(clk clock.Clock, logger *logging.Logger) *Loop {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = logging.GetGlobalLogger().WithComponent("loop")
	}
	return &Loop{
		clock:  clk,
		logger: logger,
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Run executes posted callbacks until ctx is cancelled or Stop is called.
// Callbacks still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	defer l.markStopped()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quit:
			return nil
		case <-l.wake:
			for _, fn := range l.drain() {
				// stop between callbacks, not only between batches
				select {
				case <-l.quit:
					return nil
				default:
				}
				l.invoke(fn)
			}
		}
	}
}

func (l *Loop) drain() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Loop callback panicked", "panic", r)
		}
	}()
	fn()
}

func (l *Loop) markStopped() {
	l.mu.Lock()
	l.stopped = true
	l.queue = nil
	l.mu.Unlock()
}

// Stop ends Run. It is safe to call more than once.
func (l *Loop) Stop() {
	l.quitOnce.Do(func() { close(l.quit) })
}

// Done is closed when Run has returned
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn for the loop goroutine. It returns false once the loop has
// stopped, in which case fn never runs.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Now returns the loop clock's current time
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// task is shared by one-shot and repeating timers. cancelled is checked on
// the loop goroutine right before fn runs, so Cancel called from the loop
// wins over a tick that already fired.
type task struct {
	cancelled atomic.Bool
	timer     *clock.Timer
	ticker    *clock.Ticker
	stop      chan struct{}
	stopOnce  sync.Once
}

// Cancel prevents any further run of the task's callback
func (t *task) Cancel() {
	t.cancelled.Store(true)
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.ticker != nil {
		t.ticker.Stop()
	}
	if t.stop != nil {
		t.stopOnce.Do(func() { close(t.stop) })
	}
}

func (l *Loop) fire(t *task, fn func()) {
	l.Post(func() {
		if t.cancelled.Load() {
			return
		}
		fn()
	})
}

// AfterFunc runs fn on the loop once d has elapsed
func (l *Loop) AfterFunc(d time.Duration, fn func()) interfaces.Task {
	t := &task{}
	t.timer = l.clock.AfterFunc(d, func() { l.fire(t, fn) })
	return t
}

// Every runs fn on the loop each time d elapses, until cancelled
func (l *Loop) Every(d time.Duration, fn func()) interfaces.Task {
	t := &task{
		ticker: l.clock.Ticker(d),
		stop:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-t.ticker.C:
				l.fire(t, fn)
			case <-t.stop:
				return
			case <-l.done:
				return
			}
		}
	}()
	return t
}

var _ interfaces.Scheduler = (*Loop)(nil)
