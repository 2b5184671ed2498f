package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-console/serialconsole/internal/logging"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

func startLoop(t *testing.T, clk clock.Clock) *Loop {
	t.Helper()
	l := New(clk, logging.NewDiscardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l
}

// drainLoop waits until every callback posted so far has run
func drainLoop(t *testing.T, l *Loop) {
	t.Helper()
	ch := make(chan struct{})
	require.True(t, l.Post(func() { close(ch) }))
	select {
	case <-ch:
	case <-time.After(waitFor):
		t.Fatal("loop did not drain")
	}
}

func TestPostRunsInOrder(t *testing.T) {
	l := startLoop(t, clock.NewMock())
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	drainLoop(t, l)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestPostAfterStopIsDropped(t *testing.T) {
	l := New(clock.NewMock(), logging.NewDiscardLogger())
	go func() { _ = l.Run(context.Background()) }()
	l.Stop()
	<-l.Done()

	assert.False(t, l.Post(func() { t.Error("ran after stop") }))
}

func TestPanickingCallbackDoesNotKillLoop(t *testing.T) {
	l := startLoop(t, clock.NewMock())
	l.Post(func() { panic("boom") })
	ran := false
	l.Post(func() { ran = true })
	drainLoop(t, l)
	assert.True(t, ran)
}

func TestAfterFuncFiresOnLoop(t *testing.T) {
	mock := clock.NewMock()
	l := startLoop(t, mock)
	var fired atomic.Int32

	l.Post(func() {
		l.AfterFunc(time.Second, func() { fired.Add(1) })
	})
	drainLoop(t, l)

	mock.Add(999 * time.Millisecond)
	drainLoop(t, l)
	assert.Equal(t, int32(0), fired.Load())

	mock.Add(time.Millisecond)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, tick)
}

func TestCancelledAfterFuncNeverRuns(t *testing.T) {
	mock := clock.NewMock()
	l := startLoop(t, mock)
	var fired atomic.Int32

	task := l.AfterFunc(time.Second, func() { fired.Add(1) })
	task.Cancel()
	mock.Add(2 * time.Second)
	time.Sleep(20 * time.Millisecond)
	drainLoop(t, l)
	assert.Equal(t, int32(0), fired.Load())
}

func TestCancelWinsOverQueuedTick(t *testing.T) {
	l := startLoop(t, clock.NewMock())
	var fired atomic.Int32

	// simulate a timer that fired while the loop was busy: the callback is
	// queued behind the cancel
	tk := &task{}
	l.Post(func() { tk.Cancel() })
	l.fire(tk, func() { fired.Add(1) })
	drainLoop(t, l)
	assert.Equal(t, int32(0), fired.Load())
}

func TestEveryRepeatsUntilCancelled(t *testing.T) {
	mock := clock.NewMock()
	l := startLoop(t, mock)
	var fired atomic.Int32

	task := l.Every(15*time.Second, func() { fired.Add(1) })
	// let the ticker goroutine start waiting
	time.Sleep(10 * time.Millisecond)

	mock.Add(15 * time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, waitFor, tick)
	mock.Add(15 * time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 2 }, waitFor, tick)

	l.Post(task.Cancel)
	drainLoop(t, l)
	mock.Add(45 * time.Second)
	time.Sleep(20 * time.Millisecond)
	drainLoop(t, l)
	assert.Equal(t, int32(2), fired.Load())
}

func TestNowUsesClock(t *testing.T) {
	mock := clock.NewMock()
	l := New(mock, logging.NewDiscardLogger())
	start := l.Now()
	mock.Add(3 * time.Second)
	assert.Equal(t, 3*time.Second, l.Now().Sub(start))
}
