package link

import (
	"errors"
	"fmt"
	"time"
)

// DefaultMaxAttempts caps consecutive automatic reconnects.
const DefaultMaxAttempts = 10

// DefaultSchedule is the fixed backoff sequence; later attempts reuse the
// last entry.
var DefaultSchedule = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	15 * time.Second,
	30 * time.Second,
}

var ErrInvalidPolicy = errors.New("link: invalid reconnection policy")

// Policy decides whether and when to reconnect after a drop. It is a value
// type; the session owns the attempt counter.
type Policy struct {
	Schedule    []time.Duration
	MaxAttempts int
}

// Decision is the outcome of evaluating a Policy for one attempt index.
type Decision struct {
	Delay         time.Duration
	ShouldAttempt bool
}

// DefaultPolicy returns the schedule and cap used by the firmware client.
func DefaultPolicy() Policy {
	schedule := make([]time.Duration, len(DefaultSchedule))
	copy(schedule, DefaultSchedule)
	return Policy{Schedule: schedule, MaxAttempts: DefaultMaxAttempts}
}

// Decide evaluates the policy for attemptIndex.
func (p Policy) Decide(attemptIndex int) Decision {
	return Decision{
		Delay:         p.Delay(attemptIndex),
		ShouldAttempt: p.ShouldAttempt(attemptIndex),
	}
}

// Delay returns Schedule[min(i, len-1)]. An empty schedule yields zero.
func (p Policy) Delay(attemptIndex int) time.Duration {
	if len(p.Schedule) == 0 {
		return 0
	}
	if attemptIndex < 0 {
		attemptIndex = 0
	}
	if attemptIndex >= len(p.Schedule) {
		attemptIndex = len(p.Schedule) - 1
	}
	return p.Schedule[attemptIndex]
}

// ShouldAttempt reports whether attempt attemptIndex is still allowed.
func (p Policy) ShouldAttempt(attemptIndex int) bool {
	return attemptIndex < p.MaxAttempts
}

// Validate rejects negative delays and a negative attempt cap.
func (p Policy) Validate() error {
	if p.MaxAttempts < 0 {
		return fmt.Errorf("%w: max attempts %d", ErrInvalidPolicy, p.MaxAttempts)
	}
	for i, d := range p.Schedule {
		if d < 0 {
			return fmt.Errorf("%w: schedule[%d] is negative", ErrInvalidPolicy, i)
		}
	}
	return nil
}
