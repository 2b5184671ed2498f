package link

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyDelayClampsToLastEntry(t *testing.T) {
	p := DefaultPolicy()
	for i := 0; i < 20; i++ {
		idx := i
		if idx > len(p.Schedule)-1 {
			idx = len(p.Schedule) - 1
		}
		assert.Equal(t, p.Schedule[idx], p.Delay(i), "attempt %d", i)
	}
	assert.Equal(t, 30*time.Second, p.Delay(100))
}

func TestPolicyShouldAttempt(t *testing.T) {
	p := DefaultPolicy()
	for i := 0; i < DefaultMaxAttempts; i++ {
		assert.True(t, p.ShouldAttempt(i), "attempt %d", i)
	}
	assert.False(t, p.ShouldAttempt(DefaultMaxAttempts))
	assert.False(t, p.ShouldAttempt(DefaultMaxAttempts+5))
}

func TestPolicyDecide(t *testing.T) {
	p := DefaultPolicy()
	d := p.Decide(3)
	assert.Equal(t, Decision{Delay: 8 * time.Second, ShouldAttempt: true}, d)

	d = p.Decide(10)
	assert.False(t, d.ShouldAttempt)
	assert.Equal(t, 30*time.Second, d.Delay)
}

func TestPolicyEdgeSchedules(t *testing.T) {
	empty := Policy{MaxAttempts: 3}
	assert.Equal(t, time.Duration(0), empty.Delay(2))

	single := Policy{Schedule: []time.Duration{time.Second}, MaxAttempts: 3}
	assert.Equal(t, time.Second, single.Delay(-4))
	assert.Equal(t, time.Second, single.Delay(9))

	none := Policy{Schedule: DefaultSchedule, MaxAttempts: 0}
	assert.False(t, none.ShouldAttempt(0))
}

func TestDefaultPolicyIsACopy(t *testing.T) {
	p := DefaultPolicy()
	p.Schedule[0] = time.Hour
	assert.Equal(t, time.Second, DefaultSchedule[0])
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	err := Policy{MaxAttempts: -1}.Validate()
	require.ErrorIs(t, err, ErrInvalidPolicy)

	err = Policy{Schedule: []time.Duration{time.Second, -time.Second}, MaxAttempts: 1}.Validate()
	require.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestClassifyRTT(t *testing.T) {
	tests := []struct {
		rtt  time.Duration
		want Quality
	}{
		{0, QualityGood},
		{50 * time.Millisecond, QualityGood},
		{99 * time.Millisecond, QualityGood},
		{100 * time.Millisecond, QualityUnstable},
		{250 * time.Millisecond, QualityUnstable},
		{499 * time.Millisecond, QualityUnstable},
		{500 * time.Millisecond, QualityPoor},
		{600 * time.Millisecond, QualityPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyRTT(tt.rtt), "rtt %v", tt.rtt)
	}
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "reconnecting", StateReconnecting.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.True(t, StateConnecting.IsActive())
	assert.False(t, StateFailed.IsActive())
	assert.Equal(t, "poor", QualityPoor.String())
}
