package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-console/serialconsole/internal/link"
)

func TestChannelsDefaults(t *testing.T) {
	c := NewChannels(0, nil)
	assert.Equal(t, DefaultChannelCount, c.Count())
	assert.Equal(t, []string{"SBC1", "SBC2", "SBC3", "SBC4", "SBC5"}, c.Labels())
	// outside the configured range still gets a label
	assert.Equal(t, "SBC8", c.Label(7))
}

func TestChannelsOverrides(t *testing.T) {
	c := NewChannels(3, []string{"router", "", "nas"})
	assert.Equal(t, []string{"router", "SBC2", "nas"}, c.Labels())

	c.SetLabel(1, "pi")
	assert.Equal(t, "pi", c.Label(1))
	c.SetLabel(1, "")
	assert.Equal(t, "SBC2", c.Label(1))
}

func TestHealthHistoryBounded(t *testing.T) {
	hm := NewHealthMonitor(3)
	for i := 1; i <= 5; i++ {
		hm.Record(ProbeSnapshot{RTT: time.Duration(i) * time.Millisecond})
	}
	h := hm.GetHealthHistory(0)
	require.Len(t, h, 3)
	assert.Equal(t, 3*time.Millisecond, h[0].RTT)
	assert.Len(t, hm.GetHealthHistory(2), 2)

	hm.ClearHealthHistory()
	assert.Empty(t, hm.GetHealthHistory(0))
}

func TestHealthTrends(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	hm := NewHealthMonitor(0)
	hm.now = func() time.Time { return now }

	hm.Record(ProbeSnapshot{Timestamp: now.Add(-2 * time.Hour), RTT: time.Second, Quality: link.QualityPoor})
	hm.Record(ProbeSnapshot{Timestamp: now.Add(-30 * time.Second), RTT: 40 * time.Millisecond, Quality: link.QualityGood})
	hm.Record(ProbeSnapshot{Timestamp: now.Add(-15 * time.Second), RTT: 200 * time.Millisecond, Quality: link.QualityUnstable})
	hm.Record(ProbeSnapshot{Timestamp: now, TimedOut: true, Quality: link.QualityUnstable})

	tr := hm.GetHealthTrends(time.Minute)
	assert.Equal(t, 3, tr.SampleCount)
	assert.Equal(t, 1, tr.Timeouts)
	assert.Equal(t, 120*time.Millisecond, tr.AverageRTT)
	assert.Equal(t, 200*time.Millisecond, tr.MaxRTT)
	assert.InDelta(t, 33.33, tr.GoodPercentage, 0.01)

	empty := NewHealthMonitor(0).GetHealthTrends(time.Minute)
	assert.Equal(t, 0, empty.SampleCount)
}
