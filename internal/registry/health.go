package registry

import (
	"sync"
	"time"

	"github.com/universal-console/serialconsole/internal/link"
)

// DefaultHistorySize bounds the probe history
const DefaultHistorySize = 100

// ProbeSnapshot is one heartbeat outcome
type ProbeSnapshot struct {
	Timestamp time.Time
	RTT       time.Duration
	Quality   link.Quality
	TimedOut  bool
}

// LinkTrends summarizes the probe history over a window
type LinkTrends struct {
	AnalysisPeriod time.Duration
	SampleCount    int
	Timeouts       int
	GoodPercentage float64
	AverageRTT     time.Duration
	MaxRTT         time.Duration
}

// HealthMonitor records heartbeat results for the status view
type HealthMonitor struct {
	mutex   sync.RWMutex
	history []ProbeSnapshot
	limit   int
	now     func() time.Time
}

// NewHealthMonitor creates a monitor keeping up to limit snapshots
func NewHealthMonitor(limit int) *HealthMonitor {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &HealthMonitor{limit: limit, now: time.Now}
}

// Record stores one probe outcome, dropping the oldest past the limit
func (hm *HealthMonitor) Record(s ProbeSnapshot) {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	if s.Timestamp.IsZero() {
		s.Timestamp = hm.now()
	}
	hm.history = append(hm.history, s)
	if len(hm.history) > hm.limit {
		hm.history = hm.history[len(hm.history)-hm.limit:]
	}
}

// GetHealthHistory returns up to limit of the most recent snapshots
func (hm *HealthMonitor) GetHealthHistory(limit int) []ProbeSnapshot {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()

	start := 0
	if limit > 0 && len(hm.history) > limit {
		start = len(hm.history) - limit
	}
	result := make([]ProbeSnapshot, len(hm.history[start:]))
	copy(result, hm.history[start:])
	return result
}

// GetHealthTrends analyzes the snapshots taken within duration of now
func (hm *HealthMonitor) GetHealthTrends(duration time.Duration) LinkTrends {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()

	trends := LinkTrends{AnalysisPeriod: duration}
	cutoff := hm.now().Add(-duration)

	good := 0
	var total time.Duration
	measured := 0
	for _, s := range hm.history {
		if s.Timestamp.Before(cutoff) {
			continue
		}
		trends.SampleCount++
		if s.TimedOut {
			trends.Timeouts++
			continue
		}
		measured++
		total += s.RTT
		if s.RTT > trends.MaxRTT {
			trends.MaxRTT = s.RTT
		}
		if s.Quality == link.QualityGood {
			good++
		}
	}

	if trends.SampleCount > 0 {
		trends.GoodPercentage = float64(good) / float64(trends.SampleCount) * 100
	}
	if measured > 0 {
		trends.AverageRTT = total / time.Duration(measured)
	}
	return trends
}

// ClearHealthHistory forgets every snapshot
func (hm *HealthMonitor) ClearHealthHistory() {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()
	hm.history = nil
}
