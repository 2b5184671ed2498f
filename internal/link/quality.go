package link

import "time"

// Quality is a coarse, advisory classification of link latency.
type Quality int

const (
	QualityGood Quality = iota
	QualityUnstable
	QualityPoor
)

// Tier boundaries for ClassifyRTT.
const (
	GoodRTTLimit     = 100 * time.Millisecond
	UnstableRTTLimit = 500 * time.Millisecond
)

// String returns the tier name.
func (q Quality) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityUnstable:
		return "unstable"
	case QualityPoor:
		return "poor"
	default:
		return "unknown"
	}
}

// ClassifyRTT maps a measured probe round trip to a quality tier.
func ClassifyRTT(rtt time.Duration) Quality {
	switch {
	case rtt < GoodRTTLimit:
		return QualityGood
	case rtt < UnstableRTTLimit:
		return QualityUnstable
	default:
		return QualityPoor
	}
}
