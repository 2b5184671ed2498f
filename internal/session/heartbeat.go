package session

import (
	"time"

	"github.com/universal-console/serialconsole/internal/errors"
	"github.com/universal-console/serialconsole/internal/link"
)

func (s *Session) startHeartbeat() {
	s.stopHeartbeat()
	s.heartbeat = s.sched.Every(s.cfg.HeartbeatInterval, s.sendProbe)
}

func (s *Session) stopHeartbeat() {
	cancelTask(&s.heartbeat)
	cancelTask(&s.probe)
}

// sendProbe sends one ping and arms the probe timeout. A missed reply only
// degrades quality; the connection stays up.
func (s *Session) sendProbe() {
	if !s.adapter.SendPing() {
		return
	}
	s.lastProbeSentAt = s.sched.Now()

	cancelTask(&s.probe)
	s.probe = s.sched.AfterFunc(s.cfg.ProbeTimeout, func() {
		s.probe = nil
		s.lastProbeSentAt = time.Time{}
		errors.NewProbeTimeoutError("session").
			WithLogger(s.logger).
			WithMessage("Ping timeout - connection may be unstable").
			WithContext("timeout", s.cfg.ProbeTimeout.String()).
			Build()
		s.setQuality(link.QualityUnstable)
		s.reportProbe(ProbeResult{Quality: link.QualityUnstable, TimedOut: true})
	})
}

// ObservePong records a heartbeat reply. It is called by the protocol
// adapter.
func (s *Session) ObservePong() {
	cancelTask(&s.probe)
	if s.lastProbeSentAt.IsZero() {
		s.logger.Debug("Unsolicited pong ignored")
		return
	}
	rtt := s.sched.Now().Sub(s.lastProbeSentAt)
	s.lastProbeSentAt = time.Time{}
	s.lastRTT = rtt
	q := link.ClassifyRTT(rtt)
	s.logger.LogProbe(rtt, q.String())
	s.setQuality(q)
	s.reportProbe(ProbeResult{RTT: rtt, Quality: q})
}

func (s *Session) reportProbe(r ProbeResult) {
	if s.onProbe != nil {
		s.onProbe(r)
	}
}
