package protocol

import (
	"github.com/universal-console/serialconsole/internal/events"
	"github.com/universal-console/serialconsole/internal/logging"
)

// Link is what the adapter needs from the transport session
type Link interface {
	Send(text string) bool
	ObservePong()
}

// Adapter translates between raw frames and application intents
type Adapter struct {
	link   Link
	bus    *events.Broadcaster
	logger *logging.Logger
}

// NewAdapter creates an adapter publishing payload frames on bus
func NewAdapter(link Link, bus *events.Broadcaster, logger *logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.GetProtocolLogger()
	}
	return &Adapter{link: link, bus: bus, logger: logger}
}

// HandleInbound routes one inbound frame. Pongs feed the heartbeat and are
// never published; everything else is published verbatim.
func (a *Adapter) HandleInbound(frame string) {
	switch Classify(frame) {
	case FramePong:
		a.link.ObservePong()
	default:
		a.bus.Publish(events.Message(frame))
	}
}

// SelectChannel asks the multiplexer to switch channel. No acknowledgement
// is awaited; the result only says whether the frame went out.
func (a *Adapter) SelectChannel(index int) bool {
	sent := a.link.Send(ChannelCommand(index))
	a.logger.Debug("Channel select", "channel", index, "sent", sent)
	return sent
}

// SendPing sends a heartbeat probe
func (a *Adapter) SendPing() bool {
	return a.link.Send(FramePing)
}
