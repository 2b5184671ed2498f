// Package protocol implements the text-frame protocol spoken with the serial
// console multiplexer, and the WebSocket transport that carries it.
package protocol

import (
	"fmt"
	"time"

	"github.com/universal-console/serialconsole/internal/errors"
)

// Control frames understood by the multiplexer firmware
const (
	FramePing     = "ping"
	FramePongText = "pong"
	ChannelPrefix = "CHANNEL:"
)

// DefaultPort is the multiplexer's WebSocket port
const DefaultPort = 81

// Transport timeouts used when the profile leaves them unset
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultReadLimit        = 1 << 20
	DefaultSendQueue        = 256
)

// Close codes reported to handlers
const (
	CloseNormal   = 1000
	CloseAbnormal = 1006
)

// ErrNotOpen is returned by Send on a handle that is not open
var ErrNotOpen = fmt.Errorf("%w: connection not open", errors.ErrSendFailure)

// ErrSendQueueFull is returned by Send when the writer has fallen behind
var ErrSendQueueFull = fmt.Errorf("%w: send queue full", errors.ErrSendFailure)

// FrameKind classifies an inbound text frame
type FrameKind int

const (
	FramePayload FrameKind = iota
	FramePong
)

func (k FrameKind) String() string {
	if k == FramePong {
		return "pong"
	}
	return "payload"
}

// Classify reports FramePong only for a frame that is exactly "pong". Any
// other frame, including one that merely contains "pong", is payload.
func Classify(frame string) FrameKind {
	if frame == FramePongText {
		return FramePong
	}
	return FramePayload
}
