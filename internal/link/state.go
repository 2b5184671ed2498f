// Package link holds the pure pieces of the connection-resilience layer: the
// session state enum, the link quality estimator and the reconnection policy.
// Nothing here schedules work or touches a socket, so every function can be
// tested as a plain table.
package link

// State is the connection state of the transport session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

// String returns the lowercase name used in logs and the status bar.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsActive reports whether a connection attempt is pending or open.
func (s State) IsActive() bool {
	return s == StateConnecting || s == StateConnected
}

// Transition records a single state change.
type Transition struct {
	Old State
	New State
}
