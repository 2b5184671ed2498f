// Package interfaces defines the core types and interfaces shared across the
// serial console client, so that the session, transport, renderers and UI can
// be wired together through dependency injection and tested in isolation.
package interfaces

import (
	"time"

	"github.com/universal-console/serialconsole/internal/link"
)

// Profile represents a complete configuration profile for one multiplexer
type Profile struct {
	Name       string           `yaml:"name"`
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	Path       string           `yaml:"path,omitempty"`
	TLS        bool             `yaml:"tls,omitempty"`
	Theme      string           `yaml:"theme"`
	Renderer   RendererKind     `yaml:"renderer"`
	LocalEcho  bool             `yaml:"local_echo"`
	DebugLevel int              `yaml:"debug_level"`
	LogFile    string           `yaml:"log_file,omitempty"`
	Channels   ChannelConfig    `yaml:"channels"`
	Connection ConnectionConfig `yaml:"connection"`
}

// ChannelConfig describes the logical channels behind the multiplexer
type ChannelConfig struct {
	Count   int      `yaml:"count"`
	Initial int      `yaml:"initial"`
	Labels  []string `yaml:"labels,omitempty"`
}

// ConnectionConfig tunes the resilience layer
type ConnectionConfig struct {
	HeartbeatInterval    time.Duration   `yaml:"heartbeat_interval"`
	ProbeTimeout         time.Duration   `yaml:"probe_timeout"`
	HandshakeTimeout     time.Duration   `yaml:"handshake_timeout"`
	WriteTimeout         time.Duration   `yaml:"write_timeout"`
	ForceReconnectDelay  time.Duration   `yaml:"force_reconnect_delay"`
	ReconnectDelays      []time.Duration `yaml:"reconnect_delays"`
	MaxReconnectAttempts int             `yaml:"max_reconnect_attempts"`
}

// Theme represents the status colors used by the rich renderer
type Theme struct {
	Name    string `yaml:"name"`
	Success string `yaml:"success"`
	Error   string `yaml:"error"`
	Warning string `yaml:"warning"`
	Info    string `yaml:"info"`
}

// ConfigManager handles profile and theme management
type ConfigManager interface {
	// LoadProfile retrieves a profile by name from the configuration file
	LoadProfile(name string) (*Profile, error)

	// SaveProfile persists a profile to the configuration file
	SaveProfile(profile *Profile) error

	// ListProfiles returns all available profile names
	ListProfiles() ([]string, error)

	// LoadTheme retrieves theme configuration by name
	LoadTheme(name string) (*Theme, error)

	// ValidateProfile ensures profile has all required fields
	ValidateProfile(profile *Profile) error

	// GetConfigPath returns the path to the configuration file
	GetConfigPath() string
}

// ReadyState mirrors the lifecycle of one underlying connection handle.
type ReadyState int

const (
	ReadyConnecting ReadyState = iota
	ReadyOpen
	ReadyClosing
	ReadyClosed
)

func (r ReadyState) String() string {
	switch r {
	case ReadyConnecting:
		return "connecting"
	case ReadyOpen:
		return "open"
	case ReadyClosing:
		return "closing"
	case ReadyClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is one socket-like connection handle. A handle is never reused: the
// session dials a fresh one for every attempt.
type Conn interface {
	// ID identifies the handle in logs
	ID() string

	// ReadyState returns the current lifecycle state of the handle
	ReadyState() ReadyState

	// Send hands a text frame to the connection. It fails unless the
	// handle is open.
	Send(text string) error

	// Close starts tearing the handle down. It is idempotent.
	Close() error
}

// ConnHandlers receives the callbacks of one handle. Dialers deliver every
// callback on the event loop goroutine.
type ConnHandlers struct {
	OnOpen    func()
	OnMessage func(frame string)
	OnError   func(err error)
	OnClose   func(code int, reason string)
}

// Dialer opens connection handles. Dial must not block on the network: it
// returns a handle in ReadyConnecting and reports the outcome through the
// handlers.
type Dialer interface {
	Dial(url string, handlers ConnHandlers) (Conn, error)
}

// Task is a cancellable scheduled callback.
type Task interface {
	// Cancel guarantees the callback does not run afterwards
	Cancel()
}

// Scheduler runs callbacks later on the event loop.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
	Every(d time.Duration, fn func()) Task
	Now() time.Time
}

// RendererKind selects a rendering backend
type RendererKind string

const (
	RendererAuto  RendererKind = "auto"
	RendererRich  RendererKind = "rich"
	RendererPlain RendererKind = "plain"
)

// NoticeKind classifies client-side messages shown by a renderer
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
	NoticeChannel NoticeKind = "channel"
	NoticeControl NoticeKind = "control"
)

// KeyAction is an operator action offered next to an alert, bound to a key
type KeyAction struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// Alert is a notification shown over the terminal. Non-sticky alerts
// disappear on their own; sticky ones stay while the link is failed.
type Alert struct {
	Kind    NoticeKind
	Message string
	Actions []KeyAction
	Sticky  bool
}

// LinkStatus is the presentation snapshot of the session
type LinkStatus struct {
	State        link.State
	Quality      link.Quality
	Attempts     int
	MaxAttempts  int
	Channel      int
	ChannelLabel string
	RTT          time.Duration
}

// Controller is the operator-facing surface of the application context.
// Renderers call it from their own goroutines.
type Controller interface {
	SendInput(data []byte) bool
	SendControl(code byte) bool
	SelectChannel(index int)
	Reconnect()
	SwitchRenderer(kind RendererKind)
	Quit()
}

// Renderer is the active display backend. Write, Replay, Notice, Notify and
// UpdateStatus are called from the event loop goroutine and must not block.
// Stop only begins shutdown; Done reports when it has finished.
type Renderer interface {
	Kind() RendererKind

	// Start begins displaying and capturing operator input
	Start(ctrl Controller) error

	// Stop releases the terminal
	Stop() error

	// Done is closed once the renderer has exited
	Done() <-chan struct{}

	// Write displays one raw payload frame
	Write(frame string)

	// Replay displays history in order
	Replay(history []string)

	// Notice displays a client-side message inline with the output
	Notice(kind NoticeKind, text string)

	// Notify shows an alert outside the output stream
	Notify(alert Alert)

	// UpdateStatus refreshes the connection indicator
	UpdateStatus(status LinkStatus)
}
