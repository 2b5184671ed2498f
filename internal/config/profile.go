package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/universal-console/serialconsole/internal/errors"
	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/link"
	"github.com/universal-console/serialconsole/internal/logging"
	"github.com/universal-console/serialconsole/internal/protocol"
	"github.com/universal-console/serialconsole/internal/registry"
	"github.com/universal-console/serialconsole/internal/session"
)

// DefaultHost is the multiplexer's address on its own access point
const DefaultHost = "192.168.4.1"

// DefaultProfile returns the settings of the firmware web console
func DefaultProfile() interfaces.Profile {
	p := interfaces.Profile{
		Name:       DefaultProfileName,
		Host:       DefaultHost,
		Theme:      "monokai",
		Renderer:   interfaces.RendererAuto,
		DebugLevel: logging.DefaultVerbosity,
	}
	ApplyDefaults(&p)
	return p
}

// ApplyDefaults fills every unset field of p
func ApplyDefaults(p *interfaces.Profile) {
	if p.Port == 0 {
		p.Port = protocol.DefaultPort
	}
	if p.Path == "" {
		p.Path = "/"
	}
	if p.Theme == "" {
		p.Theme = "monokai"
	}
	if p.Renderer == "" {
		p.Renderer = interfaces.RendererAuto
	}
	if p.Channels.Count == 0 {
		p.Channels.Count = registry.DefaultChannelCount
	}

	c := &p.Connection
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = session.DefaultHeartbeatInterval
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = session.DefaultProbeTimeout
	}
	if c.ForceReconnectDelay == 0 {
		c.ForceReconnectDelay = session.DefaultForceReconnectDelay
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = protocol.DefaultHandshakeTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = protocol.DefaultWriteTimeout
	}
	if len(c.ReconnectDelays) == 0 {
		c.ReconnectDelays = link.DefaultPolicy().Schedule
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = link.DefaultMaxAttempts
	}
}

// ValidateProfile reports every problem with profile at once
func ValidateProfile(profile *interfaces.Profile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile cannot be nil", errors.ErrConfiguration)
	}

	chain := errors.NewErrorChain(nil)
	invalid := func(format string, args ...interface{}) {
		chain.Add(fmt.Errorf("%w: "+format, append([]interface{}{errors.ErrConfiguration}, args...)...))
	}

	if strings.TrimSpace(profile.Name) == "" {
		invalid("profile name cannot be empty")
	}
	if strings.TrimSpace(profile.Host) == "" {
		invalid("profile host cannot be empty")
	}
	if strings.Contains(profile.Host, "/") {
		invalid("host %q must not contain a scheme or path", profile.Host)
	}
	if profile.Port < 1 || profile.Port > 65535 {
		invalid("port %d out of range", profile.Port)
	}
	switch profile.Renderer {
	case interfaces.RendererAuto, interfaces.RendererRich, interfaces.RendererPlain:
	default:
		invalid("unknown renderer %q", profile.Renderer)
	}
	if !logging.ValidVerbosity(profile.DebugLevel) {
		invalid("debug level %d must be between 0 and 3", profile.DebugLevel)
	}
	if profile.Channels.Count < 1 {
		invalid("channel count must be at least 1")
	}
	if profile.Channels.Initial < 0 {
		invalid("initial channel cannot be negative")
	}

	c := profile.Connection
	if c.HeartbeatInterval <= 0 {
		invalid("heartbeat interval must be positive")
	}
	if c.ProbeTimeout <= 0 {
		invalid("probe timeout must be positive")
	}
	if c.HandshakeTimeout <= 0 || c.WriteTimeout <= 0 {
		invalid("handshake and write timeouts must be positive")
	}
	if c.ForceReconnectDelay < 0 {
		invalid("force reconnect delay cannot be negative")
	}
	policy := link.Policy{Schedule: c.ReconnectDelays, MaxAttempts: c.MaxReconnectAttempts}
	if err := policy.Validate(); err != nil {
		invalid("%v", err)
	}

	return chain.Join()
}

// URL returns the multiplexer endpoint of profile
func URL(profile *interfaces.Profile) string {
	return protocol.BuildURL(profile.Host, profile.Port, profile.Path, profile.TLS)
}

// SessionConfig converts profile into session parameters
func SessionConfig(profile *interfaces.Profile) session.Config {
	c := profile.Connection
	return session.Config{
		URL:                 URL(profile),
		HeartbeatInterval:   c.HeartbeatInterval,
		ProbeTimeout:        c.ProbeTimeout,
		ForceReconnectDelay: c.ForceReconnectDelay,
		Policy: link.Policy{
			Schedule:    append([]time.Duration(nil), c.ReconnectDelays...),
			MaxAttempts: c.MaxReconnectAttempts,
		},
	}
}

// DialerOptions converts profile into transport parameters
func DialerOptions(profile *interfaces.Profile) protocol.DialerOptions {
	return protocol.DialerOptions{
		HandshakeTimeout: profile.Connection.HandshakeTimeout,
		WriteTimeout:     profile.Connection.WriteTimeout,
	}
}
