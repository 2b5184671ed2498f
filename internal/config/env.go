package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/universal-console/serialconsole/internal/errors"
	"github.com/universal-console/serialconsole/internal/interfaces"
)

// EnvPrefix prefixes every environment override, e.g. SERIALCONSOLE_HOST
const EnvPrefix = "SERIALCONSOLE"

// EnvOverrides holds the profile fields settable from the environment.
// Unset variables leave the profile untouched. Keys are derived with
// split_words rather than envconfig tags so that an unprefixed HOST or PATH
// is never picked up.
type EnvOverrides struct {
	Profile              string          `split_words:"true"`
	Host                 string          `split_words:"true"`
	Port                 int             `split_words:"true"`
	Path                 string          `split_words:"true"`
	TLS                  *bool           `split_words:"true"`
	Theme                string          `split_words:"true"`
	Renderer             string          `split_words:"true"`
	LocalEcho            *bool           `split_words:"true"`
	DebugLevel           *int            `split_words:"true"`
	LogFile              string          `split_words:"true"`
	Channel              *int            `split_words:"true"`
	HeartbeatInterval    time.Duration   `split_words:"true"`
	ProbeTimeout         time.Duration   `split_words:"true"`
	HandshakeTimeout     time.Duration   `split_words:"true"`
	ReconnectDelays      []time.Duration `split_words:"true"`
	MaxReconnectAttempts int             `split_words:"true"`
}

// LoadEnvOverrides reads SERIALCONSOLE_* variables
func LoadEnvOverrides() (EnvOverrides, error) {
	var o EnvOverrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return o, fmt.Errorf("%w: environment: %v", errors.ErrConfiguration, err)
	}
	return o, nil
}

// Apply copies every set override onto p
func (o EnvOverrides) Apply(p *interfaces.Profile) {
	if o.Host != "" {
		p.Host = o.Host
	}
	if o.Port != 0 {
		p.Port = o.Port
	}
	if o.Path != "" {
		p.Path = o.Path
	}
	if o.TLS != nil {
		p.TLS = *o.TLS
	}
	if o.Theme != "" {
		p.Theme = o.Theme
	}
	if o.Renderer != "" {
		p.Renderer = interfaces.RendererKind(o.Renderer)
	}
	if o.LocalEcho != nil {
		p.LocalEcho = *o.LocalEcho
	}
	if o.DebugLevel != nil {
		p.DebugLevel = *o.DebugLevel
	}
	if o.LogFile != "" {
		p.LogFile = o.LogFile
	}
	if o.Channel != nil {
		p.Channels.Initial = *o.Channel
	}
	if o.HeartbeatInterval != 0 {
		p.Connection.HeartbeatInterval = o.HeartbeatInterval
	}
	if o.ProbeTimeout != 0 {
		p.Connection.ProbeTimeout = o.ProbeTimeout
	}
	if o.HandshakeTimeout != 0 {
		p.Connection.HandshakeTimeout = o.HandshakeTimeout
	}
	if len(o.ReconnectDelays) > 0 {
		p.Connection.ReconnectDelays = o.ReconnectDelays
	}
	if o.MaxReconnectAttempts != 0 {
		p.Connection.MaxReconnectAttempts = o.MaxReconnectAttempts
	}
}
