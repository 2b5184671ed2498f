package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/universal-console/serialconsole/internal/errors"
	"github.com/universal-console/serialconsole/internal/interfaces"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManagerWithPath(filepath.Join(t.TempDir(), "serialconsole", "profiles.yaml"))
	require.NoError(t, err)
	return m
}

func TestConfigPathHonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	m, err := NewManager()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "serialconsole", "profiles.yaml"), m.GetConfigPath())
}

func TestDefaultConfigCreatedOnFirstLoad(t *testing.T) {
	m := newTestManager(t)

	p, err := m.LoadProfile(DefaultProfileName)
	require.NoError(t, err)
	assert.Equal(t, DefaultHost, p.Host)
	assert.Equal(t, 81, p.Port)
	assert.Equal(t, 5, p.Channels.Count)
	assert.Equal(t, 15*time.Second, p.Connection.HeartbeatInterval)
	assert.Equal(t, 3*time.Second, p.Connection.ProbeTimeout)
	assert.Equal(t, 10, p.Connection.MaxReconnectAttempts)
	assert.Len(t, p.Connection.ReconnectDelays, 6)
	assert.Equal(t, "ws://192.168.4.1:81/", URL(p))

	info, err := os.Stat(m.GetConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSaveAndReloadProfile(t *testing.T) {
	m := newTestManager(t)

	p := DefaultProfile()
	p.Name = "lab"
	p.Host = "10.0.0.7"
	p.Channels.Labels = []string{"router", "nas"}
	p.Connection.ReconnectDelays = []time.Duration{500 * time.Millisecond, 5 * time.Second}
	require.NoError(t, m.SaveProfile(&p))

	m.InvalidateCache()
	got, err := m.LoadProfile("lab")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", got.Host)
	assert.Equal(t, []string{"router", "nas"}, got.Channels.Labels)
	assert.Equal(t, p.Connection.ReconnectDelays, got.Connection.ReconnectDelays)

	names, err := m.ListProfiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "lab"}, names)

	require.NoError(t, m.DeleteProfile("lab"))
	assert.Error(t, m.DeleteProfile(DefaultProfileName))
	_, err = m.LoadProfile("lab")
	assert.True(t, stderrors.Is(err, errors.ErrConfiguration))
}

func TestHandWrittenDurations(t *testing.T) {
	m := newTestManager(t)
	yml := `profiles:
  bench:
    host: mux.local
    connection:
      heartbeat_interval: 5s
      reconnect_delays: [250ms, 1s]
      max_reconnect_attempts: 3
`
	require.NoError(t, os.WriteFile(m.GetConfigPath(), []byte(yml), 0600))

	p, err := m.LoadProfile("bench")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, p.Connection.HeartbeatInterval)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, time.Second}, p.Connection.ReconnectDelays)
	assert.Equal(t, 3, p.Connection.MaxReconnectAttempts)
	assert.Equal(t, 81, p.Port)

	theme, err := m.LoadTheme("github")
	require.NoError(t, err)
	assert.Equal(t, "#28a745", theme.Success)
}

func TestMalformedFile(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.WriteFile(m.GetConfigPath(), []byte("profiles: [unterminated"), 0600))

	_, err := m.LoadProfile(DefaultProfileName)
	assert.True(t, stderrors.Is(err, errors.ErrConfiguration))
}

func TestValidateProfile(t *testing.T) {
	p := DefaultProfile()
	require.NoError(t, ValidateProfile(&p))

	p.Host = ""
	p.Port = 70000
	p.Renderer = "fancy"
	p.DebugLevel = 7
	p.Connection.ReconnectDelays = []time.Duration{-time.Second}
	err := ValidateProfile(&p)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrConfiguration))
	for _, want := range []string{"host", "port", "renderer", "debug level", "negative"} {
		assert.Contains(t, err.Error(), want)
	}

	assert.Error(t, ValidateProfile(nil))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERIALCONSOLE_HOST", "10.1.1.1")
	t.Setenv("SERIALCONSOLE_PORT", "8081")
	t.Setenv("SERIALCONSOLE_LOCAL_ECHO", "true")
	t.Setenv("SERIALCONSOLE_DEBUG_LEVEL", "0")
	t.Setenv("SERIALCONSOLE_RENDERER", "plain")
	t.Setenv("SERIALCONSOLE_RECONNECT_DELAYS", "1s,3s")

	o, err := LoadEnvOverrides()
	require.NoError(t, err)

	p := DefaultProfile()
	o.Apply(&p)
	assert.Equal(t, "10.1.1.1", p.Host)
	assert.Equal(t, 8081, p.Port)
	assert.True(t, p.LocalEcho)
	assert.Equal(t, 0, p.DebugLevel)
	assert.Equal(t, interfaces.RendererPlain, p.Renderer)
	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, p.Connection.ReconnectDelays)
	assert.False(t, p.TLS, "unset variables leave fields alone")
	assert.Equal(t, "/", p.Path)
}

func TestEnvOverridesRejectGarbage(t *testing.T) {
	t.Setenv("SERIALCONSOLE_PORT", "eighty-one")
	_, err := LoadEnvOverrides()
	assert.True(t, stderrors.Is(err, errors.ErrConfiguration))
}

func TestSessionConfigFromProfile(t *testing.T) {
	p := DefaultProfile()
	p.TLS = true
	p.Path = "ws"
	cfg := SessionConfig(&p)
	assert.Equal(t, "wss://192.168.4.1:81/ws", cfg.URL)
	assert.Equal(t, 10, cfg.Policy.MaxAttempts)
	require.NoError(t, cfg.Validate())

	opts := DialerOptions(&p)
	assert.Equal(t, p.Connection.HandshakeTimeout, opts.HandshakeTimeout)
}

func TestFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))
	assert.NoError(t, CheckFilePermissions(path))

	require.NoError(t, os.Chmod(path, 0666))
	assert.Error(t, CheckFilePermissions(path))
	require.NoError(t, FixFilePermissions(path))
	assert.NoError(t, CheckFilePermissions(path))
}

func TestMarshalProfile(t *testing.T) {
	p := DefaultProfile()
	out, err := Marshal(&p)
	require.NoError(t, err)
	assert.Contains(t, out, "host: 192.168.4.1")
	assert.Contains(t, out, "heartbeat_interval: 15s")
}
