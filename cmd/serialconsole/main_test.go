package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "Serial Console v"+Version+"\n", out)
}

func TestConfigShowDefaults(t *testing.T) {
	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "host: 192.168.4.1")
	assert.Contains(t, out, "port: 81")
}

func TestFlagsOverrideProfile(t *testing.T) {
	out, err := execute(t, "config", "show", "--host", "10.0.0.2:8080", "--renderer", "plain", "-c", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "host: 10.0.0.2")
	assert.Contains(t, out, "port: 8080")
	assert.Contains(t, out, "renderer: plain")
	assert.Contains(t, out, "initial: 3")
}

func TestEnvironmentBelowFlags(t *testing.T) {
	t.Setenv("SERIALCONSOLE_HOST", "envhost")
	t.Setenv("SERIALCONSOLE_PORT", "9000")
	out, err := execute(t, "config", "show", "--port", "9001")
	require.NoError(t, err)
	assert.Contains(t, out, "host: envhost")
	assert.Contains(t, out, "port: 9001")
}

func TestInvalidOverrideRejected(t *testing.T) {
	_, err := execute(t, "config", "show", "--renderer", "fancy")
	assert.Error(t, err)

	_, err = execute(t, "config", "show", "--host", "h:notaport")
	assert.Error(t, err)
}

func TestUnknownProfile(t *testing.T) {
	_, err := execute(t, "config", "show", "--profile", "missing")
	assert.Error(t, err)
}
