package setup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBinary(t *testing.T, dir string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, "pharmaguard-mcp-server")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), mode))
	return path
}

func TestLoadClientConfig_Missing(t *testing.T) {
	config, err := LoadClientConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, config.MCPServers)
}

func TestLoadClientConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadClientConfig(path)
	assert.Error(t, err)
}

func TestRegister_PreservesOtherEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Claude", "claude_desktop_config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{
  "theme": "dark",
  "mcpServers": {"other": {"command": "/usr/bin/other"}}
}`), 0o600))

	binary := fakeBinary(t, dir, 0o755)
	written, err := Register(Options{
		ClientConfigPath: path,
		BinaryPath:       binary,
		ConfigFile:       filepath.Join(dir, "config.yaml"),
		Env:              map[string]string{"PHARMAGUARD_LOGGING_LEVEL": "debug"},
	})
	require.NoError(t, err)
	assert.Equal(t, path, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "dark", raw["theme"])

	config, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Contains(t, config.MCPServers, "other")

	entry := config.MCPServers[DefaultServerName]
	assert.Equal(t, binary, entry.Command)
	assert.Equal(t, []string{"--config", filepath.Join(dir, "config.yaml")}, entry.Args)
	assert.Equal(t, "debug", entry.Env["PHARMAGUARD_LOGGING_LEVEL"])
}

func TestRegister_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	_, err := Register(Options{ClientConfigPath: path, ServerName: "pgx", BinaryPath: "/opt/pharmaguard"})
	require.NoError(t, err)

	config, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ServerEntry{Command: "/opt/pharmaguard"}, config.MCPServers["pgx"])
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	status, err := Check(path, "")
	require.NoError(t, err)
	assert.False(t, status.Registered)
	assert.Len(t, status.Issues, 1)

	_, err = Register(Options{ClientConfigPath: path, BinaryPath: fakeBinary(t, dir, 0o755)})
	require.NoError(t, err)
	status, err = Check(path, "")
	require.NoError(t, err)
	assert.True(t, status.Registered)
	assert.Empty(t, status.Issues)

	_, err = Register(Options{ClientConfigPath: path, BinaryPath: filepath.Join(dir, "gone")})
	require.NoError(t, err)
	status, err = Check(path, "")
	require.NoError(t, err)
	assert.Contains(t, status.Issues[0], "not found")
}

func TestDefaultClientConfigPath_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on linux")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	path, err := DefaultClientConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, "Claude", "claude_desktop_config.json"), path)
}
