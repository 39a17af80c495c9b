// Package setup registers the PharmaGuard MCP server with desktop MCP
// clients.
package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// DefaultServerName is the key the server is registered under
const DefaultServerName = "pharmaguard"

const mcpServersKey = "mcpServers"

var binaryNames = []string{"pharmaguard-mcp-server", "mcp-server"}

// ServerEntry is one server in the client's mcpServers map
type ServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// ClientConfig is a desktop client configuration file. Keys other than
// mcpServers are kept as they were read.
type ClientConfig struct {
	MCPServers map[string]ServerEntry
	other      map[string]json.RawMessage
}

// Options controls Register
type Options struct {
	ClientConfigPath string // defaults to DefaultClientConfigPath
	ServerName       string // defaults to DefaultServerName
	BinaryPath       string // searched for when empty
	ConfigFile       string // passed to the server as --config
	Env              map[string]string
}

// DefaultClientConfigPath returns the desktop client's config file for this OS
func DefaultClientConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "Claude")
			break
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "Claude")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// LoadClientConfig reads path; a missing file yields an empty config
func LoadClientConfig(path string) (*ClientConfig, error) {
	config := &ClientConfig{
		MCPServers: make(map[string]ServerEntry),
		other:      make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &config.other); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if raw, ok := config.other[mcpServersKey]; ok {
		if err := json.Unmarshal(raw, &config.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", mcpServersKey, err)
		}
		if config.MCPServers == nil {
			config.MCPServers = make(map[string]ServerEntry)
		}
		delete(config.other, mcpServersKey)
	}

	return config, nil
}

// Save writes the config to path, creating its directory
func (c *ClientConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := make(map[string]any, len(c.other)+1)
	for k, v := range c.other {
		out[k] = v
	}
	out[mcpServersKey] = c.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Register adds or replaces the server entry and returns the file written
func Register(opts Options) (string, error) {
	path := opts.ClientConfigPath
	if path == "" {
		var err error
		if path, err = DefaultClientConfigPath(); err != nil {
			return "", err
		}
	}

	name := opts.ServerName
	if name == "" {
		name = DefaultServerName
	}

	binary := opts.BinaryPath
	if binary == "" {
		var err error
		if binary, err = findBinary(); err != nil {
			return "", fmt.Errorf("could not find server binary: %w", err)
		}
	}

	config, err := LoadClientConfig(path)
	if err != nil {
		return "", err
	}

	entry := ServerEntry{Command: binary, Env: opts.Env}
	if opts.ConfigFile != "" {
		configFile, err := filepath.Abs(opts.ConfigFile)
		if err != nil {
			return "", err
		}
		entry.Args = []string{"--config", configFile}
	}
	config.MCPServers[name] = entry

	return path, config.Save(path)
}

// Status describes a registration
type Status struct {
	ClientConfigPath string
	Registered       bool
	Entry            ServerEntry
	Issues           []string
}

// Check inspects the registration of name in the client config at path
func Check(path, name string) (*Status, error) {
	if name == "" {
		name = DefaultServerName
	}

	config, err := LoadClientConfig(path)
	if err != nil {
		return nil, err
	}

	status := &Status{ClientConfigPath: path}
	entry, ok := config.MCPServers[name]
	if !ok {
		status.Issues = append(status.Issues, fmt.Sprintf("%s is not registered", name))
		return status, nil
	}
	status.Registered = true
	status.Entry = entry

	info, err := os.Stat(entry.Command)
	switch {
	case err != nil:
		status.Issues = append(status.Issues, fmt.Sprintf("server binary not found: %s", entry.Command))
	case info.Mode()&0o111 == 0:
		status.Issues = append(status.Issues, fmt.Sprintf("server binary is not executable: %s", entry.Command))
	}

	return status, nil
}

// findBinary looks for the MCP server binary on PATH and in common locations
func findBinary() (string, error) {
	for _, name := range binaryNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	home, _ := os.UserHomeDir()
	for _, name := range binaryNames {
		locations := []string{
			filepath.Join(".", name),
			filepath.Join(".", "bin", name),
			filepath.Join(home, ".local", "bin", name),
			filepath.Join("/usr/local/bin", name),
		}
		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				return filepath.Abs(loc)
			}
		}
	}

	return "", fmt.Errorf("none of %v found", binaryNames)
}
