// Package config loads the service configuration from config.yaml,
// PHARMAGUARD_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pharmaguard-engine/internal/domain"
)

const (
	envPrefix   = "PHARMAGUARD"
	dataDirName = ".pharmaguard"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	flags      *pflag.FlagSet
	config     *domain.Config
}

// Option customizes a Manager before the first load
type Option func(*Manager)

// WithConfigFile reads path instead of searching for config.yaml
func WithConfigFile(path string) Option {
	return func(m *Manager) { m.configFile = path }
}

// WithFlags binds flags whose names match configuration keys, such as
// "server.port" or "logging.level"
func WithFlags(flags *pflag.FlagSet) Option {
	return func(m *Manager) { m.flags = flags }
}

// NewManager creates a new configuration manager
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/pharmaguard/")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if m.flags != nil {
		if err := v.BindPFlags(m.flags); err != nil {
			return fmt.Errorf("error binding flags: %w", err)
		}
	}

	// Config file is optional unless named explicitly
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || m.configFile != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// DefaultDataDir is where local state such as the SQLite catalog lives
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return dataDirName
	}
	return filepath.Join(homeDir, dataDirName)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_upload_bytes", 5*1024*1024)
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.requests_per_second", 10)
	v.SetDefault("server.rate_limit.burst", 20)

	// Knowledge base defaults
	v.SetDefault("knowledge_base.source", domain.KnowledgeSourceBuiltin)
	v.SetDefault("knowledge_base.path", "")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", filepath.Join(DefaultDataDir(), "catalog.db"))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "pharmaguard")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.auto_migrate", true)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_items", 1000)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.key_prefix", "pharmaguard:profile:")
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.circuit_breaker.max_requests", 1)
	v.SetDefault("cache.circuit_breaker.interval", "60s")
	v.SetDefault("cache.circuit_breaker.timeout", "30s")
	v.SetDefault("cache.circuit_breaker.consecutive_failures", 5)

	// Analysis defaults
	v.SetDefault("analysis.max_drugs_per_request", 10)
	v.SetDefault("analysis.concurrency", 4)
	v.SetDefault("analysis.timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// MCP defaults
	v.SetDefault("mcp.server_name", "pharmaguard")
	v.SetDefault("mcp.server_version", "1.0.0")
	v.SetDefault("mcp.transport_type", "stdio")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetCacheConfig returns cache configuration
func (m *Manager) GetCacheConfig() *domain.CacheConfig {
	return &m.config.Cache
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server max_upload_bytes must be positive")
	}
	if config.Server.RateLimit.Enabled && config.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate limit requests_per_second must be positive when enabled")
	}

	switch config.KnowledgeBase.Source {
	case domain.KnowledgeSourceBuiltin:
	case domain.KnowledgeSourceYAML:
		if config.KnowledgeBase.Path == "" {
			return fmt.Errorf("knowledge_base.path is required for the yaml source")
		}
	case domain.KnowledgeSourceDatabase:
		if err := validateDatabase(config.Database); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid knowledge base source: %s", config.KnowledgeBase.Source)
	}

	if config.Cache.Enabled && config.Cache.MaxItems <= 0 {
		return fmt.Errorf("cache max_items must be positive when the cache is enabled")
	}

	if config.Analysis.MaxDrugsPerRequest < 0 || config.Analysis.Concurrency < 0 {
		return fmt.Errorf("analysis limits must not be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

func validateDatabase(db domain.DatabaseConfig) error {
	switch db.Driver {
	case "sqlite":
		if db.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "postgres":
		if db.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if db.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if db.Username == "" {
			return fmt.Errorf("database username is required")
		}
	default:
		return fmt.Errorf("invalid database driver: %s", db.Driver)
	}
	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
