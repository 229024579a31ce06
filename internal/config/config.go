// Package config provides configuration management for trackr.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
)

const (
	// ConfigFileName is the default config file name
	ConfigFileName = "config.yaml"
	// TrackrDir is the trackr configuration directory
	TrackrDir = ".trackr"
	// DefaultDBFile is the SQLite database file inside TrackrDir
	DefaultDBFile = "trackr.db"
	// DefaultRoadmapFile is used when neither the project nor the config names a roadmap
	DefaultRoadmapFile = "roadmap.md"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Completion providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderNone      = "none"
)

// DatabaseConfig selects the task store backend.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres"
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Path is the SQLite file path (relative paths resolve from the working dir)
	Path string `yaml:"path" mapstructure:"path"`
	// DSN is the PostgreSQL connection string
	DSN string `yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// RoadmapConfig locates roadmap sources and the dialect template.
type RoadmapConfig struct {
	// Path is the default roadmap file when a project has none
	Path string `yaml:"path,omitempty" mapstructure:"path"`
	// TemplatePath is the checklist dialect template sent to the completion provider
	TemplatePath string `yaml:"template_path,omitempty" mapstructure:"template_path"`
	// SearchRoot is the default root for roadmap detection
	SearchRoot string `yaml:"search_root,omitempty" mapstructure:"search_root"`
}

// CompletionConfig configures the external text-completion provider.
type CompletionConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"`
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig configures slog output.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level" mapstructure:"level"`
	// Format is text or json
	Format string `yaml:"format" mapstructure:"format"`
}

// Config represents the trackr configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database" mapstructure:"database"`
	Roadmap    RoadmapConfig    `yaml:"roadmap" mapstructure:"roadmap"`
	Completion CompletionConfig `yaml:"completion" mapstructure:"completion"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   filepath.Join(TrackrDir, DefaultDBFile),
		},
		Completion: CompletionConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			Timeout:     30 * time.Second,
			Temperature: 0.2,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for unsupported values.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return trackrerrors.ErrConfigInvalid("database.path", "sqlite requires a file path")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return trackrerrors.ErrConfigInvalid("database.dsn", "postgres requires a connection string")
		}
	default:
		return trackrerrors.ErrConfigInvalid("database.driver",
			fmt.Sprintf("unknown driver %q (want sqlite or postgres)", c.Database.Driver))
	}

	switch c.Completion.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderNone:
	default:
		return trackrerrors.ErrConfigInvalid("completion.provider",
			fmt.Sprintf("unknown provider %q", c.Completion.Provider))
	}
	if c.Completion.Timeout <= 0 {
		return trackrerrors.ErrConfigInvalid("completion.timeout", "must be positive")
	}
	if c.Completion.Temperature < 0 || c.Completion.Temperature > 2 {
		return trackrerrors.ErrConfigInvalid("completion.temperature", "must be between 0 and 2")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return trackrerrors.ErrConfigInvalid("server.port", fmt.Sprintf("%d is not a valid port", c.Server.Port))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return trackrerrors.ErrConfigInvalid("log.level", fmt.Sprintf("unknown level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return trackrerrors.ErrConfigInvalid("log.format", fmt.Sprintf("unknown format %q", c.Log.Format))
	}

	return nil
}

// DatabaseDSN returns the connection string for the configured driver.
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == DriverPostgres {
		return c.Database.DSN
	}
	return c.Database.Path
}

// SaveTo writes the configuration as YAML.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ProjectConfigPath returns the project config path under dir.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, TrackrDir, ConfigFileName)
}

// UserConfigPath returns ~/.trackr/config.yaml.
func UserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, TrackrDir, ConfigFileName), nil
}
