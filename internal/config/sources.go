package config

import "fmt"

// ConfigSource indicates where a configuration value came from.
type ConfigSource string

const (
	// SourceDefault indicates a built-in default value.
	SourceDefault ConfigSource = "default"
	// SourceUser indicates ~/.trackr/config.yaml.
	SourceUser ConfigSource = "user"
	// SourceProject indicates .trackr/config.yaml in the working directory.
	SourceProject ConfigSource = "project"
	// SourceFile indicates a file passed with --config.
	SourceFile ConfigSource = "file"
	// SourceEnv indicates an environment variable override.
	SourceEnv ConfigSource = "env"
)

// TrackedSource contains both the source type and the file path or env var name.
type TrackedSource struct {
	Source ConfigSource
	Path   string
}

// String returns a human-readable source description.
func (ts TrackedSource) String() string {
	if ts.Path == "" {
		return string(ts.Source)
	}
	return fmt.Sprintf("%s: %s", ts.Source, ts.Path)
}

// TrackedConfig wraps a Config with source tracking.
type TrackedConfig struct {
	Config  *Config
	Sources map[string]TrackedSource
}

// NewTrackedConfig creates a TrackedConfig holding the defaults.
func NewTrackedConfig() *TrackedConfig {
	return &TrackedConfig{
		Config:  Default(),
		Sources: make(map[string]TrackedSource),
	}
}

// SetSource records the source for a config path.
func (tc *TrackedConfig) SetSource(path string, source ConfigSource, origin string) {
	tc.Sources[path] = TrackedSource{Source: source, Path: origin}
}

// GetSource returns the source for a config path, SourceDefault if unrecorded.
func (tc *TrackedConfig) GetSource(path string) TrackedSource {
	if ts, ok := tc.Sources[path]; ok {
		return ts
	}
	return TrackedSource{Source: SourceDefault}
}
