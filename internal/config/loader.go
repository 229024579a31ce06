package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LoadOptions controls where Load looks for configuration files.
type LoadOptions struct {
	// ConfigFile replaces the project config when set (--config flag).
	ConfigFile string
	// WorkDir is the directory holding .trackr/ (defaults to the working dir).
	WorkDir string
	// HomeDir overrides the user home directory (tests).
	HomeDir string
}

// Load loads configuration with source tracking.
// Load order (later sources override earlier):
//  1. Built-in defaults
//  2. User config (~/.trackr/config.yaml) - optional
//  3. Project config (.trackr/config.yaml) or --config file
//  4. Environment variables (see EnvVarMapping)
func Load(opts LoadOptions) (*TrackedConfig, error) {
	tc := NewTrackedConfig()
	v := viper.New()

	defaults, err := flatten(tc.Config)
	if err != nil {
		return nil, err
	}
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	// 2. User config
	home := opts.HomeDir
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	if home != "" {
		userPath := filepath.Join(home, TrackrDir, ConfigFileName)
		if fileExists(userPath) {
			if err := mergeFile(v, tc, userPath, SourceUser); err != nil {
				slog.Warn("failed to load user config", "path", userPath, "error", err)
			}
		}
	}

	// 3. Project config, or the explicit file. Errors here are fatal.
	if opts.ConfigFile != "" {
		if err := mergeFile(v, tc, opts.ConfigFile, SourceFile); err != nil {
			return nil, err
		}
	} else {
		workDir := opts.WorkDir
		if workDir == "" {
			workDir = "."
		}
		projectPath := ProjectConfigPath(workDir)
		if fileExists(projectPath) {
			if err := mergeFile(v, tc, projectPath, SourceProject); err != nil {
				return nil, err
			}
		}
	}

	// 4. Environment variables
	bindEnv(v, tc)

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	inferDriver(cfg, tc)
	tc.Config = cfg

	return tc, nil
}

// LoadConfig loads configuration from the working directory and validates it.
func LoadConfig(configFile string) (*Config, error) {
	tc, err := Load(LoadOptions{ConfigFile: configFile})
	if err != nil {
		return nil, err
	}
	if err := tc.Config.Validate(); err != nil {
		return nil, err
	}
	return tc.Config, nil
}

func mergeFile(v *viper.Viper, tc *TrackedConfig, path string, source ConfigSource) error {
	fileV := viper.New()
	fileV.SetConfigFile(path)
	fileV.SetConfigType("yaml")
	if err := fileV.ReadInConfig(); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := v.MergeConfigMap(fileV.AllSettings()); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	for _, key := range fileV.AllKeys() {
		tc.SetSource(key, source, path)
	}
	return nil
}

func bindEnv(v *viper.Viper, tc *TrackedConfig) {
	keys := make([]string, 0, len(EnvVarMapping))
	for key := range EnvVarMapping {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		names := EnvVarMapping[key]
		args := append([]string{key}, names...)
		_ = v.BindEnv(args...)
		for _, name := range names {
			if val, ok := os.LookupEnv(name); ok && val != "" {
				tc.SetSource(key, SourceEnv, name)
				break
			}
		}
	}
}

// inferDriver switches to postgres when only a postgres DSN was supplied.
func inferDriver(cfg *Config, tc *TrackedConfig) {
	if tc.GetSource("database.driver").Source != SourceDefault {
		return
	}
	dsn := strings.ToLower(cfg.Database.DSN)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		cfg.Database.Driver = DriverPostgres
	}
}

// flatten turns cfg into dotted keys using the yaml field names.
func flatten(cfg *Config) (map[string]any, error) {
	raw, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	flattenInto(out, "", raw)
	return out, nil
}

func flattenInto(out map[string]any, prefix string, m map[string]any) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = val
	}
}

// ToMap converts cfg to a generic map keyed by yaml field names.
// Durations come out in their string form ("30s").
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return raw, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
