package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/trackr/internal/config"
	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
)

// newConfigCmd creates the config command with subcommands.
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and manage configuration",
		Long: `View and manage trackr configuration.

Configuration is loaded from these sources, later ones winning:
  1. Built-in defaults
  2. User config: ~/.trackr/config.yaml
  3. Project config: .trackr/config.yaml (or --config)
  4. Environment variables (TRACKR_*, DATABASE_URL, OPENAI_API_KEY, ...)

Examples:
  trackr config show                        # Merged config as YAML
  trackr config show --source               # With the source of each value
  trackr config get server.port
  trackr config set completion.provider none`,
	}

	cmd.AddCommand(newConfigShowCmd(a))
	cmd.AddCommand(newConfigGetCmd(a))
	cmd.AddCommand(newConfigSetCmd(a))

	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	var showSource bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := config.ToMap(a.config())
			if err != nil {
				return err
			}
			maskSecret(raw)

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return printJSON(out, raw)
			}
			if showSource {
				return a.printConfigWithSources(out, raw)
			}
			data, err := yaml.Marshal(raw)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&showSource, "source", false, "show the source of each value")

	return cmd
}

func (a *app) printConfigWithSources(w io.Writer, raw map[string]any) error {
	doc, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	tw := newTable(w)
	for _, key := range configKeys() {
		value := gjson.GetBytes(doc, key).String()
		source := a.tc.GetSource(key)
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", key, dash(value), render(w, subtleStyle, source.String()))
	}
	return tw.Flush()
}

func newConfigGetCmd(a *app) *cobra.Command {
	var showSource bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a config value",
		Long: `Get a configuration value by dotted key, e.g. "completion.provider".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := checkConfigKey(key); err != nil {
				return err
			}

			raw, err := config.ToMap(a.config())
			if err != nil {
				return err
			}
			maskSecret(raw)
			doc, err := json.Marshal(raw)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			value := gjson.GetBytes(doc, key).String()
			source := a.tc.GetSource(key)

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"key":    key,
					"value":  value,
					"source": source.String(),
				})
			}
			if showSource {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (from %s)\n", value, source)
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}

	cmd.Flags().BoolVar(&showSource, "source", false, "show the source of the value")

	return cmd
}

func newConfigSetCmd(a *app) *cobra.Command {
	var user bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: `Set a configuration value in the project config (.trackr/config.yaml),
or in ~/.trackr/config.yaml with --user. The file must stay valid.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if err := checkConfigKey(key); err != nil {
				return err
			}

			path := config.ProjectConfigPath(a.workDir)
			if user {
				var err error
				if path, err = config.UserConfigPath(); err != nil {
					return err
				}
			}
			if err := setConfigValue(path, a.workDir, key, value); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", key, path)
			return err
		},
	}

	cmd.Flags().BoolVar(&user, "user", false, "write to ~/.trackr/config.yaml")

	return cmd
}

// setConfigValue writes key into the YAML file at path. The previous file
// is restored if the result does not load or validate.
func setConfigValue(path, workDir, key, value string) error {
	previous, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if previous != nil {
		if err := v.ReadConfig(strings.NewReader(string(previous))); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	v.Set(key, scalar(value))

	data, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	tc, err := config.Load(config.LoadOptions{WorkDir: workDir})
	if err == nil {
		err = tc.Config.Validate()
	}
	if err != nil {
		if previous != nil {
			_ = os.WriteFile(path, previous, 0644)
		} else {
			_ = os.Remove(path)
		}
		return err
	}
	return nil
}

// scalar decodes a command-line value as a YAML scalar so "9090" becomes
// an int and "true" a bool.
func scalar(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return s
	}
	switch v.(type) {
	case map[string]any, []any:
		return s
	}
	return v
}

func configKeys() []string {
	keys := make([]string, 0, len(config.EnvVarMapping))
	for key := range config.EnvVarMapping {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func checkConfigKey(key string) error {
	if _, ok := config.EnvVarMapping[key]; !ok {
		return trackrerrors.ErrInvalidInput("key", fmt.Sprintf("unknown config key %q (known: %s)", key, strings.Join(configKeys(), ", ")))
	}
	return nil
}

func maskSecret(raw map[string]any) {
	completion, ok := raw["completion"].(map[string]any)
	if !ok {
		return
	}
	if key, ok := completion["api_key"].(string); ok && key != "" {
		completion["api_key"] = "****"
	}
}
