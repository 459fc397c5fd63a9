package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"apidoc/internal/config"
)

var configShowDiff bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage apidoc configuration",
	Long:  "View and manage apidoc configuration stored in .apidoc/config.json",
	RunE:  runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration, defaults and environment included.

Examples:
  apidoc config show
  apidoc config show --diff
  apidoc config show --format=json`,
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Write one key to .apidoc/config.json. List values are comma separated.

Examples:
  apidoc config set inheritancePolicy all
  apidoc config set excludedNamespaces Demo.Internal,Demo.Tests
  apidoc config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	RunE:  runConfigEnv,
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowDiff, "diff", false, "Only show non-default values")
	configCmd.Flags().BoolVar(&configShowDiff, "diff", false, "Only show non-default values")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return err
	}

	path := config.Path(root)
	_, statErr := os.Stat(path)
	resp := &ConfigShowResponse{
		ConfigPath:   path,
		UsedDefaults: os.IsNotExist(statErr),
		EnvOverrides: config.EnvOverrides(),
	}

	values, err := flatten(cfg)
	if err != nil {
		return err
	}
	defaults, err := flatten(config.DefaultConfig())
	if err != nil {
		return err
	}
	for _, key := range config.Keys {
		e := ConfigEntryCLI{Key: key, Value: values[key], Default: defaults[key]}
		e.Modified = fmt.Sprint(e.Value) != fmt.Sprint(e.Default)
		if configShowDiff && !e.Modified {
			continue
		}
		resp.Entries = append(resp.Entries, e)
	}
	return writeResponse(os.Stdout, resp)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return err
	}
	if _, err := config.Set(root, args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Set %s = %s in %s\n", args[0], args[1], config.Path(root))
	return nil
}

func runConfigEnv(cmd *cobra.Command, args []string) error {
	fmt.Println("Supported environment variables:")
	fmt.Println()
	for _, key := range config.Keys {
		fmt.Printf("  %-32s -> %s\n", config.EnvVar(key), key)
	}
	fmt.Println()
	fmt.Println("List values are comma separated. Environment overrides take precedence over config.json.")
	return nil
}

// flatten maps a config to dotted keys as spelled in the file.
func flatten(cfg *config.Config) (map[string]interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	out := make(map[string]interface{})
	var walk func(prefix string, v map[string]interface{})
	walk = func(prefix string, v map[string]interface{}) {
		for k, val := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if sub, ok := val.(map[string]interface{}); ok {
				walk(key, sub)
				continue
			}
			out[key] = val
		}
	}
	walk("", m)
	return out, nil
}

func formatConfigHuman(resp *ConfigShowResponse) string {
	var b strings.Builder
	b.WriteString("apidoc Configuration\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	if resp.UsedDefaults {
		b.WriteString("Source: defaults (no config file found)\n")
	} else {
		b.WriteString(fmt.Sprintf("Source: %s\n", resp.ConfigPath))
	}
	if len(resp.EnvOverrides) > 0 {
		b.WriteString("\nEnvironment Overrides:\n")
		for _, ov := range resp.EnvOverrides {
			b.WriteString(fmt.Sprintf("  %s=%s -> %s\n", ov.EnvVar, ov.Value, ov.Key))
		}
	}
	b.WriteString("\n")
	for _, e := range resp.Entries {
		line := fmt.Sprintf("%s: %v", e.Key, e.Value)
		if e.Modified {
			line += fmt.Sprintf(" (default: %v)", e.Default)
		}
		b.WriteString(line + "\n")
	}
	if len(resp.Entries) == 0 {
		b.WriteString("(no settings differ from defaults)\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
