package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const configFileName = ".vibe-enrich.yaml"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-enrich configuration",
		Long: "Show, get, or set configuration values. Config is stored in ~/" + configFileName + ".\n\n" +
			"Keys: " + strings.Join(configKeys(), ", "),
		Example: `  vibe-enrich config                                # show all config
  vibe-enrich config set analysis.method bonferroni  # use Bonferroni correction
  vibe-enrich config get analysis.alpha              # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

func configKeys() []string {
	keys := make([]string, 0, len(analysisKeys))
	for k := range analysisKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseConfigValue converts a command-line value to the type stored for key.
func parseConfigValue(key, value string) (any, error) {
	switch key {
	case "ontology.part_of":
		switch value {
		case "true", "yes", "on":
			return true, nil
		case "false", "no", "off":
			return false, nil
		}
		return nil, fmt.Errorf("%s must be a boolean, got %q", key, value)
	case "analysis.alpha":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number, got %q", key, value)
		}
		return v, nil
	case "analysis.method":
		return value, nil
	default:
		v, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer, got %q", key, value)
		}
		return v, nil
	}
}

func runConfigShow(w io.Writer) error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Fprintf(w, "# No configuration set. Config file: ~/%s\n", configFileName)
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(w, string(out))
	return nil
}

func runConfigSet(w io.Writer, key, value string) error {
	if _, ok := analysisKeys[key]; !ok {
		return usageError{fmt.Errorf("unknown key %q (known keys: %s)", key, strings.Join(configKeys(), ", "))}
	}
	v, err := parseConfigValue(key, value)
	if err != nil {
		return usageError{err}
	}
	viper.Set(key, v)

	// Ensure config file exists
	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, configFileName)
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(w, val)
	return nil
}
