package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lixenwraith/props"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func init() {
	setDefaults()
}

func setDefaults() {
	viper.SetDefault("context_prefix", props.DefaultContextPrefix)
	viper.SetDefault("include.delimiter", props.DefaultIncludesDelimiter)
}

// addSourceFlags declares the flags describing where properties come from.
func addSourceFlags(flags *pflag.FlagSet) {
	flags.String("context", "", "active context, e.g. dev (env: PROPSCTL_CONTEXT)")
	flags.String("context-prefix", "", "marker before context names (default: %)")
	flags.StringArray("resource", nil, "resource as [kind:]location[|location...][@priority], repeatable")
	flags.String("dir", "", "base directory for relative file resources")
	flags.String("include-key", "", "property naming included documents")
	flags.String("include-delimiter", "", "delimiter between included documents (default: ,)")
	flags.StringArray("set", nil, "override as key=value, repeatable")
	flags.String("log-level", "", "debug, info, warn or error (default: debug for the debug command, warn otherwise)")
	flags.String("log-format", "text", "diagnostics format: text or json")
}

func readConfig(cmd *cobra.Command) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		slog.Warn("failed to bind flags", "err", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("propsctl")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("PROPSCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			slog.Warn("error reading config file", "err", err)
		}
	}
}

// newLoader builds a loader from the bound settings.
func newLoader() (*props.Loader, error) {
	b := props.NewBuilder().WithLogger(slog.Default())

	if ctx := viper.GetString("context"); ctx != "" {
		b.WithContext(ctx)
	}
	if prefix := viper.GetString("context_prefix"); prefix != "" {
		b.WithContextPrefix(prefix)
	}
	if dir := viper.GetString("dir"); dir != "" {
		b.WithDir(dir)
	}
	if key := viper.GetString("include.key"); key != "" {
		b.WithIncludes(key, viper.GetString("include.delimiter"))
	}

	resources, err := props.ParseResources(strings.Join(viper.GetStringSlice("resources"), ";"))
	if err != nil {
		return nil, err
	}
	for _, r := range resources {
		b.WithResource(r.Kind, r.Priority, r.Locations...)
	}

	overrides := props.DefaultOverrides.Clone()
	for _, kv := range viper.GetStringSlice("set") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid override %q, want key=value", kv)
		}
		overrides.Set(strings.TrimSpace(key), value)
	}
	b.WithOverrides(overrides)

	return b.Build()
}
