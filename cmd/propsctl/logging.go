package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// setupLogging installs the handler the loader reports through; stdout carries only resolved values.
// Without an explicit level, the debug command shows skipped locations and expanded includes,
// other commands only warnings such as include cycles.
func setupLogging(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if cmd.Name() == debugCmd.Name() {
		level = slog.LevelDebug
	}
	if s := viper.GetString("log.level"); s != "" {
		if err := level.UnmarshalText([]byte(s)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", s, err)
		}
	}

	var h slog.Handler
	switch format := viper.GetString("log.format"); format {
	case "json":
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	case "text", "":
		h = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
			NoColor:    !isTerminal(os.Stderr),
		})
	default:
		return fmt.Errorf("invalid log format %q, want text or json", format)
	}

	slog.SetDefault(slog.New(h))
	return nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
