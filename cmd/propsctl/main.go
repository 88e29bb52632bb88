package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "propsctl",
	Short:   "Inspect layered, context-sensitive property sources",
	Long: `propsctl loads property documents, environment variables and overrides
the way an application using props would, and shows the resolved values.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		readConfig(cmd)
		return setupLogging(cmd)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "propsctl settings file (default: ./propsctl.yaml)")
	addSourceFlags(flags)

	_ = viper.BindPFlag("context", flags.Lookup("context"))
	_ = viper.BindPFlag("context_prefix", flags.Lookup("context-prefix"))
	_ = viper.BindPFlag("resources", flags.Lookup("resource"))
	_ = viper.BindPFlag("dir", flags.Lookup("dir"))
	_ = viper.BindPFlag("include.key", flags.Lookup("include-key"))
	_ = viper.BindPFlag("include.delimiter", flags.Lookup("include-delimiter"))
	_ = viper.BindPFlag("set", flags.Lookup("set"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))

	rootCmd.AddCommand(getCmd, dumpCmd, resolveCmd, typesCmd, debugCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
