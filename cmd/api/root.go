package main

import (
	"github.com/spf13/cobra"

	"text-analysis-api/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:          "text-analysis-api",
	Short:        "Hallucination and gibberish scoring API.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.SetConfigFile(configFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a TOML config file applied before environment variables")
	rootCmd.DisableAutoGenTag = true

	rootCmd.AddCommand(serveCmd, migrateCmd)
}
