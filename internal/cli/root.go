// Package cli implements the gptoss command line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "gptoss",
	Short: "Guarded local assistant with adaptive content policy and safe web access",
	Long: "Runs a local LLM assistant behind two guards: an adaptive content policy\n" +
		"engine that scores text against category detectors per policy level, and a\n" +
		"web access gateway that only fetches from trusted domains. Every decision\n" +
		"is written to an append-only audit store.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default ~/.gptoss/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
