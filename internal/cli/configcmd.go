package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/RageBober/mcp-gpt-oss/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: "Loads the config file (or defaults when it is missing) and prints\n" +
		"the effective settings as YAML, including the resolved database paths.",
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Never print the backend key.
	if cfg.LLM.APIKey != "" {
		cfg.LLM.APIKey = "***"
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	fmt.Printf("# policy database: %s\n", cfg.PolicyDatabasePath())
	fmt.Printf("# web database:    %s\n", cfg.WebDatabasePath())
	return nil
}
