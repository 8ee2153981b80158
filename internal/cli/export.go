package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RageBober/mcp-gpt-oss/internal/policy"
)

var importToken string

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importToken, "token", "", "Authorization token; minted locally when omitted")
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the policy configuration as JSON",
	Long: "Writes the active level, the full threshold table and all unexpired\n" +
		"overrides to the file, or stdout when omitted.",
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	snap := a.engine.ExportConfig()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(args[0], data, 0o600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Printf("exported policy config to %s\n", args[0])
	return nil
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a policy configuration snapshot",
	Long: "Restores a snapshot produced by export. Importing requires a\n" +
		"research-level token; restoring thresholds requires unrestricted.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap policy.ConfigSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}

	if err := a.engine.ImportConfig(snap, a.operatorToken(importToken)); err != nil {
		return err
	}
	fmt.Println("policy config imported")
	return nil
}
