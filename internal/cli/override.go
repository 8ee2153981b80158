package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	overrideTTLHours int
	overrideReason   string
	overrideToken    string
)

func init() {
	rootCmd.AddCommand(overrideCmd)
	overrideCmd.Flags().IntVar(&overrideTTLHours, "ttl", 1, "Override lifetime in hours")
	overrideCmd.Flags().StringVar(&overrideReason, "reason", "", "Why the override is needed")
	overrideCmd.Flags().StringVar(&overrideToken, "token", "", "Research-level token; minted locally when omitted")
}

var overrideCmd = &cobra.Command{
	Use:   "override <pattern>",
	Short: "Add a temporary content override pattern",
	Long: "Registers a case-insensitive regex pattern that suppresses all\n" +
		"violations for matching content until it expires. Requires\n" +
		"research-level authorization.",
	Args: cobra.ExactArgs(1),
	RunE: runOverride,
}

func runOverride(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ttl := time.Duration(overrideTTLHours) * time.Hour
	if err := a.engine.AddTemporaryOverride(args[0], ttl, overrideReason, a.operatorToken(overrideToken)); err != nil {
		return err
	}

	fmt.Printf("override added, expires %s\n", time.Now().Add(ttl).Format(time.RFC3339))
	return nil
}
