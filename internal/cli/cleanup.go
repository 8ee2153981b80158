package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cleanupDays int

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "Retention window in days (default from config)")
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete audit records older than the retention window",
	Long: "Removes policy evaluations, level changes, expired overrides and\n" +
		"web request logs older than the retention window, and clears the\n" +
		"web content cache.",
	RunE: runCleanup,
}

func runCleanup(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	days := cleanupDays
	if days <= 0 {
		days = a.cfg.Policy.RetentionDays
	}
	retention := time.Duration(days) * 24 * time.Hour

	counts, err := a.engine.CleanupExpiredData(retention)
	if err != nil {
		return fmt.Errorf("policy cleanup failed: %w", err)
	}
	fmt.Printf("policy: removed %d evaluations, %d level changes, %d expired overrides\n",
		counts.Evaluations, counts.PolicyChanges, counts.Overrides)

	if a.gateway != nil {
		removed, err := a.gateway.CleanupExpiredData(retention)
		if err != nil {
			return fmt.Errorf("web cleanup failed: %w", err)
		}
		a.gateway.ClearCache()
		fmt.Printf("web: removed %d request logs, cache cleared\n", removed)
	}

	return nil
}
