package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	statsHours int
	statsJSON  bool
)

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsHours, "hours", 24, "Window in hours")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report policy and web usage statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	window := time.Duration(statsHours) * time.Hour

	policyStats, err := a.engine.Statistics(window)
	if err != nil {
		return err
	}

	if statsJSON {
		out := map[string]any{"policy": policyStats}
		if a.gateway != nil {
			webStats, err := a.gateway.UsageStatistics(window)
			if err != nil {
				return err
			}
			out["web"] = webStats
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("policy (last %dh)\n", statsHours)
	fmt.Printf("  level:        %s\n", policyStats.CurrentLevel)
	fmt.Printf("  evaluations:  %d (%d allowed, %d blocked)\n",
		policyStats.TotalEvaluations, policyStats.AllowedCount, policyStats.BlockedCount)
	fmt.Printf("  allow rate:   %.1f%%\n", policyStats.AllowRate*100)
	fmt.Printf("  overrides:    %d active\n", policyStats.ActiveOverrides)
	for _, r := range policyStats.TopBlockReasons {
		fmt.Printf("  block reason: %s (%d)\n", r.Reason, r.Count)
	}

	if a.gateway != nil {
		webStats, err := a.gateway.UsageStatistics(window)
		if err != nil {
			return err
		}
		fmt.Printf("\nweb (last %dh)\n", statsHours)
		fmt.Printf("  requests:     %d (%d successful, %.1f%% success)\n",
			webStats.TotalRequests, webStats.SuccessfulRequests, webStats.SuccessRate*100)
		fmt.Printf("  avg latency:  %.0fms\n", webStats.AvgResponseTimeMS)
		fmt.Printf("  avg trust:    %.2f\n", webStats.AvgTrustScore)
		fmt.Printf("  blocked:      %d attempt(s)\n", webStats.BlockedAttempts)
		for _, d := range webStats.TopDomains {
			fmt.Printf("  top domain:   %s (%d)\n", d.Domain, d.Requests)
		}
	}
	return nil
}
