package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchMaxResults int
	searchContext    string
	searchJSON       bool
)

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchMaxResults, "max-results", "n", 5, "Maximum results to return")
	searchCmd.Flags().StringVar(&searchContext, "context", "cli", "User context recorded in the audit trail")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output results as JSON")
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the web through the safety gateway",
	Long: "Runs the query through the guarded pipeline: safety filters, rate\n" +
		"limits, trusted-domain filtering and bounded content fetch. Only\n" +
		"results from trusted domains are returned.",
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.gateway == nil {
		return fmt.Errorf("web access is disabled in config")
	}

	resp := a.gateway.SearchWebSafely(context.Background(), strings.Join(args, " "), searchMaxResults, searchContext)

	if searchJSON {
		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if !resp.Success {
		return fmt.Errorf("%s: %s", resp.Error, resp.Reason)
	}

	fmt.Printf("%d result(s) in %s\n\n", resp.TotalFound, resp.SearchTime)
	for i, r := range resp.Results {
		fmt.Printf("%d. %s\n   %s\n   trust %.2f | %s\n", i+1, r.Title, r.URL, r.TrustScore, r.DomainType)
		if r.Snippet != "" {
			fmt.Printf("   %s\n", r.Snippet)
		}
		fmt.Println()
	}
	return nil
}
