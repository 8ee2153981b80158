package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	checkContext string
	checkJSON    bool
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkContext, "context", "cli", "User context recorded in the audit trail")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Output the full evaluation as JSON")
}

var checkCmd = &cobra.Command{
	Use:   "check <text>",
	Short: "Evaluate text against the active content policy",
	Long: "Scores the text against every category detector and checks the scores\n" +
		"against the active level's thresholds.\n\n" +
		"Exit code 0 if allowed, 1 if blocked.",
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	result := a.engine.EvaluateContent(strings.Join(args, " "), checkContext)

	if checkJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else if result.Allowed {
		fmt.Printf("allowed (level %s)\n", result.LevelName)
		if result.OverrideApplied {
			fmt.Println("note: temporary override applied")
		}
	} else {
		fmt.Printf("blocked (level %s): %s\n", result.LevelName, result.BlockReason)
	}

	if !result.Allowed {
		os.Exit(1)
	}
	return nil
}
