package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RageBober/mcp-gpt-oss/internal/policy"
)

var (
	levelToken  string
	levelReason string
)

func init() {
	rootCmd.AddCommand(levelCmd)
	levelCmd.Flags().StringVar(&levelToken, "token", "", "Authorization token; minted locally when omitted")
	levelCmd.Flags().StringVar(&levelReason, "reason", "", "Reason recorded in the audit trail")
}

var levelCmd = &cobra.Command{
	Use:   "level [safe|educational|research|unrestricted]",
	Short: "Show or change the active content policy level",
	Long: "Without arguments prints the active level. With a level argument\n" +
		"switches to it. Research and unrestricted need authorization; when\n" +
		"no token is given one is minted for the local operator.",
	Args: cobra.MaximumNArgs(1),
	RunE: runLevel,
}

func runLevel(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 0 {
		fmt.Println(a.engine.Level())
		return nil
	}

	level, err := policy.ParseLevel(args[0])
	if err != nil {
		return err
	}
	token := levelToken
	if level.RequiresAuthorization() {
		token = a.operatorToken(levelToken)
	}
	if err := a.engine.SetLevel(level, token, levelReason); err != nil {
		return err
	}

	fmt.Printf("policy level set to %s\n", level)
	return nil
}
