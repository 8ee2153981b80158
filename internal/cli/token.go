package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/RageBober/mcp-gpt-oss/internal/policy"
)

var tokenTTLHours int

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().IntVar(&tokenTTLHours, "ttl", 24, "Token lifetime in hours")
}

var tokenCmd = &cobra.Command{
	Use:   "token <subject> <level>",
	Short: "Mint an authorization token",
	Long: "Mints an opaque token bound to the subject and level. Tokens at\n" +
		"a level satisfy authorization checks at that level and below, and\n" +
		"expire after the TTL with no revocation.\n\n" +
		"Tokens live in process memory. For a long-running session mint them\n" +
		"through the MCP server (gptoss_token) instead.",
	Args: cobra.ExactArgs(2),
	RunE: runToken,
}

func runToken(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	level, err := policy.ParseLevel(args[1])
	if err != nil {
		return err
	}

	ttl := time.Duration(tokenTTLHours) * time.Hour
	token := a.engine.GenerateToken(args[0], level, ttl)

	fmt.Println(token)
	fmt.Printf("subject: %s  level: %s  expires: %s\n",
		args[0], level, time.Now().Add(ttl).Format(time.RFC3339))
	return nil
}
