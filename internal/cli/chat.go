package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RageBober/mcp-gpt-oss/internal/llm"
)

var (
	chatSystem  string
	chatContext string
	chatNoWeb   bool
)

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatSystem, "system", "", "System prompt")
	chatCmd.Flags().StringVar(&chatContext, "context", "cli", "User context recorded in the audit trail")
	chatCmd.Flags().BoolVar(&chatNoWeb, "no-web", false, "Disable web lookups for this turn")
}

var chatCmd = &cobra.Command{
	Use:   "chat <prompt>",
	Short: "Send a guarded prompt to the LLM",
	Long: "Evaluates the prompt against the content policy, optionally enriches\n" +
		"it with vetted web context when the prompt asks for fresh information,\n" +
		"sends it to the chat backend and evaluates the reply before printing it.",
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if chatNoWeb {
		a.assistant.WebEnabled = false
	}

	var messages []llm.Message
	if chatSystem != "" {
		messages = append(messages, llm.Message{Role: "system", Content: chatSystem})
	}
	messages = append(messages, llm.Message{Role: "user", Content: strings.Join(args, " ")})

	reply, err := a.assistant.Respond(context.Background(), messages, chatContext)
	if err != nil {
		return err
	}

	if reply.Blocked {
		return fmt.Errorf("blocked (level %s): %s", reply.PolicyLevel, reply.BlockReason)
	}

	fmt.Println(reply.Content)
	if reply.WebSearchUsed {
		fmt.Printf("\n[%d web source(s) used]\n", reply.WebSourcesCount)
	}
	return nil
}
