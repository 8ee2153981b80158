package cli

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RageBober/mcp-gpt-oss/internal/config"
	gptmcp "github.com/RageBober/mcp-gpt-oss/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP tool server for agent integration",
	Long: "Runs gptoss as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes guarded tools: evaluate, search, fetch, chat, set_level,\n" +
		"token, override, stats. Threshold and domain files are hot-reloaded\n" +
		"when they change on disk.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := log.New(log.NewTextHandler(os.Stderr, nil))

	srv, err := gptmcp.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	if paths := srv.WatchPaths(); len(paths) > 0 {
		reloader, err := config.NewReloader(paths, srv.Reload)
		if err != nil {
			logger.Warn("hot reload disabled", "error", err)
		} else {
			go func() {
				if err := reloader.Run(ctx); err != nil {
					logger.Warn("file watcher stopped", "error", err)
				}
			}()
			for _, p := range reloader.Paths() {
				fmt.Fprintf(os.Stderr, "watching %s\n", p)
			}
		}
	}

	fmt.Fprintln(os.Stderr, "gptoss MCP server running on stdio")
	return srv.Run(ctx)
}
