// Package mcp exposes the policy engine, web gateway and guarded chat
// pipeline as MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/RageBober/mcp-gpt-oss/internal/assistant"
	"github.com/RageBober/mcp-gpt-oss/internal/audit"
	"github.com/RageBober/mcp-gpt-oss/internal/config"
	"github.com/RageBober/mcp-gpt-oss/internal/llm"
	"github.com/RageBober/mcp-gpt-oss/internal/policy"
	"github.com/RageBober/mcp-gpt-oss/internal/webaccess"
)

// Server wraps the MCP SDK server around the policy and web guards.
type Server struct {
	mcpServer *mcpsdk.Server
	engine    *policy.Engine
	gateway   *webaccess.Gateway
	assistant *assistant.Assistant
	logger    *log.Logger

	policyStore *audit.PolicyStore
	webStore    *audit.WebStore

	thresholdsFile string
	domainsFile    string
}

// New builds a server from application config: audit stores are opened
// under the data directory, the threshold table and domain registry are
// loaded from their configured files, and all tools are registered.
func New(cfg *config.Config, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}

	policyStore, err := audit.OpenPolicy(cfg.PolicyDatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open policy audit store: %w", err)
	}

	table, err := policy.LoadTable(cfg.Policy.ThresholdsFile)
	if err != nil {
		policyStore.Close()
		return nil, fmt.Errorf("failed to load threshold table: %w", err)
	}

	engine, err := policy.NewEngine(policy.EngineConfig{
		Table:  table,
		Store:  policyStore,
		Logger: logger,
	})
	if err != nil {
		policyStore.Close()
		return nil, err
	}

	if cfg.Policy.Level != "" && cfg.Policy.Level != "safe" {
		level, err := policy.ParseLevel(cfg.Policy.Level)
		if err != nil {
			policyStore.Close()
			return nil, err
		}
		if level.RequiresAuthorization() {
			policyStore.Close()
			return nil, fmt.Errorf("level %s cannot be set from config without authorization", level)
		}
		if err := engine.SetLevel(level, "", "startup config"); err != nil {
			policyStore.Close()
			return nil, err
		}
	}

	var gateway *webaccess.Gateway
	var webStore *audit.WebStore
	if cfg.Web.Enabled {
		webStore, err = audit.OpenWeb(cfg.WebDatabasePath())
		if err != nil {
			policyStore.Close()
			return nil, fmt.Errorf("failed to open web audit store: %w", err)
		}
		registry, err := webaccess.LoadRegistry(cfg.Web.DomainsFile)
		if err != nil {
			policyStore.Close()
			webStore.Close()
			return nil, fmt.Errorf("failed to load domain registry: %w", err)
		}
		gateway = webaccess.NewGateway(webaccess.GatewayConfig{
			Registry:        registry,
			Store:           webStore,
			Logger:          logger,
			CacheTTL:        time.Duration(cfg.Web.CacheTTLMinutes) * time.Minute,
			MaxContentBytes: cfg.Web.MaxContentBytes,
		})
	}

	client := llm.NewClient(llm.Config{
		APIURL:      cfg.LLM.APIURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})

	s := &Server{
		engine:         engine,
		gateway:        gateway,
		assistant:      assistant.New(engine, gateway, client, logger),
		logger:         logger,
		policyStore:    policyStore,
		webStore:       webStore,
		thresholdsFile: cfg.Policy.ThresholdsFile,
	}
	if gateway != nil {
		s.domainsFile = cfg.Web.DomainsFile
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "gptoss",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// WatchPaths returns the config files whose on-disk changes Reload can
// apply to the running server.
func (s *Server) WatchPaths() []string {
	var paths []string
	if s.thresholdsFile != "" {
		paths = append(paths, s.thresholdsFile)
	}
	if s.domainsFile != "" {
		paths = append(paths, s.domainsFile)
	}
	return paths
}

// Reload re-reads a changed thresholds or domains file and swaps it in.
// Unknown paths are ignored.
func (s *Server) Reload(path string) error {
	switch path {
	case s.thresholdsFile:
		table, err := policy.LoadTable(path)
		if err != nil {
			return fmt.Errorf("failed to reload threshold table: %w", err)
		}
		if err := s.engine.ReloadTable(table); err != nil {
			return err
		}
		s.logger.Info("threshold table reloaded", "path", path)
	case s.domainsFile:
		if s.gateway == nil {
			return nil
		}
		registry, err := webaccess.LoadRegistry(path)
		if err != nil {
			return fmt.Errorf("failed to reload domain registry: %w", err)
		}
		s.gateway.ReloadRegistry(registry)
		s.logger.Info("domain registry reloaded", "path", path)
	}
	return nil
}

// Close releases the audit stores.
func (s *Server) Close() error {
	var firstErr error
	if s.policyStore != nil {
		if err := s.policyStore.Close(); err != nil {
			firstErr = err
		}
	}
	if s.webStore != nil {
		if err := s.webStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// registerTools adds all gptoss tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "gptoss_evaluate",
		Description: "Evaluate text against the active content policy. Returns per-category scores and the allow/block decision.",
	}, s.handleEvaluate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "gptoss_search",
		Description: "Search the web through the safety gateway. Only trusted domains are fetched; unsafe queries are blocked.",
	}, s.handleSearch)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "gptoss_fetch",
		Description: "Fetch a single URL through the safety gateway and return sanitized plain text.",
	}, s.handleFetch)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "gptoss_chat",
		Description: "Send a prompt to the LLM with content policy checks on both the prompt and the reply, optionally enriched with vetted web context.",
	}, s.handleChat)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "gptoss_set_level",
		Description: "Change the active content policy level. Research and unrestricted require an authorization token.",
	}, s.handleSetLevel)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "gptoss_token",
		Description: "Mint an authorization token bound to a subject and policy level.",
	}, s.handleToken)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "gptoss_override",
		Description: "Add a temporary content override pattern. Requires research-level authorization.",
	}, s.handleOverride)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "gptoss_stats",
		Description: "Report policy evaluation and web usage statistics over a time window.",
	}, s.handleStats)
}
