package cli

import (
	"fmt"
	log "log/slog"
	"os"
	"time"

	"github.com/RageBober/mcp-gpt-oss/internal/assistant"
	"github.com/RageBober/mcp-gpt-oss/internal/audit"
	"github.com/RageBober/mcp-gpt-oss/internal/config"
	"github.com/RageBober/mcp-gpt-oss/internal/llm"
	"github.com/RageBober/mcp-gpt-oss/internal/policy"
	"github.com/RageBober/mcp-gpt-oss/internal/webaccess"
)

// app bundles the wired components behind the CLI commands.
type app struct {
	cfg       *config.Config
	logger    *log.Logger
	engine    *policy.Engine
	gateway   *webaccess.Gateway
	client    *llm.Client
	assistant *assistant.Assistant

	policyStore *audit.PolicyStore
	webStore    *audit.WebStore
}

// newApp loads config and wires the policy engine, gateway and chat
// backend. Web components are skipped when disabled in config.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := log.New(log.NewTextHandler(os.Stderr, nil))

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

	a := &app{
		cfg:         cfg,
		logger:      logger,
		engine:      engine,
		policyStore: policyStore,
	}

	if cfg.Policy.Level != "" && cfg.Policy.Level != "safe" {
		level, err := policy.ParseLevel(cfg.Policy.Level)
		if err != nil {
			a.close()
			return nil, err
		}
		if level.RequiresAuthorization() {
			a.close()
			return nil, fmt.Errorf("level %s cannot be set from config without authorization", level)
		}
		if err := engine.SetLevel(level, "", "startup config"); err != nil {
			a.close()
			return nil, err
		}
	}

	if cfg.Web.Enabled {
		webStore, err := audit.OpenWeb(cfg.WebDatabasePath())
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to open web audit store: %w", err)
		}
		a.webStore = webStore

		registry, err := webaccess.LoadRegistry(cfg.Web.DomainsFile)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to load domain registry: %w", err)
		}
		a.gateway = webaccess.NewGateway(webaccess.GatewayConfig{
			Registry:        registry,
			Store:           webStore,
			Logger:          logger,
			CacheTTL:        time.Duration(cfg.Web.CacheTTLMinutes) * time.Minute,
			MaxContentBytes: cfg.Web.MaxContentBytes,
		})
	}

	a.client = llm.NewClient(llm.Config{
		APIURL:      cfg.LLM.APIURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	a.assistant = assistant.New(engine, a.gateway, a.client, logger)

	return a, nil
}

// operatorToken returns the token to use for privileged engine calls.
// When the caller supplied none, a short-lived unrestricted token is
// minted for the local operator: whoever runs the CLI already controls
// the config and audit database, so the session-token gate only means
// something for remote callers (the MCP surface).
func (a *app) operatorToken(supplied string) string {
	if supplied != "" {
		return supplied
	}
	return a.engine.GenerateToken("local-operator", policy.LevelUnrestricted, time.Minute)
}

func (a *app) close() {
	if a.policyStore != nil {
		a.policyStore.Close()
	}
	if a.webStore != nil {
		a.webStore.Close()
	}
}
